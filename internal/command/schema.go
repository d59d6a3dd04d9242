package command

import (
	"fmt"
	"regexp"
	"strings"
	"sync"

	"github.com/google/uuid"
	"github.com/xeipuuv/gojsonschema"

	"github.com/colbychapman3/incident-replay-engine-sub000/internal/state"
)

var semanticID = regexp.MustCompile(`^[a-zA-Z0-9._-]+$`)

// objectIDFormatChecker accepts UUIDs and semantic ids such as
// "forklift-1" or "ramp.north".
type objectIDFormatChecker struct{}

func (objectIDFormatChecker) IsFormat(input interface{}) bool {
	s, ok := input.(string)
	if !ok || s == "" {
		return false
	}
	if _, err := uuid.Parse(s); err == nil {
		return true
	}
	return semanticID.MatchString(s)
}

const definitions = `"definitions": {
  "id": {"type": "string", "format": "object_id"},
  "point": {
    "type": "object",
    "required": ["x", "y"],
    "properties": {"x": {"type": "number"}, "y": {"type": "number"}}
  },
  "objectState": {
    "type": "object",
    "required": ["position"],
    "properties": {
      "position": {"$ref": "#/definitions/point"},
      "rotation": {"type": "number"},
      "visible": {"type": "boolean", "default": true},
      "properties": {"type": "object"}
    }
  },
  "objectStates": {
    "type": "object",
    "additionalProperties": {"$ref": "#/definitions/objectState"}
  },
  "sceneObject": {
    "type": "object",
    "required": ["id"],
    "properties": {
      "id": {"$ref": "#/definitions/id"},
      "assetId": {"type": "string"},
      "category": {"enum": ["vehicle", "actor", "safety-object"]},
      "locked": {"type": "boolean"},
      "position": {"$ref": "#/definitions/point"},
      "rotation": {"type": "number"},
      "hidden": {"type": "boolean"},
      "properties": {"type": "object"}
    }
  },
  "keyframe": {
    "type": "object",
    "required": ["id", "timestamp"],
    "properties": {
      "id": {"$ref": "#/definitions/id"},
      "timestamp": {"type": "number", "minimum": 0},
      "label": {"type": "string"},
      "objectStates": {"$ref": "#/definitions/objectStates"}
    }
  }
}`

// payloadSchemas describes the payload properties and required keys of
// every action.
var payloadSchemas = map[state.ActionType]string{
	state.ActionAddObject: `"required": ["object"],
"properties": {"object": {"$ref": "#/definitions/sceneObject"}}`,
	state.ActionMoveObject: `"required": ["id", "position"],
"properties": {"id": {"$ref": "#/definitions/id"}, "position": {"$ref": "#/definitions/point"}}`,
	state.ActionRotateObject: `"required": ["id", "rotation"],
"properties": {"id": {"$ref": "#/definitions/id"}, "rotation": {"type": "number"}}`,
	state.ActionDeleteObject: `"required": ["id"],
"properties": {"id": {"$ref": "#/definitions/id"}}`,
	state.ActionSetKeyframe: `"required": ["index"],
"properties": {"index": {"type": "integer", "minimum": 0}}`,
	state.ActionToggleEnvelope: `"required": ["envelope"],
"properties": {"envelope": {"enum": ["forkliftVision", "mafiSwing", "spotterLOS", "rampClearance"]}}`,
	state.ActionSelectObject: `"required": ["id"],
"properties": {"id": {"$ref": "#/definitions/id"}}`,
	state.ActionDeselectObject: `"required": ["id"],
"properties": {"id": {"$ref": "#/definitions/id"}}`,
	state.ActionClearSelection: `"properties": {}`,
	state.ActionAddKeyframe: `"required": ["keyframe"],
"properties": {"keyframe": {"$ref": "#/definitions/keyframe"}}`,
	state.ActionUpdateKeyframe: `"required": ["id", "patch"],
"properties": {
  "id": {"$ref": "#/definitions/id"},
  "patch": {
    "type": "object",
    "properties": {
      "timestamp": {"type": "number", "minimum": 0},
      "label": {"type": "string"},
      "objectStates": {"$ref": "#/definitions/objectStates"}
    }
  }
}`,
	state.ActionDeleteKeyframe: `"required": ["id"],
"properties": {"id": {"$ref": "#/definitions/id"}}`,
	state.ActionUpdateObjectAtKeyframe: `"required": ["keyframeId", "objectId", "state"],
"properties": {
  "keyframeId": {"$ref": "#/definitions/id"},
  "objectId": {"$ref": "#/definitions/id"},
  "state": {"$ref": "#/definitions/objectState"}
}`,
	state.ActionSetTime: `"required": ["time"],
"properties": {"time": {"type": "number"}}`,
	state.ActionApplyInterpolatedStates: `"required": ["states"],
"properties": {"states": {"$ref": "#/definitions/objectStates"}}`,
	state.ActionUndo: `"properties": {}`,
	state.ActionRedo: `"properties": {}`,
}

var (
	compileOnce sync.Once
	compiled    map[state.ActionType]*gojsonschema.Schema
	compileErr  error
)

func schemas() (map[state.ActionType]*gojsonschema.Schema, error) {
	compileOnce.Do(func() {
		gojsonschema.FormatCheckers.Add("object_id", objectIDFormatChecker{})
		compiled = make(map[state.ActionType]*gojsonschema.Schema, len(payloadSchemas))
		for action, body := range payloadSchemas {
			doc := fmt.Sprintf(`{"type": "object", %s, %s}`, body, definitions)
			s, err := gojsonschema.NewSchema(gojsonschema.NewStringLoader(doc))
			if err != nil {
				compileErr = fmt.Errorf("compile %s schema: %w", action, err)
				return
			}
			compiled[action] = s
		}
	})
	return compiled, compileErr
}

// validatePayload checks payload against the schema of action.
func validatePayload(action state.ActionType, payload []byte) error {
	all, err := schemas()
	if err != nil {
		return err
	}
	s, ok := all[action]
	if !ok {
		return fmt.Errorf("no schema for %s", action)
	}
	result, err := s.Validate(gojsonschema.NewBytesLoader(payload))
	if err != nil {
		return fmt.Errorf("invalid JSON: %w", err)
	}
	if !result.Valid() {
		var problems []string
		for _, desc := range result.Errors() {
			problems = append(problems, desc.String())
		}
		return fmt.Errorf("payload does not match %s schema: %s", action, strings.Join(problems, "; "))
	}
	return nil
}
