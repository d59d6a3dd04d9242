package state

import (
	"time"

	"github.com/colbychapman3/incident-replay-engine-sub000/internal/geometry"
	"github.com/colbychapman3/incident-replay-engine-sub000/internal/timeline"
)

// ActionType names a scene edit.
type ActionType string

const (
	ActionAddObject               ActionType = "ADD_OBJECT"
	ActionMoveObject              ActionType = "MOVE_OBJECT"
	ActionRotateObject            ActionType = "ROTATE_OBJECT"
	ActionDeleteObject            ActionType = "DELETE_OBJECT"
	ActionSetKeyframe             ActionType = "SET_KEYFRAME"
	ActionToggleEnvelope          ActionType = "TOGGLE_ENVELOPE"
	ActionSelectObject            ActionType = "SELECT_OBJECT"
	ActionDeselectObject          ActionType = "DESELECT_OBJECT"
	ActionClearSelection          ActionType = "CLEAR_SELECTION"
	ActionAddKeyframe             ActionType = "ADD_KEYFRAME"
	ActionUpdateKeyframe          ActionType = "UPDATE_KEYFRAME"
	ActionDeleteKeyframe          ActionType = "DELETE_KEYFRAME"
	ActionUpdateObjectAtKeyframe  ActionType = "UPDATE_OBJECT_AT_KEYFRAME"
	ActionSetTime                 ActionType = "SET_TIME"
	ActionApplyInterpolatedStates ActionType = "APPLY_INTERPOLATED_STATES"
	ActionUndo                    ActionType = "UNDO"
	ActionRedo                    ActionType = "REDO"
)

// ActionTypes lists the whole vocabulary in a fixed order.
var ActionTypes = []ActionType{
	ActionAddObject, ActionMoveObject, ActionRotateObject, ActionDeleteObject,
	ActionSetKeyframe, ActionToggleEnvelope, ActionSelectObject, ActionDeselectObject,
	ActionClearSelection, ActionAddKeyframe, ActionUpdateKeyframe, ActionDeleteKeyframe,
	ActionUpdateObjectAtKeyframe, ActionSetTime, ActionApplyInterpolatedStates,
	ActionUndo, ActionRedo,
}

// Known reports whether t is part of the vocabulary.
func (t ActionType) Known() bool {
	for _, k := range ActionTypes {
		if k == t {
			return true
		}
	}
	return false
}

// KeyframePatch carries the fields of UPDATE_KEYFRAME. Nil fields are left
// alone; a non-nil ObjectStates map is merged key by key.
type KeyframePatch struct {
	Timestamp    *float64                        `yaml:"timestamp,omitempty" json:"timestamp,omitempty" msgpack:"timestamp,omitempty"`
	Label        *string                         `yaml:"label,omitempty" json:"label,omitempty" msgpack:"label,omitempty"`
	ObjectStates map[string]timeline.ObjectState `yaml:"objectStates,omitempty" json:"objectStates,omitempty" msgpack:"objectStates,omitempty"`
}

// Action is a single scene edit. Only the fields used by Type are read.
// At stamps the change history; the reducer never reads the clock itself.
type Action struct {
	Type        ActionType                      `msgpack:"type"`
	Object      *SceneObject                    `msgpack:"object,omitempty"`
	ObjectID    string                          `msgpack:"objectId,omitempty"`
	Position    geometry.Point                  `msgpack:"position"`
	Rotation    float64                         `msgpack:"rotation"`
	Index       int                             `msgpack:"index"`
	Envelope    string                          `msgpack:"envelope,omitempty"`
	Keyframe    *timeline.Keyframe              `msgpack:"keyframe,omitempty"`
	KeyframeID  string                          `msgpack:"keyframeId,omitempty"`
	Patch       *KeyframePatch                  `msgpack:"patch,omitempty"`
	ObjectState *timeline.ObjectState           `msgpack:"objectState,omitempty"`
	Time        float64                         `msgpack:"time"`
	States      map[string]timeline.ObjectState `msgpack:"states,omitempty"`
	At          time.Time                       `msgpack:"at"`
}

// Stamped returns a with its history timestamp set.
func (a Action) Stamped(at time.Time) Action {
	a.At = at
	return a
}

func AddObject(o SceneObject) Action {
	return Action{Type: ActionAddObject, Object: &o}
}

func MoveObject(id string, p geometry.Point) Action {
	return Action{Type: ActionMoveObject, ObjectID: id, Position: p}
}

func RotateObject(id string, rotation float64) Action {
	return Action{Type: ActionRotateObject, ObjectID: id, Rotation: rotation}
}

func DeleteObject(id string) Action {
	return Action{Type: ActionDeleteObject, ObjectID: id}
}

func SetKeyframe(index int) Action {
	return Action{Type: ActionSetKeyframe, Index: index}
}

func ToggleEnvelope(name string) Action {
	return Action{Type: ActionToggleEnvelope, Envelope: name}
}

func SelectObject(id string) Action {
	return Action{Type: ActionSelectObject, ObjectID: id}
}

func DeselectObject(id string) Action {
	return Action{Type: ActionDeselectObject, ObjectID: id}
}

func ClearSelection() Action {
	return Action{Type: ActionClearSelection}
}

func AddKeyframe(kf timeline.Keyframe) Action {
	return Action{Type: ActionAddKeyframe, Keyframe: &kf}
}

func UpdateKeyframe(id string, patch KeyframePatch) Action {
	return Action{Type: ActionUpdateKeyframe, KeyframeID: id, Patch: &patch}
}

func DeleteKeyframe(id string) Action {
	return Action{Type: ActionDeleteKeyframe, KeyframeID: id}
}

func UpdateObjectAtKeyframe(keyframeID, objectID string, s timeline.ObjectState) Action {
	return Action{Type: ActionUpdateObjectAtKeyframe, KeyframeID: keyframeID, ObjectID: objectID, ObjectState: &s}
}

func SetTime(t float64) Action {
	return Action{Type: ActionSetTime, Time: t}
}

func ApplyInterpolatedStates(states map[string]timeline.ObjectState) Action {
	return Action{Type: ActionApplyInterpolatedStates, States: states}
}

func Undo() Action { return Action{Type: ActionUndo} }

func Redo() Action { return Action{Type: ActionRedo} }
