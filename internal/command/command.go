// Package command is the boundary between untrusted automation input and
// the scene reducer. A command is validated against a JSON Schema, decoded
// into a state.Action and applied in an isolated goroutine under a hard
// deadline.
package command

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/colbychapman3/incident-replay-engine-sub000/internal/geometry"
	"github.com/colbychapman3/incident-replay-engine-sub000/internal/state"
	"github.com/colbychapman3/incident-replay-engine-sub000/internal/timeline"
)

// Command is the wire form of an action.
type Command struct {
	Type    state.ActionType `json:"type"`
	Payload json.RawMessage  `json:"payload,omitempty"`
	// At stamps the scene's change history. Leave it empty to keep
	// replays byte-for-byte reproducible.
	At time.Time `json:"at,omitzero"`
}

// New builds a command from a payload value.
func New(action state.ActionType, payload any) (Command, error) {
	if payload == nil {
		return Command{Type: action}, nil
	}
	raw, err := json.Marshal(payload)
	if err != nil {
		return Command{}, fmt.Errorf("encode %s payload: %w", action, err)
	}
	return Command{Type: action, Payload: raw}, nil
}

// ReadFile loads a JSON array of commands.
func ReadFile(path string) ([]Command, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var cmds []Command
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&cmds); err != nil {
		return nil, fmt.Errorf("parse commands %s: %w", path, err)
	}
	return cmds, nil
}

type wirePayload struct {
	Object     *state.SceneObject              `json:"object"`
	ID         string                          `json:"id"`
	Position   geometry.Point                  `json:"position"`
	Rotation   float64                         `json:"rotation"`
	Index      int                             `json:"index"`
	Envelope   string                          `json:"envelope"`
	Keyframe   *timeline.Keyframe              `json:"keyframe"`
	KeyframeID string                          `json:"keyframeId"`
	ObjectID   string                          `json:"objectId"`
	Patch      *state.KeyframePatch            `json:"patch"`
	State      *timeline.ObjectState           `json:"state"`
	Time       float64                         `json:"time"`
	States     map[string]timeline.ObjectState `json:"states"`
}

// payloadBytes returns the payload, treating an absent one as {}.
func (c Command) payloadBytes() []byte {
	p := bytes.TrimSpace(c.Payload)
	if len(p) == 0 || bytes.Equal(p, []byte("null")) {
		return []byte("{}")
	}
	return p
}

// Action decodes a schema-valid payload into a reducer action.
func (c Command) Action() (state.Action, error) {
	var p wirePayload
	if err := json.Unmarshal(c.payloadBytes(), &p); err != nil {
		return state.Action{}, fmt.Errorf("decode %s payload: %w", c.Type, err)
	}

	a := state.Action{
		Type:        c.Type,
		Object:      p.Object,
		Position:    p.Position,
		Rotation:    p.Rotation,
		Index:       p.Index,
		Envelope:    p.Envelope,
		Keyframe:    p.Keyframe,
		Patch:       p.Patch,
		ObjectState: p.State,
		Time:        p.Time,
		States:      p.States,
		At:          c.At,
	}
	switch c.Type {
	case state.ActionUpdateKeyframe, state.ActionDeleteKeyframe:
		a.KeyframeID = p.ID
	case state.ActionUpdateObjectAtKeyframe:
		a.KeyframeID = p.KeyframeID
		a.ObjectID = p.ObjectID
	default:
		a.ObjectID = p.ID
	}
	return a, nil
}
