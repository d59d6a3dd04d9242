// Package scenario reads and writes scene documents: the YAML form of an
// incident scene with its objects, keyframe track and enabled envelopes.
package scenario

import (
	"fmt"

	"github.com/colbychapman3/incident-replay-engine-sub000/internal/envelope"
	"github.com/colbychapman3/incident-replay-engine-sub000/internal/state"
	"github.com/colbychapman3/incident-replay-engine-sub000/internal/timeline"
)

// Version is written into every new document.
const Version = "1"

// Document is a complete scene as stored on disk.
type Document struct {
	Version     string              `yaml:"version"`
	Name        string              `yaml:"name"`
	Description string              `yaml:"description,omitempty"`
	Objects     []state.SceneObject `yaml:"objects"`
	Timeline    Timeline            `yaml:"timeline"`
	Envelopes   []envelope.Kind     `yaml:"envelopes,omitempty"` // enabled overlays
}

// Timeline is the keyframe track of a document.
type Timeline struct {
	Duration  float64             `yaml:"duration"` // seconds, 0 = default
	FPS       int                 `yaml:"fps"`      // 0 = default
	Keyframes []timeline.Keyframe `yaml:"keyframes"`
}

// State builds the initial scene described by d. Keyframes are sorted and
// the duration grows to cover the last one. The result passes
// state.Validate.
func (d *Document) State() (state.State, error) {
	st := state.New()

	for _, o := range d.Objects {
		st.Objects = append(st.Objects, o.Clone())
	}

	kfs := timeline.CloneKeyframes(d.Timeline.Keyframes)
	if kfs == nil {
		kfs = []timeline.Keyframe{}
	}
	for i := range kfs {
		if kfs[i].Timestamp < 0 {
			return state.State{}, fmt.Errorf("keyframe %q: negative timestamp %g", kfs[i].ID, kfs[i].Timestamp)
		}
		if kfs[i].ObjectStates == nil {
			kfs[i].ObjectStates = map[string]timeline.ObjectState{}
		}
	}
	timeline.SortKeyframes(kfs)
	st.Timeline.Keyframes = kfs

	if d.Timeline.Duration > 0 {
		st.Timeline.Duration = d.Timeline.Duration
	}
	if d.Timeline.FPS > 0 {
		st.Timeline.FPS = d.Timeline.FPS
	}
	if n := len(kfs); n > 0 && kfs[n-1].Timestamp > st.Timeline.Duration {
		st.Timeline.Duration = kfs[n-1].Timestamp
	}

	for _, k := range d.Envelopes {
		if _, err := envelope.ParseKind(string(k)); err != nil {
			return state.State{}, err
		}
		st.Envelopes.Set(k, true)
	}

	if err := state.Validate(st); err != nil {
		return state.State{}, fmt.Errorf("invalid scene %q: %w", d.Name, err)
	}
	return st, nil
}

// FromState captures the scene part of st as a document. Edit history and
// undo stacks are not stored.
func FromState(name string, st state.State) *Document {
	objs := make([]state.SceneObject, len(st.Objects))
	for i, o := range st.Objects {
		objs[i] = o.Clone()
	}
	return &Document{
		Version: Version,
		Name:    name,
		Objects: objs,
		Timeline: Timeline{
			Duration:  st.Timeline.Duration,
			FPS:       st.Timeline.FPS,
			Keyframes: timeline.CloneKeyframes(st.Timeline.Keyframes),
		},
		Envelopes: st.Envelopes.EnabledKinds(),
	}
}
