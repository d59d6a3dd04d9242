// Package state holds the scene being reconstructed and the reducer that
// edits it. Every edit goes through Apply, which returns a new State and
// never touches its input.
package state

import (
	"time"

	"github.com/colbychapman3/incident-replay-engine-sub000/internal/envelope"
	"github.com/colbychapman3/incident-replay-engine-sub000/internal/geometry"
	"github.com/colbychapman3/incident-replay-engine-sub000/internal/timeline"
)

const (
	DefaultDuration = 60.0
	DefaultFPS      = 30
)

// Category groups scene assets.
type Category string

const (
	CategoryVehicle      Category = "vehicle"
	CategoryActor        Category = "actor"
	CategorySafetyObject Category = "safety-object"
)

// SceneObject is one placed asset. Position and rotation are kept as typed
// fields; asset-specific attributes such as forkHeight, hasLoad,
// visionRange, clearanceHeight or boundary live in Properties.
type SceneObject struct {
	ID         string         `yaml:"id" json:"id" msgpack:"id"`
	AssetID    string         `yaml:"assetId" json:"assetId" msgpack:"assetId"`
	Category   Category       `yaml:"category" json:"category" msgpack:"category"`
	Locked     bool           `yaml:"locked,omitempty" json:"locked,omitempty" msgpack:"locked"`
	Position   geometry.Point `yaml:"position" json:"position" msgpack:"position"`
	Rotation   float64        `yaml:"rotation" json:"rotation" msgpack:"rotation"`
	Hidden     bool           `yaml:"hidden,omitempty" json:"hidden,omitempty" msgpack:"hidden"`
	Properties map[string]any `yaml:"properties,omitempty" json:"properties,omitempty" msgpack:"properties"`
}

// Clone returns a deep copy of o.
func (o SceneObject) Clone() SceneObject {
	o.Properties = timeline.CloneProperties(o.Properties)
	return o
}

// EnvelopeVisibility records which hazard overlays are switched on.
type EnvelopeVisibility struct {
	ForkliftVision bool `yaml:"forkliftVision" json:"forkliftVision" msgpack:"forkliftVision"`
	MafiSwing      bool `yaml:"mafiSwing" json:"mafiSwing" msgpack:"mafiSwing"`
	SpotterLOS     bool `yaml:"spotterLOS" json:"spotterLOS" msgpack:"spotterLOS"`
	RampClearance  bool `yaml:"rampClearance" json:"rampClearance" msgpack:"rampClearance"`
}

func (v *EnvelopeVisibility) flag(kind envelope.Kind) *bool {
	switch kind {
	case envelope.KindForkliftVision:
		return &v.ForkliftVision
	case envelope.KindMafiSwing:
		return &v.MafiSwing
	case envelope.KindSpotterLOS:
		return &v.SpotterLOS
	case envelope.KindRampClearance:
		return &v.RampClearance
	}
	return nil
}

// Toggle flips the flag for kind. It reports false for an unknown kind.
func (v *EnvelopeVisibility) Toggle(kind envelope.Kind) bool {
	f := v.flag(kind)
	if f == nil {
		return false
	}
	*f = !*f
	return true
}

// Set switches kind on or off. Unknown kinds are ignored.
func (v *EnvelopeVisibility) Set(kind envelope.Kind, on bool) {
	if f := v.flag(kind); f != nil {
		*f = on
	}
}

// Enabled reports whether kind is switched on.
func (v EnvelopeVisibility) Enabled(kind envelope.Kind) bool {
	f := v.flag(kind)
	return f != nil && *f
}

// EnabledKinds lists the switched-on kinds in envelope.Kinds order.
func (v EnvelopeVisibility) EnabledKinds() []envelope.Kind {
	var out []envelope.Kind
	for _, k := range envelope.Kinds {
		if v.Enabled(k) {
			out = append(out, k)
		}
	}
	return out
}

// Timeline is the keyframe track of the scene. Keyframes stay sorted by
// timestamp.
type Timeline struct {
	Keyframes   []timeline.Keyframe `yaml:"keyframes" json:"keyframes" msgpack:"keyframes"`
	Duration    float64             `yaml:"duration" json:"duration" msgpack:"duration"`
	FPS         int                 `yaml:"fps" json:"fps" msgpack:"fps"`
	CurrentTime float64             `yaml:"currentTime" json:"currentTime" msgpack:"currentTime"`
}

// ChangeValue is one side of a change history entry. Only the field
// matching the edited thing is set.
type ChangeValue struct {
	Object      *SceneObject          `yaml:"object,omitempty" json:"object,omitempty" msgpack:"object,omitempty"`
	Position    *geometry.Point       `yaml:"position,omitempty" json:"position,omitempty" msgpack:"position,omitempty"`
	Rotation    *float64              `yaml:"rotation,omitempty" json:"rotation,omitempty" msgpack:"rotation,omitempty"`
	Keyframe    *timeline.Keyframe    `yaml:"keyframe,omitempty" json:"keyframe,omitempty" msgpack:"keyframe,omitempty"`
	ObjectState *timeline.ObjectState `yaml:"objectState,omitempty" json:"objectState,omitempty" msgpack:"objectState,omitempty"`
}

func (v *ChangeValue) clone() *ChangeValue {
	if v == nil {
		return nil
	}
	out := &ChangeValue{}
	if v.Object != nil {
		o := v.Object.Clone()
		out.Object = &o
	}
	if v.Position != nil {
		p := *v.Position
		out.Position = &p
	}
	if v.Rotation != nil {
		r := *v.Rotation
		out.Rotation = &r
	}
	if v.Keyframe != nil {
		k := v.Keyframe.Clone()
		out.Keyframe = &k
	}
	if v.ObjectState != nil {
		s := v.ObjectState.Clone()
		out.ObjectState = &s
	}
	return out
}

// ChangeEntry is one line of the scene's audit trail.
type ChangeEntry struct {
	Action     ActionType   `yaml:"action" json:"action" msgpack:"action"`
	At         time.Time    `yaml:"at" json:"at" msgpack:"at"`
	ObjectID   string       `yaml:"objectId,omitempty" json:"objectId,omitempty" msgpack:"objectId,omitempty"`
	KeyframeID string       `yaml:"keyframeId,omitempty" json:"keyframeId,omitempty" msgpack:"keyframeId,omitempty"`
	OldValue   *ChangeValue `yaml:"oldValue,omitempty" json:"oldValue,omitempty" msgpack:"oldValue,omitempty"`
	NewValue   *ChangeValue `yaml:"newValue,omitempty" json:"newValue,omitempty" msgpack:"newValue,omitempty"`
}

// Snapshot is the part of State restored by UNDO and REDO. The timeline and
// the change history are deliberately left out: keyframe edits and history
// entries survive undo.
type Snapshot struct {
	Objects              []SceneObject      `yaml:"objects" json:"objects" msgpack:"objects"`
	SelectedIDs          []string           `yaml:"selectedIds" json:"selectedIds" msgpack:"selectedIds"`
	CurrentKeyframeIndex int                `yaml:"currentKeyframeIndex" json:"currentKeyframeIndex" msgpack:"currentKeyframeIndex"`
	Envelopes            EnvelopeVisibility `yaml:"envelopes" json:"envelopes" msgpack:"envelopes"`
}

// State is the whole scene plus its edit history.
type State struct {
	Objects              []SceneObject      `yaml:"objects" json:"objects" msgpack:"objects"`
	SelectedIDs          []string           `yaml:"selectedIds" json:"selectedIds" msgpack:"selectedIds"`
	CurrentKeyframeIndex int                `yaml:"currentKeyframeIndex" json:"currentKeyframeIndex" msgpack:"currentKeyframeIndex"`
	Envelopes            EnvelopeVisibility `yaml:"envelopes" json:"envelopes" msgpack:"envelopes"`
	Timeline             Timeline           `yaml:"timeline" json:"timeline" msgpack:"timeline"`
	ChangeHistory        []ChangeEntry      `yaml:"changeHistory" json:"changeHistory" msgpack:"changeHistory"`
	UndoStack            []Snapshot         `yaml:"undoStack" json:"undoStack" msgpack:"undoStack"`
	RedoStack            []Snapshot         `yaml:"redoStack" json:"redoStack" msgpack:"redoStack"`
}

// New returns an empty scene with the default timeline.
func New() State {
	return State{
		Objects:     []SceneObject{},
		SelectedIDs: []string{},
		Timeline: Timeline{
			Keyframes: []timeline.Keyframe{},
			Duration:  DefaultDuration,
			FPS:       DefaultFPS,
		},
		ChangeHistory: []ChangeEntry{},
		UndoStack:     []Snapshot{},
		RedoStack:     []Snapshot{},
	}
}

// Snapshot captures the undoable projection of s as an independent copy.
func (s State) Snapshot() Snapshot {
	return Snapshot{
		Objects:              cloneObjects(s.Objects),
		SelectedIDs:          cloneStrings(s.SelectedIDs),
		CurrentKeyframeIndex: s.CurrentKeyframeIndex,
		Envelopes:            s.Envelopes,
	}
}

func (s *State) restore(snap Snapshot) {
	s.Objects = cloneObjects(snap.Objects)
	s.SelectedIDs = cloneStrings(snap.SelectedIDs)
	s.CurrentKeyframeIndex = snap.CurrentKeyframeIndex
	s.Envelopes = snap.Envelopes
}

// Clone returns a deep copy of s sharing no memory with it.
func (s State) Clone() State {
	out := s
	out.Objects = cloneObjects(s.Objects)
	out.SelectedIDs = cloneStrings(s.SelectedIDs)
	out.Timeline.Keyframes = timeline.CloneKeyframes(s.Timeline.Keyframes)
	out.ChangeHistory = cloneHistory(s.ChangeHistory)
	out.UndoStack = cloneSnapshots(s.UndoStack)
	out.RedoStack = cloneSnapshots(s.RedoStack)
	return out
}

// Object returns the object with id.
func (s State) Object(id string) (SceneObject, bool) {
	if i := s.objectIndex(id); i >= 0 {
		return s.Objects[i], true
	}
	return SceneObject{}, false
}

func (s State) objectIndex(id string) int {
	for i, o := range s.Objects {
		if o.ID == id {
			return i
		}
	}
	return -1
}

// IsSelected reports whether id is in the selection.
func (s State) IsSelected(id string) bool {
	for _, sel := range s.SelectedIDs {
		if sel == id {
			return true
		}
	}
	return false
}

func (s Snapshot) clone() Snapshot {
	return Snapshot{
		Objects:              cloneObjects(s.Objects),
		SelectedIDs:          cloneStrings(s.SelectedIDs),
		CurrentKeyframeIndex: s.CurrentKeyframeIndex,
		Envelopes:            s.Envelopes,
	}
}

func cloneObjects(objs []SceneObject) []SceneObject {
	if objs == nil {
		return nil
	}
	out := make([]SceneObject, len(objs))
	for i, o := range objs {
		out[i] = o.Clone()
	}
	return out
}

func cloneStrings(ss []string) []string {
	if ss == nil {
		return nil
	}
	out := make([]string, len(ss))
	copy(out, ss)
	return out
}

func cloneHistory(h []ChangeEntry) []ChangeEntry {
	if h == nil {
		return nil
	}
	out := make([]ChangeEntry, len(h))
	for i, e := range h {
		e.OldValue = e.OldValue.clone()
		e.NewValue = e.NewValue.clone()
		out[i] = e
	}
	return out
}

func cloneSnapshots(snaps []Snapshot) []Snapshot {
	if snaps == nil {
		return nil
	}
	out := make([]Snapshot, len(snaps))
	for i, s := range snaps {
		out[i] = s.clone()
	}
	return out
}
