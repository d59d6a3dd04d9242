package timeline

import (
	"encoding/json"
	"sort"

	"gopkg.in/yaml.v3"

	"github.com/colbychapman3/incident-replay-engine-sub000/internal/geometry"
)

// Keyframe is an authored pose of every tracked object at a moment.
type Keyframe struct {
	ID           string                 `yaml:"id" json:"id" msgpack:"id"`
	Timestamp    float64                `yaml:"timestamp" json:"timestamp" msgpack:"timestamp"` // seconds, >= 0
	Label        string                 `yaml:"label,omitempty" json:"label,omitempty" msgpack:"label"`
	ObjectStates map[string]ObjectState `yaml:"objectStates" json:"objectStates" msgpack:"objectStates"`
}

// ObjectState is the pose and attributes of one object at a keyframe.
// Rotation is in degrees and does not need to be normalized.
type ObjectState struct {
	Position   geometry.Point `yaml:"position" json:"position" msgpack:"position"`
	Rotation   float64        `yaml:"rotation" json:"rotation" msgpack:"rotation"`
	Properties map[string]any `yaml:"properties,omitempty" json:"properties,omitempty" msgpack:"properties"`
	Visible    bool           `yaml:"visible" json:"visible" msgpack:"visible"`
}

// objectStateDoc is the document form of ObjectState. Visible is a
// pointer so that a state written without "visible" reads as shown.
type objectStateDoc struct {
	Position   geometry.Point `yaml:"position" json:"position"`
	Rotation   float64        `yaml:"rotation" json:"rotation"`
	Properties map[string]any `yaml:"properties,omitempty" json:"properties,omitempty"`
	Visible    *bool          `yaml:"visible" json:"visible"`
}

func (d objectStateDoc) state() ObjectState {
	s := ObjectState{Position: d.Position, Rotation: d.Rotation, Properties: d.Properties, Visible: true}
	if d.Visible != nil {
		s.Visible = *d.Visible
	}
	return s
}

// UnmarshalJSON decodes a state; a missing "visible" means true.
func (s *ObjectState) UnmarshalJSON(data []byte) error {
	var d objectStateDoc
	if err := json.Unmarshal(data, &d); err != nil {
		return err
	}
	*s = d.state()
	return nil
}

// UnmarshalYAML decodes a state; a missing "visible" means true.
func (s *ObjectState) UnmarshalYAML(node *yaml.Node) error {
	var d objectStateDoc
	if err := node.Decode(&d); err != nil {
		return err
	}
	*s = d.state()
	return nil
}

// Clone returns a copy of s that shares no memory with it.
func (s ObjectState) Clone() ObjectState {
	s.Properties = CloneProperties(s.Properties)
	return s
}

// Clone returns a deep copy of k.
func (k Keyframe) Clone() Keyframe {
	if k.ObjectStates != nil {
		states := make(map[string]ObjectState, len(k.ObjectStates))
		for id, s := range k.ObjectStates {
			states[id] = s.Clone()
		}
		k.ObjectStates = states
	}
	return k
}

// CloneKeyframes deep-copies a keyframe list.
func CloneKeyframes(kfs []Keyframe) []Keyframe {
	if kfs == nil {
		return nil
	}
	out := make([]Keyframe, len(kfs))
	for i, k := range kfs {
		out[i] = k.Clone()
	}
	return out
}

// CloneProperties deep-copies an open attribute map, including nested maps
// and slices.
func CloneProperties(props map[string]any) map[string]any {
	if props == nil {
		return nil
	}
	out := make(map[string]any, len(props))
	for k, v := range props {
		out[k] = cloneValue(v)
	}
	return out
}

func cloneValue(v any) any {
	switch t := v.(type) {
	case map[string]any:
		return CloneProperties(t)
	case []any:
		out := make([]any, len(t))
		for i, e := range t {
			out[i] = cloneValue(e)
		}
		return out
	default:
		return v
	}
}

// SortKeyframes orders kfs ascending by timestamp in place. Keyframes with
// equal timestamps keep their relative order.
func SortKeyframes(kfs []Keyframe) {
	sort.SliceStable(kfs, func(i, j int) bool {
		return kfs[i].Timestamp < kfs[j].Timestamp
	})
}

// InsertKeyframe returns a new list with kf inserted at its sorted
// position, after any keyframes sharing its timestamp. kfs is not modified.
func InsertKeyframe(kfs []Keyframe, kf Keyframe) []Keyframe {
	idx := sort.Search(len(kfs), func(i int) bool {
		return kfs[i].Timestamp > kf.Timestamp
	})
	out := make([]Keyframe, 0, len(kfs)+1)
	out = append(out, kfs[:idx]...)
	out = append(out, kf)
	out = append(out, kfs[idx:]...)
	return out
}

// IndexOf returns the position of the keyframe with id, or -1.
func IndexOf(kfs []Keyframe, id string) int {
	for i, k := range kfs {
		if k.ID == id {
			return i
		}
	}
	return -1
}
