// Package timeline looks up keyframes and interpolates object state between
// them. Interpolation is linear and exact: no easing, no extrapolation, and
// the same inputs always give the same bits.
package timeline

import (
	"github.com/colbychapman3/incident-replay-engine-sub000/internal/geometry"
)

// stepThreshold is the factor at which non-numeric values switch from the
// start state to the end state.
const stepThreshold = 0.5

// FindSurroundingKeyframes returns the indices of the keyframes bracketing
// t in a list sorted by timestamp.
//
// Before the first keyframe both indices are 0; at or after the last both
// are the last index. A time exactly on an interior keyframe k starts the
// segment (k, k+1). ok is false only for an empty list.
func FindSurroundingKeyframes(keyframes []Keyframe, t float64) (i, j int, ok bool) {
	n := len(keyframes)
	if n == 0 {
		return 0, 0, false
	}
	if t < keyframes[0].Timestamp {
		return 0, 0, true
	}
	last := n - 1
	if t >= keyframes[last].Timestamp {
		return last, last, true
	}
	for k := 0; k < last; k++ {
		if t >= keyframes[k].Timestamp && t < keyframes[k+1].Timestamp {
			return k, k + 1, true
		}
	}
	// unreachable for sorted input
	return last, last, true
}

// InterpolationFactor returns how far t is between t0 and t1, clamped to
// [0, 1]. A zero-length segment yields 0.
func InterpolationFactor(t, t0, t1 float64) float64 {
	if t1 == t0 {
		return 0
	}
	return clamp01((t - t0) / (t1 - t0))
}

// LerpNumber interpolates linearly between a and b. t is clamped to [0, 1].
func LerpNumber(a, b, t float64) float64 {
	t = clamp01(t)
	return a + (b-a)*t
}

// LerpPoint interpolates each coordinate linearly. t is clamped to [0, 1].
func LerpPoint(a, b geometry.Point, t float64) geometry.Point {
	return geometry.Point{
		X: LerpNumber(a.X, b.X, t),
		Y: LerpNumber(a.Y, b.Y, t),
	}
}

// LerpAngle interpolates along the shortest arc between two headings, so
// 350° to 10° passes through 0° rather than 180°. The result is in
// [0, 360).
func LerpAngle(a, b, t float64) float64 {
	a = geometry.NormalizeAngle(a)
	b = geometry.NormalizeAngle(b)
	delta := b - a
	if delta > 180 {
		delta -= 360
	} else if delta <= -180 {
		delta += 360
	}
	return geometry.NormalizeAngle(a + delta*clamp01(t))
}

// LerpObjectState interpolates between two object states.
//
// Position and rotation use LerpPoint and LerpAngle. A property holding a
// number in both states is interpolated; a property present in only one
// state is passed through as-is. Every other property, and Visible, steps
// from start to end when t reaches 0.5.
func LerpObjectState(start, end ObjectState, t float64) ObjectState {
	t = clamp01(t)
	out := ObjectState{
		Position: LerpPoint(start.Position, end.Position, t),
		Rotation: LerpAngle(start.Rotation, end.Rotation, t),
		Visible:  step(start.Visible, end.Visible, t),
	}

	if start.Properties == nil && end.Properties == nil {
		return out
	}
	props := make(map[string]any, len(start.Properties)+len(end.Properties))
	for k, sv := range start.Properties {
		ev, inEnd := end.Properties[k]
		if !inEnd {
			props[k] = cloneValue(sv)
			continue
		}
		sn, sNum := Numeric(sv)
		en, eNum := Numeric(ev)
		if sNum && eNum {
			props[k] = LerpNumber(sn, en, t)
			continue
		}
		props[k] = cloneValue(step(sv, ev, t))
	}
	for k, ev := range end.Properties {
		if _, inStart := start.Properties[k]; !inStart {
			props[k] = cloneValue(ev)
		}
	}
	out.Properties = props
	return out
}

func step[T any](start, end T, t float64) T {
	if t < stepThreshold {
		return start
	}
	return end
}

func clamp01(t float64) float64 {
	if t < 0 {
		return 0
	}
	if t > 1 {
		return 1
	}
	return t
}

// Numeric reports whether v holds a Go number of any width and returns it
// as float64. Booleans and strings are never numbers.
func Numeric(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int8:
		return float64(n), true
	case int16:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	case uint:
		return float64(n), true
	case uint8:
		return float64(n), true
	case uint16:
		return float64(n), true
	case uint32:
		return float64(n), true
	case uint64:
		return float64(n), true
	default:
		return 0, false
	}
}
