package engine

import (
	"strings"

	"github.com/colbychapman3/incident-replay-engine-sub000/internal/envelope"
	"github.com/colbychapman3/incident-replay-engine-sub000/internal/geometry"
	"github.com/colbychapman3/incident-replay-engine-sub000/internal/state"
	"github.com/colbychapman3/incident-replay-engine-sub000/internal/timeline"
)

// Property keys read from scene objects.
const (
	propForkHeight        = "forkHeight"
	propHasLoad           = "hasLoad"
	propArticulationAngle = "articulationAngle"
	propTrailerLength     = "trailerLength"
	propTrailerWidth      = "trailerWidth"
	propVisionRange       = "visionRange"
	propClearanceHeight   = "clearanceHeight"
	propBoundary          = "boundary"
	propHeight            = "height"
	propWidth             = "width"
	propLength            = "length"
)

// ForkliftInput pairs a forklift's object id with its calculator input.
type ForkliftInput struct {
	ID string
	envelope.Forklift
}

// MafiInput pairs a MAFI combination's object id with its calculator input.
type MafiInput struct {
	ID string
	envelope.MafiPair
}

// Scene is the calculator input derived from a set of scene objects.
// Every list follows the object order of the scene.
type Scene struct {
	Forklifts []ForkliftInput
	Mafis     []MafiInput
	Spotters  []envelope.Spotter
	Targets   []envelope.Target
	Obstacles []envelope.Obstacle
	Ramps     []envelope.Ramp
	Vehicles  []envelope.Vehicle
}

// Extract classifies objects by the attributes they carry. An object can
// play several roles: a MAFI trailer with a height is both a swing
// envelope source and a ramp clearance candidate. Hidden objects are
// ignored.
//
//   - forklift: forkHeight or hasLoad, or an asset id containing "forklift"
//   - MAFI pair: trailerLength
//   - spotter: visionRange
//   - ramp: clearanceHeight, with a boundary polygon or width/length
//   - vehicle: category vehicle; height defaults to 0
//   - obstacle: any object with a boundary or width/length footprint
//
// Every vehicle is a line-of-sight target.
func Extract(objects []state.SceneObject) Scene {
	var sc Scene
	for _, o := range objects {
		if o.Hidden {
			continue
		}
		p := o.Properties

		_, hasFork := p[propForkHeight]
		_, hasLoadKey := p[propHasLoad]
		if hasFork || hasLoadKey || strings.Contains(strings.ToLower(o.AssetID), "forklift") {
			sc.Forklifts = append(sc.Forklifts, ForkliftInput{ID: o.ID, Forklift: envelope.Forklift{
				Position:   o.Position,
				Rotation:   o.Rotation,
				ForkHeight: number(p, propForkHeight),
				HasLoad:    flag(p, propHasLoad),
			}})
		}

		if _, ok := p[propTrailerLength]; ok {
			sc.Mafis = append(sc.Mafis, MafiInput{ID: o.ID, MafiPair: envelope.MafiPair{
				TruckPosition:     o.Position,
				TruckRotation:     o.Rotation,
				ArticulationAngle: number(p, propArticulationAngle),
				TrailerLength:     number(p, propTrailerLength),
				TrailerWidth:      number(p, propTrailerWidth),
			}})
		}

		if _, ok := p[propVisionRange]; ok {
			sc.Spotters = append(sc.Spotters, envelope.Spotter{
				ID:          o.ID,
				Position:    o.Position,
				VisionRange: number(p, propVisionRange),
			})
		}

		footprint, hasFootprint := footprintOf(o)
		if _, ok := p[propClearanceHeight]; ok && hasFootprint {
			sc.Ramps = append(sc.Ramps, envelope.Ramp{
				ID:              o.ID,
				Boundary:        footprint,
				ClearanceHeight: number(p, propClearanceHeight),
			})
		} else if hasFootprint {
			// ramps are driven over, they never block a sight line
			sc.Obstacles = append(sc.Obstacles, envelope.Obstacle{
				ID:          o.ID,
				Position:    o.Position,
				BoundingBox: footprint,
			})
		}

		if o.Category == state.CategoryVehicle {
			sc.Vehicles = append(sc.Vehicles, envelope.Vehicle{
				ID:       o.ID,
				Position: o.Position,
				Height:   number(p, propHeight),
			})
			sc.Targets = append(sc.Targets, envelope.Target{ID: o.ID, Position: o.Position})
		}
	}
	return sc
}

// footprintOf returns the object's ground polygon: an explicit boundary,
// or a rectangle from width and length rotated with the object.
func footprintOf(o state.SceneObject) (geometry.Polygon, bool) {
	if raw, ok := o.Properties[propBoundary]; ok {
		if poly, ok := polygon(raw); ok {
			return poly, true
		}
	}
	w, okW := o.Properties[propWidth]
	l, okL := o.Properties[propLength]
	if !okW || !okL {
		return geometry.Polygon{}, false
	}
	width, _ := timeline.Numeric(w)
	length, _ := timeline.Numeric(l)
	return geometry.CreateRectanglePolygon(o.Position, length, width, o.Rotation), true
}

func number(props map[string]any, key string) float64 {
	n, _ := timeline.Numeric(props[key])
	return n
}

func flag(props map[string]any, key string) bool {
	b, _ := props[key].(bool)
	return b
}

// polygon decodes a boundary property: a list of {x, y} maps as produced by
// YAML, JSON or MessagePack decoding, or a typed point list.
func polygon(raw any) (geometry.Polygon, bool) {
	switch v := raw.(type) {
	case geometry.Polygon:
		return v.Clone(), len(v.Points) >= 3
	case []geometry.Point:
		pts := make([]geometry.Point, len(v))
		copy(pts, v)
		return geometry.Polygon{Points: pts, Closed: true}, len(pts) >= 3
	case []any:
		pts := make([]geometry.Point, 0, len(v))
		for _, item := range v {
			p, ok := point(item)
			if !ok {
				return geometry.Polygon{}, false
			}
			pts = append(pts, p)
		}
		return geometry.Polygon{Points: pts, Closed: true}, len(pts) >= 3
	}
	return geometry.Polygon{}, false
}

func point(raw any) (geometry.Point, bool) {
	switch v := raw.(type) {
	case geometry.Point:
		return v, true
	case map[string]any:
		x, okX := timeline.Numeric(v["x"])
		y, okY := timeline.Numeric(v["y"])
		return geometry.Point{X: x, Y: y}, okX && okY
	case []any:
		if len(v) != 2 {
			return geometry.Point{}, false
		}
		x, okX := timeline.Numeric(v[0])
		y, okY := timeline.Numeric(v[1])
		return geometry.Point{X: x, Y: y}, okX && okY
	}
	return geometry.Point{}, false
}

// Pose returns the objects with the interpolated states applied, the same
// way APPLY_INTERPOLATED_STATES would, without recording any history.
func Pose(objects []state.SceneObject, states map[string]timeline.ObjectState) []state.SceneObject {
	posed := state.Apply(state.State{Objects: objects}, state.ApplyInterpolatedStates(states))
	return posed.Objects
}

