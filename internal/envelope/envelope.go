// Package envelope computes operational-hazard regions from object
// kinematic state. Every calculator is a pure function: identical input
// yields bit-identical polygons, which is what makes the output usable as
// documentation evidence.
package envelope

import (
	"fmt"

	"github.com/colbychapman3/incident-replay-engine-sub000/internal/geometry"
)

// Kind names an envelope calculator. The names double as the keys of the
// scene's envelope visibility flags.
type Kind string

const (
	KindForkliftVision Kind = "forkliftVision"
	KindMafiSwing      Kind = "mafiSwing"
	KindSpotterLOS     Kind = "spotterLOS"
	KindRampClearance  Kind = "rampClearance"
)

// Kinds lists every calculator in a fixed order.
var Kinds = []Kind{KindForkliftVision, KindMafiSwing, KindSpotterLOS, KindRampClearance}

// ParseKind resolves a calculator name.
func ParseKind(name string) (Kind, error) {
	for _, k := range Kinds {
		if string(k) == name {
			return k, nil
		}
	}
	return "", fmt.Errorf("unknown envelope kind: %s", name)
}

// Obstacle is anything that can block a line of sight.
type Obstacle struct {
	ID          string           `yaml:"id" json:"id" msgpack:"id"`
	Position    geometry.Point   `yaml:"position" json:"position" msgpack:"position"`
	BoundingBox geometry.Polygon `yaml:"boundingBox" json:"boundingBox" msgpack:"boundingBox"`
}

// NewObstacle builds an obstacle with a rotated rectangular footprint.
func NewObstacle(id string, pos geometry.Point, width, length, rotation float64) Obstacle {
	return Obstacle{
		ID:          id,
		Position:    pos,
		BoundingBox: geometry.CreateRectanglePolygon(pos, length, width, rotation),
	}
}
