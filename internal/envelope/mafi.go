package envelope

import (
	"math"

	"github.com/colbychapman3/incident-replay-engine-sub000/internal/geometry"
)

const (
	// sin(|articulation|) at or below this is treated as straight travel
	// (about 0.57°).
	straightSinGuard = 0.01
	// Turning radius used for near-straight travel, meters.
	straightRadius = 1000.0

	turnSpan      = 90.0
	straightSpan  = 15.0
	sweepSegments = 24
)

// Turn is the direction a MAFI trailer combination is turning.
type Turn string

const (
	TurnStraight Turn = "straight"
	TurnRight    Turn = "right"
	TurnLeft     Turn = "left"
)

// MafiPair is a terminal tractor towing a MAFI roll trailer. A positive
// articulation angle is a right turn, a negative one a left turn.
type MafiPair struct {
	TruckPosition     geometry.Point `yaml:"truckPosition" json:"truckPosition" msgpack:"truckPosition"`
	TruckRotation     float64        `yaml:"truckRotation" json:"truckRotation" msgpack:"truckRotation"`
	ArticulationAngle float64        `yaml:"articulationAngle" json:"articulationAngle" msgpack:"articulationAngle"`
	TrailerLength     float64        `yaml:"trailerLength" json:"trailerLength" msgpack:"trailerLength"`
	TrailerWidth      float64        `yaml:"trailerWidth" json:"trailerWidth" msgpack:"trailerWidth"`
}

// MafiEnvelope is the area swept by the trailer while turning.
type MafiEnvelope struct {
	InnerSweep        geometry.Polygon `yaml:"innerSweep" json:"innerSweep" msgpack:"innerSweep"`
	OuterSweep        geometry.Polygon `yaml:"outerSweep" json:"outerSweep" msgpack:"outerSweep"`
	PivotPoint        geometry.Point   `yaml:"pivotPoint" json:"pivotPoint" msgpack:"pivotPoint"`
	TurningRadius     float64          `yaml:"turningRadius" json:"turningRadius" msgpack:"turningRadius"`
	ArticulationAngle float64          `yaml:"articulationAngle" json:"articulationAngle" msgpack:"articulationAngle"`
	Turn              Turn             `yaml:"turn" json:"turn" msgpack:"turn"`
}

// MafiSwing computes the swing envelope. A near-zero articulation never
// divides by zero: it yields the fixed straight-travel radius instead.
func MafiSwing(m MafiPair) MafiEnvelope {
	sinA := math.Sin(geometry.DegToRad(math.Abs(m.ArticulationAngle)))

	turn := TurnStraight
	radius := straightRadius
	if sinA > straightSinGuard {
		radius = m.TrailerLength / sinA
		if m.ArticulationAngle > 0 {
			turn = TurnRight
		} else {
			turn = TurnLeft
		}
	}

	halfWidth := m.TrailerWidth / 2
	// a trailer wider than twice the radius would give a negative inner
	// radius, which mirrors the arc through the pivot
	inner := math.Max(0, radius-halfWidth)
	outer := math.Sqrt((radius+halfWidth)*(radius+halfWidth) + m.TrailerLength*m.TrailerLength)

	start, end := sweepSpan(m.TruckRotation, turn)
	pivot := m.TruckPosition

	return MafiEnvelope{
		InnerSweep:        geometry.CreateArcPolygon(pivot, start, end, inner, sweepSegments),
		OuterSweep:        geometry.CreateArcPolygon(pivot, start, end, outer, sweepSegments),
		PivotPoint:        pivot,
		TurningRadius:     radius,
		ArticulationAngle: m.ArticulationAngle,
		Turn:              turn,
	}
}

func sweepSpan(heading float64, turn Turn) (float64, float64) {
	switch turn {
	case TurnRight:
		return heading, heading + turnSpan
	case TurnLeft:
		return heading - turnSpan, heading
	default:
		return heading - straightSpan, heading + straightSpan
	}
}
