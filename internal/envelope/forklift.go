package envelope

import "github.com/colbychapman3/incident-replay-engine-sub000/internal/geometry"

const (
	visionHalfAngle = 60.0
	visionRange     = 15.0
	visionSegments  = 24

	rearStart    = 120.0
	rearEnd      = 240.0
	rearRange    = 3.0
	rearSegments = 12

	forkHalfAngle = 30.0
	forkRange     = 2.0
	forkSegments  = 8

	loadHalfAngle = 45.0
	loadRange     = 8.0
	loadSegments  = 12

	// Forks above this height (meters) carrying a load block the view ahead.
	loadObstructionHeight = 1.0
)

// Forklift is the kinematic input of the vision calculator.
type Forklift struct {
	Position   geometry.Point `yaml:"position" json:"position" msgpack:"position"`
	Rotation   float64        `yaml:"rotation" json:"rotation" msgpack:"rotation"`
	ForkHeight float64        `yaml:"forkHeight" json:"forkHeight" msgpack:"forkHeight"`
	HasLoad    bool           `yaml:"hasLoad" json:"hasLoad" msgpack:"hasLoad"`
}

// ForkliftEnvelope is the operator's visible cone plus the regions they
// cannot see.
type ForkliftEnvelope struct {
	VisionCone     geometry.Polygon   `yaml:"visionCone" json:"visionCone" msgpack:"visionCone"`
	BlindSpots     []geometry.Polygon `yaml:"blindSpots" json:"blindSpots" msgpack:"blindSpots"`
	LoadObstructed bool               `yaml:"loadObstructed" json:"loadObstructed" msgpack:"loadObstructed"`
}

// ForkliftVision computes the vision envelope. Blind spots are always
// ordered rear, forks, then the load obstruction when present.
func ForkliftVision(f Forklift) ForkliftEnvelope {
	pos, rot := f.Position, f.Rotation

	env := ForkliftEnvelope{
		VisionCone: geometry.CreateArcPolygon(pos, rot-visionHalfAngle, rot+visionHalfAngle, visionRange, visionSegments),
		BlindSpots: []geometry.Polygon{
			geometry.CreateArcPolygon(pos, rot+rearStart, rot+rearEnd, rearRange, rearSegments),
			geometry.CreateArcPolygon(pos, rot-forkHalfAngle, rot+forkHalfAngle, forkRange, forkSegments),
		},
	}

	env.LoadObstructed = f.HasLoad && f.ForkHeight > loadObstructionHeight
	if env.LoadObstructed {
		env.BlindSpots = append(env.BlindSpots,
			geometry.CreateArcPolygon(pos, rot-loadHalfAngle, rot+loadHalfAngle, loadRange, loadSegments))
	}
	return env
}
