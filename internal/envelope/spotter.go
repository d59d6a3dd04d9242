package envelope

import "github.com/colbychapman3/incident-replay-engine-sub000/internal/geometry"

// Spotter is a banksman watching a target.
type Spotter struct {
	ID          string         `yaml:"id" json:"id" msgpack:"id"`
	Position    geometry.Point `yaml:"position" json:"position" msgpack:"position"`
	VisionRange float64        `yaml:"visionRange" json:"visionRange" msgpack:"visionRange"`
}

// Target is the object a spotter needs to keep in sight.
type Target struct {
	ID       string         `yaml:"id" json:"id" msgpack:"id"`
	Position geometry.Point `yaml:"position" json:"position" msgpack:"position"`
}

// SightLine is the straight line from spotter to target.
type SightLine struct {
	Start      geometry.Point `yaml:"start" json:"start" msgpack:"start"`
	End        geometry.Point `yaml:"end" json:"end" msgpack:"end"`
	Obstructed bool           `yaml:"obstructed" json:"obstructed" msgpack:"obstructed"`
	// Positions of the obstacles cut by the line, in obstacle order. These
	// are not the exact intersection coordinates.
	ObstructionPoints []geometry.Point `yaml:"obstructionPoints" json:"obstructionPoints" msgpack:"obstructionPoints"`
}

// SpotterEnvelope is the line-of-sight result for one spotter/target pair.
type SpotterEnvelope struct {
	SpotterID  string    `yaml:"spotterId" json:"spotterId" msgpack:"spotterId"`
	TargetID   string    `yaml:"targetId" json:"targetId" msgpack:"targetId"`
	SightLine  SightLine `yaml:"sightLine" json:"sightLine" msgpack:"sightLine"`
	ClearRange float64   `yaml:"clearRange" json:"clearRange" msgpack:"clearRange"`
}

// SpotterLOS checks whether spotter can see target past obstacles.
//
// The line is obstructed when the target is farther than the vision range
// or when it crosses any obstacle other than the spotter or the target
// themselves. ClearRange is the distance to the first obstruction point,
// the full distance when clear, and 0 when only the range is exceeded.
func SpotterLOS(spotter Spotter, target Target, obstacles []Obstacle) SpotterEnvelope {
	seg := geometry.Segment{Start: spotter.Position, End: target.Position}
	dist := geometry.Distance(spotter.Position, target.Position)

	var points []geometry.Point
	for _, ob := range obstacles {
		if ob.ID == spotter.ID || ob.ID == target.ID {
			continue
		}
		if geometry.LineIntersectsPolygon(seg, ob.BoundingBox) {
			points = append(points, ob.Position)
		}
	}

	outOfRange := dist > spotter.VisionRange
	clear := dist
	switch {
	case len(points) > 0:
		clear = geometry.Distance(spotter.Position, points[0])
	case outOfRange:
		clear = 0
	}

	return SpotterEnvelope{
		SpotterID: spotter.ID,
		TargetID:  target.ID,
		SightLine: SightLine{
			Start:             seg.Start,
			End:               seg.End,
			Obstructed:        outOfRange || len(points) > 0,
			ObstructionPoints: points,
		},
		ClearRange: clear,
	}
}
