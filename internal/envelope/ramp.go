package envelope

import "github.com/colbychapman3/incident-replay-engine-sub000/internal/geometry"

// Ramp is a vessel or linkspan ramp with a height restriction.
type Ramp struct {
	ID              string           `yaml:"id" json:"id" msgpack:"id"`
	Boundary        geometry.Polygon `yaml:"boundary" json:"boundary" msgpack:"boundary"`
	ClearanceHeight float64          `yaml:"clearanceHeight" json:"clearanceHeight" msgpack:"clearanceHeight"`
}

// Vehicle is anything with a height that may drive onto a ramp.
type Vehicle struct {
	ID       string         `yaml:"id" json:"id" msgpack:"id"`
	Position geometry.Point `yaml:"position" json:"position" msgpack:"position"`
	Height   float64        `yaml:"height" json:"height" msgpack:"height"`
}

// Violation records a vehicle on the ramp that is taller than allowed.
type Violation struct {
	VehicleID     string         `yaml:"vehicleId" json:"vehicleId" msgpack:"vehicleId"`
	VehicleHeight float64        `yaml:"vehicleHeight" json:"vehicleHeight" msgpack:"vehicleHeight"`
	Exceedance    float64        `yaml:"exceedance" json:"exceedance" msgpack:"exceedance"`
	Position      geometry.Point `yaml:"position" json:"position" msgpack:"position"`
}

// RampEnvelope is the clearance check result for one ramp.
type RampEnvelope struct {
	RampID          string           `yaml:"rampId" json:"rampId" msgpack:"rampId"`
	Boundary        geometry.Polygon `yaml:"boundary" json:"boundary" msgpack:"boundary"`
	ClearanceHeight float64          `yaml:"clearanceHeight" json:"clearanceHeight" msgpack:"clearanceHeight"`
	Violations      []Violation      `yaml:"violations" json:"violations" msgpack:"violations"`
}

// RampClearance lists the vehicles inside the ramp boundary whose height
// exceeds the clearance. Vehicles outside the boundary never violate,
// whatever their height.
func RampClearance(ramp Ramp, vehicles []Vehicle) RampEnvelope {
	env := RampEnvelope{
		RampID:          ramp.ID,
		Boundary:        ramp.Boundary.Clone(),
		ClearanceHeight: ramp.ClearanceHeight,
		Violations:      []Violation{},
	}
	for _, v := range vehicles {
		if !geometry.PointInPolygon(v.Position, ramp.Boundary) {
			continue
		}
		if v.Height <= ramp.ClearanceHeight {
			continue
		}
		env.Violations = append(env.Violations, Violation{
			VehicleID:     v.ID,
			VehicleHeight: v.Height,
			Exceedance:    v.Height - ramp.ClearanceHeight,
			Position:      v.Position,
		})
	}
	return env
}
