package engine

import (
	"context"
	"fmt"

	"github.com/colbychapman3/incident-replay-engine-sub000/internal/envelope"
	"github.com/colbychapman3/incident-replay-engine-sub000/internal/geometry"
	"github.com/colbychapman3/incident-replay-engine-sub000/internal/state"
)

// ForkliftResult is the vision envelope of one forklift.
type ForkliftResult struct {
	ObjectID string                    `yaml:"objectId" json:"objectId" msgpack:"objectId"`
	Envelope envelope.ForkliftEnvelope `yaml:"envelope" json:"envelope" msgpack:"envelope"`
}

// MafiResult is the swing envelope of one MAFI combination.
type MafiResult struct {
	ObjectID string                `yaml:"objectId" json:"objectId" msgpack:"objectId"`
	Envelope envelope.MafiEnvelope `yaml:"envelope" json:"envelope" msgpack:"envelope"`
}

// EnvelopeSet holds every computed envelope of one scene instant. Lists
// of disabled kinds stay nil.
type EnvelopeSet struct {
	ForkliftVision []ForkliftResult           `yaml:"forkliftVision,omitempty" json:"forkliftVision,omitempty" msgpack:"forkliftVision"`
	MafiSwing      []MafiResult               `yaml:"mafiSwing,omitempty" json:"mafiSwing,omitempty" msgpack:"mafiSwing"`
	SpotterLOS     []envelope.SpotterEnvelope `yaml:"spotterLOS,omitempty" json:"spotterLOS,omitempty" msgpack:"spotterLOS"`
	RampClearance  []envelope.RampEnvelope    `yaml:"rampClearance,omitempty" json:"rampClearance,omitempty" msgpack:"rampClearance"`
}

// Calculator fills in the envelopes of one kind.
type Calculator interface {
	Kind() envelope.Kind
	Compute(ctx context.Context, sc Scene, workers int, out *EnvelopeSet) error
}

// NewCalculator returns the calculator registered for kind.
func NewCalculator(kind envelope.Kind) (Calculator, error) {
	switch kind {
	case envelope.KindForkliftVision:
		return forkliftCalculator{}, nil
	case envelope.KindMafiSwing:
		return mafiCalculator{}, nil
	case envelope.KindSpotterLOS:
		return spotterCalculator{}, nil
	case envelope.KindRampClearance:
		return rampCalculator{}, nil
	default:
		return nil, fmt.Errorf("unknown envelope kind: %s", kind)
	}
}

type forkliftCalculator struct{}

func (forkliftCalculator) Kind() envelope.Kind { return envelope.KindForkliftVision }

func (forkliftCalculator) Compute(_ context.Context, sc Scene, _ int, out *EnvelopeSet) error {
	out.ForkliftVision = make([]ForkliftResult, len(sc.Forklifts))
	for i, f := range sc.Forklifts {
		out.ForkliftVision[i] = ForkliftResult{ObjectID: f.ID, Envelope: envelope.ForkliftVision(f.Forklift)}
	}
	return nil
}

type mafiCalculator struct{}

func (mafiCalculator) Kind() envelope.Kind { return envelope.KindMafiSwing }

func (mafiCalculator) Compute(_ context.Context, sc Scene, _ int, out *EnvelopeSet) error {
	out.MafiSwing = make([]MafiResult, len(sc.Mafis))
	for i, m := range sc.Mafis {
		out.MafiSwing[i] = MafiResult{ObjectID: m.ID, Envelope: envelope.MafiSwing(m.MafiPair)}
	}
	return nil
}

type spotterCalculator struct{}

func (spotterCalculator) Kind() envelope.Kind { return envelope.KindSpotterLOS }

func (spotterCalculator) Compute(ctx context.Context, sc Scene, workers int, out *EnvelopeSet) error {
	res, err := envelope.SpotterLOSAll(ctx, sc.Spotters, sc.Targets, sc.Obstacles, workers)
	if err != nil {
		return err
	}
	if res == nil {
		res = []envelope.SpotterEnvelope{}
	}
	out.SpotterLOS = res
	return nil
}

type rampCalculator struct{}

func (rampCalculator) Kind() envelope.Kind { return envelope.KindRampClearance }

func (rampCalculator) Compute(ctx context.Context, sc Scene, workers int, out *EnvelopeSet) error {
	res, err := envelope.RampClearanceAll(ctx, sc.Ramps, sc.Vehicles, workers)
	if err != nil {
		return err
	}
	if res == nil {
		res = []envelope.RampEnvelope{}
	}
	out.RampClearance = res
	return nil
}

// EnvelopesFor computes every enabled envelope kind for objects.
func EnvelopesFor(ctx context.Context, objects []state.SceneObject, enabled state.EnvelopeVisibility, workers int) (EnvelopeSet, error) {
	var set EnvelopeSet
	sc := Extract(objects)
	for _, kind := range enabled.EnabledKinds() {
		calc, err := NewCalculator(kind)
		if err != nil {
			return EnvelopeSet{}, err
		}
		if err := calc.Compute(ctx, sc, workers, &set); err != nil {
			return EnvelopeSet{}, fmt.Errorf("%s: %w", kind, err)
		}
	}
	return set, nil
}

// Transform maps every polygon and point of the set through vt, for
// renderers working in pixels. Scalar metrics stay in meters.
func (s EnvelopeSet) Transform(vt geometry.ViewTransform) EnvelopeSet {
	var out EnvelopeSet
	if s.ForkliftVision != nil {
		out.ForkliftVision = make([]ForkliftResult, len(s.ForkliftVision))
		for i, r := range s.ForkliftVision {
			env := r.Envelope
			env.VisionCone = vt.ApplyPolygon(env.VisionCone)
			spots := make([]geometry.Polygon, len(env.BlindSpots))
			for j, b := range env.BlindSpots {
				spots[j] = vt.ApplyPolygon(b)
			}
			env.BlindSpots = spots
			out.ForkliftVision[i] = ForkliftResult{ObjectID: r.ObjectID, Envelope: env}
		}
	}
	if s.MafiSwing != nil {
		out.MafiSwing = make([]MafiResult, len(s.MafiSwing))
		for i, r := range s.MafiSwing {
			env := r.Envelope
			env.InnerSweep = vt.ApplyPolygon(env.InnerSweep)
			env.OuterSweep = vt.ApplyPolygon(env.OuterSweep)
			env.PivotPoint = vt.Apply(env.PivotPoint)
			out.MafiSwing[i] = MafiResult{ObjectID: r.ObjectID, Envelope: env}
		}
	}
	if s.SpotterLOS != nil {
		out.SpotterLOS = make([]envelope.SpotterEnvelope, len(s.SpotterLOS))
		for i, e := range s.SpotterLOS {
			e.SightLine.Start = vt.Apply(e.SightLine.Start)
			e.SightLine.End = vt.Apply(e.SightLine.End)
			var pts []geometry.Point
			for _, p := range e.SightLine.ObstructionPoints {
				pts = append(pts, vt.Apply(p))
			}
			e.SightLine.ObstructionPoints = pts
			out.SpotterLOS[i] = e
		}
	}
	if s.RampClearance != nil {
		out.RampClearance = make([]envelope.RampEnvelope, len(s.RampClearance))
		for i, e := range s.RampClearance {
			e.Boundary = vt.ApplyPolygon(e.Boundary)
			violations := make([]envelope.Violation, len(e.Violations))
			for j, v := range e.Violations {
				v.Position = vt.Apply(v.Position)
				violations[j] = v
			}
			e.Violations = violations
			out.RampClearance[i] = e
		}
	}
	return out
}
