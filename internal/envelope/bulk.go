package envelope

import (
	"context"

	"golang.org/x/sync/errgroup"
)

// Bulk variants fan the per-item calculation out over a bounded pool.
// Results are written into pre-sized slots, so the output order is the
// input order no matter how goroutines are scheduled.

// SpotterLOSAll evaluates every (spotter, target) pair except a spotter
// looking at itself. For each pair the two participants are removed from
// the obstacle set. Results are ordered spotter-major, target-minor.
func SpotterLOSAll(ctx context.Context, spotters []Spotter, targets []Target, obstacles []Obstacle, workers int) ([]SpotterEnvelope, error) {
	type pair struct {
		s Spotter
		t Target
	}
	var pairs []pair
	for _, s := range spotters {
		for _, t := range targets {
			if s.ID == t.ID {
				continue
			}
			pairs = append(pairs, pair{s: s, t: t})
		}
	}

	out := make([]SpotterEnvelope, len(pairs))
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(limit(workers))
	for i, p := range pairs {
		i, p := i, p
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			out[i] = SpotterLOS(p.s, p.t, withoutIDs(obstacles, p.s.ID, p.t.ID))
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}

// RampClearanceAll checks each ramp independently against all vehicles.
func RampClearanceAll(ctx context.Context, ramps []Ramp, vehicles []Vehicle, workers int) ([]RampEnvelope, error) {
	out := make([]RampEnvelope, len(ramps))
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(limit(workers))
	for i, r := range ramps {
		i, r := i, r
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			out[i] = RampClearance(r, vehicles)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}

func withoutIDs(obstacles []Obstacle, ids ...string) []Obstacle {
	out := make([]Obstacle, 0, len(obstacles))
next:
	for _, ob := range obstacles {
		for _, id := range ids {
			if ob.ID == id {
				continue next
			}
		}
		out = append(out, ob)
	}
	return out
}

func limit(workers int) int {
	if workers < 1 {
		return 1
	}
	return workers
}
