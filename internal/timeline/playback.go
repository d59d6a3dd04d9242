package timeline

import (
	"context"
	"math"

	"golang.org/x/sync/errgroup"
)

// Frame is the interpolated scene at one playback instant.
type Frame struct {
	Index  int                    `yaml:"index" json:"index" msgpack:"index"`
	Time   float64                `yaml:"time" json:"time" msgpack:"time"`
	States map[string]ObjectState `yaml:"states" json:"states" msgpack:"states"`
}

// StatesAt returns the interpolated state of every object known to the two
// keyframes bracketing t. An object present in only one of them keeps that
// keyframe's state unchanged. An empty list yields nil.
func StatesAt(keyframes []Keyframe, t float64) map[string]ObjectState {
	i, j, ok := FindSurroundingKeyframes(keyframes, t)
	if !ok {
		return nil
	}
	start, end := keyframes[i], keyframes[j]
	factor := InterpolationFactor(t, start.Timestamp, end.Timestamp)

	out := make(map[string]ObjectState, len(start.ObjectStates))
	for id, s := range start.ObjectStates {
		e, inEnd := end.ObjectStates[id]
		if !inEnd {
			out[id] = s.Clone()
			continue
		}
		out[id] = LerpObjectState(s, e, factor)
	}
	for id, e := range end.ObjectStates {
		if _, inStart := start.ObjectStates[id]; !inStart {
			out[id] = e.Clone()
		}
	}
	return out
}

// frameEpsilon absorbs rounding in duration*fps: 4.35*100 is
// 434.99999999999994 and must still yield frame 435.
const frameEpsilon = 1e-9

// FrameCount is the number of frames needed to cover [0, duration] at fps,
// including both ends.
func FrameCount(duration float64, fps int) int {
	if fps <= 0 || duration < 0 {
		return 0
	}
	return int(math.Floor(duration*float64(fps)+frameEpsilon)) + 1
}

// Sample renders every frame of [0, duration] at fps. Frame i sits at time
// i/fps, computed by division rather than accumulation so that frame times
// do not drift. Frames are computed on up to workers goroutines and
// returned in index order.
func Sample(ctx context.Context, keyframes []Keyframe, duration float64, fps, workers int) ([]Frame, error) {
	n := FrameCount(duration, fps)
	frames := make([]Frame, n)
	if n == 0 {
		return frames, nil
	}
	if workers < 1 {
		workers = 1
	}

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for i := 0; i < n; i++ {
		i := i
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			at := float64(i) / float64(fps)
			frames[i] = Frame{Index: i, Time: at, States: StatesAt(keyframes, at)}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return frames, nil
}
