// Package engine replays an incident scene: it loads the document, feeds
// the recorded commands through the command boundary and computes the
// enabled hazard envelopes for the live scene, a single instant, or every
// frame of the timeline.
package engine

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"

	"github.com/colbychapman3/incident-replay-engine-sub000/internal/command"
	"github.com/colbychapman3/incident-replay-engine-sub000/internal/config"
	"github.com/colbychapman3/incident-replay-engine-sub000/internal/evidence"
	"github.com/colbychapman3/incident-replay-engine-sub000/internal/geometry"
	"github.com/colbychapman3/incident-replay-engine-sub000/internal/scenario"
	"github.com/colbychapman3/incident-replay-engine-sub000/internal/state"
	"github.com/colbychapman3/incident-replay-engine-sub000/internal/system"
	"github.com/colbychapman3/incident-replay-engine-sub000/internal/timeline"
)

// Report modes.
const (
	ModeLive   = "live"
	ModeAt     = "at"
	ModeSample = "sample"
)

// CommandResult is the replay outcome of one recorded command.
type CommandResult struct {
	Index   int             `yaml:"index" json:"index" msgpack:"index"`
	Type    string          `yaml:"type" json:"type" msgpack:"type"`
	Outcome command.Outcome `yaml:"outcome" json:"outcome" msgpack:"outcome"`
	Message string          `yaml:"message,omitempty" json:"message,omitempty" msgpack:"message"`
}

// FrameReport holds the envelopes of one sampled frame.
type FrameReport struct {
	Index     int         `yaml:"index" json:"index" msgpack:"index"`
	Time      float64     `yaml:"time" json:"time" msgpack:"time"`
	Envelopes EnvelopeSet `yaml:"envelopes" json:"envelopes" msgpack:"envelopes"`
}

// Report is the reproducible result of a replay. It carries no wall-clock
// values, so the same scene and commands always give the same Digest.
type Report struct {
	Scene       string          `yaml:"scene" json:"scene" msgpack:"scene"`
	Mode        string          `yaml:"mode" json:"mode" msgpack:"mode"`
	Time        float64         `yaml:"time,omitempty" json:"time,omitempty" msgpack:"time"`
	Units       string          `yaml:"units" json:"units" msgpack:"units"`
	Commands    []CommandResult `yaml:"commands" json:"commands" msgpack:"commands"`
	Applied     int             `yaml:"applied" json:"applied" msgpack:"applied"`
	Rejected    int             `yaml:"rejected" json:"rejected" msgpack:"rejected"`
	SceneDigest string          `yaml:"sceneDigest" json:"sceneDigest" msgpack:"sceneDigest"`
	Envelopes   *EnvelopeSet    `yaml:"envelopes,omitempty" json:"envelopes,omitempty" msgpack:"envelopes"`
	Frames      []FrameReport   `yaml:"frames,omitempty" json:"frames,omitempty" msgpack:"frames"`
	Digest      string          `yaml:"digest" json:"digest" msgpack:"digest"`
}

// Project runs one replay.
type Project struct {
	Config   *config.Config
	Executor *command.Executor
	Logger   *log.Logger
}

func NewProject(cfg *config.Config, exec *command.Executor) *Project {
	return &Project{
		Config:   cfg,
		Executor: exec,
		Logger:   log.Default(),
	}
}

// Run replays cmds over doc. A rejected command is recorded in the report
// and skipped; the replay continues from the last good state. The final
// scene state is returned alongside the report.
func (p *Project) Run(ctx context.Context, doc *scenario.Document, cmds []command.Command) (*Report, state.State, error) {
	st, err := doc.State()
	if err != nil {
		return nil, state.State{}, err
	}

	report := &Report{
		Scene:    doc.Name,
		Units:    "m",
		Commands: make([]CommandResult, 0, len(cmds)),
	}

	for i, cmd := range cmds {
		if err := ctx.Err(); err != nil {
			return nil, state.State{}, err
		}
		res, err := p.Executor.Execute(ctx, st, cmd)
		cr := CommandResult{Index: i, Type: string(cmd.Type)}
		var cerr *command.Error
		switch {
		case err == nil:
			st = res.State
			cr.Outcome = command.OutcomeOK
			report.Applied++
		case errors.As(err, &cerr):
			cr.Outcome = command.Outcome(cerr.Kind)
			cr.Message = cerr.Message
			report.Rejected++
		default:
			return nil, state.State{}, fmt.Errorf("command %d: %w", i, err)
		}
		report.Commands = append(report.Commands, cr)
	}
	if len(cmds) > 0 {
		p.Logger.Printf("[*] Replayed %d commands: %d applied, %d rejected", len(cmds), report.Applied, report.Rejected)
	}

	if report.SceneDigest, err = evidence.Digest(scenario.FromState(doc.Name, st)); err != nil {
		return nil, state.State{}, err
	}

	workers := system.Workers(p.Config.Workers)
	switch {
	case p.Config.Sample:
		report.Mode = ModeSample
		report.Frames, err = p.sample(ctx, st, workers)
	case p.Config.At >= 0:
		report.Mode = ModeAt
		report.Time = p.Config.At
		var set EnvelopeSet
		posed := Pose(st.Objects, timeline.StatesAt(st.Timeline.Keyframes, p.Config.At))
		set, err = EnvelopesFor(ctx, posed, st.Envelopes, workers)
		report.Envelopes = &set
	default:
		report.Mode = ModeLive
		var set EnvelopeSet
		set, err = EnvelopesFor(ctx, st.Objects, st.Envelopes, workers)
		report.Envelopes = &set
	}
	if err != nil {
		return nil, state.State{}, err
	}

	if p.Config.PixelScale > 0 {
		p.toPixels(report)
	}

	if report.Digest, err = evidence.Digest(report); err != nil {
		return nil, state.State{}, err
	}
	return report, st, nil
}

// sample computes envelopes for every frame of the timeline on a pool of
// workers. Frames are written into their own slots, so the result does not
// depend on scheduling.
func (p *Project) sample(ctx context.Context, st state.State, workers int) ([]FrameReport, error) {
	fps := st.Timeline.FPS
	if p.Config.FPS > 0 {
		fps = p.Config.FPS
	}

	frames, err := timeline.Sample(ctx, st.Timeline.Keyframes, st.Timeline.Duration, fps, workers)
	if err != nil {
		return nil, err
	}
	p.Logger.Printf("[*] Sampling %d frames at %d FPS on %d workers", len(frames), fps, workers)

	out := make([]FrameReport, len(frames))
	jobs := make(chan int, len(frames))
	var (
		wg       sync.WaitGroup
		mu       sync.Mutex
		firstErr error
	)

	if workers > len(frames) {
		workers = len(frames)
	}
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range jobs {
				if ctx.Err() != nil {
					continue
				}
				f := frames[i]
				set, err := EnvelopesFor(ctx, Pose(st.Objects, f.States), st.Envelopes, 1)
				if err != nil {
					mu.Lock()
					if firstErr == nil {
						firstErr = fmt.Errorf("frame %d: %w", i, err)
					}
					mu.Unlock()
					continue
				}
				out[i] = FrameReport{Index: f.Index, Time: f.Time, Envelopes: set}
			}
		}()
	}

	for i := range frames {
		jobs <- i
	}
	close(jobs)
	wg.Wait()

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if firstErr != nil {
		return nil, firstErr
	}
	return out, nil
}

func (p *Project) toPixels(r *Report) {
	vt := geometry.NewViewTransform(geometry.Point{X: p.Config.PixelOriginX, Y: p.Config.PixelOriginY}, p.Config.PixelScale)
	r.Units = "px"
	if r.Envelopes != nil {
		set := r.Envelopes.Transform(vt)
		r.Envelopes = &set
	}
	for i := range r.Frames {
		r.Frames[i].Envelopes = r.Frames[i].Envelopes.Transform(vt)
	}
}
