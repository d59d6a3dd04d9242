package scenario

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/colbychapman3/incident-replay-engine-sub000/internal/envelope"
	"github.com/colbychapman3/incident-replay-engine-sub000/internal/geometry"
	"github.com/colbychapman3/incident-replay-engine-sub000/internal/state"
	"github.com/colbychapman3/incident-replay-engine-sub000/internal/timeline"
)

func TestReadSample(t *testing.T) {
	d, err := Read(filepath.Join("testdata", "ramp_incident.yaml"))
	require.NoError(t, err)

	assert.Equal(t, "ramp-incident", d.Name)
	require.Len(t, d.Objects, 4)
	assert.Equal(t, state.CategorySafetyObject, d.Objects[3].Category)
	assert.True(t, d.Objects[3].Locked)
	assert.Equal(t, 1.5, d.Objects[0].Properties["forkHeight"])
	assert.Equal(t, 30, d.Objects[1].Properties["articulationAngle"])
	assert.Len(t, d.Objects[3].Properties["boundary"], 4)
	assert.Equal(t, []envelope.Kind{envelope.KindForkliftVision, envelope.KindRampClearance}, d.Envelopes)
}

func TestDocumentState(t *testing.T) {
	d, err := Read(filepath.Join("testdata", "ramp_incident.yaml"))
	require.NoError(t, err)

	st, err := d.State()
	require.NoError(t, err)

	require.Len(t, st.Timeline.Keyframes, 2)
	assert.Equal(t, "kf-start", st.Timeline.Keyframes[0].ID, "keyframes are sorted")
	assert.Equal(t, 10.0, st.Timeline.Duration)
	assert.Equal(t, 10, st.Timeline.FPS)
	assert.True(t, st.Envelopes.ForkliftVision)
	assert.True(t, st.Envelopes.RampClearance)
	assert.False(t, st.Envelopes.MafiSwing)
	assert.Empty(t, st.UndoStack)

	st.Objects[0].Properties["forkHeight"] = 0.0
	assert.Equal(t, 1.5, d.Objects[0].Properties["forkHeight"], "state must not alias the document")
}

func TestDocumentStateDefaults(t *testing.T) {
	d := &Document{
		Name: "defaults",
		Timeline: Timeline{Keyframes: []timeline.Keyframe{
			{ID: "late", Timestamp: 90},
		}},
	}
	st, err := d.State()
	require.NoError(t, err)
	assert.Equal(t, state.DefaultFPS, st.Timeline.FPS)
	assert.Equal(t, 90.0, st.Timeline.Duration)
	assert.NotNil(t, st.Timeline.Keyframes[0].ObjectStates)
	assert.NotNil(t, st.Objects)
}

func TestDocumentStateRejects(t *testing.T) {
	tests := []struct {
		name string
		doc  Document
	}{
		{"duplicate object", Document{Objects: []state.SceneObject{{ID: "a"}, {ID: "a"}}}},
		{"negative keyframe", Document{Timeline: Timeline{Keyframes: []timeline.Keyframe{{ID: "k", Timestamp: -1}}}}},
		{"unknown envelope", Document{Envelopes: []envelope.Kind{"sonar"}}},
		{"duplicate keyframe", Document{Timeline: Timeline{Keyframes: []timeline.Keyframe{{ID: "k"}, {ID: "k", Timestamp: 1}}}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := tt.doc.State()
			assert.Error(t, err)
		})
	}
}

func TestWriteReadRoundTrip(t *testing.T) {
	st := state.Apply(state.New(), state.AddObject(state.SceneObject{
		ID:       "spotter-1",
		Category: state.CategoryActor,
		Position: geometry.Point{X: 1.25, Y: -3},
	}))
	st = state.Apply(st, state.AddKeyframe(timeline.Keyframe{ID: "k0", Label: "start"}))
	st = state.Apply(st, state.ToggleEnvelope(string(envelope.KindSpotterLOS)))

	path := filepath.Join(t.TempDir(), "nested", "scene.yaml")
	require.NoError(t, Write(FromState("saved", st), path))

	d, err := Read(path)
	require.NoError(t, err)
	assert.Equal(t, Version, d.Version)
	assert.Equal(t, "saved", d.Name)

	back, err := d.State()
	require.NoError(t, err)
	assert.Equal(t, st.Objects, back.Objects)
	assert.Equal(t, st.Envelopes, back.Envelopes)
	assert.Equal(t, "start", back.Timeline.Keyframes[0].Label)
}

func TestReadRejectsUnknownVersion(t *testing.T) {
	path := filepath.Join(t.TempDir(), "v9.yaml")
	require.NoError(t, os.WriteFile(path, []byte("version: \"9\"\nname: future\n"), 0644))
	_, err := Read(path)
	assert.ErrorContains(t, err, "unsupported version")
}

func TestGeneratePath(t *testing.T) {
	now := time.Date(2024, 2, 13, 1, 0, 0, 0, time.UTC)
	assert.Equal(t, filepath.Join("input", "scenes", "scene_2024-02-13_01-00-00.yaml"), GeneratePath(filepath.Join("input", "scenes"), now))
}

func TestFindLatest(t *testing.T) {
	dir := t.TempDir()
	files := []string{"scene_a.yaml", "scene_b.yml", "scene_c.yaml"}
	base := time.Now().Add(-time.Hour)
	for i, name := range files {
		p := filepath.Join(dir, name)
		require.NoError(t, os.WriteFile(p, []byte("name: x\n"), 0644))
		mod := base.Add(time.Duration(i) * time.Minute)
		require.NoError(t, os.Chtimes(p, mod, mod))
	}
	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.txt"), nil, 0644))
	require.NoError(t, os.Mkdir(filepath.Join(dir, "archive.yaml"), 0755))

	latest, err := FindLatest(dir)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "scene_c.yaml"), latest)

	_, err = FindLatest(t.TempDir())
	assert.Error(t, err)
	_, err = FindLatest(filepath.Join(dir, "missing"))
	assert.Error(t, err)
}
