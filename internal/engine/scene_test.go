package engine

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/colbychapman3/incident-replay-engine-sub000/internal/envelope"
	"github.com/colbychapman3/incident-replay-engine-sub000/internal/geometry"
	"github.com/colbychapman3/incident-replay-engine-sub000/internal/state"
	"github.com/colbychapman3/incident-replay-engine-sub000/internal/timeline"
)

func TestExtract(t *testing.T) {
	objects := []state.SceneObject{
		{ID: "fl", AssetID: "Forklift-3t", Category: state.CategoryVehicle, Position: geometry.Point{X: 1, Y: 1}},
		{ID: "mafi", Category: state.CategoryVehicle, Properties: map[string]any{"trailerLength": 12, "height": 4.0}},
		{ID: "spot", Category: state.CategoryActor, Properties: map[string]any{"visionRange": 30.0}},
		{ID: "box", Category: state.CategorySafetyObject, Properties: map[string]any{"width": 2, "length": 2}},
		{ID: "ramp", Category: state.CategorySafetyObject, Properties: map[string]any{
			"clearanceHeight": 3.0,
			"boundary":        []any{map[string]any{"x": 0, "y": 0}, map[string]any{"x": 4, "y": 0}, map[string]any{"x": 4, "y": 4}},
		}},
		{ID: "gone", Category: state.CategoryVehicle, Hidden: true, Properties: map[string]any{"forkHeight": 1.0}},
	}

	sc := Extract(objects)

	require.Len(t, sc.Forklifts, 1)
	assert.Equal(t, "fl", sc.Forklifts[0].ID)
	require.Len(t, sc.Mafis, 1)
	assert.Equal(t, 12.0, sc.Mafis[0].TrailerLength)
	require.Len(t, sc.Spotters, 1)
	assert.Equal(t, 30.0, sc.Spotters[0].VisionRange)
	require.Len(t, sc.Obstacles, 1)
	assert.Equal(t, "box", sc.Obstacles[0].ID)
	assert.Len(t, sc.Obstacles[0].BoundingBox.Points, 4)
	require.Len(t, sc.Ramps, 1)
	assert.Len(t, sc.Ramps[0].Boundary.Points, 3)
	assert.Equal(t, []envelope.Vehicle{
		{ID: "fl", Position: geometry.Point{X: 1, Y: 1}},
		{ID: "mafi", Height: 4},
	}, sc.Vehicles)
	assert.Len(t, sc.Targets, 2)
}

func TestPolygonProperty(t *testing.T) {
	tests := []struct {
		name string
		raw  any
		n    int
		ok   bool
	}{
		{"maps", []any{map[string]any{"x": 0, "y": 0}, map[string]any{"x": 1, "y": 0}, map[string]any{"x": 1, "y": 1}}, 3, true},
		{"pairs", []any{[]any{0, 0}, []any{1.5, 0}, []any{1, int64(1)}}, 3, true},
		{"typed", []geometry.Point{{}, {X: 1}, {Y: 1}}, 3, true},
		{"too few", []any{map[string]any{"x": 0, "y": 0}}, 1, false},
		{"junk", []any{"a", "b", "c"}, 0, false},
		{"scalar", 7, 0, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			poly, ok := polygon(tt.raw)
			assert.Equal(t, tt.ok, ok)
			if tt.ok {
				assert.Len(t, poly.Points, tt.n)
				assert.True(t, poly.Closed)
			}
		})
	}
}

func TestPose(t *testing.T) {
	objects := []state.SceneObject{
		{ID: "ramp", Locked: true},
		{ID: "truck", Properties: map[string]any{"height": 4.0}},
	}
	posed := Pose(objects, map[string]timeline.ObjectState{
		"ramp":  {Position: geometry.Point{X: 2}, Rotation: 370, Visible: true},
		"truck": {Position: geometry.Point{Y: 3}, Properties: map[string]any{"height": 5.0}},
	})

	require.Len(t, posed, 2)
	assert.Equal(t, geometry.Point{X: 2}, posed[0].Position, "locked objects still animate")
	assert.Equal(t, 10.0, posed[0].Rotation)
	assert.True(t, posed[1].Hidden)
	assert.Equal(t, 5.0, posed[1].Properties["height"])
	assert.Equal(t, 4.0, objects[1].Properties["height"], "input objects are not modified")
}

func TestSpotterBlockedByObstacle(t *testing.T) {
	objects := []state.SceneObject{
		{ID: "spot", Category: state.CategoryActor, Properties: map[string]any{"visionRange": 50.0}},
		{ID: "container", Category: state.CategorySafetyObject, Position: geometry.Point{X: 5}, Properties: map[string]any{"width": 2, "length": 2}},
		{ID: "truck", Category: state.CategoryVehicle, Position: geometry.Point{X: 10}},
	}

	set, err := EnvelopesFor(context.Background(), objects, state.EnvelopeVisibility{SpotterLOS: true}, 2)
	require.NoError(t, err)
	require.Len(t, set.SpotterLOS, 1)
	line := set.SpotterLOS[0].SightLine
	assert.True(t, line.Obstructed)
	assert.Equal(t, []geometry.Point{{X: 5}}, line.ObstructionPoints)
	assert.Equal(t, 5.0, set.SpotterLOS[0].ClearRange)
}

func TestEnvelopesForEmptyScene(t *testing.T) {
	all := state.EnvelopeVisibility{ForkliftVision: true, MafiSwing: true, SpotterLOS: true, RampClearance: true}
	set, err := EnvelopesFor(context.Background(), nil, all, 1)
	require.NoError(t, err)
	assert.NotNil(t, set.ForkliftVision)
	assert.NotNil(t, set.MafiSwing)
	assert.NotNil(t, set.SpotterLOS)
	assert.NotNil(t, set.RampClearance)
	assert.Empty(t, set.RampClearance)
}

func TestNewCalculator(t *testing.T) {
	for _, k := range envelope.Kinds {
		c, err := NewCalculator(k)
		require.NoError(t, err)
		assert.Equal(t, k, c.Kind())
	}
	_, err := NewCalculator("laser")
	assert.Error(t, err)
}
