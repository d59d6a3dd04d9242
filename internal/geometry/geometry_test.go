package geometry

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func square(size float64) Polygon {
	return Polygon{
		Points: []Point{{0, 0}, {size, 0}, {size, size}, {0, size}},
		Closed: true,
	}
}

func TestDistance(t *testing.T) {
	assert.Equal(t, 5.0, Distance(Point{0, 0}, Point{3, 4}))
	assert.Equal(t, 0.0, Distance(Point{2, 2}, Point{2, 2}))
}

func TestNormalizeAngle(t *testing.T) {
	tests := []struct {
		in, want float64
	}{
		{0, 0},
		{360, 0},
		{720, 0},
		{370, 10},
		{-10, 350},
		{-370, 350},
		{359.5, 359.5},
		{-1e-15, 0},
	}
	for _, tt := range tests {
		got := NormalizeAngle(tt.in)
		assert.InDelta(t, tt.want, got, 1e-9, "NormalizeAngle(%v)", tt.in)
		assert.GreaterOrEqual(t, got, 0.0)
		assert.Less(t, got, 360.0)
	}
}

func TestAngleBetween(t *testing.T) {
	origin := Point{0, 0}
	assert.InDelta(t, 0, AngleBetween(origin, Point{1, 0}), 1e-9)
	assert.InDelta(t, 90, AngleBetween(origin, Point{0, 1}), 1e-9)
	assert.InDelta(t, 180, AngleBetween(origin, Point{-1, 0}), 1e-9)
	assert.InDelta(t, 270, AngleBetween(origin, Point{0, -1}), 1e-9)
	// coincident points do not fail
	assert.InDelta(t, 0, AngleBetween(origin, origin), 1e-9)
}

func TestPointInPolygon(t *testing.T) {
	sq := square(10)
	assert.True(t, PointInPolygon(Point{5, 5}, sq))
	assert.False(t, PointInPolygon(Point{15, 5}, sq))
	assert.False(t, PointInPolygon(Point{-1, -1}, sq))

	// concave "L" shape
	l := Polygon{Points: []Point{{0, 0}, {10, 0}, {10, 3}, {3, 3}, {3, 10}, {0, 10}}, Closed: true}
	assert.True(t, PointInPolygon(Point{1, 8}, l))
	assert.False(t, PointInPolygon(Point{8, 8}, l))

	// degenerate polygons contain nothing
	assert.False(t, PointInPolygon(Point{0, 0}, Polygon{}))
	assert.False(t, PointInPolygon(Point{0, 0}, Polygon{Points: []Point{{0, 0}, {1, 1}}}))
}

func TestLineIntersectsPolygon(t *testing.T) {
	sq := square(10)
	tests := []struct {
		name string
		seg  Segment
		want bool
	}{
		{"crosses through", Segment{Point{-5, 5}, Point{15, 5}}, true},
		{"start inside", Segment{Point{5, 5}, Point{50, 50}}, true},
		{"end inside", Segment{Point{50, 50}, Point{5, 5}}, true},
		{"misses", Segment{Point{-5, 20}, Point{15, 20}}, false},
		{"touches corner", Segment{Point{-5, -5}, Point{0, 0}}, true},
		{"collinear with edge", Segment{Point{-5, 0}, Point{20, 0}}, true},
		{"zero length outside", Segment{Point{20, 20}, Point{20, 20}}, false},
		{"left of the box", Segment{Point{-9, -20}, Point{-1, 30}}, false},
		{"grazes the box edge", Segment{Point{10, 20}, Point{10, -20}}, true},
		{"inside the box, outside the ring", Segment{Point{20, 9}, Point{9, 20}}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, LineIntersectsPolygon(tt.seg, sq))
		})
	}
}

func TestLineIntersectsPolyline(t *testing.T) {
	// two points, not closed: a single edge
	line := Polygon{Points: []Point{{0, 0}, {10, 0}}}
	assert.True(t, LineIntersectsPolygon(Segment{Point{5, -5}, Point{5, 5}}, line))
	assert.False(t, LineIntersectsPolygon(Segment{Point{-5, 5}, Point{2, 5}}, line))
	assert.Empty(t, edges(Polygon{Points: []Point{{1, 1}}}))
	assert.False(t, LineIntersectsPolygon(Segment{Point{0, 0}, Point{0, 0}}, Polygon{}))
}

func TestSegmentsIntersect(t *testing.T) {
	assert.True(t, SegmentsIntersect(Segment{Point{0, 0}, Point{10, 10}}, Segment{Point{0, 10}, Point{10, 0}}))
	assert.False(t, SegmentsIntersect(Segment{Point{0, 0}, Point{1, 1}}, Segment{Point{2, 2}, Point{3, 0}}))
	// collinear overlap
	assert.True(t, SegmentsIntersect(Segment{Point{0, 0}, Point{5, 0}}, Segment{Point{3, 0}, Point{8, 0}}))
	// collinear disjoint
	assert.False(t, SegmentsIntersect(Segment{Point{0, 0}, Point{1, 0}}, Segment{Point{2, 0}, Point{3, 0}}))
}

func TestPolygonIntersects(t *testing.T) {
	a := square(10)
	b := CreateRectanglePolygon(Point{12, 5}, 6, 2, 0) // x in [9,15]
	c := CreateRectanglePolygon(Point{30, 30}, 2, 2, 0)

	assert.True(t, PolygonIntersects(a, b))
	assert.True(t, PolygonIntersects(b, a))
	assert.False(t, PolygonIntersects(a, c))
	assert.False(t, PolygonIntersects(a, Polygon{}))

	// rotated square whose bounding box overlaps but the shape does not
	diamond := CreateRectanglePolygon(Point{12.5, 12.5}, 4, 4, 45)
	assert.False(t, PolygonIntersects(a, diamond))
}

func TestPolygonIntersectsArc(t *testing.T) {
	// pie slices go through SAT unchanged
	arc := CreateArcPolygon(Point{0, 0}, -30, 30, 10, 8)
	near := CreateRectanglePolygon(Point{8, 0}, 2, 2, 0)
	far := CreateRectanglePolygon(Point{-8, 0}, 2, 2, 0)
	assert.True(t, PolygonIntersects(arc, near))
	assert.False(t, PolygonIntersects(arc, far))
}

func TestCreateArcPolygon(t *testing.T) {
	center := Point{1, 2}
	arc := CreateArcPolygon(center, 0, 90, 10, 4)

	require.Len(t, arc.Points, 6)
	assert.True(t, arc.Closed)
	assert.Equal(t, center, arc.Points[0])
	assert.InDelta(t, 11, arc.Points[1].X, 1e-9)
	assert.InDelta(t, 2, arc.Points[1].Y, 1e-9)
	assert.InDelta(t, 1, arc.Points[5].X, 1e-9)
	assert.InDelta(t, 12, arc.Points[5].Y, 1e-9)
	for _, p := range arc.Points[1:] {
		assert.InDelta(t, 10, Distance(center, p), 1e-9)
	}
}

func TestCreateArcPolygonWraparound(t *testing.T) {
	// 300° → 60° sweeps through 0°, never through 180°
	arc := CreateArcPolygon(Point{0, 0}, 300, 60, 1, 4)
	require.Len(t, arc.Points, 6)

	mid := arc.Points[3]
	assert.InDelta(t, 1, mid.X, 1e-9)
	assert.InDelta(t, 0, mid.Y, 1e-9)
	for _, p := range arc.Points[1:] {
		assert.GreaterOrEqual(t, p.X, 0.5-1e-9)
	}

	// negative start angles behave the same as their normalized value
	neg := CreateArcPolygon(Point{0, 0}, -60, 60, 1, 4)
	assert.Equal(t, arc.Points, neg.Points)
}

func TestCreateArcPolygonFullCircleAndDegenerate(t *testing.T) {
	full := CreateArcPolygon(Point{0, 0}, 0, 360, 1, 4)
	require.Len(t, full.Points, 6)
	assert.InDelta(t, -1, full.Points[3].X, 1e-9)

	zero := CreateArcPolygon(Point{0, 0}, 45, 45, 1, 0)
	require.Len(t, zero.Points, 3)
	assert.Equal(t, zero.Points[1], zero.Points[2])
}

func TestCreateArcPolygonDeterministic(t *testing.T) {
	a := CreateArcPolygon(Point{3.3, -7.1}, 117.5, 237.5, 15, 24)
	b := CreateArcPolygon(Point{3.3, -7.1}, 117.5, 237.5, 15, 24)
	require.Equal(t, len(a.Points), len(b.Points))
	for i := range a.Points {
		assert.Equal(t, math.Float64bits(a.Points[i].X), math.Float64bits(b.Points[i].X))
		assert.Equal(t, math.Float64bits(a.Points[i].Y), math.Float64bits(b.Points[i].Y))
	}
}

func TestCreateRectanglePolygon(t *testing.T) {
	r := CreateRectanglePolygon(Point{0, 0}, 4, 2, 0)
	require.Len(t, r.Points, 4)
	assert.Equal(t, Point{-2, -1}, r.Points[0])
	assert.Equal(t, Point{2, 1}, r.Points[2])

	rot := CreateRectanglePolygon(Point{10, 10}, 4, 2, 90)
	assert.InDelta(t, 11, rot.Points[0].X, 1e-9)
	assert.InDelta(t, 8, rot.Points[0].Y, 1e-9)
	assert.True(t, PointInPolygon(Point{10, 11.5}, rot))
	assert.False(t, PointInPolygon(Point{11.5, 10}, rot))
}

func TestPolygonBoundsAndClone(t *testing.T) {
	p := CreateRectanglePolygon(Point{5, 5}, 4, 2, 0)
	lo, hi := p.Bounds()
	assert.Equal(t, Point{3, 4}, lo)
	assert.Equal(t, Point{7, 6}, hi)

	c := p.Clone()
	c.Points[0] = Point{100, 100}
	assert.NotEqual(t, c.Points[0], p.Points[0])

	lo, hi = Polygon{}.Bounds()
	assert.Equal(t, Point{}, lo)
	assert.Equal(t, Point{}, hi)
}
