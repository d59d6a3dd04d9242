// Package geometry is the computational-geometry kernel shared by the
// envelope calculators and the timeline engine.
//
// All functions work in meters and degrees and never fail. Inputs are
// assumed to be finite: NaN and Inf are rejected by the caller before they
// reach this package, which does not re-check them.
package geometry

import "math"

// Point is a position in world coordinates (meters).
type Point struct {
	X float64 `yaml:"x" json:"x" msgpack:"x"`
	Y float64 `yaml:"y" json:"y" msgpack:"y"`
}

// Add returns p+q.
func (p Point) Add(q Point) Point {
	return Point{X: p.X + q.X, Y: p.Y + q.Y}
}

// Sub returns p-q.
func (p Point) Sub(q Point) Point {
	return Point{X: p.X - q.X, Y: p.Y - q.Y}
}

// Polygon is an ordered vertex list. When Closed is set the last vertex
// connects back to the first.
type Polygon struct {
	Points []Point `yaml:"points" json:"points" msgpack:"points"`
	Closed bool    `yaml:"closed" json:"closed" msgpack:"closed"`
}

// Segment is a directed line segment.
type Segment struct {
	Start Point `yaml:"start" json:"start" msgpack:"start"`
	End   Point `yaml:"end" json:"end" msgpack:"end"`
}

// Clone returns a polygon that shares no memory with p.
func (p Polygon) Clone() Polygon {
	if p.Points == nil {
		return Polygon{Closed: p.Closed}
	}
	pts := make([]Point, len(p.Points))
	copy(pts, p.Points)
	return Polygon{Points: pts, Closed: p.Closed}
}

// Bounds returns the axis-aligned bounding box of p as (min, max).
// An empty polygon yields two zero points.
func (p Polygon) Bounds() (Point, Point) {
	if len(p.Points) == 0 {
		return Point{}, Point{}
	}
	lo, hi := p.Points[0], p.Points[0]
	for _, v := range p.Points[1:] {
		lo.X = math.Min(lo.X, v.X)
		lo.Y = math.Min(lo.Y, v.Y)
		hi.X = math.Max(hi.X, v.X)
		hi.Y = math.Max(hi.Y, v.Y)
	}
	return lo, hi
}

// Distance returns the Euclidean distance between a and b.
func Distance(a, b Point) float64 {
	d := b.Sub(a)
	return math.Sqrt(d.X*d.X + d.Y*d.Y)
}

// NormalizeAngle maps deg into [0, 360).
func NormalizeAngle(deg float64) float64 {
	a := math.Mod(deg, 360)
	if a < 0 {
		a += 360
	}
	// -1e-15 + 360 rounds to 360
	if a >= 360 {
		a -= 360
	}
	return a
}

// AngleBetween returns the heading from one point to another in degrees,
// normalized to [0, 360). 0° points along +X, angles grow counter-clockwise.
func AngleBetween(from, to Point) float64 {
	d := to.Sub(from)
	return NormalizeAngle(math.Atan2(d.Y, d.X) * 180 / math.Pi)
}

// DegToRad converts degrees to radians.
func DegToRad(deg float64) float64 {
	return deg * math.Pi / 180
}

// PointInPolygon reports whether p lies inside poly using even-odd ray
// casting. The ring is always treated as closed. Points exactly on an edge
// may be reported either way.
func PointInPolygon(p Point, poly Polygon) bool {
	pts := poly.Points
	n := len(pts)
	if n < 3 {
		return false
	}
	inside := false
	for i, j := 0, n-1; i < n; j, i = i, i+1 {
		pi, pj := pts[i], pts[j]
		if (pi.Y > p.Y) != (pj.Y > p.Y) &&
			p.X < (pj.X-pi.X)*(p.Y-pi.Y)/(pj.Y-pi.Y)+pi.X {
			inside = !inside
		}
	}
	return inside
}

// LineIntersectsPolygon reports whether seg touches poly: either endpoint
// is inside, or seg crosses one of its edges.
func LineIntersectsPolygon(seg Segment, poly Polygon) bool {
	if len(poly.Points) == 0 {
		return false
	}
	// disjoint bounding boxes rule out both tests below
	lo, hi := poly.Bounds()
	if math.Max(seg.Start.X, seg.End.X) < lo.X || math.Min(seg.Start.X, seg.End.X) > hi.X ||
		math.Max(seg.Start.Y, seg.End.Y) < lo.Y || math.Min(seg.Start.Y, seg.End.Y) > hi.Y {
		return false
	}
	if PointInPolygon(seg.Start, poly) || PointInPolygon(seg.End, poly) {
		return true
	}
	for _, edge := range edges(poly) {
		if SegmentsIntersect(seg, edge) {
			return true
		}
	}
	return false
}

// SegmentsIntersect reports whether a and b share at least one point.
func SegmentsIntersect(a, b Segment) bool {
	p1, q1, p2, q2 := a.Start, a.End, b.Start, b.End
	o1 := orientation(p1, q1, p2)
	o2 := orientation(p1, q1, q2)
	o3 := orientation(p2, q2, p1)
	o4 := orientation(p2, q2, q1)

	if o1 != o2 && o3 != o4 {
		return true
	}

	// collinear cases
	switch {
	case o1 == 0 && onSegment(p1, p2, q1):
		return true
	case o2 == 0 && onSegment(p1, q2, q1):
		return true
	case o3 == 0 && onSegment(p2, p1, q2):
		return true
	case o4 == 0 && onSegment(p2, q1, q2):
		return true
	}
	return false
}

// orientation returns 0 when p, q, r are collinear, 1 for clockwise and 2
// for counter-clockwise.
func orientation(p, q, r Point) int {
	val := (q.Y-p.Y)*(r.X-q.X) - (q.X-p.X)*(r.Y-q.Y)
	switch {
	case val == 0:
		return 0
	case val > 0:
		return 1
	default:
		return 2
	}
}

// onSegment reports whether q lies within the bounding box of p-r.
// Only meaningful when p, q, r are collinear.
func onSegment(p, q, r Point) bool {
	return q.X <= math.Max(p.X, r.X) && q.X >= math.Min(p.X, r.X) &&
		q.Y <= math.Max(p.Y, r.Y) && q.Y >= math.Min(p.Y, r.Y)
}

// edges lists the polygon sides, including the closing side when Closed.
func edges(poly Polygon) []Segment {
	pts := poly.Points
	n := len(pts)
	if n < 2 {
		return nil
	}
	out := make([]Segment, 0, n)
	for i := 0; i < n-1; i++ {
		out = append(out, Segment{Start: pts[i], End: pts[i+1]})
	}
	if poly.Closed && n > 2 {
		out = append(out, Segment{Start: pts[n-1], End: pts[0]})
	}
	return out
}

// PolygonIntersects tests a and b for overlap with the Separating Axis
// Theorem over both polygons' edge normals.
//
// The test is exact only for convex polygons. Arc polygons (pie slices)
// are passed through as-is, so results for them are an approximation.
func PolygonIntersects(a, b Polygon) bool {
	if len(a.Points) == 0 || len(b.Points) == 0 {
		return false
	}
	for _, poly := range []Polygon{a, b} {
		n := len(poly.Points)
		for i := 0; i < n; i++ {
			p1 := poly.Points[i]
			p2 := poly.Points[(i+1)%n]
			normal := Point{X: p2.Y - p1.Y, Y: p1.X - p2.X}

			minA, maxA := project(a.Points, normal)
			minB, maxB := project(b.Points, normal)
			if maxA < minB || maxB < minA {
				return false
			}
		}
	}
	return true
}

func project(pts []Point, axis Point) (float64, float64) {
	lo := math.Inf(1)
	hi := math.Inf(-1)
	for _, p := range pts {
		d := p.X*axis.X + p.Y*axis.Y
		lo = math.Min(lo, d)
		hi = math.Max(hi, d)
	}
	return lo, hi
}

// CreateArcPolygon builds a pie slice: the center followed by segments+1
// points at radius, sampled uniformly from startAngle to endAngle.
//
// The sweep always runs in the positive angular direction, so a normalized
// start greater than the normalized end wraps through 0°. Angles that are
// different but normalize to the same value describe a full circle.
func CreateArcPolygon(center Point, startAngle, endAngle, radius float64, segments int) Polygon {
	if segments < 1 {
		segments = 1
	}
	start := NormalizeAngle(startAngle)
	end := NormalizeAngle(endAngle)
	span := end - start
	if span < 0 {
		span += 360
	}
	if span == 0 && startAngle != endAngle {
		span = 360
	}

	pts := make([]Point, 0, segments+2)
	pts = append(pts, center)
	for i := 0; i <= segments; i++ {
		rad := DegToRad(start + span*float64(i)/float64(segments))
		pts = append(pts, center.Add(Point{X: radius * math.Cos(rad), Y: radius * math.Sin(rad)}))
	}
	return Polygon{Points: pts, Closed: true}
}

// CreateRectanglePolygon returns the four corners of a width×height
// rectangle centered on center and rotated by rotationDeg about it.
func CreateRectanglePolygon(center Point, width, height, rotationDeg float64) Polygon {
	hw, hh := width/2, height/2
	corners := [4]Point{
		{X: -hw, Y: -hh},
		{X: hw, Y: -hh},
		{X: hw, Y: hh},
		{X: -hw, Y: hh},
	}
	rad := DegToRad(rotationDeg)
	cos, sin := math.Cos(rad), math.Sin(rad)

	pts := make([]Point, 4)
	for i, c := range corners {
		pts[i] = center.Add(Point{X: c.X*cos - c.Y*sin, Y: c.X*sin + c.Y*cos})
	}
	return Polygon{Points: pts, Closed: true}
}
