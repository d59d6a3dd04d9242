package geometry

import "golang.org/x/image/math/f64"

// ViewTransform maps world coordinates to pixel coordinates with an origin
// offset and a uniform scale. Renderers apply it to envelope polygons; the
// kernel itself never works in pixels.
type ViewTransform struct {
	m f64.Aff3
}

// NewViewTransform returns the transform px = origin + world*scale.
func NewViewTransform(origin Point, scale float64) ViewTransform {
	return ViewTransform{m: f64.Aff3{
		scale, 0, origin.X,
		0, scale, origin.Y,
	}}
}

// Scale reports the uniform scale factor.
func (t ViewTransform) Scale() float64 {
	return t.m[0]
}

// Apply maps a world point to pixel space.
func (t ViewTransform) Apply(p Point) Point {
	return Point{
		X: t.m[0]*p.X + t.m[1]*p.Y + t.m[2],
		Y: t.m[3]*p.X + t.m[4]*p.Y + t.m[5],
	}
}

// ApplyPolygon maps every vertex of poly, preserving order and closure.
func (t ViewTransform) ApplyPolygon(poly Polygon) Polygon {
	out := Polygon{Points: make([]Point, len(poly.Points)), Closed: poly.Closed}
	for i, p := range poly.Points {
		out.Points[i] = t.Apply(p)
	}
	return out
}
