// Package geometry provides the small amount of plane geometry the layout
// stages need: points, segment intersection and compass angles.
package geometry

import "math"

// Point is a 2D coordinate in canvas space (y grows downward).
type Point struct {
	X, Y float64
}

// Sub returns p - q.
func (p Point) Sub(q Point) Point { return Point{p.X - q.X, p.Y - q.Y} }

// Add returns p + q.
func (p Point) Add(q Point) Point { return Point{p.X + q.X, p.Y + q.Y} }

// Cross returns the z component of the 2D cross product p × q.
func (p Point) Cross(q Point) float64 { return p.X*q.Y - p.Y*q.X }

// Dist2 returns the squared Euclidean distance between p and q.
func Dist2(p, q Point) float64 {
	dx, dy := p.X-q.X, p.Y-q.Y
	return dx*dx + dy*dy
}

// Angle returns the direction from origin to p in radians, in (-π, π].
func Angle(origin, p Point) float64 {
	return math.Atan2(p.Y-origin.Y, p.X-origin.X)
}

// Polar returns the point at distance r from origin along angle theta.
func Polar(origin Point, r, theta float64) Point {
	return Point{origin.X + r*math.Cos(theta), origin.Y + r*math.Sin(theta)}
}

// AngleDiff returns the absolute angular distance between a and b, in [0, π].
func AngleDiff(a, b float64) float64 {
	d := math.Mod(math.Abs(a-b), 2*math.Pi)
	if d > math.Pi {
		d = 2*math.Pi - d
	}
	return d
}

// Segment is the straight line between two points.
type Segment struct {
	A, B Point
}

// parallelEpsilon is the cross-product magnitude below which two segments are
// treated as parallel and therefore non-crossing.
const parallelEpsilon = 1e-9

// Intersect reports whether s and o cross strictly inside both segments.
//
// Both segments are parameterised on [0, 1]; the crossing counts only when
// both parameters fall in the open interval (lo, hi). Trimming the ends keeps
// segments that merely touch at an endpoint, and near-parallel noise, from
// registering as crossings.
func (s Segment) Intersect(o Segment, lo, hi float64) bool {
	r := s.B.Sub(s.A)
	q := o.B.Sub(o.A)
	denom := r.Cross(q)
	if math.Abs(denom) < parallelEpsilon {
		return false
	}
	w := o.A.Sub(s.A)
	t := w.Cross(q) / denom
	u := w.Cross(r) / denom
	return t > lo && t < hi && u > lo && u < hi
}
