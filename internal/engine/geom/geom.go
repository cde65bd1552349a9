// Package geom provides the 2D geometry primitives used by the layer model:
// points, sizes, affine matrices, and the translate/rotate/scale transforms
// attached to every layer record.
package geom

import "math"

// Epsilon is the tolerance used for float comparisons in this package.
const Epsilon = 1e-9

// Point is a position on the canvas in document units.
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Add returns p translated by q.
func (p Point) Add(q Point) Point {
	return Point{X: p.X + q.X, Y: p.Y + q.Y}
}

// Sub returns p minus q.
func (p Point) Sub(q Point) Point {
	return Point{X: p.X - q.X, Y: p.Y - q.Y}
}

// Size is a width and height in document units.
type Size struct {
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// IsZero reports whether the size has no area.
func (s Size) IsZero() bool {
	return s.Width == 0 && s.Height == 0
}

// Scaled returns the size multiplied component-wise by sx and sy.
func (s Size) Scaled(sx, sy float64) Size {
	return Size{Width: s.Width * sx, Height: s.Height * sy}
}

// nearly reports whether a and b are equal within Epsilon.
func nearly(a, b float64) bool {
	return math.Abs(a-b) <= Epsilon
}
