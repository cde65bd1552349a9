package geom

import "math"

// Matrix is a 2D affine transformation matrix in row-major order:
//
//	| A  C  E |
//	| B  D  F |
//	| 0  0  1 |
//
// Points transform as x' = A*x + C*y + E, y' = B*x + D*y + F.
type Matrix struct {
	A, B, C, D, E, F float64
}

// NewMatrix returns the identity matrix.
func NewMatrix() Matrix {
	return Matrix{A: 1, D: 1}
}

// Translate returns the matrix multiplied by a translation.
func (m Matrix) Translate(x, y float64) Matrix {
	return m.Multiply(Matrix{A: 1, D: 1, E: x, F: y})
}

// Scale returns the matrix multiplied by a scale.
func (m Matrix) Scale(sx, sy float64) Matrix {
	return m.Multiply(Matrix{A: sx, D: sy})
}

// Rotate returns the matrix multiplied by a rotation. The angle is in
// radians, positive values rotate counterclockwise in a y-down space.
func (m Matrix) Rotate(radians float64) Matrix {
	sin, cos := math.Sincos(radians)
	return m.Multiply(Matrix{A: cos, B: sin, C: -sin, D: cos})
}

// Multiply returns m * n. Transformations compose right to left, so the
// result applies n first and m second.
func (m Matrix) Multiply(n Matrix) Matrix {
	return Matrix{
		A: m.A*n.A + m.C*n.B,
		B: m.B*n.A + m.D*n.B,
		C: m.A*n.C + m.C*n.D,
		D: m.B*n.C + m.D*n.D,
		E: m.A*n.E + m.C*n.F + m.E,
		F: m.B*n.E + m.D*n.F + m.F,
	}
}

// TransformPoint applies the matrix to the point (x, y).
func (m Matrix) TransformPoint(x, y float64) (float64, float64) {
	return m.A*x + m.C*y + m.E, m.B*x + m.D*y + m.F
}

// TransformVector applies the matrix to a direction vector, ignoring
// translation.
func (m Matrix) TransformVector(x, y float64) (float64, float64) {
	return m.A*x + m.C*y, m.B*x + m.D*y
}

// Determinant returns the determinant of the linear part.
func (m Matrix) Determinant() float64 {
	return m.A*m.D - m.B*m.C
}

// Invert returns the inverse matrix. If the matrix is singular it returns
// the identity.
func (m Matrix) Invert() Matrix {
	det := m.Determinant()
	if math.Abs(det) < Epsilon {
		return NewMatrix()
	}
	inv := 1 / det
	return Matrix{
		A: m.D * inv,
		B: -m.B * inv,
		C: -m.C * inv,
		D: m.A * inv,
		E: (m.C*m.F - m.D*m.E) * inv,
		F: (m.B*m.E - m.A*m.F) * inv,
	}
}

// IsIdentity reports whether the matrix is the identity within Epsilon.
func (m Matrix) IsIdentity() bool {
	return nearly(m.A, 1) && nearly(m.B, 0) &&
		nearly(m.C, 0) && nearly(m.D, 1) &&
		nearly(m.E, 0) && nearly(m.F, 0)
}
