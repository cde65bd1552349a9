package geom

import (
	"math"
	"testing"
)

func almost(t *testing.T, got, want float64, label string) {
	t.Helper()
	if math.Abs(got-want) > 1e-6 {
		t.Errorf("%s = %v, want %v", label, got, want)
	}
}

func TestNewMatrixIsIdentity(t *testing.T) {
	m := NewMatrix()
	if !m.IsIdentity() {
		t.Errorf("NewMatrix() = %+v, want identity", m)
	}
	x, y := m.TransformPoint(3, -7)
	almost(t, x, 3, "x")
	almost(t, y, -7, "y")
}

func TestMatrixTranslate(t *testing.T) {
	m := NewMatrix().Translate(10, 20)
	x, y := m.TransformPoint(1, 2)
	almost(t, x, 11, "x")
	almost(t, y, 22, "y")

	// Vectors ignore translation.
	vx, vy := m.TransformVector(1, 2)
	almost(t, vx, 1, "vx")
	almost(t, vy, 2, "vy")
}

func TestMatrixScale(t *testing.T) {
	m := NewMatrix().Scale(2, 3)
	x, y := m.TransformPoint(4, 5)
	almost(t, x, 8, "x")
	almost(t, y, 15, "y")
}

func TestMatrixRotate(t *testing.T) {
	m := NewMatrix().Rotate(math.Pi / 2)
	x, y := m.TransformPoint(1, 0)
	almost(t, x, 0, "x")
	almost(t, y, 1, "y")
}

func TestMatrixCompositionOrder(t *testing.T) {
	// Translate then scale is not scale then translate.
	ts := NewMatrix().Translate(10, 0).Scale(2, 2)
	st := NewMatrix().Scale(2, 2).Translate(10, 0)

	x, _ := ts.TransformPoint(1, 0)
	almost(t, x, 12, "translate-scale x")

	x, _ = st.TransformPoint(1, 0)
	almost(t, x, 22, "scale-translate x")
}

func TestMatrixInvert(t *testing.T) {
	tests := []struct {
		name string
		m    Matrix
	}{
		{"translation", NewMatrix().Translate(5, -3)},
		{"scale", NewMatrix().Scale(2, 0.5)},
		{"rotation", NewMatrix().Rotate(0.7)},
		{"combined", NewMatrix().Translate(12, 7).Rotate(1.1).Scale(3, 2)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			round := tt.m.Multiply(tt.m.Invert())
			if !round.IsIdentity() {
				t.Errorf("m * m.Invert() = %+v, want identity", round)
			}
		})
	}
}

func TestMatrixInvertSingular(t *testing.T) {
	m := Matrix{} // zero matrix has no inverse
	if got := m.Invert(); !got.IsIdentity() {
		t.Errorf("Invert() of singular matrix = %+v, want identity", got)
	}
}

func TestMatrixDeterminant(t *testing.T) {
	m := NewMatrix().Scale(2, 3)
	almost(t, m.Determinant(), 6, "determinant")
}
