package geom

// Transform is the placement of a layer on the canvas: a translation,
// a per-axis scale, and a rotation in radians. It composes as
// translate, then rotate, then scale.
type Transform struct {
	X        float64 `json:"x"`
	Y        float64 `json:"y"`
	ScaleX   float64 `json:"scaleX"`
	ScaleY   float64 `json:"scaleY"`
	Rotation float64 `json:"rotation"`
}

// NewTransform returns the identity transform.
func NewTransform() Transform {
	return Transform{ScaleX: 1, ScaleY: 1}
}

// Normalized returns the transform with zero scale components replaced by 1.
// The Transform zero value would otherwise collapse geometry to a point.
func (t Transform) Normalized() Transform {
	if t.ScaleX == 0 {
		t.ScaleX = 1
	}
	if t.ScaleY == 0 {
		t.ScaleY = 1
	}
	return t
}

// Matrix returns the affine matrix for the transform.
func (t Transform) Matrix() Matrix {
	return NewMatrix().Translate(t.X, t.Y).Rotate(t.Rotation).Scale(t.ScaleX, t.ScaleY)
}

// Translated returns the transform shifted by (dx, dy) in canvas space.
func (t Transform) Translated(dx, dy float64) Transform {
	t.X += dx
	t.Y += dy
	return t
}

// IsIdentity reports whether the transform leaves geometry unchanged.
func (t Transform) IsIdentity() bool {
	return nearly(t.X, 0) && nearly(t.Y, 0) &&
		nearly(t.ScaleX, 1) && nearly(t.ScaleY, 1) &&
		nearly(t.Rotation, 0)
}

// RelativeTo expresses the transform in the local space of base. The result
// r satisfies r.AppliedTo(base) == t for non-degenerate scales, which makes
// it suitable as a stable descriptor that follows base wherever it moves.
func (t Transform) RelativeTo(base Transform) Transform {
	base = base.Normalized()
	lx, ly := base.Matrix().Invert().TransformPoint(t.X, t.Y)
	return Transform{
		X:        lx,
		Y:        ly,
		ScaleX:   t.ScaleX / base.ScaleX,
		ScaleY:   t.ScaleY / base.ScaleY,
		Rotation: t.Rotation - base.Rotation,
	}
}

// AppliedTo composes the transform, interpreted as local to base, back into
// canvas space. It is the inverse of RelativeTo.
func (t Transform) AppliedTo(base Transform) Transform {
	base = base.Normalized()
	wx, wy := base.Matrix().TransformPoint(t.X, t.Y)
	return Transform{
		X:        wx,
		Y:        wy,
		ScaleX:   base.ScaleX * t.ScaleX,
		ScaleY:   base.ScaleY * t.ScaleY,
		Rotation: base.Rotation + t.Rotation,
	}
}
