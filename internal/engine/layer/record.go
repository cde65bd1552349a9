// Package layer defines the layer record model and the ordered registry
// that is the single source of truth for stacking order. Records describe
// content, placement, and relationships; the renderer-owned node a record
// controls is referenced only by its opaque handle.
package layer

import (
	"fmt"
	"slices"

	"github.com/dshills/strata/internal/engine/geom"
	"github.com/dshills/strata/internal/engine/style"
	"github.com/dshills/strata/internal/render"
)

// ID identifies a layer record for the lifetime of a document session.
type ID string

// None is the empty id, used where a reference is absent.
const None ID = ""

// Kind classifies a record's content.
type Kind uint8

const (
	KindShape Kind = iota
	KindText
	KindImage
	KindGroup
)

// String returns the lowercase token for the kind.
func (k Kind) String() string {
	switch k {
	case KindShape:
		return "shape"
	case KindText:
		return "text"
	case KindImage:
		return "image"
	case KindGroup:
		return "group"
	default:
		return "unknown"
	}
}

// ParseKind converts a token to a Kind.
func ParseKind(s string) (Kind, error) {
	switch s {
	case "shape":
		return KindShape, nil
	case "text":
		return KindText, nil
	case "image":
		return KindImage, nil
	case "group":
		return KindGroup, nil
	default:
		return KindShape, fmt.Errorf("unknown layer kind %q", s)
	}
}

// Shape is the geometry token of a shape record.
type Shape string

const (
	ShapeRect     Shape = "rect"
	ShapeEllipse  Shape = "ellipse"
	ShapeTriangle Shape = "triangle"
	ShapeStar     Shape = "star"
	ShapePath     Shape = "path"
	ShapeLine     Shape = "line"
)

// ClosedPath reports whether the shape encloses an area. Open shapes
// cannot serve as clip-mask sources.
func (s Shape) ClosedPath() bool {
	switch s {
	case ShapeRect, ShapeEllipse, ShapeTriangle, ShapeStar, ShapePath:
		return true
	default:
		return false
	}
}

// MaskStyle is the style snapshot taken from a record when it becomes a
// clip mask, restored verbatim when the mask is freed.
type MaskStyle struct {
	Paint   style.Paint
	Opacity float64
}

// Record is a single entry in the layer registry. For group records the
// member records live in Children, in front-first order, and are absent
// from the top-level registry until the group is dissolved.
type Record struct {
	ID        ID
	Name      string
	Kind      Kind
	Shape     Shape
	Text      string
	Source    string
	Size      geom.Size
	Transform geom.Transform
	Paint     style.Paint
	Opacity   float64
	Blend     style.BlendMode
	Visible   bool
	Locked    bool

	// Node is the handle of the renderer-side node this record controls.
	Node render.NodeID

	// ClipMaskID references the record currently masking this one.
	ClipMaskID ID
	// IsClipMask marks a record serving as a mask source for at least one
	// other record.
	IsClipMask bool
	// SavedMaskStyle holds the record's pre-mask style while IsClipMask.
	SavedMaskStyle *MaskStyle

	Children []*Record
}

// IsGroup reports whether the record is a group composite.
func (r *Record) IsGroup() bool {
	return r.Kind == KindGroup
}

// ChildIDs returns the ids of the group's members, front-first. Non-group
// records return nil.
func (r *Record) ChildIDs() []ID {
	if len(r.Children) == 0 {
		return nil
	}
	ids := make([]ID, len(r.Children))
	for i, c := range r.Children {
		ids[i] = c.ID
	}
	return ids
}

// HasChild reports whether id names a direct member of the group.
func (r *Record) HasChild(id ID) bool {
	return slices.ContainsFunc(r.Children, func(c *Record) bool { return c.ID == id })
}

// Clone returns a deep copy of the record, including children and the
// saved mask style. The copy keeps the same ids and node handle.
func (r *Record) Clone() *Record {
	cp := *r
	if r.SavedMaskStyle != nil {
		saved := *r.SavedMaskStyle
		cp.SavedMaskStyle = &saved
	}
	if len(r.Children) > 0 {
		cp.Children = make([]*Record, len(r.Children))
		for i, c := range r.Children {
			cp.Children[i] = c.Clone()
		}
	}
	return &cp
}

// Descriptor builds the renderer node description for the record. Group
// records have no descriptor of their own; their nodes are composites
// built from member nodes.
func (r *Record) Descriptor() render.Descriptor {
	return render.Descriptor{
		Kind:      r.Kind.String(),
		Shape:     string(r.Shape),
		Text:      r.Text,
		Source:    r.Source,
		Size:      r.Size,
		Transform: r.Transform,
		Paint:     r.Paint,
		Opacity:   r.Opacity,
		Blend:     r.Blend,
		Visible:   r.Visible,
		Locked:    r.Locked,
	}
}
