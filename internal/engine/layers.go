package engine

import (
	"fmt"
	"slices"
	"strings"

	"github.com/dshills/strata/internal/engine/geom"
	"github.com/dshills/strata/internal/engine/layer"
	"github.com/dshills/strata/internal/engine/selection"
	"github.com/dshills/strata/internal/engine/style"
	"github.com/dshills/strata/internal/event"
	"github.com/dshills/strata/internal/render"
)

// LayerSpec describes a layer to create. Zero values take sensible
// defaults: an empty name is generated, a zero transform normalizes to
// identity scale, zero opacity means fully opaque, and an empty shape
// token on shape layers means a rectangle. Hidden and Locked default to
// false, so new layers are visible and editable.
type LayerSpec struct {
	Name      string
	Kind      layer.Kind
	Shape     layer.Shape
	Text      string
	Source    string
	Size      geom.Size
	Transform geom.Transform
	Paint     style.Paint
	Opacity   float64
	Blend     style.BlendMode
	Hidden    bool
	Locked    bool
}

// LayerPatch is a partial update. Nil fields are left untouched.
type LayerPatch struct {
	Name      *string
	Visible   *bool
	Locked    *bool
	Opacity   *float64
	Blend     *style.BlendMode
	Paint     *style.Paint
	Transform *geom.Transform
}

// AddLayer creates a layer at the front of the stacking order and
// selects it. It returns a copy of the new record.
func (e *Engine) AddLayer(spec LayerSpec) (layer.Record, error) {
	return e.AddLayerAt(spec, 0)
}

// AddLayerAt creates a layer at the given position, clamped to the valid
// range, and selects it.
func (e *Engine) AddLayerAt(spec LayerSpec, at int) (layer.Record, error) {
	var rec layer.Record
	err := e.run(func() error {
		var err error
		rec, err = e.addLayerAt(spec, at)
		return err
	})
	return rec, err
}

func (e *Engine) addLayerAt(spec LayerSpec, at int) (layer.Record, error) {
	rec, err := e.buildRecord(spec)
	if err != nil {
		return layer.Record{}, err
	}

	node, err := e.scene.AddNode(rec.Descriptor())
	if err != nil {
		return layer.Record{}, opErr("addLayer", rec.Name, err)
	}
	rec.Node = node

	idx, err := e.reg.Insert(rec, at)
	if err != nil {
		if rmErr := e.scene.RemoveNode(node); rmErr != nil {
			e.log.Error("rollback of added node failed", "node", node, "error", rmErr)
		}
		return layer.Record{}, opErrID("addLayer", rec.ID, err)
	}
	if err := e.scene.SetZOrder(node, idx); err != nil {
		e.log.Error("z-order sync failed for new layer", "id", rec.ID, "error", err)
	}

	e.sel.SelectOnly(rec.ID, idx)

	e.log.Debug("layer added", "id", rec.ID, "kind", rec.Kind.String(), "index", idx)
	e.queue(event.TopicLayerAdded, event.LayerAdded{
		ID:    rec.ID,
		Name:  rec.Name,
		Kind:  rec.Kind.String(),
		Index: idx,
	})
	e.selectionChanged()
	e.checkpoint(fmt.Sprintf("Add %s", rec.Name))
	return *rec.Clone(), nil
}

func (e *Engine) buildRecord(spec LayerSpec) (*layer.Record, error) {
	if spec.Kind == layer.KindGroup {
		return nil, invalidOp("addLayer", "", "groups are created with Group, not AddLayer")
	}
	paint, err := spec.Paint.Normalize()
	if err != nil {
		return nil, opErr("addLayer", spec.Name, fmt.Errorf("%w: %v", ErrInvalidOperation, err))
	}
	if spec.Kind == layer.KindShape && paint == (style.Paint{}) {
		paint = style.DefaultPaint()
	}
	if !spec.Blend.Valid() {
		return nil, invalidOp("addLayer", spec.Name, fmt.Sprintf("unknown blend mode %d", spec.Blend))
	}

	shape := spec.Shape
	if spec.Kind == layer.KindShape && shape == "" {
		shape = layer.ShapeRect
	}
	opacity := spec.Opacity
	if opacity == 0 {
		opacity = 1
	}
	opacity = min(max(opacity, 0), 1)

	e.addSeq++
	name := spec.Name
	if name == "" {
		name = fmt.Sprintf("Layer %d", e.addSeq)
	}

	return &layer.Record{
		ID:        layer.ID(e.newID()),
		Name:      name,
		Kind:      spec.Kind,
		Shape:     shape,
		Text:      spec.Text,
		Source:    spec.Source,
		Size:      spec.Size,
		Transform: spec.Transform.Normalized(),
		Paint:     paint,
		Opacity:   opacity,
		Blend:     spec.Blend,
		Visible:   !spec.Hidden,
		Locked:    spec.Locked,
	}, nil
}

// RemoveLayer deletes a layer. Deleting a masked layer also deletes its
// mask unless another layer still references it; deleting a mask record
// frees every layer it was clipping.
func (e *Engine) RemoveLayer(lid layer.ID) error {
	return e.run(func() error { return e.removeLayer(lid, "") })
}

func (e *Engine) removeLayer(lid layer.ID, desc string) error {
	rec, err := e.reg.Get(lid)
	if err != nil {
		return opErrID("removeLayer", lid, err)
	}

	// A mask being deleted frees every record that references it.
	if rec.IsClipMask {
		for _, ref := range e.reg.MaskReferents(rec.ID) {
			if err := e.scene.SetClip(ref.Node, nil); err != nil {
				e.log.Error("clip clear failed during mask delete", "id", ref.ID, "error", err)
			}
			ref.ClipMaskID = layer.None
			e.queue(event.TopicMaskFreed, event.MaskFreed{TargetID: ref.ID, MaskID: rec.ID})
		}
	}

	// A masked layer takes its mask with it when nothing else uses it.
	var cascaded []layer.ID
	if rec.ClipMaskID != layer.None {
		if len(e.reg.MaskReferents(rec.ClipMaskID)) == 1 {
			cascaded = append(cascaded, rec.ClipMaskID)
		}
	}

	before := e.sel.Snapshot()
	idx := e.removeOne(rec.ID)
	for _, maskID := range cascaded {
		e.removeOne(maskID)
	}
	if !sameSelection(before, e.sel.Snapshot()) {
		e.selectionChanged()
	}

	e.log.Debug("layer removed", "id", lid, "index", idx, "cascaded", len(cascaded))
	e.queue(event.TopicLayerRemoved, event.LayerRemoved{
		ID:            lid,
		Index:         idx,
		CascadedMasks: cascaded,
	})
	if desc == "" {
		desc = fmt.Sprintf("Delete %s", rec.Name)
	}
	e.checkpoint(desc)
	return nil
}

// removeOne pulls a single record out of the scene, registry, and
// selection. It returns the position the record held.
func (e *Engine) removeOne(lid layer.ID) int {
	rec, idx, err := e.reg.Remove(lid)
	if err != nil {
		return -1
	}
	if err := e.scene.RemoveNode(rec.Node); err != nil {
		e.log.Error("node removal failed", "id", lid, "node", rec.Node, "error", err)
	}
	e.sel.Remove(lid, idx)
	return idx
}

func sameSelection(a, b selection.Snapshot) bool {
	return a.Anchor == b.Anchor && slices.Equal(a.IDs, b.IDs)
}

// UpdateLayer applies a partial update, forwarding each changed field to
// the renderer.
func (e *Engine) UpdateLayer(lid layer.ID, patch LayerPatch) error {
	return e.run(func() error { return e.updateLayer(lid, patch) })
}

func (e *Engine) updateLayer(lid layer.ID, patch LayerPatch) error {
	rec, err := e.reg.Get(lid)
	if err != nil {
		return opErrID("updateLayer", lid, err)
	}

	// Resolve the whole patch before any renderer work so a bad field
	// cannot leave a half-applied update behind.
	next := *rec
	var fields []string
	if patch.Name != nil && *patch.Name != next.Name {
		next.Name = *patch.Name
		fields = append(fields, "name")
	}
	if patch.Visible != nil && *patch.Visible != next.Visible {
		next.Visible = *patch.Visible
		fields = append(fields, "visible")
	}
	if patch.Locked != nil && *patch.Locked != next.Locked {
		next.Locked = *patch.Locked
		fields = append(fields, "locked")
	}
	if patch.Opacity != nil {
		if op := min(max(*patch.Opacity, 0), 1); op != next.Opacity {
			next.Opacity = op
			fields = append(fields, "opacity")
		}
	}
	if patch.Blend != nil && *patch.Blend != next.Blend {
		if !patch.Blend.Valid() {
			return invalidOp("updateLayer", string(lid), fmt.Sprintf("unknown blend mode %d", *patch.Blend))
		}
		next.Blend = *patch.Blend
		fields = append(fields, "blend")
	}
	if patch.Paint != nil {
		paint, err := patch.Paint.Normalize()
		if err != nil {
			return opErrID("updateLayer", lid, fmt.Errorf("%w: %v", ErrInvalidOperation, err))
		}
		if paint != next.Paint {
			next.Paint = paint
			fields = append(fields, "paint")
		}
	}
	if patch.Transform != nil {
		if tr := patch.Transform.Normalized(); tr != next.Transform {
			next.Transform = tr
			fields = append(fields, "transform")
		}
	}

	if len(fields) == 0 {
		return nil
	}

	if err := e.pushFields(rec, &next, fields); err != nil {
		return opErrID("updateLayer", lid, err)
	}
	*rec = next

	// A mask that moved drags its clip windows along with it.
	if rec.IsClipMask && slices.Contains(fields, "transform") {
		e.refreshClipsOf(rec)
	}

	e.log.Debug("layer updated", "id", lid, "fields", fields)
	e.queue(event.TopicLayerUpdated, event.LayerUpdated{ID: lid, Fields: fields})
	e.checkpoint("Update " + strings.Join(fields, ", "))
	return nil
}

// pushFields forwards changed fields to the renderer. If a call fails,
// the calls already made are walked back so the scene matches the
// unchanged record.
func (e *Engine) pushFields(rec, next *layer.Record, fields []string) error {
	forward := func(to *layer.Record, field string) error {
		switch field {
		case "visible":
			return e.scene.SetVisible(rec.Node, to.Visible)
		case "locked":
			return e.scene.SetLocked(rec.Node, to.Locked)
		case "opacity":
			// A record serving as a mask stays invisible renderer-side;
			// the model value still updates for when it is freed.
			if rec.IsClipMask {
				return nil
			}
			return e.scene.SetOpacity(rec.Node, to.Opacity)
		case "blend":
			return e.scene.SetBlend(rec.Node, to.Blend)
		case "paint":
			return e.scene.SetPaint(rec.Node, to.Paint)
		case "transform":
			return e.scene.SetTransform(rec.Node, to.Transform)
		default:
			return nil
		}
	}

	for i, field := range fields {
		if err := forward(next, field); err != nil {
			for j := i - 1; j >= 0; j-- {
				if undoErr := forward(rec, fields[j]); undoErr != nil {
					e.log.Error("update rollback failed", "id", rec.ID, "field", fields[j], "error", undoErr)
				}
			}
			return err
		}
	}
	return nil
}

// refreshClipsOf recomputes the clip descriptor of every layer the mask
// clips. Failures are logged; the mask's own update has already
// committed.
func (e *Engine) refreshClipsOf(mask *layer.Record) {
	for _, ref := range e.reg.MaskReferents(mask.ID) {
		clip := &render.ClipDescriptor{
			Shape:    clipShape(mask),
			Size:     mask.Size,
			Relative: mask.Transform.RelativeTo(ref.Transform),
		}
		if err := e.scene.SetClip(ref.Node, clip); err != nil {
			e.log.Warn("clip refresh failed after mask move", "mask", mask.ID, "target", ref.ID, "error", err)
		}
	}
}
