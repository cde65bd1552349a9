package engine

import (
	"fmt"

	"github.com/dshills/strata/internal/engine/layer"
	"github.com/dshills/strata/internal/event"
	"github.com/dshills/strata/internal/render"
)

// DuplicateLayer copies a layer and inserts the copy directly in front
// of the original, offset on canvas, with fresh ids throughout. A masked
// layer brings a copy of its mask, rebound to the copy. A group copies
// every child. The duplicate becomes the sole selection.
func (e *Engine) DuplicateLayer(lid layer.ID) (layer.Record, error) {
	var rec layer.Record
	err := e.run(func() error {
		var err error
		rec, err = e.duplicateLayer(lid)
		return err
	})
	return rec, err
}

func (e *Engine) duplicateLayer(lid layer.ID) (layer.Record, error) {
	const op = "duplicateLayer"

	src, err := e.reg.Get(lid)
	if err != nil {
		return layer.Record{}, opErrID(op, lid, err)
	}
	idx, err := e.reg.IndexOf(lid)
	if err != nil {
		return layer.Record{}, opErrID(op, lid, err)
	}

	var dup *layer.Record
	switch {
	case src.IsGroup():
		dup, err = e.duplicateGroup(src, idx)
	case src.ClipMaskID != layer.None && e.reg.Has(src.ClipMaskID):
		dup, err = e.duplicateMaskedPair(src, idx)
	default:
		dup, err = e.duplicatePlain(src, idx)
	}
	if err != nil {
		return layer.Record{}, err
	}

	dupIdx, err := e.reg.IndexOf(dup.ID)
	if err != nil {
		return layer.Record{}, opErrID(op, dup.ID, err)
	}
	e.sel.SelectOnly(dup.ID, dupIdx)
	e.selectionChanged()

	e.log.Debug("layer duplicated", "source", lid, "new", dup.ID, "index", dupIdx)
	e.queue(event.TopicLayerDuplicated, event.LayerDuplicated{
		SourceID: lid,
		NewID:    dup.ID,
		Index:    dupIdx,
	})
	e.checkpoint(fmt.Sprintf("Duplicate %s", src.Name))
	return *dup.Clone(), nil
}

func (e *Engine) duplicatePlain(src *layer.Record, idx int) (*layer.Record, error) {
	const op = "duplicateLayer"

	node, err := e.scene.CloneNode(src.Node)
	if err != nil {
		return nil, opErrID(op, src.ID, err)
	}

	dup := src.Clone()
	dup.ID = layer.ID(e.newID())
	dup.Name = src.Name + " copy"
	dup.Node = node
	dup.Transform = src.Transform.Translated(e.dupOffset.X, e.dupOffset.Y)
	dup.ClipMaskID = layer.None
	// A mask duplicated on its own comes back as an ordinary visible
	// layer wearing its saved style.
	if dup.IsClipMask {
		if s := dup.SavedMaskStyle; s != nil {
			dup.Paint = s.Paint
			dup.Opacity = s.Opacity
		}
		dup.IsClipMask = false
		dup.SavedMaskStyle = nil
	}

	// The clone inherited the source node's live renderer state; align
	// it with the duplicate record.
	steps := []func() error{
		func() error { return e.scene.SetTransform(node, dup.Transform) },
		func() error { return e.scene.SetPaint(node, dup.Paint) },
		func() error { return e.scene.SetOpacity(node, dup.Opacity) },
		func() error { return e.scene.SetLocked(node, dup.Locked) },
	}
	for _, step := range steps {
		if err := step(); err != nil {
			if rmErr := e.scene.RemoveNode(node); rmErr != nil {
				e.log.Error("duplicate rollback failed", "node", node, "error", rmErr)
			}
			return nil, opErrID(op, src.ID, err)
		}
	}

	at, err := e.reg.Insert(dup, idx)
	if err != nil {
		if rmErr := e.scene.RemoveNode(node); rmErr != nil {
			e.log.Error("duplicate rollback failed", "node", node, "error", rmErr)
		}
		return nil, opErrID(op, dup.ID, err)
	}
	if err := e.scene.SetZOrder(node, at); err != nil {
		e.log.Error("z-order sync failed for duplicate", "id", dup.ID, "error", err)
	}
	return dup, nil
}

func (e *Engine) duplicateMaskedPair(src *layer.Record, idx int) (*layer.Record, error) {
	const op = "duplicateLayer"

	mask, err := e.reg.Get(src.ClipMaskID)
	if err != nil {
		return nil, opErrID(op, src.ClipMaskID, err)
	}

	maskNode, err := e.scene.CloneNode(mask.Node)
	if err != nil {
		return nil, opErrID(op, mask.ID, err)
	}
	targetNode, err := e.scene.CloneNode(src.Node)
	if err != nil {
		e.removeNodes(maskNode)
		return nil, opErrID(op, src.ID, err)
	}

	dx, dy := e.dupOffset.X, e.dupOffset.Y

	dupMask := mask.Clone()
	dupMask.ID = layer.ID(e.newID())
	dupMask.Name = mask.Name + " copy"
	dupMask.Node = maskNode
	dupMask.Transform = mask.Transform.Translated(dx, dy)

	dupTarget := src.Clone()
	dupTarget.ID = layer.ID(e.newID())
	dupTarget.Name = src.Name + " copy"
	dupTarget.Node = targetNode
	dupTarget.Transform = src.Transform.Translated(dx, dy)
	dupTarget.ClipMaskID = dupMask.ID

	// Shifting both by the same delta keeps the mask/target geometry
	// ratio, so the rebound descriptor matches the original cut-out.
	clip := &render.ClipDescriptor{
		Shape:    clipShape(dupMask),
		Size:     dupMask.Size,
		Relative: dupMask.Transform.RelativeTo(dupTarget.Transform),
	}
	steps := []func() error{
		func() error { return e.scene.SetTransform(targetNode, dupTarget.Transform) },
		func() error { return e.scene.SetTransform(maskNode, dupMask.Transform) },
		func() error { return e.scene.SetOpacity(maskNode, 0) },
		func() error { return e.scene.SetLocked(maskNode, true) },
		func() error { return e.scene.SetClip(targetNode, clip) },
	}
	for _, step := range steps {
		if err := step(); err != nil {
			e.removeNodes(maskNode, targetNode)
			return nil, opErrID(op, src.ID, err)
		}
	}

	tAt, err := e.reg.Insert(dupTarget, idx)
	if err != nil {
		e.removeNodes(maskNode, targetNode)
		return nil, opErrID(op, dupTarget.ID, err)
	}
	mAt, err := e.reg.Insert(dupMask, idx)
	if err != nil {
		e.reg.Remove(dupTarget.ID)
		e.removeNodes(maskNode, targetNode)
		return nil, opErrID(op, dupMask.ID, err)
	}
	if err := e.scene.SetZOrder(maskNode, mAt); err != nil {
		e.log.Error("z-order sync failed for duplicate", "id", dupMask.ID, "error", err)
	}
	if err := e.scene.SetZOrder(targetNode, tAt+1); err != nil {
		e.log.Error("z-order sync failed for duplicate", "id", dupTarget.ID, "error", err)
	}
	return dupTarget, nil
}

func (e *Engine) duplicateGroup(src *layer.Record, idx int) (*layer.Record, error) {
	const op = "duplicateLayer"

	dup := e.cloneWithFreshIDs(src)
	dup.Name = src.Name + " copy"
	dup.Transform = src.Transform.Translated(e.dupOffset.X, e.dupOffset.Y)

	if err := e.materializeSet([]*layer.Record{dup}); err != nil {
		return nil, opErrID(op, src.ID, err)
	}
	at, err := e.reg.Insert(dup, idx)
	if err != nil {
		e.removeNodes(dup.Node)
		return nil, opErrID(op, dup.ID, err)
	}
	if err := e.scene.SetZOrder(dup.Node, at); err != nil {
		e.log.Error("z-order sync failed for duplicate", "id", dup.ID, "error", err)
	}
	return dup, nil
}

// cloneWithFreshIDs deep-copies a record, assigning new ids throughout
// and remapping clip references that stay inside the copied subtree.
func (e *Engine) cloneWithFreshIDs(src *layer.Record) *layer.Record {
	return e.freshIDs([]*layer.Record{src})[0]
}

// freshIDs deep-copies a set of records with new ids. Clip references
// between records of the set follow the new ids; references leaving the
// set are dropped.
func (e *Engine) freshIDs(recs []*layer.Record) []*layer.Record {
	remap := make(map[layer.ID]layer.ID)
	out := make([]*layer.Record, len(recs))

	var relabel func(r *layer.Record)
	relabel = func(r *layer.Record) {
		nid := layer.ID(e.newID())
		remap[r.ID] = nid
		r.ID = nid
		for _, c := range r.Children {
			relabel(c)
		}
	}
	var rebind func(r *layer.Record)
	rebind = func(r *layer.Record) {
		if r.ClipMaskID != layer.None {
			if nid, ok := remap[r.ClipMaskID]; ok {
				r.ClipMaskID = nid
			} else {
				r.ClipMaskID = layer.None
			}
		}
		for _, c := range r.Children {
			rebind(c)
		}
	}

	for i, r := range recs {
		out[i] = r.Clone()
		relabel(out[i])
	}
	for _, r := range out {
		rebind(r)
	}
	return out
}

func (e *Engine) removeNodes(nodes ...render.NodeID) {
	for _, n := range nodes {
		if err := e.scene.RemoveNode(n); err != nil {
			e.log.Error("node cleanup failed", "node", n, "error", err)
		}
	}
}
