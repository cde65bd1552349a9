package engine

import (
	"fmt"

	"github.com/dshills/strata/internal/engine/layer"
	"github.com/dshills/strata/internal/event"
)

// clipboardSlot holds at most one logical unit: a primary record and,
// when the primary was masked at copy time, its mask. The stored
// transforms advance with every paste so repeated pastes stagger.
type clipboardSlot struct {
	primary *layer.Record
	mask    *layer.Record
}

// Copy places a deep copy of the layer on the clipboard, overwriting any
// prior content. A masked layer is copied together with its mask as one
// unit. Copy writes no history checkpoint.
func (e *Engine) Copy(lid layer.ID) error {
	return e.run(func() error {
		rec, err := e.reg.Get(lid)
		if err != nil {
			return opErrID("copy", lid, err)
		}

		slot := &clipboardSlot{primary: rec.Clone()}
		if rec.ClipMaskID != layer.None {
			if mask, err := e.reg.Get(rec.ClipMaskID); err == nil {
				slot.mask = mask.Clone()
			} else {
				slot.primary.ClipMaskID = layer.None
			}
		}
		e.clipboard = slot

		e.log.Debug("layer copied", "id", lid, "withMask", slot.mask != nil)
		e.queue(event.TopicClipboardChanged, event.ClipboardChanged{ID: lid, Op: "copy"})
		return nil
	})
}

// Cut copies the layer to the clipboard and removes it, as one history
// checkpoint.
func (e *Engine) Cut(lid layer.ID) error {
	return e.run(func() error {
		rec, err := e.reg.Get(lid)
		if err != nil {
			return opErrID("cut", lid, err)
		}

		slot := &clipboardSlot{primary: rec.Clone()}
		if rec.ClipMaskID != layer.None {
			if mask, err := e.reg.Get(rec.ClipMaskID); err == nil {
				slot.mask = mask.Clone()
			} else {
				slot.primary.ClipMaskID = layer.None
			}
		}
		e.clipboard = slot
		e.queue(event.TopicClipboardChanged, event.ClipboardChanged{ID: lid, Op: "cut"})

		return e.removeLayer(lid, fmt.Sprintf("Cut %s", rec.Name))
	})
}

// HasClipboard reports whether a paste would have content to work with.
func (e *Engine) HasClipboard() bool {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.clipboard != nil
}

// Paste reconstructs the clipboard unit at the front of the stacking
// order with fresh ids, offset from where the previous paste (or the
// original) sat. The pasted primary becomes the sole selection. The
// clipboard keeps its content, so paste can run repeatedly.
func (e *Engine) Paste() (layer.Record, error) {
	var rec layer.Record
	err := e.run(func() error {
		var err error
		rec, err = e.paste()
		return err
	})
	return rec, err
}

func (e *Engine) paste() (layer.Record, error) {
	const op = "paste"

	slot := e.clipboard
	if slot == nil {
		return layer.Record{}, invalidOp(op, "", "clipboard is empty")
	}

	dx, dy := e.pasteOffset.X, e.pasteOffset.Y
	primTr := slot.primary.Transform.Translated(dx, dy)
	sources := []*layer.Record{slot.primary}
	if slot.mask != nil {
		sources = append(sources, slot.mask)
	}

	set := e.freshIDs(sources)
	prim := set[0]
	prim.Transform = primTr
	var mask *layer.Record
	if slot.mask != nil {
		mask = set[1]
		mask.Transform = slot.mask.Transform.Translated(dx, dy)
	}

	// A mask copied without its target pastes as an ordinary layer.
	if mask == nil && prim.IsClipMask {
		if s := prim.SavedMaskStyle; s != nil {
			prim.Paint = s.Paint
			prim.Opacity = s.Opacity
		}
		prim.IsClipMask = false
		prim.SavedMaskStyle = nil
	}

	if err := e.materializeSet(set); err != nil {
		return layer.Record{}, opErr(op, string(prim.ID), err)
	}

	at, err := e.reg.Insert(prim, 0)
	if err != nil {
		e.removeNodes(prim.Node)
		if mask != nil {
			e.removeNodes(mask.Node)
		}
		return layer.Record{}, opErrID(op, prim.ID, err)
	}
	primPos := at
	if mask != nil {
		if _, err := e.reg.Insert(mask, 0); err != nil {
			e.reg.Remove(prim.ID)
			e.removeNodes(prim.Node, mask.Node)
			return layer.Record{}, opErrID(op, mask.ID, err)
		}
		primPos = 1
		if err := e.scene.SetZOrder(mask.Node, 0); err != nil {
			e.log.Error("z-order sync failed for paste", "id", mask.ID, "error", err)
		}
	}
	if err := e.scene.SetZOrder(prim.Node, primPos); err != nil {
		e.log.Error("z-order sync failed for paste", "id", prim.ID, "error", err)
	}

	// Commit the stagger so the next paste lands one step further.
	slot.primary.Transform = primTr
	if slot.mask != nil {
		slot.mask.Transform = mask.Transform
	}

	e.sel.SelectOnly(prim.ID, primPos)
	e.selectionChanged()

	e.log.Debug("layer pasted", "id", prim.ID, "index", primPos, "withMask", mask != nil)
	e.queue(event.TopicLayerPasted, event.LayerPasted{NewID: prim.ID, Index: primPos})
	e.checkpoint(fmt.Sprintf("Paste %s", prim.Name))
	return *prim.Clone(), nil
}
