package engine

import (
	"github.com/dshills/strata/internal/engine/layer"
	"github.com/dshills/strata/internal/engine/selection"
)

// Selection commands do not write history checkpoints; selection travels
// inside the snapshots of the mutations around it.

// SelectOnly makes the given layer the sole selection and anchors range
// selection at its position.
func (e *Engine) SelectOnly(lid layer.ID) error {
	return e.run(func() error {
		idx, err := e.reg.IndexOf(lid)
		if err != nil {
			return opErrID("selectOnly", lid, err)
		}
		e.sel.SelectOnly(lid, idx)
		e.selectionChanged()
		return nil
	})
}

// ToggleSelect flips the given layer in or out of the selection, moving
// the range anchor to its position. It reports whether the layer is
// selected afterward.
func (e *Engine) ToggleSelect(lid layer.ID) (bool, error) {
	var selected bool
	err := e.run(func() error {
		idx, err := e.reg.IndexOf(lid)
		if err != nil {
			return opErrID("toggle", lid, err)
		}
		selected = e.sel.Toggle(lid, idx)
		e.selectionChanged()
		return nil
	})
	return selected, err
}

// SelectRange selects every layer between the range anchor and toIndex
// inclusive, in stacking order. Without an anchor it behaves like
// selecting the layer at toIndex alone. The anchor stays where it was so
// a follow-up range re-grows from the same spot.
func (e *Engine) SelectRange(toIndex int) error {
	return e.run(func() error {
		rec, err := e.reg.At(toIndex)
		if err != nil {
			return opErrIndex("selectRange", toIndex, err)
		}

		anchor := e.sel.Anchor()
		if anchor == selection.NoAnchor || anchor >= e.reg.Len() {
			e.sel.SelectOnly(rec.ID, toIndex)
			e.selectionChanged()
			return nil
		}

		lo, hi := anchor, toIndex
		if lo > hi {
			lo, hi = hi, lo
		}
		ids := make([]layer.ID, 0, hi-lo+1)
		for i := lo; i <= hi; i++ {
			r, err := e.reg.At(i)
			if err != nil {
				break
			}
			ids = append(ids, r.ID)
		}
		e.sel.Replace(ids, anchor)
		e.selectionChanged()
		return nil
	})
}

// ClearSelection empties the selection.
func (e *Engine) ClearSelection() {
	_ = e.run(func() error {
		if e.sel.Count() == 0 && e.sel.Anchor() == selection.NoAnchor {
			return nil
		}
		e.sel.Clear()
		e.selectionChanged()
		return nil
	})
}

// SelectedIDs returns the selected layer ids in the order they were
// clicked.
func (e *Engine) SelectedIDs() []layer.ID {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.sel.IDs()
}

// IsSelected reports whether the given layer is selected.
func (e *Engine) IsSelected(lid layer.ID) bool {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.sel.Contains(lid)
}

// SelectionCount returns the number of selected layers.
func (e *Engine) SelectionCount() int {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.sel.Count()
}

// SelectionAnchor returns the registry position range selection grows
// from, or selection.NoAnchor when nothing has been clicked.
func (e *Engine) SelectionAnchor() int {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.sel.Anchor()
}
