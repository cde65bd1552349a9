package engine

import (
	"github.com/dshills/strata/internal/engine/history"
	"github.com/dshills/strata/internal/event"
)

// Undo steps back one checkpoint, restoring registry, selection, and
// scene. It returns false with a nil error when already at the oldest
// retained state.
func (e *Engine) Undo() (bool, error) {
	var applied bool
	err := e.run(func() error {
		if e.gesture != nil {
			return invalidOp("undo", "", "gesture in progress")
		}
		entry, ok := e.hist.Undo()
		if !ok {
			return nil
		}
		if err := e.applySnapshot(entry, "undo"); err != nil {
			e.hist.Redo()
			return err
		}
		applied = true
		return nil
	})
	return applied, err
}

// Redo steps forward one checkpoint. It returns false with a nil error
// when already at the newest state.
func (e *Engine) Redo() (bool, error) {
	var applied bool
	err := e.run(func() error {
		if e.gesture != nil {
			return invalidOp("redo", "", "gesture in progress")
		}
		entry, ok := e.hist.Redo()
		if !ok {
			return nil
		}
		if err := e.applySnapshot(entry, "redo"); err != nil {
			e.hist.Undo()
			return err
		}
		applied = true
		return nil
	})
	return applied, err
}

// applySnapshot swaps a history entry in as the live state. The applying
// flag keeps the restore itself from recording new checkpoints.
func (e *Engine) applySnapshot(entry *history.Entry, direction string) error {
	e.applying = true
	defer func() { e.applying = false }()

	if err := e.scene.RestoreScene(entry.Scene); err != nil {
		return opErr(direction, entry.Description, err)
	}
	e.reg.Restore(entry.Layers)
	e.sel.Restore(entry.Selection)
	e.syncProxy()

	e.log.Debug("history applied", "direction", direction, "entry", entry.Description)
	e.queue(event.TopicHistoryApplied, event.HistoryApplied{
		Description: entry.Description,
		Direction:   direction,
	})
	e.queue(event.TopicSelectionChanged, event.SelectionChanged{
		IDs:    e.sel.IDs(),
		Anchor: e.sel.Anchor(),
	})
	return nil
}

// CanUndo reports whether an undo would change state.
func (e *Engine) CanUndo() bool {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.hist.CanUndo()
}

// CanRedo reports whether a redo would change state.
func (e *Engine) CanRedo() bool {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.hist.CanRedo()
}

// HistoryPosition returns the index of the currently applied checkpoint.
func (e *Engine) HistoryPosition() int {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.hist.Position()
}

// HistoryDescriptions returns the retained checkpoint descriptions,
// oldest first.
func (e *Engine) HistoryDescriptions() []string {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.hist.Descriptions()
}

// BeginGesture opens a coalescing window. Mutations inside the window
// write no individual checkpoints; the outermost EndGesture records one
// checkpoint for the whole gesture if anything changed. Begins nest.
func (e *Engine) BeginGesture(desc string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.gesture == nil {
		e.gesture = &gestureState{desc: desc}
	}
	e.gesture.depth++
}

// EndGesture closes the innermost gesture window.
func (e *Engine) EndGesture() error {
	return e.run(func() error {
		if e.gesture == nil {
			return invalidOp("endGesture", "", "no gesture in progress")
		}
		e.gesture.depth--
		if e.gesture.depth > 0 {
			return nil
		}
		g := e.gesture
		e.gesture = nil
		if g.dirty {
			e.record(g.desc)
		}
		return nil
	})
}

// InGesture reports whether a gesture window is open.
func (e *Engine) InGesture() bool {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.gesture != nil
}
