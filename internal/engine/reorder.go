package engine

import (
	"fmt"

	"github.com/dshills/strata/internal/event"
	"github.com/dshills/strata/internal/render"
)

// ReorderLayers moves the layer at from to position to. The destination
// is clamped to the valid range; a move that lands where it started is a
// silent no-op. An out-of-range from is an error.
func (e *Engine) ReorderLayers(from, to int) error {
	return e.run(func() error {
		return e.moveTo(from, to, "reorderLayers", e.scene.SetZOrder)
	})
}

// MoveUp moves the layer at index one step toward the front. At the
// front it does nothing.
func (e *Engine) MoveUp(index int) error {
	return e.run(func() error {
		return e.moveTo(index, index-1, "moveUp", func(n render.NodeID, _ int) error {
			return e.scene.BringForward(n)
		})
	})
}

// MoveDown moves the layer at index one step toward the back. At the
// back it does nothing.
func (e *Engine) MoveDown(index int) error {
	return e.run(func() error {
		return e.moveTo(index, index+1, "moveDown", func(n render.NodeID, _ int) error {
			return e.scene.SendBackward(n)
		})
	})
}

// MoveToTop moves the layer at index to the front of the stacking order.
func (e *Engine) MoveToTop(index int) error {
	return e.run(func() error {
		return e.moveTo(index, 0, "moveToTop", func(n render.NodeID, _ int) error {
			return e.scene.BringToFront(n)
		})
	})
}

// MoveToBottom moves the layer at index to the back of the stacking
// order.
func (e *Engine) MoveToBottom(index int) error {
	return e.run(func() error {
		return e.moveTo(index, e.reg.Len()-1, "moveToBottom", func(n render.NodeID, _ int) error {
			return e.scene.SendToBack(n)
		})
	})
}

func (e *Engine) moveTo(from, to int, op string, sceneMove func(render.NodeID, int) error) error {
	rec, err := e.reg.At(from)
	if err != nil {
		return opErrIndex(op, from, err)
	}
	if to < 0 {
		to = 0
	}
	if last := e.reg.Len() - 1; to > last {
		to = last
	}
	if to == from {
		return nil
	}

	if err := sceneMove(rec.Node, to); err != nil {
		return opErrID(op, rec.ID, err)
	}
	e.reg.Move(from, to)
	e.sel.AdjustForMove(from, to)

	e.log.Debug("layer reordered", "id", rec.ID, "from", from, "to", to)
	e.queue(event.TopicLayerReordered, event.LayerReordered{ID: rec.ID, From: from, To: to})
	e.checkpoint(fmt.Sprintf("Reorder %s", rec.Name))
	return nil
}
