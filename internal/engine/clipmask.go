package engine

import (
	"fmt"

	"github.com/dshills/strata/internal/engine/layer"
	"github.com/dshills/strata/internal/event"
	"github.com/dshills/strata/internal/render"
)

// CreateClipMask binds the layer immediately in front of targetIndex as
// the clip mask of the layer at targetIndex. The mask keeps its node in
// the scene as the clip source but stops rendering and responding to
// input. The clip geometry is stored relative to the target's transform
// so the pair moves together.
func (e *Engine) CreateClipMask(targetIndex int) error {
	return e.run(func() error { return e.createClipMask(targetIndex) })
}

func (e *Engine) createClipMask(targetIndex int) error {
	const op = "createClipMask"

	if targetIndex <= 0 {
		return opErrIndex(op, targetIndex, fmt.Errorf("%w: no layer in front of target", ErrInvalidOperation))
	}
	target, err := e.reg.At(targetIndex)
	if err != nil {
		return opErrIndex(op, targetIndex, err)
	}
	mask, err := e.reg.At(targetIndex - 1)
	if err != nil {
		return opErrIndex(op, targetIndex-1, err)
	}
	if target.ClipMaskID != layer.None {
		return invalidOp(op, string(target.ID), "target already has a clip mask")
	}
	if err := maskEligible(mask); err != nil {
		return opErrID(op, mask.ID, err)
	}

	clip := &render.ClipDescriptor{
		Shape:    clipShape(mask),
		Size:     mask.Size,
		Relative: mask.Transform.RelativeTo(target.Transform),
	}

	// Style is snapshotted on first bind only; a shared mask keeps the
	// snapshot from when it originally became a mask.
	saved := mask.SavedMaskStyle
	if !mask.IsClipMask {
		saved = &layer.MaskStyle{Paint: mask.Paint, Opacity: mask.Opacity}
	}

	// Renderer first. Any failure unwinds the renderer steps already
	// taken and leaves the model untouched.
	if err := e.scene.SetClip(target.Node, clip); err != nil {
		return opErrID(op, target.ID, err)
	}
	if err := e.scene.SetOpacity(mask.Node, 0); err != nil {
		e.rollbackClip(target, mask, false)
		return opErrID(op, mask.ID, err)
	}
	if err := e.scene.SetLocked(mask.Node, true); err != nil {
		e.rollbackClip(target, mask, true)
		return opErrID(op, mask.ID, err)
	}

	target.ClipMaskID = mask.ID
	mask.IsClipMask = true
	mask.SavedMaskStyle = saved

	e.log.Debug("clip mask bound", "target", target.ID, "mask", mask.ID)
	e.queue(event.TopicMaskBound, event.MaskBound{TargetID: target.ID, MaskID: mask.ID})
	e.checkpoint("Create clip mask")
	return nil
}

func (e *Engine) rollbackClip(target, mask *layer.Record, undoOpacity bool) {
	if err := e.scene.SetClip(target.Node, nil); err != nil {
		e.log.Error("clip rollback failed", "target", target.ID, "error", err)
	}
	if undoOpacity {
		if err := e.scene.SetOpacity(mask.Node, mask.Opacity); err != nil {
			e.log.Error("mask opacity rollback failed", "mask", mask.ID, "error", err)
		}
	}
}

// RemoveClipMask unbinds the clip mask from the given masked layer. When
// no other layer still uses the mask, its saved style comes back and it
// renders normally again; a mask still in use elsewhere stays hidden.
func (e *Engine) RemoveClipMask(lid layer.ID) error {
	return e.run(func() error { return e.removeClipMask(lid) })
}

func (e *Engine) removeClipMask(lid layer.ID) error {
	const op = "removeClipMask"

	target, err := e.reg.Get(lid)
	if err != nil {
		return opErrID(op, lid, err)
	}
	if target.ClipMaskID == layer.None {
		return invalidOp(op, string(lid), "layer has no clip mask")
	}
	if err := e.unbindClip(op, target); err != nil {
		return err
	}
	e.checkpoint("Release clip mask")
	return nil
}

// unbindClip clears the clip on a masked record and, when the mask falls
// out of use, restores it. Callers write the checkpoint.
func (e *Engine) unbindClip(op string, target *layer.Record) error {
	maskID := target.ClipMaskID
	if err := e.scene.SetClip(target.Node, nil); err != nil {
		return opErrID(op, target.ID, err)
	}
	target.ClipMaskID = layer.None

	restored := false
	if len(e.reg.MaskReferents(maskID)) == 0 {
		if mask, err := e.reg.Get(maskID); err == nil {
			e.restoreMaskStyle(mask)
			restored = true
		}
	}

	e.log.Debug("clip mask freed", "target", target.ID, "mask", maskID, "restored", restored)
	e.queue(event.TopicMaskFreed, event.MaskFreed{
		TargetID:      target.ID,
		MaskID:        maskID,
		StyleRestored: restored,
	})
	return nil
}

// restoreMaskStyle returns a freed mask to its appearance at bind time
// and re-enables interaction. Renderer failures here are logged rather
// than unwound; the unbind itself has already committed.
func (e *Engine) restoreMaskStyle(mask *layer.Record) {
	if saved := mask.SavedMaskStyle; saved != nil {
		if err := e.scene.SetPaint(mask.Node, saved.Paint); err != nil {
			e.log.Warn("mask paint restore failed", "mask", mask.ID, "error", err)
		}
		if err := e.scene.SetOpacity(mask.Node, saved.Opacity); err != nil {
			e.log.Warn("mask opacity restore failed", "mask", mask.ID, "error", err)
		}
		mask.Paint = saved.Paint
		mask.Opacity = saved.Opacity
	}
	if err := e.scene.SetLocked(mask.Node, mask.Locked); err != nil {
		e.log.Warn("mask lock restore failed", "mask", mask.ID, "error", err)
	}
	mask.IsClipMask = false
	mask.SavedMaskStyle = nil
}

// maskEligible reports whether a record can serve as a clip source.
// Closed shapes and text outlines can; open paths, images, and groups
// cannot.
func maskEligible(rec *layer.Record) error {
	switch rec.Kind {
	case layer.KindShape:
		if !rec.Shape.ClosedPath() {
			return fmt.Errorf("%w: open shape %q", ErrUnsupportedShape, rec.Shape)
		}
		return nil
	case layer.KindText:
		return nil
	default:
		return fmt.Errorf("%w: %s layer", ErrUnsupportedShape, rec.Kind)
	}
}

func clipShape(rec *layer.Record) string {
	if rec.Kind == layer.KindText {
		return render.KindText
	}
	return string(rec.Shape)
}
