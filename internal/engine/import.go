package engine

import (
	"encoding/json"
	"fmt"

	"github.com/dshills/strata/internal/engine/layer"
	"github.com/dshills/strata/internal/engine/style"
	"github.com/dshills/strata/internal/event"
	"github.com/dshills/strata/internal/render"
)

// ImportState replaces the whole document with a previously exported
// one. Records, order, clip relations, and the selection come back as
// exported; renderer nodes are rebuilt from scratch, so documents move
// freely between adapters. The undo ledger restarts at a single
// baseline entry, the way a freshly opened file would.
func (e *Engine) ImportState(data []byte) error {
	var doc DocumentState
	if err := json.Unmarshal(data, &doc); err != nil {
		return opErr("importState", "", fmt.Errorf("%w: %v", ErrInvalidOperation, err))
	}
	recs, err := recordsFromState(doc.Layers)
	if err != nil {
		return opErr("importState", "", fmt.Errorf("%w: %v", ErrInvalidOperation, err))
	}

	return e.run(func() error {
		if e.gesture != nil {
			return opErr("importState", "", fmt.Errorf("%w: gesture in progress", ErrInvalidOperation))
		}
		if err := e.scene.RestoreScene(nil); err != nil {
			return opErr("importState", "", err)
		}
		if err := e.materializeSet(recs); err != nil {
			return opErr("importState", "", err)
		}
		for i, rec := range recs {
			if err := e.scene.SetZOrder(rec.Node, i); err != nil {
				return opErrID("importState", rec.ID, err)
			}
		}
		e.reg.Restore(recs)

		ids := make([]layer.ID, 0, len(doc.Selection.IDs))
		for _, s := range doc.Selection.IDs {
			if e.reg.Has(layer.ID(s)) {
				ids = append(ids, layer.ID(s))
			}
		}
		anchor := doc.Selection.Anchor
		if anchor < 0 || anchor >= e.reg.Len() {
			anchor = -1
		}
		e.sel.Replace(ids, anchor)
		e.syncProxy()

		e.hist.Clear()
		e.record("Open document")
		e.log.Info("document imported", "layers", len(recs))
		e.queue(event.TopicDocumentReset, event.DocumentReset{Reason: "import"})
		return nil
	})
}

// recordsFromState rebuilds registry records from exported layer states,
// rejecting malformed documents before any engine state is touched.
func recordsFromState(states []LayerState) ([]*layer.Record, error) {
	seen := make(map[layer.ID]bool)
	recs := make([]*layer.Record, len(states))
	for i, ls := range states {
		rec, err := recordFromState(ls, seen)
		if err != nil {
			return nil, err
		}
		recs[i] = rec
	}
	return recs, nil
}

func recordFromState(ls LayerState, seen map[layer.ID]bool) (*layer.Record, error) {
	if ls.ID == "" {
		return nil, fmt.Errorf("layer %q has no id", ls.Name)
	}
	lid := layer.ID(ls.ID)
	if seen[lid] {
		return nil, fmt.Errorf("duplicate layer id %q", ls.ID)
	}
	seen[lid] = true

	kind, err := layer.ParseKind(ls.Kind)
	if err != nil {
		return nil, fmt.Errorf("layer %q: %w", ls.ID, err)
	}
	blend, err := style.ParseBlendMode(ls.Blend)
	if err != nil {
		return nil, fmt.Errorf("layer %q: %w", ls.ID, err)
	}
	paint, err := style.Paint{Fill: ls.Fill, Stroke: ls.Stroke, StrokeWidth: ls.StrokeW}.Normalize()
	if err != nil {
		return nil, fmt.Errorf("layer %q: %w", ls.ID, err)
	}

	rec := &layer.Record{
		ID:         lid,
		Name:       ls.Name,
		Kind:       kind,
		Shape:      layer.Shape(ls.Shape),
		Text:       ls.Text,
		Source:     ls.Source,
		Size:       ls.Size,
		Transform:  ls.Transform,
		Paint:      paint,
		Opacity:    min(max(ls.Opacity, 0), 1),
		Blend:      blend,
		Visible:    ls.Visible,
		Locked:     ls.Locked,
		Node:       render.NoNode,
		ClipMaskID: layer.ID(ls.ClipMaskID),
		IsClipMask: ls.IsClipMask,
	}
	if ls.MaskStyle != nil {
		rec.SavedMaskStyle = &layer.MaskStyle{
			Paint: style.Paint{
				Fill:        ls.MaskStyle.Fill,
				Stroke:      ls.MaskStyle.Stroke,
				StrokeWidth: ls.MaskStyle.StrokeWidth,
			},
			Opacity: ls.MaskStyle.Opacity,
		}
	}

	if kind == layer.KindGroup {
		if len(ls.Children) == 0 {
			return nil, fmt.Errorf("group %q has no members", ls.ID)
		}
		rec.Children = make([]*layer.Record, len(ls.Children))
		for i, child := range ls.Children {
			c, err := recordFromState(child, seen)
			if err != nil {
				return nil, err
			}
			rec.Children[i] = c
		}
	} else if len(ls.Children) > 0 {
		return nil, fmt.Errorf("layer %q carries members but is not a group", ls.ID)
	}
	return rec, nil
}
