package engine

import (
	"encoding/json"

	"github.com/dshills/strata/internal/engine/geom"
	"github.com/dshills/strata/internal/engine/layer"
	"github.com/dshills/strata/internal/render"
)

// LayerState is the exported view of one layer record. Group children
// appear front-first.
type LayerState struct {
	ID         string          `json:"id"`
	Name       string          `json:"name"`
	Kind       string          `json:"kind"`
	Shape      string          `json:"shape,omitempty"`
	Text       string          `json:"text,omitempty"`
	Source     string          `json:"source,omitempty"`
	Size       geom.Size       `json:"size"`
	Transform  geom.Transform  `json:"transform"`
	Fill       string          `json:"fill,omitempty"`
	Stroke     string          `json:"stroke,omitempty"`
	StrokeW    float64         `json:"strokeWidth,omitempty"`
	Opacity    float64         `json:"opacity"`
	Blend      string          `json:"blend"`
	Visible    bool            `json:"visible"`
	Locked     bool            `json:"locked"`
	Node       render.NodeID   `json:"node"`
	ClipMaskID string          `json:"clipMaskId,omitempty"`
	IsClipMask bool            `json:"isClipMask,omitempty"`
	MaskStyle  *MaskStyleState `json:"maskStyle,omitempty"`
	IsGroup    bool            `json:"isGroup,omitempty"`
	ChildIDs   []string        `json:"childIds,omitempty"`
	Children   []LayerState    `json:"children,omitempty"`
}

// MaskStyleState is the pre-mask style a clip mask carries so releasing
// the mask can restore it.
type MaskStyleState struct {
	Fill        string  `json:"fill,omitempty"`
	Stroke      string  `json:"stroke,omitempty"`
	StrokeWidth float64 `json:"strokeWidth,omitempty"`
	Opacity     float64 `json:"opacity"`
}

// SelectionState is the exported selection, ids in click order.
type SelectionState struct {
	IDs    []string `json:"ids"`
	Anchor int      `json:"anchor"`
}

// HistoryState is the exported history ledger, oldest entry first.
type HistoryState struct {
	Position int      `json:"position"`
	Entries  []string `json:"entries"`
}

// DocumentState is the full exported document: the model, what is
// selected, the retained history, and the renderer's own scene blob.
type DocumentState struct {
	Layers    []LayerState    `json:"layers"`
	Selection SelectionState  `json:"selection"`
	History   HistoryState    `json:"history"`
	Scene     json.RawMessage `json:"scene"`
}

// ExportState serializes the document for inspection or archival.
func (e *Engine) ExportState() ([]byte, error) {
	e.mu.RLock()
	defer e.mu.RUnlock()

	blob, err := e.scene.SerializeScene()
	if err != nil {
		return nil, opErr("exportState", "", err)
	}

	recs := e.reg.Records()
	doc := DocumentState{
		Layers: make([]LayerState, len(recs)),
		Selection: SelectionState{
			IDs:    make([]string, 0, e.sel.Count()),
			Anchor: e.sel.Anchor(),
		},
		History: HistoryState{
			Position: e.hist.Position(),
			Entries:  e.hist.Descriptions(),
		},
		Scene: blob,
	}
	for i, rec := range recs {
		doc.Layers[i] = layerState(rec)
	}
	for _, lid := range e.sel.IDs() {
		doc.Selection.IDs = append(doc.Selection.IDs, string(lid))
	}
	return json.MarshalIndent(doc, "", "  ")
}

func layerState(rec *layer.Record) LayerState {
	ls := LayerState{
		ID:         string(rec.ID),
		Name:       rec.Name,
		Kind:       rec.Kind.String(),
		Shape:      string(rec.Shape),
		Text:       rec.Text,
		Source:     rec.Source,
		Size:       rec.Size,
		Transform:  rec.Transform,
		Fill:       rec.Paint.Fill,
		Stroke:     rec.Paint.Stroke,
		StrokeW:    rec.Paint.StrokeWidth,
		Opacity:    rec.Opacity,
		Blend:      rec.Blend.String(),
		Visible:    rec.Visible,
		Locked:     rec.Locked,
		Node:       rec.Node,
		ClipMaskID: string(rec.ClipMaskID),
		IsClipMask: rec.IsClipMask,
		IsGroup:    rec.IsGroup(),
	}
	if rec.SavedMaskStyle != nil {
		ls.MaskStyle = &MaskStyleState{
			Fill:        rec.SavedMaskStyle.Paint.Fill,
			Stroke:      rec.SavedMaskStyle.Paint.Stroke,
			StrokeWidth: rec.SavedMaskStyle.Paint.StrokeWidth,
			Opacity:     rec.SavedMaskStyle.Opacity,
		}
	}
	if rec.IsGroup() {
		ls.ChildIDs = make([]string, len(rec.Children))
		ls.Children = make([]LayerState, len(rec.Children))
		for i, c := range rec.Children {
			ls.ChildIDs[i] = string(c.ID)
			ls.Children[i] = layerState(c)
		}
	}
	return ls
}
