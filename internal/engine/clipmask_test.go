package engine

import (
	"errors"
	"math"
	"testing"

	"github.com/dshills/strata/internal/engine/geom"
	"github.com/dshills/strata/internal/engine/layer"
	"github.com/dshills/strata/internal/engine/style"
)

// maskFixture builds [x, mask, target] front-to-back and returns the
// mask and target records.
func maskFixture(t *testing.T, eng *Engine) (mask, target layer.Record) {
	t.Helper()
	target = mustAdd(t, eng, LayerSpec{
		Name:      "photo",
		Kind:      layer.KindImage,
		Source:    "assets/photo.png",
		Size:      geom.Size{Width: 400, Height: 300},
		Transform: geom.Transform{X: 30, Y: 45},
	})
	mask = mustAdd(t, eng, LayerSpec{
		Name:      "window",
		Kind:      layer.KindShape,
		Shape:     layer.ShapeEllipse,
		Size:      geom.Size{Width: 200, Height: 200},
		Transform: geom.Transform{X: 10, Y: 20},
		Paint:     style.Paint{Fill: "#ff0000"},
	})
	mustAdd(t, eng, LayerSpec{Name: "x", Kind: layer.KindShape})
	return mask, target
}

func mustAdd(t *testing.T, eng *Engine, spec LayerSpec) layer.Record {
	t.Helper()
	rec, err := eng.AddLayer(spec)
	if err != nil {
		t.Fatalf("AddLayer(%q) error = %v", spec.Name, err)
	}
	return rec
}

func TestCreateClipMask(t *testing.T) {
	eng, scene := newTestEngine(t)
	mask, target := maskFixture(t, eng)

	if err := eng.CreateClipMask(2); err != nil {
		t.Fatalf("CreateClipMask(2) error = %v", err)
	}

	gotTarget, _ := eng.Layer(target.ID)
	gotMask, _ := eng.Layer(mask.ID)
	if gotTarget.ClipMaskID != mask.ID {
		t.Errorf("target.ClipMaskID = %q, want %q", gotTarget.ClipMaskID, mask.ID)
	}
	if !gotMask.IsClipMask {
		t.Error("mask.IsClipMask = false, want true")
	}
	if gotMask.SavedMaskStyle == nil {
		t.Fatal("mask.SavedMaskStyle = nil, want snapshot")
	}
	if gotMask.SavedMaskStyle.Paint.Fill != "#ff0000" {
		t.Errorf("saved fill = %q, want #ff0000", gotMask.SavedMaskStyle.Paint.Fill)
	}

	maskNode, ok := scene.State(gotMask.Node)
	if !ok {
		t.Fatal("mask node missing from scene")
	}
	if maskNode.Opacity != 0 {
		t.Errorf("mask node opacity = %v, want 0", maskNode.Opacity)
	}
	if !maskNode.Locked {
		t.Error("mask node locked = false, want true")
	}

	targetNode, ok := scene.State(gotTarget.Node)
	if !ok {
		t.Fatal("target node missing from scene")
	}
	if targetNode.Clip == nil {
		t.Fatal("target node clip = nil, want descriptor")
	}
	if targetNode.Clip.Shape != string(layer.ShapeEllipse) {
		t.Errorf("clip shape = %q, want %q", targetNode.Clip.Shape, layer.ShapeEllipse)
	}
	// Mask at (10,20), target at (30,45): the relative offset is the
	// difference expressed in the target's frame.
	if dx, dy := targetNode.Clip.Relative.X, targetNode.Clip.Relative.Y; math.Abs(dx+20) > 1e-9 || math.Abs(dy+25) > 1e-9 {
		t.Errorf("clip relative offset = (%v, %v), want (-20, -25)", dx, dy)
	}
}

func TestCreateClipMaskPreconditions(t *testing.T) {
	eng, _ := newTestEngine(t)
	maskFixture(t, eng)

	if err := eng.CreateClipMask(0); !errors.Is(err, ErrInvalidOperation) {
		t.Errorf("CreateClipMask(0) error = %v, want ErrInvalidOperation", err)
	}
	if err := eng.CreateClipMask(9); err == nil {
		t.Error("CreateClipMask(9) error = nil, want out of range error")
	}

	if err := eng.CreateClipMask(2); err != nil {
		t.Fatalf("CreateClipMask(2) error = %v", err)
	}
	if err := eng.CreateClipMask(2); !errors.Is(err, ErrInvalidOperation) {
		t.Errorf("second CreateClipMask(2) error = %v, want ErrInvalidOperation", err)
	}
}

func TestCreateClipMaskUnsupportedSourceAborts(t *testing.T) {
	eng, scene := newTestEngine(t)
	target := mustAdd(t, eng, LayerSpec{Name: "target", Kind: layer.KindShape})
	mask := mustAdd(t, eng, LayerSpec{Name: "pic", Kind: layer.KindImage, Source: "a.png"})
	histLen := len(eng.HistoryDescriptions())

	err := eng.CreateClipMask(1)
	if !errors.Is(err, ErrUnsupportedShape) {
		t.Fatalf("CreateClipMask() error = %v, want ErrUnsupportedShape", err)
	}

	gotTarget, _ := eng.Layer(target.ID)
	gotMask, _ := eng.Layer(mask.ID)
	if gotTarget.ClipMaskID != layer.None {
		t.Error("failed bind left ClipMaskID set")
	}
	if gotMask.IsClipMask || gotMask.SavedMaskStyle != nil {
		t.Error("failed bind mutated the mask record")
	}
	ns, _ := scene.State(gotTarget.Node)
	if ns.Clip != nil {
		t.Error("failed bind left a clip on the target node")
	}
	if got := len(eng.HistoryDescriptions()); got != histLen {
		t.Errorf("history length = %d, want %d", got, histLen)
	}
}

func TestCreateClipMaskOpenShapeUnsupported(t *testing.T) {
	eng, _ := newTestEngine(t)
	mustAdd(t, eng, LayerSpec{Name: "target", Kind: layer.KindShape})
	mustAdd(t, eng, LayerSpec{Name: "line", Kind: layer.KindShape, Shape: layer.ShapeLine})

	if err := eng.CreateClipMask(1); !errors.Is(err, ErrUnsupportedShape) {
		t.Fatalf("CreateClipMask() error = %v, want ErrUnsupportedShape", err)
	}
}

func TestCreateClipMaskTextSource(t *testing.T) {
	eng, scene := newTestEngine(t)
	mustAdd(t, eng, LayerSpec{Name: "photo", Kind: layer.KindImage, Source: "p.png"})
	mustAdd(t, eng, LayerSpec{Name: "caption", Kind: layer.KindText, Text: "HELLO"})

	if err := eng.CreateClipMask(1); err != nil {
		t.Fatalf("CreateClipMask() error = %v", err)
	}
	target, _ := eng.LayerAt(1)
	ns, _ := scene.State(target.Node)
	if ns.Clip == nil || ns.Clip.Shape != "text" {
		t.Errorf("clip = %+v, want text-shaped descriptor", ns.Clip)
	}
}

func TestRemoveClipMaskRestoresStyle(t *testing.T) {
	eng, scene := newTestEngine(t)
	mask, target := maskFixture(t, eng)
	if err := eng.CreateClipMask(2); err != nil {
		t.Fatalf("CreateClipMask(2) error = %v", err)
	}

	if err := eng.RemoveClipMask(target.ID); err != nil {
		t.Fatalf("RemoveClipMask() error = %v", err)
	}

	gotTarget, _ := eng.Layer(target.ID)
	gotMask, _ := eng.Layer(mask.ID)
	if gotTarget.ClipMaskID != layer.None {
		t.Error("ClipMaskID still set after unbind")
	}
	if gotMask.IsClipMask {
		t.Error("IsClipMask still true after last unbind")
	}
	if gotMask.SavedMaskStyle != nil {
		t.Error("SavedMaskStyle not cleared after restore")
	}

	ns, _ := scene.State(gotMask.Node)
	if ns.Opacity != 1 {
		t.Errorf("restored mask opacity = %v, want 1", ns.Opacity)
	}
	if ns.Locked {
		t.Error("restored mask still locked")
	}
	tns, _ := scene.State(gotTarget.Node)
	if tns.Clip != nil {
		t.Error("target still clipped after unbind")
	}
}

func TestRemoveClipMaskWithoutBind(t *testing.T) {
	eng, _ := newTestEngine(t)
	rec := addRect(t, eng, "a")
	if err := eng.RemoveClipMask(rec.ID); !errors.Is(err, ErrInvalidOperation) {
		t.Fatalf("RemoveClipMask() error = %v, want ErrInvalidOperation", err)
	}
}

// sharedMaskFixture binds one ellipse as the mask of two targets and
// returns mask, first target, second target.
func sharedMaskFixture(t *testing.T, eng *Engine) (mask, t1, t2 layer.Record) {
	t.Helper()
	t2 = mustAdd(t, eng, LayerSpec{Name: "t2", Kind: layer.KindImage, Source: "b.png"})
	t1 = mustAdd(t, eng, LayerSpec{Name: "t1", Kind: layer.KindImage, Source: "a.png"})
	mask = mustAdd(t, eng, LayerSpec{Name: "m", Kind: layer.KindShape, Shape: layer.ShapeEllipse})

	// [m, t1, t2]: bind m to t1, slide m in front of t2, bind again.
	if err := eng.CreateClipMask(1); err != nil {
		t.Fatalf("CreateClipMask(1) error = %v", err)
	}
	if err := eng.ReorderLayers(0, 1); err != nil {
		t.Fatalf("ReorderLayers(0, 1) error = %v", err)
	}
	if err := eng.CreateClipMask(2); err != nil {
		t.Fatalf("CreateClipMask(2) error = %v", err)
	}
	return mask, t1, t2
}

func TestSharedMaskStaysHiddenUntilLastUnbind(t *testing.T) {
	eng, scene := newTestEngine(t)
	mask, t1, t2 := sharedMaskFixture(t, eng)

	if err := eng.RemoveClipMask(t1.ID); err != nil {
		t.Fatalf("RemoveClipMask(t1) error = %v", err)
	}
	gotMask, _ := eng.Layer(mask.ID)
	if !gotMask.IsClipMask {
		t.Error("mask released while another target still references it")
	}
	ns, _ := scene.State(gotMask.Node)
	if ns.Opacity != 0 {
		t.Errorf("shared mask opacity = %v, want still 0", ns.Opacity)
	}

	if err := eng.RemoveClipMask(t2.ID); err != nil {
		t.Fatalf("RemoveClipMask(t2) error = %v", err)
	}
	gotMask, _ = eng.Layer(mask.ID)
	if gotMask.IsClipMask {
		t.Error("mask still bound after the last unbind")
	}
	ns, _ = scene.State(gotMask.Node)
	if ns.Opacity != 1 {
		t.Errorf("mask opacity = %v after last unbind, want 1", ns.Opacity)
	}
}

func TestDeleteMaskedLayerCascades(t *testing.T) {
	eng, _ := newTestEngine(t)
	mask, target := maskFixture(t, eng)
	if err := eng.CreateClipMask(2); err != nil {
		t.Fatalf("CreateClipMask(2) error = %v", err)
	}

	if err := eng.RemoveLayer(target.ID); err != nil {
		t.Fatalf("RemoveLayer(target) error = %v", err)
	}
	if eng.LayerCount() != 1 {
		t.Errorf("LayerCount() = %d, want 1 (mask deleted with its target)", eng.LayerCount())
	}
	if _, err := eng.Layer(mask.ID); !errors.Is(err, ErrNotFound) {
		t.Errorf("Layer(mask) error = %v, want ErrNotFound", err)
	}
}

func TestDeleteMaskedLayerSparesSharedMask(t *testing.T) {
	eng, _ := newTestEngine(t)
	mask, t1, _ := sharedMaskFixture(t, eng)

	if err := eng.RemoveLayer(t1.ID); err != nil {
		t.Fatalf("RemoveLayer(t1) error = %v", err)
	}
	if _, err := eng.Layer(mask.ID); err != nil {
		t.Errorf("shared mask deleted with one of its targets: %v", err)
	}
}

func TestDeleteMaskFreesReferents(t *testing.T) {
	eng, scene := newTestEngine(t)
	mask, target := maskFixture(t, eng)
	if err := eng.CreateClipMask(2); err != nil {
		t.Fatalf("CreateClipMask(2) error = %v", err)
	}

	if err := eng.RemoveLayer(mask.ID); err != nil {
		t.Fatalf("RemoveLayer(mask) error = %v", err)
	}
	gotTarget, _ := eng.Layer(target.ID)
	if gotTarget.ClipMaskID != layer.None {
		t.Error("target still references the deleted mask")
	}
	ns, _ := scene.State(gotTarget.Node)
	if ns.Clip != nil {
		t.Error("target node still clipped after mask deletion")
	}
}
