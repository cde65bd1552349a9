package engine

import (
	"errors"
	"testing"

	"github.com/dshills/strata/internal/engine/layer"
	"github.com/dshills/strata/internal/engine/selection"
)

func TestSelectOnly(t *testing.T) {
	eng, _ := newTestEngine(t)
	addRect(t, eng, "b")
	addRect(t, eng, "a")
	b, _ := eng.LayerAt(1)

	if err := eng.SelectOnly(b.ID); err != nil {
		t.Fatalf("SelectOnly() error = %v", err)
	}
	if got := eng.SelectedIDs(); len(got) != 1 || got[0] != b.ID {
		t.Errorf("SelectedIDs() = %v, want [%s]", got, b.ID)
	}
	if got := eng.SelectionAnchor(); got != 1 {
		t.Errorf("SelectionAnchor() = %d, want 1", got)
	}

	if err := eng.SelectOnly("ghost"); !errors.Is(err, ErrNotFound) {
		t.Errorf("SelectOnly(ghost) error = %v, want ErrNotFound", err)
	}
}

func TestToggleSelect(t *testing.T) {
	eng, _ := newTestEngine(t)
	b := addRect(t, eng, "b")
	a := addRect(t, eng, "a")

	if err := eng.SelectOnly(a.ID); err != nil {
		t.Fatalf("SelectOnly() error = %v", err)
	}
	on, err := eng.ToggleSelect(b.ID)
	if err != nil {
		t.Fatalf("ToggleSelect() error = %v", err)
	}
	if !on {
		t.Error("ToggleSelect() = false, want true after adding")
	}
	// Click order, not stacking order.
	want := []layer.ID{a.ID, b.ID}
	got := eng.SelectedIDs()
	if len(got) != 2 || got[0] != want[0] || got[1] != want[1] {
		t.Errorf("SelectedIDs() = %v, want %v", got, want)
	}
	if anchor := eng.SelectionAnchor(); anchor != 1 {
		t.Errorf("SelectionAnchor() = %d, want 1 (the toggled layer)", anchor)
	}

	on, err = eng.ToggleSelect(b.ID)
	if err != nil {
		t.Fatalf("ToggleSelect() error = %v", err)
	}
	if on {
		t.Error("ToggleSelect() = true, want false after removing")
	}
	if got := eng.SelectionCount(); got != 1 {
		t.Errorf("SelectionCount() = %d, want 1", got)
	}
}

func TestSelectRange(t *testing.T) {
	eng, _ := newTestEngine(t)
	for _, name := range []string{"e", "d", "c", "b", "a"} {
		addRect(t, eng, name)
	}
	b, _ := eng.LayerAt(1)

	if err := eng.SelectOnly(b.ID); err != nil {
		t.Fatalf("SelectOnly() error = %v", err)
	}
	if err := eng.SelectRange(3); err != nil {
		t.Fatalf("SelectRange(3) error = %v", err)
	}

	names := make([]string, 0, 3)
	for _, lid := range eng.SelectedIDs() {
		rec, _ := eng.Layer(lid)
		names = append(names, rec.Name)
	}
	if want := []string{"b", "c", "d"}; !equalStrings(names, want) {
		t.Errorf("selected = %v, want %v", names, want)
	}
	if got := eng.SelectionAnchor(); got != 1 {
		t.Errorf("SelectionAnchor() = %d, want 1 (range keeps its anchor)", got)
	}

	// A second range replaces, never unions.
	if err := eng.SelectRange(0); err != nil {
		t.Fatalf("SelectRange(0) error = %v", err)
	}
	if got := eng.SelectionCount(); got != 2 {
		t.Errorf("SelectionCount() = %d, want 2", got)
	}
}

func TestSelectRangeWithoutAnchor(t *testing.T) {
	eng, _ := newTestEngine(t)
	addRect(t, eng, "b")
	addRect(t, eng, "a")
	eng.ClearSelection()

	if err := eng.SelectRange(1); err != nil {
		t.Fatalf("SelectRange(1) error = %v", err)
	}
	if got := eng.SelectionCount(); got != 1 {
		t.Errorf("SelectionCount() = %d, want 1 (degenerate range)", got)
	}
	if got := eng.SelectionAnchor(); got != 1 {
		t.Errorf("SelectionAnchor() = %d, want 1", got)
	}
}

func TestSelectRangeBadIndex(t *testing.T) {
	eng, _ := newTestEngine(t)
	addRect(t, eng, "a")
	if err := eng.SelectRange(7); !errors.Is(err, ErrIndexOutOfRange) {
		t.Fatalf("SelectRange(7) error = %v, want ErrIndexOutOfRange", err)
	}
}

func TestSelectionProxyLifecycle(t *testing.T) {
	eng, scene := newTestEngine(t)
	b := addRect(t, eng, "b")
	a := addRect(t, eng, "a")

	if err := eng.SelectOnly(a.ID); err != nil {
		t.Fatalf("SelectOnly() error = %v", err)
	}
	if proxy := scene.Proxy(); proxy != nil {
		t.Errorf("Proxy() = %v with one layer selected, want nil", proxy)
	}

	if _, err := eng.ToggleSelect(b.ID); err != nil {
		t.Fatalf("ToggleSelect() error = %v", err)
	}
	proxy := scene.Proxy()
	if len(proxy) != 2 {
		t.Fatalf("Proxy() spans %d nodes, want 2", len(proxy))
	}
	aRec, _ := eng.Layer(a.ID)
	bRec, _ := eng.Layer(b.ID)
	if proxy[0] != aRec.Node || proxy[1] != bRec.Node {
		t.Errorf("Proxy() = %v, want [%d %d] in click order", proxy, aRec.Node, bRec.Node)
	}

	if _, err := eng.ToggleSelect(b.ID); err != nil {
		t.Fatalf("ToggleSelect() error = %v", err)
	}
	if proxy := scene.Proxy(); proxy != nil {
		t.Errorf("Proxy() = %v after dropping to one, want nil", proxy)
	}
}

func TestRemoveClearsAnchoredSelection(t *testing.T) {
	eng, _ := newTestEngine(t)
	addRect(t, eng, "b")
	a := addRect(t, eng, "a")

	if err := eng.SelectOnly(a.ID); err != nil {
		t.Fatalf("SelectOnly() error = %v", err)
	}
	if err := eng.RemoveLayer(a.ID); err != nil {
		t.Fatalf("RemoveLayer() error = %v", err)
	}
	if got := eng.SelectionCount(); got != 0 {
		t.Errorf("SelectionCount() = %d, want 0", got)
	}
	if got := eng.SelectionAnchor(); got != selection.NoAnchor {
		t.Errorf("SelectionAnchor() = %d, want NoAnchor", got)
	}
}

func TestRemoveAheadOfAnchorShiftsIt(t *testing.T) {
	eng, _ := newTestEngine(t)
	c := addRect(t, eng, "c")
	addRect(t, eng, "b")
	a := addRect(t, eng, "a")

	if err := eng.SelectOnly(c.ID); err != nil {
		t.Fatalf("SelectOnly() error = %v", err)
	}
	if err := eng.RemoveLayer(a.ID); err != nil {
		t.Fatalf("RemoveLayer() error = %v", err)
	}
	if got := eng.SelectionAnchor(); got != 1 {
		t.Errorf("SelectionAnchor() = %d, want 1 (shifted up by the removal)", got)
	}
	if !eng.IsSelected(c.ID) {
		t.Error("selection lost a surviving layer")
	}
}
