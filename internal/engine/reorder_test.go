package engine

import (
	"errors"
	"testing"
)

func TestMoveDownSwapsWithNextBack(t *testing.T) {
	eng, scene := newTestEngine(t)
	addRect(t, eng, "c")
	addRect(t, eng, "b")
	addRect(t, eng, "a")

	if err := eng.MoveDown(0); err != nil {
		t.Fatalf("MoveDown(0) error = %v", err)
	}
	want := []string{"b", "a", "c"}
	if got := orderOf(eng); !equalStrings(got, want) {
		t.Errorf("order = %v, want %v", got, want)
	}
	checkSceneSync(t, eng, scene)
}

func TestMoveBoundariesAreNoops(t *testing.T) {
	eng, scene := newTestEngine(t)
	addRect(t, eng, "c")
	addRect(t, eng, "b")
	addRect(t, eng, "a")
	before := orderOf(eng)
	histLen := len(eng.HistoryDescriptions())

	tests := []struct {
		name string
		move func() error
	}{
		{"up at front", func() error { return eng.MoveUp(0) }},
		{"down at back", func() error { return eng.MoveDown(2) }},
		{"top at front", func() error { return eng.MoveToTop(0) }},
		{"bottom at back", func() error { return eng.MoveToBottom(2) }},
		{"reorder onto itself", func() error { return eng.ReorderLayers(1, 1) }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := tt.move(); err != nil {
				t.Fatalf("move error = %v", err)
			}
			if got := orderOf(eng); !equalStrings(got, before) {
				t.Errorf("order = %v, want unchanged %v", got, before)
			}
			if got := len(eng.HistoryDescriptions()); got != histLen {
				t.Errorf("history length = %d, want %d (no checkpoint for a no-op)", got, histLen)
			}
		})
	}
	checkSceneSync(t, eng, scene)
}

func TestReorderLayersClampsDestination(t *testing.T) {
	eng, scene := newTestEngine(t)
	addRect(t, eng, "c")
	addRect(t, eng, "b")
	addRect(t, eng, "a")

	if err := eng.ReorderLayers(0, 99); err != nil {
		t.Fatalf("ReorderLayers(0, 99) error = %v", err)
	}
	want := []string{"b", "c", "a"}
	if got := orderOf(eng); !equalStrings(got, want) {
		t.Errorf("order = %v, want %v", got, want)
	}
	checkSceneSync(t, eng, scene)
}

func TestReorderLayersBadSource(t *testing.T) {
	eng, _ := newTestEngine(t)
	addRect(t, eng, "a")

	if err := eng.ReorderLayers(5, 0); !errors.Is(err, ErrIndexOutOfRange) {
		t.Fatalf("ReorderLayers(5, 0) error = %v, want ErrIndexOutOfRange", err)
	}
}

func TestMoveRoundTripViaUndo(t *testing.T) {
	eng, _ := newTestEngine(t)
	addRect(t, eng, "d")
	addRect(t, eng, "c")
	addRect(t, eng, "b")
	addRect(t, eng, "a")
	original := orderOf(eng)

	if err := eng.MoveToTop(2); err != nil {
		t.Fatalf("MoveToTop(2) error = %v", err)
	}
	if err := eng.MoveToBottom(0); err != nil {
		t.Fatalf("MoveToBottom(0) error = %v", err)
	}
	for i := 0; i < 2; i++ {
		if ok, err := eng.Undo(); err != nil || !ok {
			t.Fatalf("Undo() = %v, %v, want true, nil", ok, err)
		}
	}
	if got := orderOf(eng); !equalStrings(got, original) {
		t.Errorf("order after undoing both moves = %v, want %v", got, original)
	}
}

func TestMoveFollowsSelectionAnchor(t *testing.T) {
	eng, _ := newTestEngine(t)
	addRect(t, eng, "c")
	addRect(t, eng, "b")
	a := addRect(t, eng, "a")

	if err := eng.SelectOnly(a.ID); err != nil {
		t.Fatalf("SelectOnly() error = %v", err)
	}
	if err := eng.MoveToBottom(0); err != nil {
		t.Fatalf("MoveToBottom(0) error = %v", err)
	}
	if got := eng.SelectionAnchor(); got != 2 {
		t.Errorf("SelectionAnchor() = %d, want 2 (anchor follows the moved layer)", got)
	}
	if !eng.IsSelected(a.ID) {
		t.Error("moved layer lost selection")
	}
}
