package history

import (
	"fmt"
	"slices"
	"testing"
)

func entry(desc string) *Entry {
	return &Entry{Description: desc}
}

// pushN records entries named s1..sN on top of a baseline.
func pushN(h *Stack, n int) {
	h.Push(entry("baseline"))
	for i := 1; i <= n; i++ {
		h.Push(entry(fmt.Sprintf("s%d", i)))
	}
}

func TestEmptyStack(t *testing.T) {
	h := New(10)
	if h.CanUndo() || h.CanRedo() {
		t.Error("empty stack reports undo/redo available")
	}
	if _, ok := h.Undo(); ok {
		t.Error("Undo() on empty stack reported ok")
	}
	if _, ok := h.Redo(); ok {
		t.Error("Redo() on empty stack reported ok")
	}
	if h.Current() != nil {
		t.Error("Current() on empty stack is not nil")
	}
	if h.Position() != -1 {
		t.Errorf("Position() = %d, want -1", h.Position())
	}
}

func TestUndoRedoWalk(t *testing.T) {
	h := New(10)
	pushN(h, 3)

	if got := h.Current().Description; got != "s3" {
		t.Fatalf("current = %q, want s3", got)
	}

	e, ok := h.Undo()
	if !ok || e.Description != "s2" {
		t.Fatalf("Undo() = (%v, %v), want s2", e, ok)
	}
	e, ok = h.Undo()
	if !ok || e.Description != "s1" {
		t.Fatalf("Undo() = (%v, %v), want s1", e, ok)
	}

	e, ok = h.Redo()
	if !ok || e.Description != "s2" {
		t.Fatalf("Redo() = (%v, %v), want s2", e, ok)
	}
	e, ok = h.Redo()
	if !ok || e.Description != "s3" {
		t.Fatalf("Redo() = (%v, %v), want s3", e, ok)
	}
	if _, ok := h.Redo(); ok {
		t.Error("Redo() past the newest state reported ok")
	}
}

func TestUndoStopsAtOldestEntry(t *testing.T) {
	h := New(10)
	pushN(h, 1)

	if _, ok := h.Undo(); !ok {
		t.Fatal("first Undo() failed")
	}
	// The cursor now sits on the baseline; there is nothing older.
	if _, ok := h.Undo(); ok {
		t.Error("Undo() below the oldest entry reported ok")
	}
	if got := h.Current().Description; got != "baseline" {
		t.Errorf("current = %q, want baseline", got)
	}
}

func TestPushAfterUndoPrunesRedoTail(t *testing.T) {
	h := New(10)
	pushN(h, 3)

	h.Undo() // -> s2
	h.Undo() // -> s1
	h.Push(entry("branch"))

	want := []string{"baseline", "s1", "branch"}
	if got := h.Descriptions(); !slices.Equal(got, want) {
		t.Errorf("Descriptions() = %v, want %v", got, want)
	}
	if h.CanRedo() {
		t.Error("CanRedo() = true after branch push")
	}
	if got := h.Current().Description; got != "branch" {
		t.Errorf("current = %q, want branch", got)
	}
}

func TestCapacityEviction(t *testing.T) {
	h := New(5)
	pushN(h, 7) // baseline + s1..s7, limit 5

	if h.Len() != 5 {
		t.Fatalf("Len() = %d, want 5", h.Len())
	}
	want := []string{"s3", "s4", "s5", "s6", "s7"}
	if got := h.Descriptions(); !slices.Equal(got, want) {
		t.Errorf("Descriptions() = %v, want %v", got, want)
	}

	// The cursor still names the newest state and undo walks the full
	// retained range.
	if got := h.Current().Description; got != "s7" {
		t.Errorf("current = %q, want s7", got)
	}
	undone := 0
	for {
		if _, ok := h.Undo(); !ok {
			break
		}
		undone++
	}
	if undone != 4 {
		t.Errorf("undo count = %d, want 4", undone)
	}
	if got := h.Current().Description; got != "s3" {
		t.Errorf("oldest reachable = %q, want s3", got)
	}
}

func TestEvictionAfterPartialUndo(t *testing.T) {
	h := New(3)
	pushN(h, 2) // baseline, s1, s2
	h.Undo()    // cursor on s1

	h.Push(entry("s3")) // prunes s2 -> baseline, s1, s3 (fits exactly)
	want := []string{"baseline", "s1", "s3"}
	if got := h.Descriptions(); !slices.Equal(got, want) {
		t.Fatalf("Descriptions() = %v, want %v", got, want)
	}

	h.Push(entry("s4")) // evicts baseline
	want = []string{"s1", "s3", "s4"}
	if got := h.Descriptions(); !slices.Equal(got, want) {
		t.Errorf("Descriptions() = %v, want %v", got, want)
	}
	if got := h.Position(); got != 2 {
		t.Errorf("Position() = %d, want 2", got)
	}
}

func TestZeroLimitFallsBackToDefault(t *testing.T) {
	h := New(0)
	if got := h.Limit(); got != DefaultLimit {
		t.Errorf("Limit() = %d, want %d", got, DefaultLimit)
	}
}

func TestClear(t *testing.T) {
	h := New(4)
	pushN(h, 2)
	h.Clear()
	if h.Len() != 0 || h.Position() != -1 || h.CanUndo() {
		t.Errorf("after Clear: len=%d at=%d canUndo=%v", h.Len(), h.Position(), h.CanUndo())
	}
}

func TestPushStampsTime(t *testing.T) {
	h := New(4)
	h.Push(entry("x"))
	if h.Current().At.IsZero() {
		t.Error("Push() left the timestamp zero")
	}
}
