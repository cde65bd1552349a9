package engine

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/dshills/strata/internal/event"
	"github.com/dshills/strata/internal/render/memscene"
)

func TestUndoAtBaselineIsNoop(t *testing.T) {
	eng, _ := newTestEngine(t)
	ok, err := eng.Undo()
	if err != nil {
		t.Fatalf("Undo() error = %v", err)
	}
	if ok {
		t.Error("Undo() = true on a fresh document, want false")
	}
}

func TestRedoAtTipIsNoop(t *testing.T) {
	eng, _ := newTestEngine(t)
	addRect(t, eng, "a")
	ok, err := eng.Redo()
	if err != nil {
		t.Fatalf("Redo() error = %v", err)
	}
	if ok {
		t.Error("Redo() = true at the newest state, want false")
	}
}

func TestUndoRedoSingleAction(t *testing.T) {
	eng, scene := newTestEngine(t)
	rec := addRect(t, eng, "a")

	if ok, err := eng.Undo(); err != nil || !ok {
		t.Fatalf("Undo() = %v, %v, want true, nil", ok, err)
	}
	if got := eng.LayerCount(); got != 0 {
		t.Errorf("LayerCount() after undo = %d, want 0", got)
	}
	if got := scene.Len(); got != 0 {
		t.Errorf("scene.Len() after undo = %d, want 0", got)
	}

	if ok, err := eng.Redo(); err != nil || !ok {
		t.Fatalf("Redo() = %v, %v, want true, nil", ok, err)
	}
	got, err := eng.Layer(rec.ID)
	if err != nil {
		t.Fatalf("Layer() after redo error = %v", err)
	}
	if got.Node != rec.Node {
		t.Errorf("node handle = %d after redo, want preserved %d", got.Node, rec.Node)
	}
	checkSceneSync(t, eng, scene)
}

func TestCheckpointPrunesRedoBranch(t *testing.T) {
	eng, _ := newTestEngine(t)
	addRect(t, eng, "a")
	addRect(t, eng, "b")

	if ok, err := eng.Undo(); err != nil || !ok {
		t.Fatalf("Undo() = %v, %v, want true, nil", ok, err)
	}
	if !eng.CanRedo() {
		t.Fatal("CanRedo() = false after undo, want true")
	}

	addRect(t, eng, "c")
	if eng.CanRedo() {
		t.Error("CanRedo() = true after a fresh checkpoint, want pruned")
	}
	want := []string{"New document", "Add a", "Add c"}
	if got := eng.HistoryDescriptions(); !equalStrings(got, want) {
		t.Errorf("HistoryDescriptions() = %v, want %v", got, want)
	}
	if got := orderOf(eng); !equalStrings(got, []string{"c", "a"}) {
		t.Errorf("order = %v, want [c a]", got)
	}
}

func TestCapacityKeepsCurrentAddressable(t *testing.T) {
	scene := memscene.New()
	eng, err := New(scene, WithHistoryLimit(5))
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	for i := 1; i <= 7; i++ {
		addRect(t, eng, fmt.Sprintf("L%d", i))
	}

	if got := len(eng.HistoryDescriptions()); got != 5 {
		t.Fatalf("retained entries = %d, want 5", got)
	}
	undos := 0
	for {
		ok, err := eng.Undo()
		if err != nil {
			t.Fatalf("Undo() error = %v", err)
		}
		if !ok {
			break
		}
		undos++
	}
	if undos != 4 {
		t.Errorf("undo steps = %d, want 4 (to the oldest retained entry)", undos)
	}
	// The oldest retained state is after the third add, not the empty
	// document.
	if got := eng.LayerCount(); got != 3 {
		t.Errorf("LayerCount() at history floor = %d, want 3", got)
	}
}

func TestGestureCoalescesCheckpoints(t *testing.T) {
	eng, _ := newTestEngine(t)
	rec := addRect(t, eng, "a")
	before := len(eng.HistoryDescriptions())

	eng.BeginGesture("Drag opacity")
	for _, v := range []float64{0.8, 0.5, 0.2} {
		op := v
		if err := eng.UpdateLayer(rec.ID, LayerPatch{Opacity: &op}); err != nil {
			t.Fatalf("UpdateLayer() error = %v", err)
		}
	}
	if got := len(eng.HistoryDescriptions()); got != before {
		t.Fatalf("checkpoints recorded mid-gesture: %d, want %d", got, before)
	}
	if err := eng.EndGesture(); err != nil {
		t.Fatalf("EndGesture() error = %v", err)
	}

	descs := eng.HistoryDescriptions()
	if len(descs) != before+1 {
		t.Fatalf("gesture recorded %d checkpoints, want 1", len(descs)-before)
	}
	if descs[len(descs)-1] != "Drag opacity" {
		t.Errorf("gesture description = %q, want %q", descs[len(descs)-1], "Drag opacity")
	}

	if ok, err := eng.Undo(); err != nil || !ok {
		t.Fatalf("Undo() = %v, %v, want true, nil", ok, err)
	}
	got, _ := eng.Layer(rec.ID)
	if got.Opacity != 1 {
		t.Errorf("Opacity after undoing the gesture = %v, want pre-drag 1", got.Opacity)
	}

	if ok, err := eng.Redo(); err != nil || !ok {
		t.Fatalf("Redo() = %v, %v, want true, nil", ok, err)
	}
	got, _ = eng.Layer(rec.ID)
	if got.Opacity != 0.2 {
		t.Errorf("Opacity after redo = %v, want final 0.2", got.Opacity)
	}
}

func TestGestureWithoutChangesRecordsNothing(t *testing.T) {
	eng, _ := newTestEngine(t)
	addRect(t, eng, "a")
	before := len(eng.HistoryDescriptions())

	eng.BeginGesture("Idle drag")
	if err := eng.EndGesture(); err != nil {
		t.Fatalf("EndGesture() error = %v", err)
	}
	if got := len(eng.HistoryDescriptions()); got != before {
		t.Errorf("history grew to %d on an empty gesture, want %d", got, before)
	}
}

func TestNestedGesturesRecordOnce(t *testing.T) {
	eng, _ := newTestEngine(t)
	rec := addRect(t, eng, "a")
	before := len(eng.HistoryDescriptions())

	eng.BeginGesture("Outer")
	eng.BeginGesture("Inner")
	op := 0.4
	if err := eng.UpdateLayer(rec.ID, LayerPatch{Opacity: &op}); err != nil {
		t.Fatalf("UpdateLayer() error = %v", err)
	}
	if err := eng.EndGesture(); err != nil {
		t.Fatalf("inner EndGesture() error = %v", err)
	}
	if got := len(eng.HistoryDescriptions()); got != before {
		t.Fatalf("inner end recorded a checkpoint")
	}
	if err := eng.EndGesture(); err != nil {
		t.Fatalf("outer EndGesture() error = %v", err)
	}

	descs := eng.HistoryDescriptions()
	if len(descs) != before+1 || descs[len(descs)-1] != "Outer" {
		t.Errorf("HistoryDescriptions() = %v, want one new %q entry", descs, "Outer")
	}
}

func TestEndGestureWithoutBegin(t *testing.T) {
	eng, _ := newTestEngine(t)
	if err := eng.EndGesture(); !errors.Is(err, ErrInvalidOperation) {
		t.Fatalf("EndGesture() error = %v, want ErrInvalidOperation", err)
	}
}

func TestUndoInsideGestureFails(t *testing.T) {
	eng, _ := newTestEngine(t)
	addRect(t, eng, "a")

	eng.BeginGesture("Drag")
	if _, err := eng.Undo(); !errors.Is(err, ErrInvalidOperation) {
		t.Errorf("Undo() mid-gesture error = %v, want ErrInvalidOperation", err)
	}
	if _, err := eng.Redo(); !errors.Is(err, ErrInvalidOperation) {
		t.Errorf("Redo() mid-gesture error = %v, want ErrInvalidOperation", err)
	}
	if err := eng.EndGesture(); err != nil {
		t.Fatalf("EndGesture() error = %v", err)
	}
	if eng.InGesture() {
		t.Error("InGesture() = true after the gesture closed")
	}
}

func TestUndoRestoresMaskBinding(t *testing.T) {
	eng, scene := newTestEngine(t)
	mask, target := maskFixture(t, eng)
	if err := eng.CreateClipMask(2); err != nil {
		t.Fatalf("CreateClipMask(2) error = %v", err)
	}

	if ok, err := eng.Undo(); err != nil || !ok {
		t.Fatalf("Undo() = %v, %v, want true, nil", ok, err)
	}
	gotTarget, _ := eng.Layer(target.ID)
	if gotTarget.ClipMaskID != "" {
		t.Error("undo left the clip binding in place")
	}
	ns, _ := scene.State(gotTarget.Node)
	if ns.Clip != nil {
		t.Error("undo left the clip on the renderer node")
	}

	if ok, err := eng.Redo(); err != nil || !ok {
		t.Fatalf("Redo() = %v, %v, want true, nil", ok, err)
	}
	gotTarget, _ = eng.Layer(target.ID)
	gotMask, _ := eng.Layer(mask.ID)
	if gotTarget.ClipMaskID != mask.ID || !gotMask.IsClipMask {
		t.Error("redo did not rebind the mask")
	}
}

func TestHistoryEventsCarryDirection(t *testing.T) {
	eng, _ := newTestEngine(t)
	addRect(t, eng, "a")

	var applied []event.HistoryApplied
	if _, err := eng.Subscribe("history.applied", func(_ context.Context, ev event.Event) error {
		applied = append(applied, ev.Payload.(event.HistoryApplied))
		return nil
	}); err != nil {
		t.Fatalf("Subscribe() error = %v", err)
	}

	if ok, err := eng.Undo(); err != nil || !ok {
		t.Fatalf("Undo() = %v, %v, want true, nil", ok, err)
	}
	if ok, err := eng.Redo(); err != nil || !ok {
		t.Fatalf("Redo() = %v, %v, want true, nil", ok, err)
	}
	if len(applied) != 2 || applied[0].Direction != "undo" || applied[1].Direction != "redo" {
		t.Errorf("history events = %+v, want undo then redo", applied)
	}
}
