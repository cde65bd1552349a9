package script

import (
	"strings"
	"testing"

	"github.com/dshills/strata/internal/engine"
	"github.com/dshills/strata/internal/render/memscene"
)

func newRunner(t *testing.T) (*Runner, *engine.Engine) {
	t.Helper()
	eng, err := engine.New(memscene.New())
	if err != nil {
		t.Fatalf("engine.New() error = %v", err)
	}
	r, err := New(eng)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	t.Cleanup(r.Close)
	return r, eng
}

func TestAddLayerFromScript(t *testing.T) {
	r, eng := newRunner(t)

	err := r.DoString(`
		id = strata.add_layer{
			name = "hero",
			kind = "shape",
			shape = "ellipse",
			width = 120,
			height = 80,
			x = 40,
			y = 25,
			fill = "#336699",
		}
	`)
	if err != nil {
		t.Fatalf("DoString() error = %v", err)
	}

	if got := eng.LayerCount(); got != 1 {
		t.Fatalf("LayerCount() = %d, want 1", got)
	}
	rec := eng.Layers()[0]
	if rec.Name != "hero" {
		t.Errorf("Name = %q, want hero", rec.Name)
	}
	if rec.Transform.X != 40 || rec.Transform.Y != 25 {
		t.Errorf("Transform = (%v, %v), want (40, 25)", rec.Transform.X, rec.Transform.Y)
	}
	if rec.Paint.Fill != "#336699" {
		t.Errorf("Fill = %q, want #336699", rec.Paint.Fill)
	}
}

func TestScriptBatchWithGesture(t *testing.T) {
	r, eng := newRunner(t)

	err := r.DoString(`
		strata.begin_gesture("Build scene")
		for i = 1, 3 do
			strata.add_layer{ name = "layer " .. i, kind = "shape" }
		end
		strata.end_gesture()
	`)
	if err != nil {
		t.Fatalf("DoString() error = %v", err)
	}

	if got := eng.LayerCount(); got != 3 {
		t.Fatalf("LayerCount() = %d, want 3", got)
	}
	descs := eng.HistoryDescriptions()
	if len(descs) != 2 || descs[1] != "Build scene" {
		t.Errorf("HistoryDescriptions() = %v, want one coalesced Build scene entry", descs)
	}
}

func TestScriptReorderAndQuery(t *testing.T) {
	r, _ := newRunner(t)

	err := r.DoString(`
		strata.add_layer{ name = "c", kind = "shape" }
		strata.add_layer{ name = "b", kind = "shape" }
		strata.add_layer{ name = "a", kind = "shape" }
		strata.move_down(0)
		front = strata.layers()[1].name
		count = strata.layer_count()
	`)
	if err != nil {
		t.Fatalf("DoString() error = %v", err)
	}

	if got := r.L.GetGlobal("front").String(); got != "b" {
		t.Errorf("front = %q, want b after move_down(0)", got)
	}
	if got := r.L.GetGlobal("count").String(); got != "3" {
		t.Errorf("count = %s, want 3", got)
	}
}

func TestScriptUpdatePatchesOneComponent(t *testing.T) {
	r, eng := newRunner(t)

	err := r.DoString(`
		id = strata.add_layer{ name = "box", kind = "shape", fill = "#112233", stroke = "#445566" }
		strata.update_layer(id, { fill = "#ff0000" })
	`)
	if err != nil {
		t.Fatalf("DoString() error = %v", err)
	}

	rec := eng.Layers()[0]
	if rec.Paint.Fill != "#ff0000" {
		t.Errorf("Fill = %q, want #ff0000", rec.Paint.Fill)
	}
	if rec.Paint.Stroke != "#445566" {
		t.Errorf("Stroke = %q, want untouched #445566", rec.Paint.Stroke)
	}
}

func TestScriptSelectionAndGroup(t *testing.T) {
	r, eng := newRunner(t)

	err := r.DoString(`
		a = strata.add_layer{ name = "a", kind = "shape" }
		b = strata.add_layer{ name = "b", kind = "shape" }
		strata.select_only(a)
		strata.toggle(b)
		gid = strata.group()
		picked = strata.selected()[1]
	`)
	if err != nil {
		t.Fatalf("DoString() error = %v", err)
	}

	if got := eng.LayerCount(); got != 1 {
		t.Fatalf("LayerCount() = %d, want 1 group", got)
	}
	rec := eng.Layers()[0]
	if !rec.IsGroup() {
		t.Fatal("remaining layer is not a group")
	}
	if got := r.L.GetGlobal("gid").String(); got != string(rec.ID) {
		t.Errorf("gid = %q, want %q", got, rec.ID)
	}
	if got := r.L.GetGlobal("picked").String(); got != string(rec.ID) {
		t.Errorf("picked = %q, want the group id %q", got, rec.ID)
	}
}

func TestScriptUndoRedo(t *testing.T) {
	r, eng := newRunner(t)

	err := r.DoString(`
		strata.add_layer{ name = "a", kind = "shape" }
		undone = strata.undo()
		redone = strata.redo()
		noop = strata.redo()
	`)
	if err != nil {
		t.Fatalf("DoString() error = %v", err)
	}

	if got := r.L.GetGlobal("undone").String(); got != "true" {
		t.Errorf("undone = %s, want true", got)
	}
	if got := r.L.GetGlobal("redone").String(); got != "true" {
		t.Errorf("redone = %s, want true", got)
	}
	if got := r.L.GetGlobal("noop").String(); got != "false" {
		t.Errorf("noop = %s, want false", got)
	}
	if got := eng.LayerCount(); got != 1 {
		t.Errorf("LayerCount() = %d, want 1 after redo", got)
	}
}

func TestScriptErrorsSurface(t *testing.T) {
	r, _ := newRunner(t)

	err := r.DoString(`strata.remove_layer("ghost")`)
	if err == nil {
		t.Fatal("DoString() with unknown id succeeded, want error")
	}
	if !strings.Contains(err.Error(), "ghost") {
		t.Errorf("error %q does not name the missing layer", err)
	}
}

func TestScriptSandboxBlocksLoaders(t *testing.T) {
	r, _ := newRunner(t)

	for _, call := range []string{
		`dofile("/etc/passwd")`,
		`loadfile("x.lua")`,
		`load("return 1")`,
	} {
		if err := r.DoString(call); err == nil {
			t.Errorf("%s succeeded inside the sandbox", call)
		}
	}
	// The approved libraries stay reachable.
	if err := r.DoString(`v = math.floor(3.7) .. string.upper("ok")`); err != nil {
		t.Errorf("safe library call failed: %v", err)
	}
}

func TestRunnerClosed(t *testing.T) {
	r, _ := newRunner(t)
	r.Close()
	if err := r.DoString(`x = 1`); err != ErrRunnerClosed {
		t.Errorf("DoString() after Close error = %v, want ErrRunnerClosed", err)
	}
	// Double close is fine.
	r.Close()
}
