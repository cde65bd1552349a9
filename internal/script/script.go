// Package script embeds a sandboxed Lua runtime bound to a document
// engine, for batch edits and automation. Scripts see one global table,
// strata, whose functions mirror the engine API. Layer indices are
// zero-based with the front layer at 0, exactly as the engine counts
// them.
package script

import (
	"errors"
	"fmt"
	"sync"

	lua "github.com/yuin/gopher-lua"

	"github.com/dshills/strata/internal/engine"
	"github.com/dshills/strata/internal/engine/geom"
	"github.com/dshills/strata/internal/engine/layer"
	"github.com/dshills/strata/internal/engine/style"
)

// ErrRunnerClosed indicates use after Close.
var ErrRunnerClosed = errors.New("script runner is closed")

// Runner executes Lua against one engine. A Runner is safe for use from
// multiple goroutines, but scripts themselves run one at a time.
type Runner struct {
	eng *engine.Engine

	mu     sync.Mutex
	L      *lua.LState
	closed bool
}

// New builds a sandboxed runner bound to the engine. The Lua state
// opens only the base, table, string, and math libraries; loaders that
// could pull code from disk are removed.
func New(eng *engine.Engine) (*Runner, error) {
	if eng == nil {
		return nil, fmt.Errorf("script: nil engine")
	}

	L := lua.NewState(lua.Options{SkipOpenLibs: true})
	lua.OpenBase(L)
	lua.OpenTable(L)
	lua.OpenString(L)
	lua.OpenMath(L)
	for _, name := range []string{"dofile", "loadfile", "load", "loadstring"} {
		L.SetGlobal(name, lua.LNil)
	}

	r := &Runner{eng: eng, L: L}
	mod := L.SetFuncs(L.NewTable(), r.funcs())
	L.SetGlobal("strata", mod)
	return r, nil
}

// DoString runs a script from source text.
func (r *Runner) DoString(code string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		return ErrRunnerClosed
	}
	return r.recovered(func() error { return r.L.DoString(code) })
}

// DoFile runs a script from disk.
func (r *Runner) DoFile(path string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		return ErrRunnerClosed
	}
	return r.recovered(func() error { return r.L.DoFile(path) })
}

// Close releases the Lua state. Further calls fail with ErrRunnerClosed.
func (r *Runner) Close() {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		return
	}
	r.L.Close()
	r.closed = true
}

func (r *Runner) recovered(fn func() error) (err error) {
	defer func() {
		if p := recover(); p != nil {
			err = fmt.Errorf("lua panic: %v", p)
		}
	}()
	return fn()
}

func (r *Runner) funcs() map[string]lua.LGFunction {
	return map[string]lua.LGFunction{
		"add_layer":        r.addLayer,
		"remove_layer":     r.removeLayer,
		"update_layer":     r.updateLayer,
		"reorder":          r.reorder,
		"move_up":          r.indexOp(r.eng.MoveUp),
		"move_down":        r.indexOp(r.eng.MoveDown),
		"move_to_top":      r.indexOp(r.eng.MoveToTop),
		"move_to_bottom":   r.indexOp(r.eng.MoveToBottom),
		"select_only":      r.selectOnly,
		"toggle":           r.toggle,
		"select_range":     r.indexOp(r.eng.SelectRange),
		"clear_selection":  r.clearSelection,
		"create_clip_mask": r.indexOp(r.eng.CreateClipMask),
		"release_mask":     r.releaseMask,
		"group":            r.group,
		"ungroup":          r.ungroup,
		"duplicate":        r.duplicate,
		"copy":             r.copyLayer,
		"cut":              r.cutLayer,
		"paste":            r.paste,
		"undo":             r.histStep(r.eng.Undo),
		"redo":             r.histStep(r.eng.Redo),
		"begin_gesture":    r.beginGesture,
		"end_gesture":      r.endGesture,
		"layer_count":      r.layerCount,
		"layers":           r.layers,
		"selected":         r.selected,
		"resync":           r.resync,
	}
}

// fail converts an engine error into a Lua error. RaiseError unwinds
// with a longjmp, so callers return 0 right after for the compiler.
func fail(L *lua.LState, err error) {
	L.RaiseError("%v", err)
}

func (r *Runner) addLayer(L *lua.LState) int {
	spec, err := specFromTable(L.CheckTable(1))
	if err != nil {
		fail(L, err)
		return 0
	}
	rec, err := r.eng.AddLayer(spec)
	if err != nil {
		fail(L, err)
		return 0
	}
	L.Push(lua.LString(rec.ID))
	return 1
}

func (r *Runner) removeLayer(L *lua.LState) int {
	if err := r.eng.RemoveLayer(layer.ID(L.CheckString(1))); err != nil {
		fail(L, err)
	}
	return 0
}

func (r *Runner) updateLayer(L *lua.LState) int {
	lid := layer.ID(L.CheckString(1))
	tbl := L.CheckTable(2)

	rec, err := r.eng.Layer(lid)
	if err != nil {
		fail(L, err)
		return 0
	}
	patch, err := patchFromTable(tbl, rec)
	if err != nil {
		fail(L, err)
		return 0
	}
	if err := r.eng.UpdateLayer(lid, patch); err != nil {
		fail(L, err)
	}
	return 0
}

func (r *Runner) reorder(L *lua.LState) int {
	if err := r.eng.ReorderLayers(L.CheckInt(1), L.CheckInt(2)); err != nil {
		fail(L, err)
	}
	return 0
}

func (r *Runner) indexOp(op func(int) error) lua.LGFunction {
	return func(L *lua.LState) int {
		if err := op(L.CheckInt(1)); err != nil {
			fail(L, err)
		}
		return 0
	}
}

func (r *Runner) selectOnly(L *lua.LState) int {
	if err := r.eng.SelectOnly(layer.ID(L.CheckString(1))); err != nil {
		fail(L, err)
	}
	return 0
}

func (r *Runner) toggle(L *lua.LState) int {
	selected, err := r.eng.ToggleSelect(layer.ID(L.CheckString(1)))
	if err != nil {
		fail(L, err)
		return 0
	}
	L.Push(lua.LBool(selected))
	return 1
}

func (r *Runner) clearSelection(L *lua.LState) int {
	r.eng.ClearSelection()
	return 0
}

func (r *Runner) releaseMask(L *lua.LState) int {
	if err := r.eng.RemoveClipMask(layer.ID(L.CheckString(1))); err != nil {
		fail(L, err)
	}
	return 0
}

func (r *Runner) group(L *lua.LState) int {
	rec, err := r.eng.Group()
	if err != nil {
		fail(L, err)
		return 0
	}
	L.Push(lua.LString(rec.ID))
	return 1
}

func (r *Runner) ungroup(L *lua.LState) int {
	if err := r.eng.Ungroup(layer.ID(L.CheckString(1))); err != nil {
		fail(L, err)
	}
	return 0
}

func (r *Runner) duplicate(L *lua.LState) int {
	rec, err := r.eng.DuplicateLayer(layer.ID(L.CheckString(1)))
	if err != nil {
		fail(L, err)
		return 0
	}
	L.Push(lua.LString(rec.ID))
	return 1
}

func (r *Runner) copyLayer(L *lua.LState) int {
	if err := r.eng.Copy(layer.ID(L.CheckString(1))); err != nil {
		fail(L, err)
	}
	return 0
}

func (r *Runner) cutLayer(L *lua.LState) int {
	if err := r.eng.Cut(layer.ID(L.CheckString(1))); err != nil {
		fail(L, err)
	}
	return 0
}

func (r *Runner) paste(L *lua.LState) int {
	rec, err := r.eng.Paste()
	if err != nil {
		fail(L, err)
		return 0
	}
	L.Push(lua.LString(rec.ID))
	return 1
}

func (r *Runner) histStep(op func() (bool, error)) lua.LGFunction {
	return func(L *lua.LState) int {
		moved, err := op()
		if err != nil {
			fail(L, err)
			return 0
		}
		L.Push(lua.LBool(moved))
		return 1
	}
}

func (r *Runner) beginGesture(L *lua.LState) int {
	r.eng.BeginGesture(L.CheckString(1))
	return 0
}

func (r *Runner) endGesture(L *lua.LState) int {
	if err := r.eng.EndGesture(); err != nil {
		fail(L, err)
	}
	return 0
}

func (r *Runner) layerCount(L *lua.LState) int {
	L.Push(lua.LNumber(r.eng.LayerCount()))
	return 1
}

func (r *Runner) layers(L *lua.LState) int {
	recs := r.eng.Layers()
	out := L.NewTable()
	for i, rec := range recs {
		t := L.NewTable()
		L.SetField(t, "id", lua.LString(rec.ID))
		L.SetField(t, "name", lua.LString(rec.Name))
		L.SetField(t, "kind", lua.LString(rec.Kind.String()))
		L.SetField(t, "index", lua.LNumber(i))
		L.SetField(t, "x", lua.LNumber(rec.Transform.X))
		L.SetField(t, "y", lua.LNumber(rec.Transform.Y))
		L.SetField(t, "opacity", lua.LNumber(rec.Opacity))
		L.SetField(t, "visible", lua.LBool(rec.Visible))
		L.SetField(t, "locked", lua.LBool(rec.Locked))
		L.SetField(t, "is_group", lua.LBool(rec.IsGroup()))
		L.SetField(t, "is_mask", lua.LBool(rec.IsClipMask))
		if rec.ClipMaskID != layer.None {
			L.SetField(t, "clip_mask", lua.LString(rec.ClipMaskID))
		}
		out.RawSetInt(i+1, t)
	}
	L.Push(out)
	return 1
}

func (r *Runner) selected(L *lua.LState) int {
	ids := r.eng.SelectedIDs()
	out := L.NewTable()
	for i, lid := range ids {
		out.RawSetInt(i+1, lua.LString(lid))
	}
	L.Push(out)
	return 1
}

func (r *Runner) resync(L *lua.LState) int {
	if err := r.eng.Resync(); err != nil {
		fail(L, err)
	}
	return 0
}

// ===== Table decoding =====

func specFromTable(t *lua.LTable) (engine.LayerSpec, error) {
	kind, err := layer.ParseKind(stringField(t, "kind", "shape"))
	if err != nil {
		return engine.LayerSpec{}, err
	}
	blend, err := style.ParseBlendMode(stringField(t, "blend", ""))
	if err != nil {
		return engine.LayerSpec{}, err
	}
	return engine.LayerSpec{
		Name:   stringField(t, "name", ""),
		Kind:   kind,
		Shape:  layer.Shape(stringField(t, "shape", "")),
		Text:   stringField(t, "text", ""),
		Source: stringField(t, "source", ""),
		Size: geom.Size{
			Width:  numberField(t, "width", 0),
			Height: numberField(t, "height", 0),
		},
		Transform: geom.Transform{
			X:        numberField(t, "x", 0),
			Y:        numberField(t, "y", 0),
			ScaleX:   numberField(t, "scale_x", 0),
			ScaleY:   numberField(t, "scale_y", 0),
			Rotation: numberField(t, "rotation", 0),
		},
		Paint: style.Paint{
			Fill:        stringField(t, "fill", ""),
			Stroke:      stringField(t, "stroke", ""),
			StrokeWidth: numberField(t, "stroke_width", 0),
		},
		Opacity: numberField(t, "opacity", 0),
		Blend:   blend,
		Hidden:  boolField(t, "hidden"),
		Locked:  boolField(t, "locked"),
	}, nil
}

// patchFromTable builds a partial update. Paint and transform patches
// start from the record's current values so a script can change one
// component without naming the rest.
func patchFromTable(t *lua.LTable, rec layer.Record) (engine.LayerPatch, error) {
	var patch engine.LayerPatch

	if v, ok := lookupString(t, "name"); ok {
		patch.Name = &v
	}
	if v, ok := lookupBool(t, "visible"); ok {
		patch.Visible = &v
	}
	if v, ok := lookupBool(t, "locked"); ok {
		patch.Locked = &v
	}
	if v, ok := lookupNumber(t, "opacity"); ok {
		patch.Opacity = &v
	}
	if v, ok := lookupString(t, "blend"); ok {
		blend, err := style.ParseBlendMode(v)
		if err != nil {
			return engine.LayerPatch{}, err
		}
		patch.Blend = &blend
	}

	paint := rec.Paint
	paintTouched := false
	if v, ok := lookupString(t, "fill"); ok {
		paint.Fill = v
		paintTouched = true
	}
	if v, ok := lookupString(t, "stroke"); ok {
		paint.Stroke = v
		paintTouched = true
	}
	if v, ok := lookupNumber(t, "stroke_width"); ok {
		paint.StrokeWidth = v
		paintTouched = true
	}
	if paintTouched {
		patch.Paint = &paint
	}

	tr := rec.Transform
	trTouched := false
	if v, ok := lookupNumber(t, "x"); ok {
		tr.X = v
		trTouched = true
	}
	if v, ok := lookupNumber(t, "y"); ok {
		tr.Y = v
		trTouched = true
	}
	if v, ok := lookupNumber(t, "rotation"); ok {
		tr.Rotation = v
		trTouched = true
	}
	if v, ok := lookupNumber(t, "scale_x"); ok {
		tr.ScaleX = v
		trTouched = true
	}
	if v, ok := lookupNumber(t, "scale_y"); ok {
		tr.ScaleY = v
		trTouched = true
	}
	if trTouched {
		patch.Transform = &tr
	}
	return patch, nil
}

func stringField(t *lua.LTable, key, def string) string {
	if v, ok := lookupString(t, key); ok {
		return v
	}
	return def
}

func numberField(t *lua.LTable, key string, def float64) float64 {
	if v, ok := lookupNumber(t, key); ok {
		return v
	}
	return def
}

func boolField(t *lua.LTable, key string) bool {
	v, _ := lookupBool(t, key)
	return v
}

func lookupString(t *lua.LTable, key string) (string, bool) {
	if v, ok := t.RawGetString(key).(lua.LString); ok {
		return string(v), true
	}
	return "", false
}

func lookupNumber(t *lua.LTable, key string) (float64, bool) {
	if v, ok := t.RawGetString(key).(lua.LNumber); ok {
		return float64(v), true
	}
	return 0, false
}

func lookupBool(t *lua.LTable, key string) (bool, bool) {
	if v, ok := t.RawGetString(key).(lua.LBool); ok {
		return bool(v), true
	}
	return false, false
}
