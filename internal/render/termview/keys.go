package termview

import (
	"github.com/gdamore/tcell/v2"

	"github.com/dshills/strata/internal/engine/layer"
)

func (v *View) handle(ev tcell.Event) {
	switch e := ev.(type) {
	case *tcell.EventResize:
		v.screen.Sync()
	case *tcell.EventKey:
		v.handleKey(e)
	}
}

func (v *View) handleKey(e *tcell.EventKey) {
	v.status = ""

	switch {
	case e.Key() == tcell.KeyEscape, e.Key() == tcell.KeyCtrlC, e.Rune() == 'q':
		v.done = true
	case e.Key() == tcell.KeyDown, e.Rune() == 'j':
		v.moveCursor(1)
	case e.Key() == tcell.KeyUp, e.Rune() == 'k':
		v.moveCursor(-1)
	case e.Rune() == 'J':
		v.report(v.eng.MoveDown(v.cursor))
		v.moveCursor(1)
	case e.Rune() == 'K':
		v.report(v.eng.MoveUp(v.cursor))
		v.moveCursor(-1)
	case e.Rune() == 't':
		v.report(v.eng.MoveToTop(v.cursor))
		v.cursor = 0
	case e.Rune() == 'b':
		v.report(v.eng.MoveToBottom(v.cursor))
		v.cursor = v.eng.LayerCount() - 1
	case e.Rune() == ' ':
		if lid, ok := v.idAt(v.cursor); ok {
			_, err := v.eng.ToggleSelect(lid)
			v.report(err)
		}
	case e.Rune() == 'V':
		v.report(v.eng.SelectRange(v.cursor))
	case e.Rune() == 'g':
		_, err := v.eng.Group()
		v.report(err)
	case e.Rune() == 'G':
		if lid, ok := v.idAt(v.cursor); ok {
			v.report(v.eng.Ungroup(lid))
		}
	case e.Rune() == 'm':
		v.report(v.eng.CreateClipMask(v.cursor))
	case e.Rune() == 'M':
		if lid, ok := v.idAt(v.cursor); ok {
			v.report(v.eng.RemoveClipMask(lid))
		}
	case e.Rune() == 'd':
		if lid, ok := v.idAt(v.cursor); ok {
			_, err := v.eng.DuplicateLayer(lid)
			v.report(err)
		}
	case e.Rune() == 'x':
		if lid, ok := v.idAt(v.cursor); ok {
			v.report(v.eng.RemoveLayer(lid))
		}
	case e.Rune() == 'c':
		if lid, ok := v.idAt(v.cursor); ok {
			v.report(v.eng.Copy(lid))
		}
	case e.Rune() == 'X':
		if lid, ok := v.idAt(v.cursor); ok {
			v.report(v.eng.Cut(lid))
		}
	case e.Rune() == 'v':
		_, err := v.eng.Paste()
		v.report(err)
	case e.Rune() == 'u':
		_, err := v.eng.Undo()
		v.report(err)
	case e.Rune() == 'r':
		_, err := v.eng.Redo()
		v.report(err)
	case e.Rune() == 'R':
		v.report(v.eng.Resync())
	}
}

// report surfaces an operation error in the status bar. Successful
// operations restore the key hints.
func (v *View) report(err error) {
	if err != nil {
		v.status = err.Error()
	}
}

func (v *View) moveCursor(delta int) {
	v.cursor += delta
	v.clampCursor(v.eng.LayerCount())
	if lid, ok := v.idAt(v.cursor); ok {
		v.report(v.eng.SelectOnly(lid))
	}
}

func (v *View) idAt(i int) (layer.ID, bool) {
	rec, err := v.eng.LayerAt(i)
	if err != nil {
		return layer.None, false
	}
	return rec.ID, true
}
