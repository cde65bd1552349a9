// Package termview renders a live terminal preview of a document: a
// layer panel on the left, a schematic canvas on the right, and a key
// loop driving the engine. It is a debugging surface, not a production
// renderer; boxes stand in for shapes and masks clip by bounding box.
package termview

import (
	"fmt"

	"github.com/gdamore/tcell/v2"
	"github.com/rivo/uniseg"

	"github.com/dshills/strata/internal/engine"
	"github.com/dshills/strata/internal/engine/layer"
	"github.com/dshills/strata/internal/engine/style"
)

const (
	panelWidth  = 28
	canvasScale = 0.05
)

// View is one terminal session over an engine.
type View struct {
	eng    *engine.Engine
	screen tcell.Screen

	cursor int
	status string
	done   bool
}

// New wraps an engine and a screen. The screen must already be
// initialized; Run finalizes it on exit.
func New(eng *engine.Engine, screen tcell.Screen) *View {
	return &View{eng: eng, screen: screen}
}

// Run draws and handles events until the user quits.
func (v *View) Run() error {
	defer v.screen.Fini()
	for !v.done {
		v.draw()
		v.handle(v.screen.PollEvent())
	}
	return nil
}

// ===== Drawing =====

func (v *View) draw() {
	v.screen.Clear()
	w, h := v.screen.Size()

	v.drawPanel(h - 1)
	v.drawCanvas(panelWidth+1, 0, w-panelWidth-1, h-1)
	v.drawStatus(0, h-1, w)
	v.screen.Show()
}

func (v *View) drawPanel(height int) {
	recs := v.eng.Layers()
	v.clampCursor(len(recs))
	selected := make(map[layer.ID]bool)
	for _, lid := range v.eng.SelectedIDs() {
		selected[lid] = true
	}

	title := fmt.Sprintf(" Layers (%d)", len(recs))
	v.print(0, 0, panelWidth, title, tcell.StyleDefault.Bold(true))

	for i, rec := range recs {
		y := i + 1
		if y >= height {
			break
		}
		st := tcell.StyleDefault
		if selected[rec.ID] {
			st = st.Reverse(true)
		}
		marker := "  "
		if i == v.cursor {
			marker = "> "
		}
		line := marker + badge(rec) + " " + rec.Name
		v.print(0, y, panelWidth-3, line, st)
		v.swatch(panelWidth-3, y, rec.Paint.Fill)
	}
	for y := 0; y < height; y++ {
		v.screen.SetContent(panelWidth, y, '│', nil, tcell.StyleDefault)
	}
}

// badge gives each record kind a one-cell glyph, with masks overriding
// their kind.
func badge(rec layer.Record) string {
	switch {
	case rec.IsClipMask:
		return "◐"
	case rec.IsGroup():
		return "▣"
	case rec.Kind == layer.KindText:
		return "T"
	case rec.Kind == layer.KindImage:
		return "▦"
	default:
		return "■"
	}
}

func (v *View) drawCanvas(x0, y0, w, h int) {
	recs := v.eng.Layers()
	// Back to front, so the front layer paints last and wins.
	for i := len(recs) - 1; i >= 0; i-- {
		rec := recs[i]
		if !rec.Visible || rec.IsClipMask {
			continue
		}
		rect := cellRect(rec, x0, y0)
		if rec.ClipMaskID != layer.None {
			if mask, err := v.eng.Layer(rec.ClipMaskID); err == nil {
				rect = rect.intersect(cellRect(mask, x0, y0))
			}
		}
		rect = rect.intersect(cellRect2(x0, y0, w, h))
		v.fillRect(rect, rec)
	}
}

func (v *View) fillRect(r cellrect, rec layer.Record) {
	st := tcell.StyleDefault.
		Background(hexColor(rec.Paint.Fill)).
		Foreground(labelColor(rec.Paint.Fill))
	for y := r.y; y < r.y+r.h; y++ {
		for x := r.x; x < r.x+r.w; x++ {
			v.screen.SetContent(x, y, ' ', nil, st)
		}
	}
	if r.w > 2 && r.h > 0 {
		label := truncate(rec.Name, r.w-1)
		v.print(r.x+1, r.y, r.w-1, label, st)
	}
}

// labelColor picks black or white, whichever reads better over the fill.
func labelColor(fill string) tcell.Color {
	if style.Luminance(fill) < 0.5 {
		return tcell.ColorWhite
	}
	return tcell.ColorBlack
}

func (v *View) drawStatus(x, y, w int) {
	if v.status == "" {
		v.status = "j/k cursor  J/K move  space toggle  g group  m mask  d dup  x del  u undo  r redo  q quit"
	}
	pos := fmt.Sprintf(" [%d] ", v.eng.HistoryPosition())
	v.print(x, y, w, pos+v.status, tcell.StyleDefault.Reverse(true))
}

// print writes a string clipped to width cells, counting grapheme
// clusters so combining marks and emoji occupy one position.
func (v *View) print(x, y, width int, s string, st tcell.Style) {
	col := x
	g := uniseg.NewGraphemes(s)
	for g.Next() {
		if col >= x+width {
			return
		}
		runes := g.Runes()
		v.screen.SetContent(col, y, runes[0], runes[1:], st)
		col++
	}
}

func (v *View) swatch(x, y int, fill string) {
	if fill == "" {
		return
	}
	st := tcell.StyleDefault.Background(hexColor(fill))
	v.screen.SetContent(x, y, ' ', nil, st)
	v.screen.SetContent(x+1, y, ' ', nil, st)
}

// truncate clips a string to width grapheme clusters.
func truncate(s string, width int) string {
	if width <= 0 {
		return ""
	}
	g := uniseg.NewGraphemes(s)
	out := make([]rune, 0, len(s))
	n := 0
	for g.Next() {
		if n >= width {
			break
		}
		out = append(out, g.Runes()...)
		n++
	}
	return string(out)
}

func hexColor(s string) tcell.Color {
	r, g, b, ok := style.RGB255(s)
	if !ok {
		return tcell.ColorGray
	}
	return tcell.NewRGBColor(int32(r), int32(g), int32(b))
}

// ===== Geometry =====

type cellrect struct{ x, y, w, h int }

func cellRect2(x, y, w, h int) cellrect {
	return cellrect{x: x, y: y, w: max(0, w), h: max(0, h)}
}

// cellRect maps a record's canvas box to screen cells. Terminal cells
// are about twice as tall as wide, so height halves.
func cellRect(rec layer.Record, x0, y0 int) cellrect {
	return cellrect{
		x: x0 + int(rec.Transform.X*canvasScale*2),
		y: y0 + int(rec.Transform.Y*canvasScale),
		w: max(2, int(rec.Size.Width*canvasScale*2)),
		h: max(1, int(rec.Size.Height*canvasScale)),
	}
}

func (r cellrect) intersect(o cellrect) cellrect {
	x1 := max(r.x, o.x)
	y1 := max(r.y, o.y)
	x2 := min(r.x+r.w, o.x+o.w)
	y2 := min(r.y+r.h, o.y+o.h)
	return cellrect{x: x1, y: y1, w: max(0, x2-x1), h: max(0, y2-y1)}
}

func (v *View) clampCursor(n int) {
	if v.cursor >= n {
		v.cursor = n - 1
	}
	if v.cursor < 0 {
		v.cursor = 0
	}
}
