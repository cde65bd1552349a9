package engine

import (
	"log/slog"

	"github.com/dshills/strata/internal/engine/geom"
	"github.com/dshills/strata/internal/engine/history"
	"github.com/dshills/strata/internal/engine/id"
	"github.com/dshills/strata/internal/event"
)

// Defaults applied by New when no option overrides them.
const (
	// DefaultHistoryLimit is the checkpoint capacity.
	DefaultHistoryLimit = history.DefaultLimit

	// DefaultDuplicateOffset is the canvas offset applied to duplicated
	// layers so the copy is visibly distinct from its source.
	DefaultDuplicateOffset = 10.0

	// DefaultPasteOffset is the canvas offset applied to pasted layers
	// relative to the copied original's position.
	DefaultPasteOffset = 10.0
)

// Option configures an Engine during construction.
type Option func(*Engine)

// WithHistoryLimit bounds the checkpoint stack. Values below one fall
// back to DefaultHistoryLimit.
func WithHistoryLimit(limit int) Option {
	return func(e *Engine) {
		e.hist = history.New(limit)
	}
}

// WithIDGenerator replaces the sequential id allocator.
func WithIDGenerator(gen id.Generator) Option {
	return func(e *Engine) {
		if gen != nil {
			e.newID = gen
		}
	}
}

// WithLogger attaches a structured logger. The default discards.
func WithLogger(log *slog.Logger) Option {
	return func(e *Engine) {
		if log != nil {
			e.log = log
		}
	}
}

// WithBus replaces the engine's event bus, allowing several components
// to share one.
func WithBus(bus *event.Bus) Option {
	return func(e *Engine) {
		if bus != nil {
			e.bus = bus
		}
	}
}

// WithDuplicateOffset sets the canvas delta applied to duplicates.
func WithDuplicateOffset(dx, dy float64) Option {
	return func(e *Engine) {
		e.dupOffset = geom.Point{X: dx, Y: dy}
	}
}

// WithPasteOffset sets the canvas delta applied to pasted layers.
func WithPasteOffset(dx, dy float64) Option {
	return func(e *Engine) {
		e.pasteOffset = geom.Point{X: dx, Y: dy}
	}
}
