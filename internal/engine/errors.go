package engine

import (
	"errors"
	"fmt"

	"github.com/dshills/strata/internal/engine/layer"
)

// Sentinel errors returned by engine commands, always wrapped in an
// *OpError carrying the operation context.
var (
	// ErrNotFound indicates an id that names no live top-level record.
	// It is the registry's own not-found error, re-exported so callers
	// only deal with the engine package.
	ErrNotFound = layer.ErrNotFound

	// ErrIndexOutOfRange indicates a position that names no layer.
	ErrIndexOutOfRange = layer.ErrIndexOutOfRange

	// ErrInvalidOperation indicates a command whose preconditions do not
	// hold, such as grouping fewer than two layers.
	ErrInvalidOperation = errors.New("invalid operation")

	// ErrUnsupportedShape indicates a clip-mask bind whose source record
	// cannot produce clip geometry. The bind aborts with no mutation.
	ErrUnsupportedShape = errors.New("unsupported mask source shape")
)

// OpError wraps a command failure with the operation name and, when one
// applies, the target layer id or index.
type OpError struct {
	Op     string
	Target string
	Err    error
}

// Error returns the formatted message.
func (e *OpError) Error() string {
	if e.Target == "" {
		return fmt.Sprintf("engine: %s: %v", e.Op, e.Err)
	}
	return fmt.Sprintf("engine: %s %s: %v", e.Op, e.Target, e.Err)
}

// Unwrap returns the underlying error for errors.Is and errors.As.
func (e *OpError) Unwrap() error {
	return e.Err
}

func opErr(op, target string, err error) error {
	return &OpError{Op: op, Target: target, Err: err}
}

func opErrID(op string, id layer.ID, err error) error {
	return &OpError{Op: op, Target: string(id), Err: err}
}

func opErrIndex(op string, index int, err error) error {
	return &OpError{Op: op, Target: fmt.Sprintf("index %d", index), Err: err}
}

func invalidOp(op, target, reason string) error {
	return &OpError{Op: op, Target: target, Err: fmt.Errorf("%w: %s", ErrInvalidOperation, reason)}
}
