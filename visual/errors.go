package visual

import (
	"context"
	"errors"
	"fmt"
)

var (
	// ErrInterrupted is the cancellation cause of a run stopped by Interrupt.
	ErrInterrupted = errors.New("visual: run interrupted")

	// ErrReset is the cancellation cause of a run abandoned by Reset, and what
	// awaiting a discarded outcome yields.
	ErrReset = errors.New("visual: run reset")

	ErrNilComputation = errors.New("visual: factory returned a nil computation")
)

// PanicError carries a panic recovered from a factory or a computation.
type PanicError struct {
	Value any
	Stack []byte
}

func (e *PanicError) Error() string {
	return fmt.Sprintf("visual: computation panicked: %v", e.Value)
}

func (e *PanicError) Unwrap() error {
	if err, ok := e.Value.(error); ok {
		return err
	}
	return nil
}

// IsInterruption reports whether err means a run was stopped rather than failed.
// Deadlines and timeouts are failures.
func IsInterruption(err error) bool {
	return errors.Is(err, ErrInterrupted) ||
		errors.Is(err, ErrReset) ||
		errors.Is(err, context.Canceled)
}
