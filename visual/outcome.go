package visual

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/on-the-ground/effect_ive_visual/visual/result"
)

// Outcome is one run of a handle. It settles exactly once.
type Outcome struct {
	id        string
	token     uint64
	startedAt time.Time
	cancel    context.CancelCauseFunc
	done      chan struct{}

	// guarded by the owning handle's mutex
	interrupted bool

	// written once before done is closed
	terminal  State
	discarded bool
}

func newOutcome(token uint64, startedAt time.Time, cancel context.CancelCauseFunc) *Outcome {
	return &Outcome{
		id:        uuid.NewString(),
		token:     token,
		startedAt: startedAt,
		cancel:    cancel,
		done:      make(chan struct{}),
	}
}

func (o *Outcome) ID() string { return o.id }

func (o *Outcome) StartedAt() time.Time { return o.startedAt }

// Done is closed once the run has settled and its subscribers were notified.
func (o *Outcome) Done() <-chan struct{} { return o.done }

// State is Running until the run settles, then its terminal state. A discarded
// run still reports how it ended even though the handle never showed it.
func (o *Outcome) State() State {
	select {
	case <-o.done:
		return o.terminal
	default:
		return Running{StartedAt: o.startedAt}
	}
}

// Discarded reports whether the run settled after a Reset had abandoned it.
func (o *Outcome) Discarded() bool {
	select {
	case <-o.done:
		return o.discarded
	default:
		return false
	}
}

// Await blocks until the run settles or ctx ends.
//
// A succeeded run yields its value, a failed run its error, an interrupted run
// ErrInterrupted and a discarded run ErrReset.
func (o *Outcome) Await(ctx context.Context) (result.Result, error) {
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case <-o.done:
		return o.result()
	}
}

func (o *Outcome) result() (result.Result, error) {
	if o.discarded {
		return nil, ErrReset
	}
	switch s := o.terminal.(type) {
	case Succeeded:
		return s.Value, nil
	case Failed:
		return nil, s.Err
	default:
		return nil, ErrInterrupted
	}
}

func (o *Outcome) finish(terminal State, discarded bool) {
	o.terminal = terminal
	o.discarded = discarded
	close(o.done)
}
