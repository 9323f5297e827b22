package visual

import (
	"context"
	"runtime/debug"
	"slices"
	"sync"
	"sync/atomic"

	"github.com/on-the-ground/effect_ive_visual/effects"
	"github.com/on-the-ground/effect_ive_visual/visual/result"
	"go.uber.org/zap"
)

// Computation is a unit of asynchronous work. It must return promptly once ctx
// is cancelled if it wants interruption to be visible before it finishes.
type Computation func(ctx context.Context) (result.Result, error)

// Factory builds a fresh Computation for every run.
type Factory func() Computation

// Handle is the execution state machine of one visualized computation.
//
// Transitions are serialized per handle and subscribers are notified from
// inside them. Subscriber callbacks may read State and unsubscribe; calling
// Run, Reset, Interrupt or Subscribe on the same handle from a callback
// deadlocks.
type Handle struct {
	label   string
	factory Factory
	clock   effects.Clock
	logger  *zap.Logger

	current atomic.Pointer[stateCell]

	mu       sync.Mutex
	token    uint64
	inflight *Outcome

	subsMu sync.Mutex
	subs   []subscriber
	nextID uint64
}

type stateCell struct {
	state State
}

type subscriber struct {
	id uint64
	fn func(State)
}

// New creates an idle handle. Nothing runs until Run is called.
func New(label string, factory Factory, opts ...Option) *Handle {
	h := &Handle{
		label:   label,
		factory: factory,
		clock:   effects.SystemClock,
		logger:  zap.NewNop(),
	}
	for _, opt := range opts {
		opt(h)
	}
	h.current.Store(&stateCell{state: Idle{}})
	return h
}

func (h *Handle) Label() string { return h.label }

// State returns the latest snapshot without blocking on a transition.
func (h *Handle) State() State {
	return h.current.Load().state
}

// Run starts a run, or returns the in-flight one if the handle is running.
//
// The handle is Running when Run returns. The computation itself runs on its
// own goroutine with a context derived from ctx.
func (h *Handle) Run(ctx context.Context) *Outcome {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.inflight != nil {
		return h.inflight
	}

	h.token++
	runCtx, cancel := context.WithCancelCause(ctx)
	o := newOutcome(h.token, h.clock.Now(), cancel)
	h.inflight = o
	h.transitionLocked(Running{StartedAt: o.startedAt}, o.token)

	computation, err := h.build()
	if err != nil {
		h.settleLocked(o, nil, err)
		return o
	}

	ready := make(chan struct{})
	go func() {
		close(ready)
		value, err := runSafely(runCtx, computation)

		h.mu.Lock()
		defer h.mu.Unlock()
		h.settleLocked(o, value, err)
	}()
	<-ready

	return o
}

// Reset abandons any in-flight run and returns the handle to Idle.
// Subscribers are notified even when the handle was already idle.
func (h *Handle) Reset() {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.token++
	if o := h.inflight; o != nil {
		o.cancel(ErrReset)
		h.inflight = nil
	}
	h.transitionLocked(Idle{}, h.token)
}

// Interrupt cancels the in-flight run. However that run then settles, the
// handle ends up Interrupted. It does nothing when the handle is not running.
func (h *Handle) Interrupt() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.interruptLocked(h.inflight)
}

func (h *Handle) interruptRun(o *Outcome) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.inflight == o {
		h.interruptLocked(o)
	}
}

func (h *Handle) interruptLocked(o *Outcome) {
	if o == nil || o.interrupted {
		return
	}
	o.interrupted = true
	o.cancel(ErrInterrupted)
}

// Subscribe calls fn with the current state right away and then once per
// transition, in subscription order. The returned function unsubscribes; it
// is idempotent and may be called from inside fn.
func (h *Handle) Subscribe(fn func(State)) (unsubscribe func()) {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.subsMu.Lock()
	h.nextID++
	id := h.nextID
	h.subs = append(h.subs, subscriber{id: id, fn: fn})
	h.subsMu.Unlock()

	h.notify(subscriber{id: id, fn: fn}, h.State())

	var once sync.Once
	return func() {
		once.Do(func() {
			h.subsMu.Lock()
			defer h.subsMu.Unlock()
			h.subs = slices.DeleteFunc(h.subs, func(s subscriber) bool { return s.id == id })
		})
	}
}

// Computation runs the handle as part of a larger computation and resolves with
// the run's result. If ctx ends first, the run is interrupted and the
// computation returns without waiting for it.
func (h *Handle) Computation() Computation {
	return func(ctx context.Context) (result.Result, error) {
		o := h.Run(ctx)
		select {
		case <-o.Done():
			return o.result()
		case <-ctx.Done():
			h.interruptRun(o)
			return nil, ctx.Err()
		}
	}
}

func (h *Handle) build() (computation Computation, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = &PanicError{Value: r, Stack: debug.Stack()}
		}
	}()
	if h.factory == nil {
		return nil, ErrNilComputation
	}
	if computation = h.factory(); computation == nil {
		return nil, ErrNilComputation
	}
	return computation, nil
}

func runSafely(ctx context.Context, computation Computation) (value result.Result, err error) {
	defer func() {
		if r := recover(); r != nil {
			value, err = nil, &PanicError{Value: r, Stack: debug.Stack()}
		}
	}()
	return computation(ctx)
}

func (h *Handle) settleLocked(o *Outcome, value result.Result, err error) {
	terminal := terminalOf(value, err, o.interrupted, o.startedAt, h.clock.Now())
	o.cancel(nil)

	if o.token != h.token {
		h.logger.Debug("discarded stale completion",
			zap.String("label", h.label),
			zap.String("runId", o.id),
			zap.Uint64("token", o.token),
			zap.Uint64("current", h.token),
			zap.String("state", string(terminal.Kind())),
		)
		o.finish(terminal, true)
		return
	}

	h.inflight = nil
	h.transitionLocked(terminal, o.token)
	o.finish(terminal, false)
}

func (h *Handle) transitionLocked(s State, token uint64) {
	h.current.Store(&stateCell{state: s})
	h.logger.Debug("transition",
		zap.String("label", h.label),
		zap.String("state", string(s.Kind())),
		zap.Uint64("token", token),
	)

	h.subsMu.Lock()
	subs := slices.Clone(h.subs)
	h.subsMu.Unlock()

	for _, sub := range subs {
		h.notify(sub, s)
	}
}

func (h *Handle) notify(sub subscriber, s State) {
	defer func() {
		if r := recover(); r != nil {
			h.logger.Error("panic in subscriber",
				zap.String("label", h.label),
				zap.Uint64("subscriber", sub.id),
				zap.Any("error", r),
			)
		}
	}()
	sub.fn(s)
}
