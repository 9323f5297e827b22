// Package observe adapts the push notifications of a visual.Handle to readers
// that pull.
//
// Every notification produces a new *Snapshot with a higher version, so a
// renderer can detect change by pointer identity alone.
package observe

import (
	"context"
	"sync"
	"sync/atomic"

	"github.com/on-the-ground/effect_ive_visual/visual"
)

// Subscribable is anything that replays its current state and then reports
// transitions, such as *visual.Handle.
type Subscribable interface {
	Subscribe(func(visual.State)) (unsubscribe func())
}

var _ Subscribable = (*visual.Handle)(nil)

type Snapshot struct {
	State   visual.State
	Version uint64
}

type Observer struct {
	current atomic.Pointer[Snapshot]
	version atomic.Uint64
	changed chan struct{}
	done    chan struct{}

	unsubscribe func()
	closeOnce   sync.Once

	stopMu sync.Mutex
	stop   func() bool
}

// New subscribes to src. The first snapshot is available immediately.
func New(src Subscribable) *Observer {
	o := &Observer{
		changed: make(chan struct{}, 1),
		done:    make(chan struct{}),
	}
	o.unsubscribe = src.Subscribe(o.update)
	return o
}

// Bind is New tied to the lifetime of ctx: the observer closes when ctx ends.
// An observer bound to a context that is already done comes back closed.
func Bind(ctx context.Context, src Subscribable) *Observer {
	o := New(src)
	stop := context.AfterFunc(ctx, o.Close)

	o.stopMu.Lock()
	o.stop = stop
	o.stopMu.Unlock()
	return o
}

func (o *Observer) update(s visual.State) {
	select {
	case <-o.done:
		return
	default:
	}
	o.current.Store(&Snapshot{State: s, Version: o.version.Add(1)})
	select {
	case o.changed <- struct{}{}:
	default:
	}
}

func (o *Observer) Snapshot() *Snapshot {
	return o.current.Load()
}

// Changed receives a value after one or more new snapshots. Wake-ups coalesce,
// so a slow reader only ever sees the latest snapshot.
func (o *Observer) Changed() <-chan struct{} {
	return o.changed
}

// Done is closed by Close.
func (o *Observer) Done() <-chan struct{} {
	return o.done
}

// Close unsubscribes. It is idempotent.
func (o *Observer) Close() {
	o.closeOnce.Do(func() {
		close(o.done)

		o.stopMu.Lock()
		stop := o.stop
		o.stopMu.Unlock()
		if stop != nil {
			stop()
		}
		o.unsubscribe()
	})
}

// Watch calls fn with the current snapshot and then with every newer one
// until ctx ends or the observer is closed. fn runs on the caller's goroutine.
func (o *Observer) Watch(ctx context.Context, fn func(*Snapshot)) {
	last := o.Snapshot()
	fn(last)
	for {
		select {
		case <-ctx.Done():
			return
		case <-o.done:
			return
		case <-o.changed:
			if s := o.Snapshot(); s != last {
				last = s
				fn(s)
			}
		}
	}
}
