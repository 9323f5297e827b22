package handlers

import (
	"context"
	"sync"

	effectmodel "github.com/on-the-ground/effect_ive_visual/effects/internal/model"
	"go.uber.org/zap"
)

// Dispatcher routes effect messages to the worker lane that handles them.
//
// Workers stop when the dispatcher's context is cancelled. Messages already
// buffered in a lane at that moment are still handled before the worker exits,
// so closing a scope flushes pending log lines and sound cues.
type Dispatcher[T any] interface {
	LaneOf(msg T) chan<- T
	// Done is closed once the workers have been asked to stop.
	Done() <-chan struct{}
	// Wait blocks until every worker has drained its lane and exited.
	Wait()
}

type lanes struct {
	done <-chan struct{}
	wg   *sync.WaitGroup
}

func (l lanes) Done() <-chan struct{} { return l.done }
func (l lanes) Wait()                 { l.wg.Wait() }

// --- single lane ---

type singleLane[T any] struct {
	lanes
	ch chan T
}

func (q singleLane[T]) LaneOf(_ T) chan<- T {
	return q.ch
}

func NewSingleLane[T any](
	ctx context.Context,
	bufferSize int,
	handleFn func(context.Context, T),
) Dispatcher[T] {
	wg := &sync.WaitGroup{}
	return singleLane[T]{
		lanes: lanes{done: ctx.Done(), wg: wg},
		ch:    startLane(ctx, wg, bufferSize, handleFn),
	}
}

// --- partitioned lanes ---

type partitionedLanes[T effectmodel.Partitionable] struct {
	lanes
	chs []chan T
}

func (pq partitionedLanes[T]) LaneOf(msg T) chan<- T {
	return pq.chs[getIndexByHash(msg, len(pq.chs))]
}

func NewPartitionedLanes[T effectmodel.Partitionable](
	ctx context.Context,
	numWorkers, bufferSize int,
	handleFn func(context.Context, T),
) Dispatcher[T] {
	wg := &sync.WaitGroup{}
	chs := make([]chan T, numWorkers)
	for i := range chs {
		chs[i] = startLane(ctx, wg, bufferSize, handleFn)
	}
	return partitionedLanes[T]{
		lanes: lanes{done: ctx.Done(), wg: wg},
		chs:   chs,
	}
}

// startLane spawns one worker and returns its inbox once the worker is running.
func startLane[T any](
	ctx context.Context,
	wg *sync.WaitGroup,
	bufferSize int,
	handleFn func(context.Context, T),
) chan T {
	ch := make(chan T, bufferSize)
	ready := make(chan struct{})

	wg.Add(1)
	go func() {
		defer wg.Done()
		close(ready)
		for {
			select {
			case msg := <-ch:
				handleSafely(ctx, handleFn, msg)
			case <-ctx.Done():
				for {
					select {
					case msg := <-ch:
						handleSafely(ctx, handleFn, msg)
					default:
						return
					}
				}
			}
		}
	}()

	<-ready
	return ch
}

func handleSafely[T any](ctx context.Context, handleFn func(context.Context, T), msg T) {
	defer func() {
		if r := recover(); r != nil {
			zap.L().Error("panic in effect handler",
				zap.Any("payload", msg),
				zap.Any("error", r),
			)
		}
	}()
	handleFn(ctx, msg)
}
