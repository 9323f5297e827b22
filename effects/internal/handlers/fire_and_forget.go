package handlers

import (
	"context"

	effectmodel "github.com/on-the-ground/effect_ive_visual/effects/internal/model"
)

func NewFireAndForgetHandler[P any](
	ctx context.Context,
	bufferSize int,
	handleFn func(context.Context, P),
	teardown func(),
) FireAndForgetHandler[P] {
	ctx, cancel := context.WithCancel(ctx)
	return FireAndForgetHandler[P]{
		effectScope: newEffectScope(
			NewSingleLane(ctx, bufferSize, handleFn),
			cancel,
			teardown,
		),
	}
}

func NewPartitionableFireAndForgetHandler[P effectmodel.Partitionable](
	ctx context.Context,
	config effectmodel.EffectScopeConfig,
	handleFn func(context.Context, P),
	teardown func(),
) FireAndForgetHandler[P] {
	ctx, cancel := context.WithCancel(ctx)
	return FireAndForgetHandler[P]{
		effectScope: newEffectScope(
			NewPartitionedLanes(ctx, config.NumWorkers, config.BufferSize, handleFn),
			cancel,
			teardown,
		),
	}
}

type FireAndForgetHandler[P any] struct {
	*effectScope[P]
}

// FireAndForgetEffect enqueues payload without waiting for it to be handled.
// It reports false when the payload was dropped because either the caller's
// context or the handler scope ended first.
func (h FireAndForgetHandler[P]) FireAndForgetEffect(ctx context.Context, payload P) bool {
	select {
	case <-h.dispatcher.Done():
		return false
	default:
	}

	select {
	case <-ctx.Done():
		return false
	case <-h.dispatcher.Done():
		return false
	case h.dispatcher.LaneOf(payload) <- payload:
		return true
	}
}
