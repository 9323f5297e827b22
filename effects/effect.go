package effects

import (
	"context"

	"github.com/on-the-ground/effect_ive_visual/effects/internal/handlers"
	"github.com/on-the-ground/effect_ive_visual/effects/internal/helper"
	effectmodel "github.com/on-the-ground/effect_ive_visual/effects/internal/model"
	sharedHelper "github.com/on-the-ground/effect_ive_visual/shared/helper"
	"go.uber.org/zap"
)

// WithFireAndForgetEffectHandler registers a fire-and-forget effect handler for a given effect enum.
//
// Suitable for one-shot effects like logging or sound cues.
// This handler executes without returning a result.
//
// Usage:
//
//	ctx, end := WithFireAndForgetEffectHandler(ctx, 16, MyEffectEnum, handleFn)
//	defer end()
func WithFireAndForgetEffectHandler[P any](
	ctx context.Context,
	bufferSize int,
	enum effectmodel.EffectEnum,
	handleFn func(context.Context, P),
	teardown ...func(),
) (context.Context, func() context.Context) {
	handler := handlers.NewFireAndForgetHandler(ctx, bufferSize, handleFn, normalizeTeardown(teardown))
	ctxWith := context.WithValue(ctx, enum, handler)
	zap.L().Debug("created fire/forget effect handler",
		zap.String("effectId", handler.EffectId),
		zap.String("enum", string(enum)),
	)

	return ctxWith, func() context.Context {
		handler.Close()
		return ctx
	}
}

// WithFireAndForgetPartitionableEffectHandler registers a partitioned fire-and-forget handler.
//
// Hash-based dispatching ensures that effects with the same PartitionKey() are handled
// by the same goroutine, in the order they were performed.
func WithFireAndForgetPartitionableEffectHandler[P effectmodel.Partitionable](
	ctx context.Context,
	config effectmodel.EffectScopeConfig,
	enum effectmodel.EffectEnum,
	handleFn func(context.Context, P),
	teardown ...func(),
) (context.Context, func() context.Context) {
	handler := handlers.NewPartitionableFireAndForgetHandler(ctx, config, handleFn, normalizeTeardown(teardown))
	ctxWith := context.WithValue(ctx, enum, handler)
	zap.L().Debug("created partitioned fire/forget effect handler",
		zap.String("effectId", handler.EffectId),
		zap.String("enum", string(enum)),
		zap.Int("numWorkers", config.NumWorkers),
	)

	return ctxWith, func() context.Context {
		handler.Close()
		return ctx
	}
}

// FireAndForgetEffect triggers a fire-and-forget effect for the given enum and payload.
//
// The handler will process the payload asynchronously.
// Panics if no handler is registered for the given enum.
func FireAndForgetEffect[P any](
	ctx context.Context,
	enum effectmodel.EffectEnum,
	payload P,
) bool {
	handler := sharedHelper.MustGetTypedValue[handlers.FireAndForgetHandler[P]](
		func() (any, error) {
			return helper.GetHandler(ctx, enum)
		},
	)
	return handler.FireAndForgetEffect(ctx, payload)
}

// TryFireAndForgetEffect is FireAndForgetEffect for optional effects.
// It reports false instead of panicking when no handler is registered.
func TryFireAndForgetEffect[P any](
	ctx context.Context,
	enum effectmodel.EffectEnum,
	payload P,
) bool {
	handler, err := sharedHelper.GetTypedValueOf[handlers.FireAndForgetHandler[P]](
		func() (any, error) {
			return helper.GetHandler(ctx, enum)
		},
	)
	if err != nil {
		return false
	}
	return handler.FireAndForgetEffect(ctx, payload)
}

// normalizeTeardown flattens optional teardown functions into a single callable.
//
// Accepts either 0 or 1 teardown functions. Panics if more than one is passed.
func normalizeTeardown(teardown []func()) func() {
	switch len(teardown) {
	case 1:
		return teardown[0]
	case 0:
		return func() {}
	default:
		panic("normalizeTeardown: only one or zero teardown functions allowed")
	}
}
