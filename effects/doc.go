// Package effects is the effect runtime underneath the visualization engine.
//
// Side effects that the engine and its demos need but must not hard-wire,
// such as logging, supervised goroutines and sound cues, are delegated to
// handlers scoped on a context.Context. A handler is installed with a
// `WithXxxEffectHandler(ctx, ...)` function which returns the extended
// context and a teardown, and is performed through the matching `Eff`
// function of its package.
//
// Handlers are fire-and-forget: a performed payload is queued to a worker
// lane and handled asynchronously. Partitioned handlers keep payloads with
// the same PartitionKey on the same lane, so per-key ordering holds.
// Closing a handler flushes what was already queued before its teardown runs.
//
// Example:
//
//	func play(ctx context.Context) {
//	    ctx, endOfLog := log.WithZapEffectHandler(ctx, 16, zap.NewExample())
//	    defer endOfLog()
//
//	    log.LogEff(ctx, log.LogInfo, "demo started", nil)
//	}
//
// The package also defines the Clock consumed by the state machine and the
// TimeSpan used to describe how long a run took.
package effects
