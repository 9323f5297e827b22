package concurrency

import (
	"context"
	"runtime/debug"
	"sync"

	"github.com/on-the-ground/effect_ive_visual/effects"
	effectmodel "github.com/on-the-ground/effect_ive_visual/effects/internal/model"
	"github.com/on-the-ground/effect_ive_visual/effects/log"
)

// WithEffectHandler installs a fire-and-forget concurrency effect handler.
//
// It allows `Eff(ctx, fns...)` to spawn goroutines under a managed scope.
// Every child receives a context derived from ctx, so cancelling ctx reaches
// all of them. The returned function blocks until every spawned child has
// returned and then hands back the original context.
func WithEffectHandler(
	ctx context.Context,
	bufferSize int,
) (context.Context, func() context.Context) {
	sv := &supervisor{parent: ctx}

	return effects.WithFireAndForgetEffectHandler(
		ctx,
		bufferSize,
		effectmodel.EffectConcurrency,
		sv.spawnChildren,
		sv.waitChildren,
	)
}

// Eff spawns each function in its own supervised goroutine.
// Panics if no concurrency handler is installed.
func Eff(ctx context.Context, fns ...func(context.Context)) {
	effects.FireAndForgetEffect(ctx, effectmodel.EffectConcurrency, ConcurrencyPayload(fns))
}

type ConcurrencyPayload []func(context.Context)

// supervisor owns the children spawned through one handler scope.
type supervisor struct {
	parent  context.Context
	wg      sync.WaitGroup
	mu      sync.Mutex
	cancels []context.CancelFunc
}

func (s *supervisor) spawnChildren(_ context.Context, fns ConcurrencyPayload) {
	ready := sync.WaitGroup{}

	for _, fn := range fns {
		childCtx, cancel := context.WithCancel(s.parent)
		s.mu.Lock()
		s.cancels = append(s.cancels, cancel)
		s.mu.Unlock()

		s.wg.Add(1)
		ready.Add(1)
		go func(f func(context.Context)) {
			defer s.wg.Done()
			defer func() {
				if r := recover(); r != nil {
					log.TryLogEff(s.parent, log.LogError, "panic in child routine", map[string]interface{}{
						"error": r,
						"stack": string(debug.Stack()),
					})
				}
			}()
			ready.Done()
			f(childCtx)
		}(fn)
	}

	// children are running before the next payload is handled
	ready.Wait()
}

func (s *supervisor) waitChildren() {
	log.TryLogEff(s.parent, log.LogDebug, "waiting for all routines to finish", nil)
	s.wg.Wait()

	s.mu.Lock()
	for _, cancel := range s.cancels {
		cancel()
	}
	s.cancels = nil
	s.mu.Unlock()
	log.TryLogEff(s.parent, log.LogDebug, "all routines finished", nil)
}
