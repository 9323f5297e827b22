package combinator

import (
	"context"
	"runtime/debug"
	"sync"

	"github.com/on-the-ground/effect_ive_visual/effects/log"
	"github.com/on-the-ground/effect_ive_visual/visual"
	"github.com/on-the-ground/effect_ive_visual/visual/result"
)

type childResult struct {
	index int
	value result.Result
	err   error
}

// supervisor runs children concurrently under one cancellable context and
// joins them on stop.
type supervisor struct {
	cancel  context.CancelCauseFunc
	wg      sync.WaitGroup
	results chan childResult
}

func supervise(ctx context.Context, cs []visual.Computation) *supervisor {
	ctx, cancel := context.WithCancelCause(ctx)
	s := &supervisor{
		cancel:  cancel,
		results: make(chan childResult, len(cs)),
	}

	ready := sync.WaitGroup{}
	for i, c := range cs {
		s.wg.Add(1)
		ready.Add(1)
		go func(i int, c visual.Computation) {
			defer s.wg.Done()
			res := childResult{index: i}
			defer func() {
				if r := recover(); r != nil {
					log.TryLogEff(ctx, log.LogError, "panic in child computation", map[string]interface{}{
						"index": i,
						"error": r,
					})
					res.value, res.err = nil, &visual.PanicError{Value: r, Stack: debug.Stack()}
				}
				s.results <- res
			}()
			ready.Done()
			res.value, res.err = c(ctx)
		}(i, c)
	}

	// every child is running before the caller starts collecting
	ready.Wait()
	return s
}

// stop cancels the children still running with cause and waits for all of them.
func (s *supervisor) stop(cause error) {
	s.cancel(cause)
	s.wg.Wait()
}
