package handlers

import (
	"context"
	"sync"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// effectScope ties a dispatcher to the lifetime of one handler registration.
//
// Close cancels the workers, waits for them to drain, then runs the teardown.
// Close is idempotent and safe to call from several goroutines.
type effectScope[T any] struct {
	EffectId   string
	dispatcher Dispatcher[T]
	cancel     context.CancelFunc
	teardown   func()
	closeOnce  sync.Once
}

func (es *effectScope[T]) Close() {
	es.closeOnce.Do(func() {
		es.cancel()
		es.dispatcher.Wait()
		es.teardown()
		zap.L().Debug("effect scope closed", zap.String("effectId", es.EffectId))
	})
}

// Closed is closed once Close has started.
func (es *effectScope[T]) Closed() <-chan struct{} {
	return es.dispatcher.Done()
}

func newEffectScope[T any](
	dispatcher Dispatcher[T],
	cancel context.CancelFunc,
	teardown func(),
) *effectScope[T] {
	if teardown == nil {
		teardown = func() {}
	}
	return &effectScope[T]{
		EffectId:   uuid.New().String(),
		dispatcher: dispatcher,
		cancel:     cancel,
		teardown:   teardown,
	}
}
