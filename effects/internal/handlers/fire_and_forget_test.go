package handlers_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/on-the-ground/effect_ive_visual/effects/internal/handlers"
	effectmodel "github.com/on-the-ground/effect_ive_visual/effects/internal/model"
	"github.com/stretchr/testify/assert"
)

func TestFireAndForgetHandler_BasicExecution(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	done := make(chan string, 1)
	handler := handlers.NewFireAndForgetHandler(
		ctx,
		10,
		func(ctx context.Context, msg string) {
			done <- msg
		},
		nil,
	)
	defer handler.Close()

	assert.True(t, handler.FireAndForgetEffect(ctx, "running"))

	select {
	case got := <-done:
		assert.Equal(t, "running", got)
	case <-time.After(1 * time.Second):
		t.Fatal("timeout waiting for handler")
	}
}

func TestFireAndForgetHandler_CancelledCallerDropsPayload(t *testing.T) {
	ctx := context.Background()

	var called bool
	handler := handlers.NewFireAndForgetHandler(
		ctx,
		0,
		func(ctx context.Context, msg string) {
			called = true
		},
		nil,
	)

	callerCtx, cancel := context.WithCancel(ctx)
	cancel()

	handler.Close()
	assert.False(t, handler.FireAndForgetEffect(callerCtx, "should-not-send"))
	assert.False(t, called, "handler should not have been called")
}

func TestFireAndForgetHandler_CloseFlushesThenTearsDown(t *testing.T) {
	ctx := context.Background()

	var (
		mu    sync.Mutex
		order []string
	)
	record := func(s string) {
		mu.Lock()
		order = append(order, s)
		mu.Unlock()
	}

	handler := handlers.NewPartitionableFireAndForgetHandler(
		ctx,
		effectmodel.NewEffectScopeConfig(10, 2),
		func(ctx context.Context, msg labelled) {
			record(msg.label)
		},
		func() { record("teardown") },
	)

	handler.FireAndForgetEffect(ctx, labelled{label: "a"})
	handler.FireAndForgetEffect(ctx, labelled{label: "a"})
	handler.Close()
	handler.Close()

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, []string{"a", "a", "teardown"}, order)
	assert.False(t, handler.FireAndForgetEffect(ctx, labelled{label: "late"}))
}
