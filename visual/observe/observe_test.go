package observe_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/on-the-ground/effect_ive_visual/visual"
	"github.com/on-the-ground/effect_ive_visual/visual/observe"
	"github.com/on-the-ground/effect_ive_visual/visual/result"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func gatedHandle(release <-chan struct{}) *visual.Handle {
	return visual.New("weatherAPI", func() visual.Computation {
		return func(ctx context.Context) (result.Result, error) {
			<-release
			return result.Temperature{Degrees: 72, Source: "Weather API"}, nil
		}
	})
}

func waitChanged(t *testing.T, o *observe.Observer) {
	t.Helper()
	select {
	case <-o.Changed():
	case <-time.After(time.Second):
		t.Fatal("no change notification")
	}
}

func TestObserver_SnapshotIdentityChangesOnEveryNotification(t *testing.T) {
	release := make(chan struct{})
	h := gatedHandle(release)

	o := observe.New(h)
	defer o.Close()

	first := o.Snapshot()
	require.NotNil(t, first)
	assert.Equal(t, visual.KindIdle, first.State.Kind())

	run := h.Run(context.Background())
	running := o.Snapshot()
	assert.NotSame(t, first, running)
	assert.Greater(t, running.Version, first.Version)
	assert.Equal(t, visual.KindRunning, running.State.Kind())

	close(release)
	<-run.Done()
	settled := o.Snapshot()
	assert.NotSame(t, running, settled)
	assert.Equal(t, visual.KindSucceeded, settled.State.Kind())

	// reset of an idle handle still produces a new snapshot
	h.Reset()
	idle := o.Snapshot()
	h.Reset()
	assert.NotSame(t, idle, o.Snapshot())
}

func TestObserver_ChangedCoalesces(t *testing.T) {
	h := visual.New("h", func() visual.Computation {
		return func(ctx context.Context) (result.Result, error) { return result.Number{Value: 1}, nil }
	})
	o := observe.New(h)
	defer o.Close()

	waitChanged(t, o)
	h.Reset()
	h.Reset()
	h.Reset()

	waitChanged(t, o)
	select {
	case <-o.Changed():
		t.Fatal("wake-ups should coalesce")
	default:
	}
}

func TestObserver_CloseStopsUpdates(t *testing.T) {
	h := visual.New("h", func() visual.Computation {
		return func(ctx context.Context) (result.Result, error) { return result.Number{Value: 1}, nil }
	})
	o := observe.New(h)
	before := o.Snapshot()

	o.Close()
	o.Close()
	h.Reset()

	assert.Same(t, before, o.Snapshot())
	select {
	case <-o.Done():
	default:
		t.Fatal("Done should be closed")
	}
}

func TestBind_ClosesWithContext(t *testing.T) {
	h := visual.New("h", func() visual.Computation {
		return func(ctx context.Context) (result.Result, error) { return result.Number{Value: 1}, nil }
	})
	ctx, cancel := context.WithCancel(context.Background())
	o := observe.Bind(ctx, h)

	cancel()
	select {
	case <-o.Done():
	case <-time.After(time.Second):
		t.Fatal("observer outlived its scope")
	}

	before := o.Snapshot()
	h.Reset()
	assert.Same(t, before, o.Snapshot())
}

func TestBind_DoneContextClosesRightAway(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	for i := 0; i < 200; i++ {
		o := observe.Bind(ctx, visual.New("x", nil))
		select {
		case <-o.Done():
		case <-time.After(time.Second):
			t.Fatal("observer bound to a done context stayed open")
		}
		o.Close()
	}
}

func TestWatch_SeesSettledState(t *testing.T) {
	release := make(chan struct{})
	h := gatedHandle(release)
	o := observe.New(h)

	var (
		mu    sync.Mutex
		kinds []visual.Kind
	)
	watched := make(chan struct{})
	go func() {
		defer close(watched)
		o.Watch(context.Background(), func(s *observe.Snapshot) {
			mu.Lock()
			kinds = append(kinds, s.State.Kind())
			mu.Unlock()
			if s.State.Kind() == visual.KindSucceeded {
				o.Close()
			}
		})
	}()

	run := h.Run(context.Background())
	close(release)
	<-run.Done()

	select {
	case <-watched:
	case <-time.After(time.Second):
		t.Fatal("watch did not end")
	}

	mu.Lock()
	defer mu.Unlock()
	require.NotEmpty(t, kinds)
	assert.Equal(t, visual.KindSucceeded, kinds[len(kinds)-1])
}
