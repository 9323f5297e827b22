package compose_test

import (
	"context"
	"testing"
	"time"

	"github.com/on-the-ground/effect_ive_visual/visual"
	"github.com/on-the-ground/effect_ive_visual/visual/compose"
	"github.com/on-the-ground/effect_ive_visual/visual/result"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func gatedFactory(release <-chan struct{}, r result.Result, err error) visual.Factory {
	return func() visual.Computation {
		return func(ctx context.Context) (result.Result, error) {
			select {
			case <-release:
				return r, err
			case <-ctx.Done():
				return nil, ctx.Err()
			}
		}
	}
}

func TestGroup_RunAllStartsEveryHandleConcurrently(t *testing.T) {
	releaseA := make(chan struct{})
	releaseB := make(chan struct{})
	g := compose.New(map[string]visual.Factory{
		"A": gatedFactory(releaseA, result.Number{Value: 1}, nil),
		"B": gatedFactory(releaseB, nil, assert.AnError),
	})

	outcomes := g.RunAll(context.Background())
	require.Len(t, outcomes, 2)
	assert.Equal(t, visual.KindRunning, g.MustHandle("A").State().Kind())
	assert.Equal(t, visual.KindRunning, g.MustHandle("B").State().Kind())

	close(releaseB)
	<-outcomes["B"].Done()
	assert.Equal(t, visual.KindRunning, g.MustHandle("A").State().Kind())
	assert.Equal(t, visual.KindFailed, g.MustHandle("B").State().Kind())

	close(releaseA)
	<-outcomes["A"].Done()
	assert.Equal(t, "succeeded: 1", g.MustHandle("A").State().String())
}

func TestGroup_HandlesAreOwnedAndLabelled(t *testing.T) {
	g := compose.New(map[string]visual.Factory{
		"weatherAPI":  gatedFactory(nil, nil, nil),
		"localSensor": gatedFactory(nil, nil, nil),
	})

	assert.Equal(t, []string{"localSensor", "weatherAPI"}, g.Names())
	assert.Equal(t, 2, g.Len())

	h, ok := g.Handle("weatherAPI")
	require.True(t, ok)
	assert.Equal(t, "weatherAPI", h.Label())
	assert.Equal(t, visual.Idle{}, h.State())

	_, ok = g.Handle("missing")
	assert.False(t, ok)
	assert.Panics(t, func() { g.MustHandle("missing") })

	handles := g.Handles()
	delete(handles, "weatherAPI")
	_, ok = g.Handle("weatherAPI")
	assert.True(t, ok, "Handles must return a copy")

	other := compose.New(map[string]visual.Factory{"weatherAPI": gatedFactory(nil, nil, nil)})
	assert.NotSame(t, g.MustHandle("weatherAPI"), other.MustHandle("weatherAPI"))
}

func TestGroup_ResetAllAndInterruptAll(t *testing.T) {
	waitForCancel := func() visual.Computation {
		return func(ctx context.Context) (result.Result, error) {
			<-ctx.Done()
			return nil, ctx.Err()
		}
	}
	g := compose.New(map[string]visual.Factory{"A": waitForCancel, "B": waitForCancel})

	outcomes := g.RunAll(context.Background())
	g.InterruptAll()
	for _, o := range outcomes {
		<-o.Done()
	}
	assert.Equal(t, visual.KindInterrupted, g.MustHandle("A").State().Kind())
	assert.Equal(t, visual.KindInterrupted, g.MustHandle("B").State().Kind())

	g.RunAll(context.Background())
	g.ResetAll()
	assert.Equal(t, visual.Idle{}, g.MustHandle("A").State())
	assert.Equal(t, visual.Idle{}, g.MustHandle("B").State())
}

func TestGroup_WaitReturnsWhenNothingRuns(t *testing.T) {
	release := make(chan struct{})
	g := compose.New(map[string]visual.Factory{
		"A": gatedFactory(release, result.Number{Value: 1}, nil),
		"B": gatedFactory(release, result.Number{Value: 2}, nil),
	})
	require.NoError(t, g.Wait(context.Background()))

	g.RunAll(context.Background())

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	assert.ErrorIs(t, g.Wait(ctx), context.DeadlineExceeded)

	close(release)
	ctx, cancel = context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	require.NoError(t, g.Wait(ctx))
	assert.Equal(t, visual.KindSucceeded, g.MustHandle("A").State().Kind())
	assert.Equal(t, visual.KindSucceeded, g.MustHandle("B").State().Kind())
}

func TestRegistry_SameShapeSameGroup(t *testing.T) {
	r := compose.NewRegistry(4)

	first := r.Use(map[string]visual.Factory{
		"A": gatedFactory(nil, nil, nil),
		"B": gatedFactory(nil, nil, nil),
	})
	again := r.Use(map[string]visual.Factory{
		"B": gatedFactory(nil, nil, nil),
		"A": gatedFactory(nil, nil, nil),
	})
	other := r.Use(map[string]visual.Factory{
		"A": gatedFactory(nil, nil, nil),
	})

	assert.Same(t, first, again)
	assert.NotSame(t, first, other)
	assert.Same(t, first.MustHandle("A"), again.MustHandle("A"))
}

func shape(names ...string) map[string]visual.Factory {
	entries := make(map[string]visual.Factory, len(names))
	for _, name := range names {
		entries[name] = gatedFactory(nil, nil, nil)
	}
	return entries
}

func TestRegistry_BoundedForgetsOldShapes(t *testing.T) {
	r := compose.NewRegistry(1)

	a := r.Use(shape("A"))
	r.Use(shape("B"))
	r.Use(shape("C"))

	assert.NotSame(t, a, r.Use(shape("A")))
}

func TestRegistry_UnboundedKeepsEveryShape(t *testing.T) {
	r := compose.NewRegistry(0)

	a := r.Use(shape("A"))
	r.Use(shape("B"))
	r.Use(shape("C"))
	r.Use(shape("B", "C"))

	again := r.Use(shape("A"))
	assert.Same(t, a, again)
	assert.Same(t, a.MustHandle("A"), again.MustHandle("A"))
}

func TestRegistry_AppliesHandleOptions(t *testing.T) {
	start := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	r := compose.NewRegistry(4, visual.WithClock(fixedClock(start)))

	g := r.Use(map[string]visual.Factory{"A": gatedFactory(nil, nil, nil)})
	g.RunAll(context.Background())
	defer g.ResetAll()

	assert.Equal(t, visual.Running{StartedAt: start}, g.MustHandle("A").State())
}

type fixedClock time.Time

func (c fixedClock) Now() time.Time { return time.Time(c) }
