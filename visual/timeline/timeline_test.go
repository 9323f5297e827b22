package timeline_test

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/on-the-ground/effect_ive_visual/effects"
	"github.com/on-the-ground/effect_ive_visual/visual"
	"github.com/on-the-ground/effect_ive_visual/visual/combinator"
	"github.com/on-the-ground/effect_ive_visual/visual/result"
	"github.com/on-the-ground/effect_ive_visual/visual/timeline"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var epoch = time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

func newRecorder(t *testing.T) *timeline.Recorder {
	t.Helper()
	r, err := timeline.NewRecorder(timeline.WithClock(effects.NewManualClock(epoch)))
	require.NoError(t, err)
	return r
}

func settle(t *testing.T, o *visual.Outcome) {
	t.Helper()
	select {
	case <-o.Done():
	case <-time.After(time.Second):
		t.Fatal("run did not settle")
	}
}

func kinds(events []timeline.Event) []visual.Kind {
	out := make([]visual.Kind, len(events))
	for i, ev := range events {
		out[i] = ev.Kind
	}
	return out
}

func TestRecorder_RecordsTransitionsInOrder(t *testing.T) {
	clock := effects.NewManualClock(epoch)
	h := visual.New("weatherAPI", func() visual.Computation {
		return func(ctx context.Context) (result.Result, error) {
			clock.Advance(time.Second)
			return result.Temperature{Degrees: 72, Source: "Weather API"}, nil
		}
	}, visual.WithClock(clock))

	rec := newRecorder(t)
	detach := rec.Attach("weatherAPI", h)
	defer detach()

	settle(t, h.Run(context.Background()))
	h.Reset()

	events := rec.Events("weatherAPI")
	assert.Equal(t, []visual.Kind{visual.KindRunning, visual.KindSucceeded, visual.KindIdle}, kinds(events))
	assert.Equal(t, epoch, events[0].At)
	assert.Equal(t, epoch.Add(time.Second), events[1].At)
	assert.Equal(t, "72° from Weather API", events[1].Detail)
	assert.Less(t, events[0].Seq, events[1].Seq)
	assert.NotEmpty(t, events[0].ID)

	last, ok := rec.Last("weatherAPI")
	require.True(t, ok)
	assert.Equal(t, visual.KindIdle, last.Kind)
}

func TestRecorder_CountsRetriesAsRuns(t *testing.T) {
	var calls atomic.Int32
	attempt := visual.New("attempt", func() visual.Computation {
		return func(ctx context.Context) (result.Result, error) {
			if calls.Add(1) < 3 {
				return nil, errors.New("flaky")
			}
			return result.Text{Value: "ok"}, nil
		}
	})
	retried := visual.New("result", func() visual.Computation {
		return combinator.Retry(attempt.Computation(), combinator.Policy{Times: 3})
	})

	rec := newRecorder(t)
	defer rec.Attach("attempt", attempt)()
	defer rec.Attach("result", retried)()

	settle(t, retried.Run(context.Background()))

	assert.Equal(t, 3, rec.Runs("attempt"))
	assert.Equal(t, 2, rec.Count("attempt", visual.KindFailed))
	assert.Equal(t, 1, rec.Count("attempt", visual.KindSucceeded))
	assert.Equal(t, 1, rec.Runs("result"))

	failed := rec.Events("attempt")[1]
	assert.Equal(t, "flaky", failed.Detail)
	assert.Len(t, rec.All(), 8)
}

func TestRecorder_DetachStopsRecording(t *testing.T) {
	h := visual.New("h", func() visual.Computation { return combinator.Succeed(result.Number{Value: 1}) })
	rec := newRecorder(t)

	detach := rec.Attach("h", h)
	h.Reset()
	detach()
	h.Reset()

	assert.Len(t, rec.Events("h"), 1)
}

func TestRecorder_Clear(t *testing.T) {
	rec := newRecorder(t)
	require.NoError(t, rec.Record("a", visual.Idle{}))
	require.NoError(t, rec.Record("b", visual.Idle{}))

	require.NoError(t, rec.Clear("a"))

	assert.Empty(t, rec.Events("a"))
	assert.Len(t, rec.Events("b"), 1)
	_, ok := rec.Last("a")
	assert.False(t, ok)
}

func TestRecorder_IdleEventsUseRecorderClock(t *testing.T) {
	rec := newRecorder(t)
	require.NoError(t, rec.Record("a", visual.Idle{}))

	ev, ok := rec.Last("a")
	require.True(t, ok)
	assert.Equal(t, epoch, ev.At)
	assert.Empty(t, ev.Detail)
}

func TestRecorder_ChunkWithNilItem(t *testing.T) {
	h := visual.New("collect", func() visual.Computation {
		return combinator.All(combinator.Succeed(result.Number{Value: 1}), combinator.Succeed(nil))
	})

	rec := newRecorder(t)
	defer rec.Attach("collect", h)()

	settle(t, h.Run(context.Background()))

	last, ok := rec.Last("collect")
	require.True(t, ok)
	assert.Equal(t, visual.KindSucceeded, last.Kind)
	assert.Equal(t, "Chunk(1, nil)", last.Detail)
}
