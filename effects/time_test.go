package effects_test

import (
	"testing"
	"time"

	"github.com/on-the-ground/effect_ive_visual/effects"
	"github.com/stretchr/testify/assert"
)

func TestNewTimeSpan_ClampsReversedBounds(t *testing.T) {
	start := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

	span := effects.NewTimeSpan(start, start.Add(-time.Second))
	assert.Equal(t, time.Duration(0), span.Duration())

	span = effects.NewTimeSpan(start, start.Add(300*time.Millisecond))
	assert.Equal(t, 300*time.Millisecond, span.Duration())
	assert.True(t, span.Start().Equal(start))
}

func TestManualClock_Advance(t *testing.T) {
	start := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	clock := effects.NewManualClock(start)

	assert.Equal(t, start, clock.Now())
	assert.Equal(t, start.Add(time.Second), clock.Advance(time.Second))
	assert.Equal(t, start.Add(time.Second), clock.Now())
}
