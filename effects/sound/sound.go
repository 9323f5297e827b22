// Package sound turns state transitions into sound cues.
//
// Playing audio is left to the player function given to WithEffectHandler.
// Whether cues are heard is decided by a Mute value the caller owns and
// passes in; there is no package-level mute flag.
package sound

import (
	"context"
	"sync/atomic"

	"github.com/on-the-ground/effect_ive_visual/effects"
	effectmodel "github.com/on-the-ground/effect_ive_visual/effects/internal/model"
	"github.com/on-the-ground/effect_ive_visual/visual"
	"github.com/on-the-ground/effect_ive_visual/visual/observe"
)

type Cue string

const (
	CueStart     Cue = "start"
	CueSuccess   Cue = "success"
	CueFailure   Cue = "failure"
	CueInterrupt Cue = "interrupt"
	CueReset     Cue = "reset"
)

// CueFor maps a state kind to the cue played when a handle enters it.
func CueFor(kind visual.Kind) (Cue, bool) {
	switch kind {
	case visual.KindRunning:
		return CueStart, true
	case visual.KindSucceeded:
		return CueSuccess, true
	case visual.KindFailed:
		return CueFailure, true
	case visual.KindInterrupted:
		return CueInterrupt, true
	case visual.KindIdle:
		return CueReset, true
	default:
		return "", false
	}
}

// Mute is shared mute state. The zero value is unmuted.
type Mute struct {
	muted atomic.Bool
}

func NewMute(muted bool) *Mute {
	m := &Mute{}
	m.muted.Store(muted)
	return m
}

func (m *Mute) Muted() bool { return m.muted.Load() }

func (m *Mute) Set(muted bool) { m.muted.Store(muted) }

// Toggle flips the state and returns the new one.
func (m *Mute) Toggle() bool {
	for {
		old := m.muted.Load()
		if m.muted.CompareAndSwap(old, !old) {
			return !old
		}
	}
}

// Payload is one cue for one handle.
type Payload struct {
	Label string
	Cue   Cue
}

// PartitionKey keeps the cues of one handle in order.
func (p Payload) PartitionKey() string {
	return p.Label
}

// WithEffectHandler installs the sound effect. Cues are handed to play on
// numWorkers lanes partitioned by label, unless mute is muted at the time the
// cue is handled. A nil mute never mutes.
func WithEffectHandler(
	ctx context.Context,
	bufferSize, numWorkers int,
	mute *Mute,
	play func(context.Context, Payload),
) (context.Context, func() context.Context) {
	if mute == nil {
		mute = &Mute{}
	}
	return effects.WithFireAndForgetPartitionableEffectHandler(
		ctx,
		effectmodel.NewEffectScopeConfig(bufferSize, numWorkers),
		effectmodel.EffectSound,
		func(ctx context.Context, payload Payload) {
			if mute.Muted() {
				return
			}
			play(ctx, payload)
		},
	)
}

// Eff performs a cue. It reports false when no sound handler is installed or
// the cue was dropped.
func Eff(ctx context.Context, label string, cue Cue) bool {
	return effects.TryFireAndForgetEffect(ctx, effectmodel.EffectSound, Payload{Label: label, Cue: cue})
}

// Attach plays the cue of every transition src reports under label. The state
// replayed on subscription is not a transition and plays nothing.
func Attach(ctx context.Context, label string, src observe.Subscribable) (detach func()) {
	replayed := false
	return src.Subscribe(func(s visual.State) {
		if !replayed {
			replayed = true
			return
		}
		if cue, ok := CueFor(s.Kind()); ok {
			Eff(ctx, label, cue)
		}
	})
}
