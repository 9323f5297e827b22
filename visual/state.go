package visual

import (
	"time"

	"github.com/on-the-ground/effect_ive_visual/effects"
	"github.com/on-the-ground/effect_ive_visual/visual/result"
)

type Kind string

const (
	KindIdle        Kind = "idle"
	KindRunning     Kind = "running"
	KindSucceeded   Kind = "succeeded"
	KindFailed      Kind = "failed"
	KindInterrupted Kind = "interrupted"
)

// State is one snapshot of a handle's lifecycle. The variants are Idle,
// Running, Succeeded, Failed and Interrupted.
type State interface {
	Kind() Kind
	String() string
	sealed()
}

type Idle struct{}

func (Idle) Kind() Kind     { return KindIdle }
func (Idle) String() string { return string(KindIdle) }
func (Idle) sealed()        {}

type Running struct {
	StartedAt time.Time
}

func (Running) Kind() Kind     { return KindRunning }
func (Running) String() string { return string(KindRunning) }
func (Running) sealed()        {}

type Succeeded struct {
	Value     result.Result
	StartedAt time.Time
	EndedAt   time.Time
}

func (Succeeded) Kind() Kind { return KindSucceeded }
func (s Succeeded) String() string {
	if s.Value == nil {
		return string(KindSucceeded)
	}
	return string(KindSucceeded) + ": " + s.Value.String()
}
func (s Succeeded) TimeSpan() effects.TimeSpan { return effects.NewTimeSpan(s.StartedAt, s.EndedAt) }
func (Succeeded) sealed()                      {}

type Failed struct {
	Err       error
	StartedAt time.Time
	EndedAt   time.Time
}

func (Failed) Kind() Kind { return KindFailed }
func (f Failed) String() string {
	if f.Err == nil {
		return string(KindFailed)
	}
	return string(KindFailed) + ": " + f.Err.Error()
}
func (f Failed) TimeSpan() effects.TimeSpan { return effects.NewTimeSpan(f.StartedAt, f.EndedAt) }
func (Failed) sealed()                      {}

type Interrupted struct {
	StartedAt time.Time
	EndedAt   time.Time
}

func (Interrupted) Kind() Kind                   { return KindInterrupted }
func (Interrupted) String() string               { return string(KindInterrupted) }
func (i Interrupted) TimeSpan() effects.TimeSpan { return effects.NewTimeSpan(i.StartedAt, i.EndedAt) }
func (Interrupted) sealed()                      {}

var (
	_ effects.TimeBounded = Succeeded{}
	_ effects.TimeBounded = Failed{}
	_ effects.TimeBounded = Interrupted{}
)

func IsTerminal(s State) bool {
	switch s.(type) {
	case Succeeded, Failed, Interrupted:
		return true
	default:
		return false
	}
}

// Elapsed is what a timer next to the state shows at now: the time spent so far
// while running, the run's duration once settled, zero when idle.
func Elapsed(s State, now time.Time) time.Duration {
	switch s := s.(type) {
	case Running:
		if now.Before(s.StartedAt) {
			return 0
		}
		return now.Sub(s.StartedAt)
	case effects.TimeBounded:
		return s.TimeSpan().Duration()
	default:
		return 0
	}
}

// terminalOf classifies how a run ended.
func terminalOf(value result.Result, err error, interrupted bool, startedAt, endedAt time.Time) State {
	if endedAt.Before(startedAt) {
		endedAt = startedAt
	}
	switch {
	case interrupted || (err != nil && IsInterruption(err)):
		return Interrupted{StartedAt: startedAt, EndedAt: endedAt}
	case err != nil:
		return Failed{Err: err, StartedAt: startedAt, EndedAt: endedAt}
	default:
		return Succeeded{Value: value, StartedAt: startedAt, EndedAt: endedAt}
	}
}
