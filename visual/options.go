package visual

import (
	"github.com/on-the-ground/effect_ive_visual/effects"
	"go.uber.org/zap"
)

type Option func(*Handle)

// WithClock sets the clock that stamps StartedAt and EndedAt.
func WithClock(clock effects.Clock) Option {
	return func(h *Handle) {
		if clock != nil {
			h.clock = clock
		}
	}
}

// WithLogger sets the logger for transitions and discarded completions.
// Everything is logged at debug level.
func WithLogger(logger *zap.Logger) Option {
	return func(h *Handle) {
		if logger != nil {
			h.logger = logger
		}
	}
}
