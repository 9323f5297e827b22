package log

import (
	"context"

	"github.com/on-the-ground/effect_ive_visual/effects"
	effectmodel "github.com/on-the-ground/effect_ive_visual/effects/internal/model"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest"
)

// LogLevel defines the severity level for log messages.
type LogLevel string

const (
	// LogInfo is used for general informational messages.
	LogInfo LogLevel = "info"

	// LogWarn is used for potentially harmful situations.
	LogWarn LogLevel = "warn"

	// LogError is used for error events that might still allow the application to continue running.
	LogError LogLevel = "error"

	// LogDebug is used for debugging messages with detailed internal information.
	LogDebug LogLevel = "debug"
)

// LogPayload is the payload structure for logging effect.
// It contains the log level, message string, and optional structured fields.
type LogPayload struct {
	Level   LogLevel
	Message string
	Fields  map[string]interface{}
}

// WithZapEffectHandler registers a fire-and-forget log effect handler using zap.Logger.
// The returned context includes the handler under the EffectLog enum.
// The teardown flushes queued log lines and syncs the logger; use the context
// it returns for further operations.
func WithZapEffectHandler(
	ctx context.Context,
	bufferSize int,
	logger *zap.Logger,
) (context.Context, func() context.Context) {
	return effects.WithFireAndForgetEffectHandler(
		ctx,
		bufferSize,
		effectmodel.EffectLog,
		func(ctx context.Context, payload LogPayload) {
			write(logger, payload)
		},
		func() {
			// stdout/stderr sinks report EINVAL on Sync; nothing to do about it here.
			_ = logger.Sync()
		},
	)
}

func write(logger *zap.Logger, payload LogPayload) {
	fields := make([]zap.Field, 0, len(payload.Fields))
	for k, v := range payload.Fields {
		fields = append(fields, zap.Any(k, v))
	}

	switch payload.Level {
	case LogWarn:
		logger.Warn(payload.Message, fields...)
	case LogError:
		logger.Error(payload.Message, fields...)
	case LogDebug:
		logger.Debug(payload.Message, fields...)
	default:
		logger.Info(payload.Message, fields...)
	}
}

// LogEff performs a fire-and-forget log effect using the EffectLog handler in the context.
// Panics if no log handler is installed.
func LogEff(ctx context.Context, level LogLevel, msg string, fields map[string]interface{}) {
	effects.FireAndForgetEffect(ctx, effectmodel.EffectLog, LogPayload{
		Level:   level,
		Message: msg,
		Fields:  fields,
	})
}

// TryLogEff is LogEff for library code that may run without a log scope.
func TryLogEff(ctx context.Context, level LogLevel, msg string, fields map[string]interface{}) {
	effects.TryFireAndForgetEffect(ctx, effectmodel.EffectLog, LogPayload{
		Level:   level,
		Message: msg,
		Fields:  fields,
	})
}

// WithTestEffectHandler installs a log handler that writes through t at debug
// level, so log lines show up next to the test that produced them. End the
// scope before the test returns.
func WithTestEffectHandler(
	ctx context.Context,
	t zaptest.TestingT,
) (context.Context, func() context.Context) {
	return WithZapEffectHandler(ctx, 16, zaptest.NewLogger(t, zaptest.Level(zap.DebugLevel)))
}
