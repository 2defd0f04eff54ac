package adapters

import (
	"context"
	"time"

	ports "github.com/ZanzyTHEbar/coding-assistant/assistant/generation/harness/ports"
	"github.com/rs/zerolog"
)

type spanLoggerKey struct{}

// ZerologTracer writes turn spans and state-transition events as structured log lines.
type ZerologTracer struct {
	logger zerolog.Logger
}

func NewZerologTracer(logger zerolog.Logger) *ZerologTracer {
	return &ZerologTracer{logger: logger.With().Str("component", "orchestrator").Logger()}
}

// StartSpan derives a span logger carrying attrs and stores it in ctx so
// events raised during the span inherit its fields.
func (t *ZerologTracer) StartSpan(ctx context.Context, name string, attrs map[string]any) (context.Context, func(err error)) {
	lc := t.logger.With().Str("span", name)
	for k, v := range attrs {
		lc = lc.Interface(k, v)
	}
	spanLogger := lc.Logger()
	ctx = context.WithValue(ctx, spanLoggerKey{}, spanLogger)

	startTime := time.Now()
	spanLogger.Debug().Str("event", "span_start").Msg("Starting span")

	finish := func(err error) {
		event := spanLogger.Info()
		if err != nil {
			event = spanLogger.Error().Err(err)
		}
		event.
			Str("event", "span_end").
			Dur("duration", time.Since(startTime)).
			Msg("Ending span")
	}

	return ctx, finish
}

// Event logs name under the span found in ctx, or the root logger otherwise.
func (t *ZerologTracer) Event(ctx context.Context, name string, attrs map[string]any) {
	logger, ok := ctx.Value(spanLoggerKey{}).(zerolog.Logger)
	if !ok {
		logger = t.logger
	}

	event := logger.Debug()
	for k, v := range attrs {
		event = event.Interface(k, v)
	}
	event.Str("event", name).Msg("Tracing event")
}

var _ ports.Tracer = (*ZerologTracer)(nil)
