package middleware

import (
	"log"
	"strconv"
	"time"

	"github.com/KirkDiggler/pokemon-pf1-sheet/internal/discord/v2/core"
	"github.com/KirkDiggler/pokemon-pf1-sheet/internal/uuid"
)

type requestIDKey struct{}

// LogConfig configures logging behavior
type LogConfig struct {
	// LogRequests logs incoming interactions
	LogRequests bool

	// LogDuration logs handler execution time
	LogDuration bool

	// LogErrors logs errors returned by the wrapped handler
	LogErrors bool

	// Logf receives formatted log lines; defaults to log.Printf
	Logf func(format string, args ...interface{})
}

// DefaultLogConfig returns sensible defaults
func DefaultLogConfig() *LogConfig {
	return &LogConfig{
		LogRequests: true,
		LogDuration: true,
		LogErrors:   true,
		Logf:        log.Printf,
	}
}

// LoggingMiddleware provides request/response logging
func LoggingMiddleware(config *LogConfig) core.Middleware {
	if config == nil {
		config = DefaultLogConfig()
	}
	logf := config.Logf
	if logf == nil {
		logf = log.Printf
	}

	return func(next core.Handler) core.Handler {
		return core.HandlerFunc(func(ctx *core.InteractionContext) (*core.HandlerResult, error) {
			name := interactionName(ctx)
			if config.LogRequests {
				logf("[Discord] %s %s, User: %s, Guild: %s", interactionType(ctx), name, ctx.UserID, ctx.GuildID)
			}

			start := time.Now()
			result, err := next.Handle(ctx)
			duration := time.Since(start)

			if err != nil && config.LogErrors {
				logf("[Discord] Error in %s: %v", name, err)
			}
			if config.LogDuration {
				logf("[Discord] %s completed in %v", name, duration)
			}

			return result, err
		})
	}
}

// MetricsCollector collects interaction metrics
type MetricsCollector interface {
	IncrementCounter(name string, labels map[string]string)
	ObserveHistogram(name string, value float64, labels map[string]string)
}

// Metric names emitted by MetricsMiddleware
const (
	MetricInteractions        = "discord_interactions_total"
	MetricInteractionErrors   = "discord_interactions_errors_total"
	MetricInteractionDuration = "discord_interaction_duration_seconds"
)

// MetricsMiddleware tracks handler metrics
func MetricsMiddleware(collector MetricsCollector) core.Middleware {
	return func(next core.Handler) core.Handler {
		return core.HandlerFunc(func(ctx *core.InteractionContext) (*core.HandlerResult, error) {
			labels := extractLabels(ctx)
			collector.IncrementCounter(MetricInteractions, labels)

			start := time.Now()
			result, err := next.Handle(ctx)
			collector.ObserveHistogram(MetricInteractionDuration, time.Since(start).Seconds(), labels)

			if err != nil {
				errorLabels := make(map[string]string, len(labels)+1)
				for k, v := range labels {
					errorLabels[k] = v
				}
				errorLabels["error_code"] = strconv.Itoa(core.FromError(err).Code)
				collector.IncrementCounter(MetricInteractionErrors, errorLabels)
			}

			return result, err
		})
	}
}

// extractLabels builds a fixed label set so every series has the same keys
func extractLabels(ctx *core.InteractionContext) map[string]string {
	labels := map[string]string{
		"interaction_type": interactionType(ctx),
		"action":           "",
	}

	switch {
	case ctx.IsCommand():
		labels["action"] = ctx.GetSubcommand()
	case ctx.IsComponent(), ctx.IsModal():
		if parsed, err := core.ParseCustomID(ctx.GetCustomID()); err == nil {
			labels["action"] = parsed.Action
		}
	}

	return labels
}

func interactionType(ctx *core.InteractionContext) string {
	switch {
	case ctx.IsCommand():
		return "command"
	case ctx.IsComponent():
		return "component"
	case ctx.IsModal():
		return "modal"
	default:
		return "unknown"
	}
}

func interactionName(ctx *core.InteractionContext) string {
	switch {
	case ctx.IsCommand():
		if sub := ctx.GetSubcommand(); sub != "" {
			return ctx.GetCommandName() + "/" + sub
		}
		return ctx.GetCommandName()
	case ctx.IsComponent(), ctx.IsModal():
		if parsed, err := core.ParseCustomID(ctx.GetCustomID()); err == nil {
			return parsed.Domain + ":" + parsed.Action
		}
		return ctx.GetCustomID()
	default:
		return "unknown"
	}
}

// RequestIDMiddleware tags each interaction with a request id
func RequestIDMiddleware(ids uuid.Generator) core.Middleware {
	if ids == nil {
		ids = uuid.NewGoogleUUIDGenerator()
	}

	return func(next core.Handler) core.Handler {
		return core.HandlerFunc(func(ctx *core.InteractionContext) (*core.HandlerResult, error) {
			requestID := ids.New()
			ctx.WithValue(requestIDKey{}, requestID)
			log.Printf("[%s] Starting %s", requestID, interactionName(ctx))

			return next.Handle(ctx)
		})
	}
}

// RequestID returns the id set by RequestIDMiddleware
func RequestID(ctx *core.InteractionContext) string {
	id, _ := ctx.Value(requestIDKey{}).(string)
	return id
}
