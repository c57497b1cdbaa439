package middleware

import (
	"errors"
	"fmt"
	"log"

	"github.com/KirkDiggler/pokemon-pf1-sheet/internal/discord/v2/core"
)

// ErrorConfig configures error handling behavior
type ErrorConfig struct {
	// LogErrors controls whether errors are logged
	LogErrors bool

	// ErrorLogger allows custom logging
	ErrorLogger ErrorLogger
}

// ErrorLogger logs errors
type ErrorLogger func(ctx *core.InteractionContext, err *core.HandlerError)

// DefaultErrorConfig returns sensible defaults
func DefaultErrorConfig() *ErrorConfig {
	return &ErrorConfig{
		LogErrors:   true,
		ErrorLogger: defaultErrorLogger,
	}
}

// ErrorMiddleware turns handler errors into ephemeral replies. Coded
// application errors are mapped with core.FromError.
func ErrorMiddleware(config *ErrorConfig) core.Middleware {
	if config == nil {
		config = DefaultErrorConfig()
	}

	return func(next core.Handler) core.Handler {
		return core.HandlerFunc(func(ctx *core.InteractionContext) (*core.HandlerResult, error) {
			result, err := next.Handle(ctx)
			if err == nil {
				return result, nil
			}

			handlerErr := core.FromError(err)
			if config.LogErrors && config.ErrorLogger != nil {
				config.ErrorLogger(ctx, handlerErr)
			}

			message := handlerErr.UserMessage
			if !handlerErr.ShowToUser || message == "" {
				message = "An error occurred while processing your request."
			}

			return &core.HandlerResult{
				Response: core.NewEphemeralResponse("❌ " + message),
				Context: map[string]interface{}{
					"error": err,
				},
			}, nil
		})
	}
}

// RecoveryMiddleware recovers from panics
func RecoveryMiddleware() core.Middleware {
	return func(next core.Handler) core.Handler {
		return core.HandlerFunc(func(ctx *core.InteractionContext) (result *core.HandlerResult, err error) {
			defer func() {
				if r := recover(); r != nil {
					var panicErr error
					switch v := r.(type) {
					case error:
						panicErr = v
					case string:
						panicErr = errors.New(v)
					default:
						panicErr = fmt.Errorf("panic: %v", r)
					}
					log.Printf("Panic recovered in %s: %v", interactionName(ctx), panicErr)

					result = &core.HandlerResult{
						Response: core.NewEphemeralResponse("An unexpected error occurred. Please try again later."),
						Context:  map[string]interface{}{"error": panicErr},
					}
					err = nil
				}
			}()

			return next.Handle(ctx)
		})
	}
}

func defaultErrorLogger(ctx *core.InteractionContext, err *core.HandlerError) {
	logCtx := map[string]interface{}{
		"user_id":    ctx.UserID,
		"guild_id":   ctx.GuildID,
		"channel_id": ctx.ChannelID,
		"code":       err.Code,
	}

	switch {
	case ctx.IsCommand():
		logCtx["command"] = ctx.GetCommandName()
		logCtx["subcommand"] = ctx.GetSubcommand()
	case ctx.IsComponent(), ctx.IsModal():
		logCtx["custom_id"] = ctx.GetCustomID()
	}
	if id := RequestID(ctx); id != "" {
		logCtx["request_id"] = id
	}

	log.Printf("Handler error: %v, context: %+v", err, logCtx)
}
