package v2

import (
	"context"
	"errors"
	"log"
	"time"

	"github.com/KirkDiggler/pokemon-pf1-sheet/internal/discord/v2/core"
	"github.com/KirkDiggler/pokemon-pf1-sheet/internal/discord/v2/middleware"
	"github.com/KirkDiggler/pokemon-pf1-sheet/internal/discord/v2/routers"
	"github.com/KirkDiggler/pokemon-pf1-sheet/internal/sheets"
	"github.com/KirkDiggler/pokemon-pf1-sheet/internal/uuid"
	"github.com/bwmarrin/discordgo"
)

// interactionTimeout bounds a single interaction. Discord drops the token
// after 15 minutes but the initial reply is due in 3 seconds.
const interactionTimeout = 10 * time.Second

// Config wires the bot's interaction pipeline
type Config struct {
	Actors   routers.ActorSource
	Registry *sheets.Registry
	Renderer sheets.Renderer

	// Metrics is optional
	Metrics middleware.MetricsCollector

	// RequestIDs defaults to random UUIDs
	RequestIDs uuid.Generator

	// RateLimit is optional
	RateLimit *middleware.RateLimitConfig

	// Logf overrides request logging
	Logf func(format string, args ...interface{})
}

// Setup builds the pipeline with the global middleware and the sheet router
func Setup(cfg *Config) (*core.Pipeline, error) {
	if cfg == nil {
		return nil, errors.New("config is required")
	}

	ids := cfg.RequestIDs
	if ids == nil {
		ids = uuid.NewGoogleUUIDGenerator()
	}

	logConfig := middleware.DefaultLogConfig()
	if cfg.Logf != nil {
		logConfig.Logf = cfg.Logf
	}

	pipeline := core.NewPipeline()

	// Error sits outside logging and metrics so both still see the raw error
	pipeline.Use(
		middleware.RecoveryMiddleware(),
		middleware.RequestIDMiddleware(ids),
		middleware.ErrorMiddleware(nil),
		middleware.LoggingMiddleware(logConfig),
	)
	if cfg.Metrics != nil {
		pipeline.Use(middleware.MetricsMiddleware(cfg.Metrics))
	}

	_, err := routers.NewSheetRouter(&routers.SheetRouterConfig{
		Pipeline:  pipeline,
		Actors:    cfg.Actors,
		Registry:  cfg.Registry,
		Renderer:  cfg.Renderer,
		RateLimit: cfg.RateLimit,
	})
	if err != nil {
		return nil, err
	}

	return pipeline, nil
}

// Commands are the application commands the pipeline serves
func Commands() []*discordgo.ApplicationCommand {
	return []*discordgo.ApplicationCommand{routers.Command()}
}

// InteractionHandler adapts the pipeline to a discordgo event handler
func InteractionHandler(ctx context.Context, pipeline *core.Pipeline) func(*discordgo.Session, *discordgo.InteractionCreate) {
	return func(s *discordgo.Session, i *discordgo.InteractionCreate) {
		runCtx, cancel := context.WithTimeout(ctx, interactionTimeout)
		defer cancel()

		if err := pipeline.Execute(runCtx, s, i); err != nil {
			log.Printf("[Discord] interaction %s failed: %v", i.ID, err)
		}
	}
}
