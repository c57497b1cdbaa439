package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/bwmarrin/discordgo"

	"github.com/KirkDiggler/pokemon-pf1-sheet/internal/chat"
	"github.com/KirkDiggler/pokemon-pf1-sheet/internal/config"
	"github.com/KirkDiggler/pokemon-pf1-sheet/internal/dice"
	v2 "github.com/KirkDiggler/pokemon-pf1-sheet/internal/discord/v2"
	"github.com/KirkDiggler/pokemon-pf1-sheet/internal/discord/v2/middleware"
	"github.com/KirkDiggler/pokemon-pf1-sheet/internal/hooks"
	"github.com/KirkDiggler/pokemon-pf1-sheet/internal/metrics"
	"github.com/KirkDiggler/pokemon-pf1-sheet/internal/notify"
	"github.com/KirkDiggler/pokemon-pf1-sheet/internal/repositories/actors"
	"github.com/KirkDiggler/pokemon-pf1-sheet/internal/sheets"
	"github.com/KirkDiggler/pokemon-pf1-sheet/internal/sheets/pokemon"
	"github.com/KirkDiggler/pokemon-pf1-sheet/internal/uuid"
)

func main() {
	config.LoadDotEnv()

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	log.Printf("Application ID: %s", cfg.Discord.AppID)
	if cfg.Discord.GuildID != "" {
		log.Printf("Guild ID: %s", cfg.Discord.GuildID)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM, os.Interrupt)
	defer stop()

	// Create Discord session
	dg, err := discordgo.New("Bot " + cfg.Discord.Token)
	if err != nil {
		log.Fatalf("Failed to create Discord session: %v", err)
	}

	backend, err := actors.OpenBackend(ctx, actors.BackendConfig{
		RedisURL:   cfg.Storage.RedisURL,
		SQLitePath: cfg.Storage.SQLitePath,
	})
	if err != nil {
		log.Fatalf("Failed to open actor store: %v", err)
	}
	defer func() {
		if err := backend.Close(); err != nil {
			log.Printf("Error closing %s store: %v", backend.Name, err)
		}
	}()

	ids := uuid.NewGoogleUUIDGenerator()
	collector := metrics.NewCollector()

	// Rolls go to the interaction's channel; with Redis they are also kept
	// as history for sheetctl
	chatLog := chat.Fanout{chat.NewDiscordLog(dg, ids)}
	rateLimitStore := middleware.RateLimitStore(middleware.NewMemoryRateLimitStore(time.Now))
	if backend.Redis != nil {
		chatLog = append(chatLog, chat.NewRedisLog(&chat.RedisLogConfig{
			Client: backend.Redis,
			Max:    cfg.ChatHistory,
			IDs:    ids,
		}))
		rateLimitStore = middleware.NewRedisRateLimitStore(backend.Redis, "")
	}

	bus := hooks.NewBus()
	registry := sheets.NewRegistry()
	host := sheets.StaticHost{Base: sheets.NewActorSheet()}

	pokemon.Install(bus, host, registry, pokemon.Config{
		Flags:        backend.Repository,
		Actors:       backend.Repository,
		Roller:       dice.NewRandomRoller(),
		Chat:         chatLog,
		Notify:       notify.Router{Fallback: notify.LogSink{}},
		Metrics:      collector,
		Presentation: cfg.Sheet.Presentation(),
	})

	if err := bus.Start(ctx); err != nil {
		log.Fatalf("Failed to start hooks: %v", err)
	}

	pipeline, err := v2.Setup(&v2.Config{
		Actors:     backend.Repository,
		Registry:   registry,
		Renderer:   sheets.NewHTMLRenderer(pokemon.Templates),
		Metrics:    collector,
		RequestIDs: ids,
		RateLimit: &middleware.RateLimitConfig{
			MaxRequests: 10,
			Window:      10 * time.Second,
			KeyFunc:     middleware.ActionKey,
			Store:       rateLimitStore,
		},
	})
	if err != nil {
		log.Fatalf("Failed to set up interaction pipeline: %v", err)
	}

	if cfg.MetricsAddr != "" {
		go func() {
			if err := collector.Serve(ctx, cfg.MetricsAddr); err != nil {
				log.Printf("Metrics server stopped: %v", err)
			}
		}()
	}

	// Register interaction handler
	dg.AddHandler(v2.InteractionHandler(ctx, pipeline))

	// Open connection to Discord
	if err := dg.Open(); err != nil {
		log.Printf("Failed to open Discord connection: %v", err)
		return
	}
	defer func() {
		if clientErr := dg.Close(); clientErr != nil {
			log.Printf("Failed to close Discord connection: %v", clientErr)
		}
	}()

	// Use empty string for global commands, or set a specific guild ID for testing
	for _, cmd := range v2.Commands() {
		if _, err := dg.ApplicationCommandCreate(cfg.Discord.AppID, cfg.Discord.GuildID, cmd); err != nil {
			log.Printf("Failed to register command %s: %v", cmd.Name, err)
			return
		}
	}

	if cfg.Discord.GuildID != "" {
		log.Printf("Registered commands for guild: %s", cfg.Discord.GuildID)
	} else {
		log.Println("Registered global commands (may take up to 1 hour to propagate)")
	}

	fmt.Println("Bot is now running. Press CTRL-C to exit.")
	<-ctx.Done()
	fmt.Println("Shutting down...")
}
