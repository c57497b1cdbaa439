// Package cli implements sheetctl, a command line client for the Pokémon
// sheet that works directly against the configured actor store.
package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/KirkDiggler/pokemon-pf1-sheet/internal/chat"
	"github.com/KirkDiggler/pokemon-pf1-sheet/internal/config"
	"github.com/KirkDiggler/pokemon-pf1-sheet/internal/dice"
	"github.com/KirkDiggler/pokemon-pf1-sheet/internal/domain/actor"
	"github.com/KirkDiggler/pokemon-pf1-sheet/internal/notify"
	"github.com/KirkDiggler/pokemon-pf1-sheet/internal/repositories/actors"
	"github.com/KirkDiggler/pokemon-pf1-sheet/internal/sheets"
	"github.com/KirkDiggler/pokemon-pf1-sheet/internal/sheets/pokemon"
)

const (
	formatText = "text"
	formatJSON = "json"
)

// Env holds what the commands need from the process
type Env struct {
	Config *config.Config

	// OpenBackend defaults to actors.OpenBackend
	OpenBackend func(ctx context.Context, cfg actors.BackendConfig) (*actors.Backend, error)

	// Roller defaults to a random roller
	Roller dice.Roller
}

type rootFlags struct {
	redisURL   string
	sqlitePath string
	format     string
}

// NewRootCmd builds the sheetctl command tree
func NewRootCmd(env *Env) *cobra.Command {
	flags := &rootFlags{}

	root := &cobra.Command{
		Use:           "sheetctl",
		Short:         "Inspect and edit Pokémon (PF1) sheets",
		Long:          "sheetctl opens actors from the bot's store and drives the Pokémon sheet: seed actors, show sheets, save profiles and roll moves.",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.PersistentFlags().StringVar(&flags.redisURL, "redis-url", "", "Redis URL (default: $REDIS_URL)")
	root.PersistentFlags().StringVar(&flags.sqlitePath, "sqlite", "", "SQLite path (default: $SQLITE_PATH)")
	root.PersistentFlags().StringVarP(&flags.format, "format", "f", formatText, "Output format: text or json")

	root.AddCommand(
		newSeedCmd(env, flags),
		newShowCmd(env, flags),
		newSaveCmd(env, flags),
		newRollCmd(env, flags),
		newChatCmd(env, flags),
	)
	return root
}

// session is one command's view of the store with the sheet registered
type session struct {
	backend  *actors.Backend
	registry *sheets.Registry
	renderer sheets.Renderer
	notes    *notify.Collector
	history  chat.History
	label    string
}

func (e *Env) open(cmd *cobra.Command, flags *rootFlags) (*session, error) {
	cfg := e.Config
	if cfg == nil {
		cfg = &config.Config{}
	}

	storage := actors.BackendConfig{
		RedisURL:   cfg.Storage.RedisURL,
		SQLitePath: cfg.Storage.SQLitePath,
	}
	if flags.redisURL != "" {
		storage.RedisURL = flags.redisURL
	}
	if flags.sqlitePath != "" {
		storage.SQLitePath = flags.sqlitePath
	}

	open := e.OpenBackend
	if open == nil {
		open = actors.OpenBackend
	}
	backend, err := open(cmd.Context(), storage)
	if err != nil {
		return nil, fmt.Errorf("open store: %w", err)
	}

	s := &session{
		backend:  backend,
		registry: sheets.NewRegistry(),
		renderer: sheets.NewHTMLRenderer(pokemon.Templates),
		notes:    notify.NewCollector(),
		label:    cfg.Sheet.Label,
	}

	chatLog := chat.Fanout{writerLog{out: cmd.OutOrStdout()}}
	if backend.Redis != nil {
		s.history = chat.NewRedisLog(&chat.RedisLogConfig{Client: backend.Redis, Max: cfg.ChatHistory})
		chatLog = append(chatLog, s.history)
	}

	roller := e.Roller
	if roller == nil {
		roller = dice.NewRandomRoller()
	}

	err = pokemon.Register(sheets.StaticHost{Base: sheets.NewActorSheet()}, s.registry, pokemon.Config{
		Flags:        backend.Repository,
		Actors:       backend.Repository,
		Roller:       roller,
		Chat:         chatLog,
		Notify:       s.notes,
		Presentation: cfg.Sheet.Presentation(),
	})
	if err != nil {
		_ = backend.Close()
		return nil, err
	}
	return s, nil
}

func (s *session) Close() error {
	return s.backend.Close()
}

// render opens the actor's registered pf1 sheet
func (s *session) render(ctx context.Context, actorID string) (*actor.Actor, *sheets.Rendered, error) {
	a, err := s.backend.Repository.Get(ctx, actorID)
	if err != nil {
		return nil, nil, err
	}

	preferred := s.label
	if preferred == "" {
		preferred = pokemon.DefaultLabel
	}
	reg, err := s.registry.Resolve(pokemon.RulesetNamespace, a.Kind, preferred)
	if err != nil {
		return nil, nil, err
	}

	rendered, err := sheets.Render(ctx, reg.Factory(), s.renderer, a)
	if err != nil {
		return nil, nil, err
	}
	return a, rendered, nil
}

// printNotes writes the notifications the sheet raised during the command
func (s *session) printNotes(w io.Writer) {
	for _, n := range s.notes.All() {
		fmt.Fprintf(w, "%s: %s\n", n.Level, n.Message)
	}
}

// writerLog prints chat messages for the terminal
type writerLog struct {
	out io.Writer
}

func (l writerLog) Post(_ context.Context, msg *chat.Message) error {
	if !msg.IsRoll() {
		_, err := fmt.Fprintf(l.out, "%s: %s\n", msg.Speaker.Alias, msg.Content)
		return err
	}
	_, err := fmt.Fprintf(l.out, "%s | %s: %s = %d %v\n", msg.Speaker.Alias, msg.Flavor, msg.Formula, msg.Total, msg.Rolls)
	return err
}

func printJSON(w io.Writer, v any) error {
	b, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(w, string(b))
	return err
}
