package pokemon

import (
	"context"

	"github.com/KirkDiggler/pokemon-pf1-sheet/internal/domain/actor"
	sheeterr "github.com/KirkDiggler/pokemon-pf1-sheet/internal/errors"
	"github.com/KirkDiggler/pokemon-pf1-sheet/internal/hooks"
	"github.com/KirkDiggler/pokemon-pf1-sheet/internal/sheets"
)

const (
	// RulesetNamespace is the ruleset the sheet registers under
	RulesetNamespace = "pf1"
	// DefaultLabel is the sheet's name in the host's sheet picker
	DefaultLabel = "Pokémon (PF1)"
)

// Register builds the sheet over the host's base sheet and registers it
// for pf1 characters and NPCs. Without a base sheet it logs and returns a
// not-ready error; it never retries.
func Register(host sheets.Host, registrar sheets.Registrar, cfg Config) error {
	base, ok := host.BaseSheet()
	if !ok {
		logf("base actor sheet is not available")
		return sheeterr.NotReady("base actor sheet is not available")
	}

	sheet, err := New(base, cfg)
	if err != nil {
		logf("Error building sheet: %v", err)
		return err
	}

	label := cfg.Presentation.Label
	if label == "" {
		label = DefaultLabel
	}

	err = registrar.RegisterSheet(RulesetNamespace, func() sheets.Sheet { return sheet }, sheets.RegistrationConfig{
		Types:       []actor.Kind{actor.KindCharacter, actor.KindNPC},
		MakeDefault: cfg.Presentation.MakeDefault,
		Label:       label,
	})
	if err != nil {
		logf("Error registering sheet: %v", err)
		return err
	}

	logf("Registered %s sheet.", label)
	return nil
}

// Install registers the sheet once, when the host calls its init hook.
// Registration failures are logged and do not fail the hook.
func Install(bus *hooks.Bus, host sheets.Host, registrar sheets.Registrar, cfg Config) {
	bus.Once(hooks.Init, hooks.Listener{
		ID:       Namespace,
		Priority: hooks.PriorityDefault,
		Handle: func(context.Context) error {
			logf("init hook fired, registering sheet (PF1)")
			_ = Register(host, registrar, cfg)
			return nil
		},
	})
}
