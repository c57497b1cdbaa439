// Package sheets is the host's actor sheet framework: the base sheet
// capability, sheet registration, rendered forms and their click handlers.
package sheets

import (
	"context"
	"strings"

	"github.com/KirkDiggler/pokemon-pf1-sheet/internal/domain/actor"
)

// Data is the view-model bag a sheet template renders
type Data map[string]any

// Sheet is what the host needs from any actor sheet
type Sheet interface {
	DefaultOptions() Options
	GetData(ctx context.Context, a *actor.Actor) (Data, error)
	ActivateListeners(form *Form)
}

// BaseSheet is the capability the host offers sheets to build on. It is
// the same surface as Sheet; the separate name marks the host-provided one.
type BaseSheet interface {
	Sheet
}

// Host exposes the base sheet capability once it is available
type Host interface {
	BaseSheet() (BaseSheet, bool)
}

// StaticHost is a Host with a fixed, possibly absent, base sheet
type StaticHost struct {
	Base BaseSheet
}

// BaseSheet implements Host
func (h StaticHost) BaseSheet() (BaseSheet, bool) {
	return h.Base, h.Base != nil
}

// ActorSheet is the host's default sheet. It renders the actor's core
// fields and binds no interactions.
type ActorSheet struct{}

// NewActorSheet creates the default actor sheet
func NewActorSheet() *ActorSheet {
	return &ActorSheet{}
}

// DefaultOptions implements Sheet
func (s *ActorSheet) DefaultOptions() Options {
	return Options{
		Classes:  []string{"sheet", "actor"},
		Template: "templates/actor-sheet.html",
		Width:    600,
		Height:   680,
	}
}

// GetData implements Sheet
func (s *ActorSheet) GetData(_ context.Context, a *actor.Actor) (Data, error) {
	abilities := make(map[string]int)
	for _, key := range []string{
		actor.AbilityStrength, actor.AbilityDexterity, actor.AbilityConstitution,
		actor.AbilityIntelligence, actor.AbilityWisdom, actor.AbilityCharisma,
	} {
		if score, ok := a.AbilityScore(key); ok {
			abilities[key] = score
		}
	}

	options := s.DefaultOptions()
	return Data{
		"actor": map[string]any{
			"id":   a.ID,
			"name": a.Name,
			"kind": string(a.Kind),
		},
		"name":      a.Name,
		"level":     a.Level(),
		"abilities": abilities,
		"editable":  true,
		"options":   options,
		"cssClass":  strings.Join(options.Classes, " "),
	}, nil
}

// ActivateListeners implements Sheet
func (s *ActorSheet) ActivateListeners(*Form) {}
