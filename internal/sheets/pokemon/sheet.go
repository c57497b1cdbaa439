// Package pokemon is the Pokémon actor sheet for the pf1 ruleset. It builds
// on the host's base actor sheet, keeps nature, types and moves in a single
// actor flag and rolls move attacks to chat.
package pokemon

import (
	"context"
	"embed"
	"fmt"
	"log"
	"strconv"
	"strings"

	"github.com/KirkDiggler/pokemon-pf1-sheet/internal/chat"
	"github.com/KirkDiggler/pokemon-pf1-sheet/internal/dice"
	"github.com/KirkDiggler/pokemon-pf1-sheet/internal/domain/actor"
	sheeterr "github.com/KirkDiggler/pokemon-pf1-sheet/internal/errors"
	"github.com/KirkDiggler/pokemon-pf1-sheet/internal/flags"
	"github.com/KirkDiggler/pokemon-pf1-sheet/internal/notify"
	"github.com/KirkDiggler/pokemon-pf1-sheet/internal/sheets"
)

// Templates holds the sheet's template under its module path
//
//go:embed modules/pokemon-pf1-sheet/templates/*.html
var Templates embed.FS

const (
	TemplatePath = "modules/pokemon-pf1-sheet/templates/pokemon-sheet.html"

	SelectorSave = ".save-poke"
	SelectorRoll = ".move-roll"
	SelectorMove = ".move"

	MessageSaved       = "Pokémon sheet saved."
	MessageNoPokeData  = "No Pokémon data found in form to save."
	MessageMoveMissing = "No move found to use."

	submissionSection = "poke"
	logPrefix         = "PokéSheet |"
)

// ActorSource loads actors by id
type ActorSource interface {
	Get(ctx context.Context, id string) (*actor.Actor, error)
}

// Metrics counts sheet outcomes
type Metrics interface {
	RecordSave(outcome string)
	RecordRoll(outcome string)
}

// Outcomes passed to Metrics
const (
	OutcomeSaved       = "saved"
	OutcomeRolled      = "rolled"
	OutcomeMissingData = "missing_data"
	OutcomeError       = "error"
)

type nopMetrics struct{}

func (nopMetrics) RecordSave(string) {}
func (nopMetrics) RecordRoll(string) {}

// Presentation holds deployment overrides for how the sheet is offered
type Presentation struct {
	Label       string
	MakeDefault bool
	Width       int
	Height      int
}

// Config wires the sheet to its host collaborators
type Config struct {
	Flags   flags.Accessor
	Actors  ActorSource
	Roller  dice.Roller
	Chat    chat.Log
	Notify  notify.Sink
	Metrics Metrics

	Presentation Presentation
}

// Sheet is the Pokémon actor sheet
type Sheet struct {
	base    sheets.BaseSheet
	store   *flags.Store[Profile]
	actors  ActorSource
	roller  dice.Roller
	chat    chat.Log
	notify  notify.Sink
	metrics Metrics
	present Presentation
}

// New builds the sheet on top of base
func New(base sheets.BaseSheet, cfg Config) (*Sheet, error) {
	if base == nil {
		return nil, sheeterr.NotReady("base actor sheet is not available")
	}
	if cfg.Actors == nil || cfg.Roller == nil || cfg.Chat == nil || cfg.Notify == nil {
		return nil, sheeterr.InvalidArgument("actors, roller, chat and notify are required")
	}

	store, err := flags.NewStore(cfg.Flags, Namespace, FlagKey, Schema())
	if err != nil {
		return nil, err
	}

	metrics := cfg.Metrics
	if metrics == nil {
		metrics = nopMetrics{}
	}

	return &Sheet{
		base:    base,
		store:   store,
		actors:  cfg.Actors,
		roller:  cfg.Roller,
		chat:    cfg.Chat,
		notify:  cfg.Notify,
		metrics: metrics,
		present: cfg.Presentation,
	}, nil
}

// DefaultOptions implements sheets.Sheet
func (s *Sheet) DefaultOptions() sheets.Options {
	return sheets.MergeOptions(s.base.DefaultOptions(), sheets.Options{
		Classes:  []string{"pf1", "sheet", "pokemon-pokemon-sheet"},
		Template: TemplatePath,
		Width:    orDefault(s.present.Width, 980),
		Height:   orDefault(s.present.Height, 760),
		Tabs: []sheets.Tab{{
			NavSelector:     ".sheet-tabs",
			ContentSelector: ".sheet-body",
			Initial:         "summary",
		}},
	})
}

func orDefault(v, def int) int {
	if v > 0 {
		return v
	}
	return def
}

// View is the "poke" entry of the sheet's data bag
type View struct {
	Name   string
	Level  int
	Nature string
	Types  []string
	Moves  []Move
}

// GetData implements sheets.Sheet. The profile comes from the actor's own
// flag; a missing or unreadable flag renders the defaults.
func (s *Sheet) GetData(ctx context.Context, a *actor.Actor) (sheets.Data, error) {
	base, err := s.base.GetData(ctx, a)
	if err != nil {
		return nil, err
	}

	data := make(sheets.Data, len(base)+2)
	for k, v := range base {
		data[k] = v
	}

	raw, _ := a.GetFlag(Namespace, FlagKey)
	profile := s.store.FromRaw(a.ID, raw)

	options := s.DefaultOptions()
	data["options"] = options
	data["cssClass"] = strings.Join(options.Classes, " ")
	data["poke"] = View{
		Name:   a.Name,
		Level:  a.Level(),
		Nature: profile.Nature,
		Types:  profile.Types,
		Moves:  profile.Moves,
	}
	return data, nil
}

// ActivateListeners implements sheets.Sheet
func (s *Sheet) ActivateListeners(form *sheets.Form) {
	s.base.ActivateListeners(form)
	form.Find(SelectorSave).On(sheets.EventClick, s.onSave)
	form.Find(SelectorRoll).On(sheets.EventClick, s.onMoveRoll)
}

func (s *Sheet) onSave(ctx context.Context, ev *sheets.Event) error {
	ev.PreventDefault()
	return s.Save(ctx, ev.ActorID, ev.Submission)
}

func (s *Sheet) onMoveRoll(ctx context.Context, ev *sheets.Event) error {
	ev.PreventDefault()
	_, err := s.Roll(ctx, ev.ActorID, MoveIndex(ev.Control))
	return err
}

// MoveIndex reads the index data attribute of a roll control or its
// enclosing move. A missing or non-numeric index yields -1.
func MoveIndex(c *sheets.Control) int {
	if c == nil {
		return -1
	}
	holder := c.Closest(SelectorMove)
	if holder == nil {
		holder = c
	}
	raw, ok := holder.DataValue("index")
	if !ok {
		return -1
	}
	index, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil {
		return -1
	}
	return index
}

// Save merges the submission's "poke" section into the stored profile.
// Each field is replaced only when the submission carries a non-empty
// value for it.
func (s *Sheet) Save(ctx context.Context, actorID string, sub sheets.Submission) error {
	section, ok := sub.Section(submissionSection)
	if !ok {
		s.metrics.RecordSave(OutcomeMissingData)
		s.notify.Warn(ctx, MessageNoPokeData)
		return nil
	}

	stored, err := s.store.Get(ctx, actorID)
	if err != nil {
		s.metrics.RecordSave(OutcomeError)
		return sheeterr.Wrapf(err, "failed to load Pokémon data for actor %s", actorID)
	}

	merged := merge(actorID, stored, parseSubmission(section))
	if err := s.store.Set(ctx, actorID, merged); err != nil {
		s.metrics.RecordSave(OutcomeError)
		return sheeterr.Wrapf(err, "failed to save Pokémon data for actor %s", actorID)
	}

	s.metrics.RecordSave(OutcomeSaved)
	s.notify.Info(ctx, MessageSaved)
	return nil
}

// Roll rolls an attack for the move at index and posts it to chat. A
// missing move produces a warning and no roll; the returned message is nil
// in that case.
func (s *Sheet) Roll(ctx context.Context, actorID string, index int) (*chat.Message, error) {
	a, err := s.actors.Get(ctx, actorID)
	if err != nil {
		s.metrics.RecordRoll(OutcomeError)
		return nil, err
	}

	raw, _ := a.GetFlag(Namespace, FlagKey)
	move, ok := s.store.FromRaw(a.ID, raw).MoveAt(index)
	if !ok {
		s.metrics.RecordRoll(OutcomeMissingData)
		s.notify.Warn(ctx, MessageMoveMissing)
		return nil, nil
	}

	formula := AttackExpression(a).String()
	result, err := dice.Evaluate(s.roller, formula)
	if err != nil {
		s.metrics.RecordRoll(OutcomeError)
		return nil, sheeterr.Wrapf(err, "failed to roll %s", formula)
	}

	msg := chat.RollMessage(chat.SpeakerFor(a), fmt.Sprintf("%s attack roll", move.Name), formula, result)
	if err := s.chat.Post(ctx, msg); err != nil {
		s.metrics.RecordRoll(OutcomeError)
		return nil, sheeterr.Wrap(err, "failed to post attack roll")
	}

	s.metrics.RecordRoll(OutcomeRolled)
	return msg, nil
}

// AttackExpression is the d20 attack roll for a: 1d20 plus the strength
// modifier, with strength 10 when the actor has none
func AttackExpression(a *actor.Actor) dice.Expression {
	str, ok := a.AbilityScore(actor.AbilityStrength)
	if !ok {
		str = 10
	}
	return dice.D20(AbilityModifier(str))
}

// AbilityModifier is floor((score - 10) / 2)
func AbilityModifier(score int) int {
	modifier := (score - 10) / 2
	if score < 10 && (score-10)%2 != 0 {
		modifier--
	}
	return modifier
}

func logf(format string, args ...any) {
	log.Printf(logPrefix+" "+format, args...)
}
