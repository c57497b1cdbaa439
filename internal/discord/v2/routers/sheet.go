package routers

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strconv"
	"strings"

	"github.com/KirkDiggler/pokemon-pf1-sheet/internal/chat"
	"github.com/KirkDiggler/pokemon-pf1-sheet/internal/discord/v2/builders"
	"github.com/KirkDiggler/pokemon-pf1-sheet/internal/discord/v2/core"
	"github.com/KirkDiggler/pokemon-pf1-sheet/internal/discord/v2/middleware"
	"github.com/KirkDiggler/pokemon-pf1-sheet/internal/domain/actor"
	"github.com/KirkDiggler/pokemon-pf1-sheet/internal/notify"
	"github.com/KirkDiggler/pokemon-pf1-sheet/internal/sheets"
	"github.com/KirkDiggler/pokemon-pf1-sheet/internal/sheets/pokemon"
	"github.com/bwmarrin/discordgo"
)

const (
	// CommandName is the slash command and custom id domain of the sheet
	CommandName = "pokesheet"

	actionSave   = "save"
	actionSubmit = "submit"
	actionRoll   = "roll"

	// one row for Save, the rest for move rolls
	maxRollButtons = (builders.MaxRows - 1) * builders.MaxButtonsPerRow

	fieldNature = "poke.nature"
	fieldTypes  = "poke.types"
	fieldMoves  = "poke.moves"

	// Discord's modal title and text input limits
	maxModalTitle  = 45
	maxNatureInput = 100
	maxTypesInput  = 200
	maxMovesInput  = 4000
)

// ActorSource loads actors by id
type ActorSource interface {
	Get(ctx context.Context, id string) (*actor.Actor, error)
}

// SheetRouterConfig wires the sheet router
type SheetRouterConfig struct {
	Pipeline  *core.Pipeline
	Actors    ActorSource
	Registry  *sheets.Registry
	Renderer  sheets.Renderer
	Namespace string

	// Preferred is the sheet label to open when several apply
	Preferred string

	// RateLimit guards the roll and save buttons; nil disables it
	RateLimit *middleware.RateLimitConfig
}

// Validate checks required collaborators
func (c *SheetRouterConfig) Validate() error {
	if c.Pipeline == nil {
		return errors.New("pipeline is required")
	}
	if c.Actors == nil {
		return errors.New("actors is required")
	}
	if c.Registry == nil {
		return errors.New("registry is required")
	}
	if c.Renderer == nil {
		return errors.New("renderer is required")
	}
	return nil
}

// SheetRouter serves /pokesheet and the sheet's buttons and modal
type SheetRouter struct {
	router    *core.Router
	actors    ActorSource
	registry  *sheets.Registry
	renderer  sheets.Renderer
	namespace string
	preferred string
	idBuilder *core.CustomIDBuilder
}

// NewSheetRouter creates the router and registers it with the pipeline
func NewSheetRouter(cfg *SheetRouterConfig) (*SheetRouter, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	router := core.NewRouter(CommandName, cfg.Pipeline)

	namespace := cfg.Namespace
	if namespace == "" {
		namespace = pokemon.RulesetNamespace
	}
	preferred := cfg.Preferred
	if preferred == "" {
		preferred = pokemon.DefaultLabel
	}

	sr := &SheetRouter{
		router:    router,
		actors:    cfg.Actors,
		registry:  cfg.Registry,
		renderer:  cfg.Renderer,
		namespace: namespace,
		preferred: preferred,
		idBuilder: router.IDs(),
	}

	if cfg.RateLimit != nil {
		router.Use(middleware.RateLimitMiddleware(cfg.RateLimit))
	}

	sr.registerRoutes()
	router.Register()

	return sr, nil
}

// Handler returns the router as a single handler, for tests and embedding
func (r *SheetRouter) Handler() core.Handler {
	return r.router.Build()
}

func (r *SheetRouter) registerRoutes() {
	r.router.SubcommandFunc("show", r.handleShow)
	r.router.SubcommandFunc("sheets", r.handleSheets)

	r.router.ComponentFunc(actionSave, r.handleSave)
	r.router.ComponentFunc(actionRoll, r.handleRoll)
	r.router.ModalFunc(actionSubmit, r.handleSubmit)
}

// Command is the application command definition for /pokesheet
func Command() *discordgo.ApplicationCommand {
	return &discordgo.ApplicationCommand{
		Name:        CommandName,
		Description: "Pokémon (PF1) character sheets",
		Options: []*discordgo.ApplicationCommandOption{
			{
				Type:        discordgo.ApplicationCommandOptionSubCommand,
				Name:        "show",
				Description: "Open an actor's Pokémon sheet",
				Options: []*discordgo.ApplicationCommandOption{
					{
						Type:        discordgo.ApplicationCommandOptionString,
						Name:        "actor",
						Description: "Actor id",
						Required:    true,
					},
				},
			},
			{
				Type:        discordgo.ApplicationCommandOptionSubCommand,
				Name:        "sheets",
				Description: "List the registered pf1 sheets",
			},
		},
	}
}

// open loads the actor and renders the sheet registered for its kind
func (r *SheetRouter) open(ctx context.Context, actorID string) (*actor.Actor, *sheets.Rendered, error) {
	if actorID == "" {
		return nil, nil, core.NewValidationError("An actor id is required.")
	}

	a, err := r.actors.Get(ctx, actorID)
	if err != nil {
		return nil, nil, err
	}

	reg, err := r.registry.Resolve(r.namespace, a.Kind, r.preferred)
	if err != nil {
		return nil, nil, err
	}

	rendered, err := sheets.Render(ctx, reg.Factory(), r.renderer, a)
	if err != nil {
		return nil, nil, err
	}

	return a, rendered, nil
}

func (r *SheetRouter) handleShow(ctx *core.InteractionContext) (*core.HandlerResult, error) {
	a, rendered, err := r.open(ctx.Context, ctx.GetStringParam("actor"))
	if err != nil {
		return nil, err
	}

	components, err := r.sheetComponents(a.ID, rendered)
	if err != nil {
		return nil, core.NewInternalError(err)
	}

	response := core.NewEmbedResponse(sheetEmbed(a, rendered)).WithComponents(components...)
	return &core.HandlerResult{Response: response}, nil
}

func (r *SheetRouter) handleSheets(ctx *core.InteractionContext) (*core.HandlerResult, error) {
	embed := builders.InfoEmbed("Sheets", fmt.Sprintf("Registered sheets for `%s`", r.namespace))

	for _, kind := range []actor.Kind{actor.KindCharacter, actor.KindNPC} {
		regs := r.registry.SheetsFor(r.namespace, kind)
		lines := make([]string, 0, len(regs))
		for _, reg := range regs {
			line := reg.Label
			if reg.MakeDefault {
				line += " (default)"
			}
			lines = append(lines, line)
		}
		embed.Field(string(kind), strings.Join(lines, "\n"), true)
	}

	return &core.HandlerResult{
		Response: core.NewEmbedResponse(embed.Build()).AsEphemeral(),
	}, nil
}

// handleSave opens the edit modal prefilled from the rendered form
func (r *SheetRouter) handleSave(ctx *core.InteractionContext) (*core.HandlerResult, error) {
	customID, err := core.ParseCustomID(ctx.GetCustomID())
	if err != nil {
		return nil, core.NewValidationError("That button is no longer valid.")
	}

	a, rendered, err := r.open(ctx.Context, customID.Target)
	if err != nil {
		return nil, err
	}

	modalID, err := r.idBuilder.Modal(actionSubmit, a.ID)
	if err != nil {
		return nil, core.NewInternalError(err)
	}

	values := rendered.Form.Values()
	modal := &core.Modal{
		CustomID: modalID,
		Title:    builders.Truncate("Edit "+displayName(a), maxModalTitle),
		Fields: []core.TextField{
			textField(fieldNature, "Nature", values[fieldNature], maxNatureInput, false),
			textField(fieldTypes, "Types (comma separated)", values[fieldTypes], maxTypesInput, false),
			textField(fieldMoves, "Moves (one per line)", strings.TrimSpace(values[fieldMoves]), maxMovesInput, true),
		},
	}

	return &core.HandlerResult{Response: core.NewModalResponse(modal)}, nil
}

// handleSubmit clicks the sheet's save control with the modal's values
func (r *SheetRouter) handleSubmit(ctx *core.InteractionContext) (*core.HandlerResult, error) {
	customID, err := core.ParseCustomID(ctx.GetCustomID())
	if err != nil {
		return nil, core.NewValidationError("That form is no longer valid.")
	}

	_, rendered, err := r.open(ctx.Context, customID.Target)
	if err != nil {
		return nil, err
	}

	control := rendered.Form.Find(pokemon.SelectorSave).First()
	if control == nil {
		return nil, core.NewValidationError("This sheet cannot be saved.")
	}

	flat := make(map[string]any)
	for id, value := range ctx.ModalFields() {
		flat[id] = value
	}

	collector := notify.NewCollector()
	runCtx := notify.WithSink(ctx.Context, collector)
	if err := rendered.Form.Trigger(runCtx, control, sheets.EventClick, sheets.ExpandSubmission(flat)); err != nil {
		return nil, err
	}

	return &core.HandlerResult{Response: notificationResponse(collector, "Nothing to save.")}, nil
}

// handleRoll clicks the roll control for the button's move index. The roll
// goes to the interaction's channel; warnings come back to the user only.
func (r *SheetRouter) handleRoll(ctx *core.InteractionContext) (*core.HandlerResult, error) {
	customID, err := core.ParseCustomID(ctx.GetCustomID())
	if err != nil {
		return nil, core.NewValidationError("That button is no longer valid.")
	}

	_, rendered, err := r.open(ctx.Context, customID.Target)
	if err != nil {
		return nil, err
	}

	index, err := customID.IntArg(0)
	if err != nil {
		index = -1
	}

	control := rollControl(rendered.Form, index)
	if control == nil {
		log.Printf("[Discord] roll button for %s index %d has no move", customID.Target, index)
		return &core.HandlerResult{
			Response: core.NewEphemeralResponse("⚠️ " + pokemon.MessageMoveMissing),
		}, nil
	}

	collector := notify.NewCollector()
	runCtx := chat.WithChannel(notify.WithSink(ctx.Context, collector), ctx.ChannelID)
	if err := rendered.Form.Trigger(runCtx, control, sheets.EventClick, nil); err != nil {
		return nil, err
	}

	return &core.HandlerResult{Response: notificationResponse(collector, "🎲 Roll posted.")}, nil
}

// sheetComponents turns the form's clickable controls into buttons
func (r *SheetRouter) sheetComponents(actorID string, rendered *sheets.Rendered) ([]discordgo.MessageComponent, error) {
	cb := builders.NewComponentBuilder(r.idBuilder)

	if rendered.Form.Find(pokemon.SelectorSave).Len() > 0 {
		cb.EmojiButton("Edit", "✏️", discordgo.PrimaryButton, actionSave, actorID)
	}
	cb.NewRow()

	rolls := 0
	for _, c := range rendered.Form.Bound(sheets.EventClick) {
		if !c.HasClass(strings.TrimPrefix(pokemon.SelectorRoll, ".")) {
			continue
		}
		index := pokemon.MoveIndex(c)
		if index < 0 {
			continue
		}
		if rolls == maxRollButtons {
			log.Printf("[Discord] sheet for %s has more than %d moves, extra roll buttons dropped", actorID, maxRollButtons)
			break
		}
		cb.EmojiButton(moveLabel(rendered.Form, c, index), "🎲", discordgo.SecondaryButton, actionRoll, actorID, strconv.Itoa(index))
		rolls++
	}

	return cb.Build()
}

func rollControl(form *sheets.Form, index int) *sheets.Control {
	if index < 0 {
		return nil
	}
	for _, c := range form.Find(pokemon.SelectorRoll).Controls() {
		if pokemon.MoveIndex(c) == index {
			return c
		}
	}
	return nil
}

// moveLabel is the text of the .move-name next to a roll control
func moveLabel(form *sheets.Form, roll *sheets.Control, index int) string {
	holder := roll.Closest(pokemon.SelectorMove)
	for _, c := range form.Find(".move-name").Controls() {
		if holder != nil && c.Parent == holder && c.Label != "" {
			return c.Label
		}
	}
	return fmt.Sprintf("Move %d", index+1)
}

func sheetEmbed(a *actor.Actor, rendered *sheets.Rendered) *discordgo.MessageEmbed {
	view, ok := rendered.Data["poke"].(pokemon.View)
	if !ok {
		return builders.NewSheetEmbed().SetActor(a.Name, a.Level()).Build()
	}

	moves := make([]string, 0, len(view.Moves))
	for _, m := range view.Moves {
		moves = append(moves, m.Name)
	}

	return builders.NewSheetEmbed().
		SetActor(view.Name, view.Level).
		AddTraits(view.Nature, view.Types).
		AddMoves(moves).
		Build()
}

func notificationResponse(collector *notify.Collector, fallback string) *core.Response {
	all := collector.All()
	if len(all) == 0 {
		return core.NewEphemeralResponse(fallback)
	}

	lines := make([]string, 0, len(all))
	for _, n := range all {
		prefix := "✅ "
		if n.Level == notify.LevelWarn {
			prefix = "⚠️ "
		}
		lines = append(lines, prefix+n.Message)
	}
	return core.NewEphemeralResponse(strings.Join(lines, "\n"))
}

func displayName(a *actor.Actor) string {
	if a.Name == "" {
		return a.ID
	}
	return a.Name
}

// textField prefills an input, clamped so Discord accepts the modal
func textField(id, label, value string, max int, paragraph bool) core.TextField {
	return core.TextField{
		ID:        id,
		Label:     label,
		Value:     builders.Clamp(value, max),
		Paragraph: paragraph,
		MaxLength: max,
	}
}
