package routers_test

import (
	"context"
	"encoding/json"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/bwmarrin/discordgo"
	"github.com/stretchr/testify/suite"

	"github.com/KirkDiggler/pokemon-pf1-sheet/internal/chat"
	mockdice "github.com/KirkDiggler/pokemon-pf1-sheet/internal/dice/mock"
	"github.com/KirkDiggler/pokemon-pf1-sheet/internal/discord/v2/core"
	"github.com/KirkDiggler/pokemon-pf1-sheet/internal/discord/v2/middleware"
	"github.com/KirkDiggler/pokemon-pf1-sheet/internal/discord/v2/routers"
	"github.com/KirkDiggler/pokemon-pf1-sheet/internal/domain/actor"
	sheeterr "github.com/KirkDiggler/pokemon-pf1-sheet/internal/errors"
	"github.com/KirkDiggler/pokemon-pf1-sheet/internal/notify"
	"github.com/KirkDiggler/pokemon-pf1-sheet/internal/repositories/actors"
	"github.com/KirkDiggler/pokemon-pf1-sheet/internal/sheets"
	"github.com/KirkDiggler/pokemon-pf1-sheet/internal/sheets/pokemon"
	"github.com/KirkDiggler/pokemon-pf1-sheet/internal/testutils"
	"github.com/KirkDiggler/pokemon-pf1-sheet/internal/uuid"
)

const pikachuID = "actor-pikachu"

type fakeSender struct {
	channels []string
	embeds   []*discordgo.MessageEmbed
}

func (f *fakeSender) ChannelMessageSendEmbed(channelID string, embed *discordgo.MessageEmbed, _ ...discordgo.RequestOption) (*discordgo.Message, error) {
	f.channels = append(f.channels, channelID)
	f.embeds = append(f.embeds, embed)
	return &discordgo.Message{ChannelID: channelID}, nil
}

type SheetRouterTestSuite struct {
	suite.Suite
	ctx      context.Context
	repo     *actors.InMemoryRepository
	roller   *mockdice.ManualMockRoller
	sender   *fakeSender
	registry *sheets.Registry
	pipeline *core.Pipeline
	handler  core.Handler
}

func TestSheetRouterTestSuite(t *testing.T) {
	suite.Run(t, new(SheetRouterTestSuite))
}

func (s *SheetRouterTestSuite) SetupTest() {
	s.ctx = context.Background()
	s.repo = actors.NewInMemoryRepository()
	s.roller = mockdice.NewManualMockRoller()
	s.sender = &fakeSender{}
	s.registry = sheets.NewRegistry()

	err := pokemon.Register(sheets.StaticHost{Base: sheets.NewActorSheet()}, s.registry, pokemon.Config{
		Flags:  s.repo,
		Actors: s.repo,
		Roller: s.roller,
		Chat:   chat.NewDiscordLog(s.sender, uuid.NewSequenceGenerator("msg")),
		Notify: notify.Router{Fallback: notify.LogSink{}},
	})
	s.Require().NoError(err)

	s.pipeline = core.NewPipeline()
	s.pipeline.Use(middleware.ErrorMiddleware(nil))

	router, err := routers.NewSheetRouter(&routers.SheetRouterConfig{
		Pipeline: s.pipeline,
		Actors:   s.repo,
		Registry: s.registry,
		Renderer: sheets.NewHTMLRenderer(pokemon.Templates),
	})
	s.Require().NoError(err)
	s.handler = router.Handler()

	a := &actor.Actor{
		ID:   pikachuID,
		Name: "Pikachu",
		Kind: actor.KindCharacter,
		System: &actor.System{
			Abilities: map[string]*actor.AbilityScore{actor.AbilityStrength: {Value: 14}},
			Details:   &actor.Details{Level: 5},
		},
	}
	a.SetFlag(pokemon.Namespace, pokemon.FlagKey,
		json.RawMessage(`{"nature":"Jolly","types":["Electric"],"moves":[{"name":"Thunderbolt"},{"name":"Quick Attack"}]}`))
	s.Require().NoError(s.repo.Create(s.ctx, a))
}

func (s *SheetRouterTestSuite) handle(tc *core.TestInteractionContext) (*core.HandlerResult, error) {
	s.Require().True(s.handler.CanHandle(tc.InteractionContext))
	return s.handler.Handle(tc.InteractionContext)
}

func (s *SheetRouterTestSuite) storedProfile() map[string]any {
	raw, err := s.repo.GetFlag(s.ctx, pikachuID, pokemon.Namespace, pokemon.FlagKey)
	s.Require().NoError(err)
	var out map[string]any
	s.Require().NoError(json.Unmarshal(raw, &out))
	return out
}

func (s *SheetRouterTestSuite) TestShow() {
	result, err := s.handle(core.NewTestInteractionContext().
		AsCommand(routers.CommandName, "show").
		WithParam("actor", pikachuID))
	s.Require().NoError(err)

	resp := result.Response
	s.Require().Len(resp.Embeds, 1)
	embed := resp.Embeds[0]
	s.Equal("Pikachu", embed.Title)
	s.Equal("Level 5", embed.Description)
	s.Require().Len(embed.Fields, 3)
	s.Equal("Jolly", embed.Fields[0].Value)
	s.Equal("Electric", embed.Fields[1].Value)
	s.Equal("1. Thunderbolt\n2. Quick Attack", embed.Fields[2].Value)

	s.Require().Len(resp.Components, 2)
	editRow := resp.Components[0].(discordgo.ActionsRow)
	s.Require().Len(editRow.Components, 1)
	s.Equal("pokesheet:save:actor-pikachu", editRow.Components[0].(discordgo.Button).CustomID)

	rollRow := resp.Components[1].(discordgo.ActionsRow)
	s.Require().Len(rollRow.Components, 2)
	first := rollRow.Components[0].(discordgo.Button)
	s.Equal("Thunderbolt", first.Label)
	s.Equal("pokesheet:roll:actor-pikachu:0", first.CustomID)
	s.Equal("pokesheet:roll:actor-pikachu:1", rollRow.Components[1].(discordgo.Button).CustomID)
}

func (s *SheetRouterTestSuite) TestShow_DefaultsWithoutFlag() {
	s.Require().NoError(s.repo.Create(s.ctx, testutils.CreateTestActor("actor-eevee", "user-1", "Eevee", actor.KindNPC)))

	result, err := s.handle(core.NewTestInteractionContext().
		AsCommand(routers.CommandName, "show").
		WithParam("actor", "actor-eevee"))
	s.Require().NoError(err)

	embed := result.Response.Embeds[0]
	s.Equal("Level 1", embed.Description)
	s.Equal(pokemon.DefaultNature, embed.Fields[0].Value)
	s.Equal("None", embed.Fields[1].Value)
	s.Equal("None", embed.Fields[2].Value)

	// only the edit row, no moves to roll
	s.Len(result.Response.Components, 1)
}

func (s *SheetRouterTestSuite) TestShow_Errors() {
	_, err := s.handle(core.NewTestInteractionContext().
		AsCommand(routers.CommandName, "show").
		WithParam("actor", "missing"))
	s.True(sheeterr.IsNotFound(err))

	_, err = s.handle(core.NewTestInteractionContext().AsCommand(routers.CommandName, "show"))
	var handlerErr *core.HandlerError
	s.Require().ErrorAs(err, &handlerErr)
	s.Equal(core.ErrorCodeBadRequest, handlerErr.Code)
}

func (s *SheetRouterTestSuite) TestShow_ThroughPipeline() {
	responder := core.NewMockResponder()
	tc := core.NewTestInteractionContext().
		AsCommand(routers.CommandName, "show").
		WithParam("actor", "missing")

	s.Require().NoError(s.pipeline.Dispatch(tc.InteractionContext, responder))

	last := responder.LastResponse()
	s.Require().NotNil(last)
	s.True(last.Ephemeral)
	s.Equal("❌ actor with ID 'missing' not found", last.Content)
}

func (s *SheetRouterTestSuite) TestSheets() {
	result, err := s.handle(core.NewTestInteractionContext().AsCommand(routers.CommandName, "sheets"))
	s.Require().NoError(err)

	s.True(result.Response.Ephemeral)
	embed := result.Response.Embeds[0]
	s.Require().Len(embed.Fields, 2)
	s.Equal(string(actor.KindCharacter), embed.Fields[0].Name)
	s.Equal(pokemon.DefaultLabel, embed.Fields[0].Value)
	s.Equal(pokemon.DefaultLabel, embed.Fields[1].Value)
}

func (s *SheetRouterTestSuite) TestSaveButtonOpensPrefilledModal() {
	result, err := s.handle(core.NewTestInteractionContext().AsComponent("pokesheet:save:actor-pikachu"))
	s.Require().NoError(err)

	modal := result.Response.Modal
	s.Require().NotNil(modal)
	s.Equal("pokesheet:submit:actor-pikachu", modal.CustomID)
	s.Equal("Edit Pikachu", modal.Title)
	s.Require().Len(modal.Fields, 3)
	s.Equal("poke.nature", modal.Fields[0].ID)
	s.Equal("Jolly", modal.Fields[0].Value)
	s.Equal("Electric", modal.Fields[1].Value)
	s.Equal("Thunderbolt\nQuick Attack", modal.Fields[2].Value)
	s.True(modal.Fields[2].Paragraph)
}

func (s *SheetRouterTestSuite) TestLongAccentedTextStaysWithinDiscordLimits() {
	longMove := strings.Repeat("é", 100)
	longNature := strings.Repeat("é", 150)
	a := testutils.CreateTestPokemon("actor-eevee", "Eevee", 10, 3, pokemon.Profile{
		Nature: longNature,
		Types:  []string{"Normal"},
		Moves:  []pokemon.Move{{Name: longMove}},
	})
	s.Require().NoError(s.repo.Create(s.ctx, a))

	result, err := s.handle(core.NewTestInteractionContext().AsCommand("pokesheet", "show").WithParam("actor", "actor-eevee"))
	s.Require().NoError(err)

	rollRow := result.Response.Components[1].(discordgo.ActionsRow)
	label := rollRow.Components[0].(discordgo.Button).Label
	s.True(utf8.ValidString(label))
	s.Equal(80, utf8.RuneCountInString(label))
	s.True(strings.HasSuffix(label, "…"))

	for _, field := range result.Response.Embeds[0].Fields {
		s.True(utf8.ValidString(field.Value), field.Name)
	}

	result, err = s.handle(core.NewTestInteractionContext().AsComponent("pokesheet:save:actor-eevee"))
	s.Require().NoError(err)

	nature := result.Response.Modal.Fields[0]
	s.True(utf8.ValidString(nature.Value))
	s.LessOrEqual(utf8.RuneCountInString(nature.Value), nature.MaxLength)
	s.Equal(strings.Repeat("é", nature.MaxLength), nature.Value)
}

func (s *SheetRouterTestSuite) TestSubmitSavesAndReportsToUser() {
	result, err := s.handle(core.NewTestInteractionContext().AsModal("pokesheet:submit:actor-pikachu", map[string]string{
		"poke.nature": "Bold",
		"poke.types":  "",
		"poke.moves":  "",
	}))
	s.Require().NoError(err)

	s.True(result.Response.Ephemeral)
	s.Equal("✅ "+pokemon.MessageSaved, result.Response.Content)

	stored := s.storedProfile()
	s.Equal("Bold", stored["nature"])
	s.Equal([]any{"Electric"}, stored["types"])
	s.Len(stored["moves"], 2)
}

func (s *SheetRouterTestSuite) TestSubmitReplacesMoves() {
	_, err := s.handle(core.NewTestInteractionContext().AsModal("pokesheet:submit:actor-pikachu", map[string]string{
		"poke.types": "Electric, Steel",
		"poke.moves": "Iron Tail\nThunderbolt",
	}))
	s.Require().NoError(err)

	stored := s.storedProfile()
	s.Equal("Jolly", stored["nature"])
	s.Equal([]any{"Electric", "Steel"}, stored["types"])
	moves := stored["moves"].([]any)
	s.Require().Len(moves, 2)
	s.Equal("Iron Tail", moves[0].(map[string]any)["name"])
}

func (s *SheetRouterTestSuite) TestRollPostsToChannel() {
	s.roller.SetNextRoll(12)

	result, err := s.handle(core.NewTestInteractionContext().
		WithChannelID("chan-42").
		AsComponent("pokesheet:roll:actor-pikachu:1"))
	s.Require().NoError(err)

	s.True(result.Response.Ephemeral)
	s.Equal("🎲 Roll posted.", result.Response.Content)

	s.Require().Len(s.sender.embeds, 1)
	s.Equal([]string{"chan-42"}, s.sender.channels)
	s.Equal("Quick Attack attack roll", s.sender.embeds[0].Title)
	s.Equal("Pikachu", s.sender.embeds[0].Author.Name)
	s.Contains(s.sender.embeds[0].Description, "1d20 + 2")

	calls := s.roller.Calls()
	s.Require().Len(calls, 1)
	s.Equal(mockdice.Call{Count: 1, Sides: 20, Bonus: 2}, calls[0])
}

func (s *SheetRouterTestSuite) TestRollStaleIndexWarnsWithoutRolling() {
	for _, id := range []string{"pokesheet:roll:actor-pikachu:7", "pokesheet:roll:actor-pikachu:x", "pokesheet:roll:actor-pikachu"} {
		result, err := s.handle(core.NewTestInteractionContext().AsComponent(id))
		s.Require().NoError(err, id)
		s.True(result.Response.Ephemeral)
		s.Equal("⚠️ "+pokemon.MessageMoveMissing, result.Response.Content)
	}

	s.Empty(s.roller.Calls())
	s.Empty(s.sender.embeds)
}

func (s *SheetRouterTestSuite) TestNewSheetRouter_Validation() {
	_, err := routers.NewSheetRouter(&routers.SheetRouterConfig{Pipeline: core.NewPipeline()})
	s.Error(err)
}

func (s *SheetRouterTestSuite) TestCommandDefinition() {
	cmd := routers.Command()
	s.Equal(routers.CommandName, cmd.Name)
	s.Require().Len(cmd.Options, 2)
	s.Equal("show", cmd.Options[0].Name)
	s.True(cmd.Options[0].Options[0].Required)
	s.Equal("sheets", cmd.Options[1].Name)
}
