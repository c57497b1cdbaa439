package cli_test

import (
	"bytes"
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/go-redis/redismock/v9"
	"github.com/stretchr/testify/suite"

	"github.com/KirkDiggler/pokemon-pf1-sheet/internal/chat"
	"github.com/KirkDiggler/pokemon-pf1-sheet/internal/cli"
	"github.com/KirkDiggler/pokemon-pf1-sheet/internal/config"
	mockdice "github.com/KirkDiggler/pokemon-pf1-sheet/internal/dice/mock"
	sheeterr "github.com/KirkDiggler/pokemon-pf1-sheet/internal/errors"
	"github.com/KirkDiggler/pokemon-pf1-sheet/internal/repositories/actors"
	"github.com/KirkDiggler/pokemon-pf1-sheet/internal/sheets/pokemon"
)

type CLITestSuite struct {
	suite.Suite
	repo    *actors.InMemoryRepository
	roller  *mockdice.ManualMockRoller
	backend *actors.Backend
	env     *cli.Env
}

func TestCLITestSuite(t *testing.T) {
	suite.Run(t, new(CLITestSuite))
}

func (s *CLITestSuite) SetupTest() {
	s.repo = actors.NewInMemoryRepository()
	s.roller = mockdice.NewManualMockRoller()
	s.backend = &actors.Backend{Name: actors.BackendMemory, Repository: s.repo}
	s.env = &cli.Env{
		Config: &config.Config{},
		OpenBackend: func(context.Context, actors.BackendConfig) (*actors.Backend, error) {
			return s.backend, nil
		},
		Roller: s.roller,
	}
}

func (s *CLITestSuite) run(args ...string) (string, error) {
	var out bytes.Buffer
	root := cli.NewRootCmd(s.env)
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetArgs(args)
	err := root.ExecuteContext(context.Background())
	return out.String(), err
}

func (s *CLITestSuite) seedPikachu() {
	out, err := s.run("seed", "--id", "actor-1", "--name", "Pikachu", "--str", "14", "--level", "5",
		"--nature", "Jolly", "--types", "Electric", "--move", "Thunderbolt", "--move", "Quick Attack")
	s.Require().NoError(err)
	s.Contains(out, "created character Pikachu (actor-1)")
	s.Contains(out, "info: "+pokemon.MessageSaved)
}

func (s *CLITestSuite) showJSON() map[string]any {
	out, err := s.run("show", "actor-1", "--format", "json")
	s.Require().NoError(err)

	var sheet map[string]any
	s.Require().NoError(json.Unmarshal([]byte(out), &sheet))
	return sheet
}

func (s *CLITestSuite) TestSeedAndShow() {
	s.seedPikachu()

	out, err := s.run("show", "actor-1")
	s.Require().NoError(err)
	s.Contains(out, "Pikachu (Level 5)")
	s.Contains(out, "Nature: Jolly")
	s.Contains(out, "Types: Electric")
	s.Contains(out, "  1. Quick Attack")

	sheet := s.showJSON()
	s.Equal("Jolly", sheet["nature"])
	s.Equal([]any{"Thunderbolt", "Quick Attack"}, sheet["moves"])
}

func (s *CLITestSuite) TestSeedWithoutProfileShowsDefaults() {
	_, err := s.run("seed", "--id", "actor-1", "--name", "Eevee", "--kind", "npc")
	s.Require().NoError(err)

	sheet := s.showJSON()
	s.Equal(pokemon.DefaultNature, sheet["nature"])
	s.Equal(float64(1), sheet["level"])
	s.Empty(sheet["types"])
	s.Empty(sheet["moves"])
}

func (s *CLITestSuite) TestSeedValidation() {
	_, err := s.run("seed", "--name", "Missingno", "--kind", "glitch")
	s.Error(err)

	_, err = s.run("seed")
	s.Error(err)
}

func (s *CLITestSuite) TestSaveMergesSubmittedFields() {
	s.seedPikachu()

	out, err := s.run("save", "actor-1", "--nature", "Bold")
	s.Require().NoError(err)
	s.Equal("info: "+pokemon.MessageSaved+"\n", out)

	sheet := s.showJSON()
	s.Equal("Bold", sheet["nature"])
	s.Equal([]any{"Electric"}, sheet["types"])
	s.Len(sheet["moves"], 2)
}

func (s *CLITestSuite) TestSaveWithoutFieldsWarns() {
	s.seedPikachu()

	out, err := s.run("save", "actor-1")
	s.Require().NoError(err)
	s.Equal("warn: "+pokemon.MessageNoPokeData+"\n", out)
}

func (s *CLITestSuite) TestRoll() {
	s.seedPikachu()
	s.roller.SetNextRoll(15)

	out, err := s.run("roll", "actor-1", "0")
	s.Require().NoError(err)
	s.Contains(out, "Pikachu | Thunderbolt attack roll: 1d20 + 2")

	calls := s.roller.Calls()
	s.Require().Len(calls, 1)
	s.Equal(mockdice.Call{Count: 1, Sides: 20, Bonus: 2}, calls[0])
}

func (s *CLITestSuite) TestRollMissingMove() {
	s.seedPikachu()

	out, err := s.run("roll", "actor-1", "9")
	s.Require().NoError(err)
	s.Equal("warn: "+pokemon.MessageMoveMissing+"\n", out)
	s.Empty(s.roller.Calls())

	_, err = s.run("roll", "actor-1", "first")
	s.Error(err)
}

func (s *CLITestSuite) TestShowMissingActor() {
	_, err := s.run("show", "nobody")
	s.True(sheeterr.IsNotFound(err))
}

func (s *CLITestSuite) TestChatNeedsRedis() {
	_, err := s.run("chat")
	s.EqualError(err, "chat history needs a Redis store")
}

func (s *CLITestSuite) TestChatListsHistory() {
	client, mock := redismock.NewClientMock()
	s.backend.Redis = client

	payload, err := json.Marshal(&chat.Message{
		ID:        "msg-1",
		Speaker:   chat.Speaker{ActorID: "actor-1", Alias: "Pikachu"},
		Flavor:    "Thunderbolt attack roll",
		Formula:   "1d20 + 2",
		Rolls:     []int{15},
		Bonus:     2,
		Total:     17,
		Timestamp: time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC),
	})
	s.Require().NoError(err)
	mock.ExpectLRange("chat:log", 0, 4).SetVal([]string{string(payload)})

	out, err := s.run("chat", "--limit", "5")
	s.Require().NoError(err)
	s.Equal("Pikachu | Thunderbolt attack roll: 1d20 + 2 = 17 [15]\n", out)
	s.NoError(mock.ExpectationsWereMet())
}
