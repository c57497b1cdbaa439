package actors_test

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/go-redis/redismock/v9"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/suite"

	"github.com/KirkDiggler/pokemon-pf1-sheet/internal/domain/actor"
	sheeterr "github.com/KirkDiggler/pokemon-pf1-sheet/internal/errors"
	"github.com/KirkDiggler/pokemon-pf1-sheet/internal/repositories/actors"
)

type fixedTime struct {
	now time.Time
}

func (f fixedTime) Now() time.Time {
	return f.now
}

type RedisRepoTestSuite struct {
	suite.Suite
	client *redis.Client
	mock   redismock.ClientMock
	repo   actors.Repository
	now    time.Time
	ctx    context.Context
}

func (s *RedisRepoTestSuite) SetupTest() {
	s.client, s.mock = redismock.NewClientMock()
	s.now = time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	s.repo = actors.NewRedisRepository(&actors.RedisRepoConfig{
		Client:       s.client,
		TimeProvider: fixedTime{now: s.now},
	})
	s.ctx = context.Background()
}

func (s *RedisRepoTestSuite) TearDownTest() {
	s.NoError(s.mock.ExpectationsWereMet())
}

func TestRedisRepoTestSuite(t *testing.T) {
	suite.Run(t, new(RedisRepoTestSuite))
}

func (s *RedisRepoTestSuite) data() actors.Data {
	return actors.Data{
		ID:      "actor-1",
		OwnerID: "user-1",
		Name:    "Pikachu",
		Kind:    actor.KindCharacter,
		System: &actor.System{
			Abilities: map[string]*actor.AbilityScore{actor.AbilityStrength: {Value: 14}},
		},
		CreatedAt: s.now,
		UpdatedAt: s.now,
	}
}

func (s *RedisRepoTestSuite) marshal(v any) string {
	b, err := json.Marshal(v)
	s.Require().NoError(err)
	return string(b)
}

func (s *RedisRepoTestSuite) TestCreate() {
	data := s.data()
	a := &actor.Actor{
		ID:      data.ID,
		OwnerID: data.OwnerID,
		Name:    data.Name,
		Kind:    data.Kind,
		System:  data.System,
	}
	a.SetFlag("pokemon-pf1-sheet", "data", json.RawMessage(`{"nature":"Jolly"}`))

	s.mock.ExpectExists("actor:actor-1").SetVal(0)
	s.mock.ExpectSet("actor:actor-1", s.marshal(data), 0).SetVal("OK")
	s.mock.ExpectHSet("actor:actor-1:flags", "pokemon-pf1-sheet.data", `{"nature":"Jolly"}`).SetVal(1)
	s.mock.ExpectSAdd("actors:kind:character", "actor-1").SetVal(1)

	s.NoError(s.repo.Create(s.ctx, a))
}

func (s *RedisRepoTestSuite) TestCreate_AlreadyExists() {
	s.mock.ExpectExists("actor:actor-1").SetVal(1)

	err := s.repo.Create(s.ctx, &actor.Actor{ID: "actor-1", Kind: actor.KindCharacter})
	s.True(sheeterr.IsAlreadyExists(err))
}

func (s *RedisRepoTestSuite) TestGet() {
	s.mock.ExpectGet("actor:actor-1").SetVal(s.marshal(s.data()))
	s.mock.ExpectHGetAll("actor:actor-1:flags").SetVal(map[string]string{
		"pokemon-pf1-sheet.data": `{"nature":"Jolly"}`,
	})

	got, err := s.repo.Get(s.ctx, "actor-1")
	s.Require().NoError(err)
	s.Equal("Pikachu", got.Name)

	value, ok := got.GetFlag("pokemon-pf1-sheet", "data")
	s.Require().True(ok)
	s.JSONEq(`{"nature":"Jolly"}`, string(value))
}

func (s *RedisRepoTestSuite) TestGet_NotFound() {
	s.mock.ExpectGet("actor:missing").RedisNil()

	_, err := s.repo.Get(s.ctx, "missing")
	s.True(sheeterr.IsNotFound(err))
}

func (s *RedisRepoTestSuite) TestGet_DependencyError() {
	s.mock.ExpectGet("actor:actor-1").SetErr(errors.New("redis down"))

	_, err := s.repo.Get(s.ctx, "actor-1")
	s.Error(err)
	s.False(sheeterr.IsNotFound(err))
}

func (s *RedisRepoTestSuite) TestListByKind() {
	s.mock.ExpectSMembers("actors:kind:character").SetVal([]string{"actor-1"})
	s.mock.ExpectGet("actor:actor-1").SetVal(s.marshal(s.data()))
	s.mock.ExpectHGetAll("actor:actor-1:flags").SetVal(map[string]string{})

	got, err := s.repo.ListByKind(s.ctx, actor.KindCharacter)
	s.Require().NoError(err)
	s.Require().Len(got, 1)
	s.Equal("actor-1", got[0].ID)
}

func (s *RedisRepoTestSuite) TestUpdate_KindChangeMovesIndex() {
	existing := s.data()
	existing.CreatedAt = s.now.Add(-time.Hour)

	updated := s.data()
	updated.Kind = actor.KindNPC
	updated.CreatedAt = existing.CreatedAt

	s.mock.ExpectGet("actor:actor-1").SetVal(s.marshal(existing))
	s.mock.ExpectSet("actor:actor-1", s.marshal(updated), 0).SetVal("OK")
	s.mock.ExpectSRem("actors:kind:character", "actor-1").SetVal(1)
	s.mock.ExpectSAdd("actors:kind:npc", "actor-1").SetVal(1)

	err := s.repo.Update(s.ctx, &actor.Actor{
		ID:      updated.ID,
		OwnerID: updated.OwnerID,
		Name:    updated.Name,
		Kind:    actor.KindNPC,
		System:  updated.System,
	})
	s.NoError(err)
}

func (s *RedisRepoTestSuite) TestDelete() {
	s.mock.ExpectGet("actor:actor-1").SetVal(s.marshal(s.data()))
	s.mock.ExpectDel("actor:actor-1", "actor:actor-1:flags").SetVal(2)
	s.mock.ExpectSRem("actors:kind:character", "actor-1").SetVal(1)

	s.NoError(s.repo.Delete(s.ctx, "actor-1"))
}

func (s *RedisRepoTestSuite) TestGetFlag() {
	s.mock.ExpectExists("actor:actor-1").SetVal(1)
	s.mock.ExpectHGet("actor:actor-1:flags", "pokemon-pf1-sheet.data").SetVal(`{"nature":"Bold"}`)

	value, err := s.repo.GetFlag(s.ctx, "actor-1", "pokemon-pf1-sheet", "data")
	s.Require().NoError(err)
	s.JSONEq(`{"nature":"Bold"}`, string(value))
}

func (s *RedisRepoTestSuite) TestGetFlag_Absent() {
	s.mock.ExpectExists("actor:actor-1").SetVal(1)
	s.mock.ExpectHGet("actor:actor-1:flags", "pokemon-pf1-sheet.data").RedisNil()

	value, err := s.repo.GetFlag(s.ctx, "actor-1", "pokemon-pf1-sheet", "data")
	s.NoError(err)
	s.Nil(value)
}

func (s *RedisRepoTestSuite) TestSetFlag() {
	s.mock.ExpectExists("actor:actor-1").SetVal(1)
	s.mock.ExpectHSet("actor:actor-1:flags", "pokemon-pf1-sheet.data", `{"nature":"Bold"}`).SetVal(0)

	err := s.repo.SetFlag(s.ctx, "actor-1", "pokemon-pf1-sheet", "data", json.RawMessage(`{"nature":"Bold"}`))
	s.NoError(err)
}

func (s *RedisRepoTestSuite) TestSetFlag_MissingActor() {
	s.mock.ExpectExists("actor:missing").SetVal(0)

	err := s.repo.SetFlag(s.ctx, "missing", "pokemon-pf1-sheet", "data", json.RawMessage(`{}`))
	s.True(sheeterr.IsNotFound(err))
}

func (s *RedisRepoTestSuite) TestUnsetFlag() {
	s.mock.ExpectExists("actor:actor-1").SetVal(1)
	s.mock.ExpectHDel("actor:actor-1:flags", "pokemon-pf1-sheet.data").SetVal(1)

	s.NoError(s.repo.UnsetFlag(s.ctx, "actor-1", "pokemon-pf1-sheet", "data"))
}
