package actors

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/errgroup"

	"github.com/KirkDiggler/pokemon-pf1-sheet/internal/domain/actor"
	sheeterr "github.com/KirkDiggler/pokemon-pf1-sheet/internal/errors"
)

// Data is the serialized form of an actor document in Redis. Flags live in
// a separate hash so a flag write never rewrites the document.
type Data struct {
	ID        string        `json:"id"`
	OwnerID   string        `json:"owner_id"`
	Name      string        `json:"name"`
	Kind      actor.Kind    `json:"kind"`
	System    *actor.System `json:"system,omitempty"`
	CreatedAt time.Time     `json:"created_at"`
	UpdatedAt time.Time     `json:"updated_at"`
}

// RedisRepoConfig holds configuration for the Redis repository
type RedisRepoConfig struct {
	Client       redis.UniversalClient
	TimeProvider TimeProvider
}

type redisRepo struct {
	client       redis.UniversalClient
	timeProvider TimeProvider
}

// NewRedisRepository creates a new Redis-backed actor repository
func NewRedisRepository(cfg *RedisRepoConfig) Repository {
	if cfg == nil {
		panic("RedisRepoConfig cannot be nil")
	}
	if cfg.Client == nil {
		panic("Redis client cannot be nil")
	}
	if cfg.TimeProvider == nil {
		cfg.TimeProvider = SystemTime()
	}

	return &redisRepo{
		client:       cfg.Client,
		timeProvider: cfg.TimeProvider,
	}
}

func (r *redisRepo) key(id string) string {
	return fmt.Sprintf("actor:%s", id)
}

func (r *redisRepo) flagsKey(id string) string {
	return fmt.Sprintf("actor:%s:flags", id)
}

func (r *redisRepo) kindKey(kind actor.Kind) string {
	return fmt.Sprintf("actors:kind:%s", kind)
}

func flagField(namespace, key string) string {
	return namespace + "." + key
}

// Create stores a new actor
func (r *redisRepo) Create(ctx context.Context, a *actor.Actor) error {
	if err := validateActor(a); err != nil {
		return err
	}

	exists, err := r.client.Exists(ctx, r.key(a.ID)).Result()
	if err != nil {
		return sheeterr.Wrap(err, "failed to check actor existence")
	}
	if exists > 0 {
		return sheeterr.AlreadyExistsf("actor with ID '%s' already exists", a.ID).
			WithMeta("actor_id", a.ID)
	}

	now := r.timeProvider.Now()
	data := toData(a)
	data.CreatedAt = now
	data.UpdatedAt = now

	jsonData, err := json.Marshal(data)
	if err != nil {
		return fmt.Errorf("failed to marshal actor data: %w", err)
	}

	pipe := r.client.Pipeline()
	pipe.Set(ctx, r.key(a.ID), string(jsonData), 0)
	if fields := flagPairs(a.Flags); len(fields) > 0 {
		pipe.HSet(ctx, r.flagsKey(a.ID), fields...)
	}
	pipe.SAdd(ctx, r.kindKey(a.Kind), a.ID)

	if _, err := pipe.Exec(ctx); err != nil {
		return sheeterr.Wrap(err, "failed to create actor in Redis")
	}

	return nil
}

// Get retrieves an actor and its flags
func (r *redisRepo) Get(ctx context.Context, id string) (*actor.Actor, error) {
	if id == "" {
		return nil, sheeterr.InvalidArgument("actor ID is required")
	}

	data, err := r.getData(ctx, id)
	if err != nil {
		return nil, err
	}

	fields, err := r.client.HGetAll(ctx, r.flagsKey(id)).Result()
	if err != nil {
		return nil, sheeterr.Wrapf(err, "failed to get flags for actor %s", id)
	}

	a := fromData(data)
	for field, value := range fields {
		namespace, key, ok := strings.Cut(field, ".")
		if !ok {
			continue
		}
		a.SetFlag(namespace, key, json.RawMessage(value))
	}

	return a, nil
}

// ListByKind loads every actor of the kind concurrently
func (r *redisRepo) ListByKind(ctx context.Context, kind actor.Kind) ([]*actor.Actor, error) {
	if kind == "" {
		return nil, sheeterr.InvalidArgument("actor kind is required")
	}

	ids, err := r.client.SMembers(ctx, r.kindKey(kind)).Result()
	if err != nil {
		return nil, sheeterr.Wrapf(err, "failed to list %s actors", kind)
	}

	result := make([]*actor.Actor, len(ids))

	g, gctx := errgroup.WithContext(ctx)
	for i, id := range ids {
		g.Go(func() error {
			a, err := r.Get(gctx, id)
			if err != nil {
				return fmt.Errorf("failed to get actor %s: %w", id, err)
			}
			result[i] = a
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	sort.Slice(result, func(i, j int) bool {
		return result[i].Name < result[j].Name
	})

	return result, nil
}

// Update replaces the actor document, leaving the flag hash alone
func (r *redisRepo) Update(ctx context.Context, a *actor.Actor) error {
	if err := validateActor(a); err != nil {
		return err
	}

	existing, err := r.getData(ctx, a.ID)
	if err != nil {
		return err
	}

	data := toData(a)
	data.CreatedAt = existing.CreatedAt
	data.UpdatedAt = r.timeProvider.Now()

	jsonData, err := json.Marshal(data)
	if err != nil {
		return fmt.Errorf("failed to marshal actor data: %w", err)
	}

	pipe := r.client.Pipeline()
	pipe.Set(ctx, r.key(a.ID), string(jsonData), 0)
	if existing.Kind != a.Kind {
		pipe.SRem(ctx, r.kindKey(existing.Kind), a.ID)
		pipe.SAdd(ctx, r.kindKey(a.Kind), a.ID)
	}

	if _, err := pipe.Exec(ctx); err != nil {
		return sheeterr.Wrap(err, "failed to update actor in Redis")
	}

	return nil
}

// Delete removes the actor document, its flags and its kind index entry
func (r *redisRepo) Delete(ctx context.Context, id string) error {
	if id == "" {
		return sheeterr.InvalidArgument("actor ID is required")
	}

	existing, err := r.getData(ctx, id)
	if err != nil {
		return err
	}

	pipe := r.client.Pipeline()
	pipe.Del(ctx, r.key(id), r.flagsKey(id))
	pipe.SRem(ctx, r.kindKey(existing.Kind), id)

	if _, err := pipe.Exec(ctx); err != nil {
		return sheeterr.Wrap(err, "failed to delete actor from Redis")
	}

	return nil
}

// GetFlag returns a single flag value
func (r *redisRepo) GetFlag(ctx context.Context, actorID, namespace, key string) (json.RawMessage, error) {
	if err := validateFlagKey(actorID, namespace, key); err != nil {
		return nil, err
	}
	if err := r.ensureExists(ctx, actorID); err != nil {
		return nil, err
	}

	value, err := r.client.HGet(ctx, r.flagsKey(actorID), flagField(namespace, key)).Result()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, sheeterr.Wrapf(err, "failed to get flag %s.%s", namespace, key)
	}

	return json.RawMessage(value), nil
}

// SetFlag stores a single flag value
func (r *redisRepo) SetFlag(ctx context.Context, actorID, namespace, key string, value json.RawMessage) error {
	if err := validateFlagKey(actorID, namespace, key); err != nil {
		return err
	}
	if !json.Valid(value) {
		return sheeterr.InvalidArgumentf("flag %s.%s is not valid JSON", namespace, key)
	}
	if err := r.ensureExists(ctx, actorID); err != nil {
		return err
	}

	if err := r.client.HSet(ctx, r.flagsKey(actorID), flagField(namespace, key), string(value)).Err(); err != nil {
		return sheeterr.Wrapf(err, "failed to set flag %s.%s", namespace, key)
	}

	return nil
}

// UnsetFlag removes a single flag value
func (r *redisRepo) UnsetFlag(ctx context.Context, actorID, namespace, key string) error {
	if err := validateFlagKey(actorID, namespace, key); err != nil {
		return err
	}
	if err := r.ensureExists(ctx, actorID); err != nil {
		return err
	}

	if err := r.client.HDel(ctx, r.flagsKey(actorID), flagField(namespace, key)).Err(); err != nil {
		return sheeterr.Wrapf(err, "failed to unset flag %s.%s", namespace, key)
	}

	return nil
}

func (r *redisRepo) getData(ctx context.Context, id string) (*Data, error) {
	raw, err := r.client.Get(ctx, r.key(id)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, notFound(id)
	}
	if err != nil {
		return nil, sheeterr.Wrapf(err, "failed to get actor %s from Redis", id)
	}

	var data Data
	if err := json.Unmarshal(raw, &data); err != nil {
		return nil, fmt.Errorf("failed to unmarshal actor data: %w", err)
	}

	return &data, nil
}

func (r *redisRepo) ensureExists(ctx context.Context, id string) error {
	exists, err := r.client.Exists(ctx, r.key(id)).Result()
	if err != nil {
		return sheeterr.Wrap(err, "failed to check actor existence")
	}
	if exists == 0 {
		return notFound(id)
	}
	return nil
}

// flagPairs flattens flags into sorted field/value pairs for HSET
func flagPairs(flags actor.Flags) []interface{} {
	var fields []string
	values := make(map[string]string)
	for namespace, scope := range flags {
		for key, value := range scope {
			field := flagField(namespace, key)
			fields = append(fields, field)
			values[field] = string(value)
		}
	}
	sort.Strings(fields)

	pairs := make([]interface{}, 0, len(fields)*2)
	for _, field := range fields {
		pairs = append(pairs, field, values[field])
	}
	return pairs
}

func toData(a *actor.Actor) *Data {
	return &Data{
		ID:        a.ID,
		OwnerID:   a.OwnerID,
		Name:      a.Name,
		Kind:      a.Kind,
		System:    a.System,
		CreatedAt: a.CreatedAt,
		UpdatedAt: a.UpdatedAt,
	}
}

func fromData(data *Data) *actor.Actor {
	return &actor.Actor{
		ID:        data.ID,
		OwnerID:   data.OwnerID,
		Name:      data.Name,
		Kind:      data.Kind,
		System:    data.System,
		CreatedAt: data.CreatedAt,
		UpdatedAt: data.UpdatedAt,
	}
}
