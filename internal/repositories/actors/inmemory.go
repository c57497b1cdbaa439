package actors

import (
	"context"
	"encoding/json"
	"sort"
	"sync"

	"github.com/KirkDiggler/pokemon-pf1-sheet/internal/domain/actor"
	sheeterr "github.com/KirkDiggler/pokemon-pf1-sheet/internal/errors"
)

// InMemoryRepository is an in-memory implementation of the actor repository
// Useful for testing and development
type InMemoryRepository struct {
	mu           sync.RWMutex
	actors       map[string]*actor.Actor
	timeProvider TimeProvider
}

// NewInMemoryRepository creates a new in-memory repository
func NewInMemoryRepository() *InMemoryRepository {
	return &InMemoryRepository{
		actors:       make(map[string]*actor.Actor),
		timeProvider: SystemTime(),
	}
}

// Create stores a new actor
func (r *InMemoryRepository) Create(ctx context.Context, a *actor.Actor) error {
	if err := validateActor(a); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.actors[a.ID]; exists {
		return sheeterr.AlreadyExistsf("actor with ID '%s' already exists", a.ID).
			WithMeta("actor_id", a.ID)
	}

	now := r.timeProvider.Now()
	stored := a.Clone()
	stored.CreatedAt = now
	stored.UpdatedAt = now
	r.actors[a.ID] = stored

	return nil
}

// Get retrieves an actor by ID
func (r *InMemoryRepository) Get(ctx context.Context, id string) (*actor.Actor, error) {
	if id == "" {
		return nil, sheeterr.InvalidArgument("actor ID is required")
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	stored, exists := r.actors[id]
	if !exists {
		return nil, notFound(id)
	}

	return stored.Clone(), nil
}

// ListByKind retrieves all actors of a kind ordered by name
func (r *InMemoryRepository) ListByKind(ctx context.Context, kind actor.Kind) ([]*actor.Actor, error) {
	if kind == "" {
		return nil, sheeterr.InvalidArgument("actor kind is required")
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	var result []*actor.Actor
	for _, stored := range r.actors {
		if stored.Kind == kind {
			result = append(result, stored.Clone())
		}
	}

	sort.Slice(result, func(i, j int) bool {
		return result[i].Name < result[j].Name
	})

	return result, nil
}

// Update replaces an actor's fields, keeping its stored flags
func (r *InMemoryRepository) Update(ctx context.Context, a *actor.Actor) error {
	if err := validateActor(a); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	stored, exists := r.actors[a.ID]
	if !exists {
		return notFound(a.ID)
	}

	updated := a.Clone()
	updated.Flags = stored.Flags
	updated.CreatedAt = stored.CreatedAt
	updated.UpdatedAt = r.timeProvider.Now()
	r.actors[a.ID] = updated

	return nil
}

// Delete removes an actor
func (r *InMemoryRepository) Delete(ctx context.Context, id string) error {
	if id == "" {
		return sheeterr.InvalidArgument("actor ID is required")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.actors[id]; !exists {
		return notFound(id)
	}

	delete(r.actors, id)
	return nil
}

// GetFlag returns the stored flag value or nil
func (r *InMemoryRepository) GetFlag(ctx context.Context, actorID, namespace, key string) (json.RawMessage, error) {
	if err := validateFlagKey(actorID, namespace, key); err != nil {
		return nil, err
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	stored, exists := r.actors[actorID]
	if !exists {
		return nil, notFound(actorID)
	}

	value, ok := stored.GetFlag(namespace, key)
	if !ok {
		return nil, nil
	}

	return append(json.RawMessage(nil), value...), nil
}

// SetFlag stores a flag value
func (r *InMemoryRepository) SetFlag(ctx context.Context, actorID, namespace, key string, value json.RawMessage) error {
	if err := validateFlagKey(actorID, namespace, key); err != nil {
		return err
	}
	if !json.Valid(value) {
		return sheeterr.InvalidArgumentf("flag %s.%s is not valid JSON", namespace, key)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	stored, exists := r.actors[actorID]
	if !exists {
		return notFound(actorID)
	}

	stored.SetFlag(namespace, key, append(json.RawMessage(nil), value...))
	stored.UpdatedAt = r.timeProvider.Now()

	return nil
}

// UnsetFlag removes a flag value
func (r *InMemoryRepository) UnsetFlag(ctx context.Context, actorID, namespace, key string) error {
	if err := validateFlagKey(actorID, namespace, key); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	stored, exists := r.actors[actorID]
	if !exists {
		return notFound(actorID)
	}

	stored.UnsetFlag(namespace, key)
	stored.UpdatedAt = r.timeProvider.Now()

	return nil
}

func validateActor(a *actor.Actor) error {
	if a == nil {
		return sheeterr.InvalidArgument("actor cannot be nil")
	}
	if a.ID == "" {
		return sheeterr.InvalidArgument("actor ID is required")
	}
	return nil
}

func validateFlagKey(actorID, namespace, key string) error {
	if actorID == "" {
		return sheeterr.InvalidArgument("actor ID is required")
	}
	if namespace == "" || key == "" {
		return sheeterr.InvalidArgument("flag namespace and key are required")
	}
	return nil
}

func notFound(id string) error {
	return sheeterr.NotFoundf("actor with ID '%s' not found", id).
		WithMeta("actor_id", id)
}
