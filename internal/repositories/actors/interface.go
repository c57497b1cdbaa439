package actors

//go:generate mockgen -destination=mock/mock.go -package=mockactors -source=interface.go

import (
	"context"
	"encoding/json"

	"github.com/KirkDiggler/pokemon-pf1-sheet/internal/domain/actor"
)

// Repository defines actor persistence plus namespaced flag access.
//
// Update persists the actor's own fields only; flags change through SetFlag
// and UnsetFlag so a sheet save never races a rename.
type Repository interface {
	// Create stores a new actor, including any flags it already carries
	Create(ctx context.Context, a *actor.Actor) error

	// Get retrieves an actor with its flags
	Get(ctx context.Context, id string) (*actor.Actor, error)

	// ListByKind retrieves every actor of the given kind
	ListByKind(ctx context.Context, kind actor.Kind) ([]*actor.Actor, error)

	// Update replaces the actor's fields, leaving flags untouched
	Update(ctx context.Context, a *actor.Actor) error

	// Delete removes an actor and its flags
	Delete(ctx context.Context, id string) error

	// GetFlag returns the raw flag value, or nil when the actor has none
	GetFlag(ctx context.Context, actorID, namespace, key string) (json.RawMessage, error)

	// SetFlag stores a raw flag value on an existing actor
	SetFlag(ctx context.Context, actorID, namespace, key string, value json.RawMessage) error

	// UnsetFlag removes a flag value
	UnsetFlag(ctx context.Context, actorID, namespace, key string) error
}
