// Package flags provides typed access to one namespaced flag on an actor.
//
// The host keeps flags as raw JSON keyed by namespace and key. A Store binds
// a single namespace/key pair to a Go schema, decodes it on read, falls back
// to explicit defaults when the flag is absent or unreadable, and encodes the
// whole value on write.
package flags

import (
	"context"
	"encoding/json"
	"fmt"
	"log"

	sheeterr "github.com/KirkDiggler/pokemon-pf1-sheet/internal/errors"
)

// Accessor is the host capability for reading and writing raw actor flags
type Accessor interface {
	GetFlag(ctx context.Context, actorID, namespace, key string) (json.RawMessage, error)
	SetFlag(ctx context.Context, actorID, namespace, key string, value json.RawMessage) error
}

// Schema describes how a flag value is defaulted and checked
type Schema[T any] struct {
	// Defaults returns the value used when the flag is absent
	Defaults func() T

	// Normalize fills zero fields of a decoded value with defaults and
	// rejects values that cannot be used. Optional.
	Normalize func(*T) error
}

// Store is a typed view over one namespace/key flag
type Store[T any] struct {
	accessor  Accessor
	namespace string
	key       string
	schema    Schema[T]
}

// NewStore binds namespace/key on accessor to schema
func NewStore[T any](accessor Accessor, namespace, key string, schema Schema[T]) (*Store[T], error) {
	if accessor == nil {
		return nil, sheeterr.InvalidArgument("flag accessor is required")
	}
	if namespace == "" || key == "" {
		return nil, sheeterr.InvalidArgument("flag namespace and key are required")
	}
	if schema.Defaults == nil {
		return nil, sheeterr.InvalidArgument("flag schema defaults are required")
	}

	return &Store[T]{
		accessor:  accessor,
		namespace: namespace,
		key:       key,
		schema:    schema,
	}, nil
}

// Namespace returns the flag namespace
func (s *Store[T]) Namespace() string {
	return s.namespace
}

// Key returns the flag key
func (s *Store[T]) Key() string {
	return s.key
}

// Get reads the flag for actorID for a read-modify-write. An absent flag
// yields the defaults. A stored value that does not decode or normalize is
// an error so callers never write defaults over data they could not read.
func (s *Store[T]) Get(ctx context.Context, actorID string) (T, error) {
	var zero T
	raw, err := s.accessor.GetFlag(ctx, actorID, s.namespace, s.key)
	if err != nil {
		return zero, err
	}
	if isAbsent(raw) {
		return s.schema.Defaults(), nil
	}

	value, err := s.Decode(raw)
	if err != nil {
		return zero, sheeterr.Wrapf(err, "stored %s.%s on actor %s is unreadable", s.namespace, s.key, actorID).
			WithMeta("actor_id", actorID)
	}
	return value, nil
}

// FromRaw resolves a raw value already in hand, such as one read off an
// actor record, for display. Unlike Get, an unreadable value is logged and
// yields the defaults.
func (s *Store[T]) FromRaw(actorID string, raw json.RawMessage) T {
	if isAbsent(raw) {
		return s.schema.Defaults()
	}

	value, err := s.Decode(raw)
	if err != nil {
		log.Printf("Flags | ignoring unreadable %s.%s on actor %s: %v", s.namespace, s.key, actorID, err)
		return s.schema.Defaults()
	}

	return value
}

// Set replaces the flag for actorID with value
func (s *Store[T]) Set(ctx context.Context, actorID string, value T) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("failed to marshal %s.%s: %w", s.namespace, s.key, err)
	}

	return s.accessor.SetFlag(ctx, actorID, s.namespace, s.key, raw)
}

// Decode converts a raw stored value into the schema type
func (s *Store[T]) Decode(raw json.RawMessage) (T, error) {
	value := s.schema.Defaults()
	if err := json.Unmarshal(raw, &value); err != nil {
		var zero T
		return zero, err
	}

	if s.schema.Normalize != nil {
		if err := s.schema.Normalize(&value); err != nil {
			var zero T
			return zero, err
		}
	}

	return value, nil
}

func isAbsent(raw json.RawMessage) bool {
	return len(raw) == 0 || string(raw) == "null"
}
