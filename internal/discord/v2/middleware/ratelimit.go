package middleware

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/KirkDiggler/pokemon-pf1-sheet/internal/discord/v2/core"
	"github.com/redis/go-redis/v9"
)

// RateLimitConfig configures rate limiting behavior
type RateLimitConfig struct {
	// MaxRequests is the maximum number of requests allowed per window
	MaxRequests int

	// Window is the time window for rate limiting
	Window time.Duration

	// KeyFunc extracts the rate limit key; an empty key skips limiting
	KeyFunc func(*core.InteractionContext) string

	// Message shown when rate limited
	Message string

	// Store for tracking rate limits (if nil, uses in-memory)
	Store RateLimitStore
}

// RateLimitStore tracks rate limit data
type RateLimitStore interface {
	// Increment increments the counter for a key and returns the new count
	Increment(ctx context.Context, key string, window time.Duration) (int, error)

	// Reset resets the counter for a key
	Reset(ctx context.Context, key string) error
}

// UserKey limits per user
func UserKey(ctx *core.InteractionContext) string {
	return ctx.UserID
}

// ActionKey limits per user and component or command action, so rolling
// does not eat into the budget for saving
func ActionKey(ctx *core.InteractionContext) string {
	if ctx.UserID == "" {
		return ""
	}
	return ctx.UserID + ":" + interactionName(ctx)
}

// RateLimitMiddleware applies rate limiting
func RateLimitMiddleware(config *RateLimitConfig) core.Middleware {
	if config.KeyFunc == nil {
		config.KeyFunc = UserKey
	}
	if config.Message == "" {
		config.Message = fmt.Sprintf("You're doing that too fast! Please wait %v before trying again.", config.Window)
	}
	if config.Store == nil {
		config.Store = NewMemoryRateLimitStore(nil)
	}

	return func(next core.Handler) core.Handler {
		return core.HandlerFunc(func(ctx *core.InteractionContext) (*core.HandlerResult, error) {
			key := config.KeyFunc(ctx)
			if key == "" {
				return next.Handle(ctx)
			}

			count, err := config.Store.Increment(ctx.Context, key, config.Window)
			if err != nil {
				log.Printf("[RateLimit] store error for %s, allowing: %v", key, err)
				return next.Handle(ctx)
			}

			if count > config.MaxRequests {
				return &core.HandlerResult{
					Response: core.NewEphemeralResponse("⏱️ " + config.Message),
				}, nil
			}

			return next.Handle(ctx)
		})
	}
}

// MemoryRateLimitStore is an in-memory fixed window store. Expired buckets
// are replaced on the next increment for the same key.
type MemoryRateLimitStore struct {
	mu      sync.Mutex
	now     func() time.Time
	buckets map[string]*bucket
}

type bucket struct {
	count   int
	resetAt time.Time
}

// NewMemoryRateLimitStore creates a new in-memory store. now defaults to time.Now.
func NewMemoryRateLimitStore(now func() time.Time) *MemoryRateLimitStore {
	if now == nil {
		now = time.Now
	}
	return &MemoryRateLimitStore{
		now:     now,
		buckets: make(map[string]*bucket),
	}
}

// Increment increments the counter for a key
func (s *MemoryRateLimitStore) Increment(_ context.Context, key string, window time.Duration) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	b, exists := s.buckets[key]
	if !exists || !now.Before(b.resetAt) {
		b = &bucket{resetAt: now.Add(window)}
		s.buckets[key] = b
	}

	b.count++
	return b.count, nil
}

// Reset resets the counter for a key
func (s *MemoryRateLimitStore) Reset(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.buckets, key)
	return nil
}

// RedisRateLimitStore keeps fixed window counters in Redis so limits hold
// across bot restarts and shards
type RedisRateLimitStore struct {
	client redis.UniversalClient
	prefix string
}

// NewRedisRateLimitStore creates a Redis backed store. Keys are written as
// "<prefix><key>"; prefix defaults to "ratelimit:".
func NewRedisRateLimitStore(client redis.UniversalClient, prefix string) *RedisRateLimitStore {
	if prefix == "" {
		prefix = "ratelimit:"
	}
	return &RedisRateLimitStore{client: client, prefix: prefix}
}

// Increment bumps the counter and starts the window on the first hit
func (s *RedisRateLimitStore) Increment(ctx context.Context, key string, window time.Duration) (int, error) {
	fullKey := s.prefix + key

	count, err := s.client.Incr(ctx, fullKey).Result()
	if err != nil {
		return 0, fmt.Errorf("failed to increment %s: %w", fullKey, err)
	}
	if count == 1 {
		if err := s.client.Expire(ctx, fullKey, window).Err(); err != nil {
			return 0, fmt.Errorf("failed to set window on %s: %w", fullKey, err)
		}
	}

	return int(count), nil
}

// Reset resets the counter for a key
func (s *RedisRateLimitStore) Reset(ctx context.Context, key string) error {
	return s.client.Del(ctx, s.prefix+key).Err()
}
