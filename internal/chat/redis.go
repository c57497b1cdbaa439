package chat

import (
	"context"
	"encoding/json"
	"log"

	"github.com/redis/go-redis/v9"

	sheeterr "github.com/KirkDiggler/pokemon-pf1-sheet/internal/errors"
	"github.com/KirkDiggler/pokemon-pf1-sheet/internal/uuid"
)

// DefaultHistory is how many entries the Redis log keeps when unset
const DefaultHistory = 200

// RedisLogConfig holds configuration for the Redis chat log
type RedisLogConfig struct {
	Client redis.UniversalClient
	Key    string
	Max    int
	IDs    uuid.Generator
	Clock  Clock
}

type redisLog struct {
	client  redis.UniversalClient
	key     string
	max     int
	stamper stamper
}

// NewRedisLog creates a chat log stored as a capped Redis list, newest first
func NewRedisLog(cfg *RedisLogConfig) History {
	if cfg == nil {
		panic("RedisLogConfig cannot be nil")
	}
	if cfg.Client == nil {
		panic("Redis client cannot be nil")
	}

	key := cfg.Key
	if key == "" {
		key = "chat:log"
	}
	max := cfg.Max
	if max <= 0 {
		max = DefaultHistory
	}

	return &redisLog{
		client:  cfg.Client,
		key:     key,
		max:     max,
		stamper: newStamper(cfg.IDs, cfg.Clock),
	}
}

// Post implements Log
func (r *redisLog) Post(ctx context.Context, msg *Message) error {
	if msg == nil {
		return sheeterr.InvalidArgument("chat message is required")
	}

	r.stamper.stamp(msg)
	payload, err := json.Marshal(msg)
	if err != nil {
		return sheeterr.Wrap(err, "failed to marshal chat message")
	}

	pipe := r.client.Pipeline()
	pipe.LPush(ctx, r.key, string(payload))
	pipe.LTrim(ctx, r.key, 0, int64(r.max-1))
	if _, err := pipe.Exec(ctx); err != nil {
		return sheeterr.Wrap(err, "failed to append chat message")
	}
	return nil
}

// Recent implements History
func (r *redisLog) Recent(ctx context.Context, limit int) ([]*Message, error) {
	if limit <= 0 || limit > r.max {
		limit = r.max
	}

	values, err := r.client.LRange(ctx, r.key, 0, int64(limit-1)).Result()
	if err != nil {
		return nil, sheeterr.Wrap(err, "failed to read chat log")
	}

	out := make([]*Message, 0, len(values))
	for i, value := range values {
		var msg Message
		if err := json.Unmarshal([]byte(value), &msg); err != nil {
			log.Printf("Chat | skipping unreadable entry %d in %s: %v", i, r.key, err)
			continue
		}
		out = append(out, &msg)
	}
	return out, nil
}
