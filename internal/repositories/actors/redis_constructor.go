package actors

import (
	"github.com/redis/go-redis/v9"
)

// NewRedis creates a new Redis-backed actor repository
func NewRedis(client redis.UniversalClient) Repository {
	return NewRedisRepository(&RedisRepoConfig{
		Client:       client,
		TimeProvider: SystemTime(),
	})
}
