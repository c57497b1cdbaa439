package actors

import (
	"context"
	"errors"
	"log"
	"time"

	"github.com/redis/go-redis/v9"
)

const pingTimeout = 5 * time.Second

// Backend names
const (
	BackendRedis  = "redis"
	BackendSQLite = "sqlite"
	BackendMemory = "memory"
)

// BackendConfig selects the actor store
type BackendConfig struct {
	RedisURL   string
	SQLitePath string
}

// Backend is an opened actor store. Redis is set when the store is Redis
// backed so other Redis users can share the client.
type Backend struct {
	Name       string
	Repository Repository
	Redis      redis.UniversalClient

	close func() error
}

// OpenBackend opens Redis when a URL is configured and reachable, then
// SQLite when a path is configured, and falls back to memory otherwise. An
// unreachable Redis is logged and skipped; a broken SQLite path is an error.
func OpenBackend(ctx context.Context, cfg BackendConfig) (*Backend, error) {
	if cfg.RedisURL != "" {
		if backend, ok := openRedis(ctx, cfg.RedisURL); ok {
			return backend, nil
		}
	}

	if cfg.SQLitePath != "" {
		repo, err := NewSQLiteRepository(cfg.SQLitePath)
		if err != nil {
			return nil, err
		}
		log.Printf("Using SQLite at %s for persistence", cfg.SQLitePath)
		return &Backend{Name: BackendSQLite, Repository: repo, close: repo.Close}, nil
	}

	log.Println("No store configured, using in-memory repositories")
	return &Backend{Name: BackendMemory, Repository: NewInMemoryRepository()}, nil
}

func openRedis(ctx context.Context, url string) (*Backend, bool) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		log.Printf("Failed to parse Redis URL: %v", err)
		return nil, false
	}

	client := redis.NewClient(opts)

	pingCtx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		log.Printf("Failed to connect to Redis: %v", err)
		_ = client.Close()
		return nil, false
	}

	log.Println("Using Redis for persistence")
	return &Backend{
		Name:       BackendRedis,
		Repository: NewRedis(client),
		Redis:      client,
		close:      client.Close,
	}, true
}

// Close releases the store
func (b *Backend) Close() error {
	if b == nil || b.close == nil {
		return nil
	}
	err := b.close()
	if errors.Is(err, redis.ErrClosed) {
		return nil
	}
	return err
}
