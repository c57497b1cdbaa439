package testutils

import (
	"context"
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
)

// RedisURLEnv names an existing Redis to test against instead of a container
const RedisURLEnv = "REDIS_TEST_URL"

// RedisForTest returns a flushed client for integration tests. It connects
// to REDIS_TEST_URL when set and starts a container otherwise.
func RedisForTest(t *testing.T) redis.UniversalClient {
	t.Helper()

	url := os.Getenv(RedisURLEnv)
	if url == "" {
		return StartRedisContainer(t)
	}

	opts, err := redis.ParseURL(url)
	require.NoError(t, err, "invalid %s", RedisURLEnv)

	client := redis.NewClient(opts)
	if err := WaitForRedis(client, 5*time.Second); err != nil {
		_ = client.Close()
		t.Skipf("Redis not available for testing: %v", err)
	}

	require.NoError(t, client.FlushDB(context.Background()).Err(), "Failed to flush test Redis database")
	t.Cleanup(func() {
		_ = client.FlushDB(context.Background()).Err()
		_ = client.Close()
	})
	return client
}

// WaitForRedis pings until Redis answers or the timeout passes
func WaitForRedis(client redis.UniversalClient, timeout time.Duration) error {
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		ctx, cancel := context.WithTimeout(context.Background(), time.Second)
		err := client.Ping(ctx).Err()
		cancel()
		if err == nil {
			return nil
		}
		time.Sleep(100 * time.Millisecond)
	}
	return fmt.Errorf("redis not ready after %v", timeout)
}
