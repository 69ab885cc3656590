package testutil

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/docker/go-connections/nat"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/redis"
	"github.com/testcontainers/testcontainers-go/wait"
)

// RedisContainer is a disposable Redis server for tests.
type RedisContainer struct {
	Container testcontainers.Container
	Host      string
	Port      int
	URL       string
}

// StartRedis starts a Redis container and resolves its mapped address.
func StartRedis(ctx context.Context) (*RedisContainer, error) {
	container, err := redis.RunContainer(ctx,
		testcontainers.WithImage("redis:7-alpine"),
		redis.WithLogLevel(redis.LogLevelVerbose),
		testcontainers.WithWaitStrategy(
			wait.ForLog("Ready to accept connections").
				WithStartupTimeout(30*time.Second),
		),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to start redis container: %w", err)
	}

	rc := &RedisContainer{Container: container}

	rc.Host, err = container.Host(ctx)
	if err != nil {
		rc.Terminate(ctx)
		return nil, fmt.Errorf("failed to get redis host: %w", err)
	}

	mapped, err := container.MappedPort(ctx, nat.Port("6379/tcp"))
	if err != nil {
		rc.Terminate(ctx)
		return nil, fmt.Errorf("failed to get redis port: %w", err)
	}

	rc.Port, err = strconv.Atoi(mapped.Port())
	if err != nil {
		rc.Terminate(ctx)
		return nil, fmt.Errorf("invalid redis port %q: %w", mapped.Port(), err)
	}
	rc.URL = fmt.Sprintf("redis://%s:%d", rc.Host, rc.Port)

	return rc, nil
}

// Terminate stops the container.
func (rc *RedisContainer) Terminate(ctx context.Context) error {
	if rc.Container == nil {
		return nil
	}
	if err := rc.Container.Terminate(ctx); err != nil {
		return fmt.Errorf("failed to terminate redis: %w", err)
	}
	return nil
}
