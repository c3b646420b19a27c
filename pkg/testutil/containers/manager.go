//go:build integration

// Package containers starts the backing services used by integration tests.
// Each container is started at most once per test binary and shared across
// suites; Ryuk removes them when the binary exits.
package containers

import (
	"context"
	"sync"
	"testing"
	"time"
)

const startTimeout = 2 * time.Minute

type lazy[T any] struct {
	once sync.Once
	val  T
	err  error
}

func (l *lazy[T]) get(t *testing.T, name string, start func(context.Context) (T, error)) T {
	t.Helper()
	l.once.Do(func() {
		ctx, cancel := context.WithTimeout(context.Background(), startTimeout)
		defer cancel()
		l.val, l.err = start(ctx)
	})
	if l.err != nil {
		t.Fatalf("failed to start %s container: %v", name, l.err)
	}
	return l.val
}

var (
	postgres  lazy[*PostgresContainer]
	redisC    lazy[*RedisContainer]
	redpandaC lazy[*RedpandaContainer]
)

// Postgres returns the shared, migrated Postgres container.
func Postgres(t *testing.T) *PostgresContainer {
	return postgres.get(t, "postgres", newPostgresContainer)
}

// Redis returns the shared Redis container.
func Redis(t *testing.T) *RedisContainer {
	return redisC.get(t, "redis", newRedisContainer)
}

// Redpanda returns the shared Kafka-compatible broker.
func Redpanda(t *testing.T) *RedpandaContainer {
	return redpandaC.get(t, "redpanda", newRedpandaContainer)
}
