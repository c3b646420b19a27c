package store

import (
	"context"
	"fmt"
	"strconv"

	"github.com/redis/go-redis/v9"

	"yksilo/internal/feature"
)

// overridesKey is a hash of feature name to "true"/"false".
const overridesKey = "yksilo:features"

// RedisStore shares overrides between instances.
type RedisStore struct {
	client *redis.Client
}

func NewRedisStore(client *redis.Client) *RedisStore {
	return &RedisStore{client: client}
}

// Overrides ignores fields that are not known features or not booleans, so a
// stale hash entry cannot break flag resolution.
func (s *RedisStore) Overrides(ctx context.Context) (map[feature.Feature]bool, error) {
	raw, err := s.client.HGetAll(ctx, overridesKey).Result()
	if err != nil {
		return nil, fmt.Errorf("read feature overrides: %w", err)
	}
	out := make(map[feature.Feature]bool, len(raw))
	for k, v := range raw {
		f, err := feature.ParseFeature(k)
		if err != nil {
			continue
		}
		enabled, err := strconv.ParseBool(v)
		if err != nil {
			continue
		}
		out[f] = enabled
	}
	return out, nil
}

func (s *RedisStore) SetOverride(ctx context.Context, f feature.Feature, enabled bool) error {
	if err := s.client.HSet(ctx, overridesKey, string(f), strconv.FormatBool(enabled)).Err(); err != nil {
		return fmt.Errorf("write feature override: %w", err)
	}
	return nil
}

func (s *RedisStore) ClearOverride(ctx context.Context, f feature.Feature) error {
	if err := s.client.HDel(ctx, overridesKey, string(f)).Err(); err != nil {
		return fmt.Errorf("clear feature override: %w", err)
	}
	return nil
}
