//go:build integration

package store_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/suite"

	"yksilo/internal/feature"
	"yksilo/internal/feature/store"
	"yksilo/pkg/testutil/containers"
)

type RedisStoreSuite struct {
	suite.Suite
	redis *containers.RedisContainer
	store *store.RedisStore
}

func TestRedisStoreSuite(t *testing.T) {
	suite.Run(t, new(RedisStoreSuite))
}

func (s *RedisStoreSuite) SetupSuite() {
	s.redis = containers.Redis(s.T())
	s.store = store.NewRedisStore(s.redis.Client)
}

func (s *RedisStoreSuite) SetupTest() {
	s.redis.FlushAll(s.T())
}

func (s *RedisStoreSuite) TestSetAndClear() {
	ctx := context.Background()
	s.Require().NoError(s.store.SetOverride(ctx, feature.Osaamiset, false))
	s.Require().NoError(s.store.SetOverride(ctx, feature.UlkoinenAPI, true))

	overrides, err := s.store.Overrides(ctx)
	s.Require().NoError(err)
	s.Equal(map[feature.Feature]bool{feature.Osaamiset: false, feature.UlkoinenAPI: true}, overrides)

	s.Require().NoError(s.store.ClearOverride(ctx, feature.Osaamiset))
	overrides, err = s.store.Overrides(ctx)
	s.Require().NoError(err)
	s.Equal(map[feature.Feature]bool{feature.UlkoinenAPI: true}, overrides)
}

func (s *RedisStoreSuite) TestIgnoresForeignFields() {
	ctx := context.Background()
	s.Require().NoError(s.redis.Client.HSet(ctx, "yksilo:features", "NOT_A_FEATURE", "true", "PAAMAARAT", "maybe").Err())

	overrides, err := s.store.Overrides(ctx)
	s.Require().NoError(err)
	s.Empty(overrides)
}

func (s *RedisStoreSuite) TestSharedBetweenFlagInstances() {
	ctx := context.Background()
	a, err := feature.New(map[string]bool{"ULKOINEN_API": false}, s.store)
	s.Require().NoError(err)
	b, err := feature.New(map[string]bool{"ULKOINEN_API": false}, store.NewRedisStore(s.redis.Client))
	s.Require().NoError(err)

	s.Require().NoError(a.Set(ctx, feature.UlkoinenAPI, true))
	s.True(b.Enabled(ctx, feature.UlkoinenAPI))
}
