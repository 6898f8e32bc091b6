//go:build integration

package store_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"credvault/internal/otp/store"
	"credvault/pkg/platform/sentinel"
	"credvault/pkg/testutil/containers"
)

type RedisStoreSuite struct {
	suite.Suite
	redis *containers.RedisContainer
	store *store.Redis
}

func TestRedisStoreSuite(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	suite.Run(t, new(RedisStoreSuite))
}

func (s *RedisStoreSuite) SetupSuite() {
	s.redis = containers.GetManager().GetRedis(s.T())
	s.store = store.NewRedis(s.redis.Client)
}

func (s *RedisStoreSuite) SetupTest() {
	s.Require().NoError(s.redis.Flush(context.Background()))
}

func (s *RedisStoreSuite) TestPutGetDelete() {
	ctx := context.Background()

	_, err := s.store.Get(ctx, "a@x.com")
	s.ErrorIs(err, sentinel.ErrNotFound)

	s.Require().NoError(s.store.Put(ctx, "a@x.com", "JBSWY3DPEHPK3PXP", 5*time.Minute))
	got, err := s.store.Get(ctx, "a@x.com")
	s.Require().NoError(err)
	s.Equal("JBSWY3DPEHPK3PXP", got)

	s.Require().NoError(s.store.Delete(ctx, "a@x.com"))
	_, err = s.store.Get(ctx, "a@x.com")
	s.ErrorIs(err, sentinel.ErrNotFound)

	s.NoError(s.store.Delete(ctx, "a@x.com"))
}

func (s *RedisStoreSuite) TestSecretCarriesTTL() {
	ctx := context.Background()
	s.Require().NoError(s.store.Put(ctx, "a@x.com", "SECRET", 5*time.Minute))

	keys, err := s.redis.Client.Keys(ctx, "otp:secret:*").Result()
	s.Require().NoError(err)
	s.Require().Len(keys, 1)

	ttl, err := s.redis.Client.TTL(ctx, keys[0]).Result()
	s.Require().NoError(err)
	s.Greater(ttl, 4*time.Minute)
	s.LessOrEqual(ttl, 5*time.Minute)
}

func (s *RedisStoreSuite) TestExpiredSecretIsGone() {
	ctx := context.Background()
	s.Require().NoError(s.store.Put(ctx, "a@x.com", "SECRET", time.Second))

	s.Eventually(func() bool {
		_, err := s.store.Get(ctx, "a@x.com")
		return err != nil
	}, 5*time.Second, 100*time.Millisecond)
}
