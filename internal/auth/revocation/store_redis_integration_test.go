//go:build integration

package revocation_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"lifeline/internal/auth/revocation"
	"lifeline/pkg/platform/sentinel"
	"lifeline/pkg/testutil/containers"
)

type RedisStoreSuite struct {
	suite.Suite
	rc    *containers.RedisContainer
	store *revocation.Redis
	ctx   context.Context
}

func TestRedisStoreSuite(t *testing.T) {
	suite.Run(t, new(RedisStoreSuite))
}

func (s *RedisStoreSuite) SetupSuite() {
	s.rc = containers.NewRedisContainer(s.T())
	s.store = revocation.NewRedis(s.rc.Client)
	s.ctx = context.Background()
}

func (s *RedisStoreSuite) TearDownSuite() {
	s.rc.Close(context.Background())
}

func (s *RedisStoreSuite) SetupTest() {
	s.Require().NoError(s.rc.FlushAll(s.ctx))
}

func (s *RedisStoreSuite) TestRevokeAndLookup() {
	s.Require().NoError(s.store.Revoke(s.ctx, "jti-1", time.Hour))

	revoked, err := s.store.IsTokenRevoked(s.ctx, "jti-1")
	s.Require().NoError(err)
	s.True(revoked)

	revoked, err = s.store.IsTokenRevoked(s.ctx, "jti-other")
	s.Require().NoError(err)
	s.False(revoked)
}

func (s *RedisStoreSuite) TestEntryExpiresWithTTL() {
	s.Require().NoError(s.store.Revoke(s.ctx, "jti-short", 500*time.Millisecond))

	revoked, err := s.store.IsTokenRevoked(s.ctx, "jti-short")
	s.Require().NoError(err)
	s.True(revoked)

	s.Require().Eventually(func() bool {
		revoked, err := s.store.IsTokenRevoked(s.ctx, "jti-short")
		return err == nil && !revoked
	}, 5*time.Second, 100*time.Millisecond)
}

func (s *RedisStoreSuite) TestRejectsNonPositiveTTL() {
	s.Require().ErrorIs(s.store.Revoke(s.ctx, "jti-1", 0), sentinel.ErrInvalidState)
}

func (s *RedisStoreSuite) TestEmptyJTIIsNoOp() {
	s.Require().NoError(s.store.Revoke(s.ctx, "", time.Hour))

	revoked, err := s.store.IsTokenRevoked(s.ctx, "")
	s.Require().NoError(err)
	s.False(revoked)
}
