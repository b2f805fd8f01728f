//go:build integration

package lockout_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"lifeline/internal/auth/lockout"
	"lifeline/pkg/testutil/containers"
)

type PostgresStoreSuite struct {
	suite.Suite
	pg    *containers.PostgresContainer
	store *lockout.PostgresStore
	ctx   context.Context
	now   time.Time
}

func TestPostgresStoreSuite(t *testing.T) {
	suite.Run(t, new(PostgresStoreSuite))
}

func (s *PostgresStoreSuite) SetupSuite() {
	s.pg = containers.NewPostgresContainer(s.T())
	s.store = lockout.NewPostgresStore(s.pg.DB)
	s.ctx = context.Background()
	s.now = time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
}

func (s *PostgresStoreSuite) TearDownSuite() {
	s.pg.Close(context.Background())
}

func (s *PostgresStoreSuite) SetupTest() {
	s.Require().NoError(s.pg.TruncateTables(s.ctx, "login_lockouts"))
}

func (s *PostgresStoreSuite) TestGetMissingReturnsNil() {
	record, err := s.store.Get(s.ctx, "nobody@example.com:203.0.113.7")
	s.Require().NoError(err)
	s.Nil(record)
}

func (s *PostgresStoreSuite) TestUpsertRoundTrip() {
	key := lockout.Key("donor@example.com", "203.0.113.7")
	s.Require().NoError(s.store.Upsert(s.ctx, &lockout.Record{
		Identifier:    key,
		FailureCount:  2,
		WindowStart:   s.now,
		LastFailureAt: s.now.Add(time.Minute),
	}))

	record, err := s.store.Get(s.ctx, key)
	s.Require().NoError(err)
	s.Require().NotNil(record)
	s.Equal(key, record.Identifier)
	s.Equal(2, record.FailureCount)
	s.True(s.now.Equal(record.WindowStart))
	s.True(s.now.Add(time.Minute).Equal(record.LastFailureAt))
	s.Nil(record.LockedUntil)
}

func (s *PostgresStoreSuite) TestUpsertOverwritesAndSetsLock() {
	key := lockout.Key("donor@example.com", "203.0.113.7")
	s.Require().NoError(s.store.Upsert(s.ctx, &lockout.Record{
		Identifier:    key,
		FailureCount:  2,
		WindowStart:   s.now,
		LastFailureAt: s.now,
	}))

	lockedUntil := s.now.Add(15 * time.Minute)
	s.Require().NoError(s.store.Upsert(s.ctx, &lockout.Record{
		Identifier:    key,
		FailureCount:  3,
		WindowStart:   s.now,
		LastFailureAt: s.now.Add(2 * time.Minute),
		LockedUntil:   &lockedUntil,
	}))

	record, err := s.store.Get(s.ctx, key)
	s.Require().NoError(err)
	s.Require().NotNil(record)
	s.Equal(3, record.FailureCount)
	s.Require().NotNil(record.LockedUntil)
	s.True(lockedUntil.Equal(*record.LockedUntil))
}

func (s *PostgresStoreSuite) TestClearRemovesRecord() {
	key := lockout.Key("donor@example.com", "203.0.113.7")
	s.Require().NoError(s.store.Upsert(s.ctx, &lockout.Record{
		Identifier:    key,
		FailureCount:  1,
		WindowStart:   s.now,
		LastFailureAt: s.now,
	}))
	s.Require().NoError(s.store.Clear(s.ctx, key))

	record, err := s.store.Get(s.ctx, key)
	s.Require().NoError(err)
	s.Nil(record)

	// Clearing twice is a no-op.
	s.Require().NoError(s.store.Clear(s.ctx, key))
}
