//go:build integration

package user_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"lifeline/internal/user"
	id "lifeline/pkg/domain"
	"lifeline/pkg/platform/sentinel"
	"lifeline/pkg/testutil/containers"
)

type PostgresStoreSuite struct {
	suite.Suite
	pg    *containers.PostgresContainer
	store *user.PostgresStore
	ctx   context.Context
	now   time.Time
}

func TestPostgresStoreSuite(t *testing.T) {
	suite.Run(t, new(PostgresStoreSuite))
}

func (s *PostgresStoreSuite) SetupSuite() {
	s.pg = containers.NewPostgresContainer(s.T())
	s.store = user.NewPostgres(s.pg.DB)
	s.ctx = context.Background()
	s.now = time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
}

func (s *PostgresStoreSuite) TearDownSuite() {
	s.pg.Close(context.Background())
}

func (s *PostgresStoreSuite) SetupTest() {
	s.Require().NoError(s.pg.TruncateTables(s.ctx))
}

func (s *PostgresStoreSuite) newDonor(emailAddr string) *user.User {
	bt := id.BloodOPos
	u, err := user.NewUser(id.NewUserID(), emailAddr, "hash", "Jordan Reyes", "+351000000", id.RoleDonor,
		&user.DonorProfile{
			BloodType:   &bt,
			Available:   true,
			DateOfBirth: time.Date(1990, 3, 14, 0, 0, 0, 0, time.UTC),
			City:        "Lisbon",
		}, nil, s.now)
	s.Require().NoError(err)
	return u
}

func (s *PostgresStoreSuite) TestCreateAndFindRoundTrip() {
	created := s.newDonor("roundtrip@example.com")
	s.Require().NoError(s.store.CreateIfEmailAvailable(s.ctx, created))

	found, err := s.store.FindByID(s.ctx, created.ID)
	s.Require().NoError(err)
	s.Equal(created.Email, found.Email)
	s.Equal(created.Role, found.Role)
	s.Require().NotNil(found.Donor)
	s.Equal(id.BloodOPos, *found.Donor.BloodType)
	s.True(found.Donor.Available)
	s.Equal("Lisbon", found.Donor.City)
	s.True(created.CreatedAt.Equal(found.CreatedAt))
}

func (s *PostgresStoreSuite) TestEmailUniquenessIsCaseInsensitive() {
	s.Require().NoError(s.store.CreateIfEmailAvailable(s.ctx, s.newDonor("dupe@example.com")))

	err := s.store.CreateIfEmailAvailable(s.ctx, s.newDonor("DUPE@example.com"))
	s.Require().ErrorIs(err, sentinel.ErrConflict)
}

func (s *PostgresStoreSuite) TestFindByEmailIgnoresCase() {
	created := s.newDonor("case@example.com")
	s.Require().NoError(s.store.CreateIfEmailAvailable(s.ctx, created))

	found, err := s.store.FindByEmail(s.ctx, "CASE@example.com")
	s.Require().NoError(err)
	s.Equal(created.ID, found.ID)
}

func (s *PostgresStoreSuite) TestFindMissingReturnsNotFound() {
	_, err := s.store.FindByID(s.ctx, id.NewUserID())
	s.Require().ErrorIs(err, sentinel.ErrNotFound)

	_, err = s.store.FindByEmail(s.ctx, "nobody@example.com")
	s.Require().ErrorIs(err, sentinel.ErrNotFound)
}

func (s *PostgresStoreSuite) TestListByRoleInInsertionOrder() {
	first := s.newDonor("first@example.com")
	second := s.newDonor("second@example.com")
	second.CreatedAt = s.now.Add(time.Minute)
	s.Require().NoError(s.store.CreateIfEmailAvailable(s.ctx, first))
	s.Require().NoError(s.store.CreateIfEmailAvailable(s.ctx, second))

	donors, err := s.store.ListByRole(s.ctx, id.RoleDonor)
	s.Require().NoError(err)
	s.Require().Len(donors, 2)
	s.Equal(first.ID, donors[0].ID)
	s.Equal(second.ID, donors[1].ID)

	hospitals, err := s.store.ListByRole(s.ctx, id.RoleHospital)
	s.Require().NoError(err)
	s.Empty(hospitals)
}

func (s *PostgresStoreSuite) TestUpdatePersistsProfileChanges() {
	created := s.newDonor("update@example.com")
	s.Require().NoError(s.store.CreateIfEmailAvailable(s.ctx, created))

	completedAt := s.now.Add(24 * time.Hour)
	s.Require().NoError(created.RecordDonation(completedAt))
	created.Donor.Available = false
	s.Require().NoError(s.store.Update(s.ctx, created))

	found, err := s.store.FindByID(s.ctx, created.ID)
	s.Require().NoError(err)
	s.False(found.Donor.Available)
	s.Require().NotNil(found.Donor.LastDonationAt)
	s.True(completedAt.Equal(*found.Donor.LastDonationAt))
}
