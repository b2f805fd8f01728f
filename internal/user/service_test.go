package user

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	id "lifeline/pkg/domain"
	dErrors "lifeline/pkg/domain-errors"
	"lifeline/pkg/platform/geo"
	"lifeline/pkg/requestcontext"
)

type UserServiceSuite struct {
	suite.Suite
	ctx     context.Context
	now     time.Time
	service *Service
}

func TestUserServiceSuite(t *testing.T) {
	suite.Run(t, new(UserServiceSuite))
}

func (s *UserServiceSuite) SetupTest() {
	s.now = time.Date(2026, 2, 10, 9, 0, 0, 0, time.UTC)
	s.ctx = requestcontext.WithTime(context.Background(), s.now)
	s.service = NewService(NewInMemory())
}

func (s *UserServiceSuite) registerDonor(emailAddr string) *User {
	bt := id.BloodAPos
	u, err := NewUser(id.NewUserID(), emailAddr, "hash", "", "", id.RoleDonor,
		&DonorProfile{BloodType: &bt, Available: true, DateOfBirth: time.Date(1992, 4, 15, 0, 0, 0, 0, time.UTC)},
		nil, s.now)
	s.Require().NoError(err)
	s.Require().NoError(s.service.Create(s.ctx, u))
	return u
}

func (s *UserServiceSuite) TestCreateAndGet() {
	u := s.registerDonor("donor@example.com")

	got, err := s.service.Get(s.ctx, u.ID)
	s.Require().NoError(err)
	s.Equal(u.Email, got.Email)
	s.True(got.IsDonor())
}

func (s *UserServiceSuite) TestCreateDuplicateEmail() {
	s.registerDonor("taken@example.com")

	bt := id.BloodBNeg
	dup, err := NewUser(id.NewUserID(), "taken@example.com", "hash", "", "",
		id.RoleDonor, &DonorProfile{BloodType: &bt, Available: true}, nil, s.now)
	s.Require().NoError(err)

	err = s.service.Create(s.ctx, dup)

	s.Require().Error(err)
	s.True(dErrors.HasCode(err, dErrors.CodeConflict))
	s.Equal("email is already registered", dErrors.MessageOf(err))
}

func (s *UserServiceSuite) TestGetMissing() {
	_, err := s.service.Get(s.ctx, id.NewUserID())

	s.Require().Error(err)
	s.True(dErrors.HasCode(err, dErrors.CodeNotFound))
}

func (s *UserServiceSuite) TestUpdateDonorProfile() {
	u := s.registerDonor("move@example.com")

	available := false
	city := "Rotterdam"
	updated, err := s.service.UpdateDonorProfile(s.ctx, u.ID, DonorUpdate{
		Available: &available,
		City:      &city,
		Location:  &geo.Point{Lat: 51.92, Lon: 4.48},
	})

	s.Require().NoError(err)
	s.False(updated.Donor.Available)
	s.Equal("Rotterdam", updated.Donor.City)
	s.Require().NotNil(updated.Donor.Location)
	s.InDelta(51.92, updated.Donor.Location.Lat, 0.001)
}

func (s *UserServiceSuite) TestUpdateDonorProfileOnHospital() {
	hospital, err := NewUser(id.NewUserID(), "ward@hospital.example", "hash", "", "",
		id.RoleHospital, nil, &HospitalProfile{HospitalName: "City General"}, s.now)
	s.Require().NoError(err)
	s.Require().NoError(s.service.Create(s.ctx, hospital))

	available := false
	_, err = s.service.UpdateDonorProfile(s.ctx, hospital.ID, DonorUpdate{Available: &available})

	s.Require().Error(err)
	s.True(dErrors.HasCode(err, dErrors.CodeInvariantViolation))
}

func (s *UserServiceSuite) TestUpdateHospitalProfile() {
	hospital, err := NewUser(id.NewUserID(), "ward@hospital.example", "hash", "", "",
		id.RoleHospital, nil, &HospitalProfile{HospitalName: "City General"}, s.now)
	s.Require().NoError(err)
	s.Require().NoError(s.service.Create(s.ctx, hospital))

	name := "City General North"
	updated, err := s.service.UpdateHospitalProfile(s.ctx, hospital.ID, HospitalUpdate{HospitalName: &name})

	s.Require().NoError(err)
	s.Equal("City General North", updated.Hospital.HospitalName)
}

func (s *UserServiceSuite) TestUpdateStampsRequestTime() {
	u := s.registerDonor("clock@example.com")

	later := s.now.Add(2 * time.Hour)
	available := false
	updated, err := s.service.UpdateDonorProfile(
		requestcontext.WithTime(s.ctx, later), u.ID, DonorUpdate{Available: &available})

	s.Require().NoError(err)
	s.Equal(later, updated.UpdatedAt)
}
