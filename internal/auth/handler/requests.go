package handler

import (
	"strings"
	"time"

	"lifeline/internal/auth"
	"lifeline/internal/user"
	id "lifeline/pkg/domain"
	dErrors "lifeline/pkg/domain-errors"
	"lifeline/pkg/platform/geo"
)

const dateOfBirthLayout = "2006-01-02"

// LocationPayload is the shared lat/lon body fragment.
type LocationPayload struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

func (l *LocationPayload) toPoint() (*geo.Point, error) {
	if l == nil {
		return nil, nil
	}
	if l.Lat < -90 || l.Lat > 90 || l.Lon < -180 || l.Lon > 180 {
		return nil, dErrors.New(dErrors.CodeValidation, "location coordinates are out of range")
	}
	return &geo.Point{Lat: l.Lat, Lon: l.Lon}, nil
}

// DonorProfilePayload is the donor portion of a registration body.
type DonorProfilePayload struct {
	BloodType   *string          `json:"blood_type"`
	DateOfBirth string           `json:"date_of_birth"`
	City        string           `json:"city"`
	Location    *LocationPayload `json:"location"`
}

// HospitalProfilePayload is the hospital portion of a registration body.
type HospitalProfilePayload struct {
	HospitalName string           `json:"hospital_name"`
	Address      string           `json:"address"`
	City         string           `json:"city"`
	Location     *LocationPayload `json:"location"`
}

// RegisterRequest is the HTTP request body for POST /auth/register.
type RegisterRequest struct {
	Email    string                  `json:"email"`
	Password string                  `json:"password"`
	Name     string                  `json:"name"`
	Phone    string                  `json:"phone"`
	Role     string                  `json:"role"`
	Donor    *DonorProfilePayload    `json:"donor"`
	Hospital *HospitalProfilePayload `json:"hospital"`

	input auth.RegisterInput
}

// Validate validates and parses the request.
// Implements the Validatable interface for httputil.DecodeAndPrepare.
func (r *RegisterRequest) Validate() error {
	if r == nil {
		return dErrors.New(dErrors.CodeBadRequest, "request body is required")
	}
	role, err := id.ParseRole(strings.TrimSpace(r.Role))
	if err != nil {
		return err
	}

	r.input = auth.RegisterInput{
		Email:    r.Email,
		Password: r.Password,
		Name:     r.Name,
		Phone:    r.Phone,
		Role:     role,
	}

	if r.Donor != nil {
		profile, err := r.Donor.toProfile()
		if err != nil {
			return err
		}
		r.input.Donor = profile
	}
	if r.Hospital != nil {
		point, err := r.Hospital.Location.toPoint()
		if err != nil {
			return err
		}
		r.input.Hospital = &user.HospitalProfile{
			HospitalName: strings.TrimSpace(r.Hospital.HospitalName),
			Address:      strings.TrimSpace(r.Hospital.Address),
			City:         strings.TrimSpace(r.Hospital.City),
			Location:     point,
		}
	}
	return nil
}

func (p *DonorProfilePayload) toProfile() (*user.DonorProfile, error) {
	dob, err := time.Parse(dateOfBirthLayout, p.DateOfBirth)
	if err != nil {
		return nil, dErrors.New(dErrors.CodeValidation, "date_of_birth must be formatted YYYY-MM-DD")
	}

	profile := &user.DonorProfile{
		Available:   true,
		DateOfBirth: dob,
		City:        strings.TrimSpace(p.City),
	}
	if p.BloodType != nil {
		bt, err := id.ParseBloodType(strings.TrimSpace(*p.BloodType))
		if err != nil {
			return nil, err
		}
		profile.BloodType = &bt
	}
	point, err := p.Location.toPoint()
	if err != nil {
		return nil, err
	}
	profile.Location = point
	return profile, nil
}

// Input returns the validated registration input.
func (r *RegisterRequest) Input() auth.RegisterInput {
	return r.input
}

// LoginRequest is the HTTP request body for POST /auth/login.
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Validate validates the request.
func (r *LoginRequest) Validate() error {
	if r == nil {
		return dErrors.New(dErrors.CodeBadRequest, "request body is required")
	}
	if strings.TrimSpace(r.Email) == "" || r.Password == "" {
		return dErrors.New(dErrors.CodeValidation, "email and password are required")
	}
	return nil
}
