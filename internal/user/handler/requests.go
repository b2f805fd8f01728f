package handler

import (
	"strings"

	"lifeline/internal/user"
	id "lifeline/pkg/domain"
	dErrors "lifeline/pkg/domain-errors"
	"lifeline/pkg/platform/geo"
)

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

// UpdateDonorRequest is the HTTP request body for PUT /donors/me. All fields
// are optional; absent fields leave the profile untouched.
type UpdateDonorRequest struct {
	Phone     *string          `json:"phone"`
	BloodType *string          `json:"blood_type"`
	Available *bool            `json:"available"`
	City      *string          `json:"city"`
	Location  *LocationPayload `json:"location"`

	update user.DonorUpdate
}

// Validate validates and parses the request.
// Implements the Validatable interface for httputil.DecodeAndPrepare.
func (r *UpdateDonorRequest) Validate() error {
	if r == nil {
		return dErrors.New(dErrors.CodeBadRequest, "request body is required")
	}
	r.update = user.DonorUpdate{
		Phone:     r.Phone,
		Available: r.Available,
		City:      r.City,
	}

	if r.BloodType != nil {
		bt, err := id.ParseBloodType(strings.TrimSpace(*r.BloodType))
		if err != nil {
			return err
		}
		r.update.BloodType = &bt
	}

	point, err := r.Location.toPoint()
	if err != nil {
		return err
	}
	r.update.Location = point
	return nil
}

// Update returns the validated profile update.
func (r *UpdateDonorRequest) Update() user.DonorUpdate {
	return r.update
}

// UpdateHospitalRequest is the HTTP request body for PUT /hospitals/me.
type UpdateHospitalRequest struct {
	Phone        *string          `json:"phone"`
	HospitalName *string          `json:"hospital_name"`
	Address      *string          `json:"address"`
	City         *string          `json:"city"`
	Location     *LocationPayload `json:"location"`

	update user.HospitalUpdate
}

// Validate validates and parses the request.
func (r *UpdateHospitalRequest) Validate() error {
	if r == nil {
		return dErrors.New(dErrors.CodeBadRequest, "request body is required")
	}
	if r.HospitalName != nil && strings.TrimSpace(*r.HospitalName) == "" {
		return dErrors.New(dErrors.CodeValidation, "hospital_name cannot be empty")
	}
	r.update = user.HospitalUpdate{
		Phone:        r.Phone,
		HospitalName: r.HospitalName,
		Address:      r.Address,
		City:         r.City,
	}

	point, err := r.Location.toPoint()
	if err != nil {
		return err
	}
	r.update.Location = point
	return nil
}

// Update returns the validated profile update.
func (r *UpdateHospitalRequest) Update() user.HospitalUpdate {
	return r.update
}
