package handler

import (
	"time"

	"lifeline/internal/user"
)

// UserResponse is the wire shape of an account with its role profile.
type UserResponse struct {
	ID        string            `json:"id"`
	Email     string            `json:"email"`
	Name      string            `json:"name"`
	Phone     string            `json:"phone,omitempty"`
	Role      string            `json:"role"`
	Donor     *DonorResponse    `json:"donor,omitempty"`
	Hospital  *HospitalResponse `json:"hospital,omitempty"`
	CreatedAt time.Time         `json:"created_at"`
	UpdatedAt time.Time         `json:"updated_at"`
}

// DonorResponse is the donor profile portion of the response.
type DonorResponse struct {
	BloodType      string     `json:"blood_type,omitempty"`
	Available      bool       `json:"available"`
	LastDonationAt *time.Time `json:"last_donation_at,omitempty"`
	City           string     `json:"city,omitempty"`
	Lat            *float64   `json:"lat,omitempty"`
	Lon            *float64   `json:"lon,omitempty"`
}

// HospitalResponse is the hospital profile portion of the response.
type HospitalResponse struct {
	HospitalName string   `json:"hospital_name"`
	Address      string   `json:"address,omitempty"`
	City         string   `json:"city,omitempty"`
	Lat          *float64 `json:"lat,omitempty"`
	Lon          *float64 `json:"lon,omitempty"`
}

// ListUsersResponse wraps the admin user listing.
type ListUsersResponse struct {
	Users []*UserResponse `json:"users"`
}

// FromUser converts a domain User to its HTTP response.
func FromUser(u *user.User) *UserResponse {
	resp := &UserResponse{
		ID:        u.ID.String(),
		Email:     u.Email,
		Name:      u.Name,
		Phone:     u.Phone,
		Role:      u.Role.String(),
		CreatedAt: u.CreatedAt,
		UpdatedAt: u.UpdatedAt,
	}
	if u.Donor != nil {
		donor := &DonorResponse{
			Available:      u.Donor.Available,
			LastDonationAt: u.Donor.LastDonationAt,
			City:           u.Donor.City,
		}
		if u.Donor.BloodType != nil {
			donor.BloodType = u.Donor.BloodType.String()
		}
		if u.Donor.Location != nil {
			donor.Lat = &u.Donor.Location.Lat
			donor.Lon = &u.Donor.Location.Lon
		}
		resp.Donor = donor
	}
	if u.Hospital != nil {
		hospital := &HospitalResponse{
			HospitalName: u.Hospital.HospitalName,
			Address:      u.Hospital.Address,
			City:         u.Hospital.City,
		}
		if u.Hospital.Location != nil {
			hospital.Lat = &u.Hospital.Location.Lat
			hospital.Lon = &u.Hospital.Location.Lon
		}
		resp.Hospital = hospital
	}
	return resp
}
