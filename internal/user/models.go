// Package user owns the User aggregate: donors, hospitals, and admins in one
// table, distinguished by a role tag with role-specific data in a variant
// profile. There is no type hierarchy; exactly the profile matching the role
// is present.
package user

import (
	"strings"
	"time"

	id "lifeline/pkg/domain"
	dErrors "lifeline/pkg/domain-errors"
	"lifeline/pkg/email"
	"lifeline/pkg/platform/geo"
)

// User is the aggregate root for every authenticated actor.
//
// Invariants:
//   - Email is non-empty, lowercase, and unique (store-enforced)
//   - exactly the profile matching Role is non-nil; admins carry none
//   - a donor's blood type, when set, is one of the 8 canonical values
//
// Users are never hard-deleted; donation history must stay resolvable.
type User struct {
	ID           id.UserID        `json:"id"`
	Email        string           `json:"email"`
	PasswordHash string           `json:"-"`
	Name         string           `json:"name"`
	Phone        string           `json:"phone,omitempty"`
	Role         id.Role          `json:"role"`
	Donor        *DonorProfile    `json:"donor,omitempty"`
	Hospital     *HospitalProfile `json:"hospital,omitempty"`
	CreatedAt    time.Time        `json:"created_at"`
	UpdatedAt    time.Time        `json:"updated_at"`
}

// DonorProfile holds the donor-specific variant payload. Available defaults
// true; LastDonationAt is maintained by the donation lifecycle, not by
// profile updates.
type DonorProfile struct {
	BloodType      *id.BloodType `json:"blood_type,omitempty"`
	Available      bool          `json:"available"`
	LastDonationAt *time.Time    `json:"last_donation_at,omitempty"`
	DateOfBirth    time.Time     `json:"date_of_birth"`
	City           string        `json:"city,omitempty"`
	Location       *geo.Point    `json:"location,omitempty"`
}

// HospitalProfile holds the hospital-specific variant payload.
type HospitalProfile struct {
	HospitalName string     `json:"hospital_name"`
	Address      string     `json:"address,omitempty"`
	City         string     `json:"city,omitempty"`
	Location     *geo.Point `json:"location,omitempty"`
}

// NewUser validates and constructs a User. The profile pointers must match
// the role: donors get a DonorProfile, hospitals a HospitalProfile, admins
// neither. A missing display name is derived from the email local part.
func NewUser(userID id.UserID, emailAddr, passwordHash, name, phone string, role id.Role, donor *DonorProfile, hospital *HospitalProfile, now time.Time) (*User, error) {
	emailAddr = strings.ToLower(strings.TrimSpace(emailAddr))
	if emailAddr == "" || !strings.Contains(emailAddr, "@") {
		return nil, dErrors.New(dErrors.CodeValidation, "a valid email address is required")
	}
	if passwordHash == "" {
		return nil, dErrors.New(dErrors.CodeValidation, "password hash is required")
	}
	if !role.IsValid() {
		return nil, dErrors.Newf(dErrors.CodeValidation, "unknown role %q", role)
	}

	switch role {
	case id.RoleDonor:
		if donor == nil || hospital != nil {
			return nil, dErrors.New(dErrors.CodeValidation, "donor accounts require exactly a donor profile")
		}
		if donor.BloodType != nil && !donor.BloodType.IsValid() {
			return nil, dErrors.Newf(dErrors.CodeValidation, "unknown blood type %q", *donor.BloodType)
		}
	case id.RoleHospital:
		if hospital == nil || donor != nil {
			return nil, dErrors.New(dErrors.CodeValidation, "hospital accounts require exactly a hospital profile")
		}
		if strings.TrimSpace(hospital.HospitalName) == "" {
			return nil, dErrors.New(dErrors.CodeValidation, "hospital name is required")
		}
	case id.RoleAdmin:
		if donor != nil || hospital != nil {
			return nil, dErrors.New(dErrors.CodeValidation, "admin accounts carry no profile")
		}
	}

	name = strings.TrimSpace(name)
	if name == "" {
		first, last := email.DeriveNameFromEmail(emailAddr)
		name = first + " " + last
	}

	return &User{
		ID:           userID,
		Email:        emailAddr,
		PasswordHash: passwordHash,
		Name:         name,
		Phone:        strings.TrimSpace(phone),
		Role:         role,
		Donor:        donor,
		Hospital:     hospital,
		CreatedAt:    now,
		UpdatedAt:    now,
	}, nil
}

// IsDonor reports whether the user is a donor with a profile attached.
func (u *User) IsDonor() bool {
	return u.Role == id.RoleDonor && u.Donor != nil
}

// IsHospital reports whether the user is a hospital with a profile attached.
func (u *User) IsHospital() bool {
	return u.Role == id.RoleHospital && u.Hospital != nil
}

// RecordDonation stamps the donor's last completed donation, starting the
// next cooldown window. Called by the donation lifecycle on completion.
func (u *User) RecordDonation(completedAt time.Time) error {
	if !u.IsDonor() {
		return dErrors.New(dErrors.CodeInvariantViolation, "only donors have a donation clock")
	}
	u.Donor.LastDonationAt = &completedAt
	u.UpdatedAt = completedAt
	return nil
}

// DonorUpdate carries the mutable donor profile fields. Nil pointers leave
// the current value untouched; Available uses a pointer for the same reason.
type DonorUpdate struct {
	Phone     *string
	BloodType *id.BloodType
	Available *bool
	City      *string
	Location  *geo.Point
}

// ApplyDonorUpdate mutates the donor profile in place.
func (u *User) ApplyDonorUpdate(update DonorUpdate, now time.Time) error {
	if !u.IsDonor() {
		return dErrors.New(dErrors.CodeInvariantViolation, "user has no donor profile")
	}
	if update.BloodType != nil {
		if !update.BloodType.IsValid() {
			return dErrors.Newf(dErrors.CodeValidation, "unknown blood type %q", *update.BloodType)
		}
		u.Donor.BloodType = update.BloodType
	}
	if update.Phone != nil {
		u.Phone = strings.TrimSpace(*update.Phone)
	}
	if update.Available != nil {
		u.Donor.Available = *update.Available
	}
	if update.City != nil {
		u.Donor.City = strings.TrimSpace(*update.City)
	}
	if update.Location != nil {
		u.Donor.Location = update.Location
	}
	u.UpdatedAt = now
	return nil
}

// HospitalUpdate carries the mutable hospital profile fields.
type HospitalUpdate struct {
	Phone        *string
	HospitalName *string
	Address      *string
	City         *string
	Location     *geo.Point
}

// ApplyHospitalUpdate mutates the hospital profile in place.
func (u *User) ApplyHospitalUpdate(update HospitalUpdate, now time.Time) error {
	if !u.IsHospital() {
		return dErrors.New(dErrors.CodeInvariantViolation, "user has no hospital profile")
	}
	if update.HospitalName != nil {
		name := strings.TrimSpace(*update.HospitalName)
		if name == "" {
			return dErrors.New(dErrors.CodeValidation, "hospital name cannot be empty")
		}
		u.Hospital.HospitalName = name
	}
	if update.Phone != nil {
		u.Phone = strings.TrimSpace(*update.Phone)
	}
	if update.Address != nil {
		u.Hospital.Address = strings.TrimSpace(*update.Address)
	}
	if update.City != nil {
		u.Hospital.City = strings.TrimSpace(*update.City)
	}
	if update.Location != nil {
		u.Hospital.Location = update.Location
	}
	u.UpdatedAt = now
	return nil
}
