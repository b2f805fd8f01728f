package user

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/lib/pq"

	id "lifeline/pkg/domain"
	"lifeline/pkg/platform/geo"
	"lifeline/pkg/platform/sentinel"
	"lifeline/pkg/platform/tx"
)

// PostgresStore persists users in a single flattened table; the role tag
// selects which profile columns are populated. Email uniqueness rides a
// unique index on LOWER(email), surfaced as sentinel.ErrConflict.
type PostgresStore struct {
	db *sql.DB
}

// NewPostgres constructs a PostgreSQL-backed user store.
func NewPostgres(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

// querier lets store methods join a caller's transaction via pkg/platform/tx.
type querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

func (s *PostgresStore) q(ctx context.Context) querier {
	if dbTx, ok := tx.From(ctx); ok {
		return dbTx
	}
	return s.db
}

const userColumns = `
	id, email, password_hash, name, phone, role,
	blood_type, available, last_donation_at, date_of_birth, donor_city, donor_lat, donor_lon,
	hospital_name, hospital_address, hospital_city, hospital_lat, hospital_lon,
	created_at, updated_at
`

func (s *PostgresStore) CreateIfEmailAvailable(ctx context.Context, u *User) error {
	query := `
		INSERT INTO users (` + userColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19, $20)
	`
	_, err := s.q(ctx).ExecContext(ctx, query, flattenUser(u)...)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == "23505" {
			return fmt.Errorf("email %s: %w", u.Email, sentinel.ErrConflict)
		}
		return fmt.Errorf("create user: %w", err)
	}
	return nil
}

func (s *PostgresStore) FindByID(ctx context.Context, userID id.UserID) (*User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE id = $1`
	u, err := scanUser(s.q(ctx).QueryRowContext(ctx, query, userID.String()))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("user %s: %w", userID, sentinel.ErrNotFound)
		}
		return nil, fmt.Errorf("find user by id: %w", err)
	}
	return u, nil
}

func (s *PostgresStore) FindByEmail(ctx context.Context, email string) (*User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE LOWER(email) = LOWER($1)`
	u, err := scanUser(s.q(ctx).QueryRowContext(ctx, query, email))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("user %s: %w", email, sentinel.ErrNotFound)
		}
		return nil, fmt.Errorf("find user by email: %w", err)
	}
	return u, nil
}

func (s *PostgresStore) ListByRole(ctx context.Context, role id.Role) ([]*User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE role = $1 ORDER BY created_at, id`
	rows, err := s.q(ctx).QueryContext(ctx, query, role.String())
	if err != nil {
		return nil, fmt.Errorf("list users by role: %w", err)
	}
	defer rows.Close()

	var out []*User
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, fmt.Errorf("scan user: %w", err)
		}
		out = append(out, u)
	}
	return out, rows.Err()
}

func (s *PostgresStore) Update(ctx context.Context, u *User) error {
	query := `
		UPDATE users SET
			email = $2, password_hash = $3, name = $4, phone = $5, role = $6,
			blood_type = $7, available = $8, last_donation_at = $9, date_of_birth = $10,
			donor_city = $11, donor_lat = $12, donor_lon = $13,
			hospital_name = $14, hospital_address = $15, hospital_city = $16,
			hospital_lat = $17, hospital_lon = $18,
			created_at = $19, updated_at = $20
		WHERE id = $1
	`
	res, err := s.q(ctx).ExecContext(ctx, query, flattenUser(u)...)
	if err != nil {
		return fmt.Errorf("update user: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update user: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("user %s: %w", u.ID, sentinel.ErrNotFound)
	}
	return nil
}

// flattenUser produces the positional args matching userColumns.
func flattenUser(u *User) []any {
	var (
		bloodType      *string
		available      *bool
		lastDonationAt *sql.NullTime
		dateOfBirth    *sql.NullTime
		donorCity      *string
		donorLat       *float64
		donorLon       *float64
	)
	if u.Donor != nil {
		if u.Donor.BloodType != nil {
			s := u.Donor.BloodType.String()
			bloodType = &s
		}
		available = &u.Donor.Available
		lastDonationAt = &sql.NullTime{}
		if u.Donor.LastDonationAt != nil {
			lastDonationAt.Time, lastDonationAt.Valid = *u.Donor.LastDonationAt, true
		}
		dateOfBirth = &sql.NullTime{Time: u.Donor.DateOfBirth, Valid: !u.Donor.DateOfBirth.IsZero()}
		donorCity = &u.Donor.City
		if u.Donor.Location != nil {
			donorLat, donorLon = &u.Donor.Location.Lat, &u.Donor.Location.Lon
		}
	}

	var (
		hospitalName    *string
		hospitalAddress *string
		hospitalCity    *string
		hospitalLat     *float64
		hospitalLon     *float64
	)
	if u.Hospital != nil {
		hospitalName = &u.Hospital.HospitalName
		hospitalAddress = &u.Hospital.Address
		hospitalCity = &u.Hospital.City
		if u.Hospital.Location != nil {
			hospitalLat, hospitalLon = &u.Hospital.Location.Lat, &u.Hospital.Location.Lon
		}
	}

	return []any{
		u.ID.String(), u.Email, u.PasswordHash, u.Name, u.Phone, u.Role.String(),
		bloodType, available, lastDonationAt, dateOfBirth, donorCity, donorLat, donorLon,
		hospitalName, hospitalAddress, hospitalCity, hospitalLat, hospitalLon,
		u.CreatedAt, u.UpdatedAt,
	}
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanUser(row rowScanner) (*User, error) {
	var (
		u               User
		rawID           string
		rawRole         string
		bloodType       sql.NullString
		available       sql.NullBool
		lastDonationAt  sql.NullTime
		dateOfBirth     sql.NullTime
		donorCity       sql.NullString
		donorLat        sql.NullFloat64
		donorLon        sql.NullFloat64
		hospitalName    sql.NullString
		hospitalAddress sql.NullString
		hospitalCity    sql.NullString
		hospitalLat     sql.NullFloat64
		hospitalLon     sql.NullFloat64
	)

	err := row.Scan(
		&rawID, &u.Email, &u.PasswordHash, &u.Name, &u.Phone, &rawRole,
		&bloodType, &available, &lastDonationAt, &dateOfBirth, &donorCity, &donorLat, &donorLon,
		&hospitalName, &hospitalAddress, &hospitalCity, &hospitalLat, &hospitalLon,
		&u.CreatedAt, &u.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	userID, err := id.ParseUserID(rawID)
	if err != nil {
		return nil, err
	}
	u.ID = userID
	u.Role = id.Role(rawRole)

	switch u.Role {
	case id.RoleDonor:
		donor := &DonorProfile{Available: available.Bool}
		if bloodType.Valid {
			bt := id.BloodType(bloodType.String)
			donor.BloodType = &bt
		}
		if lastDonationAt.Valid {
			t := lastDonationAt.Time
			donor.LastDonationAt = &t
		}
		if dateOfBirth.Valid {
			donor.DateOfBirth = dateOfBirth.Time
		}
		donor.City = donorCity.String
		if donorLat.Valid && donorLon.Valid {
			donor.Location = pointFrom(donorLat.Float64, donorLon.Float64)
		}
		u.Donor = donor
	case id.RoleHospital:
		hospital := &HospitalProfile{
			HospitalName: hospitalName.String,
			Address:      hospitalAddress.String,
			City:         hospitalCity.String,
		}
		if hospitalLat.Valid && hospitalLon.Valid {
			hospital.Location = pointFrom(hospitalLat.Float64, hospitalLon.Float64)
		}
		u.Hospital = hospital
	}

	return &u, nil
}

func pointFrom(lat, lon float64) *geo.Point {
	return &geo.Point{Lat: lat, Lon: lon}
}
