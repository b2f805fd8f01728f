package donation

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"

	"github.com/lib/pq"

	id "lifeline/pkg/domain"
	"lifeline/pkg/platform/sentinel"
	"lifeline/pkg/platform/tx"
)

// PostgresStore persists donations. The one-active-donation invariant rides
// a partial unique index:
//
//	CREATE UNIQUE INDEX donations_active_donor_request
//	ON donations (donor_id, request_id) WHERE status != 'cancelled';
type PostgresStore struct {
	db *sql.DB
}

// NewPostgres constructs a PostgreSQL-backed donation store.
func NewPostgres(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

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

const donationColumns = `
	id, donor_id, request_id, status, quantity,
	scheduled_at, completed_at, notes, created_at, updated_at
`

func (s *PostgresStore) CreateIfNoActive(ctx context.Context, d *Donation) error {
	query := `
		INSERT INTO donations (` + donationColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`
	_, err := s.q(ctx).ExecContext(ctx, query,
		d.ID.String(), d.DonorID.String(), d.RequestID.String(),
		string(d.Status), d.Quantity, d.ScheduledAt, d.CompletedAt,
		d.Notes, d.CreatedAt, d.UpdatedAt)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == "23505" {
			return fmt.Errorf("donor %s already has an active donation for request %s: %w",
				d.DonorID, d.RequestID, sentinel.ErrConflict)
		}
		return fmt.Errorf("create donation: %w", err)
	}
	return nil
}

func (s *PostgresStore) FindByID(ctx context.Context, donationID id.DonationID) (*Donation, error) {
	query := `SELECT ` + donationColumns + ` FROM donations WHERE id = $1`
	d, err := scanDonation(s.q(ctx).QueryRowContext(ctx, query, donationID.String()))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("donation %s: %w", donationID, sentinel.ErrNotFound)
		}
		return nil, fmt.Errorf("find donation by id: %w", err)
	}
	return d, nil
}

func (s *PostgresStore) List(ctx context.Context, filter ListFilter) ([]*Donation, error) {
	query := `SELECT ` + donationColumns + ` FROM donations`
	var (
		clauses []string
		args    []any
	)
	if !filter.DonorID.IsZero() {
		args = append(args, filter.DonorID.String())
		clauses = append(clauses, "donor_id = $"+strconv.Itoa(len(args)))
	}
	if !filter.RequestID.IsZero() {
		args = append(args, filter.RequestID.String())
		clauses = append(clauses, "request_id = $"+strconv.Itoa(len(args)))
	}
	if filter.Status != "" {
		args = append(args, string(filter.Status))
		clauses = append(clauses, "status = $"+strconv.Itoa(len(args)))
	}
	for i, clause := range clauses {
		if i == 0 {
			query += " WHERE " + clause
		} else {
			query += " AND " + clause
		}
	}
	query += " ORDER BY created_at DESC, id"

	rows, err := s.q(ctx).QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list donations: %w", err)
	}
	defer rows.Close()

	var out []*Donation
	for rows.Next() {
		d, err := scanDonation(rows)
		if err != nil {
			return nil, fmt.Errorf("list donations: %w", err)
		}
		out = append(out, d)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list donations: %w", err)
	}
	return out, nil
}

func (s *PostgresStore) Update(ctx context.Context, d *Donation) error {
	query := `
		UPDATE donations
		SET status = $2, quantity = $3, scheduled_at = $4, completed_at = $5,
		    notes = $6, updated_at = $7
		WHERE id = $1
	`
	res, err := s.q(ctx).ExecContext(ctx, query,
		d.ID.String(), string(d.Status), d.Quantity, d.ScheduledAt,
		d.CompletedAt, d.Notes, d.UpdatedAt)
	if err != nil {
		return fmt.Errorf("update donation: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update donation: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("update donation %s: %w", d.ID, sentinel.ErrNotFound)
	}
	return nil
}

func (s *PostgresStore) CountCompletedByDonor(ctx context.Context, donorID id.UserID) (int, error) {
	query := `SELECT COUNT(*) FROM donations WHERE donor_id = $1 AND status = 'completed'`
	var count int
	if err := s.q(ctx).QueryRowContext(ctx, query, donorID.String()).Scan(&count); err != nil {
		return 0, fmt.Errorf("count completed donations: %w", err)
	}
	return count, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanDonation(row rowScanner) (*Donation, error) {
	var (
		d                    Donation
		rawID, rawDonor      string
		rawRequest, state    string
		scheduled, completed sql.NullTime
	)
	err := row.Scan(&rawID, &rawDonor, &rawRequest, &state, &d.Quantity,
		&scheduled, &completed, &d.Notes, &d.CreatedAt, &d.UpdatedAt)
	if err != nil {
		return nil, err
	}

	if d.ID, err = id.ParseDonationID(rawID); err != nil {
		return nil, fmt.Errorf("stored donation id: %w", err)
	}
	if d.DonorID, err = id.ParseUserID(rawDonor); err != nil {
		return nil, fmt.Errorf("stored donor id: %w", err)
	}
	if d.RequestID, err = id.ParseRequestID(rawRequest); err != nil {
		return nil, fmt.Errorf("stored request id: %w", err)
	}
	d.Status = Status(state)
	if scheduled.Valid {
		t := scheduled.Time
		d.ScheduledAt = &t
	}
	if completed.Valid {
		t := completed.Time
		d.CompletedAt = &t
	}
	return &d, nil
}
