package request

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

// PostgresStore persists requests. Exactly one of blood_type / organ_type is
// non-NULL per row, matching the kind column.
type PostgresStore struct {
	db *sql.DB
}

// NewPostgres constructs a PostgreSQL-backed request store.
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

const requestColumns = `
	id, hospital_id, kind, blood_type, organ_type, urgency, status,
	quantity, required_by, notes, created_at, updated_at
`

func (s *PostgresStore) Create(ctx context.Context, r *Request) error {
	query := `
		INSERT INTO requests (` + requestColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
	`
	_, err := s.q(ctx).ExecContext(ctx, query, flattenRequest(r)...)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == "23505" {
			return fmt.Errorf("create request %s: %w", r.ID, sentinel.ErrConflict)
		}
		return fmt.Errorf("create request: %w", err)
	}
	return nil
}

func (s *PostgresStore) FindByID(ctx context.Context, requestID id.RequestID) (*Request, error) {
	query := `SELECT ` + requestColumns + ` FROM requests WHERE id = $1`
	r, err := scanRequest(s.q(ctx).QueryRowContext(ctx, query, requestID.String()))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("request %s: %w", requestID, sentinel.ErrNotFound)
		}
		return nil, fmt.Errorf("find request by id: %w", err)
	}
	return r, nil
}

func (s *PostgresStore) List(ctx context.Context, filter ListFilter) ([]*Request, error) {
	query := `SELECT ` + requestColumns + ` FROM requests`
	var (
		clauses []string
		args    []any
	)
	if !filter.HospitalID.IsZero() {
		args = append(args, filter.HospitalID.String())
		clauses = append(clauses, "hospital_id = $"+strconv.Itoa(len(args)))
	}
	if filter.Status != "" {
		args = append(args, string(filter.Status))
		clauses = append(clauses, "status = $"+strconv.Itoa(len(args)))
	}
	if filter.Kind != "" {
		args = append(args, string(filter.Kind))
		clauses = append(clauses, "kind = $"+strconv.Itoa(len(args)))
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
		return nil, fmt.Errorf("list requests: %w", err)
	}
	defer rows.Close()

	var out []*Request
	for rows.Next() {
		r, err := scanRequest(rows)
		if err != nil {
			return nil, fmt.Errorf("list requests: %w", err)
		}
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list requests: %w", err)
	}
	return out, nil
}

func (s *PostgresStore) Update(ctx context.Context, r *Request) error {
	query := `
		UPDATE requests
		SET urgency = $2, status = $3, quantity = $4, required_by = $5,
		    notes = $6, updated_at = $7
		WHERE id = $1
	`
	res, err := s.q(ctx).ExecContext(ctx, query,
		r.ID.String(), string(r.Urgency), string(r.Status), r.Quantity,
		r.RequiredBy, r.Notes, r.UpdatedAt)
	if err != nil {
		return fmt.Errorf("update request: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update request: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("update request %s: %w", r.ID, sentinel.ErrNotFound)
	}
	return nil
}

func flattenRequest(r *Request) []any {
	var bloodType, organType sql.NullString
	if r.BloodType != nil {
		bloodType = sql.NullString{String: r.BloodType.String(), Valid: true}
	}
	if r.OrganType != nil {
		organType = sql.NullString{String: r.OrganType.String(), Valid: true}
	}
	return []any{
		r.ID.String(), r.HospitalID.String(), string(r.Kind), bloodType, organType,
		string(r.Urgency), string(r.Status), r.Quantity, r.RequiredBy, r.Notes,
		r.CreatedAt, r.UpdatedAt,
	}
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRequest(row rowScanner) (*Request, error) {
	var (
		r                    Request
		rawID, rawHospital   string
		bloodType, organType sql.NullString
		kind, urgency, state string
	)
	err := row.Scan(&rawID, &rawHospital, &kind, &bloodType, &organType,
		&urgency, &state, &r.Quantity, &r.RequiredBy, &r.Notes,
		&r.CreatedAt, &r.UpdatedAt)
	if err != nil {
		return nil, err
	}

	if r.ID, err = id.ParseRequestID(rawID); err != nil {
		return nil, fmt.Errorf("stored request id: %w", err)
	}
	if r.HospitalID, err = id.ParseUserID(rawHospital); err != nil {
		return nil, fmt.Errorf("stored hospital id: %w", err)
	}
	r.Kind = id.RequestKind(kind)
	r.Urgency = id.Urgency(urgency)
	r.Status = Status(state)
	if bloodType.Valid {
		bt := id.BloodType(bloodType.String)
		r.BloodType = &bt
	}
	if organType.Valid {
		ot := id.OrganType(organType.String)
		r.OrganType = &ot
	}
	return &r, nil
}
