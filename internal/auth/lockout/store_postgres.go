package lockout

import (
	"context"
	"database/sql"
	"fmt"
)

// PostgresStore persists lockout records in PostgreSQL.
// The store is pure I/O, window and threshold logic lives in the Service.
//
// Schema:
//
//	CREATE TABLE login_lockouts (
//	    identifier      TEXT PRIMARY KEY,
//	    failure_count   INTEGER NOT NULL,
//	    window_start    TIMESTAMPTZ NOT NULL,
//	    last_failure_at TIMESTAMPTZ NOT NULL,
//	    locked_until    TIMESTAMPTZ
//	);
type PostgresStore struct {
	db *sql.DB
}

// NewPostgresStore constructs a PostgreSQL-backed lockout store.
func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) Get(ctx context.Context, identifier string) (*Record, error) {
	query := `
		SELECT identifier, failure_count, window_start, last_failure_at, locked_until
		FROM login_lockouts
		WHERE identifier = $1
	`
	var record Record
	var lockedUntil sql.NullTime
	err := s.db.QueryRowContext(ctx, query, identifier).Scan(
		&record.Identifier,
		&record.FailureCount,
		&record.WindowStart,
		&record.LastFailureAt,
		&lockedUntil,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("get login lockout: %w", err)
	}
	if lockedUntil.Valid {
		record.LockedUntil = &lockedUntil.Time
	}
	return &record, nil
}

func (s *PostgresStore) Upsert(ctx context.Context, record *Record) error {
	if record == nil {
		return fmt.Errorf("login lockout record is required")
	}
	query := `
		INSERT INTO login_lockouts (identifier, failure_count, window_start, last_failure_at, locked_until)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (identifier) DO UPDATE SET
			failure_count = EXCLUDED.failure_count,
			window_start = EXCLUDED.window_start,
			last_failure_at = EXCLUDED.last_failure_at,
			locked_until = EXCLUDED.locked_until
	`
	_, err := s.db.ExecContext(ctx, query,
		record.Identifier,
		record.FailureCount,
		record.WindowStart,
		record.LastFailureAt,
		record.LockedUntil,
	)
	if err != nil {
		return fmt.Errorf("upsert login lockout: %w", err)
	}
	return nil
}

func (s *PostgresStore) Clear(ctx context.Context, identifier string) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM login_lockouts WHERE identifier = $1`, identifier)
	if err != nil {
		return fmt.Errorf("clear login lockout: %w", err)
	}
	return nil
}
