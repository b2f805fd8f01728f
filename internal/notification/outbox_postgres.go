package notification

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"lifeline/contracts/events"
	"lifeline/pkg/platform/sentinel"
)

// PostgresOutbox implements OutboxStore on pgx. The serialized envelope is
// the payload of record; the event_id and kind columns exist for operators
// digging through a backlog.
//
// Expected schema:
//
//	CREATE TABLE notification_outbox (
//	    id           BIGSERIAL PRIMARY KEY,
//	    event_id     TEXT        NOT NULL,
//	    kind         TEXT        NOT NULL,
//	    envelope     JSONB       NOT NULL,
//	    created_at   TIMESTAMPTZ NOT NULL DEFAULT now(),
//	    published_at TIMESTAMPTZ
//	);
type PostgresOutbox struct {
	pool *pgxpool.Pool
}

func NewPostgresOutbox(pool *pgxpool.Pool) *PostgresOutbox {
	return &PostgresOutbox{pool: pool}
}

func (s *PostgresOutbox) Append(ctx context.Context, env events.Envelope) error {
	raw, err := json.Marshal(env)
	if err != nil {
		return fmt.Errorf("marshal envelope: %w", err)
	}
	query := `
		INSERT INTO notification_outbox (event_id, kind, envelope, created_at)
		VALUES ($1, $2, $3, $4)
	`
	if _, err := s.pool.Exec(ctx, query, env.ID, env.Kind, raw, env.OccurredAt); err != nil {
		return fmt.Errorf("insert outbox entry: %w", err)
	}
	return nil
}

func (s *PostgresOutbox) NextBatch(ctx context.Context, limit int) ([]OutboxEntry, error) {
	query := `
		SELECT id, envelope
		FROM notification_outbox
		WHERE published_at IS NULL
		ORDER BY id
		LIMIT $1
	`
	rows, err := s.pool.Query(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("query outbox: %w", err)
	}
	defer rows.Close()

	out := make([]OutboxEntry, 0, limit)
	for rows.Next() {
		var (
			entry OutboxEntry
			raw   []byte
		)
		if err := rows.Scan(&entry.ID, &raw); err != nil {
			return nil, fmt.Errorf("scan outbox entry: %w", err)
		}
		if err := json.Unmarshal(raw, &entry.Envelope); err != nil {
			return nil, fmt.Errorf("unmarshal envelope %d: %w", entry.ID, err)
		}
		out = append(out, entry)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate outbox: %w", err)
	}
	return out, nil
}

func (s *PostgresOutbox) MarkPublished(ctx context.Context, entryID int64) error {
	query := `UPDATE notification_outbox SET published_at = now() WHERE id = $1 AND published_at IS NULL`
	tag, err := s.pool.Exec(ctx, query, entryID)
	if err != nil {
		return fmt.Errorf("mark outbox entry published: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("outbox entry %d: %w", entryID, sentinel.ErrNotFound)
	}
	return nil
}
