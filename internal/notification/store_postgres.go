package notification

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	id "lifeline/pkg/domain"
	"lifeline/pkg/platform/sentinel"
)

// PostgresInbox implements InboxStore on pgx. The inbox is high-churn and
// read outside the request transaction, so it gets its own pool rather than
// the shared database/sql handle.
//
// Expected schema:
//
//	CREATE TABLE notifications (
//	    id         UUID PRIMARY KEY,
//	    event_id   TEXT        NOT NULL,
//	    user_id    UUID        NOT NULL,
//	    kind       TEXT        NOT NULL,
//	    title      TEXT        NOT NULL,
//	    body       TEXT        NOT NULL DEFAULT '',
//	    read       BOOLEAN     NOT NULL DEFAULT FALSE,
//	    created_at TIMESTAMPTZ NOT NULL,
//	    UNIQUE (event_id, user_id)
//	);
type PostgresInbox struct {
	pool *pgxpool.Pool
}

func NewPostgresInbox(pool *pgxpool.Pool) *PostgresInbox {
	return &PostgresInbox{pool: pool}
}

const notificationColumns = "id, event_id, user_id, kind, title, body, read, created_at"

func (s *PostgresInbox) Insert(ctx context.Context, n *Notification) error {
	query := `
		INSERT INTO notifications (` + notificationColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (event_id, user_id) DO NOTHING
	`
	_, err := s.pool.Exec(ctx, query,
		n.ID.String(), n.EventID, n.UserID.String(), n.Kind, n.Title, n.Body, n.Read, n.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert notification: %w", err)
	}
	return nil
}

func (s *PostgresInbox) FindByID(ctx context.Context, notificationID id.NotificationID) (*Notification, error) {
	query := `SELECT ` + notificationColumns + ` FROM notifications WHERE id = $1`
	n, err := scanNotification(s.pool.QueryRow(ctx, query, notificationID.String()))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("notification %s: %w", notificationID, sentinel.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("find notification: %w", err)
	}
	return n, nil
}

func (s *PostgresInbox) ListByUser(ctx context.Context, userID id.UserID, filter ListFilter) ([]*Notification, error) {
	query := `SELECT ` + notificationColumns + ` FROM notifications WHERE user_id = $1`
	args := []any{userID.String()}
	if filter.UnreadOnly {
		query += ` AND read = $` + strconv.Itoa(len(args)+1)
		args = append(args, false)
	}
	query += ` ORDER BY created_at DESC, id ASC`

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list notifications: %w", err)
	}
	defer rows.Close()

	out := make([]*Notification, 0)
	for rows.Next() {
		n, err := scanNotification(rows)
		if err != nil {
			return nil, fmt.Errorf("scan notification: %w", err)
		}
		out = append(out, n)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate notifications: %w", err)
	}
	return out, nil
}

func (s *PostgresInbox) MarkRead(ctx context.Context, notificationID id.NotificationID) error {
	tag, err := s.pool.Exec(ctx, `UPDATE notifications SET read = TRUE WHERE id = $1`, notificationID.String())
	if err != nil {
		return fmt.Errorf("mark notification read: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("notification %s: %w", notificationID, sentinel.ErrNotFound)
	}
	return nil
}

func scanNotification(row pgx.Row) (*Notification, error) {
	var (
		n         Notification
		rawID     string
		rawUserID string
	)
	if err := row.Scan(&rawID, &n.EventID, &rawUserID, &n.Kind, &n.Title, &n.Body, &n.Read, &n.CreatedAt); err != nil {
		return nil, err
	}
	notificationID, err := id.ParseNotificationID(rawID)
	if err != nil {
		return nil, err
	}
	userID, err := id.ParseUserID(rawUserID)
	if err != nil {
		return nil, err
	}
	n.ID = notificationID
	n.UserID = userID
	return &n, nil
}
