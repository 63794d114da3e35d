package store

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/NahidNoorshat/ecommerce-backend/internal/app/notify"
)

// NotificationStore persists notifications. It implements notify.Store.
type NotificationStore struct {
	pool *pgxpool.Pool
}

func NewNotificationStore(pool *pgxpool.Pool) *NotificationStore {
	return &NotificationStore{pool: pool}
}

// Insert persists the notification and fills its server-assigned id.
// pgx encodes the Data map as JSONB.
func (s *NotificationStore) Insert(ctx context.Context, n *notify.Notification) error {
	data := n.Data
	if data == nil {
		data = map[string]any{}
	}

	return s.pool.QueryRow(ctx, `
		INSERT INTO notifications (user_id, title, message, notification_type, data, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id`,
		n.UserID, n.Title, n.Message, n.Kind, data, n.CreatedAt).Scan(&n.ID)
}

// ListForUser returns the user's notifications, newest first.
func (s *NotificationStore) ListForUser(ctx context.Context, userID int64, limit int) ([]notify.Notification, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT id, user_id, title, message, notification_type, data, is_read, created_at
		FROM notifications
		WHERE user_id = $1
		ORDER BY created_at DESC
		LIMIT $2`,
		userID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	notifications := make([]notify.Notification, 0, limit)
	for rows.Next() {
		var n notify.Notification
		err := rows.Scan(&n.ID, &n.UserID, &n.Title, &n.Message, &n.Kind, &n.Data, &n.IsRead, &n.CreatedAt)
		if err != nil {
			return nil, err
		}
		notifications = append(notifications, n)
	}
	return notifications, rows.Err()
}

// MarkRead marks one of the user's notifications read. A miss, including a
// notification belonging to another user, returns notify.ErrNotFound.
func (s *NotificationStore) MarkRead(ctx context.Context, userID, id int64) error {
	tag, err := s.pool.Exec(ctx, `
		UPDATE notifications
		SET is_read = TRUE
		WHERE id = $1 AND user_id = $2`,
		id, userID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return notify.ErrNotFound
	}
	return nil
}
