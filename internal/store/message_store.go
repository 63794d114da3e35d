package store

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	appmsg "github.com/NahidNoorshat/ecommerce-backend/internal/app/message"
)

// MessageStore persists chat messages. It implements message.Store.
type MessageStore struct {
	pool *pgxpool.Pool
}

func NewMessageStore(pool *pgxpool.Pool) *MessageStore {
	return &MessageStore{pool: pool}
}

// Insert persists the message and fills server-assigned fields.
func (s *MessageStore) Insert(ctx context.Context, m *appmsg.Message) (*appmsg.Message, error) {
	query := `
		INSERT INTO messages (room_id, sender_id, content, is_read, read_at)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, created_at`

	saved := *m
	err := s.pool.QueryRow(ctx, query, m.RoomID, m.SenderID, m.Content, m.IsRead, m.ReadTimestamp).
		Scan(&saved.ID, &saved.Timestamp)
	if err != nil {
		return nil, err
	}
	return &saved, nil
}

// ListRecent returns up to limit of the room's newest messages in ascending
// timestamp order, each annotated with its sender's display name and staff
// standing.
func (s *MessageStore) ListRecent(ctx context.Context, roomID int64, limit int) ([]appmsg.Message, error) {
	query := `
		SELECT id, room_id, sender_id, sender_name, content, created_at, is_read, read_at, is_admin
		FROM (
			SELECT m.id, m.room_id, m.sender_id, u.username AS sender_name,
				m.content, m.created_at, m.is_read, m.read_at,
				(u.is_staff OR u.role = 'admin') AS is_admin
			FROM messages m
			JOIN users u ON u.id = m.sender_id
			WHERE m.room_id = $1
			ORDER BY m.created_at DESC
			LIMIT $2
		) recent
		ORDER BY created_at ASC`

	rows, err := s.pool.Query(ctx, query, roomID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	messages := make([]appmsg.Message, 0, limit)
	for rows.Next() {
		var m appmsg.Message
		err := rows.Scan(
			&m.ID, &m.RoomID, &m.SenderID, &m.SenderName,
			&m.Content, &m.Timestamp, &m.IsRead, &m.ReadTimestamp, &m.IsAdmin,
		)
		if err != nil {
			return nil, err
		}
		messages = append(messages, m)
	}
	return messages, rows.Err()
}

// MarkRead flips is_read for the listed unread messages of the room, skipping
// those sent by excludeSenderID.
func (s *MessageStore) MarkRead(ctx context.Context, roomID int64, ids []int64, excludeSenderID int64, at time.Time) (int64, error) {
	tag, err := s.pool.Exec(ctx, `
		UPDATE messages
		SET is_read = TRUE, read_at = $4
		WHERE room_id = $1
		  AND id = ANY($2)
		  AND sender_id <> $3
		  AND NOT is_read`,
		roomID, ids, excludeSenderID, at)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}

// MarkAllFromSender flips is_read for every unread message of the room sent
// by senderID.
func (s *MessageStore) MarkAllFromSender(ctx context.Context, roomID, senderID int64, at time.Time) (int64, error) {
	tag, err := s.pool.Exec(ctx, `
		UPDATE messages
		SET is_read = TRUE, read_at = $3
		WHERE room_id = $1
		  AND sender_id = $2
		  AND NOT is_read`,
		roomID, senderID, at)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}

// CountUnreadFromSender counts the room's unread messages sent by senderID.
func (s *MessageStore) CountUnreadFromSender(ctx context.Context, roomID, senderID int64) (int, error) {
	var count int
	err := s.pool.QueryRow(ctx, `
		SELECT count(*)
		FROM messages
		WHERE room_id = $1 AND sender_id = $2 AND NOT is_read`,
		roomID, senderID).Scan(&count)
	return count, err
}
