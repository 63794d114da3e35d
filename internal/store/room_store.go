/*
Package store provides the PostgreSQL implementations of the domain
persistence contracts, built on pgx connection pools. Queries map storage
errors to the domain sentinel errors so callers never see driver types.
*/
package store

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/NahidNoorshat/ecommerce-backend/internal/app/db"
	"github.com/NahidNoorshat/ecommerce-backend/internal/app/room"
)

// RoomStore persists chat rooms. It implements room.Store and
// message.RoomToucher.
type RoomStore struct {
	pool *pgxpool.Pool
}

func NewRoomStore(pool *pgxpool.Pool) *RoomStore {
	return &RoomStore{pool: pool}
}

const roomColumns = `
	r.id, r.chat_type, r.product_id, r.customer_id, u.username,
	r.assigned_staff_id, r.is_active, r.is_resolved, r.created_at, r.last_activity`

func scanRoom(row pgx.Row) (*room.Room, error) {
	var r room.Room
	err := row.Scan(
		&r.ID, &r.ChatType, &r.ProductID, &r.CustomerID, &r.CustomerName,
		&r.AssignedStaffID, &r.IsActive, &r.IsResolved, &r.CreatedAt, &r.LastActivityAt,
	)
	if err != nil {
		return nil, err
	}
	return &r, nil
}

// ActiveProductRoom returns the live room for the (product, customer) pair.
func (s *RoomStore) ActiveProductRoom(ctx context.Context, productID, customerID int64) (*room.Room, error) {
	query := `
		SELECT` + roomColumns + `
		FROM chat_rooms r
		JOIN users u ON u.id = r.customer_id
		WHERE r.chat_type = 'product'
		  AND r.product_id = $1
		  AND r.customer_id = $2
		  AND r.is_active`

	r, err := scanRoom(s.pool.QueryRow(ctx, query, productID, customerID))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, room.ErrNotFound
	}
	return r, err
}

// Create inserts a room. The partial unique index on active product rooms
// turns a concurrent duplicate insert into room.ErrDuplicate.
func (s *RoomStore) Create(ctx context.Context, r *room.Room) (*room.Room, error) {
	query := `
		INSERT INTO chat_rooms (chat_type, product_id, customer_id, assigned_staff_id)
		VALUES ($1, $2, $3, $4)
		RETURNING id, is_active, is_resolved, created_at, last_activity`

	created := *r
	err := s.pool.QueryRow(ctx, query, r.ChatType, r.ProductID, r.CustomerID, r.AssignedStaffID).
		Scan(&created.ID, &created.IsActive, &created.IsResolved, &created.CreatedAt, &created.LastActivityAt)
	if err != nil {
		if db.IsUniqueViolation(err) {
			return nil, room.ErrDuplicate
		}
		return nil, err
	}
	return &created, nil
}

// Get returns a room by id.
func (s *RoomStore) Get(ctx context.Context, id int64) (*room.Room, error) {
	query := `
		SELECT` + roomColumns + `
		FROM chat_rooms r
		JOIN users u ON u.id = r.customer_id
		WHERE r.id = $1`

	r, err := scanRoom(s.pool.QueryRow(ctx, query, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, room.ErrNotFound
	}
	return r, err
}

// ListActiveSummaries returns active rooms newest-activity first, each with
// the count of unread customer-sent messages.
func (s *RoomStore) ListActiveSummaries(ctx context.Context, limit int) ([]room.Summary, error) {
	query := `
		SELECT` + roomColumns + `,
			(SELECT count(*) FROM messages m
			 WHERE m.room_id = r.id AND m.sender_id = r.customer_id AND NOT m.is_read)
		FROM chat_rooms r
		JOIN users u ON u.id = r.customer_id
		WHERE r.is_active
		ORDER BY r.last_activity DESC
		LIMIT $1`

	rows, err := s.pool.Query(ctx, query, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	summaries := make([]room.Summary, 0, limit)
	for rows.Next() {
		var sm room.Summary
		r := &sm.Room
		err := rows.Scan(
			&r.ID, &r.ChatType, &r.ProductID, &r.CustomerID, &r.CustomerName,
			&r.AssignedStaffID, &r.IsActive, &r.IsResolved, &r.CreatedAt, &r.LastActivityAt,
			&sm.UnreadCount,
		)
		if err != nil {
			return nil, err
		}
		summaries = append(summaries, sm)
	}
	return summaries, rows.Err()
}

// ListForUser returns the rooms where the user is the customer or the
// assigned staff, newest-activity first.
func (s *RoomStore) ListForUser(ctx context.Context, userID int64, limit int) ([]room.Room, error) {
	query := `
		SELECT` + roomColumns + `
		FROM chat_rooms r
		JOIN users u ON u.id = r.customer_id
		WHERE r.is_active AND (r.customer_id = $1 OR r.assigned_staff_id = $1)
		ORDER BY r.last_activity DESC
		LIMIT $2`

	rows, err := s.pool.Query(ctx, query, userID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return collectRooms(rows, limit)
}

// ListActive returns every active room, newest-activity first. Used for the
// admin REST listing.
func (s *RoomStore) ListActive(ctx context.Context, limit int) ([]room.Room, error) {
	query := `
		SELECT` + roomColumns + `
		FROM chat_rooms r
		JOIN users u ON u.id = r.customer_id
		WHERE r.is_active
		ORDER BY r.last_activity DESC
		LIMIT $1`

	rows, err := s.pool.Query(ctx, query, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return collectRooms(rows, limit)
}

func collectRooms(rows pgx.Rows, limit int) ([]room.Room, error) {
	out := make([]room.Room, 0, limit)
	for rows.Next() {
		var r room.Room
		err := rows.Scan(
			&r.ID, &r.ChatType, &r.ProductID, &r.CustomerID, &r.CustomerName,
			&r.AssignedStaffID, &r.IsActive, &r.IsResolved, &r.CreatedAt, &r.LastActivityAt,
		)
		if err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// TouchActivity advances the room's last activity stamp.
func (s *RoomStore) TouchActivity(ctx context.Context, roomID int64, at time.Time) error {
	_, err := s.pool.Exec(ctx,
		`UPDATE chat_rooms SET last_activity = $2 WHERE id = $1`, roomID, at)
	return err
}
