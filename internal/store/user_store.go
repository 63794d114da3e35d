package store

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/NahidNoorshat/ecommerce-backend/internal/app/identity"
	"github.com/NahidNoorshat/ecommerce-backend/internal/app/room"
)

// UserStore answers user and product lookups for room assignment and
// admin-wide notifications. It implements room.StaffFinder,
// room.ProductChecker, and notify.StaffLister.
type UserStore struct {
	pool *pgxpool.Pool
}

func NewUserStore(pool *pgxpool.Pool) *UserStore {
	return &UserStore{pool: pool}
}

// FirstAvailableStaff returns the lowest-id active staff or admin user other
// than excludeID. Assignment is deterministic first match.
func (s *UserStore) FirstAvailableStaff(ctx context.Context, excludeID int64) (int64, error) {
	var id int64
	err := s.pool.QueryRow(ctx, `
		SELECT id
		FROM users
		WHERE (is_staff OR role = $1)
		  AND is_active
		  AND id <> $2
		ORDER BY id
		LIMIT 1`,
		identity.RoleAdmin, excludeID).Scan(&id)
	if errors.Is(err, pgx.ErrNoRows) {
		return 0, room.ErrNotFound
	}
	return id, err
}

// ActiveAdmins returns the ids of every active admin user.
func (s *UserStore) ActiveAdmins(ctx context.Context) ([]int64, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT id
		FROM users
		WHERE role = $1 AND is_active
		ORDER BY id`,
		identity.RoleAdmin)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// ProductExists reports whether an active product with the id exists.
func (s *UserStore) ProductExists(ctx context.Context, productID int64) (bool, error) {
	var exists bool
	err := s.pool.QueryRow(ctx, `
		SELECT EXISTS (SELECT 1 FROM products WHERE id = $1 AND is_active)`,
		productID).Scan(&exists)
	return exists, err
}
