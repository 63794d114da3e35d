package room

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/NahidNoorshat/ecommerce-backend/internal/app/identity"
	"github.com/NahidNoorshat/ecommerce-backend/internal/pkg/errs"
	"github.com/NahidNoorshat/ecommerce-backend/internal/pkg/logx"
)

// Summary is a room annotated with the staff-view unread count, used for
// admin dashboards.
type Summary struct {
	Room        Room `json:"room"`
	UnreadCount int  `json:"unread_count"`
}

// Store is the persistence contract the directory depends on.
type Store interface {
	// ActiveProductRoom returns the active room for the pair, or ErrNotFound.
	ActiveProductRoom(ctx context.Context, productID, customerID int64) (*Room, error)

	// Create persists a new room. It returns ErrDuplicate when an active room
	// for the same (product, customer) pair was inserted concurrently; the
	// unique constraint at the persistence layer is what makes resolve-or-create
	// atomic without client-side locking.
	Create(ctx context.Context, r *Room) (*Room, error)

	// Get returns a room by id, or ErrNotFound.
	Get(ctx context.Context, id int64) (*Room, error)

	// ListActiveSummaries returns active rooms ordered by last activity,
	// newest first, each with its staff-view unread count.
	ListActiveSummaries(ctx context.Context, limit int) ([]Summary, error)

	// ListForUser returns active rooms where the user is the customer or the
	// assigned staff, newest activity first.
	ListForUser(ctx context.Context, userID int64, limit int) ([]Room, error)
}

// StaffFinder locates support staff for auto-assignment.
type StaffFinder interface {
	// FirstAvailableStaff returns the id of the first staff or admin user
	// whose id differs from excludeID, or identity-agnostic zero with
	// ErrNotFound when none exists. Deterministic first match; no load
	// balancing.
	FirstAvailableStaff(ctx context.Context, excludeID int64) (int64, error)
}

// ProductChecker verifies the product scoping a room exists. Product storage
// itself is an external collaborator.
type ProductChecker interface {
	ProductExists(ctx context.Context, productID int64) (bool, error)
}

// Directory resolves or creates the unique active room for a
// (product, customer) pair.
type Directory struct {
	store    Store
	staff    StaffFinder
	products ProductChecker
	logger   zerolog.Logger
}

// NewDirectory constructs a Directory.
func NewDirectory(store Store, staff StaffFinder, products ProductChecker) *Directory {
	return &Directory{
		store:    store,
		staff:    staff,
		products: products,
		logger:   logx.Logger().With().Str("component", "RoomDirectory").Logger(),
	}
}

// ResolveOrCreateProductRoom returns the active product room for
// (productID, counterpartUserID), creating it when absent.
//
// A non-privileged requester may only resolve their own room. When the
// requester is privileged, they become the assigned staff; otherwise the
// first available staff or admin is assigned, failing with NoStaffAvailable
// when none exists. Concurrent first-connects are serialized by the
// persistence unique constraint: a duplicate insert is answered by re-reading
// the now-existing row.
func (d *Directory) ResolveOrCreateProductRoom(ctx context.Context, productID int64, requester identity.Principal, counterpartUserID int64) (*Room, *errs.CustomError) {
	if requester.UserID != counterpartUserID && !requester.Privileged() {
		d.logger.Warn().
			Int64("requester_id", requester.UserID).
			Int64("counterpart_id", counterpartUserID).
			Msg("Requester not authorized for room.")
		return nil, errs.NewError(errs.ErrForbidden)
	}

	exists, err := d.products.ProductExists(ctx, productID)
	if err != nil {
		d.logger.Error().Err(err).Int64("product_id", productID).Msg("Product lookup failed.")
		return nil, errs.NewError(errs.ErrRoomSetupFailed)
	}
	if !exists {
		return nil, errs.NewError(errs.ErrProductNotFound)
	}

	existing, err := d.store.ActiveProductRoom(ctx, productID, counterpartUserID)
	if err == nil {
		return existing, nil
	}
	if err != ErrNotFound {
		d.logger.Error().Err(err).Msg("Active room lookup failed.")
		return nil, errs.NewError(errs.ErrRoomSetupFailed)
	}

	var staffID int64
	if requester.Privileged() {
		staffID = requester.UserID
	} else {
		staffID, err = d.staff.FirstAvailableStaff(ctx, requester.UserID)
		if err == ErrNotFound {
			d.logger.Error().Msg("No staff available for room assignment.")
			return nil, errs.NewError(errs.ErrNoStaffAvailable)
		}
		if err != nil {
			d.logger.Error().Err(err).Msg("Staff lookup failed.")
			return nil, errs.NewError(errs.ErrRoomSetupFailed)
		}
	}

	if staffID == counterpartUserID {
		// An active room may never have its customer assigned as staff.
		return nil, errs.NewError(errs.ErrRoomSetupFailed)
	}

	created, err := d.store.Create(ctx, &Room{
		ChatType:        TypeProduct,
		ProductID:       &productID,
		CustomerID:      counterpartUserID,
		AssignedStaffID: &staffID,
		IsActive:        true,
	})
	if err == ErrDuplicate {
		// Lost the race to a concurrent first-connect; the winner's row is
		// the room.
		winner, rereadErr := d.store.ActiveProductRoom(ctx, productID, counterpartUserID)
		if rereadErr != nil {
			d.logger.Error().Err(rereadErr).Msg("Re-read after duplicate insert failed.")
			return nil, errs.NewError(errs.ErrRoomSetupFailed)
		}
		return winner, nil
	}
	if err != nil {
		d.logger.Error().Err(err).Msg("Room creation failed.")
		return nil, errs.NewError(errs.ErrRoomSetupFailed)
	}

	d.logger.Info().
		Int64("room_id", created.ID).
		Int64("product_id", productID).
		Int64("customer_id", counterpartUserID).
		Int64("assigned_staff_id", staffID).
		Msg("New chat room created.")

	return created, nil
}

// Get returns a room by id, mapping store errors to coded failures.
func (d *Directory) Get(ctx context.Context, id int64) (*Room, *errs.CustomError) {
	r, err := d.store.Get(ctx, id)
	if err == ErrNotFound {
		return nil, errs.NewError(errs.ErrRoomNotFound)
	}
	if err != nil {
		d.logger.Error().Err(err).Int64("room_id", id).Msg("Room lookup failed.")
		return nil, errs.NewError(errs.ErrUnknown)
	}
	return r, nil
}

// RoomsForUser returns up to limit active rooms where the user participates,
// as customer or assigned staff.
func (d *Directory) RoomsForUser(ctx context.Context, userID int64, limit int) ([]Room, *errs.CustomError) {
	rooms, err := d.store.ListForUser(ctx, userID, limit)
	if err != nil {
		d.logger.Error().Err(err).Int64("user_id", userID).Msg("User room listing failed.")
		return nil, errs.NewError(errs.ErrUnknown)
	}
	return rooms, nil
}

// ActiveSummaries returns up to limit active rooms for the admin dashboard.
func (d *Directory) ActiveSummaries(ctx context.Context, limit int) ([]Summary, *errs.CustomError) {
	summaries, err := d.store.ListActiveSummaries(ctx, limit)
	if err != nil {
		d.logger.Error().Err(err).Msg("Active room listing failed.")
		return nil, errs.NewError(errs.ErrUnknown)
	}
	return summaries, nil
}
