/*
Package room contains the chat room model and the directory that resolves the
unique active room for a (product, customer) pair.

A room is a persistent conversation context between one customer and one
assigned staff member, optionally scoped to a product. Group names for the
broadcast hub are a pure function of the room's domain identifiers, so any
session can compute them without a lookup.
*/
package room

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Chat types a room may carry.
const (
	TypeProduct = "product"
	TypeSupport = "support"
	TypeOrder   = "order"
)

// AdminGroup is the well-known broadcast group every admin dashboard joins.
// It is permanently valid: publishing to it with zero members is a no-op.
const AdminGroup = "admin_notifications"

// Sentinel errors returned by Store implementations.
var (
	// ErrNotFound indicates the requested room does not exist.
	ErrNotFound = errors.New("room not found")

	// ErrDuplicate indicates an active room for the same (product, customer)
	// pair already exists; the caller should re-read and use that row.
	ErrDuplicate = errors.New("active room already exists")
)

// Room is a persistent conversation context.
type Room struct {
	ID              int64      `json:"id"`
	ChatType        string     `json:"chat_type"`
	ProductID       *int64     `json:"product_id,omitempty"`
	CustomerID      int64      `json:"customer_id"`
	CustomerName    string     `json:"customer_name,omitempty"`
	AssignedStaffID *int64     `json:"assigned_to,omitempty"`
	IsActive        bool       `json:"is_active"`
	IsResolved      bool       `json:"is_resolved"`
	CreatedAt       time.Time  `json:"created_at"`
	LastActivityAt  time.Time  `json:"last_activity"`
}

// GroupName returns the room's broadcast group name, derived purely from its
// domain identifiers: chat_{type}_{productID|support}_user_{customerID}.
func (r *Room) GroupName() string {
	scope := "support"
	if r.ProductID != nil {
		scope = strconv.FormatInt(*r.ProductID, 10)
	}
	return fmt.Sprintf("chat_%s_%s_user_%d", r.ChatType, scope, r.CustomerID)
}

// IsParticipant reports whether the user is the room's customer or its
// assigned staff member.
func (r *Room) IsParticipant(userID int64) bool {
	if userID == r.CustomerID {
		return true
	}
	return r.AssignedStaffID != nil && *r.AssignedStaffID == userID
}

// UserGroup returns the personal notification group for a user.
func UserGroup(userID int64) string {
	return fmt.Sprintf("user_%d", userID)
}

// Key identifies a product room from a connection target.
type Key struct {
	ProductID  int64
	CustomerID int64
}

// ParseKey parses a connection target of the form product_{productID}_user_{customerID}.
func ParseKey(raw string) (Key, error) {
	parts := strings.Split(raw, "_")
	if len(parts) != 4 || parts[0] != "product" || parts[2] != "user" {
		return Key{}, fmt.Errorf("invalid room key %q", raw)
	}

	productID, err := strconv.ParseInt(parts[1], 10, 64)
	if err != nil {
		return Key{}, fmt.Errorf("invalid room key %q: %w", raw, err)
	}

	customerID, err := strconv.ParseInt(parts[3], 10, 64)
	if err != nil {
		return Key{}, fmt.Errorf("invalid room key %q: %w", raw, err)
	}

	return Key{ProductID: productID, CustomerID: customerID}, nil
}

// String formats the key back into its connection-target form.
func (k Key) String() string {
	return fmt.Sprintf("product_%d_user_%d", k.ProductID, k.CustomerID)
}
