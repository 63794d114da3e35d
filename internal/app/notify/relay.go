package notify

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/NahidNoorshat/ecommerce-backend/internal/app/room"
	"github.com/NahidNoorshat/ecommerce-backend/internal/observability"
	"github.com/NahidNoorshat/ecommerce-backend/internal/pkg/logx"
)

// Store persists notifications.
type Store interface {
	Insert(ctx context.Context, n *Notification) error
	ListForUser(ctx context.Context, userID int64, limit int) ([]Notification, error)
	MarkRead(ctx context.Context, userID, id int64) error
}

// Publisher pushes an event to every live connection in a group. Satisfied by
// the chat hub.
type Publisher interface {
	Publish(groupName string, event any) int
}

// StaffLister resolves the recipients of admin-wide notifications.
type StaffLister interface {
	ActiveAdmins(ctx context.Context) ([]int64, error)
}

// pushEvent is the frame delivered on the user's personal socket.
type pushEvent struct {
	Type    string        `json:"type"`
	Message *Notification `json:"message"`
}

// Relay creates notifications and pushes them to connected clients.
type Relay struct {
	store  Store
	pub    Publisher
	staff  StaffLister
	now    func() time.Time
	logger zerolog.Logger
}

func NewRelay(store Store, pub Publisher, staff StaffLister) *Relay {
	return &Relay{
		store:  store,
		pub:    pub,
		staff:  staff,
		now:    time.Now,
		logger: logx.Logger().With().Str("component", "notify").Logger(),
	}
}

// Notify persists a notification and pushes it to the user's personal group.
// Persistence failures are returned; delivery failures are not, since the
// client will pull the stored notification on its next fetch.
func (r *Relay) Notify(ctx context.Context, userID int64, title, msg, kind string, data map[string]any) (*Notification, error) {
	n := &Notification{
		UserID:    userID,
		Title:     title,
		Message:   msg,
		Kind:      kind,
		CreatedAt: r.now().UTC(),
		Data:      data,
	}

	if err := r.store.Insert(ctx, n); err != nil {
		r.logger.Error().Err(err).Int64("user_id", userID).Str("title", title).Msg("Failed to persist notification.")
		return nil, err
	}

	observability.IncNotification(n.Kind)

	delivered := r.pub.Publish(room.UserGroup(userID), pushEvent{Type: "notification", Message: n})
	r.logger.Info().
		Int64("notification_id", n.ID).
		Int64("user_id", userID).
		Int("delivered", delivered).
		Msg("Notification created.")

	return n, nil
}

// ListForUser returns the user's most recent notifications.
func (r *Relay) ListForUser(ctx context.Context, userID int64, limit int) ([]Notification, error) {
	return r.store.ListForUser(ctx, userID, limit)
}

// MarkRead marks one of the user's notifications read.
func (r *Relay) MarkRead(ctx context.Context, userID, id int64) error {
	return r.store.MarkRead(ctx, userID, id)
}

// ProductRef identifies a product inside a domain event.
type ProductRef struct {
	Name string `json:"name"`
	Slug string `json:"slug"`
}

// DomainEvent is the message bus envelope for order lifecycle events.
type DomainEvent struct {
	Type          string       `json:"type"`
	OrderID       string       `json:"order_id"`
	CustomerID    int64        `json:"customer_id"`
	CustomerEmail string       `json:"customer_email"`
	Products      []ProductRef `json:"products,omitempty"`
}

// Domain event types consumed from the bus.
const (
	EventOrderCreated   = "order_created"
	EventOrderDelivered = "order_delivered"
	EventOrderCancelled = "order_cancelled"
	EventReviewReminder = "review_reminder"
)

// Handle fans one domain event out into notifications. Per-recipient failures
// are logged and do not abort the remaining recipients.
func (r *Relay) Handle(ctx context.Context, ev DomainEvent) error {
	switch ev.Type {
	case EventOrderCreated:
		_, err := r.Notify(ctx, ev.CustomerID,
			"Order Placed",
			fmt.Sprintf("Your order #%s has been placed successfully.", ev.OrderID),
			KindOrder, nil)
		if err != nil {
			return err
		}

		admins, err := r.staff.ActiveAdmins(ctx)
		if err != nil {
			r.logger.Error().Err(err).Str("order_id", ev.OrderID).Msg("Failed to list admins for order notification.")
			return err
		}
		for _, adminID := range admins {
			if _, err := r.Notify(ctx, adminID,
				"New Order Received",
				fmt.Sprintf("Order #%s placed by %s.", ev.OrderID, ev.CustomerEmail),
				KindOrder, nil); err != nil {
				r.logger.Error().Err(err).Int64("admin_id", adminID).Msg("Failed to notify admin.")
			}
		}
		return nil

	case EventOrderDelivered:
		_, err := r.Notify(ctx, ev.CustomerID,
			"Order Delivered",
			fmt.Sprintf("Your order #%s has been delivered. Thank you!", ev.OrderID),
			KindOrder, nil)
		return err

	case EventOrderCancelled:
		_, err := r.Notify(ctx, ev.CustomerID,
			"Order Cancelled",
			fmt.Sprintf("Your order #%s has been cancelled.", ev.OrderID),
			KindCancel, nil)
		return err

	case EventReviewReminder:
		for _, p := range ev.Products {
			if _, err := r.Notify(ctx, ev.CustomerID,
				fmt.Sprintf("Review your product: %s", p.Name),
				fmt.Sprintf("You received %s. Share your feedback!", p.Name),
				KindReview, map[string]any{"product_slug": p.Slug}); err != nil {
				r.logger.Error().Err(err).Str("product_slug", p.Slug).Msg("Failed to create review reminder.")
			}
		}
		return nil

	default:
		r.logger.Warn().Str("event_type", ev.Type).Msg("Unknown domain event ignored.")
		return nil
	}
}
