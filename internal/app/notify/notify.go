/*
Package notify owns persistent user notifications and their real-time
delivery. A notification is always written to storage first; the WebSocket
push to the user's personal group is best effort on top.
*/
package notify

import (
	"errors"
	"time"
)

// ErrNotFound indicates the notification does not exist.
var ErrNotFound = errors.New("notification not found")

// Kinds carried by Notification.Kind.
const (
	KindGeneral = "general"
	KindOrder   = "order"
	KindCancel  = "cancel"
	KindReview  = "review"
)

// Notification is one persistent per-user notification.
type Notification struct {
	ID        int64          `json:"id"`
	UserID    int64          `json:"user_id"`
	Title     string         `json:"title"`
	Message   string         `json:"message"`
	Kind      string         `json:"notification_type"`
	IsRead    bool           `json:"is_read"`
	CreatedAt time.Time      `json:"created_at"`
	Data      map[string]any `json:"data,omitempty"`
}
