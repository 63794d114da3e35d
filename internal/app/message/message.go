/*
Package message contains the message model and the ledger that appends
messages to rooms with server-tracked read state.

Read state is asymmetric on purpose: customer-sent messages start unread so
staff dashboards can badge them; staff-sent messages start read because staff
do not need to be notified of their own replies.
*/
package message

import (
	"errors"
	"time"
)

// ErrNotFound indicates the requested message does not exist.
var ErrNotFound = errors.New("message not found")

// Message is one ordered entry in a room's conversation.
// Timestamp is server-assigned and monotonic per room insertion order.
type Message struct {
	ID            int64      `json:"id"`
	RoomID        int64      `json:"room_id"`
	SenderID      int64      `json:"sender_id"`
	SenderName    string     `json:"sender_name"`
	Content       string     `json:"content"`
	Timestamp     time.Time  `json:"timestamp"`
	IsRead        bool       `json:"is_read"`
	ReadTimestamp *time.Time `json:"read_timestamp,omitempty"`
	IsAdmin       bool       `json:"is_admin"`
}
