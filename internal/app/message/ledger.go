package message

import (
	"context"
	"strings"
	"time"

	"github.com/microcosm-cc/bluemonday"
	"github.com/rs/zerolog"

	"github.com/NahidNoorshat/ecommerce-backend/internal/app/identity"
	"github.com/NahidNoorshat/ecommerce-backend/internal/app/room"
	"github.com/NahidNoorshat/ecommerce-backend/internal/pkg/errs"
	"github.com/NahidNoorshat/ecommerce-backend/internal/pkg/logx"
)

// MaxContentBytes is the maximum allowed size for message content.
const MaxContentBytes = 5000

// Store is the persistence contract the ledger depends on.
type Store interface {
	// Insert persists the message and returns it with its server-assigned id
	// and timestamp.
	Insert(ctx context.Context, m *Message) (*Message, error)

	// ListRecent returns up to limit messages of a room in timestamp order.
	ListRecent(ctx context.Context, roomID int64, limit int) ([]Message, error)

	// MarkRead flips is_read for the given unread messages of the room that
	// were not sent by excludeSenderID, returning how many rows changed.
	MarkRead(ctx context.Context, roomID int64, ids []int64, excludeSenderID int64, at time.Time) (int64, error)

	// MarkAllFromSender flips is_read for every unread message of the room
	// sent by senderID, returning how many rows changed.
	MarkAllFromSender(ctx context.Context, roomID, senderID int64, at time.Time) (int64, error)

	// CountUnreadFromSender counts the room's unread messages sent by senderID.
	CountUnreadFromSender(ctx context.Context, roomID, senderID int64) (int, error)
}

// RoomToucher records room activity. Satisfied by the room store.
type RoomToucher interface {
	TouchActivity(ctx context.Context, roomID int64, at time.Time) error
}

// Ledger appends messages to rooms and exposes read-marking operations.
type Ledger struct {
	store     Store
	rooms     RoomToucher
	sanitizer *bluemonday.Policy
	now       func() time.Time
	logger    zerolog.Logger
}

// NewLedger constructs a Ledger.
func NewLedger(store Store, rooms RoomToucher) *Ledger {
	return &Ledger{
		store:     store,
		rooms:     rooms,
		sanitizer: bluemonday.StrictPolicy(),
		now:       time.Now,
		logger:    logx.Logger().With().Str("component", "MessageLedger").Logger(),
	}
}

// Append validates, persists, and returns a new message in the room.
//
// Content is trimmed and sanitized before persisting; empty or oversized
// content is rejected. The sender must be a room participant or hold staff or
// admin privileges. The initial read state follows the sender: customer-sent
// messages start unread, staff-sent messages start read. The room's last
// activity is advanced to the message timestamp.
func (l *Ledger) Append(ctx context.Context, r *room.Room, sender identity.Principal, content string) (*Message, *errs.CustomError) {
	content = strings.TrimSpace(content)
	if content == "" {
		return nil, errs.NewError(errs.ErrEmptyContent)
	}
	if len(content) > MaxContentBytes {
		return nil, errs.NewError(errs.ErrMessageTooLong)
	}
	content = l.sanitizer.Sanitize(content)

	if !r.IsParticipant(sender.UserID) && !sender.Privileged() {
		l.logger.Warn().
			Int64("room_id", r.ID).
			Int64("sender_id", sender.UserID).
			Msg("Sender is not a room participant.")
		return nil, errs.NewError(errs.ErrNotParticipant)
	}

	msg := &Message{
		RoomID:     r.ID,
		SenderID:   sender.UserID,
		SenderName: sender.Username,
		Content:    content,
		IsAdmin:    sender.Privileged(),
	}

	if sender.UserID != r.CustomerID {
		now := l.now()
		msg.IsRead = true
		msg.ReadTimestamp = &now
	}

	saved, err := l.store.Insert(ctx, msg)
	if err != nil {
		l.logger.Error().Err(err).Int64("room_id", r.ID).Msg("Message insert failed.")
		return nil, errs.NewError(errs.ErrUnknown)
	}

	if err := l.rooms.TouchActivity(ctx, r.ID, saved.Timestamp); err != nil {
		// The message is committed; a stale activity stamp is recoverable.
		l.logger.Error().Err(err).Int64("room_id", r.ID).Msg("Room activity update failed.")
	}
	r.LastActivityAt = saved.Timestamp

	return saved, nil
}

// MarkRead flips is_read for the given messages in the room, skipping
// messages sent by actingUser: a user never reads their own message.
// An empty id list is a no-op returning 0.
func (l *Ledger) MarkRead(ctx context.Context, r *room.Room, ids []int64, actingUser identity.Principal) (int64, *errs.CustomError) {
	if len(ids) == 0 {
		return 0, nil
	}

	count, err := l.store.MarkRead(ctx, r.ID, ids, actingUser.UserID, l.now())
	if err != nil {
		l.logger.Error().Err(err).Int64("room_id", r.ID).Msg("Mark read failed.")
		return 0, errs.NewError(errs.ErrUnknown)
	}
	return count, nil
}

// MarkCustomerMessagesRead flips is_read for every unread customer-sent
// message of the room. Used when an admin joins a room from the dashboard.
func (l *Ledger) MarkCustomerMessagesRead(ctx context.Context, r *room.Room) (int64, *errs.CustomError) {
	count, err := l.store.MarkAllFromSender(ctx, r.ID, r.CustomerID, l.now())
	if err != nil {
		l.logger.Error().Err(err).Int64("room_id", r.ID).Msg("Mark customer messages read failed.")
		return 0, errs.NewError(errs.ErrUnknown)
	}
	return count, nil
}

// UnreadFromCustomer counts unread messages sent by the room's customer.
// This is the staff-view dashboard badge; staff-sent messages are never
// counted in any unread badge.
func (l *Ledger) UnreadFromCustomer(ctx context.Context, r *room.Room) (int, *errs.CustomError) {
	count, err := l.store.CountUnreadFromSender(ctx, r.ID, r.CustomerID)
	if err != nil {
		l.logger.Error().Err(err).Int64("room_id", r.ID).Msg("Unread count failed.")
		return 0, errs.NewError(errs.ErrUnknown)
	}
	return count, nil
}

// History returns up to limit messages of the room in timestamp order.
func (l *Ledger) History(ctx context.Context, r *room.Room, limit int) ([]Message, *errs.CustomError) {
	messages, err := l.store.ListRecent(ctx, r.ID, limit)
	if err != nil {
		l.logger.Error().Err(err).Int64("room_id", r.ID).Msg("History listing failed.")
		return nil, errs.NewError(errs.ErrUnknown)
	}
	return messages, nil
}
