/*
Package chat contains the live connection layer.

This file defines the frame protocol: one JSON-encoded event per frame,
discriminated by a "type" field, matching what the web and dashboard clients
speak.
*/
package chat

import (
	"time"

	"github.com/NahidNoorshat/ecommerce-backend/internal/app/message"
	"github.com/NahidNoorshat/ecommerce-backend/internal/app/room"
)

// Inbound frame types.
const (
	TypePing           = "ping"
	TypeChatMessage    = "chat.message"
	TypeChatMessageAlt = "chat_message"
	TypeMarkRead       = "mark_read"
	TypeJoinChat       = "join_chat"
	TypeLeaveChat      = "leave_chat"
)

// Outbound frame types.
const (
	TypePong                  = "pong"
	TypeError                 = "error"
	TypeConnectionEstablished = "connection_established"
	TypeMessageHistory        = "message_history"
	TypeChatUnreadUpdate      = "chat_unread_update"
	TypeAdminNotification     = "admin_notification"
	TypeActiveChats           = "active_chats"
	TypeChatRoomJoined        = "chat_room_joined"
	TypeChatRoomLeft          = "chat_room_left"
	TypeNotification          = "notification"
)

// InboundFrame is the union of all client-to-server frames.
type InboundFrame struct {
	Type       string  `json:"type"`
	Content    string  `json:"content,omitempty"`
	MessageIDs []int64 `json:"message_ids,omitempty"`
	RoomID     int64   `json:"room_id,omitempty"`
}

// ErrorEvent carries a rejection reason to the client.
type ErrorEvent struct {
	Type    string `json:"type"`
	Message string `json:"message"`
}

// PongEvent answers a ping frame.
type PongEvent struct {
	Type string `json:"type"`
}

// ConnectionEstablishedEvent confirms a successful handshake.
type ConnectionEstablishedEvent struct {
	Type    string `json:"type"`
	Message string `json:"message"`
	RoomID  int64  `json:"room_id,omitempty"`
	UserID  int64  `json:"user_id"`
	IsAdmin bool   `json:"is_admin"`
}

// MessageHistoryEvent carries the initial snapshot of a room's messages.
type MessageHistoryEvent struct {
	Type     string            `json:"type"`
	Messages []message.Message `json:"messages"`
}

// ChatMessageEvent carries one committed message to room group members.
type ChatMessageEvent struct {
	Type    string           `json:"type"`
	Message *message.Message `json:"message"`
}

// UnreadUpdate is the payload of a chat_unread_update event.
type UnreadUpdate struct {
	RoomID      int64            `json:"room_id"`
	UnreadCount int              `json:"unread_count"`
	LastMessage *message.Message `json:"last_message,omitempty"`
}

// ChatUnreadUpdateEvent pushes a room's staff-view unread badge to dashboards.
type ChatUnreadUpdateEvent struct {
	Type    string       `json:"type"`
	Message UnreadUpdate `json:"message"`
}

// AdminActivity is the payload of an admin_notification event.
type AdminActivity struct {
	Event     string    `json:"event"`
	RoomID    int64     `json:"room_id"`
	AdminID   int64     `json:"admin_id"`
	AdminName string    `json:"admin_name"`
	Content   string    `json:"content,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

// AdminNotificationEvent informs other dashboards of admin presence/actions.
type AdminNotificationEvent struct {
	Type    string        `json:"type"`
	Message AdminActivity `json:"message"`
}

// ActiveChatsEvent carries the dashboard's initial room listing.
type ActiveChatsEvent struct {
	Type  string         `json:"type"`
	Chats []room.Summary `json:"chats"`
}

// ChatRoomJoinedEvent confirms a dashboard's dynamic room join.
type ChatRoomJoinedEvent struct {
	Type     string            `json:"type"`
	Room     *room.Room        `json:"room"`
	Messages []message.Message `json:"messages"`
}

// ChatRoomLeftEvent confirms a dashboard's room leave.
type ChatRoomLeftEvent struct {
	Type   string `json:"type"`
	RoomID int64  `json:"room_id"`
}
