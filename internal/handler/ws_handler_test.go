package handler_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/NahidNoorshat/ecommerce-backend/internal/app/chat"
	"github.com/NahidNoorshat/ecommerce-backend/internal/app/identity"
	"github.com/NahidNoorshat/ecommerce-backend/internal/app/message"
	"github.com/NahidNoorshat/ecommerce-backend/internal/app/notify"
	"github.com/NahidNoorshat/ecommerce-backend/internal/app/room"
	"github.com/NahidNoorshat/ecommerce-backend/internal/configs"
	"github.com/NahidNoorshat/ecommerce-backend/internal/handler"
	"github.com/NahidNoorshat/ecommerce-backend/internal/mocks"
)

type testEnv struct {
	server     *httptest.Server
	hub        *chat.Hub
	relay      *notify.Relay
	validator  *mocks.TokenValidatorMock
	roomStore  *mocks.RoomStoreMock
	msgStore   *mocks.MessageStoreMock
	notifStore *mocks.NotificationStoreMock
	finder     *mocks.StaffFinderMock
	products   *mocks.ProductCheckerMock
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	env := &testEnv{
		hub:        chat.NewHub(),
		validator:  new(mocks.TokenValidatorMock),
		roomStore:  new(mocks.RoomStoreMock),
		msgStore:   new(mocks.MessageStoreMock),
		notifStore: new(mocks.NotificationStoreMock),
		finder:     new(mocks.StaffFinderMock),
		products:   new(mocks.ProductCheckerMock),
	}

	env.relay = notify.NewRelay(env.notifStore, env.hub, new(mocks.StaffListerMock))

	deps := &handler.AppDeps{
		Config: &configs.AppConfig{
			Environment: "development",
			Port:        0,
		},
		Gate:      identity.NewGate(env.validator),
		Hub:       env.hub,
		Directory: room.NewDirectory(env.roomStore, env.finder, env.products),
		Ledger:    message.NewLedger(env.msgStore, env.roomStore),
		Relay:     env.relay,
	}

	env.server = httptest.NewServer(handler.Router(deps))
	t.Cleanup(env.server.Close)
	return env
}

func (env *testEnv) dial(t *testing.T, path string) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(env.server.URL, "http") + path
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	_ = conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	return conn
}

func readFrame(t *testing.T, conn *websocket.Conn) map[string]any {
	t.Helper()
	_, raw, err := conn.ReadMessage()
	require.NoError(t, err)
	var frame map[string]any
	require.NoError(t, json.Unmarshal(raw, &frame))
	return frame
}

func writeFrame(t *testing.T, conn *websocket.Conn, frame map[string]any) {
	t.Helper()
	require.NoError(t, conn.WriteJSON(frame))
}

func activeCustomerClaims(userID int64) *identity.Claims {
	return &identity.Claims{
		UserID: userID, Username: "alice", Role: identity.RoleCustomer, IsActive: true,
	}
}

func int64Ptr(v int64) *int64 { return &v }

func testRoom() *room.Room {
	return &room.Room{
		ID:              1,
		ChatType:        room.TypeProduct,
		ProductID:       int64Ptr(7),
		CustomerID:      2,
		AssignedStaffID: int64Ptr(5),
		IsActive:        true,
	}
}

func TestChatSocketRejectsMissingToken(t *testing.T) {
	env := newTestEnv(t)
	conn := env.dial(t, "/ws/chat/product_7_user_2")

	frame := readFrame(t, conn)
	assert.Equal(t, "error", frame["type"])
	assert.Equal(t, "Authentication token is required", frame["message"])

	_, _, err := conn.ReadMessage()
	assert.True(t, websocket.IsCloseError(err, 4001), "expected close 4001, got %v", err)
}

func TestChatSocketRejectsInvalidRoomKey(t *testing.T) {
	env := newTestEnv(t)
	env.validator.On("Validate", "tok").Return(activeCustomerClaims(2), nil).Once()

	conn := env.dial(t, "/ws/chat/bogus_key?token=tok")

	frame := readFrame(t, conn)
	assert.Equal(t, "error", frame["type"])
	assert.Equal(t, "Invalid room name format", frame["message"])

	_, _, err := conn.ReadMessage()
	assert.True(t, websocket.IsCloseError(err, 4003), "expected close 4003, got %v", err)
}

func TestChatSocketHandshakeAndMessageFlow(t *testing.T) {
	env := newTestEnv(t)
	now := time.Now().UTC()

	env.validator.On("Validate", "tok").Return(activeCustomerClaims(2), nil).Once()
	env.products.On("ProductExists", mock.Anything, int64(7)).Return(true, nil).Once()
	env.roomStore.On("ActiveProductRoom", mock.Anything, int64(7), int64(2)).Return(testRoom(), nil).Once()
	env.msgStore.On("ListRecent", mock.Anything, int64(1), chat.RoomHistoryLimit).
		Return([]message.Message{{ID: 1, RoomID: 1, Content: "earlier"}}, nil).Once()

	conn := env.dial(t, "/ws/chat/product_7_user_2?token=tok")

	established := readFrame(t, conn)
	assert.Equal(t, "connection_established", established["type"])
	assert.Equal(t, float64(1), established["room_id"])
	assert.Equal(t, float64(2), established["user_id"])
	assert.Equal(t, false, established["is_admin"])

	history := readFrame(t, conn)
	assert.Equal(t, "message_history", history["type"])
	require.Len(t, history["messages"], 1)

	// Customer sends a message: it is persisted, echoed to the room group,
	// and an unread update goes to the (empty) admin group.
	env.msgStore.On("Insert", mock.Anything, mock.MatchedBy(func(m *message.Message) bool {
		return m.RoomID == 1 && m.SenderID == 2 && m.Content == "hello" && !m.IsRead
	})).Return(&message.Message{ID: 2, RoomID: 1, SenderID: 2, Content: "hello", Timestamp: now}, nil).Once()
	env.roomStore.On("TouchActivity", mock.Anything, int64(1), now).Return(nil).Once()
	env.msgStore.On("CountUnreadFromSender", mock.Anything, int64(1), int64(2)).Return(3, nil).Once()

	writeFrame(t, conn, map[string]any{"type": "chat.message", "content": "hello"})

	echoed := readFrame(t, conn)
	assert.Equal(t, "chat.message", echoed["type"])
	payload, ok := echoed["message"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "hello", payload["content"])

	// Empty content produces an error frame but keeps the connection open.
	writeFrame(t, conn, map[string]any{"type": "chat.message", "content": "   "})
	errorFrame := readFrame(t, conn)
	assert.Equal(t, "error", errorFrame["type"])
	assert.Equal(t, "Message cannot be empty", errorFrame["message"])

	writeFrame(t, conn, map[string]any{"type": "ping"})
	pong := readFrame(t, conn)
	assert.Equal(t, "pong", pong["type"])

	env.msgStore.AssertExpectations(t)
	env.roomStore.AssertExpectations(t)
}

func TestChatSocketClosesOnMarkReadStorageFailure(t *testing.T) {
	env := newTestEnv(t)

	env.validator.On("Validate", "tok").Return(activeCustomerClaims(2), nil).Once()
	env.products.On("ProductExists", mock.Anything, int64(7)).Return(true, nil).Once()
	env.roomStore.On("ActiveProductRoom", mock.Anything, int64(7), int64(2)).Return(testRoom(), nil).Once()
	env.msgStore.On("ListRecent", mock.Anything, int64(1), chat.RoomHistoryLimit).
		Return([]message.Message{}, nil).Once()
	env.msgStore.On("MarkRead", mock.Anything, int64(1), []int64{9}, int64(2), mock.Anything).
		Return(int64(0), errors.New("connection reset")).Once()

	conn := env.dial(t, "/ws/chat/product_7_user_2?token=tok")
	readFrame(t, conn) // connection_established
	readFrame(t, conn) // message_history

	writeFrame(t, conn, map[string]any{"type": "mark_read", "message_ids": []int64{9}})

	// An internal fault mid-session closes the connection instead of leaving
	// it in an undefined state.
	errorFrame := readFrame(t, conn)
	assert.Equal(t, "error", errorFrame["type"])
	assert.Equal(t, "Something went wrong. Please try again.", errorFrame["message"])

	_, _, err := conn.ReadMessage()
	assert.True(t, websocket.IsCloseError(err, 4000), "expected close 4000, got %v", err)

	env.msgStore.AssertExpectations(t)
}

func TestChatSocketMalformedJSONKeepsConnection(t *testing.T) {
	env := newTestEnv(t)

	env.validator.On("Validate", "tok").Return(activeCustomerClaims(2), nil).Once()
	env.products.On("ProductExists", mock.Anything, int64(7)).Return(true, nil).Once()
	env.roomStore.On("ActiveProductRoom", mock.Anything, int64(7), int64(2)).Return(testRoom(), nil).Once()
	env.msgStore.On("ListRecent", mock.Anything, int64(1), chat.RoomHistoryLimit).
		Return([]message.Message{}, nil).Once()

	conn := env.dial(t, "/ws/chat/product_7_user_2?token=tok")
	readFrame(t, conn) // connection_established
	readFrame(t, conn) // message_history

	require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte("{not json")))
	errorFrame := readFrame(t, conn)
	assert.Equal(t, "error", errorFrame["type"])
	assert.Equal(t, "Invalid JSON format", errorFrame["message"])

	writeFrame(t, conn, map[string]any{"type": "ping"})
	pong := readFrame(t, conn)
	assert.Equal(t, "pong", pong["type"])
}

func TestAdminSocketRejectsNonStaff(t *testing.T) {
	env := newTestEnv(t)
	env.validator.On("Validate", "tok").Return(activeCustomerClaims(2), nil).Once()

	conn := env.dial(t, "/ws/admin/chat?token=tok")

	frame := readFrame(t, conn)
	assert.Equal(t, "error", frame["type"])
	assert.Equal(t, "You must be an administrator to access this page", frame["message"])

	_, _, err := conn.ReadMessage()
	assert.True(t, websocket.IsCloseError(err, 4001), "expected close 4001, got %v", err)
}

func TestAdminSocketReceivesActiveChats(t *testing.T) {
	env := newTestEnv(t)

	env.validator.On("Validate", "admin-tok").Return(&identity.Claims{
		UserID: 5, Username: "bob", Role: identity.RoleAdmin, IsStaff: true, IsActive: true,
	}, nil).Once()
	env.roomStore.On("ListActiveSummaries", mock.Anything, chat.ActiveChatsLimit).
		Return([]room.Summary{{Room: *testRoom(), UnreadCount: 3}}, nil).Once()

	conn := env.dial(t, "/ws/admin/chat?token=admin-tok")

	established := readFrame(t, conn)
	assert.Equal(t, "connection_established", established["type"])
	assert.Equal(t, true, established["is_admin"])

	activeChats := readFrame(t, conn)
	assert.Equal(t, "active_chats", activeChats["type"])
	require.Len(t, activeChats["chats"], 1)

	env.roomStore.AssertExpectations(t)
}

func TestAdminJoinChatMarksBacklogAndAnnounces(t *testing.T) {
	env := newTestEnv(t)

	env.validator.On("Validate", "admin-tok").Return(&identity.Claims{
		UserID: 5, Username: "bob", Role: identity.RoleAdmin, IsStaff: true, IsActive: true,
	}, nil).Once()
	env.roomStore.On("ListActiveSummaries", mock.Anything, chat.ActiveChatsLimit).
		Return([]room.Summary{}, nil).Once()

	conn := env.dial(t, "/ws/admin/chat?token=admin-tok")
	readFrame(t, conn) // connection_established
	readFrame(t, conn) // active_chats

	env.roomStore.On("Get", mock.Anything, int64(1)).Return(testRoom(), nil).Once()
	env.msgStore.On("MarkAllFromSender", mock.Anything, int64(1), int64(2), mock.Anything).
		Return(int64(3), nil).Once()
	env.msgStore.On("ListRecent", mock.Anything, int64(1), chat.AdminHistoryLimit).
		Return([]message.Message{{ID: 1, Content: "hi"}}, nil).Once()

	writeFrame(t, conn, map[string]any{"type": "join_chat", "room_id": 1})

	// The dashboard is in the admin group, so it receives its own badge
	// reset and presence announcement before the join confirmation.
	unread := readFrame(t, conn)
	assert.Equal(t, "chat_unread_update", unread["type"])
	unreadPayload := unread["message"].(map[string]any)
	assert.Equal(t, float64(0), unreadPayload["unread_count"])

	presence := readFrame(t, conn)
	assert.Equal(t, "admin_notification", presence["type"])
	presencePayload := presence["message"].(map[string]any)
	assert.Equal(t, "admin_joined", presencePayload["event"])
	assert.Equal(t, "bob", presencePayload["admin_name"])

	joined := readFrame(t, conn)
	assert.Equal(t, "chat_room_joined", joined["type"])
	require.Len(t, joined["messages"], 1)

	env.msgStore.AssertExpectations(t)
	env.roomStore.AssertExpectations(t)
}

func TestAdminLeaveChatUnknownRoomAnswersError(t *testing.T) {
	env := newTestEnv(t)

	env.validator.On("Validate", "admin-tok").Return(&identity.Claims{
		UserID: 5, Username: "bob", Role: identity.RoleAdmin, IsStaff: true, IsActive: true,
	}, nil).Once()
	env.roomStore.On("ListActiveSummaries", mock.Anything, chat.ActiveChatsLimit).
		Return([]room.Summary{}, nil).Once()
	env.roomStore.On("Get", mock.Anything, int64(404)).Return(nil, room.ErrNotFound).Once()

	conn := env.dial(t, "/ws/admin/chat?token=admin-tok")
	readFrame(t, conn) // connection_established
	readFrame(t, conn) // active_chats

	writeFrame(t, conn, map[string]any{"type": "leave_chat", "room_id": 404})

	// Leaving a room that does not exist is an error, not a confirmation.
	errorFrame := readFrame(t, conn)
	assert.Equal(t, "error", errorFrame["type"])
	assert.Equal(t, "Chat room not found", errorFrame["message"])

	// The dashboard stays connected.
	writeFrame(t, conn, map[string]any{"type": "ping"})
	pong := readFrame(t, conn)
	assert.Equal(t, "pong", pong["type"])

	env.roomStore.AssertExpectations(t)
}

func TestNotifySocketReceivesRelayPush(t *testing.T) {
	env := newTestEnv(t)

	env.validator.On("Validate", "tok").Return(activeCustomerClaims(2), nil).Once()
	env.notifStore.On("Insert", mock.Anything, mock.Anything).Run(func(args mock.Arguments) {
		args.Get(1).(*notify.Notification).ID = 1
	}).Return(nil).Once()

	conn := env.dial(t, "/ws/notifications?token=tok")

	established := readFrame(t, conn)
	assert.Equal(t, "connection_established", established["type"])

	_, err := env.relay.Notify(context.Background(), 2, "Order Placed", "Your order #A1 has been placed successfully.", notify.KindOrder, nil)
	require.NoError(t, err)

	pushed := readFrame(t, conn)
	assert.Equal(t, "notification", pushed["type"])
	payload, ok := pushed["message"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "Order Placed", payload["title"])
}
