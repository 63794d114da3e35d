/*
Package chat contains the live connection layer.

This file defines the per-connection session machinery: the shared connection
wrapper with its single-writer send pump, and the Session type for customer
and staff room connections. A session moves through connect (authenticate,
resolve room, join group), an inbound receive loop, and a guaranteed cleanup
path that drops the connection from every group exactly once.
*/
package chat

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"github.com/NahidNoorshat/ecommerce-backend/internal/app/identity"
	"github.com/NahidNoorshat/ecommerce-backend/internal/app/message"
	"github.com/NahidNoorshat/ecommerce-backend/internal/app/room"
	"github.com/NahidNoorshat/ecommerce-backend/internal/observability"
	"github.com/NahidNoorshat/ecommerce-backend/internal/pkg/errs"
	"github.com/NahidNoorshat/ecommerce-backend/internal/pkg/logx"
)

const (
	// timeout duration for writing to the WebSocket connection.
	writeWait = 10 * time.Second

	// maximum time allowed to wait for a Pong control message from the client.
	pongWait = 60 * time.Second

	// frequency at which the server sends a Ping control message.
	pingPeriod = (pongWait * 9) / 10

	// maximum allowed size (in bytes) of an inbound frame.
	maxMessageSize = 8192

	// capacity of each connection's outbound queue. A connection whose queue
	// stays full is treated as unresponsive and dropped.
	sendQueueSize = 256

	// RoomHistoryLimit bounds the initial snapshot sent to room sessions.
	RoomHistoryLimit = 50

	// AdminHistoryLimit bounds the snapshot sent on a dashboard join_chat.
	AdminHistoryLimit = 100

	// ActiveChatsLimit bounds the dashboard's initial room listing.
	ActiveChatsLimit = 50
)

// outbound is one unit of work for the write pump. A non-zero closeCode makes
// the pump emit a close frame after the payload and terminate.
type outbound struct {
	payload   []byte
	closeCode int
	closeText string
}

// wsConn wraps one physical socket with a single-writer outbound queue.
// Only the write pump touches the transport for data frames, so cross-task
// delivery can never interleave frames.
type wsConn struct {
	id   string
	sock *websocket.Conn
	hub  *Hub
	send chan outbound

	// terminal is set once a close frame has been queued. Only the owning
	// read loop touches it; the loop stops dispatching frames and waits for
	// the write pump to shut the transport down.
	terminal bool

	logger zerolog.Logger
}

func newWSConn(sock *websocket.Conn, hub *Hub, logger zerolog.Logger) *wsConn {
	id := uuid.NewString()
	return &wsConn{
		id:     id,
		sock:   sock,
		hub:    hub,
		send:   make(chan outbound, sendQueueSize),
		logger: logger.With().Str("connection_id", id).Logger(),
	}
}

// SendFunc returns the non-blocking send capability registered with the hub.
func (c *wsConn) SendFunc() SendFunc {
	return func(event []byte) bool {
		select {
		case c.send <- outbound{payload: event}:
			return true
		default:
			return false
		}
	}
}

// queueJSON marshals v and queues it for the write pump.
func (c *wsConn) queueJSON(v any) bool {
	payload, err := json.Marshal(v)
	if err != nil {
		c.logger.Error().Err(err).Msg("Error marshaling event for client.")
		return false
	}

	select {
	case c.send <- outbound{payload: payload}:
		return true
	default:
		c.logger.Warn().Int("queue_len", len(c.send)).Msg("Connection send queue full, dropping event.")
		return false
	}
}

// sendError queues one error frame without closing the connection.
func (c *wsConn) sendError(customErr *errs.CustomError) {
	c.queueJSON(ErrorEvent{Type: TypeError, Message: customErr.Message})
}

// failOrReport answers a handler error: a frame-level error produces one
// error frame and leaves the session running, a connection-fatal one queues
// a close.
func (c *wsConn) failOrReport(customErr *errs.CustomError) {
	if customErr.Fatal() {
		c.fatal(customErr)
		return
	}
	c.sendError(customErr)
}

// fatal queues one diagnostic error frame followed by a close frame with the
// error's close code, then lets the write pump terminate the connection.
func (c *wsConn) fatal(customErr *errs.CustomError) {
	c.terminal = true

	code := customErr.CloseCode
	if code == 0 {
		code = errs.CloseInternalError
	}

	payload, err := json.Marshal(ErrorEvent{Type: TypeError, Message: customErr.Message})
	if err != nil {
		payload = nil
	}

	select {
	case c.send <- outbound{payload: payload, closeCode: code, closeText: customErr.Message}:
	default:
		// Queue full; the close frame matters more than the diagnostic.
		c.logger.Warn().Int("close_code", code).Msg("Send queue full during fatal close.")
		_ = c.sock.Close()
	}
}

// reject writes one diagnostic frame plus a close frame directly on the
// socket and closes it. Used during the handshake, before the write pump
// starts.
func (c *wsConn) reject(customErr *errs.CustomError) {
	code := customErr.CloseCode
	if code == 0 {
		code = errs.CloseInternalError
	}

	c.logger.Warn().
		Int("close_code", code).
		Int("error_code", customErr.Code).
		Str("reason", customErr.Message).
		Msg("Rejecting connection.")

	_ = c.sock.SetWriteDeadline(time.Now().Add(writeWait))

	if payload, err := json.Marshal(ErrorEvent{Type: TypeError, Message: customErr.Message}); err == nil {
		_ = c.sock.WriteMessage(websocket.TextMessage, payload)
	}

	_ = c.sock.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(code, customErr.Message))
	_ = c.sock.Close()
}

// writePump is the connection's single writer: it drains the outbound queue,
// emits periodic pings, and closes the transport on exit.
func (c *wsConn) writePump() {
	ticker := time.NewTicker(pingPeriod)

	defer func() {
		ticker.Stop()
		_ = c.sock.Close()
	}()

	for {
		select {
		case out := <-c.send:
			if err := c.sock.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
				c.logger.Error().Err(err).Msg("Failed to set write deadline.")
				return
			}

			if out.payload != nil {
				if err := c.sock.WriteMessage(websocket.TextMessage, out.payload); err != nil {
					c.logger.Error().Err(err).Msg("Error writing message.")
					return
				}
			}

			if out.closeCode != 0 {
				closeMsg := websocket.FormatCloseMessage(out.closeCode, out.closeText)
				if err := c.sock.WriteMessage(websocket.CloseMessage, closeMsg); err != nil {
					c.logger.Warn().Err(err).Int("close_code", out.closeCode).Msg("Error writing close frame.")
				}
				return
			}

		case <-ticker.C:
			if err := c.sock.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
				c.logger.Error().Err(err).Msg("Failed to set write deadline on ping.")
				return
			}
			if err := c.sock.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// prepareRead arms the read limit, deadline, and pong handler.
func (c *wsConn) prepareRead() error {
	c.sock.SetReadLimit(maxMessageSize)

	if err := c.sock.SetReadDeadline(time.Now().Add(pongWait)); err != nil {
		return err
	}

	c.sock.SetPongHandler(func(string) error {
		return c.sock.SetReadDeadline(time.Now().Add(pongWait))
	})

	return nil
}

// Session is one customer or staff connection bound to a single room.
type Session struct {
	*wsConn

	principal identity.Principal
	room      *room.Room
	directory *room.Directory
	ledger    *message.Ledger
}

// NewSession wraps an upgraded socket into a room session. The session owns
// the socket from here on.
func NewSession(sock *websocket.Conn, hub *Hub, directory *room.Directory, ledger *message.Ledger) *Session {
	logger := logx.Logger().With().Str("session", "room").Logger()

	return &Session{
		wsConn:    newWSConn(sock, hub, logger),
		directory: directory,
		ledger:    ledger,
	}
}

// Run performs the connect handshake and, on success, serves the session
// until the transport disconnects. The hub drop runs unconditionally on exit,
// even when the session never finished its handshake.
func (s *Session) Run(ctx context.Context, gate *identity.Gate, token, rawRoomKey string) {
	observability.IncWSActive("room")
	defer observability.DecWSActive("room")

	defer s.hub.Drop(s.id)

	// Closing the transport on exit makes the write pump stop immediately
	// instead of lingering until its next ping.
	defer func() { _ = s.sock.Close() }()

	if customErr := s.handshake(ctx, gate, token, rawRoomKey); customErr != nil {
		observability.IncWSEvent("room", "rejected")
		s.reject(customErr)
		return
	}

	go s.writePump()

	s.queueJSON(ConnectionEstablishedEvent{
		Type:    TypeConnectionEstablished,
		Message: "Chat connection successful",
		RoomID:  s.room.ID,
		UserID:  s.principal.UserID,
		IsAdmin: s.principal.IsStaff,
	})

	s.sendHistory(ctx)

	s.readLoop(ctx)
}

// handshake authenticates, resolves the room, and joins its broadcast group.
func (s *Session) handshake(ctx context.Context, gate *identity.Gate, token, rawRoomKey string) *errs.CustomError {
	principal, customErr := gate.Authenticate(token)
	if customErr != nil {
		return customErr
	}
	s.principal = principal
	s.logger = s.logger.With().
		Int64("user_id", principal.UserID).
		Str("username", principal.Username).
		Logger()

	key, err := room.ParseKey(rawRoomKey)
	if err != nil {
		s.logger.Warn().Str("room_key", rawRoomKey).Msg("Invalid room key format.")
		return errs.NewError(errs.ErrInvalidRoomKey)
	}

	resolved, customErr := s.directory.ResolveOrCreateProductRoom(ctx, key.ProductID, principal, key.CustomerID)
	if customErr != nil {
		return customErr
	}
	s.room = resolved

	s.hub.Join(resolved.GroupName(), s.id, s.SendFunc())
	s.hub.Join(room.UserGroup(principal.UserID), s.id, s.SendFunc())

	s.logger.Info().
		Int64("room_id", resolved.ID).
		Str("group", resolved.GroupName()).
		Msg("Session joined room group.")

	return nil
}

func (s *Session) sendHistory(ctx context.Context) {
	history, customErr := s.ledger.History(ctx, s.room, RoomHistoryLimit)
	if customErr != nil {
		s.failOrReport(customErr)
		return
	}
	if history == nil {
		history = []message.Message{}
	}
	s.queueJSON(MessageHistoryEvent{Type: TypeMessageHistory, Messages: history})
}

// readLoop is the session's only blocking point: it awaits inbound frames and
// dispatches them until the transport disconnects.
func (s *Session) readLoop(ctx context.Context) {
	if err := s.prepareRead(); err != nil {
		s.logger.Error().Err(err).Msg("Failed to arm read deadline.")
		return
	}

	for {
		_, raw, err := s.sock.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				s.logger.Info().Err(err).Msg("Connection closed unexpectedly.")
			}
			return
		}

		if s.terminal {
			// A close frame is already queued; ignore anything else the
			// client sends while the write pump tears the transport down.
			continue
		}

		s.handleFrame(ctx, raw)
	}
}

// handleFrame dispatches one inbound frame.
func (s *Session) handleFrame(ctx context.Context, raw []byte) {
	var frame InboundFrame
	if err := json.Unmarshal(raw, &frame); err != nil {
		// Malformed JSON earns one error frame; the session continues.
		s.sendError(errs.NewError(errs.ErrInvalidJSONFormat))
		return
	}

	switch frame.Type {
	case TypePing:
		s.queueJSON(PongEvent{Type: TypePong})

	case TypeChatMessage, TypeChatMessageAlt:
		observability.IncWSEvent("room", "chat_message")
		s.handleChatMessage(ctx, frame.Content)

	case TypeMarkRead:
		observability.IncWSEvent("room", "mark_read")
		if _, customErr := s.ledger.MarkRead(ctx, s.room, frame.MessageIDs, s.principal); customErr != nil {
			s.failOrReport(customErr)
		}

	default:
		s.logger.Warn().Str("frame_type", frame.Type).Msg("Unsupported frame type ignored.")
	}
}

// handleChatMessage validates and persists the message, then fans it out:
// first to the room group, and, for customer-sent messages, an unread badge
// update to the admin dashboards.
func (s *Session) handleChatMessage(ctx context.Context, content string) {
	msg, customErr := s.ledger.Append(ctx, s.room, s.principal, content)
	if customErr != nil {
		// Validation errors keep the session alive; a participation or
		// internal fault closes it.
		s.failOrReport(customErr)
		return
	}

	// Publish only after the persistence write returned, preserving per-room
	// commit order for every group member.
	s.hub.Publish(s.room.GroupName(), ChatMessageEvent{Type: TypeChatMessage, Message: msg})

	if s.principal.UserID == s.room.CustomerID {
		unread, customErr := s.ledger.UnreadFromCustomer(ctx, s.room)
		if customErr != nil {
			s.logger.Error().Int64("room_id", s.room.ID).Msg("Unread count for admin update failed.")
			s.failOrReport(customErr)
			return
		}

		s.hub.Publish(room.AdminGroup, ChatUnreadUpdateEvent{
			Type: TypeChatUnreadUpdate,
			Message: UnreadUpdate{
				RoomID:      s.room.ID,
				UnreadCount: unread,
				LastMessage: msg,
			},
		})
	}
}
