/*
Admin dashboard sessions.

An AdminSession is a staff connection that is not bound to a single room.
It joins the shared dashboard group on connect, receives unread updates and
presence events for every active room, and can dynamically join, leave, and
reply into any room.
*/
package chat

import (
	"context"
	"encoding/json"
	"time"

	"github.com/gorilla/websocket"

	"github.com/NahidNoorshat/ecommerce-backend/internal/app/identity"
	"github.com/NahidNoorshat/ecommerce-backend/internal/app/message"
	"github.com/NahidNoorshat/ecommerce-backend/internal/app/room"
	"github.com/NahidNoorshat/ecommerce-backend/internal/observability"
	"github.com/NahidNoorshat/ecommerce-backend/internal/pkg/errs"
	"github.com/NahidNoorshat/ecommerce-backend/internal/pkg/logx"
)

// AdminSession is one staff dashboard connection.
type AdminSession struct {
	*wsConn

	principal identity.Principal
	directory *room.Directory
	ledger    *message.Ledger
}

// NewAdminSession wraps an upgraded socket into a dashboard session.
func NewAdminSession(sock *websocket.Conn, hub *Hub, directory *room.Directory, ledger *message.Ledger) *AdminSession {
	logger := logx.Logger().With().Str("session", "admin").Logger()

	return &AdminSession{
		wsConn:    newWSConn(sock, hub, logger),
		directory: directory,
		ledger:    ledger,
	}
}

// Run serves the dashboard until the transport disconnects.
func (s *AdminSession) Run(ctx context.Context, gate *identity.Gate, token string) {
	observability.IncWSActive("admin")
	defer observability.DecWSActive("admin")

	defer s.hub.Drop(s.id)

	// Closing the transport on exit makes the write pump stop immediately
	// instead of lingering until its next ping.
	defer func() { _ = s.sock.Close() }()

	principal, customErr := gate.Authenticate(token)
	if customErr != nil {
		observability.IncWSEvent("admin", "rejected")
		s.reject(customErr)
		return
	}
	if !principal.Privileged() {
		observability.IncWSEvent("admin", "rejected")
		s.reject(errs.NewError(errs.ErrAdminOnly))
		return
	}

	s.principal = principal
	s.logger = s.logger.With().
		Int64("user_id", principal.UserID).
		Str("username", principal.Username).
		Logger()

	s.hub.Join(room.AdminGroup, s.id, s.SendFunc())
	s.hub.Join(room.UserGroup(principal.UserID), s.id, s.SendFunc())

	go s.writePump()

	s.queueJSON(ConnectionEstablishedEvent{
		Type:    TypeConnectionEstablished,
		Message: "Admin chat connection successful",
		UserID:  principal.UserID,
		IsAdmin: true,
	})

	s.sendActiveChats(ctx)

	s.logger.Info().Msg("Admin dashboard connected.")

	s.readLoop(ctx)
}

func (s *AdminSession) sendActiveChats(ctx context.Context) {
	summaries, customErr := s.directory.ActiveSummaries(ctx, ActiveChatsLimit)
	if customErr != nil {
		s.failOrReport(customErr)
		return
	}
	if summaries == nil {
		summaries = []room.Summary{}
	}
	s.queueJSON(ActiveChatsEvent{Type: TypeActiveChats, Chats: summaries})
}

func (s *AdminSession) readLoop(ctx context.Context) {
	if err := s.prepareRead(); err != nil {
		s.logger.Error().Err(err).Msg("Failed to arm read deadline.")
		return
	}

	for {
		_, raw, err := s.sock.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				s.logger.Info().Err(err).Msg("Dashboard connection closed unexpectedly.")
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

func (s *AdminSession) handleFrame(ctx context.Context, raw []byte) {
	var frame InboundFrame
	if err := json.Unmarshal(raw, &frame); err != nil {
		s.sendError(errs.NewError(errs.ErrInvalidJSONFormat))
		return
	}

	switch frame.Type {
	case TypePing:
		s.queueJSON(PongEvent{Type: TypePong})

	case TypeJoinChat:
		observability.IncWSEvent("admin", "join_chat")
		s.handleJoinChat(ctx, frame.RoomID)

	case TypeLeaveChat:
		observability.IncWSEvent("admin", "leave_chat")
		s.handleLeaveChat(ctx, frame.RoomID)

	case TypeChatMessage, TypeChatMessageAlt:
		observability.IncWSEvent("admin", "chat_message")
		s.handleChatMessage(ctx, frame.RoomID, frame.Content)

	case TypeMarkRead:
		observability.IncWSEvent("admin", "mark_read")
		s.handleMarkRead(ctx, frame.RoomID, frame.MessageIDs)

	default:
		s.logger.Warn().Str("frame_type", frame.Type).Msg("Unsupported frame type ignored.")
	}
}

// reportRoomLookup answers a failed room lookup. The dashboard is not bound
// to the room it asked about, so a missing room is a frame-level error here;
// an internal fault still closes the connection.
func (s *AdminSession) reportRoomLookup(customErr *errs.CustomError) {
	if customErr.Code == errs.ErrUnknown {
		s.fatal(customErr)
		return
	}
	s.sendError(customErr)
}

// handleJoinChat attaches the dashboard to a room's broadcast group, marks
// the customer's backlog read, and announces the join to other dashboards.
func (s *AdminSession) handleJoinChat(ctx context.Context, roomID int64) {
	r, customErr := s.directory.Get(ctx, roomID)
	if customErr != nil {
		s.reportRoomLookup(customErr)
		return
	}

	s.hub.Join(r.GroupName(), s.id, s.SendFunc())

	if _, customErr := s.ledger.MarkCustomerMessagesRead(ctx, r); customErr != nil {
		s.logger.Error().Int64("room_id", r.ID).Msg("Failed to mark backlog read on join.")
	}

	// Opening a room clears its badge on every dashboard.
	s.hub.Publish(room.AdminGroup, ChatUnreadUpdateEvent{
		Type:    TypeChatUnreadUpdate,
		Message: UnreadUpdate{RoomID: r.ID, UnreadCount: 0},
	})

	s.hub.Publish(room.AdminGroup, AdminNotificationEvent{
		Type: TypeAdminNotification,
		Message: AdminActivity{
			Event:     "admin_joined",
			RoomID:    r.ID,
			AdminID:   s.principal.UserID,
			AdminName: s.principal.Username,
			Timestamp: time.Now().UTC(),
		},
	})

	history, customErr := s.ledger.History(ctx, r, AdminHistoryLimit)
	if customErr != nil {
		s.failOrReport(customErr)
		return
	}
	if history == nil {
		history = []message.Message{}
	}

	s.queueJSON(ChatRoomJoinedEvent{Type: TypeChatRoomJoined, Room: r, Messages: history})

	s.logger.Info().Int64("room_id", r.ID).Msg("Dashboard joined room.")
}

// handleLeaveChat detaches from a room's broadcast group. Leaving a room
// that does not exist is answered with an error frame, not a confirmation.
func (s *AdminSession) handleLeaveChat(ctx context.Context, roomID int64) {
	r, customErr := s.directory.Get(ctx, roomID)
	if customErr != nil {
		s.reportRoomLookup(customErr)
		return
	}

	s.hub.Leave(r.GroupName(), s.id)
	s.queueJSON(ChatRoomLeftEvent{Type: TypeChatRoomLeft, RoomID: r.ID})
}

// handleChatMessage posts a staff reply into a room and announces it to the
// other dashboards.
func (s *AdminSession) handleChatMessage(ctx context.Context, roomID int64, content string) {
	r, customErr := s.directory.Get(ctx, roomID)
	if customErr != nil {
		s.reportRoomLookup(customErr)
		return
	}

	msg, customErr := s.ledger.Append(ctx, r, s.principal, content)
	if customErr != nil {
		s.failOrReport(customErr)
		return
	}

	s.hub.Publish(r.GroupName(), ChatMessageEvent{Type: TypeChatMessage, Message: msg})

	s.hub.Publish(room.AdminGroup, AdminNotificationEvent{
		Type: TypeAdminNotification,
		Message: AdminActivity{
			Event:     "message_sent",
			RoomID:    r.ID,
			AdminID:   s.principal.UserID,
			AdminName: s.principal.Username,
			Content:   msg.Content,
			Timestamp: msg.Timestamp,
		},
	})
}

func (s *AdminSession) handleMarkRead(ctx context.Context, roomID int64, ids []int64) {
	r, customErr := s.directory.Get(ctx, roomID)
	if customErr != nil {
		s.reportRoomLookup(customErr)
		return
	}

	if _, customErr := s.ledger.MarkRead(ctx, r, ids, s.principal); customErr != nil {
		s.failOrReport(customErr)
	}
}
