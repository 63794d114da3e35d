package chat

import (
	"context"
	"encoding/json"

	"github.com/gorilla/websocket"

	"github.com/NahidNoorshat/ecommerce-backend/internal/app/identity"
	"github.com/NahidNoorshat/ecommerce-backend/internal/app/room"
	"github.com/NahidNoorshat/ecommerce-backend/internal/observability"
	"github.com/NahidNoorshat/ecommerce-backend/internal/pkg/errs"
	"github.com/NahidNoorshat/ecommerce-backend/internal/pkg/logx"
)

// NotifySession is a push-only personal notification connection. It joins the
// user's personal group and otherwise only answers keepalive pings.
type NotifySession struct {
	*wsConn

	principal identity.Principal
}

// NewNotifySession wraps an upgraded socket into a notification session.
func NewNotifySession(sock *websocket.Conn, hub *Hub) *NotifySession {
	logger := logx.Logger().With().Str("session", "notify").Logger()

	return &NotifySession{wsConn: newWSConn(sock, hub, logger)}
}

// Run serves the session until the transport disconnects.
func (s *NotifySession) Run(ctx context.Context, gate *identity.Gate, token string) {
	observability.IncWSActive("notify")
	defer observability.DecWSActive("notify")

	defer s.hub.Drop(s.id)

	// Closing the transport on exit makes the write pump stop immediately
	// instead of lingering until its next ping.
	defer func() { _ = s.sock.Close() }()

	principal, customErr := gate.Authenticate(token)
	if customErr != nil {
		observability.IncWSEvent("notify", "rejected")
		s.reject(customErr)
		return
	}
	s.principal = principal

	s.hub.Join(room.UserGroup(principal.UserID), s.id, s.SendFunc())

	go s.writePump()

	s.queueJSON(ConnectionEstablishedEvent{
		Type:    TypeConnectionEstablished,
		Message: "Notification connection successful",
		UserID:  principal.UserID,
		IsAdmin: principal.IsStaff,
	})

	if err := s.prepareRead(); err != nil {
		s.logger.Error().Err(err).Msg("Failed to arm read deadline.")
		return
	}

	for {
		_, raw, err := s.sock.ReadMessage()
		if err != nil {
			return
		}

		var frame InboundFrame
		if err := json.Unmarshal(raw, &frame); err != nil {
			s.sendError(errs.NewError(errs.ErrInvalidJSONFormat))
			continue
		}

		if frame.Type == TypePing {
			s.queueJSON(PongEvent{Type: TypePong})
		}
	}
}
