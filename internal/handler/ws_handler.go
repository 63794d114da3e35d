/*
Package handler provides the HTTP handler functions for WebSocket connection
upgrading and initialization.

This file contains the WebSocket entry points for the three socket kinds:
room chat, admin dashboard, and personal notifications. Each handler rate
limits by IP, upgrades the connection, and hands the socket to its session.
Authentication happens inside the session so failures are reported as error
frames and close codes rather than HTTP statuses.
*/
package handler

import (
	"net"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"

	"github.com/NahidNoorshat/ecommerce-backend/internal/app/chat"
	"github.com/NahidNoorshat/ecommerce-backend/internal/pkg/errs"
	"github.com/NahidNoorshat/ecommerce-backend/internal/pkg/limiter"
	"github.com/NahidNoorshat/ecommerce-backend/internal/pkg/logx"
	"github.com/NahidNoorshat/ecommerce-backend/internal/pkg/resp"
)

func clientIP(r *http.Request) string {
	ip, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		ip = r.RemoteAddr
	}
	if ip == "" {
		ip = "unknown_ip"
	}
	return ip
}

// allowUpgrade applies the IP rate limit before the upgrade. Limit overruns
// are still plain HTTP because no socket exists yet.
func allowUpgrade(w http.ResponseWriter, r *http.Request, rateLimiter *limiter.IPRateLimiter) bool {
	ip := clientIP(r)
	if !rateLimiter.GetLimiter(ip).Allow() {
		logx.Warn("WebSocket connection rejected: Rate limit exceeded.", "ip", ip)
		resp.RespondError(w, r, errs.NewError(errs.ErrRateLimitExceeded))
		return false
	}
	return true
}

// HandleChatSocket upgrades GET /ws/chat/{room} into a room chat session.
// The room path segment carries the product_{id}_user_{id} key and the token
// query parameter carries the JWT.
func HandleChatSocket(upgrader websocket.Upgrader, rateLimiter *limiter.IPRateLimiter, deps *AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if !allowUpgrade(w, r, rateLimiter) {
			return
		}

		roomKey := chi.URLParam(r, "room")
		if roomKey == "" {
			logx.Warn("WebSocket request rejected: Missing room key.")
			resp.RespondError(w, r, errs.NewError(errs.ErrInvalidParams))
			return
		}

		token := r.URL.Query().Get("token")

		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			logx.Error(err, "Failed to upgrade connection to WebSocket")
			return
		}

		session := chat.NewSession(conn, deps.Hub, deps.Directory, deps.Ledger)
		session.Run(r.Context(), deps.Gate, token, roomKey)
	}
}

// HandleAdminSocket upgrades GET /ws/admin/chat into a dashboard session.
// Only staff and admin principals survive the session handshake.
func HandleAdminSocket(upgrader websocket.Upgrader, rateLimiter *limiter.IPRateLimiter, deps *AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if !allowUpgrade(w, r, rateLimiter) {
			return
		}

		token := r.URL.Query().Get("token")

		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			logx.Error(err, "Failed to upgrade connection to WebSocket")
			return
		}

		session := chat.NewAdminSession(conn, deps.Hub, deps.Directory, deps.Ledger)
		session.Run(r.Context(), deps.Gate, token)
	}
}

// HandleNotifySocket upgrades GET /ws/notifications into a push-only personal
// notification session.
func HandleNotifySocket(upgrader websocket.Upgrader, rateLimiter *limiter.IPRateLimiter, deps *AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if !allowUpgrade(w, r, rateLimiter) {
			return
		}

		token := r.URL.Query().Get("token")

		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			logx.Error(err, "Failed to upgrade connection to WebSocket")
			return
		}

		session := chat.NewNotifySession(conn, deps.Hub)
		session.Run(r.Context(), deps.Gate, token)
	}
}
