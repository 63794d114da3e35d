/*
Package handler provides the HTTP handlers and routing setup for the chat and
notification service.

This file defines the main Router, applying necessary middleware like logging,
CORS, and IP-based rate limiting before delegating requests to specific
handlers (REST API and WebSocket).
*/
package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/gorilla/websocket"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/cors"
	"golang.org/x/time/rate"

	"github.com/NahidNoorshat/ecommerce-backend/internal/pkg/auth/jwt"
	"github.com/NahidNoorshat/ecommerce-backend/internal/pkg/limiter"
	"github.com/NahidNoorshat/ecommerce-backend/internal/pkg/logx"
	"github.com/NahidNoorshat/ecommerce-backend/internal/pkg/resp"
)

const (
	// ConnectRate limits how fast one IP may open sockets.
	ConnectRate  = 0.2
	ConnectBurst = 5
)

// Router sets up the main HTTP routing table (chi.Router) for the application.
// It initializes IP-based rate limiters, configures CORS, and applies global
// and per-route middleware.
func Router(deps *AppDeps) http.Handler {
	connectLimiter := limiter.NewIPRateLimiter(rate.Limit(ConnectRate), ConnectBurst)

	r := chi.NewRouter()

	allowedOrigins := make(map[string]struct{})
	for _, origin := range deps.Config.AllowedOrigins {
		allowedOrigins[origin] = struct{}{}
	}

	var wsUpgrader = websocket.Upgrader{
		ReadBufferSize:  4096,
		WriteBufferSize: 4096,
		CheckOrigin: func(r *http.Request) bool {
			if deps.Config.Environment == "development" {
				return true
			}

			origin := r.Header.Get("Origin")
			if _, ok := allowedOrigins[origin]; ok {
				return true
			}

			logx.Warn("WebSocket connection rejected: Origin not allowed.", "origin", origin)
			return false
		},
	}

	corsAllowedOrigins := []string{}
	if deps.Config.Environment == "development" {
		corsAllowedOrigins = []string{"*"}
	} else if len(deps.Config.AllowedOrigins) > 0 {
		corsAllowedOrigins = deps.Config.AllowedOrigins
	}

	c := cors.New(cors.Options{
		AllowedOrigins:   corsAllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		ExposedHeaders:   []string{},
		AllowCredentials: true,
		MaxAge:           300,
	})
	r.Use(c.Handler)

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(logx.RequestLogger())
	r.Use(middleware.Recoverer)

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		data := map[string]string{
			"status":  "ok",
			"service": "Chat Notification Service",
		}
		resp.RespondSuccess(w, r, data)
	})

	r.Handle("/metrics", promhttp.Handler())

	r.Route("/api", func(api chi.Router) {
		api.Use(jwt.RequireAuth(deps.Gate))

		api.Route("/chats", func(chats chi.Router) {
			chats.Get("/", HandleListChats(deps))
			chats.Get("/{id}/messages", HandleListMessages(deps))
			chats.Post("/{id}/read", HandleMarkChatRead(deps))
		})

		api.Route("/notifications", func(notifications chi.Router) {
			notifications.Get("/", HandleListNotifications(deps))
			notifications.Post("/{id}/read", HandleMarkNotificationRead(deps))
		})
	})

	r.Get("/ws/chat/{room}", HandleChatSocket(wsUpgrader, connectLimiter, deps))
	r.Get("/ws/admin/chat", HandleAdminSocket(wsUpgrader, connectLimiter, deps))
	r.Get("/ws/notifications", HandleNotifySocket(wsUpgrader, connectLimiter, deps))

	return r
}
