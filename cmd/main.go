/*
Package main is the entry point for the chat and notification service.

It is responsible for loading configuration, initializing the global logging
system, connecting to PostgreSQL and applying migrations, wiring the domain
services onto the broadcast hub, starting the AMQP domain event consumer, and
gracefully handling operating system interrupt signals (SIGINT, SIGTERM) to
ensure a smooth server shutdown.
*/
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/NahidNoorshat/ecommerce-backend/internal/app/chat"
	"github.com/NahidNoorshat/ecommerce-backend/internal/app/db"
	"github.com/NahidNoorshat/ecommerce-backend/internal/app/identity"
	"github.com/NahidNoorshat/ecommerce-backend/internal/app/message"
	"github.com/NahidNoorshat/ecommerce-backend/internal/app/notify"
	"github.com/NahidNoorshat/ecommerce-backend/internal/app/room"
	"github.com/NahidNoorshat/ecommerce-backend/internal/configs"
	"github.com/NahidNoorshat/ecommerce-backend/internal/events"
	"github.com/NahidNoorshat/ecommerce-backend/internal/handler"
	"github.com/NahidNoorshat/ecommerce-backend/internal/pkg/auth/jwt"
	"github.com/NahidNoorshat/ecommerce-backend/internal/pkg/logx"
	"github.com/NahidNoorshat/ecommerce-backend/internal/store"
)

func main() {
	// Load configuration from environment variables
	cfg, err := configs.LoadConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "FATAL: Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	// Initialize global logger
	logx.InitGlobalLogger(cfg.Environment == "development")
	logx.Logger().Info().
		Str("environment", cfg.Environment).
		Int("port", cfg.Port).
		Strs("allowed_origins", cfg.AllowedOrigins).
		Msg("Configuration loaded successfully")

	// Create a context that listens for the interrupt signal from the OS.
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Connect to PostgreSQL and apply pending migrations.
	pool, err := db.NewPool(cfg.DatabaseDSN)
	if err != nil {
		logx.Fatal(err, "Failed to initialize database")
	}
	defer pool.Close()

	// Persistence layer
	roomStore := store.NewRoomStore(pool)
	messageStore := store.NewMessageStore(pool)
	notificationStore := store.NewNotificationStore(pool)
	userStore := store.NewUserStore(pool)

	// Domain services
	gate := identity.NewGate(jwt.NewValidator(cfg.JWTSecret))
	hub := chat.NewHub()
	directory := room.NewDirectory(roomStore, userStore, userStore)
	ledger := message.NewLedger(messageStore, roomStore)
	relay := notify.NewRelay(notificationStore, hub, userStore)

	// Domain event consumer (noop when AMQP is not configured)
	consumer := events.NewConsumer(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue, relay)
	defer consumer.Close()

	go func() {
		if err := consumer.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
			logx.Error(err, "Domain event consumer stopped")
		}
	}()

	// Setup HTTP server and routes
	router := handler.Router(&handler.AppDeps{
		Config:    cfg,
		Gate:      gate,
		Hub:       hub,
		Directory: directory,
		Ledger:    ledger,
		Relay:     relay,
	})

	serverAddr := fmt.Sprintf(":%d", cfg.Port)
	server := &http.Server{
		Addr:         serverAddr,
		Handler:      router,
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	go func() {
		logx.Info(fmt.Sprintf("Chat notification service starting on http://localhost%s", serverAddr))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logx.Fatal(err, "Server failed to start")
		}
	}()

	// Wait for interrupt signal to gracefully shutdown the server with a timeout of 5 seconds.
	<-ctx.Done()
	logx.Info("Received shutdown signal. Starting graceful shutdown...")

	shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancelShutdown()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logx.Fatal(err, "Server forced to shutdown")
	}

	logx.Info("Server gracefully stopped.")
}
