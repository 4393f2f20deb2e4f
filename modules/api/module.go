// Package api exposes a read-only HTTP surface over the collaborative
// session: health, session metadata, canvas state, chat history, and an
// activity feed built from collab events on the application bus.
package api

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/go-monolith/mono"
	"github.com/go-monolith/mono/pkg/helper"
	"github.com/gofiber/fiber/v2"
	fiberlog "github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"

	"github.com/WanderlustCoder/Bitsy-sub000/events"
	"github.com/WanderlustCoder/Bitsy-sub000/modules/session"
)

// Module is the HTTP API module.
type Module struct {
	addr     string
	sess     *session.Session
	handlers *Handlers
	app      *fiber.App
	logger   *slog.Logger
}

// Compile-time interface checks.
var (
	_ mono.Module                = (*Module)(nil)
	_ mono.EventConsumerModule   = (*Module)(nil)
	_ mono.HealthCheckableModule = (*Module)(nil)
)

// NewModule creates the API module for a session.
func NewModule(addr string, sess *session.Session) *Module {
	return &Module{
		addr:     addr,
		sess:     sess,
		handlers: NewHandlers(sess),
		logger:   slog.Default(),
	}
}

// Name returns the module name.
func (m *Module) Name() string {
	return "api"
}

// RegisterEventConsumers subscribes the activity feed to collab events.
func (m *Module) RegisterEventConsumers(registry mono.EventRegistry) error {
	if err := helper.RegisterTypedEventConsumer(
		registry, events.PixelDrawnV1, m.handlePixelDrawn, m,
	); err != nil {
		return fmt.Errorf("failed to register PixelDrawn consumer: %w", err)
	}
	if err := helper.RegisterTypedEventConsumer(
		registry, events.UserJoinedV1, m.handleUserJoined, m,
	); err != nil {
		return fmt.Errorf("failed to register UserJoined consumer: %w", err)
	}
	if err := helper.RegisterTypedEventConsumer(
		registry, events.UserLeftV1, m.handleUserLeft, m,
	); err != nil {
		return fmt.Errorf("failed to register UserLeft consumer: %w", err)
	}
	if err := helper.RegisterTypedEventConsumer(
		registry, events.ChatPostedV1, m.handleChatPosted, m,
	); err != nil {
		return fmt.Errorf("failed to register ChatPosted consumer: %w", err)
	}
	if err := helper.RegisterTypedEventConsumer(
		registry, events.CanvasClearedV1, m.handleCanvasCleared, m,
	); err != nil {
		return fmt.Errorf("failed to register CanvasCleared consumer: %w", err)
	}

	m.logger.Info("registered collab event consumers")
	return nil
}

// Start builds the Fiber app and begins serving.
func (m *Module) Start(_ context.Context) error {
	m.app = m.buildApp()

	errCh := make(chan error, 1)
	go func() {
		if err := m.app.Listen(m.addr); err != nil {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("api server failed to start: %w", err)
	case <-time.After(100 * time.Millisecond):
	}

	m.logger.Info("api server started", "addr", m.addr)
	return nil
}

// Stop shuts down the HTTP server.
func (m *Module) Stop(ctx context.Context) error {
	if m.app != nil {
		if err := m.app.ShutdownWithContext(ctx); err != nil {
			return fmt.Errorf("failed to shutdown api server: %w", err)
		}
	}
	m.logger.Info("api server stopped")
	return nil
}

// Health reports the API state.
func (m *Module) Health(_ context.Context) mono.HealthStatus {
	return mono.HealthStatus{
		Healthy: m.app != nil,
		Message: "operational",
		Details: map[string]any{
			"addr": m.addr,
		},
	}
}

// buildApp assembles the Fiber application and routes. Split out so handler
// tests can exercise routes without a listener.
func (m *Module) buildApp() *fiber.App {
	app := fiber.New(fiber.Config{
		AppName:               "Pixel Collab API",
		DisableStartupMessage: true,
	})
	app.Use(recover.New())
	app.Use(fiberlog.New(fiberlog.Config{
		Format: "[${time}] ${status} - ${latency} ${method} ${path}\n",
	}))

	app.Get("/health", m.handlers.HealthCheck)

	v1 := app.Group("/api/v1")
	v1.Get("/session", m.handlers.GetSession)
	v1.Get("/canvas", m.handlers.GetCanvas)
	v1.Get("/chat", m.handlers.GetChat)
	v1.Get("/activity", m.handlers.GetActivity)

	return app
}

// Event handlers

func (m *Module) handlePixelDrawn(_ context.Context, event events.PixelDrawnEvent, _ *mono.Msg) error {
	m.handlers.recordActivity(ActivityEntry{
		Kind:      "pixel",
		Username:  event.Username,
		Detail:    fmt.Sprintf("(%d,%d)", event.X, event.Y),
		Timestamp: event.Timestamp,
	})
	return nil
}

func (m *Module) handleUserJoined(_ context.Context, event events.UserJoinedEvent, _ *mono.Msg) error {
	m.handlers.recordActivity(ActivityEntry{
		Kind:      "join",
		Username:  event.Username,
		Timestamp: event.Timestamp,
	})
	return nil
}

func (m *Module) handleUserLeft(_ context.Context, event events.UserLeftEvent, _ *mono.Msg) error {
	m.handlers.recordActivity(ActivityEntry{
		Kind:      "leave",
		Username:  event.Username,
		Timestamp: event.Timestamp,
	})
	return nil
}

func (m *Module) handleChatPosted(_ context.Context, event events.ChatPostedEvent, _ *mono.Msg) error {
	m.handlers.recordActivity(ActivityEntry{
		Kind:      "chat",
		Username:  event.Username,
		Detail:    event.Text,
		Timestamp: event.Timestamp,
	})
	return nil
}

func (m *Module) handleCanvasCleared(_ context.Context, event events.CanvasClearedEvent, _ *mono.Msg) error {
	m.handlers.recordActivity(ActivityEntry{
		Kind:      "clear",
		Username:  event.Username,
		Timestamp: event.Timestamp,
	})
	return nil
}
