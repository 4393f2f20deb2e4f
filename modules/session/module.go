package session

import (
	"context"
	"log/slog"
	"time"

	"github.com/go-monolith/mono"

	"github.com/WanderlustCoder/Bitsy-sub000/domain/collab"
	"github.com/WanderlustCoder/Bitsy-sub000/events"
	"github.com/WanderlustCoder/Bitsy-sub000/modules/canvas"
)

// Module wraps the session as a mono module. It bridges session observers
// onto the application event bus so other modules can consume collab events
// without touching the session directly.
type Module struct {
	sess     *Session
	eventBus mono.EventBus
	logger   *slog.Logger
}

// Compile-time interface checks.
var (
	_ mono.Module                = (*Module)(nil)
	_ mono.EventBusAwareModule   = (*Module)(nil)
	_ mono.EventEmitterModule    = (*Module)(nil)
	_ mono.HealthCheckableModule = (*Module)(nil)
)

// NewModule creates a session module with a blank canvas of the given size.
func NewModule(width, height int) *Module {
	return &Module{
		sess:   New(canvas.New(width, height)),
		logger: slog.Default(),
	}
}

// Name returns the module name.
func (m *Module) Name() string {
	return "session"
}

// SetEventBus receives the EventBus from the framework.
func (m *Module) SetEventBus(bus mono.EventBus) {
	m.eventBus = bus
}

// EmitEvents declares the events this module can emit.
func (m *Module) EmitEvents() []mono.BaseEventDefinition {
	return []mono.BaseEventDefinition{
		events.PixelDrawnV1.ToBase(),
		events.UserJoinedV1.ToBase(),
		events.UserLeftV1.ToBase(),
		events.ChatPostedV1.ToBase(),
		events.CanvasClearedV1.ToBase(),
	}
}

// Start subscribes the event-publishing observers.
func (m *Module) Start(_ context.Context) error {
	m.sess.OnPixelChange(func(x, y int, color collab.Color, username string) {
		if m.eventBus == nil {
			return
		}
		err := events.PixelDrawnV1.Publish(m.eventBus, events.PixelDrawnEvent{
			X: x, Y: y, Color: color, Username: username, Timestamp: time.Now(),
		}, nil)
		if err != nil {
			m.logger.Warn("failed to publish PixelDrawn event", "error", err)
		}
	})
	m.sess.OnUserJoin(func(user collab.User) {
		if m.eventBus == nil {
			return
		}
		err := events.UserJoinedV1.Publish(m.eventBus, events.UserJoinedEvent{
			Username: user.Username, Timestamp: time.Now(),
		}, nil)
		if err != nil {
			m.logger.Warn("failed to publish UserJoined event", "error", err)
		}
	})
	m.sess.OnUserLeave(func(user collab.User) {
		if m.eventBus == nil {
			return
		}
		err := events.UserLeftV1.Publish(m.eventBus, events.UserLeftEvent{
			Username: user.Username, Timestamp: time.Now(),
		}, nil)
		if err != nil {
			m.logger.Warn("failed to publish UserLeft event", "error", err)
		}
	})
	m.sess.OnChat(func(username, text string) {
		if m.eventBus == nil {
			return
		}
		err := events.ChatPostedV1.Publish(m.eventBus, events.ChatPostedEvent{
			Username: username, Text: text, Timestamp: time.Now(),
		}, nil)
		if err != nil {
			m.logger.Warn("failed to publish ChatPosted event", "error", err)
		}
	})
	m.sess.OnClear(func(username string) {
		if m.eventBus == nil {
			return
		}
		err := events.CanvasClearedV1.Publish(m.eventBus, events.CanvasClearedEvent{
			Username: username, Timestamp: time.Now(),
		}, nil)
		if err != nil {
			m.logger.Warn("failed to publish CanvasCleared event", "error", err)
		}
	})

	width, height := m.sess.Size()
	m.logger.Info("session module started",
		"sessionID", m.sess.ID(), "width", width, "height", height)
	return nil
}

// Stop shuts down the module.
func (m *Module) Stop(_ context.Context) error {
	m.logger.Info("session module stopped", "sessionID", m.sess.ID())
	return nil
}

// Health reports session statistics.
func (m *Module) Health(_ context.Context) mono.HealthStatus {
	return mono.HealthStatus{
		Healthy: true,
		Message: "operational",
		Details: map[string]any{
			"session_id":    m.sess.ID(),
			"users":         sortedCopy(m.sess.Users()),
			"history_depth": m.sess.HistoryDepth(),
		},
	}
}

// Session returns the underlying session for other modules to wire against.
func (m *Module) Session() *Session {
	return m.sess
}
