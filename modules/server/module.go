package server

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"sync"

	"github.com/go-monolith/mono"

	"github.com/WanderlustCoder/Bitsy-sub000/modules/session"
)

// Module is the TCP server hosting one collaborative session. Each accepted
// connection gets its own handler goroutine; session state carries its own
// lock, so handlers never coordinate with each other directly.
type Module struct {
	addr     string
	sess     *session.Session
	registry *Registry
	logger   *slog.Logger

	listener net.Listener
	done     chan struct{}

	mu     sync.Mutex
	active map[*Conn]struct{}
}

// Compile-time interface checks.
var (
	_ mono.Module                = (*Module)(nil)
	_ mono.HealthCheckableModule = (*Module)(nil)
)

// NewModule creates a server for the given session. addr is a TCP listen
// address; ":0" style addresses pick an ephemeral port (see Addr).
func NewModule(addr string, sess *session.Session) *Module {
	return &Module{
		addr:     addr,
		sess:     sess,
		registry: NewRegistry(),
		logger:   slog.Default(),
		active:   make(map[*Conn]struct{}),
	}
}

// Name returns the module name.
func (m *Module) Name() string {
	return "collab-server"
}

// Start opens the listener and begins accepting connections.
func (m *Module) Start(_ context.Context) error {
	listener, err := net.Listen("tcp", m.addr)
	if err != nil {
		return fmt.Errorf("collab server listen on %s: %w", m.addr, err)
	}
	m.listener = listener
	m.done = make(chan struct{})

	go m.acceptLoop()

	m.logger.Info("collab server started",
		"addr", listener.Addr().String(), "sessionID", m.sess.ID())
	return nil
}

// Stop closes the listener and every open connection.
func (m *Module) Stop(_ context.Context) error {
	if m.listener == nil {
		return nil
	}
	close(m.done)
	if err := m.listener.Close(); err != nil {
		m.logger.Debug("listener close", "error", err)
	}

	m.mu.Lock()
	for c := range m.active {
		_ = c.netConn.Close()
	}
	m.mu.Unlock()

	m.logger.Info("collab server stopped")
	return nil
}

// Health reports listener state and connection counts.
func (m *Module) Health(_ context.Context) mono.HealthStatus {
	running := m.listener != nil
	addr := ""
	if running {
		addr = m.listener.Addr().String()
	}
	return mono.HealthStatus{
		Healthy: running,
		Message: "operational",
		Details: map[string]any{
			"addr":    addr,
			"clients": m.registry.Count(),
		},
	}
}

// Addr returns the listener address, nil before Start. Tests bind ":0" and
// read the ephemeral port from here.
func (m *Module) Addr() net.Addr {
	if m.listener == nil {
		return nil
	}
	return m.listener.Addr()
}

// Session returns the hosted session.
func (m *Module) Session() *session.Session {
	return m.sess
}

// ConnectedUsers returns the usernames with live connections.
func (m *Module) ConnectedUsers() []string {
	return m.registry.Usernames()
}

func (m *Module) acceptLoop() {
	for {
		netConn, err := m.listener.Accept()
		if err != nil {
			select {
			case <-m.done:
				return
			default:
			}
			m.logger.Error("accept failed", "error", err)
			return
		}

		c := newConn(netConn, m.sess, m.registry, m.logger)
		m.track(c)
		go func() {
			c.handle()
			m.forget(c)
		}()
	}
}

func (m *Module) track(c *Conn) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.active[c] = struct{}{}
}

func (m *Module) forget(c *Conn) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.active, c)
}
