// Package server hosts a collaborative session over plain TCP: a listener,
// a connection registry, and one protocol handler goroutine per client.
package server

import (
	"sync"

	"github.com/WanderlustCoder/Bitsy-sub000/modules/protocol"
)

// Registry maps joined usernames to their live connections and fans
// messages out to them. Broadcast iterates a snapshot so a connection
// dropping mid-broadcast cannot corrupt iteration.
type Registry struct {
	mu    sync.RWMutex
	conns map[string]*Conn
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{conns: make(map[string]*Conn)}
}

// Register binds a username to its connection.
func (r *Registry) Register(username string, c *Conn) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.conns[username] = c
}

// Unregister removes a username's connection.
func (r *Registry) Unregister(username string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.conns, username)
}

// Usernames returns the currently registered usernames.
func (r *Registry) Usernames() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.conns))
	for name := range r.conns {
		names = append(names, name)
	}
	return names
}

// Count returns the number of registered connections.
func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.conns)
}

// Broadcast sends a message to every registered connection except the named
// one. An empty exclude sends to everyone. Send failures are left to each
// connection's read loop to surface as a disconnect.
func (r *Registry) Broadcast(msg *protocol.Message, exclude string) {
	r.mu.RLock()
	targets := make([]*Conn, 0, len(r.conns))
	for username, c := range r.conns {
		if username != exclude {
			targets = append(targets, c)
		}
	}
	r.mu.RUnlock()

	for _, c := range targets {
		c.send(msg)
	}
}
