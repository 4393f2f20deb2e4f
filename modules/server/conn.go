package server

import (
	"errors"
	"log/slog"
	"net"
	"sync"

	"github.com/WanderlustCoder/Bitsy-sub000/domain/collab"
	"github.com/WanderlustCoder/Bitsy-sub000/modules/protocol"
	"github.com/WanderlustCoder/Bitsy-sub000/modules/session"
)

const readBufferSize = 4096

// Conn handles one client connection. A connection is unauthenticated until
// its JOIN is accepted; until then every other message type is dropped. The
// read loop owns username; it is never touched from another goroutine.
type Conn struct {
	netConn  net.Conn
	sess     *session.Session
	registry *Registry
	logger   *slog.Logger

	username string
	writeMu  sync.Mutex
}

func newConn(netConn net.Conn, sess *session.Session, registry *Registry, logger *slog.Logger) *Conn {
	return &Conn{
		netConn:  netConn,
		sess:     sess,
		registry: registry,
		logger:   logger,
	}
}

// handle runs the read loop until the peer disconnects or the stream becomes
// unusable, then cleans up.
func (c *Conn) handle() {
	defer c.cleanup()

	var frames protocol.FrameBuffer
	buf := make([]byte, readBufferSize)

	for {
		n, err := c.netConn.Read(buf)
		if err != nil {
			return
		}
		frames.Append(buf[:n])

		for {
			msg, err := frames.Next()
			if err != nil {
				if errors.Is(err, protocol.ErrFrameTooLarge) {
					c.logger.Warn("dropping connection: oversized frame",
						"username", c.username, "remote", c.netConn.RemoteAddr())
					return
				}
				c.logger.Debug("skipping malformed frame",
					"username", c.username, "error", err)
				continue
			}
			if msg == nil {
				break
			}
			c.process(msg)
		}
	}
}

// process dispatches one message. Unrecognized types decode to nil payloads
// and are dropped silently.
func (c *Conn) process(msg *protocol.Message) {
	payload, err := msg.Payload()
	if err != nil {
		c.logger.Debug("skipping undecodable payload",
			"type", msg.Type, "username", c.username, "error", err)
		return
	}

	if join, ok := payload.(protocol.JoinData); ok {
		c.handleJoin(join)
		return
	}

	// Everything below requires a joined connection.
	if c.username == "" {
		return
	}

	switch data := payload.(type) {
	case protocol.PixelData:
		c.handlePixel(data)
	case protocol.CursorData:
		c.handleCursor(data)
	case protocol.ChatData:
		c.handleChat(data)
	case protocol.UndoData:
		c.handleUndo()
	case protocol.RedoData:
		c.handleRedo()
	case protocol.ClearData:
		c.handleClear()
	case protocol.LeaveData:
		// An explicit leave closes the socket; cleanup handles the rest.
		_ = c.netConn.Close()
	}
}

func (c *Conn) handleJoin(data protocol.JoinData) {
	if c.username != "" {
		return
	}

	if data.Username == "" {
		c.send(protocol.NewError("Username required"))
		return
	}

	if _, err := c.sess.AddUser(data.Username); err != nil {
		if errors.Is(err, collab.ErrDuplicateUser) {
			c.send(protocol.NewError("Username taken"))
		} else {
			c.send(protocol.NewError("Username required"))
		}
		return
	}

	c.username = data.Username
	c.registry.Register(c.username, c)

	// Welcome and the full canvas state go to this connection only; the
	// updated user list goes to everyone, this connection included.
	c.send(protocol.NewWelcome(c.sess.ID(), c.sess.Users()))

	width, height := c.sess.Size()
	c.send(protocol.NewSync(width, height, c.sess.CanvasState()))

	c.registry.Broadcast(protocol.NewUserList(c.sess.Users()), "")

	c.logger.Info("user joined", "username", c.username, "remote", c.netConn.RemoteAddr())
}

func (c *Conn) handlePixel(data protocol.PixelData) {
	c.sess.SetPixel(data.X, data.Y, data.Color, c.username, true)

	// The sender already applied the pixel optimistically.
	c.registry.Broadcast(protocol.NewPixel(data.X, data.Y, data.Color, c.username), c.username)
}

func (c *Conn) handleCursor(data protocol.CursorData) {
	c.sess.UpdateCursor(c.username, data.X, data.Y)
	c.registry.Broadcast(protocol.NewCursor(data.X, data.Y, c.username), c.username)
}

func (c *Conn) handleChat(data protocol.ChatData) {
	if data.Text == "" {
		return
	}
	c.sess.AddChat(c.username, data.Text)

	// Chat echoes back to the sender; its own log is populated only by
	// this echo.
	c.registry.Broadcast(protocol.NewChat(data.Text, c.username), "")
}

func (c *Conn) handleUndo() {
	action, ok := c.sess.Undo(c.username)
	if !ok {
		return
	}
	restored := collab.ColorOrTransparent(action.OldColor)

	// Including the requester converges its optimistic local state.
	c.registry.Broadcast(protocol.NewPixel(action.X, action.Y, restored, c.username), "")
}

func (c *Conn) handleRedo() {
	action, ok := c.sess.Redo(c.username)
	if !ok {
		return
	}
	restored := collab.ColorOrTransparent(action.NewColor)
	c.registry.Broadcast(protocol.NewPixel(action.X, action.Y, restored, c.username), "")
}

func (c *Conn) handleClear() {
	c.sess.ClearCanvas(c.username)

	// A clear is always a full resync with an empty pixel map.
	width, height := c.sess.Size()
	c.registry.Broadcast(protocol.NewSync(width, height, nil), "")
}

// send encodes and writes one frame. Failures are logged and otherwise
// ignored; a broken peer surfaces through its own read loop.
func (c *Conn) send(msg *protocol.Message) {
	frame, err := protocol.Encode(msg)
	if err != nil {
		c.logger.Error("failed to encode message", "type", msg.Type, "error", err)
		return
	}

	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	if _, err := c.netConn.Write(frame); err != nil {
		c.logger.Debug("failed to send message",
			"type", msg.Type, "username", c.username, "error", err)
	}
}

// cleanup deregisters a joined connection, removes its user, tells the
// remaining clients, and closes the socket.
func (c *Conn) cleanup() {
	if c.username != "" {
		c.registry.Unregister(c.username)
		c.sess.RemoveUser(c.username)
		c.registry.Broadcast(protocol.NewUserList(c.sess.Users()), "")
		c.logger.Info("user disconnected", "username", c.username)
	}
	_ = c.netConn.Close()
}
