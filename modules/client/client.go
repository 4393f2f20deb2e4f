// Package client implements a collaborative session client: it connects to
// a server, keeps a converging local mirror of the shared canvas, and
// surfaces remote changes through callbacks.
package client

import (
	"errors"
	"fmt"
	"log/slog"
	"net"
	"sync"
	"sync/atomic"
	"time"

	"github.com/WanderlustCoder/Bitsy-sub000/domain/collab"
	"github.com/WanderlustCoder/Bitsy-sub000/modules/canvas"
	"github.com/WanderlustCoder/Bitsy-sub000/modules/protocol"
)

const readBufferSize = 4096

// ErrConnectTimeout is returned when the server's WELCOME does not arrive
// within the connect timeout.
var ErrConnectTimeout = errors.New("timed out waiting for welcome")

// Client joins a collaborative session over TCP and mirrors its state
// locally. Outbound edits are applied to the mirror optimistically before
// they are sent, except chat, whose log entry is appended only when the
// server's echo arrives.
//
// Callbacks must be assigned before Connect; the reader goroutine invokes
// them as matching messages arrive.
type Client struct {
	addr     string
	username string

	OnPixelChange func(x, y int, color collab.Color, sender string)
	OnUserJoin    func(username string)
	OnUserLeave   func(username string)
	OnChat        func(username, text string)
	OnCursorMove  func(username string, x, y int)
	OnSync        func()
	OnError       func(errText string)

	mu        sync.Mutex
	canvas    *canvas.Canvas
	sessionID string
	users     []string
	cursors   map[string][2]int
	chat      []collab.ChatEntry

	conn       net.Conn
	writeMu    sync.Mutex
	connected  atomic.Bool
	welcomed   atomic.Bool
	welcomeCh  chan struct{}
	joinErrCh  chan error
	readerDone chan struct{}

	logger *slog.Logger
}

// New creates a client for the given server address. width and height are
// the expected canvas dimensions; a SYNC from the server replaces them with
// the authoritative ones.
func New(addr, username string, width, height int) *Client {
	return &Client{
		addr:     addr,
		username: username,
		canvas:   canvas.New(width, height),
		cursors:  make(map[string][2]int),
		logger:   slog.Default(),
	}
}

// Username returns the username this client joins with.
func (c *Client) Username() string { return c.username }

// Connect dials the server, starts the reader, sends JOIN, and waits for
// the server's WELCOME. It returns ErrConnectTimeout when no WELCOME (or
// rejection) arrives in time, and the server's validation error when the
// JOIN is rejected; in the rejection case the socket stays open and
// unauthenticated until Disconnect.
func (c *Client) Connect(timeout time.Duration) error {
	if c.connected.Load() {
		return nil
	}

	conn, err := net.DialTimeout("tcp", c.addr, timeout)
	if err != nil {
		c.fireError(err.Error())
		return fmt.Errorf("connect to %s: %w", c.addr, err)
	}

	c.conn = conn
	c.welcomeCh = make(chan struct{})
	c.joinErrCh = make(chan error, 1)
	c.readerDone = make(chan struct{})
	c.welcomed.Store(false)
	c.connected.Store(true)

	go c.readLoop()

	c.send(protocol.NewJoin(c.username))

	select {
	case <-c.welcomeCh:
		return nil
	case err := <-c.joinErrCh:
		return err
	case <-time.After(timeout):
		c.Disconnect()
		return ErrConnectTimeout
	}
}

// Disconnect closes the connection and waits briefly for the reader to
// finish.
func (c *Client) Disconnect() {
	c.connected.Store(false)

	if c.conn != nil {
		_ = c.conn.Close()
	}

	if c.readerDone != nil {
		select {
		case <-c.readerDone:
		case <-time.After(time.Second):
		}
	}
}

// IsConnected reports whether the connection is believed live.
func (c *Client) IsConnected() bool {
	return c.connected.Load()
}

func (c *Client) readLoop() {
	defer close(c.readerDone)

	var frames protocol.FrameBuffer
	buf := make([]byte, readBufferSize)

	for c.connected.Load() {
		n, err := c.conn.Read(buf)
		if err != nil {
			// Only an unexpected drop is an error; Disconnect clears
			// the flag before closing the socket.
			if c.connected.Swap(false) {
				c.fireError("connection lost: " + err.Error())
			}
			return
		}
		frames.Append(buf[:n])

		for {
			msg, err := frames.Next()
			if err != nil {
				if errors.Is(err, protocol.ErrFrameTooLarge) {
					c.connected.Store(false)
					c.fireError(err.Error())
					return
				}
				c.logger.Debug("skipping malformed frame", "error", err)
				continue
			}
			if msg == nil {
				break
			}
			c.apply(msg)
		}
	}
}

// apply folds one received message into the local mirror, then invokes the
// matching callback.
func (c *Client) apply(msg *protocol.Message) {
	payload, err := msg.Payload()
	if err != nil {
		c.logger.Debug("skipping undecodable payload", "type", msg.Type, "error", err)
		return
	}

	switch data := payload.(type) {
	case protocol.WelcomeData:
		c.mu.Lock()
		c.sessionID = data.SessionID
		c.users = append([]string(nil), data.Users...)
		c.mu.Unlock()
		if !c.welcomed.Swap(true) {
			close(c.welcomeCh)
		}

	case protocol.UserListData:
		c.applyUserList(data)

	case protocol.SyncData:
		c.applySync(data)
		if c.OnSync != nil {
			c.OnSync()
		}

	case protocol.PixelData:
		c.mu.Lock()
		// A transparent pixel is an erase (undo restoration); blending
		// it would be a no-op and the mirror would never converge.
		if data.Color.IsTransparent() {
			c.canvas.SetPixelSolid(data.X, data.Y, data.Color)
		} else {
			c.canvas.SetPixel(data.X, data.Y, data.Color)
		}
		c.mu.Unlock()
		if c.OnPixelChange != nil {
			c.OnPixelChange(data.X, data.Y, data.Color, msg.Sender)
		}

	case protocol.CursorData:
		c.mu.Lock()
		c.cursors[msg.Sender] = [2]int{data.X, data.Y}
		c.mu.Unlock()
		if c.OnCursorMove != nil {
			c.OnCursorMove(msg.Sender, data.X, data.Y)
		}

	case protocol.ChatData:
		c.mu.Lock()
		c.chat = append(c.chat, collab.ChatEntry{
			Username: msg.Sender,
			Text:     data.Text,
			Time:     msg.Time(),
		})
		c.mu.Unlock()
		if c.OnChat != nil {
			c.OnChat(msg.Sender, data.Text)
		}

	case protocol.ErrorData:
		// A rejection before WELCOME fails the pending Connect.
		select {
		case c.joinErrCh <- fmt.Errorf("join rejected: %s", data.Error):
		default:
		}
		c.fireError(data.Error)
	}
}

func (c *Client) applyUserList(data protocol.UserListData) {
	c.mu.Lock()
	oldUsers := make(map[string]bool, len(c.users))
	for _, name := range c.users {
		oldUsers[name] = true
	}
	newUsers := make(map[string]bool, len(data.Users))
	for _, name := range data.Users {
		newUsers[name] = true
	}
	c.users = append([]string(nil), data.Users...)
	c.mu.Unlock()

	// Joins and leaves are the set difference between the lists.
	for _, name := range data.Users {
		if !oldUsers[name] && name != c.username && c.OnUserJoin != nil {
			c.OnUserJoin(name)
		}
	}
	for name := range oldUsers {
		if !newUsers[name] && c.OnUserLeave != nil {
			c.OnUserLeave(name)
		}
	}
}

func (c *Client) applySync(data protocol.SyncData) {
	width, height := data.Width, data.Height

	c.mu.Lock()
	if width <= 0 {
		width = c.canvas.Width()
	}
	if height <= 0 {
		height = c.canvas.Height()
	}
	mirror := canvas.New(width, height)
	for key, color := range data.Pixels {
		x, y, err := collab.ParsePixelKey(key)
		if err != nil {
			continue
		}
		mirror.SetPixelSolid(x, y, color)
	}
	c.canvas = mirror
	c.mu.Unlock()
}

// Canvas operations

// SetPixel blends a color onto the local mirror and sends the change.
func (c *Client) SetPixel(x, y int, color collab.Color) bool {
	c.mu.Lock()
	c.canvas.SetPixel(x, y, color)
	c.mu.Unlock()

	return c.send(protocol.NewPixel(x, y, color, c.username))
}

// GetPixel reads a pixel from the local mirror.
func (c *Client) GetPixel(x, y int) collab.Color {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.canvas.GetPixel(x, y)
}

// CanvasSnapshot returns a deep copy of the local mirror.
func (c *Client) CanvasSnapshot() *canvas.Canvas {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.canvas.Clone()
}

// ClearCanvas blanks the local mirror and sends a clear request.
func (c *Client) ClearCanvas() bool {
	c.mu.Lock()
	c.canvas.Clear()
	c.mu.Unlock()

	return c.send(protocol.NewClear(c.username))
}

// Cursor

// UpdateCursor sends this client's cursor position.
func (c *Client) UpdateCursor(x, y int) bool {
	return c.send(protocol.NewCursor(x, y, c.username))
}

// Cursors returns the known cursor positions of other users.
func (c *Client) Cursors() map[string][2]int {
	c.mu.Lock()
	defer c.mu.Unlock()
	cursors := make(map[string][2]int, len(c.cursors))
	for name, pos := range c.cursors {
		cursors[name] = pos
	}
	return cursors
}

// Chat

// SendChat sends a chat message. The local log gains the entry only when
// the server echoes it back.
func (c *Client) SendChat(text string) bool {
	return c.send(protocol.NewChat(text, c.username))
}

// ChatLog returns a copy of the received chat entries.
func (c *Client) ChatLog() []collab.ChatEntry {
	c.mu.Lock()
	defer c.mu.Unlock()
	entries := make([]collab.ChatEntry, len(c.chat))
	copy(entries, c.chat)
	return entries
}

// History

// Undo requests an undo of the most recent session action.
func (c *Client) Undo() bool {
	return c.send(protocol.NewUndo(c.username))
}

// Redo requests a redo.
func (c *Client) Redo() bool {
	return c.send(protocol.NewRedo(c.username))
}

// Session info

// Users returns the last received user list.
func (c *Client) Users() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]string(nil), c.users...)
}

// SessionID returns the id from the server's WELCOME, empty before then.
func (c *Client) SessionID() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.sessionID
}

// send encodes and writes one frame, reporting success. Transport failures
// are surfaced as false; the reader notices the dead connection separately.
func (c *Client) send(msg *protocol.Message) bool {
	if !c.connected.Load() || c.conn == nil {
		return false
	}

	frame, err := protocol.Encode(msg)
	if err != nil {
		return false
	}

	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	if _, err := c.conn.Write(frame); err != nil {
		return false
	}
	return true
}

func (c *Client) fireError(errText string) {
	if c.OnError != nil {
		c.OnError(errText)
	}
}
