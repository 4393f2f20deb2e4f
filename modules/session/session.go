// Package session implements the collaborative session state: users, the
// shared drawing surface, bounded undo/redo history and the chat log.
package session

import (
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/WanderlustCoder/Bitsy-sub000/domain/collab"
	"github.com/WanderlustCoder/Bitsy-sub000/modules/history"
)

const (
	// maxChatHistory bounds the chat log; the oldest entry is evicted.
	maxChatHistory = 100
)

// Surface is the canvas collaborator contract. GetPixel returns transparent
// for out-of-range coordinates, SetPixel alpha-blends, SetPixelSolid
// overwrites without blending (required for exact undo/redo restoration).
type Surface interface {
	Width() int
	Height() int
	GetPixel(x, y int) collab.Color
	SetPixel(x, y int, color collab.Color)
	SetPixelSolid(x, y int, color collab.Color)
	Clear()
}

// Session is one collaborative editing session: a shared surface, the set of
// connected users, undo/redo history and a bounded chat log. All mutating
// operations are serialized by an internal lock; observers fire after the
// lock is released.
type Session struct {
	id        string
	surface   Surface
	createdAt time.Time

	mu      sync.RWMutex
	users   map[string]*collab.User
	order   []string // usernames in join order
	history *history.History[collab.PixelAction]
	chat    []collab.ChatEntry

	observers observers
}

// New creates a session owning the given surface. The surface is shared by
// reference and never copied on write.
func New(surface Surface) *Session {
	return &Session{
		id:        uuid.New().String()[:8],
		surface:   surface,
		createdAt: time.Now(),
		users:     make(map[string]*collab.User),
		history:   history.New[collab.PixelAction](0),
	}
}

// ID returns the session identifier.
func (s *Session) ID() string { return s.id }

// CreatedAt returns the session creation time.
func (s *Session) CreatedAt() time.Time { return s.createdAt }

// Size returns the surface dimensions.
func (s *Session) Size() (width, height int) {
	return s.surface.Width(), s.surface.Height()
}

// User management

// AddUser registers a new user. Usernames are unique within the session.
func (s *Session) AddUser(username string) (collab.User, error) {
	if username == "" {
		return collab.User{}, collab.ErrUsernameEmpty
	}

	s.mu.Lock()
	if _, exists := s.users[username]; exists {
		s.mu.Unlock()
		return collab.User{}, fmt.Errorf("%w: %s", collab.ErrDuplicateUser, username)
	}
	user := &collab.User{Username: username, ConnectedAt: time.Now()}
	s.users[username] = user
	s.order = append(s.order, username)
	snapshot := *user
	s.mu.Unlock()

	s.observers.notifyJoin(snapshot)
	return snapshot, nil
}

// RemoveUser removes a user. It is idempotent and reports whether a user was
// actually removed.
func (s *Session) RemoveUser(username string) bool {
	s.mu.Lock()
	user, exists := s.users[username]
	if !exists {
		s.mu.Unlock()
		return false
	}
	delete(s.users, username)
	for i, name := range s.order {
		if name == username {
			s.order = append(s.order[:i], s.order[i+1:]...)
			break
		}
	}
	snapshot := *user
	s.mu.Unlock()

	s.observers.notifyLeave(snapshot)
	return true
}

// GetUser returns a copy of the named user.
func (s *Session) GetUser(username string) (collab.User, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	user, exists := s.users[username]
	if !exists {
		return collab.User{}, false
	}
	return *user, true
}

// Users returns connected usernames in join order.
func (s *Session) Users() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	users := make([]string, len(s.order))
	copy(users, s.order)
	return users
}

// UserCount returns the number of connected users.
func (s *Session) UserCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.users)
}

// Canvas operations

// SetPixel blends a color onto the surface at (x, y) for the given user.
// Out-of-range coordinates are rejected with false. When record is true the
// change is pushed onto the undo history with both its old and new color.
func (s *Session) SetPixel(x, y int, color collab.Color, username string, record bool) bool {
	s.mu.Lock()
	if x < 0 || x >= s.surface.Width() || y < 0 || y >= s.surface.Height() {
		s.mu.Unlock()
		return false
	}

	oldColor := s.surface.GetPixel(x, y)
	s.surface.SetPixel(x, y, color)

	if record {
		old, next := oldColor, color
		s.history.Push(collab.PixelAction{
			X:         x,
			Y:         y,
			OldColor:  &old,
			NewColor:  &next,
			Username:  username,
			Timestamp: time.Now(),
		})
	}
	s.mu.Unlock()

	s.observers.notifyPixel(x, y, color, username)
	return true
}

// ClearCanvas blanks the surface. Every currently visible pixel is first
// recorded as its own history action so the clear can be undone pixel by
// pixel.
func (s *Session) ClearCanvas(username string) {
	s.mu.Lock()
	width, height := s.surface.Width(), s.surface.Height()
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			color := s.surface.GetPixel(x, y)
			if color.IsTransparent() {
				continue
			}
			old := color
			s.history.Push(collab.PixelAction{
				X:         x,
				Y:         y,
				OldColor:  &old,
				NewColor:  nil,
				Username:  username,
				Timestamp: time.Now(),
			})
		}
	}
	s.surface.Clear()
	s.mu.Unlock()

	s.observers.notifyClear(username)
}

// CanvasState returns the sparse canvas representation: every pixel with
// alpha > 0, keyed "x,y". This is the SYNC wire shape.
func (s *Session) CanvasState() map[string]collab.Color {
	s.mu.RLock()
	defer s.mu.RUnlock()

	pixels := make(map[string]collab.Color)
	width, height := s.surface.Width(), s.surface.Height()
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			color := s.surface.GetPixel(x, y)
			if !color.IsTransparent() {
				pixels[collab.PixelKey(x, y)] = color
			}
		}
	}
	return pixels
}

// LoadCanvasState replaces the surface contents with a sparse state map.
// Pixels are written with the solid setter so semi-transparent colors
// round-trip exactly through a SYNC.
func (s *Session) LoadCanvasState(pixels map[string]collab.Color) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.surface.Clear()
	for key, color := range pixels {
		x, y, err := collab.ParsePixelKey(key)
		if err != nil {
			continue
		}
		s.surface.SetPixelSolid(x, y, color)
	}
}

// History operations

// Undo reverts the most recent action by writing its old color back with the
// solid setter, bypassing alpha blending. Returns the action when one was
// undone.
func (s *Session) Undo(username string) (collab.PixelAction, bool) {
	s.mu.Lock()
	action, ok := s.history.Undo()
	if !ok {
		s.mu.Unlock()
		return collab.PixelAction{}, false
	}
	restored := collab.ColorOrTransparent(action.OldColor)
	s.surface.SetPixelSolid(action.X, action.Y, restored)
	s.mu.Unlock()

	s.observers.notifyPixel(action.X, action.Y, restored, username)
	return action, true
}

// Redo reapplies the most recently undone action, also with the solid
// setter.
func (s *Session) Redo(username string) (collab.PixelAction, bool) {
	s.mu.Lock()
	action, ok := s.history.Redo()
	if !ok {
		s.mu.Unlock()
		return collab.PixelAction{}, false
	}
	restored := collab.ColorOrTransparent(action.NewColor)
	s.surface.SetPixelSolid(action.X, action.Y, restored)
	s.mu.Unlock()

	s.observers.notifyPixel(action.X, action.Y, restored, username)
	return action, true
}

// CanUndo reports whether an undo is available.
func (s *Session) CanUndo() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.history.CanUndo()
}

// CanRedo reports whether a redo is available.
func (s *Session) CanRedo() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.history.CanRedo()
}

// HistoryDepth returns the current undo stack depth.
func (s *Session) HistoryDepth() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.history.Len()
}

// Cursor tracking

// UpdateCursor records a user's cursor position. Unknown users are a no-op.
func (s *Session) UpdateCursor(username string, x, y int) {
	s.mu.Lock()
	user, exists := s.users[username]
	if !exists {
		s.mu.Unlock()
		return
	}
	user.CursorX = x
	user.CursorY = y
	s.mu.Unlock()

	s.observers.notifyCursor(username, x, y)
}

// Cursors returns every user's cursor position keyed by username.
func (s *Session) Cursors() map[string][2]int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	cursors := make(map[string][2]int, len(s.users))
	for name, user := range s.users {
		cursors[name] = [2]int{user.CursorX, user.CursorY}
	}
	return cursors
}

// Chat

// AddChat appends a chat entry, evicting beyond the 100-entry cap.
func (s *Session) AddChat(username, text string) {
	s.mu.Lock()
	s.chat = append(s.chat, collab.ChatEntry{Username: username, Text: text, Time: time.Now()})
	if len(s.chat) > maxChatHistory {
		s.chat = s.chat[len(s.chat)-maxChatHistory:]
	}
	s.mu.Unlock()

	s.observers.notifyChat(username, text)
}

// ChatHistory returns the most recent entries, newest last. A non-positive
// limit returns everything retained.
func (s *Session) ChatHistory(limit int) []collab.ChatEntry {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if limit <= 0 || limit > len(s.chat) {
		limit = len(s.chat)
	}
	entries := make([]collab.ChatEntry, limit)
	copy(entries, s.chat[len(s.chat)-limit:])
	return entries
}

// sortedCopy is used by health details where a stable order reads better.
func sortedCopy(names []string) []string {
	out := make([]string, len(names))
	copy(out, names)
	sort.Strings(out)
	return out
}
