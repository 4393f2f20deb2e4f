package session

import (
	"sync"

	"github.com/WanderlustCoder/Bitsy-sub000/domain/collab"
)

// Observer function signatures, one per event category.
type (
	// PixelFunc receives every pixel change, including undo/redo
	// restorations.
	PixelFunc func(x, y int, color collab.Color, username string)
	// UserFunc receives user join/leave events.
	UserFunc func(user collab.User)
	// ChatFunc receives appended chat messages.
	ChatFunc func(username, text string)
	// CursorFunc receives cursor movements.
	CursorFunc func(username string, x, y int)
	// ClearFunc receives canvas clears.
	ClearFunc func(username string)
)

// observers holds the per-category subscriber lists. Any number of
// subscribers may register for each category; dispatch is synchronous and in
// registration order.
type observers struct {
	mu     sync.RWMutex
	pixel  []PixelFunc
	join   []UserFunc
	leave  []UserFunc
	chat   []ChatFunc
	cursor []CursorFunc
	clear  []ClearFunc
}

// OnPixelChange subscribes to pixel changes.
func (s *Session) OnPixelChange(fn PixelFunc) {
	s.observers.mu.Lock()
	defer s.observers.mu.Unlock()
	s.observers.pixel = append(s.observers.pixel, fn)
}

// OnUserJoin subscribes to user joins.
func (s *Session) OnUserJoin(fn UserFunc) {
	s.observers.mu.Lock()
	defer s.observers.mu.Unlock()
	s.observers.join = append(s.observers.join, fn)
}

// OnUserLeave subscribes to user leaves.
func (s *Session) OnUserLeave(fn UserFunc) {
	s.observers.mu.Lock()
	defer s.observers.mu.Unlock()
	s.observers.leave = append(s.observers.leave, fn)
}

// OnChat subscribes to chat messages.
func (s *Session) OnChat(fn ChatFunc) {
	s.observers.mu.Lock()
	defer s.observers.mu.Unlock()
	s.observers.chat = append(s.observers.chat, fn)
}

// OnCursorMove subscribes to cursor movements.
func (s *Session) OnCursorMove(fn CursorFunc) {
	s.observers.mu.Lock()
	defer s.observers.mu.Unlock()
	s.observers.cursor = append(s.observers.cursor, fn)
}

// OnClear subscribes to canvas clears.
func (s *Session) OnClear(fn ClearFunc) {
	s.observers.mu.Lock()
	defer s.observers.mu.Unlock()
	s.observers.clear = append(s.observers.clear, fn)
}

func (o *observers) notifyPixel(x, y int, color collab.Color, username string) {
	o.mu.RLock()
	subscribers := o.pixel
	o.mu.RUnlock()
	for _, fn := range subscribers {
		fn(x, y, color, username)
	}
}

func (o *observers) notifyJoin(user collab.User) {
	o.mu.RLock()
	subscribers := o.join
	o.mu.RUnlock()
	for _, fn := range subscribers {
		fn(user)
	}
}

func (o *observers) notifyLeave(user collab.User) {
	o.mu.RLock()
	subscribers := o.leave
	o.mu.RUnlock()
	for _, fn := range subscribers {
		fn(user)
	}
}

func (o *observers) notifyChat(username, text string) {
	o.mu.RLock()
	subscribers := o.chat
	o.mu.RUnlock()
	for _, fn := range subscribers {
		fn(username, text)
	}
}

func (o *observers) notifyCursor(username string, x, y int) {
	o.mu.RLock()
	subscribers := o.cursor
	o.mu.RUnlock()
	for _, fn := range subscribers {
		fn(username, x, y)
	}
}

func (o *observers) notifyClear(username string) {
	o.mu.RLock()
	subscribers := o.clear
	o.mu.RUnlock()
	for _, fn := range subscribers {
		fn(username)
	}
}
