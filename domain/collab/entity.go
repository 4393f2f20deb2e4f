package collab

import "time"

// User is a participant in a collaborative session. Usernames are unique
// within a session.
type User struct {
	Username    string    `json:"username"`
	CursorX     int       `json:"cursor_x"`
	CursorY     int       `json:"cursor_y"`
	ConnectedAt time.Time `json:"connected_at"`
}

// PixelAction records a single pixel change for undo/redo. Both sides of the
// change are stored so restoration never recomputes blended state; a nil
// color means the pixel did not exist (transparent).
type PixelAction struct {
	X         int       `json:"x"`
	Y         int       `json:"y"`
	OldColor  *Color    `json:"old_color"`
	NewColor  *Color    `json:"new_color"`
	Username  string    `json:"username"`
	Timestamp time.Time `json:"timestamp"`
}

// ChatEntry is one message in a session's chat log.
type ChatEntry struct {
	Username string    `json:"username"`
	Text     string    `json:"text"`
	Time     time.Time `json:"time"`
}
