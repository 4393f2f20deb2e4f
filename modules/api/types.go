package api

import (
	"time"

	"github.com/WanderlustCoder/Bitsy-sub000/domain/collab"
)

// SessionResponse describes the hosted session.
type SessionResponse struct {
	SessionID     string    `json:"session_id"`
	Users         []string  `json:"users"`
	UserCount     int       `json:"user_count"`
	CreatedAt     time.Time `json:"created_at"`
	UptimeSeconds float64   `json:"uptime_seconds"`
	HistoryDepth  int       `json:"history_depth"`
	CanUndo       bool      `json:"can_undo"`
	CanRedo       bool      `json:"can_redo"`
}

// CanvasResponse is the sparse canvas state.
type CanvasResponse struct {
	Width  int                     `json:"width"`
	Height int                     `json:"height"`
	Pixels map[string]collab.Color `json:"pixels"`
}

// ChatMessageResponse is one chat log entry.
type ChatMessageResponse struct {
	Username string    `json:"username"`
	Text     string    `json:"text"`
	Time     time.Time `json:"time"`
}

// ActivityEntry is one item in the activity feed built from collab events.
type ActivityEntry struct {
	Kind      string    `json:"kind"`
	Username  string    `json:"username"`
	Detail    string    `json:"detail,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}
