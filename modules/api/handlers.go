package api

import (
	"sync"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/WanderlustCoder/Bitsy-sub000/modules/session"
)

// maxActivityEntries bounds the activity feed; the oldest entry is evicted.
const maxActivityEntries = 200

// Handlers serves the read-only HTTP surface over the session.
type Handlers struct {
	sess *session.Session

	mu       sync.RWMutex
	activity []ActivityEntry
}

// NewHandlers creates handlers for a session.
func NewHandlers(sess *session.Session) *Handlers {
	return &Handlers{sess: sess}
}

// HealthCheck reports liveness.
func (h *Handlers) HealthCheck(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"status":     "ok",
		"session_id": h.sess.ID(),
	})
}

// GetSession returns session metadata and user state.
func (h *Handlers) GetSession(c *fiber.Ctx) error {
	users := h.sess.Users()
	return c.JSON(SessionResponse{
		SessionID:     h.sess.ID(),
		Users:         users,
		UserCount:     len(users),
		CreatedAt:     h.sess.CreatedAt(),
		UptimeSeconds: time.Since(h.sess.CreatedAt()).Seconds(),
		HistoryDepth:  h.sess.HistoryDepth(),
		CanUndo:       h.sess.CanUndo(),
		CanRedo:       h.sess.CanRedo(),
	})
}

// GetCanvas returns the sparse canvas state.
func (h *Handlers) GetCanvas(c *fiber.Ctx) error {
	width, height := h.sess.Size()
	return c.JSON(CanvasResponse{
		Width:  width,
		Height: height,
		Pixels: h.sess.CanvasState(),
	})
}

// GetChat returns recent chat history, newest last. ?limit= caps the count.
func (h *Handlers) GetChat(c *fiber.Ctx) error {
	limit := c.QueryInt("limit", 50)
	entries := h.sess.ChatHistory(limit)

	messages := make([]ChatMessageResponse, len(entries))
	for i, entry := range entries {
		messages[i] = ChatMessageResponse{
			Username: entry.Username,
			Text:     entry.Text,
			Time:     entry.Time,
		}
	}
	return c.JSON(fiber.Map{"messages": messages})
}

// GetActivity returns the bounded feed of collab events, newest last.
func (h *Handlers) GetActivity(c *fiber.Ctx) error {
	h.mu.RLock()
	entries := make([]ActivityEntry, len(h.activity))
	copy(entries, h.activity)
	h.mu.RUnlock()

	return c.JSON(fiber.Map{"activity": entries})
}

// recordActivity appends a feed entry, evicting beyond the cap.
func (h *Handlers) recordActivity(entry ActivityEntry) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.activity = append(h.activity, entry)
	if len(h.activity) > maxActivityEntries {
		h.activity = h.activity[len(h.activity)-maxActivityEntries:]
	}
}
