// Package events defines the collab domain events published on the
// application event bus.
package events

import (
	"time"

	"github.com/go-monolith/mono/pkg/helper"

	"github.com/WanderlustCoder/Bitsy-sub000/domain/collab"
)

// PixelDrawnEvent is emitted for every pixel change on the shared canvas,
// including undo/redo restorations.
type PixelDrawnEvent struct {
	X         int          `json:"x"`
	Y         int          `json:"y"`
	Color     collab.Color `json:"color"`
	Username  string       `json:"username"`
	Timestamp time.Time    `json:"timestamp"`
}

// UserJoinedEvent is emitted when a user joins the session.
type UserJoinedEvent struct {
	Username  string    `json:"username"`
	Timestamp time.Time `json:"timestamp"`
}

// UserLeftEvent is emitted when a user leaves the session.
type UserLeftEvent struct {
	Username  string    `json:"username"`
	Timestamp time.Time `json:"timestamp"`
}

// ChatPostedEvent is emitted when a chat message is appended.
type ChatPostedEvent struct {
	Username  string    `json:"username"`
	Text      string    `json:"text"`
	Timestamp time.Time `json:"timestamp"`
}

// CanvasClearedEvent is emitted when the canvas is cleared.
type CanvasClearedEvent struct {
	Username  string    `json:"username"`
	Timestamp time.Time `json:"timestamp"`
}

// Event definitions for the collab domain.
var (
	PixelDrawnV1 = helper.EventDefinition[PixelDrawnEvent](
		"collab",
		"PixelDrawn",
		"v1",
	)

	UserJoinedV1 = helper.EventDefinition[UserJoinedEvent](
		"collab",
		"UserJoined",
		"v1",
	)

	UserLeftV1 = helper.EventDefinition[UserLeftEvent](
		"collab",
		"UserLeft",
		"v1",
	)

	ChatPostedV1 = helper.EventDefinition[ChatPostedEvent](
		"collab",
		"ChatPosted",
		"v1",
	)

	CanvasClearedV1 = helper.EventDefinition[CanvasClearedEvent](
		"collab",
		"CanvasCleared",
		"v1",
	)
)
