// Package protocol defines the wire protocol for collaborative sessions:
// the message model, typed payloads, and the length-prefixed frame codec.
package protocol

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/WanderlustCoder/Bitsy-sub000/domain/collab"
)

// MessageType identifies a protocol message.
type MessageType string

// Protocol message types.
const (
	// Connection
	TypeJoin     MessageType = "join"
	TypeLeave    MessageType = "leave"
	TypeWelcome  MessageType = "welcome"
	TypeUserList MessageType = "user_list"

	// Canvas
	TypePixel MessageType = "pixel"
	TypeClear MessageType = "clear"
	TypeSync  MessageType = "sync"

	// Cursor
	TypeCursor MessageType = "cursor"

	// Chat
	TypeChat MessageType = "chat"

	// History
	TypeUndo MessageType = "undo"
	TypeRedo MessageType = "redo"

	// Errors
	TypeError MessageType = "error"
)

// Message is one protocol message. Data holds the raw JSON payload; Payload
// decodes it into the typed struct matching Type. Timestamp is epoch seconds.
type Message struct {
	Type      MessageType     `json:"type"`
	Data      json.RawMessage `json:"data"`
	Sender    string          `json:"sender"`
	Timestamp float64         `json:"timestamp"`
}

// Typed payloads, one per message type.

// JoinData is the payload of a join request.
type JoinData struct {
	Username string `json:"username"`
}

// LeaveData is the payload of a leave notification.
type LeaveData struct {
	Username string `json:"username"`
}

// WelcomeData is sent to a newly joined connection.
type WelcomeData struct {
	SessionID string   `json:"session_id"`
	Users     []string `json:"users"`
}

// UserListData carries the full current user list.
type UserListData struct {
	Users []string `json:"users"`
}

// PixelData is a single pixel change.
type PixelData struct {
	X     int          `json:"x"`
	Y     int          `json:"y"`
	Color collab.Color `json:"color"`
}

// ClearData is the (empty) payload of a canvas clear request.
type ClearData struct{}

// SyncData is a full canvas state: a sparse map of "x,y" keys to colors,
// omitting fully transparent pixels.
type SyncData struct {
	Width  int                     `json:"width"`
	Height int                     `json:"height"`
	Pixels map[string]collab.Color `json:"pixels"`
}

// CursorData is a cursor position update.
type CursorData struct {
	X int `json:"x"`
	Y int `json:"y"`
}

// ChatData is a chat message.
type ChatData struct {
	Text string `json:"text"`
}

// UndoData is the (empty) payload of an undo request.
type UndoData struct{}

// RedoData is the (empty) payload of a redo request.
type RedoData struct{}

// ErrorData carries an error description.
type ErrorData struct {
	Error string `json:"error"`
}

// Payload decodes Data into the typed payload for the message's type.
// Unrecognized types return (nil, nil); handlers drop those messages.
func (m *Message) Payload() (any, error) {
	switch m.Type {
	case TypeJoin:
		return decodeAs[JoinData](m)
	case TypeLeave:
		return decodeAs[LeaveData](m)
	case TypeWelcome:
		return decodeAs[WelcomeData](m)
	case TypeUserList:
		return decodeAs[UserListData](m)
	case TypePixel:
		return decodeAs[PixelData](m)
	case TypeClear:
		return decodeAs[ClearData](m)
	case TypeSync:
		return decodeAs[SyncData](m)
	case TypeCursor:
		return decodeAs[CursorData](m)
	case TypeChat:
		return decodeAs[ChatData](m)
	case TypeUndo:
		return decodeAs[UndoData](m)
	case TypeRedo:
		return decodeAs[RedoData](m)
	case TypeError:
		return decodeAs[ErrorData](m)
	default:
		return nil, nil
	}
}

// Time converts the wire timestamp (epoch seconds) into a time.Time.
func (m *Message) Time() time.Time {
	sec := int64(m.Timestamp)
	nsec := int64((m.Timestamp - float64(sec)) * 1e9)
	return time.Unix(sec, nsec)
}

func decodeAs[T any](m *Message) (T, error) {
	var payload T
	if len(m.Data) == 0 {
		return payload, nil
	}
	if err := json.Unmarshal(m.Data, &payload); err != nil {
		return payload, fmt.Errorf("decode %s payload: %w", m.Type, err)
	}
	return payload, nil
}

// now returns the current time as epoch seconds, the wire timestamp format.
func now() float64 {
	return float64(time.Now().UnixNano()) / 1e9
}

func newMessage(msgType MessageType, payload any, sender string) *Message {
	data, err := json.Marshal(payload)
	if err != nil {
		// Payload structs are plain data; marshalling cannot fail for them.
		data = []byte("{}")
	}
	return &Message{
		Type:      msgType,
		Data:      data,
		Sender:    sender,
		Timestamp: now(),
	}
}

// Message factories, one per canonical shape.

// NewJoin creates a join request.
func NewJoin(username string) *Message {
	return newMessage(TypeJoin, JoinData{Username: username}, username)
}

// NewLeave creates a leave notification.
func NewLeave(username string) *Message {
	return newMessage(TypeLeave, LeaveData{Username: username}, username)
}

// NewWelcome creates the welcome sent to a new connection.
func NewWelcome(sessionID string, users []string) *Message {
	return newMessage(TypeWelcome, WelcomeData{SessionID: sessionID, Users: users}, "")
}

// NewUserList creates a user list update.
func NewUserList(users []string) *Message {
	return newMessage(TypeUserList, UserListData{Users: users}, "")
}

// NewPixel creates a pixel change message.
func NewPixel(x, y int, color collab.Color, username string) *Message {
	return newMessage(TypePixel, PixelData{X: x, Y: y, Color: color}, username)
}

// NewClear creates a canvas clear request.
func NewClear(username string) *Message {
	return newMessage(TypeClear, ClearData{}, username)
}

// NewSync creates a full canvas sync. pixels maps "x,y" keys to colors.
func NewSync(width, height int, pixels map[string]collab.Color) *Message {
	if pixels == nil {
		pixels = map[string]collab.Color{}
	}
	return newMessage(TypeSync, SyncData{Width: width, Height: height, Pixels: pixels}, "")
}

// NewCursor creates a cursor position update.
func NewCursor(x, y int, username string) *Message {
	return newMessage(TypeCursor, CursorData{X: x, Y: y}, username)
}

// NewChat creates a chat message.
func NewChat(text, username string) *Message {
	return newMessage(TypeChat, ChatData{Text: text}, username)
}

// NewUndo creates an undo request.
func NewUndo(username string) *Message {
	return newMessage(TypeUndo, UndoData{}, username)
}

// NewRedo creates a redo request.
func NewRedo(username string) *Message {
	return newMessage(TypeRedo, RedoData{}, username)
}

// NewError creates an error message.
func NewError(errText string) *Message {
	return newMessage(TypeError, ErrorData{Error: errText}, "")
}
