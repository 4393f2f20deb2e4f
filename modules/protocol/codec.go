package protocol

import (
	"encoding/binary"
	"encoding/json"
	"errors"
	"fmt"
)

// ErrFrameTooLarge is returned when a frame announces a body larger than
// MaxFrameSize. The stream cannot be resynchronized after this.
var ErrFrameTooLarge = errors.New("frame exceeds maximum size")

// headerSize is the length prefix: a 4-byte big-endian unsigned frame length.
const headerSize = 4

// MaxFrameSize bounds a single frame's body. A peer announcing a larger
// frame is treated as a transport failure and disconnected.
const MaxFrameSize = 16 << 20

// Encode serializes a message into one wire frame: a 4-byte big-endian
// length followed by the UTF-8 JSON body.
func Encode(msg *Message) ([]byte, error) {
	body, err := json.Marshal(msg)
	if err != nil {
		return nil, fmt.Errorf("encode %s message: %w", msg.Type, err)
	}
	frame := make([]byte, headerSize+len(body))
	binary.BigEndian.PutUint32(frame, uint32(len(body)))
	copy(frame[headerSize:], body)
	return frame, nil
}

// Decode parses one frame from the front of data. When data holds less than
// a complete frame it returns (nil, 0, nil); the caller keeps accumulating.
// n is the number of bytes consumed on success or on a malformed body.
func Decode(data []byte) (msg *Message, n int, err error) {
	if len(data) < headerSize {
		return nil, 0, nil
	}
	length := binary.BigEndian.Uint32(data)
	if length > MaxFrameSize {
		return nil, 0, fmt.Errorf("frame length %d: %w", length, ErrFrameTooLarge)
	}
	total := headerSize + int(length)
	if len(data) < total {
		return nil, 0, nil
	}

	var decoded Message
	if err := json.Unmarshal(data[headerSize:total], &decoded); err != nil {
		return nil, total, fmt.Errorf("decode frame body: %w", err)
	}
	return &decoded, total, nil
}

// FrameBuffer accumulates bytes from a stream and splits out complete
// frames. Reads can land on any byte boundary; Next only yields once a full
// frame is buffered.
type FrameBuffer struct {
	buf []byte
}

// Append adds received bytes to the buffer.
func (b *FrameBuffer) Append(p []byte) {
	b.buf = append(b.buf, p...)
}

// Next returns the next complete message, or (nil, nil) when the buffer does
// not yet hold a full frame. A malformed frame body is consumed and reported
// as an error; the stream remains usable. An oversized frame announcement is
// unrecoverable and the caller should drop the connection.
func (b *FrameBuffer) Next() (*Message, error) {
	msg, n, err := Decode(b.buf)
	if n > 0 {
		b.buf = b.buf[n:]
	}
	if err != nil {
		return nil, err
	}
	return msg, nil
}

// Len returns the number of buffered bytes.
func (b *FrameBuffer) Len() int {
	return len(b.buf)
}
