package protocol

import (
	"encoding/binary"
	"encoding/json"
	"testing"

	"github.com/WanderlustCoder/Bitsy-sub000/domain/collab"
)

var red = collab.Color{255, 0, 0, 255}

func TestEncodeDecode_RoundTrip(t *testing.T) {
	tests := []struct {
		name string
		msg  *Message
	}{
		{"join", NewJoin("alice")},
		{"leave", NewLeave("alice")},
		{"welcome", NewWelcome("abc123", []string{"alice", "bob"})},
		{"user_list", NewUserList([]string{"alice"})},
		{"pixel", NewPixel(10, 20, red, "alice")},
		{"clear", NewClear("alice")},
		{"sync", NewSync(32, 32, map[string]collab.Color{"1,2": red})},
		{"cursor", NewCursor(3, 4, "bob")},
		{"chat", NewChat("hello", "alice")},
		{"undo", NewUndo("alice")},
		{"redo", NewRedo("alice")},
		{"error", NewError("Username taken")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			frame, err := Encode(tt.msg)
			if err != nil {
				t.Fatalf("Encode() error = %v", err)
			}

			decoded, n, err := Decode(frame)
			if err != nil {
				t.Fatalf("Decode() error = %v", err)
			}
			if decoded == nil {
				t.Fatal("Decode() returned nil for a complete frame")
			}
			if n != len(frame) {
				t.Errorf("Decode() consumed %d bytes, want %d", n, len(frame))
			}

			if decoded.Type != tt.msg.Type {
				t.Errorf("Type = %q, want %q", decoded.Type, tt.msg.Type)
			}
			if decoded.Sender != tt.msg.Sender {
				t.Errorf("Sender = %q, want %q", decoded.Sender, tt.msg.Sender)
			}
			if string(decoded.Data) != string(tt.msg.Data) {
				t.Errorf("Data = %s, want %s", decoded.Data, tt.msg.Data)
			}
		})
	}
}

func TestDecode_IncompleteAtEverySplit(t *testing.T) {
	frame, err := Encode(NewChat("hello world", "alice"))
	if err != nil {
		t.Fatalf("Encode() error = %v", err)
	}

	for cut := 0; cut < len(frame); cut++ {
		msg, n, err := Decode(frame[:cut])
		if err != nil {
			t.Fatalf("Decode() at split %d: unexpected error %v", cut, err)
		}
		if msg != nil || n != 0 {
			t.Fatalf("Decode() at split %d = (%v, %d), want incomplete", cut, msg, n)
		}
	}

	msg, _, err := Decode(frame)
	if err != nil || msg == nil {
		t.Fatalf("Decode() of complete frame = (%v, %v)", msg, err)
	}
	if msg.Type != TypeChat {
		t.Errorf("Type = %q, want %q", msg.Type, TypeChat)
	}
}

func TestDecode_UnknownTypeIsIgnorable(t *testing.T) {
	raw := &Message{Type: "teleport", Data: json.RawMessage(`{"dest":"moon"}`)}
	frame, err := Encode(raw)
	if err != nil {
		t.Fatalf("Encode() error = %v", err)
	}

	decoded, _, err := Decode(frame)
	if err != nil {
		t.Fatalf("Decode() of unknown type should not fail: %v", err)
	}

	payload, err := decoded.Payload()
	if err != nil {
		t.Fatalf("Payload() of unknown type should not fail: %v", err)
	}
	if payload != nil {
		t.Errorf("Payload() = %v, want nil for unknown type", payload)
	}
}

func TestDecode_MalformedBody(t *testing.T) {
	body := []byte("{not json")
	frame := make([]byte, 4+len(body))
	binary.BigEndian.PutUint32(frame, uint32(len(body)))
	copy(frame[4:], body)

	_, n, err := Decode(frame)
	if err == nil {
		t.Fatal("Decode() of malformed body should fail")
	}
	if n != len(frame) {
		t.Errorf("Decode() consumed %d bytes, want %d (frame must be skipped)", n, len(frame))
	}
}

func TestDecode_OversizedFrame(t *testing.T) {
	frame := make([]byte, 4)
	binary.BigEndian.PutUint32(frame, MaxFrameSize+1)

	_, _, err := Decode(frame)
	if err == nil {
		t.Fatal("Decode() of oversized frame announcement should fail")
	}
}

func TestFrameBuffer_ByteAtATime(t *testing.T) {
	first, _ := Encode(NewPixel(1, 2, red, "alice"))
	second, _ := Encode(NewCursor(5, 6, "bob"))
	stream := append(append([]byte{}, first...), second...)

	var fb FrameBuffer
	var got []*Message
	for _, b := range stream {
		fb.Append([]byte{b})
		for {
			msg, err := fb.Next()
			if err != nil {
				t.Fatalf("Next() error = %v", err)
			}
			if msg == nil {
				break
			}
			got = append(got, msg)
		}
	}

	if len(got) != 2 {
		t.Fatalf("got %d messages, want 2", len(got))
	}
	if got[0].Type != TypePixel || got[1].Type != TypeCursor {
		t.Errorf("types = %q, %q; want pixel, cursor", got[0].Type, got[1].Type)
	}
	if fb.Len() != 0 {
		t.Errorf("FrameBuffer retains %d bytes, want 0", fb.Len())
	}
}

func TestPayload_TypedShapes(t *testing.T) {
	pixel := NewPixel(10, 20, red, "alice")
	payload, err := pixel.Payload()
	if err != nil {
		t.Fatalf("Payload() error = %v", err)
	}
	data, ok := payload.(PixelData)
	if !ok {
		t.Fatalf("Payload() = %T, want PixelData", payload)
	}
	if data.X != 10 || data.Y != 20 || data.Color != red {
		t.Errorf("PixelData = %+v", data)
	}

	sync := NewSync(32, 16, map[string]collab.Color{"3,4": red})
	payload, err = sync.Payload()
	if err != nil {
		t.Fatalf("Payload() error = %v", err)
	}
	syncData, ok := payload.(SyncData)
	if !ok {
		t.Fatalf("Payload() = %T, want SyncData", payload)
	}
	if syncData.Width != 32 || syncData.Height != 16 {
		t.Errorf("SyncData dims = %dx%d", syncData.Width, syncData.Height)
	}
	if syncData.Pixels["3,4"] != red {
		t.Errorf("SyncData.Pixels = %v", syncData.Pixels)
	}

	welcome := NewWelcome("s1", []string{"alice"})
	payload, err = welcome.Payload()
	if err != nil {
		t.Fatalf("Payload() error = %v", err)
	}
	welcomeData, ok := payload.(WelcomeData)
	if !ok {
		t.Fatalf("Payload() = %T, want WelcomeData", payload)
	}
	if welcomeData.SessionID != "s1" || len(welcomeData.Users) != 1 {
		t.Errorf("WelcomeData = %+v", welcomeData)
	}
}

func TestEncode_LengthPrefix(t *testing.T) {
	frame, err := Encode(NewUndo("alice"))
	if err != nil {
		t.Fatalf("Encode() error = %v", err)
	}
	length := binary.BigEndian.Uint32(frame)
	if int(length) != len(frame)-4 {
		t.Errorf("length prefix = %d, want %d", length, len(frame)-4)
	}
}
