package server

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/WanderlustCoder/Bitsy-sub000/domain/collab"
	"github.com/WanderlustCoder/Bitsy-sub000/modules/canvas"
	"github.com/WanderlustCoder/Bitsy-sub000/modules/client"
	"github.com/WanderlustCoder/Bitsy-sub000/modules/session"
)

const (
	waitFor = 5 * time.Second
	tick    = 10 * time.Millisecond
)

var red = collab.Color{255, 0, 0, 255}

// startServer runs a server on an ephemeral port with a 32x32 canvas.
func startServer(t *testing.T) (*Module, string) {
	t.Helper()

	sess := session.New(canvas.New(32, 32))
	m := NewModule("127.0.0.1:0", sess)
	require.NoError(t, m.Start(context.Background()))
	t.Cleanup(func() { _ = m.Stop(context.Background()) })

	return m, m.Addr().String()
}

func connectClient(t *testing.T, addr, username string) *client.Client {
	t.Helper()

	c := client.New(addr, username, 32, 32)
	require.NoError(t, c.Connect(2*time.Second))
	t.Cleanup(c.Disconnect)
	return c
}

// pixelEvent captures an OnPixelChange callback invocation.
type pixelEvent struct {
	x, y   int
	color  collab.Color
	sender string
}

// recorder collects callback invocations across goroutines.
type recorder struct {
	mu     sync.Mutex
	pixels []pixelEvent
	joins  []string
	leaves []string
	errors []string
}

func (r *recorder) attach(c *client.Client) {
	c.OnPixelChange = func(x, y int, color collab.Color, sender string) {
		r.mu.Lock()
		defer r.mu.Unlock()
		r.pixels = append(r.pixels, pixelEvent{x, y, color, sender})
	}
	c.OnUserJoin = func(username string) {
		r.mu.Lock()
		defer r.mu.Unlock()
		r.joins = append(r.joins, username)
	}
	c.OnUserLeave = func(username string) {
		r.mu.Lock()
		defer r.mu.Unlock()
		r.leaves = append(r.leaves, username)
	}
	c.OnError = func(errText string) {
		r.mu.Lock()
		defer r.mu.Unlock()
		r.errors = append(r.errors, errText)
	}
}

func (r *recorder) lastPixel() (pixelEvent, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.pixels) == 0 {
		return pixelEvent{}, false
	}
	return r.pixels[len(r.pixels)-1], true
}

func (r *recorder) joinedUsers() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.joins...)
}

func (r *recorder) leftUsers() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.leaves...)
}

func TestServer_JoinWelcome(t *testing.T) {
	m, addr := startServer(t)

	alice := connectClient(t, addr, "alice")

	assert.Equal(t, m.Session().ID(), alice.SessionID())
	assert.Contains(t, alice.Users(), "alice")
	assert.Equal(t, []string{"alice"}, m.ConnectedUsers())
}

func TestServer_SecondJoinIsAnnounced(t *testing.T) {
	_, addr := startServer(t)

	alice := connectClient(t, addr, "alice")
	rec := &recorder{}
	rec.attach(alice)

	connectClient(t, addr, "bob")

	require.Eventually(t, func() bool {
		users := alice.Users()
		return len(users) == 2
	}, waitFor, tick, "alice never saw bob join")

	assert.Contains(t, rec.joinedUsers(), "bob")
}

func TestServer_PixelPropagation(t *testing.T) {
	// Scenario: alice draws, bob's mirror and callback converge.
	_, addr := startServer(t)

	alice := connectClient(t, addr, "alice")
	bob := client.New(addr, "bob", 32, 32)
	rec := &recorder{}
	rec.attach(bob)
	require.NoError(t, bob.Connect(2*time.Second))
	t.Cleanup(bob.Disconnect)

	require.True(t, alice.SetPixel(10, 10, red))

	require.Eventually(t, func() bool {
		return bob.GetPixel(10, 10) == red
	}, waitFor, tick, "bob's mirror never converged")

	event, ok := rec.lastPixel()
	require.True(t, ok, "bob's pixel callback never fired")
	assert.Equal(t, 10, event.x)
	assert.Equal(t, 10, event.y)
	assert.Equal(t, red, event.color)
	assert.Equal(t, "alice", event.sender)

	// The sender applied it optimistically and gets no echo.
	assert.Equal(t, red, alice.GetPixel(10, 10))
}

func TestServer_ChatEchoIncludesSender(t *testing.T) {
	// Scenario: chat broadcasts to everyone, the sender included.
	_, addr := startServer(t)

	alice := connectClient(t, addr, "alice")
	bob := connectClient(t, addr, "bob")

	require.True(t, alice.SendChat("hi"))

	hasChat := func(c *client.Client) bool {
		for _, entry := range c.ChatLog() {
			if entry.Username == "alice" && entry.Text == "hi" {
				return true
			}
		}
		return false
	}

	require.Eventually(t, func() bool { return hasChat(bob) }, waitFor, tick,
		"bob never received the chat")
	require.Eventually(t, func() bool { return hasChat(alice) }, waitFor, tick,
		"alice never received her own echo")
}

func TestServer_UndoConvergesAllMirrors(t *testing.T) {
	// Scenario: alice draws then undoes; both mirrors revert to transparent.
	_, addr := startServer(t)

	alice := connectClient(t, addr, "alice")
	bob := connectClient(t, addr, "bob")

	require.True(t, alice.SetPixel(5, 5, red))
	require.Eventually(t, func() bool {
		return bob.GetPixel(5, 5) == red
	}, waitFor, tick, "bob never saw the draw")

	require.True(t, alice.Undo())

	require.Eventually(t, func() bool {
		return bob.GetPixel(5, 5) == collab.Transparent
	}, waitFor, tick, "bob's mirror never reverted")
	require.Eventually(t, func() bool {
		return alice.GetPixel(5, 5) == collab.Transparent
	}, waitFor, tick, "alice's mirror never reverted")
}

func TestServer_DuplicateUsernameRejected(t *testing.T) {
	// Scenario: a third client joining as "alice" is rejected and never
	// appears in anyone's user list.
	m, addr := startServer(t)

	alice := connectClient(t, addr, "alice")
	bob := connectClient(t, addr, "bob")

	require.Eventually(t, func() bool {
		return len(alice.Users()) == 2 && len(bob.Users()) == 2
	}, waitFor, tick)

	impostor := client.New(addr, "alice", 32, 32)
	rec := &recorder{}
	rec.attach(impostor)
	err := impostor.Connect(2 * time.Second)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Username taken")
	impostor.Disconnect()

	assert.Len(t, alice.Users(), 2)
	assert.Len(t, bob.Users(), 2)
	assert.Len(t, m.ConnectedUsers(), 2)
}

func TestServer_EmptyUsernameRejected(t *testing.T) {
	_, addr := startServer(t)

	nameless := client.New(addr, "", 32, 32)
	err := nameless.Connect(2 * time.Second)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Username required")
	nameless.Disconnect()
}

func TestServer_DisconnectUpdatesUserList(t *testing.T) {
	m, addr := startServer(t)

	alice := connectClient(t, addr, "alice")
	rec := &recorder{}
	rec.attach(alice)

	bob := connectClient(t, addr, "bob")
	require.Eventually(t, func() bool {
		return len(alice.Users()) == 2
	}, waitFor, tick)

	bob.Disconnect()

	require.Eventually(t, func() bool {
		users := alice.Users()
		return len(users) == 1 && users[0] == "alice"
	}, waitFor, tick, "alice never saw bob leave")

	assert.Contains(t, rec.leftUsers(), "bob")
	assert.Equal(t, []string{"alice"}, m.ConnectedUsers())
}

func TestServer_NewJoinerReceivesCanvasSync(t *testing.T) {
	_, addr := startServer(t)

	alice := connectClient(t, addr, "alice")
	require.True(t, alice.SetPixel(3, 4, red))

	bob := connectClient(t, addr, "bob")

	require.Eventually(t, func() bool {
		return bob.GetPixel(3, 4) == red
	}, waitFor, tick, "bob's initial sync missed the pixel")
}

func TestServer_ClearBroadcastsEmptySync(t *testing.T) {
	_, addr := startServer(t)

	alice := connectClient(t, addr, "alice")
	bob := connectClient(t, addr, "bob")

	require.True(t, alice.SetPixel(1, 1, red))
	require.Eventually(t, func() bool {
		return bob.GetPixel(1, 1) == red
	}, waitFor, tick)

	require.True(t, alice.ClearCanvas())

	require.Eventually(t, func() bool {
		return bob.GetPixel(1, 1) == collab.Transparent
	}, waitFor, tick, "bob's mirror never cleared")
	require.Eventually(t, func() bool {
		return alice.GetPixel(1, 1) == collab.Transparent
	}, waitFor, tick)
}

func TestServer_CursorBroadcastExcludesSender(t *testing.T) {
	_, addr := startServer(t)

	alice := connectClient(t, addr, "alice")
	bob := connectClient(t, addr, "bob")

	require.True(t, alice.UpdateCursor(7, 9))

	require.Eventually(t, func() bool {
		pos, ok := bob.Cursors()["alice"]
		return ok && pos == [2]int{7, 9}
	}, waitFor, tick, "bob never saw alice's cursor")

	// The sender tracks only remote cursors.
	_, ok := alice.Cursors()["alice"]
	assert.False(t, ok)
}

func TestRegistry_BroadcastSnapshot(t *testing.T) {
	r := NewRegistry()
	if r.Count() != 0 {
		t.Fatalf("new registry Count() = %d", r.Count())
	}

	r.Register("alice", &Conn{})
	r.Register("bob", &Conn{})
	assert.ElementsMatch(t, []string{"alice", "bob"}, r.Usernames())

	r.Unregister("alice")
	assert.Equal(t, []string{"bob"}, r.Usernames())
	assert.Equal(t, 1, r.Count())
}
