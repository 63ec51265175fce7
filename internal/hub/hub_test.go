package hub

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/MyMonsterVR/location-app-school-backend/internal/config"
)

func newTestClient(id string, h *Hub) *Client {
	return NewClient(id, h, nil, config.WebSocketConfig{})
}

// receivedTypes drains the client's send buffer and decodes the type
// discriminant of each queued frame.
func receivedTypes(t *testing.T, c *Client) []string {
	t.Helper()

	var types []string
	for {
		select {
		case data := <-c.Send:
			var frame struct {
				Type string `json:"type"`
			}
			require.NoError(t, json.Unmarshal(data, &frame))
			types = append(types, frame.Type)
		default:
			return types
		}
	}
}

func TestJoinIsIdempotent(t *testing.T) {
	require := require.New(t)

	h := NewHub()
	c := newTestClient("c1", h)

	h.Join(c, "room-1", "u1", "alice")
	h.Join(c, "room-1", "u1", "alice")

	require.Equal(1, h.RoomSize("room-1"))
	require.Len(h.ClientsFor("u1"), 1)
}

func TestJoinBindsIdentity(t *testing.T) {
	require := require.New(t)

	h := NewHub()
	c := newTestClient("c1", h)

	h.Join(c, "room-1", "u1", "alice")

	userID, username := c.Identity()
	require.Equal("u1", userID)
	require.Equal("alice", username)
}

func TestBroadcastExcludesSenderIdentity(t *testing.T) {
	require := require.New(t)

	h := NewHub()

	// u1 holds two live connections; both must be skipped.
	a1 := newTestClient("a1", h)
	a2 := newTestClient("a2", h)
	b1 := newTestClient("b1", h)
	h.Join(a1, "room-1", "u1", "alice")
	h.Join(a2, "room-1", "u1", "alice")
	h.Join(b1, "room-1", "u2", "bob")

	err := h.Broadcast("room-1", map[string]string{"type": "message"}, "u1")
	require.NoError(err)

	require.Empty(receivedTypes(t, a1))
	require.Empty(receivedTypes(t, a2))
	require.Equal([]string{"message"}, receivedTypes(t, b1))
}

func TestBroadcastWithoutExclusionReachesEveryone(t *testing.T) {
	require := require.New(t)

	h := NewHub()
	a1 := newTestClient("a1", h)
	b1 := newTestClient("b1", h)
	h.Join(a1, "room-1", "u1", "alice")
	h.Join(b1, "room-1", "u2", "bob")

	err := h.Broadcast("room-1", map[string]string{"type": "read"}, "")
	require.NoError(err)

	require.Equal([]string{"read"}, receivedTypes(t, a1))
	require.Equal([]string{"read"}, receivedTypes(t, b1))
}

func TestBroadcastScopedToRoom(t *testing.T) {
	require := require.New(t)

	h := NewHub()
	a1 := newTestClient("a1", h)
	b1 := newTestClient("b1", h)
	h.Join(a1, "room-1", "u1", "alice")
	h.Join(b1, "room-2", "u2", "bob")

	err := h.Broadcast("room-1", map[string]string{"type": "message"}, "")
	require.NoError(err)

	require.Equal([]string{"message"}, receivedTypes(t, a1))
	require.Empty(receivedTypes(t, b1))
}

func TestBroadcastToEmptyRoomIsSafe(t *testing.T) {
	h := NewHub()
	require.NoError(t, h.Broadcast("ghost-room", map[string]string{"type": "message"}, ""))
}

func TestFullBufferDoesNotEvict(t *testing.T) {
	require := require.New(t)

	h := NewHub()
	slow := newTestClient("slow", h)
	h.Join(slow, "room-1", "u1", "alice")

	for i := 0; i < cap(slow.Send); i++ {
		slow.Send <- []byte("{}")
	}

	// Delivery fails silently for the slow connection; it must stay
	// registered in the room.
	err := h.Broadcast("room-1", map[string]string{"type": "message"}, "")
	require.NoError(err)
	require.Equal(1, h.RoomSize("room-1"))
	require.Len(h.ClientsFor("u1"), 1)
}

func TestLeaveRemovesFromAllRooms(t *testing.T) {
	require := require.New(t)

	h := NewHub()
	c := newTestClient("c1", h)
	h.Join(c, "room-1", "u1", "alice")
	h.Join(c, "room-2", "u1", "alice")

	h.Leave(c)

	require.Equal(0, h.RoomSize("room-1"))
	require.Equal(0, h.RoomSize("room-2"))
	require.Empty(h.ClientsFor("u1"))
}

func TestLeaveWithoutJoinIsSafe(t *testing.T) {
	h := NewHub()
	c := newTestClient("c1", h)

	h.Leave(c)

	require.Equal(t, 0, h.RoomSize("room-1"))
}

func TestClientsForTracksConnectionsPerIdentity(t *testing.T) {
	require := require.New(t)

	h := NewHub()
	a1 := newTestClient("a1", h)
	a2 := newTestClient("a2", h)
	h.Join(a1, "room-1", "u1", "alice")
	h.Join(a2, "room-2", "u1", "alice")

	require.Len(h.ClientsFor("u1"), 2)
	require.Empty(h.ClientsFor("u2"))

	h.Leave(a1)
	require.Len(h.ClientsFor("u1"), 1)
}

func TestJoinAfterUnregisterIsIgnored(t *testing.T) {
	require := require.New(t)

	h := NewHub()
	go h.Run()

	c := newTestClient("c1", h)
	h.Register(c)
	h.Join(c, "room-1", "u1", "alice")
	h.Unregister(c)

	// Wait for the hub to process the unregister and close the channel.
	_, open := <-c.Send
	require.False(open)

	// An administrative join arriving after the disconnect must not
	// resurrect the dead connection.
	h.Join(c, "room-1", "u1", "alice")
	require.Equal(0, h.RoomSize("room-1"))
	require.Empty(h.ClientsFor("u1"))

	// Broadcasting to the room must not touch the closed channel.
	live := newTestClient("c2", h)
	h.Join(live, "room-1", "u2", "bob")
	require.NoError(h.Broadcast("room-1", map[string]string{"type": "message"}, ""))
	require.Equal([]string{"message"}, receivedTypes(t, live))
}

func TestRejoinWithNewIdentityMovesIndex(t *testing.T) {
	require := require.New(t)

	h := NewHub()
	c := newTestClient("c1", h)

	h.Join(c, "room-1", "u1", "alice")
	h.Join(c, "room-1", "u2", "bob")

	// The connection now answers for u2 only.
	require.Empty(h.ClientsFor("u1"))
	require.Len(h.ClientsFor("u2"), 1)

	// Exclusion follows the rebound identity.
	require.NoError(h.Broadcast("room-1", map[string]string{"type": "message"}, "u2"))
	require.Empty(receivedTypes(t, c))

	h.Leave(c)
	require.Empty(h.ClientsFor("u2"))
}

func TestRegisterUnregisterLifecycle(t *testing.T) {
	require := require.New(t)

	h := NewHub()
	go h.Run()

	c := newTestClient("c1", h)
	h.Register(c)
	h.Join(c, "room-1", "u1", "alice")

	h.Unregister(c)

	// Unregister closes the send channel once the hub has processed it.
	_, open := <-c.Send
	require.False(open)
	require.Equal(0, h.RoomSize("room-1"))
}
