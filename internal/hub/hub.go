package hub

import (
	"encoding/json"
	"sync"

	"github.com/MyMonsterVR/location-app-school-backend/pkg/log"
)

// Hub is the process-local connection registry: which live connections
// belong to which room. It is rebuilt from scratch on restart; nothing here
// is durable. One mutex guards the whole registry so join/leave/broadcast
// are atomic with respect to each other.
type Hub struct {
	mu          sync.RWMutex
	clients     map[*Client]struct{}
	rooms       map[string]map[*Client]struct{}
	byUser      map[string]map[*Client]struct{}
	memberships map[*Client]map[string]struct{}

	register   chan *Client
	unregister chan *Client
}

func NewHub() *Hub {
	return &Hub{
		clients:     make(map[*Client]struct{}),
		rooms:       make(map[string]map[*Client]struct{}),
		byUser:      make(map[string]map[*Client]struct{}),
		memberships: make(map[*Client]map[string]struct{}),
		register:    make(chan *Client),
		unregister:  make(chan *Client),
	}
}

// Run processes connection lifecycle events. Joins, leaves and broadcasts
// happen inline under the registry lock.
func (h *Hub) Run() {
	for {
		select {
		case client := <-h.register:
			h.mu.Lock()
			h.clients[client] = struct{}{}
			h.mu.Unlock()
			l := log.L()
			l.Debug().Str(log.FieldClientID, client.ID).Msg("client registered")

		case client := <-h.unregister:
			h.mu.Lock()
			if _, ok := h.clients[client]; ok {
				h.leaveAllLocked(client)
				delete(h.clients, client)
				client.release()
			}
			h.mu.Unlock()
			l := log.L()
			l.Debug().Str(log.FieldClientID, client.ID).Msg("client unregistered")
		}
	}
}

// Register announces a new connection to the hub.
func (h *Hub) Register(client *Client) {
	h.register <- client
}

// Unregister removes a connection from every room it joined and releases it.
// Safe to call for a connection that never joined any room.
func (h *Hub) Unregister(client *Client) {
	h.unregister <- client
}

// Join registers the connection under roomID with the given identity.
// Idempotent: joining the same room twice leaves a single entry. A released
// connection is never re-inserted, so an administrative join racing a
// disconnect cannot resurrect a dead entry. Rebinding to a new identity
// moves the connection's index entry off the previous one.
func (h *Hub) Join(client *Client, roomID, userID, username string) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if client.isClosed() {
		return
	}

	prevID, _ := client.Identity()
	client.Bind(userID, username)
	if prevID != "" && prevID != userID {
		if conns, ok := h.byUser[prevID]; ok {
			delete(conns, client)
			if len(conns) == 0 {
				delete(h.byUser, prevID)
			}
		}
	}

	if _, ok := h.rooms[roomID]; !ok {
		h.rooms[roomID] = make(map[*Client]struct{})
	}
	h.rooms[roomID][client] = struct{}{}

	if _, ok := h.memberships[client]; !ok {
		h.memberships[client] = make(map[string]struct{})
	}
	h.memberships[client][roomID] = struct{}{}

	if _, ok := h.byUser[userID]; !ok {
		h.byUser[userID] = make(map[*Client]struct{})
	}
	h.byUser[userID][client] = struct{}{}

	l := log.L()
	l.Info().
		Str(log.FieldClientID, client.ID).
		Str(log.FieldUserID, userID).
		Str(log.FieldRoomID, roomID).
		Msg("client joined room")
}

// Leave removes the connection from every room it was registered under.
func (h *Hub) Leave(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.leaveAllLocked(client)
}

func (h *Hub) leaveAllLocked(client *Client) {
	for roomID := range h.memberships[client] {
		if members, ok := h.rooms[roomID]; ok {
			delete(members, client)
			if len(members) == 0 {
				delete(h.rooms, roomID)
			}
		}
	}
	delete(h.memberships, client)

	userID, _ := client.Identity()
	if conns, ok := h.byUser[userID]; ok {
		delete(conns, client)
		if len(conns) == 0 {
			delete(h.byUser, userID)
		}
	}
}

// Broadcast delivers the frame to every connection registered under roomID
// whose bound identity is not excludeUserID. Exclusion is by identity, not
// connection: a sender with several live devices receives the frame on none
// of them. Known limitation carried from the wire contract.
//
// Delivery is per-recipient best effort: a full send buffer is logged and
// skipped, and never removes the connection from the registry.
func (h *Hub) Broadcast(roomID string, frame interface{}, excludeUserID string) error {
	data, err := json.Marshal(frame)
	if err != nil {
		return err
	}

	h.mu.RLock()
	defer h.mu.RUnlock()

	for client := range h.rooms[roomID] {
		userID, _ := client.Identity()
		if excludeUserID != "" && userID == excludeUserID {
			continue
		}
		if !client.trySend(data) {
			l := log.L()
			l.Warn().
				Str(log.FieldClientID, client.ID).
				Str(log.FieldRoomID, roomID).
				Msg("broadcast delivery failed, recipient skipped")
		}
	}
	return nil
}

// ClientsFor returns the live connections bound to an identity.
func (h *Hub) ClientsFor(userID string) []*Client {
	h.mu.RLock()
	defer h.mu.RUnlock()

	conns := make([]*Client, 0, len(h.byUser[userID]))
	for client := range h.byUser[userID] {
		conns = append(conns, client)
	}
	return conns
}

// RoomSize returns the number of live connections in a room.
func (h *Hub) RoomSize(roomID string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.rooms[roomID])
}
