package websocket

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/thereayou/streamhub/internal/metrics"
)

const (
	defaultPingInterval = 30 * time.Second
	relayPublishTimeout = 2 * time.Second
)

// Relay forwards room frames and evictions to other instances.
type Relay interface {
	Publish(ctx context.Context, room string, frame []byte) error
	PublishEvict(ctx context.Context, room, reason string) error
}

// Hub owns the room membership table for this process. Rooms are keyed by
// canonical room name; a room with no members is removed from the table.
type Hub struct {
	clients map[uuid.UUID]*Client
	rooms   map[string]map[uuid.UUID]*Client
	mu      sync.RWMutex

	relay        Relay
	pingInterval time.Duration
	log          *zap.Logger
}

func NewHub(log *zap.Logger) *Hub {
	return &Hub{
		clients:      make(map[uuid.UUID]*Client),
		rooms:        make(map[string]map[uuid.UUID]*Client),
		pingInterval: defaultPingInterval,
		log:          log,
	}
}

// SetRelay enables cross-instance fan-out. Call before serving traffic.
func (h *Hub) SetRelay(r Relay) {
	h.relay = r
}

// Run sends application pings until ctx is done, then disconnects everyone.
func (h *Hub) Run(ctx context.Context) {
	ticker := time.NewTicker(h.pingInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			h.Stop()
			return
		case <-ticker.C:
			h.ping()
		}
	}
}

// Stop closes every client's queue; write pumps then close the connections.
func (h *Hub) Stop() {
	h.mu.Lock()
	defer h.mu.Unlock()

	for id, client := range h.clients {
		client.closeSend()
		delete(h.clients, id)
	}
	h.rooms = make(map[string]map[uuid.UUID]*Client)
	metrics.WSConnections.Set(0)
	metrics.ActiveRooms.Set(0)
}

func (h *Hub) Register(client *Client) {
	h.mu.Lock()
	h.clients[client.ID] = client
	h.mu.Unlock()

	metrics.WSConnections.Inc()
	h.log.Debug("client registered",
		zap.String("client_id", client.ID.String()),
		zap.String("user_id", client.UserID.String()))
}

// Unregister removes the client from every room it joined and closes its
// queue. Safe to call more than once.
func (h *Hub) Unregister(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if _, ok := h.clients[client.ID]; !ok {
		return
	}
	for _, room := range client.Rooms() {
		h.removeFromRoomLocked(client, room)
	}
	delete(h.clients, client.ID)
	client.closeSend()

	metrics.WSConnections.Dec()
	metrics.ActiveRooms.Set(float64(len(h.rooms)))
	h.log.Debug("client unregistered",
		zap.String("client_id", client.ID.String()),
		zap.String("user_id", client.UserID.String()))
}

// Join adds client to room, announces it to the other members and sends the
// member list to the joiner. Joining twice is a no-op apart from the list.
func (h *Hub) Join(client *Client, room string) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if _, ok := h.clients[client.ID]; !ok {
		return
	}

	members, ok := h.rooms[room]
	if !ok {
		members = make(map[uuid.UUID]*Client)
		h.rooms[room] = members
	}
	_, already := members[client.ID]
	members[client.ID] = client
	client.addRoom(room)
	metrics.ActiveRooms.Set(float64(len(h.rooms)))

	if !already {
		if frame, err := EncodeFrame(TypeUserJoined, room, client.UserID, nil); err == nil {
			h.fanOutLocked(room, frame, client.ID)
		}
	}
	if frame, err := EncodeFrame(TypeRoomUsers, room, client.UserID, h.roomUsersLocked(room)); err == nil {
		h.deliver(client, frame)
	}
}

func (h *Hub) Leave(client *Client, room string) {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.removeFromRoomLocked(client, room)
	metrics.ActiveRooms.Set(float64(len(h.rooms)))
}

func (h *Hub) removeFromRoomLocked(client *Client, room string) {
	members, ok := h.rooms[room]
	if !ok {
		return
	}
	if _, ok := members[client.ID]; !ok {
		return
	}
	delete(members, client.ID)
	client.removeRoom(room)

	if len(members) == 0 {
		delete(h.rooms, room)
		return
	}
	if frame, err := EncodeFrame(TypeUserLeft, room, client.UserID, nil); err == nil {
		h.fanOutLocked(room, frame, uuid.Nil)
	}
}

// SendToRoom delivers frame to local members of room and, when a relay is
// set, to members connected to other instances.
func (h *Hub) SendToRoom(ctx context.Context, room string, frame []byte) {
	h.DeliverLocal(room, frame)

	if h.relay == nil {
		return
	}
	pubCtx, cancel := context.WithTimeout(ctx, relayPublishTimeout)
	defer cancel()
	if err := h.relay.Publish(pubCtx, room, frame); err != nil {
		h.log.Warn("relay publish failed", zap.String("room", room), zap.Error(err))
	}
}

// EvictRoom drops every member of room, here and on other instances. Each
// evicted client gets an error frame carrying reason and has to join again.
func (h *Hub) EvictRoom(ctx context.Context, room, reason string) int {
	n := h.EvictLocal(room, reason)

	if h.relay == nil {
		return n
	}
	pubCtx, cancel := context.WithTimeout(ctx, relayPublishTimeout)
	defer cancel()
	if err := h.relay.PublishEvict(pubCtx, room, reason); err != nil {
		h.log.Warn("relay evict failed", zap.String("room", room), zap.Error(err))
	}
	return n
}

// EvictLocal drops this instance's members of room and returns how many
// clients were removed.
func (h *Hub) EvictLocal(room, reason string) int {
	h.mu.Lock()
	defer h.mu.Unlock()

	members := h.rooms[room]
	delete(h.rooms, room)
	metrics.ActiveRooms.Set(float64(len(h.rooms)))
	if len(members) == 0 {
		return 0
	}

	frame, err := EncodeFrame(TypeError, room, uuid.Nil, map[string]string{"error": reason})
	for _, client := range members {
		client.removeRoom(room)
		if err == nil {
			h.deliver(client, frame)
		}
	}
	h.log.Info("room members evicted", zap.String("room", room), zap.Int("count", len(members)))
	return len(members)
}

// DeliverLocal fans frame out to this instance's members only.
func (h *Hub) DeliverLocal(room string, frame []byte) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	h.fanOutLocked(room, frame, uuid.Nil)
}

// fanOutLocked must run under h.mu (read or write) so no queue is closed
// while frames are being pushed into it.
func (h *Hub) fanOutLocked(room string, frame []byte, exclude uuid.UUID) {
	for id, client := range h.rooms[room] {
		if id == exclude {
			continue
		}
		h.deliver(client, frame)
	}
}

func (h *Hub) deliver(client *Client, frame []byte) {
	if !client.trySend(frame) {
		metrics.BroadcastDrops.Inc()
		h.log.Warn("client send queue full, frame dropped",
			zap.String("client_id", client.ID.String()))
	}
}

// RoomUsers lists the distinct users connected to room on this instance.
func (h *Hub) RoomUsers(room string) []uuid.UUID {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.roomUsersLocked(room)
}

func (h *Hub) roomUsersLocked(room string) []uuid.UUID {
	seen := make(map[uuid.UUID]struct{})
	users := make([]uuid.UUID, 0)
	for _, c := range h.rooms[room] {
		if _, ok := seen[c.UserID]; ok {
			continue
		}
		seen[c.UserID] = struct{}{}
		users = append(users, c.UserID)
	}
	return users
}

func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

func (h *Hub) RoomCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.rooms)
}

func (h *Hub) ping() {
	frame, err := EncodeFrame(TypePing, "", uuid.Nil, nil)
	if err != nil {
		return
	}

	h.mu.RLock()
	defer h.mu.RUnlock()
	for _, client := range h.clients {
		client.trySend(frame)
	}
}
