package chatws

import (
	"encoding/json"
	"sync"

	"github.com/rs/zerolog"
	"github.com/roomly-app/MessagingBack/internal/metrics"
)

// Hub tracks the live subscribers of each room and fans published events out
// to them. Rooms are keyed by conversation id and guarded individually, so
// traffic on one room never contends with another. The hub keeps no event
// history; a subscriber that misses an event catches up over REST.
type Hub struct {
	mu     sync.RWMutex
	rooms  map[string]*room
	logger zerolog.Logger
}

type room struct {
	mu   sync.Mutex
	subs map[*Client]struct{}
}

func NewHub(logger zerolog.Logger) *Hub {
	return &Hub{
		rooms:  make(map[string]*room),
		logger: logger.With().Str("component", "hub").Logger(),
	}
}

func (h *Hub) Register(client *Client) {
	h.mu.Lock()
	rm, ok := h.rooms[client.roomID]
	if !ok {
		rm = &room{subs: make(map[*Client]struct{})}
		h.rooms[client.roomID] = rm
	}
	rm.mu.Lock()
	rm.subs[client] = struct{}{}
	rm.mu.Unlock()
	h.mu.Unlock()

	metrics.RoomSubscribers.Inc()
}

// Unregister removes the client from its room and closes its outbound queue.
// Safe to call more than once.
func (h *Hub) Unregister(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	rm, ok := h.rooms[client.roomID]
	if !ok {
		return
	}

	rm.mu.Lock()
	if _, exists := rm.subs[client]; exists {
		delete(rm.subs, client)
		client.closeSend()
		metrics.RoomSubscribers.Dec()
	}
	empty := len(rm.subs) == 0
	rm.mu.Unlock()

	if empty {
		delete(h.rooms, client.roomID)
	}
}

// Publish delivers the event to every current subscriber of the room.
// Delivery is best-effort per subscriber: a full outbound queue drops that
// subscriber instead of blocking the publisher or its room peers.
func (h *Hub) Publish(roomID string, event *Event) {
	payload, err := json.Marshal(event)
	if err != nil {
		h.logger.Error().Err(err).Str("room", roomID).Msg("encode event")
		return
	}

	h.mu.RLock()
	rm, ok := h.rooms[roomID]
	h.mu.RUnlock()
	if !ok {
		return
	}

	rm.mu.Lock()
	for client := range rm.subs {
		if !client.trySend(payload) {
			delete(rm.subs, client)
			client.closeSend()
			metrics.RoomSubscribers.Dec()
			metrics.SubscribersDropped.Inc()
			h.logger.Warn().
				Str("room", roomID).
				Str("user", client.userID).
				Msg("dropping slow subscriber")
		}
	}
	empty := len(rm.subs) == 0
	rm.mu.Unlock()

	if empty {
		h.prune(roomID, rm)
	}

	metrics.EventsPublished.WithLabelValues(string(event.Type)).Inc()
}

// prune removes a room that went empty during publish. Re-checked under both
// locks because a new subscriber may have arrived in between.
func (h *Hub) prune(roomID string, rm *room) {
	h.mu.Lock()
	defer h.mu.Unlock()

	current, ok := h.rooms[roomID]
	if !ok || current != rm {
		return
	}
	current.mu.Lock()
	if len(current.subs) == 0 {
		delete(h.rooms, roomID)
	}
	current.mu.Unlock()
}

// SubscriberCount reports the live subscribers of one room.
func (h *Hub) SubscriberCount(roomID string) int {
	h.mu.RLock()
	rm, ok := h.rooms[roomID]
	h.mu.RUnlock()
	if !ok {
		return 0
	}

	rm.mu.Lock()
	defer rm.mu.Unlock()
	return len(rm.subs)
}

// RoomCount reports how many rooms currently have at least one subscriber.
func (h *Hub) RoomCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.rooms)
}
