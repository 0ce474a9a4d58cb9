package websocket

import (
	"sync"

	"go.uber.org/zap"
)

// Hub maintains the set of active clients and broadcasts envelopes to them.
type Hub struct {
	// Registered clients by room_id -> client set
	rooms map[string]map[*Client]bool

	// Outbound envelopes for clients
	broadcast chan *BroadcastMessage

	// Register requests from the clients
	register chan *Client

	// Unregister requests from clients
	unregister chan *Client

	// Handler for inbound client messages
	handler *MessageHandler

	logger *zap.Logger

	mu sync.RWMutex
}

// BroadcastMessage is one envelope addressed to a room, optionally narrowed to
// a single player's connections or excluding the sender.
type BroadcastMessage struct {
	RoomID         string
	Envelope       *ServerEnvelope
	TargetPlayerID string // deliver only to this player's connections
	ExcludeClient  *Client
}

// NewHub creates a new Hub.
func NewHub(logger *zap.Logger) *Hub {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Hub{
		rooms:      make(map[string]map[*Client]bool),
		broadcast:  make(chan *BroadcastMessage, 256),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		logger:     logger,
	}
}

// SetMessageHandler sets the handler for inbound client messages.
func (h *Hub) SetMessageHandler(handler *MessageHandler) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.handler = handler
}

func (h *Hub) messageHandler() *MessageHandler {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.handler
}

// Run starts the hub's main loop.
func (h *Hub) Run() {
	for {
		select {
		case client := <-h.register:
			h.mu.Lock()
			if h.rooms[client.RoomID] == nil {
				h.rooms[client.RoomID] = make(map[*Client]bool)
			}
			h.rooms[client.RoomID][client] = true
			total := len(h.rooms[client.RoomID])
			h.mu.Unlock()
			h.logger.Info("ws client registered",
				zap.String("room_id", client.RoomID),
				zap.String("room_player_id", client.RoomPlayerID),
				zap.Int("room_clients", total))

		case client := <-h.unregister:
			h.mu.Lock()
			if room, ok := h.rooms[client.RoomID]; ok {
				if _, ok := room[client]; ok {
					delete(room, client)
					close(client.send)
					if len(room) == 0 {
						delete(h.rooms, client.RoomID)
					}
				}
			}
			h.mu.Unlock()
			h.logger.Info("ws client unregistered",
				zap.String("room_id", client.RoomID),
				zap.String("room_player_id", client.RoomPlayerID))

		case message := <-h.broadcast:
			h.mu.RLock()
			room := h.rooms[message.RoomID]
			for client := range room {
				if message.Envelope == nil {
					continue
				}
				if message.ExcludeClient != nil && client == message.ExcludeClient {
					continue
				}
				if message.TargetPlayerID != "" && client.RoomPlayerID != message.TargetPlayerID {
					continue
				}
				select {
				case client.send <- message.Envelope:
				default:
					close(client.send)
					delete(room, client)
				}
			}
			h.mu.RUnlock()
		}
	}
}

// Broadcast sends an envelope to all clients in a room.
func (h *Hub) Broadcast(roomID string, envelope *ServerEnvelope) {
	h.broadcast <- &BroadcastMessage{RoomID: roomID, Envelope: envelope}
}

// BroadcastExcept sends an envelope to all clients in a room except the given one.
func (h *Hub) BroadcastExcept(roomID string, envelope *ServerEnvelope, excludeClient *Client) {
	h.broadcast <- &BroadcastMessage{
		RoomID:        roomID,
		Envelope:      envelope,
		ExcludeClient: excludeClient,
	}
}

// SendToPlayer sends an envelope only to the given player's connections in the
// room. Hidden role knowledge travels this way.
func (h *Hub) SendToPlayer(roomID, roomPlayerID string, envelope *ServerEnvelope) {
	h.broadcast <- &BroadcastMessage{
		RoomID:         roomID,
		Envelope:       envelope,
		TargetPlayerID: roomPlayerID,
	}
}

// GetRoomClientCount returns the number of clients in a room.
func (h *Hub) GetRoomClientCount(roomID string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	if room, ok := h.rooms[roomID]; ok {
		return len(room)
	}
	return 0
}
