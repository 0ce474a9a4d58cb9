package websocket

import (
	"context"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/trile/avalon-server/internal/auth"
	"github.com/trile/avalon-server/internal/store"
)

// rateLimitKeyFromRequest returns a key for rate limiting (e.g. client IP).
func rateLimitKeyFromRequest(r *http.Request) string {
	if x := r.Header.Get("X-Real-IP"); x != "" {
		return x
	}
	if x := r.Header.Get("X-Forwarded-For"); x != "" {
		return x
	}
	return r.RemoteAddr
}

// WSHandler upgrades authenticated room connections.
type WSHandler struct {
	hub         *Hub
	rooms       *store.RoomStore
	tokenSecret []byte
	logger      *zap.Logger
}

// NewWSHandler creates a new WSHandler. tokenSecret signs the room tokens; if
// empty, all connections are rejected.
func NewWSHandler(hub *Hub, rooms *store.RoomStore, tokenSecret []byte, logger *zap.Logger) *WSHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &WSHandler{
		hub:         hub,
		rooms:       rooms,
		tokenSecret: tokenSecret,
		logger:      logger,
	}
}

// HandleRoomWebSocket handles GET /ws/rooms/{code}. The client presents the
// token issued at room create/join, via query param or Authorization header.
// Auth is always checked before upgrading.
func (h *WSHandler) HandleRoomWebSocket(w http.ResponseWriter, r *http.Request) {
	code := chi.URLParam(r, "code")
	if code == "" {
		http.Error(w, "code is required", http.StatusBadRequest)
		return
	}
	token := r.URL.Query().Get("token")
	if token == "" {
		const prefix = "Bearer "
		if v := r.Header.Get("Authorization"); strings.HasPrefix(v, prefix) {
			token = strings.TrimSpace(v[len(prefix):])
		}
	}
	if token == "" || len(h.tokenSecret) == 0 {
		http.Error(w, "missing or invalid token", http.StatusUnauthorized)
		return
	}
	claims, err := auth.VerifyToken(token, h.tokenSecret)
	if err != nil {
		h.logger.Warn("room ws auth failed",
			zap.String("code", code),
			zap.Error(err))
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}

	room, err := h.rooms.GetRoomByCode(r.Context(), code)
	if err != nil {
		h.logger.Warn("room ws: room lookup failed",
			zap.String("code", code),
			zap.Error(err))
		http.Error(w, "room not found", http.StatusNotFound)
		return
	}
	if room.ID != claims.RoomID {
		http.Error(w, "room does not match token", http.StatusUnauthorized)
		return
	}
	roomPlayer, err := h.rooms.GetRoomPlayerInRoom(r.Context(), code, claims.RoomPlayerID)
	if err != nil {
		h.logger.Warn("room ws: player not in room",
			zap.String("code", code),
			zap.String("room_player_id", claims.RoomPlayerID),
			zap.Error(err))
		http.Error(w, "player not in room", http.StatusUnauthorized)
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Warn("room ws upgrade failed", zap.Error(err))
		return
	}

	// Use Background so message handling is not tied to the HTTP request
	// lifecycle; the request context is canceled once the handler returns.
	client := &Client{
		hub:          h.hub,
		conn:         conn,
		send:         make(chan *ServerEnvelope, 256),
		RoomID:       room.ID,
		RoomPlayerID: roomPlayer.ID,
		DisplayName:  roomPlayer.DisplayName,
		RateLimitKey: rateLimitKeyFromRequest(r),
		ctx:          context.Background(),
	}
	client.hub.register <- client
	go client.writePump()
	go client.readPump()
}
