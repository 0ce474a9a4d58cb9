package handler

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/trile/avalon-server/internal/store"
)

// EventHandler serves the persisted game event log and room chat history.
type EventHandler struct {
	eventStore *store.GameEventStore
	gameStore  *store.GameStore
	roomStore  *store.RoomStore
	logger     *zap.Logger
}

// NewEventHandler creates a new EventHandler.
func NewEventHandler(eventStore *store.GameEventStore, gameStore *store.GameStore, roomStore *store.RoomStore, logger *zap.Logger) *EventHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &EventHandler{eventStore: eventStore, gameStore: gameStore, roomStore: roomStore, logger: logger}
}

// ListGameEvents handles GET /api/rooms/{code}/games/{game_id}/events.
//
// @Summary      List game events
// @Description  Return the game's public event log in order. Private knowledge is never persisted here.
// @Tags         games
// @Produce      json
// @Param        code     path      string  true  "Room code (6 alphanumeric)"
// @Param        game_id  path      string  true  "Game ID (UUID)"
// @Success      200      {array}   store.GameEvent
// @Failure      400      {string}  string  "Invalid room code or game ID"
// @Failure      404      {string}  string  "Room or game not found"
// @Failure      500      {string}  string  "Server error"
// @Router       /api/rooms/{code}/games/{game_id}/events [get]
func (h *EventHandler) ListGameEvents(w http.ResponseWriter, r *http.Request) {
	code := chi.URLParam(r, "code")
	if !validateRoomCode(code) {
		http.Error(w, "invalid room code format", http.StatusBadRequest)
		return
	}
	gameID := chi.URLParam(r, "game_id")
	if _, err := uuid.Parse(gameID); err != nil {
		http.Error(w, "invalid game id", http.StatusBadRequest)
		return
	}

	room, err := h.roomStore.GetRoomByCode(r.Context(), code)
	if err != nil {
		if errors.Is(err, store.ErrRoomNotFound) {
			http.Error(w, "room not found", http.StatusNotFound)
			return
		}
		h.logger.Error("get room", zap.String("request_id", requestID(r)), zap.Error(err))
		http.Error(w, "failed to list events", http.StatusInternalServerError)
		return
	}

	game, err := h.gameStore.GetGame(r.Context(), gameID)
	if err != nil {
		if errors.Is(err, store.ErrGameNotFound) {
			http.Error(w, "game not found", http.StatusNotFound)
			return
		}
		h.logger.Error("get game", zap.String("request_id", requestID(r)), zap.Error(err))
		http.Error(w, "failed to list events", http.StatusInternalServerError)
		return
	}
	if game.RoomID != room.ID {
		http.Error(w, "game not found", http.StatusNotFound)
		return
	}

	events, err := h.eventStore.GetGameEvents(r.Context(), gameID)
	if err != nil {
		h.logger.Error("list game events", zap.String("request_id", requestID(r)), zap.Error(err))
		http.Error(w, "failed to list events", http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusOK, events, h.logger)
}

// ListChatMessages handles GET /api/rooms/{code}/chat (requires room token).
//
// @Summary      List chat messages
// @Description  Return recent chat messages for the room, oldest first.
// @Tags         rooms
// @Produce      json
// @Param        code   path      string  true   "Room code (6 alphanumeric)"
// @Param        limit  query     int     false  "Max messages to return (default 100)"
// @Success      200    {array}   store.ChatMessage
// @Failure      400    {string}  string  "Invalid room code"
// @Failure      401    {string}  string  "Missing or invalid token"
// @Failure      403    {string}  string  "Token is for another room"
// @Failure      404    {string}  string  "Room not found"
// @Failure      500    {string}  string  "Server error"
// @Security     BearerAuth
// @Router       /api/rooms/{code}/chat [get]
func (h *EventHandler) ListChatMessages(w http.ResponseWriter, r *http.Request) {
	code := chi.URLParam(r, "code")
	if !validateRoomCode(code) {
		http.Error(w, "invalid room code format", http.StatusBadRequest)
		return
	}

	claims := ClaimsFromRequest(r)
	if claims == nil {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}

	room, err := h.roomStore.GetRoomByCode(r.Context(), code)
	if err != nil {
		if errors.Is(err, store.ErrRoomNotFound) {
			http.Error(w, "room not found", http.StatusNotFound)
			return
		}
		h.logger.Error("get room", zap.String("request_id", requestID(r)), zap.Error(err))
		http.Error(w, "failed to list chat messages", http.StatusInternalServerError)
		return
	}
	if room.ID != claims.RoomID {
		http.Error(w, "forbidden: token is for another room", http.StatusForbidden)
		return
	}

	limit := 0
	if s := r.URL.Query().Get("limit"); s != "" {
		n, err := strconv.Atoi(s)
		if err != nil || n < 1 {
			http.Error(w, "invalid limit", http.StatusBadRequest)
			return
		}
		limit = n
	}

	messages, err := h.eventStore.GetChatMessages(r.Context(), room.ID, limit)
	if err != nil {
		h.logger.Error("list chat messages", zap.String("request_id", requestID(r)), zap.Error(err))
		http.Error(w, "failed to list chat messages", http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusOK, messages, h.logger)
}
