package handler

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/trile/avalon-server/internal/auth"
	"github.com/trile/avalon-server/internal/store"
)

// StartGameRequest is the body for POST /api/rooms/{code}/games.
// RoomPlayerID is required if no valid Authorization token is provided.
type StartGameRequest struct {
	RoomPlayerID string                 `json:"room_player_id,omitempty"`
	Config       map[string]interface{} `json:"config,omitempty"`
}

// GameHandler handles game-related HTTP requests.
type GameHandler struct {
	gameStore   *store.GameStore
	roomStore   *store.RoomStore
	tokenSecret []byte
	logger      *zap.Logger
}

// NewGameHandler creates a new GameHandler. tokenSecret is used to verify Bearer tokens for host auth.
func NewGameHandler(gameStore *store.GameStore, roomStore *store.RoomStore, tokenSecret []byte, logger *zap.Logger) *GameHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &GameHandler{gameStore: gameStore, roomStore: roomStore, tokenSecret: tokenSecret, logger: logger}
}

// CreateGame handles POST /api/rooms/{code}/games (host only; creates a new game and initial snapshot).
//
// @Summary      Create game
// @Description  Create a new game in the room. Only the room host may call this. Use Bearer token (from create/join room) or room_player_id in body.
// @Tags         games
// @Accept       json
// @Produce      json
// @Param        code  path      string               true   "Room code (6 alphanumeric)"
// @Param        body  body      StartGameRequest     false  "Request body (room_player_id required if no Bearer token)"
// @Success      201   {object}  store.CreateGameResponse
// @Failure      400   {string}  string  "Bad request or room has no players"
// @Failure      401   {string}  string  "Unauthorized (token or room_player_id required, or player not in room)"
// @Failure      403   {string}  string  "Only host can start a new game"
// @Failure      404   {string}  string  "Room not found"
// @Failure      500   {string}  string  "Server error"
// @Security     BearerAuth
// @Router       /api/rooms/{code}/games [post]
func (h *GameHandler) CreateGame(w http.ResponseWriter, r *http.Request) {
	code := chi.URLParam(r, "code")
	if !validateRoomCode(code) {
		http.Error(w, "invalid room code format", http.StatusBadRequest)
		return
	}

	var body StartGameRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}

	// Resolve the acting player from the Bearer token or the request body.
	roomPlayerID := body.RoomPlayerID
	if roomPlayerID == "" && len(h.tokenSecret) > 0 {
		if token := bearerToken(r); token != "" {
			claims, err := auth.VerifyToken(token, h.tokenSecret)
			if err == nil && claims.RoomPlayerID != "" {
				roomPlayerID = claims.RoomPlayerID
			}
		}
	}
	if roomPlayerID == "" {
		http.Error(w, "unauthorized: room_player_id or valid token required", http.StatusUnauthorized)
		return
	}

	player, err := h.roomStore.GetRoomPlayerInRoom(r.Context(), code, roomPlayerID)
	if err != nil {
		switch {
		case errors.Is(err, store.ErrRoomNotFound):
			http.Error(w, "room not found", http.StatusNotFound)
		case errors.Is(err, store.ErrPlayerNotInRoom):
			http.Error(w, "unauthorized: player not in room", http.StatusUnauthorized)
		default:
			h.logger.Error("get room player", zap.String("request_id", requestID(r)), zap.Error(err))
			http.Error(w, "failed to verify player", http.StatusInternalServerError)
		}
		return
	}
	if !player.IsHost {
		http.Error(w, "forbidden: only the host can start a new game", http.StatusForbidden)
		return
	}

	resp, err := h.gameStore.CreateGame(r.Context(), store.CreateGameRequest{Code: code, Config: body.Config})
	if err != nil {
		if errors.Is(err, store.ErrRoomNotFound) {
			http.Error(w, "room not found", http.StatusNotFound)
			return
		}
		if errors.Is(err, store.ErrRoomEmpty) {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		h.logger.Error("create game", zap.String("request_id", requestID(r)), zap.Error(err))
		http.Error(w, "failed to create game", http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusCreated, resp, h.logger)
}
