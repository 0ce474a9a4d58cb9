package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"regexp"
	"strings"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/trile/avalon-server/internal/auth"
	"github.com/trile/avalon-server/internal/store"
)

// Validation limits for room endpoints.
const (
	DisplayNameMinLen = 1
	DisplayNameMaxLen = 64
	PasswordMaxLen    = 128
)

// roomCodePattern matches 6-char alphanumeric codes (same charset as generateRoomCode: A-Z excluding I,O; 2-9).
var roomCodePattern = regexp.MustCompile(`^[A-Za-z0-9]{6}$`)

// RoomHandler handles room-related HTTP requests.
type RoomHandler struct {
	roomStore   *store.RoomStore
	tokenSecret []byte
	logger      *zap.Logger
}

// NewRoomHandler creates a new RoomHandler. If tokenSecret is non-empty, create/join responses include a WebSocket auth token.
func NewRoomHandler(roomStore *store.RoomStore, tokenSecret []byte, logger *zap.Logger) *RoomHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RoomHandler{roomStore: roomStore, tokenSecret: tokenSecret, logger: logger}
}

func validateDisplayName(displayName string) string {
	s := strings.TrimSpace(displayName)
	if len(s) < DisplayNameMinLen {
		return "display_name is required"
	}
	if len(s) > DisplayNameMaxLen {
		return fmt.Sprintf("display_name must be at most %d characters", DisplayNameMaxLen)
	}
	return ""
}

func validatePasswordLength(password string) string {
	if len(password) > PasswordMaxLen {
		return fmt.Sprintf("password must be at most %d characters", PasswordMaxLen)
	}
	return ""
}

func validateRoomCode(code string) bool {
	return len(code) == 6 && roomCodePattern.MatchString(code)
}

// CreateRoom handles POST /api/rooms
//
// @Summary      Create room
// @Description  Create a new room. The requester becomes the host.
// @Tags         rooms
// @Accept       json
// @Produce      json
// @Param        body  body      store.CreateRoomRequest   true  "Request body"
// @Success      201   {object}  store.CreateRoomResponse
// @Failure      400   {string}  string  "Bad request (invalid display_name, password length, or body)"
// @Failure      500   {string}  string  "Server error"
// @Router       /api/rooms [post]
func (h *RoomHandler) CreateRoom(w http.ResponseWriter, r *http.Request) {
	var req store.CreateRoomRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}

	if msg := validateDisplayName(req.DisplayName); msg != "" {
		http.Error(w, msg, http.StatusBadRequest)
		return
	}
	req.DisplayName = strings.TrimSpace(req.DisplayName)
	if msg := validatePasswordLength(req.Password); msg != "" {
		http.Error(w, msg, http.StatusBadRequest)
		return
	}

	resp, err := h.roomStore.CreateRoom(r.Context(), req)
	if err != nil {
		h.logger.Error("create room", zap.String("request_id", requestID(r)), zap.Error(err))
		http.Error(w, "failed to create room", http.StatusInternalServerError)
		return
	}

	if len(h.tokenSecret) > 0 {
		token, expiresAt, err := auth.GenerateToken(resp.Room.ID, resp.RoomPlayer.ID, h.tokenSecret, auth.DefaultTokenExpiry)
		if err != nil {
			h.logger.Error("generate token", zap.String("request_id", requestID(r)), zap.Error(err))
			http.Error(w, "failed to create room", http.StatusInternalServerError)
			return
		}
		resp.Token = token
		resp.ExpiresAt = &expiresAt
	}

	writeJSON(w, http.StatusCreated, resp, h.logger)
}

// JoinRoom handles POST /api/rooms/{code}/join
//
// @Summary      Join room
// @Description  Join an existing room. Returns room, player, and optional latest game/snapshot.
// @Tags         rooms
// @Accept       json
// @Produce      json
// @Param        code  path      string                    true   "Room code (6 alphanumeric)"
// @Param        body  body      store.JoinRoomRequest     true   "Request body (code in path, not body)"
// @Success      200   {object}  store.JoinRoomResponse
// @Failure      400   {string}  string  "Bad request"
// @Failure      401   {string}  string  "Password required or invalid"
// @Failure      404   {string}  string  "Room not found"
// @Failure      409   {string}  string  "Display name already taken in this room, or room is full"
// @Failure      500   {string}  string  "Server error"
// @Router       /api/rooms/{code}/join [post]
func (h *RoomHandler) JoinRoom(w http.ResponseWriter, r *http.Request) {
	code := chi.URLParam(r, "code")
	if !validateRoomCode(code) {
		http.Error(w, "invalid room code format", http.StatusBadRequest)
		return
	}

	var req store.JoinRoomRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}
	req.Code = code

	if msg := validateDisplayName(req.DisplayName); msg != "" {
		http.Error(w, msg, http.StatusBadRequest)
		return
	}
	req.DisplayName = strings.TrimSpace(req.DisplayName)
	if msg := validatePasswordLength(req.Password); msg != "" {
		http.Error(w, msg, http.StatusBadRequest)
		return
	}

	resp, err := h.roomStore.JoinRoom(r.Context(), req)
	if err != nil {
		switch {
		case errors.Is(err, store.ErrRoomNotFound):
			http.Error(w, "room not found", http.StatusNotFound)
		case errors.Is(err, store.ErrPasswordRequired), errors.Is(err, store.ErrInvalidPassword):
			http.Error(w, err.Error(), http.StatusUnauthorized)
		case errors.Is(err, store.ErrNameTaken), errors.Is(err, store.ErrRoomFull):
			http.Error(w, err.Error(), http.StatusConflict)
		default:
			h.logger.Error("join room", zap.String("request_id", requestID(r)), zap.Error(err))
			http.Error(w, "failed to join room", http.StatusInternalServerError)
		}
		return
	}

	if len(h.tokenSecret) > 0 {
		token, expiresAt, err := auth.GenerateToken(resp.Room.ID, resp.RoomPlayer.ID, h.tokenSecret, auth.DefaultTokenExpiry)
		if err != nil {
			h.logger.Error("generate token", zap.String("request_id", requestID(r)), zap.Error(err))
			http.Error(w, "failed to join room", http.StatusInternalServerError)
			return
		}
		resp.Token = token
		resp.ExpiresAt = &expiresAt
	}

	writeJSON(w, http.StatusOK, resp, h.logger)
}

// GetRoom handles GET /api/rooms/{code}
//
// @Summary      Get room
// @Description  Get room details and latest game state. No authentication required; role data is never included.
// @Tags         rooms
// @Produce      json
// @Param        code  path      string  true  "Room code (6 alphanumeric)"
// @Success      200   {object}  store.GetRoomResponse
// @Failure      400   {string}  string  "Invalid room code"
// @Failure      404   {string}  string  "Room not found"
// @Failure      500   {string}  string  "Server error"
// @Router       /api/rooms/{code} [get]
func (h *RoomHandler) GetRoom(w http.ResponseWriter, r *http.Request) {
	code := chi.URLParam(r, "code")
	if !validateRoomCode(code) {
		http.Error(w, "invalid room code format", http.StatusBadRequest)
		return
	}

	resp, err := h.roomStore.GetRoom(r.Context(), code)
	if err != nil {
		if errors.Is(err, store.ErrRoomNotFound) {
			http.Error(w, "room not found", http.StatusNotFound)
			return
		}
		h.logger.Error("get room", zap.String("request_id", requestID(r)), zap.Error(err))
		http.Error(w, "failed to get room", http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusOK, resp, h.logger)
}

// setReadyRequest is the body for POST /api/rooms/{code}/ready.
type setReadyRequest struct {
	Ready bool `json:"ready"`
}

// SetReady handles POST /api/rooms/{code}/ready (requires room token; toggles the caller's ready flag).
//
// @Summary      Set ready
// @Description  Mark the authenticated player as ready or not ready in the lobby.
// @Tags         rooms
// @Accept       json
// @Produce      json
// @Param        code  path      string           true  "Room code (6 alphanumeric)"
// @Param        body  body      setReadyRequest  true  "Request body"
// @Success      200   {object}  store.RoomPlayer
// @Failure      400   {string}  string  "Invalid room code or body"
// @Failure      401   {string}  string  "Missing or invalid token"
// @Failure      403   {string}  string  "Token is for another room"
// @Failure      500   {string}  string  "Server error"
// @Security     BearerAuth
// @Router       /api/rooms/{code}/ready [post]
func (h *RoomHandler) SetReady(w http.ResponseWriter, r *http.Request) {
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

	var req setReadyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}

	room, err := h.roomStore.GetRoomByCode(r.Context(), code)
	if err != nil {
		if errors.Is(err, store.ErrRoomNotFound) {
			http.Error(w, "room not found", http.StatusNotFound)
			return
		}
		h.logger.Error("get room", zap.String("request_id", requestID(r)), zap.Error(err))
		http.Error(w, "failed to set ready", http.StatusInternalServerError)
		return
	}
	if room.ID != claims.RoomID {
		http.Error(w, "forbidden: token is for another room", http.StatusForbidden)
		return
	}

	player, err := h.roomStore.SetPlayerReady(r.Context(), claims.RoomPlayerID, req.Ready)
	if err != nil {
		if errors.Is(err, store.ErrPlayerNotInRoom) {
			http.Error(w, "player not in room", http.StatusUnauthorized)
			return
		}
		h.logger.Error("set ready", zap.String("request_id", requestID(r)), zap.Error(err))
		http.Error(w, "failed to set ready", http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusOK, player, h.logger)
}

// writeJSON encodes v as the JSON response body with the given status.
func writeJSON(w http.ResponseWriter, status int, v interface{}, logger *zap.Logger) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logger.Warn("encode response", zap.Error(err))
	}
}
