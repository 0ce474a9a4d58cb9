package handler_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/trile/avalon-server/internal/auth"
	"github.com/trile/avalon-server/internal/httpapi/handler"
	"github.com/trile/avalon-server/internal/store"
)

var testTokenSecret = []byte("test-secret")

func setupRoomHandler(t *testing.T) (*handler.RoomHandler, *store.RoomStore, *pgxpool.Pool) {
	t.Helper()
	pool := store.SetupTestDB(t)
	t.Cleanup(pool.Close)
	roomStore := store.NewRoomStore(pool)
	return handler.NewRoomHandler(roomStore, testTokenSecret, nil), roomStore, pool
}

func roomRouter(h *handler.RoomHandler) http.Handler {
	r := chi.NewRouter()
	r.Post("/api/rooms", h.CreateRoom)
	r.Get("/api/rooms/{code}", h.GetRoom)
	r.Post("/api/rooms/{code}/join", h.JoinRoom)
	r.Post("/api/rooms/{code}/ready", h.SetReady)
	return r
}

func postJSON(t *testing.T, router http.Handler, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	raw, err := json.Marshal(body)
	if err != nil {
		t.Fatalf("marshal body: %v", err)
	}
	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(raw))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestCreateRoomHandler(t *testing.T) {
	h, _, _ := setupRoomHandler(t)
	router := roomRouter(h)

	t.Run("success", func(t *testing.T) {
		w := postJSON(t, router, "/api/rooms", map[string]interface{}{
			"display_name": "Host",
			"settings":     map[string]interface{}{"max_players": 10},
		})
		if w.Code != http.StatusCreated {
			t.Fatalf("expected 201, got %d: %s", w.Code, w.Body.String())
		}
		var resp store.CreateRoomResponse
		if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
			t.Fatalf("decode response: %v", err)
		}
		if len(resp.Room.Code) != 6 {
			t.Errorf("expected 6-char room code, got %q", resp.Room.Code)
		}
		if !resp.RoomPlayer.IsHost {
			t.Error("expected creator to be host")
		}
		if resp.Token == "" {
			t.Error("expected token in response")
		}
	})

	t.Run("missing display name", func(t *testing.T) {
		w := postJSON(t, router, "/api/rooms", map[string]interface{}{})
		if w.Code != http.StatusBadRequest {
			t.Errorf("expected 400, got %d", w.Code)
		}
	})

	t.Run("password too long", func(t *testing.T) {
		long := make([]byte, handler.PasswordMaxLen+1)
		for i := range long {
			long[i] = 'a'
		}
		w := postJSON(t, router, "/api/rooms", map[string]interface{}{
			"display_name": "Host",
			"password":     string(long),
		})
		if w.Code != http.StatusBadRequest {
			t.Errorf("expected 400, got %d", w.Code)
		}
	})
}

func TestJoinRoomHandler(t *testing.T) {
	h, roomStore, _ := setupRoomHandler(t)
	router := roomRouter(h)
	ctx := context.Background()

	created, err := roomStore.CreateRoom(ctx, store.CreateRoomRequest{DisplayName: "Host", Password: "secret"})
	if err != nil {
		t.Fatalf("create room: %v", err)
	}
	code := created.Room.Code

	t.Run("success", func(t *testing.T) {
		w := postJSON(t, router, "/api/rooms/"+code+"/join", map[string]interface{}{
			"display_name": "Guest",
			"password":     "secret",
		})
		if w.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
		}
		var resp store.JoinRoomResponse
		if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
			t.Fatalf("decode response: %v", err)
		}
		if resp.Token == "" {
			t.Error("expected token in response")
		}
	})

	t.Run("wrong password", func(t *testing.T) {
		w := postJSON(t, router, "/api/rooms/"+code+"/join", map[string]interface{}{
			"display_name": "Guest2",
			"password":     "wrong",
		})
		if w.Code != http.StatusUnauthorized {
			t.Errorf("expected 401, got %d", w.Code)
		}
	})

	t.Run("name taken", func(t *testing.T) {
		w := postJSON(t, router, "/api/rooms/"+code+"/join", map[string]interface{}{
			"display_name": "Host",
			"password":     "secret",
		})
		if w.Code != http.StatusConflict {
			t.Errorf("expected 409, got %d", w.Code)
		}
	})

	t.Run("room not found", func(t *testing.T) {
		w := postJSON(t, router, "/api/rooms/ZZZZ99/join", map[string]interface{}{
			"display_name": "Guest",
		})
		if w.Code != http.StatusNotFound {
			t.Errorf("expected 404, got %d", w.Code)
		}
	})

	t.Run("invalid code format", func(t *testing.T) {
		w := postJSON(t, router, "/api/rooms/abc/join", map[string]interface{}{
			"display_name": "Guest",
		})
		if w.Code != http.StatusBadRequest {
			t.Errorf("expected 400, got %d", w.Code)
		}
	})
}

func TestGetRoomHandler(t *testing.T) {
	h, roomStore, _ := setupRoomHandler(t)
	router := roomRouter(h)

	created, err := roomStore.CreateRoom(context.Background(), store.CreateRoomRequest{DisplayName: "Host"})
	if err != nil {
		t.Fatalf("create room: %v", err)
	}

	t.Run("success", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/api/rooms/"+created.Room.Code, nil)
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)
		if w.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
		}
		var resp store.GetRoomResponse
		if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
			t.Fatalf("decode response: %v", err)
		}
		if len(resp.Players) != 1 {
			t.Errorf("expected 1 player, got %d", len(resp.Players))
		}
	})

	t.Run("not found", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/api/rooms/ZZZZ99", nil)
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)
		if w.Code != http.StatusNotFound {
			t.Errorf("expected 404, got %d", w.Code)
		}
	})
}

func TestSetReadyHandler(t *testing.T) {
	h, roomStore, _ := setupRoomHandler(t)
	router := roomRouter(h)
	ctx := context.Background()

	created, err := roomStore.CreateRoom(ctx, store.CreateRoomRequest{DisplayName: "Host"})
	if err != nil {
		t.Fatalf("create room: %v", err)
	}

	withClaims := func(req *http.Request, roomID, playerID string) *http.Request {
		claims := &auth.Claims{RoomID: roomID, RoomPlayerID: playerID}
		return req.WithContext(context.WithValue(req.Context(), handler.ClaimsContextKey, claims))
	}

	t.Run("success", func(t *testing.T) {
		body := bytes.NewReader([]byte(`{"ready":true}`))
		req := httptest.NewRequest(http.MethodPost, "/api/rooms/"+created.Room.Code+"/ready", body)
		req = withClaims(req, created.Room.ID, created.RoomPlayer.ID)
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)
		if w.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
		}
		var player store.RoomPlayer
		if err := json.Unmarshal(w.Body.Bytes(), &player); err != nil {
			t.Fatalf("decode response: %v", err)
		}
		if !player.IsReady {
			t.Error("expected is_ready true")
		}
	})

	t.Run("no claims", func(t *testing.T) {
		body := bytes.NewReader([]byte(`{"ready":true}`))
		req := httptest.NewRequest(http.MethodPost, "/api/rooms/"+created.Room.Code+"/ready", body)
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)
		if w.Code != http.StatusUnauthorized {
			t.Errorf("expected 401, got %d", w.Code)
		}
	})

	t.Run("token for another room", func(t *testing.T) {
		other, err := roomStore.CreateRoom(ctx, store.CreateRoomRequest{DisplayName: "Other"})
		if err != nil {
			t.Fatalf("create other room: %v", err)
		}
		body := bytes.NewReader([]byte(`{"ready":true}`))
		req := httptest.NewRequest(http.MethodPost, "/api/rooms/"+created.Room.Code+"/ready", body)
		req = withClaims(req, other.Room.ID, other.RoomPlayer.ID)
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)
		if w.Code != http.StatusForbidden {
			t.Errorf("expected 403, got %d", w.Code)
		}
	})
}
