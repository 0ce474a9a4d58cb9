package httpapi_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	wsgorilla "github.com/gorilla/websocket"

	"github.com/trile/avalon-server/internal/auth"
	"github.com/trile/avalon-server/internal/games"
	"github.com/trile/avalon-server/internal/httpapi"
	"github.com/trile/avalon-server/internal/store"
	"github.com/trile/avalon-server/internal/websocket"
)

var testTokenSecret = []byte("test-secret")

// setupWSServer spins up a test HTTP server exposing only the room WebSocket route,
// backed by a real database. Returns the server and the room store.
func setupWSServer(t *testing.T) (*httptest.Server, *store.RoomStore) {
	t.Helper()
	pool := store.SetupTestDB(t)
	t.Cleanup(pool.Close)

	roomStore := store.NewRoomStore(pool)
	gameStore := store.NewGameStore(pool)
	eventStore := store.NewGameEventStore(pool)
	engine := games.NewEngine(gameStore, eventStore)

	hub := websocket.NewHub(nil)
	hub.SetMessageHandler(websocket.NewMessageHandler(hub, engine, gameStore, eventStore, nil, nil))
	go hub.Run()

	wsHandler := websocket.NewWSHandler(hub, roomStore, testTokenSecret, nil)
	srv := httptest.NewServer(httpapi.SetupRoomWSRouter(wsHandler))
	t.Cleanup(srv.Close)
	return srv, roomStore
}

func wsURL(srv *httptest.Server, code, token string) string {
	u := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws/rooms/" + code
	if token != "" {
		u += "?token=" + token
	}
	return u
}

func dialRoom(t *testing.T, srv *httptest.Server, code, token string) *wsgorilla.Conn {
	t.Helper()
	conn, resp, err := wsgorilla.DefaultDialer.Dial(wsURL(srv, code, token), nil)
	if err != nil {
		t.Fatalf("dial websocket: %v (status %v)", err, resp)
	}
	t.Cleanup(func() { conn.Close() })
	return conn
}

func TestRoomWebSocket_Unauthorized(t *testing.T) {
	srv, roomStore := setupWSServer(t)

	created, err := roomStore.CreateRoom(context.Background(), store.CreateRoomRequest{DisplayName: "Host"})
	if err != nil {
		t.Fatalf("create room: %v", err)
	}

	_, resp, err := wsgorilla.DefaultDialer.Dial(wsURL(srv, created.Room.Code, ""), nil)
	if err == nil {
		t.Fatal("expected dial to fail without token")
	}
	if resp == nil || resp.StatusCode != http.StatusUnauthorized {
		t.Errorf("expected 401, got %v", resp)
	}
}

func TestRoomWebSocket_TokenForAnotherRoom(t *testing.T) {
	srv, roomStore := setupWSServer(t)
	ctx := context.Background()

	roomA, err := roomStore.CreateRoom(ctx, store.CreateRoomRequest{DisplayName: "HostA"})
	if err != nil {
		t.Fatalf("create room A: %v", err)
	}
	roomB, err := roomStore.CreateRoom(ctx, store.CreateRoomRequest{DisplayName: "HostB"})
	if err != nil {
		t.Fatalf("create room B: %v", err)
	}

	token, _, err := auth.GenerateToken(roomB.Room.ID, roomB.RoomPlayer.ID, testTokenSecret, auth.DefaultTokenExpiry)
	if err != nil {
		t.Fatalf("generate token: %v", err)
	}

	_, resp, err := wsgorilla.DefaultDialer.Dial(wsURL(srv, roomA.Room.Code, token), nil)
	if err == nil {
		t.Fatal("expected dial to fail with token for another room")
	}
	if resp == nil || resp.StatusCode != http.StatusUnauthorized {
		t.Errorf("expected 401, got %v", resp)
	}
}

func TestRoomWebSocket_ChatBroadcast(t *testing.T) {
	srv, roomStore := setupWSServer(t)
	ctx := context.Background()

	created, err := roomStore.CreateRoom(ctx, store.CreateRoomRequest{DisplayName: "Host"})
	if err != nil {
		t.Fatalf("create room: %v", err)
	}
	code := created.Room.Code

	joined, err := roomStore.JoinRoom(ctx, store.JoinRoomRequest{Code: code, DisplayName: "Guest"})
	if err != nil {
		t.Fatalf("join room: %v", err)
	}

	hostToken, _, err := auth.GenerateToken(created.Room.ID, created.RoomPlayer.ID, testTokenSecret, auth.DefaultTokenExpiry)
	if err != nil {
		t.Fatalf("generate host token: %v", err)
	}
	guestToken, _, err := auth.GenerateToken(created.Room.ID, joined.RoomPlayer.ID, testTokenSecret, auth.DefaultTokenExpiry)
	if err != nil {
		t.Fatalf("generate guest token: %v", err)
	}

	hostConn := dialRoom(t, srv, code, hostToken)
	guestConn := dialRoom(t, srv, code, guestToken)

	// Give the hub a moment to register both clients.
	time.Sleep(100 * time.Millisecond)

	msg := map[string]interface{}{
		"type":    "chat",
		"payload": map[string]interface{}{"message": "hello room"},
	}
	if err := hostConn.WriteJSON(msg); err != nil {
		t.Fatalf("write chat: %v", err)
	}

	guestConn.SetReadDeadline(time.Now().Add(2 * time.Second))
	var envelope struct {
		Type    string                 `json:"type"`
		Event   string                 `json:"event"`
		Payload map[string]interface{} `json:"payload"`
	}
	raw := json.RawMessage{}
	if err := guestConn.ReadJSON(&raw); err != nil {
		t.Fatalf("read broadcast: %v", err)
	}
	if err := json.Unmarshal(raw, &envelope); err != nil {
		t.Fatalf("decode envelope: %v", err)
	}
	if envelope.Type != "event" || envelope.Event != "chat" {
		t.Fatalf("expected chat event, got type=%q event=%q", envelope.Type, envelope.Event)
	}
	if got := envelope.Payload["message"]; got != "hello room" {
		t.Errorf("expected message %q, got %v", "hello room", got)
	}
	if got := envelope.Payload["display_name"]; got != "Host" {
		t.Errorf("expected display_name Host, got %v", got)
	}
}
