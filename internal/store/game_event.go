package store

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

// GameEvent represents one entry in a game's append-only event log.
type GameEvent struct {
	ID           string                 `json:"id"`
	GameID       string                 `json:"game_id"`
	RoomPlayerID *string                `json:"room_player_id,omitempty"`
	Type         string                 `json:"type"`
	Payload      map[string]interface{} `json:"payload"`
	CreatedAt    time.Time              `json:"created_at"`
}

// CreateGameEventRequest contains the data needed to create a game event.
type CreateGameEventRequest struct {
	GameID       string                 `json:"game_id"`
	RoomPlayerID *string                `json:"room_player_id,omitempty"`
	Type         string                 `json:"type"`
	Payload      map[string]interface{} `json:"payload,omitempty"`
}

// ChatMessage is a persisted room chat line.
type ChatMessage struct {
	ID           string    `json:"id"`
	RoomID       string    `json:"room_id"`
	RoomPlayerID string    `json:"room_player_id"`
	Body         string    `json:"body"`
	CreatedAt    time.Time `json:"created_at"`
}

// GameEventStore handles database operations for game events and chat.
type GameEventStore struct {
	pool *pgxpool.Pool
}

// NewGameEventStore creates a new GameEventStore.
func NewGameEventStore(pool *pgxpool.Pool) *GameEventStore {
	return &GameEventStore{pool: pool}
}

const gameEventColumns = `id, game_id, room_player_id, type, payload_json, created_at`

func (s *GameEventStore) scanGameEvent(row interface{ Scan(dest ...any) error }) (*GameEvent, error) {
	var (
		ev          GameEvent
		payloadJSON []byte
	)
	if err := row.Scan(&ev.ID, &ev.GameID, &ev.RoomPlayerID, &ev.Type, &payloadJSON, &ev.CreatedAt); err != nil {
		return nil, err
	}
	if err := json.Unmarshal(payloadJSON, &ev.Payload); err != nil || ev.Payload == nil {
		ev.Payload = make(map[string]interface{})
	}
	return &ev, nil
}

// CreateGameEvent appends a new event to the game's log.
func (s *GameEventStore) CreateGameEvent(ctx context.Context, req CreateGameEventRequest) (*GameEvent, error) {
	payloadJSON := []byte("{}")
	if len(req.Payload) > 0 {
		var err error
		payloadJSON, err = json.Marshal(req.Payload)
		if err != nil {
			return nil, fmt.Errorf("marshal payload: %w", err)
		}
	}

	var roomPlayerID *string
	if req.RoomPlayerID != nil && *req.RoomPlayerID != "" {
		roomPlayerID = req.RoomPlayerID
	}

	event, err := s.scanGameEvent(s.pool.QueryRow(ctx,
		`INSERT INTO game_events (game_id, room_player_id, type, payload_json)
		 VALUES ($1, $2, $3, $4)
		 RETURNING `+gameEventColumns,
		req.GameID, roomPlayerID, req.Type, payloadJSON))
	if err != nil {
		return nil, fmt.Errorf("create game event: %w", err)
	}
	return event, nil
}

// GetGameEvents retrieves all events for a game in insertion order.
func (s *GameEventStore) GetGameEvents(ctx context.Context, gameID string) ([]GameEvent, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT `+gameEventColumns+` FROM game_events
		 WHERE game_id = $1
		 ORDER BY created_at ASC, id ASC`, gameID)
	if err != nil {
		return nil, fmt.Errorf("get game events: %w", err)
	}
	defer rows.Close()

	var events []GameEvent
	for rows.Next() {
		event, err := s.scanGameEvent(rows)
		if err != nil {
			return nil, fmt.Errorf("scan game event: %w", err)
		}
		events = append(events, *event)
	}
	return events, rows.Err()
}

// CreateChatMessage persists a chat line for the room.
func (s *GameEventStore) CreateChatMessage(ctx context.Context, roomID, roomPlayerID, body string) (*ChatMessage, error) {
	var msg ChatMessage
	err := s.pool.QueryRow(ctx,
		`INSERT INTO chat_messages (room_id, room_player_id, body)
		 VALUES ($1, $2, $3)
		 RETURNING id, room_id, room_player_id, body, created_at`,
		roomID, roomPlayerID, body).
		Scan(&msg.ID, &msg.RoomID, &msg.RoomPlayerID, &msg.Body, &msg.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("create chat message: %w", err)
	}
	return &msg, nil
}

// GetChatMessages returns the last limit chat messages for the room, oldest first.
func (s *GameEventStore) GetChatMessages(ctx context.Context, roomID string, limit int) ([]ChatMessage, error) {
	if limit <= 0 {
		limit = 100
	}
	rows, err := s.pool.Query(ctx,
		`SELECT id, room_id, room_player_id, body, created_at FROM (
		   SELECT id, room_id, room_player_id, body, created_at
		   FROM chat_messages
		   WHERE room_id = $1
		   ORDER BY created_at DESC
		   LIMIT $2
		 ) recent
		 ORDER BY created_at ASC`, roomID, limit)
	if err != nil {
		return nil, fmt.Errorf("get chat messages: %w", err)
	}
	defer rows.Close()

	var msgs []ChatMessage
	for rows.Next() {
		var msg ChatMessage
		if err := rows.Scan(&msg.ID, &msg.RoomID, &msg.RoomPlayerID, &msg.Body, &msg.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan chat message: %w", err)
		}
		msgs = append(msgs, msg)
	}
	return msgs, rows.Err()
}
