package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math/rand"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"golang.org/x/crypto/bcrypt"

	"github.com/trile/avalon-server/internal/rules"
)

// Sentinel errors handlers map to HTTP status codes.
var (
	ErrRoomNotFound     = errors.New("room not found")
	ErrPlayerNotInRoom  = errors.New("player not in room")
	ErrInvalidPassword  = errors.New("invalid password")
	ErrPasswordRequired = errors.New("password is required")
	ErrNameTaken        = errors.New("display name already taken in this room")
	ErrRoomFull         = errors.New("room is full")
)

// Room represents a game room.
type Room struct {
	ID           string                 `json:"id"`
	Code         string                 `json:"code"`
	PasswordHash *string                `json:"-"` // Never expose password hash
	Settings     map[string]interface{} `json:"settings"`
	CreatedAt    time.Time              `json:"created_at"`
	UpdatedAt    time.Time              `json:"updated_at"`
}

// RoomPlayer represents a player in a room.
type RoomPlayer struct {
	ID          string    `json:"id"`
	RoomID      string    `json:"room_id"`
	DisplayName string    `json:"display_name"`
	IsHost      bool      `json:"is_host"`
	IsReady     bool      `json:"is_ready"`
	CreatedAt   time.Time `json:"created_at"`
}

// CreateRoomRequest contains the data needed to create a room.
type CreateRoomRequest struct {
	Password    string                 `json:"password,omitempty"`
	DisplayName string                 `json:"display_name"`
	Settings    map[string]interface{} `json:"settings,omitempty"`
}

// CreateRoomResponse contains the response after creating a room.
// Token and ExpiresAt are set by the HTTP handler after calling CreateRoom.
type CreateRoomResponse struct {
	Room       *Room       `json:"room"`
	RoomPlayer *RoomPlayer `json:"room_player"`
	Token      string      `json:"token,omitempty"`
	ExpiresAt  *time.Time  `json:"expires_at,omitempty"`
}

// JoinRoomRequest contains the data needed to join a room.
type JoinRoomRequest struct {
	Code        string `json:"code"`
	Password    string `json:"password,omitempty"`
	DisplayName string `json:"display_name"`
}

// JoinRoomResponse contains the response after joining a room.
// Includes latest game and its latest state snapshot when the room has at least one game.
// Token and ExpiresAt are set by the HTTP handler after calling JoinRoom.
type JoinRoomResponse struct {
	Room                    *Room                  `json:"room"`
	RoomPlayer              *RoomPlayer            `json:"room_player"`
	LatestGame              *Game                  `json:"latest_game,omitempty"`
	GamePlayer              *GamePlayer            `json:"game_player,omitempty"` // New player's entry in latest game
	LatestGameStateSnapshot map[string]interface{} `json:"latest_game_state_snapshot,omitempty"`
	Token                   string                 `json:"token,omitempty"`
	ExpiresAt               *time.Time             `json:"expires_at,omitempty"`
}

// GetRoomResponse contains room info, players, latest game descriptor, and
// latest snapshot for GET /api/rooms/{code}.
type GetRoomResponse struct {
	Room                    *Room                  `json:"room"`
	Players                 []RoomPlayer           `json:"players"`
	LatestGame              *Game                  `json:"latest_game,omitempty"`
	LatestGameStateSnapshot map[string]interface{} `json:"latest_game_state_snapshot,omitempty"`
}

// RoomStore handles database operations for rooms.
type RoomStore struct {
	pool *pgxpool.Pool
}

// NewRoomStore creates a new RoomStore.
func NewRoomStore(pool *pgxpool.Pool) *RoomStore {
	return &RoomStore{pool: pool}
}

// generateRoomCode generates a unique, human-readable room code.
func generateRoomCode() string {
	const charset = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789" // Exclude confusing chars like 0, O, I, 1
	const codeLength = 6
	r := rand.New(rand.NewSource(time.Now().UnixNano()))
	code := make([]byte, codeLength)
	for i := range code {
		code[i] = charset[r.Intn(len(charset))]
	}
	return string(code)
}

// hashPassword hashes a password using bcrypt.
func hashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("hash password: %w", err)
	}
	return string(hash), nil
}

func scanRoom(row pgx.Row) (*Room, error) {
	var (
		room         Room
		passwordHash *string
		settingsJSON []byte
	)
	if err := row.Scan(&room.ID, &room.Code, &passwordHash, &settingsJSON, &room.CreatedAt, &room.UpdatedAt); err != nil {
		return nil, err
	}
	room.PasswordHash = passwordHash
	if err := json.Unmarshal(settingsJSON, &room.Settings); err != nil || room.Settings == nil {
		room.Settings = make(map[string]interface{})
	}
	return &room, nil
}

const roomColumns = `id, code, password_hash, settings_json, created_at, updated_at`

// CreateRoom creates a new room with the given settings and an initial host player.
func (s *RoomStore) CreateRoom(ctx context.Context, req CreateRoomRequest) (*CreateRoomResponse, error) {
	if req.DisplayName == "" {
		return nil, fmt.Errorf("display_name is required")
	}

	// Generate unique room code
	var code string
	for {
		code = generateRoomCode()
		var exists bool
		err := s.pool.QueryRow(ctx, `SELECT EXISTS(SELECT 1 FROM rooms WHERE code = $1)`, code).Scan(&exists)
		if err != nil {
			return nil, fmt.Errorf("check room code exists: %w", err)
		}
		if !exists {
			break
		}
	}

	// Hash password if provided
	var passwordHash *string
	if req.Password != "" {
		hash, err := hashPassword(req.Password)
		if err != nil {
			return nil, err
		}
		passwordHash = &hash
	}

	// Serialize settings to JSONB
	settingsJSON := []byte("{}")
	if len(req.Settings) > 0 {
		var err error
		settingsJSON, err = json.Marshal(req.Settings)
		if err != nil {
			return nil, fmt.Errorf("marshal settings: %w", err)
		}
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	room, err := scanRoom(tx.QueryRow(ctx,
		`INSERT INTO rooms (code, password_hash, settings_json)
		 VALUES ($1, $2, $3)
		 RETURNING `+roomColumns, code, passwordHash, settingsJSON))
	if err != nil {
		return nil, fmt.Errorf("insert room: %w", err)
	}

	roomPlayer, err := insertRoomPlayer(ctx, tx, room.ID, req.DisplayName, true)
	if err != nil {
		return nil, fmt.Errorf("insert room player: %w", err)
	}

	// Create initial game (status waiting) and add host as game player
	var gameID string
	err = tx.QueryRow(ctx,
		`INSERT INTO games (room_id, status, config_json)
		 VALUES ($1, $2, '{}')
		 RETURNING id`, room.ID, GameStatusWaiting).Scan(&gameID)
	if err != nil {
		return nil, fmt.Errorf("create initial game: %w", err)
	}
	if _, err := tx.Exec(ctx,
		`INSERT INTO game_players (game_id, room_player_id) VALUES ($1, $2)`,
		gameID, roomPlayer.ID); err != nil {
		return nil, fmt.Errorf("create game player for host: %w", err)
	}

	// Create initial snapshot (version 1, lobby state) for the initial game
	if _, err := tx.Exec(ctx,
		`INSERT INTO game_state_snapshots (game_id, version, state_json) VALUES ($1, 1, $2)`,
		gameID, LobbyStateJSON); err != nil {
		return nil, fmt.Errorf("create initial game snapshot: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit transaction: %w", err)
	}

	return &CreateRoomResponse{Room: room, RoomPlayer: roomPlayer}, nil
}

func insertRoomPlayer(ctx context.Context, tx pgx.Tx, roomID, displayName string, isHost bool) (*RoomPlayer, error) {
	var rp RoomPlayer
	err := tx.QueryRow(ctx,
		`INSERT INTO room_players (room_id, display_name, is_host)
		 VALUES ($1, $2, $3)
		 RETURNING id, room_id, display_name, is_host, is_ready, created_at`,
		roomID, displayName, isHost).
		Scan(&rp.ID, &rp.RoomID, &rp.DisplayName, &rp.IsHost, &rp.IsReady, &rp.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &rp, nil
}

// GetRoomByCode returns the room with the given join code.
func (s *RoomStore) GetRoomByCode(ctx context.Context, code string) (*Room, error) {
	room, err := scanRoom(s.pool.QueryRow(ctx,
		`SELECT `+roomColumns+` FROM rooms WHERE code = $1`, code))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrRoomNotFound
		}
		return nil, fmt.Errorf("get room by code: %w", err)
	}
	return room, nil
}

// JoinRoom allows a player to join an existing room by code.
func (s *RoomStore) JoinRoom(ctx context.Context, req JoinRoomRequest) (*JoinRoomResponse, error) {
	if req.DisplayName == "" {
		return nil, fmt.Errorf("display_name is required")
	}

	room, err := s.GetRoomByCode(ctx, req.Code)
	if err != nil {
		return nil, err
	}

	// Validate password if room has one
	if room.PasswordHash != nil {
		if req.Password == "" {
			return nil, ErrPasswordRequired
		}
		if err := bcrypt.CompareHashAndPassword([]byte(*room.PasswordHash), []byte(req.Password)); err != nil {
			return nil, ErrInvalidPassword
		}
	}

	var nameTaken bool
	err = s.pool.QueryRow(ctx,
		`SELECT EXISTS(SELECT 1 FROM room_players WHERE room_id = $1 AND display_name = $2)`,
		room.ID, req.DisplayName).Scan(&nameTaken)
	if err != nil {
		return nil, fmt.Errorf("check display name exists: %w", err)
	}
	if nameTaken {
		return nil, ErrNameTaken
	}

	// Insert room player and add to latest game in a transaction
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	// Capacity check against the room settings, capped at the playable bound.
	// The room row is locked first so concurrent joins cannot overshoot.
	if _, err := tx.Exec(ctx, `SELECT 1 FROM rooms WHERE id = $1 FOR UPDATE`, room.ID); err != nil {
		return nil, fmt.Errorf("lock room: %w", err)
	}
	var playerCount int
	if err := tx.QueryRow(ctx,
		`SELECT COUNT(*) FROM room_players WHERE room_id = $1`, room.ID).Scan(&playerCount); err != nil {
		return nil, fmt.Errorf("count room players: %w", err)
	}
	if playerCount >= maxPlayersForRoom(room) {
		return nil, ErrRoomFull
	}

	roomPlayer, err := insertRoomPlayer(ctx, tx, room.ID, req.DisplayName, false)
	if err != nil {
		return nil, fmt.Errorf("insert room player: %w", err)
	}

	var (
		latestGame *Game
		gamePlayer *GamePlayer
	)
	latestGame, err = scanLatestGame(ctx, tx, room.ID)
	if err != nil {
		return nil, fmt.Errorf("get latest game: %w", err)
	}
	// Late joiners only enter games that have not started.
	if latestGame != nil && latestGame.Status == GameStatusWaiting {
		var gp GamePlayer
		err = tx.QueryRow(ctx,
			`INSERT INTO game_players (game_id, room_player_id)
			 VALUES ($1, $2)
			 RETURNING id, game_id, room_player_id, role, joined_at, left_at`,
			latestGame.ID, roomPlayer.ID).
			Scan(&gp.ID, &gp.GameID, &gp.RoomPlayerID, &gp.Role, &gp.JoinedAt, &gp.LeftAt)
		if err != nil {
			return nil, fmt.Errorf("create game player: %w", err)
		}
		gamePlayer = &gp
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit transaction: %w", err)
	}

	return &JoinRoomResponse{
		Room:       room,
		RoomPlayer: roomPlayer,
		LatestGame: latestGame,
		GamePlayer: gamePlayer,
	}, nil
}

// maxPlayersForRoom reads the max_players room setting. Values outside
// (0, rules.MaxPlayers] fall back to the playable bound.
func maxPlayersForRoom(room *Room) int {
	limit := rules.MaxPlayers
	if v, ok := room.Settings["max_players"].(float64); ok {
		if n := int(v); n > 0 && n < limit {
			limit = n
		}
	}
	return limit
}

// GetRoomPlayerInRoom returns the room player with the given ID if they belong
// to the room identified by code.
func (s *RoomStore) GetRoomPlayerInRoom(ctx context.Context, code string, roomPlayerID string) (*RoomPlayer, error) {
	var rp RoomPlayer
	err := s.pool.QueryRow(ctx,
		`SELECT rp.id, rp.room_id, rp.display_name, rp.is_host, rp.is_ready, rp.created_at
		 FROM room_players rp
		 JOIN rooms r ON r.id = rp.room_id
		 WHERE r.code = $1 AND rp.id = $2`, code, roomPlayerID).
		Scan(&rp.ID, &rp.RoomID, &rp.DisplayName, &rp.IsHost, &rp.IsReady, &rp.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrPlayerNotInRoom
		}
		return nil, fmt.Errorf("get room player: %w", err)
	}
	return &rp, nil
}

// GetRoomPlayers returns the room's players in join order.
func (s *RoomStore) GetRoomPlayers(ctx context.Context, roomID string) ([]RoomPlayer, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT id, room_id, display_name, is_host, is_ready, created_at
		 FROM room_players
		 WHERE room_id = $1
		 ORDER BY created_at ASC`, roomID)
	if err != nil {
		return nil, fmt.Errorf("get room players: %w", err)
	}
	defer rows.Close()

	var players []RoomPlayer
	for rows.Next() {
		var rp RoomPlayer
		if err := rows.Scan(&rp.ID, &rp.RoomID, &rp.DisplayName, &rp.IsHost, &rp.IsReady, &rp.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan room player: %w", err)
		}
		players = append(players, rp)
	}
	return players, rows.Err()
}

// SetPlayerReady updates the lobby readiness flag for a room player and
// returns the updated player.
func (s *RoomStore) SetPlayerReady(ctx context.Context, roomPlayerID string, ready bool) (*RoomPlayer, error) {
	var rp RoomPlayer
	err := s.pool.QueryRow(ctx,
		`UPDATE room_players SET is_ready = $2
		 WHERE id = $1
		 RETURNING id, room_id, display_name, is_host, is_ready, created_at`,
		roomPlayerID, ready).
		Scan(&rp.ID, &rp.RoomID, &rp.DisplayName, &rp.IsHost, &rp.IsReady, &rp.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrPlayerNotInRoom
		}
		return nil, fmt.Errorf("set player ready: %w", err)
	}
	return &rp, nil
}

// TouchRoom bumps the room's updated_at so idle cleanup spares active rooms.
func (s *RoomStore) TouchRoom(ctx context.Context, roomID string) error {
	_, err := s.pool.Exec(ctx, `UPDATE rooms SET updated_at = now() WHERE id = $1`, roomID)
	if err != nil {
		return fmt.Errorf("touch room: %w", err)
	}
	return nil
}

// DeleteIdleRooms removes rooms untouched for longer than the given age and
// with no game in progress. Dependent rows go with them via ON DELETE CASCADE.
// Returns the number of rooms removed.
func (s *RoomStore) DeleteIdleRooms(ctx context.Context, olderThan time.Duration) (int64, error) {
	tag, err := s.pool.Exec(ctx,
		`DELETE FROM rooms r
		 WHERE r.updated_at < now() - $1::interval
		   AND NOT EXISTS (
		     SELECT 1 FROM games g
		     WHERE g.room_id = r.id AND g.status = $2
		   )`, olderThan.String(), GameStatusInProgress)
	if err != nil {
		return 0, fmt.Errorf("delete idle rooms: %w", err)
	}
	return tag.RowsAffected(), nil
}

// GetRoom returns room info, players, latest game, and latest snapshot for the given room code.
func (s *RoomStore) GetRoom(ctx context.Context, code string) (*GetRoomResponse, error) {
	room, err := s.GetRoomByCode(ctx, code)
	if err != nil {
		return nil, err
	}

	players, err := s.GetRoomPlayers(ctx, room.ID)
	if err != nil {
		return nil, err
	}

	latestGame, err := scanLatestGame(ctx, s.pool, room.ID)
	if err != nil {
		return nil, fmt.Errorf("get latest game: %w", err)
	}

	var snapshotMap map[string]interface{}
	if latestGame != nil {
		var stateJSON []byte
		err := s.pool.QueryRow(ctx,
			`SELECT state_json FROM game_state_snapshots
			 WHERE game_id = $1
			 ORDER BY version DESC
			 LIMIT 1`, latestGame.ID).Scan(&stateJSON)
		if err != nil && !errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("get latest snapshot: %w", err)
		}
		// This endpoint has no auth; only the public projection may leave.
		if len(stateJSON) > 0 {
			snapshotMap = publicSnapshotMap(stateJSON)
		}
	}

	return &GetRoomResponse{
		Room:                    room,
		Players:                 players,
		LatestGame:              latestGame,
		LatestGameStateSnapshot: snapshotMap,
	}, nil
}
