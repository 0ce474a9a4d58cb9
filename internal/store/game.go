package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/trile/avalon-server/internal/rules"
)

// Game status values.
const (
	GameStatusWaiting    = "waiting"
	GameStatusInProgress = "in_progress"
	GameStatusFinished   = "finished"
)

// ErrGameNotFound is returned when a game ID resolves to no row.
var ErrGameNotFound = errors.New("game not found")

// ErrRoomEmpty is returned when a game is created for a room with no players.
var ErrRoomEmpty = errors.New("cannot create game: room has no players")

// Game represents a game instance.
type Game struct {
	ID        string                 `json:"id"`
	RoomID    string                 `json:"room_id"`
	Status    string                 `json:"status"` // waiting | in_progress | finished
	Config    map[string]interface{} `json:"config"`
	CreatedAt time.Time              `json:"created_at"`
	EndedAt   *time.Time             `json:"ended_at,omitempty"`
}

// GamePlayer represents a player in a game.
type GamePlayer struct {
	ID           string     `json:"id"`
	GameID       string     `json:"game_id"`
	RoomPlayerID string     `json:"room_player_id"`
	Role         *string    `json:"role,omitempty"`
	JoinedAt     time.Time  `json:"joined_at"`
	LeftAt       *time.Time `json:"left_at,omitempty"`
}

// CreateGameRequest contains the data needed to create a game.
// Exactly one of Code or RoomID must be set. Code is the room's join code; RoomID is the room UUID.
type CreateGameRequest struct {
	Code   string                 `json:"code,omitempty"`    // room join code (preferred)
	RoomID string                 `json:"room_id,omitempty"` // room UUID (e.g. for internal use)
	Config map[string]interface{} `json:"config,omitempty"`
}

// CreateGameResponse contains the response after creating a game.
type CreateGameResponse struct {
	Game                    *Game                  `json:"game"`
	Players                 []GamePlayer           `json:"players"`
	LatestGameStateSnapshot map[string]interface{} `json:"latest_game_state_snapshot,omitempty"`
}

// LobbyStateJSON is the initial snapshot state for a new game (phase: lobby).
var LobbyStateJSON = []byte(`{"phase":"lobby"}`)

// querier is satisfied by both *pgxpool.Pool and pgx.Tx.
type querier interface {
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
}

const gameColumns = `id, room_id, status, config_json, created_at, ended_at`

func scanGame(row pgx.Row) (*Game, error) {
	var (
		game       Game
		configJSON []byte
	)
	if err := row.Scan(&game.ID, &game.RoomID, &game.Status, &configJSON, &game.CreatedAt, &game.EndedAt); err != nil {
		return nil, err
	}
	if err := json.Unmarshal(configJSON, &game.Config); err != nil || game.Config == nil {
		game.Config = make(map[string]interface{})
	}
	return &game, nil
}

// scanLatestGame returns the room's most recent game, or nil if it has none.
func scanLatestGame(ctx context.Context, q querier, roomID string) (*Game, error) {
	game, err := scanGame(q.QueryRow(ctx,
		`SELECT `+gameColumns+` FROM games
		 WHERE room_id = $1
		 ORDER BY created_at DESC
		 LIMIT 1`, roomID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return game, nil
}

// GameStore handles database operations for games.
type GameStore struct {
	pool *pgxpool.Pool
}

// NewGameStore creates a new GameStore.
func NewGameStore(pool *pgxpool.Pool) *GameStore {
	return &GameStore{pool: pool}
}

// CreateGame creates a new game in a room with all room players.
func (s *GameStore) CreateGame(ctx context.Context, req CreateGameRequest) (*CreateGameResponse, error) {
	var roomID string
	switch {
	case req.Code != "":
		err := s.pool.QueryRow(ctx, `SELECT id FROM rooms WHERE code = $1`, req.Code).Scan(&roomID)
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return nil, ErrRoomNotFound
			}
			return nil, fmt.Errorf("get room by code: %w", err)
		}
	case req.RoomID != "":
		err := s.pool.QueryRow(ctx, `SELECT id FROM rooms WHERE id = $1`, req.RoomID).Scan(&roomID)
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return nil, ErrRoomNotFound
			}
			return nil, fmt.Errorf("get room: %w", err)
		}
	default:
		return nil, fmt.Errorf("code or room_id is required")
	}

	// Serialize config to JSONB
	configJSON := []byte("{}")
	if len(req.Config) > 0 {
		var err error
		configJSON, err = json.Marshal(req.Config)
		if err != nil {
			return nil, fmt.Errorf("marshal config: %w", err)
		}
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	game, err := scanGame(tx.QueryRow(ctx,
		`INSERT INTO games (room_id, status, config_json)
		 VALUES ($1, $2, $3)
		 RETURNING `+gameColumns, roomID, GameStatusWaiting, configJSON))
	if err != nil {
		return nil, fmt.Errorf("create game: %w", err)
	}

	// Add all room players to the game, in room join order.
	rows, err := tx.Query(ctx,
		`INSERT INTO game_players (game_id, room_player_id)
		 SELECT $1, id FROM room_players WHERE room_id = $2 ORDER BY created_at ASC
		 RETURNING id, game_id, room_player_id, role, joined_at, left_at`,
		game.ID, roomID)
	if err != nil {
		return nil, fmt.Errorf("create game players: %w", err)
	}
	var players []GamePlayer
	for rows.Next() {
		var gp GamePlayer
		if err := rows.Scan(&gp.ID, &gp.GameID, &gp.RoomPlayerID, &gp.Role, &gp.JoinedAt, &gp.LeftAt); err != nil {
			rows.Close()
			return nil, fmt.Errorf("scan game player: %w", err)
		}
		players = append(players, gp)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("create game players: %w", err)
	}
	if len(players) == 0 {
		return nil, ErrRoomEmpty
	}

	// Create initial snapshot (version 1, lobby state)
	if _, err := tx.Exec(ctx,
		`INSERT INTO game_state_snapshots (game_id, version, state_json) VALUES ($1, 1, $2)`,
		game.ID, LobbyStateJSON); err != nil {
		return nil, fmt.Errorf("create initial snapshot: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit transaction: %w", err)
	}

	snapshotMap := publicSnapshotMap(LobbyStateJSON)

	return &CreateGameResponse{
		Game:                    game,
		Players:                 players,
		LatestGameStateSnapshot: snapshotMap,
	}, nil
}

// GetGame returns the game with the given ID.
func (s *GameStore) GetGame(ctx context.Context, gameID string) (*Game, error) {
	game, err := scanGame(s.pool.QueryRow(ctx,
		`SELECT `+gameColumns+` FROM games WHERE id = $1`, gameID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrGameNotFound
		}
		return nil, fmt.Errorf("get game: %w", err)
	}
	return game, nil
}

// GetLatestGameForRoom returns the most recently created game for the room
// (by created_at DESC), or nil if the room has no games.
func (s *GameStore) GetLatestGameForRoom(ctx context.Context, roomID string) (*Game, error) {
	game, err := scanLatestGame(ctx, s.pool, roomID)
	if err != nil {
		return nil, fmt.Errorf("get latest game: %w", err)
	}
	return game, nil
}

// publicSnapshotMap decodes a raw snapshot and strips hidden data (roles,
// per-player mission ballots, assassination record) before it leaves over
// REST. Undecodable snapshots yield nil rather than leaking raw JSON.
func publicSnapshotMap(stateJSON []byte) map[string]interface{} {
	state, err := rules.UnmarshalSnapshot(stateJSON)
	if err != nil || state == nil {
		return nil
	}
	data, err := state.PublicProjection().MarshalSnapshot()
	if err != nil {
		return nil
	}
	var m map[string]interface{}
	if err := json.Unmarshal(data, &m); err != nil {
		return nil
	}
	return m
}

// GetLatestSnapshot returns the latest state snapshot for the game, or nil if
// none exists.
func (s *GameStore) GetLatestSnapshot(ctx context.Context, gameID string) ([]byte, error) {
	var stateJSON []byte
	err := s.pool.QueryRow(ctx,
		`SELECT state_json FROM game_state_snapshots
		 WHERE game_id = $1
		 ORDER BY version DESC
		 LIMIT 1`, gameID).Scan(&stateJSON)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get latest snapshot: %w", err)
	}
	return stateJSON, nil
}

// AppendSnapshot stores a new snapshot with the next version number and
// returns that version.
func (s *GameStore) AppendSnapshot(ctx context.Context, gameID string, state []byte) (int32, error) {
	if len(state) == 0 {
		state = []byte("{}")
	}
	var version int32
	err := s.pool.QueryRow(ctx,
		`INSERT INTO game_state_snapshots (game_id, version, state_json)
		 SELECT $1, COALESCE(MAX(version), 0) + 1, $2
		 FROM game_state_snapshots WHERE game_id = $1
		 RETURNING version`, gameID, state).Scan(&version)
	if err != nil {
		return 0, fmt.Errorf("append snapshot: %w", err)
	}
	return version, nil
}

// UpdateGameStatus updates the game's status and optionally ended_at.
func (s *GameStore) UpdateGameStatus(ctx context.Context, gameID string, status string, endedAt *time.Time) error {
	tag, err := s.pool.Exec(ctx,
		`UPDATE games SET status = $2, ended_at = COALESCE($3, ended_at) WHERE id = $1`,
		gameID, status, endedAt)
	if err != nil {
		return fmt.Errorf("update game status: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrGameNotFound
	}
	return nil
}

// GetGamePlayerIDsInOrder returns room_player_id list for the game in display
// order (by room join order).
func (s *GameStore) GetGamePlayerIDsInOrder(ctx context.Context, gameID string) ([]string, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT gp.room_player_id
		 FROM game_players gp
		 JOIN room_players rp ON rp.id = gp.room_player_id
		 WHERE gp.game_id = $1 AND gp.left_at IS NULL
		 ORDER BY rp.created_at ASC`, gameID)
	if err != nil {
		return nil, fmt.Errorf("get game players: %w", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan game player: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// SetGamePlayerRole persists the assigned role on the game player row.
func (s *GameStore) SetGamePlayerRole(ctx context.Context, gameID, roomPlayerID, roleID string) error {
	tag, err := s.pool.Exec(ctx,
		`UPDATE game_players SET role = $3 WHERE game_id = $1 AND room_player_id = $2`,
		gameID, roomPlayerID, roleID)
	if err != nil {
		return fmt.Errorf("set game player role: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("game player not found")
	}
	return nil
}

// GetGamePlayers returns the game's players in room join order.
func (s *GameStore) GetGamePlayers(ctx context.Context, gameID string) ([]GamePlayer, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT gp.id, gp.game_id, gp.room_player_id, gp.role, gp.joined_at, gp.left_at
		 FROM game_players gp
		 JOIN room_players rp ON rp.id = gp.room_player_id
		 WHERE gp.game_id = $1
		 ORDER BY rp.created_at ASC`, gameID)
	if err != nil {
		return nil, fmt.Errorf("get game players: %w", err)
	}
	defer rows.Close()

	var players []GamePlayer
	for rows.Next() {
		var gp GamePlayer
		if err := rows.Scan(&gp.ID, &gp.GameID, &gp.RoomPlayerID, &gp.Role, &gp.JoinedAt, &gp.LeftAt); err != nil {
			return nil, fmt.Errorf("scan game player: %w", err)
		}
		players = append(players, gp)
	}
	return players, rows.Err()
}
