package store

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/trile/avalon-server/internal/rules"
)

func TestCreateRoom(t *testing.T) {
	pool := SetupTestDB(t)
	defer pool.Close()

	store := NewRoomStore(pool)
	ctx := context.Background()

	t.Run("success without password", func(t *testing.T) {
		req := CreateRoomRequest{
			DisplayName: "TestPlayer",
			Settings: map[string]interface{}{
				"max_players": 10,
			},
		}

		resp, err := store.CreateRoom(ctx, req)
		if err != nil {
			t.Fatalf("CreateRoom failed: %v", err)
		}

		if resp.Room == nil {
			t.Fatal("expected non-nil room")
		}
		if resp.Room.ID == "" {
			t.Error("expected room ID to be set")
		}
		if len(resp.Room.Code) != 6 {
			t.Errorf("expected room code to be 6 characters, got %d", len(resp.Room.Code))
		}
		if resp.Room.PasswordHash != nil {
			t.Error("expected password hash to be nil when no password provided")
		}
		if maxPlayers, ok := resp.Room.Settings["max_players"].(float64); !ok || maxPlayers != 10 {
			t.Errorf("expected max_players to be 10, got %v", resp.Room.Settings["max_players"])
		}
		if resp.Room.CreatedAt.IsZero() || resp.Room.UpdatedAt.IsZero() {
			t.Error("expected timestamps to be set")
		}

		if resp.RoomPlayer == nil {
			t.Fatal("expected non-nil room player")
		}
		if resp.RoomPlayer.RoomID != resp.Room.ID {
			t.Error("expected room player room_id to match room id")
		}
		if resp.RoomPlayer.DisplayName != "TestPlayer" {
			t.Errorf("expected display name 'TestPlayer', got %q", resp.RoomPlayer.DisplayName)
		}
		if !resp.RoomPlayer.IsHost {
			t.Error("expected room player to be host")
		}
		if resp.RoomPlayer.IsReady {
			t.Error("expected new player to start not ready")
		}

		// Room creation seeds a waiting game with a lobby snapshot.
		var gameCount int
		if err := pool.QueryRow(ctx,
			`SELECT COUNT(*) FROM games WHERE room_id = $1 AND status = $2`,
			resp.Room.ID, GameStatusWaiting).Scan(&gameCount); err != nil {
			t.Fatalf("query games: %v", err)
		}
		if gameCount != 1 {
			t.Errorf("expected 1 waiting game, got %d", gameCount)
		}
	})

	t.Run("success with password", func(t *testing.T) {
		req := CreateRoomRequest{DisplayName: "SecurePlayer", Password: "secret123"}

		resp, err := store.CreateRoom(ctx, req)
		if err != nil {
			t.Fatalf("CreateRoom failed: %v", err)
		}
		if resp.Room.PasswordHash == nil || *resp.Room.PasswordHash == "" {
			t.Error("expected password hash to be set when password provided")
		}
	})

	t.Run("empty display name", func(t *testing.T) {
		_, err := store.CreateRoom(ctx, CreateRoomRequest{})
		if err == nil {
			t.Fatal("expected error for empty display name")
		}
	})

	t.Run("room code format", func(t *testing.T) {
		resp, err := store.CreateRoom(ctx, CreateRoomRequest{DisplayName: "FormatTest"})
		if err != nil {
			t.Fatalf("CreateRoom failed: %v", err)
		}

		const validChars = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"
		for _, char := range resp.Room.Code {
			found := false
			for _, valid := range validChars {
				if char == valid {
					found = true
					break
				}
			}
			if !found {
				t.Errorf("room code contains invalid character: %c", char)
			}
		}
	})

	t.Run("generates unique room codes", func(t *testing.T) {
		codes := make(map[string]bool)
		for i := 0; i < 10; i++ {
			resp, err := store.CreateRoom(ctx, CreateRoomRequest{
				DisplayName: "Player" + string(rune('A'+i)),
			})
			if err != nil {
				t.Fatalf("CreateRoom failed: %v", err)
			}
			if codes[resp.Room.Code] {
				t.Errorf("duplicate room code generated: %s", resp.Room.Code)
			}
			codes[resp.Room.Code] = true
		}
	})
}

func TestJoinRoom(t *testing.T) {
	pool := SetupTestDB(t)
	defer pool.Close()

	store := NewRoomStore(pool)
	ctx := context.Background()

	t.Run("success join room without password", func(t *testing.T) {
		createResp, err := store.CreateRoom(ctx, CreateRoomRequest{DisplayName: "HostPlayer"})
		if err != nil {
			t.Fatalf("failed to create room: %v", err)
		}

		joinResp, err := store.JoinRoom(ctx, JoinRoomRequest{
			Code:        createResp.Room.Code,
			DisplayName: "GuestPlayer",
		})
		if err != nil {
			t.Fatalf("JoinRoom failed: %v", err)
		}

		if joinResp.Room.ID != createResp.Room.ID {
			t.Errorf("expected room ID %s, got %s", createResp.Room.ID, joinResp.Room.ID)
		}
		if joinResp.RoomPlayer.DisplayName != "GuestPlayer" {
			t.Errorf("expected display name 'GuestPlayer', got %q", joinResp.RoomPlayer.DisplayName)
		}
		if joinResp.RoomPlayer.IsHost {
			t.Error("expected room player to not be host")
		}

		// The room's seeded game is still waiting, so the guest joins it too.
		if joinResp.LatestGame == nil {
			t.Fatal("expected latest game in response")
		}
		if joinResp.GamePlayer == nil {
			t.Fatal("expected guest to be added to the waiting game")
		}
		if joinResp.GamePlayer.RoomPlayerID != joinResp.RoomPlayer.ID {
			t.Error("expected game player to reference the new room player")
		}
	})

	t.Run("success join room with password", func(t *testing.T) {
		createResp, err := store.CreateRoom(ctx, CreateRoomRequest{
			DisplayName: "SecureHost", Password: "secret123",
		})
		if err != nil {
			t.Fatalf("failed to create room: %v", err)
		}

		joinResp, err := store.JoinRoom(ctx, JoinRoomRequest{
			Code: createResp.Room.Code, Password: "secret123", DisplayName: "SecureGuest",
		})
		if err != nil {
			t.Fatalf("JoinRoom failed: %v", err)
		}
		if joinResp.RoomPlayer.DisplayName != "SecureGuest" {
			t.Errorf("expected display name 'SecureGuest', got %q", joinResp.RoomPlayer.DisplayName)
		}
	})

	t.Run("room not found", func(t *testing.T) {
		_, err := store.JoinRoom(ctx, JoinRoomRequest{Code: "XXXXXX", DisplayName: "GuestPlayer"})
		if !errors.Is(err, ErrRoomNotFound) {
			t.Errorf("expected ErrRoomNotFound, got: %v", err)
		}
	})

	t.Run("password required for protected room", func(t *testing.T) {
		createResp, err := store.CreateRoom(ctx, CreateRoomRequest{
			DisplayName: "ProtectedHost", Password: "password123",
		})
		if err != nil {
			t.Fatalf("failed to create room: %v", err)
		}

		_, err = store.JoinRoom(ctx, JoinRoomRequest{
			Code: createResp.Room.Code, DisplayName: "GuestPlayer",
		})
		if !errors.Is(err, ErrPasswordRequired) {
			t.Errorf("expected ErrPasswordRequired, got: %v", err)
		}
	})

	t.Run("invalid password", func(t *testing.T) {
		createResp, err := store.CreateRoom(ctx, CreateRoomRequest{
			DisplayName: "ProtectedHost2", Password: "correctpassword",
		})
		if err != nil {
			t.Fatalf("failed to create room: %v", err)
		}

		_, err = store.JoinRoom(ctx, JoinRoomRequest{
			Code: createResp.Room.Code, Password: "wrongpassword", DisplayName: "GuestPlayer",
		})
		if !errors.Is(err, ErrInvalidPassword) {
			t.Errorf("expected ErrInvalidPassword, got: %v", err)
		}
	})

	t.Run("display name already taken", func(t *testing.T) {
		createResp, err := store.CreateRoom(ctx, CreateRoomRequest{DisplayName: "HostPlayer"})
		if err != nil {
			t.Fatalf("failed to create room: %v", err)
		}

		if _, err := store.JoinRoom(ctx, JoinRoomRequest{
			Code: createResp.Room.Code, DisplayName: "Player1",
		}); err != nil {
			t.Fatalf("failed to join room: %v", err)
		}

		_, err = store.JoinRoom(ctx, JoinRoomRequest{
			Code: createResp.Room.Code, DisplayName: "Player1",
		})
		if !errors.Is(err, ErrNameTaken) {
			t.Errorf("expected ErrNameTaken, got: %v", err)
		}
	})

	t.Run("room full at settings limit", func(t *testing.T) {
		createResp, err := store.CreateRoom(ctx, CreateRoomRequest{
			DisplayName: "SmallHost",
			Settings:    map[string]interface{}{"max_players": 2},
		})
		if err != nil {
			t.Fatalf("failed to create room: %v", err)
		}

		// Host counts toward the limit, so one guest fills the room.
		if _, err := store.JoinRoom(ctx, JoinRoomRequest{
			Code: createResp.Room.Code, DisplayName: "Guest1",
		}); err != nil {
			t.Fatalf("failed to join room: %v", err)
		}

		_, err = store.JoinRoom(ctx, JoinRoomRequest{
			Code: createResp.Room.Code, DisplayName: "Guest2",
		})
		if !errors.Is(err, ErrRoomFull) {
			t.Errorf("expected ErrRoomFull, got: %v", err)
		}
	})

	t.Run("room full at rules cap without settings limit", func(t *testing.T) {
		createResp, err := store.CreateRoom(ctx, CreateRoomRequest{DisplayName: "BigHost"})
		if err != nil {
			t.Fatalf("failed to create room: %v", err)
		}

		for i := 1; i < rules.MaxPlayers; i++ {
			if _, err := store.JoinRoom(ctx, JoinRoomRequest{
				Code: createResp.Room.Code, DisplayName: fmt.Sprintf("Guest%d", i),
			}); err != nil {
				t.Fatalf("failed to join room as guest %d: %v", i, err)
			}
		}

		_, err = store.JoinRoom(ctx, JoinRoomRequest{
			Code: createResp.Room.Code, DisplayName: "Overflow",
		})
		if !errors.Is(err, ErrRoomFull) {
			t.Errorf("expected ErrRoomFull, got: %v", err)
		}
	})

	t.Run("multiple players can join same room", func(t *testing.T) {
		createResp, err := store.CreateRoom(ctx, CreateRoomRequest{DisplayName: "HostPlayer"})
		if err != nil {
			t.Fatalf("failed to create room: %v", err)
		}

		for _, playerName := range []string{"Player1", "Player2", "Player3"} {
			if _, err := store.JoinRoom(ctx, JoinRoomRequest{
				Code: createResp.Room.Code, DisplayName: playerName,
			}); err != nil {
				t.Fatalf("failed to join room as %s: %v", playerName, err)
			}
		}

		players, err := store.GetRoomPlayers(ctx, createResp.Room.ID)
		if err != nil {
			t.Fatalf("GetRoomPlayers failed: %v", err)
		}
		// 1 host + 3 guests, in join order.
		if len(players) != 4 {
			t.Fatalf("expected 4 players, got %d", len(players))
		}
		if players[0].DisplayName != "HostPlayer" || !players[0].IsHost {
			t.Errorf("expected host first in join order, got %+v", players[0])
		}
	})
}

func TestGetRoom(t *testing.T) {
	pool := SetupTestDB(t)
	defer pool.Close()

	store := NewRoomStore(pool)
	ctx := context.Background()

	createResp, err := store.CreateRoom(ctx, CreateRoomRequest{DisplayName: "HostPlayer"})
	if err != nil {
		t.Fatalf("failed to create room: %v", err)
	}

	t.Run("returns room with players and latest snapshot", func(t *testing.T) {
		resp, err := store.GetRoom(ctx, createResp.Room.Code)
		if err != nil {
			t.Fatalf("GetRoom failed: %v", err)
		}
		if resp.Room.ID != createResp.Room.ID {
			t.Errorf("expected room %s, got %s", createResp.Room.ID, resp.Room.ID)
		}
		if len(resp.Players) != 1 {
			t.Errorf("expected 1 player, got %d", len(resp.Players))
		}
		if resp.LatestGame == nil {
			t.Fatal("expected seeded game")
		}
		if phase, _ := resp.LatestGameStateSnapshot["phase"].(string); phase != "lobby" {
			t.Errorf("expected lobby snapshot, got %v", resp.LatestGameStateSnapshot)
		}
	})

	t.Run("never exposes roles from the snapshot", func(t *testing.T) {
		gameStore := NewGameStore(pool)
		game, err := gameStore.GetLatestGameForRoom(ctx, createResp.Room.ID)
		if err != nil {
			t.Fatalf("get latest game: %v", err)
		}

		state := rules.NewLobbyState(game.ID, []string{"p1", "p2", "p3", "p4", "p5"})
		state.Phase = rules.PhaseTeamSelection
		state.Roles = map[string]string{
			"p1": rules.RoleMerlin, "p2": rules.RolePercival, "p3": rules.RoleServant,
			"p4": rules.RoleAssassin, "p5": rules.RoleMorgana,
		}
		data, err := state.MarshalSnapshot()
		if err != nil {
			t.Fatalf("marshal snapshot: %v", err)
		}
		if _, err := gameStore.AppendSnapshot(ctx, game.ID, data); err != nil {
			t.Fatalf("append snapshot: %v", err)
		}

		resp, err := store.GetRoom(ctx, createResp.Room.Code)
		if err != nil {
			t.Fatalf("GetRoom failed: %v", err)
		}
		if _, leaked := resp.LatestGameStateSnapshot["roles"]; leaked {
			t.Error("roles leaked through GET room snapshot")
		}
		if phase, _ := resp.LatestGameStateSnapshot["phase"].(string); phase != string(rules.PhaseTeamSelection) {
			t.Errorf("expected team_selection snapshot, got %v", resp.LatestGameStateSnapshot["phase"])
		}
	})

	t.Run("room not found", func(t *testing.T) {
		_, err := store.GetRoom(ctx, "XXXXXX")
		if !errors.Is(err, ErrRoomNotFound) {
			t.Errorf("expected ErrRoomNotFound, got: %v", err)
		}
	})
}

func TestSetPlayerReady(t *testing.T) {
	pool := SetupTestDB(t)
	defer pool.Close()

	store := NewRoomStore(pool)
	ctx := context.Background()

	createResp, err := store.CreateRoom(ctx, CreateRoomRequest{DisplayName: "HostPlayer"})
	if err != nil {
		t.Fatalf("failed to create room: %v", err)
	}

	rp, err := store.SetPlayerReady(ctx, createResp.RoomPlayer.ID, true)
	if err != nil {
		t.Fatalf("SetPlayerReady failed: %v", err)
	}
	if !rp.IsReady {
		t.Error("expected player to be ready")
	}

	rp, err = store.SetPlayerReady(ctx, createResp.RoomPlayer.ID, false)
	if err != nil {
		t.Fatalf("SetPlayerReady failed: %v", err)
	}
	if rp.IsReady {
		t.Error("expected readiness to be cleared")
	}
}

func TestGetRoomPlayerInRoom(t *testing.T) {
	pool := SetupTestDB(t)
	defer pool.Close()

	store := NewRoomStore(pool)
	ctx := context.Background()

	createResp, err := store.CreateRoom(ctx, CreateRoomRequest{DisplayName: "HostPlayer"})
	if err != nil {
		t.Fatalf("failed to create room: %v", err)
	}

	t.Run("found", func(t *testing.T) {
		rp, err := store.GetRoomPlayerInRoom(ctx, createResp.Room.Code, createResp.RoomPlayer.ID)
		if err != nil {
			t.Fatalf("GetRoomPlayerInRoom failed: %v", err)
		}
		if rp.ID != createResp.RoomPlayer.ID {
			t.Errorf("expected player %s, got %s", createResp.RoomPlayer.ID, rp.ID)
		}
	})

	t.Run("player from another room rejected", func(t *testing.T) {
		other, err := store.CreateRoom(ctx, CreateRoomRequest{DisplayName: "OtherHost"})
		if err != nil {
			t.Fatalf("failed to create room: %v", err)
		}
		_, err = store.GetRoomPlayerInRoom(ctx, createResp.Room.Code, other.RoomPlayer.ID)
		if !errors.Is(err, ErrPlayerNotInRoom) {
			t.Errorf("expected ErrPlayerNotInRoom, got: %v", err)
		}
	})
}

func TestDeleteIdleRooms(t *testing.T) {
	pool := SetupTestDB(t)
	defer pool.Close()

	store := NewRoomStore(pool)
	ctx := context.Background()

	stale, err := store.CreateRoom(ctx, CreateRoomRequest{DisplayName: "StaleHost"})
	if err != nil {
		t.Fatalf("failed to create room: %v", err)
	}
	fresh, err := store.CreateRoom(ctx, CreateRoomRequest{DisplayName: "FreshHost"})
	if err != nil {
		t.Fatalf("failed to create room: %v", err)
	}

	// Age one room past the cutoff.
	if _, err := pool.Exec(ctx,
		`UPDATE rooms SET updated_at = now() - interval '48 hours' WHERE id = $1`,
		stale.Room.ID); err != nil {
		t.Fatalf("age room: %v", err)
	}

	deleted, err := store.DeleteIdleRooms(ctx, 24*time.Hour)
	if err != nil {
		t.Fatalf("DeleteIdleRooms failed: %v", err)
	}
	if deleted != 1 {
		t.Errorf("expected 1 room deleted, got %d", deleted)
	}

	if _, err := store.GetRoomByCode(ctx, stale.Room.Code); !errors.Is(err, ErrRoomNotFound) {
		t.Errorf("expected stale room gone, got: %v", err)
	}
	if _, err := store.GetRoomByCode(ctx, fresh.Room.Code); err != nil {
		t.Errorf("expected fresh room kept, got: %v", err)
	}
}
