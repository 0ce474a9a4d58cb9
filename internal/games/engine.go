package games

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/trile/avalon-server/internal/rules"
	"github.com/trile/avalon-server/internal/store"
)

// SnapshotStore is the persistence surface the engine needs (implemented by
// store.GameStore; an interface here avoids a circular import and lets tests
// run without a database).
type SnapshotStore interface {
	GetLatestSnapshot(ctx context.Context, gameID string) ([]byte, error)
	AppendSnapshot(ctx context.Context, gameID string, state []byte) (int32, error)
	UpdateGameStatus(ctx context.Context, gameID string, status string, endedAt *time.Time) error
	GetGamePlayerIDsInOrder(ctx context.Context, gameID string) ([]string, error)
	SetGamePlayerRole(ctx context.Context, gameID, roomPlayerID, roleID string) error
}

// EventStore appends to the game event log.
type EventStore interface {
	CreateGameEvent(ctx context.Context, req store.CreateGameEventRequest) (*store.GameEvent, error)
}

// Event is a state-change description for broadcast. The engine never talks
// to a transport; a notifier translates these to whatever wire the room uses.
type Event struct {
	Name    string                 `json:"event"`
	Payload map[string]interface{} `json:"payload"`
}

// Result is the outcome of one engine operation: the successor state, events
// for the whole room, and events addressed to a single player (hidden
// knowledge, personal confirmations).
type Result struct {
	State  *rules.GameState
	Events []Event
	// Private: player ID -> events only that player may see.
	Private map[string][]Event
}

// Game status values persisted on the games row.
const (
	StatusWaiting    = store.GameStatusWaiting
	StatusInProgress = store.GameStatusInProgress
	StatusFinished   = store.GameStatusFinished
)

// Engine applies game operations: it loads the latest snapshot, applies one
// pure transformation from the rules package, and persists the successor plus
// an event-log entry. Operations for the same game are serialized by a
// per-game mutex so the "all players voted" resolution fires exactly once.
type Engine struct {
	store  SnapshotStore
	events EventStore

	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

// NewEngine creates an engine over the given stores.
func NewEngine(snapshots SnapshotStore, events EventStore) *Engine {
	return &Engine{store: snapshots, events: events, locks: make(map[string]*sync.Mutex)}
}

func (e *Engine) gameLock(gameID string) *sync.Mutex {
	e.mu.Lock()
	defer e.mu.Unlock()
	l, ok := e.locks[gameID]
	if !ok {
		l = &sync.Mutex{}
		e.locks[gameID] = l
	}
	return l
}

// GetState loads the latest snapshot, or nil if the game has none yet.
func (e *Engine) GetState(ctx context.Context, gameID string) (*rules.GameState, error) {
	data, err := e.store.GetLatestSnapshot(ctx, gameID)
	if err != nil {
		return nil, fmt.Errorf("get snapshot: %w", err)
	}
	state, err := rules.UnmarshalSnapshot(data)
	if err != nil {
		return nil, fmt.Errorf("decode snapshot: %w", err)
	}
	return state, nil
}

// Knowledge computes the observer's hidden-role view from the authoritative
// assignment. Read-only; available from role reveal onward.
func (e *Engine) Knowledge(ctx context.Context, gameID, observerID string) (*rules.KnowledgeView, error) {
	state, err := e.GetState(ctx, gameID)
	if err != nil {
		return nil, err
	}
	if state == nil || len(state.Roles) == 0 {
		return nil, rules.Errorf(rules.KindPhase, "roles have not been assigned yet")
	}
	if !state.HasPlayer(observerID) {
		return nil, rules.Errorf(rules.KindAuthorization, "player not in game")
	}
	return rules.ComputeRoleKnowledge(observerID, state.Roles)
}

// apply runs one serialized load-transform-persist cycle for the game.
func (e *Engine) apply(ctx context.Context, gameID, actorID, eventType string, payload map[string]interface{},
	transform func(state *rules.GameState) (*Result, error)) (*Result, error) {

	lock := e.gameLock(gameID)
	lock.Lock()
	defer lock.Unlock()

	state, err := e.GetState(ctx, gameID)
	if err != nil {
		return nil, err
	}
	// While the game is still in the lobby the player list lives in the store
	// (the seeded snapshot carries none, and players may join after seeding),
	// so rebuild the lobby state from the roster on every apply.
	if state == nil || state.Phase == rules.PhaseLobby {
		playerIDs, err := e.store.GetGamePlayerIDsInOrder(ctx, gameID)
		if err != nil {
			return nil, fmt.Errorf("get players: %w", err)
		}
		state = rules.NewLobbyState(gameID, playerIDs)
	}

	result, err := transform(state.Clone())
	if err != nil {
		return nil, err
	}

	if payload == nil {
		payload = make(map[string]interface{})
	}
	if _, err := e.events.CreateGameEvent(ctx, store.CreateGameEventRequest{
		GameID:       gameID,
		RoomPlayerID: &actorID,
		Type:         eventType,
		Payload:      payload,
	}); err != nil {
		return nil, fmt.Errorf("persist event: %w", err)
	}

	data, err := result.State.MarshalSnapshot()
	if err != nil {
		return nil, fmt.Errorf("encode snapshot: %w", err)
	}
	version, err := e.store.AppendSnapshot(ctx, gameID, data)
	if err != nil {
		return nil, fmt.Errorf("persist snapshot: %w", err)
	}
	result.State.Version = int(version)

	switch result.State.Phase {
	case rules.PhaseGameOver:
		now := time.Now().UTC()
		if err := e.store.UpdateGameStatus(ctx, gameID, StatusFinished, &now); err != nil {
			return nil, fmt.Errorf("update game status: %w", err)
		}
	case rules.PhaseRoleReveal:
		if err := e.store.UpdateGameStatus(ctx, gameID, StatusInProgress, nil); err != nil {
			return nil, fmt.Errorf("update game status: %w", err)
		}
	}

	return result, nil
}

// StartGame validates the role configuration, assigns roles, and moves the
// game from lobby to role reveal. An empty roleIDs selects the default
// configuration for the player count. Invalid configurations are fatal for
// the start and leave the game in the lobby.
func (e *Engine) StartGame(ctx context.Context, gameID, actorID string, roleIDs []string) (*Result, error) {
	return e.apply(ctx, gameID, actorID, "start_game", map[string]interface{}{"role_ids": roleIDs},
		func(state *rules.GameState) (*Result, error) {
			if state.Phase != rules.PhaseLobby {
				return nil, rules.Errorf(rules.KindPhase, "game already started")
			}
			if !state.HasPlayer(actorID) {
				return nil, rules.Errorf(rules.KindAuthorization, "player not in game")
			}

			if len(roleIDs) == 0 {
				var err error
				roleIDs, err = rules.DefaultRoleConfiguration(len(state.PlayerIDs))
				if err != nil {
					return nil, err
				}
			}

			assignments, err := rules.AssignRoles(state.PlayerIDs, roleIDs)
			if err != nil {
				return nil, err
			}

			state.Roles = make(map[string]string, len(assignments))
			for _, a := range assignments {
				state.Roles[a.PlayerID] = a.RoleID
				if err := e.store.SetGamePlayerRole(ctx, gameID, a.PlayerID, a.RoleID); err != nil {
					return nil, fmt.Errorf("persist role: %w", err)
				}
			}
			state.RoleConfirmed = make(map[string]bool, len(assignments))

			state.Phase, err = rules.Transition(state.Phase, rules.PhaseRoleReveal)
			if err != nil {
				return nil, err
			}

			result := &Result{
				State: state,
				Events: []Event{{Name: EventGameStarted, Payload: map[string]interface{}{
					"phase":        state.Phase,
					"player_count": len(state.PlayerIDs),
				}}},
				Private: make(map[string][]Event, len(assignments)),
			}
			for _, a := range assignments {
				view, err := rules.ComputeRoleKnowledge(a.PlayerID, state.Roles)
				if err != nil {
					return nil, err
				}
				result.Private[a.PlayerID] = []Event{{Name: EventRoleKnowledge, Payload: map[string]interface{}{
					"role":          view.PlayerRole,
					"known_players": view.KnownPlayers,
				}}}
			}
			return result, nil
		})
}

// ConfirmRole acknowledges the actor's role during role reveal. Once every
// player has confirmed, play moves to the first team selection.
func (e *Engine) ConfirmRole(ctx context.Context, gameID, actorID string) (*Result, error) {
	return e.apply(ctx, gameID, actorID, "confirm_role", nil,
		func(state *rules.GameState) (*Result, error) {
			if state.Phase != rules.PhaseRoleReveal {
				return nil, rules.Errorf(rules.KindPhase, "no role reveal in progress")
			}
			if !state.HasPlayer(actorID) {
				return nil, rules.Errorf(rules.KindAuthorization, "player not in game")
			}

			if state.RoleConfirmed == nil {
				state.RoleConfirmed = make(map[string]bool)
			}
			state.RoleConfirmed[actorID] = true

			result := &Result{State: state, Events: []Event{{Name: EventRoleConfirmed, Payload: map[string]interface{}{
				"player_id": actorID,
				"confirmed": len(state.RoleConfirmed),
				"total":     len(state.PlayerIDs),
			}}}}

			if len(state.RoleConfirmed) >= len(state.PlayerIDs) {
				var err error
				state.Phase, err = rules.Transition(state.Phase, rules.PhaseTeamSelection)
				if err != nil {
					return nil, err
				}
				state.Round = 1
				state.LeaderIndex = 0
				result.Events = append(result.Events, Event{Name: EventTeamSelectionStarted, Payload: map[string]interface{}{
					"round":     state.Round,
					"leader_id": state.LeaderID(),
				}})
			}
			return result, nil
		})
}

// ProposeTeam records the leader's proposal as a pending mission and opens
// the vote. Only the current leader may propose.
func (e *Engine) ProposeTeam(ctx context.Context, gameID, actorID string, teamIDs []string) (*Result, error) {
	return e.apply(ctx, gameID, actorID, "propose_team", map[string]interface{}{"team_ids": teamIDs},
		func(state *rules.GameState) (*Result, error) {
			if state.Phase != rules.PhaseTeamSelection {
				return nil, rules.Errorf(rules.KindPhase, "no team selection in progress")
			}
			if state.LeaderID() != actorID {
				return nil, rules.Errorf(rules.KindAuthorization, "only the leader can propose a team")
			}

			req, err := rules.GetMissionRequirements(state.Round, len(state.PlayerIDs))
			if err != nil {
				return nil, err
			}
			if err := rules.ValidateMissionTeam(teamIDs, req.RequiredPlayers, state.PlayerIDs); err != nil {
				return nil, err
			}

			// The proposal lives on a pending mission record from here on;
			// ballots from the previous proposal are dropped now.
			state.Missions = append(state.Missions, rules.Mission{
				Round:         state.Round,
				RequiredSize:  req.RequiredPlayers,
				FailsRequired: req.FailsRequired,
				TeamIDs:       append([]string(nil), teamIDs...),
				Outcome:       rules.OutcomePending,
			})
			state.Votes = nil

			state.Phase, err = rules.Transition(state.Phase, rules.PhaseVoting)
			if err != nil {
				return nil, err
			}

			return &Result{State: state, Events: []Event{{Name: EventTeamProposed, Payload: map[string]interface{}{
				"round":     state.Round,
				"leader_id": actorID,
				"team_ids":  teamIDs,
			}}}}, nil
		})
}

// CastTeamVote records (or replaces) the actor's ballot on the current
// proposal and resolves it once every player has voted.
func (e *Engine) CastTeamVote(ctx context.Context, gameID, actorID string, approve bool) (*Result, error) {
	return e.apply(ctx, gameID, actorID, "team_vote", map[string]interface{}{"approve": approve},
		func(state *rules.GameState) (*Result, error) {
			if state.Phase != rules.PhaseVoting {
				return nil, rules.Errorf(rules.KindPhase, "no proposal vote in progress")
			}
			if !state.HasPlayer(actorID) {
				return nil, rules.Errorf(rules.KindAuthorization, "player not in game")
			}
			mission := state.CurrentMission()
			if mission == nil {
				return nil, rules.Errorf(rules.KindInternal, "voting phase without a pending mission")
			}

			choice := rules.VoteReject
			if approve {
				choice = rules.VoteApprove
			}
			state.SetTeamVote(actorID, choice)

			result := &Result{State: state, Events: []Event{{Name: EventVoteRecorded, Payload: map[string]interface{}{
				"player_id": actorID,
				"votes":     len(state.Votes),
				"total":     len(state.PlayerIDs),
			}}}}

			if !rules.AreAllPlayersVoted(state.Votes, len(state.PlayerIDs)) {
				return result, nil
			}

			res, err := rules.CalculateVotingResults(state.Votes, state.RejectionCount, state.LeaderIndex, len(state.PlayerIDs))
			if err != nil {
				return nil, err
			}

			state.Phase, err = rules.Transition(state.Phase, res.NextPhase)
			if err != nil {
				return nil, err
			}
			state.LeaderIndex = res.NextLeaderIndex
			state.RejectionCount = res.RejectionCount

			tally := map[string]interface{}{
				"approve_count": res.ApproveCount,
				"reject_count":  res.RejectCount,
				"total_votes":   res.TotalVotes,
			}

			switch {
			case res.Approved:
				mission.Approved = true
				state.RejectionCount = 0
				tally["team_ids"] = mission.TeamIDs
				result.Events = append(result.Events, Event{Name: EventTeamApproved, Payload: tally})
			case res.EvilWinsByAttrition:
				state.Missions = state.Missions[:len(state.Missions)-1]
				state.Winner = rules.TeamEvil
				tally["winner"] = state.Winner
				tally["reason"] = "five consecutive rejections"
				result.Events = append(result.Events, Event{Name: EventGameEnded, Payload: tally})
			default:
				// Rejected proposal: the pending mission record is discarded
				// and the rotated leader proposes again.
				state.Missions = state.Missions[:len(state.Missions)-1]
				tally["rejection_count"] = state.RejectionCount
				tally["leader_id"] = state.LeaderID()
				result.Events = append(result.Events, Event{Name: EventTeamRejected, Payload: tally})
			}
			return result, nil
		})
}

// CastMissionVote records (or replaces) a team member's secret mission action
// and resolves the mission once the whole team has acted. Good-aligned roles
// cannot submit a failure.
func (e *Engine) CastMissionVote(ctx context.Context, gameID, actorID string, choice rules.MissionChoice) (*Result, error) {
	// The ballot itself stays out of the event log payload.
	return e.apply(ctx, gameID, actorID, "mission_vote", nil,
		func(state *rules.GameState) (*Result, error) {
			if state.Phase != rules.PhaseMissionExecution {
				return nil, rules.Errorf(rules.KindPhase, "no mission in progress")
			}
			mission := state.CurrentMission()
			if mission == nil || !mission.Approved {
				return nil, rules.Errorf(rules.KindInternal, "mission execution without an approved mission")
			}
			if !mission.HasMember(actorID) {
				return nil, rules.Errorf(rules.KindAuthorization, "only team members act on the mission")
			}
			if err := rules.CheckMissionVoteAllowed(state.Roles[actorID], choice); err != nil {
				return nil, err
			}

			mission.SetMissionVote(actorID, choice)

			result := &Result{State: state, Events: []Event{{Name: EventMissionVoteRecorded, Payload: map[string]interface{}{
				"player_id": actorID,
				"votes":     len(mission.Votes),
				"total":     len(mission.TeamIDs),
			}}}}

			if len(mission.Votes) < len(mission.TeamIDs) {
				return result, nil
			}

			var err error
			state.Phase, err = rules.Transition(state.Phase, rules.PhaseMissionResult)
			if err != nil {
				return nil, err
			}

			mission.Outcome = rules.ResolveMission(mission.Votes, mission.FailsRequired)
			now := time.Now().UTC()
			mission.CompletedAt = &now

			failCount := 0
			for _, v := range mission.Votes {
				if v.Choice == rules.MissionFail {
					failCount++
				}
			}
			goodWins, evilWins := state.MissionWins()
			result.Events = append(result.Events, Event{Name: EventMissionResolved, Payload: map[string]interface{}{
				"round":      mission.Round,
				"outcome":    mission.Outcome,
				"fail_votes": failCount,
				"good_wins":  goodWins,
				"evil_wins":  evilWins,
			}})

			switch {
			case evilWins >= rules.MissionsToWin:
				state.Phase, err = rules.Transition(state.Phase, rules.PhaseGameOver)
				if err != nil {
					return nil, err
				}
				state.Winner = rules.TeamEvil
				result.Events = append(result.Events, Event{Name: EventGameEnded, Payload: map[string]interface{}{
					"winner": state.Winner,
					"reason": "three failed missions",
				}})
			case goodWins >= rules.MissionsToWin:
				// Good's win stands trial: evil gets one shot at merlin.
				state.Phase, err = rules.Transition(state.Phase, rules.PhaseAssassinAttempt)
				if err != nil {
					return nil, err
				}
				result.Events = append(result.Events, Event{Name: EventAssassinPhase, Payload: map[string]interface{}{
					"good_wins": goodWins,
				}})
			default:
				state.Phase, err = rules.Transition(state.Phase, rules.PhaseTeamSelection)
				if err != nil {
					return nil, err
				}
				state.Round++
				state.LeaderIndex = (state.LeaderIndex + 1) % len(state.PlayerIDs)
				result.Events = append(result.Events, Event{Name: EventTeamSelectionStarted, Payload: map[string]interface{}{
					"round":     state.Round,
					"leader_id": state.LeaderID(),
				}})
			}
			return result, nil
		})
}

// ResolveAssassin applies the terminal assassination attempt and ends the
// game regardless of the outcome.
func (e *Engine) ResolveAssassin(ctx context.Context, gameID, actorID, targetID string) (*Result, error) {
	return e.apply(ctx, gameID, actorID, "assassin_attempt", map[string]interface{}{"target_id": targetID},
		func(state *rules.GameState) (*Result, error) {
			if state.Phase != rules.PhaseAssassinAttempt {
				return nil, rules.Errorf(rules.KindPhase, "no assassination attempt in progress")
			}

			attempt, winner, err := rules.ResolveAssassinAttempt(actorID, targetID, state.Roles)
			if err != nil {
				return nil, err
			}

			state.Phase, err = rules.Transition(state.Phase, rules.PhaseGameOver)
			if err != nil {
				return nil, err
			}
			state.AssassinAttempt = attempt
			state.Winner = winner

			return &Result{State: state, Events: []Event{{Name: EventGameEnded, Payload: map[string]interface{}{
				"winner":      winner,
				"reason":      "assassination attempt",
				"target_id":   targetID,
				"was_correct": attempt.WasCorrect,
				"roles":       state.Roles,
			}}}}, nil
		})
}
