package rules

import (
	"encoding/json"
	"time"
)

// Mission is one round's record. It is created at proposal time with a
// pending outcome (the currently proposed team lives here, not in a side
// field); votes attach as they arrive and the outcome is immutable once every
// team member has voted.
type Mission struct {
	Round         int            `json:"round"`
	RequiredSize  int            `json:"required_size"`
	FailsRequired int            `json:"fails_required"`
	TeamIDs       []string       `json:"team_ids"`
	Approved      bool           `json:"approved"`
	Votes         []MissionVote  `json:"votes,omitempty"`
	Outcome       MissionOutcome `json:"outcome"`
	CompletedAt   *time.Time     `json:"completed_at,omitempty"`
}

// HasMember reports whether the player is on the mission team.
func (m *Mission) HasMember(playerID string) bool {
	for _, id := range m.TeamIDs {
		if id == playerID {
			return true
		}
	}
	return false
}

// GameState is the full persisted snapshot for one game. It is one typed
// struct (no map-shaped state); optional fields are populated per phase.
// Invariants: len(Missions) <= TotalMissions, RejectionCount in [0,5),
// LeaderIndex a valid index into PlayerIDs, Phase changes only via Transition.
type GameState struct {
	GameID      string `json:"game_id"`
	Phase       Phase  `json:"phase"`
	Round       int    `json:"round"`
	LeaderIndex int    `json:"leader_index"`

	// PlayerIDs in room join order; this order is the leader rotation order.
	PlayerIDs []string `json:"player_ids"`

	// Roles: player ID -> role ID, set once at game start.
	Roles map[string]string `json:"roles,omitempty"`
	// RoleConfirmed: players who acknowledged their role during role_reveal.
	// Distinct from lobby readiness, which lives on the room player record.
	RoleConfirmed map[string]bool `json:"role_confirmed,omitempty"`

	// Votes on the current proposal; cleared when a new team is proposed.
	Votes []TeamVote `json:"votes,omitempty"`
	// Missions, one per proposed round (the last may be pending).
	Missions []Mission `json:"missions,omitempty"`

	RejectionCount  int              `json:"rejection_count"`
	AssassinAttempt *AssassinAttempt `json:"assassin_attempt,omitempty"`
	Winner          Team             `json:"winner,omitempty"`

	// Version is assigned by the snapshot store on write.
	Version int `json:"version,omitempty"`
}

// NewLobbyState returns the initial snapshot for a game.
func NewLobbyState(gameID string, playerIDs []string) *GameState {
	return &GameState{GameID: gameID, Phase: PhaseLobby, PlayerIDs: playerIDs}
}

// Clone returns a deep copy; engine operations mutate the copy so recoverable
// errors leave the loaded snapshot untouched.
func (s *GameState) Clone() *GameState {
	if s == nil {
		return nil
	}
	out := *s
	out.PlayerIDs = append([]string(nil), s.PlayerIDs...)
	if s.Roles != nil {
		out.Roles = make(map[string]string, len(s.Roles))
		for k, v := range s.Roles {
			out.Roles[k] = v
		}
	}
	if s.RoleConfirmed != nil {
		out.RoleConfirmed = make(map[string]bool, len(s.RoleConfirmed))
		for k, v := range s.RoleConfirmed {
			out.RoleConfirmed[k] = v
		}
	}
	out.Votes = append([]TeamVote(nil), s.Votes...)
	if s.Missions != nil {
		out.Missions = make([]Mission, len(s.Missions))
		for i, m := range s.Missions {
			mc := m
			mc.TeamIDs = append([]string(nil), m.TeamIDs...)
			mc.Votes = append([]MissionVote(nil), m.Votes...)
			out.Missions[i] = mc
		}
	}
	if s.AssassinAttempt != nil {
		a := *s.AssassinAttempt
		out.AssassinAttempt = &a
	}
	return &out
}

// LeaderID returns the current leader's player ID, or "" if the index is out
// of range.
func (s *GameState) LeaderID() string {
	if s.LeaderIndex < 0 || s.LeaderIndex >= len(s.PlayerIDs) {
		return ""
	}
	return s.PlayerIDs[s.LeaderIndex]
}

// HasPlayer reports whether the player is part of the game.
func (s *GameState) HasPlayer(playerID string) bool {
	for _, id := range s.PlayerIDs {
		if id == playerID {
			return true
		}
	}
	return false
}

// CurrentMission returns the in-progress mission for the current round, or
// nil if none has been proposed yet.
func (s *GameState) CurrentMission() *Mission {
	if len(s.Missions) == 0 {
		return nil
	}
	m := &s.Missions[len(s.Missions)-1]
	if m.Round != s.Round || m.Outcome != OutcomePending {
		return nil
	}
	return m
}

// MissionWins counts resolved missions won by each side.
func (s *GameState) MissionWins() (good, evil int) {
	for _, m := range s.Missions {
		switch m.Outcome {
		case OutcomeSuccess:
			good++
		case OutcomeFailure:
			evil++
		}
	}
	return good, evil
}

// SetTeamVote records or replaces the player's ballot on the current
// proposal. Resubmission before resolution is an update, not a duplicate.
func (s *GameState) SetTeamVote(playerID string, choice VoteChoice) {
	now := time.Now().UTC()
	for i := range s.Votes {
		if s.Votes[i].PlayerID == playerID {
			s.Votes[i].Choice = choice
			s.Votes[i].SubmittedAt = now
			return
		}
	}
	s.Votes = append(s.Votes, TeamVote{PlayerID: playerID, Choice: choice, SubmittedAt: now})
}

// SetMissionVote records or replaces the player's action on mission m.
func (m *Mission) SetMissionVote(playerID string, choice MissionChoice) {
	now := time.Now().UTC()
	for i := range m.Votes {
		if m.Votes[i].PlayerID == playerID {
			m.Votes[i].Choice = choice
			m.Votes[i].SubmittedAt = now
			return
		}
	}
	m.Votes = append(m.Votes, MissionVote{PlayerID: playerID, Choice: choice, SubmittedAt: now})
}

// MarshalSnapshot serializes the state for the snapshot store.
func (s *GameState) MarshalSnapshot() ([]byte, error) {
	return json.Marshal(s)
}

// UnmarshalSnapshot parses a persisted snapshot.
func UnmarshalSnapshot(data []byte) (*GameState, error) {
	if len(data) == 0 {
		return nil, nil
	}
	var s GameState
	if err := json.Unmarshal(data, &s); err != nil {
		return nil, err
	}
	return &s, nil
}

// PublicProjection returns the state with hidden information stripped for
// broadcast: role assignments and individual mission ballots are omitted
// until the game is over; proposal votes stay visible (they are public
// table talk in this game).
func (s *GameState) PublicProjection() *GameState {
	out := s.Clone()
	if out.Phase != PhaseGameOver {
		out.Roles = nil
		for i := range out.Missions {
			out.Missions[i].Votes = nil
		}
		out.AssassinAttempt = nil
	}
	return out
}
