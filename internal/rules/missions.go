package rules

import "fmt"

// TotalMissions is the fixed number of missions per game.
const TotalMissions = 5

// MissionsToWin is the number of resolved missions a side needs.
const MissionsToWin = 3

// MissionRequirements describes one (playerCount, round) cell of the rule
// table.
type MissionRequirements struct {
	Round           int      `json:"round"`
	RequiredPlayers int      `json:"required_players"`
	FailsRequired   int      `json:"fails_required"`
	Description     string   `json:"description"`
	SpecialRules    []string `json:"special_rules,omitempty"`
}

// SpecialRuleTwoFails marks the round-4 double-sabotage rule at 7+ players.
const SpecialRuleTwoFails = "two_fails_required"

// teamSizesByPlayers: required team size per round (1-based), 5–10 players.
var teamSizesByPlayers = map[int][TotalMissions]int{
	5:  {2, 3, 2, 3, 3},
	6:  {2, 3, 4, 3, 4},
	7:  {2, 3, 3, 4, 4},
	8:  {3, 4, 4, 5, 5},
	9:  {3, 4, 4, 5, 5},
	10: {3, 4, 4, 5, 5},
}

// GetMissionRequirements returns the requirements for the given round and
// player count. Total over round in [1,5] and playerCount in [5,10];
// anything else is a programming error, never user input.
func GetMissionRequirements(round, playerCount int) (MissionRequirements, error) {
	sizes, ok := teamSizesByPlayers[playerCount]
	if !ok {
		return MissionRequirements{}, Errorf(KindInternal, "no mission table for %d players", playerCount)
	}
	if round < 1 || round > TotalMissions {
		return MissionRequirements{}, Errorf(KindInternal, "round %d out of range [1,%d]", round, TotalMissions)
	}

	req := MissionRequirements{
		Round:           round,
		RequiredPlayers: sizes[round-1],
		FailsRequired:   1,
		Description:     fmt.Sprintf("Mission %d: send %d players", round, sizes[round-1]),
	}
	if round == 4 && playerCount >= 7 {
		req.FailsRequired = 2
		req.SpecialRules = append(req.SpecialRules, SpecialRuleTwoFails)
		req.Description = fmt.Sprintf("Mission 4: send %d players; two failure votes are required to sabotage", sizes[3])
	}
	return req, nil
}
