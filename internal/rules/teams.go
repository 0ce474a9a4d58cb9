package rules

// ValidateMissionTeam checks a proposed team against the mission requirements:
// exact size, distinct members, and every member a known player. Leader
// eligibility is enforced by the caller (the engine knows the actor).
// Violations are KindValidation errors; this never panics on user input.
func ValidateMissionTeam(teamIDs []string, requiredPlayers int, playerIDs []string) error {
	if len(teamIDs) != requiredPlayers {
		return Errorf(KindValidation, "team must have exactly %d members, got %d", requiredPlayers, len(teamIDs))
	}

	inRoom := make(map[string]bool, len(playerIDs))
	for _, id := range playerIDs {
		inRoom[id] = true
	}

	seen := make(map[string]bool, len(teamIDs))
	for _, id := range teamIDs {
		if seen[id] {
			return Errorf(KindValidation, "player %s listed more than once", id)
		}
		seen[id] = true
		if !inRoom[id] {
			return Errorf(KindValidation, "player %s is not in this game", id)
		}
	}
	return nil
}
