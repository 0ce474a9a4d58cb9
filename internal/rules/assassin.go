package rules

import "time"

// AssassinAttempt records the single terminal assassination.
type AssassinAttempt struct {
	AssassinID string    `json:"assassin_id"`
	TargetID   string    `json:"target_id"`
	WasCorrect bool      `json:"was_correct"`
	ResolvedAt time.Time `json:"resolved_at"`
}

// ResolveAssassinAttempt resolves the assassin's target choice against the
// assignment map. Picking the merlin holder hands the game to evil; any other
// target confirms the good win. One attempt per game is guaranteed by the
// phase machine (assassin_attempt is terminal-bound).
func ResolveAssassinAttempt(assassinID, targetID string, rolesByPlayer map[string]string) (*AssassinAttempt, Team, error) {
	assassinRoleID, ok := rolesByPlayer[assassinID]
	if !ok {
		return nil, "", Errorf(KindValidation, "player %s is not in this game", assassinID)
	}
	assassinRole, ok := RoleByID(assassinRoleID)
	if !ok {
		return nil, "", Errorf(KindInternal, "unknown role %q in assignment", assassinRoleID)
	}
	if !assassinRole.IsAssassin {
		return nil, "", Errorf(KindAuthorization, "only the assassin can attempt the kill")
	}
	if assassinID == targetID {
		return nil, "", Errorf(KindValidation, "assassin cannot target themselves")
	}
	targetRoleID, ok := rolesByPlayer[targetID]
	if !ok {
		return nil, "", Errorf(KindValidation, "target %s is not in this game", targetID)
	}

	attempt := &AssassinAttempt{
		AssassinID: assassinID,
		TargetID:   targetID,
		WasCorrect: targetRoleID == RoleMerlin,
		ResolvedAt: time.Now().UTC(),
	}
	winner := TeamGood
	if attempt.WasCorrect {
		winner = TeamEvil
	}
	return attempt, winner, nil
}
