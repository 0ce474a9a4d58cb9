package rules

import (
	"math/rand"
	"time"
)

// Assignment binds a player to a role at a point in time.
type Assignment struct {
	PlayerID   string    `json:"player_id"`
	RoleID     string    `json:"role_id"`
	AssignedAt time.Time `json:"assigned_at"`
}

// AssignRoles shuffles roleIDs uniformly at random and zips them with
// playerIDs in order. The configuration must already be valid for
// len(playerIDs) players; violations are KindConfig errors and block game
// start. Pure over its inputs; callers persist the result.
func AssignRoles(playerIDs []string, roleIDs []string) ([]Assignment, error) {
	rng := rand.New(rand.NewSource(time.Now().UnixNano()))
	return AssignRolesWithRand(playerIDs, roleIDs, rng)
}

// AssignRolesWithRand is AssignRoles with an injectable source, used by tests
// for reproducible shuffles.
func AssignRolesWithRand(playerIDs []string, roleIDs []string, rng *rand.Rand) ([]Assignment, error) {
	if err := ValidateRoleConfiguration(len(playerIDs), roleIDs); err != nil {
		return nil, err
	}

	shuffled := make([]string, len(roleIDs))
	copy(shuffled, roleIDs)
	rng.Shuffle(len(shuffled), func(i, j int) {
		shuffled[i], shuffled[j] = shuffled[j], shuffled[i]
	})

	now := time.Now().UTC()
	out := make([]Assignment, len(playerIDs))
	for i, pid := range playerIDs {
		out[i] = Assignment{PlayerID: pid, RoleID: shuffled[i], AssignedAt: now}
	}
	return out, nil
}
