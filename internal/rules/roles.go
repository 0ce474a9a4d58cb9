package rules

import "sort"

// Team is a hidden faction alignment.
type Team string

const (
	TeamGood Team = "good"
	TeamEvil Team = "evil"
)

// Role is a catalog entry. Capability flags are computed once here and
// consulted everywhere; call sites never compare role IDs directly.
type Role struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	Team Team   `json:"team"`

	// SeesEvil: this role learns the identity of evil players (except those
	// hidden from seers).
	SeesEvil bool `json:"sees_evil"`
	// SeesAmbiguous: this role learns which players hold ambiguous-appearing
	// roles, without learning their alignment.
	SeesAmbiguous bool `json:"sees_ambiguous"`
	// HiddenFromSeer: invisible to SeesEvil observers.
	HiddenFromSeer bool `json:"hidden_from_seer"`
	// HiddenFromEvil: does not appear to (and does not receive) evil knowledge.
	HiddenFromEvil bool `json:"hidden_from_evil"`
	// AppearsAmbiguous: shown to SeesAmbiguous observers.
	AppearsAmbiguous bool `json:"appears_ambiguous"`
	// CanVoteFail: may submit a failure vote on a mission.
	CanVoteFail bool `json:"can_vote_fail"`
	// IsAssassin: performs the terminal assassination attempt.
	IsAssassin bool `json:"is_assassin"`
	// Stackable roles ("servant", "minion") may appear more than once in a
	// configuration; all others are unique.
	Stackable bool `json:"-"`
}

// Role IDs.
const (
	RoleMerlin   = "merlin"
	RolePercival = "percival"
	RoleServant  = "servant"
	RoleAssassin = "assassin"
	RoleMorgana  = "morgana"
	RoleMordred  = "mordred"
	RoleOberon   = "oberon"
	RoleMinion   = "minion"
)

var catalog = map[string]Role{
	RoleMerlin: {
		ID: RoleMerlin, Name: "Merlin", Team: TeamGood,
		SeesEvil: true, AppearsAmbiguous: true,
	},
	RolePercival: {
		ID: RolePercival, Name: "Percival", Team: TeamGood,
		SeesAmbiguous: true,
	},
	RoleServant: {
		ID: RoleServant, Name: "Loyal Servant", Team: TeamGood,
		Stackable: true,
	},
	RoleAssassin: {
		ID: RoleAssassin, Name: "Assassin", Team: TeamEvil,
		CanVoteFail: true, IsAssassin: true,
	},
	RoleMorgana: {
		ID: RoleMorgana, Name: "Morgana", Team: TeamEvil,
		CanVoteFail: true, AppearsAmbiguous: true,
	},
	RoleMordred: {
		ID: RoleMordred, Name: "Mordred", Team: TeamEvil,
		CanVoteFail: true, HiddenFromSeer: true,
	},
	RoleOberon: {
		ID: RoleOberon, Name: "Oberon", Team: TeamEvil,
		CanVoteFail: true, HiddenFromEvil: true,
	},
	RoleMinion: {
		ID: RoleMinion, Name: "Minion of Mordred", Team: TeamEvil,
		Stackable: true, CanVoteFail: true,
	},
}

// RoleByID returns the catalog entry for id.
func RoleByID(id string) (Role, bool) {
	r, ok := catalog[id]
	return r, ok
}

// AllRoleIDs returns every catalog role ID, sorted.
func AllRoleIDs() []string {
	ids := make([]string, 0, len(catalog))
	for id := range catalog {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// evilCountByPlayers is the canonical evil count per player count (5–10).
var evilCountByPlayers = map[int]int{
	5: 2, 6: 2, 7: 3, 8: 3, 9: 3, 10: 4,
}

// MinPlayers and MaxPlayers bound a playable game.
const (
	MinPlayers = 5
	MaxPlayers = 10
)

// EvilCountForPlayers returns the canonical number of evil roles for n players.
func EvilCountForPlayers(n int) (int, bool) {
	c, ok := evilCountByPlayers[n]
	return c, ok
}

// ValidateRoleConfiguration checks that roleIDs is a legal configuration for
// playerCount: one role per player, every ID known, non-stackable roles unique,
// exactly one merlin if any merlin is listed, and good/evil counts matching the
// canonical distribution table. Violations are KindConfig errors and must block
// game start.
func ValidateRoleConfiguration(playerCount int, roleIDs []string) error {
	if playerCount < MinPlayers || playerCount > MaxPlayers {
		return Errorf(KindConfig, "player count %d not in range [%d,%d]", playerCount, MinPlayers, MaxPlayers)
	}
	if len(roleIDs) != playerCount {
		return Errorf(KindConfig, "%d roles selected for %d players", len(roleIDs), playerCount)
	}

	counts := make(map[string]int, len(roleIDs))
	good, evil := 0, 0
	for _, id := range roleIDs {
		role, ok := catalog[id]
		if !ok {
			return Errorf(KindConfig, "unknown role %q", id)
		}
		counts[id]++
		if counts[id] > 1 && !role.Stackable {
			return Errorf(KindConfig, "role %q may appear at most once", id)
		}
		if role.Team == TeamEvil {
			evil++
		} else {
			good++
		}
	}
	if counts[RoleMerlin] > 1 {
		return Errorf(KindConfig, "exactly one merlin is allowed")
	}

	wantEvil := evilCountByPlayers[playerCount]
	if evil != wantEvil || good != playerCount-wantEvil {
		return Errorf(KindConfig, "%d players require %d good and %d evil roles, got %d/%d",
			playerCount, playerCount-wantEvil, wantEvil, good, evil)
	}
	return nil
}

// DefaultRoleConfiguration returns a sensible role list for n players:
// merlin, percival, assassin, morgana, padded with servants and minions per
// the canonical distribution.
func DefaultRoleConfiguration(n int) ([]string, error) {
	wantEvil, ok := evilCountByPlayers[n]
	if !ok {
		return nil, Errorf(KindConfig, "player count %d not in range [%d,%d]", n, MinPlayers, MaxPlayers)
	}
	roles := []string{RoleMerlin, RolePercival}
	evil := []string{RoleAssassin, RoleMorgana}
	for len(evil) < wantEvil {
		evil = append(evil, RoleMinion)
	}
	evil = evil[:wantEvil]
	for len(roles)+len(evil) < n {
		roles = append(roles, RoleServant)
	}
	return append(roles, evil...), nil
}
