package rules

import "sort"

// Confidence describes how sure an observer is about a known player.
type Confidence string

const (
	ConfidenceCertain   Confidence = "certain"
	ConfidenceAmbiguous Confidence = "ambiguous"
)

// KnownPlayer is one entry of an observer's hidden knowledge. Team is empty
// when IsAmbiguous is set (identity without alignment).
type KnownPlayer struct {
	PlayerID    string     `json:"player_id"`
	Team        Team       `json:"team,omitempty"`
	IsAmbiguous bool       `json:"is_ambiguous,omitempty"`
	Confidence  Confidence `json:"confidence"`
}

// KnowledgeView is what a single observer is allowed to see: their own role
// and the set of players revealed by their capabilities. Derived on demand
// from the authoritative assignment, never stored.
type KnowledgeView struct {
	PlayerRole   Role          `json:"player_role"`
	KnownPlayers []KnownPlayer `json:"known_players"`
}

// ComputeRoleKnowledge computes observerID's knowledge from the full
// assignment map (player ID -> role ID). Output is independent of map
// iteration order: entries are sorted by player ID. Unknown observer or
// unknown role IDs are internal errors (the assignment is trusted state).
func ComputeRoleKnowledge(observerID string, rolesByPlayer map[string]string) (*KnowledgeView, error) {
	observerRoleID, ok := rolesByPlayer[observerID]
	if !ok {
		return nil, Errorf(KindInternal, "observer %s has no assigned role", observerID)
	}
	observer, ok := RoleByID(observerRoleID)
	if !ok {
		return nil, Errorf(KindInternal, "unknown role %q in assignment", observerRoleID)
	}

	var known []KnownPlayer
	for pid, rid := range rolesByPlayer {
		if pid == observerID {
			continue
		}
		role, ok := RoleByID(rid)
		if !ok {
			return nil, Errorf(KindInternal, "unknown role %q in assignment", rid)
		}

		switch {
		case observer.SeesEvil:
			if role.Team == TeamEvil && !role.HiddenFromSeer {
				known = append(known, KnownPlayer{
					PlayerID: pid, Team: TeamEvil, Confidence: ConfidenceCertain,
				})
			}
		case observer.SeesAmbiguous:
			if role.AppearsAmbiguous {
				known = append(known, KnownPlayer{
					PlayerID: pid, IsAmbiguous: true, Confidence: ConfidenceAmbiguous,
				})
			}
		case observer.Team == TeamEvil && !observer.HiddenFromEvil:
			if role.Team == TeamEvil && !role.HiddenFromEvil {
				known = append(known, KnownPlayer{
					PlayerID: pid, Team: TeamEvil, Confidence: ConfidenceCertain,
				})
			}
		}
	}

	sort.Slice(known, func(i, j int) bool { return known[i].PlayerID < known[j].PlayerID })
	return &KnowledgeView{PlayerRole: observer, KnownPlayers: known}, nil
}
