package rules

// Phase is a game phase. Transitions are only legal per validNextPhases;
// Transition is the single enforcement point that keeps clients from
// skipping phases.
type Phase string

const (
	PhaseLobby            Phase = "lobby"
	PhaseRoleReveal       Phase = "role_reveal"
	PhaseTeamSelection    Phase = "team_selection"
	PhaseVoting           Phase = "voting"
	PhaseMissionExecution Phase = "mission_execution"
	PhaseMissionResult    Phase = "mission_result"
	PhaseAssassinAttempt  Phase = "assassin_attempt"
	PhaseGameOver         Phase = "game_over"
)

var validNextPhases = map[Phase][]Phase{
	PhaseLobby:            {PhaseRoleReveal},
	PhaseRoleReveal:       {PhaseTeamSelection},
	PhaseTeamSelection:    {PhaseVoting},
	PhaseVoting:           {PhaseTeamSelection, PhaseMissionExecution, PhaseGameOver},
	PhaseMissionExecution: {PhaseMissionResult},
	PhaseMissionResult:    {PhaseTeamSelection, PhaseAssassinAttempt, PhaseGameOver},
	PhaseAssassinAttempt:  {PhaseGameOver},
	PhaseGameOver:         {},
}

// CanTransition reports whether moving from from to to is legal.
func CanTransition(from, to Phase) bool {
	for _, p := range validNextPhases[from] {
		if p == to {
			return true
		}
	}
	return false
}

// Transition validates and returns the target phase, or a KindPhase error if
// the move is illegal from the current phase.
func Transition(from, to Phase) (Phase, error) {
	if !CanTransition(from, to) {
		return from, Errorf(KindPhase, "cannot transition from %s to %s", from, to)
	}
	return to, nil
}

// IsTerminal reports whether the phase has no outgoing transitions.
func IsTerminal(p Phase) bool {
	return len(validNextPhases[p]) == 0
}
