package rules

import "time"

// MissionChoice is a team member's secret mission action.
type MissionChoice string

const (
	MissionSuccess MissionChoice = "success"
	MissionFail    MissionChoice = "fail"
)

// MissionVote is one team member's secret action on the current mission.
type MissionVote struct {
	PlayerID    string        `json:"player_id"`
	Choice      MissionChoice `json:"choice"`
	SubmittedAt time.Time     `json:"submitted_at"`
}

// MissionOutcome is the resolved state of a mission.
type MissionOutcome string

const (
	OutcomePending MissionOutcome = "pending"
	OutcomeSuccess MissionOutcome = "success"
	OutcomeFailure MissionOutcome = "failure"
)

// CheckMissionVoteAllowed rejects a failure vote from a role without sabotage
// capability. Enforced at submission time so an illegal ballot is never
// silently coerced; the error is KindCapability so clients can explain it.
func CheckMissionVoteAllowed(roleID string, choice MissionChoice) error {
	role, ok := RoleByID(roleID)
	if !ok {
		return Errorf(KindInternal, "unknown role %q in assignment", roleID)
	}
	if choice == MissionFail && !role.CanVoteFail {
		return Errorf(KindCapability, "your role cannot vote to fail a mission")
	}
	if choice != MissionFail && choice != MissionSuccess {
		return Errorf(KindValidation, "mission vote must be success or fail")
	}
	return nil
}

// ResolveMission aggregates a complete set of mission votes: failure iff the
// failure count reaches failsRequired, else success.
func ResolveMission(votes []MissionVote, failsRequired int) MissionOutcome {
	fails := 0
	for _, v := range votes {
		if v.Choice == MissionFail {
			fails++
		}
	}
	if fails >= failsRequired {
		return OutcomeFailure
	}
	return OutcomeSuccess
}
