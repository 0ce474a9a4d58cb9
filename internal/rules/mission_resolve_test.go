package rules

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestCheckMissionVoteAllowed(t *testing.T) {
	scenarios := []struct {
		description string
		roleID      string
		choice      MissionChoice
		wantKind    ErrorKind
	}{
		{description: "good_success_allowed", roleID: RoleServant, choice: MissionSuccess},
		{description: "good_fail_rejected", roleID: RoleServant, choice: MissionFail, wantKind: KindCapability},
		{description: "merlin_fail_rejected", roleID: RoleMerlin, choice: MissionFail, wantKind: KindCapability},
		{description: "evil_fail_allowed", roleID: RoleMorgana, choice: MissionFail},
		{description: "evil_success_allowed", roleID: RoleAssassin, choice: MissionSuccess},
		{description: "garbage_choice_rejected", roleID: RoleServant, choice: "shrug", wantKind: KindValidation},
	}

	for _, scenario := range scenarios {
		t.Run(scenario.description, func(t *testing.T) {
			err := CheckMissionVoteAllowed(scenario.roleID, scenario.choice)
			if scenario.wantKind == "" {
				require.NoError(t, err)
				return
			}
			require.Error(t, err)
			require.Equal(t, scenario.wantKind, KindOf(err))
		})
	}
}

func TestResolveMission(t *testing.T) {
	mk := func(choices ...MissionChoice) []MissionVote {
		votes := make([]MissionVote, len(choices))
		for i, c := range choices {
			votes[i] = MissionVote{PlayerID: string(rune('a' + i)), Choice: c}
		}
		return votes
	}

	require.Equal(t, OutcomeSuccess, ResolveMission(mk(MissionSuccess, MissionSuccess), 1))
	require.Equal(t, OutcomeFailure, ResolveMission(mk(MissionSuccess, MissionFail), 1))
	// Two-fail mission: a single sabotage is not enough.
	require.Equal(t, OutcomeSuccess, ResolveMission(mk(MissionSuccess, MissionSuccess, MissionFail, MissionSuccess), 2))
	require.Equal(t, OutcomeFailure, ResolveMission(mk(MissionFail, MissionSuccess, MissionFail, MissionSuccess), 2))
}
