package rules

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func ballots(choices ...VoteChoice) []TeamVote {
	votes := make([]TeamVote, len(choices))
	for i, c := range choices {
		votes[i] = TeamVote{PlayerID: string(rune('a' + i)), Choice: c}
	}
	return votes
}

func TestCalculateVotingResults_MajorityApproves(t *testing.T) {
	votes := ballots(VoteApprove, VoteApprove, VoteApprove, VoteReject, VoteReject)

	res, err := CalculateVotingResults(votes, 2, 1, 5)
	require.NoError(t, err)
	require.True(t, res.Approved)
	require.Equal(t, 3, res.ApproveCount)
	require.Equal(t, 2, res.RejectCount)
	require.Equal(t, PhaseMissionExecution, res.NextPhase)
	// Leader stays on approval; rejection counter untouched until reset at approval handling.
	require.Equal(t, 1, res.NextLeaderIndex)
	require.Equal(t, 2, res.RejectionCount)
}

func TestCalculateVotingResults_TiesReject(t *testing.T) {
	// 6 voters, 3-3: ties reject.
	votes := ballots(VoteApprove, VoteApprove, VoteApprove, VoteReject, VoteReject, VoteReject)

	res, err := CalculateVotingResults(votes, 0, 5, 6)
	require.NoError(t, err)
	require.False(t, res.Approved)
	require.Equal(t, PhaseTeamSelection, res.NextPhase)
	require.Equal(t, 0, res.NextLeaderIndex, "leader rotation wraps around")
	require.Equal(t, 1, res.RejectionCount)
}

func TestCalculateVotingResults_FifthRejectionEndsGame(t *testing.T) {
	votes := ballots(VoteReject, VoteReject, VoteReject, VoteApprove, VoteApprove)

	rejections := 0
	leader := 0
	for i := 1; i <= MaxRejections; i++ {
		res, err := CalculateVotingResults(votes, rejections, leader, 5)
		require.NoError(t, err)
		require.False(t, res.Approved)
		rejections = res.RejectionCount
		leader = res.NextLeaderIndex
		if i < MaxRejections {
			require.Equal(t, PhaseTeamSelection, res.NextPhase, "rejection %d", i)
			require.False(t, res.EvilWinsByAttrition)
		} else {
			require.Equal(t, PhaseGameOver, res.NextPhase)
			require.True(t, res.EvilWinsByAttrition)
		}
	}
	require.Equal(t, MaxRejections, rejections)
}

func TestCalculateVotingResults_PartialBallotsAreCallerError(t *testing.T) {
	votes := ballots(VoteApprove, VoteApprove)

	_, err := CalculateVotingResults(votes, 0, 0, 5)
	require.Error(t, err)
	require.Equal(t, KindInternal, KindOf(err))
}

func TestAreAllPlayersVoted(t *testing.T) {
	require.False(t, AreAllPlayersVoted(ballots(VoteApprove), 2))
	require.True(t, AreAllPlayersVoted(ballots(VoteApprove, VoteReject), 2))
}
