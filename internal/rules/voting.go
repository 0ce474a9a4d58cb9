package rules

import "time"

// VoteChoice is a team-proposal ballot.
type VoteChoice string

const (
	VoteApprove VoteChoice = "approve"
	VoteReject  VoteChoice = "reject"
)

// TeamVote is one player's ballot on the current proposal.
type TeamVote struct {
	PlayerID    string     `json:"player_id"`
	Choice      VoteChoice `json:"choice"`
	SubmittedAt time.Time  `json:"submitted_at"`
}

// MaxRejections: the proposal rejection count at which evil wins outright.
const MaxRejections = 5

// VotingResult is the aggregate outcome of a completed proposal vote.
type VotingResult struct {
	Approved        bool  `json:"approved"`
	ApproveCount    int   `json:"approve_count"`
	RejectCount     int   `json:"reject_count"`
	TotalVotes      int   `json:"total_votes"`
	NextPhase       Phase `json:"next_phase"`
	NextLeaderIndex int   `json:"next_leader_index"`
	// RejectionCount is the consecutive-rejection counter after this vote.
	RejectionCount int `json:"rejection_count"`
	// EvilWinsByAttrition is set when this vote was the fifth consecutive
	// rejection; NextPhase is then PhaseGameOver.
	EvilWinsByAttrition bool `json:"evil_wins_by_attrition"`
}

// AreAllPlayersVoted reports whether every eligible player has a ballot in.
func AreAllPlayersVoted(votes []TeamVote, totalPlayers int) bool {
	return len(votes) >= totalPlayers
}

// CalculateVotingResults aggregates a complete set of ballots. Approval needs
// a strict majority of votes cast; ties reject. On approval the leader stays
// and play moves to mission execution. On rejection the leader rotates and the
// consecutive-rejection counter increments; the fifth rejection ends the game
// with an evil win, overriding the normal rotation target phase.
//
// Precondition: all eligible players have voted (AreAllPlayersVoted). A
// partial ballot set is a caller error.
func CalculateVotingResults(votes []TeamVote, currentRejections, currentLeaderIndex, totalPlayers int) (VotingResult, error) {
	if !AreAllPlayersVoted(votes, totalPlayers) {
		return VotingResult{}, Errorf(KindInternal, "voting resolved with %d of %d ballots", len(votes), totalPlayers)
	}
	if totalPlayers <= 0 {
		return VotingResult{}, Errorf(KindInternal, "voting resolved with no players")
	}

	res := VotingResult{TotalVotes: len(votes), RejectionCount: currentRejections}
	for _, v := range votes {
		if v.Choice == VoteApprove {
			res.ApproveCount++
		} else {
			res.RejectCount++
		}
	}

	res.Approved = res.ApproveCount > res.RejectCount
	if res.Approved {
		res.NextPhase = PhaseMissionExecution
		res.NextLeaderIndex = currentLeaderIndex
		return res, nil
	}

	res.RejectionCount = currentRejections + 1
	res.NextLeaderIndex = (currentLeaderIndex + 1) % totalPlayers
	if res.RejectionCount >= MaxRejections {
		res.EvilWinsByAttrition = true
		res.NextPhase = PhaseGameOver
	} else {
		res.NextPhase = PhaseTeamSelection
	}
	return res, nil
}
