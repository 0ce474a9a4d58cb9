package games

// Broadcast event names emitted by the engine.
const (
	EventGameStarted          = "game_started"
	EventRoleKnowledge        = "role_knowledge"
	EventRoleConfirmed        = "role_confirmed"
	EventTeamSelectionStarted = "team_selection_started"
	EventTeamProposed         = "team_proposed"
	EventVoteRecorded         = "vote_recorded"
	EventTeamApproved         = "team_approved"
	EventTeamRejected         = "team_rejected"
	EventMissionVoteRecorded  = "mission_vote_recorded"
	EventMissionResolved      = "mission_resolved"
	EventAssassinPhase        = "assassin_phase"
	EventGameEnded            = "game_ended"
)
