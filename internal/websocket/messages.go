package websocket

// ClientMessage is the envelope for messages from client to server.
// Types: "chat" | "action" | "sync_state".
type ClientMessage struct {
	Type    string                 `json:"type"`
	Op      string                 `json:"op,omitempty"` // set for type "action"
	Payload map[string]interface{} `json:"payload,omitempty"`
}

// Client message types.
const (
	ClientMessageTypeChat      = "chat"
	ClientMessageTypeAction    = "action"
	ClientMessageTypeSyncState = "sync_state"
)

// Action ops accepted over the room socket. Each maps onto one game
// operation; everything else is rejected with an error envelope.
const (
	OpStartGame       = "start_game"
	OpConfirmRole     = "confirm_role"
	OpProposeTeam     = "propose_team"
	OpTeamVote        = "team_vote"
	OpMissionVote     = "mission_vote"
	OpAssassinAttempt = "assassin_attempt"
	OpGetKnowledge    = "get_knowledge"
)

// ServerEnvelope is the envelope for messages from server to client.
// Type: "event" | "state" | "error".
type ServerEnvelope struct {
	Type    string                 `json:"type"`
	Event   string                 `json:"event,omitempty"`
	Payload map[string]interface{} `json:"payload,omitempty"`
}

// Server envelope types.
const (
	ServerTypeEvent = "event"
	ServerTypeState = "state"
	ServerTypeError = "error"
)

// Server event names that do not come from the game engine.
const (
	ServerEventChat  = "chat"
	ServerEventState = "state"
)

// MaxChatMessageLength is the maximum allowed length for a chat message.
const MaxChatMessageLength = 2000

// MaxClientMessageTypeLength limits the "type" field to prevent abuse.
const MaxClientMessageTypeLength = 64

// ValidClientMessageTypes are the only allowed values for ClientMessage.Type.
var ValidClientMessageTypes = map[string]bool{
	ClientMessageTypeChat:      true,
	ClientMessageTypeAction:    true,
	ClientMessageTypeSyncState: true,
}
