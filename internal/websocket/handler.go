package websocket

import (
	"context"
	"encoding/json"
	"unicode/utf8"

	"go.uber.org/zap"

	"github.com/trile/avalon-server/internal/games"
	"github.com/trile/avalon-server/internal/ratelimit"
	"github.com/trile/avalon-server/internal/rules"
	"github.com/trile/avalon-server/internal/store"
)

// gameEngine is the slice of the engine API the socket layer drives.
type gameEngine interface {
	GetState(ctx context.Context, gameID string) (*rules.GameState, error)
	StartGame(ctx context.Context, gameID, actorID string, roleIDs []string) (*games.Result, error)
	ConfirmRole(ctx context.Context, gameID, actorID string) (*games.Result, error)
	ProposeTeam(ctx context.Context, gameID, actorID string, teamIDs []string) (*games.Result, error)
	CastTeamVote(ctx context.Context, gameID, actorID string, approve bool) (*games.Result, error)
	CastMissionVote(ctx context.Context, gameID, actorID string, choice rules.MissionChoice) (*games.Result, error)
	ResolveAssassin(ctx context.Context, gameID, actorID, targetID string) (*games.Result, error)
	Knowledge(ctx context.Context, gameID, observerID string) (*rules.KnowledgeView, error)
}

// gameFinder resolves a room to its current game.
type gameFinder interface {
	GetLatestGameForRoom(ctx context.Context, roomID string) (*store.Game, error)
}

// chatStore persists room chat.
type chatStore interface {
	CreateChatMessage(ctx context.Context, roomID, roomPlayerID, body string) (*store.ChatMessage, error)
}

// MessageHandler processes inbound client messages: chat, game actions, and
// state sync requests.
type MessageHandler struct {
	hub         *Hub
	engine      gameEngine
	games       gameFinder
	chat        chatStore
	rateLimiter ratelimit.Limiter
	logger      *zap.Logger
}

// NewMessageHandler creates a MessageHandler. rateLimiter is optional; when
// set, chat messages are rate-limited by client key (e.g. IP).
func NewMessageHandler(hub *Hub, engine gameEngine, gamesStore gameFinder, chat chatStore, rateLimiter ratelimit.Limiter, logger *zap.Logger) *MessageHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &MessageHandler{
		hub:         hub,
		engine:      engine,
		games:       gamesStore,
		chat:        chat,
		rateLimiter: rateLimiter,
		logger:      logger,
	}
}

// Handle dispatches one inbound client message. Unknown or invalid message
// types get an error envelope back.
func (h *MessageHandler) Handle(ctx context.Context, client *Client, msg *ClientMessage) {
	if msg == nil {
		h.sendError(client, "invalid message", "")
		return
	}
	if len(msg.Type) > MaxClientMessageTypeLength || !ValidClientMessageTypes[msg.Type] {
		h.sendError(client, "unsupported message type", "")
		return
	}
	switch msg.Type {
	case ClientMessageTypeChat:
		h.handleChat(ctx, client, msg)
	case ClientMessageTypeAction:
		h.handleAction(ctx, client, msg)
	case ClientMessageTypeSyncState:
		h.handleSyncState(ctx, client)
	}
}

// handleChat persists and broadcasts a chat message to the room.
func (h *MessageHandler) handleChat(ctx context.Context, client *Client, msg *ClientMessage) {
	if h.rateLimiter != nil && client.RateLimitKey != "" {
		if allowed, _ := h.rateLimiter.Allow(client.RateLimitKey); !allowed {
			h.sendError(client, "rate limit exceeded; try again later", "")
			return
		}
	}
	var message string
	if msg.Payload != nil {
		message, _ = msg.Payload["message"].(string)
	}
	if len(message) > MaxChatMessageLength {
		// Trim back to a rune boundary so the cut never splits a multibyte character.
		cut := MaxChatMessageLength
		for cut > 0 && !utf8.RuneStart(message[cut]) {
			cut--
		}
		message = message[:cut]
	}
	if message == "" {
		return
	}
	if h.chat != nil {
		if _, err := h.chat.CreateChatMessage(ctx, client.RoomID, client.RoomPlayerID, message); err != nil {
			h.logger.Warn("persist chat message",
				zap.String("room_id", client.RoomID),
				zap.Error(err))
		}
	}
	h.hub.BroadcastExcept(client.RoomID, &ServerEnvelope{
		Type:  ServerTypeEvent,
		Event: ServerEventChat,
		Payload: map[string]interface{}{
			"room_player_id": client.RoomPlayerID,
			"display_name":   client.DisplayName,
			"message":        message,
		},
	}, client)
}

// handleSyncState sends the latest public game state to the requesting client only.
func (h *MessageHandler) handleSyncState(ctx context.Context, client *Client) {
	game, err := h.games.GetLatestGameForRoom(ctx, client.RoomID)
	if err != nil || game == nil {
		h.sendError(client, "no game found for room", "")
		return
	}
	state, err := h.engine.GetState(ctx, game.ID)
	if err != nil {
		h.sendError(client, "failed to load state", "")
		return
	}
	payload := map[string]interface{}{"game_id": game.ID}
	if state != nil {
		payload["state"] = stateToMap(state.PublicProjection())
		payload["phase"] = string(state.Phase)
		payload["version"] = state.Version
	} else {
		payload["state"] = map[string]interface{}{"phase": string(rules.PhaseLobby)}
	}
	h.hub.SendToPlayer(client.RoomID, client.RoomPlayerID, &ServerEnvelope{
		Type:    ServerTypeState,
		Event:   ServerEventState,
		Payload: payload,
	})
}

// handleAction maps an op onto one engine operation and delivers the result.
func (h *MessageHandler) handleAction(ctx context.Context, client *Client, msg *ClientMessage) {
	game, err := h.games.GetLatestGameForRoom(ctx, client.RoomID)
	if err != nil || game == nil {
		h.sendError(client, "no game found for room", "")
		return
	}

	var result *games.Result
	switch msg.Op {
	case OpStartGame:
		result, err = h.engine.StartGame(ctx, game.ID, client.RoomPlayerID, stringSlice(msg.Payload, "role_ids"))
	case OpConfirmRole:
		result, err = h.engine.ConfirmRole(ctx, game.ID, client.RoomPlayerID)
	case OpProposeTeam:
		result, err = h.engine.ProposeTeam(ctx, game.ID, client.RoomPlayerID, stringSlice(msg.Payload, "team_ids"))
	case OpTeamVote:
		approve := false
		if msg.Payload != nil {
			approve, _ = msg.Payload["approve"].(bool)
		}
		result, err = h.engine.CastTeamVote(ctx, game.ID, client.RoomPlayerID, approve)
	case OpMissionVote:
		var choice string
		if msg.Payload != nil {
			choice, _ = msg.Payload["choice"].(string)
		}
		result, err = h.engine.CastMissionVote(ctx, game.ID, client.RoomPlayerID, rules.MissionChoice(choice))
	case OpAssassinAttempt:
		var targetID string
		if msg.Payload != nil {
			targetID, _ = msg.Payload["target_id"].(string)
		}
		result, err = h.engine.ResolveAssassin(ctx, game.ID, client.RoomPlayerID, targetID)
	case OpGetKnowledge:
		// Read-only: lets a reconnecting player re-learn their role without
		// waiting for the next state change.
		view, err := h.engine.Knowledge(ctx, game.ID, client.RoomPlayerID)
		if err != nil {
			h.sendError(client, err.Error(), string(rules.KindOf(err)))
			return
		}
		h.hub.SendToPlayer(client.RoomID, client.RoomPlayerID, &ServerEnvelope{
			Type:  ServerTypeEvent,
			Event: games.EventRoleKnowledge,
			Payload: map[string]interface{}{
				"role":          view.PlayerRole,
				"known_players": view.KnownPlayers,
			},
		})
		return
	default:
		h.sendError(client, "unsupported action op", "")
		return
	}
	if err != nil {
		h.sendError(client, err.Error(), string(rules.KindOf(err)))
		return
	}
	h.deliver(client, game.ID, result)
}

// deliver fans a game result out: public events to the room, private events to
// their owners, and the refreshed public state to everyone.
func (h *MessageHandler) deliver(client *Client, gameID string, result *games.Result) {
	for _, ev := range result.Events {
		h.hub.Broadcast(client.RoomID, &ServerEnvelope{
			Type:    ServerTypeEvent,
			Event:   ev.Name,
			Payload: ev.Payload,
		})
	}
	for playerID, events := range result.Private {
		for _, ev := range events {
			h.hub.SendToPlayer(client.RoomID, playerID, &ServerEnvelope{
				Type:    ServerTypeEvent,
				Event:   ev.Name,
				Payload: ev.Payload,
			})
		}
	}
	if result.State != nil {
		h.hub.Broadcast(client.RoomID, &ServerEnvelope{
			Type:  ServerTypeState,
			Event: ServerEventState,
			Payload: map[string]interface{}{
				"game_id": gameID,
				"state":   stateToMap(result.State.PublicProjection()),
				"phase":   string(result.State.Phase),
				"version": result.State.Version,
			},
		})
	}
}

func (h *MessageHandler) sendError(client *Client, message, kind string) {
	payload := map[string]interface{}{"message": message}
	if kind != "" {
		payload["kind"] = kind
	}
	select {
	case client.send <- &ServerEnvelope{Type: ServerTypeError, Payload: payload}:
	default:
		h.logger.Warn("drop error envelope, client send buffer full",
			zap.String("room_id", client.RoomID),
			zap.String("room_player_id", client.RoomPlayerID))
	}
}

// stateToMap renders a game state as a generic JSON object for envelopes.
func stateToMap(state *rules.GameState) map[string]interface{} {
	data, err := state.MarshalSnapshot()
	if err != nil {
		return map[string]interface{}{}
	}
	var out map[string]interface{}
	if err := json.Unmarshal(data, &out); err != nil {
		return map[string]interface{}{}
	}
	return out
}

// stringSlice reads a []string out of a generic JSON payload field.
func stringSlice(payload map[string]interface{}, key string) []string {
	if payload == nil {
		return nil
	}
	raw, ok := payload[key].([]interface{})
	if !ok {
		return nil
	}
	out := make([]string, 0, len(raw))
	for _, v := range raw {
		if s, ok := v.(string); ok {
			out = append(out, s)
		}
	}
	return out
}
