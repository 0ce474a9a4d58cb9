package httpapi

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/jackc/pgx/v5/pgxpool"
	httpSwagger "github.com/swaggo/http-swagger"
	"go.uber.org/zap"

	"github.com/trile/avalon-server/internal/games"
	"github.com/trile/avalon-server/internal/httpapi/handler"
	"github.com/trile/avalon-server/internal/ratelimit"
	"github.com/trile/avalon-server/internal/store"
	"github.com/trile/avalon-server/internal/websocket"

	_ "github.com/trile/avalon-server/docs" // swag-generated docs
)

// RouterConfig carries the dependencies NewRouter wires together.
type RouterConfig struct {
	Pool           *pgxpool.Pool
	TokenSecret    []byte
	RateLimiter    ratelimit.Limiter // nil disables rate limiting
	Logger         *zap.Logger
	AllowedOrigins []string // CORS; empty means allow all
}

// NewRouter builds the root HTTP router: REST endpoints for rooms and games,
// the per-room WebSocket, health check, and Swagger UI.
//
// @title            Avalon API
// @version          1.0
// @description      API for Avalon game rooms and games.
// @BasePath         /
// @SecurityDefinitions.apikey  BearerAuth
// @in               header
// @name             Authorization
func NewRouter(cfg RouterConfig) http.Handler {
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	rateLimiter := cfg.RateLimiter
	if rateLimiter == nil {
		rateLimiter = &ratelimit.Noop{}
	}
	origins := cfg.AllowedOrigins
	if len(origins) == 0 {
		origins = []string{"*"}
	}

	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   origins,
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	r.Get("/healthz", handler.Healthz)

	// Swagger UI and generated spec (from swag comments)
	r.Get("/docs", func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, "/docs/", http.StatusMovedPermanently)
	})
	r.Get("/docs/*", httpSwagger.Handler(httpSwagger.URL("/docs/doc.json")))

	// Stores and rules engine
	roomStore := store.NewRoomStore(cfg.Pool)
	gameStore := store.NewGameStore(cfg.Pool)
	eventStore := store.NewGameEventStore(cfg.Pool)
	engine := games.NewEngine(gameStore, eventStore)

	// WebSocket hub and message handler (chat is rate limited per connection key)
	hub := websocket.NewHub(logger)
	hub.SetMessageHandler(websocket.NewMessageHandler(hub, engine, gameStore, eventStore, rateLimiter, logger))
	go hub.Run()

	wsHandler := websocket.NewWSHandler(hub, roomStore, cfg.TokenSecret, logger)

	// Per-room WebSocket (token auth; chat, game actions, sync_state)
	r.Get("/ws/rooms/{code}", wsHandler.HandleRoomWebSocket)

	rateLimitByIP := RateLimitMiddleware(rateLimiter, RateLimitKeyByIP)
	requireToken := RequireRoomToken(cfg.TokenSecret)

	roomHandler := handler.NewRoomHandler(roomStore, cfg.TokenSecret, logger)
	gameHandler := handler.NewGameHandler(gameStore, roomStore, cfg.TokenSecret, logger)
	eventHandler := handler.NewEventHandler(eventStore, gameStore, roomStore, logger)

	// Room and game routes (JSON bodies limited to 1MB)
	r.Route("/api/rooms", func(r chi.Router) {
		r.Use(LimitRequestBody(DefaultMaxBodyBytes))
		r.With(rateLimitByIP).Post("/", roomHandler.CreateRoom)
		r.Get("/{code}", roomHandler.GetRoom)
		r.With(rateLimitByIP).Post("/{code}/join", roomHandler.JoinRoom)
		r.With(requireToken).Post("/{code}/ready", roomHandler.SetReady)
		r.With(requireToken).Get("/{code}/chat", eventHandler.ListChatMessages)

		r.Post("/{code}/games", gameHandler.CreateGame)
		r.Get("/{code}/games/{game_id}/events", eventHandler.ListGameEvents)
	})

	return r
}

// DefaultRateLimiter returns an in-memory rate limiter for create/join/chat: 20 requests per minute per key.
// For multi-instance deployments use ratelimit.NewRedis instead.
func DefaultRateLimiter() ratelimit.Limiter {
	return ratelimit.NewInMemory(20, time.Minute)
}

// SetupRoomWSRouter returns a chi router with only GET /ws/rooms/{code} for testing.
func SetupRoomWSRouter(wsHandler *websocket.WSHandler) http.Handler {
	r := chi.NewRouter()
	r.Get("/ws/rooms/{code}", wsHandler.HandleRoomWebSocket)
	return r
}
