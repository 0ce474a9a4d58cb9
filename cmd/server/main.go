package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/trile/avalon-server/internal/cleanup"
	"github.com/trile/avalon-server/internal/database"
	"github.com/trile/avalon-server/internal/httpapi"
	"github.com/trile/avalon-server/internal/ratelimit"
	"github.com/trile/avalon-server/internal/store"
)

func main() {
	_ = godotenv.Load()

	logger, err := newLogger()
	if err != nil {
		panic(err)
	}
	defer logger.Sync()

	addr := getenv("AVALON_HTTP_ADDR", ":8080")
	databaseURL := os.Getenv("DATABASE_URL")
	if databaseURL == "" {
		logger.Fatal("DATABASE_URL environment variable is required")
	}
	migrationsDir := getenv("MIGRATIONS_DIR", "migrations")

	ctx := context.Background()
	dbPool, err := database.Connect(ctx, databaseURL)
	if err != nil {
		logger.Fatal("database connect", zap.Error(err))
	}
	defer dbPool.Close()
	logger.Info("connected to database")

	if err := database.Migrate(ctx, dbPool, migrationsDir); err != nil {
		logger.Fatal("database migrate", zap.Error(err))
	}
	logger.Info("migrations up to date")

	tokenSecret := []byte(os.Getenv("WEBSOCKET_TOKEN_SECRET"))
	if len(tokenSecret) == 0 {
		logger.Warn("WEBSOCKET_TOKEN_SECRET not set, using insecure dev secret")
		tokenSecret = []byte("dev-secret-change-in-production")
	}

	limiter, closeLimiter := newRateLimiter(ctx, logger)
	defer closeLimiter()

	router := httpapi.NewRouter(httpapi.RouterConfig{
		Pool:           dbPool,
		TokenSecret:    tokenSecret,
		RateLimiter:    limiter,
		Logger:         logger,
		AllowedOrigins: splitOrigins(os.Getenv("CORS_ALLOWED_ORIGINS")),
	})

	// Idle-room sweeper (rooms with in-progress games are kept).
	roomTTL := cleanup.DefaultRoomTTL
	if v := os.Getenv("ROOM_TTL"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			logger.Fatal("invalid ROOM_TTL", zap.String("value", v), zap.Error(err))
		}
		roomTTL = d
	}
	sweeper := cleanup.NewSweeper(store.NewRoomStore(dbPool), roomTTL, logger)
	if err := sweeper.Start(); err != nil {
		logger.Fatal("start room sweeper", zap.Error(err))
	}
	defer sweeper.Stop()

	srv := &http.Server{
		Addr:         addr,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Info("avalon backend listening", zap.String("addr", addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("http server", zap.Error(err))
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("graceful shutdown failed", zap.Error(err))
	}
}

// newLogger builds a production zap logger, or a development one when
// AVALON_ENV=development.
func newLogger() (*zap.Logger, error) {
	if os.Getenv("AVALON_ENV") == "development" {
		return zap.NewDevelopment()
	}
	return zap.NewProduction()
}

// newRateLimiter picks Redis-backed limiting when REDIS_URL is set (so limits
// hold across instances), otherwise the in-memory default. The returned func
// releases the Redis connection.
func newRateLimiter(ctx context.Context, logger *zap.Logger) (ratelimit.Limiter, func()) {
	redisURL := os.Getenv("REDIS_URL")
	if redisURL == "" {
		return httpapi.DefaultRateLimiter(), func() {}
	}

	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		logger.Fatal("invalid REDIS_URL", zap.Error(err))
	}
	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		logger.Fatal("redis ping", zap.Error(err))
	}
	logger.Info("using redis rate limiter")
	return ratelimit.NewRedis(client, "avalon:rl", 20, time.Minute), func() { _ = client.Close() }
}

func splitOrigins(s string) []string {
	if s == "" {
		return nil
	}
	var origins []string
	for _, o := range strings.Split(s, ",") {
		if o = strings.TrimSpace(o); o != "" {
			origins = append(origins, o)
		}
	}
	return origins
}

func getenv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}
