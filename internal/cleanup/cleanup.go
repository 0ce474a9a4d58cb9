package cleanup

import (
	"context"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"github.com/trile/avalon-server/internal/store"
)

// DefaultRoomTTL is how long a room may sit untouched before the sweeper deletes it.
const DefaultRoomTTL = 24 * time.Hour

// defaultSchedule runs the sweep at the top of every hour.
const defaultSchedule = "0 * * * *"

// Sweeper periodically deletes idle rooms and everything hanging off them.
// Rooms with an in-progress game are never touched.
type Sweeper struct {
	rooms   *store.RoomStore
	ttl     time.Duration
	logger  *zap.Logger
	cron    *cron.Cron
	timeout time.Duration
}

// NewSweeper creates a Sweeper. ttl <= 0 falls back to DefaultRoomTTL.
func NewSweeper(rooms *store.RoomStore, ttl time.Duration, logger *zap.Logger) *Sweeper {
	if ttl <= 0 {
		ttl = DefaultRoomTTL
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Sweeper{
		rooms:   rooms,
		ttl:     ttl,
		logger:  logger,
		cron:    cron.New(),
		timeout: time.Minute,
	}
}

// Start schedules the hourly sweep. Call Stop to shut the scheduler down.
func (s *Sweeper) Start() error {
	if _, err := s.cron.AddFunc(defaultSchedule, s.sweep); err != nil {
		return err
	}
	s.cron.Start()
	s.logger.Info("room sweeper started", zap.Duration("ttl", s.ttl))
	return nil
}

// Stop stops the scheduler and waits for a running sweep to finish.
func (s *Sweeper) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()
}

// Sweep deletes idle rooms once. Exposed so callers can sweep on demand.
func (s *Sweeper) Sweep(ctx context.Context) (int64, error) {
	return s.rooms.DeleteIdleRooms(ctx, s.ttl)
}

func (s *Sweeper) sweep() {
	ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
	defer cancel()

	deleted, err := s.Sweep(ctx)
	if err != nil {
		s.logger.Error("sweep idle rooms", zap.Error(err))
		return
	}
	if deleted > 0 {
		s.logger.Info("deleted idle rooms", zap.Int64("count", deleted))
	}
}
