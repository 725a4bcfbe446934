package cache

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/robfig/cron/v3"
)

// Sweeper proactively purges TTL-expired entries on a cron schedule.
// Expiry is enforced lazily on Get regardless; the sweeper only reclaims
// memory for entries that would otherwise sit expired until next looked up.
type Sweeper struct {
	store    Store
	schedule string
	cron     *cron.Cron
	logger   *slog.Logger

	mu      sync.Mutex
	running bool
}

// NewSweeper creates a sweeper for the given store.
//
// Common schedule expressions:
//   - "@every 10m"  - every ten minutes
//   - "0 3 * * *"   - daily at 3 AM
//
// An empty schedule disables the sweeper.
func NewSweeper(store Store, schedule string, logger *slog.Logger) *Sweeper {
	if logger == nil {
		logger = slog.Default()
	}
	return &Sweeper{
		store:    store,
		schedule: schedule,
		cron:     cron.New(),
		logger:   logger.With("component", "cache.sweeper"),
	}
}

// Start begins scheduled purging. It returns immediately; purge runs happen
// on the cron goroutine until Stop is called or the context is cancelled.
func (s *Sweeper) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.schedule == "" {
		s.logger.Info("sweep schedule not configured, skipping sweeper")
		return nil
	}
	if s.running {
		return fmt.Errorf("sweeper already running")
	}

	_, err := s.cron.AddFunc(s.schedule, func() {
		purged, err := s.store.PurgeExpired(ctx)
		if err != nil {
			s.logger.Error("cache sweep failed", "error", err)
			return
		}
		if purged > 0 {
			s.logger.Info("cache sweep completed", "purged", purged)
		}
	})
	if err != nil {
		return fmt.Errorf("invalid sweep schedule %q: %w", s.schedule, err)
	}

	s.cron.Start()
	s.running = true
	s.logger.Info("cache sweeper started", "schedule", s.schedule)

	go func() {
		<-ctx.Done()
		s.Stop()
	}()

	return nil
}

// Stop halts scheduled purging and waits for an in-flight run to finish.
func (s *Sweeper) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.running {
		return
	}
	stopCtx := s.cron.Stop()
	<-stopCtx.Done()
	s.running = false
	s.logger.Info("cache sweeper stopped")
}
