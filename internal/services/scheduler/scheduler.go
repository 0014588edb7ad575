package scheduler

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/ternarybob/arbor"
	"github.com/ternarybob/scout/internal/common"
	"github.com/ternarybob/scout/internal/storage/badger"
)

// Service runs the periodic cleanup of old result files, debug dumps and
// expired cache entries
type Service struct {
	config  *common.Config
	sweeper *badger.CacheStorage
	cron    *cron.Cron
	logger  arbor.ILogger
	running bool
}

// NewService creates the cleanup scheduler. sweeper may be nil when the
// cache is disabled.
func NewService(cfg *common.Config, sweeper *badger.CacheStorage, logger arbor.ILogger) *Service {
	return &Service{
		config:  cfg,
		sweeper: sweeper,
		cron:    cron.New(),
		logger:  logger,
	}
}

// Start registers the cleanup job and starts the cron loop
func (s *Service) Start() error {
	if !s.config.Cleanup.Enabled {
		s.logger.Info().Msg("Cleanup scheduler disabled")
		return nil
	}
	if s.running {
		return fmt.Errorf("scheduler already running")
	}

	schedule := s.config.Cleanup.Schedule
	if schedule == "" {
		schedule = "0 * * * *"
	}

	if _, err := s.cron.AddFunc(schedule, s.runCleanup); err != nil {
		return fmt.Errorf("failed to register cleanup job: %w", err)
	}

	s.cron.Start()
	s.running = true

	s.logger.Info().
		Str("schedule", schedule).
		Msg("Cleanup scheduler started")

	return nil
}

// Stop halts the cron loop and waits for a running cleanup to finish
func (s *Service) Stop() {
	if !s.running {
		return
	}
	stopCtx := s.cron.Stop()
	<-stopCtx.Done()
	s.running = false
	s.logger.Info().Msg("Cleanup scheduler stopped")
}

func (s *Service) retention() time.Duration {
	if d, err := time.ParseDuration(s.config.Debug.Retention); err == nil && d > 0 {
		return d
	}
	return 24 * time.Hour
}

func (s *Service) runCleanup() {
	maxAge := s.retention()

	removedResults := s.purgeDir(s.config.Storage.ResultsDir, maxAge)
	removedDumps := s.purgeDir(s.config.Debug.Dir, maxAge)

	expired := 0
	if s.sweeper != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		n, err := s.sweeper.PurgeExpired(ctx)
		if err != nil {
			s.logger.Warn().Err(err).Msg("Failed to purge expired cache entries")
		} else {
			expired = n
		}
	}

	s.logger.Info().
		Int("result_files", removedResults).
		Int("debug_files", removedDumps).
		Int("cache_entries", expired).
		Msg("Cleanup pass complete")
}

// purgeDir removes regular files older than maxAge. Missing directories
// are not an error.
func (s *Service) purgeDir(dir string, maxAge time.Duration) int {
	if dir == "" {
		return 0
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		if !os.IsNotExist(err) {
			s.logger.Warn().Str("dir", dir).Err(err).Msg("Failed to read cleanup directory")
		}
		return 0
	}

	cutoff := time.Now().Add(-maxAge)
	removed := 0

	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			continue
		}
		if info.ModTime().After(cutoff) {
			continue
		}
		path := filepath.Join(dir, entry.Name())
		if err := os.Remove(path); err != nil {
			s.logger.Warn().Str("file", path).Err(err).Msg("Failed to remove old file")
			continue
		}
		removed++
	}

	return removed
}
