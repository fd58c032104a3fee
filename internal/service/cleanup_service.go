package service

import (
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

type exportCleaner interface {
	CleanupOlderThan(ttl time.Duration) ([]string, error)
}

// CleanupService removes saved and staged report cards once their download
// links can no longer be used.
type CleanupService struct {
	cleaner  exportCleaner
	ttl      time.Duration
	schedule string
	cron     *cron.Cron
	logger   *zap.Logger
}

// NewCleanupService constructs a CleanupService. schedule accepts standard
// cron expressions and descriptors such as "@every 1h".
func NewCleanupService(cleaner exportCleaner, ttl time.Duration, schedule string, logger *zap.Logger) *CleanupService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if schedule == "" {
		schedule = "@every 1h"
	}
	return &CleanupService{cleaner: cleaner, ttl: ttl, schedule: schedule, logger: logger}
}

// Start registers the sweep and starts the cron runner.
func (s *CleanupService) Start() error {
	c := cron.New()
	if _, err := c.AddFunc(s.schedule, func() { s.RunOnce() }); err != nil {
		return err
	}
	c.Start()
	s.cron = c
	s.logger.Info("export cleanup scheduled", zap.String("schedule", s.schedule), zap.Duration("ttl", s.ttl))
	return nil
}

// Stop halts the runner and waits for a running sweep.
func (s *CleanupService) Stop() {
	if s.cron == nil {
		return
	}
	<-s.cron.Stop().Done()
}

// RunOnce deletes files older than the ttl and returns how many went.
func (s *CleanupService) RunOnce() int {
	deleted, err := s.cleaner.CleanupOlderThan(s.ttl)
	if err != nil {
		s.logger.Error("export cleanup failed", zap.Error(err))
		return 0
	}
	if len(deleted) > 0 {
		s.logger.Info("expired exports removed", zap.Int("count", len(deleted)))
	}
	return len(deleted)
}
