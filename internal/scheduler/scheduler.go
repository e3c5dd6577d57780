// Package scheduler runs periodic housekeeping: pruning idle attempts and
// expired cache entries.
package scheduler

import (
	"fmt"
	"time"

	"github.com/go-co-op/gocron"
	"github.com/golang/glog"
)

// Pruner drops attempts idle for longer than maxAge.
type Pruner interface {
	Prune(maxAge time.Duration) int
}

// Purger drops expired cache entries.
type Purger interface {
	Purge() int
}

// Config controls the cleanup job.
type Config struct {
	Interval   time.Duration
	AttemptTTL time.Duration
}

// Sweep is the outcome of one cleanup run.
type Sweep struct {
	Attempts     int
	CacheEntries int
}

// Scheduler owns the cleanup job.
type Scheduler struct {
	cron     *gocron.Scheduler
	cfg      Config
	attempts Pruner
	cache    Purger
}

// New creates a scheduler. cache may be nil.
func New(cfg Config, attempts Pruner, cache Purger) *Scheduler {
	return &Scheduler{
		cron:     gocron.NewScheduler(time.UTC),
		cfg:      cfg,
		attempts: attempts,
		cache:    cache,
	}
}

// Start schedules the cleanup job and runs it in the background.
func (s *Scheduler) Start() error {
	if s.cfg.Interval <= 0 {
		return fmt.Errorf("cleanup interval must be positive, got %s", s.cfg.Interval)
	}
	if _, err := s.cron.Every(s.cfg.Interval).WaitForSchedule().Do(func() { s.RunOnce() }); err != nil {
		return fmt.Errorf("schedule cleanup: %w", err)
	}
	s.cron.StartAsync()
	glog.Infof("cleanup scheduled every %s (attempt ttl %s)", s.cfg.Interval, s.cfg.AttemptTTL)
	return nil
}

// Stop halts the scheduler.
func (s *Scheduler) Stop() {
	s.cron.Stop()
}

// Jobs returns the number of scheduled jobs.
func (s *Scheduler) Jobs() int {
	return len(s.cron.Jobs())
}

// RunOnce performs one cleanup pass.
func (s *Scheduler) RunOnce() Sweep {
	var sw Sweep
	if s.attempts != nil {
		sw.Attempts = s.attempts.Prune(s.cfg.AttemptTTL)
	}
	if s.cache != nil {
		sw.CacheEntries = s.cache.Purge()
	}
	glog.V(2).Infof("cleanup: %d attempts, %d cache entries removed", sw.Attempts, sw.CacheEntries)
	return sw
}
