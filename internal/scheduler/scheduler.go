// Package scheduler runs periodic re-triage of an exported batch file.
package scheduler

import (
	"fmt"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

// Scheduler manages one cron job with timezone support
type Scheduler struct {
	cron     *cron.Cron
	location *time.Location
	logger   *zap.Logger
	mu       sync.Mutex
	entryID  cron.EntryID
	started  bool
}

// NewScheduler creates a new scheduler for the given timezone
func NewScheduler(timezone string, logger *zap.Logger) (*Scheduler, error) {
	loc, err := time.LoadLocation(timezone)
	if err != nil {
		return nil, fmt.Errorf("load timezone %q: %w", timezone, err)
	}

	return &Scheduler{
		cron:     cron.New(cron.WithLocation(loc), cron.WithChain(cron.SkipIfStillRunning(cron.DiscardLogger))),
		location: loc,
		logger:   logger,
	}, nil
}

// Schedule replaces the job. expr is a standard five field cron expression
// or a descriptor such as "@every 5m".
func (s *Scheduler) Schedule(expr string, fn func()) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.entryID != 0 {
		s.cron.Remove(s.entryID)
		s.entryID = 0
	}

	entryID, err := s.cron.AddFunc(expr, fn)
	if err != nil {
		return fmt.Errorf("add cron job %q: %w", expr, err)
	}
	s.entryID = entryID

	s.logger.Info("Scheduled job",
		zap.String("schedule", expr),
		zap.String("timezone", s.location.String()))
	return nil
}

// Next returns the next run time of the job, or the zero time if none
func (s *Scheduler) Next() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.entryID == 0 {
		return time.Time{}
	}
	return s.cron.Entry(s.entryID).Next
}

// Start begins the scheduler
func (s *Scheduler) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.started {
		s.cron.Start()
		s.started = true
	}
	return nil
}

// Stop halts the scheduler and waits for a running job to finish
func (s *Scheduler) Stop() error {
	s.mu.Lock()
	if !s.started {
		s.mu.Unlock()
		return nil
	}
	s.started = false
	ctx := s.cron.Stop()
	s.mu.Unlock()

	<-ctx.Done()
	return nil
}
