package manager

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
)

// ReloadScheduler triggers policy reloads on a cron schedule, independent of
// file system events. It covers sources whose changes fsnotify cannot see,
// such as network mounts.
//
// Accepted schedules are standard five-field cron expressions and the
// descriptors understood by cron.ParseStandard:
//   - "@every 5m"     - every five minutes
//   - "*/10 * * * *"  - every ten minutes on the clock
//   - "@hourly"       - at the top of every hour
type ReloadScheduler struct {
	spec    string
	reload  func(ReloadEvent) error
	cron    *cron.Cron
	mu      sync.Mutex
	logger  *slog.Logger
	running bool
}

// NewReloadScheduler creates a scheduler that calls reload on every tick of spec.
func NewReloadScheduler(spec string, reload func(ReloadEvent) error, logger *slog.Logger) *ReloadScheduler {
	if logger == nil {
		logger = slog.Default()
	}
	logger = logger.With("component", "policy.scheduler")
	return &ReloadScheduler{
		spec:   spec,
		reload: reload,
		cron: cron.New(cron.WithChain(
			cron.SkipIfStillRunning(cronLogger{logger}),
		)),
		logger: logger,
	}
}

// Start registers the reload job and starts the cron loop. The scheduler
// stops itself when ctx is cancelled. An empty schedule is a no-op.
func (s *ReloadScheduler) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.spec == "" {
		s.logger.Debug("reload schedule not configured, skipping scheduler")
		return nil
	}
	if s.running {
		return fmt.Errorf("reload scheduler already running")
	}

	if _, err := cron.ParseStandard(s.spec); err != nil {
		return fmt.Errorf("invalid reload schedule %q: %w", s.spec, err)
	}

	if _, err := s.cron.AddFunc(s.spec, s.tick); err != nil {
		return fmt.Errorf("failed to schedule reload: %w", err)
	}

	s.cron.Start()
	s.running = true

	s.logger.Info("reload scheduler started", "schedule", s.spec)

	go func() {
		<-ctx.Done()
		s.Stop()
	}()

	return nil
}

func (s *ReloadScheduler) tick() {
	event := ReloadEvent{Type: ReloadEventScheduled, Timestamp: time.Now()}
	if err := s.reload(event); err != nil {
		s.logger.Error("scheduled reload failed", "error", err)
		return
	}
	s.logger.Debug("scheduled reload completed")
}

// Stop stops the scheduler and waits for a running reload to finish.
func (s *ReloadScheduler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.running {
		<-s.cron.Stop().Done()
		s.running = false
		s.logger.Info("reload scheduler stopped")
	}
}

// IsRunning returns true if the scheduler is running.
func (s *ReloadScheduler) IsRunning() bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.running
}

// NextRun returns the next scheduled reload time, or nil when not scheduled.
func (s *ReloadScheduler) NextRun() *time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()

	entries := s.cron.Entries()
	if len(entries) == 0 {
		return nil
	}

	next := entries[0].Next
	return &next
}

// cronLogger adapts slog to cron.Logger.
type cronLogger struct {
	logger *slog.Logger
}

func (l cronLogger) Info(msg string, keysAndValues ...interface{}) {
	l.logger.Debug(msg, keysAndValues...)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	l.logger.Error(msg, append(keysAndValues, "error", err)...)
}
