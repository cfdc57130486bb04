// Package scheduler runs periodic maintenance jobs.
package scheduler

import (
	"context"
	"fmt"
	"time"

	"github.com/go-co-op/gocron"

	"github.com/mathmaster/mathmaster/internal/logger"
	"github.com/mathmaster/mathmaster/internal/metrics"
)

// Job names as reported in logs and metrics.
const (
	JobExpireGoals  = "expire_goals"
	JobCloseSession = "close_idle_sessions"
)

// Maintenance is the storage the jobs act on.
type Maintenance interface {
	ExpireGoals(ctx context.Context, now time.Time) (int, error)
	CloseIdleSessions(ctx context.Context, before, now time.Time) (int, error)
}

type Config struct {
	GoalsEvery    time.Duration
	SessionsEvery time.Duration

	// IdleTimeout is how long a session may go without activity.
	IdleTimeout time.Duration
}

func DefaultConfig() Config {
	return Config{
		GoalsEvery:    time.Hour,
		SessionsEvery: 15 * time.Minute,
		IdleTimeout:   2 * time.Hour,
	}
}

// Scheduler manages the maintenance jobs.
type Scheduler struct {
	cron    *gocron.Scheduler
	repo    Maintenance
	cfg     Config
	metrics *metrics.Metrics
	log     *logger.Logger
	now     func() time.Time
}

func New(repo Maintenance, cfg Config, m *metrics.Metrics, log *logger.Logger) *Scheduler {
	if log == nil {
		log = logger.Nop()
	}
	return &Scheduler{
		cron:    gocron.NewScheduler(time.UTC),
		repo:    repo,
		cfg:     cfg,
		metrics: m,
		log:     log,
		now:     time.Now,
	}
}

// Start registers the jobs and runs them in the background. Each job also
// runs once right away.
func (s *Scheduler) Start() error {
	if _, err := s.cron.Every(s.cfg.GoalsEvery).Do(s.run, JobExpireGoals, s.ExpireGoals); err != nil {
		return fmt.Errorf("schedule %s: %w", JobExpireGoals, err)
	}
	if _, err := s.cron.Every(s.cfg.SessionsEvery).Do(s.run, JobCloseSession, s.CloseIdleSessions); err != nil {
		return fmt.Errorf("schedule %s: %w", JobCloseSession, err)
	}
	s.cron.StartAsync()
	return nil
}

// Stop terminates all scheduled jobs.
func (s *Scheduler) Stop() {
	s.cron.Stop()
}

func (s *Scheduler) run(name string, job func(context.Context) (int, error)) {
	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	start := time.Now()
	n, err := job(ctx)
	s.metrics.JobRun(name, err)
	if err != nil {
		s.log.Error("maintenance job failed", "job", name, "error", err)
		return
	}
	s.log.Debug("maintenance job done", "job", name, "affected", n, "duration", time.Since(start))
}

// ExpireGoals marks active student goals whose goal has ended.
func (s *Scheduler) ExpireGoals(ctx context.Context) (int, error) {
	n, err := s.repo.ExpireGoals(ctx, s.now())
	if err != nil {
		return 0, fmt.Errorf("expire goals: %w", err)
	}
	if n > 0 {
		s.log.Info("expired student goals", "count", n)
	}
	return n, nil
}

// CloseIdleSessions ends sessions idle for longer than the configured
// timeout.
func (s *Scheduler) CloseIdleSessions(ctx context.Context) (int, error) {
	now := s.now()
	n, err := s.repo.CloseIdleSessions(ctx, now.Add(-s.cfg.IdleTimeout), now)
	if err != nil {
		return 0, fmt.Errorf("close idle sessions: %w", err)
	}
	if n > 0 {
		s.metrics.SessionsExpired(n)
		s.log.Info("closed idle sessions", "count", n)
	}
	return n, nil
}
