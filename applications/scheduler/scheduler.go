// Package scheduler implements the Background Scheduler (C15): three
// recurring jobs driven by github.com/robfig/cron/v3, each submitted onto
// the shared task queue rather than run inline, and each coalesced so an
// overrunning prior firing can never double-run.
package scheduler

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/kunpeto/driver-management-system-sub001/domain/department"
	"github.com/kunpeto/driver-management-system-sub001/domain/reward"
	"github.com/kunpeto/driver-management-system-sub001/domain/scoring"
	"github.com/kunpeto/driver-management-system-sub001/domain/syncjob"
	"github.com/kunpeto/driver-management-system-sub001/infrastructure/coalesce"
	"github.com/kunpeto/driver-management-system-sub001/infrastructure/logging"
	"github.com/kunpeto/driver-management-system-sub001/infrastructure/taskqueue"
)

// Config controls the cron expressions driving each job (spec §4.15);
// every field defaults to the spec's stated schedule when empty.
type Config struct {
	ScheduleSyncCron  string // default "0 6 * * *"
	MonthlyRewardCron string // default "0 1 1 * *"
	YearlyCounterCron string // default "0 0 1 1 *"
	ScheduleSyncKind  syncjob.Kind
}

func (c Config) withDefaults() Config {
	if c.ScheduleSyncCron == "" {
		c.ScheduleSyncCron = "0 6 * * *"
	}
	if c.MonthlyRewardCron == "" {
		c.MonthlyRewardCron = "0 1 1 * *"
	}
	if c.YearlyCounterCron == "" {
		c.YearlyCounterCron = "0 0 1 1 *"
	}
	if c.ScheduleSyncKind == "" {
		c.ScheduleSyncKind = syncjob.KindDuty
	}
	return c
}

// Scheduler owns the cron runner and the engines it drives.
type Scheduler struct {
	cron      *cron.Cron
	cfg       Config
	pool      *taskqueue.Pool
	sync      *syncjob.Orchestrator
	reward    *reward.Engine
	scoring   *scoring.Engine
	coalescer *coalesce.Group
	logger    *logging.Logger
	nowFunc   func() time.Time
}

// New builds a Scheduler. Jobs are registered but not started until Start.
func New(cfg Config, pool *taskqueue.Pool, sync *syncjob.Orchestrator, rewardEngine *reward.Engine, scoringEngine *scoring.Engine, logger *logging.Logger) *Scheduler {
	return &Scheduler{
		cron:      cron.New(),
		cfg:       cfg.withDefaults(),
		pool:      pool,
		sync:      sync,
		reward:    rewardEngine,
		scoring:   scoringEngine,
		coalescer: coalesce.New(),
		logger:    logger,
		nowFunc:   time.Now,
	}
}

// Start registers the three jobs and launches the cron runner. Returns an
// error only if a cron expression fails to parse.
func (s *Scheduler) Start() error {
	if _, err := s.cron.AddFunc(s.cfg.ScheduleSyncCron, s.runScheduleSync); err != nil {
		return fmt.Errorf("scheduler: invalid schedule-sync cron %q: %w", s.cfg.ScheduleSyncCron, err)
	}
	if _, err := s.cron.AddFunc(s.cfg.MonthlyRewardCron, s.runMonthlyReward); err != nil {
		return fmt.Errorf("scheduler: invalid monthly-reward cron %q: %w", s.cfg.MonthlyRewardCron, err)
	}
	if _, err := s.cron.AddFunc(s.cfg.YearlyCounterCron, s.runYearlyCounterClose); err != nil {
		return fmt.Errorf("scheduler: invalid yearly-counter cron %q: %w", s.cfg.YearlyCounterCron, err)
	}
	s.cron.Start()
	return nil
}

// Stop halts the cron runner, waiting for any in-progress firing to return.
func (s *Scheduler) Stop() {
	<-s.cron.Stop().Done()
}

// runScheduleSync fires one StartSync per department for the current
// Gregorian (year, month); the Orchestrator's own coalescing key already
// prevents overlap with a still-running prior firing (spec §4.6).
func (s *Scheduler) runScheduleSync() {
	now := s.nowFunc().UTC()
	for _, dept := range department.All() {
		if _, err := s.sync.StartSync(context.Background(), s.cfg.ScheduleSyncKind, dept, now.Year(), now.Month(), "scheduler"); err != nil {
			s.logger.WithField("department", dept).WithField("job", "schedule_sync").Warn("schedule sync already in flight, skipping")
		}
	}
}

// runMonthlyReward derives the prior month's reward for every department,
// coalesced per (department, year, month) so an overrunning run from a
// missed prior firing can't double-derive (spec §4.15).
func (s *Scheduler) runMonthlyReward() {
	now := s.nowFunc().UTC()
	priorYear, priorMonth := priorMonth(now)
	for _, dept := range department.All() {
		key := fmt.Sprintf("monthly_reward|%s|%d|%02d", dept, priorYear, int(priorMonth))
		dept := dept
		_, _, _ = s.coalescer.Do(key, func() (any, error) {
			_, err := s.reward.Process(context.Background(), dept, priorYear, priorMonth)
			if err != nil {
				s.logger.WithField("department", dept).WithField("job", "monthly_reward").WithError(err).Error("monthly reward derivation failed")
			}
			return nil, err
		})
	}
}

// runYearlyCounterClose archives the prior calendar year's assessment
// counters (spec §4.9 "Year reset"); this operation is not
// department-scoped, so it runs once per firing.
func (s *Scheduler) runYearlyCounterClose() {
	now := s.nowFunc().UTC()
	priorYear := now.Year() - 1
	key := fmt.Sprintf("yearly_counter_close|%d", priorYear)
	_, _, _ = s.coalescer.Do(key, func() (any, error) {
		err := s.scoring.CloseYear(context.Background(), priorYear)
		if err != nil {
			s.logger.WithField("job", "yearly_counter_close").WithError(err).Error("yearly counter close failed")
		}
		return nil, err
	})
}

func priorMonth(now time.Time) (int, time.Month) {
	firstOfMonth := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC)
	last := firstOfMonth.AddDate(0, 0, -1)
	return last.Year(), last.Month()
}
