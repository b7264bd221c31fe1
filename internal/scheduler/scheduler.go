package scheduler

import (
	"context"
	"fmt"
	"strings"
	"time"

	"stockAgent/business/decision"
	"stockAgent/domain"
	"stockAgent/pkg/logger"

	"github.com/robfig/cron/v3"
)

const DefaultSchedule = "@every 5m"

type CycleRunner interface {
	RunCycle(ctx context.Context, trigger domain.Trigger, payload map[string]any) (decision.CycleResult, error)
}

// Scheduler fires a CRON decision cycle on a fixed schedule. A tick that is
// still running when the next one is due causes that next tick to be skipped.
type Scheduler struct {
	cron    *cron.Cron
	runner  CycleRunner
	timeout time.Duration
}

// New parses schedule as a 5-field cron expression or a descriptor such as
// "@every 5m" or "@hourly". An empty schedule falls back to DefaultSchedule.
func New(runner CycleRunner, schedule string, timeout time.Duration) (*Scheduler, error) {
	schedule = strings.TrimSpace(schedule)
	if schedule == "" {
		schedule = DefaultSchedule
	}

	parser := cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor)
	cl := cronLogger{}
	s := &Scheduler{
		cron: cron.New(
			cron.WithParser(parser),
			cron.WithLogger(cl),
			cron.WithChain(cron.Recover(cl), cron.SkipIfStillRunning(cl)),
		),
		runner:  runner,
		timeout: timeout,
	}

	if _, err := s.cron.AddFunc(schedule, s.Tick); err != nil {
		return nil, fmt.Errorf("invalid schedule %q: %w", schedule, err)
	}

	logger.Info("scheduler_configured", "schedule", schedule)
	return s, nil
}

func (s *Scheduler) Start() {
	s.cron.Start()
}

// Stop prevents new ticks and returns a context that is done once the
// running tick, if any, has finished.
func (s *Scheduler) Stop() context.Context {
	return s.cron.Stop()
}

// Tick runs one CRON cycle.
func (s *Scheduler) Tick() {
	ctx := context.Background()
	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}

	logger.Info("cron_tick", "at", time.Now().UTC().Format(time.RFC3339))

	res, err := s.runner.RunCycle(ctx, domain.TriggerCron, map[string]any{})
	if err != nil {
		logger.Error("cron_cycle_failed", "trace_id", res.TraceID, "error", err)
		return
	}
	logger.Debug("cron_cycle_done", "trace_id", res.TraceID, "decisions", len(res.Decisions))
}

// cronLogger routes cron's own logging through the process logger.
type cronLogger struct{}

func (cronLogger) Info(msg string, keysAndValues ...interface{}) {
	logger.Debug("cron_"+strings.ReplaceAll(msg, " ", "_"), keysAndValues...)
}

func (cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	logger.Error("cron_"+strings.ReplaceAll(msg, " ", "_"), append([]interface{}{"error", err}, keysAndValues...)...)
}
