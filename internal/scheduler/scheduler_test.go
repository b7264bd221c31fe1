package scheduler

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"stockAgent/business/decision"
	"stockAgent/domain"
)

type countingRunner struct {
	mu       sync.Mutex
	triggers []domain.Trigger
	deadline bool
	err      error
}

func (r *countingRunner) RunCycle(ctx context.Context, trigger domain.Trigger, payload map[string]any) (decision.CycleResult, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.triggers = append(r.triggers, trigger)
	_, r.deadline = ctx.Deadline()
	return decision.CycleResult{TraceID: "t", Trigger: trigger}, r.err
}

func TestNewRejectsBadSchedule(t *testing.T) {
	if _, err := New(&countingRunner{}, "every five minutes", time.Minute); err == nil {
		t.Fatalf("want error for invalid schedule")
	}
}

func TestNewAcceptsDescriptorsAndCron(t *testing.T) {
	for _, schedule := range []string{"", "@every 5m", "@hourly", "*/5 * * * *"} {
		if _, err := New(&countingRunner{}, schedule, time.Minute); err != nil {
			t.Fatalf("%q: %v", schedule, err)
		}
	}
}

func TestTickRunsCronCycle(t *testing.T) {
	r := &countingRunner{}
	s, err := New(r, "@every 5m", time.Minute)
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	s.Tick()

	if len(r.triggers) != 1 || r.triggers[0] != domain.TriggerCron {
		t.Fatalf("want one CRON cycle, got=%v", r.triggers)
	}
	if !r.deadline {
		t.Fatalf("tick context must carry the timeout")
	}
}

func TestTickSurvivesCycleError(t *testing.T) {
	r := &countingRunner{err: errors.New("store unreachable")}
	s, err := New(r, "@every 5m", 0)
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	s.Tick()
	s.Tick()

	if len(r.triggers) != 2 {
		t.Fatalf("want 2 cycles, got=%d", len(r.triggers))
	}
	if r.deadline {
		t.Fatalf("zero timeout must not set a deadline")
	}
}

func TestStartStop(t *testing.T) {
	s, err := New(&countingRunner{}, "@every 1h", time.Minute)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	s.Start()

	select {
	case <-s.Stop().Done():
	case <-time.After(time.Second):
		t.Fatalf("stop did not complete")
	}
}
