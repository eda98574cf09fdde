package scheduler

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	rtsup "github.com/organicjin/reminder-bot/internal/runtime/supervisor"
	"github.com/organicjin/reminder-bot/internal/schedule"
	logx "github.com/organicjin/reminder-bot/pkg/logx"
)

type recordingSink struct {
	mu    sync.Mutex
	fires []string
}

func (r *recordingSink) JobFired(jobID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.fires = append(r.fires, jobID)
}
func (r *recordingSink) SendCompleted(outcome string, d time.Duration) {}
func (r *recordingSink) EmptyDispatch()                                {}
func (r *recordingSink) Subscribers(n int)                             {}

func (r *recordingSink) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.fires)
}

func oneJobTable(rule schedule.Rule) schedule.Table {
	return schedule.Table{
		Location: time.UTC,
		Jobs:     []schedule.Job{{ID: "test", Rule: rule, Message: "hi"}},
	}
}

func TestFireOnceContainsErrors(t *testing.T) {
	t.Parallel()
	sink := &recordingSink{}
	e := New(oneJobTable(schedule.Rule{Days: schedule.EveryDay}), func(ctx context.Context, job schedule.Job) error {
		return errors.New("send path down")
	}, logx.Nop(), sink)

	// Must not panic and must still count the firing.
	e.fireOnce(context.Background(), e.table.Jobs[0], logx.Nop())
	if sink.count() != 1 {
		t.Fatalf("firing should be counted even when the action fails; got %d", sink.count())
	}
}

func TestFireOnceContainsPanics(t *testing.T) {
	t.Parallel()
	e := New(oneJobTable(schedule.Rule{Days: schedule.EveryDay}), func(ctx context.Context, job schedule.Job) error {
		panic("boom")
	}, logx.Nop(), nil)

	e.fireOnce(context.Background(), e.table.Jobs[0], logx.Nop())
	// Reaching here means the panic was contained.
}

func TestRunLoopFiresAndRecomputes(t *testing.T) {
	t.Parallel()
	// Freeze "now" 50ms before the slot: every recompute then yields a
	// near-future occurrence, so the loop fires repeatedly and fast.
	base := time.Date(2026, 8, 28, 9, 29, 59, 950_000_000, time.UTC)

	var mu sync.Mutex
	fired := 0

	sink := &recordingSink{}
	e := New(oneJobTable(schedule.Rule{Days: schedule.EveryDay, Hour: 9, Minute: 30}), func(ctx context.Context, job schedule.Job) error {
		mu.Lock()
		fired++
		mu.Unlock()
		return nil
	}, logx.Nop(), sink)
	e.now = func() time.Time { return base }

	ctx, cancel := context.WithCancel(context.Background())
	sup := rtsup.NewSupervisor(ctx, rtsup.WithLogger(logx.Nop()))
	e.Start(sup)

	deadline := time.After(2 * time.Second)
	for {
		mu.Lock()
		n := fired
		mu.Unlock()
		if n >= 2 {
			break
		}
		select {
		case <-deadline:
			t.Fatalf("expected at least 2 firings, got %d", n)
		case <-time.After(10 * time.Millisecond):
		}
	}

	cancel()
	waitCtx, waitCancel := context.WithTimeout(context.Background(), time.Second)
	defer waitCancel()
	if err := sup.Wait(waitCtx); err != nil {
		t.Fatalf("loops did not stop: %v", err)
	}
	if sink.count() < 2 {
		t.Fatalf("sink should have counted the firings, got %d", sink.count())
	}
}

func TestRunLoopExitsOnEmptyRule(t *testing.T) {
	t.Parallel()
	e := New(oneJobTable(schedule.Rule{}), func(ctx context.Context, job schedule.Job) error {
		t.Error("a rule with no allowed days must never fire")
		return nil
	}, logx.Nop(), nil)

	done := make(chan struct{})
	go func() {
		defer close(done)
		e.runLoop(context.Background(), e.table.Jobs[0])
	}()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("loop should return immediately for an empty rule")
	}
}
