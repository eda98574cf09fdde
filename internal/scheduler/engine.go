package scheduler

import (
	"context"
	"runtime/debug"
	"time"

	"github.com/organicjin/reminder-bot/internal/metrics"
	rtsup "github.com/organicjin/reminder-bot/internal/runtime/supervisor"
	"github.com/organicjin/reminder-bot/internal/schedule"
	logx "github.com/organicjin/reminder-bot/pkg/logx"
)

// FireFunc runs a job's action at its fire instant. Errors are logged and
// never stop the job's future firings.
type FireFunc func(ctx context.Context, job schedule.Job) error

// Engine keeps one timer loop per scheduled job.
//
// Each loop computes "next matching instant after now" against the wall
// clock, sleeps, fires, and recomputes. Anchoring to the wall clock (not
// "previous fire + interval") is what makes weekday gaps work: a mon-fri
// rule computed on friday lands on monday without multi-day drift.
//
// Firings of the same job are strictly sequential: the next occurrence is
// only computed after the current invocation returns. Distinct jobs run on
// independent goroutines and never block each other.
type Engine struct {
	table schedule.Table
	fire  FireFunc
	log   logx.Logger
	sink  metrics.Sink

	// now is the clock; replaced in tests.
	now func() time.Time
}

func New(table schedule.Table, fire FireFunc, log logx.Logger, sink metrics.Sink) *Engine {
	if log.IsZero() {
		log = logx.Nop()
	}
	if sink == nil {
		sink = metrics.NewNoopSink()
	}
	return &Engine{
		table: table,
		fire:  fire,
		log:   log,
		sink:  sink,
		now:   time.Now,
	}
}

// Start launches one supervised loop per job. The caller must only start
// the engine once the send capability is live; missed fire instants while
// the process was down are simply skipped.
func (e *Engine) Start(sup *rtsup.Supervisor) {
	for _, job := range e.table.Jobs {
		job := job
		sup.Go0("job."+job.ID, func(ctx context.Context) {
			e.runLoop(ctx, job)
		})
	}
	e.log.Info("scheduler started",
		logx.Int("jobs", len(e.table.Jobs)),
		logx.String("tz", e.table.Location.String()),
	)
}

func (e *Engine) runLoop(ctx context.Context, job schedule.Job) {
	log := e.log.With(logx.String("job", job.ID))
	for {
		now := e.now()
		next := job.Rule.Next(now, e.table.Location)
		if next.IsZero() {
			log.Error("rule has no next occurrence; job disabled", logx.String("rule", job.Rule.String()))
			return
		}
		log.Debug("next fire computed", logx.Time("at", next), logx.Duration("in", next.Sub(now)))

		timer := time.NewTimer(next.Sub(now))
		select {
		case <-ctx.Done():
			timer.Stop()
			return
		case <-timer.C:
		}

		e.fireOnce(ctx, job, log)
	}
}

// fireOnce invokes the job action exactly once, containing errors and
// panics so the loop always reaches the next recompute.
func (e *Engine) fireOnce(ctx context.Context, job schedule.Job, log logx.Logger) {
	defer func() {
		if r := recover(); r != nil {
			log.Error("job panicked", logx.Any("panic", r), logx.String("stack", string(debug.Stack())))
		}
	}()

	e.sink.JobFired(job.ID)
	start := e.now()
	if err := e.fire(ctx, job); err != nil {
		log.Error("job failed", logx.Err(err), logx.Duration("took", time.Since(start)))
		return
	}
	log.Info("job fired", logx.Duration("took", time.Since(start)))
}
