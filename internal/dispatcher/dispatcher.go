package dispatcher

import (
	"context"
	"time"

	"github.com/google/uuid"
	"golang.org/x/time/rate"

	"github.com/organicjin/reminder-bot/internal/metrics"
	"github.com/organicjin/reminder-bot/internal/transport"
	logx "github.com/organicjin/reminder-bot/pkg/logx"
)

// Config controls dispatch pacing.
type Config struct {
	// RatePerSec caps outbound sends (Telegram throttles bulk sends).
	RatePerSec int
}

// Dispatcher fans a message out to recipients with per-recipient failure
// isolation. Send errors never propagate past this type: they are logged
// with recipient context and counted, nothing else.
type Dispatcher struct {
	sender  transport.Sender
	log     logx.Logger
	limiter *rate.Limiter
	sink    metrics.Sink
}

func New(sender transport.Sender, cfg Config, log logx.Logger, sink metrics.Sink) *Dispatcher {
	if log.IsZero() {
		log = logx.Nop()
	}
	if sink == nil {
		sink = metrics.NewNoopSink()
	}
	rps := cfg.RatePerSec
	if rps <= 0 {
		rps = 20
	}
	return &Dispatcher{
		sender:  sender,
		log:     log,
		limiter: rate.NewLimiter(rate.Limit(rps), rps),
		sink:    sink,
	}
}

// Broadcast sends text to every recipient, one attempt each, continuing
// past failures. There is no retry: the next scheduled firing is the only
// future delivery opportunity. Returns delivered/failed counts.
func (d *Dispatcher) Broadcast(ctx context.Context, text string, recipients []int64) (sent, failed int) {
	if d.sender == nil {
		d.log.Warn("broadcast skipped: send capability not initialized")
		return 0, 0
	}
	if len(recipients) == 0 {
		d.log.Warn("broadcast skipped: no recipients")
		d.sink.EmptyDispatch()
		return 0, 0
	}

	batch := uuid.NewString()
	log := d.log.With(logx.String("batch", batch))
	log.Debug("broadcast started", logx.Int("recipients", len(recipients)))

	for _, id := range recipients {
		if err := d.limiter.Wait(ctx); err != nil {
			log.Warn("broadcast aborted", logx.Err(err), logx.Int("remaining", len(recipients)-sent-failed))
			return sent, failed
		}

		start := time.Now()
		err := d.sender.SendText(ctx, id, text, nil)
		took := time.Since(start)
		if err != nil {
			failed++
			d.sink.SendCompleted(metrics.OutcomeFailed, took)
			log.Error("send failed", logx.Int64("chat_id", id), logx.Err(err))
			continue
		}
		sent++
		d.sink.SendCompleted(metrics.OutcomeSuccess, took)
		log.Debug("send ok", logx.Int64("chat_id", id), logx.Duration("took", took))
	}

	log.Info("broadcast finished", logx.Int("sent", sent), logx.Int("failed", failed))
	return sent, failed
}

// Unicast is the single-recipient form used by single mode.
// An unset recipient (0) is a warn-level no-op.
func (d *Dispatcher) Unicast(ctx context.Context, text string, recipient int64) bool {
	if recipient == 0 {
		d.log.Warn("unicast skipped: recipient not configured")
		d.sink.EmptyDispatch()
		return false
	}
	sent, _ := d.Broadcast(ctx, text, []int64{recipient})
	return sent == 1
}
