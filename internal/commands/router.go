package commands

import (
	"context"
	"fmt"
	"strings"

	"github.com/organicjin/reminder-bot/internal/config"
	"github.com/organicjin/reminder-bot/internal/registry"
	"github.com/organicjin/reminder-bot/internal/schedule"
	"github.com/organicjin/reminder-bot/internal/transport"
	logx "github.com/organicjin/reminder-bot/pkg/logx"
)

// Router consumes inbound updates and applies registry mutations.
//
// It is the only writer of the registry; the scheduler only reads
// snapshots, so the registry mutex is the sole shared-state guard needed.
type Router struct {
	sender transport.Sender
	reg    *registry.Registry
	table  schedule.Table
	log    logx.Logger

	mode      string
	recipient int64 // single mode only
}

func NewRouter(sender transport.Sender, reg *registry.Registry, table schedule.Table, mode string, recipient int64, log logx.Logger) *Router {
	if log.IsZero() {
		log = logx.Nop()
	}
	return &Router{
		sender:    sender,
		reg:       reg,
		table:     table,
		log:       log,
		mode:      mode,
		recipient: recipient,
	}
}

// DispatchLoop processes updates until ctx is canceled.
func (r *Router) DispatchLoop(ctx context.Context, updates <-chan transport.Update) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case up, ok := <-updates:
			if !ok {
				return nil
			}
			if up.Message == nil {
				continue
			}
			r.handle(ctx, up.Message)
		}
	}
}

func (r *Router) handle(ctx context.Context, m *transport.Message) {
	cmd := parseCommand(m.Text)
	if cmd == "" {
		return
	}
	log := r.log.With(logx.Int64("chat_id", m.ChatID), logx.String("cmd", cmd))

	var reply string
	switch cmd {
	case "start":
		reply = r.cmdStart(ctx, m.ChatID)
	case "stop":
		reply = r.cmdStop(ctx, m.ChatID)
	case "status":
		reply = r.cmdStatus(m.ChatID)
	default:
		log.Debug("unknown command ignored")
		return
	}

	if err := r.sender.SendText(ctx, m.ChatID, reply, nil); err != nil {
		log.Error("command reply failed", logx.Err(err))
		return
	}
	log.Debug("command handled")
}

// parseCommand extracts the command word from "/cmd" or "/cmd@botname".
func parseCommand(text string) string {
	text = strings.TrimSpace(text)
	if !strings.HasPrefix(text, "/") {
		return ""
	}
	word := strings.Fields(text)[0][1:]
	if at := strings.IndexByte(word, '@'); at >= 0 {
		word = word[:at]
	}
	return strings.ToLower(word)
}

func (r *Router) cmdStart(ctx context.Context, chatID int64) string {
	if r.mode == config.ModeSingle {
		// Single mode has no registry: the operator configures the one
		// recipient externally, so /start only reports the caller's ID.
		return fmt.Sprintf(
			"Your chat ID is %d.\n"+
				"Set recipient_id (or REMINDER_CHAT_ID) to this value and restart to receive reminders.",
			chatID)
	}

	if r.reg.Add(ctx, chatID) {
		return "✅ Reminders enabled!\n\n" +
			"⏰ Schedule:\n" + r.table.Summary() + "\n\n" +
			"Send /stop to turn them off."
	}
	if !r.reg.Contains(chatID) {
		// Add declined and the id is still absent: persistence failed.
		return "⚠️ Could not save your subscription, please try again later."
	}
	return "Reminders are already enabled 😊\nSend /stop to turn them off."
}

func (r *Router) cmdStop(ctx context.Context, chatID int64) string {
	if r.mode == config.ModeSingle {
		return "The recipient is statically configured; clear recipient_id and restart to stop reminders."
	}

	if r.reg.Remove(ctx, chatID) {
		return "🔕 Reminders disabled.\nSend /start to enable them again."
	}
	if r.reg.Contains(chatID) {
		return "⚠️ Could not save the change, please try again later."
	}
	return "No reminders are enabled for this chat.\nSend /start to enable them."
}

func (r *Router) cmdStatus(chatID int64) string {
	active := false
	if r.mode == config.ModeSingle {
		active = r.recipient != 0 && chatID == r.recipient
	} else {
		active = r.reg.Contains(chatID)
	}

	if active {
		return "🔔 Reminders active\n\n⏰ Schedule (" + r.table.Location.String() + "):\n" + r.table.Summary()
	}
	return "🔕 Reminders inactive\nSend /start to enable them."
}
