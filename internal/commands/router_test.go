package commands

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"

	"github.com/organicjin/reminder-bot/internal/config"
	"github.com/organicjin/reminder-bot/internal/registry"
	"github.com/organicjin/reminder-bot/internal/schedule"
	"github.com/organicjin/reminder-bot/internal/transport"
	logx "github.com/organicjin/reminder-bot/pkg/logx"
)

type memStore struct {
	mu      sync.Mutex
	data    []int64
	saveErr error
}

func (m *memStore) Load(ctx context.Context) ([]int64, error) { return m.data, nil }
func (m *memStore) Save(ctx context.Context, ids []int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.saveErr != nil {
		return m.saveErr
	}
	m.data = append([]int64(nil), ids...)
	return nil
}
func (m *memStore) Close() error { return nil }

type replySink struct {
	mu      sync.Mutex
	replies []string
}

func (r *replySink) SendText(ctx context.Context, chatID int64, text string, opt *transport.SendOptions) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.replies = append(r.replies, text)
	return nil
}

func (r *replySink) last(t *testing.T) string {
	t.Helper()
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.replies) == 0 {
		t.Fatal("expected a reply")
	}
	return r.replies[len(r.replies)-1]
}

func (r *replySink) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.replies)
}

func newTestRouter(mode string, recipient int64) (*Router, *registry.Registry, *replySink) {
	reg := registry.New(&memStore{}, logx.Nop())
	sink := &replySink{}
	r := NewRouter(sink, reg, schedule.Default(), mode, recipient, logx.Nop())
	return r, reg, sink
}

func msg(chatID int64, text string) *transport.Message {
	return &transport.Message{ChatID: chatID, Text: text}
}

func TestParseCommand(t *testing.T) {
	t.Parallel()
	tests := []struct {
		text string
		want string
	}{
		{"/start", "start"},
		{"/start@reminder_bot", "start"},
		{"/STATUS", "status"},
		{"  /stop  ", "stop"},
		{"hello", ""},
		{"", ""},
		{"start", ""},
	}
	for _, tt := range tests {
		if got := parseCommand(tt.text); got != tt.want {
			t.Fatalf("parseCommand(%q) = %q, want %q", tt.text, got, tt.want)
		}
	}
}

func TestStartSubscribes(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	r, reg, sink := newTestRouter(config.ModeMulti, 0)

	r.handle(ctx, msg(10, "/start"))
	if !reg.Contains(10) {
		t.Fatal("chat should be registered after /start")
	}
	if !strings.Contains(sink.last(t), "enabled") {
		t.Fatalf("reply should confirm enablement: %q", sink.last(t))
	}

	// Repeat /start still replies, but does not change the set.
	r.handle(ctx, msg(10, "/start"))
	if sink.count() != 2 {
		t.Fatalf("every command must get a reply; got %d", sink.count())
	}
	if !strings.Contains(sink.last(t), "already") {
		t.Fatalf("repeat /start should say already enabled: %q", sink.last(t))
	}
}

func TestStopUnsubscribes(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	r, reg, sink := newTestRouter(config.ModeMulti, 0)

	reg.Add(ctx, 10)
	r.handle(ctx, msg(10, "/stop"))
	if reg.Contains(10) {
		t.Fatal("chat should be unregistered after /stop")
	}
	if !strings.Contains(sink.last(t), "disabled") {
		t.Fatalf("reply should confirm: %q", sink.last(t))
	}

	r.handle(ctx, msg(99, "/stop"))
	if !strings.Contains(sink.last(t), "No reminders") {
		t.Fatalf("stop for an unregistered chat should still reply: %q", sink.last(t))
	}
}

func TestStatus(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	r, reg, sink := newTestRouter(config.ModeMulti, 0)

	r.handle(ctx, msg(10, "/status"))
	if !strings.Contains(sink.last(t), "inactive") {
		t.Fatalf("unregistered chat should see inactive: %q", sink.last(t))
	}

	reg.Add(ctx, 10)
	r.handle(ctx, msg(10, "/status"))
	got := sink.last(t)
	if !strings.Contains(got, "active") || !strings.Contains(got, "09:30") {
		t.Fatalf("registered chat should see the schedule: %q", got)
	}
}

func TestSingleModeCommands(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	r, reg, sink := newTestRouter(config.ModeSingle, 42)

	r.handle(ctx, msg(42, "/start"))
	if reg.Len() != 0 {
		t.Fatal("single mode must never write the registry")
	}
	if !strings.Contains(sink.last(t), "42") {
		t.Fatalf("single-mode /start should report the chat ID: %q", sink.last(t))
	}

	r.handle(ctx, msg(42, "/status"))
	if !strings.Contains(sink.last(t), "🔔") {
		t.Fatalf("configured recipient should be active: %q", sink.last(t))
	}

	r.handle(ctx, msg(7, "/status"))
	if !strings.Contains(sink.last(t), "inactive") {
		t.Fatalf("other chats should be inactive: %q", sink.last(t))
	}
}

func TestStartReportsPersistFailure(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	reg := registry.New(&memStore{saveErr: errors.New("disk full")}, logx.Nop())
	sink := &replySink{}
	r := NewRouter(sink, reg, schedule.Default(), config.ModeMulti, 0, logx.Nop())

	r.handle(ctx, msg(10, "/start"))
	if reg.Contains(10) {
		t.Fatal("failed persist must not register the chat")
	}
	if !strings.Contains(sink.last(t), "try again") {
		t.Fatalf("reply should surface the failure: %q", sink.last(t))
	}
}

func TestUnknownCommandIgnored(t *testing.T) {
	t.Parallel()
	r, _, sink := newTestRouter(config.ModeMulti, 0)
	r.handle(context.Background(), msg(10, "/weather"))
	r.handle(context.Background(), msg(10, "just chatting"))
	if sink.count() != 0 {
		t.Fatalf("unknown input must not be replied to; got %d replies", sink.count())
	}
}

func TestDispatchLoopStopsOnClose(t *testing.T) {
	t.Parallel()
	r, reg, _ := newTestRouter(config.ModeMulti, 0)

	updates := make(chan transport.Update, 4)
	updates <- transport.Update{Message: msg(10, "/start")}
	updates <- transport.Update{} // nil message, ignored
	close(updates)

	if err := r.DispatchLoop(context.Background(), updates); err != nil {
		t.Fatalf("DispatchLoop on closed channel: %v", err)
	}
	if !reg.Contains(10) {
		t.Fatal("queued command should have been handled before exit")
	}
}
