package logx

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/rs/zerolog"
)

func TestParseLevel(t *testing.T) {
	t.Parallel()
	tests := []struct {
		raw  string
		want zerolog.Level
	}{
		{"DEBUG", zerolog.DebugLevel},
		{"info", zerolog.InfoLevel},
		{" Warn ", zerolog.WarnLevel},
		{"WARNING", zerolog.WarnLevel},
		{"error", zerolog.ErrorLevel},
		{"", zerolog.InfoLevel},
		{"verbose", zerolog.InfoLevel},
	}
	for _, tt := range tests {
		if got := parseLevel(tt.raw, zerolog.InfoLevel); got != tt.want {
			t.Fatalf("parseLevel(%q) = %v, want %v", tt.raw, got, tt.want)
		}
	}
}

func TestNopAndZeroLoggerAreSafe(t *testing.T) {
	t.Parallel()
	var zero Logger
	if !zero.IsZero() {
		t.Fatal("zero value should report IsZero")
	}
	zero.Info("ignored", String("k", "v"))

	n := Nop()
	if n.IsZero() {
		t.Fatal("Nop logger is initialized, not zero")
	}
	n.Error("ignored", Err(nil))
}

func TestWithDerivesWithoutMutatingParent(t *testing.T) {
	t.Parallel()
	parent := Nop()
	child := parent.With(String("comp", "a"))
	if len(parent.fields) != 0 {
		t.Fatal("With must not mutate the parent")
	}
	if len(child.fields) != 1 {
		t.Fatalf("child should carry 1 fixed field, got %d", len(child.fields))
	}
	grand := child.With(Int("n", 1), Bool("ok", true))
	if len(grand.fields) != 3 {
		t.Fatalf("fields should accumulate, got %d", len(grand.fields))
	}
}

func TestServiceFileSink(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bot.log")
	svc, log := New(Config{
		Level: "INFO",
		File:  FileConfig{Enabled: true, Path: path},
	})
	defer svc.Close()

	log.Info("hello", String("comp", "test"))
	log.Debug("filtered out")

	b, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read log file: %v", err)
	}
	lines := strings.Split(strings.TrimSpace(string(b)), "\n")
	if len(lines) != 1 {
		t.Fatalf("expected 1 line (debug filtered), got %d:\n%s", len(lines), b)
	}

	var rec map[string]any
	if err := json.Unmarshal([]byte(lines[0]), &rec); err != nil {
		t.Fatalf("file sink should emit JSON: %v", err)
	}
	if rec["message"] != "hello" || rec["comp"] != "test" {
		t.Fatalf("unexpected record: %v", rec)
	}
}

func TestServiceApplyChangesLevel(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bot.log")
	svc, log := New(Config{Level: "ERROR", File: FileConfig{Enabled: true, Path: path}})
	defer svc.Close()

	log.Info("dropped at error level")
	svc.Apply(Config{Level: "DEBUG", File: FileConfig{Enabled: true, Path: path}})
	log.Info("visible after apply")

	b, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read log file: %v", err)
	}
	out := string(b)
	if strings.Contains(out, "dropped at error level") {
		t.Fatal("info record should have been filtered before Apply")
	}
	if !strings.Contains(out, "visible after apply") {
		t.Fatal("info record should pass after Apply lowered the level")
	}
}
