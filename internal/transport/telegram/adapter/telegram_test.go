package adapter

import (
	"strings"
	"testing"

	logx "github.com/organicjin/reminder-bot/pkg/logx"
)

func TestNewRejectsEmptyToken(t *testing.T) {
	t.Parallel()
	if _, err := New(Config{Token: "  "}, logx.Nop()); err == nil {
		t.Fatal("expected error for missing token")
	}
}

func TestSplitTelegramTextShort(t *testing.T) {
	t.Parallel()
	got := splitTelegramText("hello", 10)
	if len(got) != 1 || got[0] != "hello" {
		t.Fatalf("short text must stay whole: %v", got)
	}
}

func TestSplitTelegramTextPrefersNewlines(t *testing.T) {
	t.Parallel()
	text := strings.Repeat("aaaa aaaa\n", 20) // 200 runes
	got := splitTelegramText(text, 50)
	if len(got) < 4 {
		t.Fatalf("expected multiple chunks, got %d", len(got))
	}
	for i, c := range got {
		if len([]rune(c)) > 50 {
			t.Fatalf("chunk %d exceeds limit: %d runes", i, len([]rune(c)))
		}
		if strings.HasSuffix(c, "\n") {
			t.Fatalf("chunk %d should not keep a trailing newline", i)
		}
		if !strings.HasSuffix(c, "aaaa") {
			t.Fatalf("chunk %d should break on a line boundary: %q", i, c)
		}
	}
	if strings.Count(strings.Join(got, " "), "aaaa") != strings.Count(text, "aaaa") {
		t.Fatal("splitting must not lose content")
	}
}

func TestSplitTelegramTextHardBreak(t *testing.T) {
	t.Parallel()
	text := strings.Repeat("x", 95)
	got := splitTelegramText(text, 40)
	if len(got) != 3 {
		t.Fatalf("expected 3 chunks for 95 runes at limit 40, got %d", len(got))
	}
	if total := len(got[0]) + len(got[1]) + len(got[2]); total != 95 {
		t.Fatalf("hard break must preserve every rune, got %d", total)
	}
}
