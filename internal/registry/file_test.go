package registry

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/organicjin/reminder-bot/internal/config"
	logx "github.com/organicjin/reminder-bot/pkg/logx"
)

func newFileStore(t *testing.T) (Store, string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "chat_ids.json")
	st, err := openFile(config.RegistryConfig{Path: path}, logx.Nop())
	if err != nil {
		t.Fatalf("openFile: %v", err)
	}
	return st, path
}

func TestFileStoreRoundTrip(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	st, path := newFileStore(t)

	if err := st.Save(ctx, []int64{-100200, 42, 7}); err != nil {
		t.Fatalf("Save: %v", err)
	}
	got, err := st.Load(ctx)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(got) != 3 {
		t.Fatalf("Load = %v", got)
	}

	b, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read file: %v", err)
	}
	if string(b) != "[-100200,42,7]" {
		t.Fatalf("on-disk form = %s", b)
	}
}

func TestFileStoreMissingFileIsEmpty(t *testing.T) {
	t.Parallel()
	st, _ := newFileStore(t)
	got, err := st.Load(context.Background())
	if err != nil {
		t.Fatalf("Load on missing file: %v", err)
	}
	if len(got) != 0 {
		t.Fatalf("expected empty set, got %v", got)
	}
}

func TestFileStoreCorruptFileIsEmpty(t *testing.T) {
	t.Parallel()
	st, path := newFileStore(t)
	if err := os.WriteFile(path, []byte("{not json"), 0o600); err != nil {
		t.Fatalf("seed corrupt file: %v", err)
	}
	got, err := st.Load(context.Background())
	if err != nil {
		t.Fatalf("Load on corrupt file: %v", err)
	}
	if len(got) != 0 {
		t.Fatalf("expected empty set, got %v", got)
	}
}

func TestFileStoreSaveEmptyWritesArray(t *testing.T) {
	t.Parallel()
	st, path := newFileStore(t)
	if err := st.Save(context.Background(), nil); err != nil {
		t.Fatalf("Save: %v", err)
	}
	b, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read file: %v", err)
	}
	if string(b) != "[]" {
		t.Fatalf("empty set should serialize as [], got %s", b)
	}
}

func TestFileStoreLeavesNoTempFile(t *testing.T) {
	t.Parallel()
	st, path := newFileStore(t)
	if err := st.Save(context.Background(), []int64{1}); err != nil {
		t.Fatalf("Save: %v", err)
	}
	if _, err := os.Stat(path + ".tmp"); !os.IsNotExist(err) {
		t.Fatalf("temp file left behind: %v", err)
	}
}
