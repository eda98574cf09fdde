package registry

import (
	"context"
	"encoding/json"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/organicjin/reminder-bot/internal/config"
	logx "github.com/organicjin/reminder-bot/pkg/logx"
)

const defaultFilePath = "./chat_ids.json"

// fileStore persists the set as a sorted JSON array of chat IDs.
//
// Save is atomic at the file level: write to a temp file in the same
// directory, then rename over the target. A reader only ever sees the old
// complete content or the new complete content.
type fileStore struct {
	mu   sync.Mutex
	path string
	log  logx.Logger
}

func openFile(cfg config.RegistryConfig, log logx.Logger) (Store, error) {
	path := strings.TrimSpace(cfg.Path)
	if path == "" {
		path = defaultFilePath
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, err
	}
	return &fileStore{path: path, log: log}, nil
}

// Load reads the persisted set. A missing or malformed file is an empty
// set, not an error: the bot must start regardless.
func (s *fileStore) Load(ctx context.Context) ([]int64, error) {
	_ = ctx
	s.mu.Lock()
	defer s.mu.Unlock()

	b, err := os.ReadFile(s.path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, err
	}
	var ids []int64
	if err := json.Unmarshal(b, &ids); err != nil {
		s.log.Warn("registry file malformed; treating as empty", logx.String("path", s.path), logx.Err(err))
		return nil, nil
	}
	return ids, nil
}

func (s *fileStore) Save(ctx context.Context, ids []int64) error {
	_ = ctx
	s.mu.Lock()
	defer s.mu.Unlock()

	if ids == nil {
		ids = []int64{}
	}
	b, err := json.Marshal(ids)
	if err != nil {
		return err
	}

	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, b, 0o600); err != nil {
		return err
	}
	return os.Rename(tmp, s.path)
}

func (s *fileStore) Close() error { return nil }
