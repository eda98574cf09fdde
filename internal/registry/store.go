package registry

import (
	"context"
	"errors"
	"strings"

	"github.com/organicjin/reminder-bot/internal/config"
	logx "github.com/organicjin/reminder-bot/pkg/logx"
)

// Store persists the full subscriber set. Save always receives the complete
// sorted snapshot; implementations must replace, not append.
type Store interface {
	Load(ctx context.Context) ([]int64, error)
	Save(ctx context.Context, ids []int64) error
	Close() error
}

// Open initializes the configured store. An empty driver means "file".
func Open(cfg config.RegistryConfig, log logx.Logger) (Store, error) {
	if log.IsZero() {
		log = logx.Nop()
	}
	driver := strings.ToLower(strings.TrimSpace(cfg.Driver))
	switch driver {
	case "", "file":
		return openFile(cfg, log)
	case "sqlite", "sqlite3":
		return openSQLite(cfg, log)
	case "redis":
		return openRedis(cfg, log)
	default:
		return nil, errors.New("unknown registry driver: " + driver)
	}
}
