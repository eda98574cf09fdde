package registry

import (
	"context"
	"errors"
	"strconv"
	"strings"

	"github.com/redis/go-redis/v9"

	"github.com/organicjin/reminder-bot/internal/config"
	logx "github.com/organicjin/reminder-bot/pkg/logx"
)

const defaultRedisKey = "reminderbot:subscribers"

type redisStore struct {
	rdb *redis.Client
	key string
	log logx.Logger
}

func openRedis(cfg config.RegistryConfig, log logx.Logger) (Store, error) {
	addr := strings.TrimSpace(cfg.RedisAddr)
	if addr == "" {
		return nil, errors.New("registry.redis_addr is required for redis driver")
	}
	key := strings.TrimSpace(cfg.RedisKey)
	if key == "" {
		key = defaultRedisKey
	}
	rdb := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})
	return &redisStore{rdb: rdb, key: key, log: log}, nil
}

func (s *redisStore) Load(ctx context.Context) ([]int64, error) {
	members, err := s.rdb.SMembers(ctx, s.key).Result()
	if err != nil {
		return nil, err
	}
	ids := make([]int64, 0, len(members))
	for _, m := range members {
		id, err := strconv.ParseInt(m, 10, 64)
		if err != nil {
			s.log.Warn("registry redis member not an integer; skipping", logx.String("member", m))
			continue
		}
		ids = append(ids, id)
	}
	return ids, nil
}

// Save rewrites the set atomically via MULTI/EXEC (DEL + SADD).
func (s *redisStore) Save(ctx context.Context, ids []int64) error {
	pipe := s.rdb.TxPipeline()
	pipe.Del(ctx, s.key)
	if len(ids) > 0 {
		members := make([]any, 0, len(ids))
		for _, id := range ids {
			members = append(members, strconv.FormatInt(id, 10))
		}
		pipe.SAdd(ctx, s.key, members...)
	}
	_, err := pipe.Exec(ctx)
	return err
}

func (s *redisStore) Close() error { return s.rdb.Close() }
