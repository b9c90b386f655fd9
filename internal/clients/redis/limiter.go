package redis

import (
	"context"
	"fmt"
	"strings"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/yungbote/maia-backend/internal/platform/logger"
)

type Config struct {
	Addr     string `yaml:"addr"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
	Prefix   string `yaml:"prefix"`
}

// Limiter counts hits in fixed windows keyed by subject.
type Limiter interface {
	// Hit increments the counter of the current window and returns the new
	// count and the time left until the window resets.
	Hit(ctx context.Context, subject string, window time.Duration) (int64, time.Duration, error)
	Close() error
}

type limiter struct {
	log    *logger.Logger
	rdb    *goredis.Client
	prefix string
}

func NewLimiter(log *logger.Logger, cfg Config) (Limiter, error) {
	if log == nil {
		return nil, fmt.Errorf("logger required")
	}
	addr := strings.TrimSpace(cfg.Addr)
	if addr == "" {
		return nil, fmt.Errorf("missing REDIS_ADDR")
	}
	prefix := strings.TrimSpace(cfg.Prefix)
	if prefix == "" {
		prefix = "maia:ratelimit"
	}

	rdb := goredis.NewClient(&goredis.Options{
		Addr:        addr,
		Password:    cfg.Password,
		DB:          cfg.DB,
		DialTimeout: 5 * time.Second,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}

	return &limiter{
		log:    log.With("client", "RedisLimiter"),
		rdb:    rdb,
		prefix: prefix,
	}, nil
}

func (l *limiter) Hit(ctx context.Context, subject string, window time.Duration) (int64, time.Duration, error) {
	if l == nil || l.rdb == nil {
		return 0, 0, fmt.Errorf("redis limiter not initialized")
	}
	now := time.Now()
	slot := now.Truncate(window)
	key := fmt.Sprintf("%s:%s:%d", l.prefix, subject, slot.Unix())

	pipe := l.rdb.TxPipeline()
	incr := pipe.Incr(ctx, key)
	pipe.Expire(ctx, key, window+time.Second)
	if _, err := pipe.Exec(ctx); err != nil {
		return 0, 0, fmt.Errorf("redis hit: %w", err)
	}
	return incr.Val(), slot.Add(window).Sub(now), nil
}

func (l *limiter) Close() error {
	if l == nil || l.rdb == nil {
		return nil
	}
	return l.rdb.Close()
}
