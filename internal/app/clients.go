package app

import (
	"fmt"
	"strings"

	"github.com/yungbote/maia-backend/internal/clients/redis"
	"github.com/yungbote/maia-backend/internal/platform/assistant"
	"github.com/yungbote/maia-backend/internal/platform/logger"
)

type Clients struct {
	Assistant assistant.Client
	Limiter   redis.Limiter
}

func wireClients(log *logger.Logger, cfg Config) (Clients, error) {
	log.Info("Wiring clients...")

	client, err := assistant.NewClient(cfg.Assistant, log)
	if err != nil {
		return Clients{}, fmt.Errorf("init assistant client: %w", err)
	}

	// Redis is optional; without it chat is not rate limited.
	var limiter redis.Limiter
	if strings.TrimSpace(cfg.Redis.Addr) != "" {
		l, err := redis.NewLimiter(log, cfg.Redis)
		if err != nil {
			return Clients{}, fmt.Errorf("init redis limiter: %w", err)
		}
		limiter = l
	} else {
		log.Warn("REDIS_ADDR not set, chat rate limiting disabled")
	}

	return Clients{Assistant: client, Limiter: limiter}, nil
}

func (c *Clients) Close() {
	if c == nil {
		return
	}
	if c.Limiter != nil {
		_ = c.Limiter.Close()
	}
}
