package redis

import (
	"context"
	"testing"

	"github.com/yungbote/maia-backend/internal/platform/logger"
)

func TestNewLimiterRequiresAddr(t *testing.T) {
	if _, err := NewLimiter(logger.Nop(), Config{}); err == nil {
		t.Fatalf("expected error without address")
	}
	if _, err := NewLimiter(nil, Config{Addr: "localhost:6379"}); err == nil {
		t.Fatalf("expected error without logger")
	}
}

func TestNilLimiterIsSafe(t *testing.T) {
	var l *limiter
	if err := l.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if _, _, err := l.Hit(context.TODO(), "x", 0); err == nil {
		t.Fatalf("expected error from nil limiter")
	}
}
