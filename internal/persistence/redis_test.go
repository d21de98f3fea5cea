package persistence

import (
	"context"
	"testing"

	"go.uber.org/zap"

	"github.com/spec-kit/helpdesk-service/internal/config"
)

func TestRedisUnreachableIsReported(t *testing.T) {
	r := NewRedis(context.Background(), config.RedisConfig{Addr: "127.0.0.1:1"}, zap.NewNop())
	defer r.Close()

	if r.Reachable() {
		t.Fatal("expected unreachable redis")
	}
	if err := r.Ping(context.Background()); err == nil {
		t.Fatal("expected ping error")
	}

	var missing *Redis
	if missing.Reachable() {
		t.Fatal("nil redis must not be reachable")
	}
	if err := missing.Ping(context.Background()); err == nil {
		t.Fatal("expected error from nil redis")
	}
}
