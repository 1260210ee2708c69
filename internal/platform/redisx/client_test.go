package redisx

import (
	"context"
	"testing"

	"github.com/yungbote/assets-backend/internal/platform/logger"
)

func TestNewRequiresAddr(t *testing.T) {
	if _, err := New(context.Background(), logger.Nop(), Config{Addr: "  "}); err == nil {
		t.Fatalf("expected error for blank address")
	}
	if _, err := New(context.Background(), nil, Config{Addr: "localhost:6379"}); err == nil {
		t.Fatalf("expected error for nil logger")
	}
}
