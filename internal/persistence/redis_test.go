package persistence

import (
	"context"
	"testing"
	"time"

	"huddle.websocket.go/internal/store"
)

func TestRedisBackendRejectsMalformedURL(t *testing.T) {
	if _, err := NewRedisBackend("not-a-redis-url"); err == nil {
		t.Fatal("NewRedisBackend() accepted a malformed url")
	}
}

func TestRedisBackendUnreachableStartsEmpty(t *testing.T) {
	b, err := NewRedisBackend("redis://127.0.0.1:1/0")
	if err != nil {
		t.Fatalf("NewRedisBackend() error = %v", err)
	}
	defer b.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if _, err := b.Load(ctx); err == nil {
		t.Fatal("Load() from unreachable server returned no error")
	}
	if got := LoadHistory(ctx, b, discardLogger()); got != nil {
		t.Errorf("LoadHistory() = %v, want nil", got)
	}
	if err := b.Save(ctx, []store.Message{{ID: "m1"}}); err == nil {
		t.Error("Save() to unreachable server returned no error")
	}
}
