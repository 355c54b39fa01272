// Package persistence saves and restores the chat history snapshot. Writes
// happen off the hub loop and failures never affect live traffic.
package persistence

import (
	"context"
	"log/slog"

	"huddle.websocket.go/internal/store"
)

type Backend interface {
	Load(ctx context.Context) ([]store.Message, error)
	Save(ctx context.Context, msgs []store.Message) error
	Close() error
}

// LoadHistory reads the persisted snapshot. Any failure is logged and
// yields empty history so the relay can still start.
func LoadHistory(ctx context.Context, b Backend, logger *slog.Logger) []store.Message {
	msgs, err := b.Load(ctx)
	if err != nil {
		logger.Error("failed to load message history, starting empty", "error", err)
		return nil
	}
	logger.Info("message history loaded", "count", len(msgs))
	return msgs
}
