package persistence

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"huddle.websocket.go/internal/metrics"
	"huddle.websocket.go/internal/store"
)

const saveTimeout = 5 * time.Second

// Writer saves snapshots on its own goroutine. Only the latest pending
// snapshot is kept; older ones are superseded before they are written.
type Writer struct {
	backend   Backend
	logger    *slog.Logger
	pending   chan []store.Message
	done      chan struct{}
	closeOnce sync.Once
}

func NewWriter(b Backend, logger *slog.Logger) *Writer {
	w := &Writer{
		backend: b,
		logger:  logger,
		pending: make(chan []store.Message, 1),
		done:    make(chan struct{}),
	}
	go w.run()
	return w
}

// Submit queues a snapshot without blocking. It must not be called
// concurrently or after Close.
func (w *Writer) Submit(snapshot []store.Message) {
	for {
		select {
		case w.pending <- snapshot:
			return
		default:
		}
		select {
		case <-w.pending:
		default:
		}
	}
}

func (w *Writer) run() {
	defer close(w.done)
	for snapshot := range w.pending {
		w.save(snapshot)
	}
}

func (w *Writer) save(snapshot []store.Message) {
	ctx, cancel := context.WithTimeout(context.Background(), saveTimeout)
	defer cancel()
	if err := w.backend.Save(ctx, snapshot); err != nil {
		metrics.PersistWrites.WithLabelValues("error").Inc()
		w.logger.Error("failed to persist message history", "error", err, "count", len(snapshot))
		return
	}
	metrics.PersistWrites.WithLabelValues("ok").Inc()
}

// Close writes any pending snapshot, then closes the backend.
func (w *Writer) Close() error {
	w.closeOnce.Do(func() { close(w.pending) })
	<-w.done
	return w.backend.Close()
}
