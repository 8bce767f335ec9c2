package store

import (
	"context"
	"log/slog"
	"time"

	"github.com/me/capsched/pkg/model"
)

// Writer applies store writes asynchronously so engine operations never
// block on persistence. A failed or timed-out write is not a failed
// reservation: the in-memory state stays authoritative, and the failure is
// logged for reconciliation after one retry.
type Writer struct {
	store   Store
	logger  *slog.Logger
	timeout time.Duration
	ops     chan writeOp
	done    chan struct{}
}

type writeOp struct {
	name string
	fn   func(ctx context.Context) error
}

// DefaultWriteBuffer is the queue depth before writes are dropped (and
// logged) rather than blocking the engine.
const DefaultWriteBuffer = 256

// NewWriter starts the write-behind worker. buffer values <= 0 use
// DefaultWriteBuffer.
func NewWriter(st Store, buffer int, logger *slog.Logger) *Writer {
	if buffer <= 0 {
		buffer = DefaultWriteBuffer
	}
	w := &Writer{
		store:   st,
		logger:  logger.With("component", "store_writer"),
		timeout: 10 * time.Second,
		ops:     make(chan writeOp, buffer),
		done:    make(chan struct{}),
	}
	go w.run()
	return w
}

// Close drains pending writes and stops the worker.
func (w *Writer) Close() error {
	close(w.ops)
	<-w.done
	return nil
}

func (w *Writer) run() {
	defer close(w.done)
	for op := range w.ops {
		ctx, cancel := context.WithTimeout(context.Background(), w.timeout)
		err := op.fn(ctx)
		if err != nil {
			err = op.fn(ctx)
		}
		cancel()
		if err != nil {
			w.logger.Error("store write failed; needs reconciliation", "op", op.name, "error", err)
		}
	}
}

func (w *Writer) enqueue(name string, fn func(ctx context.Context) error) {
	select {
	case w.ops <- writeOp{name: name, fn: fn}:
	default:
		w.logger.Error("store write queue full; write dropped, needs reconciliation", "op", name)
	}
}

// PersistSession mirrors a new session. The entity is copied before
// enqueueing so later in-memory mutations do not race the write.
func (w *Writer) PersistSession(ses *model.WorkSession) {
	rec := *ses
	w.enqueue("create_session", func(ctx context.Context) error {
		return w.store.CreateSession(ctx, &rec)
	})
}

// UpdateSession mirrors a session state transition.
func (w *Writer) UpdateSession(ses *model.WorkSession) {
	rec := *ses
	w.enqueue("update_session", func(ctx context.Context) error {
		return w.store.UpdateSession(ctx, &rec)
	})
}

// PersistTimeBlock mirrors a new time block.
func (w *Writer) PersistTimeBlock(blk *model.TimeBlock) {
	rec := *blk
	w.enqueue("create_time_block", func(ctx context.Context) error {
		return w.store.CreateTimeBlock(ctx, &rec)
	})
}

// UpdateTimeBlock mirrors a time block state transition.
func (w *Writer) UpdateTimeBlock(blk *model.TimeBlock) {
	rec := *blk
	w.enqueue("update_time_block", func(ctx context.Context) error {
		return w.store.UpdateTimeBlock(ctx, &rec)
	})
}

// PersistRequest mirrors a new work request.
func (w *Writer) PersistRequest(req *model.WorkRequest) {
	rec := *req
	w.enqueue("create_request", func(ctx context.Context) error {
		return w.store.CreateRequest(ctx, &rec)
	})
}

// UpdateRequest mirrors a work request state transition.
func (w *Writer) UpdateRequest(req *model.WorkRequest) {
	rec := *req
	w.enqueue("update_request", func(ctx context.Context) error {
		return w.store.UpdateRequest(ctx, &rec)
	})
}
