// Package loop runs every chat event and timer callback of the bot on one
// goroutine, one task at a time.
package loop

import (
	"context"
	"fmt"
	"log/slog"
	"runtime/debug"
	"time"

	"github.com/md-rashed-zaman/salonbot/libs/requestid"
)

type Task func(ctx context.Context)

type job struct {
	name      string
	requestID string
	fn        Task
}

type Loop struct {
	tasks  chan job
	logger *slog.Logger
}

func New(logger *slog.Logger, buffer int) *Loop {
	if buffer <= 0 {
		buffer = 64
	}
	return &Loop{tasks: make(chan job, buffer), logger: logger}
}

// Submit queues fn. It blocks while the queue is full and fails once ctx is
// done. The request id of ctx, or a fresh one, follows the task onto the loop.
func (l *Loop) Submit(ctx context.Context, name string, fn Task) error {
	id := requestid.FromContext(ctx)
	if id == "" {
		id = requestid.New()
	}
	select {
	case l.tasks <- job{name: name, requestID: id, fn: fn}:
		return nil
	case <-ctx.Done():
		return fmt.Errorf("submit %s: %w", name, ctx.Err())
	}
}

// Run executes queued tasks until ctx is done. A panicking task is logged and
// the loop moves on to the next one.
func (l *Loop) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case j := <-l.tasks:
			l.run(ctx, j)
		}
	}
}

func (l *Loop) run(ctx context.Context, j job) {
	start := time.Now()
	defer func() {
		if rec := recover(); rec != nil {
			l.logger.Error("task panicked", "task", j.name, "request_id", j.requestID, "panic", rec, "stack", string(debug.Stack()))
		}
	}()
	j.fn(requestid.With(ctx, j.requestID))
	l.logger.Debug("task done", "task", j.name, "request_id", j.requestID, "duration_ms", time.Since(start).Milliseconds())
}
