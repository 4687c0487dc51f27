package loop

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/md-rashed-zaman/salonbot/libs/requestid"
)

func TestLoopSurvivesPanic(t *testing.T) {
	l := New(slog.New(slog.NewTextHandler(io.Discard, nil)), 4)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go l.Run(ctx)

	done := make(chan string, 1)
	if err := l.Submit(ctx, "boom", func(context.Context) { panic("boom") }); err != nil {
		t.Fatalf("submit: %v", err)
	}
	if err := l.Submit(ctx, "after", func(context.Context) { done <- "after" }); err != nil {
		t.Fatalf("submit: %v", err)
	}

	select {
	case got := <-done:
		if got != "after" {
			t.Fatalf("unexpected task result %q", got)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("loop stopped after a panicking task")
	}
}

func TestTasksRunInOrder(t *testing.T) {
	l := New(slog.New(slog.NewTextHandler(io.Discard, nil)), 8)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var order []int
	finished := make(chan struct{})
	for i := 0; i < 5; i++ {
		if err := l.Submit(ctx, "step", func(context.Context) { order = append(order, i) }); err != nil {
			t.Fatalf("submit: %v", err)
		}
	}
	if err := l.Submit(ctx, "finish", func(context.Context) { close(finished) }); err != nil {
		t.Fatalf("submit: %v", err)
	}
	go l.Run(ctx)

	select {
	case <-finished:
	case <-time.After(2 * time.Second):
		t.Fatal("tasks did not run")
	}
	for i, v := range order {
		if v != i {
			t.Fatalf("tasks ran out of order: %v", order)
		}
	}
}

func TestSubmitFailsAfterCancel(t *testing.T) {
	l := New(slog.New(slog.NewTextHandler(io.Discard, nil)), 1)
	ctx, cancel := context.WithCancel(context.Background())
	if err := l.Submit(ctx, "fill", func(context.Context) {}); err != nil {
		t.Fatalf("submit: %v", err)
	}
	cancel()
	if err := l.Submit(ctx, "blocked", func(context.Context) {}); err == nil {
		t.Fatal("expected error when the queue is full and ctx is done")
	}
}

func TestTaskKeepsSubmitterRequestID(t *testing.T) {
	l := New(slog.New(slog.NewTextHandler(io.Discard, nil)), 2)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go l.Run(ctx)

	seen := make(chan string, 2)
	record := func(ctx context.Context) { seen <- requestid.FromContext(ctx) }
	if err := l.Submit(requestid.With(ctx, "tg-1042"), "tagged", record); err != nil {
		t.Fatalf("submit: %v", err)
	}
	if err := l.Submit(ctx, "untagged", record); err != nil {
		t.Fatalf("submit: %v", err)
	}

	for _, check := range []func(string) bool{
		func(id string) bool { return id == "tg-1042" },
		func(id string) bool { return id != "" && id != "tg-1042" },
	} {
		select {
		case id := <-seen:
			if !check(id) {
				t.Fatalf("unexpected request id %q", id)
			}
		case <-time.After(2 * time.Second):
			t.Fatal("task did not run")
		}
	}
}
