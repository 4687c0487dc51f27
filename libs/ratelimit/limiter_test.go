package ratelimit

import (
	"context"
	"testing"
	"time"
)

func TestMemoryFixedWindow(t *testing.T) {
	now := time.Date(2026, 1, 28, 9, 0, 0, 0, time.UTC)
	rl := NewMemory(2, time.Minute)
	rl.now = func() time.Time { return now }
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		if ok, _ := rl.Allow(ctx, "chat:1"); !ok {
			t.Fatalf("call %d should be allowed", i+1)
		}
	}
	if ok, _ := rl.Allow(ctx, "chat:1"); ok {
		t.Fatal("third call in window should be rejected")
	}
	if ok, _ := rl.Allow(ctx, "chat:2"); !ok {
		t.Fatal("other keys have their own window")
	}

	now = now.Add(61 * time.Second)
	if ok, _ := rl.Allow(ctx, "chat:1"); !ok {
		t.Fatal("window should reset")
	}
}

func TestRedisBucketKey(t *testing.T) {
	rl := NewRedis(nil, 5, time.Minute, " ")
	at := time.Date(2026, 1, 28, 9, 0, 30, 0, time.UTC)
	first := rl.bucketKey("42", at)
	if first != rl.bucketKey("42", at.Add(29*time.Second)) {
		t.Fatal("calls within one minute must share a bucket")
	}
	if first == rl.bucketKey("42", at.Add(30*time.Second)) {
		t.Fatal("the next minute must use a new bucket")
	}
	if first[:6] != "rl:42:" {
		t.Fatalf("unexpected key %q", first)
	}
}
