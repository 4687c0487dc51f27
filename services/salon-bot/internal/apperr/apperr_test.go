package apperr

import (
	"errors"
	"fmt"
	"testing"
)

func TestErrorMatchesKindAndCause(t *testing.T) {
	cause := errors.New("connection reset")
	err := fmt.Errorf("create: %w", Wrap(ErrPersistence, "Could not save the appointment", cause))

	if !errors.Is(err, ErrPersistence) {
		t.Fatal("expected kind match")
	}
	if errors.Is(err, ErrSlotTaken) {
		t.Fatal("unexpected kind match")
	}
	if !errors.Is(err, cause) {
		t.Fatal("expected cause to be reachable")
	}
	if got := Message(err, "fallback"); got != "Could not save the appointment" {
		t.Fatalf("unexpected message %q", got)
	}
	if got := Message(cause, "fallback"); got != "fallback" {
		t.Fatalf("unexpected message %q", got)
	}
}
