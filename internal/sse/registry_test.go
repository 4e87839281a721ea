package sse

import (
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

func TestBroadcastDeliversInOrder(t *testing.T) {
	r := NewRegistry(zerolog.Nop())

	var order []string
	for _, name := range []string{"a", "b", "c"} {
		name := name
		r.Register(uuid.New(), func([]byte) error {
			order = append(order, name)
			return nil
		})
	}

	r.Broadcast([]byte("x"))

	if len(order) != 3 || order[0] != "a" || order[1] != "b" || order[2] != "c" {
		t.Fatalf("delivery order = %v, want [a b c]", order)
	}
}

func TestBroadcastIsolatesFailures(t *testing.T) {
	r := NewRegistry(zerolog.Nop())

	counts := make(map[string]int)
	emit := func(name string) EmitFunc {
		return func([]byte) error {
			counts[name]++
			return nil
		}
	}

	r.Register(uuid.New(), emit("first"))
	r.Register(uuid.New(), func([]byte) error {
		counts["broken"]++
		return errors.New("client went away")
	})
	r.Register(uuid.New(), emit("third"))

	r.Broadcast([]byte("x"))

	if counts["first"] != 1 || counts["third"] != 1 {
		t.Errorf("healthy subscribers got %d/%d deliveries, want 1/1", counts["first"], counts["third"])
	}
	if r.Count() != 2 {
		t.Errorf("Count = %d after failed emit, want 2", r.Count())
	}

	// The broken subscriber is gone; the rest keep receiving.
	r.Broadcast([]byte("y"))
	if counts["broken"] != 1 {
		t.Errorf("broken subscriber received %d deliveries, want 1", counts["broken"])
	}
	if counts["first"] != 2 || counts["third"] != 2 {
		t.Errorf("healthy subscribers got %d/%d deliveries, want 2/2", counts["first"], counts["third"])
	}
}

func TestUnregister(t *testing.T) {
	r := NewRegistry(zerolog.Nop())

	id := uuid.New()
	delivered := 0
	r.Register(id, func([]byte) error { delivered++; return nil })

	r.Unregister(id)
	r.Unregister(id) // idempotent

	r.Broadcast([]byte("x"))
	if delivered != 0 {
		t.Errorf("unregistered subscriber received %d deliveries", delivered)
	}
	if r.Count() != 0 {
		t.Errorf("Count = %d, want 0", r.Count())
	}
}
