// Package sse implements the browser-facing event stream: a registry of
// subscriber handles fed by the upstream pipeline, and the long-lived HTTP
// endpoint that serves each browser session.
package sse

import (
	"sync"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/aegeanview/hotelhub/internal/metrics"
)

// EmitFunc delivers one payload to a single subscriber. A non-nil error
// means the subscriber's transport is gone.
type EmitFunc func(payload []byte) error

type subscriber struct {
	id   uuid.UUID
	emit EmitFunc
}

// Registry holds the active stream subscribers. Delivery is best effort: a
// subscriber whose emit fails is dropped and must rely on its own
// reconnect-and-resnapshot to converge.
type Registry struct {
	log zerolog.Logger

	mu   sync.Mutex
	subs []subscriber
}

// NewRegistry creates an empty subscriber registry.
func NewRegistry(log zerolog.Logger) *Registry {
	return &Registry{
		log: log.With().Str("component", "sse").Logger(),
	}
}

// Register adds a subscriber handle.
func (r *Registry) Register(id uuid.UUID, emit EmitFunc) {
	r.mu.Lock()
	r.subs = append(r.subs, subscriber{id: id, emit: emit})
	metrics.StreamSubscribers.Set(float64(len(r.subs)))
	r.mu.Unlock()
	r.log.Debug().Str("subscriber", id.String()).Msg("registered")
}

// Unregister removes a subscriber handle. Safe to call for ids that are
// already gone.
func (r *Registry) Unregister(id uuid.UUID) {
	r.mu.Lock()
	r.removeLocked(id)
	r.mu.Unlock()
	r.log.Debug().Str("subscriber", id.String()).Msg("unregistered")
}

func (r *Registry) removeLocked(id uuid.UUID) {
	for i, s := range r.subs {
		if s.id == id {
			r.subs = append(r.subs[:i], r.subs[i+1:]...)
			break
		}
	}
	metrics.StreamSubscribers.Set(float64(len(r.subs)))
}

// Broadcast delivers a payload to every subscriber in registration order.
// A failing emit unregisters that one handle; it never blocks delivery to
// the others and never propagates out of Broadcast.
func (r *Registry) Broadcast(payload []byte) {
	r.mu.Lock()
	subs := make([]subscriber, len(r.subs))
	copy(subs, r.subs)
	r.mu.Unlock()

	metrics.Broadcasts.Inc()

	for _, s := range subs {
		if err := s.emit(payload); err != nil {
			r.mu.Lock()
			r.removeLocked(s.id)
			r.mu.Unlock()
			r.log.Debug().Str("subscriber", s.id.String()).Err(err).Msg("dropped dead subscriber")
		}
	}
}

// Count returns the number of registered subscribers.
func (r *Registry) Count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.subs)
}
