package sse

import (
	"context"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/aegeanview/hotelhub/internal/upstream"
)

const (
	defaultKeepalive = 30 * time.Second
	ensureTimeout    = 5 * time.Second
)

// Connector is the slice of the connection manager the endpoint needs.
type Connector interface {
	EnsureConnected(ctx context.Context) error
}

// Handler serves the long-lived event stream for one browser session:
// snapshot first, then every broadcast verbatim until the client goes away.
// Authentication happens in middleware before this handler runs.
type Handler struct {
	log       zerolog.Logger
	cache     *upstream.Cache
	manager   Connector
	registry  *Registry
	keepalive time.Duration
}

// NewHandler creates the stream endpoint handler.
func NewHandler(cache *upstream.Cache, manager Connector, registry *Registry, keepalive time.Duration, log zerolog.Logger) *Handler {
	if keepalive <= 0 {
		keepalive = defaultKeepalive
	}
	return &Handler{
		log:       log.With().Str("component", "stream").Logger(),
		cache:     cache,
		manager:   manager,
		registry:  registry,
		keepalive: keepalive,
	}
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "streaming unsupported", http.StatusInternalServerError)
		return
	}

	// Best-effort: bring the upstream connection up before the snapshot.
	// Failure does not abort the stream — the browser observes the error
	// status on the stream instead of a failed request.
	ensureCtx, cancel := context.WithTimeout(r.Context(), ensureTimeout)
	if err := h.manager.EnsureConnected(ensureCtx); err != nil {
		h.log.Warn().Err(err).Msg("upstream unavailable, streaming anyway")
	}
	cancel()

	w.Header().Set("Content-Type", "text/event-stream; charset=utf-8")
	w.Header().Set("Cache-Control", "no-cache, no-transform")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)

	id := uuid.New()
	h.log.Debug().Str("subscriber", id.String()).Msg("stream opened")

	// Broadcasts arrive from the upstream read loop while keepalives come
	// from this goroutine; a mutex keeps frames from interleaving.
	var writeMu sync.Mutex
	write := func(payload []byte) error {
		writeMu.Lock()
		defer writeMu.Unlock()
		if _, err := fmt.Fprintf(w, "data: %s\n\n", payload); err != nil {
			return err
		}
		flusher.Flush()
		return nil
	}

	// The snapshot goes out before registration so the subscriber never
	// sees a delta for state it does not have yet.
	if err := write(upstream.SnapshotEvent(h.cache.Snapshot())); err != nil {
		h.log.Debug().Str("subscriber", id.String()).Err(err).Msg("client gone before snapshot")
		return
	}

	h.registry.Register(id, write)
	defer h.registry.Unregister(id)

	ticker := time.NewTicker(h.keepalive)
	defer ticker.Stop()

	for {
		select {
		case <-r.Context().Done():
			h.log.Debug().Str("subscriber", id.String()).Msg("stream closed")
			return
		case <-ticker.C:
			// Comment frame; ignored by clients, keeps idle proxies
			// from cutting the stream.
			writeMu.Lock()
			_, err := fmt.Fprint(w, ": keepalive\n\n")
			if err == nil {
				flusher.Flush()
			}
			writeMu.Unlock()
			if err != nil {
				return
			}
		}
	}
}
