package sse

import (
	"bufio"
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	json "github.com/goccy/go-json"
	"github.com/rs/zerolog"

	"github.com/aegeanview/hotelhub/internal/upstream"
)

type stubConnector struct{ err error }

func (s stubConnector) EnsureConnected(context.Context) error { return s.err }

// readEvent scans forward to the next data frame, skipping keepalives.
func readEvent(t *testing.T, r *bufio.Reader) []byte {
	t.Helper()
	for {
		line, err := r.ReadString('\n')
		if err != nil {
			t.Fatalf("read stream: %v", err)
		}
		line = strings.TrimRight(line, "\n")
		if strings.HasPrefix(line, "data: ") {
			return []byte(strings.TrimPrefix(line, "data: "))
		}
	}
}

func TestStreamSnapshotThenDelta(t *testing.T) {
	cache := upstream.NewCache()
	cache.Set(upstream.EntityState{EntityID: "lock.room_101_door", State: "locked"})

	registry := NewRegistry(zerolog.Nop())
	h := NewHandler(cache, stubConnector{}, registry, time.Minute, zerolog.Nop())

	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	req, _ := http.NewRequestWithContext(ctx, http.MethodGet, srv.URL, nil)
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("connect: %v", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if ct := resp.Header.Get("Content-Type"); !strings.HasPrefix(ct, "text/event-stream") {
		t.Fatalf("Content-Type = %q", ct)
	}

	reader := bufio.NewReader(resp.Body)

	// First frame is always the snapshot.
	var snap struct {
		Type     string                          `json:"type"`
		Entities map[string]upstream.EntityState `json:"entities"`
	}
	if err := json.Unmarshal(readEvent(t, reader), &snap); err != nil {
		t.Fatalf("unmarshal snapshot: %v", err)
	}
	if snap.Type != "snapshot" {
		t.Fatalf("first event type = %q, want snapshot", snap.Type)
	}
	if snap.Entities["lock.room_101_door"].State != "locked" {
		t.Fatalf("snapshot missing cached entity: %+v", snap.Entities)
	}

	// The subscriber is registered once the snapshot is out; deltas follow.
	waitForCount(t, registry, 1)
	registry.Broadcast(upstream.DeltaEvent(upstream.EntityState{
		EntityID: "lock.room_101_door", State: "unlocked",
	}))

	var delta struct {
		Type     string               `json:"type"`
		EntityID string               `json:"entity_id"`
		State    upstream.EntityState `json:"state"`
	}
	if err := json.Unmarshal(readEvent(t, reader), &delta); err != nil {
		t.Fatalf("unmarshal delta: %v", err)
	}
	if delta.Type != "delta" || delta.State.State != "unlocked" {
		t.Fatalf("delta = %+v", delta)
	}
}

func TestStreamKeepalive(t *testing.T) {
	cache := upstream.NewCache()
	registry := NewRegistry(zerolog.Nop())
	h := NewHandler(cache, stubConnector{}, registry, 20*time.Millisecond, zerolog.Nop())

	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	req, _ := http.NewRequestWithContext(ctx, http.MethodGet, srv.URL, nil)
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("connect: %v", err)
	}
	defer func() { _ = resp.Body.Close() }()

	reader := bufio.NewReader(resp.Body)
	for {
		line, err := reader.ReadString('\n')
		if err != nil {
			t.Fatal("stream ended before a keepalive arrived")
		}
		if strings.HasPrefix(line, ": keepalive") {
			return
		}
	}
}

func TestStreamSurvivesUpstreamFailure(t *testing.T) {
	cache := upstream.NewCache()
	registry := NewRegistry(zerolog.Nop())
	h := NewHandler(cache, stubConnector{err: context.DeadlineExceeded}, registry, time.Minute, zerolog.Nop())

	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	req, _ := http.NewRequestWithContext(ctx, http.MethodGet, srv.URL, nil)
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("connect: %v", err)
	}
	defer func() { _ = resp.Body.Close() }()

	// Even with the platform down the stream opens and serves the (empty)
	// snapshot instead of failing the request.
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}
	var snap struct {
		Type string `json:"type"`
	}
	if err := json.Unmarshal(readEvent(t, bufio.NewReader(resp.Body)), &snap); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if snap.Type != "snapshot" {
		t.Fatalf("first event type = %q, want snapshot", snap.Type)
	}
}

func waitForCount(t *testing.T, r *Registry, want int) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if r.Count() == want {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("subscriber count never reached %d", want)
}
