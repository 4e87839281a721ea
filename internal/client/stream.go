package client

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	json "github.com/goccy/go-json"
	"github.com/rs/zerolog"

	"github.com/aegeanview/hotelhub/internal/routing"
	"github.com/aegeanview/hotelhub/internal/upstream"
)

const reconnectWait = 3 * time.Second

// Trees bundles the four state trees one stream consumer feeds.
type Trees struct {
	Rooms       *RoomTree
	Energy      *EnergyTree
	HotWater    *HotWaterTree
	Automations *AutomationTree
}

// NewTrees creates all four trees in their default state.
func NewTrees() *Trees {
	return &Trees{
		Rooms:       NewRoomTree(),
		Energy:      NewEnergyTree(),
		HotWater:    NewHotWaterTree(),
		Automations: NewAutomationTree(),
	}
}

// Stream consumes the server event stream and feeds the state trees. It
// reconnects on failure the way a browser EventSource does.
type Stream struct {
	url     string
	session string // session cookie value
	client  *http.Client
	log     zerolog.Logger
	routes  *routing.Table
	trees   *Trees

	mu     sync.RWMutex
	status upstream.Status
}

// NewStream creates a stream consumer. url is the full /api/stream URL and
// session the value of the hotelhub_session cookie.
func NewStream(url, session string, routes *routing.Table, trees *Trees, log zerolog.Logger) *Stream {
	return &Stream{
		url:     url,
		session: session,
		client:  &http.Client{},
		log:     log.With().Str("component", "client").Logger(),
		routes:  routes,
		trees:   trees,
		status:  upstream.StatusConnecting,
	}
}

// Status returns the last connection status seen on the stream, or
// StatusError while the stream itself is down.
func (s *Stream) Status() upstream.Status {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.status
}

func (s *Stream) setStatus(status upstream.Status) {
	s.mu.Lock()
	s.status = status
	s.mu.Unlock()
}

// Run consumes the stream until ctx is cancelled, reconnecting after errors.
func (s *Stream) Run(ctx context.Context) error {
	for {
		err := s.consume(ctx)
		if ctx.Err() != nil {
			return ctx.Err()
		}
		s.setStatus(upstream.StatusError)
		s.log.Warn().Err(err).Msg("stream dropped, reconnecting")

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(reconnectWait):
		}
	}
}

func (s *Stream) consume(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.url, nil)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "text/event-stream")
	req.AddCookie(&http.Cookie{Name: "hotelhub_session", Value: s.session})

	resp, err := s.client.Do(req)
	if err != nil {
		return err
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("stream returned %d", resp.StatusCode)
	}

	scanner := bufio.NewScanner(resp.Body)
	scanner.Buffer(make([]byte, 64*1024), 4*1024*1024)

	for scanner.Scan() {
		line := scanner.Text()
		switch {
		case line == "", strings.HasPrefix(line, ":"):
			// Event separator or keepalive comment.
		case strings.HasPrefix(line, "data: "):
			s.dispatch([]byte(strings.TrimPrefix(line, "data: ")))
		}
	}
	if err := scanner.Err(); err != nil {
		return err
	}
	return errors.New("stream closed")
}

// dispatch routes one event payload to the trees. Malformed payloads are
// dropped; the next snapshot repairs any gap.
func (s *Stream) dispatch(payload []byte) {
	var head struct {
		Type string `json:"type"`
	}
	if err := json.Unmarshal(payload, &head); err != nil {
		s.log.Warn().Err(err).Msg("malformed event, dropped")
		return
	}

	switch head.Type {
	case "snapshot":
		var ev struct {
			Entities map[string]upstream.EntityState `json:"entities"`
		}
		if err := json.Unmarshal(payload, &ev); err != nil {
			s.log.Warn().Err(err).Msg("malformed snapshot, dropped")
			return
		}
		s.trees.Rooms.ApplyAll(ev.Entities, s.routes)
		s.trees.Energy.ApplyAll(ev.Entities, s.routes)
		s.trees.HotWater.ApplyAll(ev.Entities, s.routes)
		s.trees.Automations.ApplyAll(ev.Entities, s.routes)
		s.log.Debug().Int("entities", len(ev.Entities)).Msg("snapshot applied")

	case "delta":
		var ev struct {
			EntityID string               `json:"entity_id"`
			State    upstream.EntityState `json:"state"`
		}
		if err := json.Unmarshal(payload, &ev); err != nil {
			s.log.Warn().Err(err).Msg("malformed delta, dropped")
			return
		}
		target, ok := s.routes.Lookup(ev.EntityID)
		if !ok {
			return
		}
		s.trees.Rooms.ApplyOne(target, ev.State)
		s.trees.Energy.ApplyOne(target, ev.State)
		s.trees.HotWater.ApplyOne(target, ev.State)
		s.trees.Automations.ApplyOne(target, ev.State)

	case "connection":
		var ev struct {
			Status upstream.Status `json:"status"`
		}
		if err := json.Unmarshal(payload, &ev); err != nil {
			s.log.Warn().Err(err).Msg("malformed connection event, dropped")
			return
		}
		s.setStatus(ev.Status)
		s.log.Info().Str("status", string(ev.Status)).Msg("upstream status changed")

	default:
		s.log.Debug().Str("type", head.Type).Msg("unknown event type, dropped")
	}
}
