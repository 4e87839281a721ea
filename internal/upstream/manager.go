// Package upstream owns the single connection to the automation platform:
// the authenticated websocket session, the entity cache it seeds, and the
// forwarding of state changes into the stream fan-out.
package upstream

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	json "github.com/goccy/go-json"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"github.com/aegeanview/hotelhub/internal/metrics"
	"github.com/aegeanview/hotelhub/internal/routing"
)

// ErrUpstreamUnavailable is returned by Invoke when no platform connection
// can be established. Handlers surface it as a localized 503.
var ErrUpstreamUnavailable = errors.New("upstream unavailable")

const (
	handshakeTimeout = 10 * time.Second
	writeWait        = 10 * time.Second
	defaultCallWait  = 15 * time.Second
)

// Broadcaster receives payloads to fan out to all stream subscribers.
// Implemented by sse.Registry.
type Broadcaster interface {
	Broadcast(payload []byte)
}

// Manager maintains the single upstream session. GetConnection-style access
// is single-flight: concurrent callers while disconnected share one attempt,
// and a failed attempt is cleared so the next caller retries.
type Manager struct {
	url         string
	token       string
	log         zerolog.Logger
	cache       *Cache
	routes      *routing.Table
	sink        Broadcaster
	callTimeout time.Duration

	mu      sync.Mutex
	sess    *session
	attempt *connectAttempt
}

type connectAttempt struct {
	done chan struct{}
	sess *session
	err  error
}

// NewManager creates a connection manager. It does not connect; the first
// caller of EnsureConnected or Invoke does.
func NewManager(url, token string, cache *Cache, routes *routing.Table, sink Broadcaster, log zerolog.Logger) *Manager {
	return &Manager{
		url:         url,
		token:       token,
		log:         log.With().Str("component", "upstream").Logger(),
		cache:       cache,
		routes:      routes,
		sink:        sink,
		callTimeout: defaultCallWait,
	}
}

// EnsureConnected establishes the upstream session if none exists. All
// concurrent callers share the same attempt. The ctx only bounds this
// caller's wait; the attempt itself keeps running for later callers.
func (m *Manager) EnsureConnected(ctx context.Context) error {
	_, err := m.getConnection(ctx)
	return err
}

// Invoke executes one service call on the platform. It connects on demand
// and returns ErrUpstreamUnavailable when the platform cannot be reached.
func (m *Manager) Invoke(ctx context.Context, domain, service string, data map[string]any) error {
	sess, err := m.getConnection(ctx)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrUpstreamUnavailable, err)
	}

	res, err := sess.call(ctx, m.callTimeout, frame{
		Type:        "call_service",
		Domain:      domain,
		Service:     service,
		ServiceData: data,
	})
	if err != nil {
		return fmt.Errorf("%w: %v", ErrUpstreamUnavailable, err)
	}
	if !res.Success {
		msg := "command rejected"
		if res.Error != nil {
			msg = res.Error.Message
		}
		return fmt.Errorf("call_service %s.%s: %s", domain, service, msg)
	}
	return nil
}

// Status returns the mirrored connection status.
func (m *Manager) Status() Status {
	return m.cache.Status()
}

func (m *Manager) getConnection(ctx context.Context) (*session, error) {
	m.mu.Lock()
	if m.sess != nil {
		sess := m.sess
		m.mu.Unlock()
		return sess, nil
	}
	if m.attempt == nil {
		a := &connectAttempt{done: make(chan struct{})}
		m.attempt = a
		go m.runConnect(a)
	}
	a := m.attempt
	m.mu.Unlock()

	select {
	case <-a.done:
		return a.sess, a.err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// runConnect performs one connection attempt on behalf of all waiters.
func (m *Manager) runConnect(a *connectAttempt) {
	sess, err := m.connect()

	m.mu.Lock()
	if err != nil {
		// Clear the slot so the next caller retries instead of
		// receiving this cached rejection forever.
		m.attempt = nil
		m.mu.Unlock()
		m.cache.SetStatus(StatusError)
		m.log.Error().Err(err).Msg("connection attempt failed")
		a.err = err
		close(a.done)
		return
	}
	m.sess = sess
	m.attempt = nil
	m.mu.Unlock()

	a.sess = sess
	close(a.done)
}

// connect dials, authenticates, seeds the cache with a full state fetch and
// subscribes to the continuous update stream. Every successful connect runs
// the full fetch — on reconnect this is the reconciliation step that repairs
// deltas missed while the socket was down.
func (m *Manager) connect() (*session, error) {
	m.log.Info().Str("url", m.url).Msg("connecting")

	dialer := websocket.Dialer{HandshakeTimeout: handshakeTimeout}
	conn, _, err := dialer.Dial(m.url, nil)
	if err != nil {
		return nil, fmt.Errorf("dial: %w", err)
	}

	if err := m.authenticate(conn); err != nil {
		_ = conn.Close()
		return nil, err
	}

	sess := newSession(conn)
	go m.readLoop(sess)

	ctx, cancel := context.WithTimeout(context.Background(), m.callTimeout)
	defer cancel()

	states, err := m.fetchStates(ctx, sess)
	if err != nil {
		sess.close()
		return nil, fmt.Errorf("get_states: %w", err)
	}
	m.cache.SetAll(states)
	m.cache.SetStatus(StatusConnected)
	metrics.UpstreamConnects.Inc()
	m.log.Info().Int("entities", len(states)).Msg("cache seeded")

	if _, err := sess.call(ctx, m.callTimeout, frame{
		Type:      "subscribe_events",
		EventType: "state_changed",
	}); err != nil {
		sess.close()
		return nil, fmt.Errorf("subscribe_events: %w", err)
	}

	m.sink.Broadcast(ConnectionEvent(StatusConnected))
	return sess, nil
}

// authenticate runs the token handshake: auth_required → auth → auth_ok.
func (m *Manager) authenticate(conn *websocket.Conn) error {
	_ = conn.SetReadDeadline(time.Now().Add(handshakeTimeout))
	defer func() { _ = conn.SetReadDeadline(time.Time{}) }()

	var hello frame
	if err := readFrame(conn, &hello); err != nil {
		return fmt.Errorf("auth handshake: %w", err)
	}
	if hello.Type != "auth_required" {
		return fmt.Errorf("auth handshake: unexpected frame %q", hello.Type)
	}

	if err := writeFrame(conn, frame{Type: "auth", AccessToken: m.token}); err != nil {
		return fmt.Errorf("auth handshake: %w", err)
	}

	var reply frame
	if err := readFrame(conn, &reply); err != nil {
		return fmt.Errorf("auth handshake: %w", err)
	}
	switch reply.Type {
	case "auth_ok":
		return nil
	case "auth_invalid":
		return fmt.Errorf("auth rejected: %s", reply.Message)
	default:
		return fmt.Errorf("auth handshake: unexpected frame %q", reply.Type)
	}
}

func (m *Manager) fetchStates(ctx context.Context, sess *session) ([]EntityState, error) {
	res, err := sess.call(ctx, m.callTimeout, frame{Type: "get_states"})
	if err != nil {
		return nil, err
	}
	if !res.Success {
		return nil, errors.New("get_states rejected")
	}
	var states []EntityState
	if err := json.Unmarshal(res.Result, &states); err != nil {
		return nil, err
	}
	return states, nil
}

// readLoop consumes frames until the socket dies: results are correlated to
// pending calls, state_changed events flow into the cache and — for routed
// entities — out to subscribers.
func (m *Manager) readLoop(sess *session) {
	defer m.handleDisconnect(sess)

	for {
		_, data, err := sess.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				m.log.Error().Err(err).Msg("read error")
			}
			return
		}

		var f frame
		if err := json.Unmarshal(data, &f); err != nil {
			m.log.Warn().Err(err).Msg("malformed frame, dropped")
			continue
		}

		switch f.Type {
		case "result":
			sess.deliver(f)
		case "event":
			if f.Event == nil || f.Event.EventType != "state_changed" {
				continue
			}
			if f.Event.Data.NewState == nil {
				// Entity removed upstream; the cache keeps its last
				// known state for the process lifetime.
				continue
			}
			m.handleUpdate(*f.Event.Data.NewState)
		}
	}
}

// handleUpdate writes every update through to the cache; only entities in
// the routing table are forwarded to subscribers.
func (m *Manager) handleUpdate(state EntityState) {
	m.cache.Set(state)
	metrics.EntityUpdates.Inc()

	if !m.routes.IsTracked(state.EntityID) {
		return
	}
	m.sink.Broadcast(DeltaEvent(state))
}

// handleDisconnect marks the session dead and tells browsers. It does not
// reconnect — the next EnsureConnected or Invoke triggers a new attempt,
// whose full state fetch reconciles anything missed meanwhile.
func (m *Manager) handleDisconnect(sess *session) {
	m.mu.Lock()
	if m.sess == sess {
		m.sess = nil
	}
	m.mu.Unlock()

	sess.close()
	m.cache.SetStatus(StatusError)
	metrics.UpstreamDisconnects.Inc()
	m.log.Warn().Msg("disconnected")
	m.sink.Broadcast(ConnectionEvent(StatusError))
}

func readFrame(conn *websocket.Conn, f *frame) error {
	_, data, err := conn.ReadMessage()
	if err != nil {
		return err
	}
	return json.Unmarshal(data, f)
}

func writeFrame(conn *websocket.Conn, f frame) error {
	data, err := json.Marshal(f)
	if err != nil {
		return err
	}
	_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
	return conn.WriteMessage(websocket.TextMessage, data)
}
