package upstream

import (
	"context"
	"errors"
	"sync"
	"time"

	json "github.com/goccy/go-json"
	"github.com/gorilla/websocket"
)

var errSessionClosed = errors.New("session closed")

// frame is the platform's websocket envelope. Requests carry an id; result
// frames echo it back for correlation.
type frame struct {
	ID          int64           `json:"id,omitempty"`
	Type        string          `json:"type"`
	Success     bool            `json:"success,omitempty"`
	Result      json.RawMessage `json:"result,omitempty"`
	Event       *eventFrame     `json:"event,omitempty"`
	Error       *wireError      `json:"error,omitempty"`
	AccessToken string          `json:"access_token,omitempty"`
	EventType   string          `json:"event_type,omitempty"`
	Domain      string          `json:"domain,omitempty"`
	Service     string          `json:"service,omitempty"`
	ServiceData map[string]any  `json:"service_data,omitempty"`
	Message     string          `json:"message,omitempty"`
}

type wireError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

type eventFrame struct {
	EventType string `json:"event_type"`
	Data      struct {
		EntityID string       `json:"entity_id"`
		NewState *EntityState `json:"new_state"`
	} `json:"data"`
}

// session is one live websocket connection with id-correlated request
// tracking. Writes are serialized; reads happen on the manager's read loop.
type session struct {
	conn    *websocket.Conn
	writeMu sync.Mutex

	mu      sync.Mutex
	nextID  int64
	pending map[int64]chan frame

	done      chan struct{}
	closeOnce sync.Once
}

func newSession(conn *websocket.Conn) *session {
	return &session{
		conn:    conn,
		pending: make(map[int64]chan frame),
		done:    make(chan struct{}),
	}
}

// call sends a request frame and waits for the matching result.
func (s *session) call(ctx context.Context, timeout time.Duration, req frame) (frame, error) {
	s.mu.Lock()
	select {
	case <-s.done:
		s.mu.Unlock()
		return frame{}, errSessionClosed
	default:
	}
	s.nextID++
	id := s.nextID
	ch := make(chan frame, 1)
	s.pending[id] = ch
	s.mu.Unlock()

	req.ID = id
	if err := s.send(req); err != nil {
		s.drop(id)
		return frame{}, err
	}

	timer := time.NewTimer(timeout)
	defer timer.Stop()

	select {
	case res := <-ch:
		return res, nil
	case <-s.done:
		return frame{}, errSessionClosed
	case <-timer.C:
		s.drop(id)
		return frame{}, errors.New("call timed out")
	case <-ctx.Done():
		s.drop(id)
		return frame{}, ctx.Err()
	}
}

// deliver routes a result frame to its waiting caller. Unknown ids (timed
// out or dropped callers) are discarded.
func (s *session) deliver(res frame) {
	s.mu.Lock()
	ch, ok := s.pending[res.ID]
	if ok {
		delete(s.pending, res.ID)
	}
	s.mu.Unlock()
	if ok {
		ch <- res
	}
}

func (s *session) drop(id int64) {
	s.mu.Lock()
	delete(s.pending, id)
	s.mu.Unlock()
}

func (s *session) send(f frame) error {
	data, err := json.Marshal(f)
	if err != nil {
		return err
	}
	s.writeMu.Lock()
	defer s.writeMu.Unlock()
	_ = s.conn.SetWriteDeadline(time.Now().Add(writeWait))
	return s.conn.WriteMessage(websocket.TextMessage, data)
}

// close tears the session down and unblocks all pending calls.
func (s *session) close() {
	s.closeOnce.Do(func() {
		close(s.done)
		_ = s.conn.Close()
	})
}
