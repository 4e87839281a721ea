package client

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/aegeanview/hotelhub/internal/routing"
	"github.com/aegeanview/hotelhub/internal/upstream"
)

func newTestStream() (*Stream, *Trees) {
	trees := NewTrees()
	s := NewStream("http://unused/api/stream", "tok", routing.NewTable(), trees, zerolog.Nop())
	return s, trees
}

func TestDispatchSnapshotFeedsAllTrees(t *testing.T) {
	s, trees := newTestStream()

	s.dispatch([]byte(`{"type":"snapshot","entities":{
		"input_select.room_101_status":{"entity_id":"input_select.room_101_status","state":"Cleaning"},
		"sensor.hotel_total_power":{"entity_id":"sensor.hotel_total_power","state":"3100"},
		"sensor.solar_heater_1_temp":{"entity_id":"sensor.solar_heater_1_temp","state":"58"},
		"automation.boiler_schedule":{"entity_id":"automation.boiler_schedule","state":"off"}
	}}`))

	if r, _ := trees.Rooms.Room("101"); r.Status != "Cleaning" {
		t.Errorf("room status = %q", r.Status)
	}
	if e := trees.Energy.State(); e.TotalPower != 3100 {
		t.Errorf("total power = %v", e.TotalPower)
	}
	if h, _ := trees.HotWater.Heater("1"); h.Temp != 58 {
		t.Errorf("heater temp = %v", h.Temp)
	}
	if a, _ := trees.Automations.Automation("boiler_schedule"); a.Enabled {
		t.Error("automation still enabled")
	}
}

func TestDispatchDelta(t *testing.T) {
	s, trees := newTestStream()

	s.dispatch([]byte(`{"type":"delta","entity_id":"lock.room_101_door",
		"state":{"entity_id":"lock.room_101_door","state":"locked"}}`))

	if r, _ := trees.Rooms.Room("101"); !r.Locked {
		t.Error("delta not applied")
	}
}

func TestDispatchDropsMalformed(t *testing.T) {
	s, trees := newTestStream()
	before, _ := trees.Rooms.Room("101")

	for _, payload := range []string{
		`not json at all`,
		`{"type":"snapshot","entities":"wrong shape"}`,
		`{"type":"delta","entity_id":123}`,
		`{"type":"wormhole"}`,
		`{}`,
	} {
		s.dispatch([]byte(payload))
	}

	// Malformed frames change nothing and do not panic.
	after, _ := trees.Rooms.Room("101")
	if before != after {
		t.Errorf("malformed frames mutated state:\n%+v\n%+v", before, after)
	}
}

func TestDispatchConnectionStatus(t *testing.T) {
	s, _ := newTestStream()

	if s.Status() != upstream.StatusConnecting {
		t.Fatalf("initial status = %q", s.Status())
	}
	s.dispatch([]byte(`{"type":"connection","status":"connected"}`))
	if s.Status() != upstream.StatusConnected {
		t.Fatalf("status = %q, want connected", s.Status())
	}
	s.dispatch([]byte(`{"type":"connection","status":"error"}`))
	if s.Status() != upstream.StatusError {
		t.Fatalf("status = %q, want error", s.Status())
	}
}

func TestConsumeParsesWireFormat(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if c, err := r.Cookie("hotelhub_session"); err != nil || c.Value != "tok" {
			http.Error(w, "no session", http.StatusUnauthorized)
			return
		}
		w.Header().Set("Content-Type", "text/event-stream")
		fmt.Fprint(w, "data: {\"type\":\"connection\",\"status\":\"connected\"}\n\n")
		fmt.Fprint(w, ": keepalive\n\n")
		fmt.Fprint(w, "data: {\"type\":\"delta\",\"entity_id\":\"lock.room_101_door\",")
		fmt.Fprint(w, "\"state\":{\"entity_id\":\"lock.room_101_door\",\"state\":\"locked\"}}\n\n")
	}))
	t.Cleanup(srv.Close)

	trees := NewTrees()
	s := NewStream(srv.URL, "tok", routing.NewTable(), trees, zerolog.Nop())

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	// consume returns once the server closes the body.
	if err := s.consume(ctx); err == nil {
		t.Fatal("consume returned nil for a finite stream")
	}

	if s.Status() != upstream.StatusConnected {
		t.Errorf("status = %q, want connected", s.Status())
	}
	if r, _ := trees.Rooms.Room("101"); !r.Locked {
		t.Error("delta from the wire not applied")
	}
}
