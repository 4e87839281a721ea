package client

import (
	"sync"

	"github.com/aegeanview/hotelhub/internal/routing"
	"github.com/aegeanview/hotelhub/internal/upstream"
)

// Heater is one central solar water heater.
type Heater struct {
	ID            string  `json:"id"`
	Temp          float64 `json:"temp"`
	CollectorTemp float64 `json:"collector_temp"`
	ElementOn     bool    `json:"element_on"`
	MinThreshold  float64 `json:"min_threshold"`
	MaxThreshold  float64 `json:"max_threshold"`
}

// Boiler is one per-room electric boiler.
type Boiler struct {
	RoomID  string  `json:"room_id"`
	On      bool    `json:"on"`
	Runtime float64 `json:"runtime"` // minutes today
}

func defaultHeater(id string) Heater {
	// Threshold defaults match the platform input_number ranges; shown
	// until the snapshot delivers the configured values.
	return Heater{ID: id, MinThreshold: 40, MaxThreshold: 65}
}

// HotWaterTree reduces heater and boiler updates.
type HotWaterTree struct {
	mu      sync.RWMutex
	heaters map[string]Heater
	boilers map[string]Boiler
}

// NewHotWaterTree creates the tree with every heater and room boiler present.
func NewHotWaterTree() *HotWaterTree {
	t := &HotWaterTree{
		heaters: make(map[string]Heater, len(routing.Heaters)),
		boilers: make(map[string]Boiler, len(routing.Rooms)),
	}
	for _, id := range routing.Heaters {
		t.heaters[id] = defaultHeater(id)
	}
	for _, id := range routing.Rooms {
		t.boilers[id] = Boiler{RoomID: id}
	}
	return t
}

// ApplyAll rebuilds the tree from a full snapshot.
func (t *HotWaterTree) ApplyAll(entities map[string]upstream.EntityState, routes *routing.Table) {
	heaters := make(map[string]Heater, len(routing.Heaters))
	for _, id := range routing.Heaters {
		heaters[id] = defaultHeater(id)
	}
	boilers := make(map[string]Boiler, len(routing.Rooms))
	for _, id := range routing.Rooms {
		boilers[id] = Boiler{RoomID: id}
	}

	for entityID, st := range entities {
		target, ok := routes.Lookup(entityID)
		if !ok {
			continue
		}
		applyHotWaterField(heaters, boilers, target, st)
	}

	t.mu.Lock()
	t.heaters = heaters
	t.boilers = boilers
	t.mu.Unlock()
}

// ApplyOne folds a single update into the tree.
func (t *HotWaterTree) ApplyOne(target routing.Target, st upstream.EntityState) {
	t.mu.Lock()
	defer t.mu.Unlock()
	applyHotWaterField(t.heaters, t.boilers, target, st)
}

func applyHotWaterField(heaters map[string]Heater, boilers map[string]Boiler, target routing.Target, st upstream.EntityState) {
	switch target.Field {
	case routing.FieldHeaterTemp, routing.FieldCollectorTemp, routing.FieldHeaterElement,
		routing.FieldMinThreshold, routing.FieldMaxThreshold:
		h, ok := heaters[target.Object]
		if !ok {
			return
		}
		switch target.Field {
		case routing.FieldHeaterTemp:
			h.Temp = parseNumber(st.State)
		case routing.FieldCollectorTemp:
			h.CollectorTemp = parseNumber(st.State)
		case routing.FieldHeaterElement:
			h.ElementOn = isOn(st.State)
		case routing.FieldMinThreshold:
			h.MinThreshold = parseNumber(st.State)
		case routing.FieldMaxThreshold:
			h.MaxThreshold = parseNumber(st.State)
		}
		heaters[target.Object] = h

	case routing.FieldBoilerSwitch, routing.FieldBoilerRuntime:
		b, ok := boilers[target.Object]
		if !ok {
			return
		}
		if target.Field == routing.FieldBoilerSwitch {
			b.On = isOn(st.State)
		} else {
			b.Runtime = parseNumber(st.State)
		}
		boilers[target.Object] = b
	}
}

// Heater returns a copy of one heater's state.
func (t *HotWaterTree) Heater(id string) (Heater, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	h, ok := t.heaters[id]
	return h, ok
}

// Boiler returns a copy of one room boiler's state.
func (t *HotWaterTree) Boiler(roomID string) (Boiler, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	b, ok := t.boilers[roomID]
	return b, ok
}

// Heaters returns a copy of all heaters.
func (t *HotWaterTree) Heaters() map[string]Heater {
	t.mu.RLock()
	defer t.mu.RUnlock()
	out := make(map[string]Heater, len(t.heaters))
	for id, h := range t.heaters {
		out[id] = h
	}
	return out
}

// Boilers returns a copy of all room boilers.
func (t *HotWaterTree) Boilers() map[string]Boiler {
	t.mu.RLock()
	defer t.mu.RUnlock()
	out := make(map[string]Boiler, len(t.boilers))
	for id, b := range t.boilers {
		out[id] = b
	}
	return out
}

// OptimisticBoiler flips a room boiler immediately and returns an exact
// rollback, mirroring RoomTree.OptimisticUpdate.
func (t *HotWaterTree) OptimisticBoiler(roomID string, on bool) func() {
	t.mu.Lock()
	defer t.mu.Unlock()

	prev, ok := t.boilers[roomID]
	if !ok {
		return func() {}
	}
	next := prev
	next.On = on
	t.boilers[roomID] = next

	return func() {
		t.mu.Lock()
		t.boilers[roomID] = prev
		t.mu.Unlock()
	}
}
