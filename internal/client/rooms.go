package client

import (
	"sync"

	"github.com/aegeanview/hotelhub/internal/routing"
	"github.com/aegeanview/hotelhub/internal/upstream"
)

// ACState is the climate unit of one room.
type ACState struct {
	Mode        string  `json:"mode"`
	CurrentTemp float64 `json:"current_temp"`
	TargetTemp  float64 `json:"target_temp"`
}

// RoomState is everything the dashboard shows for one room. It is a plain
// value: copying it copies the whole room, which is what makes optimistic
// rollback exact.
type RoomState struct {
	ID            string  `json:"id"`
	Status        string  `json:"status"`
	AC            ACState `json:"ac"`
	LightCeiling  bool    `json:"light_ceiling"`
	LightSide1    bool    `json:"light_side1"`
	LightSide2    bool    `json:"light_side2"`
	LightAmbient  bool    `json:"light_ambient"`
	Locked        bool    `json:"locked"`
	WindowOpen    bool    `json:"window_open"`
	BoilerSource  string  `json:"boiler_source"`
	HotWaterTemp  float64 `json:"hot_water_temp"`
	Humidity      float64 `json:"humidity"`
	SmokeAlert    bool    `json:"smoke_alert"`
	LeakAlert     bool    `json:"leak_alert"`
	Power         float64 `json:"power"`
	BoilerOn      bool    `json:"boiler_on"`
	BoilerRuntime float64 `json:"boiler_runtime"`
}

func defaultRoom(id string) RoomState {
	return RoomState{ID: id, Status: "Vacant", AC: ACState{Mode: "off"}}
}

// RoomTree holds the per-room state for the whole property.
type RoomTree struct {
	mu    sync.RWMutex
	rooms map[string]RoomState
}

// NewRoomTree creates the tree with every room present in its default state,
// so the UI renders a full grid before the first snapshot arrives.
func NewRoomTree() *RoomTree {
	t := &RoomTree{rooms: make(map[string]RoomState, len(routing.Rooms))}
	for _, id := range routing.Rooms {
		t.rooms[id] = defaultRoom(id)
	}
	return t
}

// ApplyAll rebuilds the tree from a full snapshot. Rebuilding from defaults
// makes the operation idempotent: applying the same snapshot twice yields
// identical state, and stale optimistic edits are discarded.
func (t *RoomTree) ApplyAll(entities map[string]upstream.EntityState, routes *routing.Table) {
	fresh := make(map[string]RoomState, len(routing.Rooms))
	for _, id := range routing.Rooms {
		fresh[id] = defaultRoom(id)
	}

	for entityID, st := range entities {
		target, ok := routes.Lookup(entityID)
		if !ok {
			continue
		}
		room, ok := fresh[target.Object]
		if !ok {
			continue
		}
		applyRoomField(&room, target.Field, st)
		fresh[target.Object] = room
	}

	t.mu.Lock()
	t.rooms = fresh
	t.mu.Unlock()
}

// ApplyOne folds a single entity update into the tree. Updates for objects
// that are not rooms are ignored; sibling rooms are untouched.
func (t *RoomTree) ApplyOne(target routing.Target, st upstream.EntityState) {
	t.mu.Lock()
	defer t.mu.Unlock()

	room, ok := t.rooms[target.Object]
	if !ok {
		return
	}
	applyRoomField(&room, target.Field, st)
	t.rooms[target.Object] = room
}

func applyRoomField(room *RoomState, field routing.Field, st upstream.EntityState) {
	switch field {
	case routing.FieldStatus:
		room.Status = st.State
	case routing.FieldAC:
		room.AC = ACState{
			Mode:        st.State,
			CurrentTemp: attrNumber(st, "current_temperature"),
			TargetTemp:  attrNumber(st, "temperature"),
		}
	case routing.FieldLightCeiling:
		room.LightCeiling = isOn(st.State)
	case routing.FieldLightSide1:
		room.LightSide1 = isOn(st.State)
	case routing.FieldLightSide2:
		room.LightSide2 = isOn(st.State)
	case routing.FieldLightAmbient:
		room.LightAmbient = isOn(st.State)
	case routing.FieldLock:
		room.Locked = st.State == "locked"
	case routing.FieldWindow:
		room.WindowOpen = isOn(st.State)
	case routing.FieldBoilerSource:
		room.BoilerSource = st.State
	case routing.FieldHotWaterTemp:
		room.HotWaterTemp = parseNumber(st.State)
	case routing.FieldHumidity:
		room.Humidity = parseNumber(st.State)
	case routing.FieldSmokeAlert:
		room.SmokeAlert = isOn(st.State)
	case routing.FieldLeakAlert:
		room.LeakAlert = isOn(st.State)
	case routing.FieldRoomPower:
		room.Power = parseNumber(st.State)
	case routing.FieldBoilerSwitch:
		room.BoilerOn = isOn(st.State)
	case routing.FieldBoilerRuntime:
		room.BoilerRuntime = parseNumber(st.State)
	}
}

// Room returns a copy of one room's state.
func (t *RoomTree) Room(id string) (RoomState, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	room, ok := t.rooms[id]
	return room, ok
}

// Rooms returns a copy of the whole tree.
func (t *RoomTree) Rooms() map[string]RoomState {
	t.mu.RLock()
	defer t.mu.RUnlock()
	out := make(map[string]RoomState, len(t.rooms))
	for id, room := range t.rooms {
		out[id] = room
	}
	return out
}

// OptimisticUpdate applies patch to a room immediately and returns a rollback
// that restores the exact pre-patch value. Rollback is last-write-wins: a
// server delta that lands in between is overwritten by the rollback, and the
// next delta or snapshot corrects it.
func (t *RoomTree) OptimisticUpdate(id string, patch func(*RoomState)) func() {
	t.mu.Lock()
	defer t.mu.Unlock()

	prev, ok := t.rooms[id]
	if !ok {
		return func() {}
	}

	next := prev
	patch(&next)
	t.rooms[id] = next

	return func() {
		t.mu.Lock()
		t.rooms[id] = prev
		t.mu.Unlock()
	}
}
