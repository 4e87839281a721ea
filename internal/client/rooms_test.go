package client

import (
	"reflect"
	"testing"

	"github.com/aegeanview/hotelhub/internal/routing"
	"github.com/aegeanview/hotelhub/internal/upstream"
)

func testSnapshot() map[string]upstream.EntityState {
	return map[string]upstream.EntityState{
		routing.StatusEntity("101"): {EntityID: routing.StatusEntity("101"), State: "Occupied"},
		routing.ACEntity("101"): {
			EntityID: routing.ACEntity("101"), State: "cool",
			Attributes: map[string]any{"current_temperature": 26.5, "temperature": 23.0},
		},
		routing.LockEntity("101"):            {EntityID: routing.LockEntity("101"), State: "locked"},
		routing.LightEntity("101", "side1"):  {EntityID: routing.LightEntity("101", "side1"), State: "on"},
		routing.RoomPowerEntity("101"):       {EntityID: routing.RoomPowerEntity("101"), State: "812.4"},
		routing.WindowEntity("102"):          {EntityID: routing.WindowEntity("102"), State: "on"},
		"sensor.untracked_thing":             {EntityID: "sensor.untracked_thing", State: "42"},
		routing.HotWaterTempEntity("103"):    {EntityID: routing.HotWaterTempEntity("103"), State: "unavailable"},
		routing.BoilerSwitchEntity("104"):    {EntityID: routing.BoilerSwitchEntity("104"), State: "on"},
	}
}

func TestApplyAllBuildsRooms(t *testing.T) {
	routes := routing.NewTable()
	tree := NewRoomTree()
	tree.ApplyAll(testSnapshot(), routes)

	r101, _ := tree.Room("101")
	if r101.Status != "Occupied" || !r101.Locked || !r101.LightSide1 {
		t.Errorf("room 101 = %+v", r101)
	}
	if r101.AC.Mode != "cool" || r101.AC.CurrentTemp != 26.5 || r101.AC.TargetTemp != 23.0 {
		t.Errorf("room 101 AC = %+v", r101.AC)
	}
	if r101.Power != 812.4 {
		t.Errorf("room 101 power = %v, want 812.4", r101.Power)
	}

	r102, _ := tree.Room("102")
	if !r102.WindowOpen {
		t.Error("room 102 window not open")
	}

	// Rooms with no entities in the snapshot stay at defaults.
	r302, _ := tree.Room("302")
	if !reflect.DeepEqual(r302, defaultRoom("302")) {
		t.Errorf("room 302 = %+v, want defaults", r302)
	}
}

func TestApplyAllIsIdempotent(t *testing.T) {
	routes := routing.NewTable()
	tree := NewRoomTree()

	snap := testSnapshot()
	tree.ApplyAll(snap, routes)
	first := tree.Rooms()

	// A stray edit in between must be wiped by the re-apply.
	tree.OptimisticUpdate("101", func(r *RoomState) { r.Locked = false })

	tree.ApplyAll(snap, routes)
	second := tree.Rooms()

	if !reflect.DeepEqual(first, second) {
		t.Errorf("re-applying the same snapshot changed state:\n%+v\n%+v", first, second)
	}
}

func TestApplyOneLeavesSiblingsUntouched(t *testing.T) {
	routes := routing.NewTable()
	tree := NewRoomTree()
	tree.ApplyAll(testSnapshot(), routes)

	before102, _ := tree.Room("102")
	before101, _ := tree.Room("101")

	target, _ := routes.Lookup(routing.LockEntity("101"))
	tree.ApplyOne(target, upstream.EntityState{EntityID: routing.LockEntity("101"), State: "unlocked"})

	after101, _ := tree.Room("101")
	if after101.Locked {
		t.Error("lock delta not applied")
	}

	// Only the one field moved; everything else on 101 is unchanged.
	before101.Locked = false
	if !reflect.DeepEqual(before101, after101) {
		t.Errorf("delta touched other fields:\n%+v\n%+v", before101, after101)
	}

	after102, _ := tree.Room("102")
	if !reflect.DeepEqual(before102, after102) {
		t.Errorf("delta for 101 changed room 102:\n%+v\n%+v", before102, after102)
	}
}

func TestNumericCoercion(t *testing.T) {
	routes := routing.NewTable()
	tree := NewRoomTree()
	tree.ApplyAll(testSnapshot(), routes)

	// "unavailable" parses to 0 rather than poisoning the room.
	r103, _ := tree.Room("103")
	if r103.HotWaterTemp != 0 {
		t.Errorf("hot water temp = %v, want 0", r103.HotWaterTemp)
	}
}

func TestOptimisticRollbackIsExact(t *testing.T) {
	routes := routing.NewTable()
	tree := NewRoomTree()
	tree.ApplyAll(testSnapshot(), routes)

	before, _ := tree.Room("101")

	rollback := tree.OptimisticUpdate("101", func(r *RoomState) {
		r.Locked = false
		r.AC.Mode = "off"
	})

	patched, _ := tree.Room("101")
	if patched.Locked || patched.AC.Mode != "off" {
		t.Fatalf("patch not applied: %+v", patched)
	}

	rollback()

	after, _ := tree.Room("101")
	if !reflect.DeepEqual(before, after) {
		t.Errorf("rollback inexact:\n%+v\n%+v", before, after)
	}
}

func TestOptimisticRollbackIsLastWriteWins(t *testing.T) {
	routes := routing.NewTable()
	tree := NewRoomTree()
	tree.ApplyAll(testSnapshot(), routes)

	rollback := tree.OptimisticUpdate("101", func(r *RoomState) { r.Locked = false })

	// A server delta lands between patch and rollback.
	target, _ := routes.Lookup(routing.StatusEntity("101"))
	tree.ApplyOne(target, upstream.EntityState{EntityID: routing.StatusEntity("101"), State: "Cleaning"})

	rollback()

	// Rollback restores the full pre-patch copy; the intervening delta is
	// lost until the next update or snapshot repairs it.
	after, _ := tree.Room("101")
	if after.Status != "Occupied" {
		t.Errorf("status = %q, want the pre-patch Occupied", after.Status)
	}
	if !after.Locked {
		t.Error("rollback did not restore the lock")
	}
}

func TestOptimisticUpdateUnknownRoom(t *testing.T) {
	tree := NewRoomTree()
	rollback := tree.OptimisticUpdate("999", func(r *RoomState) { r.Locked = true })
	rollback() // must be a no-op, not a panic
}
