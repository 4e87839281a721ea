package client

import (
	"testing"

	"github.com/aegeanview/hotelhub/internal/routing"
	"github.com/aegeanview/hotelhub/internal/upstream"
)

func TestEnergyTree(t *testing.T) {
	routes := routing.NewTable()
	tree := NewEnergyTree()

	tree.ApplyAll(map[string]upstream.EntityState{
		routing.TotalPowerEntity:       {EntityID: routing.TotalPowerEntity, State: "4250.7"},
		routing.TodayEnergyEntity:      {EntityID: routing.TodayEnergyEntity, State: "31.2"},
		routing.ACPowerEntity:          {EntityID: routing.ACPowerEntity, State: "2100"},
		routing.RoomPowerEntity("201"): {EntityID: routing.RoomPowerEntity("201"), State: "bogus"},
	}, routes)

	e := tree.State()
	if e.TotalPower != 4250.7 || e.TodayEnergy != 31.2 {
		t.Errorf("totals = %v / %v", e.TotalPower, e.TodayEnergy)
	}
	if e.AC.Power != 2100 || e.AC.Label == "" {
		t.Errorf("AC category = %+v", e.AC)
	}
	if e.RoomPower["201"] != 0 {
		t.Errorf("bogus reading = %v, want 0", e.RoomPower["201"])
	}

	target, _ := routes.Lookup(routing.SavingsEntity)
	tree.ApplyOne(target, upstream.EntityState{EntityID: routing.SavingsEntity, State: "12.5"})
	if got := tree.State().Savings; got != 12.5 {
		t.Errorf("savings = %v, want 12.5", got)
	}

	// State returns a copy.
	tree.State().RoomPower["201"] = 999
	if tree.State().RoomPower["201"] == 999 {
		t.Error("State leaked live map")
	}
}

func TestHotWaterTree(t *testing.T) {
	routes := routing.NewTable()
	tree := NewHotWaterTree()

	h1, _ := tree.Heater("1")
	if h1.MinThreshold != 40 || h1.MaxThreshold != 65 {
		t.Errorf("default thresholds = %v/%v, want 40/65", h1.MinThreshold, h1.MaxThreshold)
	}

	tree.ApplyAll(map[string]upstream.EntityState{
		routing.HeaterTempEntity("1"):      {EntityID: routing.HeaterTempEntity("1"), State: "52.3"},
		routing.HeaterMinEntity("1"):       {EntityID: routing.HeaterMinEntity("1"), State: "45"},
		routing.HeaterElementEntity("2"):   {EntityID: routing.HeaterElementEntity("2"), State: "on"},
		routing.BoilerSwitchEntity("101"):  {EntityID: routing.BoilerSwitchEntity("101"), State: "on"},
		routing.BoilerRuntimeEntity("101"): {EntityID: routing.BoilerRuntimeEntity("101"), State: "47"},
	}, routes)

	h1, _ = tree.Heater("1")
	if h1.Temp != 52.3 || h1.MinThreshold != 45 {
		t.Errorf("heater 1 = %+v", h1)
	}
	h2, _ := tree.Heater("2")
	if !h2.ElementOn {
		t.Errorf("heater 2 = %+v", h2)
	}

	b, _ := tree.Boiler("101")
	if !b.On || b.Runtime != 47 {
		t.Errorf("boiler 101 = %+v", b)
	}

	rollback := tree.OptimisticBoiler("101", false)
	if b, _ := tree.Boiler("101"); b.On {
		t.Error("optimistic toggle not applied")
	}
	rollback()
	if b, _ := tree.Boiler("101"); !b.On {
		t.Error("rollback did not restore boiler")
	}
}

func TestAutomationTree(t *testing.T) {
	routes := routing.NewTable()
	tree := NewAutomationTree()

	// Enabled by default until the platform reports otherwise.
	a, ok := tree.Automation("night_lighting")
	if !ok || !a.Enabled || a.Label == "" {
		t.Fatalf("default automation = %+v, %v", a, ok)
	}

	tree.ApplyAll(map[string]upstream.EntityState{
		"automation.night_lighting": {EntityID: "automation.night_lighting", State: "off"},
	}, routes)

	if a, _ := tree.Automation("night_lighting"); a.Enabled {
		t.Error("snapshot did not disable the automation")
	}
	if a, _ := tree.Automation("leak_alert"); !a.Enabled {
		t.Error("unrelated automation changed")
	}

	target, _ := routes.Lookup("automation.night_lighting")
	tree.ApplyOne(target, upstream.EntityState{EntityID: "automation.night_lighting", State: "on"})
	if a, _ := tree.Automation("night_lighting"); !a.Enabled {
		t.Error("delta did not enable the automation")
	}

	rollback := tree.OptimisticToggle("night_lighting", false)
	if a, _ := tree.Automation("night_lighting"); a.Enabled {
		t.Error("optimistic toggle not applied")
	}
	rollback()
	if a, _ := tree.Automation("night_lighting"); !a.Enabled {
		t.Error("rollback did not restore the automation")
	}
}
