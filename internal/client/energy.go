package client

import (
	"sync"

	"github.com/aegeanview/hotelhub/internal/routing"
	"github.com/aegeanview/hotelhub/internal/upstream"
)

// Category is one slice of the consumption breakdown chart.
type Category struct {
	Label string  `json:"label"`
	Power float64 `json:"power"`
}

// EnergyState is the property-wide energy view.
type EnergyState struct {
	TotalPower  float64            `json:"total_power"`  // W
	TodayEnergy float64            `json:"today_energy"` // kWh
	Savings     float64            `json:"savings"`      // EUR
	AC          Category           `json:"ac"`
	Lighting    Category           `json:"lighting"`
	Boilers     Category           `json:"boilers"`
	Other       Category           `json:"other"`
	RoomPower   map[string]float64 `json:"room_power"` // W per room
}

func defaultEnergy() EnergyState {
	return EnergyState{
		AC:        Category{Label: "Κλιματισμός"},
		Lighting:  Category{Label: "Φωτισμός"},
		Boilers:   Category{Label: "Θερμοσίφωνες"},
		Other:     Category{Label: "Λοιπά"},
		RoomPower: make(map[string]float64),
	}
}

// EnergyTree reduces energy sensor updates.
type EnergyTree struct {
	mu    sync.RWMutex
	state EnergyState
}

// NewEnergyTree creates the tree with zero readings.
func NewEnergyTree() *EnergyTree {
	return &EnergyTree{state: defaultEnergy()}
}

// ApplyAll rebuilds the energy view from a full snapshot.
func (t *EnergyTree) ApplyAll(entities map[string]upstream.EntityState, routes *routing.Table) {
	fresh := defaultEnergy()
	for entityID, st := range entities {
		target, ok := routes.Lookup(entityID)
		if !ok {
			continue
		}
		applyEnergyField(&fresh, target, st)
	}

	t.mu.Lock()
	t.state = fresh
	t.mu.Unlock()
}

// ApplyOne folds a single sensor update into the view.
func (t *EnergyTree) ApplyOne(target routing.Target, st upstream.EntityState) {
	t.mu.Lock()
	defer t.mu.Unlock()
	applyEnergyField(&t.state, target, st)
}

func applyEnergyField(e *EnergyState, target routing.Target, st upstream.EntityState) {
	v := parseNumber(st.State)
	switch target.Field {
	case routing.FieldTotalPower:
		e.TotalPower = v
	case routing.FieldTodayEnergy:
		e.TodayEnergy = v
	case routing.FieldSavings:
		e.Savings = v
	case routing.FieldACPower:
		e.AC.Power = v
	case routing.FieldLightingPower:
		e.Lighting.Power = v
	case routing.FieldBoilerPower:
		e.Boilers.Power = v
	case routing.FieldOtherPower:
		e.Other.Power = v
	case routing.FieldRoomPower:
		e.RoomPower[target.Object] = v
	}
}

// State returns a copy of the energy view.
func (t *EnergyTree) State() EnergyState {
	t.mu.RLock()
	defer t.mu.RUnlock()
	out := t.state
	out.RoomPower = make(map[string]float64, len(t.state.RoomPower))
	for id, v := range t.state.RoomPower {
		out.RoomPower[id] = v
	}
	return out
}
