package client

import (
	"sync"

	"github.com/aegeanview/hotelhub/internal/routing"
	"github.com/aegeanview/hotelhub/internal/upstream"
)

// AutomationState is one automation toggle as the dashboard shows it.
type AutomationState struct {
	ID      string `json:"id"`
	Label   string `json:"label"`
	Desc    string `json:"desc"`
	Icon    string `json:"icon"`
	Enabled bool   `json:"enabled"`
}

func defaultAutomations() map[string]AutomationState {
	out := make(map[string]AutomationState, len(routing.Automations))
	for _, a := range routing.Automations {
		// Enabled until the platform says otherwise; automations default
		// to on and a disabled toggle flashing at page load looks broken.
		out[a.ID] = AutomationState{ID: a.ID, Label: a.Label, Desc: a.Desc, Icon: a.Icon, Enabled: true}
	}
	return out
}

// AutomationTree reduces automation on/off updates.
type AutomationTree struct {
	mu    sync.RWMutex
	autos map[string]AutomationState
}

// NewAutomationTree creates the tree with the fixed automation list.
func NewAutomationTree() *AutomationTree {
	return &AutomationTree{autos: defaultAutomations()}
}

// ApplyAll rebuilds the tree from a full snapshot.
func (t *AutomationTree) ApplyAll(entities map[string]upstream.EntityState, routes *routing.Table) {
	fresh := defaultAutomations()
	for entityID, st := range entities {
		target, ok := routes.Lookup(entityID)
		if !ok || target.Field != routing.FieldAutomation {
			continue
		}
		if a, ok := fresh[target.Object]; ok {
			a.Enabled = isOn(st.State)
			fresh[target.Object] = a
		}
	}

	t.mu.Lock()
	t.autos = fresh
	t.mu.Unlock()
}

// ApplyOne folds a single automation update into the tree.
func (t *AutomationTree) ApplyOne(target routing.Target, st upstream.EntityState) {
	if target.Field != routing.FieldAutomation {
		return
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	if a, ok := t.autos[target.Object]; ok {
		a.Enabled = isOn(st.State)
		t.autos[target.Object] = a
	}
}

// Automation returns a copy of one automation's state.
func (t *AutomationTree) Automation(id string) (AutomationState, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	a, ok := t.autos[id]
	return a, ok
}

// Automations returns a copy of all automations.
func (t *AutomationTree) Automations() map[string]AutomationState {
	t.mu.RLock()
	defer t.mu.RUnlock()
	out := make(map[string]AutomationState, len(t.autos))
	for id, a := range t.autos {
		out[id] = a
	}
	return out
}

// OptimisticToggle flips an automation immediately and returns an exact
// rollback.
func (t *AutomationTree) OptimisticToggle(id string, enabled bool) func() {
	t.mu.Lock()
	defer t.mu.Unlock()

	prev, ok := t.autos[id]
	if !ok {
		return func() {}
	}
	next := prev
	next.Enabled = enabled
	t.autos[id] = next

	return func() {
		t.mu.Lock()
		t.autos[id] = prev
		t.mu.Unlock()
	}
}
