package upstream

import json "github.com/goccy/go-json"

// Stream event vocabulary. These are the only payload shapes sent on the
// browser event stream; keep-alive comments are transport framing, not
// events.

// SnapshotEvent builds a full-state snapshot payload.
func SnapshotEvent(entities map[string]EntityState) []byte {
	data, err := json.Marshal(struct {
		Type     string                 `json:"type"`
		Entities map[string]EntityState `json:"entities"`
	}{Type: "snapshot", Entities: entities})
	if err != nil {
		return nil
	}
	return data
}

// DeltaEvent builds an incremental update payload for one entity.
func DeltaEvent(state EntityState) []byte {
	data, err := json.Marshal(struct {
		Type     string      `json:"type"`
		EntityID string      `json:"entity_id"`
		State    EntityState `json:"state"`
	}{Type: "delta", EntityID: state.EntityID, State: state})
	if err != nil {
		return nil
	}
	return data
}

// ConnectionEvent builds a connection status payload.
func ConnectionEvent(status Status) []byte {
	data, err := json.Marshal(struct {
		Type   string `json:"type"`
		Status Status `json:"status"`
	}{Type: "connection", Status: status})
	if err != nil {
		return nil
	}
	return data
}
