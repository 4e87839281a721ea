package upstream

// EntityState is the last reported state of one upstream entity. Instances
// are immutable once received; a newer update for the same entity ID
// replaces the whole value.
type EntityState struct {
	EntityID    string         `json:"entity_id"`
	State       string         `json:"state"`
	Attributes  map[string]any `json:"attributes"`
	LastChanged string         `json:"last_changed"`
	LastUpdated string         `json:"last_updated"`
}

// Status is the upstream connection status mirrored to browsers.
type Status string

const (
	StatusConnecting Status = "connecting"
	StatusConnected  Status = "connected"
	StatusError      Status = "error"
)
