package types

// Event is the generic attribute form engine events are flattened into for
// logging and RPC subscribers.
type Event struct {
	Type       string            `json:"type"`
	Attributes map[string]string `json:"attributes"`
}
