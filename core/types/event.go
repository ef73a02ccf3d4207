package types

// Event is the wire form of a settlement lifecycle notification. The engine
// emits one per completed mutation; the node buffers them for RPC consumers.
type Event struct {
	Type       string            `json:"type"`
	Attributes map[string]string `json:"attributes"`
}

// Attribute returns the named attribute or an empty string when absent.
func (e Event) Attribute(key string) string {
	if e.Attributes == nil {
		return ""
	}
	return e.Attributes[key]
}
