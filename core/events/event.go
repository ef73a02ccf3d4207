package events

// Event is a structured notification produced by the futures engine as part
// of a state transition. Implementations carry the typed payload; EventType
// names the lifecycle step (created, deposited, minted, and so on).
type Event interface {
	EventType() string
}

// Emitter receives engine events. The node installs one to translate engine
// payloads into the RPC event feed; tests install their own to observe order.
type Emitter interface {
	Emit(Event)
}

// NoopEmitter discards every event. Engines fall back to it when no emitter
// has been wired so emission never needs a nil check.
type NoopEmitter struct{}

// Emit implements Emitter.
func (NoopEmitter) Emit(Event) {}
