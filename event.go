package filein

// EventType is the kind of a control [Event]
type EventType int

const (
	EventUnknown EventType = iota
	EventPlay
	EventStop
)

func (t EventType) String() string {
	switch t {
	case EventPlay:
		return "play"
	case EventStop:
		return "stop"
	default:
		return "unknown"
	}
}

// Event is a playback-control signal sent by the host to an output port.
type Event struct {
	Type EventType
	// PortID addresses the target port. Empty means no target.
	PortID string
	// StartRange is the playback start in seconds (EventPlay only)
	StartRange float64
}
