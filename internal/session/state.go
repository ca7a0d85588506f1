package session

// State is the connection lifecycle state. Exactly one is active at a time;
// only Open accepts outbound frames.
type State int

const (
	// StateIdle means no connection exists and none is wanted.
	StateIdle State = iota

	// StateConnecting means a transport is being established.
	StateConnecting

	// StateOpen means the transport is live and accepts outbound frames.
	StateOpen

	// StateClosed means the transport dropped; reconnection may be pending.
	StateClosed
)

// String returns the string representation of a State.
func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateConnecting:
		return "connecting"
	case StateOpen:
		return "open"
	case StateClosed:
		return "closed"
	default:
		return "unknown"
	}
}

// Snapshot is the read-only view of the session handed to the host. Slices
// are copies; the host may not reach internal state through them.
type Snapshot struct {
	State       State
	Connected   bool
	Connecting  bool
	Err         string
	ActiveUsers []string
	TypingUsers []string
}
