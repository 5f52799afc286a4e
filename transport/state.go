package transport

// State represents the session connection state.
type State uint8

const (
	// StateDisconnected indicates no stream is attached.
	StateDisconnected State = iota

	// StateConnecting indicates a dial attempt is in progress.
	StateConnecting

	// StateConnected indicates a usable stream is attached.
	StateConnected

	// StateDisposed indicates the session has been closed. It is terminal.
	StateDisposed
)

// String returns a human-readable state name.
func (s State) String() string {
	switch s {
	case StateDisconnected:
		return "DISCONNECTED"
	case StateConnecting:
		return "CONNECTING"
	case StateConnected:
		return "CONNECTED"
	case StateDisposed:
		return "DISPOSED"
	default:
		return "UNKNOWN"
	}
}
