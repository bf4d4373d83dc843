package instrument

// State is the connection state of one driver.
type State int

const (
	// Disconnected means no session is open, either before the first open or after Close.
	Disconnected State = iota
	// Connecting means the driver is inside its bounded open loop.
	Connecting
	// Connected means the session is open and measurements may be taken.
	Connected
	// Faulted means the retry bound was exhausted; Reopen is required.
	Faulted
)

// String returns the lower-case state name.
func (s State) String() string {
	switch s {
	case Disconnected:
		return "disconnected"
	case Connecting:
		return "connecting"
	case Connected:
		return "connected"
	case Faulted:
		return "faulted"
	default:
		return "unknown"
	}
}

// StateObserver is notified after every state change of a driver.
type StateObserver func(instrument string, state State)
