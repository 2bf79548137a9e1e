package watchdog

// State is the lifecycle phase of the watchdog daemon.
type State int32

const (
	StateInitializing State = iota
	StateReady
	StateProbing
	StateDeciding
	StateSleeping
	StateShuttingDown
	StateTerminated
)

func (s State) String() string {
	switch s {
	case StateInitializing:
		return "initializing"
	case StateReady:
		return "ready"
	case StateProbing:
		return "probing"
	case StateDeciding:
		return "deciding"
	case StateSleeping:
		return "sleeping"
	case StateShuttingDown:
		return "shutting_down"
	case StateTerminated:
		return "terminated"
	default:
		return "unknown"
	}
}
