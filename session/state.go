package session

// State is a lifecycle state.
type State int

const (
	StateIdle State = iota
	StateRequesting
	StateInProgress
	StateCompleting
	StateCompleted
	StateAborted
	StateFailed
)

// String returns the lower-case state name.
func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateRequesting:
		return "requesting"
	case StateInProgress:
		return "in_progress"
	case StateCompleting:
		return "completing"
	case StateCompleted:
		return "completed"
	case StateAborted:
		return "aborted"
	case StateFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// Active reports whether a conversation occupies the lifecycle.
func (s State) Active() bool {
	return s == StateRequesting || s == StateInProgress || s == StateCompleting
}

// Terminal reports whether the conversation has ended.
func (s State) Terminal() bool {
	return s == StateCompleted || s == StateAborted || s == StateFailed
}

// MarshalText implements encoding.TextMarshaler.
func (s State) MarshalText() ([]byte, error) { return []byte(s.String()), nil }
