package epsel

// State is the lifecycle phase of a sampling run.
//
// Runs move NOT_STARTED -> STREAMING -> FILTERING -> SELECTING -> DONE, or
// to FAILED when ensemble resolution or parameter validation fails before
// any configuration is processed. Once DONE, results are immutable.
type State int32

const (
	StateNotStarted State = iota
	StateStreaming
	StateFiltering
	StateSelecting
	StateDone
	StateFailed
)

func (s State) String() string {
	switch s {
	case StateNotStarted:
		return "NOT_STARTED"
	case StateStreaming:
		return "STREAMING"
	case StateFiltering:
		return "FILTERING"
	case StateSelecting:
		return "SELECTING"
	case StateDone:
		return "DONE"
	case StateFailed:
		return "FAILED"
	default:
		return "UNKNOWN"
	}
}
