package monitor

// State is the lifecycle state of a measurement session.
type State int

const (
	Idle    State = iota // created, nothing sampled yet
	Running              // baseline taken, command running
	Stopped              // command exited, totals computed
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Running:
		return "running"
	case Stopped:
		return "stopped"
	default:
		return "unknown"
	}
}
