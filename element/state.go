package element

// State is an element's lifecycle state per spec.md §4.4:
// NONE → OPENING → RUNNING ⇄ PAUSED → FINISHED | STOPPED | ERROR → NONE.
type State uint8

const (
	None State = iota
	Opening
	Running
	Paused
	Finished
	Stopped
	Error
)

func (s State) String() string {
	switch s {
	case None:
		return "NONE"
	case Opening:
		return "OPENING"
	case Running:
		return "RUNNING"
	case Paused:
		return "PAUSED"
	case Finished:
		return "FINISHED"
	case Stopped:
		return "STOPPED"
	case Error:
		return "ERROR"
	default:
		return "UNKNOWN"
	}
}

// Terminal reports whether s is one of the states an element settles
// into before it can only be reset back to NONE.
func (s State) Terminal() bool {
	return s == Finished || s == Stopped || s == Error
}

// transitions is the totalised state table spec.md §4.4 describes in
// prose. Any (from, to) pair absent from the set is rejected.
var transitions = map[State]map[State]bool{
	None:     {Opening: true},
	Opening:  {Running: true, Error: true, Stopped: true},
	Running:  {Paused: true, Finished: true, Stopped: true, Error: true},
	Paused:   {Running: true, Stopped: true, Error: true},
	Finished: {None: true},
	Stopped:  {None: true},
	Error:    {None: true},
}

// ValidTransition reports whether moving from 'from' to 'to' is allowed.
func ValidTransition(from, to State) bool {
	return transitions[from][to]
}
