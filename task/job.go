package task

import (
	"time"

	"github.com/jangala-dev/gmf/element"
)

// Op is the scheduler-facing operation a Job performs on its element.
type Op uint8

const (
	OpOpen Op = iota
	OpProcess
	OpClose
)

func (o Op) String() string {
	switch o {
	case OpOpen:
		return "OPEN"
	case OpProcess:
		return "PROCESS"
	case OpClose:
		return "CLOSE"
	default:
		return "UNKNOWN"
	}
}

// Job is one scheduled unit of work, per spec.md §4.7: "for every
// element, append (element, OPEN), (element, PROCESS) (repeated
// implicitly), then (element, CLOSE)".
type Job struct {
	Element    element.Element
	Op         Op
	TickBudget time.Duration
}
