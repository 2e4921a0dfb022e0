package pipeline

import "github.com/jangala-dev/gmf/element"

// State reuses element.State's enum directly: its declaration order
// (None, Opening, Running, Paused, Finished, Stopped, Error) already
// matches spec.md §4.8's partial order "NONE < OPENING < RUNNING <
// PAUSED < FINISHED < STOPPED < ERROR", so the pipeline and its elements
// share one vocabulary instead of a parallel enum.
type State = element.State

const (
	None     = element.None
	Opening  = element.Opening
	Running  = element.Running
	Paused   = element.Paused
	Finished = element.Finished
	Stopped  = element.Stopped
	Error    = element.Error
)

// supremum computes the pipeline's overall state from its elements' per
// spec.md §4.8: "the supremum over contained element states... (ERROR
// dominates; FINISHED set only when all elements FINISHED)". A plain
// numeric max would report FINISHED as soon as one element finishes
// while its neighbours are still RUNNING, so FINISHED elements are
// excluded from the max unless every element has reached it.
func supremum(states []State) State {
	if len(states) == 0 {
		return None
	}

	allFinished := true
	anyError := false
	anyStopped := false
	best := None
	for _, s := range states {
		switch s {
		case Error:
			anyError = true
		case Stopped:
			anyStopped = true
		case Finished:
			// contributes nothing to 'best' unless every element agrees
		default:
			allFinished = false
			if s > best {
				best = s
			}
		}
	}
	if anyError {
		return Error
	}
	if anyStopped {
		return Stopped
	}
	if allFinished {
		return Finished
	}
	return best
}
