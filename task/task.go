// Package task implements the worker that drives a pipeline as a
// cooperative sequence of element jobs, per spec.md §4.7: one goroutine
// runs a serial job list with RUN/PAUSE/STOP control bits, re-scheduling
// TRUNCATE jobs, retiring DONE/FAIL elements, and closing every element
// once the run ends.
package task

import (
	"context"
	"time"

	"github.com/jangala-dev/gmf/element"
	"github.com/jangala-dev/gmf/port"
)

// pausePoll is how often a paused task re-checks its control bits, using
// the teacher's resetTimer/drainTimer idiom to avoid leaking a stale tick
// into the next wait.
const pausePoll = 20 * time.Millisecond

// Status is what a completed run settled into.
type Status int

const (
	StatusFinished Status = iota // every element reached FINISHED
	StatusStopped                // Stop() was called
	StatusFailed                 // an element's job returned JOB_FAIL
)

// Task owns one worker goroutine over a serial, ordered element chain.
// Two tasks may run in parallel over disjoint element sets; sharing an
// element across tasks is undefined behaviour (spec.md §4.7).
type Task struct {
	elements   []element.Element
	tickBudget time.Duration

	bits     controlBits
	resumeCh chan struct{}
	doneCh   chan struct{}

	result Status
	err    error

	onFail func(el element.Element, err error)
}

// New returns a Task bound to the given element chain, in declared
// pipeline order. tickBudget is the acquire timeout used for every job.
func New(elements []element.Element, tickBudget time.Duration) *Task {
	if tickBudget <= 0 {
		tickBudget = time.Second
	}
	return &Task{
		elements:   elements,
		tickBudget: tickBudget,
		resumeCh:   make(chan struct{}, 1),
		doneCh:     make(chan struct{}),
	}
}

// Jobs returns the flattened schedule spec.md §4.7 describes — every
// element's OPEN, then every element's PROCESS (run repeatedly by the
// worker loop until each element retires), then every element's CLOSE —
// for introspection/diagnostics; the worker loop below executes the
// equivalent schedule directly rather than replaying this slice, since
// PROCESS's "repeated implicitly" doesn't fit a single flat pass.
func (t *Task) Jobs() []Job {
	jobs := make([]Job, 0, len(t.elements)*3)
	for _, el := range t.elements {
		jobs = append(jobs, Job{Element: el, Op: OpOpen, TickBudget: t.tickBudget})
	}
	for _, el := range t.elements {
		jobs = append(jobs, Job{Element: el, Op: OpProcess, TickBudget: t.tickBudget})
	}
	for _, el := range t.elements {
		jobs = append(jobs, Job{Element: el, Op: OpClose, TickBudget: t.tickBudget})
	}
	return jobs
}

// OnFail registers a callback invoked when a job returns JOB_FAIL, before
// the task aborts buses and runs remaining CLOSEs — the propagate-to-
// pipeline hook spec.md §4.7 describes.
func (t *Task) OnFail(cb func(el element.Element, err error)) { t.onFail = cb }

// Run sets the RUN bit synchronously, starts the worker goroutine and
// returns without waiting for it; the pipeline run itself proceeds
// asynchronously. Call Wait to block for completion.
func (t *Task) Run(ctx context.Context) {
	t.bits.set(bitRun)
	select {
	case t.resumeCh <- struct{}{}:
	default:
	}
	go t.loop(ctx)
}

// Wait blocks until the run completes (FINISHED, STOPPED or FAILED) and
// returns the terminal status plus the triggering error, if any.
func (t *Task) Wait() (Status, error) {
	<-t.doneCh
	return t.result, t.err
}

// Pause suspends job scheduling; in-flight acquires still honour their
// tick budget before the worker notices the bit.
func (t *Task) Pause() { t.bits.set(bitPause) }

// Resume clears Pause and wakes the worker if it was blocked waiting.
func (t *Task) Resume() {
	t.bits.clear(bitPause)
	select {
	case t.resumeCh <- struct{}{}:
	default:
	}
}

// Stop aborts every element's port buses to unblock any pending acquire,
// and tells the worker to run remaining CLOSEs and exit.
func (t *Task) Stop() {
	t.bits.set(bitStop)
	for _, el := range t.elements {
		abortPorts(el)
	}
	select {
	case t.resumeCh <- struct{}{}:
	default:
	}
}

func abortPorts(el element.Element) {
	abortAll := func(ports []*port.Port) {
		for _, p := range ports {
			if b := p.Bus(); b != nil {
				b.Abort()
			}
		}
	}
	abortAll(el.InPorts())
	abortAll(el.OutPorts())
}

func (t *Task) loop(ctx context.Context) {
	defer close(t.doneCh)

	if stopped, err := t.runOpenPhase(ctx); err != nil {
		t.closeAll()
		t.result, t.err = StatusFailed, err
		return
	} else if stopped {
		t.closeAll()
		t.result = StatusStopped
		return
	}

	status, err := t.runProcessPhase(ctx)
	t.closeAll()
	t.result, t.err = status, err
}

// runOpenPhase calls Open on every element in order, transitioning
// NONE->OPENING->RUNNING per element as it succeeds.
func (t *Task) runOpenPhase(ctx context.Context) (stopped bool, err error) {
	for _, el := range t.elements {
		if t.bits.has(bitStop) {
			return true, nil
		}
		if err := el.Transition(element.Opening); err != nil {
			return false, err
		}
		if err := el.Open(ctx); err != nil {
			_ = el.Transition(element.Error)
			t.fail(el, err)
			return false, err
		}
		if err := el.Transition(element.Running); err != nil {
			return false, err
		}
	}
	return false, nil
}

// runProcessPhase repeatedly walks the element chain calling Process,
// per spec.md §4.7's interpretation table, until every element is
// terminal, STOP is requested, or a job fails.
func (t *Task) runProcessPhase(ctx context.Context) (Status, error) {
	finished := make([]bool, len(t.elements))
	remaining := len(t.elements)

	for remaining > 0 {
		if t.bits.has(bitStop) {
			return StatusStopped, nil
		}
		if err := t.waitIfPaused(ctx); err != nil {
			return StatusStopped, nil
		}

		for i, el := range t.elements {
			if finished[i] {
				continue
			}
			if t.bits.has(bitStop) {
				return StatusStopped, nil
			}

			status, err := t.runOneJob(ctx, el)
			switch status {
			case element.JobOK:
				// continue to next element
			case element.JobTruncate:
				// non-terminal: the element stays scheduled and its job
				// runs again on the next pass over the chain.
			case element.JobDone:
				if err := el.Transition(element.Finished); err != nil {
					return StatusFailed, err
				}
				finished[i] = true
				remaining--
			case element.JobFail:
				_ = el.Transition(element.Error)
				t.fail(el, err)
				return StatusFailed, err
			}
		}
	}
	return StatusFinished, nil
}

func (t *Task) runOneJob(ctx context.Context, el element.Element) (element.JobStatus, error) {
	jobCtx, cancel := context.WithTimeout(ctx, t.tickBudget)
	defer cancel()
	status, err := el.Process(jobCtx)
	if err != nil && status != element.JobFail {
		status = element.JobFail
	}
	return status, err
}

func (t *Task) waitIfPaused(ctx context.Context) error {
	if !t.bits.has(bitPause) {
		return nil
	}
	timer := time.NewTimer(pausePoll)
	defer timer.Stop()
	for t.bits.has(bitPause) {
		if t.bits.has(bitStop) {
			return errStopped
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-t.resumeCh:
		case <-timer.C:
			resetTimer(timer, pausePoll)
		}
	}
	return nil
}

func (t *Task) closeAll() {
	for _, el := range t.elements {
		if err := el.Close(); err != nil && t.err == nil {
			// Close is best-effort: log but never mask an earlier error
			// (spec.md §7). Without a logger wired into Task itself yet,
			// swallow here; gmflog-backed elements log their own Close
			// failures.
			_ = err
		}
	}
}

func (t *Task) fail(el element.Element, err error) {
	if t.onFail != nil {
		t.onFail(el, err)
	}
	for _, e := range t.elements {
		abortPorts(e)
	}
}

var errStopped = &stopError{}

type stopError struct{}

func (*stopError) Error() string { return "task stopped" }
