package task

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/jangala-dev/gmf/element"
)

// scriptedElement is a minimal element.Element whose Process result is
// driven by a scripted sequence of statuses, for exercising the task
// loop without a real port/bus chain.
type scriptedElement struct {
	*element.Base
	script  []element.JobStatus
	i       int
	openErr error
}

func newScripted(tag string, script []element.JobStatus) *scriptedElement {
	return &scriptedElement{Base: element.NewBase(tag, nil, nil), script: script}
}

func (s *scriptedElement) Open(ctx context.Context) error {
	s.MarkOpened()
	return s.openErr
}

func (s *scriptedElement) Process(ctx context.Context) (element.JobStatus, error) {
	if s.i >= len(s.script) {
		return element.JobDone, nil
	}
	st := s.script[s.i]
	s.i++
	if st == element.JobFail {
		return st, errors.New("scripted failure")
	}
	return st, nil
}

func (s *scriptedElement) Close() error { return nil }

func TestTaskRunsToFinished(t *testing.T) {
	el := newScripted("e1", []element.JobStatus{element.JobOK, element.JobOK, element.JobDone})
	tk := New([]element.Element{el}, 100*time.Millisecond)
	tk.Run(context.Background())

	status, err := tk.Wait()
	if err != nil {
		t.Fatal(err)
	}
	if status != StatusFinished {
		t.Fatalf("expected StatusFinished, got %v", status)
	}
	if el.State() != element.Finished {
		t.Fatalf("expected element FINISHED, got %v", el.State())
	}
}

func TestTaskPropagatesFailure(t *testing.T) {
	el := newScripted("e1", []element.JobStatus{element.JobOK, element.JobFail})
	tk := New([]element.Element{el}, 100*time.Millisecond)

	var failed bool
	tk.OnFail(func(el element.Element, err error) { failed = true })
	tk.Run(context.Background())

	status, err := tk.Wait()
	if err == nil {
		t.Fatal("expected an error from the failing job")
	}
	if status != StatusFailed {
		t.Fatalf("expected StatusFailed, got %v", status)
	}
	if el.State() != element.Error {
		t.Fatalf("expected element ERROR, got %v", el.State())
	}
	if !failed {
		t.Fatal("expected OnFail callback to run")
	}
}

func TestTaskStopEndsRunEarly(t *testing.T) {
	el := newScripted("e1", []element.JobStatus{element.JobOK, element.JobOK, element.JobOK, element.JobOK, element.JobDone})
	tk := New([]element.Element{el}, 100*time.Millisecond)
	tk.Run(context.Background())

	tk.Stop()
	status, _ := tk.Wait()
	if status != StatusStopped && status != StatusFinished {
		t.Fatalf("expected StatusStopped (or a race-won Finished), got %v", status)
	}
}

func TestTaskPauseResume(t *testing.T) {
	el := newScripted("e1", []element.JobStatus{element.JobOK, element.JobOK, element.JobDone})
	tk := New([]element.Element{el}, 100*time.Millisecond)
	tk.Pause()
	tk.Run(context.Background())

	time.Sleep(50 * time.Millisecond)
	if el.State() == element.Finished {
		t.Fatal("expected run to be paused before Resume")
	}
	tk.Resume()

	status, err := tk.Wait()
	if err != nil {
		t.Fatal(err)
	}
	if status != StatusFinished {
		t.Fatalf("expected StatusFinished after resume, got %v", status)
	}
}

func TestJobsSchedule(t *testing.T) {
	el := newScripted("e1", nil)
	tk := New([]element.Element{el}, time.Second)
	jobs := tk.Jobs()
	if len(jobs) != 3 {
		t.Fatalf("expected 3 jobs for 1 element, got %d", len(jobs))
	}
	if jobs[0].Op != OpOpen || jobs[1].Op != OpProcess || jobs[2].Op != OpClose {
		t.Fatalf("unexpected job order: %v %v %v", jobs[0].Op, jobs[1].Op, jobs[2].Op)
	}
}
