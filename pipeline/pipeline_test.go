package pipeline

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/jangala-dev/gmf/element"
	"github.com/jangala-dev/gmf/elements"
	"github.com/jangala-dev/gmf/port"
)

func TestSupremumPrefersErrorOverEverything(t *testing.T) {
	got := supremum([]State{Running, Paused, Error, Finished})
	if got != Error {
		t.Fatalf("expected Error, got %v", got)
	}
}

func TestSupremumRequiresAllFinished(t *testing.T) {
	got := supremum([]State{Finished, Running})
	if got != Running {
		t.Fatalf("one element still RUNNING should not report Finished, got %v", got)
	}
	got = supremum([]State{Finished, Finished})
	if got != Finished {
		t.Fatalf("expected Finished once every element agrees, got %v", got)
	}
}

func TestSupremumStoppedDominatesNonError(t *testing.T) {
	got := supremum([]State{Running, Stopped, Paused})
	if got != Stopped {
		t.Fatalf("expected Stopped, got %v", got)
	}
}

func TestPipelineStateTracksElementChain(t *testing.T) {
	pt := elements.NewPassthrough("pt", 8)
	in, _ := pt.Port("in")
	out, _ := pt.Port("out")

	feeder := port.New("feeder", port.Out, in.Caps)
	if err := port.Link(feeder, in, port.LinkOptions{}); err != nil {
		t.Fatal(err)
	}
	sink := port.New("sink", port.In, out.Caps)
	if err := port.Link(out, sink, port.LinkOptions{}); err != nil {
		t.Fatal(err)
	}

	p := New("p1", []element.Element{pt}, nil, nil)
	if got := p.State(); got != None {
		t.Fatalf("expected None before Run, got %v", got)
	}

	wp, _, err := feeder.AcquireWrite(8, time.Second)
	if err != nil {
		t.Fatal(err)
	}
	copy(wp.Bytes, []byte("deadbeef"))
	wp.Valid = 8
	if err := feeder.ReleaseWrite(wp, true); err != nil {
		t.Fatal(err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := p.Run(ctx); err != nil {
		t.Fatal(err)
	}
	if _, err := p.Wait(); err != nil {
		t.Fatal(err)
	}
	if got := p.State(); got != Finished {
		t.Fatalf("expected Finished once the sole element has DONE/closed, got %v", got)
	}
}

func TestPipelineForwardsElementEvents(t *testing.T) {
	pt := elements.NewPassthrough("pt", 8)
	in, _ := pt.Port("in")
	out, _ := pt.Port("out")
	feeder := port.New("feeder", port.Out, in.Caps)
	_ = port.Link(feeder, in, port.LinkOptions{})
	sink := port.New("sink", port.In, out.Caps)
	_ = port.Link(out, sink, port.LinkOptions{})

	p := New("p1", []element.Element{pt}, nil, nil)

	var mu sync.Mutex
	var subs []element.Sub
	p.OnEvent(func(e Event) {
		mu.Lock()
		subs = append(subs, e.Sub)
		mu.Unlock()
	})

	wp, _, _ := feeder.AcquireWrite(8, time.Second)
	wp.Valid = 8
	_ = feeder.ReleaseWrite(wp, true)

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	_ = p.Run(ctx)
	_, _ = p.Wait()

	mu.Lock()
	defer mu.Unlock()
	if len(subs) == 0 {
		t.Fatal("expected at least one forwarded state-change event")
	}
	sawFinished := false
	for _, s := range subs {
		if s == element.SubFinished {
			sawFinished = true
		}
	}
	if !sawFinished {
		t.Fatalf("expected a FINISHED event among %v", subs)
	}
}

func TestPipelineCascadesChildEventsInRegistrationOrder(t *testing.T) {
	parent := New("parent", nil, nil, nil)
	var mu sync.Mutex
	var order []string
	parent.OnEvent(func(e Event) {
		mu.Lock()
		order = append(order, e.From)
		mu.Unlock()
	})

	childA := New("childA", nil, nil, nil)
	childB := New("childB", nil, nil, nil)
	parent.AddChild(childA)
	parent.AddChild(childB)

	childA.emit(Event{From: "childA", Type: element.CustomEvent})
	childB.emit(Event{From: "childB", Type: element.CustomEvent})

	mu.Lock()
	defer mu.Unlock()
	if len(order) != 2 || order[0] != "childA" || order[1] != "childB" {
		t.Fatalf("expected cascaded events in registration order, got %v", order)
	}
}

func TestPipelineStopEndsRunEarly(t *testing.T) {
	pt := elements.NewPassthrough("pt", 8)
	in, _ := pt.Port("in")
	out, _ := pt.Port("out")
	feeder := port.New("feeder", port.Out, in.Caps)
	_ = port.Link(feeder, in, port.LinkOptions{})
	sink := port.New("sink", port.In, out.Caps)
	_ = port.Link(out, sink, port.LinkOptions{})

	p := New("p1", []element.Element{pt}, nil, nil)
	p.SetTickBudget(50 * time.Millisecond)

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := p.Run(ctx); err != nil {
		t.Fatal(err)
	}
	if err := p.Stop(); err != nil {
		t.Fatal(err)
	}
	if _, err := p.Wait(); err != nil {
		// a stop-induced abort is reported back through Wait's status, not err
	}
}
