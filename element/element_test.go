package element

import "testing"

func TestValidTransitionTable(t *testing.T) {
	cases := []struct {
		from, to State
		want     bool
	}{
		{None, Opening, true},
		{Opening, Running, true},
		{Running, Paused, true},
		{Paused, Running, true},
		{Running, Finished, true},
		{Running, Stopped, true},
		{Opening, Error, true},
		{Finished, None, true},
		{Stopped, None, true},
		{Error, None, true},
		{None, Running, false},
		{Finished, Running, false},
		{Running, Opening, false},
	}
	for _, c := range cases {
		if got := ValidTransition(c.from, c.to); got != c.want {
			t.Errorf("ValidTransition(%v, %v) = %v, want %v", c.from, c.to, got, c.want)
		}
	}
}

func TestBaseTransitionRejectsInvalidMove(t *testing.T) {
	b := NewBase("t", nil, nil)
	if err := b.Transition(Running); err == nil {
		t.Fatal("expected NONE -> RUNNING to be rejected")
	}
	if b.State() != None {
		t.Fatalf("state should be unchanged after a rejected transition, got %v", b.State())
	}
}

func TestBaseTransitionEmitsEvent(t *testing.T) {
	b := NewBase("t", nil, nil)
	var got []Event
	b.OnEvent(func(e Event) { got = append(got, e) })

	if err := b.Transition(Opening); err != nil {
		t.Fatal(err)
	}
	if err := b.Transition(Running); err != nil {
		t.Fatal(err)
	}
	if len(got) != 2 {
		t.Fatalf("expected 2 events, got %d", len(got))
	}
	if got[0].Sub != SubOpening || got[1].Sub != SubRunning {
		t.Fatalf("unexpected event subs: %v", got)
	}
	if got[0].From != "t" {
		t.Fatalf("expected From=t, got %q", got[0].From)
	}
}

func TestBaseReportEventIsCustom(t *testing.T) {
	b := NewBase("t", nil, nil)
	var got Event
	b.OnEvent(func(e Event) { got = e })
	b.ReportEvent(SubCustom, []byte("hi"))
	if got.Type != CustomEvent || got.Sub != SubCustom || string(got.Payload) != "hi" {
		t.Fatalf("unexpected custom event: %+v", got)
	}
}

func TestPortLookup(t *testing.T) {
	b := NewBase("t", nil, nil)
	if _, ok := b.Port("nope"); ok {
		t.Fatal("expected no port before any is added")
	}
}
