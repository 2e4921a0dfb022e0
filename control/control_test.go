package control

import (
	"context"
	"testing"
	"time"

	"github.com/jangala-dev/gmf/bus"
	"github.com/jangala-dev/gmf/element"
	"github.com/jangala-dev/gmf/elements"
	"github.com/jangala-dev/gmf/method"
	"github.com/jangala-dev/gmf/pipeline"
	"github.com/jangala-dev/gmf/port"
)

func buildRateLimiterPipeline(t *testing.T, tag string) *pipeline.Pipeline {
	t.Helper()
	rl := elements.NewRateLimiter(tag+"_rl", 64, elements.RateLimiterConfig{BytesPerSec: 1_000_000, BurstBytes: 4096})
	in, _ := rl.Port("in")
	out, _ := rl.Port("out")

	feeder := port.New("feeder", port.Out, in.Caps)
	if err := port.Link(feeder, in, port.LinkOptions{}); err != nil {
		t.Fatal(err)
	}
	sink := port.New("sink", port.In, out.Caps)
	if err := port.Link(out, sink, port.LinkOptions{}); err != nil {
		t.Fatal(err)
	}

	wp, _, err := feeder.AcquireWrite(64, time.Second)
	if err != nil {
		t.Fatal(err)
	}
	wp.Valid = 64
	if err := feeder.ReleaseWrite(wp, true); err != nil {
		t.Fatal(err)
	}

	return pipeline.New(tag, []element.Element{rl}, nil, nil)
}

func TestControllerRunDispatchesOverBus(t *testing.T) {
	b := bus.NewBus(4)
	c := New(b)
	p := buildRateLimiterPipeline(t, "p1")
	c.Register("p1", p)

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	c.Start(ctx)

	conn := b.NewConnection("test")
	conn.Publish(conn.NewMessage(bus.T(topicControl, "p1", "run"), nil, false))

	deadline := time.After(time.Second)
	for p.State() != pipeline.Finished {
		select {
		case <-deadline:
			t.Fatalf("expected pipeline to finish, stuck at %v", p.State())
		case <-time.After(10 * time.Millisecond):
		}
	}
}

func TestControllerSetGetRoundTripsOverBus(t *testing.T) {
	b := bus.NewBus(4)
	c := New(b)
	p := buildRateLimiterPipeline(t, "p2")
	c.Register("p2", p)

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	c.Start(ctx)

	conn := b.NewConnection("test")
	reply := conn.Subscribe(bus.T(topicState, "p2", "p2_rl", "get_rate"))
	defer conn.Unsubscribe(reply)

	setMsg := conn.NewMessage(bus.T(topicControl, "p2", "set", "p2_rl", "set_rate"),
		method.Values{"bytes_per_sec": uint32(2_000_000)}, false)
	conn.Publish(setMsg)

	// set has no reply; drive a get and check the round trip instead.
	getMsg := conn.NewMessage(bus.T(topicControl, "p2", "get", "p2_rl", "get_rate"), nil, false)
	conn.Publish(getMsg)

	select {
	case msg := <-reply.Channel():
		v, ok := msg.Payload.(method.Values)
		if !ok {
			t.Fatalf("expected method.Values payload, got %T", msg.Payload)
		}
		got, _ := v["bytes_per_sec"].(uint32)
		if got != 2_000_000 {
			t.Fatalf("expected round-tripped rate 2000000, got %v", got)
		}
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for get reply")
	}
}

func TestControllerForwardsPipelineEventsRetained(t *testing.T) {
	b := bus.NewBus(4)
	c := New(b)
	p := buildRateLimiterPipeline(t, "p3")
	c.Register("p3", p)

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	c.Start(ctx)

	conn := b.NewConnection("test")
	conn.Publish(conn.NewMessage(bus.T(topicControl, "p3", "run"), nil, false))

	deadline := time.After(time.Second)
	for p.State() != pipeline.Finished {
		select {
		case <-deadline:
			t.Fatal("expected pipeline to finish")
		case <-time.After(10 * time.Millisecond):
		}
	}

	// a late subscriber must still see the retained event after the fact.
	late := conn.Subscribe(bus.T(topicState, "p3", "event"))
	defer conn.Unsubscribe(late)
	select {
	case msg := <-late.Channel():
		if msg == nil {
			t.Fatal("expected a retained event message")
		}
	case <-time.After(time.Second):
		t.Fatal("expected retained event to be delivered to a late subscriber")
	}
}

func TestHeartbeatPublishesPipelineState(t *testing.T) {
	b := bus.NewBus(4)
	c := New(b)
	p := buildRateLimiterPipeline(t, "p4")
	c.Register("p4", p)

	hb := NewHeartbeat(c, 20*time.Millisecond)
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	hb.Start(ctx)

	conn := b.NewConnection("test")
	sub := conn.Subscribe(bus.T(topicState, "p4", "heartbeat"))
	defer conn.Unsubscribe(sub)

	select {
	case msg := <-sub.Channel():
		if _, ok := msg.Payload.(string); !ok {
			t.Fatalf("expected a state string payload, got %T", msg.Payload)
		}
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for a heartbeat tick")
	}
}
