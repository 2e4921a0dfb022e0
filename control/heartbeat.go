package control

import (
	"context"
	"time"

	"github.com/jangala-dev/gmf/bus"
	"github.com/jangala-dev/gmf/x/timex"
)

var topicHeartbeatInterval = bus.T(topicControl, "heartbeat_interval")

// Heartbeat republishes every registered pipeline's current state once
// per tick on a retained topic, so a liveness watcher only has to
// subscribe rather than poll each pipeline directly. Adapted from the
// teacher's services/heartbeat/service.go serviceLoop: a ticker plus a
// config subscription that can reset its period, kept almost verbatim
// down to the tick.Reset call, generalized from one generic heartbeat to
// one liveness line per pipeline.
type Heartbeat struct {
	c        *Controller
	interval time.Duration
}

// NewHeartbeat returns a Heartbeat over c's registered pipelines, ticking
// every interval until reconfigured over the bus.
func NewHeartbeat(c *Controller, interval time.Duration) *Heartbeat {
	if interval <= 0 {
		interval = time.Second
	}
	return &Heartbeat{c: c, interval: interval}
}

// NewHeartbeatHz returns a Heartbeat ticking at freqHz, for callers that
// think of liveness in terms of a rate rather than a period.
func NewHeartbeatHz(c *Controller, freqHz uint32) *Heartbeat {
	return NewHeartbeat(c, time.Duration(timex.PeriodFromHz(freqHz)))
}

// Start runs the heartbeat loop in its own goroutine until ctx is done.
func (h *Heartbeat) Start(ctx context.Context) {
	go h.loop(ctx)
}

func (h *Heartbeat) loop(ctx context.Context) {
	conn := h.c.bus.NewConnection("heartbeat")
	cfgSub := conn.Subscribe(topicHeartbeatInterval)
	defer conn.Unsubscribe(cfgSub)

	tick := time.NewTicker(h.interval)
	defer tick.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-tick.C:
			h.publishAll(conn)
		case msg := <-cfgSub.Channel():
			if secs, ok := msg.Payload.(float64); ok && secs > 0 {
				tick.Reset(time.Duration(secs * float64(time.Second)))
			}
		}
	}
}

func (h *Heartbeat) publishAll(conn *bus.Connection) {
	h.c.mu.Lock()
	snapshot := make(map[string]string, len(h.c.pipelines))
	for tag, p := range h.c.pipelines {
		snapshot[tag] = p.State().String()
	}
	h.c.mu.Unlock()

	for tag, state := range snapshot {
		conn.Publish(conn.NewMessage(bus.T(topicState, tag, "heartbeat"), state, true))
	}
}
