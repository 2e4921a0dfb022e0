// Package control implements the pipeline control plane: run/pause/
// resume/stop and method set/get dispatched over bus topics, plus a
// liveness heartbeat per registered pipeline. Grounded on the teacher's
// own bus.Bus pub/sub (bus/bus.go) and services/heartbeat/config
// services, generalized from device-control topics to pipeline-control
// topics.
package control

import (
	"context"
	"sync"

	"github.com/jangala-dev/gmf/bus"
	"github.com/jangala-dev/gmf/gmferr"
	"github.com/jangala-dev/gmf/gmflog"
	"github.com/jangala-dev/gmf/gmfmetrics"
	"github.com/jangala-dev/gmf/method"
	"github.com/jangala-dev/gmf/pipeline"
)

// Topic layout:
//   control/<pipeline>/run|pause|resume|stop
//   control/<pipeline>/set/<element>/<method>   payload: method.Values
//   control/<pipeline>/get/<element>/<method>   payload: ignored
//   state/<pipeline>/event                      retained, payload: pipeline.Event
//   state/<pipeline>/<element>/<method>         retained, payload: method.Values (Get replies)
const (
	topicControl = "control"
	topicState   = "state"
)

// Controller owns the control-plane connection and the set of pipelines
// it dispatches commands to.
type Controller struct {
	bus  *bus.Bus
	conn *bus.Connection

	mu        sync.Mutex
	pipelines map[string]*pipeline.Pipeline
}

// New returns a Controller issuing its own connection against b.
func New(b *bus.Bus) *Controller {
	return &Controller{
		bus:       b,
		conn:      b.NewConnection("control"),
		pipelines: make(map[string]*pipeline.Pipeline),
	}
}

// Register makes tag addressable over the control plane, forwards its
// events onto a retained state topic, and mirrors each event onto the
// structured logger and the Prometheus recorder (SPEC_FULL.md §6's
// "Events & observability" expansion).
func (c *Controller) Register(tag string, p *pipeline.Pipeline) {
	c.mu.Lock()
	c.pipelines[tag] = p
	c.mu.Unlock()

	log := gmflog.New(tag)
	rec := gmfmetrics.NewPipelineRecorder(tag)

	p.OnEvent(func(e pipeline.Event) {
		c.conn.Publish(c.conn.NewMessage(bus.T(topicState, tag, "event"), e, true))
		log.Event(e)
		rec.ObserveStateChange(e.From, e.Sub.String(), int(p.State()))
	})
}

func (c *Controller) pipeline(tag string) (*pipeline.Pipeline, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	p, ok := c.pipelines[tag]
	return p, ok
}

// Pipeline exposes the registered pipeline tagged tag to callers that
// already hold a Controller and want to act on it directly (e.g.
// cmd/gmfctl's set/get/invoke subcommands), bypassing the bus round
// trip the control topics exist for.
func (c *Controller) Pipeline(tag string) (*pipeline.Pipeline, bool) {
	return c.pipeline(tag)
}

// Start subscribes to every control/# message and dispatches it until ctx
// is cancelled.
func (c *Controller) Start(ctx context.Context) {
	sub := c.conn.Subscribe(bus.T(topicControl, "#"))
	go func() {
		defer c.conn.Unsubscribe(sub)
		for {
			select {
			case <-ctx.Done():
				return
			case msg, ok := <-sub.Channel():
				if !ok {
					return
				}
				c.dispatch(ctx, msg)
			}
		}
	}()
}

func (c *Controller) dispatch(ctx context.Context, msg *bus.Message) {
	topic := msg.Topic
	if len(topic) < 2 {
		return
	}
	tag, _ := topic[1].(string)
	p, ok := c.pipeline(tag)
	if !ok {
		return
	}

	if len(topic) == 2 {
		return
	}
	op, _ := topic[2].(string)

	switch op {
	case "run":
		_ = p.Run(ctx)
	case "pause":
		_ = p.Pause()
	case "resume":
		_ = p.Resume()
	case "stop":
		_ = p.Stop()
	case "set":
		c.dispatchMethod(p, topic, msg.Payload, true)
	case "get":
		c.dispatchMethod(p, topic, nil, false)
	}
}

func (c *Controller) dispatchMethod(p *pipeline.Pipeline, topic bus.Topic, payload any, set bool) {
	if len(topic) < 5 {
		return
	}
	elemTag, _ := topic[3].(string)
	methodName, _ := topic[4].(string)

	el, ok := p.Element(elemTag)
	if !ok {
		return
	}

	if set {
		v, ok := payload.(method.Values)
		if !ok {
			return
		}
		_ = el.Methods().Set(methodName, v)
		return
	}

	v, err := el.Methods().Get(methodName)
	if err != nil {
		return
	}
	c.conn.Publish(c.conn.NewMessage(bus.T(topicState, p.Tag(), elemTag, methodName), v, true))
}

// Run issues a run command for tag directly (bypassing the bus), for
// callers that already hold a Controller rather than publishing to it.
func (c *Controller) Run(ctx context.Context, tag string) error {
	p, ok := c.pipeline(tag)
	if !ok {
		return gmferr.New("control.Run", gmferr.NotFound, "no such pipeline "+tag, nil)
	}
	return p.Run(ctx)
}
