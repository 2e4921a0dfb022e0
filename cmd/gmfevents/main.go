// Command gmfevents subscribes to the state/<pipeline>/event topics of an
// in-process bus it creates itself and prints one colorized line per
// event received — the GUI/TUI observability consumer spec.md §6 names,
// grounded on the linkerd2 CLI's fatih/color usage (cli/cmd/root.go's
// okStatus/warnStatus/failStatus glyphs). It does not connect to another
// process's bus, and nothing in this command publishes to its own bus.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/fatih/color"
	"github.com/spf13/pflag"

	"github.com/jangala-dev/gmf/bus"
	"github.com/jangala-dev/gmf/element"
)

var (
	okColor    = color.New(color.FgGreen).SprintFunc()
	warnColor  = color.New(color.FgYellow).SprintFunc()
	errorColor = color.New(color.FgRed, color.Bold).SprintFunc()
)

func main() {
	var statePrefix string
	pflag.StringVar(&statePrefix, "prefix", "state", "bus topic prefix state events are published under")
	pflag.Parse()

	b := bus.NewBus(64)
	conn := b.NewConnection("gmfevents")
	sub := conn.Subscribe(bus.T(statePrefix, "+", "event"))
	defer conn.Unsubscribe(sub)

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	for {
		select {
		case <-ctx.Done():
			return
		case msg, ok := <-sub.Channel():
			if !ok {
				return
			}
			printEvent(msg)
		}
	}
}

func printEvent(msg *bus.Message) {
	e, ok := msg.Payload.(element.Event)
	if !ok {
		return
	}
	pipelineTag := "?"
	if len(msg.Topic) > 1 {
		if s, ok := msg.Topic[1].(string); ok {
			pipelineTag = s
		}
	}

	line := fmt.Sprintf("%s/%s -> %s", pipelineTag, e.From, e.Sub)
	switch e.Sub {
	case element.SubError:
		fmt.Println(errorColor(line))
	case element.SubStopped:
		fmt.Println(warnColor(line))
	default:
		fmt.Println(okColor(line))
	}
}
