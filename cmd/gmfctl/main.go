// Command gmfctl loads a gmfconfig pipeline descriptor, assembles every
// pipeline it names, and exposes run/pause/resume/stop/set/get/invoke as
// cobra subcommands against the in-process control plane — the
// GUI/TUI-adjacent CLI consumer spec.md §6 names, grounded on the
// linkerd2 CLI's cobra root-command layout (cli/cmd/root.go) and its
// fatih/color status glyphs.
package main

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/fatih/color"
	"github.com/google/shlex"
	"github.com/spf13/cobra"

	"github.com/jangala-dev/gmf/bus"
	"github.com/jangala-dev/gmf/control"
	"github.com/jangala-dev/gmf/element"
	"github.com/jangala-dev/gmf/elements"
	"github.com/jangala-dev/gmf/gmfconfig"
	"github.com/jangala-dev/gmf/ioendpoint"
	"github.com/jangala-dev/gmf/ioendpoint/fileio"
	"github.com/jangala-dev/gmf/method"
	"github.com/jangala-dev/gmf/pipeline"
	"github.com/jangala-dev/gmf/pool"
	"github.com/jangala-dev/gmf/port"
)

var (
	okStatus   = color.New(color.FgGreen, color.Bold).SprintFunc()("√")
	failStatus = color.New(color.FgRed, color.Bold).SprintFunc()("×")

	descriptorPath string
)

func main() {
	root := newRootCmd()
	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "gmfctl",
		Short: "inspect and drive GMF pipelines described in a pipeline descriptor",
	}
	root.PersistentFlags().StringVarP(&descriptorPath, "descriptor", "d", "pipelines.yaml",
		"path to the gmfconfig pipeline descriptor")

	root.AddCommand(newRunCmd(), newPauseCmd(), newResumeCmd(), newStopCmd(),
		newSetCmd(), newGetCmd(), newInvokeCmd())
	return root
}

func buildController() (*control.Controller, error) {
	doc, err := gmfconfig.Load(descriptorPath)
	if err != nil {
		return nil, err
	}

	p := pool.New()
	registerBuiltins(p)

	built, err := gmfconfig.Assemble(p, doc, port.LinkOptions{})
	if err != nil {
		return nil, err
	}

	b := bus.NewBus(8)
	c := control.New(b)
	for tag, ap := range built {
		c.Register(tag, ap.Pipeline)
	}
	return c, nil
}

func registerBuiltins(p *pool.Pool) {
	p.RegisterIO("file", func(tag string, config any) (ioendpoint.Endpoint, error) {
		m, _ := config.(map[string]any)
		path, _ := m["path"].(string)
		write, _ := m["write"].(bool)
		return fileio.New(path, write), nil
	})
	p.RegisterElement("passthrough", func(tag string, config any) (element.Element, error) {
		return elements.NewPassthrough(tag, frameSizeFrom(config)), nil
	})
	p.RegisterElement("ratelimiter", func(tag string, config any) (element.Element, error) {
		m, _ := config.(map[string]any)
		bps, _ := m["bytes_per_sec"].(int)
		burst, _ := m["burst_bytes"].(int)
		return elements.NewRateLimiter(tag, frameSizeFrom(config),
			elements.RateLimiterConfig{BytesPerSec: uint32(bps), BurstBytes: uint32(burst)}), nil
	})
	p.RegisterElement("tee", func(tag string, config any) (element.Element, error) {
		return elements.NewTeeSplit(tag, frameSizeFrom(config)), nil
	})
}

func frameSizeFrom(config any) int {
	m, _ := config.(map[string]any)
	if n, ok := m["frame_size"].(int); ok && n > 0 {
		return n
	}
	return 4096
}

func newRunCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "run <pipeline>",
		Short: "start a pipeline",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withController(func(c *control.Controller) error {
				ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
				defer cancel()
				if err := c.Run(ctx, args[0]); err != nil {
					return err
				}
				fmt.Printf("%s pipeline %s running\n", okStatus, args[0])
				return nil
			})
		},
	}
}

func controlCmd(use, short, label string, op func(*pipeline.Pipeline) error) *cobra.Command {
	return &cobra.Command{
		Use:   use,
		Short: short,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withController(func(c *control.Controller) error {
				p, ok := c.Pipeline(args[0])
				if !ok {
					return fmt.Errorf("no such pipeline %q", args[0])
				}
				if err := op(p); err != nil {
					return err
				}
				fmt.Printf("%s %s %s\n", okStatus, label, args[0])
				return nil
			})
		},
	}
}

func newPauseCmd() *cobra.Command {
	return controlCmd("pause <pipeline>", "pause a running pipeline", "paused", (*pipeline.Pipeline).Pause)
}
func newResumeCmd() *cobra.Command {
	return controlCmd("resume <pipeline>", "resume a paused pipeline", "resumed", (*pipeline.Pipeline).Resume)
}
func newStopCmd() *cobra.Command {
	return controlCmd("stop <pipeline>", "stop a pipeline", "stopped", (*pipeline.Pipeline).Stop)
}

func newSetCmd() *cobra.Command {
	var argsFlag string
	cmd := &cobra.Command{
		Use:   "set <pipeline> <element> <method>",
		Short: "invoke a setter method with --args key=value pairs",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			values, err := parseKeyValueArgs(argsFlag)
			if err != nil {
				return err
			}
			return withController(func(c *control.Controller) error {
				el, err := lookupElement(c, args[0], args[1])
				if err != nil {
					return err
				}
				if err := el.Methods().Set(args[2], values); err != nil {
					return err
				}
				fmt.Printf("%s set %s/%s/%s\n", okStatus, args[0], args[1], args[2])
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&argsFlag, "args", "", "space-separated key=value method arguments")
	return cmd
}

func newGetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "get <pipeline> <element> <method>",
		Short: "invoke a getter method and print its values",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withController(func(c *control.Controller) error {
				el, err := lookupElement(c, args[0], args[1])
				if err != nil {
					return err
				}
				v, err := el.Methods().Get(args[2])
				if err != nil {
					return err
				}
				fmt.Printf("%s %s/%s/%s = %v\n", okStatus, args[0], args[1], args[2], v)
				return nil
			})
		},
	}
}

// newInvokeCmd tokenizes a free-form --args string with shlex, so a
// method taking several named arguments can be driven from one shell
// word: gmfctl invoke p1 rl ramp_rate --args
// "target_bytes_per_sec=2000000 duration_ms=500".
func newInvokeCmd() *cobra.Command {
	var argsFlag string
	cmd := &cobra.Command{
		Use:   "invoke <pipeline> <element> <method>",
		Short: "invoke an arbitrary registered method (same as set, tokenizing --args with a shell-style splitter)",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			tokens, err := shlex.Split(argsFlag)
			if err != nil {
				return fmt.Errorf("parsing --args: %w", err)
			}
			values, err := parseKeyValueTokens(tokens)
			if err != nil {
				return err
			}
			return withController(func(c *control.Controller) error {
				el, err := lookupElement(c, args[0], args[1])
				if err != nil {
					return err
				}
				if err := el.Methods().Set(args[2], values); err != nil {
					return err
				}
				fmt.Printf("%s invoke %s/%s/%s\n", okStatus, args[0], args[1], args[2])
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&argsFlag, "args", "", "shell-tokenized key=value method arguments")
	return cmd
}

func lookupElement(c *control.Controller, pipelineTag, elementTag string) (element.Element, error) {
	p, ok := c.Pipeline(pipelineTag)
	if !ok {
		return nil, fmt.Errorf("no such pipeline %q", pipelineTag)
	}
	el, ok := p.Element(elementTag)
	if !ok {
		return nil, fmt.Errorf("no such element %q in pipeline %q", elementTag, pipelineTag)
	}
	return el, nil
}

func parseKeyValueArgs(s string) (method.Values, error) {
	if strings.TrimSpace(s) == "" {
		return method.Values{}, nil
	}
	return parseKeyValueTokens(strings.Fields(s))
}

func parseKeyValueTokens(tokens []string) (method.Values, error) {
	v := make(method.Values, len(tokens))
	for _, tok := range tokens {
		k, val, ok := strings.Cut(tok, "=")
		if !ok {
			return nil, fmt.Errorf("malformed argument %q, want key=value", tok)
		}
		if n, err := strconv.ParseUint(val, 10, 32); err == nil {
			v[k] = uint32(n)
			continue
		}
		v[k] = val
	}
	return v, nil
}

func withController(fn func(c *control.Controller) error) error {
	c, err := buildController()
	if err != nil {
		fmt.Printf("%s %v\n", failStatus, err)
		return err
	}
	return fn(c)
}
