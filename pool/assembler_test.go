package pool

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/jangala-dev/gmf/element"
	"github.com/jangala-dev/gmf/elements"
	"github.com/jangala-dev/gmf/ioendpoint"
	"github.com/jangala-dev/gmf/ioendpoint/fileio"
	"github.com/jangala-dev/gmf/pipeline"
	"github.com/jangala-dev/gmf/port"
)

type fileConfig struct {
	path  string
	write bool
}

func registerFileFactories(t *testing.T, p *Pool) {
	t.Helper()
	p.RegisterIO("file", func(tag string, config any) (ioendpoint.Endpoint, error) {
		c := config.(fileConfig)
		return fileio.New(c.path, c.write), nil
	})
	p.RegisterElement("passthrough", func(tag string, config any) (element.Element, error) {
		return elements.NewPassthrough(tag, 4096), nil
	})
}

func TestNewPipelineAssemblesLinearChain(t *testing.T) {
	dir := t.TempDir()
	in := filepath.Join(dir, "in.bin")
	out := filepath.Join(dir, "out.bin")
	if err := os.WriteFile(in, []byte("deadbeefdeadbeef"), 0o644); err != nil {
		t.Fatal(err)
	}

	p := New()
	registerFileFactories(t, p)

	caps := port.Caps{Granularity: port.Block, Shareable: true, SizeHint: 4096}
	pl, err := p.NewPipeline("decode",
		IOSpec{Type: "file", Tag: "reader", Config: fileConfig{path: in}, Caps: caps},
		[]ElementSpec{{Type: "passthrough", Tag: "dec"}},
		IOSpec{Type: "file", Tag: "writer", Config: fileConfig{path: out, write: true}, Caps: caps},
		port.LinkOptions{},
	)
	if err != nil {
		t.Fatal(err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	if err := pl.Run(ctx); err != nil {
		t.Fatal(err)
	}
	if _, err := pl.Wait(); err != nil {
		t.Fatal(err)
	}
	if pl.State() != pipeline.Finished {
		t.Fatalf("expected pipeline FINISHED, got %v", pl.State())
	}

	got, err := os.ReadFile(out)
	if err != nil {
		t.Fatal(err)
	}
	if string(got) != "deadbeefdeadbeef" {
		t.Fatalf("got %q", got)
	}
}

func TestNewPipelineUnwindsOnUnknownElementType(t *testing.T) {
	dir := t.TempDir()
	in := filepath.Join(dir, "in.bin")
	if err := os.WriteFile(in, []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}

	p := New()
	registerFileFactories(t, p)

	caps := port.Caps{Granularity: port.Block, Shareable: true, SizeHint: 4096}
	_, err := p.NewPipeline("broken",
		IOSpec{Type: "file", Tag: "reader", Config: fileConfig{path: in}, Caps: caps},
		[]ElementSpec{{Type: "does-not-exist", Tag: "dec"}},
		IOSpec{Type: "file", Tag: "writer", Config: fileConfig{path: filepath.Join(dir, "out.bin"), write: true}, Caps: caps},
		port.LinkOptions{},
	)
	if err == nil {
		t.Fatal("expected an error for an unregistered element type")
	}
}
