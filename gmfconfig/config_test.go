package gmfconfig

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/jangala-dev/gmf/element"
	"github.com/jangala-dev/gmf/elements"
	"github.com/jangala-dev/gmf/ioendpoint"
	"github.com/jangala-dev/gmf/ioendpoint/fileio"
	"github.com/jangala-dev/gmf/pipeline"
	"github.com/jangala-dev/gmf/pool"
	"github.com/jangala-dev/gmf/port"
)

func registerFileFactories(t *testing.T, p *pool.Pool) {
	t.Helper()
	p.RegisterIO("file", func(tag string, config any) (ioendpoint.Endpoint, error) {
		m := config.(map[string]any)
		path, _ := m["path"].(string)
		write, _ := m["write"].(bool)
		return fileio.New(path, write), nil
	})
	p.RegisterElement("passthrough", func(tag string, config any) (element.Element, error) {
		return elements.NewPassthrough(tag, 4096), nil
	})
}

const descriptorYAML = `
pipelines:
  - tag: decode
    reader:
      type: file
      tag: reader
      config:
        path: %s
      caps:
        granularity: block
        shareable: true
        size_hint: 4096
    elements:
      - type: passthrough
        tag: dec
    writer:
      type: file
      tag: writer
      config:
        path: %s
        write: true
      caps:
        granularity: block
        shareable: true
        size_hint: 4096
`

func TestLoadAndAssembleRunsDescribedPipeline(t *testing.T) {
	dir := t.TempDir()
	in := filepath.Join(dir, "in.bin")
	out := filepath.Join(dir, "out.bin")
	if err := os.WriteFile(in, []byte("cafebabecafebabe"), 0o644); err != nil {
		t.Fatal(err)
	}

	descPath := filepath.Join(dir, "pipelines.yaml")
	contents := fmt.Sprintf(descriptorYAML, in, out)
	if err := os.WriteFile(descPath, []byte(contents), 0o644); err != nil {
		t.Fatal(err)
	}

	doc, err := Load(descPath)
	if err != nil {
		t.Fatal(err)
	}
	if len(doc.Pipelines) != 1 || doc.Pipelines[0].Tag != "decode" {
		t.Fatalf("got %#v", doc)
	}

	p := pool.New()
	registerFileFactories(t, p)

	built, err := Assemble(p, doc, port.LinkOptions{})
	if err != nil {
		t.Fatal(err)
	}
	ap, ok := built["decode"]
	if !ok {
		t.Fatal("expected an assembled pipeline tagged decode")
	}
	pl := ap.Pipeline

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	if err := pl.Run(ctx); err != nil {
		t.Fatal(err)
	}
	if _, err := pl.Wait(); err != nil {
		t.Fatal(err)
	}
	if pl.State() != pipeline.Finished {
		t.Fatalf("expected FINISHED, got %v", pl.State())
	}

	got, err := os.ReadFile(out)
	if err != nil {
		t.Fatal(err)
	}
	if string(got) != "cafebabecafebabe" {
		t.Fatalf("got %q", got)
	}
}

func TestWatcherReloadsOnWrite(t *testing.T) {
	dir := t.TempDir()
	descPath := filepath.Join(dir, "pipelines.yaml")
	if err := os.WriteFile(descPath, []byte("pipelines: []\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	reloaded := make(chan Document, 4)
	w := NewWatcher(descPath, func(d Document) { reloaded <- d })
	w.settle = 20 * time.Millisecond

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := w.Start(ctx); err != nil {
		t.Fatal(err)
	}

	contents := []byte("pipelines:\n  - tag: reloaded\n")
	if err := os.WriteFile(descPath, contents, 0o644); err != nil {
		t.Fatal(err)
	}

	select {
	case doc := <-reloaded:
		if len(doc.Pipelines) != 1 || doc.Pipelines[0].Tag != "reloaded" {
			t.Fatalf("got %#v", doc)
		}
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for the watcher to reload")
	}
}
