package embedio

import (
	"embed"
	"testing"
	"time"

	"github.com/jangala-dev/gmf/ioendpoint"
)

//go:embed testdata/tone.bin
var assets embed.FS

func TestEmbedioReadsWholeAssetAndSignalsDone(t *testing.T) {
	e := New(Lookup{FS: assets, Name: "testdata/tone.bin"})
	if err := e.Open(); err != nil {
		t.Fatal(err)
	}
	defer e.Close()

	p, st, err := e.AcquireRead(1<<20, time.Second)
	if err != nil {
		t.Fatal(err)
	}
	if st != ioendpoint.StatusOK {
		t.Fatalf("status = %v", st)
	}
	if string(p.View()) != "hello-embedded-tone\n" {
		t.Fatalf("got %q", p.View())
	}
	if !p.Shared() {
		t.Fatal("expected embedded bytes to be served as a shared payload")
	}

	_, st, err = e.AcquireRead(1, time.Second)
	if err != nil {
		t.Fatal(err)
	}
	if st != ioendpoint.StatusDone {
		t.Fatalf("expected DONE after drain, got %v", st)
	}
}

func TestEmbedioMissingAssetIsNotFound(t *testing.T) {
	e := New(Lookup{FS: assets, Name: "testdata/missing.bin"})
	if err := e.Open(); err == nil {
		t.Fatal("expected an error for a missing asset")
	}
}
