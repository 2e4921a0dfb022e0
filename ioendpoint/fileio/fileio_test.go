package fileio

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/jangala-dev/gmf/ioendpoint"
)

func TestFileioWriteThenReadRoundTrip(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "out.bin")

	w := New(path, true)
	if err := w.Open(); err != nil {
		t.Fatal(err)
	}
	wp, _, err := w.AcquireWrite(5, time.Second)
	if err != nil {
		t.Fatal(err)
	}
	copy(wp.Bytes, []byte("hello"))
	wp.Valid = 5
	if err := w.ReleaseWrite(wp, true); err != nil {
		t.Fatal(err)
	}
	if err := w.Close(); err != nil {
		t.Fatal(err)
	}

	got, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if string(got) != "hello" {
		t.Fatalf("got %q", got)
	}

	r := New(path, false)
	if err := r.Open(); err != nil {
		t.Fatal(err)
	}
	defer r.Close()
	if r.Size() != 5 {
		t.Fatalf("expected size 5, got %d", r.Size())
	}
	rp, st, err := r.AcquireRead(5, time.Second)
	if err != nil || st != ioendpoint.StatusOK {
		t.Fatalf("st=%v err=%v", st, err)
	}
	if string(rp.View()) != "hello" {
		t.Fatalf("got %q", rp.View())
	}

	_, st, err = r.AcquireRead(1, time.Second)
	if err != nil || st != ioendpoint.StatusDone {
		t.Fatalf("expected DONE at EOF, got st=%v err=%v", st, err)
	}
}

func TestFileioOpenMissingFileFails(t *testing.T) {
	r := New(filepath.Join(t.TempDir(), "nope.bin"), false)
	if err := r.Open(); err == nil {
		t.Fatal("expected an error opening a missing file")
	}
}
