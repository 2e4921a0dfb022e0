package port

import (
	"testing"
	"time"

	"github.com/jangala-dev/gmf/databus"
	"github.com/jangala-dev/gmf/gmferr"
)

func TestLinkSharedPassThroughChain(t *testing.T) {
	out := New("out", Out, Caps{Granularity: Block, Shareable: true, SizeHint: 10 * 1024})
	in := New("in", In, Caps{Granularity: Block, Shareable: true, SizeHint: 10 * 1024})

	if err := Link(out, in, LinkOptions{}); err != nil {
		t.Fatal(err)
	}
	if !out.Shared() || !in.Shared() {
		t.Fatal("expected both ends to report shared")
	}

	wp, st, err := out.AcquireWrite(10*1024, time.Second)
	if err != nil || st != databus.StatusOK {
		t.Fatalf("acquire write: st=%v err=%v", st, err)
	}
	wp.Bytes[0] = 0x7
	wp.Valid = 10 * 1024
	if err := out.ReleaseWrite(wp, false); err != nil {
		t.Fatal(err)
	}

	rp, st, err := in.AcquireRead(10*1024, time.Second)
	if err != nil || st != databus.StatusOK {
		t.Fatalf("acquire read: st=%v err=%v", st, err)
	}
	if &rp.Bytes[0] != &wp.Bytes[0] {
		t.Fatal("shared link should observe the producer's buffer pointer, not a copy")
	}
	_ = in.ReleaseRead(rp)
}

func TestLinkCapabilityMismatchUsesIntermediateBuffer(t *testing.T) {
	out := New("out", Out, Caps{Granularity: Block, Shareable: true, SizeHint: 4096})
	in := New("in", In, Caps{Granularity: Block, Shareable: false, SizeHint: 8192})

	if err := Link(out, in, LinkOptions{}); err != nil {
		t.Fatal(err)
	}
	if out.Shared() || in.Shared() {
		t.Fatal("one side non-shareable must force a copy, not a shared pass-through")
	}

	wp, _, err := out.AcquireWrite(4096, time.Second)
	if err != nil {
		t.Fatal(err)
	}
	if len(wp.Bytes) != 8192 {
		t.Fatalf("expected intermediate buffer sized max(4096,8192)=8192, got %d", len(wp.Bytes))
	}
}

func TestLinkGranularityMismatchFails(t *testing.T) {
	out := New("out", Out, Caps{Granularity: Byte})
	in := New("in", In, Caps{Granularity: Block})

	err := Link(out, in, LinkOptions{})
	if err == nil {
		t.Fatal("expected an error for mismatched granularity")
	}
	if !gmferr.Is(err, gmferr.NotSupported) {
		t.Fatalf("expected NotSupported, got %v", err)
	}
}

func TestLinkWrongDirectionsFails(t *testing.T) {
	a := New("a", In, Caps{})
	b := New("b", In, Caps{})
	if err := Link(a, b, LinkOptions{}); !gmferr.Is(err, gmferr.InvalidArgument) {
		t.Fatalf("expected InvalidArgument, got %v", err)
	}
}
