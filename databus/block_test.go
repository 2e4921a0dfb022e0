package databus

import (
	"testing"
	"time"
)

func TestBlockPassThroughIsZeroCopy(t *testing.T) {
	b := NewBlock(10*1024, true, nil)

	wp, st, err := b.AcquireWrite(10*1024, time.Second)
	if err != nil || st != StatusOK {
		t.Fatalf("acquire write: st=%v err=%v", st, err)
	}
	wp.Bytes[0] = 0xAB
	wp.Valid = 10 * 1024
	if err := b.ReleaseWrite(wp, false); err != nil {
		t.Fatal(err)
	}

	rp, st, err := b.AcquireRead(10*1024, time.Second)
	if err != nil || st != StatusOK {
		t.Fatalf("acquire read: st=%v err=%v", st, err)
	}
	if &rp.Bytes[0] != &wp.Bytes[0] {
		t.Fatal("pass-through acquire did not observe the producer's buffer pointer")
	}
	if rp.Bytes[0] != 0xAB {
		t.Fatalf("got %x", rp.Bytes[0])
	}
	if err := b.ReleaseRead(rp); err != nil {
		t.Fatal(err)
	}
}

func TestBlockCopyModeUsesIntermediateBuffer(t *testing.T) {
	const frame = 256
	b := NewBlock(frame, false, nil)

	wp, _, _ := b.AcquireWrite(frame, time.Second)
	owned := &wp.Bytes[0]
	copy(wp.Bytes, []byte("payload"))
	wp.Valid = 7
	_ = b.ReleaseWrite(wp, false)

	rp, st, _ := b.AcquireRead(frame, time.Second)
	if st != StatusOK {
		t.Fatalf("status=%v", st)
	}
	if &rp.Bytes[0] != owned {
		t.Fatal("copy-mode block should hand back the bus-owned buffer, not a producer pointer")
	}
	if string(rp.View()) != "payload" {
		t.Fatalf("got %q", rp.View())
	}
	_ = b.ReleaseRead(rp)
}

func TestFifoOrderingPreserved(t *testing.T) {
	f := NewFifo(4)
	for _, s := range []string{"a", "b", "c"} {
		p, _, _ := f.AcquireWrite(len(s), time.Second)
		copy(p.Bytes, s)
		p.Valid = len(s)
		_ = f.ReleaseWrite(p, false)
	}
	for _, want := range []string{"a", "b", "c"} {
		p, st, _ := f.AcquireRead(1, time.Second)
		if st != StatusOK || string(p.View()) != want {
			t.Fatalf("want %q got %q (st=%v)", want, p.View(), st)
		}
		_ = f.ReleaseRead(p)
	}
}
