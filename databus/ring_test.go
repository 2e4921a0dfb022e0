package databus

import (
	"testing"
	"time"
)

func TestRingZeroLengthAcquireDoesNotBlock(t *testing.T) {
	r := NewRing(16)
	p, st, err := r.AcquireRead(0, 50*time.Millisecond)
	if err != nil || st != StatusOK || p.Valid != 0 {
		t.Fatalf("zero-length acquire: p=%v st=%v err=%v", p, st, err)
	}
}

func TestRingRoundTrip(t *testing.T) {
	r := NewRing(16)

	wp, st, err := r.AcquireWrite(5, time.Second)
	if err != nil || st != StatusOK {
		t.Fatalf("acquire write: st=%v err=%v", st, err)
	}
	copy(wp.Bytes, []byte("hello"))
	wp.Valid = 5
	if err := r.ReleaseWrite(wp, false); err != nil {
		t.Fatal(err)
	}

	rp, st, err := r.AcquireRead(5, time.Second)
	if err != nil || st != StatusOK {
		t.Fatalf("acquire read: st=%v err=%v", st, err)
	}
	if string(rp.View()) != "hello" {
		t.Fatalf("got %q", rp.View())
	}
	if err := r.ReleaseRead(rp); err != nil {
		t.Fatal(err)
	}
}

func TestRingDoneAfterDrain(t *testing.T) {
	r := NewRing(16)

	wp, _, _ := r.AcquireWrite(3, time.Second)
	copy(wp.Bytes, []byte("abc"))
	wp.Valid = 3
	_ = r.ReleaseWrite(wp, true) // is_done=1

	rp, st, _ := r.AcquireRead(3, time.Second)
	if st != StatusOK || string(rp.View()) != "abc" {
		t.Fatalf("expected remaining data first, got st=%v view=%q", st, rp.View())
	}
	_ = r.ReleaseRead(rp)

	_, st, _ = r.AcquireRead(1, 50*time.Millisecond)
	if st != StatusDone {
		t.Fatalf("expected DONE after drain, got %v", st)
	}
}

func TestRingAbortUnblocksAndSticks(t *testing.T) {
	r := NewRing(16)
	done := make(chan Status, 1)
	go func() {
		_, st, _ := r.AcquireRead(4, 5*time.Second)
		done <- st
	}()
	time.Sleep(20 * time.Millisecond)
	r.Abort()

	select {
	case st := <-done:
		if st != StatusAbort {
			t.Fatalf("expected ABORT, got %v", st)
		}
	case <-time.After(time.Second):
		t.Fatal("abort did not unblock acquire")
	}

	if _, st, _ := r.AcquireRead(1, 10*time.Millisecond); st != StatusAbort {
		t.Fatalf("expected ABORT to stick until reset, got %v", st)
	}

	r.Reset()
	if _, st, _ := r.AcquireWrite(1, 10*time.Millisecond); st != StatusOK {
		t.Fatalf("expected fresh ring to accept writes after reset, got %v", st)
	}
}

func TestRingTimeout(t *testing.T) {
	r := NewRing(16)
	_, st, _ := r.AcquireRead(1, 30*time.Millisecond)
	if st != StatusTimeout {
		t.Fatalf("expected TIMEOUT on empty ring, got %v", st)
	}
}
