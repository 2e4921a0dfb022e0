package elements

import (
	"context"
	"testing"
	"time"

	"github.com/jangala-dev/gmf/element"
	"github.com/jangala-dev/gmf/port"
)

func link(t *testing.T, out, in *port.Port) {
	t.Helper()
	if err := port.Link(out, in, port.LinkOptions{}); err != nil {
		t.Fatal(err)
	}
}

func TestPassthroughCopiesBytesExactly(t *testing.T) {
	p := NewPassthrough("pt", 8)
	in, _ := p.Port("in")
	out, _ := p.Port("out")

	feeder := port.New("feeder", port.Out, in.Caps)
	link(t, feeder, in)
	sink := port.New("sink", port.In, out.Caps)
	link(t, out, sink)

	wp, _, err := feeder.AcquireWrite(8, time.Second)
	if err != nil {
		t.Fatal(err)
	}
	copy(wp.Bytes, []byte("deadbeef"))
	wp.Valid = 8
	if err := feeder.ReleaseWrite(wp, true); err != nil {
		t.Fatal(err)
	}

	if err := p.Open(context.Background()); err != nil {
		t.Fatal(err)
	}
	status, err := p.Process(context.Background())
	if err != nil {
		t.Fatal(err)
	}

	rp, _, err := sink.AcquireRead(8, time.Second)
	if err != nil {
		t.Fatal(err)
	}
	if string(rp.View()) != "deadbeef" {
		t.Fatalf("got %q", rp.View())
	}
	_ = status
}

func TestTeeSplitForksToBothOutputs(t *testing.T) {
	tee := NewTeeSplit("tee", 4)
	in, _ := tee.Port("in")
	a, _ := tee.Port("out_a")
	b, _ := tee.Port("out_b")

	feeder := port.New("feeder", port.Out, in.Caps)
	link(t, feeder, in)
	sinkA := port.New("sinkA", port.In, a.Caps)
	link(t, a, sinkA)
	sinkB := port.New("sinkB", port.In, b.Caps)
	link(t, b, sinkB)

	wp, _, _ := feeder.AcquireWrite(4, time.Second)
	copy(wp.Bytes, []byte("beef"))
	wp.Valid = 4
	_ = feeder.ReleaseWrite(wp, false)

	_ = tee.Open(context.Background())
	if _, err := tee.Process(context.Background()); err != nil {
		t.Fatal(err)
	}

	rpA, _, _ := sinkA.AcquireRead(4, time.Second)
	rpB, _, _ := sinkB.AcquireRead(4, time.Second)
	if string(rpA.View()) != "beef" || string(rpB.View()) != "beef" {
		t.Fatalf("got a=%q b=%q", rpA.View(), rpB.View())
	}
}

func TestResamplerUpsamplesToExpectedLength(t *testing.T) {
	r := NewResampler("rs", 8, SampleInfo{InRateHz: 8000, OutRateHz: 16000})
	in, _ := r.Port("in")
	out, _ := r.Port("out")

	feeder := port.New("feeder", port.Out, in.Caps)
	link(t, feeder, in)
	sink := port.New("sink", port.In, out.Caps)
	link(t, out, sink)

	wp, _, _ := feeder.AcquireWrite(8, time.Second)
	samples := []uint16{100, 200, 300, 400}
	encodeU16LE(wp.Bytes, samples)
	wp.Valid = 8
	_ = feeder.ReleaseWrite(wp, false)

	_ = r.Open(context.Background())
	if _, err := r.Process(context.Background()); err != nil {
		t.Fatal(err)
	}

	rp, _, err := sink.AcquireRead(1<<20, 100*time.Millisecond)
	if err != nil {
		t.Fatal(err)
	}
	out16 := decodeU16LE(rp.View())
	if len(out16) == 0 {
		t.Fatal("expected upsampled output, got none")
	}
}

func TestRateLimiterTruncatesOverBudget(t *testing.T) {
	rl := NewRateLimiter("rl", 64, RateLimiterConfig{BytesPerSec: 1, BurstBytes: 1})
	in, _ := rl.Port("in")
	out, _ := rl.Port("out")

	feeder := port.New("feeder", port.Out, in.Caps)
	link(t, feeder, in)
	sink := port.New("sink", port.In, out.Caps)
	link(t, out, sink)

	wp, _, _ := feeder.AcquireWrite(64, time.Second)
	wp.Valid = 64
	_ = feeder.ReleaseWrite(wp, false)

	_ = rl.Open(context.Background())
	status, err := rl.Process(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if status != element.JobTruncate {
		t.Fatalf("expected JobTruncate with a near-empty bucket, got %v", status)
	}
}
