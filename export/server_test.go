package export

import (
	"testing"
	"time"

	"github.com/hb9tf/sigsift/sdr"
)

func TestWireSegmentRoundTrip(t *testing.T) {
	start := time.UnixMilli(1735689600123)
	seg := sdr.Segment{
		Identifier: "d1f0a7c2",
		Source:     "rtlsdr",
		Sequence:   42,
		Row:        3,
		FreqCenter: 315000000,
		SampleRate: 7812800,
		DBAvg:      -12.5,
		DBHigh:     -3.25,
		Start:      start,
		IQ:         []complex64{complex(0.5, -0.5), complex(-1, 0.25)},
	}

	got, err := FromWire(ToWire(seg))
	if err != nil {
		t.Fatal(err)
	}
	if got.Identifier != seg.Identifier || got.Source != seg.Source ||
		got.Sequence != seg.Sequence || got.Row != seg.Row ||
		got.FreqCenter != seg.FreqCenter || got.SampleRate != seg.SampleRate ||
		got.DBAvg != seg.DBAvg || got.DBHigh != seg.DBHigh {
		t.Errorf("metadata changed on the wire: got %+v, want %+v", got, seg)
	}
	if !got.Start.Equal(start) {
		t.Errorf("start time %s, want %s", got.Start, start)
	}
	if len(got.IQ) != len(seg.IQ) {
		t.Fatalf("got %d IQ samples, want %d", len(got.IQ), len(seg.IQ))
	}
	for i := range seg.IQ {
		if got.IQ[i] != seg.IQ[i] {
			t.Errorf("IQ[%d]: got %v, want %v", i, got.IQ[i], seg.IQ[i])
		}
	}
}

func TestFromWireBadPayload(t *testing.T) {
	if _, err := FromWire(WireSegment{IQ: "not base64!"}); err == nil {
		t.Error("expected error for invalid base64")
	}
	// Valid base64, but not a whole number of cf32 samples.
	if _, err := FromWire(WireSegment{IQ: "AAAA"}); err == nil {
		t.Error("expected error for truncated IQ payload")
	}
}
