package export

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/hb9tf/sigsift/sdr"
)

func TestIQWriterRoundTrip(t *testing.T) {
	dir := t.TempDir()
	w := &IQWriter{Dir: dir, Label: "burst"}

	iq := []complex64{complex(0.5, -0.25), complex(-1, 1), complex(0.125, 0)}
	segments := make(chan sdr.Segment, 1)
	segments <- sdr.Segment{Row: 2, IQ: iq}
	close(segments)

	if err := w.Write(context.Background(), segments); err != nil {
		t.Fatalf("Write: %s", err)
	}

	raw, err := os.ReadFile(filepath.Join(dir, "burst", "burst_0000000000.bin"))
	if err != nil {
		t.Fatal(err)
	}
	got, err := sdr.DecodeCF32(raw)
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != len(iq) {
		t.Fatalf("recorded %d samples, want %d", len(got), len(iq))
	}
	for i := range iq {
		if got[i] != iq[i] {
			t.Errorf("sample %d: got %v, want %v", i, got[i], iq[i])
		}
	}
}

func TestIQWriterMaxFiles(t *testing.T) {
	dir := t.TempDir()
	w := &IQWriter{Dir: dir, Label: "cap", MaxFiles: 2}

	segments := make(chan sdr.Segment, 4)
	for i := 0; i < 4; i++ {
		segments <- sdr.Segment{Row: i, IQ: []complex64{complex(float32(i), 0)}}
	}
	close(segments)

	if err := w.Write(context.Background(), segments); err != nil {
		t.Fatalf("Write: %s", err)
	}
	files, err := os.ReadDir(filepath.Join(dir, "cap"))
	if err != nil {
		t.Fatal(err)
	}
	if len(files) != 2 {
		t.Errorf("wrote %d files, want the cap of 2", len(files))
	}
}
