package detect

import (
	"errors"
	"math"
	"math/rand"
	"testing"
)

func mustDetector(t *testing.T, cfg Config) *Detector {
	t.Helper()
	d, err := New(cfg)
	if err != nil {
		t.Fatalf("New(%+v): %s", cfg, err)
	}
	return d
}

// fillMagnitude sets every sample in buf[lo:hi] to the given constant
// magnitude, spread over a slow phase rotation.
func fillMagnitude(buf []complex64, lo, hi int, mag float64) {
	for i := lo; i < hi; i++ {
		phase := 2 * math.Pi * float64(i) / 64
		buf[i] = complex(float32(mag*math.Cos(phase)), float32(mag*math.Sin(phase)))
	}
}

func countFlags(flags []bool) int {
	n := 0
	for _, f := range flags {
		if f {
			n++
		}
	}
	return n
}

func TestConfigValidation(t *testing.T) {
	valid := Config{
		BufferLen:             1024,
		SegmentLen:            256,
		Decimation:            4,
		ThresholdDB:           0,
		SamplesAboveThreshold: 4,
	}
	if _, err := New(valid); err != nil {
		t.Fatalf("valid config rejected: %s", err)
	}

	cases := []struct {
		name   string
		mutate func(*Config)
	}{
		{"decimation below 2", func(c *Config) { c.Decimation = 1 }},
		{"segment not multiple of decimation", func(c *Config) { c.SegmentLen = 254 }},
		{"buffer not multiple of segment", func(c *Config) { c.BufferLen = 1000 }},
		{"zero evidence count", func(c *Config) { c.SamplesAboveThreshold = 0 }},
		{"evidence count exceeds decimated segment", func(c *Config) { c.SamplesAboveThreshold = 65 }},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			cfg := valid
			c.mutate(&cfg)
			_, err := New(cfg)
			if err == nil {
				t.Fatal("expected error")
			}
			if !errors.Is(err, ErrInvalidParameter) {
				t.Errorf("got %v, want ErrInvalidParameter", err)
			}
		})
	}
}

func TestDetectShapeMismatch(t *testing.T) {
	d := mustDetector(t, Config{
		BufferLen:             1024,
		SegmentLen:            256,
		Decimation:            4,
		ThresholdDB:           0,
		SamplesAboveThreshold: 4,
	})
	if _, err := d.Detect(make([]complex64, 512)); !errors.Is(err, ErrShapeMismatch) {
		t.Errorf("got %v, want ErrShapeMismatch", err)
	}
}

func TestDetectSilence(t *testing.T) {
	d := mustDetector(t, Config{
		BufferLen:             1024,
		SegmentLen:            256,
		Decimation:            4,
		ThresholdDB:           -60,
		SamplesAboveThreshold: 1,
	})
	selected, err := d.Detect(make([]complex64, 1024))
	if err != nil {
		t.Fatal(err)
	}
	if len(selected) != 0 {
		t.Errorf("all-zero buffer selected %d segments, want 0", len(selected))
	}
	for i, v := range d.Envelope() {
		if v != 0 {
			t.Fatalf("envelope[%d] = %g, want exactly 0", i, v)
		}
	}
	for i, f := range d.Flags() {
		if f {
			t.Errorf("flag %d set for all-zero buffer", i)
		}
	}
}

// The concrete end-to-end scenario: one constant-magnitude burst filling
// segment row 2 must flag exactly that row and return exactly its samples.
func TestDetectSingleBurstSegment(t *testing.T) {
	d := mustDetector(t, Config{
		BufferLen:             1024,
		SegmentLen:            256,
		Decimation:            4,
		ThresholdDB:           0, // linear threshold 1.0
		SamplesAboveThreshold: 4,
	})

	buf := make([]complex64, 1024)
	fillMagnitude(buf, 0, 1024, 0.1) // power 0.01 floor
	fillMagnitude(buf, 512, 768, 2)  // power 4 burst in row 2

	selected, err := d.Detect(buf)
	if err != nil {
		t.Fatal(err)
	}

	wantFlags := []bool{false, false, true, false}
	flags := d.Flags()
	if len(flags) != len(wantFlags) {
		t.Fatalf("got %d flags, want %d", len(flags), len(wantFlags))
	}
	for i := range wantFlags {
		if flags[i] != wantFlags[i] {
			t.Errorf("flag[%d] = %t, want %t", i, flags[i], wantFlags[i])
		}
	}

	if len(selected) != 1 {
		t.Fatalf("selected %d segments, want 1", len(selected))
	}
	if len(selected[0]) != 256 {
		t.Fatalf("selected segment has %d samples, want 256", len(selected[0]))
	}
	for i, s := range selected[0] {
		if s != buf[512+i] {
			t.Fatalf("selected[0][%d] = %v, want original sample %v", i, s, buf[512+i])
		}
	}

	// Away from the segment edges the decimated envelope sits at the burst
	// power, well above the threshold.
	envelope := d.Envelope()
	for i := 130; i < 190; i++ { // decimated indices inside row 2
		if math.Abs(envelope[i]-4) > 0.1 {
			t.Errorf("envelope[%d] = %g, want ~4", i, envelope[i])
		}
	}
}

func TestDetectIdempotence(t *testing.T) {
	cfg := Config{
		BufferLen:             2048,
		SegmentLen:            256,
		Decimation:            8,
		ThresholdDB:           -10,
		SamplesAboveThreshold: 2,
	}
	d := mustDetector(t, cfg)

	rng := rand.New(rand.NewSource(7))
	a := make([]complex64, cfg.BufferLen)
	for i := range a {
		a[i] = complex(float32(rng.NormFloat64()*0.3), float32(rng.NormFloat64()*0.3))
	}
	fillMagnitude(a, 512, 1024, 1.5)
	b := make([]complex64, cfg.BufferLen)
	copy(b, a)

	selA, err := d.Detect(a)
	if err != nil {
		t.Fatal(err)
	}
	flagsA := append([]bool(nil), d.Flags()...)
	segsA := make([][]complex64, len(selA))
	for i, s := range selA {
		segsA[i] = append([]complex64(nil), s...)
	}

	selB, err := d.Detect(b)
	if err != nil {
		t.Fatal(err)
	}
	flagsB := d.Flags()

	for i := range flagsA {
		if flagsA[i] != flagsB[i] {
			t.Errorf("flag[%d] differs across identical buffers", i)
		}
	}
	if len(selA) != len(selB) {
		t.Fatalf("selected %d vs %d segments for identical buffers", len(selA), len(selB))
	}
	for i := range segsA {
		for j := range segsA[i] {
			if segsA[i][j] != selB[i][j] {
				t.Fatalf("segment %d sample %d differs across identical buffers", i, j)
			}
		}
	}
}

func TestDetectSegmentCountInvariant(t *testing.T) {
	cfg := Config{
		BufferLen:             4096,
		SegmentLen:            512,
		Decimation:            16,
		ThresholdDB:           -20,
		SamplesAboveThreshold: 1,
	}
	d := mustDetector(t, cfg)

	// Hot buffer: everything should flag, but never more than N/segLen rows.
	buf := make([]complex64, cfg.BufferLen)
	fillMagnitude(buf, 0, cfg.BufferLen, 1)
	selected, err := d.Detect(buf)
	if err != nil {
		t.Fatal(err)
	}
	maxRows := cfg.BufferLen / cfg.SegmentLen
	if len(selected) > maxRows {
		t.Errorf("selected %d segments, want at most %d", len(selected), maxRows)
	}
	if len(selected) != maxRows {
		t.Errorf("uniform hot buffer selected %d segments, want all %d", len(selected), maxRows)
	}
	for i, s := range selected {
		if len(s) != cfg.SegmentLen {
			t.Errorf("segment %d has %d samples, want %d", i, len(s), cfg.SegmentLen)
		}
	}
}

func TestDetectThresholdMonotonicity(t *testing.T) {
	buf := make([]complex64, 2048)
	rng := rand.New(rand.NewSource(3))
	for i := range buf {
		buf[i] = complex(float32(rng.NormFloat64()*0.5), float32(rng.NormFloat64()*0.5))
	}
	fillMagnitude(buf, 256, 768, 1.2)

	prev := math.MaxInt
	for _, db := range []float64{-20, -10, -3, 0, 3, 10} {
		d := mustDetector(t, Config{
			BufferLen:             2048,
			SegmentLen:            256,
			Decimation:            8,
			ThresholdDB:           db,
			SamplesAboveThreshold: 2,
		})
		if _, err := d.Detect(buf); err != nil {
			t.Fatal(err)
		}
		n := countFlags(d.Flags())
		if n > prev {
			t.Errorf("raising threshold to %g dB increased flagged segments from %d to %d", db, prev, n)
		}
		prev = n
	}
}

func TestDetectEvidenceMonotonicity(t *testing.T) {
	buf := make([]complex64, 2048)
	rng := rand.New(rand.NewSource(11))
	for i := range buf {
		buf[i] = complex(float32(rng.NormFloat64()*0.5), float32(rng.NormFloat64()*0.5))
	}
	fillMagnitude(buf, 1024, 1280, 1.5)

	prev := math.MaxInt
	for _, evidence := range []int{1, 2, 4, 8, 16, 32} {
		d := mustDetector(t, Config{
			BufferLen:             2048,
			SegmentLen:            256,
			Decimation:            8,
			ThresholdDB:           -3,
			SamplesAboveThreshold: evidence,
		})
		if _, err := d.Detect(buf); err != nil {
			t.Fatal(err)
		}
		n := countFlags(d.Flags())
		if n > prev {
			t.Errorf("raising evidence count to %d increased flagged segments from %d to %d", evidence, prev, n)
		}
		prev = n
	}
}

func BenchmarkDetect(b *testing.B) {
	cfg := Config{
		BufferLen:             32768,
		SegmentLen:            4096,
		Decimation:            32,
		ThresholdDB:           -30,
		SamplesAboveThreshold: 4,
	}
	d, err := New(cfg)
	if err != nil {
		b.Fatal(err)
	}
	buf := make([]complex64, cfg.BufferLen)
	rng := rand.New(rand.NewSource(1))
	for i := range buf {
		buf[i] = complex(float32(rng.NormFloat64()), float32(rng.NormFloat64()))
	}

	b.SetBytes(int64(8 * cfg.BufferLen))
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, err := d.Detect(buf); err != nil {
			b.Fatal(err)
		}
	}
}
