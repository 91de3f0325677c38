// Package detect implements the streaming power detector: it reduces a
// complex sample buffer to a decimated power envelope, segments it, and
// selects the segments carrying sustained energy above a threshold.
package detect

import (
	"errors"
	"fmt"
	"math"

	"github.com/hb9tf/sigsift/dsp"
)

var (
	// ErrInvalidParameter marks a construction-time misconfiguration.
	ErrInvalidParameter = errors.New("detect: invalid parameter")
	// ErrShapeMismatch marks a runtime buffer whose length is inconsistent
	// with the configured dimensions. This is a programming error, not a
	// recoverable stream condition.
	ErrShapeMismatch = errors.New("detect: shape mismatch")
)

// Config describes one detector instance. All cross-field constraints are
// checked once, in New; a Detector never re-validates per call.
type Config struct {
	// BufferLen is the number of complex samples per streaming read.
	BufferLen int
	// SegmentLen is the length of one detection unit in original-rate
	// samples. Must divide BufferLen and be a multiple of Decimation.
	SegmentLen int
	// Decimation is the integer factor by which the power envelope is
	// downsampled before thresholding.
	Decimation int
	// ThresholdDB is the per-sample detection threshold in dB (power,
	// relative to full scale).
	ThresholdDB float64
	// SamplesAboveThreshold is the minimum evidence: a segment is flagged
	// only if strictly more than this many decimated envelope samples exceed
	// the threshold. Rejects isolated noise spikes.
	SamplesAboveThreshold int
}

func (c Config) validate() error {
	if c.Decimation < 2 {
		return fmt.Errorf("%w: decimation factor must be at least 2, got %d", ErrInvalidParameter, c.Decimation)
	}
	if c.SegmentLen < 1 || c.SegmentLen%c.Decimation != 0 {
		return fmt.Errorf("%w: segment length %d must be a positive multiple of the decimation factor %d", ErrInvalidParameter, c.SegmentLen, c.Decimation)
	}
	if c.BufferLen < 1 || c.BufferLen%c.SegmentLen != 0 {
		return fmt.Errorf("%w: buffer length %d must be a positive multiple of the segment length %d", ErrInvalidParameter, c.BufferLen, c.SegmentLen)
	}
	if c.SamplesAboveThreshold < 1 {
		return fmt.Errorf("%w: samples above threshold must be at least 1, got %d", ErrInvalidParameter, c.SamplesAboveThreshold)
	}
	if c.SamplesAboveThreshold > c.SegmentLen/c.Decimation {
		return fmt.Errorf("%w: samples above threshold %d exceeds decimated segment length %d", ErrInvalidParameter, c.SamplesAboveThreshold, c.SegmentLen/c.Decimation)
	}
	return nil
}

// Detector runs the per-buffer detection pass. It owns pre-sized working
// buffers which are overwritten on every call, so a Detector must not be
// shared across goroutines and consumers of Envelope/Flags must be done with
// them before the next Detect call.
type Detector struct {
	cfg       Config
	kernel    []float64
	threshold float64 // linear power units
	segLenDec int

	power    []float64 // instantaneous power, original rate
	envelope []float64 // decimated power envelope
	flags    []bool    // per-segment detection flags
	selected [][]complex64
}

// New validates the configuration, designs the anti-alias kernel and
// pre-allocates all working storage. It runs one detection pass on a zero
// buffer so that any first-call cost is paid here rather than on the
// steady-state latency path.
func New(cfg Config) (*Detector, error) {
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	kernel, err := dsp.LowpassKernel(cfg.Decimation)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrInvalidParameter, err)
	}
	d := &Detector{
		cfg:       cfg,
		kernel:    kernel,
		threshold: math.Pow(10, cfg.ThresholdDB/10),
		segLenDec: cfg.SegmentLen / cfg.Decimation,
		power:     make([]float64, cfg.BufferLen),
		envelope:  make([]float64, cfg.BufferLen/cfg.Decimation),
		flags:     make([]bool, cfg.BufferLen/cfg.SegmentLen),
		selected:  make([][]complex64, 0, cfg.BufferLen/cfg.SegmentLen),
	}
	warmup := make([]complex64, cfg.BufferLen)
	if _, err := d.Detect(warmup); err != nil {
		return nil, err
	}
	return d, nil
}

// Config returns the configuration the detector was built with.
func (d *Detector) Config() Config {
	return d.cfg
}

// Detect runs one detection pass over buf and returns the segments whose
// decimated envelope carries sufficient energy, as subslices of buf in
// original order. The returned slices alias buf and are only valid until buf
// is reused; callers retaining them must copy.
//
// Detect overwrites the detector's envelope and flag buffers. It performs no
// allocations beyond reusing an internal result slice.
func (d *Detector) Detect(buf []complex64) ([][]complex64, error) {
	if len(buf) != d.cfg.BufferLen {
		return nil, fmt.Errorf("%w: buffer length %d, configured %d", ErrShapeMismatch, len(buf), d.cfg.BufferLen)
	}

	// Instantaneous power at the full rate.
	dsp.Power(d.power, buf)

	// Filter and decimate the power to a lower rate.
	if err := dsp.DecimatePower(d.envelope, d.power, d.kernel, d.cfg.Decimation); err != nil {
		return nil, fmt.Errorf("%w: %s", ErrShapeMismatch, err)
	}

	// Per segment, count envelope samples above the threshold and flag the
	// segment if there is enough evidence.
	d.selected = d.selected[:0]
	for row := range d.flags {
		seg := d.envelope[row*d.segLenDec : (row+1)*d.segLenDec]
		above := 0
		for _, p := range seg {
			if p > d.threshold {
				above++
			}
		}
		d.flags[row] = above > d.cfg.SamplesAboveThreshold
		if d.flags[row] {
			d.selected = append(d.selected, buf[row*d.cfg.SegmentLen:(row+1)*d.cfg.SegmentLen])
		}
	}
	return d.selected, nil
}

// Envelope returns the decimated power envelope of the last Detect call.
// The slice is reused and overwritten by the next call.
func (d *Detector) Envelope() []float64 {
	return d.envelope
}

// Flags returns the per-segment detection flags of the last Detect call.
// The slice is reused and overwritten by the next call.
func (d *Detector) Flags() []bool {
	return d.flags
}

// Threshold returns the detection threshold in linear power units.
func (d *Detector) Threshold() float64 {
	return d.threshold
}
