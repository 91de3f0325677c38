// Package sdr defines the streaming source boundary and the segment type
// emitted by the detection pipeline.
package sdr

import (
	"context"
	"errors"
	"time"
)

// ErrOverflow is returned by a Source read when the receiver dropped samples
// for that interval. The buffer contents are invalid and the interval must be
// skipped rather than processed.
var ErrOverflow = errors.New("sdr: stream overflow, samples dropped")

// Source delivers successive fixed-size buffers of complex baseband samples.
//
// A successful Read fills the entire buffer. The buffer memory is only valid
// until the next Read; consumers needing the data afterwards must copy it.
type Source interface {
	Name() string
	Read(ctx context.Context, buf []complex64) error
	Close() error
}

// StreamInfo carries the capture metadata attached to every emitted segment.
type StreamInfo struct {
	// Identifier uniquely identifies the capture run.
	Identifier string
	// FreqCenter is the receiver tuning frequency in Hz.
	FreqCenter int64
	// SampleRate is the receiver sample rate in samples per second.
	SampleRate int64
}

// Segment is one detected slice of the sample stream, the unit handed to
// exporters.
type Segment struct {
	// Metadata
	Identifier string
	Source     string

	// Position in the stream: Sequence is the buffer number since the start
	// of the capture, Row the segment index within that buffer.
	Sequence int64
	Row      int

	// Radio data
	FreqCenter int64
	SampleRate int64
	// DBAvg and DBHigh are the mean and peak of the decimated power envelope
	// over this segment, in dB relative to full scale.
	DBAvg  float64
	DBHigh float64
	Start  time.Time

	// IQ holds the segment's complex samples at the original rate.
	// It is owned by the segment and safe to retain.
	IQ []complex64
}
