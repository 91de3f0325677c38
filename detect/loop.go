package detect

import (
	"context"
	"errors"
	"io"
	"math"
	"time"

	"github.com/golang/glog"
	"gonum.org/v1/gonum/floats"

	"github.com/hb9tf/sigsift/sdr"
	"github.com/hb9tf/sigsift/stats"
)

// Observer receives, after every completed detection pass, the original
// buffer, the decimated envelope and the detection flags. Observers are
// best-effort consumers: they must not block, must not mutate their
// arguments, and must be done with them when Observe returns.
type Observer interface {
	Observe(buf []complex64, envelope []float64, flags []bool)
}

// Run drives the synchronous pull loop: read one buffer from src, run the
// detector on it, emit the flagged segments, notify the observer, repeat.
// There is no overlap of detection work across buffers.
//
// A read reporting sdr.ErrOverflow skips detection for that interval; the
// drop is counted and logged but never fatal. io.EOF ends the loop cleanly.
// Context cancellation is honored at the top of the loop and while blocked
// sending a segment, so a consumer that stops draining the channel cannot
// wedge the loop; a detection pass always runs to completion. The segments
// channel is closed on return.
//
// obs may be nil.
func Run(ctx context.Context, src sdr.Source, det *Detector, info sdr.StreamInfo, segments chan<- sdr.Segment, obs Observer) error {
	defer close(segments)

	cfg := det.Config()
	buf := make([]complex64, cfg.BufferLen)
	for seq := int64(0); ; seq++ {
		if err := ctx.Err(); err != nil {
			return err
		}
		start := time.Now()
		switch err := src.Read(ctx, buf); {
		case err == nil:
		case errors.Is(err, sdr.ErrOverflow):
			stats.BuffersDropped.Inc()
			glog.V(1).Infof("buffer %d dropped by source %q\n", seq, src.Name())
			continue
		case errors.Is(err, io.EOF):
			return nil
		case errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded):
			return err
		default:
			return err
		}

		selected, err := det.Detect(buf)
		if err != nil {
			return err
		}
		stats.BuffersProcessed.Inc()

		flags := det.Flags()
		envelope := det.Envelope()
		i := 0
		for row, flagged := range flags {
			if !flagged {
				continue
			}
			iq := make([]complex64, cfg.SegmentLen)
			copy(iq, selected[i])
			i++

			segEnv := envelope[row*det.segLenDec : (row+1)*det.segLenDec]
			var offset time.Duration
			if info.SampleRate > 0 {
				offset = time.Duration(float64(row*cfg.SegmentLen) / float64(info.SampleRate) * float64(time.Second))
			}
			select {
			case segments <- sdr.Segment{
				Identifier: info.Identifier,
				Source:     src.Name(),
				Sequence:   seq,
				Row:        row,
				FreqCenter: info.FreqCenter,
				SampleRate: info.SampleRate,
				DBAvg:      10 * math.Log10(floats.Sum(segEnv)/float64(len(segEnv))),
				DBHigh:     10 * math.Log10(floats.Max(segEnv)),
				Start:      start.Add(offset),
				IQ:         iq,
			}:
			case <-ctx.Done():
				return ctx.Err()
			}
			stats.SegmentsDetected.Inc()
		}

		if obs != nil {
			obs.Observe(buf, envelope, flags)
		}
	}
}
