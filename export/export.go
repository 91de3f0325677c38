// Package export provides the sinks that consume detected segments.
package export

import (
	"context"

	"github.com/hb9tf/sigsift/sdr"
)

// Exporter drains the segment channel until it is closed. Per-segment
// failures are logged and counted but do not abort the export loop; the
// detection pipeline has already completed by the time a segment reaches a
// sink, so sink failures never feed back into pipeline state.
type Exporter interface {
	Write(context.Context, <-chan sdr.Segment) error
}
