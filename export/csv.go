package export

import (
	"context"
	"encoding/csv"
	"fmt"
	"os"

	"github.com/golang/glog"

	"github.com/hb9tf/sigsift/sdr"
	"github.com/hb9tf/sigsift/stats"
)

// CSV writes segment metadata (no IQ payload) to stdout.
type CSV struct{}

func (c *CSV) Write(ctx context.Context, segments <-chan sdr.Segment) error {
	w := csv.NewWriter(os.Stdout)
	w.Write([]string{
		"Source",
		"Identifier",
		"Sequence",
		"Row",
		"FreqCenter",
		"SampleRate",
		"StartUnixMilli",
		"dBAvg",
		"dBHigh",
		"SampleCount",
	})

	for s := range segments {
		if err := w.Write([]string{
			s.Source,
			s.Identifier,
			fmt.Sprintf("%d", s.Sequence),
			fmt.Sprintf("%d", s.Row),
			fmt.Sprintf("%d", s.FreqCenter),
			fmt.Sprintf("%d", s.SampleRate),
			fmt.Sprintf("%d", s.Start.UnixMilli()),
			fmt.Sprintf("%f", s.DBAvg),
			fmt.Sprintf("%f", s.DBHigh),
			fmt.Sprintf("%d", len(s.IQ)),
		}); err != nil {
			glog.Warningf("error while writing CSV line: %s\n", err)
			continue
		}
		stats.SegmentsExported.Inc()

		w.Flush()
		if err := w.Error(); err != nil {
			glog.Warningf("error flushing CSV: %s\n", err)
		}
	}
	return nil
}
