package export

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/golang/glog"

	"github.com/hb9tf/sigsift/sdr"
	"github.com/hb9tf/sigsift/stats"
)

// IQWriter stores each detected segment as one cf32 file named
// <label>_<counter>.bin under <dir>/<label>. These recordings can be replayed
// through sdr.FileSource.
type IQWriter struct {
	// Dir is the output directory; the label subdirectory is created on the
	// first write.
	Dir string
	// Label names the recording batch.
	Label string
	// MaxFiles stops the exporter after this many files when > 0.
	MaxFiles int

	counter int
}

func (w *IQWriter) Write(ctx context.Context, segments <-chan sdr.Segment) error {
	dir := filepath.Join(w.Dir, w.Label)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("unable to create output directory %q: %s", dir, err)
	}

	for segment := range segments {
		name := filepath.Join(dir, fmt.Sprintf("%s_%010d.bin", w.Label, w.counter))
		raw := sdr.EncodeCF32(make([]byte, 0, 8*len(segment.IQ)), segment.IQ)
		if err := os.WriteFile(name, raw, 0o644); err != nil {
			glog.Warningf("error writing segment file %q: %s\n", name, err)
			continue
		}
		w.counter++
		stats.SegmentsExported.Inc()
		glog.V(1).Infof("wrote segment %q (buffer %d row %d, peak %.1f dB)\n", name, segment.Sequence, segment.Row, segment.DBHigh)
		if w.MaxFiles > 0 && w.counter >= w.MaxFiles {
			glog.Infof("file write counter = %d, stopping export\n", w.counter)
			return nil
		}
	}
	return nil
}
