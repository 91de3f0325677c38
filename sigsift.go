package main

import (
	"context"
	"database/sql"
	"errors"
	"flag"
	"net/http"
	"strings"

	"github.com/golang/glog"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/hb9tf/sigsift/detect"
	"github.com/hb9tf/sigsift/export"
	"github.com/hb9tf/sigsift/filter"
	"github.com/hb9tf/sigsift/plot"
	"github.com/hb9tf/sigsift/sdr"

	// Blind import support for sqlite3 used by the sqlite exporter.
	_ "github.com/mattn/go-sqlite3"
)

// Flags
var (
	identifier = flag.String("id", "", "unique identifier of the capture run (defaults to a random UUID)")
	sourceType = flag.String("source", "", "sample source to use (one of: rtlsdr, file, synth)")
	output     = flag.String("output", "iq", "Export mechanism to use (one of: iq, csv, sqlite, server)")

	// Radio / stream
	freq       = flag.Int64("freq", 315000000, "receiver tuning frequency in Hz")
	sampleRate = flag.Int64("sampleRate", 7812800, "receiver sample rate in samples per second")
	gain       = flag.String("gain", "agc", "gain value in dB, or \"agc\"")
	iqFile     = flag.String("iqFile", "", "path of the cf32 file to replay for the file source")
	iqLoop     = flag.Bool("iqLoop", false, "replay the cf32 file in a loop")

	// Detector
	bufferLen   = flag.Int("bufferLen", 32768, "number of complex samples per streaming read")
	segmentLen  = flag.Int("segmentLen", 256, "number of original-rate samples per detection segment")
	decimation  = flag.Int("decimation", 32, "integer decimation factor for the power envelope")
	thresholdDB = flag.Float64("threshold", -30, "detection threshold in dB, 0 is full scale")
	minEvidence = flag.Int("sampAboveThresh", 4, "minimum count of decimated samples above the threshold for a segment to be flagged")
	minPeakDB   = flag.Float64("minPeakDB", 0, "drop segments whose peak power is below this dB value (0 disables)")

	// Visualization
	visualize = flag.Bool("visualize", false, "render a PNG plot whenever a buffer contains detections")
	plotDir   = flag.String("plotDir", "plots", "output folder for detection plots")

	// IQ writer
	label      = flag.String("label", "signal", "label for recorded segment files")
	outputPath = flag.String("outputPath", "recordings", "output folder for segment files")
	maxFiles   = flag.Int("maxFiles", 0, "maximum number of segment files to record (0 = unlimited)")

	// SQLite
	sqliteFile = flag.String("sqliteFile", "/tmp/sigsift", "File path of the sqlite DB file to use.")

	// Sigsift server
	serverAddr     = flag.String("server", "https://localhost:8443", "URL scheme, address and port of the sigsift collection server.")
	serverSegments = flag.Int("serverSegments", 0, "Defines how many segments should be sent to the server at once.")

	// Metrics
	metricsListen = flag.String("metricsListen", "", "address to serve Prometheus metrics on (empty = disabled)")
)

func main() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	// Set defaults for glog flags. Can be overridden via cmdline.
	flag.Set("logtostderr", "false")
	flag.Set("stderrthreshold", "WARNING")
	flag.Set("v", "1")
	// Parse flags globally.
	flag.Parse()

	if *identifier == "" {
		*identifier = uuid.NewString()
	}

	// Source setup
	var source sdr.Source
	switch strings.ToLower(*sourceType) {
	case "rtlsdr":
		source = &sdr.RTLSDR{
			FreqCenter: *freq,
			SampleRate: *sampleRate,
			Gain:       *gain,
		}
	case "file":
		if *iqFile == "" {
			glog.Exit("the file source needs -iqFile")
		}
		source = &sdr.FileSource{
			Path: *iqFile,
			Loop: *iqLoop,
		}
	case "synth":
		source = &sdr.Synthetic{
			NoiseAmplitude: 0.01,
			BurstAmplitude: 0.5,
			BurstEvery:     10,
			BurstOffset:    *bufferLen / 2,
			BurstLen:       *segmentLen,
		}
	default:
		glog.Exitf("%q is not a supported source type, pick one of: rtlsdr, file, synth", *sourceType)
	}
	defer source.Close()

	// Detector setup
	detector, err := detect.New(detect.Config{
		BufferLen:             *bufferLen,
		SegmentLen:            *segmentLen,
		Decimation:            *decimation,
		ThresholdDB:           *thresholdDB,
		SamplesAboveThreshold: *minEvidence,
	})
	if err != nil {
		glog.Exitf("unable to construct detector: %s", err)
	}

	// Exporter setup
	var exporter export.Exporter
	switch strings.ToLower(*output) {
	case "iq":
		exporter = &export.IQWriter{
			Dir:      *outputPath,
			Label:    *label,
			MaxFiles: *maxFiles,
		}
	case "csv":
		exporter = &export.CSV{}
	case "sqlite":
		db, err := sql.Open("sqlite3", *sqliteFile)
		if err != nil {
			glog.Exitf("unable to open sqlite DB %q: %s", *sqliteFile, err)
		}
		exporter = &export.SQLite{
			DB: db,
		}
	case "server":
		exporter = &export.Server{
			Server:             *serverAddr,
			SendSegmentsAmount: *serverSegments,
		}
	default:
		glog.Exitf("%q is not a supported export method, pick one of: iq, csv, sqlite, server", *output)
	}

	// Observer setup
	var observer detect.Observer
	if *visualize {
		observer = &plot.Plotter{
			Dir:         *plotDir,
			SampleRate:  *sampleRate,
			ThresholdDB: *thresholdDB,
		}
	}

	// Metrics
	if *metricsListen != "" {
		go func() {
			mux := http.NewServeMux()
			mux.Handle("/metrics", promhttp.Handler())
			glog.Fatal(http.ListenAndServe(*metricsListen, mux))
		}()
	}

	// Run: detection loop -> (optional triage filter) -> exporter.
	detected := make(chan sdr.Segment)
	exported := detected
	if *minPeakDB != 0 {
		filtered := make(chan sdr.Segment)
		go func() {
			if err := filter.Filter(detected, filtered, []filter.Filterer{
				&filter.MinPeakDB{DBHigh: *minPeakDB},
			}); err != nil {
				glog.Fatal(err)
			}
		}()
		exported = filtered
	}

	// The sink may finish before the stream does (e.g. -maxFiles reached);
	// cancel the detection loop when it returns so the process exits instead
	// of blocking on a channel nobody drains anymore.
	done := make(chan error, 1)
	go func() {
		err := exporter.Write(ctx, exported)
		cancel()
		done <- err
	}()

	info := sdr.StreamInfo{
		Identifier: *identifier,
		FreqCenter: *freq,
		SampleRate: *sampleRate,
	}
	glog.Infof("Looking for signals to record (id %s). Press ctrl-c to exit.\n", *identifier)
	if err := detect.Run(ctx, source, detector, info, detected, observer); err != nil && !errors.Is(err, context.Canceled) {
		glog.Fatal(err)
	}
	if err := <-done; err != nil {
		glog.Fatal(err)
	}

	glog.Flush()
}
