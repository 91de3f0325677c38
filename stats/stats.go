// Package stats exposes the pipeline's Prometheus counters.
package stats

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// BuffersProcessed counts buffers that completed a detection pass.
	BuffersProcessed = promauto.NewCounter(prometheus.CounterOpts{
		Name: "sigsift_buffers_processed_total",
		Help: "Number of sample buffers run through the detector.",
	})
	// BuffersDropped counts buffers skipped because the source reported an
	// overflow for that interval.
	BuffersDropped = promauto.NewCounter(prometheus.CounterOpts{
		Name: "sigsift_buffers_dropped_total",
		Help: "Number of sample buffers dropped due to source overflow.",
	})
	// SegmentsDetected counts segments that passed detection.
	SegmentsDetected = promauto.NewCounter(prometheus.CounterOpts{
		Name: "sigsift_segments_detected_total",
		Help: "Number of segments flagged by the detector.",
	})
	// SegmentsExported counts segments successfully handed to a sink.
	SegmentsExported = promauto.NewCounter(prometheus.CounterOpts{
		Name: "sigsift_segments_exported_total",
		Help: "Number of segments written by an exporter.",
	})
)
