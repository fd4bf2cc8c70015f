package batch

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

type metrics struct {
	files        *prometheus.CounterVec
	instructions *prometheus.CounterVec
	failures     prometheus.Counter
	duration     prometheus.Histogram
}

func newMetrics(reg prometheus.Registerer) *metrics {
	f := promauto.With(reg)
	return &metrics{
		files: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: "covmap",
			Name:      "files_decoded_total",
			Help:      "Number of bitmap files decoded successfully.",
		}, []string{"kind"}),
		instructions: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: "covmap",
			Name:      "instructions_total",
			Help:      "Number of set bits found in decoded bitmap files.",
		}, []string{"kind"}),
		failures: f.NewCounter(prometheus.CounterOpts{
			Namespace: "covmap",
			Name:      "decode_failures_total",
			Help:      "Number of bitmap files that failed to decode.",
		}),
		duration: f.NewHistogram(prometheus.HistogramOpts{
			Namespace: "covmap",
			Name:      "decode_duration_seconds",
			Help:      "Time spent decoding and writing a single bitmap file.",
			Buckets:   prometheus.ExponentialBuckets(0.001, 4, 8),
		}),
	}
}
