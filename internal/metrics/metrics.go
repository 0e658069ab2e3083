package metrics

import (
	"errors"
	"sync/atomic"

	"github.com/prometheus/client_golang/prometheus"
)

// Package-level Prometheus collectors. They are registered via Register.
var (
	regOK atomic.Bool

	recordsRecorded = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "stroke",
			Subsystem: "records",
			Name:      "recorded_total",
			Help:      "Number of finished stroke records, by parent brush.",
		}, []string{"brush"},
	)
	samplesRecorded = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "stroke",
			Subsystem: "samples",
			Name:      "recorded_total",
			Help:      "Number of input samples stored in finished records.",
		},
	)
	recordsReplayed = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "stroke",
			Subsystem: "records",
			Name:      "replayed_total",
			Help:      "Number of stroke records rendered onto a surface.",
		},
	)
	recordsDropped = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "stroke",
			Subsystem: "records",
			Name:      "dropped_total",
			Help:      "Number of stroke records skipped during replay.",
		}, []string{"reason"},
	)
	replayDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "stroke",
			Subsystem: "replay",
			Name:      "duration_seconds",
			Help:      "Time spent replaying one layer.",
			Buckets:   prometheus.DefBuckets,
		},
	)
)

// Register registers all metrics with the provided registerer.
// It is safe to call multiple times; subsequent calls after success are no-ops.
func Register(r prometheus.Registerer) error {
	if regOK.Load() {
		return nil
	}
	cs := []prometheus.Collector{recordsRecorded, samplesRecorded, recordsReplayed, recordsDropped, replayDuration}
	for _, c := range cs {
		if err := r.Register(c); err != nil {
			var are prometheus.AlreadyRegisteredError
			if errors.As(err, &are) {
				continue
			}
			return err
		}
	}
	regOK.Store(true)
	return nil
}

// WriteTextfile writes everything g gathers to path in the text exposition
// format, for the node exporter textfile collector.
func WriteTextfile(path string, g prometheus.Gatherer) error {
	return prometheus.WriteToTextfile(path, g)
}

// The helpers below no-op if Register hasn't been called.

func ObserveRecorded(brush string, samples int) {
	if regOK.Load() {
		recordsRecorded.WithLabelValues(brush).Inc()
		samplesRecorded.Add(float64(samples))
	}
}

func IncReplayed() {
	if regOK.Load() {
		recordsReplayed.Inc()
	}
}

func IncDropped(reason string) {
	if regOK.Load() {
		recordsDropped.WithLabelValues(reason).Inc()
	}
}

func ObserveReplayDuration(seconds float64) {
	if regOK.Load() {
		replayDuration.Observe(seconds)
	}
}
