// Package metric captures throughput of streams.
//
// Counters are grouped by stream name and side. Every stream created with
// the same name adds up to the same counters.
package metric

import (
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "stream"

const (
	// ItemCounter measures number of items.
	ItemCounter = "items_total"
	// WeightCounter measures buffered weight of items.
	WeightCounter = "weight_total"
	// LatencyGauge measures time between two items.
	LatencyGauge = "latency_seconds"
	// StreamCounter counts number of metered stream sides.
	StreamCounter = "streams_total"
)

// Sides of a stream.
const (
	Read  = "read"
	Write = "write"
)

var (
	registry = prometheus.NewRegistry()
	labels   = []string{"stream", "side"}

	items = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      ItemCounter,
		Help:      "Number of items passed through the stream side.",
	}, labels)
	weights = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      WeightCounter,
		Help:      "Total weight of items passed through the stream side.",
	}, labels)
	latency = prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      LatencyGauge,
		Help:      "Time between the two latest items.",
	}, labels)
	streams = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      StreamCounter,
		Help:      "Number of metered stream sides.",
	}, labels)

	registerOnce sync.Once
)

func register() {
	registerOnce.Do(func() {
		registry.MustRegister(items, weights, latency, streams)
	})
}

// Registry returns the registry all counters are registered in.
func Registry() *prometheus.Registry {
	register()
	return registry
}

// ResetFunc returns new Measure closure. This closure is needed to postpone
// metrics capture until the stream actually moves items.
type ResetFunc func() MeasureFunc

// MeasureFunc captures metrics when an item passes the stream.
type MeasureFunc func(weight int)

// Meter creates new meter closure to capture counters of the named stream
// side.
func Meter(name, side string) ResetFunc {
	register()
	streams.WithLabelValues(name, side).Inc()
	itemCounter := items.WithLabelValues(name, side)
	weightCounter := weights.WithLabelValues(name, side)
	latencyGauge := latency.WithLabelValues(name, side)
	return func() MeasureFunc {
		calledAt := time.Now()
		return func(w int) {
			latencyGauge.Set(time.Since(calledAt).Seconds())
			itemCounter.Inc()
			weightCounter.Add(float64(w))
			calledAt = time.Now()
		}
	}
}

// Get returns counter values of the named stream side.
func Get(name, side string) map[string]float64 {
	families, err := Registry().Gather()
	if err != nil {
		return nil
	}
	m := make(map[string]float64)
	for _, family := range families {
		for _, metric := range family.GetMetric() {
			if !hasLabels(metric.GetLabel(), name, side) {
				continue
			}
			key := family.GetName()[len(namespace)+1:]
			switch {
			case metric.GetCounter() != nil:
				m[key] = metric.GetCounter().GetValue()
			case metric.GetGauge() != nil:
				m[key] = metric.GetGauge().GetValue()
			}
		}
	}
	return m
}

type labelPair interface {
	GetName() string
	GetValue() string
}

func hasLabels[L labelPair](pairs []L, name, side string) bool {
	matched := 0
	for _, p := range pairs {
		switch {
		case p.GetName() == "stream" && p.GetValue() == name:
			matched++
		case p.GetName() == "side" && p.GetValue() == side:
			matched++
		}
	}
	return matched == 2
}
