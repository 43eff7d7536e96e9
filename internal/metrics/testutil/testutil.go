// Package testutil reads single samples out of cimon's metric vectors.
package testutil

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
	"github.com/stretchr/testify/require"
)

func sample(tb testing.TB, collector prometheus.Collector, err error) *dto.Metric {
	tb.Helper()
	require.NoError(tb, err)

	var m dto.Metric
	require.NoError(tb, collector.(prometheus.Metric).Write(&m))
	return &m
}

// CounterValue returns the current value for a CounterVec label set.
func CounterValue(tb testing.TB, vec *prometheus.CounterVec, labels ...string) float64 {
	tb.Helper()
	counter, err := vec.GetMetricWithLabelValues(labels...)
	return sample(tb, counter, err).GetCounter().GetValue()
}

// GaugeValue returns the current value for a GaugeVec label set.
func GaugeValue(tb testing.TB, vec *prometheus.GaugeVec, labels ...string) float64 {
	tb.Helper()
	gauge, err := vec.GetMetricWithLabelValues(labels...)
	return sample(tb, gauge, err).GetGauge().GetValue()
}

// HistogramCount returns how many observations a HistogramVec label set holds.
func HistogramCount(tb testing.TB, vec *prometheus.HistogramVec, labels ...string) uint64 {
	tb.Helper()
	observer, err := vec.GetMetricWithLabelValues(labels...)
	var collector prometheus.Collector
	if err == nil {
		collector = observer.(prometheus.Histogram)
	}
	return sample(tb, collector, err).GetHistogram().GetSampleCount()
}
