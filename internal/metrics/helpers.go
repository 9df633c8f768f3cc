package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// NewGauge creates a standard gauge metric
func NewGauge(name, help string) prometheus.Gauge {
	return prometheus.NewGauge(prometheus.GaugeOpts{
		Name: name,
		Help: help,
	})
}

// NewGaugeVec creates a labeled gauge
func NewGaugeVec(name, help string, labels []string) *prometheus.GaugeVec {
	return prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Name: name,
		Help: help,
	}, labels)
}

// NewBytesGauge creates a gauge for tracking byte counts
func NewBytesGauge(name, help string) prometheus.Gauge {
	return NewGauge(name, help)
}
