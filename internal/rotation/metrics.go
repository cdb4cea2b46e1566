package rotation

import (
	"github.com/clambin/ledrotator/internal/board"
	"github.com/prometheus/client_golang/prometheus"
)

var _ prometheus.Collector = &Ring{}

var (
	activeMetric = prometheus.NewDesc(
		prometheus.BuildFQName("ledrotator", "rotation", "active"),
		"Set to 1 for the actor running its cycle",
		[]string{"color"}, nil,
	)
	handoffMetric = prometheus.NewDesc(
		prometheus.BuildFQName("ledrotator", "rotation", "handoffs_total"),
		"Number of completed handoffs",
		nil, nil,
	)
)

// Describe implements the prometheus.Collector interface
func (r *Ring) Describe(ch chan<- *prometheus.Desc) {
	ch <- activeMetric
	ch <- handoffMetric
}

// Collect implements the prometheus.Collector interface
func (r *Ring) Collect(ch chan<- prometheus.Metric) {
	active, ok := r.Active()
	for _, c := range board.Colors {
		var value float64
		if ok && c == active {
			value = 1
		}
		ch <- prometheus.MustNewConstMetric(activeMetric, prometheus.GaugeValue, value, c.String())
	}
	ch <- prometheus.MustNewConstMetric(handoffMetric, prometheus.CounterValue, float64(r.handoffs.Load()))
}
