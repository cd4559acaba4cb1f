package metric

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/yndnr/payauth-go/internal/core/domain"
)

// SessionCollector exports the current session state as gauges.
// Values are read from the snapshot function at scrape time.
type SessionCollector struct {
	snapshot func() domain.Session

	authenticated *prometheus.Desc
	loading       *prometheus.Desc
}

// NewSessionCollector creates a collector reading from snapshot.
func NewSessionCollector(snapshot func() domain.Session) *SessionCollector {
	return &SessionCollector{
		snapshot: snapshot,
		authenticated: prometheus.NewDesc(
			prometheus.BuildFQName(namespace, "session", "authenticated"),
			"1 when the session holds a verified user",
			nil, nil,
		),
		loading: prometheus.NewDesc(
			prometheus.BuildFQName(namespace, "session", "loading"),
			"1 while bootstrap, login or register is in flight",
			nil, nil,
		),
	}
}

// Describe implements prometheus.Collector.
func (c *SessionCollector) Describe(ch chan<- *prometheus.Desc) {
	ch <- c.authenticated
	ch <- c.loading
}

// Collect implements prometheus.Collector.
func (c *SessionCollector) Collect(ch chan<- prometheus.Metric) {
	s := c.snapshot()
	ch <- prometheus.MustNewConstMetric(c.authenticated, prometheus.GaugeValue, boolToFloat(s.IsAuthenticated))
	ch <- prometheus.MustNewConstMetric(c.loading, prometheus.GaugeValue, boolToFloat(s.IsLoading))
}

func boolToFloat(b bool) float64 {
	if b {
		return 1
	}
	return 0
}
