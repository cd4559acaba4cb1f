// Package metric provides Prometheus metrics for payauth-cli.
package metric

import (
	"fmt"
	"sort"
	"strings"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
)

const namespace = "payauth"

// Registry holds all client metrics on a private Prometheus registry.
type Registry struct {
	reg *prometheus.Registry

	// Outbound backend requests
	ClientRequests *prometheus.CounterVec
	ClientDuration *prometheus.HistogramVec

	// Session state machine
	SessionTransitions *prometheus.CounterVec

	// Postal code lookups
	AddressLookups *prometheus.CounterVec
}

// NewRegistry creates a registry with every client metric registered.
func NewRegistry() *Registry {
	r := &Registry{
		reg: prometheus.NewRegistry(),
		ClientRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "http_client",
			Name:      "requests_total",
			Help:      "Backend requests by method and status code (\"transport\" for network failures)",
		}, []string{"method", "code"}),
		ClientDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "http_client",
			Name:      "request_duration_seconds",
			Help:      "Backend request latency",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method"}),
		SessionTransitions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "session",
			Name:      "transitions_total",
			Help:      "Session state transitions by target state",
		}, []string{"state"}),
		AddressLookups: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "address",
			Name:      "lookups_total",
			Help:      "Postal code lookups by result",
		}, []string{"result"}),
	}

	r.reg.MustRegister(
		r.ClientRequests,
		r.ClientDuration,
		r.SessionTransitions,
		r.AddressLookups,
	)
	return r
}

// Prometheus returns the underlying registry for additional collectors.
func (r *Registry) Prometheus() *prometheus.Registry {
	return r.reg
}

// MustRegister registers extra collectors on the registry.
func (r *Registry) MustRegister(cs ...prometheus.Collector) {
	r.reg.MustRegister(cs...)
}

// Sample is one flattened metric value.
type Sample struct {
	Name   string  `json:"name" yaml:"name"`
	Labels string  `json:"labels" yaml:"labels"`
	Value  float64 `json:"value" yaml:"value"`
}

// Snapshot gathers the registry and flattens it into sorted samples.
// Histograms contribute a _count and a _sum sample.
func (r *Registry) Snapshot() ([]Sample, error) {
	families, err := r.reg.Gather()
	if err != nil {
		return nil, fmt.Errorf("gather metrics: %w", err)
	}

	var samples []Sample
	for _, mf := range families {
		name := mf.GetName()
		for _, m := range mf.GetMetric() {
			labels := formatLabels(m.GetLabel())
			switch mf.GetType() {
			case dto.MetricType_COUNTER:
				samples = append(samples, Sample{name, labels, m.GetCounter().GetValue()})
			case dto.MetricType_GAUGE:
				samples = append(samples, Sample{name, labels, m.GetGauge().GetValue()})
			case dto.MetricType_HISTOGRAM:
				h := m.GetHistogram()
				samples = append(samples,
					Sample{name + "_count", labels, float64(h.GetSampleCount())},
					Sample{name + "_sum", labels, h.GetSampleSum()},
				)
			}
		}
	}

	sort.SliceStable(samples, func(i, j int) bool {
		if samples[i].Name != samples[j].Name {
			return samples[i].Name < samples[j].Name
		}
		return samples[i].Labels < samples[j].Labels
	})
	return samples, nil
}

func formatLabels(pairs []*dto.LabelPair) string {
	parts := make([]string, 0, len(pairs))
	for _, p := range pairs {
		parts = append(parts, p.GetName()+"="+p.GetValue())
	}
	return strings.Join(parts, ",")
}
