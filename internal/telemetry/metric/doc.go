// Package metric provides Prometheus metrics for payauth-cli.
//
// The CLI does not expose an HTTP endpoint; metrics live on a private
// registry and are printed by `payauth-cli system metrics`:
//
//   - prometheus.go: registry, request/transition/lookup counters, Snapshot
//   - collector.go: session state gauges read at gather time
package metric
