// Package metrics keeps the service counters and renders them in the
// Prometheus text exposition format at GET /metrics.
package metrics
