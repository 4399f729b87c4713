// Package httpapi renders the cache engine's counters and gauges as
// Prometheus text exposition format for the /metrics endpoint. No library
// in the retrieved pack produces this exact format, so it is hand-built
// against the standard library.
package httpapi
