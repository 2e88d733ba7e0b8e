/*
Package monitoring provides Prometheus metrics for the extraction pipeline.

Tracked series cover pages prepared and computed, cache hits and skips,
per-phase durations, and per-phase page failures.

Usage:

	metrics := monitoring.NewMetrics()
	metrics.PagesComputed.Inc()

All methods on *Metrics tolerate a nil receiver so instrumentation can be
disabled by simply not constructing one.
*/
package monitoring
