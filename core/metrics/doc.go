// Package metrics defines the sinks that record scheduling activity. Sinks
// like PromSink and InfluxSink live in infra/metrics and can be combined with
// NewMultiSink. The factory helpers return a MultiSink automatically when
// multiple sinks are configured.
package metrics
