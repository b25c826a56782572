package metrics

import "github.com/kilianp07/dayplan/core/factory"

// Config defines settings for metrics sinks.
type Config struct {
	Sinks []factory.ModuleConfig `json:"sinks"`
	// PrometheusAddr starts a dedicated /metrics listener when set. The API
	// server always exposes /metrics on its own address.
	PrometheusAddr string `json:"prometheus_addr"`
}
