// Package infra holds the adapters behind the core ports: schedule and
// audit stores, cost providers, solvers, classifiers, MQTT notification
// and metrics exporters. Packages here depend on core interfaces, never the
// other way round.
package infra
