// Package otel provides OpenTelemetry metric exporter bindings for authsession
// counters and histograms.
//
// [NewOTelExporter] registers Int64ObservableCounter instruments for each
// registry metric and Int64ObservableGauge per histogram bucket. A single
// callback reads [authsession.Registry.MetricsSnapshot] on each collection
// cycle.
//
// # What this package must NOT do
//
//   - Own the OTel MeterProvider; callers supply the Meter.
//   - Mutate registry state.
package otel
