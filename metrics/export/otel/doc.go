// Package otel provides OpenTelemetry metric exporter bindings for goSession
// counters and histograms.
//
// [NewOTelExporter] registers an Int64ObservableCounter per counter and, per
// latency histogram, a bucket gauge carrying an "le" attribute plus a count
// gauge. A single callback reads Client.MetricsSnapshot on each collection.
//
// # What this package must NOT do
//
//   - Own the OTel MeterProvider; callers supply the Meter.
//   - Mutate client state.
package otel
