// Package prometheus exposes goSession metrics as a prometheus.Collector.
//
// Register a [PrometheusExporter] with any registry, or mount
// [PrometheusExporter.Handler] to serve it on its own registry.
//
// # What this package must NOT do
//
//   - Modify metric values (read-only snapshot consumer).
//   - Register with the default Prometheus registry.
package prometheus
