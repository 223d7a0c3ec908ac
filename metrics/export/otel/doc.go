// Package otel publishes goIdentity metrics as OpenTelemetry observable instruments.
//
// [NewExporter] registers one Int64ObservableCounter per engine counter, one
// Int64ObservableGauge per latency bucket and a Float64ObservableGauge for the session
// cache hit ratio. A single callback reads [goIdentity.Engine.MetricsSnapshot] on each
// collection cycle. Callers own the MeterProvider.
package otel
