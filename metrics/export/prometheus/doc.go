// Package prometheus renders goIdentity metrics in the Prometheus text exposition format.
//
// Counter names are prefixed goidentity_ and end in _total. The single histogram is
// goidentity_verify_latency_seconds. Callers mount [Exporter.Handler] themselves.
package prometheus
