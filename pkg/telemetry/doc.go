// Package telemetry provides OpenTelemetry integration for distributed
// tracing and metrics. It enables observability for pipeline run execution
// with support for:
//   - Distributed tracing with span context propagation across a run
//   - Prometheus metrics for run and node execution statistics
//   - A TelemetryObserver that bridges pkg/observer events into spans and
//     metrics without coupling the runner to any particular backend
package telemetry
