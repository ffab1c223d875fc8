// Package observability provides OpenTelemetry tracing and metrics for
// migration runs, plus a Prometheus textfile of the last run.
//
// Tracing and metrics are exported over OTLP/HTTP when enabled:
//
//	obs := observability.NewComponent(cfg, "idmigrate", version.Version, "production")
//	registry.Register(obs)
//
// Instruments are nil-safe, so callers may pass a nil *Metrics:
//
//	metrics := obs.Metrics()
//	metrics.RecordWritten(ctx, elapsed, false)
//
// Per-record spans:
//
//	ctx, op := observability.StartOperation(ctx, observability.SpanRecord, runID, key)
//	defer op.End("ok", nil)
//
// Textfile:
//
//	err := observability.WriteTextfile("/var/lib/node_exporter/idmigrate.prom", summary)
package observability
