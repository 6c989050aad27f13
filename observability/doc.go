// Package observability provides OpenTelemetry tracing and metrics for
// stage runs.
//
// Everything here is optional and purely observational: a stage Context
// without metrics or tracing behaves identically. When configured, each
// mapper invocation opens one span and records run counters (cached vs
// computed records, transform errors, duration).
//
// Tracing:
//
//	tp, err := observability.InitTracer(ctx, observability.DefaultTracerConfig("my-pipeline"))
//	defer tp.Shutdown(ctx)
//
// Metrics:
//
//	mp, err := observability.InitMeter(ctx, observability.DefaultMeterConfig("my-pipeline"))
//	metrics, err := observability.NewStageMetrics(observability.Meter("my-pipeline"))
package observability
