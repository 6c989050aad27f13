package observability

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetrichttp"
	"go.opentelemetry.io/otel/metric"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"

	"github.com/kbukum/stagekit/logger"
	"github.com/kbukum/stagekit/version"
)

// MeterConfig configures the OpenTelemetry meter provider.
type MeterConfig struct {
	// ServiceName is the name of the service.
	ServiceName string
	// ServiceVersion is the version of the service.
	ServiceVersion string
	// Environment is the deployment environment (dev, staging, prod).
	Environment string
	// Endpoint is the OTLP HTTP endpoint host:port (e.g., "localhost:4318").
	Endpoint string
	// Insecure allows insecure connections (for development).
	Insecure bool
	// Interval is the metric export interval.
	Interval time.Duration
}

// DefaultMeterConfig returns sensible defaults for development.
func DefaultMeterConfig(serviceName string) MeterConfig {
	return MeterConfig{
		ServiceName:    serviceName,
		ServiceVersion: version.Short(),
		Environment:    "development",
		Endpoint:       "localhost:4318",
		Insecure:       true,
		Interval:       15 * time.Second,
	}
}

// InitMeter initializes the OpenTelemetry meter provider.
// Returns a MeterProvider that should be shut down on application exit.
func InitMeter(ctx context.Context, config MeterConfig) (*sdkmetric.MeterProvider, error) {
	opts := []otlpmetrichttp.Option{
		otlpmetrichttp.WithEndpoint(config.Endpoint),
	}
	if config.Insecure {
		opts = append(opts, otlpmetrichttp.WithInsecure())
	}

	exporter, err := otlpmetrichttp.New(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("creating metric exporter: %w", err)
	}

	res, err := newResource(config.ServiceName, config.ServiceVersion, config.Environment)
	if err != nil {
		return nil, fmt.Errorf("creating resource: %w", err)
	}

	readerOpts := []sdkmetric.PeriodicReaderOption{}
	if config.Interval > 0 {
		readerOpts = append(readerOpts, sdkmetric.WithInterval(config.Interval))
	}

	mp := sdkmetric.NewMeterProvider(
		sdkmetric.WithReader(sdkmetric.NewPeriodicReader(exporter, readerOpts...)),
		sdkmetric.WithResource(res),
	)

	otel.SetMeterProvider(mp)

	logger.Info("meter initialized", logger.Fields(
		"service", config.ServiceName,
		"endpoint", config.Endpoint,
		"interval", config.Interval.String(),
	))

	return mp, nil
}

// Meter returns a named meter from the global provider.
func Meter(name string) metric.Meter {
	return otel.Meter(name)
}

// StageMetrics holds the metric instruments recorded per stage run.
type StageMetrics struct {
	runTotal        metric.Int64Counter
	runDuration     metric.Float64Histogram
	recordsCached   metric.Int64Counter
	recordsComputed metric.Int64Counter
	transformErrors metric.Int64Counter
}

// NewStageMetrics creates stage metric instruments on the given meter.
func NewStageMetrics(meter metric.Meter) (*StageMetrics, error) {
	runTotal, err := meter.Int64Counter("stage.runs",
		metric.WithDescription("Total number of stage runs"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating stage.runs counter: %w", err)
	}

	runDuration, err := meter.Float64Histogram("stage.duration",
		metric.WithDescription("Duration of stage runs in seconds"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating stage.duration histogram: %w", err)
	}

	recordsCached, err := meter.Int64Counter("stage.records.cached",
		metric.WithDescription("Records replayed from the artifact store"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating stage.records.cached counter: %w", err)
	}

	recordsComputed, err := meter.Int64Counter("stage.records.computed",
		metric.WithDescription("Records freshly computed by a transform"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating stage.records.computed counter: %w", err)
	}

	transformErrors, err := meter.Int64Counter("stage.transform.errors",
		metric.WithDescription("Transform invocations that failed"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating stage.transform.errors counter: %w", err)
	}

	return &StageMetrics{
		runTotal:        runTotal,
		runDuration:     runDuration,
		recordsCached:   recordsCached,
		recordsComputed: recordsComputed,
		transformErrors: transformErrors,
	}, nil
}

// RecordRun records one completed (or failed) stage run.
func (m *StageMetrics) RecordRun(ctx context.Context, stage, status string, cached, computed int, duration time.Duration) {
	stageAttr := metric.WithAttributes(attribute.String("stage", stage))
	m.runTotal.Add(ctx, 1, metric.WithAttributes(
		attribute.String("stage", stage),
		attribute.String("status", status),
	))
	m.runDuration.Record(ctx, duration.Seconds(), stageAttr)
	m.recordsCached.Add(ctx, int64(cached), stageAttr)
	m.recordsComputed.Add(ctx, int64(computed), stageAttr)
}

// RecordTransformError counts one failed transform invocation.
func (m *StageMetrics) RecordTransformError(ctx context.Context, stage string) {
	m.transformErrors.Add(ctx, 1, metric.WithAttributes(attribute.String("stage", stage)))
}
