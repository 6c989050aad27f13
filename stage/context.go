package stage

import (
	"context"
	"fmt"
	"os"

	"github.com/kbukum/stagekit/config"
	"github.com/kbukum/stagekit/logger"
	"github.com/kbukum/stagekit/observability"
	"github.com/kbukum/stagekit/progress"
)

// DefaultConcurrency bounds async stage workers when neither the
// context nor the call site specifies a limit.
const DefaultConcurrency = 4

// Context holds the shared state of a pipeline run: the cache
// directory, the logger, and the progress/observability collaborators.
// A Context is safe for use by multiple goroutines.
type Context struct {
	dir         string
	log         *logger.Logger
	reporter    progress.Factory
	metrics     *observability.StageMetrics
	tracing     bool
	concurrency int
	shutdown    []func(context.Context) error
}

// Option configures a Context.
type Option func(*Context)

// WithLogger sets the pipeline logger.
func WithLogger(log *logger.Logger) Option {
	return func(c *Context) { c.log = log }
}

// WithReporter sets the progress reporter factory used by Map and AMap.
func WithReporter(factory progress.Factory) Option {
	return func(c *Context) { c.reporter = factory }
}

// WithMetrics enables per-stage metrics recording.
func WithMetrics(m *observability.StageMetrics) Option {
	return func(c *Context) { c.metrics = m }
}

// WithTracing enables a span around each stage run.
func WithTracing() Option {
	return func(c *Context) { c.tracing = true }
}

// WithConcurrency sets the default worker bound for AMap.
func WithConcurrency(n int) Option {
	return func(c *Context) {
		if n > 0 {
			c.concurrency = n
		}
	}
}

// NewContext creates a pipeline context rooted at dir, creating the
// directory if it does not exist.
func NewContext(dir string, opts ...Option) (*Context, error) {
	if dir == "" {
		return nil, fmt.Errorf("stage: cache directory is required")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("stage: failed to create cache directory %s: %w", dir, err)
	}

	c := &Context{
		dir:         dir,
		concurrency: DefaultConcurrency,
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.log == nil {
		c.log = logger.NewDefault("stagekit")
	}
	if c.reporter == nil {
		c.reporter = progress.Nop()
	}
	return c, nil
}

// FromConfig creates a pipeline context from a loaded configuration.
// Logging is initialized from cfg.Logging. When observability is
// enabled, OTLP trace and metric exporters are initialized against the
// configured endpoint and registered globally; call Close on the
// returned Context to flush and shut them down.
func FromConfig(ctx context.Context, cfg *config.Config, opts ...Option) (*Context, error) {
	log := logger.New(&cfg.Logging, cfg.Observability.ServiceName)

	base := []Option{
		WithLogger(log),
		WithConcurrency(cfg.MaxConcurrency),
	}

	var shutdown []func(context.Context) error
	if cfg.Observability.Enabled {
		tcfg := observability.DefaultTracerConfig(cfg.Observability.ServiceName)
		mcfg := observability.DefaultMeterConfig(cfg.Observability.ServiceName)
		if cfg.Observability.Endpoint != "" {
			tcfg.Endpoint = cfg.Observability.Endpoint
			mcfg.Endpoint = cfg.Observability.Endpoint
		}
		tcfg.Insecure = cfg.Observability.Insecure
		mcfg.Insecure = cfg.Observability.Insecure

		tp, err := observability.InitTracer(ctx, tcfg)
		if err != nil {
			return nil, err
		}
		shutdown = append(shutdown, tp.Shutdown)

		mp, err := observability.InitMeter(ctx, mcfg)
		if err != nil {
			return nil, err
		}
		shutdown = append(shutdown, mp.Shutdown)

		metrics, err := observability.NewStageMetrics(observability.Meter(cfg.Observability.ServiceName))
		if err != nil {
			return nil, err
		}
		base = append(base, WithMetrics(metrics), WithTracing())
	}

	c, err := NewContext(cfg.CacheDir, append(base, opts...)...)
	if err != nil {
		return nil, err
	}
	c.shutdown = shutdown
	return c, nil
}

// Close flushes and shuts down any telemetry providers FromConfig
// initialized. It is a no-op for contexts without exporters.
func (c *Context) Close(ctx context.Context) error {
	var firstErr error
	for _, fn := range c.shutdown {
		if err := fn(ctx); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

// Dir returns the cache directory for this pipeline.
func (c *Context) Dir() string { return c.dir }

// Logger returns the pipeline logger.
func (c *Context) Logger() *logger.Logger { return c.log }
