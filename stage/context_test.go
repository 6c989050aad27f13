package stage

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/kbukum/stagekit/config"
)

func TestNewContextCreatesDir(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "nested", "cache")
	c, err := NewContext(dir)
	if err != nil {
		t.Fatalf("NewContext() error = %v", err)
	}
	if c.Dir() != dir {
		t.Errorf("Dir() = %q, want %q", c.Dir(), dir)
	}
	if info, err := os.Stat(dir); err != nil || !info.IsDir() {
		t.Errorf("cache dir was not created: %v", err)
	}
}

func TestNewContextRequiresDir(t *testing.T) {
	if _, err := NewContext(""); err == nil {
		t.Fatal("NewContext(\"\") should fail")
	}
}

func TestWithConcurrency(t *testing.T) {
	c, err := NewContext(t.TempDir(), WithConcurrency(9))
	if err != nil {
		t.Fatalf("NewContext() error = %v", err)
	}
	if c.concurrency != 9 {
		t.Errorf("concurrency = %d, want 9", c.concurrency)
	}

	// Non-positive values keep the default.
	c2, _ := NewContext(t.TempDir(), WithConcurrency(0))
	if c2.concurrency != DefaultConcurrency {
		t.Errorf("concurrency = %d, want default %d", c2.concurrency, DefaultConcurrency)
	}
}

func TestFromConfig(t *testing.T) {
	cfg := config.Default()
	cfg.CacheDir = t.TempDir()
	cfg.MaxConcurrency = 3

	c, err := FromConfig(context.Background(), cfg)
	if err != nil {
		t.Fatalf("FromConfig() error = %v", err)
	}
	if c.Dir() != cfg.CacheDir {
		t.Errorf("Dir() = %q, want %q", c.Dir(), cfg.CacheDir)
	}
	if c.concurrency != 3 {
		t.Errorf("concurrency = %d, want 3", c.concurrency)
	}
	if c.log == nil {
		t.Error("logger not initialized from config")
	}
	if c.metrics != nil || c.tracing {
		t.Error("telemetry wired with observability disabled")
	}
	if err := c.Close(context.Background()); err != nil {
		t.Errorf("Close() without exporters = %v, want nil", err)
	}
}

func TestFromConfigObservabilityEnabled(t *testing.T) {
	cfg := config.Default()
	cfg.CacheDir = t.TempDir()
	cfg.Observability.Enabled = true
	cfg.Observability.Endpoint = "collector.internal:4318"
	cfg.Observability.Insecure = true

	c, err := FromConfig(context.Background(), cfg)
	if err != nil {
		t.Fatalf("FromConfig() error = %v", err)
	}
	if c.metrics == nil {
		t.Error("metrics not wired with observability enabled")
	}
	if !c.tracing {
		t.Error("tracing not enabled with observability enabled")
	}
	if len(c.shutdown) != 2 {
		t.Errorf("shutdown hooks = %d, want 2 (tracer + meter)", len(c.shutdown))
	}
}
