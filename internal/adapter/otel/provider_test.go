package otel_test

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	adapter "github.com/neomorfeo/cropseason/internal/adapter/otel"
)

func TestSetup_StdoutExporter(t *testing.T) {
	providers, err := adapter.Setup(context.Background(), adapter.Config{
		ServiceName:    "test",
		ServiceVersion: "0.0.1",
		Environment:    "test",
		Exporter:       "stdout",
	})
	if err != nil {
		t.Fatalf("Setup failed: %v", err)
	}

	if err := providers.Shutdown(context.Background()); err != nil {
		t.Fatalf("Shutdown failed: %v", err)
	}
}

func TestSetup_NoneExporter(t *testing.T) {
	providers, err := adapter.Setup(context.Background(), adapter.Config{
		ServiceName: "test",
		Exporter:    "none",
	})
	if err != nil {
		t.Fatalf("Setup failed: %v", err)
	}
	if err := providers.Shutdown(context.Background()); err != nil {
		t.Fatalf("Shutdown failed: %v", err)
	}
}

func TestSetup_InvalidExporter(t *testing.T) {
	_, err := adapter.Setup(context.Background(), adapter.Config{
		ServiceName:    "test",
		ServiceVersion: "0.0.1",
		Environment:    "test",
		Exporter:       "invalid",
	})
	if err == nil {
		t.Fatal("expected error for invalid exporter")
	}
}

func TestSetup_SampleRatioOutOfRange(t *testing.T) {
	for _, ratio := range []float64{-0.1, 1.5} {
		_, err := adapter.Setup(context.Background(), adapter.Config{
			ServiceName: "test",
			Exporter:    adapter.ExporterNone,
			SampleRatio: ratio,
		})
		if err == nil {
			t.Errorf("SampleRatio %v: expected error", ratio)
		}
	}
}

func TestSetup_ExposesProviders(t *testing.T) {
	providers, err := adapter.Setup(context.Background(), adapter.Config{
		ServiceName: "test",
		Exporter:    adapter.ExporterNone,
		SampleRatio: 1,
	})
	if err != nil {
		t.Fatalf("Setup failed: %v", err)
	}
	defer providers.Shutdown(context.Background())

	_, span := providers.TracerProvider.Tracer("test").Start(context.Background(), "op")
	defer span.End()
	if !span.SpanContext().IsSampled() {
		t.Error("span not sampled with ratio 1")
	}
}

func TestConfigFromEnv_InvalidDuration(t *testing.T) {
	t.Setenv("OTEL_METRIC_INTERVAL", "soon")

	if _, err := adapter.ConfigFromEnv(); err == nil {
		t.Fatal("expected error for malformed interval")
	}
}

func TestConfigFromEnv_Defaults(t *testing.T) {
	cfg, err := adapter.ConfigFromEnv()
	if err != nil {
		t.Fatalf("ConfigFromEnv failed: %v", err)
	}

	if cfg.ServiceName != "cropseason" {
		t.Errorf("ServiceName = %q, want %q", cfg.ServiceName, "cropseason")
	}
	if cfg.ServiceVersion != "0.1.0" {
		t.Errorf("ServiceVersion = %q, want %q", cfg.ServiceVersion, "0.1.0")
	}
	if cfg.Environment != "development" {
		t.Errorf("Environment = %q, want %q", cfg.Environment, "development")
	}
	if cfg.Exporter != "stdout" {
		t.Errorf("Exporter = %q, want %q", cfg.Exporter, "stdout")
	}
	if !cfg.Insecure {
		t.Error("Insecure = false, want true in development")
	}
	if cfg.SampleRatio != 1 {
		t.Errorf("SampleRatio = %v, want 1", cfg.SampleRatio)
	}
	if cfg.MetricInterval != 30*time.Second {
		t.Errorf("MetricInterval = %v, want 30s", cfg.MetricInterval)
	}
}

func TestConfigFromEnv_CustomValues(t *testing.T) {
	t.Setenv("OTEL_SERVICE_NAME", "custom-service")
	t.Setenv("OTEL_SERVICE_VERSION", "1.0.0")
	t.Setenv("OTEL_ENVIRONMENT", "production")
	t.Setenv("OTEL_EXPORTER", "otlp")
	t.Setenv("OTEL_TRACES_SAMPLE_RATIO", "0.25")

	cfg, err := adapter.ConfigFromEnv()
	if err != nil {
		t.Fatalf("ConfigFromEnv failed: %v", err)
	}

	if cfg.ServiceName != "custom-service" {
		t.Errorf("ServiceName = %q, want %q", cfg.ServiceName, "custom-service")
	}
	if cfg.ServiceVersion != "1.0.0" {
		t.Errorf("ServiceVersion = %q, want %q", cfg.ServiceVersion, "1.0.0")
	}
	if cfg.Environment != "production" {
		t.Errorf("Environment = %q, want %q", cfg.Environment, "production")
	}
	if cfg.Exporter != "otlp" {
		t.Errorf("Exporter = %q, want %q", cfg.Exporter, "otlp")
	}
	if cfg.Insecure {
		t.Error("Insecure = true, want false in production")
	}
	if cfg.SampleRatio != 0.25 {
		t.Errorf("SampleRatio = %v, want 0.25", cfg.SampleRatio)
	}
}

func TestOpenDB_AppliesPragmas(t *testing.T) {
	db, err := adapter.OpenDB(filepath.Join(t.TempDir(), "otel.db"))
	if err != nil {
		t.Fatalf("OpenDB failed: %v", err)
	}
	defer db.Close()

	var fk int
	if err := db.QueryRow("PRAGMA foreign_keys").Scan(&fk); err != nil {
		t.Fatalf("reading foreign_keys: %v", err)
	}
	if fk != 1 {
		t.Errorf("foreign_keys = %d, want 1", fk)
	}
	if got := db.Stats().MaxOpenConnections; got != 1 {
		t.Errorf("MaxOpenConnections = %d, want 1", got)
	}
}
