// Package observability installs the OpenTelemetry tracer provider used by
// snoopflow runs.
package observability

import (
	"context"
	"fmt"
	"io"
	"os"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"

	"github.com/snoopflow/snoopflow/internal/utils"
)

// Exporter names accepted by TracerConfig.Exporter.
const (
	ExporterConsole = "console"
	ExporterFile    = "file"
	ExporterOTLP    = "otlp"
)

// TracerConfig selects where run spans are exported.
type TracerConfig struct {
	ServiceName    string
	ServiceVersion string
	// Exporter is one of console, file or otlp.
	Exporter string
	// Endpoint is the OTLP endpoint URL, or the output path for the file exporter.
	Endpoint   string
	SampleRate float64
	// Console receives console exporter output. Defaults to stderr.
	Console io.Writer
}

// ShutdownFunc flushes pending spans and releases the exporter.
type ShutdownFunc func(context.Context) error

// SetupTracer builds a tracer provider for cfg and installs it globally.
func SetupTracer(ctx context.Context, cfg TracerConfig) (ShutdownFunc, error) {
	exporter, closeOut, err := newExporter(ctx, cfg)
	if err != nil {
		return nil, err
	}

	rate := cfg.SampleRate
	if rate <= 0 || rate > 1 {
		rate = 1
	}

	res := resource.NewSchemaless(
		attribute.String("service.name", cfg.ServiceName),
		attribute.String("service.version", cfg.ServiceVersion),
	)

	tp := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exporter),
		sdktrace.WithResource(res),
		sdktrace.WithSampler(sdktrace.ParentBased(sdktrace.TraceIDRatioBased(rate))),
	)
	otel.SetTracerProvider(tp)

	return func(ctx context.Context) error {
		err := tp.Shutdown(ctx)
		if closeOut != nil {
			if cerr := closeOut(); err == nil {
				err = cerr
			}
		}
		return err
	}, nil
}

func newExporter(ctx context.Context, cfg TracerConfig) (sdktrace.SpanExporter, func() error, error) {
	switch cfg.Exporter {
	case "", ExporterConsole:
		w := cfg.Console
		if w == nil {
			w = os.Stderr
		}
		exp, err := stdouttrace.New(stdouttrace.WithWriter(w), stdouttrace.WithPrettyPrint())
		return exp, nil, err

	case ExporterFile:
		if cfg.Endpoint == "" {
			return nil, nil, utils.NewValidationError("trace-endpoint", "file exporter needs an output path")
		}
		f, err := utils.CreateFile(cfg.Endpoint)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to create trace file: %w", err)
		}
		exp, err := stdouttrace.New(stdouttrace.WithWriter(f))
		if err != nil {
			f.Close()
			return nil, nil, err
		}
		return exp, f.Close, nil

	case ExporterOTLP:
		opts := []otlptracehttp.Option{}
		if cfg.Endpoint != "" {
			opts = append(opts, otlptracehttp.WithEndpointURL(cfg.Endpoint))
		}
		exp, err := otlptracehttp.New(ctx, opts...)
		return exp, nil, err

	default:
		return nil, nil, utils.NewValidationError("trace-exporter", fmt.Sprintf("unknown exporter %q (supported: console, file, otlp)", cfg.Exporter))
	}
}
