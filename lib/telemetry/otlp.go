package telemetry

import (
	"context"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetricgrpc"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetrichttp"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	"go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"
	"go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
)

const exporterTimeout = 3 * time.Second

// otlpSignal configures the exporter of one signal, grpc wins when both endpoints are set and an
// empty config disables the exporter.
type otlpSignal struct {
	GrpcEndpoint string            `json:"grpc_endpoint"`
	HttpEndpoint string            `json:"http_endpoint"`
	Headers      map[string]string `json:"headers"`
}

func (s otlpSignal) protocol() string {
	switch {
	case s.GrpcEndpoint != "":
		return "grpc"
	case s.HttpEndpoint != "":
		return "http"
	}
	return ""
}

type otlpConfig struct {
	Traces  otlpSignal `json:"traces"`
	Metrics otlpSignal `json:"metrics"`
}

// config is the contents of telemetry.json5.
type config struct {
	Otlp otlpConfig `json:"otlp"`
	// e.g. "production" or "dev", added to every span and metric
	Environment string `json:"environment"`
	// fraction of batch runs that are traced, 0 means all of them
	SampleRatio float64 `json:"sample_ratio"`
	// defaults to 10s, a batch run flushes on shutdown regardless
	MetricIntervalSeconds int `json:"metric_interval_seconds"`
}

func newResource(serviceName string, cfg config) (*resource.Resource, error) {
	attrs := resource.NewWithAttributes(
		semconv.SchemaURL,
		semconv.ServiceName(serviceName),
	)
	if cfg.Environment != "" {
		attrs = resource.NewWithAttributes(
			semconv.SchemaURL,
			semconv.ServiceName(serviceName),
			semconv.DeploymentEnvironment(cfg.Environment),
		)
	}
	return resource.Merge(resource.Default(), attrs)
}

func sampler(cfg config) trace.Sampler {
	if cfg.SampleRatio <= 0 || cfg.SampleRatio >= 1 {
		return trace.AlwaysSample()
	}
	return trace.ParentBased(trace.TraceIDRatioBased(cfg.SampleRatio))
}

func newTraceProvider(ctx context.Context, r *resource.Resource, cfg config) (*trace.TracerProvider, error) {
	opts := []trace.TracerProviderOption{
		trace.WithResource(r),
		trace.WithSampler(sampler(cfg)),
	}
	signal := cfg.Otlp.Traces
	if signal.protocol() == "" {
		return trace.NewTracerProvider(opts...), nil
	}

	ctx, cancel := context.WithTimeout(ctx, exporterTimeout)
	defer cancel()

	var exporter trace.SpanExporter
	var err error
	if signal.protocol() == "grpc" {
		exporter, err = otlptracegrpc.New(
			ctx,
			otlptracegrpc.WithEndpointURL(signal.GrpcEndpoint),
			otlptracegrpc.WithHeaders(signal.Headers),
		)
	} else {
		exporter, err = otlptracehttp.New(
			ctx,
			otlptracehttp.WithEndpointURL(signal.HttpEndpoint),
			otlptracehttp.WithHeaders(signal.Headers),
		)
	}
	if err != nil {
		return nil, err
	}
	slog.Info("trace exporter initialized", "protocol", signal.protocol(), "headers", len(signal.Headers) > 0)

	return trace.NewTracerProvider(append(opts, trace.WithBatcher(exporter))...), nil
}

func newMetricProvider(ctx context.Context, r *resource.Resource, cfg config) (*metric.MeterProvider, error) {
	signal := cfg.Otlp.Metrics
	if signal.protocol() == "" {
		return metric.NewMeterProvider(metric.WithResource(r)), nil
	}

	ctx, cancel := context.WithTimeout(ctx, exporterTimeout)
	defer cancel()

	var exporter metric.Exporter
	var err error
	if signal.protocol() == "grpc" {
		exporter, err = otlpmetricgrpc.New(
			ctx,
			otlpmetricgrpc.WithEndpointURL(signal.GrpcEndpoint),
			otlpmetricgrpc.WithHeaders(signal.Headers),
		)
	} else {
		exporter, err = otlpmetrichttp.New(
			ctx,
			otlpmetrichttp.WithEndpointURL(signal.HttpEndpoint),
			otlpmetrichttp.WithHeaders(signal.Headers),
		)
	}
	if err != nil {
		return nil, err
	}
	slog.Info("metric exporter initialized", "protocol", signal.protocol(), "headers", len(signal.Headers) > 0)

	interval := 10 * time.Second
	if cfg.MetricIntervalSeconds > 0 {
		interval = time.Duration(cfg.MetricIntervalSeconds) * time.Second
	}
	return metric.NewMeterProvider(
		metric.WithReader(metric.NewPeriodicReader(exporter, metric.WithInterval(interval))),
		metric.WithResource(r),
	), nil
}
