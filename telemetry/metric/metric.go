//
// Tencent is pleased to support the open source community by making trpc-agent-go available.
//
// Copyright (C) 2025 Tencent.  All rights reserved.
//
// trpc-agent-go is licensed under the Apache License Version 2.0.
//
//

// Package metric wires OpenTelemetry metrics for the data API tools and embedders.
package metric

import (
	"context"
	"fmt"
	"os"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetricgrpc"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetrichttp"
	"go.opentelemetry.io/otel/metric"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"
	semconv "go.opentelemetry.io/otel/semconv/v1.21.0"

	itelemetry "trpc.group/trpc-go/trpc-agent-dataapi/internal/telemetry"
	"trpc.group/trpc-go/trpc-agent-dataapi/telemetry/metric/histogram"
	"trpc.group/trpc-go/trpc-agent-dataapi/telemetry/semconv/metrics"
)

var (
	executeToolDuration *histogram.DynamicFloat64Histogram
	embeddingsDuration  *histogram.DynamicFloat64Histogram
)

// Start creates a meter provider exporting over OTLP, installs it globally and
// creates the instruments. The returned function flushes and shuts it down.
func Start(ctx context.Context, opts ...Option) (clean func() error, err error) {
	mp, err := NewMeterProvider(ctx, opts...)
	if err != nil {
		return nil, err
	}
	if err := InitMeterProvider(mp); err != nil {
		return nil, err
	}
	otel.SetMeterProvider(mp)
	return func() error {
		if err := mp.Shutdown(ctx); err != nil {
			return fmt.Errorf("failed to shutdown MeterProvider: %w", err)
		}
		return nil
	}, nil
}

// InitMeterProvider initializes the meter provider and default meters.
func InitMeterProvider(mp metric.MeterProvider) error {
	if mp == nil {
		return fmt.Errorf("meter provider is nil")
	}
	itelemetry.MeterProvider = mp

	var err error
	itelemetry.ExecuteToolMeter = mp.Meter(metrics.MeterNameExecuteTool)
	if itelemetry.ExecuteToolMetricTRPCAgentGoClientRequestCnt, err = itelemetry.ExecuteToolMeter.Int64Counter(
		metrics.MetricTRPCAgentGoClientRequestCnt,
		metric.WithDescription("Total number of data API tool executions"),
		metric.WithUnit("1"),
	); err != nil {
		return fmt.Errorf("failed to create execute tool metric TRPCAgentGoClientRequestCnt: %w", err)
	}
	if executeToolDuration, err = histogram.NewDynamicFloat64Histogram(
		mp,
		metrics.MeterNameExecuteTool,
		metrics.MetricGenAIClientOperationDuration,
		metric.WithDescription("Duration of data API tool executions"),
		metric.WithUnit("s"),
	); err != nil {
		return fmt.Errorf("failed to create execute tool metric GenAIClientOperationDuration: %w", err)
	}
	itelemetry.ExecuteToolMetricGenAIClientOperationDuration = executeToolDuration

	itelemetry.EmbeddingsMeter = mp.Meter(metrics.MeterNameEmbeddings)
	if itelemetry.EmbeddingsMetricTRPCAgentGoClientRequestCnt, err = itelemetry.EmbeddingsMeter.Int64Counter(
		metrics.MetricTRPCAgentGoClientRequestCnt,
		metric.WithDescription("Total number of upstream embedding requests"),
		metric.WithUnit("1"),
	); err != nil {
		return fmt.Errorf("failed to create embeddings metric TRPCAgentGoClientRequestCnt: %w", err)
	}
	if itelemetry.EmbeddingsMetricTRPCAgentGoClientEmbeddingInputCnt, err = itelemetry.EmbeddingsMeter.Int64Counter(
		metrics.MetricTRPCAgentGoClientEmbeddingInputCnt,
		metric.WithDescription("Total number of texts sent for embedding"),
		metric.WithUnit("{text}"),
	); err != nil {
		return fmt.Errorf("failed to create embeddings metric TRPCAgentGoClientEmbeddingInputCnt: %w", err)
	}
	if embeddingsDuration, err = histogram.NewDynamicFloat64Histogram(
		mp,
		metrics.MeterNameEmbeddings,
		metrics.MetricGenAIClientOperationDuration,
		metric.WithDescription("Duration of embedding calls"),
		metric.WithUnit("s"),
	); err != nil {
		return fmt.Errorf("failed to create embeddings metric GenAIClientOperationDuration: %w", err)
	}
	itelemetry.EmbeddingsMetricGenAIClientOperationDuration = embeddingsDuration
	return nil
}

// GetMeterProvider returns the meter provider.
func GetMeterProvider() metric.MeterProvider {
	return itelemetry.MeterProvider
}

// SetHistogramBuckets updates bucket boundaries for a duration histogram.
// Call it after InitMeterProvider. Old data is not migrated.
func SetHistogramBuckets(meterName string, metricName string, boundaries []float64) error {
	if metricName != metrics.MetricGenAIClientOperationDuration {
		return fmt.Errorf("unknown or unsupported histogram metric: %s", metricName)
	}
	var h *histogram.DynamicFloat64Histogram
	switch meterName {
	case metrics.MeterNameExecuteTool:
		h = executeToolDuration
	case metrics.MeterNameEmbeddings:
		h = embeddingsDuration
	default:
		return fmt.Errorf("unknown or unsupported meter name: %s", meterName)
	}
	if h == nil {
		return fmt.Errorf("%s metric %s not initialized", meterName, metricName)
	}
	return h.SetBuckets(boundaries)
}

// NewMeterProvider creates a new meter provider with optional configuration.
// The environment variables described below can be used for Endpoint configuration.
// OTEL_EXPORTER_OTLP_ENDPOINT, OTEL_EXPORTER_OTLP_METRICS_ENDPOINT (default: "localhost:4317")
// https://pkg.go.dev/go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetricgrpc
func NewMeterProvider(ctx context.Context, opts ...Option) (*sdkmetric.MeterProvider, error) {
	options := &options{
		serviceName:      itelemetry.ServiceName,
		serviceVersion:   itelemetry.ServiceVersion,
		serviceNamespace: itelemetry.ServiceNamespace,
		protocol:         itelemetry.ProtocolGRPC,
	}
	for _, opt := range opts {
		opt(options)
	}
	if options.metricsEndpoint == "" {
		options.metricsEndpoint = metricsEndpoint(options.protocol)
	}

	res, err := buildResource(ctx, options)
	if err != nil {
		return nil, fmt.Errorf("failed to create resource: %w", err)
	}

	var exporter sdkmetric.Exporter
	switch options.protocol {
	case itelemetry.ProtocolHTTP:
		exporter, err = otlpmetrichttp.New(ctx,
			otlpmetrichttp.WithEndpoint(options.metricsEndpoint),
			otlpmetrichttp.WithInsecure())
	default:
		exporter, err = otlpmetricgrpc.New(ctx,
			otlpmetricgrpc.WithEndpoint(options.metricsEndpoint),
			otlpmetricgrpc.WithInsecure())
	}
	if err != nil {
		return nil, fmt.Errorf("failed to create %s metrics exporter: %w", options.protocol, err)
	}

	return sdkmetric.NewMeterProvider(
		sdkmetric.WithReader(sdkmetric.NewPeriodicReader(exporter)),
		sdkmetric.WithResource(res),
	), nil
}

func metricsEndpoint(protocol string) string {
	if endpoint := os.Getenv("OTEL_EXPORTER_OTLP_METRICS_ENDPOINT"); endpoint != "" {
		return endpoint
	}
	if endpoint := os.Getenv("OTEL_EXPORTER_OTLP_ENDPOINT"); endpoint != "" {
		return endpoint
	}
	switch protocol {
	case itelemetry.ProtocolHTTP:
		return "localhost:4318" // otlpmetrichttp adds /v1/metrics
	default:
		return "localhost:4317"
	}
}

// Option is a function that configures meter options.
type Option func(*options)

type options struct {
	metricsEndpoint    string
	serviceName        string
	serviceVersion     string
	serviceNamespace   string
	protocol           string
	resourceAttributes []attribute.KeyValue
}

// WithEndpoint sets the metrics endpoint (host and port) the exporter will connect to.
// It takes precedence over OTEL_EXPORTER_OTLP_METRICS_ENDPOINT and OTEL_EXPORTER_OTLP_ENDPOINT.
func WithEndpoint(endpoint string) Option {
	return func(opts *options) {
		opts.metricsEndpoint = endpoint
	}
}

// WithProtocol sets the protocol to use for metrics export.
// Supported protocols are "grpc" (default) and "http".
func WithProtocol(protocol string) Option {
	return func(opts *options) {
		opts.protocol = protocol
	}
}

// WithServiceName overrides the service.name resource attribute.
func WithServiceName(serviceName string) Option {
	return func(opts *options) {
		opts.serviceName = serviceName
	}
}

// WithServiceNamespace overrides the service.namespace resource attribute.
func WithServiceNamespace(serviceNamespace string) Option {
	return func(opts *options) {
		opts.serviceNamespace = serviceNamespace
	}
}

// WithServiceVersion overrides the service.version resource attribute.
func WithServiceVersion(serviceVersion string) Option {
	return func(opts *options) {
		opts.serviceVersion = serviceVersion
	}
}

// WithResourceAttributes appends custom resource attributes.
func WithResourceAttributes(attrs ...attribute.KeyValue) Option {
	return func(opts *options) {
		opts.resourceAttributes = append(opts.resourceAttributes, attrs...)
	}
}

func buildResource(ctx context.Context, options *options) (*resource.Resource, error) {
	resourceOpts := []resource.Option{
		resource.WithAttributes(
			semconv.ServiceNamespace(options.serviceNamespace),
			semconv.ServiceName(options.serviceName),
			semconv.ServiceVersion(options.serviceVersion),
		),
		resource.WithFromEnv(),
		resource.WithHost(),
		resource.WithTelemetrySDK(),
	}
	if len(options.resourceAttributes) > 0 {
		resourceOpts = append(resourceOpts, resource.WithAttributes(options.resourceAttributes...))
	}
	return resource.New(ctx, resourceOpts...)
}
