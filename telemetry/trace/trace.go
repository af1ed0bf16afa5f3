//
// Tencent is pleased to support the open source community by making trpc-agent-go available.
//
// Copyright (C) 2025 Tencent.  All rights reserved.
//
// trpc-agent-go is licensed under the Apache License Version 2.0.
//
//

// Package trace provides the tracer used by the data API tools and embedders
// and the OTLP setup that replaces the default noop tracer.
package trace

import (
	"context"
	"fmt"
	"net/url"
	"os"
	"strings"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.21.0"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"

	itelemetry "trpc.group/trpc-go/trpc-agent-dataapi/internal/telemetry"
)

var (
	// TracerProvider is the global tracer provider for telemetry.
	TracerProvider trace.TracerProvider = noop.NewTracerProvider()
	// Tracer is the global tracer for telemetry.
	Tracer trace.Tracer = TracerProvider.Tracer(itelemetry.InstrumentName)
)

// Start starts telemetry with optional configuration.
// The environment variables described below can be used for Endpoint configuration.
// OTEL_EXPORTER_OTLP_ENDPOINT, OTEL_EXPORTER_OTLP_TRACES_ENDPOINT (default: "localhost:4317")
// https://pkg.go.dev/go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc
func Start(ctx context.Context, opts ...Option) (clean func() error, err error) {
	options := &options{
		serviceName:      itelemetry.ServiceName,
		serviceVersion:   itelemetry.ServiceVersion,
		serviceNamespace: itelemetry.ServiceNamespace,
		protocol:         itelemetry.ProtocolGRPC,
	}
	for _, opt := range opts {
		opt(options)
	}
	if options.tracesEndpoint == "" && options.tracesEndpointURL == "" {
		options.tracesEndpoint = tracesEndpoint(options.protocol)
	}

	res, err := buildResource(ctx, options)
	if err != nil {
		return nil, fmt.Errorf("failed to create resource: %w", err)
	}

	exporter, err := newExporter(ctx, options)
	if err != nil {
		return nil, err
	}

	tp := sdktrace.NewTracerProvider(
		sdktrace.WithSampler(sdktrace.AlwaysSample()),
		sdktrace.WithResource(res),
		sdktrace.WithBatcher(exporter),
	)
	otel.SetTracerProvider(tp)
	otel.SetTextMapPropagator(propagation.TraceContext{})
	TracerProvider = tp
	Tracer = tp.Tracer(itelemetry.InstrumentName)

	return func() error {
		if err := tp.Shutdown(ctx); err != nil {
			return fmt.Errorf("failed to shutdown TracerProvider: %w", err)
		}
		return nil
	}, nil
}

func newExporter(ctx context.Context, options *options) (*otlptrace.Exporter, error) {
	switch options.protocol {
	case itelemetry.ProtocolHTTP:
		httpOpts := []otlptracehttp.Option{otlptracehttp.WithInsecure()}
		if options.tracesEndpointURL != "" {
			endpoint, urlPath, err := parseEndpointURL(options.tracesEndpointURL)
			if err != nil {
				return nil, fmt.Errorf("invalid traces endpoint url: %w", err)
			}
			httpOpts = append(httpOpts, otlptracehttp.WithEndpoint(endpoint), otlptracehttp.WithURLPath(urlPath))
		} else {
			httpOpts = append(httpOpts, otlptracehttp.WithEndpoint(options.tracesEndpoint))
		}
		if len(options.headers) > 0 {
			httpOpts = append(httpOpts, otlptracehttp.WithHeaders(options.headers))
		}
		exporter, err := otlptracehttp.New(ctx, httpOpts...)
		if err != nil {
			return nil, fmt.Errorf("failed to create HTTP trace exporter: %w", err)
		}
		return exporter, nil
	default:
		endpoint := options.tracesEndpoint
		if options.tracesEndpointURL != "" {
			endpoint = options.tracesEndpointURL
		}
		grpcOpts := []otlptracegrpc.Option{
			otlptracegrpc.WithEndpoint(endpoint),
			// Note the use of insecure transport here. TLS is recommended in production.
			otlptracegrpc.WithInsecure(),
		}
		if len(options.headers) > 0 {
			grpcOpts = append(grpcOpts, otlptracegrpc.WithHeaders(options.headers))
		}
		exporter, err := otlptracegrpc.New(ctx, grpcOpts...)
		if err != nil {
			return nil, fmt.Errorf("failed to create gRPC trace exporter: %w", err)
		}
		return exporter, nil
	}
}

func tracesEndpoint(protocol string) string {
	if endpoint := os.Getenv("OTEL_EXPORTER_OTLP_TRACES_ENDPOINT"); endpoint != "" {
		return endpoint
	}
	if endpoint := os.Getenv("OTEL_EXPORTER_OTLP_ENDPOINT"); endpoint != "" {
		return endpoint
	}
	switch protocol {
	case itelemetry.ProtocolHTTP:
		return "localhost:4318"
	default:
		return "localhost:4317"
	}
}

// parseEndpointURL splits "http://host:port/path" or "host:port/path" into
// the host:port endpoint and the URL path. A missing path becomes "/".
func parseEndpointURL(raw string) (endpoint, urlPath string, err error) {
	if !strings.Contains(raw, "://") {
		raw = "http://" + raw
	}
	u, err := url.Parse(raw)
	if err != nil {
		return "", "", err
	}
	if u.Host == "" {
		return "", "", fmt.Errorf("missing host in %q", raw)
	}
	urlPath = u.Path
	if urlPath == "" {
		urlPath = "/"
	}
	return u.Host, urlPath, nil
}

// Option is a function that configures tracer options.
type Option func(*options)

type options struct {
	tracesEndpoint     string
	tracesEndpointURL  string
	serviceName        string
	serviceVersion     string
	serviceNamespace   string
	protocol           string
	headers            map[string]string
	resourceAttributes []attribute.KeyValue
}

// WithEndpoint sets the traces endpoint (host and port) the exporter will connect to.
// It takes precedence over OTEL_EXPORTER_OTLP_TRACES_ENDPOINT and OTEL_EXPORTER_OTLP_ENDPOINT.
func WithEndpoint(endpoint string) Option {
	return func(opts *options) {
		opts.tracesEndpoint = endpoint
	}
}

// WithEndpointURL sets a full endpoint URL, for example "http://localhost:3000/api/public/otel".
// With the http protocol the path is kept; it overrides WithEndpoint.
func WithEndpointURL(endpointURL string) Option {
	return func(opts *options) {
		opts.tracesEndpointURL = endpointURL
	}
}

// WithProtocol sets the protocol to use for trace export.
// Supported protocols are "grpc" (default) and "http".
func WithProtocol(protocol string) Option {
	return func(opts *options) {
		opts.protocol = protocol
	}
}

// WithHeaders sets headers sent with every export request.
func WithHeaders(headers map[string]string) Option {
	return func(opts *options) {
		opts.headers = headers
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
