//
// Tencent is pleased to support the open source community by making trpc-agent-go available.
//
// Copyright (C) 2025 Tencent.  All rights reserved.
//
// trpc-agent-go is licensed under the Apache License Version 2.0.
//
//

package telemetry

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/metric/noop"

	"trpc.group/trpc-go/trpc-agent-dataapi/telemetry/semconv/metrics"
	semconvtrace "trpc.group/trpc-go/trpc-agent-dataapi/telemetry/semconv/trace"
)

// Float64Recorder is satisfied by metric.Float64Histogram and by the dynamic
// histograms of telemetry/metric/histogram.
type Float64Recorder interface {
	Record(ctx context.Context, value float64, opts ...metric.RecordOption)
}

// MeterProvider is replaced by telemetry/metric.InitMeterProvider.
var MeterProvider metric.MeterProvider = noop.NewMeterProvider()

var (
	ExecuteToolMeter                              metric.Meter        = MeterProvider.Meter(metrics.MeterNameExecuteTool)
	ExecuteToolMetricTRPCAgentGoClientRequestCnt  metric.Int64Counter = noop.Int64Counter{}
	ExecuteToolMetricGenAIClientOperationDuration Float64Recorder     = noop.Float64Histogram{}
)

var (
	EmbeddingsMeter                                    metric.Meter        = MeterProvider.Meter(metrics.MeterNameEmbeddings)
	EmbeddingsMetricTRPCAgentGoClientRequestCnt        metric.Int64Counter = noop.Int64Counter{}
	EmbeddingsMetricTRPCAgentGoClientEmbeddingInputCnt metric.Int64Counter = noop.Int64Counter{}
	EmbeddingsMetricGenAIClientOperationDuration       Float64Recorder     = noop.Float64Histogram{}
)

func outcome(err error) string {
	if err != nil {
		return metrics.ValueOutcomeError
	}
	return metrics.ValueOutcomeSuccess
}

// IncExecuteToolRequestCnt counts one data API tool execution.
func IncExecuteToolRequestCnt(ctx context.Context, toolName, apiName string, err error) {
	ExecuteToolMetricTRPCAgentGoClientRequestCnt.Add(ctx, 1,
		metric.WithAttributes(attribute.String(semconvtrace.KeyGenAIOperationName, OperationExecuteTool),
			attribute.String(semconvtrace.KeyGenAIToolName, toolName),
			attribute.String(semconvtrace.KeyDataAPIName, apiName),
			attribute.String(metrics.KeyTRPCAgentGoOutcome, outcome(err)),
		))
}

// RecordExecuteToolOperationDuration records the wall time of one data API tool execution.
func RecordExecuteToolOperationDuration(ctx context.Context, toolName, apiName string, err error, duration time.Duration) {
	ExecuteToolMetricGenAIClientOperationDuration.Record(ctx, duration.Seconds(),
		metric.WithAttributes(attribute.String(semconvtrace.KeyGenAIOperationName, OperationExecuteTool),
			attribute.String(semconvtrace.KeyGenAIToolName, toolName),
			attribute.String(semconvtrace.KeyDataAPIName, apiName),
			attribute.String(metrics.KeyTRPCAgentGoOutcome, outcome(err)),
		))
}

// IncEmbeddingsRequestCnt counts one upstream embedding request and the texts it carried.
func IncEmbeddingsRequestCnt(ctx context.Context, model string, inputs int, err error) {
	opt := metric.WithAttributes(attribute.String(semconvtrace.KeyGenAIOperationName, OperationEmbeddings),
		attribute.String(semconvtrace.KeyGenAIRequestModel, model),
		attribute.String(metrics.KeyTRPCAgentGoOutcome, outcome(err)),
	)
	EmbeddingsMetricTRPCAgentGoClientRequestCnt.Add(ctx, 1, opt)
	EmbeddingsMetricTRPCAgentGoClientEmbeddingInputCnt.Add(ctx, int64(inputs), opt)
}

// RecordEmbeddingsOperationDuration records the wall time of one embedding call, all batches included.
func RecordEmbeddingsOperationDuration(ctx context.Context, model string, err error, duration time.Duration) {
	EmbeddingsMetricGenAIClientOperationDuration.Record(ctx, duration.Seconds(),
		metric.WithAttributes(attribute.String(semconvtrace.KeyGenAIOperationName, OperationEmbeddings),
			attribute.String(semconvtrace.KeyGenAIRequestModel, model),
			attribute.String(metrics.KeyTRPCAgentGoOutcome, outcome(err)),
		))
}
