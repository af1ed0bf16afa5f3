//
// Tencent is pleased to support the open source community by making trpc-agent-go available.
//
// Copyright (C) 2025 Tencent.  All rights reserved.
//
// trpc-agent-go is licensed under the Apache License Version 2.0.
//
//

// Package telemetry holds the span and metric helpers shared by the data API
// tools and the embedders. Exported entry points live in telemetry/trace and
// telemetry/metric.
package telemetry

import (
	"fmt"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	semconvtrace "trpc.group/trpc-go/trpc-agent-dataapi/telemetry/semconv/trace"
)

// telemetry service constants.
const (
	ServiceName      = "dataapi"
	ServiceVersion   = "v0.1.0"
	ServiceNamespace = "trpc-go-agent"
	InstrumentName   = "trpc.agent.dataapi"

	OperationExecuteTool = "execute_tool"
	OperationEmbeddings  = "embeddings"
)

const (
	// ProtocolGRPC uses gRPC protocol for OTLP exporter.
	ProtocolGRPC string = "grpc"
	// ProtocolHTTP uses HTTP protocol for OTLP exporter.
	ProtocolHTTP string = "http"
)

// NewExecuteToolSpanName creates a new execute tool span name.
func NewExecuteToolSpanName(toolName string) string {
	return fmt.Sprintf("%s %s", OperationExecuteTool, toolName)
}

// NewEmbeddingsSpanName creates a new embeddings span name, for example "embeddings m3e-base".
func NewEmbeddingsSpanName(model string) string {
	if model == "" {
		return OperationEmbeddings
	}
	return fmt.Sprintf("%s %s", OperationEmbeddings, model)
}

// ExecuteToolAttributes represents the attributes of one data API tool execution.
type ExecuteToolAttributes struct {
	ToolName     string
	Description  string
	InvocationID string
	APIName      string
	Arguments    []byte
	Result       *string
	StatusCode   int
	Error        error
}

// TraceExecuteTool traces the execution of a data API tool.
func TraceExecuteTool(span trace.Span, attrs *ExecuteToolAttributes) {
	span.SetAttributes(
		attribute.String(semconvtrace.KeyGenAISystem, semconvtrace.SystemTRPCGoAgent),
		attribute.String(semconvtrace.KeyGenAIOperationName, OperationExecuteTool),
		attribute.String(semconvtrace.KeyGenAIToolName, attrs.ToolName),
		attribute.String(semconvtrace.KeyGenAIToolDescription, attrs.Description),
		attribute.String(semconvtrace.KeyGenAIToolCallID, attrs.InvocationID),
		attribute.String(semconvtrace.KeyInvocationID, attrs.InvocationID),
		attribute.String(semconvtrace.KeyDataAPIName, attrs.APIName),
		// args is json-encoded.
		attribute.String(semconvtrace.KeyGenAIToolCallArguments, string(attrs.Arguments)),
	)
	if attrs.StatusCode != 0 {
		span.SetAttributes(attribute.Int(semconvtrace.KeyDataAPIStatusCode, attrs.StatusCode))
	}
	if attrs.Result != nil {
		span.SetAttributes(attribute.String(semconvtrace.KeyGenAIToolCallResult, *attrs.Result))
	}
	if attrs.Error != nil {
		span.SetStatus(codes.Error, attrs.Error.Error())
		span.SetAttributes(
			attribute.String(semconvtrace.KeyErrorType, semconvtrace.ValueDefaultErrorType),
			attribute.String(semconvtrace.KeyErrorMessage, attrs.Error.Error()),
		)
	}
}

// EmbeddingAttributes represents the attributes of an embedding call.
type EmbeddingAttributes struct {
	RequestEncodingFormat *string
	RequestModel          string
	Dimensions            int
	InputCount            int
	BatchCount            int
	Error                 error
	InputToken            *int64
	ServerAddress         *string
	ServerPort            *int
}

// TraceEmbedding traces the invocation of an embedding call.
func TraceEmbedding(span trace.Span, embeddingAttributes *EmbeddingAttributes) {
	span.SetAttributes(buildEmbeddingAttributes(embeddingAttributes)...)
	if embeddingAttributes.Error != nil {
		span.SetStatus(codes.Error, embeddingAttributes.Error.Error())
	}
}

func buildEmbeddingAttributes(embeddingAttributes *EmbeddingAttributes) []attribute.KeyValue {
	attrs := []attribute.KeyValue{
		attribute.String(semconvtrace.KeyGenAIOperationName, OperationEmbeddings),
		attribute.String(semconvtrace.KeyGenAIRequestModel, embeddingAttributes.RequestModel),
		attribute.Int(semconvtrace.KeyGenAIEmbeddingsDimensionCount, embeddingAttributes.Dimensions),
		attribute.Int(semconvtrace.KeyGenAIEmbeddingsInputCount, embeddingAttributes.InputCount),
		attribute.Int(semconvtrace.KeyGenAIEmbeddingsBatchCount, embeddingAttributes.BatchCount),
	}
	if embeddingAttributes.RequestEncodingFormat != nil {
		attrs = append(attrs, attribute.StringSlice(semconvtrace.KeyGenAIRequestEncodingFormats, []string{*embeddingAttributes.RequestEncodingFormat}))
	}
	if embeddingAttributes.InputToken != nil {
		attrs = append(attrs, attribute.Int64(semconvtrace.KeyGenAIUsageInputTokens, *embeddingAttributes.InputToken))
	}
	if embeddingAttributes.Error != nil {
		attrs = append(attrs, attribute.String(semconvtrace.KeyErrorType, semconvtrace.ValueDefaultErrorType), attribute.String(semconvtrace.KeyErrorMessage, embeddingAttributes.Error.Error()))
	}
	if embeddingAttributes.ServerAddress != nil {
		attrs = append(attrs, attribute.String(semconvtrace.KeyServerAddress, *embeddingAttributes.ServerAddress))
	}
	if embeddingAttributes.ServerPort != nil {
		attrs = append(attrs, attribute.Int(semconvtrace.KeyServerPort, *embeddingAttributes.ServerPort))
	}
	return attrs
}
