//
// Tencent is pleased to support the open source community by making trpc-agent-go available.
//
// Copyright (C) 2025 Tencent.  All rights reserved.
//
// trpc-agent-go is licensed under the Apache License Version 2.0.
//
//

// Package metrics holds metric and meter names.
package metrics

const (
	// KeyMetricName represents the name of the metric.
	KeyMetricName = "metric.name"
	// KeyTRPCAgentGoOutcome represents the outcome of an operation, "success" or "error".
	KeyTRPCAgentGoOutcome = "trpc_agent_go.outcome"

	// ValueOutcomeSuccess is the outcome value of a successful operation.
	ValueOutcomeSuccess = "success"
	// ValueOutcomeError is the outcome value of a failed operation.
	ValueOutcomeError = "error"

	/////////////// client ////////////////////////

	// MetricGenAIClientOperationDuration represents the duration of client operation.
	MetricGenAIClientOperationDuration = "gen_ai.client.operation.duration"
	// MetricTRPCAgentGoClientRequestCnt represents the request count for client.
	MetricTRPCAgentGoClientRequestCnt = "trpc_agent_go.client.request_cnt"
	// MetricTRPCAgentGoClientEmbeddingInputCnt represents the number of texts sent for embedding.
	MetricTRPCAgentGoClientEmbeddingInputCnt = "trpc_agent_go.client.embedding.input_cnt"

	////////////////////////// meters ////////////////////////

	// MeterNameExecuteTool is the meter name for tool execution operations.
	MeterNameExecuteTool = "trpc_agent_go.internal.execute_tool"
	// MeterNameEmbeddings is the meter name for embedding operations.
	MeterNameEmbeddings = "trpc_agent_go.internal.embeddings"
)
