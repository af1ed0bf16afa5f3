//
// Tencent is pleased to support the open source community by making trpc-agent-go available.
//
// Copyright (C) 2025 Tencent.  All rights reserved.
//
// trpc-agent-go is licensed under the Apache License Version 2.0.
//
//

// Package trace holds the span attribute keys emitted by the data API tools and embedders.
package trace

// Resource attributes.
var (
	ResourceServiceNamespace = "trpc-go-agent"
	ResourceServiceName      = "dataapi"
	ResourceServiceVersion   = "v0.1.0"
)

var (
	KeyInvocationID = "trpc.go.agent.invocation_id"

	// GenAI operation attributes
	KeyGenAIOperationName = "gen_ai.operation.name"
	KeyGenAISystem        = "gen_ai.system"
	KeyGenAIRequestModel  = "gen_ai.request.model"

	KeyGenAIUsageInputTokens = "gen_ai.usage.input_tokens" // #nosec G101 - this is a metric key name, not a credential.

	KeyGenAIToolName          = "gen_ai.tool.name"
	KeyGenAIToolDescription   = "gen_ai.tool.description"
	KeyGenAIToolCallID        = "gen_ai.tool.call.id"
	KeyGenAIToolCallArguments = "gen_ai.tool.call.arguments"
	KeyGenAIToolCallResult    = "gen_ai.tool.call.result"

	// Data API attributes
	KeyDataAPIName       = "trpc.go.agent.data_api.name"
	KeyDataAPIStatusCode = "trpc.go.agent.data_api.status_code"

	// https://github.com/open-telemetry/semantic-conventions/blob/main/docs/general/recording-errors.md#recording-errors-on-spans
	KeyErrorType          = "error.type"
	KeyErrorMessage       = "error.message"
	ValueDefaultErrorType = "_OTHER"

	// System value
	SystemTRPCGoAgent = "trpc.go.agent"
)

const (
	// KeyGenAIRequestEncodingFormats is the attribute key for request encoding formats.
	KeyGenAIRequestEncodingFormats = "gen_ai.request.encoding_formats"
	// KeyGenAIEmbeddingsDimensionCount is the attribute key for embeddings dimension count.
	KeyGenAIEmbeddingsDimensionCount = "gen_ai.embeddings.dimension.count"
	// KeyGenAIEmbeddingsInputCount is the attribute key for the number of texts in one request.
	KeyGenAIEmbeddingsInputCount = "gen_ai.embeddings.input.count"
	// KeyGenAIEmbeddingsBatchCount is the attribute key for the number of upstream requests.
	KeyGenAIEmbeddingsBatchCount = "gen_ai.embeddings.batch.count"

	// KeyServerAddress is the attribute key for server address.
	KeyServerAddress = "server.address"
	// KeyServerPort is the attribute key for server port.
	KeyServerPort = "server.port"
)
