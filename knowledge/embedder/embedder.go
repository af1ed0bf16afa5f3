//
// Tencent is pleased to support the open source community by making trpc-agent-go available.
//
// Copyright (C) 2025 Tencent.  All rights reserved.
//
// trpc-agent-go is licensed under the Apache License Version 2.0.
//
//

// Package embedder defines the interfaces implemented by text embedding providers.
package embedder

import "context"

// Embedder turns a single text into a vector.
type Embedder interface {
	// GetEmbedding generates an embedding vector for the given text.
	GetEmbedding(ctx context.Context, text string) ([]float64, error)

	// GetEmbeddingWithUsage generates an embedding vector for the given text
	// and returns provider usage information when available.
	GetEmbeddingWithUsage(ctx context.Context, text string) ([]float64, map[string]any, error)

	// GetDimensions returns the configured dimensionality, 0 when the
	// provider decides.
	GetDimensions() int
}

// BatchEmbedder embeds many texts at once. Output vectors are in input order.
type BatchEmbedder interface {
	Embedder

	// EmbedDocuments embeds every text, splitting the input into provider
	// sized batches. A failure of any batch fails the whole call.
	EmbedDocuments(ctx context.Context, texts []string) ([][]float64, error)

	// EmbedQuery embeds one text. It equals EmbedDocuments([]string{text})[0].
	EmbedQuery(ctx context.Context, text string) ([]float64, error)
}
