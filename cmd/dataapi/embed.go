//
// Tencent is pleased to support the open source community by making trpc-agent-go available.
//
// Copyright (C) 2025 Tencent.  All rights reserved.
//
// trpc-agent-go is licensed under the Apache License Version 2.0.
//
//

package main

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"

	"trpc.group/trpc-go/trpc-agent-dataapi/internal/config"
	"trpc.group/trpc-go/trpc-agent-dataapi/knowledge/embedder"
	"trpc.group/trpc-go/trpc-agent-dataapi/knowledge/embedder/openai"
	"trpc.group/trpc-go/trpc-agent-dataapi/knowledge/embedder/selfhosted"
	"trpc.group/trpc-go/trpc-agent-dataapi/log"
)

// newEmbedder builds the embedder selected by embeddings.provider.
func newEmbedder(cfg *config.Config) (embedder.BatchEmbedder, error) {
	ec := cfg.Embeddings
	switch ec.Provider {
	case config.ProviderSelfHosted:
		return selfhosted.New(
			selfhosted.WithAPIKey(cfg.Credentials.Embeddings.APIKey),
			selfhosted.WithBaseURL(cfg.EmbeddingsBaseURL()),
			selfhosted.WithModel(cfg.EmbeddingsModel()),
			selfhosted.WithTimeout(cfg.EmbeddingsTimeout()),
			selfhosted.WithStripNewLines(ec.StripNewLines),
			selfhosted.WithDimensions(ec.Dimensions),
			selfhosted.WithBatchSize(ec.BatchSize),
			selfhosted.WithConcurrency(ec.Concurrency),
		), nil
	case config.ProviderOpenAI:
		opts := []openai.Option{
			openai.WithAPIKey(cfg.Credentials.Embeddings.APIKey),
			openai.WithModel(cfg.EmbeddingsModel()),
			openai.WithBatchSize(ec.BatchSize),
			openai.WithConcurrency(ec.Concurrency),
		}
		if ec.Dimensions > 0 {
			opts = append(opts, openai.WithDimensions(ec.Dimensions))
		}
		if ec.BaseURL != "" || cfg.Credentials.Embeddings.URL != "" {
			opts = append(opts, openai.WithBaseURL(cfg.EmbeddingsBaseURL()))
		}
		return openai.New(opts...), nil
	default:
		return nil, fmt.Errorf("unsupported embeddings provider %q", ec.Provider)
	}
}

// embedLines embeds every input line, blank lines included, and writes the
// vectors as one JSON array.
func embedLines(ctx context.Context, emb embedder.BatchEmbedder, r io.Reader, w io.Writer) error {
	var texts []string
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)
	for scanner.Scan() {
		texts = append(texts, scanner.Text())
	}
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("read input: %w", err)
	}
	log.Debugf("embedding %d texts", len(texts))

	vectors, err := emb.EmbedDocuments(ctx, texts)
	if err != nil {
		return err
	}
	enc := json.NewEncoder(w)
	return enc.Encode(vectors)
}
