//
// Tencent is pleased to support the open source community by making trpc-agent-go available.
//
// Copyright (C) 2025 Tencent.  All rights reserved.
//
// trpc-agent-go is licensed under the Apache License Version 2.0.
//
//

// Package openai provides an embedder for the OpenAI embeddings API and
// compatible servers.
package openai

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	openai "github.com/openai/openai-go"
	"github.com/openai/openai-go/option"

	itelemetry "trpc.group/trpc-go/trpc-agent-dataapi/internal/telemetry"
	"trpc.group/trpc-go/trpc-agent-dataapi/knowledge/embedder"
	"trpc.group/trpc-go/trpc-agent-dataapi/knowledge/embedder/internal/batch"
	"trpc.group/trpc-go/trpc-agent-dataapi/log"
	"trpc.group/trpc-go/trpc-agent-dataapi/telemetry/trace"
)

// Verify that Embedder implements the embedder.BatchEmbedder interface.
var _ embedder.BatchEmbedder = (*Embedder)(nil)

const (
	// DefaultModel is the default OpenAI embedding model.
	DefaultModel = "text-embedding-3-small"
	// DefaultDimensions is the default embedding dimension for text-embedding-3-small.
	DefaultDimensions = 1536
	// DefaultEncodingFormat is the default encoding format for embeddings.
	DefaultEncodingFormat = "float"
	// DefaultMaxRetries is the default maximum number of retries.
	DefaultMaxRetries = 2
	// DefaultBatchSize is the largest input array the embeddings API accepts.
	DefaultBatchSize = 2048

	// ModelTextEmbedding3Small represents the text-embedding-3-small model.
	ModelTextEmbedding3Small = "text-embedding-3-small"
	// ModelTextEmbedding3Large represents the text-embedding-3-large model.
	ModelTextEmbedding3Large = "text-embedding-3-large"
	// ModelTextEmbeddingAda002 represents the text-embedding-ada-002 model.
	ModelTextEmbeddingAda002 = "text-embedding-ada-002"

	// EncodingFormatFloat represents the float encoding format.
	EncodingFormatFloat = "float"
	// EncodingFormatBase64 represents the base64 encoding format.
	EncodingFormatBase64 = "base64"

	textEmbedding3Prefix = "text-embedding-3"
)

// ErrEmptyText is returned when an input text is empty.
var ErrEmptyText = errors.New("text cannot be empty")

var defaultRetryBackoff = []time.Duration{
	100 * time.Millisecond,
	200 * time.Millisecond,
	400 * time.Millisecond,
	800 * time.Millisecond,
}

// Embedder implements embedder.BatchEmbedder for the OpenAI API.
type Embedder struct {
	client         openai.Client
	model          string
	dimensions     int
	encodingFormat string
	user           string
	apiKey         string
	organization   string
	baseURL        string
	batchSize      int
	concurrency    int
	requestOptions []option.RequestOption

	maxRetries   int
	retryBackoff []time.Duration
}

// Option represents a functional option for configuring the Embedder.
type Option func(*Embedder)

// WithModel sets the embedding model to use.
func WithModel(model string) Option {
	return func(e *Embedder) {
		e.model = model
	}
}

// WithDimensions sets the number of dimensions for the embedding.
// Only sent for text-embedding-3 and later models.
func WithDimensions(dimensions int) Option {
	return func(e *Embedder) {
		e.dimensions = dimensions
	}
}

// WithEncodingFormat sets the format for the embeddings, "float" or "base64".
func WithEncodingFormat(format string) Option {
	return func(e *Embedder) {
		e.encodingFormat = format
	}
}

// WithUser sets an optional unique identifier representing your end-user.
func WithUser(user string) Option {
	return func(e *Embedder) {
		e.user = user
	}
}

// WithAPIKey sets the OpenAI API key.
// If not provided, the OPENAI_API_KEY environment variable is used.
func WithAPIKey(apiKey string) Option {
	return func(e *Embedder) {
		e.apiKey = apiKey
	}
}

// WithOrganization sets the OpenAI organization ID.
func WithOrganization(organization string) Option {
	return func(e *Embedder) {
		e.organization = organization
	}
}

// WithBaseURL sets the base URL for OpenAI-compatible APIs.
func WithBaseURL(baseURL string) Option {
	return func(e *Embedder) {
		e.baseURL = baseURL
	}
}

// WithBatchSize caps the number of texts per request in EmbedDocuments.
// Values below 1 keep the default.
func WithBatchSize(size int) Option {
	return func(e *Embedder) {
		if size > 0 {
			e.batchSize = size
		}
	}
}

// WithConcurrency sends up to n EmbedDocuments batches at the same time.
func WithConcurrency(n int) Option {
	return func(e *Embedder) {
		e.concurrency = n
	}
}

// WithRequestOptions sets additional options for the OpenAI client requests.
func WithRequestOptions(opts ...option.RequestOption) Option {
	return func(e *Embedder) {
		e.requestOptions = append(e.requestOptions, opts...)
	}
}

// WithMaxRetries sets the maximum number of retries for errors.
// Negative values are treated as 0.
func WithMaxRetries(maxRetries int) Option {
	return func(e *Embedder) {
		if maxRetries < 0 {
			maxRetries = 0
		}
		e.maxRetries = maxRetries
	}
}

// WithRetryBackoff sets the backoff durations for each retry attempt.
// The last duration is reused once the slice is exhausted.
func WithRetryBackoff(backoff []time.Duration) Option {
	return func(e *Embedder) {
		e.retryBackoff = backoff
	}
}

// New creates a new OpenAI embedder with the given options.
func New(opts ...Option) *Embedder {
	e := &Embedder{
		model:          DefaultModel,
		dimensions:     DefaultDimensions,
		encodingFormat: DefaultEncodingFormat,
		batchSize:      DefaultBatchSize,
		concurrency:    1,
		maxRetries:     DefaultMaxRetries,
		retryBackoff:   defaultRetryBackoff,
	}
	for _, opt := range opts {
		opt(e)
	}

	var clientOpts []option.RequestOption
	if e.apiKey != "" {
		clientOpts = append(clientOpts, option.WithAPIKey(e.apiKey))
	}
	if e.organization != "" {
		clientOpts = append(clientOpts, option.WithOrganization(e.organization))
	}
	if e.baseURL != "" {
		clientOpts = append(clientOpts, option.WithBaseURL(e.baseURL))
	}
	// Retries are handled by responseWithRetry.
	clientOpts = append(clientOpts, option.WithMaxRetries(0))

	e.client = openai.NewClient(clientOpts...)
	return e
}

// GetEmbedding implements the embedder.Embedder interface.
func (e *Embedder) GetEmbedding(ctx context.Context, text string) ([]float64, error) {
	embedding, _, err := e.GetEmbeddingWithUsage(ctx, text)
	return embedding, err
}

// GetEmbeddingWithUsage implements the embedder.Embedder interface.
func (e *Embedder) GetEmbeddingWithUsage(ctx context.Context, text string) ([]float64, map[string]any, error) {
	rsp, err := e.responseWithRetry(ctx, []string{text})
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create embedding: %w", err)
	}
	if len(rsp.Data) == 0 || len(rsp.Data[0].Embedding) == 0 {
		log.WarnContext(ctx, "received empty embedding response from OpenAI API")
		return []float64{}, nil, nil
	}

	usage := make(map[string]any)
	if rsp.Usage.PromptTokens > 0 || rsp.Usage.TotalTokens > 0 {
		usage["prompt_tokens"] = rsp.Usage.PromptTokens
		usage["total_tokens"] = rsp.Usage.TotalTokens
	}
	return rsp.Data[0].Embedding, usage, nil
}

// EmbedDocuments implements the embedder.BatchEmbedder interface.
// Texts are sent as input arrays of at most the configured batch size.
func (e *Embedder) EmbedDocuments(ctx context.Context, texts []string) ([][]float64, error) {
	if len(texts) == 0 {
		return [][]float64{}, nil
	}
	vectors, err := batch.Run(ctx, batch.Split(texts, e.batchSize), e.concurrency,
		func(ctx context.Context, idx int, chunk []string) ([][]float64, error) {
			rsp, err := e.responseWithRetry(ctx, chunk)
			if err != nil {
				return nil, fmt.Errorf("failed to embed batch %d: %w", idx, err)
			}
			return orderedVectors(rsp), nil
		})
	if err != nil {
		return nil, fmt.Errorf("failed to embed documents: %w", err)
	}
	return vectors, nil
}

// EmbedQuery implements the embedder.BatchEmbedder interface.
func (e *Embedder) EmbedQuery(ctx context.Context, text string) ([]float64, error) {
	vectors, err := e.EmbedDocuments(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	if len(vectors) == 0 {
		return nil, errors.New("failed to embed documents: empty embedding response from OpenAI API")
	}
	return vectors[0], nil
}

// Model returns the configured model name.
func (e *Embedder) Model() string {
	return e.model
}

// GetDimensions implements the embedder.Embedder interface.
func (e *Embedder) GetDimensions() int {
	return e.dimensions
}

// orderedVectors returns the vectors sorted by their response index.
func orderedVectors(rsp *openai.CreateEmbeddingResponse) [][]float64 {
	data := append([]openai.Embedding(nil), rsp.Data...)
	sort.SliceStable(data, func(i, j int) bool { return data[i].Index < data[j].Index })
	out := make([][]float64, len(data))
	for i, d := range data {
		out[i] = d.Embedding
	}
	return out
}

func (e *Embedder) responseWithRetry(ctx context.Context, texts []string) (*openai.CreateEmbeddingResponse, error) {
	var lastErr error
	for attempt := 0; attempt <= e.maxRetries; attempt++ {
		rsp, err := e.response(ctx, texts)
		if err == nil {
			return rsp, nil
		}
		if errors.Is(err, ErrEmptyText) {
			return nil, err
		}
		lastErr = err
		if attempt >= e.maxRetries {
			break
		}

		backoff := e.getBackoffDuration(attempt)
		log.InfofContext(ctx, "embedding request failed, retrying in %v (attempt %d/%d): %v",
			backoff, attempt+1, e.maxRetries, err)
		if backoff <= 0 {
			continue
		}
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(backoff):
		}
	}
	return nil, lastErr
}

// getBackoffDuration returns the backoff for attempt, reusing the last entry
// once the configured slice is exhausted.
func (e *Embedder) getBackoffDuration(attempt int) time.Duration {
	if len(e.retryBackoff) == 0 {
		return 0
	}
	if attempt < len(e.retryBackoff) {
		return e.retryBackoff[attempt]
	}
	return e.retryBackoff[len(e.retryBackoff)-1]
}

func (e *Embedder) response(ctx context.Context, texts []string) (rsp *openai.CreateEmbeddingResponse, err error) {
	for _, text := range texts {
		if text == "" {
			return nil, ErrEmptyText
		}
	}
	start := time.Now()
	ctx, span := trace.Tracer.Start(ctx, itelemetry.NewEmbeddingsSpanName(e.model))
	attrs := &itelemetry.EmbeddingAttributes{
		RequestEncodingFormat: &e.encodingFormat,
		RequestModel:          e.model,
		Dimensions:            e.dimensions,
		InputCount:            len(texts),
		BatchCount:            1,
	}
	defer func() {
		attrs.Error = err
		if rsp != nil {
			attrs.InputToken = &rsp.Usage.PromptTokens
		}
		itelemetry.TraceEmbedding(span, attrs)
		span.End()
		itelemetry.IncEmbeddingsRequestCnt(ctx, e.model, len(texts), err)
		itelemetry.RecordEmbeddingsOperationDuration(ctx, e.model, err, time.Since(start))
	}()

	input := openai.EmbeddingNewParamsInputUnion{OfArrayOfStrings: texts}
	if len(texts) == 1 {
		input = openai.EmbeddingNewParamsInputUnion{OfString: openai.String(texts[0])}
	}
	request := openai.EmbeddingNewParams{
		Input:          input,
		Model:          e.model,
		EncodingFormat: openai.EmbeddingNewParamsEncodingFormat(e.encodingFormat),
	}
	if e.user != "" {
		request.User = openai.String(e.user)
	}
	if isTextEmbedding3Model(e.model) {
		request.Dimensions = openai.Int(int64(e.dimensions))
	}

	requestOpts := make([]option.RequestOption, len(e.requestOptions))
	copy(requestOpts, e.requestOptions)
	return e.client.Embeddings.New(ctx, request, requestOpts...)
}

func isTextEmbedding3Model(model string) bool {
	return strings.HasPrefix(model, textEmbedding3Prefix)
}
