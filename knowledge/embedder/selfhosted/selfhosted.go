//
// Tencent is pleased to support the open source community by making trpc-agent-go available.
//
// Copyright (C) 2025 Tencent.  All rights reserved.
//
// trpc-agent-go is licensed under the Apache License Version 2.0.
//
//

// Package selfhosted provides an embedder for self-hosted, OpenAI-like
// embedding servers that accept `{input, texts, model}` on `/embeddings`.
package selfhosted

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	itelemetry "trpc.group/trpc-go/trpc-agent-dataapi/internal/telemetry"
	"trpc.group/trpc-go/trpc-agent-dataapi/knowledge/embedder"
	"trpc.group/trpc-go/trpc-agent-dataapi/knowledge/embedder/internal/batch"
	"trpc.group/trpc-go/trpc-agent-dataapi/log"
	"trpc.group/trpc-go/trpc-agent-dataapi/telemetry/trace"
)

// Verify that Embedder implements the embedder.BatchEmbedder interface.
var _ embedder.BatchEmbedder = (*Embedder)(nil)

const (
	// DefaultBaseURL is the default embedding server.
	DefaultBaseURL = "http://llm.local.cn/ai"
	// DefaultModel is the default embedding model.
	DefaultModel = "m3e-base"
	// DefaultBatchSize is the default maximum number of texts per request.
	DefaultBatchSize = 1000

	embeddingsPath = "/embeddings"
)

// Embedder implements embedder.BatchEmbedder over plain HTTP.
type Embedder struct {
	apiKey        string
	baseURL       string
	model         string
	timeout       time.Duration
	stripNewLines bool
	dimensions    int
	batchSize     int
	concurrency   int
	httpClient    *http.Client
}

// Option represents a functional option for configuring the Embedder.
type Option func(*Embedder)

// WithAPIKey sets the bearer token sent with every request.
func WithAPIKey(apiKey string) Option {
	return func(e *Embedder) {
		e.apiKey = apiKey
	}
}

// WithBaseURL sets the server base URL. `/embeddings` is appended to it.
// An empty value keeps the default.
func WithBaseURL(baseURL string) Option {
	return func(e *Embedder) {
		if baseURL != "" {
			e.baseURL = baseURL
		}
	}
}

// WithModel sets the embedding model to use.
func WithModel(model string) Option {
	return func(e *Embedder) {
		if model != "" {
			e.model = model
		}
	}
}

// WithTimeout bounds each batch request. Zero or negative means no timeout.
func WithTimeout(timeout time.Duration) Option {
	return func(e *Embedder) {
		if timeout < 0 {
			timeout = 0
		}
		e.timeout = timeout
	}
}

// WithStripNewLines controls whether "\n" is replaced with a space before
// sending. Enabled by default.
func WithStripNewLines(strip bool) Option {
	return func(e *Embedder) {
		e.stripNewLines = strip
	}
}

// WithDimensions requests vectors of the given size. Zero leaves the choice
// to the server and omits the field from the request.
func WithDimensions(dimensions int) Option {
	return func(e *Embedder) {
		e.dimensions = dimensions
	}
}

// WithBatchSize sets the maximum number of texts per request.
// Values below 1 keep the default.
func WithBatchSize(size int) Option {
	return func(e *Embedder) {
		if size > 0 {
			e.batchSize = size
		}
	}
}

// WithConcurrency sends up to n batches at the same time. The default of 1
// sends batches one after another. Output order is input order either way.
func WithConcurrency(n int) Option {
	return func(e *Embedder) {
		e.concurrency = n
	}
}

// WithHTTPClient sets the HTTP client used for requests.
func WithHTTPClient(client *http.Client) Option {
	return func(e *Embedder) {
		if client != nil {
			e.httpClient = client
		}
	}
}

// New creates a new self-hosted embedder with the given options.
func New(opts ...Option) *Embedder {
	e := &Embedder{
		baseURL:       DefaultBaseURL,
		model:         DefaultModel,
		stripNewLines: true,
		batchSize:     DefaultBatchSize,
		concurrency:   1,
		httpClient:    http.DefaultClient,
	}
	for _, opt := range opts {
		opt(e)
	}
	e.baseURL = strings.TrimRight(e.baseURL, "/")
	return e
}

// Model returns the configured model name.
func (e *Embedder) Model() string {
	return e.model
}

// BatchSize returns the maximum number of texts sent in one request.
func (e *Embedder) BatchSize() int {
	return e.batchSize
}

// GetDimensions implements the embedder.Embedder interface.
func (e *Embedder) GetDimensions() int {
	return e.dimensions
}

// GetEmbedding implements the embedder.Embedder interface.
func (e *Embedder) GetEmbedding(ctx context.Context, text string) ([]float64, error) {
	embedding, _, err := e.GetEmbeddingWithUsage(ctx, text)
	return embedding, err
}

// GetEmbeddingWithUsage implements the embedder.Embedder interface.
func (e *Embedder) GetEmbeddingWithUsage(ctx context.Context, text string) ([]float64, map[string]any, error) {
	vectors, usage, err := e.embed(ctx, []string{text})
	if err != nil {
		return nil, nil, err
	}
	if len(vectors) == 0 || len(vectors[0]) == 0 {
		log.WarnContext(ctx, "received empty embedding vector from self-hosted API")
		return []float64{}, nil, nil
	}
	return vectors[0], usage.toMap(), nil
}

// EmbedDocuments implements the embedder.BatchEmbedder interface.
func (e *Embedder) EmbedDocuments(ctx context.Context, texts []string) ([][]float64, error) {
	vectors, _, err := e.embed(ctx, texts)
	return vectors, err
}

// EmbedQuery implements the embedder.BatchEmbedder interface.
func (e *Embedder) EmbedQuery(ctx context.Context, text string) ([]float64, error) {
	vectors, err := e.EmbedDocuments(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	if len(vectors) == 0 {
		return nil, fmt.Errorf("failed to embed documents: %w", ErrInvalidResponseFormat)
	}
	return vectors[0], nil
}

// usageTotals accumulates usage across batches.
type usageTotals struct {
	seen         bool
	promptTokens int64
	totalTokens  int64
}

func (u *usageTotals) add(usage *embedUsage) {
	if usage == nil {
		return
	}
	u.seen = true
	u.promptTokens += usage.PromptTokens
	u.totalTokens += usage.TotalTokens
}

func (u *usageTotals) toMap() map[string]any {
	out := make(map[string]any)
	if u.seen && (u.promptTokens > 0 || u.totalTokens > 0) {
		out["prompt_tokens"] = u.promptTokens
		out["total_tokens"] = u.totalTokens
	}
	return out
}

type batchResult struct {
	vector []float64
	usage  *embedUsage
}

func (e *Embedder) embed(ctx context.Context, texts []string) (vectors [][]float64, usage *usageTotals, err error) {
	usage = &usageTotals{}
	if len(texts) == 0 {
		return [][]float64{}, usage, nil
	}

	chunks := batch.Split(texts, e.batchSize)
	start := time.Now()
	ctx, span := trace.Tracer.Start(ctx, itelemetry.NewEmbeddingsSpanName(e.model))
	attrs := &itelemetry.EmbeddingAttributes{
		RequestModel: e.model,
		Dimensions:   e.dimensions,
		InputCount:   len(texts),
		BatchCount:   len(chunks),
	}
	attrs.ServerAddress, attrs.ServerPort = serverAddress(e.baseURL)
	defer func() {
		attrs.Error = err
		if usage.seen {
			attrs.InputToken = &usage.promptTokens
		}
		itelemetry.TraceEmbedding(span, attrs)
		span.End()
		itelemetry.RecordEmbeddingsOperationDuration(ctx, e.model, err, time.Since(start))
	}()

	results, err := batch.Run(ctx, chunks, e.concurrency, e.embedBatch)
	if err != nil {
		return nil, usage, err
	}
	vectors = make([][]float64, 0, len(results))
	for _, r := range results {
		vectors = append(vectors, r.vector)
		usage.add(r.usage)
	}
	return vectors, usage, nil
}

// embedBatch posts one chunk. Usage is attached to the first vector of the
// chunk so that it is counted once.
func (e *Embedder) embedBatch(ctx context.Context, idx int, texts []string) (out []batchResult, err error) {
	defer func() {
		itelemetry.IncEmbeddingsRequestCnt(ctx, e.model, len(texts), err)
	}()

	vectors, usage, err := e.request(ctx, e.prepare(texts))
	if err != nil {
		log.DebugfContext(ctx, "self-hosted embedding batch %d (%d texts) failed: %v", idx, len(texts), err)
		return nil, fmt.Errorf("failed to embed documents: %w", err)
	}
	log.DebugfContext(ctx, "self-hosted embedding batch %d: %d texts, %d vectors", idx, len(texts), len(vectors))
	out = make([]batchResult, len(vectors))
	for i, v := range vectors {
		out[i].vector = v
	}
	if len(out) > 0 {
		out[0].usage = usage
	}
	return out, nil
}

func (e *Embedder) prepare(texts []string) []string {
	if !e.stripNewLines {
		return texts
	}
	out := make([]string, len(texts))
	for i, text := range texts {
		out[i] = strings.ReplaceAll(text, "\n", " ")
	}
	return out
}

func (e *Embedder) request(ctx context.Context, texts []string) ([][]float64, *embedUsage, error) {
	body, err := json.Marshal(embedRequest{
		Input:      texts,
		Texts:      texts,
		Model:      e.model,
		Dimensions: e.dimensions,
	})
	if err != nil {
		return nil, nil, fmt.Errorf("marshal request: %w", err)
	}

	if e.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, e.timeout)
		defer cancel()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, e.baseURL+embeddingsPath, bytes.NewReader(body))
	if err != nil {
		return nil, nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+e.apiKey)

	rsp, err := e.httpClient.Do(req)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) && e.timeout > 0 {
			return nil, nil, fmt.Errorf("request timed out after %s: %w", e.timeout, err)
		}
		return nil, nil, err
	}
	defer rsp.Body.Close()

	if rsp.StatusCode < 200 || rsp.StatusCode >= 300 {
		_, _ = io.Copy(io.Discard, rsp.Body)
		return nil, nil, &HTTPError{StatusCode: rsp.StatusCode}
	}

	var parsed embedResponse
	if err := json.NewDecoder(rsp.Body).Decode(&parsed); err != nil {
		return nil, nil, fmt.Errorf("%w: %v", ErrInvalidResponseFormat, err)
	}
	vectors, err := parsed.vectors()
	if err != nil {
		return nil, nil, err
	}
	return vectors, parsed.Usage, nil
}

// serverAddress extracts host and port for span attributes.
func serverAddress(baseURL string) (*string, *int) {
	u, err := url.Parse(baseURL)
	if err != nil || u.Hostname() == "" {
		return nil, nil
	}
	host := u.Hostname()
	port, err := strconv.Atoi(u.Port())
	if err != nil {
		switch u.Scheme {
		case "https":
			port = 443
		default:
			port = 80
		}
	}
	return &host, &port
}
