//
// Tencent is pleased to support the open source community by making trpc-agent-go available.
//
// Copyright (C) 2025 Tencent.  All rights reserved.
//
// trpc-agent-go is licensed under the Apache License Version 2.0.
//
//

// Package dataapi exposes endpoints of a token-authenticated data API as
// agent tools whose argument schema is declared at runtime.
//
// A tool is built from a list of FieldDescriptor values. Each call validates
// the arguments against the synthesized Contract, sanitizes them, POSTs the
// envelope {api_name, token, params, fields} to the endpoint and returns the
// response pretty-printed. Invoke and Call never fail: errors come back as
// text starting with "Error: ", which is what agent runtimes expect from a tool.
package dataapi

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	itelemetry "trpc.group/trpc-go/trpc-agent-dataapi/internal/telemetry"
	"trpc.group/trpc-go/trpc-agent-dataapi/log"
	"trpc.group/trpc-go/trpc-agent-dataapi/telemetry/trace"
	"trpc.group/trpc-go/trpc-agent-dataapi/tool"
)

const (
	// DefaultEndpoint is the data API base URL.
	DefaultEndpoint = "http://api.tushare.pro"
	// DefaultTimeout bounds each upstream request.
	DefaultTimeout = 30 * time.Second

	errorPrefix = "Error: "
)

var _ tool.CallableTool = (*Tool)(nil)

// Option is a functional option for configuring a Tool.
type Option func(*options)

type options struct {
	apiName        string
	description    string
	token          string
	endpoint       string
	userAgent      string
	timeout        time.Duration
	fields         []FieldDescriptor
	responseFields []string
	strictKeys     bool
	httpClient     *http.Client
}

// WithAPIName sets the api_name sent upstream. It defaults to the tool name.
func WithAPIName(apiName string) Option {
	return func(o *options) {
		o.apiName = apiName
	}
}

// WithDescription sets the description shown to the model.
func WithDescription(description string) Option {
	return func(o *options) {
		o.description = description
	}
}

// WithToken sets the credential token placed in every envelope.
func WithToken(token string) Option {
	return func(o *options) {
		o.token = token
	}
}

// WithEndpoint overrides DefaultEndpoint.
func WithEndpoint(endpoint string) Option {
	return func(o *options) {
		o.endpoint = endpoint
	}
}

// WithUserAgent sets the User-Agent header.
func WithUserAgent(userAgent string) Option {
	return func(o *options) {
		o.userAgent = userAgent
	}
}

// WithTimeout bounds each request. It must be positive.
func WithTimeout(timeout time.Duration) Option {
	return func(o *options) {
		o.timeout = timeout
	}
}

// WithFields declares the input fields. Repeated use appends.
func WithFields(fields ...FieldDescriptor) Option {
	return func(o *options) {
		o.fields = append(o.fields, fields...)
	}
}

// WithResponseFields restricts the columns returned by the API.
// They are joined with commas into the envelope fields entry.
func WithResponseFields(fields ...string) Option {
	return func(o *options) {
		o.responseFields = fields
	}
}

// WithStrictKeys rejects argument keys the contract does not declare
// instead of dropping them.
func WithStrictKeys() Option {
	return func(o *options) {
		o.strictKeys = true
	}
}

// WithHTTPClient sets the HTTP client to use.
func WithHTTPClient(httpClient *http.Client) Option {
	return func(o *options) {
		o.httpClient = httpClient
	}
}

// Tool is one data API endpoint exposed as a callable tool. It is immutable
// after New and safe for concurrent use.
type Tool struct {
	name           string
	apiName        string
	description    string
	token          string
	endpoint       string
	userAgent      string
	timeout        time.Duration
	responseFields string
	strictKeys     bool
	contract       *Contract
	inputSchema    *tool.Schema
	httpClient     *http.Client
}

// New builds a tool. An invalid name, a non-positive timeout or a default
// that does not match its field kind yields a *ConstructionError.
func New(name string, opts ...Option) (*Tool, error) {
	o := &options{
		endpoint: DefaultEndpoint,
		timeout:  DefaultTimeout,
	}
	for _, opt := range opts {
		opt(o)
	}
	if err := ValidateToolName(name); err != nil {
		return nil, &ConstructionError{Tool: name, Err: err}
	}
	if o.timeout <= 0 {
		return nil, &ConstructionError{Tool: name, Err: fmt.Errorf("timeout must be positive, got %s", o.timeout)}
	}
	if field, err := validateDefaults(o.fields); err != nil {
		return nil, &ConstructionError{Tool: name, Field: field, Err: err}
	}
	if o.apiName == "" {
		o.apiName = name
	}
	if o.httpClient == nil {
		o.httpClient = &http.Client{}
	}
	contract := Synthesize(o.fields)
	return &Tool{
		name:           name,
		apiName:        o.apiName,
		description:    o.description,
		token:          o.token,
		endpoint:       o.endpoint,
		userAgent:      o.userAgent,
		timeout:        o.timeout,
		responseFields: strings.Join(o.responseFields, ","),
		strictKeys:     o.strictKeys,
		contract:       contract,
		inputSchema:    contract.Schema(),
		httpClient:     o.httpClient,
	}, nil
}

// Name returns the tool name.
func (t *Tool) Name() string { return t.name }

// Contract returns the argument contract.
func (t *Tool) Contract() *Contract { return t.contract }

// Declaration implements tool.Tool.
func (t *Tool) Declaration() *tool.Declaration {
	return &tool.Declaration{
		Name:        t.name,
		Description: t.description,
		InputSchema: t.inputSchema,
	}
}

// Call implements tool.CallableTool. The error is always nil; failures are
// reported in the returned text.
func (t *Tool) Call(ctx context.Context, jsonArgs []byte) (any, error) {
	return t.Invoke(ctx, jsonArgs), nil
}

// Invoke runs the tool and renders any failure as "Error: <message>".
func (t *Tool) Invoke(ctx context.Context, args any) string {
	result, err := t.Execute(ctx, args)
	if err != nil {
		log.WarnfContext(ctx, "data api tool %s failed: %v", t.name, err)
		return errorPrefix + err.Error()
	}
	return result
}

// Execute runs the tool. args may be a JSON string, []byte, json.RawMessage,
// map[string]any, nil or any value that encodes to a JSON object. The error is
// a *ValidationError, *TransportError or *FormatError.
func (t *Tool) Execute(ctx context.Context, args any) (result string, err error) {
	invocationID := uuid.NewString()
	ctx, span := trace.Tracer.Start(ctx, itelemetry.NewExecuteToolSpanName(t.name))
	start := time.Now()
	attrs := &itelemetry.ExecuteToolAttributes{
		ToolName:     t.name,
		Description:  t.description,
		InvocationID: invocationID,
		APIName:      t.apiName,
	}
	defer func() {
		attrs.Error = err
		if err == nil {
			attrs.Result = &result
		}
		itelemetry.TraceExecuteTool(span, attrs)
		span.End()
		itelemetry.IncExecuteToolRequestCnt(ctx, t.name, t.apiName, err)
		itelemetry.RecordExecuteToolOperationDuration(ctx, t.name, t.apiName, err, time.Since(start))
	}()

	parsed, err := decodeArgs(args)
	if err != nil {
		return "", err
	}
	if b, mErr := json.Marshal(parsed); mErr == nil {
		attrs.Arguments = b
	}

	var validated map[string]any
	if t.strictKeys {
		validated, err = t.contract.ValidateStrict(parsed)
	} else {
		validated, err = t.contract.Validate(parsed)
	}
	if err != nil {
		return "", err
	}

	params := Sanitize(validated)
	log.DebugfContext(ctx, "data api tool %s invocation %s: POST %s api_name=%s", t.name, invocationID, t.endpoint, t.apiName)
	body, status, err := t.send(ctx, params)
	attrs.StatusCode = status
	if err != nil {
		return "", err
	}
	log.DebugfContext(ctx, "data api tool %s invocation %s: status %d, %d bytes", t.name, invocationID, status, len(body))
	return prettyJSON(body)
}

type envelope struct {
	APIName string         `json:"api_name"`
	Token   string         `json:"token"`
	Params  map[string]any `json:"params"`
	Fields  string         `json:"fields"`
}

func (t *Tool) send(ctx context.Context, params map[string]any) ([]byte, int, error) {
	payload, err := json.Marshal(envelope{
		APIName: t.apiName,
		Token:   t.token,
		Params:  params,
		Fields:  t.responseFields,
	})
	if err != nil {
		return nil, 0, fmt.Errorf("failed to encode request: %w", err)
	}

	reqCtx, cancel := context.WithTimeout(ctx, t.timeout)
	defer cancel()
	req, err := http.NewRequestWithContext(reqCtx, http.MethodPost, t.endpoint, bytes.NewReader(payload))
	if err != nil {
		return nil, 0, &TransportError{Err: err}
	}
	req.Header.Set("Content-Type", "application/json")
	if t.userAgent != "" {
		req.Header.Set("User-Agent", t.userAgent)
	}

	resp, err := t.httpClient.Do(req)
	if err != nil {
		return nil, 0, t.transportError(ctx, reqCtx, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil, resp.StatusCode, &TransportError{StatusCode: resp.StatusCode}
	}
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, resp.StatusCode, t.transportError(ctx, reqCtx, fmt.Errorf("failed to read response body: %w", err))
	}
	return body, resp.StatusCode, nil
}

// transportError blames the tool timeout only when the caller's context is
// still live; a caller deadline or cancellation is reported as such.
func (t *Tool) transportError(ctx, reqCtx context.Context, err error) *TransportError {
	if ctxErr := ctx.Err(); ctxErr != nil {
		return &TransportError{Err: fmt.Errorf("request canceled by caller: %w", ctxErr)}
	}
	if errors.Is(reqCtx.Err(), context.DeadlineExceeded) {
		return &TransportError{Err: fmt.Errorf("%w after %dms", ErrTimeout, t.timeout.Milliseconds())}
	}
	return &TransportError{Err: err}
}

// decodeArgs turns the accepted argument forms into a JSON object.
func decodeArgs(args any) (map[string]any, error) {
	var raw []byte
	switch a := args.(type) {
	case nil:
		return map[string]any{}, nil
	case map[string]any:
		return a, nil
	case string:
		raw = []byte(a)
	case []byte:
		raw = a
	case json.RawMessage:
		raw = a
	default:
		b, err := json.Marshal(a)
		if err != nil {
			return nil, &ValidationError{Err: err}
		}
		raw = b
	}
	if len(bytes.TrimSpace(raw)) == 0 {
		return map[string]any{}, nil
	}

	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	var v any
	if err := dec.Decode(&v); err != nil {
		return nil, &ValidationError{Err: err}
	}
	if dec.More() {
		return nil, &ValidationError{Err: errors.New("unexpected data after JSON value")}
	}
	obj, ok := v.(map[string]any)
	if !ok {
		return nil, &ValidationError{Err: fmt.Errorf("expected a JSON object, received %s", typeName(v))}
	}
	return obj, nil
}

func prettyJSON(body []byte) (string, error) {
	var buf bytes.Buffer
	if err := json.Indent(&buf, bytes.TrimSpace(body), "", "  "); err != nil {
		return "", &FormatError{Err: err}
	}
	return buf.String(), nil
}
