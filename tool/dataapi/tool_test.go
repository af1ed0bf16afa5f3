//
// Tencent is pleased to support the open source community by making trpc-agent-go available.
//
// Copyright (C) 2025 Tencent.  All rights reserved.
//
// trpc-agent-go is licensed under the Apache License Version 2.0.
//
//

package dataapi

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"

	"trpc.group/trpc-go/trpc-agent-dataapi/telemetry/trace"
	"trpc.group/trpc-go/trpc-agent-dataapi/tool"
)

type capturedRequest struct {
	Method      string
	ContentType string
	UserAgent   string
	Envelope    map[string]any
}

// fakeAPI records every request and answers with status and body.
type fakeAPI struct {
	*httptest.Server
	mu       sync.Mutex
	requests []capturedRequest
	calls    atomic.Int32
}

func newFakeAPI(t *testing.T, status int, body string) *fakeAPI {
	t.Helper()
	f := &fakeAPI{}
	f.Server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		f.calls.Add(1)
		raw, _ := io.ReadAll(r.Body)
		var env map[string]any
		_ = json.Unmarshal(raw, &env)
		f.mu.Lock()
		f.requests = append(f.requests, capturedRequest{
			Method:      r.Method,
			ContentType: r.Header.Get("Content-Type"),
			UserAgent:   r.Header.Get("User-Agent"),
			Envelope:    env,
		})
		f.mu.Unlock()
		w.WriteHeader(status)
		_, _ = io.WriteString(w, body)
	}))
	t.Cleanup(f.Close)
	return f
}

func (f *fakeAPI) last(t *testing.T) capturedRequest {
	t.Helper()
	f.mu.Lock()
	defer f.mu.Unlock()
	require.NotEmpty(t, f.requests)
	return f.requests[len(f.requests)-1]
}

func newTool(t *testing.T, endpoint string, opts ...Option) *Tool {
	t.Helper()
	opts = append([]Option{
		WithEndpoint(endpoint),
		WithToken("secret"),
		WithDescription("daily quotes"),
		WithFields(
			FieldDescriptor{Name: "ts_code", Kind: KindString, Required: true},
			FieldDescriptor{Name: "note", Kind: KindString},
			FieldDescriptor{Name: "trade_date", Kind: KindDate},
		),
	}, opts...)
	tl, err := New("daily", opts...)
	require.NoError(t, err)
	return tl
}

func TestTool_InvokeSuccess(t *testing.T) {
	api := newFakeAPI(t, http.StatusOK, `{"code":0,"msg":"ok"}`)
	tl := newTool(t, api.URL, WithUserAgent("dataapi-test"))

	got := tl.Invoke(context.Background(), `{"ts_code":"000001.SZ","note":"100% done","ignored":true}`)
	assert.Equal(t, "{\n  \"code\": 0,\n  \"msg\": \"ok\"\n}", got)

	req := api.last(t)
	assert.Equal(t, http.MethodPost, req.Method)
	assert.Equal(t, "application/json", req.ContentType)
	assert.Equal(t, "dataapi-test", req.UserAgent)
	assert.Equal(t, map[string]any{
		"api_name": "daily",
		"token":    "secret",
		"fields":   "",
		"params": map[string]any{
			"ts_code": "000001.SZ",
			"note":    "100%% done",
			"limit":   float64(10),
			"offset":  float64(0),
		},
	}, req.Envelope)
}

func TestTool_ExplicitZeroLimitBecomesSanitizedLimit(t *testing.T) {
	api := newFakeAPI(t, http.StatusOK, `{}`)
	tl := newTool(t, api.URL)

	_, err := tl.Execute(context.Background(), map[string]any{"ts_code": "x", "limit": 0, "offset": 30})
	require.NoError(t, err)
	params := api.last(t).Envelope["params"].(map[string]any)
	assert.Equal(t, float64(SanitizedLimit), params["limit"])
	assert.Equal(t, float64(30), params["offset"])
}

func TestTool_AdditionalFieldsPassThrough(t *testing.T) {
	api := newFakeAPI(t, http.StatusOK, `{}`)
	tl := newTool(t, api.URL)

	_, err := tl.Execute(context.Background(), `{"ts_code":"x","additionalFields":{"adj":"50%","n":12345678901234567890}}`)
	require.NoError(t, err)
	params := api.last(t).Envelope["params"].(map[string]any)
	extra := params["additionalFields"].(map[string]any)
	assert.Equal(t, "50%", extra["adj"])
	assert.Equal(t, 12345678901234567890.0, extra["n"])
}

func TestTool_ArgumentForms(t *testing.T) {
	api := newFakeAPI(t, http.StatusOK, `{}`)
	tl, err := New("stock_basic", WithEndpoint(api.URL))
	require.NoError(t, err)

	type args struct {
		Limit int `json:"limit"`
	}
	for _, a := range []any{nil, "", "  ", []byte(`{}`), json.RawMessage(`{"limit":3}`), map[string]any{}, args{Limit: 4}} {
		_, err := tl.Execute(context.Background(), a)
		assert.NoError(t, err, "%#v", a)
	}
	assert.Equal(t, int32(7), api.calls.Load())
	params := api.last(t).Envelope["params"].(map[string]any)
	assert.Equal(t, float64(4), params["limit"])
}

func TestTool_ValidationFailures(t *testing.T) {
	api := newFakeAPI(t, http.StatusOK, `{}`)
	tl := newTool(t, api.URL)

	tests := []struct {
		name string
		args any
		want string
	}{
		{"malformed json", "{bad json", "Error: invalid JSON arguments: "},
		{"trailing data", `{"ts_code":"x"} {}`, "Error: invalid JSON arguments: unexpected data after JSON value"},
		{"not an object", `[1,2]`, "Error: invalid JSON arguments: expected a JSON object, received array"},
		{"null", `null`, "Error: invalid JSON arguments: expected a JSON object, received null"},
		{"missing required", `{}`, "Error: invalid arguments: ts_code: required"},
		{"bad date", `{"ts_code":"x","trade_date":"2024/01/01"}`, "Error: invalid arguments: trade_date: date must be in YYYY-MM-DD format"},
		{"unencodable", map[string]any{"ts_code": "x", "additionalFields": map[string]any{"c": make(chan int)}}, "Error: failed to encode request"},
		{"unencodable value", make(chan int), "Error: invalid JSON arguments:"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := tl.Invoke(context.Background(), tt.args)
			assert.True(t, strings.HasPrefix(got, tt.want), got)
		})
	}
	assert.Equal(t, int32(0), api.calls.Load())

	_, err := tl.Execute(context.Background(), "{bad json")
	var ve *ValidationError
	require.ErrorAs(t, err, &ve)
	assert.Error(t, ve.Err)
}

func TestTool_StrictKeys(t *testing.T) {
	api := newFakeAPI(t, http.StatusOK, `{}`)
	tl := newTool(t, api.URL, WithStrictKeys())

	got := tl.Invoke(context.Background(), `{"ts_code":"x","extra":1}`)
	assert.Equal(t, "Error: invalid arguments: extra: unrecognized key", got)
	assert.Equal(t, int32(0), api.calls.Load())
}

func TestTool_HTTPError(t *testing.T) {
	api := newFakeAPI(t, http.StatusInternalServerError, `oops`)
	tl := newTool(t, api.URL)

	_, err := tl.Execute(context.Background(), `{"ts_code":"x"}`)
	var te *TransportError
	require.ErrorAs(t, err, &te)
	assert.Equal(t, http.StatusInternalServerError, te.StatusCode)
	assert.Equal(t, "Error: HTTP error! status: 500", tl.Invoke(context.Background(), `{"ts_code":"x"}`))
}

func TestTool_InvalidResponseBody(t *testing.T) {
	api := newFakeAPI(t, http.StatusOK, `not json`)
	tl := newTool(t, api.URL)

	_, err := tl.Execute(context.Background(), `{"ts_code":"x"}`)
	assert.ErrorIs(t, err, ErrInvalidResponseFormat)
	var fe *FormatError
	assert.ErrorAs(t, err, &fe)
	assert.True(t, strings.HasPrefix(tl.Invoke(context.Background(), `{"ts_code":"x"}`), "Error: invalid response format: "))
}

func TestTool_Timeout(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(5 * time.Second):
		}
	}))
	t.Cleanup(srv.Close)
	tl := newTool(t, srv.URL, WithTimeout(50*time.Millisecond))

	_, err := tl.Execute(context.Background(), `{"ts_code":"x"}`)
	assert.ErrorIs(t, err, ErrTimeout)
	var te *TransportError
	require.ErrorAs(t, err, &te)
	assert.Zero(t, te.StatusCode)
	assert.Equal(t, "Error: request timed out after 50ms", tl.Invoke(context.Background(), `{"ts_code":"x"}`))
}

func TestTool_CallerDeadline(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(5 * time.Second):
		}
	}))
	t.Cleanup(srv.Close)
	tl := newTool(t, srv.URL)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	_, err := tl.Execute(ctx, `{"ts_code":"x"}`)
	var te *TransportError
	require.ErrorAs(t, err, &te)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.NotErrorIs(t, err, ErrTimeout)
	assert.Equal(t, "request canceled by caller: context deadline exceeded", err.Error())
	assert.NotContains(t, tl.Invoke(ctx, `{"ts_code":"x"}`), "30000ms")
}

func TestTool_NetworkError(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()
	tl := newTool(t, url)

	got := tl.Invoke(context.Background(), `{"ts_code":"x"}`)
	assert.True(t, strings.HasPrefix(got, "Error: "), got)
	assert.NotContains(t, got, "timed out")
}

func TestTool_CallNeverErrors(t *testing.T) {
	api := newFakeAPI(t, http.StatusBadGateway, ``)
	tl := newTool(t, api.URL)

	var callable tool.CallableTool = tl
	res, err := callable.Call(context.Background(), []byte(`{"ts_code":"x"}`))
	require.NoError(t, err)
	assert.Equal(t, "Error: HTTP error! status: 502", res)

	res, err = callable.Call(context.Background(), []byte(`{bad json`))
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(res.(string), "Error: "))
}

func TestTool_EnvelopeOptions(t *testing.T) {
	api := newFakeAPI(t, http.StatusOK, `{}`)
	tl := newTool(t, api.URL, WithAPIName("daily_basic"), WithResponseFields("ts_code", "close"))

	_, err := tl.Execute(context.Background(), `{"ts_code":"x"}`)
	require.NoError(t, err)
	env := api.last(t).Envelope
	assert.Equal(t, "daily_basic", env["api_name"])
	assert.Equal(t, "ts_code,close", env["fields"])
	assert.Equal(t, "daily", tl.Name())
}

func TestTool_Declaration(t *testing.T) {
	tl := newTool(t, "http://unused")
	decl := tl.Declaration()
	assert.Equal(t, "daily", decl.Name)
	assert.Equal(t, "daily quotes", decl.Description)
	require.NotNil(t, decl.InputSchema)
	assert.Equal(t, []string{"ts_code"}, decl.InputSchema.Required)
	assert.Contains(t, decl.InputSchema.Properties, FieldAdditionalFields)
	assert.Same(t, tl.Contract(), tl.contract)
}

func TestNew_ConstructionErrors(t *testing.T) {
	for _, name := range []string{"", "1daily", "daily quotes", "daily-v2"} {
		_, err := New(name)
		var ce *ConstructionError
		require.ErrorAs(t, err, &ce, name)
		assert.ErrorIs(t, err, ErrInvalidToolName)
		assert.Equal(t, name, ce.Tool)
	}

	_, err := New("daily", WithTimeout(0))
	var ce *ConstructionError
	require.ErrorAs(t, err, &ce)

	_, err = New("daily", WithFields(FieldDescriptor{Name: "vol", Kind: KindNumber, Default: "many"}))
	require.ErrorAs(t, err, &ce)
	assert.Equal(t, "vol", ce.Field)
	assert.Equal(t, `invalid tool "daily": field "vol": invalid default value: expected number, received string`, err.Error())
}

func TestTool_ConcurrentInvocations(t *testing.T) {
	api := newFakeAPI(t, http.StatusOK, `{"ok":true}`)
	tl := newTool(t, api.URL)

	var wg sync.WaitGroup
	results := make([]string, 16)
	for i := range results {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i] = tl.Invoke(context.Background(), `{"ts_code":"x"}`)
		}(i)
	}
	wg.Wait()
	for _, r := range results {
		assert.Equal(t, "{\n  \"ok\": true\n}", r)
	}
	assert.Equal(t, int32(16), api.calls.Load())
}

func TestTool_ExecuteSpan(t *testing.T) {
	sr := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(sr))
	oldTracer := trace.Tracer
	trace.Tracer = tp.Tracer("test")
	t.Cleanup(func() { trace.Tracer = oldTracer })

	api := newFakeAPI(t, http.StatusTeapot, ``)
	tl := newTool(t, api.URL)
	_ = tl.Invoke(context.Background(), `{"ts_code":"x"}`)

	spans := sr.Ended()
	require.Len(t, spans, 1)
	assert.Equal(t, "execute_tool daily", spans[0].Name())
	var status int64
	for _, kv := range spans[0].Attributes() {
		if kv.Key == "trpc.go.agent.data_api.status_code" {
			status = kv.Value.AsInt64()
		}
	}
	assert.Equal(t, int64(http.StatusTeapot), status)
}

func TestErrorMessages(t *testing.T) {
	assert.Equal(t, "HTTP error! status: 404", (&TransportError{StatusCode: 404}).Error())
	assert.Equal(t, "dial failed", (&TransportError{Err: errors.New("dial failed")}).Error())
	assert.Equal(t, `invalid tool "x": boom`, (&ConstructionError{Tool: "x", Err: errors.New("boom")}).Error())
	assert.Equal(t, "invalid arguments: a: required; b: expected string, received number",
		(&ValidationError{Issues: []Issue{{"a", "required"}, {"b", "expected string, received number"}}}).Error())
}
