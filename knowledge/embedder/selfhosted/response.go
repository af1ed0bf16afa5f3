//
// Tencent is pleased to support the open source community by making trpc-agent-go available.
//
// Copyright (C) 2025 Tencent.  All rights reserved.
//
// trpc-agent-go is licensed under the Apache License Version 2.0.
//
//

package selfhosted

import (
	"encoding/json"
	"errors"
	"fmt"
)

// ErrInvalidResponseFormat is returned when the provider answers with neither
// a data list nor an embeddings list.
var ErrInvalidResponseFormat = errors.New("invalid response format from self-hosted API")

// HTTPError reports a non-2xx status from the embeddings endpoint.
type HTTPError struct {
	StatusCode int
}

// Error implements the error interface.
func (e *HTTPError) Error() string {
	return fmt.Sprintf("HTTP error! status: %d", e.StatusCode)
}

type embedRequest struct {
	Input      []string `json:"input"`
	Texts      []string `json:"texts"`
	Model      string   `json:"model"`
	Dimensions int      `json:"dimensions,omitempty"`
}

// embedResponse accepts both the OpenAI style `data` list and the bare
// `embeddings` list returned by text embedding servers.
type embedResponse struct {
	Data       []embedItem `json:"data"`
	Embeddings [][]float64 `json:"embeddings"`
	Usage      *embedUsage `json:"usage,omitempty"`
	raw        rawPresence
}

type embedItem struct {
	Embedding []float64 `json:"embedding"`
}

type embedUsage struct {
	PromptTokens int64 `json:"prompt_tokens"`
	TotalTokens  int64 `json:"total_tokens"`
}

// rawPresence records which list keys were arrays in the payload.
type rawPresence struct {
	data       bool
	embeddings bool
}

func (r *embedResponse) UnmarshalJSON(b []byte) error {
	var probe map[string]json.RawMessage
	if err := json.Unmarshal(b, &probe); err != nil {
		return err
	}
	type plain embedResponse
	var p plain
	if err := json.Unmarshal(b, &p); err != nil {
		return err
	}
	*r = embedResponse(p)
	r.raw.data = isArray(probe["data"])
	r.raw.embeddings = isArray(probe["embeddings"])
	return nil
}

func isArray(raw json.RawMessage) bool {
	for _, c := range raw {
		switch c {
		case ' ', '\t', '\r', '\n':
			continue
		case '[':
			return true
		default:
			return false
		}
	}
	return false
}

// vectors picks the embedding list, preferring `data` when both are present.
func (r *embedResponse) vectors() ([][]float64, error) {
	switch {
	case r.raw.data:
		out := make([][]float64, len(r.Data))
		for i, item := range r.Data {
			out[i] = item.Embedding
		}
		return out, nil
	case r.raw.embeddings:
		return r.Embeddings, nil
	default:
		return nil, ErrInvalidResponseFormat
	}
}
