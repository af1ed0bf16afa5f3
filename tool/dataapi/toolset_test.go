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
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"trpc.group/trpc-go/trpc-agent-dataapi/tool"
)

func TestNewToolSet(t *testing.T) {
	api := newFakeAPI(t, http.StatusOK, `{}`)
	ts, err := NewToolSet([]Definition{
		{Name: "daily", Description: "daily quotes", Fields: []FieldDescriptor{{Name: "ts_code", Required: true}}},
		{Name: "basic", APIName: "stock_basic", Timeout: time.Second, ResponseFields: []string{"ts_code"}},
	},
		WithToolSetName("stock"),
		WithToolOptions(WithEndpoint(api.URL), WithToken("shared"), WithDescription("shared description")),
	)
	require.NoError(t, err)

	assert.Equal(t, "stock", ts.Name())
	require.NoError(t, ts.Close())

	tools := ts.Tools(context.Background())
	require.Len(t, tools, 2)
	assert.Equal(t, "daily quotes", tools[0].Declaration().Description)
	assert.Equal(t, "shared description", tools[1].Declaration().Description)

	basic := ts.DataTools()[1]
	_, err = basic.Execute(context.Background(), nil)
	require.NoError(t, err)
	env := api.last(t).Envelope
	assert.Equal(t, "stock_basic", env["api_name"])
	assert.Equal(t, "shared", env["token"])
	assert.Equal(t, "ts_code", env["fields"])

	filtered := tool.FilterToolSet(ts, tool.NewIncludeToolNamesFilter("basic"))
	require.Len(t, filtered.Tools(context.Background()), 1)
}

func TestNewToolSet_DefaultName(t *testing.T) {
	ts, err := NewToolSet(nil)
	require.NoError(t, err)
	assert.Equal(t, "dataapi", ts.Name())
	assert.Empty(t, ts.Tools(context.Background()))
}

func TestNewToolSet_Errors(t *testing.T) {
	_, err := NewToolSet([]Definition{{Name: "daily"}, {Name: "daily"}})
	var ce *ConstructionError
	require.ErrorAs(t, err, &ce)
	assert.Equal(t, "daily", ce.Tool)

	_, err = NewToolSet([]Definition{{Name: "ok"}, {Name: "bad name"}})
	require.ErrorAs(t, err, &ce)
	assert.ErrorIs(t, err, ErrInvalidToolName)

	_, err = NewToolSet([]Definition{{Name: "neg", Timeout: -time.Second}})
	require.ErrorAs(t, err, &ce)
}
