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
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDescriptionTemplate_Render(t *testing.T) {
	tmpl := DescriptionTemplate{
		MainFunction:        "Fetch daily quotes",
		DetailedDescription: "Unadjusted daily bars.",
		InputFields: []FieldDescriptor{
			{Name: "ts_code", Description: "stock code"},
			{Name: "  ", Description: "ignored"},
			{Name: "trade_date", Description: "YYYY-MM-DD"},
		},
		OutputFields:          []OutputField{{Name: "close", Description: "close price"}},
		UseCases:              "price lookups",
		ParameterFillingGuide: "Use exchange suffixes.",
		UsageExample:          `{"ts_code":"000001.SZ"}`,
	}
	want := "Fetch daily quotes" +
		"\n\nUnadjusted daily bars." +
		"\n\nInput fields:\n- ts_code: stock code\n- trade_date: YYYY-MM-DD" +
		"\n\nOutput fields:\n- close: close price" +
		"\n\nUse cases: price lookups" +
		"\n\nParameter filling guide:\nUse exchange suffixes." +
		"\n\nUsage example:\n{\"ts_code\":\"000001.SZ\"}"
	assert.Equal(t, want, tmpl.Render())
}

func TestDescriptionTemplate_RenderOmitsEmptySections(t *testing.T) {
	tmpl := DescriptionTemplate{
		MainFunction: "Fetch",
		InputFields:  []FieldDescriptor{{Name: ""}},
		OutputFields: []OutputField{{Name: " "}},
	}
	assert.Equal(t, "Fetch", tmpl.Render())
}

func TestResolveDescription(t *testing.T) {
	tmpl := DescriptionTemplate{MainFunction: "Fetch"}
	assert.Equal(t, "Fetch", ResolveDescription(DescriptionModeTemplate, tmpl, "custom"))
	assert.Equal(t, "custom", ResolveDescription(DescriptionModeCustom, tmpl, "custom"))
	assert.Equal(t, DefaultDescription, ResolveDescription(DescriptionModeCustom, tmpl, ""))
	assert.Equal(t, DefaultDescription, ResolveDescription(DescriptionModeTemplate, DescriptionTemplate{}, "x"))
}

func TestToolNames(t *testing.T) {
	assert.Equal(t, "Daily_Quotes_v2", NormalizeToolName("Daily Quotes v2"))

	for _, ok := range []string{"daily", "_x", "Stock_Basic2"} {
		assert.NoError(t, ValidateToolName(ok), ok)
	}
	for _, bad := range []string{"", "1daily", "daily quotes", "daily-quotes", "日线"} {
		assert.ErrorIs(t, ValidateToolName(bad), ErrInvalidToolName, bad)
	}
}
