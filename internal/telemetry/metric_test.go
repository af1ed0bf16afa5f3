//
// Tencent is pleased to support the open source community by making trpc-agent-go available.
//
// Copyright (C) 2025 Tencent.  All rights reserved.
//
// trpc-agent-go is licensed under the Apache License Version 2.0.
//
//

package telemetry

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/attribute"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"

	"trpc.group/trpc-go/trpc-agent-dataapi/telemetry/semconv/metrics"
)

func TestOutcome(t *testing.T) {
	assert.Equal(t, metrics.ValueOutcomeSuccess, outcome(nil))
	assert.Equal(t, metrics.ValueOutcomeError, outcome(errors.New("x")))
}

func TestNoopDefaultsDoNotPanic(t *testing.T) {
	ctx := context.Background()
	assert.NotPanics(t, func() {
		IncExecuteToolRequestCnt(ctx, "daily", "daily", nil)
		RecordExecuteToolOperationDuration(ctx, "daily", "daily", nil, time.Second)
		IncEmbeddingsRequestCnt(ctx, "m3e-base", 3, nil)
		RecordEmbeddingsOperationDuration(ctx, "m3e-base", errors.New("x"), time.Second)
	})
}

func TestExecuteToolMetricsRecorded(t *testing.T) {
	reader := sdkmetric.NewManualReader()
	mp := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	t.Cleanup(func() { _ = mp.Shutdown(context.Background()) })

	oldCnt := ExecuteToolMetricTRPCAgentGoClientRequestCnt
	t.Cleanup(func() { ExecuteToolMetricTRPCAgentGoClientRequestCnt = oldCnt })

	cnt, err := mp.Meter(metrics.MeterNameExecuteTool).Int64Counter(metrics.MetricTRPCAgentGoClientRequestCnt)
	require.NoError(t, err)
	ExecuteToolMetricTRPCAgentGoClientRequestCnt = cnt

	ctx := context.Background()
	IncExecuteToolRequestCnt(ctx, "daily", "daily", nil)
	IncExecuteToolRequestCnt(ctx, "daily", "daily", errors.New("x"))

	var rm metricdata.ResourceMetrics
	require.NoError(t, reader.Collect(ctx, &rm))
	require.Len(t, rm.ScopeMetrics, 1)
	require.Len(t, rm.ScopeMetrics[0].Metrics, 1)

	sum, ok := rm.ScopeMetrics[0].Metrics[0].Data.(metricdata.Sum[int64])
	require.True(t, ok)
	require.Len(t, sum.DataPoints, 2)
	byOutcome := map[string]int64{}
	for _, dp := range sum.DataPoints {
		v, _ := dp.Attributes.Value(attribute.Key(metrics.KeyTRPCAgentGoOutcome))
		byOutcome[v.AsString()] = dp.Value
	}
	assert.Equal(t, int64(1), byOutcome[metrics.ValueOutcomeSuccess])
	assert.Equal(t, int64(1), byOutcome[metrics.ValueOutcomeError])
}
