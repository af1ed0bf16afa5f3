//
// Tencent is pleased to support the open source community by making trpc-agent-go available.
//
// Copyright (C) 2025 Tencent.  All rights reserved.
//
// trpc-agent-go is licensed under the Apache License Version 2.0.
//
//

package histogram

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
)

func TestDynamicFloat64Histogram(t *testing.T) {
	reader := sdkmetric.NewManualReader()
	mp := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	t.Cleanup(func() { _ = mp.Shutdown(context.Background()) })

	h, err := NewDynamicFloat64Histogram(mp, "meter", "latency")
	require.NoError(t, err)

	ctx := context.Background()
	h.Record(ctx, 0.5)
	require.NoError(t, h.SetBuckets([]float64{1, 2, 3}))
	h.Record(ctx, 1.5)

	var rm metricdata.ResourceMetrics
	require.NoError(t, reader.Collect(ctx, &rm))
	var count uint64
	for _, sm := range rm.ScopeMetrics {
		for _, m := range sm.Metrics {
			hist, ok := m.Data.(metricdata.Histogram[float64])
			require.True(t, ok)
			for _, dp := range hist.DataPoints {
				count += dp.Count
			}
		}
	}
	assert.Equal(t, uint64(2), count)
}

func TestNewDynamicFloat64Histogram_NilProvider(t *testing.T) {
	_, err := NewDynamicFloat64Histogram(nil, "meter", "latency")
	require.Error(t, err)
}
