//
// Tencent is pleased to support the open source community by making trpc-agent-go available.
//
// Copyright (C) 2025 Tencent.  All rights reserved.
//
// trpc-agent-go is licensed under the Apache License Version 2.0.
//
//

// Package histogram provides a float64 histogram whose bucket boundaries can
// be changed at runtime.
package histogram

import (
	"context"
	"fmt"
	"sync"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	"trpc.group/trpc-go/trpc-agent-dataapi/telemetry/semconv/metrics"
)

// DynamicFloat64Histogram wraps a Float64Histogram. SetBuckets recreates the
// underlying instrument with new boundaries.
type DynamicFloat64Histogram struct {
	mu         sync.RWMutex
	histogram  metric.Float64Histogram
	mp         metric.MeterProvider
	meterName  string
	metricName string
	options    []metric.Float64HistogramOption
}

// NewDynamicFloat64Histogram creates the histogram metricName on meter meterName of mp.
func NewDynamicFloat64Histogram(
	mp metric.MeterProvider,
	meterName string,
	metricName string,
	options ...metric.Float64HistogramOption,
) (*DynamicFloat64Histogram, error) {
	d := &DynamicFloat64Histogram{
		mp:         mp,
		meterName:  meterName,
		metricName: metricName,
		options:    options,
	}
	h, err := d.build(nil)
	if err != nil {
		return nil, err
	}
	d.histogram = h
	return d, nil
}

func (d *DynamicFloat64Histogram) build(boundaries []float64) (metric.Float64Histogram, error) {
	if d.mp == nil {
		return nil, fmt.Errorf("meter provider is nil")
	}
	// A fresh Meter per rebuild; some providers cache instruments per meter.
	meter := d.mp.Meter(d.meterName, metric.WithInstrumentationAttributes(attribute.String(metrics.KeyMetricName, d.metricName)))
	opts := append([]metric.Float64HistogramOption{}, d.options...)
	if len(boundaries) > 0 {
		opts = append(opts, metric.WithExplicitBucketBoundaries(boundaries...))
	}
	return meter.Float64Histogram(d.metricName, opts...)
}

// Record records a value with the current histogram. Safe for concurrent use.
func (d *DynamicFloat64Histogram) Record(ctx context.Context, value float64, opts ...metric.RecordOption) {
	d.mu.RLock()
	h := d.histogram
	d.mu.RUnlock()
	h.Record(ctx, value, opts...)
}

// SetBuckets replaces the bucket boundaries. Data recorded before the call is not migrated.
func (d *DynamicFloat64Histogram) SetBuckets(boundaries []float64) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	h, err := d.build(boundaries)
	if err != nil {
		return err
	}
	d.histogram = h
	return nil
}
