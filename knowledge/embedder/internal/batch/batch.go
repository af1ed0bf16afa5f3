//
// Tencent is pleased to support the open source community by making trpc-agent-go available.
//
// Copyright (C) 2025 Tencent.  All rights reserved.
//
// trpc-agent-go is licensed under the Apache License Version 2.0.
//
//

// Package batch splits embedding inputs into chunks and dispatches them.
package batch

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/panjf2000/ants/v2"
)

const releaseTimeout = 5 * time.Second

// Split cuts items into consecutive chunks of at most size elements.
// A size below 1 yields a single chunk.
func Split[T any](items []T, size int) [][]T {
	if len(items) == 0 {
		return nil
	}
	if size < 1 || size >= len(items) {
		return [][]T{items}
	}
	chunks := make([][]T, 0, (len(items)+size-1)/size)
	for start := 0; start < len(items); start += size {
		end := min(start+size, len(items))
		chunks = append(chunks, items[start:end:end])
	}
	return chunks
}

// Func handles one chunk. idx is the chunk position in the input.
type Func[T, R any] func(ctx context.Context, idx int, chunk []T) ([]R, error)

// Run calls fn for every chunk and concatenates the results in chunk order.
// With concurrency <= 1 chunks run one after another on the calling
// goroutine, otherwise at most concurrency chunks run at once on an ants pool.
// The first error cancels the chunks that have not started and is returned.
func Run[T, R any](ctx context.Context, chunks [][]T, concurrency int, fn Func[T, R]) ([]R, error) {
	if len(chunks) == 0 {
		return nil, nil
	}
	if concurrency <= 1 || len(chunks) == 1 {
		return runSequential(ctx, chunks, fn)
	}
	return runPooled(ctx, chunks, min(concurrency, len(chunks)), fn)
}

func runSequential[T, R any](ctx context.Context, chunks [][]T, fn Func[T, R]) ([]R, error) {
	var out []R
	for i, chunk := range chunks {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		res, err := fn(ctx, i, chunk)
		if err != nil {
			return nil, err
		}
		out = append(out, res...)
	}
	return out, nil
}

func runPooled[T, R any](ctx context.Context, chunks [][]T, size int, fn Func[T, R]) ([]R, error) {
	pool, err := ants.NewPool(size)
	if err != nil {
		return nil, fmt.Errorf("failed to create batch worker pool: %w", err)
	}
	// Workers and the purge goroutine are gone once Run returns.
	defer func() { _ = pool.ReleaseTimeout(releaseTimeout) }()

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	var (
		wg       sync.WaitGroup
		once     sync.Once
		firstErr error
	)
	fail := func(err error) {
		once.Do(func() {
			firstErr = err
			cancel()
		})
	}

	results := make([][]R, len(chunks))
	for i, chunk := range chunks {
		wg.Add(1)
		idx, c := i, chunk
		err := pool.Submit(func() {
			defer wg.Done()
			if err := ctx.Err(); err != nil {
				fail(err)
				return
			}
			res, err := fn(ctx, idx, c)
			if err != nil {
				fail(err)
				return
			}
			results[idx] = res
		})
		if err != nil {
			wg.Done()
			fail(fmt.Errorf("failed to submit batch %d: %w", idx, err))
			break
		}
	}
	wg.Wait()

	if firstErr != nil {
		return nil, firstErr
	}
	var out []R
	for _, res := range results {
		out = append(out, res...)
	}
	return out, nil
}
