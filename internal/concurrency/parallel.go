// Package concurrency has a small bounded-parallelism helper used by the
// roster export when fetching per-student record sets.
package concurrency

import (
	"context"
	"sync"
)

// Map runs fn over items with at most maxWorkers goroutines and returns
// the results in input order plus any errors collected.
func Map[T any, R any](
	ctx context.Context,
	items []T,
	maxWorkers int,
	fn func(ctx context.Context, item T) (R, error),
) ([]R, []error) {
	if len(items) == 0 {
		return nil, nil
	}
	if maxWorkers <= 0 {
		maxWorkers = 4
	}
	if maxWorkers > len(items) {
		maxWorkers = len(items)
	}

	jobs := make(chan int)
	results := make([]R, len(items))
	errs := make([]error, len(items))

	var wg sync.WaitGroup
	for w := 0; w < maxWorkers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range jobs {
				select {
				case <-ctx.Done():
					errs[i] = ctx.Err()
				default:
					results[i], errs[i] = fn(ctx, items[i])
				}
			}
		}()
	}

	for i := range items {
		jobs <- i
	}
	close(jobs)
	wg.Wait()

	var collected []error
	for _, err := range errs {
		if err != nil {
			collected = append(collected, err)
		}
	}
	return results, collected
}
