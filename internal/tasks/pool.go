package tasks

import (
	"context"
	"sync"
)

// runBounded executes fn(0..n-1) across at most workers goroutines and waits
// for all of them. With workers == 1 execution is strictly sequential in
// index order. Dispatch stops when ctx is cancelled; jobs already picked up
// run to completion.
func runBounded(ctx context.Context, workers, n int, fn func(i int)) {
	if n == 0 {
		return
	}
	if workers <= 0 {
		workers = 1
	}
	if workers > n {
		workers = n
	}

	jobs := make(chan int, n)

	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range jobs {
				fn(i)
			}
		}()
	}

	for i := 0; i < n; i++ {
		select {
		case <-ctx.Done():
			close(jobs)
			wg.Wait()
			return
		case jobs <- i:
		}
	}
	close(jobs)
	wg.Wait()
}
