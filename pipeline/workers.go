package pipeline

import (
	"context"
	"sync"

	"github.com/fairwaylab/go-coursevec/store"
)

// parallelEach runs fn over each candidate using a pool of wk worker
// goroutines and waits for all of them to finish before returning.  The
// first error reported by any worker is returned, remaining jobs are
// drained without being processed.
func parallelEach(ctx context.Context, cands []*store.Candidate, wk int, fn func(*store.Candidate) error) error {

	if wk < 1 {
		wk = 1
	}
	if wk > len(cands) {
		wk = len(cands)
	}
	if len(cands) == 0 {
		return nil
	}

	jobs := make(chan *store.Candidate)

	var wg sync.WaitGroup
	var mu sync.Mutex
	var firstErr error

	fail := func(err error) {
		mu.Lock()
		if firstErr == nil {
			firstErr = err
		}
		mu.Unlock()
	}

	failed := func() bool {
		mu.Lock()
		defer mu.Unlock()
		return firstErr != nil
	}

	for i := 0; i < wk; i++ {
		wg.Add(1)

		go func() {
			defer wg.Done()

			for c := range jobs {
				if failed() {
					continue
				}

				if err := ctx.Err(); err != nil {
					fail(err)
					continue
				}

				if err := fn(c); err != nil {
					fail(err)
				}
			}
		}()
	}

	for _, c := range cands {
		jobs <- c
	}

	close(jobs)
	wg.Wait()

	return firstErr
}
