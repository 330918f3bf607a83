package common

import (
	"runtime"
	"sync"
)

// OptimalWorkerCount determines the number of workers for a batch of
// independent items based on system size and workload.
func OptimalWorkerCount(numItems int) int {
	numCPU := runtime.NumCPU()

	// For small workloads, don't over-parallelize
	if numItems < 100 {
		return max(min(numCPU/2, numItems), 1)
	}

	// For medium workloads, use most CPUs
	if numItems < 1000 {
		return min(numCPU, 8)
	}

	// For large workloads, use all available CPUs
	return numCPU
}

// ParallelFor runs fn for every index in [0, n) across a worker pool and
// blocks until all calls have returned. fn must be safe to call
// concurrently for distinct indices.
func ParallelFor(n int, fn func(i int)) {
	if n <= 0 {
		return
	}

	numWorkers := OptimalWorkerCount(n)
	if numWorkers <= 1 {
		for i := range n {
			fn(i)
		}
		return
	}

	jobs := make(chan int, n)

	var wg sync.WaitGroup
	for range numWorkers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range jobs {
				fn(i)
			}
		}()
	}

	for i := range n {
		jobs <- i
	}
	close(jobs)

	wg.Wait()
}
