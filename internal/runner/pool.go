package runner

import (
	"fmt"
	"sync"
)

// Job is a named unit of work for RunPool.
type Job struct {
	Name string
	Run  func() error
}

// RunPool executes jobs with at most maxWorkers concurrently. The returned
// errors are wrapped with the job name and ordered like jobs.
func RunPool(maxWorkers int, jobs []Job) []error {
	if maxWorkers < 1 {
		maxWorkers = 1
	}

	var wg sync.WaitGroup
	results := make([]error, len(jobs))
	sem := make(chan struct{}, maxWorkers)

	for i, job := range jobs {
		wg.Add(1)
		sem <- struct{}{}
		go func(i int, j Job) {
			defer wg.Done()
			defer func() { <-sem }()
			if err := j.Run(); err != nil {
				results[i] = fmt.Errorf("%s: %w", j.Name, err)
			}
		}(i, job)
	}
	wg.Wait()

	var errs []error
	for _, err := range results {
		if err != nil {
			errs = append(errs, err)
		}
	}
	return errs
}
