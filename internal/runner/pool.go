package runner

import "sync"

// Job is one independent unit of work, typically a whole batch.
type Job func() error

// RunPool executes jobs with at most maxWorkers running at once. The returned
// slice has one entry per job, in job order; nil means the job succeeded.
func RunPool(maxWorkers int, jobs []Job) []error {
	if maxWorkers < 1 {
		maxWorkers = 1
	}

	errs := make([]error, len(jobs))
	var wg sync.WaitGroup
	sem := make(chan struct{}, maxWorkers)

	for i, job := range jobs {
		wg.Add(1)
		sem <- struct{}{}
		go func(i int, j Job) {
			defer wg.Done()
			defer func() { <-sem }()
			errs[i] = j()
		}(i, job)
	}
	wg.Wait()
	return errs
}

// FirstError returns the first non-nil error of errs in order.
func FirstError(errs []error) error {
	for _, err := range errs {
		if err != nil {
			return err
		}
	}
	return nil
}
