package cycle

import (
	"golang.org/x/sync/errgroup"
)

// RunBounded executes tasks with at most maxConcurrent of them in flight
// at once. Results are returned in task-submission order so callers can
// zip them back to their originating inputs; a failing task is a value in
// the result slice and never aborts its siblings.
func RunBounded[T any](maxConcurrent int, tasks []func() T) []T {
	if maxConcurrent < 1 {
		maxConcurrent = 1
	}

	results := make([]T, len(tasks))

	var g errgroup.Group
	g.SetLimit(maxConcurrent)
	for i, task := range tasks {
		g.Go(func() error {
			results[i] = task()
			return nil
		})
	}
	// Tasks never return errors through the group; failures are values.
	_ = g.Wait()

	return results
}
