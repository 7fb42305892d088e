// Package async provides utilities for bounded parallel task execution.
//
// The teardown phases fan out one task per resource (or per resource kind)
// and need every task to run to completion regardless of sibling failures,
// with an upper bound on in-flight operations so the API server is not
// overwhelmed.
package async

import (
	"context"

	"golang.org/x/sync/errgroup"
)

// Task represents an asynchronous operation with a name and function.
type Task struct {
	Name string
	Func func(context.Context) error
}

// Result pairs a task name with its outcome.
type Result struct {
	Name string
	Err  error
}

// Run executes all tasks with at most limit in flight and waits for every
// task to settle. One task's failure never cancels its siblings; results
// are returned in task order. A limit <= 0 means unbounded.
func Run(ctx context.Context, tasks []Task, limit int) []Result {
	if len(tasks) == 0 {
		return nil
	}

	results := make([]Result, len(tasks))

	g := &errgroup.Group{}
	if limit > 0 {
		g.SetLimit(limit)
	}

	for i, task := range tasks {
		results[i].Name = task.Name
		g.Go(func() error {
			results[i].Err = task.Func(ctx)
			// Always nil: errgroup's short-circuit semantics would stop
			// scheduling remaining tasks on first failure.
			return nil
		})
	}

	_ = g.Wait()
	return results
}

// Errors filters the failed results.
func Errors(results []Result) []Result {
	var failed []Result
	for _, r := range results {
		if r.Err != nil {
			failed = append(failed, r)
		}
	}
	return failed
}
