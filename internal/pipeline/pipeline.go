// Package pipeline drives an ordered list of groups to completion, per
// spec.md §4.5.
package pipeline

import (
	"context"

	"github.com/runmany/runmany/internal/group"
	"github.com/runmany/runmany/internal/runerr"
	"github.com/runmany/runmany/internal/task"
)

// Stage is one group within the pipeline, paired with the policy it should
// run under.
type Stage struct {
	Executor *group.Executor
}

// Run executes stages in declaration order. continueOnError is the
// driver-level flag (distinct from any individual group's own
// continue-on-error policy): when false, a stage returning a TaskFailure
// stops the pipeline before any later stage starts. Results already
// collected are returned alongside the error either way.
func Run(ctx context.Context, stages []Stage, continueOnError bool) ([]task.Result, error) {
	var all []task.Result
	var firstErr error

	for _, stage := range stages {
		results, err := stage.Executor.Run(ctx)
		all = append(all, results...)

		if err != nil {
			if firstErr == nil {
				firstErr = err
			}
			if _, ok := runerr.AsTaskFailure(err); !ok {
				return all, err
			}
			if !continueOnError {
				return all, err
			}
		}
	}

	return all, firstErr
}
