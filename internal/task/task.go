// Package task implements the retry-until-success-or-exhaustion attempt
// loop for a single scheduled task.
package task

import (
	"context"
	"io"
	"time"

	"github.com/runmany/runmany/internal/pattern"
	"github.com/runmany/runmany/internal/supervisor"
)

// Result is the outcome of running one task to completion (spec.md §3).
type Result struct {
	Name       string
	Code       int
	CodeIsSet  bool
	Retries    int
	DurationMs int64
}

// Sink supplies per-task output destinations; a nil Stdout/Stderr discards
// the corresponding stream.
type Sink struct {
	Stdin  io.Reader
	Stdout io.Writer
	Stderr io.Writer
}

// Spawner starts one attempt and returns a handle that can be waited on or
// aborted. Satisfied by *supervisor.Handle via the Runner's spawn function.
type Spawner interface {
	Wait() supervisor.ExitResult
	Abort()
}

// SpawnFunc starts one child process attempt for t using sink's streams.
type SpawnFunc func(ctx context.Context, t pattern.Task, sink Sink) (Spawner, error)

// AbortGate reports whether the owning group has begun tearing down. A task
// that observes abort before spawning another attempt stops immediately
// rather than starting new work, per spec.md §4.3.
type AbortGate interface {
	Aborted() bool
}

// Runner drives the attempt loop for one task under a retry policy.
type Runner struct {
	Spawn      SpawnFunc
	RetryLimit int
	Sink       Sink
	Gate       AbortGate
}

// Run executes t, retrying on non-zero exit up to RetryLimit additional
// attempts (RetryLimit+1 total), and returns the final Result. A successful
// first attempt yields Retries=0. An attempt aborted mid-flight stops the
// loop immediately without counting toward RetryLimit exhaustion.
//
// A task that is stopped by the abort gate before it ever spawns a single
// attempt (a parallel-group task still queued when a sibling's race win or
// failure tears the group down) reports CodeIsSet=false rather than the
// killed code: it was never in flight, so nothing was actually killed.
func (r *Runner) Run(ctx context.Context, t pattern.Task) Result {
	start := time.Now()

	var last supervisor.ExitResult
	lastAttempt := -1

	for attempt := 0; attempt <= r.RetryLimit; attempt++ {
		if r.Gate != nil && r.Gate.Aborted() {
			if lastAttempt < 0 {
				return Result{
					Name:       t.DisplayName,
					DurationMs: time.Since(start).Milliseconds(),
				}
			}
			return Result{
				Name:       t.DisplayName,
				Code:       last.Code,
				CodeIsSet:  true,
				Retries:    lastAttempt,
				DurationMs: time.Since(start).Milliseconds(),
			}
		}

		handle, err := r.Spawn(ctx, t, r.Sink)
		if err != nil {
			last = supervisor.ExitResult{Code: -1}
			lastAttempt = attempt
			continue
		}

		last = handle.Wait()
		lastAttempt = attempt

		if last.Aborted {
			return Result{
				Name:       t.DisplayName,
				Code:       supervisor.KilledCode,
				CodeIsSet:  true,
				Retries:    attempt,
				DurationMs: time.Since(start).Milliseconds(),
			}
		}

		if last.Code == 0 {
			return Result{
				Name:       t.DisplayName,
				Code:       0,
				CodeIsSet:  true,
				Retries:    attempt,
				DurationMs: time.Since(start).Milliseconds(),
			}
		}
		// Non-zero exit: fall through and retry (zero delay, no backoff,
		// per spec.md §4.3 — a deliberate divergence from the teacher's
		// time.After(time.Second) backoff; see DESIGN.md).
	}

	return Result{
		Name:       t.DisplayName,
		Code:       last.Code,
		CodeIsSet:  true,
		Retries:    lastAttempt,
		DurationMs: time.Since(start).Milliseconds(),
	}
}
