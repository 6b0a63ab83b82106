// Package group implements the sequential and parallel group executor:
// spec.md §4.4's task scheduling, abort protocol, and failure semantics for
// one group of tasks.
package group

import (
	"context"
	"fmt"
	"io"
	"sync"

	"github.com/sourcegraph/conc/pool"

	"github.com/runmany/runmany/internal/output"
	"github.com/runmany/runmany/internal/pattern"
	"github.com/runmany/runmany/internal/runerr"
	"github.com/runmany/runmany/internal/supervisor"
	"github.com/runmany/runmany/internal/task"
)

// Policy is the effective per-group configuration (spec.md §3 GroupPolicy).
type Policy struct {
	Parallel        bool
	ConcurrencyCap  int // <=0 means unlimited (len(tasks))
	Race            bool
	ContinueOnError bool
	AggregateOutput bool
	PrintLabel      bool
	PrintName       bool
	Silent          bool
	RetryLimit      int
}

// Validate checks the parallel-only flag combinations spec.md §4.4 calls out
// as fatal validation errors.
func (p Policy) Validate() error {
	if !p.Parallel {
		if p.Race {
			return runerr.NewInvalidOptionField("race", "race requires a parallel group")
		}
		if p.AggregateOutput {
			return runerr.NewInvalidOptionField("aggregateOutput", "aggregateOutput requires a parallel group")
		}
	}
	return nil
}

// abortGate is the single one-way aborted flag shared by every task in a
// group, modeled on outofforest-parallel's Group.exit/Group.Wait
// closed-channel latch: the transition from false to true happens once,
// under a mutex, and is safe to poll concurrently via the closed done channel.
type abortGate struct {
	mu      sync.Mutex
	aborted bool
	done    chan struct{}
}

func newAbortGate() *abortGate {
	return &abortGate{done: make(chan struct{})}
}

func (g *abortGate) Aborted() bool {
	select {
	case <-g.done:
		return true
	default:
		return false
	}
}

// trigger flips the gate one-way and idempotently, returning true only the
// first time it actually transitions.
func (g *abortGate) trigger() bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.aborted {
		return false
	}
	g.aborted = true
	close(g.done)
	return true
}

// handleRegistry tracks the currently in-flight supervisor handle (if any)
// per task index, so the group can reach in and abort a task that is
// blocked inside task.Runner.Run's Wait() when the group needs to tear down
// before that task's own retry loop would notice the gate on its own.
type handleRegistry struct {
	mu      sync.Mutex
	current map[int]task.Spawner
}

func newHandleRegistry() *handleRegistry {
	return &handleRegistry{current: make(map[int]task.Spawner)}
}

func (r *handleRegistry) set(idx int, h task.Spawner) {
	r.mu.Lock()
	r.current[idx] = h
	r.mu.Unlock()
}

func (r *handleRegistry) clear(idx int) {
	r.mu.Lock()
	delete(r.current, idx)
	r.mu.Unlock()
}

func (r *handleRegistry) abortAll() {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, h := range r.current {
		h.Abort()
	}
}

// trackedSpawner wraps a real task.Spawner so the group's handleRegistry
// always reflects exactly the handles currently blocked in Wait().
type trackedSpawner struct {
	task.Spawner
	idx      int
	registry *handleRegistry
}

func (s *trackedSpawner) Wait() supervisor.ExitResult {
	defer s.registry.clear(s.idx)
	return s.Spawner.Wait()
}

// Sinks bundles the output plumbing the executor wires per task.
type Sinks struct {
	Label      *output.LabelWriter
	Aggregator *output.Aggregator
	Header     io.Writer // destination for --print-name header lines
	Stdout     io.Writer // real stdout, used directly or as the aggregator's flush target
	Stderr     io.Writer // real stderr, used directly when neither label nor aggregate mode applies
}

// Executor runs one group of tasks under Policy.
type Executor struct {
	Tasks  []pattern.Task
	Policy Policy
	Spawn  task.SpawnFunc
	Sinks  Sinks
}

// Run executes the group and returns results in input task order. The
// returned error is a *runerr.TaskFailure when at least one task failed,
// including failures that ContinueOnError let the rest of the group run
// past. Tasks killed by the group's own abort (race losers, siblings of a
// failure) do not by themselves count as failures.
func (e *Executor) Run(ctx context.Context) ([]task.Result, error) {
	if err := e.Policy.Validate(); err != nil {
		return nil, err
	}
	if e.Policy.Parallel {
		return e.runParallel(ctx)
	}
	return e.runSequential(ctx)
}

func (e *Executor) runSequential(ctx context.Context) ([]task.Result, error) {
	results := make([]task.Result, len(e.Tasks))
	gate := newAbortGate()

	for i, t := range e.Tasks {
		e.printName(t.DisplayName)
		runner := &task.Runner{
			Spawn:      e.Spawn,
			RetryLimit: e.Policy.RetryLimit,
			Sink:       e.sinkFor(t.DisplayName),
			Gate:       gate,
		}
		results[i] = runner.Run(ctx, t)
		e.finishOutput(t.DisplayName)

		if results[i].CodeIsSet && results[i].Code != 0 && !e.Policy.ContinueOnError {
			// No task after the first failing one is started; their slots
			// keep the zero-value Result (CodeIsSet=false, Retries=0).
			return results, runerr.NewTaskFailure(toRunerrResults(results), nil)
		}
	}

	if anyFailed(results) {
		return results, runerr.NewTaskFailure(toRunerrResults(results), nil)
	}
	return results, nil
}

func (e *Executor) runParallel(ctx context.Context) ([]task.Result, error) {
	results := make([]task.Result, len(e.Tasks))
	gate := newAbortGate()
	registry := newHandleRegistry()
	var failedMu sync.Mutex
	failed := false

	cap := e.Policy.ConcurrencyCap
	if cap <= 0 {
		cap = len(e.Tasks)
	}

	p := pool.New().WithMaxGoroutines(cap)

	for i, t := range e.Tasks {
		i, t := i, t
		p.Go(func() {
			e.printName(t.DisplayName)
			spawn := func(ctx context.Context, t pattern.Task, sink task.Sink) (task.Spawner, error) {
				h, err := e.Spawn(ctx, t, sink)
				if err != nil {
					return nil, err
				}
				tracked := &trackedSpawner{Spawner: h, idx: i, registry: registry}
				registry.set(i, tracked)
				return tracked, nil
			}

			runner := &task.Runner{
				Spawn:      spawn,
				RetryLimit: e.Policy.RetryLimit,
				Sink:       e.sinkFor(t.DisplayName),
				Gate:       gate,
			}
			results[i] = runner.Run(ctx, t)
			e.finishOutput(t.DisplayName)

			if gate.Aborted() {
				return
			}

			if e.Policy.Race && results[i].CodeIsSet && results[i].Code == 0 {
				if gate.trigger() {
					registry.abortAll()
				}
				return
			}

			if results[i].CodeIsSet && results[i].Code != 0 {
				failedMu.Lock()
				failed = true
				failedMu.Unlock()
				if !e.Policy.ContinueOnError && gate.trigger() {
					registry.abortAll()
				}
			}
		})
	}

	p.Wait()

	// Tasks killed by the group's own abort returned above without setting
	// failed: an abort by itself is not a failure.
	if failed {
		return results, runerr.NewTaskFailure(toRunerrResults(results), nil)
	}
	return results, nil
}

// printName writes the --print-name header line for a task about to start,
// unless silenced or no header destination was wired.
func (e *Executor) printName(name string) {
	if !e.Policy.PrintName || e.Policy.Silent || e.Sinks.Header == nil {
		return
	}
	fmt.Fprintf(e.Sinks.Header, "\n> %s\n", name)
}

// sinkFor wires the per-task output sink: aggregate-output buffers the
// whole task atomically for a later flush, print-label serializes per line,
// and with neither set (and not silent) output passes straight through to
// the real stdout/stderr, interleaved at the byte level per spec.md §5.
func (e *Executor) sinkFor(name string) task.Sink {
	if e.Policy.Silent {
		return task.Sink{}
	}
	if e.Policy.AggregateOutput && e.Sinks.Aggregator != nil {
		w := e.Sinks.Aggregator.Writer(name)
		return task.Sink{Stdout: w, Stderr: w}
	}
	if e.Policy.PrintLabel && e.Sinks.Label != nil {
		w := e.Sinks.Label.Writer(name)
		return task.Sink{Stdout: w, Stderr: w}
	}
	return task.Sink{Stdout: e.Sinks.Stdout, Stderr: e.Sinks.Stderr}
}

// finishOutput runs the per-task completion steps the chosen output mode
// needs: aggregate-output flushes the task's buffered bytes to the real
// stdout as one contiguous block, print-label flushes any trailing partial
// line left in the task's line buffer. Neither applies when silent.
func (e *Executor) finishOutput(name string) {
	if e.Policy.Silent {
		return
	}
	if e.Policy.AggregateOutput && e.Sinks.Aggregator != nil && e.Sinks.Stdout != nil {
		_ = e.Sinks.Aggregator.Flush(name, e.Sinks.Stdout)
	}
	if e.Policy.PrintLabel && e.Sinks.Label != nil {
		_ = e.Sinks.Label.Close(name)
	}
}

func anyFailed(results []task.Result) bool {
	for _, r := range results {
		if r.CodeIsSet && r.Code != 0 {
			return true
		}
	}
	return false
}

func toRunerrResults(results []task.Result) []runerr.TaskResult {
	out := make([]runerr.TaskResult, len(results))
	for i, r := range results {
		out[i] = runerr.TaskResult{
			Name:       r.Name,
			Code:       r.Code,
			CodeIsSet:  r.CodeIsSet,
			Retries:    r.Retries,
			DurationMs: r.DurationMs,
		}
	}
	return out
}
