// Package supervisor spawns a single script invocation and exposes a handle
// that can be waited on or aborted. Killing an attempt kills its entire
// process subtree, not just the direct child.
package supervisor

import (
	"context"
	"io"
	"os/exec"
	"sync"
	"syscall"

	"github.com/google/uuid"
	"golang.org/x/sys/unix"
)

// KilledCode is the conventional exit code reported for attempts aborted by
// the engine (spec.md §6.5).
const KilledCode = 130

// IOPolicy controls how a spawned child's standard streams are wired.
type IOPolicy struct {
	// Stdin, if non-nil, is connected to the child's standard input.
	Stdin io.Reader
	// Stdout and Stderr, if non-nil, receive the child's output. A nil
	// value discards the corresponding stream.
	Stdout io.Writer
	Stderr io.Writer
	// Env holds additional environment variables ("KEY=VALUE") appended to
	// the child's inherited environment.
	Env []string
	// Dir overrides the child's working directory; empty uses the parent's.
	Dir string
}

// ExitResult is the outcome of a completed attempt.
type ExitResult struct {
	Code    int
	Signal  string
	Aborted bool
}

// Handle represents one running (or completed) child process.
type Handle struct {
	ID  string
	cmd *exec.Cmd

	abortOnce sync.Once
	aborted   bool
	mu        sync.Mutex
}

// Start spawns runnerPath (the underlying script-runner executable) with the
// given arguments and IO policy. scriptName/extraArgs are forwarded as
// trailing arguments so the runner can dispatch to the named script, mirroring
// how the teacher's executor shells out via "sh -c" but generalized to an
// arbitrary runner binary instead of a fixed shell.
func Start(ctx context.Context, runnerPath string, scriptName string, extraArgs []string, io2 IOPolicy) (*Handle, error) {
	args := append([]string{"run", scriptName}, extraArgs...)
	cmd := exec.CommandContext(ctx, runnerPath, args...)

	cmd.Stdin = io2.Stdin
	cmd.Stdout = io2.Stdout
	cmd.Stderr = io2.Stderr
	cmd.Dir = io2.Dir
	if len(io2.Env) > 0 {
		cmd.Env = append(cmd.Environ(), io2.Env...)
	}

	// Put the child in its own process group so Abort can signal the whole
	// subtree, not just the direct child, the way sea-mrees-bashful's
	// Task.Kill does for its spawned shells.
	cmd.SysProcAttr = &syscall.SysProcAttr{Setpgid: true}

	h := &Handle{ID: uuid.NewString(), cmd: cmd}
	// Context cancellation (an external interrupt forwarded through ctx)
	// goes through Abort too, so it kills the whole subtree rather than
	// only the direct child.
	cmd.Cancel = func() error {
		h.Abort()
		return nil
	}

	if err := cmd.Start(); err != nil {
		return nil, err
	}

	return h, nil
}

// Wait blocks until the child exits and reports its outcome. If Abort was
// called before the child exited, the result is forced to the killed code
// regardless of the actual signal observed, per spec.md §4.2's contract.
func (h *Handle) Wait() ExitResult {
	err := h.cmd.Wait()

	h.mu.Lock()
	aborted := h.aborted
	h.mu.Unlock()

	if aborted {
		return ExitResult{Code: KilledCode, Signal: "SIGKILL", Aborted: true}
	}

	if err == nil {
		return ExitResult{Code: 0}
	}

	if exitErr, ok := err.(*exec.ExitError); ok {
		if status, ok := exitErr.Sys().(syscall.WaitStatus); ok {
			if status.Signaled() {
				// Any signaled exit is treated as killed, not just ones that
				// went through Abort(): a signal sent from outside the engine
				// kills the child the same way, and the runner must stop
				// retrying rather than treat it as an ordinary failure.
				return ExitResult{Code: KilledCode, Signal: status.Signal().String(), Aborted: true}
			}
			return ExitResult{Code: status.ExitStatus()}
		}
		return ExitResult{Code: exitErr.ExitCode()}
	}

	// Failed to even start the wait machinery (e.g. already reaped); treat
	// as a hard failure with no meaningful exit code.
	return ExitResult{Code: -1}
}

// Abort requests termination of the entire process subtree. Idempotent: a
// second call is a no-op. Abort does not itself block for exit; callers must
// still observe Wait() to know the process has actually gone away.
func (h *Handle) Abort() {
	h.abortOnce.Do(func() {
		h.mu.Lock()
		h.aborted = true
		h.mu.Unlock()

		if h.cmd.Process == nil {
			return
		}
		pgid, err := unix.Getpgid(h.cmd.Process.Pid)
		if err != nil {
			_ = h.cmd.Process.Kill()
			return
		}
		_ = unix.Kill(-pgid, unix.SIGKILL)
	})
}
