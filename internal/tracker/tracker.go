// Package tracker invokes the external bd-compatible issue tracker CLI and
// classifies its failures. The runner is stateless and safe for concurrent
// calls; it performs no queuing or rate limiting of its own.
package tracker

import (
	"bytes"
	"context"
	"errors"
	"io"
	"os"
	"os/exec"
	"strings"
	"time"
)

const (
	// DefaultTimeout bounds a single tool invocation.
	DefaultTimeout = 30 * time.Second

	// DefaultMaxOutput caps captured stdout/stderr per invocation.
	DefaultMaxOutput = 10 << 20 // 10 MiB
)

// Runner executes the tracker binary.
type Runner struct {
	bin       string
	dir       string
	timeout   time.Duration
	maxOutput int64
}

// Option configures a Runner.
type Option func(*Runner)

// WithTimeout overrides the per-call timeout.
func WithTimeout(d time.Duration) Option {
	return func(r *Runner) {
		if d > 0 {
			r.timeout = d
		}
	}
}

// WithMaxOutput overrides the captured-output cap in bytes.
func WithMaxOutput(n int64) Option {
	return func(r *Runner) {
		if n > 0 {
			r.maxOutput = n
		}
	}
}

// NewRunner creates a runner for the given tracker binary. When dir is
// non-empty the tool runs with that working directory.
func NewRunner(bin, dir string, opts ...Option) *Runner {
	r := &Runner{
		bin:       bin,
		dir:       dir,
		timeout:   DefaultTimeout,
		maxOutput: DefaultMaxOutput,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Result holds the captured output of one tool invocation.
type Result struct {
	Stdout string
	Stderr string
}

// Exec runs the tracker binary with the given arguments and returns its
// captured output. Failures are classified into the package sentinel errors
// or a *CLIError.
func (r *Runner) Exec(ctx context.Context, args ...string) (Result, error) {
	if r.dir != "" {
		info, err := os.Stat(r.dir)
		if err != nil || !info.IsDir() {
			return Result{}, ErrInvalidWorkdir
		}
	}

	execCtx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	cmd := exec.CommandContext(execCtx, r.bin, args...)
	if r.dir != "" {
		cmd.Dir = r.dir
	}

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &capWriter{w: &stdout, remaining: r.maxOutput}
	cmd.Stderr = &capWriter{w: &stderr, remaining: r.maxOutput}

	err := cmd.Run()
	res := Result{
		Stdout: stdout.String(),
		Stderr: strings.TrimSpace(stderr.String()),
	}
	if err == nil {
		return res, nil
	}

	return res, r.classify(args, res.Stderr, execCtx, err)
}

// classify maps a raw exec failure onto the package error taxonomy.
func (r *Runner) classify(args []string, stderr string, execCtx context.Context, err error) error {
	if errors.Is(execCtx.Err(), context.DeadlineExceeded) {
		return ErrTimeout
	}
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		if stderrIndicatesNotFound(stderr) {
			return ErrNotFound
		}
		return &CLIError{
			Args:     args,
			ExitCode: exitErr.ExitCode(),
			Stderr:   stderr,
		}
	}
	// The process never started: missing binary, permission problem, bad dir.
	if errors.Is(err, exec.ErrNotFound) || errors.Is(err, os.ErrNotExist) ||
		errors.Is(err, os.ErrPermission) {
		return ErrToolUnavailable
	}
	return &CLIError{Args: args, ExitCode: -1, Stderr: err.Error()}
}

// capWriter writes through to w until remaining bytes are consumed, then
// silently discards. Keeps a runaway tool from exhausting memory.
type capWriter struct {
	w         io.Writer
	remaining int64
}

func (c *capWriter) Write(p []byte) (int, error) {
	n := len(p)
	if c.remaining <= 0 {
		return n, nil
	}
	if int64(n) > c.remaining {
		if _, err := c.w.Write(p[:c.remaining]); err != nil {
			return 0, err
		}
		c.remaining = 0
		return n, nil
	}
	c.remaining -= int64(n)
	return c.w.Write(p)
}
