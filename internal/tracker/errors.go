package tracker

import (
	"errors"
	"fmt"
	"strings"
)

// Sentinel errors for classified tracker failures. Callers use errors.Is.
var (
	// ErrNotFound means the referenced issue or relation does not exist.
	ErrNotFound = errors.New("tracker: not found")
	// ErrTimeout means the tool did not finish within the per-call timeout.
	ErrTimeout = errors.New("tracker: timed out")
	// ErrToolUnavailable means the tracker executable is missing or not runnable.
	ErrToolUnavailable = errors.New("tracker: tool unavailable")
	// ErrInvalidWorkdir means the configured working directory does not exist
	// or is not a directory.
	ErrInvalidWorkdir = errors.New("tracker: invalid working directory")
	// ErrParse means the tool produced output that is not valid JSON.
	ErrParse = errors.New("tracker: unparseable output")
)

// CLIError is a tool invocation that failed for a reason outside the sentinel
// taxonomy. It carries the exit code and trailing stderr for diagnostics.
type CLIError struct {
	Args     []string
	ExitCode int
	Stderr   string
}

func (e *CLIError) Error() string {
	msg := fmt.Sprintf("tracker: %s exited %d", strings.Join(e.Args, " "), e.ExitCode)
	if e.Stderr != "" {
		msg += ": " + e.Stderr
	}
	return msg
}

// notFoundMarkers are stderr fragments that identify a missing resource
// across tracker versions.
var notFoundMarkers = []string{
	"not found",
	"no such issue",
	"does not exist",
	"unknown id",
}

// stderrIndicatesNotFound reports whether stderr text describes a missing
// resource rather than a tool failure.
func stderrIndicatesNotFound(stderr string) bool {
	lower := strings.ToLower(stderr)
	for _, m := range notFoundMarkers {
		if strings.Contains(lower, m) {
			return true
		}
	}
	return false
}
