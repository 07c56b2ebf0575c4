// SPDX-License-Identifier: AGPL-3.0-or-later

// Package execx executes configured shell commands and classifies their
// outcomes. It is the single process-execution capability: the quality-gate
// phase and the remediation phase both run commands through the Runner
// interface so tests can substitute deterministic fakes.
package execx

import (
	"context"
	"errors"
	"os/exec"
	"strings"
	"time"
	"unicode/utf8"
)

// Status classifies one command execution.
type Status string

const (
	StatusPassed      Status = "passed"
	StatusFailed      Status = "failed"
	StatusUnavailable Status = "unavailable"
	StatusSkipped     Status = "skipped"
)

// Excerpt bounds. Output beyond either limit is trimmed with a marker line.
const (
	maxExcerptLines = 60
	maxExcerptChars = 8000
)

// DefaultTimeout bounds one command invocation, sized for full test suites.
const DefaultTimeout = 10 * time.Minute

// Result is the structured outcome of one executed (or skipped) command.
type Result struct {
	Name            string  `json:"name"`
	Command         string  `json:"command,omitempty"`
	Status          Status  `json:"status"`
	ExitCode        *int    `json:"exit_code,omitempty"`
	DurationSeconds float64 `json:"duration_seconds"`
	OutputExcerpt   string  `json:"output_excerpt,omitempty"`
}

// Runner executes one configured shell command.
type Runner interface {
	Run(ctx context.Context, name, command string) Result
}

// ShellRunner runs commands through the shell in a fixed working directory.
type ShellRunner struct {
	Dir     string
	Timeout time.Duration
}

// NewShellRunner creates a runner rooted at dir with the default timeout.
func NewShellRunner(dir string) *ShellRunner {
	return &ShellRunner{Dir: dir, Timeout: DefaultTimeout}
}

// Run executes command and classifies the outcome. Exit code 127 or a
// "not found" signal in the output means the tool itself is missing
// (unavailable), which detectors treat differently from a reported failure.
func (r *ShellRunner) Run(ctx context.Context, name, command string) Result {
	timeout := r.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	cmd := exec.CommandContext(ctx, "sh", "-c", command)
	cmd.Dir = r.Dir

	start := time.Now()
	out, err := cmd.CombinedOutput()
	elapsed := time.Since(start).Seconds()

	res := Result{
		Name:            name,
		Command:         command,
		DurationSeconds: elapsed,
		OutputExcerpt:   TrimExcerpt(string(out)),
	}

	if err == nil {
		code := 0
		res.Status = StatusPassed
		res.ExitCode = &code
		return res
	}

	if ctx.Err() == context.DeadlineExceeded {
		res.Status = StatusFailed
		res.OutputExcerpt = TrimExcerpt(string(out) + "\n(timed out)")
		return res
	}

	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		code := exitErr.ExitCode()
		res.ExitCode = &code
		if code == 127 || notFound(string(out)) {
			res.Status = StatusUnavailable
		} else {
			res.Status = StatusFailed
		}
		return res
	}

	// Could not start at all.
	res.Status = StatusUnavailable
	res.OutputExcerpt = TrimExcerpt(err.Error())
	return res
}

func notFound(out string) bool {
	lower := strings.ToLower(out)
	return strings.Contains(lower, "command not found") ||
		strings.Contains(lower, "not found") ||
		strings.Contains(lower, "no such file or directory")
}

// TrimExcerpt bounds s to the excerpt limits, appending a "(trimmed)" marker
// line when anything was cut.
func TrimExcerpt(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return ""
	}
	trimmed := false
	if lines := strings.Split(s, "\n"); len(lines) > maxExcerptLines {
		s = strings.Join(lines[:maxExcerptLines], "\n")
		trimmed = true
	}
	if len(s) > maxExcerptChars {
		cut := maxExcerptChars
		for cut > 0 && !utf8.RuneStart(s[cut]) {
			cut--
		}
		s = s[:cut]
		trimmed = true
	}
	if trimmed {
		s += "\n(trimmed)"
	}
	return s
}
