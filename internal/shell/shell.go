// SPDX-FileCopyrightText: 2024 SAP SE or an SAP affiliate company and IronCore contributors
// SPDX-License-Identifier: Apache-2.0

// Package shell runs local commands and reports their exit status.
package shell

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"maps"
	"os"
	"os/exec"
	"slices"
	"time"
)

// waitDelay bounds how long Run waits for output after the command was killed.
const waitDelay = time.Second

// Result captures the outcome of a command.
type Result struct {
	ExitCode int
	Stdout   string
	Stderr   string
	Duration time.Duration
}

// Runner executes commands enforcing a timeout and environment injection.
type Runner struct {
	timeout time.Duration
	env     map[string]string
}

// NewRunner returns a Runner. A zero timeout disables the limit.
func NewRunner(timeout time.Duration, env map[string]string) *Runner {
	return &Runner{timeout: timeout, env: maps.Clone(env)}
}

// Shell runs cmdline through "sh -c".
func (r *Runner) Shell(ctx context.Context, cmdline string) (Result, error) {
	return r.Run(ctx, "sh", "-c", cmdline)
}

// Run executes name with args. A non-zero exit status is not an error; it is
// reported in Result.ExitCode. Errors mean the command could not be run to
// completion (not found, timed out, cancelled).
func (r *Runner) Run(ctx context.Context, name string, args ...string) (Result, error) {
	execCtx := ctx
	var cancel context.CancelFunc
	if r.timeout > 0 {
		execCtx, cancel = context.WithTimeout(ctx, r.timeout)
		defer cancel()
	}

	cmd := exec.CommandContext(execCtx, name, args...)
	cmd.Env = append(os.Environ(), formatEnv(r.env)...)
	killProcessGroup(cmd)
	cmd.WaitDelay = waitDelay

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	start := time.Now()
	err := cmd.Run()
	result := Result{
		Stdout:   stdout.String(),
		Stderr:   stderr.String(),
		Duration: time.Since(start),
	}

	if execCtx.Err() != nil {
		if errors.Is(execCtx.Err(), context.DeadlineExceeded) && ctx.Err() == nil {
			return result, fmt.Errorf("command %q timed out after %s", name, r.timeout)
		}
		return result, execCtx.Err()
	}

	if err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			result.ExitCode = exitErr.ExitCode()
			return result, nil
		}
		return result, fmt.Errorf("command %q failed to run: %w", name, err)
	}
	return result, nil
}

func formatEnv(values map[string]string) []string {
	formatted := make([]string, 0, len(values))
	for _, k := range slices.Sorted(maps.Keys(values)) {
		formatted = append(formatted, fmt.Sprintf("%s=%s", k, values[k]))
	}
	return formatted
}
