// SPDX-FileCopyrightText: 2024 SAP SE or an SAP affiliate company and IronCore contributors
// SPDX-License-Identifier: Apache-2.0

package app

import (
	"errors"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/ironcore-dev/bmcstress/internal/config"
	"github.com/ironcore-dev/bmcstress/internal/cycle"
)

const (
	exitOK      = 0
	exitFailure = 1
	// exitStopRequested tells a boot-test driver to stop iterating.
	exitStopRequested = 2
	// exitTestFailure reports a failed cycle. It shares the value of
	// exitStopRequested so drivers treat both as a halt.
	exitTestFailure = 2
	exitUsage       = 64
	exitConfig      = 65
)

// ExitError carries the exit status of a command. A nil Err exits silently.
type ExitError struct {
	Code int
	Err  error
}

func (e *ExitError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("exit status %d", e.Code)
	}
	return e.Err.Error()
}

func (e *ExitError) Unwrap() error {
	return e.Err
}

func usageError(err error) error {
	return &ExitError{Code: exitUsage, Err: err}
}

// ExitCode maps err to the process exit status.
func ExitCode(err error) int {
	if err == nil {
		return exitOK
	}
	var exitErr *ExitError
	if errors.As(err, &exitErr) {
		return exitErr.Code
	}
	var failure *cycle.FailureError
	switch {
	case errors.As(err, &failure):
		return exitTestFailure
	case errors.Is(err, &config.ValidationError{}):
		return exitConfig
	default:
		return exitFailure
	}
}

// ReportError prints err to w unless it is a silent exit and returns the exit status.
func ReportError(w io.Writer, err error) int {
	var exitErr *ExitError
	if err != nil && (!errors.As(err, &exitErr) || exitErr.Err != nil) {
		_, _ = fmt.Fprintln(w, "Error:", err)
	}
	return ExitCode(err)
}

// usageArgs marks argument validation errors as usage errors.
func usageArgs(args cobra.PositionalArgs) cobra.PositionalArgs {
	return func(cmd *cobra.Command, a []string) error {
		if err := args(cmd, a); err != nil {
			return usageError(err)
		}
		return nil
	}
}
