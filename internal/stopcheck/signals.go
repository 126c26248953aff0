// SPDX-FileCopyrightText: 2024 SAP SE or an SAP affiliate company and IronCore contributors
// SPDX-License-Identifier: Apache-2.0

package stopcheck

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/ironcore-dev/bmcstress/internal/readiness"
	"github.com/ironcore-dev/bmcstress/internal/shell"
	"github.com/ironcore-dev/bmcstress/internal/state"
)

const (
	SignalCommand          = "command"
	SignalRestReachability = "rest-reachability"
	SignalLogScan          = "log-scan"
	SignalHardwareFlag     = "hardware-verify-flag"

	// CommandFail stops only after a failed boot test iteration.
	CommandFail = "FAIL"
	// CommandAll always stops.
	CommandAll = "ALL"

	// StopExitCode is the exit status of a checker that requests a stop.
	StopExitCode = 2
)

var errNoStore = errors.New("state_store must be set to verify the hardware flag")

// CommandSignal fires per the configured stop command.
type CommandSignal struct {
	Command     string
	BootSuccess bool
	Runner      *shell.Runner
}

func (s *CommandSignal) Name() string {
	return SignalCommand
}

func (s *CommandSignal) Check(ctx context.Context) (Verdict, error) {
	switch s.Command {
	case "":
		return Verdict{}, nil
	case CommandAll:
		return Verdict{Stop: true, Reason: "stop command is ALL"}, nil
	case CommandFail:
		if s.BootSuccess {
			return Verdict{Reason: "last boot test passed"}, nil
		}
		return Verdict{Stop: true, Reason: "last boot test failed"}, nil
	}

	result, err := s.Runner.Shell(ctx, s.Command)
	if err != nil {
		return Verdict{}, fmt.Errorf("stop command %q: %w", s.Command, err)
	}
	if result.ExitCode != 0 {
		return Verdict{Stop: true, Reason: fmt.Sprintf("stop command %q exited with %d", s.Command, result.ExitCode)}, nil
	}
	return Verdict{}, nil
}

// OnceChecker performs a single readiness check, see readiness.Prober.
type OnceChecker interface {
	CheckOnce(ctx context.Context) (readiness.Status, error)
}

// RestSignal fires when the BMC does not answer on its management API.
type RestSignal struct {
	Checker OnceChecker
}

func (s *RestSignal) Name() string {
	return SignalRestReachability
}

func (s *RestSignal) Check(ctx context.Context) (Verdict, error) {
	if _, err := s.Checker.CheckOnce(ctx); err != nil {
		return Verdict{Stop: true, Reason: fmt.Sprintf("bmc is not responding: %v", err)}, nil
	}
	return Verdict{}, nil
}

// LogScanSignal runs a checker program on a log file. The checker requests a
// stop by exiting with StopExitCode.
type LogScanSignal struct {
	File    string
	Program string
	// Args are passed before File.
	Args   []string
	Runner *shell.Runner
}

func (s *LogScanSignal) Name() string {
	return SignalLogScan
}

func (s *LogScanSignal) Check(ctx context.Context) (Verdict, error) {
	args := append(append([]string{}, s.Args...), s.File)
	result, err := s.Runner.Run(ctx, s.Program, args...)
	if err != nil {
		return Verdict{}, fmt.Errorf("log scan checker: %w", err)
	}
	switch result.ExitCode {
	case 0:
		return Verdict{}, nil
	case StopExitCode:
		reason := fmt.Sprintf("log scan of %s found errors", s.File)
		if out := strings.TrimSpace(result.Stdout); out != "" {
			reason += ": " + firstLine(out)
		}
		return Verdict{Stop: true, Reason: reason}, nil
	default:
		return Verdict{}, fmt.Errorf("log scan checker exited with %d: %s", result.ExitCode, strings.TrimSpace(result.Stderr))
	}
}

// HardwareFlagSignal fires when an earlier diagnostic recorded a hardware error.
type HardwareFlagSignal struct {
	Store state.Store
}

func (s *HardwareFlagSignal) Name() string {
	return SignalHardwareFlag
}

func (s *HardwareFlagSignal) Check(ctx context.Context) (Verdict, error) {
	if s.Store == nil {
		return Verdict{}, errNoStore
	}
	value, ok, err := s.Store.Get(ctx, state.KeyHardwareErrorFound)
	if err != nil {
		return Verdict{}, fmt.Errorf("failed to read %s: %w", state.KeyHardwareErrorFound, err)
	}
	if ok && state.IsTrue(value) {
		return Verdict{Stop: true, Reason: "hardware error found"}, nil
	}
	return Verdict{}, nil
}

func firstLine(s string) string {
	line, _, _ := strings.Cut(s, "\n")
	return line
}
