// SPDX-FileCopyrightText: 2024 SAP SE or an SAP affiliate company and IronCore contributors
// SPDX-License-Identifier: Apache-2.0

package reset

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/go-logr/logr"

	"github.com/ironcore-dev/bmcstress/internal/readiness"
	"github.com/ironcore-dev/bmcstress/internal/sshcmd"
)

var _ Action = (*InBandReboot)(nil)

// RemoteRunner runs a command on the BMC operating system, see sshcmd.Client.
type RemoteRunner interface {
	Run(ctx context.Context, command string) (sshcmd.Result, error)
}

// InBandReboot issues a reboot command on the BMC itself and verifies that the
// firmware version survived.
type InBandReboot struct {
	log      logr.Logger
	runner   RemoteRunner
	command  string
	oracle   *VersionOracle
	ready    ReadinessWaiter
	budget   readiness.Budget
	grace    time.Duration
	testMode bool
}

type InBandRebootOptions struct {
	Command  string
	Budget   readiness.Budget
	Grace    time.Duration
	TestMode bool
}

func NewInBandReboot(log logr.Logger, runner RemoteRunner, oracle *VersionOracle, ready ReadinessWaiter, options InBandRebootOptions) *InBandReboot {
	if options.Command == "" {
		options.Command = "reboot"
	}
	return &InBandReboot{
		log:      log,
		runner:   runner,
		command:  options.Command,
		oracle:   oracle,
		ready:    ready,
		budget:   options.Budget,
		grace:    options.Grace,
		testMode: options.TestMode,
	}
}

func (i *InBandReboot) Name() string {
	return "inband"
}

func (i *InBandReboot) Perform(ctx context.Context) (Result, error) {
	start := time.Now()
	var result Result

	before, err := i.oracle.ReadVersion(ctx)
	if err != nil {
		return result, err
	}
	result.VersionBefore = before

	if i.testMode {
		i.log.Info("Test mode, skipping in-band reboot", "command", i.command)
	} else if err := i.reboot(ctx); err != nil {
		result.Duration = time.Since(start)
		return result, err
	}

	result.ReadyAttempts, err = settle(ctx, i.ready, i.grace, i.budget)
	if err != nil {
		result.Duration = time.Since(start)
		return result, fmt.Errorf("bmc did not recover from in-band reboot: %w", err)
	}

	after, err := i.oracle.ReadVersion(ctx)
	result.VersionAfter = after
	result.Duration = time.Since(start)
	if err != nil {
		return result, err
	}
	return result, CompareVersions(before, after)
}

func (i *InBandReboot) reboot(ctx context.Context) error {
	i.log.Info("Rebooting BMC in-band", "command", i.command)
	res, err := i.runner.Run(ctx, i.command)
	if err != nil {
		return fmt.Errorf("failed to issue in-band reboot: %w", err)
	}
	// a rebooting host may drop the connection before it reports an exit status
	if !res.Disconnected && res.ExitCode != 0 {
		return fmt.Errorf("in-band reboot command %q exited with %d: %s",
			i.command, res.ExitCode, strings.TrimSpace(res.Stderr))
	}
	return nil
}
