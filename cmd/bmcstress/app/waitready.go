// SPDX-FileCopyrightText: 2024 SAP SE or an SAP affiliate company and IronCore contributors
// SPDX-License-Identifier: Apache-2.0

package app

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"
	ctrl "sigs.k8s.io/controller-runtime"

	"github.com/ironcore-dev/bmcstress/internal/bmcutils"
	"github.com/ironcore-dev/bmcstress/internal/liveness"
	"github.com/ironcore-dev/bmcstress/internal/readiness"
	"github.com/ironcore-dev/bmcstress/internal/reset"
)

func newWaitReadyCommand(opts *options) *cobra.Command {
	var (
		timeout  time.Duration
		interval time.Duration
	)
	cmd := &cobra.Command{
		Use:   "wait-ready",
		Short: "Wait until the BMC reports that it is ready",
		Args:  usageArgs(cobra.NoArgs),
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := opts.loadConfig()
			if err != nil {
				return err
			}
			if err := cfg.BMC.Validate(); err != nil {
				return err
			}
			budget := readiness.Budget{Timeout: cfg.Readiness.ReadyTimeout(), Interval: cfg.Readiness.Interval}
			if cmd.Flags().Changed("timeout") {
				budget.Timeout = timeout
			}
			if cmd.Flags().Changed("interval") {
				budget.Interval = interval
			}
			if err := budget.Validate(); err != nil {
				return usageError(err)
			}

			ctx := cmd.Context()
			log := ctrl.LoggerFrom(ctx).WithName("wait-ready")
			check := bmcutils.ReadinessCheck(bmcutils.NewConnector(cfg.BMC), cfg.BMC.ManagerUUID)
			status, err := readiness.NewProber(log, check).WaitUntilReady(ctx, budget)
			if err != nil {
				if perr := liveness.NewPinger().Ping(ctx, cfg.BMC.Host); perr != nil {
					log.Error(perr, "BMC does not answer ping")
				}
				return &ExitError{Code: exitTestFailure, Err: err}
			}
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "BMC ready after %d attempt(s)\n", status.Attempts)
			return nil
		},
	}
	cmd.Flags().DurationVar(&timeout, "timeout", readiness.DefaultTimeout, "How long to wait for the BMC.")
	cmd.Flags().DurationVar(&interval, "interval", readiness.DefaultInterval, "Pause between two checks.")
	return cmd
}

func newVersionCommand(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "bmc-version",
		Short: "Print the firmware version of the BMC",
		Args:  usageArgs(cobra.NoArgs),
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := opts.loadConfig()
			if err != nil {
				return err
			}
			if err := cfg.BMC.Validate(); err != nil {
				return err
			}
			version, err := reset.NewVersionOracle(bmcutils.NewConnector(cfg.BMC), cfg.BMC.ManagerUUID).ReadVersion(cmd.Context())
			if err != nil {
				return err
			}
			_, _ = fmt.Fprintln(cmd.OutOrStdout(), version)
			return nil
		},
	}
}
