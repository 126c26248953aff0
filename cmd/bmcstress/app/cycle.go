// SPDX-FileCopyrightText: 2024 SAP SE or an SAP affiliate company and IronCore contributors
// SPDX-License-Identifier: Apache-2.0

package app

import (
	"github.com/spf13/cobra"
	ctrl "sigs.k8s.io/controller-runtime"

	"github.com/ironcore-dev/bmcstress/internal/bmcutils"
	"github.com/ironcore-dev/bmcstress/internal/config"
	"github.com/ironcore-dev/bmcstress/internal/cycle"
	"github.com/ironcore-dev/bmcstress/internal/ffdc"
	"github.com/ironcore-dev/bmcstress/internal/liveness"
	"github.com/ironcore-dev/bmcstress/internal/metrics"
	"github.com/ironcore-dev/bmcstress/internal/reset"
)

func newCycleCommand(opts *options) *cobra.Command {
	var (
		action     string
		iterations int
		ffdcDir    string
	)
	cmd := &cobra.Command{
		Use:   "cycle",
		Short: "Reset the BMC repeatedly and verify that it recovers every time",
		Args:  usageArgs(cobra.NoArgs),
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := opts.loadConfig()
			if err != nil {
				return err
			}
			if cmd.Flags().Changed("action") {
				cfg.Cycle.Action = action
			}
			if cmd.Flags().Changed("iterations") {
				cfg.Cycle.Iterations = &iterations
			}
			if cmd.Flags().Changed("ffdc-dir") {
				cfg.FFDC.Dir = ffdcDir
			}
			if err := cfg.Validate(); err != nil {
				return err
			}
			return runCycle(cmd, cfg)
		},
	}
	cmd.Flags().StringVar(&action, "action", config.ActionRedfish, "Reset action: pdu, redfish or inband.")
	cmd.Flags().IntVarP(&iterations, "iterations", "n", config.DefaultIterations, "Number of reset cycles.")
	cmd.Flags().StringVar(&ffdcDir, "ffdc-dir", config.DefaultFFDCDir, "Directory for failure data.")
	return cmd
}

func runCycle(cmd *cobra.Command, cfg *config.Config) error {
	log := ctrl.LoggerFrom(cmd.Context()).WithName("cycle")

	action, err := reset.Build(log, cfg)
	if err != nil {
		return err
	}

	recorder := metrics.NewRecorder()
	defer writeMetrics(cmd, recorder, cfg.Metrics.Textfile)

	collector := ffdc.NewCollector(log.WithName("ffdc"), bmcutils.NewConnector(cfg.BMC), ffdc.Options{
		Dir:            cfg.FFDC.Dir,
		URIs:           cfg.FFDC.URIs,
		Command:        cfg.FFDC.Command,
		CommandTimeout: cfg.FFDC.Timeout,
	})
	runner := cycle.NewRunner(log, cycle.Options{
		Capturer:       collector,
		Pinger:         liveness.NewPinger(),
		Host:           cfg.BMC.Host,
		Metrics:        recorder,
		CaptureTimeout: cfg.FFDC.Timeout,
	})

	log.Info("Starting reset cycles", "action", action.Name(), "iterations", cfg.IterationCount(),
		"runID", collector.RunID(), "testMode", cfg.TestMode)
	_, err = runner.RunCycles(cmd.Context(), cfg.IterationCount(), action)
	return err
}
