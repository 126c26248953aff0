// SPDX-FileCopyrightText: 2024 SAP SE or an SAP affiliate company and IronCore contributors
// SPDX-License-Identifier: Apache-2.0

package app

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	ctrl "sigs.k8s.io/controller-runtime"

	"github.com/ironcore-dev/bmcstress/internal/config"
	"github.com/ironcore-dev/bmcstress/internal/metrics"
	"github.com/ironcore-dev/bmcstress/internal/state"
	"github.com/ironcore-dev/bmcstress/internal/stopcheck"
)

func newStopCheckCommand(opts *options) *cobra.Command {
	var (
		bootSuccess bool
		stateStore  string
	)
	cmd := &cobra.Command{
		Use:   "stop-check",
		Short: "Exit 2 if the boot test must stop, 0 if it may continue",
		Long: `Evaluates the stop signals in order: stop command, REST reachability,
log scan and hardware verification flag. The first signal that fires stops
the evaluation and the command exits 2.`,
		Args: usageArgs(cobra.NoArgs),
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := opts.loadConfig()
			if err != nil {
				// a driver reads any other status as continue
				return &ExitError{Code: exitStopRequested, Err: err}
			}
			if cmd.Flags().Changed("state-store") {
				cfg.StateStore = stateStore
			}
			return runStopCheck(cmd, cfg, bootSuccess)
		},
	}
	cmd.Flags().BoolVar(&bootSuccess, "boot-success", true, "Whether the last boot test iteration passed.")
	cmd.Flags().StringVar(&stateStore, "state-store", "", "Saved-value store, a YAML file or sqlite://<path>.")
	return cmd
}

func runStopCheck(cmd *cobra.Command, cfg *config.Config, bootSuccess bool) error {
	ctx := cmd.Context()
	log := ctrl.LoggerFrom(ctx).WithName("stop-check")

	var (
		store    state.Store
		storeErr error
	)
	if cfg.StateStore != "" {
		s, err := state.Open(cfg.StateStore)
		if err != nil {
			storeErr = fmt.Errorf("failed to open state store: %w", err)
			log.Error(storeErr, "Stop decision will not be saved")
		} else {
			defer func() {
				if err := s.Close(); err != nil {
					log.Error(err, "Failed to close state store")
				}
			}()
			store = s
		}
	}

	self, err := os.Executable()
	if err != nil {
		log.V(1).Info("Cannot resolve own executable", "error", err.Error())
	}
	signals := stopcheck.Signals(log, cfg, stopcheck.BuildOptions{
		BootSuccess: bootSuccess,
		Store:       store,
		StoreErr:    storeErr,
		Self:        self,
	})

	recorder := metrics.NewRecorder()
	defer writeMetrics(cmd, recorder, cfg.Metrics.Textfile)

	decision, err := stopcheck.NewEvaluator(log, signals, store, recorder).Evaluate(ctx)
	if err != nil {
		log.Error(err, "Stop decision not saved")
	}
	if decision.Stop {
		_, _ = fmt.Fprintf(cmd.OutOrStdout(), "%s: %s\n", decision.Signal, decision.Reason)
		return &ExitError{Code: exitStopRequested}
	}
	return nil
}
