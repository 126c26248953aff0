// SPDX-FileCopyrightText: 2024 SAP SE or an SAP affiliate company and IronCore contributors
// SPDX-License-Identifier: Apache-2.0

package app

import (
	"os"

	"github.com/spf13/cobra"
	ctrl "sigs.k8s.io/controller-runtime"

	"github.com/ironcore-dev/bmcstress/cmdutils"
	"github.com/ironcore-dev/bmcstress/internal/config"
	"github.com/ironcore-dev/bmcstress/internal/metrics"
)

const Name string = "bmcstress"

type options struct {
	configPath      string
	bmcHost         string
	testMode        bool
	metricsTextfile string
	log             cmdutils.LogOptions
	lookupEnv       config.LookupFunc
}

func NewCommand() *cobra.Command {
	return newRootCommand(os.LookupEnv)
}

func newRootCommand(lookupEnv config.LookupFunc) *cobra.Command {
	opts := &options{lookupEnv: lookupEnv}
	root := &cobra.Command{
		Use:           Name,
		Short:         "Stress a BMC with repeated resets and decide when a boot test must stop",
		Args:          usageArgs(cobra.NoArgs),
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			logger, err := opts.log.Logger(cmd.ErrOrStderr())
			if err != nil {
				return usageError(err)
			}
			ctrl.SetLogger(logger)
			cmd.SetContext(ctrl.LoggerInto(cmd.Context(), logger))
			return nil
		},
	}
	root.SetFlagErrorFunc(func(_ *cobra.Command, err error) error {
		return usageError(err)
	})

	flags := root.PersistentFlags()
	flags.StringVar(&opts.configPath, "config", "", "Path to the YAML configuration file.")
	flags.StringVar(&opts.bmcHost, "bmc-host", "", "BMC host, overrides bmc.host of the configuration.")
	flags.BoolVar(&opts.testMode, "test-mode", false, "Log disruptive actions instead of performing them.")
	flags.StringVar(&opts.metricsTextfile, "metrics-textfile", "", "Write Prometheus metrics to this file on exit.")
	opts.log.AddFlags(flags)

	root.AddCommand(
		newCycleCommand(opts),
		newStopCheckCommand(opts),
		newScanLogCommand(),
		newWaitReadyCommand(opts),
		newVersionCommand(opts),
	)
	return root
}

// loadConfig reads the configuration and applies the environment and global flags.
func (o *options) loadConfig() (*config.Config, error) {
	cfg, err := config.Load(o.configPath)
	if err != nil {
		return nil, &ExitError{Code: exitConfig, Err: err}
	}
	cfg.ApplyEnv(o.lookupEnv)
	if o.bmcHost != "" {
		cfg.BMC.Host = o.bmcHost
	}
	if o.testMode {
		cfg.TestMode = true
	}
	if o.metricsTextfile != "" {
		cfg.Metrics.Textfile = o.metricsTextfile
	}
	return cfg, nil
}

func writeMetrics(cmd *cobra.Command, recorder *metrics.Recorder, path string) {
	if err := recorder.WriteTextfile(path); err != nil {
		ctrl.LoggerFrom(cmd.Context()).Error(err, "Failed to write metrics", "path", path)
	}
}
