// SPDX-FileCopyrightText: 2024 SAP SE or an SAP affiliate company and IronCore contributors
// SPDX-License-Identifier: Apache-2.0

package app

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/ironcore-dev/bmcstress/internal/eselscan"
)

func newScanLogCommand() *cobra.Command {
	var pattern string
	cmd := &cobra.Command{
		Use:   "scan-log FILE",
		Short: "Exit 2 if the log contains eSEL entries",
		Args:  usageArgs(cobra.ExactArgs(1)),
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := os.Open(args[0])
			if err != nil {
				return &ExitError{Code: exitFailure, Err: err}
			}
			defer func() { _ = f.Close() }()

			report, err := eselscan.Scan(f, pattern)
			if err != nil {
				return &ExitError{Code: exitFailure, Err: err}
			}
			if !report.Found() {
				return nil
			}
			for _, sample := range report.Samples {
				_, _ = fmt.Fprintln(cmd.OutOrStdout(), sample)
			}
			return &ExitError{Code: exitStopRequested}
		},
	}
	cmd.Flags().StringVar(&pattern, "pattern", eselscan.DefaultPattern, "Regular expression marking an error line.")
	return cmd
}
