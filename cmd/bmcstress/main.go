// SPDX-FileCopyrightText: 2024 SAP SE or an SAP affiliate company and IronCore contributors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"os"

	"github.com/ironcore-dev/bmcstress/cmd/bmcstress/app"
	"sigs.k8s.io/controller-runtime/pkg/manager/signals"
)

func main() {
	err := app.NewCommand().ExecuteContext(signals.SetupSignalHandler())
	os.Exit(app.ReportError(os.Stderr, err))
}
