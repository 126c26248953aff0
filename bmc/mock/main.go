// SPDX-FileCopyrightText: 2025 SAP SE or an SAP affiliate company and IronCore contributors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"
	"time"

	"sigs.k8s.io/controller-runtime/pkg/log/zap"

	"github.com/ironcore-dev/bmcstress/bmc/mock/server"
	ctrl "sigs.k8s.io/controller-runtime"
)

func main() {
	var (
		addr             string
		options          server.Options
		rebootDuration   time.Duration
		startingDuration time.Duration
	)
	flag.StringVar(&addr, "address", ":8000", "Address the mock Redfish server listens on.")
	flag.StringVar(&options.Username, "username", "", "Username required by the mock server. Empty disables authentication.")
	flag.StringVar(&options.Password, "password", "", "Password required by the mock server.")
	flag.StringVar(&options.FirmwareVersion, "firmware-version", server.DefaultFirmware, "Firmware version reported by the manager.")
	flag.DurationVar(&rebootDuration, "reboot-duration", 5*time.Second, "How long the BMC is unreachable after a reset.")
	flag.DurationVar(&startingDuration, "starting-duration", 2*time.Second, "How long the BMC reports state Starting after a reset.")

	opts := zap.Options{
		Development: true,
	}
	opts.BindFlags(flag.CommandLine)
	flag.Parse()

	options.RebootDuration = rebootDuration
	options.StartingDuration = startingDuration

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	ctrl.SetLogger(zap.New(zap.UseFlagOptions(&opts)))
	log := ctrl.Log.WithName("RedfishMockServer")

	srv := server.NewMockServer(log, addr, options)

	if err := srv.Start(ctx); err != nil {
		log.Error(err, "Failed to start mock server")
		return
	}

	log.Info("Mock server stopped")
}
