// SPDX-FileCopyrightText: 2024 SAP SE or an SAP affiliate company and IronCore contributors
// SPDX-License-Identifier: Apache-2.0

package stopcheck

import (
	"context"

	"github.com/go-logr/logr"

	"github.com/ironcore-dev/bmcstress/internal/bmcutils"
	"github.com/ironcore-dev/bmcstress/internal/config"
	"github.com/ironcore-dev/bmcstress/internal/readiness"
	"github.com/ironcore-dev/bmcstress/internal/shell"
	"github.com/ironcore-dev/bmcstress/internal/state"
)

// BuildOptions carry the inputs that do not come from the configuration file.
type BuildOptions struct {
	BootSuccess bool
	Store       state.Store
	// StoreErr is why Store could not be opened, if it is nil.
	StoreErr error
	// Self is the path of this binary, used as the default log-scan checker.
	Self string
}

// Signals returns the enabled signals of cfg in evaluation order: command,
// REST reachability, log scan, hardware flag. A signal whose settings are
// unusable is kept at its position and fires with the setup error, so an
// earlier signal still decides first.
func Signals(log logr.Logger, cfg *config.Config, options BuildOptions) []Signal {
	sc := cfg.StopCheck
	runner := shell.NewRunner(sc.CommandTimeout, nil)
	var signals []Signal

	if sc.Command != "" {
		signals = append(signals, &CommandSignal{Command: sc.Command, BootSuccess: options.BootSuccess, Runner: runner})
	}
	if sc.RestFail {
		if err := cfg.BMC.Validate(); err != nil {
			signals = append(signals, &unusableSignal{name: SignalRestReachability, err: err})
		} else {
			prober := readiness.NewProber(log.WithName("readiness"),
				bmcutils.ReadinessCheck(bmcutils.NewConnector(cfg.BMC), cfg.BMC.ManagerUUID))
			signals = append(signals, &RestSignal{Checker: prober})
		}
	}
	if sc.LogScanFile != "" {
		signal := &LogScanSignal{File: sc.LogScanFile, Program: sc.LogScanChecker, Runner: runner}
		switch {
		case signal.Program != "":
			signals = append(signals, signal)
		case options.Self == "":
			signals = append(signals, &unusableSignal{name: SignalLogScan,
				err: &config.ValidationError{Problems: []string{"stop_check.log_scan_checker must be set"}}})
		default:
			signal.Program = options.Self
			signal.Args = []string{"scan-log"}
			signals = append(signals, signal)
		}
	}
	if sc.VerifyHardwareFail {
		if options.Store == nil && options.StoreErr != nil {
			signals = append(signals, &unusableSignal{name: SignalHardwareFlag, err: options.StoreErr})
		} else {
			signals = append(signals, &HardwareFlagSignal{Store: options.Store})
		}
	}
	return signals
}

// unusableSignal stands in for a signal that could not be set up.
type unusableSignal struct {
	name string
	err  error
}

func (s *unusableSignal) Name() string {
	return s.name
}

func (s *unusableSignal) Check(context.Context) (Verdict, error) {
	return Verdict{}, s.err
}
