// SPDX-FileCopyrightText: 2024 SAP SE or an SAP affiliate company and IronCore contributors
// SPDX-License-Identifier: Apache-2.0

package reset

import (
	"fmt"

	"github.com/go-logr/logr"
	"github.com/stmcginnis/gofish/schemas"

	"github.com/ironcore-dev/bmcstress/internal/bmcutils"
	"github.com/ironcore-dev/bmcstress/internal/config"
	"github.com/ironcore-dev/bmcstress/internal/pdu"
	"github.com/ironcore-dev/bmcstress/internal/readiness"
	"github.com/ironcore-dev/bmcstress/internal/sshcmd"
)

// Build returns the action selected by cfg.Cycle.Action. Every required
// setting is validated before anything touches the network.
func Build(log logr.Logger, cfg *config.Config) (Action, error) {
	if err := cfg.BMC.Validate(); err != nil {
		return nil, err
	}
	connect := bmcutils.NewConnector(cfg.BMC)
	prober := readiness.NewProber(log.WithName("readiness"), bmcutils.ReadinessCheck(connect, cfg.BMC.ManagerUUID))
	budget := readiness.Budget{Timeout: cfg.Readiness.ReadyTimeout(), Interval: cfg.Readiness.Interval}
	grace := cfg.Readiness.Grace()

	switch cfg.Cycle.Action {
	case config.ActionPowerCycle:
		controller, err := pdu.New(log.WithName("pdu"), cfg.PDU, pdu.Options{})
		if err != nil {
			return nil, err
		}
		longBudget := readiness.Budget{Timeout: cfg.Readiness.PowerCycleReadyTimeout(), Interval: cfg.Readiness.PowerCycleInterval}
		return NewPowerCycle(log.WithName("pdu-cycle"), controller, prober, longBudget, grace, cfg.TestMode), nil

	case config.ActionRedfish:
		return NewManagerReset(log.WithName("manager-reset"), connect, prober, ManagerResetOptions{
			ManagerUUID: cfg.BMC.ManagerUUID,
			ResetType:   schemas.ResetType(cfg.BMC.ResetType),
			Budget:      budget,
			Grace:       grace,
			TestMode:    cfg.TestMode,
		}), nil

	case config.ActionInBand:
		runner, err := sshcmd.NewClient(log.WithName("ssh"), bmcutils.SSHConfig(cfg.BMC))
		if err != nil {
			return nil, err
		}
		return NewInBandReboot(log.WithName("inband-reboot"), runner, NewVersionOracle(connect, cfg.BMC.ManagerUUID), prober, InBandRebootOptions{
			Command:  cfg.BMC.SSH.RebootCommand,
			Budget:   budget,
			Grace:    grace,
			TestMode: cfg.TestMode,
		}), nil

	default:
		return nil, &config.ValidationError{Problems: []string{fmt.Sprintf("unknown reset action %q", cfg.Cycle.Action)}}
	}
}
