// SPDX-FileCopyrightText: 2024 SAP SE or an SAP affiliate company and IronCore contributors
// SPDX-License-Identifier: Apache-2.0

package pdu

import (
	"context"
	"fmt"
	"strings"

	"github.com/go-logr/logr"

	"github.com/ironcore-dev/bmcstress/internal/config"
	"github.com/ironcore-dev/bmcstress/internal/sshcmd"
)

type apc struct {
	log logr.Logger
	cfg config.PDUConfig
	ssh *sshcmd.Client
}

func newAPC(log logr.Logger, cfg config.PDUConfig, options Options) (*apc, error) {
	sshConfig := options.SSH
	if sshConfig.Host == "" {
		sshConfig.Host = cfg.IP
	}
	sshConfig.Username = cfg.Username
	sshConfig.Password = cfg.Password
	client, err := sshcmd.NewClient(log, sshConfig)
	if err != nil {
		return nil, err
	}
	return &apc{log: log, cfg: cfg, ssh: client}, nil
}

// Cycle runs olReboot on the PDU command line.
func (a *apc) Cycle(ctx context.Context) error {
	a.log.Info("Power cycling PDU outlet", "pdu", a.cfg.IP, "slot", a.cfg.Slot)
	result, err := a.ssh.Run(ctx, "olReboot "+a.cfg.Slot)
	if err != nil {
		return fmt.Errorf("failed to reboot outlet %s on pdu %s: %w", a.cfg.Slot, a.cfg.IP, err)
	}
	// the APC shell exits 0 on errors too; success is reported as "E000: Success"
	if result.ExitCode != 0 || !strings.Contains(result.Stdout, "Success") {
		return fmt.Errorf("pdu %s failed to reboot outlet %s: exit %d: %s",
			a.cfg.IP, a.cfg.Slot, result.ExitCode, strings.TrimSpace(result.Stdout+result.Stderr))
	}
	return nil
}
