// SPDX-FileCopyrightText: 2024 SAP SE or an SAP affiliate company and IronCore contributors
// SPDX-License-Identifier: Apache-2.0

package reset

import (
	"context"
	"fmt"
	"time"

	"github.com/go-logr/logr"

	"github.com/ironcore-dev/bmcstress/internal/pdu"
	"github.com/ironcore-dev/bmcstress/internal/readiness"
)

var _ Action = (*PowerCycle)(nil)

// PowerCycle cuts the BMC power through the PDU and waits for it to come back.
type PowerCycle struct {
	log      logr.Logger
	pdu      pdu.Controller
	ready    ReadinessWaiter
	budget   readiness.Budget
	grace    time.Duration
	testMode bool
}

func NewPowerCycle(log logr.Logger, controller pdu.Controller, ready ReadinessWaiter, budget readiness.Budget, grace time.Duration, testMode bool) *PowerCycle {
	return &PowerCycle{log: log, pdu: controller, ready: ready, budget: budget, grace: grace, testMode: testMode}
}

func (p *PowerCycle) Name() string {
	return "pdu"
}

func (p *PowerCycle) Perform(ctx context.Context) (Result, error) {
	start := time.Now()
	if p.testMode {
		p.log.Info("Test mode, skipping PDU power cycle")
	} else if err := p.pdu.Cycle(ctx); err != nil {
		return Result{Duration: time.Since(start)}, fmt.Errorf("failed to power cycle bmc: %w", err)
	}

	attempts, err := settle(ctx, p.ready, p.grace, p.budget)
	result := Result{ReadyAttempts: attempts, Duration: time.Since(start)}
	if err != nil {
		return result, fmt.Errorf("bmc did not recover from power cycle: %w", err)
	}
	return result, nil
}
