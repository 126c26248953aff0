// SPDX-FileCopyrightText: 2024 SAP SE or an SAP affiliate company and IronCore contributors
// SPDX-License-Identifier: Apache-2.0

package reset

import (
	"context"
	"fmt"
	"time"

	"github.com/go-logr/logr"
	"github.com/stmcginnis/gofish/schemas"

	"github.com/ironcore-dev/bmcstress/bmc"
	"github.com/ironcore-dev/bmcstress/internal/readiness"
)

var _ Action = (*ManagerReset)(nil)

// ManagerReset reboots the BMC through the Redfish Manager.Reset action and
// verifies that the firmware version survived.
type ManagerReset struct {
	log         logr.Logger
	connect     bmc.Connector
	managerUUID string
	resetType   schemas.ResetType
	oracle      *VersionOracle
	ready       ReadinessWaiter
	budget      readiness.Budget
	grace       time.Duration
	testMode    bool
}

type ManagerResetOptions struct {
	ManagerUUID string
	ResetType   schemas.ResetType
	Budget      readiness.Budget
	Grace       time.Duration
	TestMode    bool
}

func NewManagerReset(log logr.Logger, connect bmc.Connector, ready ReadinessWaiter, options ManagerResetOptions) *ManagerReset {
	if options.ResetType == "" {
		options.ResetType = schemas.GracefulRestartResetType
	}
	return &ManagerReset{
		log:         log,
		connect:     connect,
		managerUUID: options.ManagerUUID,
		resetType:   options.ResetType,
		oracle:      NewVersionOracle(connect, options.ManagerUUID),
		ready:       ready,
		budget:      options.Budget,
		grace:       options.Grace,
		testMode:    options.TestMode,
	}
}

func (m *ManagerReset) Name() string {
	return "redfish"
}

func (m *ManagerReset) Perform(ctx context.Context) (Result, error) {
	start := time.Now()
	var result Result

	before, err := m.oracle.ReadVersion(ctx)
	if err != nil {
		return result, err
	}
	result.VersionBefore = before

	if m.testMode {
		m.log.Info("Test mode, skipping manager reset", "resetType", m.resetType)
	} else if err := m.reset(ctx); err != nil {
		result.Duration = time.Since(start)
		return result, err
	}

	result.ReadyAttempts, err = settle(ctx, m.ready, m.grace, m.budget)
	if err != nil {
		result.Duration = time.Since(start)
		return result, fmt.Errorf("bmc did not recover from manager reset: %w", err)
	}

	after, err := m.oracle.ReadVersion(ctx)
	result.VersionAfter = after
	result.Duration = time.Since(start)
	if err != nil {
		return result, err
	}
	return result, CompareVersions(before, after)
}

func (m *ManagerReset) reset(ctx context.Context) error {
	client, err := m.connect(ctx)
	if err != nil {
		return fmt.Errorf("failed to connect for manager reset: %w", err)
	}
	m.log.Info("Resetting BMC manager", "resetType", m.resetType)
	if err := client.ResetManager(ctx, m.managerUUID, m.resetType); err != nil {
		client.Logout()
		return err
	}
	// the session does not survive the reset, so there is nothing to log out of
	return nil
}
