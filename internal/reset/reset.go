// SPDX-FileCopyrightText: 2024 SAP SE or an SAP affiliate company and IronCore contributors
// SPDX-License-Identifier: Apache-2.0

// Package reset implements the disruptive BMC reset actions exercised by the
// cycle loop: a PDU power cycle, a Redfish manager reset and an in-band reboot
// of the BMC operating system.
package reset

import (
	"context"
	"fmt"
	"time"

	"github.com/ironcore-dev/bmcstress/internal/readiness"
)

// Action is a single disruptive reset followed by verification. Perform
// submits exactly one disruption per call and keeps no state between calls.
// Any error, including context cancellation, fails the whole cycle.
type Action interface {
	Name() string
	Perform(ctx context.Context) (Result, error)
}

// Result describes one performed action.
type Result struct {
	// VersionBefore and VersionAfter are empty for actions that do not verify the firmware version.
	VersionBefore string
	VersionAfter  string
	ReadyAttempts int
	Duration      time.Duration
}

// ReadinessWaiter waits until the BMC is ready, see readiness.Prober.
type ReadinessWaiter interface {
	WaitUntilReady(ctx context.Context, budget readiness.Budget) (readiness.Status, error)
}

// VersionMismatchError is returned when the firmware version changed across a reboot.
type VersionMismatchError struct {
	Before string
	After  string
}

func (e *VersionMismatchError) Error() string {
	return fmt.Sprintf("bmc firmware version changed across reboot: before %q, after %q", e.Before, e.After)
}

// CompareVersions requires exact equality. No normalisation is applied.
func CompareVersions(before, after string) error {
	if before != after {
		return &VersionMismatchError{Before: before, After: after}
	}
	return nil
}

func pause(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// settle waits out the shutdown grace period and then for readiness.
func settle(ctx context.Context, ready ReadinessWaiter, grace time.Duration, budget readiness.Budget) (int, error) {
	if err := pause(ctx, grace); err != nil {
		return 0, fmt.Errorf("interrupted while waiting for the bmc to go down: %w", err)
	}
	status, err := ready.WaitUntilReady(ctx, budget)
	if err != nil {
		return status.Attempts, err
	}
	return status.Attempts, nil
}
