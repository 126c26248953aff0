// SPDX-FileCopyrightText: 2024 SAP SE or an SAP affiliate company and IronCore contributors
// SPDX-License-Identifier: Apache-2.0

// Package readiness polls a BMC until it reports that it is ready.
package readiness

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/go-logr/logr"
	"k8s.io/apimachinery/pkg/util/wait"
)

const (
	// DefaultTimeout is the readiness budget after a management-API or in-band reboot.
	DefaultTimeout = 5 * time.Minute
	// DefaultInterval is the pause between two readiness checks.
	DefaultInterval = 10 * time.Second
	// PowerCycleTimeout is the readiness budget after a PDU power cycle.
	PowerCycleTimeout = 10 * time.Minute
)

// Status is the outcome of a single readiness check.
type Status struct {
	Ready bool
	// Detail describes the observed state, e.g. the manager state or the connection error.
	Detail string
	// Attempts is the number of checks performed, set by the Prober.
	Attempts int
}

// Func performs one readiness check. An error is recorded as a not-ready
// observation and polling continues.
type Func func(ctx context.Context) (Status, error)

// Budget bounds how long the prober waits.
type Budget struct {
	Timeout  time.Duration
	Interval time.Duration
}

// Validate returns an error if the budget cannot be polled.
func (b Budget) Validate() error {
	if b.Interval <= 0 {
		return fmt.Errorf("readiness interval must be positive, got %s", b.Interval)
	}
	if b.Timeout < 0 {
		return fmt.Errorf("readiness timeout must not be negative, got %s", b.Timeout)
	}
	return nil
}

// Attempts returns max(1, ceil(Timeout/Interval)).
func (b Budget) Attempts() int {
	if b.Interval <= 0 || b.Timeout <= 0 {
		return 1
	}
	n := int(b.Timeout / b.Interval)
	if b.Timeout%b.Interval != 0 {
		n++
	}
	return max(1, n)
}

// NotReadyError is returned when the budget is exhausted before the BMC became ready.
type NotReadyError struct {
	Attempts   int
	Elapsed    time.Duration
	LastStatus string
}

func (e *NotReadyError) Error() string {
	return fmt.Sprintf("bmc not ready after %d attempt(s) in %s: %s", e.Attempts, e.Elapsed.Round(time.Millisecond), e.LastStatus)
}

// Prober repeatedly evaluates a readiness Func.
type Prober struct {
	log   logr.Logger
	check Func
}

func NewProber(log logr.Logger, check Func) *Prober {
	return &Prober{log: log, check: check}
}

// WaitUntilReady checks at least once and at most budget.Attempts() times,
// sleeping budget.Interval between checks.
func (p *Prober) WaitUntilReady(ctx context.Context, budget Budget) (Status, error) {
	if err := budget.Validate(); err != nil {
		return Status{}, err
	}

	var (
		last     Status
		attempts int
		start    = time.Now()
	)
	backoff := wait.Backoff{
		Duration: budget.Interval,
		Factor:   1.0,
		Steps:    budget.Attempts(),
	}
	err := wait.ExponentialBackoffWithContext(ctx, backoff, func(ctx context.Context) (bool, error) {
		attempts++
		status, err := p.check(ctx)
		if err != nil {
			status = Status{Detail: fmt.Sprintf("not ready: %v", err)}
		}
		status.Attempts = attempts
		last = status
		p.log.V(1).Info("Checked BMC readiness", "attempt", attempts, "ready", status.Ready, "detail", status.Detail)
		return status.Ready, nil
	})
	switch {
	case err == nil:
		p.log.Info("BMC is ready", "attempts", attempts, "elapsed", time.Since(start).Round(time.Millisecond))
		return last, nil
	case ctx.Err() != nil:
		return last, fmt.Errorf("waiting for bmc readiness interrupted after %d attempt(s): %w", attempts, ctx.Err())
	case wait.Interrupted(err) || errors.Is(err, wait.ErrWaitTimeout):
		return last, &NotReadyError{Attempts: attempts, Elapsed: time.Since(start), LastStatus: last.Detail}
	default:
		return last, fmt.Errorf("failed to wait for bmc readiness: %w", err)
	}
}

// CheckOnce performs exactly one readiness check with a zero budget.
func (p *Prober) CheckOnce(ctx context.Context) (Status, error) {
	return p.WaitUntilReady(ctx, Budget{Timeout: 0, Interval: time.Second})
}
