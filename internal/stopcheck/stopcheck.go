// SPDX-FileCopyrightText: 2024 SAP SE or an SAP affiliate company and IronCore contributors
// SPDX-License-Identifier: Apache-2.0

// Package stopcheck decides whether a boot-test driver should stop iterating.
package stopcheck

import (
	"context"
	"fmt"

	"github.com/go-logr/logr"

	"github.com/ironcore-dev/bmcstress/internal/metrics"
	"github.com/ironcore-dev/bmcstress/internal/state"
)

// Verdict is the outcome of a single signal.
type Verdict struct {
	Stop   bool
	Reason string
}

// Signal is one stop condition. A Check error is a failed external check and
// fires the signal.
type Signal interface {
	Name() string
	Check(ctx context.Context) (Verdict, error)
}

// Decision is the outcome of an evaluation.
type Decision struct {
	Stop bool
	// Signal and Reason are empty if no signal fired.
	Signal string
	Reason string
	// Evaluated lists the signals that were checked, in order.
	Evaluated []string
}

// Evaluator checks its signals in order and stops at the first one that fires.
type Evaluator struct {
	log     logr.Logger
	signals []Signal
	store   state.Store
	metrics *metrics.Recorder
}

// NewEvaluator returns an evaluator. store and recorder may be nil.
func NewEvaluator(log logr.Logger, signals []Signal, store state.Store, recorder *metrics.Recorder) *Evaluator {
	return &Evaluator{log: log, signals: signals, store: store, metrics: recorder}
}

// Evaluate returns the decision. The error is only set when a stop decision
// could not be saved; the decision is valid regardless.
func (e *Evaluator) Evaluate(ctx context.Context) (Decision, error) {
	var decision Decision
	for _, signal := range e.signals {
		decision.Evaluated = append(decision.Evaluated, signal.Name())

		verdict, err := signal.Check(ctx)
		if err != nil {
			e.log.Error(err, "Stop signal check failed", "signal", signal.Name())
			verdict = Verdict{Stop: true, Reason: err.Error()}
		}
		e.log.V(1).Info("Evaluated stop signal", "signal", signal.Name(), "stop", verdict.Stop, "reason", verdict.Reason)
		if !verdict.Stop {
			continue
		}

		decision.Stop = true
		decision.Signal = signal.Name()
		decision.Reason = verdict.Reason
		break
	}
	e.metrics.ObserveStopDecision(decision.Signal, decision.Stop)

	if !decision.Stop {
		e.log.Info("No stop condition met", "evaluated", decision.Evaluated)
		return decision, nil
	}
	e.log.Info("Stop condition met", "signal", decision.Signal, "reason", decision.Reason)
	if e.store == nil {
		return decision, nil
	}
	if err := e.store.Set(ctx, state.KeyStopCheck, decision.Signal+": "+decision.Reason); err != nil {
		return decision, fmt.Errorf("failed to save stop check result: %w", err)
	}
	return decision, nil
}
