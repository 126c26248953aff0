// SPDX-FileCopyrightText: 2024 SAP SE or an SAP affiliate company and IronCore contributors
// SPDX-License-Identifier: Apache-2.0

// Package cycle runs a reset action repeatedly and stops at the first failure.
package cycle

import (
	"context"
	"fmt"
	"time"

	"github.com/go-logr/logr"

	"github.com/ironcore-dev/bmcstress/internal/ffdc"
	"github.com/ironcore-dev/bmcstress/internal/metrics"
	"github.com/ironcore-dev/bmcstress/internal/reset"
)

const (
	DefaultCaptureTimeout = 2 * time.Minute

	VerdictPass = "pass"
	VerdictFail = "fail"
)

// Record describes one iteration. It is only logged.
type Record struct {
	Iteration     int
	VersionBefore string
	VersionAfter  string
	Verdict       string
	Duration      time.Duration
}

// LoopResult summarises a run.
type LoopResult struct {
	Requested int
	Completed int
	Duration  time.Duration
}

// FailureError is returned for the first failed iteration.
type FailureError struct {
	Iteration int
	Action    string
	Err       error
	// FFDCDir is empty if no failure data was captured.
	FFDCDir string
}

func (e *FailureError) Error() string {
	return fmt.Sprintf("%s cycle %d failed: %v", e.Action, e.Iteration, e.Err)
}

func (e *FailureError) Unwrap() error {
	return e.Err
}

// Capturer stores diagnostics after a failure, see ffdc.Collector.
type Capturer interface {
	Capture(ctx context.Context, event ffdc.Event) (string, error)
}

// Pinger checks host liveness, see liveness.Pinger.
type Pinger interface {
	Ping(ctx context.Context, host string) error
}

// Options configure the failure handling of a Runner. All fields are optional.
type Options struct {
	Capturer Capturer
	Pinger   Pinger
	// Host is pinged after a failure.
	Host    string
	Metrics *metrics.Recorder
	// CaptureTimeout bounds ping and capture. They run on a context detached
	// from the run's cancellation so an interrupted run still leaves data behind.
	CaptureTimeout time.Duration
}

type Runner struct {
	log     logr.Logger
	options Options
}

func NewRunner(log logr.Logger, options Options) *Runner {
	if options.CaptureTimeout <= 0 {
		options.CaptureTimeout = DefaultCaptureTimeout
	}
	return &Runner{log: log, options: options}
}

// RunCycles performs action n times in sequence. It returns a *FailureError
// after the first failed iteration without performing further iterations.
func (r *Runner) RunCycles(ctx context.Context, n int, action reset.Action) (LoopResult, error) {
	if n < 0 {
		return LoopResult{}, fmt.Errorf("number of cycles must not be negative, got %d", n)
	}
	start := time.Now()
	result := LoopResult{Requested: n}
	log := r.log.WithValues("action", action.Name())

	for i := 1; i <= n; i++ {
		iterationStart := time.Now()
		res, err := action.Perform(ctx)
		duration := time.Since(iterationStart)

		record := Record{
			Iteration:     i,
			VersionBefore: res.VersionBefore,
			VersionAfter:  res.VersionAfter,
			Verdict:       VerdictPass,
			Duration:      duration,
		}
		if err != nil {
			record.Verdict = VerdictFail
		}
		r.logRecord(log, n, record, err)
		r.options.Metrics.ObserveCycle(action.Name(), err, duration)
		r.options.Metrics.ObserveReadiness(action.Name(), res.ReadyAttempts)

		if err != nil {
			result.Duration = time.Since(start)
			return result, r.fail(ctx, log, action.Name(), i, iterationStart, err)
		}
		result.Completed = i
	}

	result.Duration = time.Since(start)
	log.Info("All cycles passed", "cycles", n, "duration", result.Duration.Round(time.Second))
	return result, nil
}

func (r *Runner) logRecord(log logr.Logger, n int, record Record, err error) {
	keysAndValues := []any{
		"iteration", record.Iteration,
		"of", n,
		"verdict", record.Verdict,
		"duration", record.Duration.Round(time.Millisecond),
	}
	if record.VersionBefore != "" || record.VersionAfter != "" {
		keysAndValues = append(keysAndValues, "versionBefore", record.VersionBefore, "versionAfter", record.VersionAfter)
	}
	if err != nil {
		log.Error(err, "Cycle failed", keysAndValues...)
		return
	}
	log.Info("Cycle passed", keysAndValues...)
}

func (r *Runner) fail(ctx context.Context, log logr.Logger, action string, iteration int, startedAt time.Time, cause error) error {
	failure := &FailureError{Iteration: iteration, Action: action, Err: cause}

	diagCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), r.options.CaptureTimeout)
	defer cancel()

	if r.options.Pinger != nil && r.options.Host != "" {
		if err := r.options.Pinger.Ping(diagCtx, r.options.Host); err != nil {
			log.Error(err, "BMC does not answer ping", "host", r.options.Host)
		} else {
			log.Info("BMC answers ping", "host", r.options.Host)
		}
	}

	if r.options.Capturer != nil {
		dir, err := r.options.Capturer.Capture(diagCtx, ffdc.Event{
			Iteration: iteration,
			Action:    action,
			Err:       cause,
			StartedAt: startedAt,
			FailedAt:  time.Now(),
		})
		if err != nil {
			log.Error(err, "Failure data capture incomplete", "dir", dir)
		}
		failure.FFDCDir = dir
	}
	return failure
}
