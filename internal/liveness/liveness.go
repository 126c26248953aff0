// SPDX-FileCopyrightText: 2024 SAP SE or an SAP affiliate company and IronCore contributors
// SPDX-License-Identifier: Apache-2.0

// Package liveness checks whether a host answers ICMP echo requests.
package liveness

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/ironcore-dev/bmcstress/internal/shell"
)

const DefaultTimeout = 5 * time.Second

// Pinger sends a single ping through the system ping binary.
type Pinger struct {
	Command string
	Timeout time.Duration
}

func NewPinger() *Pinger {
	return &Pinger{Command: "ping", Timeout: DefaultTimeout}
}

// Ping returns nil if host answered.
func (p *Pinger) Ping(ctx context.Context, host string) error {
	timeout := p.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	seconds := max(1, int(timeout.Round(time.Second)/time.Second))
	runner := shell.NewRunner(timeout+time.Second, nil)

	result, err := runner.Run(ctx, p.Command, "-c", "1", "-W", strconv.Itoa(seconds), host)
	if err != nil {
		return fmt.Errorf("failed to ping %s: %w", host, err)
	}
	if result.ExitCode != 0 {
		return fmt.Errorf("%s is not answering ping: %s", host, strings.TrimSpace(result.Stdout+result.Stderr))
	}
	return nil
}
