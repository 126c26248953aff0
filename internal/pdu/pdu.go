// SPDX-FileCopyrightText: 2024 SAP SE or an SAP affiliate company and IronCore contributors
// SPDX-License-Identifier: Apache-2.0

// Package pdu power-cycles a single PDU outlet.
package pdu

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/go-logr/logr"

	"github.com/ironcore-dev/bmcstress/internal/config"
	"github.com/ironcore-dev/bmcstress/internal/sshcmd"
)

const (
	TypeSynaccess = "synaccess"
	TypeAPC       = "apc"

	DefaultRequestTimeout = 30 * time.Second
)

// Controller cycles the outlet feeding the BMC.
type Controller interface {
	// Cycle turns the outlet off and on again.
	Cycle(ctx context.Context) error
}

// Options tune the PDU drivers.
type Options struct {
	HTTPClient *http.Client
	// Scheme of the synaccess web interface, "http" unless set.
	Scheme string
	// SSH overrides the connection settings of SSH driven PDUs, except credentials.
	SSH sshcmd.Config
}

// New validates cfg and returns the driver for cfg.Type. No network call is made.
func New(log logr.Logger, cfg config.PDUConfig, options Options) (Controller, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	switch cfg.Type {
	case TypeSynaccess:
		return newSynaccess(log, cfg, options), nil
	case TypeAPC:
		return newAPC(log, cfg, options)
	default:
		return nil, &config.ValidationError{Problems: []string{
			fmt.Sprintf("pdu.type must be %s or %s, got %q", TypeSynaccess, TypeAPC, cfg.Type),
		}}
	}
}
