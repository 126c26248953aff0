// SPDX-FileCopyrightText: 2024 SAP SE or an SAP affiliate company and IronCore contributors
// SPDX-License-Identifier: Apache-2.0

package bmc

import (
	"context"

	"github.com/stmcginnis/gofish/schemas"
)

// ReadyState is the manager status state of a BMC that finished booting.
const ReadyState = schemas.State("Enabled")

// BMC defines an interface for interacting with a Baseboard Management Controller.
type BMC interface {
	// Logout closes the BMC client connection by logging out
	Logout()

	// GetManager returns the manager
	GetManager(UUID string) (*schemas.Manager, error)

	// GetManagerState returns the status state reported by the manager.
	GetManagerState(ctx context.Context, UUID string) (schemas.State, error)

	// ResetManager performs a reset on the Manager.
	ResetManager(ctx context.Context, UUID string, resetType schemas.ResetType) error

	// GetBMCVersion retrieves the firmware version of the BMC.
	GetBMCVersion(ctx context.Context, UUID string) (string, error)

	// GetRaw returns the unparsed body of the resource at the given URI.
	GetRaw(ctx context.Context, uri string) ([]byte, error)
}

// Connector opens a new BMC client session.
//
// Callers that outlive a BMC reboot open a fresh session per request, since
// sessions do not survive a manager reset.
type Connector func(ctx context.Context) (BMC, error)
