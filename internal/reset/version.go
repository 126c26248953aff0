// SPDX-FileCopyrightText: 2024 SAP SE or an SAP affiliate company and IronCore contributors
// SPDX-License-Identifier: Apache-2.0

package reset

import (
	"context"
	"fmt"

	"github.com/ironcore-dev/bmcstress/bmc"
)

// VersionOracle reads the BMC firmware version. It has no side effects.
type VersionOracle struct {
	connect     bmc.Connector
	managerUUID string
}

func NewVersionOracle(connect bmc.Connector, managerUUID string) *VersionOracle {
	return &VersionOracle{connect: connect, managerUUID: managerUUID}
}

func (o *VersionOracle) ReadVersion(ctx context.Context) (string, error) {
	client, err := o.connect(ctx)
	if err != nil {
		return "", fmt.Errorf("failed to read bmc version: %w", err)
	}
	defer client.Logout()

	version, err := client.GetBMCVersion(ctx, o.managerUUID)
	if err != nil {
		return "", fmt.Errorf("failed to read bmc version: %w", err)
	}
	return version, nil
}
