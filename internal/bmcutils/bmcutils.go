// SPDX-FileCopyrightText: 2024 SAP SE or an SAP affiliate company and IronCore contributors
// SPDX-License-Identifier: Apache-2.0

package bmcutils

import (
	"context"
	"fmt"
	"net"
	"strconv"

	"github.com/ironcore-dev/bmcstress/bmc"
	"github.com/ironcore-dev/bmcstress/internal/config"
	"github.com/ironcore-dev/bmcstress/internal/readiness"
	"github.com/ironcore-dev/bmcstress/internal/sshcmd"
)

func GetProtocolScheme(scheme string, insecure bool) string {
	if scheme != "" {
		return scheme
	}
	if insecure {
		return "http"
	}
	return "https"
}

// Endpoint returns the Redfish base URL for cfg.
func Endpoint(cfg config.BMCConfig) string {
	host := cfg.Host
	if cfg.Port != 0 {
		host = net.JoinHostPort(cfg.Host, strconv.Itoa(cfg.Port))
	} else if ip := net.ParseIP(cfg.Host); ip != nil && ip.To4() == nil {
		host = "[" + cfg.Host + "]"
	}
	return fmt.Sprintf("%s://%s", GetProtocolScheme(cfg.Scheme, cfg.Insecure), host)
}

// Options converts cfg into Redfish client options.
func Options(cfg config.BMCConfig) bmc.Options {
	return bmc.Options{
		Endpoint:       Endpoint(cfg),
		Username:       cfg.Username,
		Password:       cfg.Password,
		BasicAuth:      cfg.BasicAuth,
		Insecure:       cfg.Insecure,
		RequestTimeout: cfg.RequestTimeout,
	}
}

// NewConnector returns a Connector opening a fresh Redfish session per call.
func NewConnector(cfg config.BMCConfig) bmc.Connector {
	options := Options(cfg)
	return func(ctx context.Context) (bmc.BMC, error) {
		client, err := bmc.NewRedfishBMCClient(ctx, options)
		if err != nil {
			return nil, fmt.Errorf("failed to create Redfish client: %w", err)
		}
		return client, nil
	}
}

// ReadinessCheck reports ready when a new session can be opened and the
// manager identified by managerUUID reports bmc.ReadyState.
func ReadinessCheck(connect bmc.Connector, managerUUID string) readiness.Func {
	return func(ctx context.Context) (readiness.Status, error) {
		client, err := connect(ctx)
		if err != nil {
			return readiness.Status{}, err
		}
		defer client.Logout()

		state, err := client.GetManagerState(ctx, managerUUID)
		if err != nil {
			return readiness.Status{}, err
		}
		return readiness.Status{Ready: state == bmc.ReadyState, Detail: string(state)}, nil
	}
}

// SSHConfig returns the in-band channel settings for cfg.
func SSHConfig(cfg config.BMCConfig) sshcmd.Config {
	return sshcmd.Config{
		Host:                  cfg.Host,
		Port:                  cfg.SSH.Port,
		Username:              cfg.SSHUsername(),
		Password:              cfg.SSHPassword(),
		KnownHostsFile:        cfg.SSH.KnownHostsFile,
		SkipHostKeyValidation: cfg.SSH.SkipHostKeyValidation,
	}
}
