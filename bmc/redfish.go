// SPDX-FileCopyrightText: 2024 SAP SE or an SAP affiliate company and IronCore contributors
// SPDX-License-Identifier: Apache-2.0

package bmc

import (
	"context"
	"crypto/tls"
	"fmt"
	"io"
	"net/http"
	"slices"
	"time"

	"github.com/stmcginnis/gofish"
	"github.com/stmcginnis/gofish/schemas"

	ctrl "sigs.k8s.io/controller-runtime"
)

var _ BMC = (*RedfishBMC)(nil)

const (
	// DefaultRequestTimeout bounds a single Redfish request.
	DefaultRequestTimeout = 30 * time.Second
)

// Options contain the options for the BMC redfish client.
type Options struct {
	Endpoint  string
	Username  string
	Password  string
	BasicAuth bool
	Insecure  bool

	RequestTimeout time.Duration
}

// RedfishBMC is an implementation of the BMC interface for Redfish.
type RedfishBMC struct {
	client  *gofish.APIClient
	options Options
}

// NewRedfishBMCClient creates a new RedfishBMC with the given connection details.
func NewRedfishBMCClient(ctx context.Context, options Options) (*RedfishBMC, error) {
	if options.RequestTimeout == 0 {
		options.RequestTimeout = DefaultRequestTimeout
	}
	clientConfig := gofish.ClientConfig{
		Endpoint:   options.Endpoint,
		Username:   options.Username,
		Password:   options.Password,
		Insecure:   options.Insecure,
		BasicAuth:  options.BasicAuth,
		HTTPClient: newHTTPClient(options),
	}
	client, err := gofish.ConnectContext(ctx, clientConfig)
	if err != nil {
		return nil, err
	}
	return &RedfishBMC{client: client, options: options}, nil
}

func newHTTPClient(options Options) *http.Client {
	transport := http.DefaultTransport.(*http.Transport).Clone()
	if options.Insecure {
		// BMCs ship self-signed certificates
		transport.TLSClientConfig = &tls.Config{InsecureSkipVerify: true} // #nosec G402
	}
	return &http.Client{Transport: transport, Timeout: options.RequestTimeout}
}

// Logout closes the BMC client connection by logging out
func (r *RedfishBMC) Logout() {
	if r.client != nil {
		r.client.Logout()
	}
}

func (r *RedfishBMC) GetManager(bmcUUID string) (*schemas.Manager, error) {
	if r.client == nil {
		return nil, fmt.Errorf("no client found")
	}
	managers, err := r.client.Service.Managers()
	if err != nil {
		return nil, fmt.Errorf("failed to get managers: %w", err)
	}
	if len(managers) == 0 {
		return nil, fmt.Errorf("zero managers found")
	}

	if len(bmcUUID) == 0 {
		// take the first one available
		return managers[0], nil
	}

	for _, m := range managers {
		if bmcUUID == m.UUID {
			return m, nil
		}
	}
	return nil, fmt.Errorf("matching managers not found for UUID %v", bmcUUID)
}

func (r *RedfishBMC) GetManagerState(ctx context.Context, bmcUUID string) (schemas.State, error) {
	manager, err := r.GetManager(bmcUUID)
	if err != nil {
		return "", err
	}
	return manager.Status.State, nil
}

func (r *RedfishBMC) ResetManager(ctx context.Context, bmcUUID string, resetType schemas.ResetType) error {
	manager, err := r.GetManager(bmcUUID)
	if err != nil {
		return fmt.Errorf("failed to get managers: %w", err)
	}
	if len(manager.SupportedResetTypes) > 0 && !slices.Contains(manager.SupportedResetTypes, resetType) {
		return fmt.Errorf("reset type of %v is not supported for manager %v", resetType, manager.UUID)
	}

	if _, err = manager.Reset(resetType); err != nil {
		return fmt.Errorf("failed to reset managers %v with error: %w", manager.UUID, err)
	}
	return nil
}

func (r *RedfishBMC) GetBMCVersion(ctx context.Context, bmcUUID string) (string, error) {
	manager, err := r.GetManager(bmcUUID)
	if err != nil {
		return "", err
	}
	return manager.FirmwareVersion, nil
}

func (r *RedfishBMC) GetRaw(ctx context.Context, uri string) ([]byte, error) {
	log := ctrl.LoggerFrom(ctx)

	resp, err := r.client.Get(uri)
	if err != nil {
		return nil, err
	}
	defer func(Body io.ReadCloser) {
		if err = Body.Close(); err != nil {
			log.Error(err, "failed to close response body")
		}
	}(resp.Body)

	return io.ReadAll(resp.Body)
}
