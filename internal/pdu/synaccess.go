// SPDX-FileCopyrightText: 2024 SAP SE or an SAP affiliate company and IronCore contributors
// SPDX-License-Identifier: Apache-2.0

package pdu

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"

	"github.com/go-logr/logr"

	"github.com/ironcore-dev/bmcstress/internal/config"
)

type synaccess struct {
	log    logr.Logger
	cfg    config.PDUConfig
	client *http.Client
	scheme string
}

func newSynaccess(log logr.Logger, cfg config.PDUConfig, options Options) *synaccess {
	client := options.HTTPClient
	if client == nil {
		client = &http.Client{Timeout: DefaultRequestTimeout}
	}
	scheme := options.Scheme
	if scheme == "" {
		scheme = "http"
	}
	return &synaccess{log: log, cfg: cfg, client: client, scheme: scheme}
}

// Cycle requests an outlet reboot through the cmd.cgi interface.
func (s *synaccess) Cycle(ctx context.Context) error {
	target := url.URL{
		Scheme:   s.scheme,
		Host:     s.cfg.IP,
		Path:     "/cmd.cgi",
		RawQuery: "rb=" + url.QueryEscape(s.cfg.Slot),
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target.String(), nil)
	if err != nil {
		return fmt.Errorf("failed to build pdu request: %w", err)
	}
	req.SetBasicAuth(s.cfg.Username, s.cfg.Password)

	s.log.Info("Power cycling PDU outlet", "pdu", s.cfg.IP, "slot", s.cfg.Slot)
	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("failed to reach pdu %s: %w", s.cfg.IP, err)
	}
	defer func(Body io.ReadCloser) {
		if err := Body.Close(); err != nil {
			s.log.Error(err, "failed to close response body")
		}
	}(resp.Body)

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("pdu %s refused outlet %s reboot: %s %s", s.cfg.IP, s.cfg.Slot, resp.Status, body)
	}
	return nil
}
