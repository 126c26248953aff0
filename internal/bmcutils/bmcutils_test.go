// SPDX-FileCopyrightText: 2024 SAP SE or an SAP affiliate company and IronCore contributors
// SPDX-License-Identifier: Apache-2.0

package bmcutils_test

import (
	"net/http/httptest"
	"net/url"
	"strconv"
	"time"

	"github.com/ironcore-dev/bmcstress/bmc/mock/server"
	"github.com/ironcore-dev/bmcstress/internal/bmcutils"
	"github.com/ironcore-dev/bmcstress/internal/config"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("Endpoint", func() {
	DescribeTable("builds the Redfish URL",
		func(cfg config.BMCConfig, expected string) {
			Expect(bmcutils.Endpoint(cfg)).To(Equal(expected))
		},
		Entry("default scheme", config.BMCConfig{Host: "10.0.0.1"}, "https://10.0.0.1"),
		Entry("explicit port", config.BMCConfig{Host: "10.0.0.1", Port: 8443, Scheme: "https"}, "https://10.0.0.1:8443"),
		Entry("insecure", config.BMCConfig{Host: "bmc.lab", Insecure: true}, "http://bmc.lab"),
		Entry("ipv6", config.BMCConfig{Host: "fd00::1", Scheme: "https"}, "https://[fd00::1]"),
	)
})

var _ = Describe("ReadinessCheck", func() {
	var (
		mockServer *server.MockServer
		cfg        config.BMCConfig
	)

	BeforeEach(func() {
		mockServer = server.NewMockServer(GinkgoLogr, "", server.Options{Username: "root", Password: "0penBmc"})
		httpServer := httptest.NewServer(mockServer.Handler())
		DeferCleanup(httpServer.Close)

		u, err := url.Parse(httpServer.URL)
		Expect(err).NotTo(HaveOccurred())
		port, err := strconv.Atoi(u.Port())
		Expect(err).NotTo(HaveOccurred())
		cfg = config.BMCConfig{
			Host:           u.Hostname(),
			Port:           port,
			Scheme:         "http",
			Username:       "root",
			Password:       "0penBmc",
			BasicAuth:      true,
			RequestTimeout: time.Second,
		}
	})

	It("Should report ready for an enabled manager", func(ctx SpecContext) {
		status, err := bmcutils.ReadinessCheck(bmcutils.NewConnector(cfg), "")(ctx)
		Expect(err).NotTo(HaveOccurred())
		Expect(status.Ready).To(BeTrue())
		Expect(status.Detail).To(Equal("Enabled"))
	})

	It("Should report not ready while the manager is starting", func(ctx SpecContext) {
		mockServer.SetState(server.StateStarting)
		status, err := bmcutils.ReadinessCheck(bmcutils.NewConnector(cfg), "")(ctx)
		Expect(err).NotTo(HaveOccurred())
		Expect(status.Ready).To(BeFalse())
		Expect(status.Detail).To(Equal("Starting"))
	})

	It("Should return an error while the BMC is unreachable", func(ctx SpecContext) {
		mockServer.SetUnavailable(time.Hour)
		_, err := bmcutils.ReadinessCheck(bmcutils.NewConnector(cfg), "")(ctx)
		Expect(err).To(HaveOccurred())
	})
})
