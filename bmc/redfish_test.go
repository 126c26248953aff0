// SPDX-FileCopyrightText: 2024 SAP SE or an SAP affiliate company and IronCore contributors
// SPDX-License-Identifier: Apache-2.0

package bmc_test

import (
	"encoding/json"
	"time"

	"github.com/stmcginnis/gofish/schemas"

	"github.com/ironcore-dev/bmcstress/bmc"
	"github.com/ironcore-dev/bmcstress/bmc/mock/server"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("RedfishBMC", func() {
	connect := func(ctx SpecContext, basicAuth bool) *bmc.RedfishBMC {
		client, err := bmc.NewRedfishBMCClient(ctx, bmc.Options{
			Endpoint:       httpServer.URL,
			Username:       username,
			Password:       password,
			BasicAuth:      basicAuth,
			RequestTimeout: 5 * time.Second,
		})
		Expect(err).NotTo(HaveOccurred())
		DeferCleanup(client.Logout)
		return client
	}

	It("Should report the firmware version of the manager", func(ctx SpecContext) {
		client := connect(ctx, true)

		version, err := client.GetBMCVersion(ctx, "")
		Expect(err).NotTo(HaveOccurred())
		Expect(version).To(Equal("2.14.0"))
	})

	It("Should select the manager by UUID", func(ctx SpecContext) {
		client := connect(ctx, true)

		manager, err := client.GetManager(server.ManagerUUID)
		Expect(err).NotTo(HaveOccurred())
		Expect(manager.ID).To(Equal(server.ManagerID))

		_, err = client.GetManager("does-not-exist")
		Expect(err).To(HaveOccurred())
	})

	It("Should report the manager state", func(ctx SpecContext) {
		client := connect(ctx, true)

		state, err := client.GetManagerState(ctx, "")
		Expect(err).NotTo(HaveOccurred())
		Expect(state).To(Equal(bmc.ReadyState))

		mockServer.SetState(server.StateStarting)
		state, err = client.GetManagerState(ctx, "")
		Expect(err).NotTo(HaveOccurred())
		Expect(state).NotTo(Equal(bmc.ReadyState))
	})

	It("Should reset the manager", func(ctx SpecContext) {
		client := connect(ctx, true)

		Expect(client.ResetManager(ctx, "", schemas.GracefulRestartResetType)).To(Succeed())
		Expect(mockServer.Resets()).To(Equal([]string{"GracefulRestart"}))
	})

	It("Should refuse reset types the manager does not support", func(ctx SpecContext) {
		client := connect(ctx, true)

		Expect(client.ResetManager(ctx, "", schemas.PowerCycleResetType)).NotTo(Succeed())
		Expect(mockServer.Resets()).To(BeEmpty())
	})

	It("Should log in with a session", func(ctx SpecContext) {
		client := connect(ctx, false)

		version, err := client.GetBMCVersion(ctx, "")
		Expect(err).NotTo(HaveOccurred())
		Expect(version).To(Equal("2.14.0"))
	})

	It("Should fetch raw resources", func(ctx SpecContext) {
		client := connect(ctx, true)

		body, err := client.GetRaw(ctx, server.ManagerPath)
		Expect(err).NotTo(HaveOccurred())
		var doc map[string]any
		Expect(json.Unmarshal(body, &doc)).To(Succeed())
		Expect(doc).To(HaveKeyWithValue("FirmwareVersion", "2.14.0"))
	})

	It("Should fail to connect to an unavailable BMC", func(ctx SpecContext) {
		mockServer.SetUnavailable(time.Hour)

		_, err := bmc.NewRedfishBMCClient(ctx, bmc.Options{
			Endpoint:  httpServer.URL,
			Username:  username,
			Password:  password,
			BasicAuth: true,
		})
		Expect(err).To(HaveOccurred())
	})
})
