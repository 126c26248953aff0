// SPDX-FileCopyrightText: 2024 SAP SE or an SAP affiliate company and IronCore contributors
// SPDX-License-Identifier: Apache-2.0

package app

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"time"

	"github.com/ironcore-dev/bmcstress/bmc/mock/server"
	"github.com/ironcore-dev/bmcstress/internal/config"
	"github.com/ironcore-dev/bmcstress/internal/cycle"
	"github.com/ironcore-dev/bmcstress/internal/state"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

const fastReadiness = `readiness:
  timeout: 5s
  interval: 50ms
  shutdown_grace: 1ms
`

var _ = Describe("ExitCode", func() {
	DescribeTable("Should map errors to exit statuses",
		func(err error, code int) {
			Expect(ExitCode(err)).To(Equal(code))
		},
		Entry("success", nil, exitOK),
		Entry("stop requested", &ExitError{Code: exitStopRequested}, 2),
		Entry("failed cycle", &cycle.FailureError{Iteration: 3, Err: errors.New("boom")}, 2),
		Entry("configuration", &config.ValidationError{Problems: []string{"pdu.ip must be set"}}, exitConfig),
		Entry("usage", usageError(errors.New("unknown flag")), exitUsage),
		Entry("other", errors.New("boom"), exitFailure),
	)

	It("Should not print silent exits", func() {
		var buf bytes.Buffer
		Expect(ReportError(&buf, &ExitError{Code: exitStopRequested})).To(Equal(2))
		Expect(buf.String()).To(BeEmpty())

		Expect(ReportError(&buf, errors.New("boom"))).To(Equal(exitFailure))
		Expect(buf.String()).To(ContainSubstring("boom"))
	})
})

var _ = Describe("bmcstress", func() {
	It("Should reject unknown flags as usage errors", func(ctx SpecContext) {
		_, code := execute(ctx, "cycle", "--no-such-flag")
		Expect(code).To(Equal(exitUsage))
	})

	It("Should reject an unknown log level as a usage error", func(ctx SpecContext) {
		_, code := execute(ctx, "--loglevel", "loud", "scan-log", "/dev/null")
		Expect(code).To(Equal(exitUsage))
	})

	It("Should reject a malformed configuration file", func(ctx SpecContext) {
		path := writeFile("config.yaml", "bmc:\n  hostname: typo\n")
		_, code := execute(ctx, "--config", path, "cycle")
		Expect(code).To(Equal(exitConfig))
	})
})

var _ = Describe("cycle", func() {
	var (
		mockServer *server.MockServer
		configPath string
		ffdcDir    string
	)

	BeforeEach(func() {
		var bmcConfig string
		mockServer, bmcConfig = startMockBMC(server.Options{
			FirmwareVersion: "2.14.0",
			RebootDuration:  100 * time.Millisecond,
		})
		ffdcDir = GinkgoT().TempDir()
		configPath = writeFile("config.yaml", bmcConfig+fastReadiness+"ffdc:\n  dir: "+ffdcDir+"\n  timeout: 5s\n")
	})

	It("Should reset the BMC the requested number of times", func(ctx SpecContext) {
		textfile := filepath.Join(GinkgoT().TempDir(), "bmcstress.prom")

		_, code := execute(ctx, "--config", configPath, "--metrics-textfile", textfile, "cycle", "--iterations", "2")
		Expect(code).To(Equal(exitOK))
		Expect(mockServer.Resets()).To(HaveLen(2))

		data, err := os.ReadFile(textfile)
		Expect(err).NotTo(HaveOccurred())
		Expect(string(data)).To(ContainSubstring(`bmcstress_cycles_total{action="redfish",result="success"} 2`))
	})

	It("Should stop at the first version mismatch and capture failure data", func(ctx SpecContext) {
		mockServer.SetFirmwareAfterReset("2.15.0")

		_, code := execute(ctx, "--config", configPath, "cycle", "-n", "3")
		Expect(code).To(Equal(exitTestFailure))
		Expect(mockServer.Resets()).To(HaveLen(1))

		entries, err := os.ReadDir(ffdcDir)
		Expect(err).NotTo(HaveOccurred())
		Expect(entries).To(HaveLen(1))
		Expect(entries[0].Name()).To(HaveSuffix("-1"))
		Expect(filepath.Join(ffdcDir, entries[0].Name(), "summary.yaml")).To(BeAnExistingFile())
	})

	It("Should not reset in test mode", func(ctx SpecContext) {
		_, code := execute(ctx, "--config", configPath, "--test-mode", "cycle", "-n", "2")
		Expect(code).To(Equal(exitOK))
		Expect(mockServer.Resets()).To(BeEmpty())
	})

	It("Should succeed without cycles", func(ctx SpecContext) {
		_, code := execute(ctx, "--config", configPath, "cycle", "-n", "0")
		Expect(code).To(Equal(exitOK))
		Expect(mockServer.Resets()).To(BeEmpty())
	})

	It("Should reject an incomplete PDU configuration", func(ctx SpecContext) {
		_, code := execute(ctx, "--config", configPath, "cycle", "--action", "pdu")
		Expect(code).To(Equal(exitConfig))
	})
})

var _ = Describe("stop-check", func() {
	It("Should continue when no signal is enabled", func(ctx SpecContext) {
		_, code := execute(ctx, "stop-check")
		Expect(code).To(Equal(exitOK))
	})

	It("Should stop for ALL and save the decision", func(ctx SpecContext) {
		storePath := filepath.Join(GinkgoT().TempDir(), "state.yaml")
		textfile := filepath.Join(GinkgoT().TempDir(), "bmcstress.prom")
		configPath := writeFile("config.yaml", "stop_check:\n  command: ALL\n")

		out, code := execute(ctx, "--config", configPath, "--metrics-textfile", textfile, "stop-check", "--state-store", storePath)
		Expect(code).To(Equal(exitStopRequested))
		Expect(out).To(ContainSubstring("command: stop command is ALL"))

		store, err := state.Open(storePath)
		Expect(err).NotTo(HaveOccurred())
		value, ok, err := store.Get(ctx, state.KeyStopCheck)
		Expect(err).NotTo(HaveOccurred())
		Expect(ok).To(BeTrue())
		Expect(value).To(HavePrefix("command:"))

		data, err := os.ReadFile(textfile)
		Expect(err).NotTo(HaveOccurred())
		Expect(string(data)).To(ContainSubstring(`bmcstress_stop_check_decisions_total{result="stop",signal="command"} 1`))
	})

	It("Should honour the last boot test result for FAIL", func(ctx SpecContext) {
		configPath := writeFile("config.yaml", "stop_check:\n  command: FAIL\n")

		_, code := execute(ctx, "--config", configPath, "stop-check")
		Expect(code).To(Equal(exitOK))

		_, code = execute(ctx, "--config", configPath, "stop-check", "--boot-success=false")
		Expect(code).To(Equal(exitStopRequested))
	})

	It("Should stop when the BMC is unreachable", func(ctx SpecContext) {
		mockServer, bmcConfig := startMockBMC(server.Options{})
		mockServer.SetUnavailable(time.Hour)
		configPath := writeFile("config.yaml", bmcConfig+"stop_check:\n  rest_fail: true\n")

		out, code := execute(ctx, "--config", configPath, "stop-check")
		Expect(code).To(Equal(exitStopRequested))
		Expect(out).To(HavePrefix("rest-reachability:"))
	})

	It("Should stop for ALL when the hardware flag has no store", func(ctx SpecContext) {
		configPath := writeFile("config.yaml", "stop_check:\n  command: ALL\n  verify_hardware_fail: true\n")

		out, code := execute(ctx, "--config", configPath, "stop-check")
		Expect(code).To(Equal(exitStopRequested))
		Expect(out).To(HavePrefix("command:"))
	})

	It("Should stop for ALL when the state store cannot be opened", func(ctx SpecContext) {
		storePath := "sqlite://" + filepath.Join(GinkgoT().TempDir(), "missing", "dir", "state.db")
		configPath := writeFile("config.yaml", "stop_check:\n  command: ALL\n")

		out, code := execute(ctx, "--config", configPath, "stop-check", "--state-store", storePath)
		Expect(code).To(Equal(exitStopRequested))
		Expect(out).To(HavePrefix("command:"))
	})

	It("Should stop on the hardware flag when no store is configured", func(ctx SpecContext) {
		configPath := writeFile("config.yaml", "stop_check:\n  verify_hardware_fail: true\n")

		out, code := execute(ctx, "--config", configPath, "stop-check")
		Expect(code).To(Equal(exitStopRequested))
		Expect(out).To(ContainSubstring("hardware-verify-flag: state_store must be set"))
	})

	It("Should stop when the configuration cannot be loaded", func(ctx SpecContext) {
		path := writeFile("config.yaml", "bmc:\n  hostname: typo\n")
		_, code := execute(ctx, "--config", path, "stop-check")
		Expect(code).To(Equal(exitStopRequested))
	})

	It("Should stop when the hardware flag is set", func(ctx SpecContext) {
		storePath := writeFile("state.yaml", "hardware_error_found: \"True\"\n")
		configPath := writeFile("config.yaml", "stop_check:\n  verify_hardware_fail: true\n")

		out, code := execute(ctx, "--config", configPath, "stop-check", "--state-store", storePath)
		Expect(code).To(Equal(exitStopRequested))
		Expect(out).To(HavePrefix("hardware-verify-flag:"))
	})
})

var _ = Describe("scan-log", func() {
	It("Should exit 2 for a log with eSEL entries", func(ctx SpecContext) {
		path := writeFile("boot.log", "booting\nLogging eSEL 0x50\n")
		out, code := execute(ctx, "scan-log", path)
		Expect(code).To(Equal(exitStopRequested))
		Expect(out).To(ContainSubstring("2: Logging eSEL 0x50"))
	})

	It("Should exit 0 for a clean log", func(ctx SpecContext) {
		_, code := execute(ctx, "scan-log", writeFile("boot.log", "booting\n"))
		Expect(code).To(Equal(exitOK))
	})

	It("Should exit 1 for a missing log", func(ctx SpecContext) {
		_, code := execute(ctx, "scan-log", filepath.Join(GinkgoT().TempDir(), "missing.log"))
		Expect(code).To(Equal(exitFailure))
	})

	It("Should require exactly one file", func(ctx SpecContext) {
		_, code := execute(ctx, "scan-log")
		Expect(code).To(Equal(exitUsage))
	})
})

var _ = Describe("wait-ready and bmc-version", func() {
	It("Should report a ready BMC and its version", func(ctx SpecContext) {
		_, bmcConfig := startMockBMC(server.Options{FirmwareVersion: "2.14.0"})
		configPath := writeFile("config.yaml", bmcConfig)

		out, code := execute(ctx, "--config", configPath, "wait-ready", "--interval", "50ms", "--timeout", "1s")
		Expect(code).To(Equal(exitOK))
		Expect(out).To(ContainSubstring("BMC ready after 1 attempt(s)"))

		out, code = execute(ctx, "--config", configPath, "bmc-version")
		Expect(code).To(Equal(exitOK))
		Expect(out).To(Equal("2.14.0\n"))
	})

	It("Should fail when the BMC stays unavailable", func(ctx SpecContext) {
		mockServer, bmcConfig := startMockBMC(server.Options{})
		mockServer.SetUnavailable(time.Hour)
		configPath := writeFile("config.yaml", bmcConfig)

		_, code := execute(ctx, "--config", configPath, "wait-ready", "--interval", "50ms", "--timeout", "200ms")
		Expect(code).To(Equal(exitTestFailure))
	})

	It("Should require a BMC host", func(ctx SpecContext) {
		_, code := execute(ctx, "wait-ready")
		Expect(code).To(Equal(exitConfig))
	})
})
