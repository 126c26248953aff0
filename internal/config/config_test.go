// SPDX-FileCopyrightText: 2024 SAP SE or an SAP affiliate company and IronCore contributors
// SPDX-License-Identifier: Apache-2.0

package config_test

import (
	"os"
	"path/filepath"
	"time"

	"github.com/ironcore-dev/bmcstress/internal/config"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

func writeConfig(content string) string {
	path := filepath.Join(GinkgoT().TempDir(), "config.yaml")
	Expect(os.WriteFile(path, []byte(content), 0o600)).To(Succeed())
	return path
}

var _ = Describe("Load", func() {
	It("Should apply defaults for an empty path", func() {
		cfg, err := config.Load("")
		Expect(err).NotTo(HaveOccurred())
		Expect(cfg.IterationCount()).To(Equal(config.DefaultIterations))
		Expect(cfg.Cycle.Action).To(Equal(config.ActionRedfish))
		Expect(cfg.BMC.ResetType).To(Equal("GracefulRestart"))
		Expect(cfg.BMC.SSH.RebootCommand).To(Equal("reboot"))
		Expect(cfg.Readiness.PowerCycleReadyTimeout()).To(Equal(10 * time.Minute))
	})

	It("Should parse a complete file", func() {
		cfg, err := config.Load(writeConfig(`
bmc:
  host: 10.0.0.10
  port: 443
  username: root
  password: 0penBmc
  insecure: true
  ssh:
    skip_host_key_validation: true
pdu:
  ip: 10.0.0.2
  type: synaccess
  slot: "3"
  username: admin
  password: admin
readiness:
  timeout: 2m
  interval: 5s
cycle:
  action: pdu
  iterations: 0
stop_check:
  command: FAIL
  rest_fail: true
state_store: sqlite:///var/lib/bmcstress/state.db
`))
		Expect(err).NotTo(HaveOccurred())
		Expect(cfg.BMC.Host).To(Equal("10.0.0.10"))
		Expect(cfg.Readiness.ReadyTimeout()).To(Equal(2 * time.Minute))
		Expect(cfg.IterationCount()).To(BeZero())
		Expect(cfg.Cycle.Action).To(Equal(config.ActionPowerCycle))
		Expect(cfg.StopCheck.Command).To(Equal("FAIL"))
		Expect(cfg.PDU.Validate()).To(Succeed())
		Expect(cfg.BMC.SSHUsername()).To(Equal("root"))
	})

	It("Should keep an explicit zero readiness budget and grace", func() {
		cfg, err := config.Load(writeConfig("readiness:\n  timeout: 0s\n  power_cycle_timeout: 0s\n  shutdown_grace: 0s\n"))
		Expect(err).NotTo(HaveOccurred())
		Expect(cfg.Readiness.ReadyTimeout()).To(BeZero())
		Expect(cfg.Readiness.PowerCycleReadyTimeout()).To(BeZero())
		Expect(cfg.Readiness.Grace()).To(BeZero())
		Expect(cfg.Readiness.Interval).To(Equal(config.DefaultReadyInterval))
	})

	It("Should default an unset readiness budget and grace", func() {
		cfg, err := config.Load(writeConfig("readiness:\n  interval: 1s\n"))
		Expect(err).NotTo(HaveOccurred())
		Expect(cfg.Readiness.ReadyTimeout()).To(Equal(config.DefaultReadyTimeout))
		Expect(cfg.Readiness.Grace()).To(Equal(config.DefaultShutdownGrace))
	})

	It("Should reject unknown fields", func() {
		_, err := config.Load(writeConfig("bmc:\n  hostname: x\n"))
		Expect(err).To(MatchError(ContainSubstring("hostname")))
	})

	It("Should aggregate validation problems", func() {
		_, err := config.Load(writeConfig("cycle:\n  action: magic\n  iterations: -1\nreadiness:\n  interval: -1s\n"))
		var validationErr *config.ValidationError
		Expect(err).To(BeAssignableToTypeOf(validationErr))
		Expect(err).To(MatchError(&config.ValidationError{}))
		Expect(err.(*config.ValidationError).Problems).To(HaveLen(3))
	})

	It("Should fail for a missing file", func() {
		_, err := config.Load("/nonexistent/config.yaml")
		Expect(err).To(HaveOccurred())
	})
})

var _ = Describe("PDUConfig", func() {
	valid := func() config.PDUConfig {
		return config.PDUConfig{IP: "10.0.0.2", Type: "synaccess", Slot: "1", Username: "admin", Password: "admin"}
	}

	DescribeTable("Should reject an empty field",
		func(mutate func(*config.PDUConfig), field string) {
			pdu := valid()
			mutate(&pdu)
			err := pdu.Validate()
			Expect(err).To(MatchError(&config.ValidationError{}))
			Expect(err).To(MatchError(ContainSubstring(field)))
		},
		Entry("ip", func(p *config.PDUConfig) { p.IP = "" }, "pdu.ip"),
		Entry("type", func(p *config.PDUConfig) { p.Type = "" }, "pdu.type"),
		Entry("slot", func(p *config.PDUConfig) { p.Slot = "" }, "pdu.slot"),
		Entry("username", func(p *config.PDUConfig) { p.Username = "" }, "pdu.username"),
		Entry("password", func(p *config.PDUConfig) { p.Password = "" }, "pdu.password"),
	)
})

var _ = Describe("ApplyEnv", func() {
	It("Should only fill empty credentials", func() {
		cfg := config.Default()
		cfg.BMC.Username = "fromfile"
		env := map[string]string{
			config.EnvBMCUsername: "fromenv",
			config.EnvBMCPassword: "secret",
			config.EnvPDUPassword: "pdusecret",
		}
		cfg.ApplyEnv(func(key string) (string, bool) {
			v, ok := env[key]
			return v, ok
		})
		Expect(cfg.BMC.Username).To(Equal("fromfile"))
		Expect(cfg.BMC.Password).To(Equal("secret"))
		Expect(cfg.PDU.Password).To(Equal("pdusecret"))
		Expect(cfg.PDU.Username).To(BeEmpty())
	})
})
