// SPDX-FileCopyrightText: 2024 SAP SE or an SAP affiliate company and IronCore contributors
// SPDX-License-Identifier: Apache-2.0

package cmdutils_test

import (
	"bytes"

	"github.com/spf13/pflag"
	"go.uber.org/zap/zapcore"

	"github.com/ironcore-dev/bmcstress/cmdutils"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("LogOptions", func() {
	parse := func(args ...string) *cmdutils.LogOptions {
		opts := &cmdutils.LogOptions{}
		fs := pflag.NewFlagSet("test", pflag.ContinueOnError)
		opts.AddFlags(fs)
		Expect(fs.Parse(args)).To(Succeed())
		return opts
	}

	DescribeTable("Should resolve the level",
		func(args []string, expected zapcore.Level) {
			level, err := parse(args...).ZapLevel()
			Expect(err).NotTo(HaveOccurred())
			Expect(level).To(Equal(expected))
		},
		Entry("default", []string{}, zapcore.InfoLevel),
		Entry("warning", []string{"--loglevel", "warning"}, zapcore.WarnLevel),
		Entry("critical", []string{"--loglevel", "critical"}, zapcore.ErrorLevel),
		Entry("quiet", []string{"--quiet"}, zapcore.ErrorLevel),
		Entry("debug wins over quiet", []string{"--quiet", "--debug"}, zapcore.DebugLevel),
		Entry("debug wins over loglevel", []string{"--loglevel", "error", "--debug"}, zapcore.DebugLevel),
	)

	It("Should reject an unknown level", func() {
		_, err := parse("--loglevel", "loud").ZapLevel()
		Expect(err).To(MatchError(ContainSubstring("loud")))
	})

	It("Should register the zap flags", func() {
		fs := pflag.NewFlagSet("test", pflag.ContinueOnError)
		(&cmdutils.LogOptions{}).AddFlags(fs)
		Expect(fs.Lookup("zap-devel")).NotTo(BeNil())
	})

	It("Should honour the zap level flag without --loglevel", func() {
		var buf bytes.Buffer
		log, err := parse("--zap-log-level", "error").Logger(&buf)
		Expect(err).NotTo(HaveOccurred())

		log.Info("hidden")
		log.Error(nil, "shown")
		Expect(buf.String()).NotTo(ContainSubstring("hidden"))
		Expect(buf.String()).To(ContainSubstring("shown"))
	})

	It("Should prefer --loglevel over the zap level flag", func() {
		var buf bytes.Buffer
		log, err := parse("--zap-log-level", "error", "--loglevel", "info").Logger(&buf)
		Expect(err).NotTo(HaveOccurred())

		log.Info("shown")
		Expect(buf.String()).To(ContainSubstring("shown"))
	})

	It("Should drop info messages when quiet", func() {
		var buf bytes.Buffer
		log, err := parse("--quiet").Logger(&buf)
		Expect(err).NotTo(HaveOccurred())

		log.Info("hidden")
		log.Error(nil, "shown")
		Expect(buf.String()).NotTo(ContainSubstring("hidden"))
		Expect(buf.String()).To(ContainSubstring("shown"))
	})
})
