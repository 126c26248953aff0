// SPDX-FileCopyrightText: 2024 SAP SE or an SAP affiliate company and IronCore contributors
// SPDX-License-Identifier: Apache-2.0

package eselscan_test

import (
	"strings"

	"github.com/ironcore-dev/bmcstress/internal/eselscan"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("Scan", func() {
	It("Should find eSEL entries", func() {
		log := "boot ok\nLogging eSEL 0x50 to host\nrebooting\nesel: PEL 0x1234\n"

		report, err := eselscan.Scan(strings.NewReader(log), "")
		Expect(err).NotTo(HaveOccurred())
		Expect(report.Found()).To(BeTrue())
		Expect(report.Lines).To(Equal(4))
		Expect(report.Matches).To(Equal(2))
		Expect(report.Samples).To(Equal([]string{"2: Logging eSEL 0x50 to host", "4: esel: PEL 0x1234"}))
	})

	It("Should not match words containing esel", func() {
		report, err := eselscan.Scan(strings.NewReader("weselake\ndiesel\n"), "")
		Expect(err).NotTo(HaveOccurred())
		Expect(report.Found()).To(BeFalse())
	})

	It("Should accept a custom pattern", func() {
		report, err := eselscan.Scan(strings.NewReader("kernel panic\n"), "panic")
		Expect(err).NotTo(HaveOccurred())
		Expect(report.Matches).To(Equal(1))
	})

	It("Should reject an invalid pattern", func() {
		_, err := eselscan.Scan(strings.NewReader(""), "(")
		Expect(err).To(MatchError(ContainSubstring("invalid scan pattern")))
	})

	It("Should bound the number of samples", func() {
		report, err := eselscan.Scan(strings.NewReader(strings.Repeat("eSEL\n", 25)), "")
		Expect(err).NotTo(HaveOccurred())
		Expect(report.Matches).To(Equal(25))
		Expect(report.Samples).To(HaveLen(10))
	})
})
