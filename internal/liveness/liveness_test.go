// SPDX-FileCopyrightText: 2024 SAP SE or an SAP affiliate company and IronCore contributors
// SPDX-License-Identifier: Apache-2.0

package liveness_test

import (
	"time"

	"github.com/ironcore-dev/bmcstress/internal/liveness"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("Pinger", func() {
	It("Should succeed when ping exits 0", func(ctx SpecContext) {
		pinger := &liveness.Pinger{Command: "true", Timeout: time.Second}
		Expect(pinger.Ping(ctx, "10.0.0.1")).To(Succeed())
	})

	It("Should fail when ping exits non-zero", func(ctx SpecContext) {
		pinger := &liveness.Pinger{Command: "false", Timeout: time.Second}
		Expect(pinger.Ping(ctx, "10.0.0.1")).To(MatchError(ContainSubstring("not answering")))
	})

	It("Should fail when ping is missing", func(ctx SpecContext) {
		pinger := &liveness.Pinger{Command: "/nonexistent/ping"}
		Expect(pinger.Ping(ctx, "10.0.0.1")).NotTo(Succeed())
	})
})
