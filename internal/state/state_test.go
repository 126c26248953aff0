// SPDX-FileCopyrightText: 2024 SAP SE or an SAP affiliate company and IronCore contributors
// SPDX-License-Identifier: Apache-2.0

package state_test

import (
	"os"
	"path/filepath"

	"github.com/ironcore-dev/bmcstress/internal/state"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("Store", func() {
	for _, backend := range []struct {
		name     string
		location func(dir string) string
	}{
		{"file", func(dir string) string { return filepath.Join(dir, "state.yaml") }},
		{"sqlite", func(dir string) string { return "sqlite://" + filepath.Join(dir, "state.db") }},
	} {
		Context(backend.name, func() {
			var location string

			BeforeEach(func() {
				location = backend.location(GinkgoT().TempDir())
			})

			open := func() state.Store {
				store, err := state.Open(location)
				Expect(err).NotTo(HaveOccurred())
				DeferCleanup(store.Close)
				return store
			}

			It("Should report missing keys", func(ctx SpecContext) {
				_, ok, err := open().Get(ctx, state.KeyStopCheck)
				Expect(err).NotTo(HaveOccurred())
				Expect(ok).To(BeFalse())
			})

			It("Should set and overwrite values", func(ctx SpecContext) {
				store := open()
				Expect(store.Set(ctx, state.KeyStopCheck, "command: ALL")).To(Succeed())
				Expect(store.Set(ctx, state.KeyStopCheck, "log-scan: eSEL found")).To(Succeed())

				value, ok, err := store.Get(ctx, state.KeyStopCheck)
				Expect(err).NotTo(HaveOccurred())
				Expect(ok).To(BeTrue())
				Expect(value).To(Equal("log-scan: eSEL found"))
			})

			It("Should persist across reopen", func(ctx SpecContext) {
				store, err := state.Open(location)
				Expect(err).NotTo(HaveOccurred())
				Expect(store.Set(ctx, state.KeyHardwareErrorFound, "True")).To(Succeed())
				Expect(store.Close()).To(Succeed())

				value, ok, err := open().Get(ctx, state.KeyHardwareErrorFound)
				Expect(err).NotTo(HaveOccurred())
				Expect(ok).To(BeTrue())
				Expect(state.IsTrue(value)).To(BeTrue())
			})
		})
	}

	It("Should reject a corrupt state file", func(ctx SpecContext) {
		path := filepath.Join(GinkgoT().TempDir(), "state.yaml")
		Expect(os.WriteFile(path, []byte("- not\n- a map\n"), 0o600)).To(Succeed())
		store, err := state.Open(path)
		Expect(err).NotTo(HaveOccurred())
		_, _, err = store.Get(ctx, state.KeyStopCheck)
		Expect(err).To(HaveOccurred())
	})

	DescribeTable("IsTrue",
		func(value string, expected bool) {
			Expect(state.IsTrue(value)).To(Equal(expected))
		},
		Entry("True", "True", true),
		Entry("1", "1", true),
		Entry("yes", "yes", true),
		Entry("False", "False", false),
		Entry("empty", "", false),
		Entry("garbage", "maybe", false),
	)
})
