// SPDX-FileCopyrightText: 2024 SAP SE or an SAP affiliate company and IronCore contributors
// SPDX-License-Identifier: Apache-2.0

package config

import "os"

const (
	EnvBMCUsername = "BMC_USERNAME"
	EnvBMCPassword = "BMC_PASSWORD"
	EnvPDUUsername = "PDU_USERNAME"
	EnvPDUPassword = "PDU_PASSWORD"
)

// LookupFunc resolves an environment variable.
type LookupFunc func(key string) (string, bool)

// ApplyEnv fills credentials that the file left empty from the environment.
func (c *Config) ApplyEnv(lookup LookupFunc) {
	if lookup == nil {
		lookup = os.LookupEnv
	}
	setFromEnv(&c.BMC.Username, lookup, EnvBMCUsername)
	setFromEnv(&c.BMC.Password, lookup, EnvBMCPassword)
	setFromEnv(&c.PDU.Username, lookup, EnvPDUUsername)
	setFromEnv(&c.PDU.Password, lookup, EnvPDUPassword)
}

func setFromEnv(field *string, lookup LookupFunc, key string) {
	if *field != "" {
		return
	}
	if value, ok := lookup(key); ok {
		*field = value
	}
}
