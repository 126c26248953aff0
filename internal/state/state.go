// SPDX-FileCopyrightText: 2024 SAP SE or an SAP affiliate company and IronCore contributors
// SPDX-License-Identifier: Apache-2.0

// Package state persists small key/value records across invocations of the
// stop checker, which a boot-test driver runs once per iteration.
package state

import (
	"context"
	"strconv"
	"strings"
)

const (
	// KeyStopCheck holds the last stop-check result.
	KeyStopCheck = "stop_check"
	// KeyHardwareErrorFound is set by a hardware verification plug-in.
	KeyHardwareErrorFound = "hardware_error_found"
)

// Store is a persisted saved-value store.
type Store interface {
	Get(ctx context.Context, key string) (string, bool, error)
	Set(ctx context.Context, key, value string) error
	Close() error
}

// Open selects the backend from location: "sqlite://<path>" opens a SQLite
// database, anything else a YAML file.
func Open(location string) (Store, error) {
	if path, ok := strings.CutPrefix(location, "sqlite://"); ok {
		return NewSQLiteStore(path)
	}
	return NewFileStore(location)
}

// IsTrue interprets a saved flag value.
func IsTrue(value string) bool {
	b, err := strconv.ParseBool(strings.TrimSpace(value))
	if err == nil {
		return b
	}
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "yes", "y", "on":
		return true
	}
	return false
}
