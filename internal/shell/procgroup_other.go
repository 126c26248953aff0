// SPDX-FileCopyrightText: 2024 SAP SE or an SAP affiliate company and IronCore contributors
// SPDX-License-Identifier: Apache-2.0

//go:build !unix

package shell

import "os/exec"

func killProcessGroup(*exec.Cmd) {}
