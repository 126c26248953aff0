// SPDX-FileCopyrightText: 2024 SAP SE or an SAP affiliate company and IronCore contributors
// SPDX-License-Identifier: Apache-2.0

// Package eselscan finds extended system event log (eSEL) entries in a test log.
package eselscan

import (
	"bufio"
	"fmt"
	"io"
	"regexp"
)

// DefaultPattern matches a line mentioning an eSEL.
const DefaultPattern = `(?i)\besel\b`

// maxSamples bounds Report.Samples.
const maxSamples = 10

type Report struct {
	Lines   int
	Matches int
	// Samples holds the first matching lines, prefixed with their line number.
	Samples []string
}

// Found reports whether at least one line matched.
func (r Report) Found() bool {
	return r.Matches > 0
}

// Scan reads r line by line. An empty pattern selects DefaultPattern.
func Scan(r io.Reader, pattern string) (Report, error) {
	if pattern == "" {
		pattern = DefaultPattern
	}
	re, err := regexp.Compile(pattern)
	if err != nil {
		return Report{}, fmt.Errorf("invalid scan pattern: %w", err)
	}

	var report Report
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 64*1024), 4*1024*1024)
	for scanner.Scan() {
		report.Lines++
		line := scanner.Text()
		if !re.MatchString(line) {
			continue
		}
		report.Matches++
		if len(report.Samples) < maxSamples {
			report.Samples = append(report.Samples, fmt.Sprintf("%d: %s", report.Lines, line))
		}
	}
	if err := scanner.Err(); err != nil {
		return report, fmt.Errorf("failed to read log: %w", err)
	}
	return report, nil
}
