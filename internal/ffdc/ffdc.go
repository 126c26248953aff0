// SPDX-FileCopyrightText: 2024 SAP SE or an SAP affiliate company and IronCore contributors
// SPDX-License-Identifier: Apache-2.0

// Package ffdc captures first failure data after a failed reset cycle.
package ffdc

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/go-logr/logr"
	"github.com/google/uuid"
	"gopkg.in/yaml.v3"

	"github.com/ironcore-dev/bmcstress/bmc"
	"github.com/ironcore-dev/bmcstress/internal/shell"
)

// DefaultURIs are the Redfish resources saved when no list is configured.
var DefaultURIs = []string{
	"/redfish/v1",
	"/redfish/v1/Managers",
	"/redfish/v1/Managers/bmc",
	"/redfish/v1/Managers/bmc/LogServices/EventLog/Entries",
}

// Event describes the failure being captured.
type Event struct {
	Iteration int
	Action    string
	Err       error
	StartedAt time.Time
	FailedAt  time.Time
}

// Summary is written to summary.yaml in the capture directory.
type Summary struct {
	RunID     string    `yaml:"run_id"`
	Iteration int       `yaml:"iteration"`
	Action    string    `yaml:"action"`
	Error     string    `yaml:"error"`
	StartedAt time.Time `yaml:"started_at"`
	FailedAt  time.Time `yaml:"failed_at"`
	Files     []string  `yaml:"files,omitempty"`
	Problems  []string  `yaml:"problems,omitempty"`
}

type Options struct {
	Dir string
	// URIs are fetched through a fresh Redfish session. Defaults to DefaultURIs.
	URIs []string
	// Command is an optional shell command whose output is saved.
	Command        string
	CommandTimeout time.Duration
}

// Collector writes one directory per captured failure below Options.Dir.
type Collector struct {
	log     logr.Logger
	runID   string
	connect bmc.Connector
	options Options
}

// NewCollector returns a collector with a new run id. connect may be nil to skip Redfish data.
func NewCollector(log logr.Logger, connect bmc.Connector, options Options) *Collector {
	if len(options.URIs) == 0 {
		options.URIs = DefaultURIs
	}
	if options.CommandTimeout <= 0 {
		options.CommandTimeout = time.Minute
	}
	return &Collector{log: log, runID: uuid.NewString(), connect: connect, options: options}
}

func (c *Collector) RunID() string {
	return c.runID
}

// Capture is best-effort: it saves as much as it can and returns the joined
// errors of the parts that failed, together with the capture directory.
func (c *Collector) Capture(ctx context.Context, event Event) (string, error) {
	dir := filepath.Join(c.options.Dir, fmt.Sprintf("%s-%d", c.runID, event.Iteration))
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create ffdc directory: %w", err)
	}

	var errs []error
	var files []string
	if c.connect != nil {
		saved, err := c.captureRedfish(ctx, dir)
		files = append(files, saved...)
		errs = append(errs, err)
	}
	if c.options.Command != "" {
		name, err := c.captureCommand(ctx, dir)
		if name != "" {
			files = append(files, name)
		}
		errs = append(errs, err)
	}
	err := errors.Join(errs...)

	summary := Summary{
		RunID:     c.runID,
		Iteration: event.Iteration,
		Action:    event.Action,
		StartedAt: event.StartedAt.UTC(),
		FailedAt:  event.FailedAt.UTC(),
		Files:     files,
	}
	if event.Err != nil {
		summary.Error = event.Err.Error()
	}
	if err != nil {
		summary.Problems = strings.Split(err.Error(), "\n")
	}
	if werr := writeSummary(dir, summary); werr != nil {
		err = errors.Join(err, werr)
	}

	c.log.Info("Captured failure data", "dir", dir, "files", len(files))
	return dir, err
}

func (c *Collector) captureRedfish(ctx context.Context, dir string) ([]string, error) {
	client, err := c.connect(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to connect for ffdc: %w", err)
	}
	defer client.Logout()

	var errs []error
	var files []string
	for _, uri := range c.options.URIs {
		body, err := client.GetRaw(ctx, uri)
		if err != nil {
			errs = append(errs, fmt.Errorf("failed to get %s: %w", uri, err))
			continue
		}
		name := fileName(uri) + ".json"
		if err := os.WriteFile(filepath.Join(dir, name), body, 0o644); err != nil {
			errs = append(errs, fmt.Errorf("failed to write %s: %w", name, err))
			continue
		}
		files = append(files, name)
	}
	return files, errors.Join(errs...)
}

func (c *Collector) captureCommand(ctx context.Context, dir string) (string, error) {
	result, err := shell.NewRunner(c.options.CommandTimeout, nil).Shell(ctx, c.options.Command)
	if err != nil {
		return "", fmt.Errorf("failed to run ffdc command: %w", err)
	}
	const name = "command.log"
	content := fmt.Sprintf("$ %s\nexit status %d\n--- stdout\n%s--- stderr\n%s",
		c.options.Command, result.ExitCode, result.Stdout, result.Stderr)
	if err := os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644); err != nil {
		return "", fmt.Errorf("failed to write %s: %w", name, err)
	}
	if result.ExitCode != 0 {
		return name, fmt.Errorf("ffdc command exited with %d", result.ExitCode)
	}
	return name, nil
}

func writeSummary(dir string, summary Summary) error {
	data, err := yaml.Marshal(summary)
	if err != nil {
		return fmt.Errorf("failed to marshal ffdc summary: %w", err)
	}
	if err := os.WriteFile(filepath.Join(dir, "summary.yaml"), data, 0o644); err != nil {
		return fmt.Errorf("failed to write ffdc summary: %w", err)
	}
	return nil
}

var unsafeChars = regexp.MustCompile(`[^A-Za-z0-9._-]+`)

// fileName turns a Redfish URI into a file name, e.g. /redfish/v1/Managers -> redfish_v1_Managers.
func fileName(uri string) string {
	name := unsafeChars.ReplaceAllString(strings.Trim(uri, "/"), "_")
	if name == "" {
		return "root"
	}
	return name
}
