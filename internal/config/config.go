// SPDX-FileCopyrightText: 2024 SAP SE or an SAP affiliate company and IronCore contributors
// SPDX-License-Identifier: Apache-2.0

// Package config loads the run configuration of bmcstress.
package config

import (
	"errors"
	"fmt"
	"io"
	"os"
	"slices"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	DefaultIterations         = 50
	DefaultResetType          = "GracefulRestart"
	DefaultRebootCommand      = "reboot"
	DefaultFFDCDir            = "ffdc"
	DefaultFFDCTimeout        = 2 * time.Minute
	DefaultReadyTimeout       = 5 * time.Minute
	DefaultReadyInterval      = 10 * time.Second
	DefaultPowerCycleTimeout  = 10 * time.Minute
	DefaultPowerCycleInterval = 10 * time.Second
	DefaultCommandTimeout     = 10 * time.Minute
	DefaultShutdownGrace      = 10 * time.Second
)

const (
	ActionPowerCycle = "pdu"
	ActionRedfish    = "redfish"
	ActionInBand     = "inband"
)

// Actions lists the reset actions a cycle run can use.
var Actions = []string{ActionPowerCycle, ActionRedfish, ActionInBand}

// Config represents the configuration of a stress run or stop check.
type Config struct {
	BMC        BMCConfig       `yaml:"bmc"`
	PDU        PDUConfig       `yaml:"pdu"`
	Readiness  ReadinessConfig `yaml:"readiness"`
	Cycle      CycleConfig     `yaml:"cycle"`
	StopCheck  StopCheckConfig `yaml:"stop_check"`
	FFDC       FFDCConfig      `yaml:"ffdc"`
	Metrics    MetricsConfig   `yaml:"metrics"`
	StateStore string          `yaml:"state_store"`
	TestMode   bool            `yaml:"test_mode"`
}

// BMCConfig describes how to reach the BMC under test. Scheme defaults to
// https, or http when Insecure is set.
type BMCConfig struct {
	Host           string        `yaml:"host"`
	Port           int           `yaml:"port"`
	Scheme         string        `yaml:"scheme"`
	Username       string        `yaml:"username"`
	Password       string        `yaml:"password"`
	BasicAuth      bool          `yaml:"basic_auth"`
	Insecure       bool          `yaml:"insecure"`
	ManagerUUID    string        `yaml:"manager_uuid"`
	ResetType      string        `yaml:"reset_type"`
	RequestTimeout time.Duration `yaml:"request_timeout"`
	SSH            SSHConfig     `yaml:"ssh"`
}

// SSHConfig describes the in-band channel to the BMC operating system.
type SSHConfig struct {
	Port                  int    `yaml:"port"`
	Username              string `yaml:"username"`
	Password              string `yaml:"password"`
	KnownHostsFile        string `yaml:"known_hosts_file"`
	SkipHostKeyValidation bool   `yaml:"skip_host_key_validation"`
	RebootCommand         string `yaml:"reboot_command"`
}

// PDUConfig identifies the PDU outlet feeding the BMC.
type PDUConfig struct {
	IP       string `yaml:"ip"`
	Type     string `yaml:"type"`
	Slot     string `yaml:"slot"`
	Username string `yaml:"username"`
	Password string `yaml:"password"`
}

// ReadinessConfig holds the readiness poll budgets.
//
// The timeouts and the grace period are pointers so that an explicit zero, a
// single check or no grace, is told apart from an unset value.
type ReadinessConfig struct {
	Timeout            *time.Duration `yaml:"timeout"`
	Interval           time.Duration  `yaml:"interval"`
	PowerCycleTimeout  *time.Duration `yaml:"power_cycle_timeout"`
	PowerCycleInterval time.Duration  `yaml:"power_cycle_interval"`
	// ShutdownGrace is waited after a reboot was issued before polling starts,
	// so the prober does not see the BMC before it went down.
	ShutdownGrace *time.Duration `yaml:"shutdown_grace"`
}

// ReadyTimeout returns the readiness budget after a manager reset or reboot.
func (r *ReadinessConfig) ReadyTimeout() time.Duration {
	return durationOr(r.Timeout, DefaultReadyTimeout)
}

// PowerCycleReadyTimeout returns the readiness budget after a power cycle.
func (r *ReadinessConfig) PowerCycleReadyTimeout() time.Duration {
	return durationOr(r.PowerCycleTimeout, DefaultPowerCycleTimeout)
}

// Grace returns the wait between issuing a reboot and the first check.
func (r *ReadinessConfig) Grace() time.Duration {
	return durationOr(r.ShutdownGrace, DefaultShutdownGrace)
}

func durationOr(d *time.Duration, fallback time.Duration) time.Duration {
	if d == nil {
		return fallback
	}
	return *d
}

// CycleConfig configures the cycle loop.
type CycleConfig struct {
	Action     string `yaml:"action"`
	Iterations *int   `yaml:"iterations"`
}

// StopCheckConfig configures the stop signals. Every signal is disabled by its zero value.
type StopCheckConfig struct {
	Command            string        `yaml:"command"`
	RestFail           bool          `yaml:"rest_fail"`
	LogScanFile        string        `yaml:"log_scan_file"`
	LogScanChecker     string        `yaml:"log_scan_checker"`
	VerifyHardwareFail bool          `yaml:"verify_hardware_fail"`
	CommandTimeout     time.Duration `yaml:"command_timeout"`
}

// FFDCConfig configures diagnostics capture on failure.
type FFDCConfig struct {
	Dir     string        `yaml:"dir"`
	URIs    []string      `yaml:"uris"`
	Command string        `yaml:"command"`
	Timeout time.Duration `yaml:"timeout"`
}

// MetricsConfig defines where metrics are written.
type MetricsConfig struct {
	Textfile string `yaml:"textfile"`
}

// ValidationError aggregates multiple configuration validation failures.
type ValidationError struct {
	Problems []string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid configuration: %s", strings.Join(e.Problems, "; "))
}

func (e *ValidationError) Is(target error) bool {
	var other *ValidationError
	return errors.As(target, &other)
}

func asError(problems []string) error {
	if len(problems) == 0 {
		return nil
	}
	return &ValidationError{Problems: problems}
}

// Default returns a configuration with all defaults applied.
func Default() *Config {
	cfg := &Config{}
	cfg.applyDefaults()
	return cfg
}

// Load reads the configuration file at path. An empty path yields the defaults.
func Load(path string) (*Config, error) {
	if path == "" {
		return Default(), nil
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open config: %w", err)
	}
	defer func() { _ = f.Close() }()
	return decode(f)
}

func decode(r io.Reader) (*Config, error) {
	decoder := yaml.NewDecoder(r)
	decoder.KnownFields(true)

	var cfg Config
	if err := decoder.Decode(&cfg); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	cfg.applyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) applyDefaults() {
	if c.BMC.ResetType == "" {
		c.BMC.ResetType = DefaultResetType
	}
	if c.BMC.SSH.RebootCommand == "" {
		c.BMC.SSH.RebootCommand = DefaultRebootCommand
	}
	if c.Readiness.Timeout == nil {
		d := DefaultReadyTimeout
		c.Readiness.Timeout = &d
	}
	if c.Readiness.Interval == 0 {
		c.Readiness.Interval = DefaultReadyInterval
	}
	if c.Readiness.PowerCycleTimeout == nil {
		d := DefaultPowerCycleTimeout
		c.Readiness.PowerCycleTimeout = &d
	}
	if c.Readiness.PowerCycleInterval == 0 {
		c.Readiness.PowerCycleInterval = DefaultPowerCycleInterval
	}
	if c.Readiness.ShutdownGrace == nil {
		d := DefaultShutdownGrace
		c.Readiness.ShutdownGrace = &d
	}
	if c.Cycle.Action == "" {
		c.Cycle.Action = ActionRedfish
	}
	if c.Cycle.Iterations == nil {
		n := DefaultIterations
		c.Cycle.Iterations = &n
	}
	if c.StopCheck.CommandTimeout == 0 {
		c.StopCheck.CommandTimeout = DefaultCommandTimeout
	}
	if c.FFDC.Dir == "" {
		c.FFDC.Dir = DefaultFFDCDir
	}
	if c.FFDC.Timeout == 0 {
		c.FFDC.Timeout = DefaultFFDCTimeout
	}
}

// Validate checks the settings every command relies on.
func (c *Config) Validate() error {
	problems := make([]string, 0)

	if !slices.Contains(Actions, c.Cycle.Action) {
		problems = append(problems, fmt.Sprintf("cycle.action must be one of %s, got %q", strings.Join(Actions, ", "), c.Cycle.Action))
	}
	if c.Cycle.Iterations != nil && *c.Cycle.Iterations < 0 {
		problems = append(problems, "cycle.iterations must not be negative")
	}
	if c.BMC.Scheme != "" && c.BMC.Scheme != "http" && c.BMC.Scheme != "https" {
		problems = append(problems, fmt.Sprintf("bmc.scheme must be http or https, got %q", c.BMC.Scheme))
	}
	if c.BMC.Port < 0 || c.BMC.Port > 65535 {
		problems = append(problems, "bmc.port must be between 0 and 65535")
	}
	if c.Readiness.Interval <= 0 || c.Readiness.PowerCycleInterval <= 0 {
		problems = append(problems, "readiness intervals must be positive")
	}
	if c.Readiness.ReadyTimeout() < 0 || c.Readiness.PowerCycleReadyTimeout() < 0 || c.Readiness.Grace() < 0 {
		problems = append(problems, "readiness timeouts must not be negative")
	}
	return asError(problems)
}

// Validate checks that the BMC can be addressed.
func (c *BMCConfig) Validate() error {
	problems := make([]string, 0)
	if strings.TrimSpace(c.Host) == "" {
		problems = append(problems, "bmc.host must be set")
	}
	if c.Username == "" {
		problems = append(problems, "bmc.username must be set")
	}
	if c.Password == "" {
		problems = append(problems, "bmc.password must be set")
	}
	return asError(problems)
}

// Validate checks that every PDU setting is present.
func (p *PDUConfig) Validate() error {
	problems := make([]string, 0)
	for _, field := range []struct{ name, value string }{
		{"pdu.ip", p.IP},
		{"pdu.type", p.Type},
		{"pdu.slot", p.Slot},
		{"pdu.username", p.Username},
		{"pdu.password", p.Password},
	} {
		if strings.TrimSpace(field.value) == "" {
			problems = append(problems, fmt.Sprintf("%s must be set", field.name))
		}
	}
	return asError(problems)
}

// IterationCount returns the configured number of cycles.
func (c *Config) IterationCount() int {
	if c.Cycle.Iterations == nil {
		return DefaultIterations
	}
	return *c.Cycle.Iterations
}

// SSHUsername returns the in-band username, falling back to the BMC credentials.
func (c *BMCConfig) SSHUsername() string {
	if c.SSH.Username != "" {
		return c.SSH.Username
	}
	return c.Username
}

// SSHPassword returns the in-band password, falling back to the BMC credentials.
func (c *BMCConfig) SSHPassword() string {
	if c.SSH.Password != "" {
		return c.SSH.Password
	}
	return c.Password
}
