// SPDX-FileCopyrightText: 2024 SAP SE or an SAP affiliate company and IronCore contributors
// SPDX-License-Identifier: Apache-2.0

// Package sshcmd runs single commands on a remote host over SSH.
package sshcmd

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/go-logr/logr"
	"golang.org/x/crypto/ssh"
	"golang.org/x/crypto/ssh/knownhosts"
)

const (
	DefaultPort        = 22
	DefaultDialTimeout = 30 * time.Second

	DefaultKnownHostsFile = "~/.ssh/known_hosts"
)

// Config describes how to reach the remote host.
type Config struct {
	Host     string
	Port     int
	Username string
	Password string

	// KnownHostsFile is used to verify the host key unless SkipHostKeyValidation is set.
	KnownHostsFile        string
	SkipHostKeyValidation bool

	DialTimeout time.Duration
}

// Result is the outcome of a remote command.
type Result struct {
	ExitCode int
	Stdout   string
	Stderr   string
	// Disconnected is set if the connection dropped before the command reported an exit status.
	Disconnected bool
}

// Client runs commands over SSH. Each Run opens its own connection.
type Client struct {
	log    logr.Logger
	config Config
}

func NewClient(log logr.Logger, config Config) (*Client, error) {
	if config.Host == "" {
		return nil, errors.New("ssh host must not be empty")
	}
	if config.Username == "" {
		return nil, errors.New("ssh username must not be empty")
	}
	if config.Port == 0 {
		config.Port = DefaultPort
	}
	if config.DialTimeout == 0 {
		config.DialTimeout = DefaultDialTimeout
	}
	if config.KnownHostsFile == "" {
		config.KnownHostsFile = DefaultKnownHostsFile
	}
	return &Client{log: log, config: config}, nil
}

func (c *Client) Address() string {
	return net.JoinHostPort(c.config.Host, strconv.Itoa(c.config.Port))
}

func (c *Client) hostKeyCallback() (ssh.HostKeyCallback, error) {
	if c.config.SkipHostKeyValidation {
		return ssh.InsecureIgnoreHostKey(), nil // #nosec G106
	}
	expandedPath, err := expandPath(c.config.KnownHostsFile)
	if err != nil {
		return nil, fmt.Errorf("failed to expand known_hosts file path: %w", err)
	}
	callback, err := knownhosts.New(expandedPath)
	if err != nil {
		return nil, fmt.Errorf("failed to parse known_hosts file: %w", err)
	}
	return callback, nil
}

func (c *Client) dial(ctx context.Context) (*ssh.Client, error) {
	hostKeyCallback, err := c.hostKeyCallback()
	if err != nil {
		return nil, err
	}
	sshConfig := &ssh.ClientConfig{
		User: c.config.Username,
		Auth: []ssh.AuthMethod{
			ssh.Password(c.config.Password),
		},
		HostKeyCallback: hostKeyCallback,
		Timeout:         c.config.DialTimeout,
	}

	dialer := net.Dialer{Timeout: c.config.DialTimeout}
	netConn, err := dialer.DialContext(ctx, "tcp", c.Address())
	if err != nil {
		return nil, fmt.Errorf("failed to connect to %s: %w", c.Address(), err)
	}
	sshConn, chans, reqs, err := ssh.NewClientConn(netConn, c.Address(), sshConfig)
	if err != nil {
		_ = netConn.Close()
		return nil, fmt.Errorf("failed to establish ssh connection to %s: %w", c.Address(), err)
	}
	return ssh.NewClient(sshConn, chans, reqs), nil
}

// Run executes command and waits for it to finish. A non-zero exit status is
// reported in the Result, not as an error. A connection that drops after the
// command was started yields Result.Disconnected and no error.
func (c *Client) Run(ctx context.Context, command string) (Result, error) {
	conn, err := c.dial(ctx)
	if err != nil {
		return Result{}, err
	}
	defer func(conn *ssh.Client) {
		if err := conn.Close(); err != nil && !errors.Is(err, net.ErrClosed) {
			c.log.V(1).Info("Failed to close SSH connection", "error", err.Error())
		}
	}(conn)

	session, err := conn.NewSession()
	if err != nil {
		return Result{}, fmt.Errorf("failed to create SSH session: %w", err)
	}
	defer func(session *ssh.Session) {
		_ = session.Close()
	}(session)

	var stdout, stderr bytes.Buffer
	session.Stdout = &stdout
	session.Stderr = &stderr

	stop := context.AfterFunc(ctx, func() {
		_ = conn.Close()
	})
	defer stop()

	c.log.V(1).Info("Running remote command", "address", c.Address(), "command", command)
	err = session.Run(command)
	result := Result{Stdout: stdout.String(), Stderr: stderr.String()}
	if ctx.Err() != nil {
		return result, fmt.Errorf("remote command %q interrupted: %w", command, ctx.Err())
	}

	var exitErr *ssh.ExitError
	var exitMissing *ssh.ExitMissingError
	switch {
	case err == nil:
	case errors.As(err, &exitErr):
		result.ExitCode = exitErr.ExitStatus()
	case errors.As(err, &exitMissing), isDisconnect(err):
		result.Disconnected = true
	default:
		return result, fmt.Errorf("failed to run remote command %q: %w", command, err)
	}
	return result, nil
}

func isDisconnect(err error) bool {
	var netErr *net.OpError
	return errors.Is(err, io.EOF) || errors.Is(err, net.ErrClosed) || errors.As(err, &netErr)
}

func expandPath(path string) (string, error) {
	if len(path) > 0 && path[0] == '~' {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return "", err
		}
		return filepath.Join(homeDir, path[1:]), nil
	}
	return path, nil
}
