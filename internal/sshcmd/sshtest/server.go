// SPDX-FileCopyrightText: 2024 SAP SE or an SAP affiliate company and IronCore contributors
// SPDX-License-Identifier: Apache-2.0

// Package sshtest provides an in-process SSH server for tests.
package sshtest

import (
	"crypto/ed25519"
	"crypto/rand"
	"encoding/binary"
	"errors"
	"io"
	"net"
	"strconv"
	"sync"

	"golang.org/x/crypto/ssh"
)

// Handler answers a single exec request. Returning Disconnect drops the
// connection without sending an exit status, the way a rebooting host does.
type Handler func(command string, stdout, stderr io.Writer) int

// Disconnect is a sentinel exit code for Handler.
const Disconnect = -1

// Server is an SSH server on a local port.
type Server struct {
	Username string
	Password string

	listener net.Listener
	config   *ssh.ServerConfig
	handler  Handler

	mu       sync.Mutex
	commands []string
	wg       sync.WaitGroup
}

// NewServer starts a server accepting the given password credentials.
func NewServer(username, password string, handler Handler) (*Server, error) {
	_, key, err := ed25519.GenerateKey(rand.Reader)
	if err != nil {
		return nil, err
	}
	signer, err := ssh.NewSignerFromKey(key)
	if err != nil {
		return nil, err
	}
	config := &ssh.ServerConfig{
		PasswordCallback: func(conn ssh.ConnMetadata, pass []byte) (*ssh.Permissions, error) {
			if conn.User() == username && string(pass) == password {
				return nil, nil
			}
			return nil, errors.New("access denied")
		},
	}
	config.AddHostKey(signer)

	listener, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		return nil, err
	}
	s := &Server{
		Username: username,
		Password: password,
		listener: listener,
		config:   config,
		handler:  handler,
	}
	s.wg.Add(1)
	go s.serve()
	return s, nil
}

// Host returns the listen host.
func (s *Server) Host() string {
	host, _, _ := net.SplitHostPort(s.listener.Addr().String())
	return host
}

// Port returns the listen port.
func (s *Server) Port() int {
	_, port, _ := net.SplitHostPort(s.listener.Addr().String())
	p, _ := strconv.Atoi(port)
	return p
}

// Commands returns the commands received so far.
func (s *Server) Commands() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.commands...)
}

// Close stops accepting connections.
func (s *Server) Close() {
	_ = s.listener.Close()
	s.wg.Wait()
}

func (s *Server) serve() {
	defer s.wg.Done()
	for {
		conn, err := s.listener.Accept()
		if err != nil {
			return
		}
		go s.handleConn(conn)
	}
}

func (s *Server) handleConn(netConn net.Conn) {
	defer func() { _ = netConn.Close() }()
	_, chans, reqs, err := ssh.NewServerConn(netConn, s.config)
	if err != nil {
		return
	}
	go ssh.DiscardRequests(reqs)

	for newChannel := range chans {
		if newChannel.ChannelType() != "session" {
			_ = newChannel.Reject(ssh.UnknownChannelType, "unknown channel type")
			continue
		}
		channel, requests, err := newChannel.Accept()
		if err != nil {
			return
		}
		if s.handleSession(channel, requests) {
			return
		}
	}
}

// handleSession reports whether the connection must be dropped.
func (s *Server) handleSession(channel ssh.Channel, requests <-chan *ssh.Request) bool {
	defer func() { _ = channel.Close() }()
	for req := range requests {
		if req.Type != "exec" {
			_ = req.Reply(false, nil)
			continue
		}
		command := parseString(req.Payload)
		_ = req.Reply(true, nil)

		s.mu.Lock()
		s.commands = append(s.commands, command)
		s.mu.Unlock()

		code := s.handler(command, channel, channel.Stderr())
		if code == Disconnect {
			return true
		}
		status := make([]byte, 4)
		binary.BigEndian.PutUint32(status, uint32(code))
		_, _ = channel.SendRequest("exit-status", false, status)
		return false
	}
	return false
}

func parseString(payload []byte) string {
	if len(payload) < 4 {
		return ""
	}
	n := binary.BigEndian.Uint32(payload)
	if int(n) > len(payload)-4 {
		return ""
	}
	return string(payload[4 : 4+n])
}
