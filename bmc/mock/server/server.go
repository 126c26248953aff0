// SPDX-FileCopyrightText: 2025 SAP SE or an SAP affiliate company and IronCore contributors
// SPDX-License-Identifier: Apache-2.0

package server

import (
	"context"
	"crypto/subtle"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"slices"
	"sync"
	"time"

	"github.com/go-logr/logr"
	"github.com/gorilla/mux"
)

const (
	ManagerID       = "bmc"
	ManagerUUID     = "3f4d5b2c-9a1e-4c7b-8f00-6d1c0a5e0001"
	DefaultFirmware = "2.14.0-dev-1234-g5e1f0a2"

	ManagerPath = "/redfish/v1/Managers/" + ManagerID
	resetPath   = ManagerPath + "/Actions/Manager.Reset"
	sessionPath = "/redfish/v1/SessionService/Sessions"

	StateEnabled  = "Enabled"
	StateStarting = "Starting"
)

// Options configure the behaviour of the emulated BMC.
type Options struct {
	// Username and Password enable authentication when both are set.
	Username string
	Password string
	// FirmwareVersion reported by the manager. Defaults to DefaultFirmware.
	FirmwareVersion string
	// RebootDuration is how long the BMC refuses requests after a reset.
	RebootDuration time.Duration
	// StartingDuration is how long the BMC answers with state Starting once it is reachable again.
	StartingDuration time.Duration
}

type MockServer struct {
	log     logr.Logger
	addr    string
	handler http.Handler
	options Options

	mu              sync.Mutex
	firmwareVersion string
	nextFirmware    string
	state           string
	rebootUntil     time.Time
	startingUntil   time.Time
	resets          []string
	sessions        map[string]string
	sessionSeq      int
	now             func() time.Time
}

func NewMockServer(log logr.Logger, addr string, options Options) *MockServer {
	if options.FirmwareVersion == "" {
		options.FirmwareVersion = DefaultFirmware
	}
	server := &MockServer{
		addr:            addr,
		log:             log,
		options:         options,
		firmwareVersion: options.FirmwareVersion,
		state:           StateEnabled,
		sessions:        map[string]string{},
		now:             time.Now,
	}

	router := mux.NewRouter()
	router.Use(server.availabilityMiddleware, server.authMiddleware)

	router.HandleFunc("/redfish/v1", server.handleServiceRoot).Methods(http.MethodGet)
	router.HandleFunc("/redfish/v1/", server.handleServiceRoot).Methods(http.MethodGet)
	router.HandleFunc(sessionPath, server.handleCreateSession).Methods(http.MethodPost)
	router.HandleFunc(sessionPath+"/{id}", server.handleDeleteSession).Methods(http.MethodDelete)
	router.HandleFunc("/redfish/v1/Managers", server.handleManagerCollection).Methods(http.MethodGet)
	router.HandleFunc(ManagerPath, server.handleGetManager).Methods(http.MethodGet)
	router.HandleFunc(resetPath, server.handleManagerReset).Methods(http.MethodPost)
	router.HandleFunc(ManagerPath+"/LogServices", server.handleLogServices).Methods(http.MethodGet)
	router.HandleFunc(ManagerPath+"/LogServices/EventLog/Entries", server.handleLogEntries).Methods(http.MethodGet)
	server.handler = router

	return server
}

// Handler exposes the router, e.g. for httptest servers.
func (s *MockServer) Handler() http.Handler {
	return s.handler
}

// Resets returns the reset types received so far.
func (s *MockServer) Resets() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return slices.Clone(s.resets)
}

// SetFirmwareVersion changes the reported firmware version immediately.
func (s *MockServer) SetFirmwareVersion(version string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.firmwareVersion = version
}

// SetFirmwareAfterReset makes the next reset come back with the given version.
func (s *MockServer) SetFirmwareAfterReset(version string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextFirmware = version
}

// SetState overrides the manager status state until the next reset.
func (s *MockServer) SetState(state string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state = state
}

// SetUnavailable makes the server refuse every request for the given duration.
func (s *MockServer) SetUnavailable(d time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.rebootUntil = s.now().Add(d)
}

func (s *MockServer) availabilityMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s.mu.Lock()
		rebooting := s.now().Before(s.rebootUntil)
		s.mu.Unlock()
		if rebooting {
			s.log.V(1).Info("Rejecting request while rebooting", "method", r.Method, "path", r.URL.Path)
			writeError(w, http.StatusServiceUnavailable, "ServiceTemporarilyUnavailable", "BMC is rebooting")
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *MockServer) authMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if s.options.Username == "" || s.options.Password == "" {
			next.ServeHTTP(w, r)
			return
		}
		// the service root and session login are reachable without credentials
		if r.URL.Path == "/redfish/v1" || r.URL.Path == "/redfish/v1/" ||
			(r.URL.Path == sessionPath && r.Method == http.MethodPost) {
			next.ServeHTTP(w, r)
			return
		}
		if token := r.Header.Get("X-Auth-Token"); token != "" {
			s.mu.Lock()
			_, ok := s.sessions[token]
			s.mu.Unlock()
			if ok {
				next.ServeHTTP(w, r)
				return
			}
		}
		user, pass, ok := r.BasicAuth()
		if !ok || !s.validCredentials(user, pass) {
			w.Header().Set("WWW-Authenticate", `Basic realm="Redfish"`)
			writeError(w, http.StatusUnauthorized, "InsufficientPrivilege", "Unauthorized")
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *MockServer) validCredentials(user, pass string) bool {
	return subtle.ConstantTimeCompare([]byte(user), []byte(s.options.Username)) == 1 &&
		subtle.ConstantTimeCompare([]byte(pass), []byte(s.options.Password)) == 1
}

func (s *MockServer) handleServiceRoot(w http.ResponseWriter, r *http.Request) {
	s.log.Info("Received request", "method", r.Method, "path", r.URL.Path)
	writeJSON(w, http.StatusOK, ServiceRoot{
		ODataType:      "#ServiceRoot.v1_5_0.ServiceRoot",
		ODataID:        "/redfish/v1",
		ID:             "RootService",
		Name:           "Root Service",
		RedfishVersion: "1.6.0",
		UUID:           ManagerUUID,
		Managers:       ODataID{ODataID: "/redfish/v1/Managers"},
		SessionService: ODataID{ODataID: "/redfish/v1/SessionService"},
		Links:          ServiceRootLinks{Sessions: ODataID{ODataID: sessionPath}},
	})
}

func (s *MockServer) handleCreateSession(w http.ResponseWriter, r *http.Request) {
	var req SessionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "MalformedJSON", "Invalid request body")
		return
	}
	if s.options.Username != "" && !s.validCredentials(req.UserName, req.Password) {
		writeError(w, http.StatusUnauthorized, "InsufficientPrivilege", "Invalid credentials")
		return
	}

	s.mu.Lock()
	s.sessionSeq++
	id := fmt.Sprintf("%d", s.sessionSeq)
	token := fmt.Sprintf("token-%s-%d", id, s.now().UnixNano())
	s.sessions[token] = id
	s.mu.Unlock()

	location := sessionPath + "/" + id
	w.Header().Set("X-Auth-Token", token)
	w.Header().Set("Location", location)
	writeJSON(w, http.StatusCreated, Session{
		ODataType: "#Session.v1_0_0.Session",
		ODataID:   location,
		ID:        id,
		Name:      "User Session",
		UserName:  req.UserName,
	})
}

func (s *MockServer) handleDeleteSession(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	s.mu.Lock()
	for token, sessionID := range s.sessions {
		if sessionID == id {
			delete(s.sessions, token)
		}
	}
	s.mu.Unlock()
	w.WriteHeader(http.StatusNoContent)
}

func (s *MockServer) handleManagerCollection(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, Collection{
		ODataType:    "#ManagerCollection.ManagerCollection",
		ODataID:      "/redfish/v1/Managers",
		Name:         "Manager Collection",
		MembersCount: 1,
		Members:      []ODataID{{ODataID: ManagerPath}},
	})
}

func (s *MockServer) handleGetManager(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	state := s.state
	if s.now().Before(s.startingUntil) {
		state = StateStarting
	}
	mgr := Manager{
		ODataType:       "#Manager.v1_10_0.Manager",
		ODataID:         ManagerPath,
		ID:              ManagerID,
		Name:            "OpenBMC Manager",
		UUID:            ManagerUUID,
		ManagerType:     "BMC",
		FirmwareVersion: s.firmwareVersion,
		Status:          Status{State: state, Health: "OK"},
		LogServices:     ODataID{ODataID: ManagerPath + "/LogServices"},
		Actions: ManagerActions{
			Reset: ResetAction{
				Target:          resetPath,
				AllowableValues: []string{"GracefulRestart", "ForceRestart"},
			},
		},
	}
	s.mu.Unlock()
	writeJSON(w, http.StatusOK, mgr)
}

func (s *MockServer) handleManagerReset(w http.ResponseWriter, r *http.Request) {
	var req ResetRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "MalformedJSON", "Invalid request body")
		return
	}
	if req.ResetType != "GracefulRestart" && req.ResetType != "ForceRestart" {
		writeError(w, http.StatusBadRequest, "ActionParameterNotSupported",
			fmt.Sprintf("ResetType %q is not supported", req.ResetType))
		return
	}

	s.mu.Lock()
	now := s.now()
	s.resets = append(s.resets, req.ResetType)
	s.rebootUntil = now.Add(s.options.RebootDuration)
	s.startingUntil = s.rebootUntil.Add(s.options.StartingDuration)
	s.state = StateEnabled
	if s.nextFirmware != "" {
		s.firmwareVersion = s.nextFirmware
		s.nextFirmware = ""
	}
	// a rebooted BMC forgets its sessions
	s.sessions = map[string]string{}
	s.mu.Unlock()

	s.log.Info("Manager reset requested", "resetType", req.ResetType)
	w.WriteHeader(http.StatusNoContent)
}

func (s *MockServer) handleLogServices(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, Collection{
		ODataType:    "#LogServiceCollection.LogServiceCollection",
		ODataID:      ManagerPath + "/LogServices",
		Name:         "Log Service Collection",
		MembersCount: 1,
		Members:      []ODataID{{ODataID: ManagerPath + "/LogServices/EventLog"}},
	})
}

func (s *MockServer) handleLogEntries(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	entries := make([]LogEntry, 0, len(s.resets))
	for i, resetType := range s.resets {
		id := fmt.Sprintf("%d", i+1)
		entries = append(entries, LogEntry{
			ODataType: "#LogEntry.v1_4_0.LogEntry",
			ODataID:   ManagerPath + "/LogServices/EventLog/Entries/" + id,
			ID:        id,
			Name:      "BMC Event Log Entry",
			EntryType: "Event",
			Severity:  "OK",
			Created:   s.now().UTC().Format(time.RFC3339),
			Message:   fmt.Sprintf("Manager reset (%s) requested", resetType),
		})
	}
	s.mu.Unlock()

	writeJSON(w, http.StatusOK, LogEntryCollection{
		ODataType:    "#LogEntryCollection.LogEntryCollection",
		ODataID:      ManagerPath + "/LogServices/EventLog/Entries",
		Name:         "BMC Event Log Entries",
		MembersCount: len(entries),
		Members:      entries,
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, RedfishError{Error: RedfishErrorBody{Code: code, Message: message}})
}

// Start starts the mock server and stops on ctx cancellation.
func (s *MockServer) Start(ctx context.Context) error {
	if s.handler == nil {
		return fmt.Errorf("mock redfish handler is nil")
	}

	srv := &http.Server{
		Addr:              s.addr,
		Handler:           s.handler,
		ReadHeaderTimeout: 5 * time.Second,
	}

	done := make(chan struct{})

	go func() {
		s.log.Info("Started mock server", "address", s.addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.log.Error(err, "Server failed")
		}
		close(done)
	}()

	<-ctx.Done()
	s.log.Info("Shutting down mock server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 250*time.Millisecond)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		s.log.Error(err, "Mock server shutdown failed")
	}
	<-done

	return nil
}
