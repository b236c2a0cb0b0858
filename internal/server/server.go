package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strings"
	"time"

	"log/slog"

	"rumormill/internal/api"
	"rumormill/internal/journal"
	"rumormill/internal/logging"
	"rumormill/internal/rumor"
	"rumormill/internal/trigger"
)

// Server is the HTTP facade over the running daemon. The zero value is not
// usable; construct with New. A nil *Server is safe to Start and Stop so the
// daemon can treat an unbound API uniformly.
type Server struct {
	bind     string
	logger   *slog.Logger
	registry *rumor.Registry
	queue    *trigger.Queue
	journal  *journal.Store
	status   func(context.Context) api.DaemonStatus

	listener net.Listener
	server   *http.Server
}

// Options wires the facade to the daemon's components. Status supplies the
// aggregated snapshot served on /api/status; the indirection keeps this
// package from depending on the daemon.
type Options struct {
	Bind     string
	Registry *rumor.Registry
	Queue    *trigger.Queue
	Journal  *journal.Store
	Status   func(context.Context) api.DaemonStatus
	Logger   *slog.Logger
}

// New builds the server and its routes. It returns nil when no bind address
// is configured or no registry is supplied.
func New(opts Options) *Server {
	bind := strings.TrimSpace(opts.Bind)
	if bind == "" || opts.Registry == nil {
		return nil
	}

	srv := &Server{
		bind:     bind,
		logger:   opts.Logger,
		registry: opts.Registry,
		queue:    opts.Queue,
		journal:  opts.Journal,
		status:   opts.Status,
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/api/rumors", srv.handleRumors)
	mux.HandleFunc("/api/rumors/", srv.handleRumorItem)
	mux.HandleFunc("/api/status", srv.handleStatus)
	mux.HandleFunc("/api/journal", srv.handleJournal)
	mux.HandleFunc("/api/print", srv.handlePrint)
	mux.HandleFunc("/", srv.handleUI)

	srv.server = &http.Server{
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}
	return srv
}

// Start binds the listener and serves until ctx is cancelled.
func (s *Server) Start(ctx context.Context) error {
	if s == nil {
		return nil
	}
	listener, err := net.Listen("tcp", s.bind)
	if err != nil {
		return fmt.Errorf("api listen: %w", err)
	}
	s.listener = listener

	go func() {
		if err := s.server.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.log().Error("api server error", logging.Error(err))
		}
	}()

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = s.server.Shutdown(shutdownCtx)
	}()

	s.log().Info("api server listening", logging.String("address", listener.Addr().String()))
	return nil
}

// Stop drains in-flight requests and releases the listener.
func (s *Server) Stop() {
	if s == nil {
		return
	}
	if s.server != nil {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = s.server.Shutdown(shutdownCtx)
	}
	if s.listener != nil {
		_ = s.listener.Close()
		s.listener = nil
	}
}

// Addr reports the bound listener address, falling back to the configured
// bind string before Start. Useful when binding to port 0.
func (s *Server) Addr() string {
	if s == nil {
		return ""
	}
	if s.listener != nil {
		return s.listener.Addr().String()
	}
	return s.bind
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if payload == nil {
		return
	}
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		s.log().Error("failed to encode response", logging.Error(err))
	}
}

func (s *Server) writeError(w http.ResponseWriter, status int, message string) {
	s.writeJSON(w, status, map[string]string{"error": message})
}

// writeErrorFor maps registry and decode errors onto the wire contract.
func (s *Server) writeErrorFor(w http.ResponseWriter, err error) {
	status, message := api.ErrorStatus(err)
	s.writeError(w, status, message)
}

func (s *Server) log() *slog.Logger {
	if s.logger != nil {
		return s.logger.With(logging.String("component", "api-server"))
	}
	return logging.NewNop()
}
