package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"sync"
	"time"
)

// server starts the HTTP listener at most once, either at startup or from a
// post-connect hook.
type server struct {
	srv    *http.Server
	logger *slog.Logger

	mu      sync.Mutex
	started bool
}

func newServer(addr string, handler http.Handler, logger *slog.Logger) *server {
	return &server{
		srv: &http.Server{
			Addr:              addr,
			Handler:           handler,
			ReadHeaderTimeout: 5 * time.Second,
			ReadTimeout:       10 * time.Second,
			WriteTimeout:      30 * time.Second,
			IdleTimeout:       120 * time.Second,
		},
		logger: logger,
	}
}

// Start binds the listen address and serves in the background. Later calls
// are no-ops once a bind has succeeded.
func (s *server) Start(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started {
		return nil
	}

	ln, err := net.Listen("tcp", s.srv.Addr)
	if err != nil {
		return fmt.Errorf("listen on %s: %w", s.srv.Addr, err)
	}
	s.started = true

	s.logger.Info("http server starting", "addr", ln.Addr().String())
	go s.serve(ln)
	return nil
}

// serve runs the accept loop. A panic outside the handlers is logged and
// leaves the rest of the process running.
func (s *server) serve(ln net.Listener) {
	defer func() {
		if v := recover(); v != nil {
			s.logger.Error("panic in http server", "panic", v)
		}
	}()

	if err := s.srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
		s.logger.Error("http server error", "error", err)
	}
}

// Shutdown drains the server if it was started.
func (s *server) Shutdown(ctx context.Context) error {
	s.mu.Lock()
	started := s.started
	s.mu.Unlock()

	if !started {
		return nil
	}
	return s.srv.Shutdown(ctx)
}
