// Package profiler serves pprof endpoints on a separate port, so the runtime cost of
// registry loads and lookups can be inspected without exposing them on the main
// listener.
package profiler

import (
	"context"
	"errors"
	"net"
	"net/http"
	"net/http/pprof"
	"sync"
	"time"

	"github.com/pitabwire/util"

	"github.com/pitabwire/msgcacheperf/config"
)

const (
	// DefaultShutdownTimeout is the timeout for graceful shutdown of the pprof server.
	DefaultShutdownTimeout = 5 * time.Second
	// DefaultReadHeaderTimeout is the timeout for reading request headers to prevent Slowloris attacks.
	DefaultReadHeaderTimeout = 5 * time.Second
)

// Server manages the pprof server lifecycle.
type Server struct {
	mu     sync.Mutex
	server *http.Server
	addr   string
}

func NewServer() *Server {
	return &Server{}
}

// Handler returns a mux carrying only the pprof endpoints.
func Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/debug/pprof/", pprof.Index)
	mux.HandleFunc("/debug/pprof/cmdline", pprof.Cmdline)
	mux.HandleFunc("/debug/pprof/profile", pprof.Profile)
	mux.HandleFunc("/debug/pprof/symbol", pprof.Symbol)
	mux.HandleFunc("/debug/pprof/trace", pprof.Trace)
	return mux
}

// StartIfEnabled starts the pprof server when cfg enables it. The listener is bound
// before returning so bind errors surface to the caller.
func (s *Server) StartIfEnabled(ctx context.Context, cfg config.ConfigurationProfiler) error {
	if cfg == nil || !cfg.ProfilerEnabled() {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.server != nil {
		return nil
	}

	listener, err := net.Listen("tcp", cfg.ProfilerPort())
	if err != nil {
		return err
	}

	log := util.Log(ctx).WithField("addr", listener.Addr().String())
	log.Info("starting pprof server")

	srv := &http.Server{
		Handler:           Handler(),
		ReadHeaderTimeout: DefaultReadHeaderTimeout,
	}
	s.server = srv
	s.addr = listener.Addr().String()

	go func() {
		if serveErr := srv.Serve(listener); serveErr != nil && !errors.Is(serveErr, http.ErrServerClosed) {
			log.WithError(serveErr).Error("pprof server failed")
		}
	}()

	return nil
}

// Addr is the bound address, empty while stopped.
func (s *Server) Addr() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.addr
}

// Stop gracefully shuts down the pprof server.
func (s *Server) Stop(ctx context.Context) error {
	s.mu.Lock()
	srv := s.server
	s.server, s.addr = nil, ""
	s.mu.Unlock()

	if srv == nil {
		return nil
	}

	log := util.Log(ctx)
	log.Info("stopping pprof server")

	shutdownCtx, cancel := context.WithTimeout(ctx, DefaultShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.WithError(err).Error("failed to shutdown pprof server")
		return err
	}
	return nil
}

func (s *Server) IsRunning() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.server != nil
}
