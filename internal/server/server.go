package server

import (
	"context"
	"errors"
	"net"
	"net/http"
	"strings"
	"time"
)

// Server wraps an *http.Server to provide start/shutdown lifecycle.
type Server struct {
	httpServer *http.Server
	opts       Options
}

// Options are the tuning knobs for the underlying *http.Server. Zero values
// fall back to the defaults below.
type Options struct {
	ReadHeaderTimeout time.Duration
	WriteTimeout      time.Duration
	IdleTimeout       time.Duration
}

const (
	maxHeaderBytes           = 1 << 20 // 1 MB
	defaultReadHeaderTimeout = 10 * time.Second
	defaultWriteTimeout      = 10 * time.Second
	defaultIdleTimeout       = 60 * time.Second
)

// New returns a Server that will apply opts once Run is called.
func New(opts Options) *Server {
	return &Server{opts: opts}
}

func orDefault(d, def time.Duration) time.Duration {
	if d <= 0 {
		return def
	}
	return d
}

// newHTTPServer builds a configured *http.Server for the given address and handler.
func newHTTPServer(addr string, handler http.Handler, opts Options) *http.Server {
	return &http.Server{
		Addr:              addr,
		Handler:           handler,
		MaxHeaderBytes:    maxHeaderBytes,
		ReadHeaderTimeout: orDefault(opts.ReadHeaderTimeout, defaultReadHeaderTimeout),
		WriteTimeout:      orDefault(opts.WriteTimeout, defaultWriteTimeout),
		IdleTimeout:       orDefault(opts.IdleTimeout, defaultIdleTimeout),
	}
}

// normalizeAddr joins host and port, accepting "8080" or ":8080" for the port.
func normalizeAddr(host, port string) string {
	port = strings.TrimPrefix(port, ":")
	if port == "" {
		return ""
	}
	return net.JoinHostPort(host, port)
}

// Run starts the HTTP server on host:port using the provided handler. It
// returns nil once the server has been shut down.
func (s *Server) Run(host, port string, handler http.Handler) error {
	s.httpServer = newHTTPServer(normalizeAddr(host, port), handler, s.opts)
	if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown gracefully stops the server, allowing in-flight requests to complete.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.httpServer == nil {
		return nil
	}
	return s.httpServer.Shutdown(ctx)
}
