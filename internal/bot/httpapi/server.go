package httpapi

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/charmbracelet/log"

	"github.com/louisbranch/commandeer/internal/platform/timeouts"
)

// Server hosts the interactions endpoint.
type Server struct {
	listener        net.Listener
	httpServer      *http.Server
	endpoint        *Endpoint
	logger          *log.Logger
	shutdownTimeout time.Duration
}

// NewServer listens on addr and serves endpoint's routes.
func NewServer(addr string, endpoint *Endpoint, logger *log.Logger) (*Server, error) {
	if endpoint == nil {
		return nil, errors.New("endpoint is required")
	}
	if logger == nil {
		logger = log.Default()
	}
	listener, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("listen on %s: %w", addr, err)
	}
	return &Server{
		listener: listener,
		httpServer: &http.Server{
			Handler:           endpoint.Routes(),
			ReadHeaderTimeout: timeouts.ReadHeader,
		},
		endpoint:        endpoint,
		logger:          logger,
		shutdownTimeout: timeouts.Shutdown,
	}, nil
}

// Addr returns the bound listener address.
func (s *Server) Addr() string {
	if s == nil || s.listener == nil {
		return ""
	}
	return s.listener.Addr().String()
}

// Serve runs until ctx ends, then stops accepting requests and waits for
// in-flight command chains within the shutdown timeout.
func (s *Server) Serve(ctx context.Context) error {
	if s == nil {
		return errors.New("server is nil")
	}
	if ctx == nil {
		return errors.New("context is required")
	}

	serveErr := make(chan error, 1)
	s.logger.Info("interactions endpoint listening", "addr", s.Addr(), "path", InteractionsPath)
	go func() {
		serveErr <- s.httpServer.Serve(s.listener)
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), s.shutdownTimeout)
		defer cancel()
		var errs []error
		if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
			errs = append(errs, fmt.Errorf("shutdown http server: %w", err))
		}
		if err := s.endpoint.Drain(shutdownCtx); err != nil {
			errs = append(errs, fmt.Errorf("drain command chains: %w", err))
		}
		return errors.Join(errs...)
	case err := <-serveErr:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("serve http: %w", err)
	}
}

// Close releases the listener of a server that may never have served.
func (s *Server) Close() error {
	if s == nil || s.listener == nil {
		return nil
	}
	if err := s.listener.Close(); err != nil && !errors.Is(err, net.ErrClosed) {
		return fmt.Errorf("close listener: %w", err)
	}
	return nil
}
