package server

import (
	"context"
	"errors"
	"net/http"
	"sync"

	"github.com/BloggingApp/community-service/internal/config"
)

type Server struct {
	mu         sync.Mutex
	httpServer *http.Server
	closed     bool
}

func New() *Server {
	return &Server{}
}

// Run blocks serving cfg.Handler. It returns nil once Shutdown has been called, also
// when Shutdown ran before Run got to start listening.
func (s *Server) Run(cfg config.ServerConfig) error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil
	}
	s.httpServer = &http.Server{
		Addr:           ":" + cfg.Port,
		Handler:        cfg.Handler,
		MaxHeaderBytes: cfg.MaxHeaderBytes,
		ReadTimeout:    cfg.ReadTimeout,
		WriteTimeout:   cfg.WriteTimeout,
	}
	httpServer := s.httpServer
	s.mu.Unlock()

	if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}

	return nil
}

func (s *Server) Shutdown(ctx context.Context) error {
	s.mu.Lock()
	s.closed = true
	httpServer := s.httpServer
	s.mu.Unlock()

	if httpServer == nil {
		return nil
	}

	return httpServer.Shutdown(ctx)
}
