package main

import (
	"context"
	"net/http"
)

// httpServer wraps net/http.Server so main can hold a single handle for
// both serving and graceful shutdown without exposing the whole
// net/http.Server surface.
type httpServer struct {
	addr    string
	handler http.Handler

	srv *http.Server
}

func (s *httpServer) ListenAndServe() error {
	s.srv = &http.Server{Addr: s.addr, Handler: s.handler}
	err := s.srv.ListenAndServe()
	if err == http.ErrServerClosed {
		return nil
	}
	return err
}

func (s *httpServer) Shutdown(ctx context.Context) error {
	if s.srv == nil {
		return nil
	}
	return s.srv.Shutdown(ctx)
}
