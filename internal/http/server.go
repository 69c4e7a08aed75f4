// Package http contiene el servidor y los building blocks HTTP del servicio.
package http

import (
	"context"
	"net/http"
	"time"
)

// Server envuelve http.Server con defaults sanos para streaming: sin
// WriteTimeout global (mataría los streams SSE largos); el timeout del
// upstream acota la duración real.
type Server struct {
	srv *http.Server
}

func NewServer(addr string, handler http.Handler) *Server {
	return &Server{
		srv: &http.Server{
			Addr:              addr,
			Handler:           handler,
			ReadHeaderTimeout: 10 * time.Second,
			IdleTimeout:       120 * time.Second,
		},
	}
}

// Start bloquea hasta que el listener falle o Shutdown lo cierre.
// http.ErrServerClosed se traduce a nil: shutdown ordenado no es error.
func (s *Server) Start() error {
	err := s.srv.ListenAndServe()
	if err == http.ErrServerClosed {
		return nil
	}
	return err
}

// Shutdown drena las conexiones activas hasta que el ctx expire.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.srv.Shutdown(ctx)
}
