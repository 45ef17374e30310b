package web

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"github.com/intothevoid/prodcam/internal/log"
)

// Server wraps the HTTP server and handlers.
type Server struct {
	addr     string
	handlers *Handlers
}

// NewServer creates a server listening on addr once Run is called.
func NewServer(addr string, ctrl Controller) *Server {
	return &Server{addr: addr, handlers: NewHandlers(ctrl, nil)}
}

// Publish pushes a state change to /events clients. It matches the
// session controller's state observer signature.
func (s *Server) Publish(state string) {
	s.handlers.events.Publish(state)
}

// Router returns an http.Handler with all routes registered.
func (s *Server) Router() http.Handler {
	r := mux.NewRouter()
	r.HandleFunc("/health", s.handlers.HandleHealth).Methods(http.MethodGet)
	r.HandleFunc("/status", s.handlers.HandleStatus).Methods(http.MethodGet)
	r.HandleFunc("/capture", s.handlers.HandleCapture).Methods(http.MethodPost)
	r.HandleFunc("/still.jpg", s.handlers.HandleStill).Methods(http.MethodGet)
	r.HandleFunc("/events", s.handlers.HandleEvents).Methods(http.MethodGet)
	return r
}

// Run starts the server and blocks until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.addr,
		Handler:           s.Router(),
		ReadHeaderTimeout: 5 * time.Second,
	}
	errCh := make(chan error, 1)
	go func() {
		log.Info("web server listening", "addr", s.addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	}
}
