package http

import (
	"context"
	"errors"
	stdhttp "net/http"
	"time"

	"bemanning/internal/platform/config"
	"bemanning/internal/platform/logger"

	"github.com/go-chi/chi/v5"
)

// Server wraps a chi mux and a stdlib http.Server
type Server struct {
	addr    string
	mux     *chi.Mux
	srv     *stdhttp.Server
	drain   time.Duration
	onClose []func(context.Context) error
}

// NewServer reads API_PORT, READ_TIMEOUT, WRITE_TIMEOUT and DRAIN from cfg
func NewServer(cfg config.Conf) *Server {
	addr := cfg.MayString("API_PORT", ":4000")
	m := chi.NewRouter()
	return &Server{
		addr:  addr,
		mux:   m,
		drain: cfg.MayDuration("DRAIN", 15*time.Second),
		srv: &stdhttp.Server{
			Addr:              addr,
			Handler:           m,
			ReadHeaderTimeout: 10 * time.Second,
			ReadTimeout:       cfg.MayDuration("READ_TIMEOUT", 30*time.Second),
			WriteTimeout:      cfg.MayDuration("WRITE_TIMEOUT", 60*time.Second),
		},
	}
}

// Router returns a Router facade over the mux
func (s *Server) Router() Router { return AdaptChi(s.mux) }

// Handler exposes the mux for tests
func (s *Server) Handler() stdhttp.Handler { return s.mux }

// Addr returns the listening address
func (s *Server) Addr() string { return s.addr }

// OnShutdown registers hooks that run after the listener stops, in order
func (s *Server) OnShutdown(fn func(context.Context) error) { s.onClose = append(s.onClose, fn) }

// Run serves until ctx is canceled, then drains in flight requests and runs shutdown hooks
func (s *Server) Run(ctx context.Context) error {
	log := logger.Named("http")
	errCh := make(chan error, 1)
	go func() {
		log.Info().Str("addr", s.addr).Msg("http listening")
		errCh <- s.srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, stdhttp.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	sctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.drain)
	defer cancel()
	log.Info().Dur("drain", s.drain).Msg("http shutting down")
	return s.Shutdown(sctx)
}

// Shutdown stops the listener and runs the shutdown hooks
func (s *Server) Shutdown(ctx context.Context) error {
	errs := []error{s.srv.Shutdown(ctx)}
	for _, fn := range s.onClose {
		errs = append(errs, fn(ctx))
	}
	return errors.Join(errs...)
}
