// Package server exposes a live grephite session over HTTP.
//
// The server owns the tick loop: a ticker at the configured rate drives
// [sim.World.Tick], while HTTP handlers queue requests (path searches, script
// steps, color commands) that the next tick carries out. Every handler only
// calls World methods, which are safe for concurrent use.
package server

import (
	"context"
	stderrors "errors"
	"io"
	"net/http"
	"time"

	"github.com/charmbracelet/log"
	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/matzehuels/grephite/pkg/errors"
	"github.com/matzehuels/grephite/pkg/script"
	"github.com/matzehuels/grephite/pkg/sim"
)

const (
	// DefaultTickRate is the tick loop frequency in ticks per second.
	DefaultTickRate = 60

	shutdownTimeout = 5 * time.Second
)

// Options configures a Server.
type Options struct {
	Logger *log.Logger
	// Library serves POST /api/scripts/load by name. Nil disables loading
	// by name; inline sources are still accepted.
	Library *script.Library
	// Gatherer backs GET /metrics. Nil disables the endpoint.
	Gatherer prometheus.Gatherer
	// TickRate is the number of ticks per second.
	TickRate int
}

// Server serves one World.
type Server struct {
	world    *sim.World
	logger   *log.Logger
	lib      *script.Library
	gatherer prometheus.Gatherer
	rate     int
}

// New creates a server around w.
func New(w *sim.World, opts Options) *Server {
	if opts.Logger == nil {
		opts.Logger = log.NewWithOptions(io.Discard, log.Options{})
	}
	if opts.TickRate <= 0 {
		opts.TickRate = DefaultTickRate
	}
	return &Server{
		world:    w,
		logger:   opts.Logger,
		lib:      opts.Library,
		gatherer: opts.Gatherer,
		rate:     opts.TickRate,
	}
}

// Handler returns the HTTP routes.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.Recoverer)
	r.Use(requestLogger(s.logger))

	r.Get("/healthz", s.health)
	if s.gatherer != nil {
		r.Handle("/metrics", promhttp.HandlerFor(s.gatherer, promhttp.HandlerOpts{}))
	}

	r.Route("/api", func(r chi.Router) {
		r.Get("/frame", s.getFrame)

		r.Route("/layout", func(r chi.Router) {
			r.Get("/", s.getLayout)
			r.Put("/", s.putLayout)
			r.Post("/physics", s.setPhysics)
		})

		r.Route("/path", func(r chi.Router) {
			r.Get("/", s.getPath)
			r.Post("/", s.requestPath)
			r.Delete("/", s.clearPath)
		})

		r.Route("/scripts", func(r chi.Router) {
			r.Get("/", s.listScripts)
			r.Get("/session", s.getSession)
			r.Post("/load", s.loadScript)
			r.Post("/step", s.stepScript)
			r.Post("/toggle", s.toggleScript)
			r.Post("/stop", s.stopScript)
			r.Put("/speed", s.setSpeed)
		})

		r.Route("/nodes", func(r chi.Router) {
			r.Post("/", s.addNode)
			r.Delete("/{nodeID}", s.deleteNode)
			r.Put("/{nodeID}/color", s.setColor)
			r.Delete("/{nodeID}/color", s.resetColor)
		})

		r.Route("/edges", func(r chi.Router) {
			r.Post("/", s.addEdge)
			r.Delete("/{edgeID}", s.deleteEdge)
		})
	})
	return r
}

// Run serves on addr and ticks the world until ctx is done, then shuts the
// HTTP server down gracefully.
func (s *Server) Run(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errc := make(chan error, 1)
	go func() {
		s.logger.Info("listening", "addr", addr, "tick_rate", s.rate)
		if err := srv.ListenAndServe(); err != nil && !stderrors.Is(err, http.ErrServerClosed) {
			errc <- err
		}
		close(errc)
	}()

	loopCtx, stop := context.WithCancel(ctx)
	defer stop()
	go s.tickLoop(loopCtx)

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
	}

	s.logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	return ctx.Err()
}

// tickLoop calls Tick at the configured rate, passing the measured wall
// time since the previous tick.
func (s *Server) tickLoop(ctx context.Context) {
	t := time.NewTicker(time.Second / time.Duration(s.rate))
	defer t.Stop()

	last := time.Now()
	for {
		select {
		case <-ctx.Done():
			return
		case now := <-t.C:
			s.tick(ctx, now.Sub(last))
			last = now
		}
	}
}

// tick advances the world once. Faults in the user's script are logged as
// warnings; anything else is a server error.
func (s *Server) tick(ctx context.Context, dt time.Duration) sim.TickReport {
	rep := s.world.Tick(ctx, dt)
	if err := rep.ScriptErr; err != nil {
		if errors.IsScriptFault(err) {
			s.logger.Warn("script failed", "tick", rep.Tick, "err", err)
		} else {
			s.logger.Error("script step failed", "tick", rep.Tick, "err", err)
		}
	}
	return rep
}
