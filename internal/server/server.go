// Package server exposes the habit service over HTTP.
package server

import (
	"context"
	"errors"
	"net"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"

	"github.com/julianstephens/streaks/internal/constants"
	"github.com/julianstephens/streaks/internal/logger"
)

// Config holds the HTTP server settings.
type Config struct {
	Addr            string
	AllowedOrigins  []string
	RateLimit       float64 // requests per second; <= 0 disables limiting
	RateBurst       int
	MaxBodyBytes    int64
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	ShutdownTimeout time.Duration
}

// DefaultConfig returns the settings used when nothing is configured.
func DefaultConfig() Config {
	return Config{
		Addr:            constants.DefaultListenAddr,
		AllowedOrigins:  []string{"*"},
		RateLimit:       constants.DefaultRateLimit,
		RateBurst:       constants.DefaultRateBurst,
		MaxBodyBytes:    constants.MaxRequestBodyBytes,
		ReadTimeout:     constants.ServerReadTimeout,
		WriteTimeout:    constants.ServerWriteTimeout,
		ShutdownTimeout: constants.ServerShutdownTimeout,
	}
}

type Server struct {
	cfg     Config
	router  chi.Router
	metrics *metrics
}

func New(svc HabitService, cfg Config) *Server {
	defaults := DefaultConfig()
	if cfg.MaxBodyBytes <= 0 {
		cfg.MaxBodyBytes = defaults.MaxBodyBytes
	}
	if cfg.ShutdownTimeout <= 0 {
		cfg.ShutdownTimeout = defaults.ShutdownTimeout
	}
	if len(cfg.AllowedOrigins) == 0 {
		cfg.AllowedOrigins = defaults.AllowedOrigins
	}

	s := &Server{
		cfg:     cfg,
		metrics: newMetrics(),
	}
	s.router = s.routes(svc)
	return s
}

func (s *Server) routes(svc HabitService) chi.Router {
	habits := newHabitHandler(svc, s.metrics)

	r := chi.NewRouter()

	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(requestLogger(s.metrics))
	r.Use(chimiddleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   s.cfg.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Content-Type"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	r.Get("/health", health)
	r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(s.metrics.registry, promhttp.HandlerOpts{}))

	r.Route("/api/habits", func(r chi.Router) {
		if s.cfg.RateLimit > 0 {
			burst := s.cfg.RateBurst
			if burst < 1 {
				burst = 1
			}
			r.Use(rateLimit(rate.NewLimiter(rate.Limit(s.cfg.RateLimit), burst), s.metrics))
		}
		r.Use(limitBody(s.cfg.MaxBodyBytes))

		r.Get("/", habits.ListHabits)
		r.Post("/", habits.CreateHabit)
		r.Patch("/{id}/toggle", habits.ToggleHabit)
		r.Delete("/{id}", habits.DeleteHabit)
	})

	return r
}

// Handler returns the HTTP handler serving the API.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Run serves on the configured address until ctx is canceled, then shuts
// down gracefully.
func (s *Server) Run(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.cfg.Addr)
	if err != nil {
		return err
	}
	return s.Serve(ctx, ln)
}

// Serve is Run on an existing listener.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	srv := &http.Server{
		Handler:      s.router,
		ReadTimeout:  s.cfg.ReadTimeout,
		WriteTimeout: s.cfg.WriteTimeout,
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		logger.Info("Server listening", "addr", ln.Addr().String())
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		logger.Info("Shutting down server")

		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.cfg.ShutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	return g.Wait()
}
