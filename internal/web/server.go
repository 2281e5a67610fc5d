package web

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"github.com/fna/tracker/internal/config"
)

type Server struct {
	handler *Handler
	server  *http.Server
	log     zerolog.Logger
}

func NewServer(cfg *config.Config, handler *Handler, log zerolog.Logger) *Server {
	metrics := newHTTPMetrics()

	r := chi.NewRouter()
	r.Use(requestLogger(log))
	r.Use(metrics.middleware)

	r.Route("/api", func(r chi.Router) {
		r.Get("/stats/daily", handler.handleDailyStats)
		r.Get("/stats/weekly", handler.handleWeeklyStats)
		r.Get("/history", handler.handleHistory)
		r.Get("/status", handler.handleStatus)
		r.Post("/track/wearable", handler.handleWearableIngest)

		r.Group(func(r chi.Router) {
			r.Use(bearerAuth(cfg.Summarizer.Secret))
			r.Post("/summarize", handler.handleSummarize)
		})
	})

	r.Get("/health", handler.handleHealth)
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())

	addr := fmt.Sprintf("%s:%d", cfg.Web.Host, cfg.Web.Port)
	httpServer := &http.Server{
		Addr:         addr,
		Handler:      r,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	return &Server{
		handler: handler,
		server:  httpServer,
		log:     log.With().Str("component", "web").Logger(),
	}
}

func (s *Server) Start() error {
	s.log.Info().Str("addr", s.server.Addr).Msg("starting web server")
	return s.server.ListenAndServe()
}

func (s *Server) Shutdown(ctx context.Context) error {
	s.log.Info().Msg("shutting down web server")
	return s.server.Shutdown(ctx)
}

func (s *Server) GetAddress() string {
	return s.server.Addr
}
