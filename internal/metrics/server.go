// Copyright (c) 2025, s0up and the autobrr contributors.
// SPDX-License-Identifier: GPL-2.0-or-later

package metrics

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog/log"
)

type Server struct {
	server         *http.Server
	basicAuthUsers map[string]string
}

// NewMetricsServer serves /metrics and /healthz. basicAuthUsers is a comma
// separated list of user:password pairs; empty disables auth.
func NewMetricsServer(manager *MetricsManager, host string, port int, basicAuthUsers string) *Server {
	s := &Server{
		basicAuthUsers: make(map[string]string),
	}

	if basicAuthUsers != "" {
		for cred := range strings.SplitSeq(basicAuthUsers, ",") {
			user, pass, ok := strings.Cut(strings.TrimSpace(cred), ":")
			if !ok || user == "" {
				log.Warn().Msg("Ignoring invalid metrics basic auth entry")
				continue
			}
			s.basicAuthUsers[user] = pass
		}
	}

	s.server = &http.Server{
		Addr:              fmt.Sprintf("%s:%d", host, port),
		Handler:           s.routes(manager),
		ReadHeaderTimeout: 10 * time.Second,
	}

	return s
}

func (s *Server) routes(manager *MetricsManager) http.Handler {
	router := chi.NewRouter()

	router.Use(middleware.RealIP)
	router.Use(middleware.Recoverer)

	router.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	handler := promhttp.HandlerFor(manager.GetRegistry(), promhttp.HandlerOpts{
		EnableOpenMetrics: true,
	})

	router.Group(func(r chi.Router) {
		if len(s.basicAuthUsers) > 0 {
			r.Use(middleware.BasicAuth("metrics", s.basicAuthUsers))
		}
		r.Get("/metrics", handler.ServeHTTP)
	})

	return router
}

// Handler exposes the router, mainly for tests.
func (s *Server) Handler() http.Handler {
	return s.server.Handler
}

func (s *Server) ListenAndServe() error {
	log.Info().
		Str("address", s.server.Addr).
		Msg("Starting Prometheus metrics server")

	err := s.server.ListenAndServe()
	if err == http.ErrServerClosed {
		return nil
	}
	return err
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.server.Shutdown(ctx)
}
