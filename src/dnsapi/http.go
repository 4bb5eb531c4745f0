// Copyright (c) 2026 H0llyW00dzZ All rights reserved.
//
// By accessing or using this software, you agree to be bound by the terms
// of the License Agreement, which you can find at LICENSE files.

package dnsapi

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// HTTP server timeouts used by [Server.Run].
const (
	readTimeout     = 10 * time.Second
	writeTimeout    = 30 * time.Second
	idleTimeout     = 60 * time.Second
	shutdownTimeout = 10 * time.Second
)

const missingDomainMessage = "Domain parameter is required, e.g. /?domain=example.com"

// Handler returns the HTTP handler serving the DNS routes:
//
//	GET /?domain=<name>[&types=A,MX]             answers per named resolver
//	GET /propagation?domain=<name>[&types=...]   answers per public resolver
//	GET /health                                  liveness
//	GET /health/resolvers                        resolver status and latency
//	GET /metrics                                 Prometheus metrics
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /{$}", s.handleLookup)
	mux.HandleFunc("GET /propagation", s.handlePropagation)
	mux.HandleFunc("GET /health", s.handleHealth)
	mux.HandleFunc("GET /health/resolvers", s.handleResolverHealth)
	mux.Handle("GET /metrics", promhttp.HandlerFor(s.registry, promhttp.HandlerOpts{Registry: s.registry}))
	return s.middleware(mux)
}

// Run serves [Server.Handler] on addr until ctx is done, then shuts down
// gracefully. Idle rate limiters are pruned while the server runs.
func (s *Server) Run(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:         addr,
		Handler:      s.Handler(),
		ReadTimeout:  readTimeout,
		WriteTimeout: writeTimeout,
		IdleTimeout:  idleTimeout,
	}

	if s.limiters != nil {
		go s.pruneLimiters(ctx, limiterIdle)
	}

	serverErrors := make(chan error, 1)
	go func() {
		s.logger.Info().Str("addr", addr).Msg("dns api listening")
		serverErrors <- srv.ListenAndServe()
	}()

	select {
	case err := <-serverErrors:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		s.logger.Info().Msg("dns api shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			_ = srv.Close()
			return err
		}
		return nil
	}
}

// pruneLimiters drops idle client limiters until ctx is done.
func (s *Server) pruneLimiters(ctx context.Context, maxIdle time.Duration) {
	ticker := time.NewTicker(maxIdle)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			if n := s.limiters.prune(maxIdle); n > 0 {
				s.logger.Debug().Int("dropped", n).Msg("pruned idle rate limiters")
			}
		case <-ctx.Done():
			return
		}
	}
}

func (s *Server) handleLookup(w http.ResponseWriter, r *http.Request) {
	s.serveReport(w, r, s.Lookup)
}

func (s *Server) handlePropagation(w http.ResponseWriter, r *http.Request) {
	s.serveReport(w, r, s.Propagation)
}

type reportFunc func(ctx context.Context, domain string, types ...string) (Report, error)

func (s *Server) serveReport(w http.ResponseWriter, r *http.Request, fn reportFunc) {
	query := r.URL.Query()
	domain := strings.TrimSpace(query.Get("domain"))
	if domain == "" {
		writeError(w, http.StatusBadRequest, missingDomainMessage)
		return
	}

	report, err := fn(r.Context(), domain, splitTypes(query.Get("types"))...)
	switch {
	case errors.Is(err, ErrInvalidDomain):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, ErrNoResolvers):
		writeError(w, http.StatusServiceUnavailable, err.Error())
	case err != nil:
		writeError(w, http.StatusInternalServerError, err.Error())
	default:
		writeJSON(w, http.StatusOK, report)
	}
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleResolverHealth(w http.ResponseWriter, r *http.Request) {
	statuses, err := s.ResolverHealth(r.Context())
	if errors.Is(err, ErrNoResolvers) {
		writeError(w, http.StatusServiceUnavailable, err.Error())
		return
	}

	online := 0
	for _, st := range statuses {
		if st.Online {
			online++
		}
	}
	status := "ok"
	if online < len(statuses) {
		status = "degraded"
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"status":    status,
		"resolvers": statuses,
	})
}

// middleware applies the per-client rate limit, then records metrics and an
// access log line. Health and metrics routes are never rate limited.
func (s *Server) middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		route := routeLabel(r.URL.Path)
		ip := clientIP(r, s.trusted)

		if s.limiters != nil && !exemptFromLimit(r.URL.Path) && !s.limiters.allow(ip) {
			s.metrics.rateLimited.Inc()
			s.metrics.requests.WithLabelValues(route, strconv.Itoa(http.StatusTooManyRequests)).Inc()
			s.logger.Warn().Str("ip", ip).Str("path", r.URL.Path).Msg("rate limit exceeded")
			writeError(w, http.StatusTooManyRequests, "rate limit exceeded")
			return
		}

		rw := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}
		next.ServeHTTP(rw, r)

		duration := time.Since(start)
		s.metrics.requestDuration.WithLabelValues(route).Observe(duration.Seconds())
		s.metrics.requests.WithLabelValues(route, strconv.Itoa(rw.statusCode)).Inc()

		s.logger.Info().
			Str("ip", ip).
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", rw.statusCode).
			Dur("duration", duration).
			Msg("request")
	})
}

func exemptFromLimit(path string) bool {
	return path == "/metrics" || path == "/health" || strings.HasPrefix(path, "/health/")
}

// splitTypes parses a comma-separated list of record types.
func splitTypes(raw string) []string {
	if raw == "" {
		return nil
	}
	return normalizeTypes(strings.Split(raw, ","))
}

// responseWriter captures the status code written by a handler.
type responseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, code int, msg string) {
	writeJSON(w, code, map[string]string{"error": msg})
}
