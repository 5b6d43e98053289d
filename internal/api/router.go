// VibeMatch - Listener Matching by Music Taste
// Copyright 2026 The VibeMatch Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/Fraga9/VibeMatch

package api

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/Fraga9/VibeMatch/internal/similarity"
	"github.com/Fraga9/VibeMatch/internal/taste"
)

// Engine is the part of *taste.Engine the ops endpoints read.
type Engine interface {
	Stats() taste.Stats
	Closed() bool
}

// BreakerState reports a circuit breaker state such as "closed".
type BreakerState interface {
	State() string
}

// Router holds the dependencies of the ops handlers. Store may be nil when
// the similarity store is disabled.
type Router struct {
	engine       Engine
	store        similarity.Store
	probeTimeout time.Duration
	started      time.Time

	rateRequests int
	rateWindow   time.Duration
}

// Option configures a Router.
type Option func(*Router)

// WithRateLimit limits each client IP to requests per window. A
// non-positive requests value disables limiting.
func WithRateLimit(requests int, window time.Duration) Option {
	return func(r *Router) {
		r.rateRequests = requests
		r.rateWindow = window
	}
}

// NewRouter creates a Router.
func NewRouter(engine Engine, store similarity.Store, opts ...Option) *Router {
	r := &Router{
		engine:       engine,
		store:        store,
		probeTimeout: 2 * time.Second,
		started:      time.Now(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Handler returns the chi handler with all ops routes.
func (router *Router) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(RequestIDWithLogging())
	r.Use(PrometheusMetrics)
	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.Recoverer)
	r.Use(RateLimitByIP(router.rateRequests, router.rateWindow))

	r.Get("/healthz", router.Healthz)
	r.Get("/readyz", router.Readyz)
	r.Get("/stats", router.Stats)
	r.Handle("/metrics", promhttp.Handler())
	return r
}

// StatsResponse is the body of GET /stats.
type StatsResponse struct {
	Uptime     string           `json:"uptime"`
	Engine     taste.Stats      `json:"engine"`
	Similarity *SimilarityStats `json:"similarity,omitempty"`
}

// SimilarityStats describes the similarity store.
type SimilarityStats struct {
	Users   int    `json:"users"`
	Real    int    `json:"real"`
	Breaker string `json:"breaker,omitempty"`
	Error   string `json:"error,omitempty"`
}

// Healthz reports liveness.
func (router *Router) Healthz(w http.ResponseWriter, _ *http.Request) {
	respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// Readyz reports whether embeddings can be served and stored.
func (router *Router) Readyz(w http.ResponseWriter, r *http.Request) {
	if router.engine.Closed() {
		respondError(w, http.StatusServiceUnavailable, "ENGINE_CLOSED", "embedding engine is closed", nil)
		return
	}
	if router.store != nil {
		ctx, cancel := context.WithTimeout(r.Context(), router.probeTimeout)
		defer cancel()
		if _, err := router.store.Count(ctx, similarity.Filter{}); err != nil {
			respondError(w, http.StatusServiceUnavailable, "STORE_UNAVAILABLE", "similarity store unavailable", err)
			return
		}
	}
	respondJSON(w, http.StatusOK, map[string]string{"status": "ready"})
}

// Stats reports engine and store counters.
func (router *Router) Stats(w http.ResponseWriter, r *http.Request) {
	resp := StatsResponse{
		Uptime: time.Since(router.started).Round(time.Second).String(),
		Engine: router.engine.Stats(),
	}
	if router.store != nil {
		resp.Similarity = router.similarityStats(r.Context())
	}
	respondJSON(w, http.StatusOK, resp)
}

func (router *Router) similarityStats(ctx context.Context) *SimilarityStats {
	ctx, cancel := context.WithTimeout(ctx, router.probeTimeout)
	defer cancel()

	s := &SimilarityStats{}
	if b, ok := router.store.(BreakerState); ok {
		s.Breaker = b.State()
	}
	var err error
	if s.Users, err = router.store.Count(ctx, similarity.Filter{}); err != nil {
		s.Error = err.Error()
		return s
	}
	if s.Real, err = router.store.Count(ctx, similarity.Real); err != nil {
		s.Error = err.Error()
	}
	return s
}
