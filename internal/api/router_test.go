// VibeMatch - Listener Matching by Music Taste
// Copyright 2026 The VibeMatch Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/Fraga9/VibeMatch

package api

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/goccy/go-json"
	"github.com/rs/zerolog"

	"github.com/Fraga9/VibeMatch/internal/similarity"
	"github.com/Fraga9/VibeMatch/internal/taste"
)

type fakeEngine struct {
	closed bool
}

func (f *fakeEngine) Stats() taste.Stats {
	return taste.Stats{CatalogMode: "synthetic", Artists: 8, Dimension: 4, Embeds: 3}
}

func (f *fakeEngine) Closed() bool { return f.closed }

// brokenStore fails every call.
type brokenStore struct {
	similarity.Store
}

func (brokenStore) Count(context.Context, similarity.Filter) (int, error) {
	return 0, errors.New("disk on fire\nFAKE LOG LINE")
}

func serve(t *testing.T, h http.Handler, path string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, path, http.NoBody)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestHealthzAndReadyz(t *testing.T) {
	engine := &fakeEngine{}
	h := NewRouter(engine, nil).Handler()

	if rec := serve(t, h, "/healthz"); rec.Code != http.StatusOK {
		t.Errorf("healthz = %d", rec.Code)
	}
	if rec := serve(t, h, "/readyz"); rec.Code != http.StatusOK {
		t.Errorf("readyz = %d", rec.Code)
	}

	engine.closed = true
	rec := serve(t, h, "/readyz")
	if rec.Code != http.StatusServiceUnavailable {
		t.Errorf("readyz after close = %d", rec.Code)
	}
	var body ErrorResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("invalid error body: %v", err)
	}
	if body.Code != "ENGINE_CLOSED" {
		t.Errorf("code = %q", body.Code)
	}
	if serve(t, h, "/healthz").Code != http.StatusOK {
		t.Error("healthz must stay up after close")
	}
}

func TestReadyzStoreFailure(t *testing.T) {
	h := NewRouter(&fakeEngine{}, brokenStore{}).Handler()
	if rec := serve(t, h, "/readyz"); rec.Code != http.StatusServiceUnavailable {
		t.Errorf("readyz with broken store = %d", rec.Code)
	}
}

func TestStats(t *testing.T) {
	store, err := similarity.NewChromemStore(similarity.ChromemOptions{Dimension: 2}, zerolog.Nop())
	if err != nil {
		t.Fatal(err)
	}
	ctx := context.Background()
	_ = store.Upsert(ctx, similarity.Record{Username: "alice", Vector: []float32{1, 0}, IsReal: true})
	_ = store.Upsert(ctx, similarity.Record{Username: "ghost", Vector: []float32{0, 1}})
	breaker := similarity.NewBreakerStore(store, similarity.DefaultBreakerSettings())

	rec := serve(t, NewRouter(&fakeEngine{}, breaker).Handler(), "/stats")
	if rec.Code != http.StatusOK {
		t.Fatalf("stats = %d", rec.Code)
	}
	var resp StatsResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("invalid stats body: %v", err)
	}
	if resp.Engine.CatalogMode != "synthetic" || resp.Engine.Embeds != 3 {
		t.Errorf("unexpected engine stats %+v", resp.Engine)
	}
	if resp.Similarity == nil {
		t.Fatal("expected similarity stats")
	}
	if resp.Similarity.Users != 2 || resp.Similarity.Real != 1 || resp.Similarity.Breaker != "closed" {
		t.Errorf("unexpected similarity stats %+v", resp.Similarity)
	}

	noStore := serve(t, NewRouter(&fakeEngine{}, nil).Handler(), "/stats")
	if strings.Contains(noStore.Body.String(), "similarity") {
		t.Errorf("similarity section should be omitted: %s", noStore.Body.String())
	}
}

func TestMetricsEndpoint(t *testing.T) {
	h := NewRouter(&fakeEngine{}, nil).Handler()
	serve(t, h, "/healthz")
	serve(t, h, "/no-such-route")

	rec := serve(t, h, "/metrics")
	if rec.Code != http.StatusOK {
		t.Fatalf("metrics = %d", rec.Code)
	}
	body := rec.Body.String()
	for _, want := range []string{
		`vibematch_ops_http_requests_total{method="GET",route="/healthz",status="200"}`,
		`route="unmatched",status="404"`,
		"vibematch_ops_http_active_requests",
	} {
		if !strings.Contains(body, want) {
			t.Errorf("exposition missing %s", want)
		}
	}
}

func TestRateLimitByIP(t *testing.T) {
	h := NewRouter(&fakeEngine{}, nil, WithRateLimit(2, time.Minute)).Handler()
	for i := 0; i < 2; i++ {
		if rec := serve(t, h, "/healthz"); rec.Code != http.StatusOK {
			t.Fatalf("request %d = %d, want 200", i, rec.Code)
		}
	}
	rec := serve(t, h, "/healthz")
	if rec.Code != http.StatusTooManyRequests {
		t.Fatalf("third request = %d, want 429", rec.Code)
	}
	var body ErrorResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatal(err)
	}
	if body.Code != "RATE_LIMITED" {
		t.Errorf("code = %q", body.Code)
	}

	unlimited := NewRouter(&fakeEngine{}, nil, WithRateLimit(0, time.Minute)).Handler()
	for i := 0; i < 5; i++ {
		if rec := serve(t, unlimited, "/healthz"); rec.Code != http.StatusOK {
			t.Fatalf("unlimited request %d = %d", i, rec.Code)
		}
	}
}

func TestSanitizeLogValue(t *testing.T) {
	if got := sanitizeLogValue("a\nb\rc"); got != "a b c" {
		t.Errorf("sanitizeLogValue = %q", got)
	}
}
