// VibeMatch - Listener Matching by Music Taste
// Copyright 2026 The VibeMatch Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/Fraga9/VibeMatch

/*
Package api serves the operations endpoints of the VibeMatch server.

There is no product API here. The router exposes:

	GET /healthz   liveness, always 200 while the process runs
	GET /readyz    503 once the engine is closed or the store fails a count
	GET /stats     engine, cache and similarity store counters as JSON
	GET /metrics   Prometheus exposition

Every request passes through request-ID and correlation-ID logging,
per-route Prometheus counters (vibematch_ops_http_*), panic recovery and an
optional per-IP rate limit (server.rate_limit_requests per
server.rate_limit_window, answered with 429 RATE_LIMITED).

The handler is mounted by the ops HTTP service in internal/supervisor.
*/
package api
