// VibeMatch - Listener Matching by Music Taste
// Copyright 2026 The VibeMatch Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/Fraga9/VibeMatch

/*
Package services adapts VibeMatch components to suture.Service.

Each wrapper turns a component lifecycle into Serve(ctx) error, returns
ctx.Err() on cancellation, and names itself through fmt.Stringer for the
supervisor's log events.

	OpsHTTPService        ListenAndServe/Shutdown of the ops server
	CacheReporterService  ticker publishing resolution cache counters
	RegenerateService     scheduled batch regeneration with a JSON report

Wiring, as done by cmd/server:

	tree.AddDataService(services.NewCacheReporterService(engine.Cache(), 15*time.Second))
	tree.AddWorkerService(services.NewRegenerateService(regen, cfg, logger))
	tree.AddAPIService(services.NewOpsHTTPService(srv, 10*time.Second))
*/
package services
