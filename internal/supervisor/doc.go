// VibeMatch - Listener Matching by Music Taste
// Copyright 2026 The VibeMatch Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/Fraga9/VibeMatch

/*
Package supervisor runs the long-lived parts of the VibeMatch server under
a suture v4 supervisor tree.

	vibematch
	├── data-layer
	│   └── cache-reporter
	├── workers-layer
	│   └── regenerate-service (if regenerate.enabled)
	└── api-layer
	    └── ops-http

Each layer has its own failure counter, so a regeneration run that keeps
crashing backs off without restarting the ops server. Supervisor events go
through sutureslog into the zerolog-backed slog handler from
internal/logging.

# Usage

	tree, err := supervisor.NewSupervisorTree(logging.NewSlogLogger(), supervisor.TreeConfig{
	    FailureThreshold: cfg.Supervisor.FailureThreshold,
	    ShutdownTimeout:  cfg.Supervisor.ShutdownTimeout,
	})
	if err != nil {
	    return err
	}
	tree.AddAPIService(services.NewOpsHTTPService(srv, cfg.Server.ShutdownTimeout))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	err = tree.Serve(ctx)

Defaults match suture's own: threshold 5, decay 30s, backoff 15s, and a
10s shutdown timeout per service. UnstoppedServiceReport lists services
that ignored cancellation.
*/
package supervisor
