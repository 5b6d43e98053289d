// VibeMatch - Listener Matching by Music Taste
// Copyright 2026 The VibeMatch Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/Fraga9/VibeMatch

package services

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"
)

// HTTPServer is the subset of *http.Server the service drives.
type HTTPServer interface {
	ListenAndServe() error
	Shutdown(ctx context.Context) error
}

// OpsHTTPService runs the ops HTTP server under supervision.
type OpsHTTPService struct {
	server          HTTPServer
	shutdownTimeout time.Duration
}

// NewOpsHTTPService wraps server. A non-positive timeout becomes 10s.
func NewOpsHTTPService(server HTTPServer, shutdownTimeout time.Duration) *OpsHTTPService {
	if shutdownTimeout <= 0 {
		shutdownTimeout = 10 * time.Second
	}
	return &OpsHTTPService{server: server, shutdownTimeout: shutdownTimeout}
}

// Serve implements suture.Service. A listen error is returned so the
// supervisor restarts the server; cancellation shuts it down gracefully.
func (h *OpsHTTPService) Serve(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		if err := h.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("ops http server failed: %w", err)
		}
		return nil

	case <-ctx.Done():
		// ctx is already canceled; shutdown gets its own deadline.
		shutdownCtx, cancel := context.WithTimeout(context.Background(), h.shutdownTimeout)
		defer cancel()
		if err := h.server.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("ops http server shutdown failed: %w", err)
		}
		<-errCh
		return ctx.Err()
	}
}

func (h *OpsHTTPService) String() string {
	return "ops-http"
}
