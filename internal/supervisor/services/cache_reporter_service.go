// VibeMatch - Listener Matching by Music Taste
// Copyright 2026 The VibeMatch Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/Fraga9/VibeMatch

package services

import (
	"context"
	"time"

	"github.com/Fraga9/VibeMatch/internal/cache"
	"github.com/Fraga9/VibeMatch/internal/metrics"
)

// CacheStatsSource exposes cumulative resolution cache counters.
type CacheStatsSource interface {
	Stats() cache.ResolutionStats
}

// CacheReporterService copies resolution cache counters into Prometheus
// on every tick. It must be the only caller of metrics.PublishCacheStats.
type CacheReporterService struct {
	source   CacheStatsSource
	interval time.Duration
	publish  func(cache.ResolutionStats)
}

// NewCacheReporterService creates the reporter. A non-positive interval
// becomes 15s.
func NewCacheReporterService(source CacheStatsSource, interval time.Duration) *CacheReporterService {
	if interval <= 0 {
		interval = 15 * time.Second
	}
	return &CacheReporterService{
		source:   source,
		interval: interval,
		publish: func(s cache.ResolutionStats) {
			metrics.PublishCacheStats(s.Hits, s.Misses, s.Evictions, s.Size)
		},
	}
}

// Serve implements suture.Service. A final publish runs on shutdown.
func (c *CacheReporterService) Serve(ctx context.Context) error {
	ticker := time.NewTicker(c.interval)
	defer ticker.Stop()

	c.publish(c.source.Stats())
	for {
		select {
		case <-ctx.Done():
			c.publish(c.source.Stats())
			return ctx.Err()
		case <-ticker.C:
			c.publish(c.source.Stats())
		}
	}
}

func (c *CacheReporterService) String() string {
	return "cache-reporter"
}
