// VibeMatch - Listener Matching by Music Taste
// Copyright 2026 The VibeMatch Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/Fraga9/VibeMatch

package similarity

import (
	"context"
	"errors"
	"time"

	gobreaker "github.com/sony/gobreaker/v2"

	"github.com/Fraga9/VibeMatch/internal/logging"
	"github.com/Fraga9/VibeMatch/internal/metrics"
)

// BreakerSettings configures BreakerStore.
type BreakerSettings struct {
	Name         string
	MaxRequests  uint32        // half-open probes
	Interval     time.Duration // count reset period while closed
	Timeout      time.Duration // open to half-open delay
	FailureRatio float64
	MinRequests  uint32
}

// DefaultBreakerSettings opens after 60% failures over at least 10
// requests and probes again after two minutes.
func DefaultBreakerSettings() BreakerSettings {
	return BreakerSettings{
		Name:         "similarity-store",
		MaxRequests:  3,
		Interval:     time.Minute,
		Timeout:      2 * time.Minute,
		FailureRatio: 0.6,
		MinRequests:  10,
	}
}

// BreakerStore wraps a Store with a circuit breaker. Caller errors
// (unknown user, degenerate vector, wrong dimension, cancellation) do not
// count as failures.
type BreakerStore struct {
	next Store
	cb   *gobreaker.CircuitBreaker[any]
	name string
}

// NewBreakerStore wraps next.
func NewBreakerStore(next Store, s BreakerSettings) *BreakerStore {
	d := DefaultBreakerSettings()
	if s.Name == "" {
		s.Name = d.Name
	}
	if s.FailureRatio <= 0 {
		s.FailureRatio = d.FailureRatio
	}

	metrics.CircuitBreakerState.WithLabelValues(s.Name).Set(0)

	cb := gobreaker.NewCircuitBreaker[any](gobreaker.Settings{
		Name:        s.Name,
		MaxRequests: s.MaxRequests,
		Interval:    s.Interval,
		Timeout:     s.Timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			if counts.Requests < s.MinRequests {
				return false
			}
			ratio := float64(counts.TotalFailures) / float64(counts.Requests)
			if ratio >= s.FailureRatio {
				logging.Warn().
					Str("breaker", s.Name).
					Uint32("failures", counts.TotalFailures).
					Float64("failure_rate", ratio*100).
					Msg("opening circuit")
				return true
			}
			return false
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logging.Info().Str("breaker", name).Str("from", stateString(from)).Str("to", stateString(to)).Msg("circuit state transition")
			metrics.CircuitBreakerState.WithLabelValues(name).Set(stateValue(to))
			metrics.CircuitBreakerTransitions.WithLabelValues(name, stateString(from), stateString(to)).Inc()
		},
		IsSuccessful: func(err error) bool {
			return err == nil ||
				errors.Is(err, ErrNotFound) ||
				errors.Is(err, ErrDegenerate) ||
				errors.Is(err, ErrDimension) ||
				errors.Is(err, context.Canceled)
		},
	})
	return &BreakerStore{next: next, cb: cb, name: s.Name}
}

// State returns the breaker state name.
func (b *BreakerStore) State() string { return stateString(b.cb.State()) }

func (b *BreakerStore) execute(fn func() (any, error)) (any, error) {
	res, err := b.cb.Execute(fn)
	switch {
	case err == nil:
		metrics.CircuitBreakerRequests.WithLabelValues(b.name, "success").Inc()
	case errors.Is(err, gobreaker.ErrOpenState), errors.Is(err, gobreaker.ErrTooManyRequests):
		metrics.CircuitBreakerRequests.WithLabelValues(b.name, "rejected").Inc()
	default:
		metrics.CircuitBreakerRequests.WithLabelValues(b.name, "failure").Inc()
	}
	return res, err
}

func (b *BreakerStore) Upsert(ctx context.Context, rec Record) error {
	_, err := b.execute(func() (any, error) { return nil, b.next.Upsert(ctx, rec) })
	return err
}

func (b *BreakerStore) FindSimilar(ctx context.Context, vector []float32, limit int, excludeID string) ([]Neighbor, error) {
	res, err := b.execute(func() (any, error) { return b.next.FindSimilar(ctx, vector, limit, excludeID) })
	if err != nil {
		return nil, err
	}
	out, _ := res.([]Neighbor)
	return out, nil
}

func (b *BreakerStore) Get(ctx context.Context, username string) (*Record, error) {
	res, err := b.execute(func() (any, error) { return b.next.Get(ctx, username) })
	if err != nil {
		return nil, err
	}
	rec, _ := res.(*Record)
	return rec, nil
}

func (b *BreakerStore) Count(ctx context.Context, f Filter) (int, error) {
	res, err := b.execute(func() (any, error) { return b.next.Count(ctx, f) })
	if err != nil {
		return 0, err
	}
	n, _ := res.(int)
	return n, nil
}

func (b *BreakerStore) Delete(ctx context.Context, id string) error {
	_, err := b.execute(func() (any, error) { return nil, b.next.Delete(ctx, id) })
	return err
}

func (b *BreakerStore) DeleteWhere(ctx context.Context, f Filter) error {
	_, err := b.execute(func() (any, error) { return nil, b.next.DeleteWhere(ctx, f) })
	return err
}

func (b *BreakerStore) Close() error { return b.next.Close() }

func stateValue(s gobreaker.State) float64 {
	switch s {
	case gobreaker.StateClosed:
		return 0
	case gobreaker.StateHalfOpen:
		return 1
	case gobreaker.StateOpen:
		return 2
	default:
		return -1
	}
}

func stateString(s gobreaker.State) string {
	switch s {
	case gobreaker.StateClosed:
		return "closed"
	case gobreaker.StateHalfOpen:
		return "half-open"
	case gobreaker.StateOpen:
		return "open"
	default:
		return "unknown"
	}
}
