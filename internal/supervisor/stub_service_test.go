// VibeMatch - Listener Matching by Music Taste
// Copyright 2026 The VibeMatch Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/Fraga9/VibeMatch

package supervisor

import (
	"context"
	"errors"
	"sync/atomic"
)

// stubService counts its runs and can fail a fixed number of times before
// blocking until canceled.
type stubService struct {
	name   string
	fails  atomic.Int32
	starts atomic.Int32
	stops  atomic.Int32
}

func newStubService(name string) *stubService {
	return &stubService{name: name}
}

// failTimes makes the next n runs return an error immediately.
func (s *stubService) failTimes(n int32) { s.fails.Store(n) }

func (s *stubService) Serve(ctx context.Context) error {
	s.starts.Add(1)
	defer s.stops.Add(1)
	if s.fails.Add(-1) >= 0 {
		return errors.New("simulated failure")
	}
	<-ctx.Done()
	return ctx.Err()
}

func (s *stubService) StartCount() int32 { return s.starts.Load() }
func (s *stubService) StopCount() int32  { return s.stops.Load() }
func (s *stubService) String() string    { return s.name }
