// VibeMatch - Listener Matching by Music Taste
// Copyright 2026 The VibeMatch Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/Fraga9/VibeMatch

package services

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/Fraga9/VibeMatch/internal/regenerate"
)

type fakeRegenerator struct {
	mu    sync.Mutex
	calls [][]string
	err   error
	delay time.Duration
}

func (f *fakeRegenerator) Run(ctx context.Context, usernames []string) (*regenerate.Report, error) {
	f.mu.Lock()
	f.calls = append(f.calls, usernames)
	f.mu.Unlock()

	if f.delay > 0 {
		select {
		case <-ctx.Done():
			return &regenerate.Report{Summary: map[regenerate.Outcome]int{}}, ctx.Err()
		case <-time.After(f.delay):
		}
	}
	return &regenerate.Report{
		Users:   len(usernames),
		Summary: map[regenerate.Outcome]int{regenerate.OutcomeProcessed: len(usernames)},
	}, f.err
}

func (f *fakeRegenerator) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.calls)
}

func TestRegenerateServiceDefaults(t *testing.T) {
	svc := NewRegenerateService(&fakeRegenerator{}, RegenerateServiceConfig{}, zerolog.Nop())
	if svc.config.Interval != 24*time.Hour || svc.config.RunTimeout != 2*time.Hour {
		t.Errorf("unexpected defaults %+v", svc.config)
	}
	if svc.String() != "regenerate-service" {
		t.Errorf("String() = %q", svc.String())
	}
}

func TestRegenerateServiceOnStartup(t *testing.T) {
	runner := &fakeRegenerator{}
	report := filepath.Join(t.TempDir(), "out", "report.json")
	svc := NewRegenerateService(runner, RegenerateServiceConfig{
		OnStartup:  true,
		Interval:   time.Hour,
		ReportPath: report,
		Usernames:  []string{"alice", "bob"},
	}, zerolog.Nop())

	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()
	_ = svc.Serve(ctx)

	if runner.callCount() != 1 {
		t.Fatalf("Run called %d times, want 1", runner.callCount())
	}
	if !reflect.DeepEqual(runner.calls[0], []string{"alice", "bob"}) {
		t.Errorf("Run got usernames %v", runner.calls[0])
	}
	if _, err := os.Stat(report); err != nil {
		t.Errorf("report not written: %v", err)
	}
}

func TestRegenerateServiceSchedule(t *testing.T) {
	runner := &fakeRegenerator{}
	svc := NewRegenerateService(runner, RegenerateServiceConfig{Interval: 40 * time.Millisecond}, zerolog.Nop())

	ctx, cancel := context.WithTimeout(context.Background(), 110*time.Millisecond)
	defer cancel()
	if err := svc.Serve(ctx); !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("Serve() = %v, want deadline exceeded", err)
	}
	if got := runner.callCount(); got < 2 {
		t.Errorf("Run called %d times, want >= 2", got)
	}
}

func TestRegenerateServiceSurvivesFailedRun(t *testing.T) {
	runner := &fakeRegenerator{err: errors.New("source offline")}
	svc := NewRegenerateService(runner, RegenerateServiceConfig{OnStartup: true, Interval: time.Hour}, zerolog.Nop())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- svc.Serve(ctx) }()

	time.Sleep(30 * time.Millisecond)
	cancel()
	select {
	case err := <-done:
		if !errors.Is(err, context.Canceled) {
			t.Errorf("Serve() = %v, want context.Canceled", err)
		}
	case <-time.After(time.Second):
		t.Fatal("Serve() did not return")
	}
	if runner.callCount() != 1 {
		t.Errorf("Run called %d times, want 1", runner.callCount())
	}
}

func TestRegenerateServiceCancelDuringRun(t *testing.T) {
	runner := &fakeRegenerator{delay: time.Second}
	svc := NewRegenerateService(runner, RegenerateServiceConfig{OnStartup: true}, zerolog.Nop())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- svc.Serve(ctx) }()
	time.Sleep(20 * time.Millisecond)
	cancel()

	select {
	case <-done:
	case <-time.After(500 * time.Millisecond):
		t.Fatal("Serve() did not stop while a run was in progress")
	}
}
