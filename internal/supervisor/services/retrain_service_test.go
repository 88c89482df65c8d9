// Viewrec - Implicit Feedback Product Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/viewrec

package services

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/thejerf/suture/v4"

	"github.com/tomtom215/viewrec/internal/recommend"
)

// mockRetrainEngine records Train and Restore calls.
type mockRetrainEngine struct {
	mu           sync.Mutex
	trainCalls   int
	restoreCalls int
	trainErr     error
	restoreErr   error
	version      int
	trained      chan struct{}
}

func newMockRetrainEngine() *mockRetrainEngine {
	return &mockRetrainEngine{trained: make(chan struct{}, 16)}
}

func (m *mockRetrainEngine) Train(context.Context) error {
	m.mu.Lock()
	m.trainCalls++
	err := m.trainErr
	if err == nil {
		m.version++
	}
	m.mu.Unlock()

	m.trained <- struct{}{}
	return err
}

func (m *mockRetrainEngine) Restore(context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.restoreCalls++
	if m.restoreErr != nil {
		return m.restoreErr
	}
	m.version = 7
	return nil
}

func (m *mockRetrainEngine) Status() recommend.TrainingStatus {
	m.mu.Lock()
	defer m.mu.Unlock()
	return recommend.TrainingStatus{ModelVersion: m.version}
}

func (m *mockRetrainEngine) calls() (train, restore int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.trainCalls, m.restoreCalls
}

func waitTrained(t *testing.T, engine *mockRetrainEngine) {
	t.Helper()
	select {
	case <-engine.trained:
	case <-time.After(2 * time.Second):
		t.Fatal("Train was not called")
	}
}

func runService(t *testing.T, svc *RetrainService) (cancel func()) {
	t.Helper()
	ctx, cancelCtx := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- svc.Serve(ctx) }()

	return func() {
		cancelCtx()
		select {
		case err := <-done:
			if !errors.Is(err, context.Canceled) {
				t.Errorf("Serve() error = %v, want context.Canceled", err)
			}
		case <-time.After(2 * time.Second):
			t.Error("Serve did not return after cancel")
		}
	}
}

func TestRetrainService_String(t *testing.T) {
	svc := NewRetrainService(newMockRetrainEngine(), RetrainServiceConfig{}, nil, zerolog.Nop())
	if got := svc.String(); got != "retrain-service" {
		t.Errorf("String() = %q, want retrain-service", got)
	}
	if svc.config.TrainInterval != 24*time.Hour {
		t.Errorf("default interval = %v, want 24h", svc.config.TrainInterval)
	}
	var _ suture.Service = svc
}

func TestRetrainService_Startup(t *testing.T) {
	tests := []struct {
		name        string
		cfg         RetrainServiceConfig
		restoreErr  error
		wantTrain   int
		wantRestore int
	}{
		{
			name:      "train on startup",
			cfg:       RetrainServiceConfig{TrainOnStartup: true},
			wantTrain: 1,
		},
		{
			name:        "restore succeeds skips training",
			cfg:         RetrainServiceConfig{RestoreOnStartup: true, TrainOnStartup: true},
			wantRestore: 1,
		},
		{
			name:        "empty store falls back to training",
			cfg:         RetrainServiceConfig{RestoreOnStartup: true, TrainOnStartup: true},
			restoreErr:  fmt.Errorf("no stored snapshots: %w", recommend.ErrModelNotReady),
			wantTrain:   1,
			wantRestore: 1,
		},
		{
			name:        "restore only",
			cfg:         RetrainServiceConfig{RestoreOnStartup: true},
			restoreErr:  errors.New("corrupt"),
			wantRestore: 1,
		},
		{
			name: "idle until scheduled",
			cfg:  RetrainServiceConfig{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			engine := newMockRetrainEngine()
			engine.restoreErr = tt.restoreErr
			tt.cfg.TrainInterval = time.Hour

			stop := runService(t, NewRetrainService(engine, tt.cfg, nil, zerolog.Nop()))
			if tt.wantTrain > 0 {
				waitTrained(t, engine)
			} else {
				time.Sleep(50 * time.Millisecond)
			}
			stop()

			train, restore := engine.calls()
			if train != tt.wantTrain {
				t.Errorf("Train called %d times, want %d", train, tt.wantTrain)
			}
			if restore != tt.wantRestore {
				t.Errorf("Restore called %d times, want %d", restore, tt.wantRestore)
			}
		})
	}
}

func TestRetrainService_SkipsStartupWhenModelPublished(t *testing.T) {
	engine := newMockRetrainEngine()
	engine.version = 3

	stop := runService(t, NewRetrainService(engine, RetrainServiceConfig{
		RestoreOnStartup: true,
		TrainOnStartup:   true,
		TrainInterval:    time.Hour,
	}, nil, zerolog.Nop()))
	time.Sleep(50 * time.Millisecond)
	stop()

	if train, restore := engine.calls(); train != 0 || restore != 0 {
		t.Errorf("restart with a published model called Train %d, Restore %d; want 0, 0", train, restore)
	}
}

func TestRetrainService_Schedule(t *testing.T) {
	engine := newMockRetrainEngine()
	stop := runService(t, NewRetrainService(engine, RetrainServiceConfig{
		TrainInterval: 20 * time.Millisecond,
	}, nil, zerolog.Nop()))

	waitTrained(t, engine)
	waitTrained(t, engine)
	stop()
}

func TestRetrainService_EventTrigger(t *testing.T) {
	engine := newMockRetrainEngine()
	due := make(chan struct{}, 1)
	stop := runService(t, NewRetrainService(engine, RetrainServiceConfig{
		TrainInterval: time.Hour,
	}, due, zerolog.Nop()))

	due <- struct{}{}
	waitTrained(t, engine)
	stop()

	if train, _ := engine.calls(); train != 1 {
		t.Errorf("Train called %d times, want 1", train)
	}
}

func TestRetrainService_ContinuesAfterFailure(t *testing.T) {
	engine := newMockRetrainEngine()
	engine.trainErr = errors.New("source unavailable")
	due := make(chan struct{}, 1)

	stop := runService(t, NewRetrainService(engine, RetrainServiceConfig{
		TrainOnStartup: true,
		TrainInterval:  time.Hour,
	}, due, zerolog.Nop()))

	waitTrained(t, engine)
	due <- struct{}{}
	waitTrained(t, engine)
	stop()

	if train, _ := engine.calls(); train != 2 {
		t.Errorf("Train called %d times, want 2", train)
	}
}
