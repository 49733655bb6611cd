package worker

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stemsi/quizroom/internal/service"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeExpirer struct {
	calls atomic.Int32
	res   service.SweepResult
	err   error
}

func (f *fakeExpirer) ExpireOverdue(ctx context.Context) (service.SweepResult, error) {
	f.calls.Add(1)
	return f.res, f.err
}

func TestExpiryWorkerSweepReturnsResult(t *testing.T) {
	f := &fakeExpirer{res: service.SweepResult{Sealed: 2, Failed: 1}}
	w := NewExpiryWorker(f, time.Second, zerolog.Nop())

	res := w.Sweep(context.Background())
	assert.Equal(t, service.SweepResult{Sealed: 2, Failed: 1}, res)
	assert.Equal(t, int32(1), f.calls.Load())
}

func TestExpiryWorkerSweepSurvivesError(t *testing.T) {
	f := &fakeExpirer{err: errors.New("db down")}
	w := NewExpiryWorker(f, time.Second, zerolog.Nop())

	res := w.Sweep(context.Background())
	assert.Zero(t, res)
}

func TestExpiryWorkerRunsOnScheduleUntilCancelled(t *testing.T) {
	f := &fakeExpirer{}
	w := NewExpiryWorker(f, time.Second, zerolog.Nop())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- w.Start(ctx) }()

	require.Eventually(t, func() bool { return f.calls.Load() >= 1 }, 5*time.Second, 50*time.Millisecond)
	cancel()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("worker did not stop")
	}
}

type fakePurger struct {
	calls atomic.Int32
}

func (f *fakePurger) PurgeExpiredSessions(ctx context.Context) (int64, error) {
	f.calls.Add(1)
	return 3, nil
}

func TestExpiryWorkerPurgesSessionsOnSchedule(t *testing.T) {
	p := &fakePurger{}
	w := NewExpiryWorker(&fakeExpirer{}, time.Second, zerolog.Nop()).WithSessionPurge(p)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go w.Start(ctx)

	require.Eventually(t, func() bool { return p.calls.Load() >= 1 }, 5*time.Second, 50*time.Millisecond)
}
