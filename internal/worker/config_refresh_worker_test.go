package worker

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"
)

type refresherFunc func(ctx context.Context) error

func (f refresherFunc) Refresh(ctx context.Context) error { return f(ctx) }

func TestConfigRefreshWorkerRunsUntilCancelled(t *testing.T) {
	var calls atomic.Int32
	ctx, cancel := context.WithCancel(context.Background())

	w := NewConfigRefreshWorker(refresherFunc(func(context.Context) error {
		if calls.Add(1) == 3 {
			cancel()
		}
		return errors.New("redis down")
	}), 5*time.Millisecond)

	done := make(chan struct{})
	go func() {
		w.Start(ctx)
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("worker did not stop after cancel")
	}
	if calls.Load() < 3 {
		t.Errorf("refresh calls = %d, want >= 3", calls.Load())
	}
}

func TestConfigRefreshWorkerDisabled(t *testing.T) {
	called := false
	w := NewConfigRefreshWorker(refresherFunc(func(context.Context) error {
		called = true
		return nil
	}), 0)

	w.Start(context.Background())
	if called {
		t.Error("disabled worker must not refresh")
	}
}
