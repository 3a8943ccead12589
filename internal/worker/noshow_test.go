package worker

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeSweeper struct {
	mu      sync.Mutex
	cutoffs []time.Time
	n       int
	err     error
}

func (f *fakeSweeper) SweepNoShows(_ context.Context, cutoff time.Time) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.cutoffs = append(f.cutoffs, cutoff)
	return f.n, f.err
}

func (f *fakeSweeper) calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.cutoffs)
}

func TestRunOnceAppliesGrace(t *testing.T) {
	svc := &fakeSweeper{n: 2}
	w := NewNoShowSweeper(svc, 30*time.Minute, time.Minute, nil)
	now := time.Date(2024, 3, 15, 12, 0, 0, 0, time.UTC)
	w.now = func() time.Time { return now }

	n, err := w.RunOnce(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, n)
	require.Len(t, svc.cutoffs, 1)
	assert.Equal(t, now.Add(-30*time.Minute), svc.cutoffs[0])
}

func TestRunOnceReturnsError(t *testing.T) {
	cause := errors.New("db down")
	w := NewNoShowSweeper(&fakeSweeper{err: cause}, 0, time.Minute, nil)

	_, err := w.RunOnce(context.Background())
	assert.ErrorIs(t, err, cause)
}

func TestRunStopsOnCancel(t *testing.T) {
	svc := &fakeSweeper{}
	w := NewNoShowSweeper(svc, 0, 5*time.Millisecond, nil)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		w.Run(ctx)
		close(done)
	}()

	assert.Eventually(t, func() bool { return svc.calls() >= 2 }, time.Second, 5*time.Millisecond)
	cancel()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("sweeper did not stop")
	}
}
