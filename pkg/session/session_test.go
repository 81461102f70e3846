package session

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeStopper struct {
	mu      sync.Mutex
	stopped []uint64
}

func (f *fakeStopper) StopSession(_ context.Context, id uint64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.stopped = append(f.stopped, id)
	return nil
}

func (f *fakeStopper) stoppedIDs() []uint64 {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]uint64(nil), f.stopped...)
}

func TestResolveSession_NilIsUnscopedZero(t *testing.T) {
	assert.Equal(t, uint64(0), ResolveSession(nil))
	var id uint64 = 7
	assert.Equal(t, uint64(7), ResolveSession(&id))
}

func TestSpawnFetchAndDestroy(t *testing.T) {
	stopper := &fakeStopper{}
	r := NewRegistry(stopper)

	started := make(chan struct{})
	release := make(chan struct{})
	r.SpawnFetch(context.Background(), 0, func(ctx context.Context) {
		close(started)
		select {
		case <-ctx.Done():
		case <-release:
		}
	})

	<-started
	assert.Equal(t, 1, r.Len())

	err := r.Destroy(context.Background(), 0)
	require.NoError(t, err)
	assert.Equal(t, 0, r.Len())
	assert.Equal(t, []uint64{0}, stopper.stoppedIDs())
	close(release)
}

func TestDestroy_SessionZeroIsOrdinaryKey(t *testing.T) {
	stopper := &fakeStopper{}
	r := NewRegistry(stopper)

	done := make(chan struct{})
	r.SpawnFetch(context.Background(), 0, func(ctx context.Context) {
		<-ctx.Done()
		close(done)
	})
	r.SpawnFetch(context.Background(), 1, func(ctx context.Context) {
		<-ctx.Done()
	})

	require.NoError(t, r.Destroy(context.Background(), 0))
	<-done
	// session 1 is untouched by destroying session 0.
	assert.Equal(t, 1, r.Len())
	assert.NotContains(t, stopper.stoppedIDs(), uint64(1))
}

func TestDestroy_NoWorkersIsHarmless(t *testing.T) {
	stopper := &fakeStopper{}
	r := NewRegistry(stopper)
	require.NoError(t, r.Destroy(context.Background(), 42))
	assert.Equal(t, []uint64{42}, stopper.stoppedIDs())
}

func TestGC_RemovesOnlyFinishedSessionsCappedPerTick(t *testing.T) {
	stopper := &fakeStopper{}
	r := NewRegistry(stopper)

	// Sessions 0..4 finish immediately; session 5 blocks forever.
	for id := uint64(0); id < 5; id++ {
		r.SpawnFetch(context.Background(), id, func(context.Context) {})
	}
	block := make(chan struct{})
	defer close(block)
	r.SpawnFetch(context.Background(), 5, func(ctx context.Context) {
		select {
		case <-ctx.Done():
		case <-block:
		}
	})

	// Give the short-lived workers a chance to finish.
	require.Eventually(t, func() bool {
		r.mu.Lock()
		defer r.mu.Unlock()
		for id, ws := range r.workers {
			if id == 5 {
				continue
			}
			for _, w := range ws {
				if !w.finished() {
					return false
				}
			}
		}
		return true
	}, time.Second, time.Millisecond)

	r.GC(context.Background(), 10)

	assert.Equal(t, 1, r.Len())
	ids := r.SessionIDs()
	assert.Equal(t, []uint64{5}, ids)
}

func TestGC_CapsRemovalsPerTick(t *testing.T) {
	stopper := &fakeStopper{}
	r := NewRegistry(stopper)
	for id := uint64(0); id < 20; id++ {
		r.SpawnFetch(context.Background(), id, func(context.Context) {})
	}

	require.Eventually(t, func() bool {
		r.mu.Lock()
		defer r.mu.Unlock()
		for _, ws := range r.workers {
			for _, w := range ws {
				if !w.finished() {
					return false
				}
			}
		}
		return true
	}, time.Second, time.Millisecond)

	r.GC(context.Background(), 10)
	assert.Equal(t, 10, r.Len())
}
