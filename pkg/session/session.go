// Package session implements Component D (spec.md §4.D): a registry of
// live block-fetch sessions, each a set of cancellable workers keyed by a
// session id, with cooperative cancellation and capped periodic garbage
// collection.
//
// Session id 0 is a valid, ordinary key denoting the "unscoped" session
// used when a fetch request carries no explicit session id (grounded on
// task.rs's `ctx = session.unwrap_or(0)`); callers must use the two-value
// map form everywhere rather than treating the zero value as "absent".
package session

import (
	"context"
	"sync"

	"github.com/contentmesh/swarmnode/internal/logger"
)

// Stopper is the external collaborator notified when a session is fully
// torn down, mirroring the exchange client's stop_session call in the
// original.
type Stopper interface {
	StopSession(ctx context.Context, id uint64) error
}

type worker struct {
	cancel context.CancelFunc
	done   chan struct{}
}

func (w *worker) finished() bool {
	select {
	case <-w.done:
		return true
	default:
		return false
	}
}

// Registry tracks the workers belonging to each live session.
type Registry struct {
	mu      sync.Mutex
	workers map[uint64][]*worker
	stopper Stopper
}

// NewRegistry builds an empty Registry backed by stopper.
func NewRegistry(stopper Stopper) *Registry {
	return &Registry{
		workers: make(map[uint64][]*worker),
		stopper: stopper,
	}
}

// ResolveSession maps an optional session id to a concrete one: nil
// resolves to the unscoped session 0, exactly as task.rs's
// `session.unwrap_or(0)`.
func ResolveSession(sessionID *uint64) uint64 {
	if sessionID == nil {
		return 0
	}
	return *sessionID
}

// SpawnFetch registers a new worker under session id, running fn until it
// returns or its context is cancelled via Destroy.
func (r *Registry) SpawnFetch(ctx context.Context, id uint64, fn func(context.Context)) {
	wctx, cancel := context.WithCancel(ctx)
	w := &worker{cancel: cancel, done: make(chan struct{})}

	r.mu.Lock()
	r.workers[id] = append(r.workers[id], w)
	r.mu.Unlock()

	go func() {
		defer close(w.done)
		fn(wctx)
	}()
}

// Destroy cancels and waits for every worker registered under id, then
// notifies the stopper. It is safe to call on a session with no
// registered workers, matching the original's tolerant
// `bitswap_sessions.remove(&ctx)` over an `Option`.
func (r *Registry) Destroy(ctx context.Context, id uint64) error {
	r.mu.Lock()
	workers := r.workers[id]
	delete(r.workers, id)
	r.mu.Unlock()

	logger.DebugCtx(ctx, "stopping session workers", logger.SessionID(id), logger.WorkerCount(len(workers)))
	for _, w := range workers {
		w.cancel()
		<-w.done
	}

	if r.stopper == nil {
		return nil
	}
	if err := r.stopper.StopSession(ctx, id); err != nil {
		logger.WarnCtx(ctx, "failed to stop session", logger.SessionID(id), logger.Err(err))
		return err
	}
	return nil
}

// GC scans for sessions whose workers have all finished and destroys up to
// maxPerTick of them, matching task.rs's 5-second interval capped at 10
// removals per tick so a large backlog doesn't stall the event loop.
func (r *Registry) GC(ctx context.Context, maxPerTick int) {
	r.mu.Lock()
	var toRemove []uint64
	for id, workers := range r.workers {
		live := workers[:0:0]
		for _, w := range workers {
			if !w.finished() {
				live = append(live, w)
			}
		}
		r.workers[id] = live
		if len(live) == 0 {
			toRemove = append(toRemove, id)
			if len(toRemove) >= maxPerTick {
				break
			}
		}
	}
	r.mu.Unlock()

	for _, id := range toRemove {
		_ = r.Destroy(ctx, id)
	}
}

// SessionIDs returns the ids of every session currently tracked, for
// diagnostics and tests.
func (r *Registry) SessionIDs() []uint64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	ids := make([]uint64, 0, len(r.workers))
	for id := range r.workers {
		ids = append(ids, id)
	}
	return ids
}

// Len reports how many sessions are currently tracked.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.workers)
}
