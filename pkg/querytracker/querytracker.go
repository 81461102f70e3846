// Package querytracker implements Component E (spec.md §4.E): bookkeeping
// for in-flight DHT queries, keyed by query id across four disjoint
// response shapes, plus a peer-id-keyed list of pending peer lookups
// piggybacked on the closest-peers machinery.
//
// The tracker itself only stores and removes registrations; the decision
// to resolve a one-shot response belongs to the coordinator (component F),
// which only does so once its DHT collaborator reports the underlying
// query as finished (see internal/coordinator's swarm-event dispatch) —
// grounded on task.rs's repeated
// `kad.query(&id).is_none()` guard before touching `kad_subscriptions`.
package querytracker

import (
	"sync"

	"github.com/libp2p/go-libp2p/core/peer"
)

// QueryID identifies one in-flight DHT query.
type QueryID uint64

// Result is a one-shot query outcome.
type Result struct {
	Value any
	Err   error
}

// ProviderSet is a batch of providers found for a GetProviders query,
// delivered on the bounded bitswap-oriented stream.
type ProviderSet struct {
	Providers []peer.ID
	Err       error
}

// PeerLookupResult is the outcome of resolving a single peer id via
// GetClosestPeers.
type PeerLookupResult struct {
	Info peer.ID
	Err  error
}

// Tracker holds the four disjoint per-query maps plus the peer-lookup
// pending list. All maps are guarded by one mutex since queries complete
// far less often than the event loop ticks.
type Tracker struct {
	mu sync.Mutex

	oneShot               map[QueryID]chan<- Result
	providerStream        map[QueryID]chan<- peer.ID
	bitswapProviderStream map[QueryID]chan<- ProviderSet
	recordStream          map[QueryID]chan<- []byte

	peerLookup        map[peer.ID][]chan<- PeerLookupResult
	closestPeersQuery map[QueryID]peer.ID
}

// New builds an empty Tracker.
func New() *Tracker {
	return &Tracker{
		oneShot:               make(map[QueryID]chan<- Result),
		providerStream:        make(map[QueryID]chan<- peer.ID),
		bitswapProviderStream: make(map[QueryID]chan<- ProviderSet),
		recordStream:          make(map[QueryID]chan<- []byte),
		peerLookup:            make(map[peer.ID][]chan<- PeerLookupResult),
		closestPeersQuery:     make(map[QueryID]peer.ID),
	}
}

// RegisterOneShot registers a one-shot responder for id. Registering a
// second responder for the same id replaces the first, matching the
// original's plain HashMap::insert semantics.
func (t *Tracker) RegisterOneShot(id QueryID, ch chan<- Result) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.oneShot[id] = ch
}

// ResolveOneShot removes and returns the one-shot responder for id, if
// any. Callers must only call this once their DHT collaborator reports the
// query finished.
func (t *Tracker) ResolveOneShot(id QueryID) (chan<- Result, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	ch, ok := t.oneShot[id]
	if ok {
		delete(t.oneShot, id)
	}
	return ch, ok
}

// RegisterProviderStream registers an unbounded provider-id stream for id.
func (t *Tracker) RegisterProviderStream(id QueryID, ch chan<- peer.ID) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.providerStream[id] = ch
}

// RegisterBitswapProviderStream registers a bounded provider-set stream
// for id, used by bitswap's want-driven provider search.
func (t *Tracker) RegisterBitswapProviderStream(id QueryID, ch chan<- ProviderSet) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.bitswapProviderStream[id] = ch
}

// RegisterRecordStream registers an unbounded record stream for id.
func (t *Tracker) RegisterRecordStream(id QueryID, ch chan<- []byte) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.recordStream[id] = ch
}

// PushProviders delivers a non-empty batch of newly found providers to
// whichever of the two provider streams is registered for id, mirroring
// the original's independent handling of provider_stream and
// bitswap_provider_stream for the same query id.
func (t *Tracker) PushProviders(id QueryID, providers []peer.ID) {
	if len(providers) == 0 {
		return
	}
	t.mu.Lock()
	providerCh := t.providerStream[id]
	bitswapCh := t.bitswapProviderStream[id]
	t.mu.Unlock()

	if providerCh != nil {
		for _, p := range providers {
			providerCh <- p
		}
	}
	if bitswapCh != nil {
		bitswapCh <- ProviderSet{Providers: providers}
	}
}

// PushRecord delivers a record to the record stream registered for id, if
// any.
func (t *Tracker) PushRecord(id QueryID, record []byte) {
	t.mu.Lock()
	ch := t.recordStream[id]
	t.mu.Unlock()
	if ch != nil {
		ch <- record
	}
}

// FinishProviders closes and removes both provider streams for id, called
// once the underlying GetProviders query reports no additional records.
func (t *Tracker) FinishProviders(id QueryID) {
	t.mu.Lock()
	ch, ok := t.providerStream[id]
	delete(t.providerStream, id)
	bch, bitswapOK := t.bitswapProviderStream[id]
	delete(t.bitswapProviderStream, id)
	t.mu.Unlock()

	if ok {
		close(ch)
	}
	if bitswapOK {
		close(bch)
	}
}

// RegisterPeerLookup appends a pending lookup responder for peerID.
func (t *Tracker) RegisterPeerLookup(peerID peer.ID, ch chan<- PeerLookupResult) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.peerLookup[peerID] = append(t.peerLookup[peerID], ch)
}

// ResolvePeerLookup removes and returns every pending responder registered
// for peerID, for callers that already know the outcome unconditionally
// (an Identify record arriving for peerID, or a synchronous error from
// issuing the GetClosestPeers query).
func (t *Tracker) ResolvePeerLookup(peerID peer.ID) []chan<- PeerLookupResult {
	t.mu.Lock()
	defer t.mu.Unlock()
	chs := t.peerLookup[peerID]
	delete(t.peerLookup, peerID)
	return chs
}

// RegisterClosestPeersQuery associates a GetClosestPeers query id with the
// peer id it was issued to locate, so ResolveClosestPeers can tell whether
// that peer appeared in the query's result set once it finishes.
func (t *Tracker) RegisterClosestPeersQuery(id QueryID, target peer.ID) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.closestPeersQuery[id] = target
}

// ResolveClosestPeers drains the dht_peer_lookup entries for the peer id
// that query id was issued to locate (if any), resolving them with the
// found peer when it appears in set, or ErrCouldNotLocatePeer otherwise
// (spec.md §4.E rule 3). A no-op if id was never registered via
// RegisterClosestPeersQuery, e.g. a Bootstrap or PutRecord query.
func (t *Tracker) ResolveClosestPeers(id QueryID, set []peer.ID) {
	t.mu.Lock()
	target, ok := t.closestPeersQuery[id]
	if !ok {
		t.mu.Unlock()
		return
	}
	delete(t.closestPeersQuery, id)
	chs := t.peerLookup[target]
	delete(t.peerLookup, target)
	t.mu.Unlock()

	found := false
	for _, p := range set {
		if p == target {
			found = true
			break
		}
	}
	for _, ch := range chs {
		if found {
			ch <- PeerLookupResult{Info: target}
		} else {
			ch <- PeerLookupResult{Err: ErrCouldNotLocatePeer}
		}
	}
}

// PendingQueryCount reports the number of distinct query ids with at least
// one registration across the four query-id-keyed stream and responder
// maps, for metrics.
func (t *Tracker) PendingQueryCount() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	seen := make(map[QueryID]struct{}, len(t.oneShot)+len(t.providerStream)+len(t.bitswapProviderStream)+len(t.recordStream))
	for id := range t.oneShot {
		seen[id] = struct{}{}
	}
	for id := range t.providerStream {
		seen[id] = struct{}{}
	}
	for id := range t.bitswapProviderStream {
		seen[id] = struct{}{}
	}
	for id := range t.recordStream {
		seen[id] = struct{}{}
	}
	return len(seen)
}
