// Package swarmtest provides in-memory reference implementations of the
// swarmface and repoevent collaborator interfaces, so internal/coordinator's
// dispatch contract can be exercised end to end without a real libp2p
// swarm or DHT. Kept intentionally small: these are light reference
// instances, not a production swarm implementation (spec.md §6 treats
// Swarm/DHTEngine/ExchangeClient as external collaborators specified only
// by interface) — internal/coordinator's tests and cmd/swarmnoded's
// default wiring both use them.
package swarmtest

import (
	"context"
	"sync"

	"github.com/ipfs/go-cid"
	"github.com/libp2p/go-libp2p/core/peer"
	ma "github.com/multiformats/go-multiaddr"

	"github.com/contentmesh/swarmnode/pkg/querytracker"
	"github.com/contentmesh/swarmnode/pkg/repoevent"
	"github.com/contentmesh/swarmnode/pkg/swarmface"
)

// Swarm is an in-memory swarmface.Swarm double. Tests push events onto Ev
// and read back Dial/Listen calls from Dialed/Listened.
type Swarm struct {
	mu       sync.Mutex
	Ev       chan swarmface.SwarmEvent
	Dialed   []ma.Multiaddr
	Listened []ma.Multiaddr
	Peers    []peer.ID
	Banned   map[peer.ID]bool
}

// NewSwarm builds an empty Swarm double.
func NewSwarm() *Swarm {
	return &Swarm{Ev: make(chan swarmface.SwarmEvent, 64), Banned: make(map[peer.ID]bool)}
}

func (s *Swarm) Events() <-chan swarmface.SwarmEvent { return s.Ev }

func (s *Swarm) Dial(_ context.Context, addr ma.Multiaddr) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Dialed = append(s.Dialed, addr)
	return nil
}

// Listen is fire-and-forget: it assigns and returns a listener id
// immediately, then pushes an EventListenerReady event for that id onto Ev
// to simulate the asynchronous bound-address confirmation real transports
// deliver (spec.md §3 Listener Registration).
func (s *Swarm) Listen(_ context.Context, addr ma.Multiaddr) (uint64, error) {
	s.mu.Lock()
	s.Listened = append(s.Listened, addr)
	id := uint64(len(s.Listened))
	s.mu.Unlock()

	s.Ev <- swarmface.SwarmEvent{Kind: swarmface.EventListenerReady, ListenerID: id, Addr: addr}
	return id, nil
}

func (s *Swarm) StopListening(context.Context, uint64) error { return nil }

func (s *Swarm) ConnectedPeers() []peer.ID {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]peer.ID(nil), s.Peers...)
}

func (s *Swarm) Disconnect(_ context.Context, id peer.ID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, p := range s.Peers {
		if p == id {
			s.Peers = append(s.Peers[:i], s.Peers[i+1:]...)
			break
		}
	}
	return nil
}

func (s *Swarm) Ban(id peer.ID) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Banned[id] = true
}

func (s *Swarm) Unban(id peer.ID) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.Banned, id)
}

func (s *Swarm) Listeners() []ma.Multiaddr  { return s.Listened }
func (s *Swarm) Addresses() []ma.Multiaddr  { return s.Listened }

// DHT is an in-memory swarmface.DHTEngine double. Queries are considered
// finished as soon as they're issued unless held open via KeepOpen.
type DHT struct {
	mu             sync.Mutex
	nextID         uint64
	finished       map[querytracker.QueryID]bool
	Err            error
	RoutingAddrs   map[peer.ID][]ma.Multiaddr
	AutoNATServers []peer.ID
}

// NewDHT builds a DHT double whose queries finish immediately.
func NewDHT() *DHT {
	return &DHT{
		finished:     make(map[querytracker.QueryID]bool),
		RoutingAddrs: make(map[peer.ID][]ma.Multiaddr),
	}
}

func (d *DHT) issue() querytracker.QueryID {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.nextID++
	id := querytracker.QueryID(d.nextID)
	d.finished[id] = true
	return id
}

func (d *DHT) Bootstrap(context.Context) (querytracker.QueryID, error) { return d.issue(), d.Err }
func (d *DHT) GetClosestPeers(context.Context, peer.ID) (querytracker.QueryID, error) {
	return d.issue(), d.Err
}
func (d *DHT) GetProviders(context.Context, cid.Cid) (querytracker.QueryID, error) {
	return d.issue(), d.Err
}
func (d *DHT) StartProviding(context.Context, cid.Cid) (querytracker.QueryID, error) {
	return d.issue(), d.Err
}
func (d *DHT) GetRecord(context.Context, string) (querytracker.QueryID, error) {
	return d.issue(), d.Err
}
func (d *DHT) PutRecord(context.Context, string, []byte, int) (querytracker.QueryID, error) {
	return d.issue(), d.Err
}

// KeepOpen marks id as not yet finished, for tests that need to control
// exactly when a one-shot response resolves.
func (d *DHT) KeepOpen(id querytracker.QueryID) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.finished[id] = false
}

// Finish marks id finished.
func (d *DHT) Finish(id querytracker.QueryID) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.finished[id] = true
}

func (d *DHT) QueryFinished(id querytracker.QueryID) bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.finished[id]
}

// AddRoutingAddresses records the addresses offered for id by an Identify
// event carrying the DHT protocol, for test assertions.
func (d *DHT) AddRoutingAddresses(_ context.Context, id peer.ID, addrs []ma.Multiaddr) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.RoutingAddrs[id] = addrs
	return nil
}

// RegisterAutoNATServer records id as an autonat server candidate, for test
// assertions.
func (d *DHT) RegisterAutoNATServer(id peer.ID) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.AutoNATServers = append(d.AutoNATServers, id)
}

// Exchange is an in-memory swarmface.ExchangeClient double.
type Exchange struct {
	mu            sync.Mutex
	GetBlockFn    func(ctx context.Context, sessionID uint64, c cid.Cid, peers []peer.ID) ([]byte, error)
	Stopped       []uint64
	NewBlocks     []cid.Cid
	StoppedCIDs   []cid.Cid
	PeerProtocols map[peer.ID][]string
}

func NewExchange() *Exchange { return &Exchange{PeerProtocols: make(map[peer.ID][]string)} }

func (e *Exchange) GetBlockWithSession(ctx context.Context, sessionID uint64, c cid.Cid, peers []peer.ID) ([]byte, error) {
	if e.GetBlockFn != nil {
		return e.GetBlockFn(ctx, sessionID, c, peers)
	}
	return []byte("block:" + c.String()), nil
}

func (e *Exchange) StopSession(_ context.Context, id uint64) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.Stopped = append(e.Stopped, id)
	return nil
}

func (e *Exchange) NotifyNewBlock(_ context.Context, c cid.Cid, _ []byte) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.NewBlocks = append(e.NewBlocks, c)
	return nil
}

func (e *Exchange) StopProvidingBlock(_ context.Context, c cid.Cid) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.StoppedCIDs = append(e.StoppedCIDs, c)
	return nil
}

func (e *Exchange) WantList(context.Context) ([]cid.Cid, error) { return nil, nil }
func (e *Exchange) Peers(context.Context) ([]peer.ID, error)    { return nil, nil }

// NotifyPeerProtocols records the protocols last advertised by id, for test
// assertions that identify handling reached the exchange collaborator.
func (e *Exchange) NotifyPeerProtocols(_ context.Context, id peer.ID, protocols []string) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.PeerProtocols[id] = protocols
	return nil
}

// PeerBook is an in-memory swarmface.PeerBook double, backing the
// identify/ping bookkeeping internal/coordinator's event loop owns
// (spec.md §4.F).
type PeerBook struct {
	mu        sync.Mutex
	rtt       map[peer.ID]int64
	addrs     map[peer.ID][]ma.Multiaddr
	protocols map[peer.ID][]string
}

func NewPeerBook() *PeerBook {
	return &PeerBook{
		rtt:       make(map[peer.ID]int64),
		addrs:     make(map[peer.ID][]ma.Multiaddr),
		protocols: make(map[peer.ID][]string),
	}
}

func (b *PeerBook) RTT(id peer.ID) (int64, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	rtt, ok := b.rtt[id]
	return rtt, ok
}

func (b *PeerBook) Addresses(id peer.ID) []ma.Multiaddr {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.addrs[id]
}

func (b *PeerBook) Protocols(id peer.ID) []string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.protocols[id]
}

// SetRTT records the round-trip time of a successful ping.
func (b *PeerBook) SetRTT(id peer.ID, rtt int64) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.rtt[id] = rtt
}

// AddPeerInfo stores the addresses and protocols carried by an Identify
// event for id, replacing any prior record.
func (b *PeerBook) AddPeerInfo(id peer.ID, addrs []ma.Multiaddr, protocols []string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.addrs[id] = addrs
	b.protocols[id] = protocols
}

// RemovePeer demotes id from the book entirely, used on peer expiry and
// ping timeout.
func (b *PeerBook) RemovePeer(id peer.ID) {
	b.mu.Lock()
	defer b.mu.Unlock()
	delete(b.rtt, id)
	delete(b.addrs, id)
	delete(b.protocols, id)
}

// Repo is an in-memory repoevent.Repo double.
type Repo struct {
	mu     sync.Mutex
	blocks map[string][]byte
	Ev     chan repoevent.Event
}

func NewRepo() *Repo {
	return &Repo{blocks: make(map[string][]byte), Ev: make(chan repoevent.Event, 64)}
}

func (r *Repo) Events() <-chan repoevent.Event { return r.Ev }

func (r *Repo) PutBlock(_ context.Context, c cid.Cid, data []byte) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.blocks[c.String()] = data
	return nil
}

func (r *Repo) GetBlock(_ context.Context, c cid.Cid) ([]byte, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.blocks[c.String()], nil
}

// Has reports whether a block for c has been stored, for test assertions.
func (r *Repo) Has(c cid.Cid) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, ok := r.blocks[c.String()]
	return ok
}
