// Package swarmface defines the external collaborator interfaces the
// coordinator (internal/coordinator) depends on: the libp2p swarm, the DHT
// engine, the exchange (bitswap) client/server, and the peer book. Keeping
// these as interfaces — rather than importing go-libp2p's swarm types
// directly into the coordinator — mirrors the teacher's
// pkg/controlplane/runtime pattern of declaring narrow collaborator
// interfaces locally to avoid import cycles between the orchestration
// layer and its concrete subsystems.
package swarmface

import (
	"context"

	"github.com/ipfs/go-cid"
	"github.com/libp2p/go-libp2p/core/peer"
	ma "github.com/multiformats/go-multiaddr"

	"github.com/contentmesh/swarmnode/pkg/querytracker"
)

// EventKind discriminates the shapes of SwarmEvent.
type EventKind int

const (
	EventListenerReady EventKind = iota
	EventListenerClosed
	EventListenerError
	EventPeerDiscovered
	EventPeerExpired
	EventConnectionEstablished
	EventConnectionClosed
	EventIdentifyReceived
	EventPingResult
	EventDHTQueryProgressed
	EventExchangeProvide
	EventExchangeFindProviders
)

// String names the event kind, for logging.
func (k EventKind) String() string {
	switch k {
	case EventListenerReady:
		return "listener_ready"
	case EventListenerClosed:
		return "listener_closed"
	case EventListenerError:
		return "listener_error"
	case EventPeerDiscovered:
		return "peer_discovered"
	case EventPeerExpired:
		return "peer_expired"
	case EventConnectionEstablished:
		return "connection_established"
	case EventConnectionClosed:
		return "connection_closed"
	case EventIdentifyReceived:
		return "identify_received"
	case EventPingResult:
		return "ping_result"
	case EventDHTQueryProgressed:
		return "dht_query_progressed"
	case EventExchangeProvide:
		return "exchange_provide"
	case EventExchangeFindProviders:
		return "exchange_find_providers"
	default:
		return "unknown"
	}
}

// Well-known protocol ids consulted when an Identify record arrives
// (spec.md §4.F): peers advertising the DHT protocol get their listen
// addresses added to the routing table, peers advertising the
// NAT-autodetection protocol are registered as autonat servers.
const (
	ProtocolDHT     = "/ipfs/kad/1.0.0"
	ProtocolAutoNAT = "/libp2p/autonat/1.0.0"
)

// HasProtocol reports whether id appears in protocols.
func HasProtocol(protocols []string, id string) bool {
	for _, p := range protocols {
		if p == id {
			return true
		}
	}
	return false
}

// SwarmEvent is a single event read off the swarm, a tagged union over the
// fields relevant to the kinds the coordinator actually dispatches on,
// grounded on the original's exhaustive `match` over `SwarmEvent` variants
// in handle_swarm_event.
type SwarmEvent struct {
	Kind EventKind

	ListenerID uint64
	Addr       ma.Multiaddr
	Err        error
	PeerID     peer.ID
	CID        cid.Cid

	// Addrs and Protocols carry an Identify record's advertised listen
	// addresses and supported protocol ids.
	Addrs     []ma.Multiaddr
	Protocols []string

	QueryID      querytracker.QueryID
	QueryResult  any
	QueryIsFinal bool

	// Providers and Record carry incremental DHT query results, pushed to
	// the query tracker's streaming continuations before QueryResult/Err
	// are consulted for one-shot resolution.
	Providers []peer.ID
	Record    []byte

	// ClosestPeers carries a finished GetClosestPeers query's result set,
	// consulted to resolve any dht_peer_lookup entries piggybacked on it.
	ClosestPeers []peer.ID

	RTT int64 // nanoseconds; zero when not a ping result
}

// Swarm is the minimum surface the coordinator needs from the libp2p
// swarm: reading its event stream and issuing dial/listen commands.
type Swarm interface {
	// Events returns the channel of incoming swarm events. The
	// coordinator reads at most one event per loop iteration.
	Events() <-chan SwarmEvent

	Dial(ctx context.Context, addr ma.Multiaddr) error
	Listen(ctx context.Context, addr ma.Multiaddr) (listenerID uint64, err error)
	StopListening(ctx context.Context, listenerID uint64) error

	ConnectedPeers() []peer.ID
	Disconnect(ctx context.Context, id peer.ID) error
	Ban(id peer.ID)
	Unban(id peer.ID)
	Listeners() []ma.Multiaddr
	Addresses() []ma.Multiaddr
}

// DHTEngine is the subset of Kademlia operations the coordinator issues
// and the one piece of state it must check before resolving a one-shot
// query response: whether the engine still considers the query live.
type DHTEngine interface {
	Bootstrap(ctx context.Context) (querytracker.QueryID, error)
	GetClosestPeers(ctx context.Context, id peer.ID) (querytracker.QueryID, error)
	GetProviders(ctx context.Context, c cid.Cid) (querytracker.QueryID, error)
	StartProviding(ctx context.Context, c cid.Cid) (querytracker.QueryID, error)
	GetRecord(ctx context.Context, key string) (querytracker.QueryID, error)
	PutRecord(ctx context.Context, key string, value []byte, quorum int) (querytracker.QueryID, error)

	// QueryFinished reports whether the engine no longer tracks id as a
	// live query. The coordinator only resolves a one-shot responder once
	// this is true, grounded on task.rs's repeated
	// `kad.query(&id).is_none()` guard.
	QueryFinished(id querytracker.QueryID) bool

	// AddRoutingAddresses records addrs as routable for id, called once an
	// Identify record shows the peer advertises the DHT protocol.
	AddRoutingAddresses(ctx context.Context, id peer.ID, addrs []ma.Multiaddr) error

	// RegisterAutoNATServer marks id as a candidate NAT-autodetection
	// server, called once an Identify record shows it advertises the
	// autonat protocol.
	RegisterAutoNATServer(id peer.ID)
}

// ExchangeClient is the bitswap-equivalent client/server surface the
// coordinator drives on WantBlock/provide/find-providers/ping requests.
type ExchangeClient interface {
	GetBlockWithSession(ctx context.Context, sessionID uint64, c cid.Cid, peers []peer.ID) ([]byte, error)
	StopSession(ctx context.Context, sessionID uint64) error
	NotifyNewBlock(ctx context.Context, c cid.Cid, data []byte) error
	StopProvidingBlock(ctx context.Context, c cid.Cid) error
	WantList(ctx context.Context) ([]cid.Cid, error)
	Peers(ctx context.Context) ([]peer.ID, error)

	// NotifyPeerProtocols informs the exchange layer of a peer's advertised
	// protocols, learned from an Identify record.
	NotifyPeerProtocols(ctx context.Context, id peer.ID, protocols []string) error
}

// PeerBook exposes identify/ping-derived per-peer metadata. Reads serve
// facade queries (FindPeer); writes are driven entirely
// by the coordinator's swarm-event dispatch (spec.md §4.F).
type PeerBook interface {
	RTT(id peer.ID) (int64, bool)
	Addresses(id peer.ID) []ma.Multiaddr
	Protocols(id peer.ID) []string

	// SetRTT records the latest measured round-trip time for id.
	SetRTT(id peer.ID, rtt int64)

	// AddPeerInfo stores an Identify record's advertised addresses and
	// protocols for id.
	AddPeerInfo(id peer.ID, addrs []ma.Multiaddr, protocols []string)

	// RemovePeer demotes id from the book entirely, called when the peer
	// expires or a liveness ping times out.
	RemovePeer(id peer.ID)
}
