package coordinator

import (
	"context"
	"testing"
	"time"

	"github.com/ipfs/go-cid"
	"github.com/libp2p/go-libp2p/core/peer"
	ma "github.com/multiformats/go-multiaddr"
	"github.com/multiformats/go-multihash"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/contentmesh/swarmnode/pkg/facade"
	"github.com/contentmesh/swarmnode/pkg/querytracker"
	"github.com/contentmesh/swarmnode/pkg/repoevent"
	"github.com/contentmesh/swarmnode/pkg/swarmface"
	"github.com/contentmesh/swarmnode/pkg/swarmtest"
)

// testPeerID returns a distinct, deterministic peer id for test fixtures.
// Real peer ids are multihash-encoded public keys; a plain string works
// equally well as an opaque map key for these tests.
func testPeerID(name string) peer.ID { return peer.ID(name) }

func testCID(t *testing.T) cid.Cid {
	t.Helper()
	mh, err := multihash.Sum([]byte("hello world"), multihash.SHA2_256, -1)
	require.NoError(t, err)
	return cid.NewCidV1(cid.Raw, mh)
}

func newTestLoop(t *testing.T, cfg Config) (*Loop, *swarmtest.Swarm, *swarmtest.DHT, *swarmtest.Exchange, *swarmtest.PeerBook, *swarmtest.Repo, chan facade.Command) {
	t.Helper()
	swarm := swarmtest.NewSwarm()
	dht := swarmtest.NewDHT()
	exch := swarmtest.NewExchange()
	peerBook := swarmtest.NewPeerBook()
	repo := swarmtest.NewRepo()
	facadeCh := make(chan facade.Command, 8)
	l := New(cfg, swarm, dht, exch, peerBook, repo, facadeCh)
	return l, swarm, dht, exch, peerBook, repo, facadeCh
}

func TestLoop_StartedFiresAfterFirstIteration(t *testing.T) {
	cfg := DefaultConfig()
	cfg.CensusInterval = 10 * time.Millisecond
	l, _, _, _, _, _, _ := newTestLoop(t, cfg)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go l.Run(ctx)

	select {
	case <-l.Started():
	case <-time.After(time.Second):
		t.Fatal("Started() never fired")
	}
}

func TestLoop_ExitStopsTheLoop(t *testing.T) {
	l, _, _, _, _, _, facadeCh := newTestLoop(t, DefaultConfig())

	done := make(chan struct{})
	go func() {
		l.Run(context.Background())
		close(done)
	}()

	facadeCh <- facade.Exit{}

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("loop did not stop on Exit")
	}
}

func TestLoop_WantBlockFetchesAndStores(t *testing.T) {
	l, _, _, _, _, repo, _ := newTestLoop(t, DefaultConfig())
	c := testCID(t)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go l.Run(ctx)
	<-l.Started()

	repo.Ev <- repoevent.WantBlock(nil, c, nil)

	require.Eventually(t, func() bool {
		return repo.Has(c)
	}, time.Second, 5*time.Millisecond)
}

func TestLoop_NewBlockAlwaysRespondsNotProvidingYet(t *testing.T) {
	l, _, _, exch, _, repo, _ := newTestLoop(t, DefaultConfig())
	c := testCID(t)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go l.Run(ctx)
	<-l.Started()

	resp := make(chan error, 1)
	repo.Ev <- repoevent.NewBlock(c, []byte("data"), resp)

	err := <-resp
	require.ErrorIs(t, err, repoevent.ErrNotProvidingYet)

	require.Eventually(t, func() bool {
		for _, got := range exch.NewBlocks {
			if got.Equals(c) {
				return true
			}
		}
		return false
	}, time.Second, 5*time.Millisecond)
}

func TestLoop_RemovedBlockStopsProviding(t *testing.T) {
	l, _, _, exch, _, repo, _ := newTestLoop(t, DefaultConfig())
	c := testCID(t)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go l.Run(ctx)
	<-l.Started()

	repo.Ev <- repoevent.RemovedBlock(c)

	require.Eventually(t, func() bool {
		for _, got := range exch.StoppedCIDs {
			if got.Equals(c) {
				return true
			}
		}
		return false
	}, time.Second, 5*time.Millisecond)
}

func TestLoop_UnwantBlockIsNoOp(t *testing.T) {
	l, _, _, exch, _, repo, _ := newTestLoop(t, DefaultConfig())
	c := testCID(t)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go l.Run(ctx)
	<-l.Started()

	repo.Ev <- repoevent.UnwantBlock(c)

	// Give the loop a moment to process; nothing on the exchange should
	// have been touched.
	time.Sleep(20 * time.Millisecond)
	assert.Empty(t, exch.StoppedCIDs)
	assert.Empty(t, exch.NewBlocks)
}

func TestLoop_GCTicksEventuallyClearFinishedSessions(t *testing.T) {
	cfg := DefaultConfig()
	cfg.GCInterval = 10 * time.Millisecond
	l, _, _, _, _, repo, _ := newTestLoop(t, cfg)
	c := testCID(t)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go l.Run(ctx)
	<-l.Started()

	repo.Ev <- repoevent.WantBlock(nil, c, nil)

	require.Eventually(t, func() bool {
		return l.Sessions().Len() == 0
	}, time.Second, 5*time.Millisecond)
}

func TestLoop_AddListeningAddressWaitsForListenerReady(t *testing.T) {
	l, swarm, _, _, _, _, facadeCh := newTestLoop(t, DefaultConfig())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go l.Run(ctx)
	<-l.Started()

	addr, err := ma.NewMultiaddr("/ip4/127.0.0.1/tcp/4001")
	require.NoError(t, err)

	resp := make(chan facade.ListenResult, 1)
	facadeCh <- facade.AddListeningAddress{Addr: addr, Respond: resp}

	// swarmtest.Swarm.Listen immediately pushes an EventListenerReady, so
	// the responder resolves without any extra stimulus, but only once the
	// loop has processed that event off the pending-responder map.
	select {
	case got := <-resp:
		require.NoError(t, got.Err)
		assert.Equal(t, addr, got.Addr)
	case <-time.After(time.Second):
		t.Fatal("AddListeningAddress never resolved")
	}

	require.Eventually(t, func() bool {
		for _, a := range swarm.Listened {
			if a.Equal(addr) {
				return true
			}
		}
		return false
	}, time.Second, 5*time.Millisecond)
}

func TestLoop_RemoveListeningAddressUnknownListener(t *testing.T) {
	l, _, _, _, _, _, facadeCh := newTestLoop(t, DefaultConfig())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go l.Run(ctx)
	<-l.Started()

	resp := make(chan error, 1)
	facadeCh <- facade.RemoveListeningAddress{ListenerID: 999, Respond: resp}

	err := <-resp
	require.ErrorIs(t, err, ErrUnknownListener)
}

func TestLoop_RemoveListeningAddressKnownListener(t *testing.T) {
	l, _, _, _, _, _, facadeCh := newTestLoop(t, DefaultConfig())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go l.Run(ctx)
	<-l.Started()

	addr, err := ma.NewMultiaddr("/ip4/127.0.0.1/tcp/4001")
	require.NoError(t, err)

	addResp := make(chan facade.ListenResult, 1)
	facadeCh <- facade.AddListeningAddress{Addr: addr, Respond: addResp}
	listened := <-addResp
	require.NoError(t, listened.Err)

	listenersResp := make(chan []ma.Multiaddr, 1)
	facadeCh <- facade.Listeners{Respond: listenersResp}
	require.Len(t, <-listenersResp, 1)

	removeResp := make(chan error, 1)
	facadeCh <- facade.RemoveListeningAddress{ListenerID: 1, Respond: removeResp}
	require.NoError(t, <-removeResp)

	listenersResp2 := make(chan []ma.Multiaddr, 1)
	facadeCh <- facade.Listeners{Respond: listenersResp2}
	require.Empty(t, <-listenersResp2)
}

func TestLoop_IdentifyEventPopulatesPeerBookAndCollaborators(t *testing.T) {
	l, swarm, dht, exch, peerBook, _, _ := newTestLoop(t, DefaultConfig())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go l.Run(ctx)
	<-l.Started()

	p := testPeerID("identify-peer")
	addr, err := ma.NewMultiaddr("/ip4/10.0.0.1/tcp/4001")
	require.NoError(t, err)
	protocols := []string{swarmface.ProtocolDHT, swarmface.ProtocolAutoNAT}

	swarm.Ev <- swarmface.SwarmEvent{
		Kind:      swarmface.EventIdentifyReceived,
		PeerID:    p,
		Addrs:     []ma.Multiaddr{addr},
		Protocols: protocols,
	}

	require.Eventually(t, func() bool {
		return len(peerBook.Addresses(p)) == 1
	}, time.Second, 5*time.Millisecond)

	assert.Equal(t, protocols, peerBook.Protocols(p))
	assert.Equal(t, protocols, exch.PeerProtocols[p])
	assert.Len(t, dht.RoutingAddrs[p], 1)
	assert.Contains(t, dht.AutoNATServers, p)
}

func TestLoop_PingResultUpdatesRTTAndDemotesOnTimeout(t *testing.T) {
	l, swarm, _, _, peerBook, _, _ := newTestLoop(t, DefaultConfig())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go l.Run(ctx)
	<-l.Started()

	p := testPeerID("ping-peer")
	peerBook.AddPeerInfo(p, nil, nil)

	swarm.Ev <- swarmface.SwarmEvent{Kind: swarmface.EventPingResult, PeerID: p, RTT: 42}

	require.Eventually(t, func() bool {
		rtt, ok := peerBook.RTT(p)
		return ok && rtt == 42
	}, time.Second, 5*time.Millisecond)

	swarm.Ev <- swarmface.SwarmEvent{Kind: swarmface.EventPingResult, PeerID: p, Err: swarmface.ErrPingTimeout}

	require.Eventually(t, func() bool {
		_, ok := peerBook.RTT(p)
		return !ok
	}, time.Second, 5*time.Millisecond)
}

func TestLoop_ProviderStreamsDeliverOnlyTheirOwnProviders(t *testing.T) {
	l, swarm, _, _, _, _, facadeCh := newTestLoop(t, DefaultConfig())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go l.Run(ctx)
	<-l.Started()

	c1 := testCID(t)
	c2, err := cid.Decode("bafkreigh2akiscaildc7x7a4zwqd7gs2xhmfp7cinpo4vv7b2y3exzshl4")
	require.NoError(t, err)

	resp1 := make(chan (<-chan peer.ID), 1)
	facadeCh <- facade.GetProviders{CID: c1, Respond: resp1}
	stream1 := <-resp1

	resp2 := make(chan (<-chan peer.ID), 1)
	facadeCh <- facade.GetProviders{CID: c2, Respond: resp2}
	stream2 := <-resp2

	p1 := testPeerID("provider-1")
	p2 := testPeerID("provider-2")

	swarm.Ev <- swarmface.SwarmEvent{Kind: swarmface.EventDHTQueryProgressed, QueryID: 1, Providers: []peer.ID{p1}}
	swarm.Ev <- swarmface.SwarmEvent{Kind: swarmface.EventDHTQueryProgressed, QueryID: 2, Providers: []peer.ID{p2}}

	select {
	case got := <-stream1:
		assert.Equal(t, p1, got)
	case <-time.After(time.Second):
		t.Fatal("stream1 never received its provider")
	}

	select {
	case got := <-stream2:
		assert.Equal(t, p2, got)
	case <-time.After(time.Second):
		t.Fatal("stream2 never received its provider")
	}
}

func TestLoop_ClosestPeersResolvesFoundAndNotFoundLookups(t *testing.T) {
	l, swarm, dht, _, _, _, facadeCh := newTestLoop(t, DefaultConfig())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go l.Run(ctx)
	<-l.Started()

	target := testPeerID("target-peer")
	other := testPeerID("other-peer")

	foundResp := make(chan querytracker.PeerLookupResult, 1)
	facadeCh <- facade.FindPeerIdentity{PeerID: target, Respond: foundResp}

	notFoundResp := make(chan querytracker.PeerLookupResult, 1)
	facadeCh <- facade.FindPeerIdentity{PeerID: other, Respond: notFoundResp}

	// Give the loop a moment to register both pending lookups before the
	// terminal query events arrive.
	time.Sleep(20 * time.Millisecond)

	dht.Finish(1)
	swarm.Ev <- swarmface.SwarmEvent{Kind: swarmface.EventDHTQueryProgressed, QueryID: 1, ClosestPeers: []peer.ID{target}}

	dht.Finish(2)
	swarm.Ev <- swarmface.SwarmEvent{Kind: swarmface.EventDHTQueryProgressed, QueryID: 2, ClosestPeers: []peer.ID{target}}

	select {
	case got := <-foundResp:
		require.NoError(t, got.Err)
		assert.Equal(t, target, got.Info)
	case <-time.After(time.Second):
		t.Fatal("found lookup never resolved")
	}

	select {
	case got := <-notFoundResp:
		require.ErrorIs(t, got.Err, querytracker.ErrCouldNotLocatePeer)
	case <-time.After(time.Second):
		t.Fatal("not-found lookup never resolved")
	}
}
