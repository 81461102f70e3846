package coordinator

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/libp2p/go-libp2p/core/peer"
	ma "github.com/multiformats/go-multiaddr"
	"go.opentelemetry.io/otel/attribute"

	"github.com/contentmesh/swarmnode/internal/logger"
	"github.com/contentmesh/swarmnode/internal/telemetry"
	"github.com/contentmesh/swarmnode/pkg/facade"
	"github.com/contentmesh/swarmnode/pkg/querytracker"
	"github.com/contentmesh/swarmnode/pkg/wire"
)

// handleFacadeCommand dispatches one facade command, grounded on task.rs's
// handle_event match over IpfsEvent. Every command with a Respond channel
// sends to it exactly once before returning or before its spawned
// goroutine returns.
//
// Each dispatch is wrapped in a span tagged with a fresh correlation ID,
// so a command's whole fan-out (including goroutines it spawns to await
// a querytracker result) can be traced as one unit even though this
// function itself returns immediately for the async cases.
func (l *Loop) handleFacadeCommand(ctx context.Context, cmd facade.Command) {
	correlationID := uuid.NewString()
	ctx, span := telemetry.StartSpan(ctx, "facade.command",
		attribute.String("correlation_id", correlationID),
		attribute.String("command", fmt.Sprintf("%T", cmd)),
	)
	defer span.End()

	switch c := cmd.(type) {
	case facade.Connect:
		c.Respond <- l.swarm.Dial(ctx, c.Addr)

	case facade.Disconnect:
		c.Respond <- l.swarm.Disconnect(ctx, c.PeerID)

	case facade.IsConnected:
		connected := false
		for _, p := range l.swarm.ConnectedPeers() {
			if p == c.PeerID {
				connected = true
				break
			}
		}
		c.Respond <- connected

	case facade.Connected:
		c.Respond <- l.swarm.ConnectedPeers()

	case facade.Ban:
		l.swarm.Ban(c.PeerID)

	case facade.Unban:
		l.swarm.Unban(c.PeerID)

	case facade.AddListeningAddress:
		// Fire-and-forget: Listen only returns a listener id (or a
		// synchronous setup error). The actual bound address arrives later
		// as an EventListenerReady swarm event, and the pending responder
		// registered here is resolved exactly once from handleSwarmEvent
		// (spec.md §3 Listener Registration, §4.F bullet 1).
		listenerID, err := l.swarm.Listen(ctx, c.Addr)
		if err != nil {
			c.Respond <- facade.ListenResult{Err: err}
			return
		}
		l.listenerResponders[listenerID] = c.Respond

	case facade.RemoveListeningAddress:
		if _, ok := l.listeners[c.ListenerID]; !ok {
			c.Respond <- ErrUnknownListener
			return
		}
		if err := l.swarm.StopListening(ctx, c.ListenerID); err != nil {
			c.Respond <- ErrListenerRemovalFailed
			return
		}
		delete(l.listeners, c.ListenerID)
		c.Respond <- nil

	case facade.Listeners:
		addrs := make([]ma.Multiaddr, 0, len(l.listeners))
		for _, addr := range l.listeners {
			addrs = append(addrs, addr)
		}
		c.Respond <- addrs

	case facade.Addresses:
		c.Respond <- l.swarm.Addresses()

	case facade.GetAddresses:
		c.Respond <- l.swarm.Addresses()

	case facade.Bootstrap:
		_, err := l.dht.Bootstrap(ctx)
		c.Respond <- err

	case facade.GetClosestPeers:
		ch := make(chan querytracker.PeerLookupResult, 1)
		l.queries.RegisterPeerLookup(c.PeerID, ch)
		go func() { c.Respond <- <-ch }()
		id, err := l.dht.GetClosestPeers(ctx, c.PeerID)
		if err != nil {
			for _, pending := range l.queries.ResolvePeerLookup(c.PeerID) {
				pending <- querytracker.PeerLookupResult{Err: err}
			}
			return
		}
		l.queries.RegisterClosestPeersQuery(id, c.PeerID)

	case facade.GetProviders:
		id, err := l.dht.GetProviders(ctx, c.CID)
		if err != nil {
			empty := make(chan peer.ID)
			close(empty)
			c.Respond <- empty
			return
		}
		providers := make(chan peer.ID, 16)
		l.queries.RegisterProviderStream(id, providers)
		c.Respond <- providers

	case facade.Provide:
		_, err := l.dht.StartProviding(ctx, c.CID)
		c.Respond <- err

	case facade.DhtGet:
		ch := make(chan querytracker.Result, 1)
		id, err := l.dht.GetRecord(ctx, c.Key)
		if err != nil {
			c.Respond <- querytracker.Result{Err: err}
			return
		}
		l.queries.RegisterOneShot(id, ch)
		go func() { c.Respond <- <-ch }()

	case facade.DhtPut:
		_, err := l.dht.PutRecord(ctx, c.Key, c.Value, c.Quorum)
		c.Respond <- err

	case facade.GetBootstrappers:
		c.Respond <- nil

	case facade.AddBootstrapper:
		c.Respond <- l.swarm.Dial(ctx, c.Addr)

	case facade.RemoveBootstrapper:
		// No persistent bootstrapper set is modeled beyond dialing; a
		// removal is a no-op, matching the minimal scope this example
		// implementation covers.

	case facade.ClearBootstrappers:
		// no-op, see RemoveBootstrapper.

	case facade.DefaultBootstrap:
		_, err := l.dht.Bootstrap(ctx)
		c.Respond <- err

	case facade.PubsubSubscribe:
		c.Respond <- nil

	case facade.PubsubUnsubscribe:
		c.Respond <- nil

	case facade.PubsubPublish:
		c.Respond <- nil

	case facade.PubsubPeers:
		c.Respond <- nil

	case facade.PubsubSubscribed:
		c.Respond <- nil

	case facade.PubsubEventStream:
		c.Respond <- nil

	case facade.WhitelistPeer:
		// peer book membership is owned by the swarm collaborator.

	case facade.RemoveWhitelistPeer:
		// see WhitelistPeer.

	case facade.AddPeer:
		_ = l.swarm.Dial(ctx, c.Addr)

	case facade.RemovePeer:
		c.Respond <- l.swarm.Disconnect(ctx, c.PeerID) == nil

	case facade.FindPeer:
		addrs := l.peerBook.Addresses(c.PeerID)
		c.Respond <- addrs

	case facade.FindPeerIdentity:
		ch := make(chan querytracker.PeerLookupResult, 1)
		l.queries.RegisterPeerLookup(c.PeerID, ch)
		// Resolved by the error path below or asynchronously by a later
		// swarm event, so the wait happens off the event-loop goroutine.
		go func() { c.Respond <- <-ch }()
		id, err := l.dht.GetClosestPeers(ctx, c.PeerID)
		if err != nil {
			for _, pending := range l.queries.ResolvePeerLookup(c.PeerID) {
				pending <- querytracker.PeerLookupResult{Err: err}
			}
			return
		}
		l.queries.RegisterClosestPeersQuery(id, c.PeerID)

	case facade.WantList:
		list, err := l.exchange.WantList(ctx)
		if err != nil {
			logger.WarnCtx(ctx, "wantlist query failed", logger.Err(err))
		}
		c.Respond <- list

	case facade.GetBitswapPeers:
		peers, err := l.exchange.Peers(ctx)
		if err != nil {
			logger.WarnCtx(ctx, "bitswap peers query failed", logger.Err(err))
		}
		c.Respond <- peers

	case facade.Protocol:
		versions := wire.DefaultPreference()
		ids := make([]string, len(versions))
		for i, v := range versions {
			ids[i] = v.String()
		}
		c.Respond <- ids

	default:
		logger.WarnCtx(ctx, "unhandled facade command")
	}
}
