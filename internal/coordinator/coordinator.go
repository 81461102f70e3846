// Package coordinator implements Components F and G (spec.md §4.F, §4.G):
// the single-threaded event loop that multiplexes swarm events, facade
// commands, and repository events, plus its periodic maintenance ticks.
// Grounded on task.rs's IpfsTask::run and its handle_swarm_event /
// handle_event / handle_repo_event dispatch methods.
package coordinator

import (
	"context"
	"errors"
	"strconv"
	"sync"
	"time"

	ma "github.com/multiformats/go-multiaddr"
	"go.opentelemetry.io/otel/attribute"

	"github.com/contentmesh/swarmnode/internal/logger"
	"github.com/contentmesh/swarmnode/internal/telemetry"
	"github.com/contentmesh/swarmnode/pkg/facade"
	"github.com/contentmesh/swarmnode/pkg/metrics"
	"github.com/contentmesh/swarmnode/pkg/querytracker"
	"github.com/contentmesh/swarmnode/pkg/repoevent"
	"github.com/contentmesh/swarmnode/pkg/session"
	"github.com/contentmesh/swarmnode/pkg/swarmface"
)

// DefaultCensusInterval is how often the loop logs the connected-peer
// count, matching task.rs's connected_peer_timer.
const DefaultCensusInterval = 60 * time.Second

// DefaultGCInterval is how often the loop sweeps finished sessions,
// matching task.rs's session_cleanup interval.
const DefaultGCInterval = 5 * time.Second

// DefaultGCCapPerTick bounds how many sessions are torn down in a single
// GC tick, matching task.rs's "only do a small chunk of cleanup" cap.
const DefaultGCCapPerTick = 10

// Config configures a Loop's periodic maintenance.
type Config struct {
	CensusInterval time.Duration
	GCInterval     time.Duration
	GCCapPerTick   int
}

// DefaultConfig returns the teacher-style defaults.
func DefaultConfig() Config {
	return Config{
		CensusInterval: DefaultCensusInterval,
		GCInterval:     DefaultGCInterval,
		GCCapPerTick:   DefaultGCCapPerTick,
	}
}

// Loop is the event-driven coordinator.
type Loop struct {
	cfg Config

	swarm    swarmface.Swarm
	dht      swarmface.DHTEngine
	exchange swarmface.ExchangeClient
	peerBook swarmface.PeerBook
	repo     repoevent.Repo

	facadeCh <-chan facade.Command

	sessions *session.Registry
	queries  *querytracker.Tracker
	metrics  *metrics.Metrics

	// listeners and listenerResponders implement the Listener Registration
	// table (spec.md §3): listener id to bound address, and listener id to
	// the one-shot facade responder pending its first address-bound or
	// terminal event. Both are owned exclusively by the event loop.
	listeners          map[uint64]ma.Multiaddr
	listenerResponders map[uint64]chan<- facade.ListenResult

	startedOnce sync.Once
	started     chan struct{}
}

// SetMetrics attaches the collectors the loop refreshes on its census
// tick. Optional — a Loop with no metrics attached still runs, it just
// skips the refresh.
func (l *Loop) SetMetrics(m *metrics.Metrics) { l.metrics = m }

// New builds a Loop. facadeCh is the inbound command channel; repo and
// swarm collaborators are read from for their own event streams.
func New(cfg Config, swarm swarmface.Swarm, dht swarmface.DHTEngine, exchange swarmface.ExchangeClient, peerBook swarmface.PeerBook, repo repoevent.Repo, facadeCh <-chan facade.Command) *Loop {
	if cfg.GCCapPerTick <= 0 {
		cfg.GCCapPerTick = DefaultGCCapPerTick
	}
	if cfg.CensusInterval <= 0 {
		cfg.CensusInterval = DefaultCensusInterval
	}
	if cfg.GCInterval <= 0 {
		cfg.GCInterval = DefaultGCInterval
	}
	return &Loop{
		cfg:                cfg,
		swarm:              swarm,
		dht:                dht,
		exchange:           exchange,
		peerBook:           peerBook,
		repo:               repo,
		facadeCh:           facadeCh,
		sessions:           session.NewRegistry(exchange),
		queries:            querytracker.New(),
		listeners:          make(map[uint64]ma.Multiaddr),
		listenerResponders: make(map[uint64]chan<- facade.ListenResult),
		started:            make(chan struct{}),
	}
}

// Started returns a channel closed once the loop has processed its first
// select iteration, mirroring task.rs's Arc<Notify> startup signal.
func (l *Loop) Started() <-chan struct{} { return l.started }

// Sessions exposes the session registry for metrics and tests.
func (l *Loop) Sessions() *session.Registry { return l.sessions }

// Queries exposes the query tracker for metrics and tests.
func (l *Loop) Queries() *querytracker.Tracker { return l.queries }

// Run drives the event loop until ctx is cancelled or an Exit command is
// received. Exactly one input is processed per iteration, matching the
// original's single tokio::select! arm per loop pass.
func (l *Loop) Run(ctx context.Context) {
	census := time.NewTicker(l.cfg.CensusInterval)
	defer census.Stop()
	gc := time.NewTicker(l.cfg.GCInterval)
	defer gc.Stop()

	swarmEvents := l.swarm.Events()
	repoEvents := l.repo.Events()

	for {
		select {
		case <-ctx.Done():
			l.markStarted()
			return

		case ev, ok := <-swarmEvents:
			if ok {
				l.handleSwarmEvent(ctx, ev)
			}

		case cmd, ok := <-l.facadeCh:
			if ok {
				if _, exit := cmd.(facade.Exit); exit {
					l.markStarted()
					return
				}
				l.handleFacadeCommand(ctx, cmd)
			}

		case ev, ok := <-repoEvents:
			if ok {
				l.handleRepoEvent(ctx, ev)
			}

		case <-census.C:
			peers := len(l.swarm.ConnectedPeers())
			logger.InfoCtx(ctx, "connected peers", logger.Connections(peers))
			if l.metrics != nil {
				l.metrics.ConnectedPeers.Set(float64(peers))
				l.metrics.LiveSessions.Set(float64(l.sessions.Len()))
				l.metrics.PendingQueries.Set(float64(l.queries.PendingQueryCount()))
			}

		case <-gc.C:
			l.sessions.GC(ctx, l.cfg.GCCapPerTick)
		}

		l.markStarted()
	}
}

func (l *Loop) markStarted() {
	l.startedOnce.Do(func() { close(l.started) })
}

func (l *Loop) handleSwarmEvent(ctx context.Context, ev swarmface.SwarmEvent) {
	ctx, span := telemetry.StartSpan(ctx, "swarm.event",
		attribute.Int("kind", int(ev.Kind)),
	)
	defer span.End()

	switch ev.Kind {
	case swarmface.EventDHTQueryProgressed:
		// Streaming continuations are fed before the one-shot/closest-peers
		// resolution below, so a query's incremental results never race its
		// terminal resolution.
		if len(ev.Providers) > 0 {
			l.queries.PushProviders(ev.QueryID, ev.Providers)
		}
		if ev.Record != nil {
			l.queries.PushRecord(ev.QueryID, ev.Record)
		}

		// Only resolve a one-shot responder once the DHT engine no longer
		// considers the query live, matching the original's
		// `kad.query(&id).is_none()` guard repeated at every call site.
		if l.dht != nil && l.dht.QueryFinished(ev.QueryID) {
			if ch, ok := l.queries.ResolveOneShot(ev.QueryID); ok {
				ch <- querytracker.Result{Value: ev.QueryResult, Err: ev.Err}
			}
			l.queries.ResolveClosestPeers(ev.QueryID, ev.ClosestPeers)
		}
		if ev.QueryIsFinal {
			l.queries.FinishProviders(ev.QueryID)
		}

	case swarmface.EventPeerDiscovered:
		if l.swarm != nil {
			_ = l.swarm.Dial(ctx, ev.Addr)
		}

	case swarmface.EventPeerExpired:
		l.peerBook.RemovePeer(ev.PeerID)

	case swarmface.EventConnectionEstablished:
		logger.DebugCtx(ctx, "peer connection established", logger.PeerID(ev.PeerID.String()))

	case swarmface.EventConnectionClosed:
		logger.DebugCtx(ctx, "peer connection closed", logger.PeerID(ev.PeerID.String()))

	case swarmface.EventListenerReady:
		l.listeners[ev.ListenerID] = ev.Addr
		if respond, ok := l.listenerResponders[ev.ListenerID]; ok {
			delete(l.listenerResponders, ev.ListenerID)
			respond <- facade.ListenResult{Addr: ev.Addr}
		}

	case swarmface.EventListenerClosed:
		delete(l.listeners, ev.ListenerID)

	case swarmface.EventListenerError:
		telemetry.RecordError(ctx, ev.Err)
		logger.WarnCtx(ctx, "listener error", logger.ListenerID(strconv.FormatUint(ev.ListenerID, 10)), logger.Err(ev.Err))
		if respond, ok := l.listenerResponders[ev.ListenerID]; ok {
			delete(l.listenerResponders, ev.ListenerID)
			respond <- facade.ListenResult{Err: ev.Err}
		}

	case swarmface.EventIdentifyReceived:
		l.peerBook.AddPeerInfo(ev.PeerID, ev.Addrs, ev.Protocols)
		for _, pending := range l.queries.ResolvePeerLookup(ev.PeerID) {
			pending <- querytracker.PeerLookupResult{Info: ev.PeerID}
		}
		if l.exchange != nil {
			if err := l.exchange.NotifyPeerProtocols(ctx, ev.PeerID, ev.Protocols); err != nil {
				logger.WarnCtx(ctx, "failed to notify exchange of peer protocols", logger.PeerID(ev.PeerID.String()), logger.Err(err))
			}
		}
		if l.dht != nil {
			if swarmface.HasProtocol(ev.Protocols, swarmface.ProtocolDHT) {
				if err := l.dht.AddRoutingAddresses(ctx, ev.PeerID, ev.Addrs); err != nil {
					logger.WarnCtx(ctx, "failed to add routing addresses", logger.PeerID(ev.PeerID.String()), logger.Err(err))
				}
			}
			if swarmface.HasProtocol(ev.Protocols, swarmface.ProtocolAutoNAT) {
				l.dht.RegisterAutoNATServer(ev.PeerID)
			}
		}

	case swarmface.EventPingResult:
		switch {
		case errors.Is(ev.Err, swarmface.ErrPingTimeout):
			l.peerBook.RemovePeer(ev.PeerID)
		case ev.Err != nil:
			telemetry.RecordError(ctx, ev.Err)
			logger.WarnCtx(ctx, "ping error", logger.PeerID(ev.PeerID.String()), logger.Err(ev.Err))
		default:
			l.peerBook.SetRTT(ev.PeerID, ev.RTT)
		}

	case swarmface.EventExchangeProvide:
		if l.dht != nil {
			if _, err := l.dht.StartProviding(ctx, ev.CID); err != nil {
				telemetry.RecordError(ctx, err)
				logger.WarnCtx(ctx, "failed to start providing", logger.CID(ev.CID.String()), logger.Err(err))
			}
		}

	case swarmface.EventExchangeFindProviders:
		if l.dht != nil {
			if _, err := l.dht.GetProviders(ctx, ev.CID); err != nil {
				telemetry.RecordError(ctx, err)
				logger.WarnCtx(ctx, "failed to search for providers", logger.CID(ev.CID.String()), logger.Err(err))
			}
		}

	default:
		logger.DebugCtx(ctx, "swarm event", logger.Event(ev.Kind.String()))
	}
}

func (l *Loop) handleRepoEvent(ctx context.Context, ev repoevent.Event) {
	switch ev.Kind {
	case repoevent.KindWantBlock:
		id := session.ResolveSession(ev.SessionID)
		peers := ev.CandidatePeer
		target := ev.CID
		l.sessions.SpawnFetch(ctx, id, func(wctx context.Context) {
			data, err := l.exchange.GetBlockWithSession(wctx, id, target, peers)
			if err != nil {
				logger.WarnCtx(wctx, "fetch failed", logger.CID(target.String()), logger.Err(err))
				return
			}
			if err := l.repo.PutBlock(wctx, target, data); err != nil {
				logger.WarnCtx(wctx, "failed to store fetched block", logger.CID(target.String()), logger.Err(err))
			}
		})

	case repoevent.KindUnwantBlock:
		// Deliberate no-op, matching task.rs's `RepoEvent::UnwantBlock(_)
		// => {}`.

	case repoevent.KindNewBlock:
		go func() {
			if l.exchange != nil {
				_ = l.exchange.NotifyNewBlock(ctx, ev.CID, ev.Data)
			}
			if ev.Response != nil {
				ev.Response <- repoevent.ErrNotProvidingYet
			}
		}()

	case repoevent.KindRemovedBlock:
		if l.exchange != nil {
			if err := l.exchange.StopProvidingBlock(ctx, ev.CID); err != nil {
				logger.WarnCtx(ctx, "failed to stop providing block", logger.CID(ev.CID.String()), logger.Err(err))
			}
		}
	}
}
