// Package repoevent defines the repository event surface the coordinator
// consumes (spec.md §6), grounded on task.rs's RepoEvent enum and its
// handle_repo_event dispatch.
package repoevent

import (
	"context"
	"errors"

	"github.com/ipfs/go-cid"
	"github.com/libp2p/go-libp2p/core/peer"
)

// ErrNotProvidingYet is returned to every NewBlock responder: this node
// never auto-announces newly stored blocks as available for exchange,
// matching task.rs's unconditional
// `ret.send(Err(anyhow!("not actively providing blocks yet")))`.
var ErrNotProvidingYet = errors.New("repoevent: not actively providing blocks yet")

// Kind discriminates the four repository event shapes.
type Kind int

const (
	KindWantBlock Kind = iota
	KindUnwantBlock
	KindNewBlock
	KindRemovedBlock
)

// Event is a single repository event. Exactly one of the kind-specific
// fields is meaningful for a given Kind.
type Event struct {
	Kind Kind

	// WantBlock / UnwantBlock / RemovedBlock
	SessionID     *uint64 // nil means the unscoped session, see pkg/session.ResolveSession
	CID           cid.Cid
	CandidatePeer []peer.ID

	// NewBlock
	Data     []byte
	Response chan<- error
}

// WantBlock builds a WantBlock event.
func WantBlock(sessionID *uint64, c cid.Cid, peers []peer.ID) Event {
	return Event{Kind: KindWantBlock, SessionID: sessionID, CID: c, CandidatePeer: peers}
}

// UnwantBlock builds an UnwantBlock event. The coordinator's handling of it
// is a deliberate no-op, matching task.rs's `RepoEvent::UnwantBlock(_) =>
// {}`.
func UnwantBlock(c cid.Cid) Event {
	return Event{Kind: KindUnwantBlock, CID: c}
}

// NewBlock builds a NewBlock event carrying data and a responder that
// always receives ErrNotProvidingYet.
func NewBlock(c cid.Cid, data []byte, response chan<- error) Event {
	return Event{Kind: KindNewBlock, CID: c, Data: data, Response: response}
}

// RemovedBlock builds a RemovedBlock event.
func RemovedBlock(c cid.Cid) Event {
	return Event{Kind: KindRemovedBlock, CID: c}
}

// Repo is the storage collaborator the coordinator reads repository
// events from and writes fetched blocks back to.
type Repo interface {
	Events() <-chan Event
	PutBlock(ctx context.Context, c cid.Cid, data []byte) error
	GetBlock(ctx context.Context, c cid.Cid) ([]byte, error)
}
