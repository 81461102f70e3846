// Package facade defines the coordinator's external command surface
// (spec.md §6): one type per command, each carrying the responder channel
// it fires exactly once. Modeled as a closed Command interface rather than
// one sparse struct, grounded on task.rs's IpfsEvent enum and its
// handle_event dispatch — every arm there becomes one Command type here.
package facade

import (
	"github.com/ipfs/go-cid"
	"github.com/libp2p/go-libp2p/core/peer"
	ma "github.com/multiformats/go-multiaddr"

	"github.com/contentmesh/swarmnode/pkg/querytracker"
)

// Command is implemented by every facade command type.
type Command interface{ isCommand() }

// ListenResult is the outcome of adding a listening address: either the
// address bound to, or a failure.
type ListenResult struct {
	Addr ma.Multiaddr
	Err  error
}

type (
	Connect struct {
		Addr    ma.Multiaddr
		Respond chan<- error
	}
	Disconnect struct {
		PeerID  peer.ID
		Respond chan<- error
	}
	IsConnected struct {
		PeerID  peer.ID
		Respond chan<- bool
	}
	Connected struct {
		Respond chan<- []peer.ID
	}
	Ban struct {
		PeerID peer.ID
	}
	Unban struct {
		PeerID peer.ID
	}
	AddListeningAddress struct {
		Addr    ma.Multiaddr
		Respond chan<- ListenResult
	}
	RemoveListeningAddress struct {
		ListenerID uint64
		Respond    chan<- error
	}
	Listeners struct {
		Respond chan<- []ma.Multiaddr
	}
	Addresses struct {
		Respond chan<- []ma.Multiaddr
	}
	GetAddresses struct {
		PeerID  peer.ID
		Respond chan<- []ma.Multiaddr
	}
	Bootstrap struct {
		Respond chan<- error
	}
	GetClosestPeers struct {
		PeerID  peer.ID
		Respond chan<- querytracker.PeerLookupResult
	}
	GetProviders struct {
		CID     cid.Cid
		Respond chan<- <-chan peer.ID
	}
	Provide struct {
		CID     cid.Cid
		Respond chan<- error
	}
	DhtGet struct {
		Key     string
		Respond chan<- querytracker.Result
	}
	DhtPut struct {
		Key     string
		Value   []byte
		Quorum  int
		Respond chan<- error
	}
	GetBootstrappers struct {
		Respond chan<- []ma.Multiaddr
	}
	AddBootstrapper struct {
		Addr    ma.Multiaddr
		Respond chan<- error
	}
	RemoveBootstrapper struct {
		Addr ma.Multiaddr
	}
	ClearBootstrappers struct{}
	DefaultBootstrap   struct {
		Respond chan<- error
	}
	PubsubSubscribe struct {
		Topic   string
		Respond chan<- <-chan []byte
	}
	PubsubUnsubscribe struct {
		Topic   string
		Respond chan<- error
	}
	PubsubPublish struct {
		Topic   string
		Data    []byte
		Respond chan<- error
	}
	PubsubPeers struct {
		Topic   *string
		Respond chan<- []peer.ID
	}
	PubsubSubscribed struct {
		Respond chan<- []string
	}
	PubsubEventStream struct {
		Respond chan<- <-chan any
	}
	WhitelistPeer struct {
		PeerID peer.ID
	}
	RemoveWhitelistPeer struct {
		PeerID peer.ID
	}
	AddPeer struct {
		PeerID peer.ID
		Addr   ma.Multiaddr
	}
	RemovePeer struct {
		PeerID  peer.ID
		Respond chan<- bool
	}
	FindPeer struct {
		PeerID  peer.ID
		Respond chan<- []ma.Multiaddr
	}
	FindPeerIdentity struct {
		PeerID  peer.ID
		Respond chan<- querytracker.PeerLookupResult
	}
	WantList struct {
		Respond chan<- []cid.Cid
	}
	GetBitswapPeers struct {
		Respond chan<- []peer.ID
	}
	Protocol struct {
		Respond chan<- []string
	}
	Exit struct{}
)

func (Connect) isCommand()                {}
func (Disconnect) isCommand()             {}
func (IsConnected) isCommand()            {}
func (Connected) isCommand()              {}
func (Ban) isCommand()                    {}
func (Unban) isCommand()                  {}
func (AddListeningAddress) isCommand()    {}
func (RemoveListeningAddress) isCommand() {}
func (Listeners) isCommand()              {}
func (Addresses) isCommand()              {}
func (GetAddresses) isCommand()           {}
func (Bootstrap) isCommand()              {}
func (GetClosestPeers) isCommand()        {}
func (GetProviders) isCommand()           {}
func (Provide) isCommand()                {}
func (DhtGet) isCommand()                 {}
func (DhtPut) isCommand()                 {}
func (GetBootstrappers) isCommand()       {}
func (AddBootstrapper) isCommand()        {}
func (RemoveBootstrapper) isCommand()     {}
func (ClearBootstrappers) isCommand()     {}
func (DefaultBootstrap) isCommand()       {}
func (PubsubSubscribe) isCommand()        {}
func (PubsubUnsubscribe) isCommand()      {}
func (PubsubPublish) isCommand()          {}
func (PubsubPeers) isCommand()            {}
func (PubsubSubscribed) isCommand()       {}
func (PubsubEventStream) isCommand()      {}
func (WhitelistPeer) isCommand()          {}
func (RemoveWhitelistPeer) isCommand()    {}
func (AddPeer) isCommand()                {}
func (RemovePeer) isCommand()             {}
func (FindPeer) isCommand()               {}
func (FindPeerIdentity) isCommand()       {}
func (WantList) isCommand()               {}
func (GetBitswapPeers) isCommand()        {}
func (Protocol) isCommand()               {}
func (Exit) isCommand()                   {}
