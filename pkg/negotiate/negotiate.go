// Package negotiate implements Component C (spec.md §4.C): selecting the
// exchange protocol version to speak with a peer from a ranked local
// preference list, either against an already-known remote offer list (for
// testing and inbound dispatch) or live over a stream using
// multistream-select.
package negotiate

import (
	"io"

	multistream "github.com/multiformats/go-multistream"

	"github.com/contentmesh/swarmnode/pkg/wire"
)

// BestMatch picks the highest-preference version from preference that also
// appears in offered. preference is ranked strongest-first (see
// wire.DefaultPreference); the first preference entry found in offered
// wins, so negotiation never settles on a version weaker than the
// strongest mutually supported one.
func BestMatch(preference []wire.Version, offered []wire.Version) (wire.Version, bool) {
	offeredSet := make(map[wire.Version]struct{}, len(offered))
	for _, v := range offered {
		offeredSet[v] = struct{}{}
	}
	for _, v := range preference {
		if _, ok := offeredSet[v]; ok {
			return v, true
		}
	}
	return 0, false
}

// BestMatchIDs is BestMatch over raw protocol id strings, for callers
// holding a peer's offered protocol list rather than parsed Versions.
// Unrecognized offered ids are ignored rather than treated as an error,
// since a future protocol id a peer offers is not a failure for this node.
func BestMatchIDs(preference []wire.Version, offeredIDs []string) (wire.Version, bool) {
	offered := make([]wire.Version, 0, len(offeredIDs))
	for _, id := range offeredIDs {
		if v, ok := wire.ParseVersion(id); ok {
			offered = append(offered, v)
		}
	}
	return BestMatch(preference, offered)
}

// NegotiateOutbound performs a live multistream-select handshake on rwc,
// offering preference's protocol ids strongest-first, and returns the
// version the remote end accepted.
func NegotiateOutbound(rwc io.ReadWriteCloser, preference []wire.Version) (wire.Version, error) {
	ids := make([]string, len(preference))
	for i, v := range preference {
		ids[i] = v.String()
	}
	selected, err := multistream.SelectOneOf(ids, rwc)
	if err != nil {
		return 0, err
	}
	v, ok := wire.ParseVersion(selected)
	if !ok {
		return 0, wire.ErrUnknownVersion
	}
	return v, nil
}

// NegotiateInbound runs the server side of multistream-select against the
// ranked list of versions this node supports, handing the winning stream
// back to handle.
func NegotiateInbound(supported []wire.Version, handle func(wire.Version, io.ReadWriteCloser) error) *multistream.MultistreamMuxer[io.ReadWriteCloser] {
	mux := multistream.NewMultistreamMuxer[io.ReadWriteCloser]()
	for _, v := range supported {
		version := v
		mux.AddHandler(v.String(), func(_ string, rwc io.ReadWriteCloser) error {
			return handle(version, rwc)
		})
	}
	return mux
}
