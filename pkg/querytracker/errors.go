package querytracker

import "errors"

// ErrCouldNotLocatePeer resolves a dht_peer_lookup entry whose target peer
// id did not appear in the closest-peers set a GetClosestPeers query
// returned (spec.md §4.E rule 3, §7).
var ErrCouldNotLocatePeer = errors.New("querytracker: could not locate peer")
