package coordinator

import "errors"

// ErrUnknownListener indicates RemoveListeningAddress named a listener id
// the loop's listener map has no record of (spec.md §7).
var ErrUnknownListener = errors.New("coordinator: unknown listener")

// ErrListenerRemovalFailed indicates the swarm collaborator refused to
// stop listening on a listener id the loop does track (spec.md §7).
var ErrListenerRemovalFailed = errors.New("coordinator: listener removal failed")
