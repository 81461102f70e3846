package swarmface

import "errors"

// ErrPingTimeout indicates a liveness ping to a peer did not receive a
// response within the deadline. The coordinator demotes the peer from the
// peer book when a SwarmEvent carries this error (spec.md §7).
var ErrPingTimeout = errors.New("swarmface: ping timeout")
