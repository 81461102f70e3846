package locator

import "errors"

// ErrInvalidPath indicates a locator string does not match the locator grammar:
// an empty interior segment, a missing scheme key, or a root that fails to
// parse as a content hash.
var ErrInvalidPath = errors.New("invalid content locator")

// ErrExpectedContentHash indicates an operation required a content-hash root
// but the locator carries a name-service root instead.
var ErrExpectedContentHash = errors.New("expected a content-hash locator")

// ErrExpectedPeerID indicates an operation required a peer-identity root but
// the locator carries a DNS-name or content-hash root instead.
var ErrExpectedPeerID = errors.New("expected a peer-identity locator")
