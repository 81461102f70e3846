// Package locator implements the canonical content-addressed locator
// format described in the coordinator's path grammar: a root identifying
// either a direct content hash, a name-service identity, or a DNS name,
// followed by an ordered sequence of non-empty path segments.
package locator

import (
	"fmt"
	"strings"

	"github.com/ipfs/go-cid"
	"github.com/libp2p/go-libp2p/core/peer"
)

// RootKind discriminates the three locator root variants.
type RootKind int

const (
	// ContentHash roots identify immutable content directly by CID.
	ContentHash RootKind = iota
	// NameIdentity roots identify content indirectly through a peer's
	// published name-service record.
	NameIdentity
	// DnsName roots identify content indirectly through a DNSLink name.
	DnsName
)

func (k RootKind) String() string {
	switch k {
	case ContentHash:
		return "content-hash"
	case NameIdentity:
		return "name-identity"
	case DnsName:
		return "dns-name"
	default:
		return "unknown"
	}
}

// Root is the value identified by the first path element of a Locator.
type Root struct {
	kind RootKind
	hash cid.Cid
	peer peer.ID
	name string
}

// NewContentHashRoot builds a root identifying content directly by hash.
func NewContentHashRoot(c cid.Cid) Root {
	return Root{kind: ContentHash, hash: c}
}

// NewNameIdentityRoot builds a root resolving through a peer's published record.
func NewNameIdentityRoot(id peer.ID) Root {
	return Root{kind: NameIdentity, peer: id}
}

// NewDNSNameRoot builds a root resolving through a DNSLink name.
func NewDNSNameRoot(name string) Root {
	return Root{kind: DnsName, name: name}
}

// Kind reports which of the three root variants this is.
func (r Root) Kind() RootKind { return r.kind }

// CID returns the content hash for a ContentHash root.
func (r Root) CID() (cid.Cid, bool) {
	if r.kind != ContentHash {
		return cid.Undef, false
	}
	return r.hash, true
}

// PeerID returns the peer identity for a NameIdentity root.
func (r Root) PeerID() (peer.ID, bool) {
	if r.kind != NameIdentity {
		return "", false
	}
	return r.peer, true
}

// DNSName returns the domain name for a DnsName root.
func (r Root) DNSName() (string, bool) {
	if r.kind != DnsName {
		return "", false
	}
	return r.name, true
}

// String renders the root in its canonical textual form, e.g. "/ipfs/<cid>"
// or "/ipns/<peer-id-or-dns-name>". ipld never appears on output — it is
// always normalized to ipfs.
func (r Root) String() string {
	switch r.kind {
	case ContentHash:
		return "/ipfs/" + r.hash.String()
	case NameIdentity:
		return "/ipns/" + r.peer.String()
	case DnsName:
		return "/ipns/" + r.name
	default:
		return ""
	}
}

// Locator is an ordered pair of a root and a sequence of non-empty,
// slash-free path segments. Locator values are immutable: every mutating
// operation returns a new value.
type Locator struct {
	root     Root
	segments []string
}

// New creates a Locator with the given root and no segments.
func New(root Root) Locator {
	return Locator{root: root}
}

// Root returns the locator's root.
func (l Locator) Root() Root { return l.root }

// Parse parses a textual locator per the grammar:
//
//	locator     = bare-hash / ("/" scheme "/" key *("/" segment) ["/"])
//	scheme      = "ipfs" / "ipld" / "ipns"
//	key         = content-hash   when scheme in {ipfs, ipld}
//	            = peer-id        when scheme = ipns and it parses as one
//	            = dns-name       when scheme = ipns and peer-id parse fails
//	bare-hash   = content-hash
//	segment     = 1*<any UTF-8 byte except "/">
//
// A single trailing "/" is discarded silently; any other empty segment is
// a parse error.
func Parse(s string) (Locator, error) {
	parts := strings.Split(s, "/")

	if parts[0] != "" {
		// No leading scheme: the whole first token must parse as a
		// content hash (the tie-break rule in §4.A).
		c, err := cid.Decode(parts[0])
		if err != nil {
			return Locator{}, fmt.Errorf("%w: %q is not a content hash: %v", ErrInvalidPath, parts[0], err)
		}
		loc := New(NewContentHashRoot(c))
		if err := loc.pushSplit(parts[1:]); err != nil {
			return Locator{}, err
		}
		return loc, nil
	}

	// Leading "/": parts[0] == "", so parts[1] is the scheme marker.
	if len(parts) < 3 {
		return Locator{}, fmt.Errorf("%w: %q is missing a scheme key", ErrInvalidPath, s)
	}
	scheme, key := parts[1], parts[2]

	var root Root
	switch scheme {
	case "ipfs", "ipld":
		c, err := cid.Decode(key)
		if err != nil {
			return Locator{}, fmt.Errorf("%w: %q is not a content hash: %v", ErrInvalidPath, key, err)
		}
		root = NewContentHashRoot(c)
	case "ipns":
		if id, err := peer.Decode(key); err == nil {
			root = NewNameIdentityRoot(id)
		} else {
			root = NewDNSNameRoot(key)
		}
	default:
		return Locator{}, fmt.Errorf("%w: unknown scheme %q", ErrInvalidPath, scheme)
	}

	loc := New(root)
	if err := loc.pushSplit(parts[3:]); err != nil {
		return Locator{}, err
	}
	return loc, nil
}

// pushSplit appends already-split tokens as segments, applying the
// "single trailing empty token is ignored, any other empty token is an
// error" rule. It mutates the receiver's segments slice in place and is
// only used while the Locator is still being built by Parse/Push.
func (l *Locator) pushSplit(tokens []string) error {
	for i, tok := range tokens {
		if tok == "" {
			if i == len(tokens)-1 {
				return nil // trailing slash, silently discarded
			}
			return fmt.Errorf("%w: empty path segment", ErrInvalidPath)
		}
		l.segments = append(l.segments, tok)
	}
	return nil
}

// Push appends path segments split by "/" and returns the resulting Locator.
func (l Locator) Push(s string) (Locator, error) {
	if s == "" {
		return l, nil
	}
	next := Locator{root: l.root, segments: append([]string(nil), l.segments...)}
	if err := next.pushSplit(strings.Split(s, "/")); err != nil {
		return Locator{}, err
	}
	return next, nil
}

// IterSegments returns the locator's path segments, in order.
func (l Locator) IterSegments() []string {
	out := make([]string, len(l.segments))
	copy(out, l.segments)
	return out
}

// Len returns the number of path segments.
func (l Locator) Len() int { return len(l.segments) }

// Shift returns a Locator with the first n segments removed. Precondition:
// n <= l.Len().
func (l Locator) Shift(n int) Locator {
	if n > len(l.segments) {
		n = len(l.segments)
	}
	out := make([]string, len(l.segments)-n)
	copy(out, l.segments[n:])
	return Locator{root: l.root, segments: out}
}

// Truncate returns a Locator keeping only the first n segments. Precondition:
// n <= l.Len().
func (l Locator) Truncate(n int) Locator {
	if n > len(l.segments) {
		n = len(l.segments)
	}
	out := make([]string, n)
	copy(out, l.segments[:n])
	return Locator{root: l.root, segments: out}
}

// Format renders the locator in canonical textual form.
func (l Locator) Format() string {
	var b strings.Builder
	b.WriteString(l.root.String())
	if len(l.segments) > 0 {
		b.WriteByte('/')
		b.WriteString(strings.Join(l.segments, "/"))
	}
	return b.String()
}

// String implements fmt.Stringer.
func (l Locator) String() string { return l.Format() }

// ToCID returns the locator's root content hash, or ErrExpectedContentHash
// if the root is a name-service root.
func (l Locator) ToCID() (cid.Cid, error) {
	c, ok := l.root.CID()
	if !ok {
		return cid.Undef, ErrExpectedContentHash
	}
	return c, nil
}

// ToPeerID returns the locator's root peer identity, or ErrExpectedPeerID if
// the root is not a NameIdentity root.
func (l Locator) ToPeerID() (peer.ID, error) {
	id, ok := l.root.PeerID()
	if !ok {
		return "", ErrExpectedPeerID
	}
	return id, nil
}
