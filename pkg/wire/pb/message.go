// Package pb implements hand-rolled protobuf marshaling for the
// block-exchange message schema (spec.md §6), in the style of a
// protoc-gen-fast generated file: field-by-field encode/decode built
// directly on google.golang.org/protobuf's wire-level primitives rather
// than reflection.
package pb

import (
	"fmt"

	"google.golang.org/protobuf/encoding/protowire"
)

// WantType distinguishes a full-block want from a have-only want, added in
// the 1.2.0 schema.
type WantType int32

const (
	WantTypeBlock WantType = 0
	WantTypeHave  WantType = 1
)

// BlockPresenceType is the kind of presence hint carried in a BlockPresence.
type BlockPresenceType int32

const (
	BlockPresenceHave     BlockPresenceType = 0
	BlockPresenceDontHave BlockPresenceType = 1
)

// Entry is one wantlist entry.
type Entry struct {
	Block        []byte // CID bytes
	Priority     int32
	Cancel       bool
	WantType     WantType // 1.2.0 only; zero value (Block) elsewhere
	SendDontHave bool     // 1.2.0 only
}

// Wantlist carries the sender's current or incremental want state.
type Wantlist struct {
	Entries []Entry
	Full    bool
}

// Block is a typed block payload entry (1.1.0+), carrying the CID prefix
// separately from the raw data so the receiver can reconstruct the CID
// without re-hashing.
type Block struct {
	Prefix []byte
	Data   []byte
}

// BlockPresence is a HAVE/DONT_HAVE hint for a CID (1.2.0 only).
type BlockPresence struct {
	Cid  []byte
	Type BlockPresenceType
}

// Message is the in-memory form of an exchange message, a superset of every
// field any wire version can carry. Fields unused by a given version are
// simply left at their zero value when encoding, and are zero when decoding
// a message that didn't carry them.
type Message struct {
	Wantlist       Wantlist
	Blocks         [][]byte // v0 legacy raw block bytes
	Payload        []Block
	BlockPresences []BlockPresence
	PendingBytes   int32
}

const (
	fieldWantlist       = 1
	fieldBlocks         = 2
	fieldPayload        = 3
	fieldBlockPresences = 4
	fieldPendingBytes   = 5

	fieldWantlistEntries = 1
	fieldWantlistFull    = 2

	fieldEntryBlock        = 1
	fieldEntryPriority     = 2
	fieldEntryCancel       = 3
	fieldEntryWantType     = 4
	fieldEntrySendDontHave = 5

	fieldBlockPrefix = 1
	fieldBlockData   = 2

	fieldPresenceCid  = 1
	fieldPresenceType = 2
)

// MarshalV0 encodes the legacy/1.0.0 schema: wantlist + raw block bytes only.
func (m *Message) MarshalV0() []byte {
	var b []byte
	if wl := marshalWantlist(&m.Wantlist, false); len(wl) > 0 {
		b = protowire.AppendTag(b, fieldWantlist, protowire.BytesType)
		b = protowire.AppendBytes(b, wl)
	}
	for _, blk := range m.Blocks {
		b = protowire.AppendTag(b, fieldBlocks, protowire.BytesType)
		b = protowire.AppendBytes(b, blk)
	}
	return b
}

// MarshalV1 encodes the 1.1.0/1.2.0 schema. When presence is true, wantlist
// entries carry wantType/sendDontHave and block presence hints are emitted;
// this is the 1.2.0-only subset of the shared v1 schema.
func (m *Message) MarshalV1(presence bool) []byte {
	var b []byte
	if wl := marshalWantlist(&m.Wantlist, presence); len(wl) > 0 {
		b = protowire.AppendTag(b, fieldWantlist, protowire.BytesType)
		b = protowire.AppendBytes(b, wl)
	}
	for _, blk := range m.Payload {
		pb := marshalBlock(&blk)
		b = protowire.AppendTag(b, fieldPayload, protowire.BytesType)
		b = protowire.AppendBytes(b, pb)
	}
	if presence {
		for _, p := range m.BlockPresences {
			pp := marshalPresence(&p)
			b = protowire.AppendTag(b, fieldBlockPresences, protowire.BytesType)
			b = protowire.AppendBytes(b, pp)
		}
	}
	if m.PendingBytes != 0 {
		b = protowire.AppendTag(b, fieldPendingBytes, protowire.VarintType)
		b = protowire.AppendVarint(b, uint64(uint32(m.PendingBytes)))
	}
	return b
}

func marshalWantlist(wl *Wantlist, presence bool) []byte {
	var b []byte
	for _, e := range wl.Entries {
		eb := marshalEntry(&e, presence)
		b = protowire.AppendTag(b, fieldWantlistEntries, protowire.BytesType)
		b = protowire.AppendBytes(b, eb)
	}
	if wl.Full {
		b = protowire.AppendTag(b, fieldWantlistFull, protowire.VarintType)
		b = protowire.AppendVarint(b, 1)
	}
	return b
}

func marshalEntry(e *Entry, presence bool) []byte {
	var b []byte
	if len(e.Block) > 0 {
		b = protowire.AppendTag(b, fieldEntryBlock, protowire.BytesType)
		b = protowire.AppendBytes(b, e.Block)
	}
	if e.Priority != 0 {
		b = protowire.AppendTag(b, fieldEntryPriority, protowire.VarintType)
		b = protowire.AppendVarint(b, uint64(uint32(e.Priority)))
	}
	if e.Cancel {
		b = protowire.AppendTag(b, fieldEntryCancel, protowire.VarintType)
		b = protowire.AppendVarint(b, 1)
	}
	if presence {
		if e.WantType != WantTypeBlock {
			b = protowire.AppendTag(b, fieldEntryWantType, protowire.VarintType)
			b = protowire.AppendVarint(b, uint64(e.WantType))
		}
		if e.SendDontHave {
			b = protowire.AppendTag(b, fieldEntrySendDontHave, protowire.VarintType)
			b = protowire.AppendVarint(b, 1)
		}
	}
	return b
}

func marshalBlock(blk *Block) []byte {
	var b []byte
	if len(blk.Prefix) > 0 {
		b = protowire.AppendTag(b, fieldBlockPrefix, protowire.BytesType)
		b = protowire.AppendBytes(b, blk.Prefix)
	}
	b = protowire.AppendTag(b, fieldBlockData, protowire.BytesType)
	b = protowire.AppendBytes(b, blk.Data)
	return b
}

func marshalPresence(p *BlockPresence) []byte {
	var b []byte
	b = protowire.AppendTag(b, fieldPresenceCid, protowire.BytesType)
	b = protowire.AppendBytes(b, p.Cid)
	if p.Type != BlockPresenceHave {
		b = protowire.AppendTag(b, fieldPresenceType, protowire.VarintType)
		b = protowire.AppendVarint(b, uint64(p.Type))
	}
	return b
}

// Unmarshal decodes a message regardless of which wire version produced it:
// the v0 and v1 schemas share field numbers for every field v0 can carry,
// and fields a given version never writes simply decode to their zero
// value. This is also how a 1.2.0 codec accepts a 1.1.0-shaped peer message
// (see spec.md §9's forward-compatibility note).
func Unmarshal(data []byte) (*Message, error) {
	m := &Message{}
	b := data
	for len(b) > 0 {
		num, typ, n := protowire.ConsumeTag(b)
		if n < 0 {
			return nil, fmt.Errorf("pb: bad tag: %w", protowire.ParseError(n))
		}
		b = b[n:]

		switch num {
		case fieldWantlist:
			v, n, err := consumeBytes(b, typ)
			if err != nil {
				return nil, fmt.Errorf("pb: wantlist: %w", err)
			}
			b = b[n:]
			wl, err := unmarshalWantlist(v)
			if err != nil {
				return nil, err
			}
			m.Wantlist = *wl
		case fieldBlocks:
			v, n, err := consumeBytes(b, typ)
			if err != nil {
				return nil, fmt.Errorf("pb: blocks: %w", err)
			}
			b = b[n:]
			m.Blocks = append(m.Blocks, append([]byte(nil), v...))
		case fieldPayload:
			v, n, err := consumeBytes(b, typ)
			if err != nil {
				return nil, fmt.Errorf("pb: payload: %w", err)
			}
			b = b[n:]
			blk, err := unmarshalBlock(v)
			if err != nil {
				return nil, err
			}
			m.Payload = append(m.Payload, *blk)
		case fieldBlockPresences:
			v, n, err := consumeBytes(b, typ)
			if err != nil {
				return nil, fmt.Errorf("pb: blockPresences: %w", err)
			}
			b = b[n:]
			p, err := unmarshalPresence(v)
			if err != nil {
				return nil, err
			}
			m.BlockPresences = append(m.BlockPresences, *p)
		case fieldPendingBytes:
			v, n, err := consumeVarint(b, typ)
			if err != nil {
				return nil, fmt.Errorf("pb: pendingBytes: %w", err)
			}
			b = b[n:]
			m.PendingBytes = int32(v)
		default:
			n, err := skipField(b, typ)
			if err != nil {
				return nil, err
			}
			b = b[n:]
		}
	}
	return m, nil
}

func unmarshalWantlist(data []byte) (*Wantlist, error) {
	wl := &Wantlist{}
	b := data
	for len(b) > 0 {
		num, typ, n := protowire.ConsumeTag(b)
		if n < 0 {
			return nil, fmt.Errorf("pb: wantlist tag: %w", protowire.ParseError(n))
		}
		b = b[n:]
		switch num {
		case fieldWantlistEntries:
			v, n, err := consumeBytes(b, typ)
			if err != nil {
				return nil, fmt.Errorf("pb: wantlist entry: %w", err)
			}
			b = b[n:]
			e, err := unmarshalEntry(v)
			if err != nil {
				return nil, err
			}
			wl.Entries = append(wl.Entries, *e)
		case fieldWantlistFull:
			v, n, err := consumeVarint(b, typ)
			if err != nil {
				return nil, fmt.Errorf("pb: wantlist full: %w", err)
			}
			b = b[n:]
			wl.Full = v != 0
		default:
			n, err := skipField(b, typ)
			if err != nil {
				return nil, err
			}
			b = b[n:]
		}
	}
	return wl, nil
}

func unmarshalEntry(data []byte) (*Entry, error) {
	e := &Entry{}
	b := data
	for len(b) > 0 {
		num, typ, n := protowire.ConsumeTag(b)
		if n < 0 {
			return nil, fmt.Errorf("pb: entry tag: %w", protowire.ParseError(n))
		}
		b = b[n:]
		switch num {
		case fieldEntryBlock:
			v, n, err := consumeBytes(b, typ)
			if err != nil {
				return nil, err
			}
			b = b[n:]
			e.Block = append([]byte(nil), v...)
		case fieldEntryPriority:
			v, n, err := consumeVarint(b, typ)
			if err != nil {
				return nil, err
			}
			b = b[n:]
			e.Priority = int32(v)
		case fieldEntryCancel:
			v, n, err := consumeVarint(b, typ)
			if err != nil {
				return nil, err
			}
			b = b[n:]
			e.Cancel = v != 0
		case fieldEntryWantType:
			v, n, err := consumeVarint(b, typ)
			if err != nil {
				return nil, err
			}
			b = b[n:]
			e.WantType = WantType(v)
		case fieldEntrySendDontHave:
			v, n, err := consumeVarint(b, typ)
			if err != nil {
				return nil, err
			}
			b = b[n:]
			e.SendDontHave = v != 0
		default:
			n, err := skipField(b, typ)
			if err != nil {
				return nil, err
			}
			b = b[n:]
		}
	}
	return e, nil
}

func unmarshalBlock(data []byte) (*Block, error) {
	blk := &Block{}
	b := data
	for len(b) > 0 {
		num, typ, n := protowire.ConsumeTag(b)
		if n < 0 {
			return nil, fmt.Errorf("pb: block tag: %w", protowire.ParseError(n))
		}
		b = b[n:]
		switch num {
		case fieldBlockPrefix:
			v, n, err := consumeBytes(b, typ)
			if err != nil {
				return nil, err
			}
			b = b[n:]
			blk.Prefix = append([]byte(nil), v...)
		case fieldBlockData:
			v, n, err := consumeBytes(b, typ)
			if err != nil {
				return nil, err
			}
			b = b[n:]
			blk.Data = append([]byte(nil), v...)
		default:
			n, err := skipField(b, typ)
			if err != nil {
				return nil, err
			}
			b = b[n:]
		}
	}
	return blk, nil
}

func unmarshalPresence(data []byte) (*BlockPresence, error) {
	p := &BlockPresence{}
	b := data
	for len(b) > 0 {
		num, typ, n := protowire.ConsumeTag(b)
		if n < 0 {
			return nil, fmt.Errorf("pb: presence tag: %w", protowire.ParseError(n))
		}
		b = b[n:]
		switch num {
		case fieldPresenceCid:
			v, n, err := consumeBytes(b, typ)
			if err != nil {
				return nil, err
			}
			b = b[n:]
			p.Cid = append([]byte(nil), v...)
		case fieldPresenceType:
			v, n, err := consumeVarint(b, typ)
			if err != nil {
				return nil, err
			}
			b = b[n:]
			p.Type = BlockPresenceType(v)
		default:
			n, err := skipField(b, typ)
			if err != nil {
				return nil, err
			}
			b = b[n:]
		}
	}
	return p, nil
}

func consumeBytes(b []byte, typ protowire.Type) ([]byte, int, error) {
	if typ != protowire.BytesType {
		return nil, 0, fmt.Errorf("expected bytes wire type, got %d", typ)
	}
	v, n := protowire.ConsumeBytes(b)
	if n < 0 {
		return nil, 0, protowire.ParseError(n)
	}
	return v, n, nil
}

func consumeVarint(b []byte, typ protowire.Type) (uint64, int, error) {
	if typ != protowire.VarintType {
		return 0, 0, fmt.Errorf("expected varint wire type, got %d", typ)
	}
	v, n := protowire.ConsumeVarint(b)
	if n < 0 {
		return 0, 0, protowire.ParseError(n)
	}
	return v, n, nil
}

func skipField(b []byte, typ protowire.Type) (int, error) {
	n := protowire.ConsumeFieldValue(0, typ, b)
	if n < 0 {
		return 0, protowire.ParseError(n)
	}
	return n, nil
}
