package wire

import (
	"bytes"
	"sort"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/contentmesh/swarmnode/pkg/wire/pb"
)

func TestVersionOrder(t *testing.T) {
	versions := []Version{V110, Legacy, V120, V100}
	sort.Slice(versions, func(i, j int) bool { return versions[i] < versions[j] })
	assert.Equal(t, []Version{Legacy, V100, V110, V120}, versions)
}

func TestVersionStrings(t *testing.T) {
	assert.Equal(t, "/ipfs/bitswap", Legacy.String())
	assert.Equal(t, "/ipfs/bitswap/1.0.0", V100.String())
	assert.Equal(t, "/ipfs/bitswap/1.1.0", V110.String())
	assert.Equal(t, "/ipfs/bitswap/1.2.0", V120.String())

	for _, v := range DefaultPreference() {
		parsed, ok := ParseVersion(v.String())
		require.True(t, ok)
		assert.Equal(t, v, parsed)
	}
}

func TestSupportsPresence(t *testing.T) {
	assert.False(t, Legacy.SupportsPresence())
	assert.False(t, V100.SupportsPresence())
	assert.False(t, V110.SupportsPresence())
	assert.True(t, V120.SupportsPresence())
}

func sampleMessage() *pb.Message {
	return &pb.Message{
		Wantlist: pb.Wantlist{
			Entries: []pb.Entry{
				{Block: []byte("cid-1"), Priority: 5, WantType: pb.WantTypeHave, SendDontHave: true},
				{Block: []byte("cid-2"), Cancel: true},
			},
			Full: true,
		},
		Payload: []pb.Block{
			{Prefix: []byte{0x01, 0x55}, Data: []byte("hello world")},
		},
		BlockPresences: []pb.BlockPresence{
			{Cid: []byte("cid-3"), Type: pb.BlockPresenceDontHave},
		},
		PendingBytes: 1024,
	}
}

func TestEncodeDecodeRoundTrip_V120(t *testing.T) {
	m := sampleMessage()
	body := Encode(V120, m)
	got, err := Decode(body)
	require.NoError(t, err)

	assert.Equal(t, m.Wantlist, got.Wantlist)
	assert.Equal(t, m.Payload, got.Payload)
	assert.Equal(t, m.BlockPresences, got.BlockPresences)
	assert.Equal(t, m.PendingBytes, got.PendingBytes)
}

func TestEncodeDecodeRoundTrip_V110DropsPresence(t *testing.T) {
	m := sampleMessage()
	body := Encode(V110, m)
	got, err := Decode(body)
	require.NoError(t, err)

	require.Len(t, got.Wantlist.Entries, 2)
	assert.Equal(t, pb.WantTypeBlock, got.Wantlist.Entries[0].WantType)
	assert.False(t, got.Wantlist.Entries[0].SendDontHave)
	assert.Empty(t, got.BlockPresences)
	assert.Equal(t, m.Payload, got.Payload)
	assert.Equal(t, m.PendingBytes, got.PendingBytes)
}

func TestEncodeDecodeRoundTrip_V0LegacyBlocksOnly(t *testing.T) {
	m := &pb.Message{
		Wantlist: pb.Wantlist{Entries: []pb.Entry{{Block: []byte("cid-1"), Priority: 1}}},
		Blocks:   [][]byte{[]byte("raw-block-bytes")},
	}
	body := Encode(Legacy, m)
	got, err := Decode(body)
	require.NoError(t, err)

	assert.Equal(t, m.Wantlist.Entries, got.Wantlist.Entries)
	assert.Equal(t, m.Blocks, got.Blocks)
	assert.Empty(t, got.Payload)
}

func TestCodecWriteRead(t *testing.T) {
	var buf bytes.Buffer
	c := NewCodec(V120)

	m := sampleMessage()
	require.NoError(t, c.WriteMessage(&buf, m))

	got, v, err := c.ReadMessage(&buf)
	require.NoError(t, err)
	assert.Equal(t, V120, v)
	assert.Equal(t, m.PendingBytes, got.PendingBytes)
}

func TestCodecWriteExceedsMax(t *testing.T) {
	c := &Codec{Version: V120, MaxFrameSize: 4}
	m := sampleMessage()

	var buf bytes.Buffer
	err := c.WriteMessage(&buf, m)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrMaxTransmissionSize)
}

func TestCodecReadExceedsMax(t *testing.T) {
	writer := NewCodec(V120)
	var buf bytes.Buffer
	require.NoError(t, writer.WriteMessage(&buf, sampleMessage()))

	reader := &Codec{Version: V120, MaxFrameSize: 4}
	_, _, err := reader.ReadMessage(&buf)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrMaxTransmissionSize)
}

func TestCodecReadTruncatedFrame(t *testing.T) {
	writer := NewCodec(V120)
	var buf bytes.Buffer
	require.NoError(t, writer.WriteMessage(&buf, sampleMessage()))

	truncated := bytes.NewReader(buf.Bytes()[:buf.Len()-2])
	_, _, err := writer.ReadMessage(truncated)
	require.Error(t, err)
}
