package negotiate

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/contentmesh/swarmnode/pkg/wire"
)

func TestBestMatch_PrefersStrongestMutual(t *testing.T) {
	v, ok := BestMatch(wire.DefaultPreference(), []wire.Version{wire.Legacy, wire.V100, wire.V110})
	require.True(t, ok)
	assert.Equal(t, wire.V110, v)
}

func TestBestMatch_NoOverlap(t *testing.T) {
	_, ok := BestMatch([]wire.Version{wire.V120}, []wire.Version{wire.Legacy})
	assert.False(t, ok)
}

func TestBestMatch_DoesNotDowngradeBelowStrongestMutual(t *testing.T) {
	// Even when the peer offers every version, the strongest mutually
	// supported one wins, never something weaker.
	v, ok := BestMatch(wire.DefaultPreference(), []wire.Version{wire.V120, wire.V110, wire.V100, wire.Legacy})
	require.True(t, ok)
	assert.Equal(t, wire.V120, v)
}

func TestBestMatchIDs_IgnoresUnknownOfferedIDs(t *testing.T) {
	v, ok := BestMatchIDs(wire.DefaultPreference(), []string{"/ipfs/bitswap/9.9.9", "/ipfs/bitswap/1.0.0"})
	require.True(t, ok)
	assert.Equal(t, wire.V100, v)
}
