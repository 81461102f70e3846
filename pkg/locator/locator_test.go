package locator

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testCID = "QmdfTbBqBPQ7VNxZEYEj14VmRuZBkqFbiwReogJgS1zR1n"

func TestParse_GoodPaths(t *testing.T) {
	cases := []struct {
		in  string
		len int
	}{
		{"/ipfs/" + testCID, 0},
		{"/ipfs/" + testCID + "/a", 1},
		{"/ipfs/" + testCID + "/a/b/c/d/e/f", 6},
		{testCID + "/a/b/c/d/e/f", 6},
		{testCID, 0},
		{"/ipld/" + testCID, 0},
		{"/ipld/" + testCID + "/a", 1},
		{"/ipld/" + testCID + "/a/b/c/d/e/f", 6},
		{"/ipns/QmSrPmbaUKA3ZodhzPWZnpFgcPMFWF4QsxXbkWfEptTBJd", 0},
		{"/ipns/QmSrPmbaUKA3ZodhzPWZnpFgcPMFWF4QsxXbkWfEptTBJd/a/b/c/d/e/f", 6},
	}
	for _, tc := range cases {
		t.Run(tc.in, func(t *testing.T) {
			l, err := Parse(tc.in)
			require.NoError(t, err)
			assert.Len(t, l.IterSegments(), tc.len)
		})
	}
}

func TestParse_BadPaths(t *testing.T) {
	bad := []string{
		"/" + testCID,
		"/" + testCID + "/a",
		"/ipfs/foo",
		"/ipfs/",
		"ipfs/",
		"ipfs/" + testCID,
		"/ipld/foo",
		"/ipld/",
		"ipld/",
		"ipld/" + testCID,
	}
	for _, in := range bad {
		t.Run(in, func(t *testing.T) {
			_, err := Parse(in)
			require.Error(t, err)
		})
	}
}

func TestParse_TrailingSlashIgnored(t *testing.T) {
	for _, in := range []string{"/ipfs/" + testCID + "/", testCID + "/"} {
		l, err := Parse(in)
		require.NoError(t, err)
		assert.Equal(t, 0, l.Len())
	}
}

func TestParse_MultipleSlashesNotDeduplicated(t *testing.T) {
	_, err := Parse("/ipfs/" + testCID + "///a")
	require.Error(t, err)
}

func TestDisplay(t *testing.T) {
	cases := []struct {
		in     string
		expect string
	}{
		{"/ipld/" + testCID, "/ipfs/" + testCID},
		{"/ipfs/" + testCID, "/ipfs/" + testCID},
		{"/ipfs/" + testCID + "/a", "/ipfs/" + testCID + "/a"},
		{"/ipfs/" + testCID + "/a/", "/ipfs/" + testCID + "/a"},
		{testCID, "/ipfs/" + testCID},
		{"/ipns/foobar.com", "/ipns/foobar.com"},
		{"/ipns/foobar.com/a", "/ipns/foobar.com/a"},
		{"/ipns/foobar.com/a/", "/ipns/foobar.com/a"},
	}
	for _, tc := range cases {
		t.Run(tc.in, func(t *testing.T) {
			l, err := Parse(tc.in)
			require.NoError(t, err)
			assert.Equal(t, tc.expect, l.Format())
		})
	}
}

func TestDnsNameRoot(t *testing.T) {
	l, err := Parse("/ipns/foobar.com/a")
	require.NoError(t, err)
	name, ok := l.Root().DNSName()
	require.True(t, ok)
	assert.Equal(t, "foobar.com", name)
	assert.Equal(t, []string{"a"}, l.IterSegments())
}

func TestShiftAndTruncate(t *testing.T) {
	l, err := Parse("/ipfs/" + testCID + "/a/b/c")
	require.NoError(t, err)

	shifted := l.Shift(2)
	assert.Equal(t, []string{"c"}, shifted.IterSegments())

	truncated := l.Truncate(2)
	assert.Equal(t, []string{"a", "b"}, truncated.IterSegments())
}

func TestPush(t *testing.T) {
	l, err := Parse("/ipfs/" + testCID)
	require.NoError(t, err)

	l2, err := l.Push("a/b")
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b"}, l2.IterSegments())
	// original is untouched (value semantics)
	assert.Equal(t, 0, l.Len())

	_, err = l2.Push("/c")
	require.Error(t, err)
}

func TestToCIDAndToPeerID(t *testing.T) {
	l, err := Parse("/ipfs/" + testCID)
	require.NoError(t, err)
	_, err = l.ToCID()
	require.NoError(t, err)
	_, err = l.ToPeerID()
	require.ErrorIs(t, err, ErrExpectedPeerID)

	dns, err := Parse("/ipns/foobar.com")
	require.NoError(t, err)
	_, err = dns.ToCID()
	require.ErrorIs(t, err, ErrExpectedContentHash)
}
