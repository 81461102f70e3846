package blockrepo

import (
	"context"
	"testing"

	"github.com/ipfs/go-cid"
	"github.com/multiformats/go-multihash"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/contentmesh/swarmnode/pkg/repoevent"
)

func testCID(t *testing.T, content string) cid.Cid {
	t.Helper()
	mh, err := multihash.Sum([]byte(content), multihash.SHA2_256, -1)
	require.NoError(t, err)
	return cid.NewCidV1(cid.Raw, mh)
}

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(t.TempDir())
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestPutAndGetBlock(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	c := testCID(t, "hello world")

	require.NoError(t, s.PutBlock(ctx, c, []byte("hello world")))

	got, err := s.GetBlock(ctx, c)
	require.NoError(t, err)
	assert.Equal(t, []byte("hello world"), got)
}

func TestGetBlock_NotFound(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	c := testCID(t, "never stored")

	_, err := s.GetBlock(ctx, c)
	require.ErrorIs(t, err, ErrBlockNotFound)
}

func TestDeleteBlock(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	c := testCID(t, "to be deleted")

	require.NoError(t, s.PutBlock(ctx, c, []byte("data")))
	require.NoError(t, s.DeleteBlock(ctx, c))

	_, err := s.GetBlock(ctx, c)
	require.ErrorIs(t, err, ErrBlockNotFound)
}

func TestInjectAndEvents(t *testing.T) {
	s := openTestStore(t)
	c := testCID(t, "injected")

	done := make(chan struct{})
	go func() {
		defer close(done)
		ev := <-s.Events()
		assert.Equal(t, c, ev.CID)
	}()

	ctx := context.Background()
	s.Inject(ctx, repoevent.WantBlock(nil, c, nil))
	<-done
}
