// Package blockrepo provides an example badger-backed repoevent.Repo,
// storing opaque block bytes keyed by CID. It exists to exercise the
// repository-event surface end to end (spec.md §6 treats Repo as an
// external collaborator specified only by interface) and deliberately
// does nothing beyond byte storage: no hashing, no verification, no block
// codec, matching the non-goals this supplements without touching.
//
// Grounded on the teacher's pkg/metadata/store/badger package: a thin
// wrapper constructing a *badger.DB with sane single-node defaults and one
// method per operation, transactional via db.Update/db.View.
package blockrepo

import (
	"context"
	"fmt"

	badger "github.com/dgraph-io/badger/v4"
	"github.com/ipfs/go-cid"

	"github.com/contentmesh/swarmnode/internal/logger"
	"github.com/contentmesh/swarmnode/pkg/repoevent"
)

// Store is a badger-backed repoevent.Repo.
type Store struct {
	db *badger.DB
	ev chan repoevent.Event
}

// Open opens (or creates) a badger database at dir and wraps it as a Repo.
func Open(dir string) (*Store, error) {
	opts := badger.DefaultOptions(dir).WithLogger(nil)
	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("blockrepo: opening badger db at %q: %w", dir, err)
	}
	return &Store{db: db, ev: make(chan repoevent.Event, 64)}, nil
}

// Close releases the underlying badger database.
func (s *Store) Close() error { return s.db.Close() }

// Events returns the channel the coordinator reads repository events from.
// Callers outside this package drive it by sending WantBlock/NewBlock/
// RemovedBlock events onto Inject.
func (s *Store) Events() <-chan repoevent.Event { return s.ev }

// Inject pushes an event onto the repo's event stream, for callers (e.g. a
// higher-level fetch API) that decide when a want/provide/remove happens.
func (s *Store) Inject(ctx context.Context, ev repoevent.Event) {
	select {
	case s.ev <- ev:
	case <-ctx.Done():
	}
}

func key(c cid.Cid) []byte {
	return append([]byte("block/"), c.Bytes()...)
}

// PutBlock stores data under c, overwriting any existing entry.
func (s *Store) PutBlock(ctx context.Context, c cid.Cid, data []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	err := s.db.Update(func(txn *badger.Txn) error {
		return txn.Set(key(c), data)
	})
	if err != nil {
		return fmt.Errorf("blockrepo: storing block %s: %w", c, err)
	}
	logger.DebugCtx(ctx, "stored block", logger.CID(c.String()))
	return nil
}

// GetBlock returns the bytes stored for c, or ErrBlockNotFound if none
// exist.
func (s *Store) GetBlock(ctx context.Context, c cid.Cid) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	var data []byte
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(key(c))
		if err == badger.ErrKeyNotFound {
			return ErrBlockNotFound
		}
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			data = append([]byte(nil), val...)
			return nil
		})
	})
	if err != nil {
		return nil, err
	}
	return data, nil
}

// DeleteBlock removes the stored bytes for c, if any.
func (s *Store) DeleteBlock(ctx context.Context, c cid.Cid) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return s.db.Update(func(txn *badger.Txn) error {
		return txn.Delete(key(c))
	})
}
