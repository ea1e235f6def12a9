package iavl

import (
	"github.com/tendermint/iavl"
	dbm "github.com/tendermint/tendermint/libs/db"

	"github.com/iov-one/stanza/errors"
	"github.com/iov-one/stanza/store"
)

// DefaultCacheSize is the number of recently used nodes the tree keeps in
// memory.
const DefaultCacheSize = 10000

// CommitStore manages a merkle tree committed state, persisted in the given
// backing database.
type CommitStore struct {
	tree *iavl.MutableTree
}

var _ store.CommitKVStore = (*CommitStore)(nil)

// NewCommitStore creates a tree persisted to the given leveldb directory.
func NewCommitStore(dir, name string) (*CommitStore, error) {
	db, err := dbm.NewGoLevelDB(name, dir)
	if err != nil {
		return nil, errors.Wrap(errors.ErrDatabase, err.Error())
	}
	return &CommitStore{tree: iavl.NewMutableTree(db, DefaultCacheSize)}, nil
}

// MockCommitStore creates a tree backed by an in-memory database, for tests.
func MockCommitStore() *CommitStore {
	return &CommitStore{tree: iavl.NewMutableTree(dbm.NewMemDB(), DefaultCacheSize)}
}

// Get returns the value stored under this key in the working tree, nil if
// missing.
func (s *CommitStore) Get(key []byte) ([]byte, error) {
	_, value := s.tree.Get(key)
	return value, nil
}

// Has checks for existence of the key in the working tree.
func (s *CommitStore) Has(key []byte) (bool, error) {
	return s.tree.Has(key), nil
}

// Set updates the working tree. Changes are not persisted until Commit.
func (s *CommitStore) Set(key, value []byte) error {
	s.tree.Set(key, value)
	return nil
}

// Delete removes the key from the working tree.
func (s *CommitStore) Delete(key []byte) error {
	s.tree.Remove(key)
	return nil
}

// Iterator over a domain of keys in ascending order. End is exclusive.
func (s *CommitStore) Iterator(start, end []byte) (store.Iterator, error) {
	return rangeIterator(s.tree, start, end, true), nil
}

// ReverseIterator over a domain of keys in descending order. End is
// exclusive.
func (s *CommitStore) ReverseIterator(start, end []byte) (store.Iterator, error) {
	return rangeIterator(s.tree, start, end, false), nil
}

// NewBatch returns a batch that can write multiple ops atomically.
func (s *CommitStore) NewBatch() store.Batch {
	return store.NewNonAtomicBatch(s)
}

// CacheWrap gives a savepoint on top of the working tree. Write flushes the
// cached ops into the tree, Discard drops them.
func (s *CommitStore) CacheWrap() store.KVCacheWrap {
	return store.NewBTreeCacheWrap(s, s.NewBatch(), nil)
}

// Commit persists the working tree as the next version and returns its id.
func (s *CommitStore) Commit() (store.CommitID, error) {
	hash, version, err := s.tree.SaveVersion()
	if err != nil {
		return store.CommitID{}, errors.Wrap(errors.ErrDatabase, err.Error())
	}
	return store.CommitID{Version: version, Hash: hash}, nil
}

// LoadLatestVersion loads the latest persisted version from disk. If there
// was a crash during the last commit it returns a stable, possibly older
// state.
func (s *CommitStore) LoadLatestVersion() error {
	if _, err := s.tree.Load(); err != nil {
		return errors.Wrap(errors.ErrDatabase, err.Error())
	}
	return nil
}

// LatestVersion returns the id of the last committed version.
func (s *CommitStore) LatestVersion() (store.CommitID, error) {
	return store.CommitID{
		Version: s.tree.Version(),
		Hash:    s.tree.Hash(),
	}, nil
}

func rangeIterator(tree *iavl.MutableTree, start, end []byte, ascending bool) store.Iterator {
	var models []store.Model
	tree.IterateRange(start, end, ascending, func(key, value []byte) bool {
		models = append(models, store.Model{Key: key, Value: value})
		return false
	})
	return store.NewSliceIterator(models)
}
