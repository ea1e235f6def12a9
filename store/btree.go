package store

import (
	"bytes"

	"github.com/google/btree"
)

const (
	// DefaultFreeListSize is the size we hold for the free node list in
	// the btree.
	DefaultFreeListSize = btree.DefaultFreeListSize
)

// BTreeCacheable adds a simple btree-based CacheWrap strategy to a KVStore.
type BTreeCacheable struct {
	KVStore
}

var _ CacheableKVStore = BTreeCacheable{}

// CacheWrap returns a BTreeCacheWrap that can be later written to this
// store, or rolled back.
func (b BTreeCacheable) CacheWrap() KVCacheWrap {
	return NewBTreeCacheWrap(b.KVStore, b.NewBatch(), nil)
}

// MemStore returns a simple implementation useful for tests. There is no
// persistence here.
func MemStore() CacheableKVStore {
	e := EmptyKVStore{}
	return NewBTreeCacheWrap(e, e.NewBatch(), nil)
}

///////////////////////////////////////////////
// Actual CacheWrap implementation

// BTreeCacheWrap places a btree cache over a KVStore.
type BTreeCacheWrap struct {
	bt    *btree.BTree
	free  *btree.FreeList
	back  ReadOnlyKVStore
	batch Batch
}

var _ KVCacheWrap = BTreeCacheWrap{}

// NewBTreeCacheWrap initializes a BTree to cache around this kv store. Use
// ReadOnlyKVStore to emphasize that all writes must go through the Batch.
//
// free may be nil, but set to an existing list to reuse it for memory
// savings.
func NewBTreeCacheWrap(kv ReadOnlyKVStore, batch Batch, free *btree.FreeList) BTreeCacheWrap {
	if free == nil {
		free = btree.NewFreeList(DefaultFreeListSize)
	}
	return BTreeCacheWrap{
		bt:    btree.NewWithFreeList(2, free),
		free:  free,
		back:  kv,
		batch: batch,
	}
}

// CacheWrap layers another BTree on top of this one. Don't change horses in
// mid-stream...
//
// Uses NonAtomicBatch as it is only backed by another in-memory batch.
func (b BTreeCacheWrap) CacheWrap() KVCacheWrap {
	return NewBTreeCacheWrap(b, b.NewBatch(), b.free)
}

// NewBatch returns a non-atomic batch that eventually may write to our
// cachewrap.
func (b BTreeCacheWrap) NewBatch() Batch {
	return NewNonAtomicBatch(b)
}

// Write syncs with the underlying store. And then cleans up.
func (b BTreeCacheWrap) Write() error {
	err := b.batch.Write()
	b.Discard()
	return err
}

// Discard invalidates this CacheWrap and releases all data.
func (b BTreeCacheWrap) Discard() {
	// Clean up the btree -> freelist.
	for stop := false; !stop; {
		rem := b.bt.DeleteMin()
		stop = (rem == nil)
	}
}

// Set writes to the BTree and to the batch.
func (b BTreeCacheWrap) Set(key, value []byte) error {
	b.bt.ReplaceOrInsert(newSetItem(key, value))
	return b.batch.Set(key, value)
}

// Delete marks as deleted in the BTree and in the batch.
func (b BTreeCacheWrap) Delete(key []byte) error {
	b.bt.ReplaceOrInsert(newDeletedItem(key))
	return b.batch.Delete(key)
}

// Get reads from the BTree if the value is cached there, otherwise from the
// backing store.
func (b BTreeCacheWrap) Get(key []byte) ([]byte, error) {
	res := b.bt.Get(bkey{key})
	if res != nil {
		switch t := res.(type) {
		case setItem:
			return t.value, nil
		case deletedItem:
			return nil, nil
		}
	}
	return b.back.Get(key)
}

// Has reads from the BTree if the information is cached there, otherwise
// from the backing store.
func (b BTreeCacheWrap) Has(key []byte) (bool, error) {
	res := b.bt.Get(bkey{key})
	if res != nil {
		switch res.(type) {
		case setItem:
			return true, nil
		case deletedItem:
			return false, nil
		}
	}
	return b.back.Has(key)
}

// Iterator over a domain of keys in ascending order.
//
// Combines the uncommitted writes with the backing store data. The whole
// range is materialized eagerly, which is fine for the state sizes this
// engine processes in a single call.
func (b BTreeCacheWrap) Iterator(start, end []byte) (Iterator, error) {
	base, err := readAll(b.back, start, end, false)
	if err != nil {
		return nil, err
	}
	return NewSliceIterator(b.overlay(base, start, end, false)), nil
}

// ReverseIterator over a domain of keys in descending order.
func (b BTreeCacheWrap) ReverseIterator(start, end []byte) (Iterator, error) {
	base, err := readAll(b.back, start, end, true)
	if err != nil {
		return nil, err
	}
	return NewSliceIterator(b.overlay(base, start, end, true)), nil
}

// overlay merges the cached writes with the already sorted backing models.
// Cached writes win over backing data, deletes drop the key entirely.
func (b BTreeCacheWrap) overlay(base []Model, start, end []byte, reverse bool) []Model {
	var cached []keyer
	insert := func(i btree.Item) bool {
		cached = append(cached, i.(keyer))
		return true
	}
	if reverse {
		switch {
		case start == nil && end == nil:
			b.bt.Descend(insert)
		case end == nil:
			b.bt.DescendGreaterThan(bkey{start}, insert)
			// DescendGreaterThan is exclusive on the pivot, but start
			// is inclusive, so handle the pivot key separately.
			if it := b.bt.Get(bkey{start}); it != nil {
				cached = append(cached, it.(keyer))
			}
		case start == nil:
			b.bt.DescendLessOrEqual(bkey{end}, insert)
			cached = dropFirstKey(cached, end)
		default:
			b.bt.DescendRange(bkey{end}, bkey{start}, insert)
			// DescendRange covers (start, end] while we want [start, end).
			if it := b.bt.Get(bkey{start}); it != nil {
				cached = append(cached, it.(keyer))
			}
			cached = dropFirstKey(cached, end)
		}
	} else {
		switch {
		case start == nil && end == nil:
			b.bt.Ascend(insert)
		case end == nil:
			b.bt.AscendGreaterOrEqual(bkey{start}, insert)
		case start == nil:
			b.bt.AscendLessThan(bkey{end}, insert)
		default:
			b.bt.AscendRange(bkey{start}, bkey{end}, insert)
		}
	}

	cmp := func(a, b []byte) int { return bytes.Compare(a, b) }
	if reverse {
		cmp = func(a, b []byte) int { return -bytes.Compare(a, b) }
	}

	var out []Model
	i, j := 0, 0
	for i < len(cached) || j < len(base) {
		var take keyer
		switch {
		case i >= len(cached):
			out = append(out, base[j])
			j++
			continue
		case j >= len(base):
			take = cached[i]
			i++
		default:
			switch c := cmp(cached[i].Key(), base[j].Key); {
			case c < 0:
				take = cached[i]
				i++
			case c > 0:
				out = append(out, base[j])
				j++
				continue
			default:
				// Cached write shadows the backing store entry.
				take = cached[i]
				i++
				j++
			}
		}
		if set, ok := take.(setItem); ok {
			out = append(out, Model{Key: set.key, Value: set.value})
		}
	}
	return out
}

// dropFirstKey removes a leading item matching the exclusive end bound.
func dropFirstKey(items []keyer, key []byte) []keyer {
	if len(items) > 0 && bytes.Equal(items[0].Key(), key) {
		return items[1:]
	}
	return items
}

// readAll drains an iterator of the backing store into a slice.
func readAll(db ReadOnlyKVStore, start, end []byte, reverse bool) ([]Model, error) {
	var (
		it  Iterator
		err error
	)
	if reverse {
		it, err = db.ReverseIterator(start, end)
	} else {
		it, err = db.Iterator(start, end)
	}
	if err != nil {
		return nil, err
	}
	defer it.Release()

	var out []Model
	for {
		key, value, err := it.Next()
		if err != nil {
			// ErrIteratorDone signals a clean end of the range.
			return out, nil
		}
		out = append(out, Model{Key: key, Value: value})
	}
}

///////////////////////////////////////////////
// btree items

// keyer is an interface for all items in our btree.
type keyer interface {
	btree.Item
	Key() []byte
}

// bkey is a probe item used for lookups, it has no associated data.
type bkey struct {
	key []byte
}

var _ keyer = bkey{}

func (k bkey) Key() []byte {
	return k.key
}

func (k bkey) Less(item btree.Item) bool {
	cmp := item.(keyer).Key()
	return bytes.Compare(k.key, cmp) < 0
}

// setItem is a key with a value attached.
type setItem struct {
	bkey
	value []byte
}

func newSetItem(key, value []byte) setItem {
	return setItem{
		bkey:  bkey{key},
		value: value,
	}
}

// deletedItem marks a key as removed in this cache layer.
type deletedItem struct {
	bkey
}

func newDeletedItem(key []byte) deletedItem {
	return deletedItem{bkey{key}}
}
