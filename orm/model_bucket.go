package orm

import (
	"bytes"
	"reflect"

	"github.com/iov-one/stanza"
	"github.com/iov-one/stanza/errors"
)

// ModelBucket is implemented by buckets that operate on Models rather than
// raw bytes.
type ModelBucket interface {
	// One queries the database for a single model instance. Lookup is done
	// by the primary key. The result is loaded into the given destination
	// model.
	// This method returns ErrNotFound if the entity does not exist in the
	// database.
	One(db stanza.ReadOnlyKVStore, key []byte, dest Model) error

	// ByIndex returns all objects that secondary index with given name and
	// given key. Main index keys of the matching entities are returned,
	// the entities themselves are loaded into the destination, which must
	// be a pointer to a slice of models.
	ByIndex(db stanza.ReadOnlyKVStore, indexName string, key []byte, dest ModelSlicePtr) ([][]byte, error)

	// Put saves given model in the database. Before inserting into the
	// database, the model is validated using its Validate method.
	// If the key is nil and the bucket was created with an ID sequence, a
	// sequence generator is used to create a unique key value.
	// The key used to store the entity is returned.
	Put(db stanza.KVStore, key []byte, m Model) ([]byte, error)

	// Delete removes an entity with given primary key from the database.
	// It returns ErrNotFound if an entity with given key does not exist.
	Delete(db stanza.KVStore, key []byte) error

	// Has returns nil if an entity with given primary key value exists. It
	// returns ErrNotFound if no entity can be found.
	Has(db stanza.ReadOnlyKVStore, key []byte) error

	// Register registers this bucket and its indexes under the given query
	// name in the router.
	Register(name string, r stanza.QueryRouter)
}

// ModelSlicePtr represents a pointer to a slice of models. Used for
// ByIndex results. For instance: if the bucket holds Track entities then
// dest must be *[]Track or *[]*Track.
type ModelSlicePtr interface{}

// ModelBucketOption configures a ModelBucket on creation.
type ModelBucketOption func(mb *modelBucket)

// WithIDSequence configures the bucket to use the given sequence to
// generate primary keys for entities stored with a nil key.
func WithIDSequence(s Sequence) ModelBucketOption {
	return func(mb *modelBucket) {
		mb.idSeq = &s
	}
}

// Indexer calculates the value of a secondary index for the given model.
// Returning a nil key and no error means the model is not indexed.
//
// All models of one bucket must produce index values of the same length,
// otherwise range scans over a non unique index are ambiguous.
type Indexer func(Model) ([]byte, error)

// WithIndex configures the bucket to maintain a secondary index.
func WithIndex(name string, indexer Indexer, unique bool) ModelBucketOption {
	return func(mb *modelBucket) {
		mb.indexes = append(mb.indexes, bucketIndex{
			name:    name,
			prefix:  []byte("_i." + mb.name + "_" + name + ":"),
			unique:  unique,
			indexer: indexer,
		})
	}
}

// NewModelBucket returns a ModelBucket instance operating directly on the
// key value store. Given model is used only to learn the type of the stored
// entities, its value does not matter.
func NewModelBucket(name string, m Model, opts ...ModelBucketOption) ModelBucket {
	if !isBucketName(name) {
		panic("invalid bucket name: " + name)
	}
	tp := reflect.TypeOf(m)
	if tp.Kind() == reflect.Ptr {
		tp = tp.Elem()
	}
	mb := &modelBucket{
		name:   name,
		prefix: []byte(name + ":"),
		model:  tp,
	}
	for _, opt := range opts {
		opt(mb)
	}
	return mb
}

type modelBucket struct {
	name    string
	prefix  []byte
	model   reflect.Type
	idSeq   *Sequence
	indexes []bucketIndex
}

var _ ModelBucket = (*modelBucket)(nil)

func (mb *modelBucket) dbKey(key []byte) []byte {
	out := make([]byte, 0, len(mb.prefix)+len(key))
	out = append(out, mb.prefix...)
	return append(out, key...)
}

func (mb *modelBucket) One(db stanza.ReadOnlyKVStore, key []byte, dest Model) error {
	raw, err := db.Get(mb.dbKey(key))
	if err != nil {
		return err
	}
	if raw == nil {
		return errors.Wrapf(errors.ErrNotFound, "%T not in the store", dest)
	}
	if tp := reflect.TypeOf(dest); tp.Kind() != reflect.Ptr || tp.Elem() != mb.model {
		return errors.Wrapf(errors.ErrType, "%s cannot be represented as %T", mb.model.Name(), dest)
	}
	return dest.Unmarshal(raw)
}

func (mb *modelBucket) ByIndex(db stanza.ReadOnlyKVStore, indexName string, key []byte, dest ModelSlicePtr) ([][]byte, error) {
	idx, err := mb.index(indexName)
	if err != nil {
		return nil, err
	}
	refs, err := idx.keys(db, key)
	if err != nil {
		return nil, err
	}
	if len(refs) == 0 {
		return nil, nil
	}

	dv := reflect.ValueOf(dest)
	if dv.Kind() != reflect.Ptr || dv.Elem().Kind() != reflect.Slice {
		return nil, errors.Wrapf(errors.ErrType, "%T is not a slice pointer", dest)
	}
	slice := dv.Elem()
	elemTp := slice.Type().Elem()
	ptrResults := elemTp.Kind() == reflect.Ptr
	if ptrResults {
		elemTp = elemTp.Elem()
	}
	if elemTp != mb.model {
		return nil, errors.Wrapf(errors.ErrType, "this bucket stores %s entities", mb.model.Name())
	}

	for _, ref := range refs {
		item := reflect.New(elemTp)
		if err := mb.One(db, ref, item.Interface().(Model)); err != nil {
			return nil, errors.Wrapf(err, "reference %x", ref)
		}
		if !ptrResults {
			item = item.Elem()
		}
		slice = reflect.Append(slice, item)
	}
	dv.Elem().Set(slice)
	return refs, nil
}

func (mb *modelBucket) Put(db stanza.KVStore, key []byte, m Model) ([]byte, error) {
	mTp := reflect.TypeOf(m)
	if mTp.Kind() != reflect.Ptr || mTp.Elem() != mb.model {
		return nil, errors.Wrapf(errors.ErrType, "%s cannot store %T entities", mb.name, m)
	}
	if err := m.Validate(); err != nil {
		return nil, errors.Wrap(err, "invalid model")
	}

	if key == nil {
		if mb.idSeq == nil {
			return nil, errors.Wrap(errors.ErrInput, "a primary key is required")
		}
		var err error
		key, err = mb.idSeq.NextVal(db)
		if err != nil {
			return nil, errors.Wrap(err, "ID sequence")
		}
	}

	prev, err := mb.previous(db, key)
	if err != nil {
		return nil, err
	}

	raw, err := m.Marshal()
	if err != nil {
		return nil, errors.Wrapf(err, "cannot marshal %T", m)
	}
	if err := db.Set(mb.dbKey(key), raw); err != nil {
		return nil, err
	}

	for _, idx := range mb.indexes {
		if err := idx.update(db, key, prev, m); err != nil {
			return nil, errors.Wrapf(err, "index %q", idx.name)
		}
	}
	return key, nil
}

func (mb *modelBucket) Delete(db stanza.KVStore, key []byte) error {
	prev, err := mb.previous(db, key)
	if err != nil {
		return err
	}
	if prev == nil {
		return errors.Wrapf(errors.ErrNotFound, "%s not in the store", mb.name)
	}
	for _, idx := range mb.indexes {
		if err := idx.update(db, key, prev, nil); err != nil {
			return errors.Wrapf(err, "index %q", idx.name)
		}
	}
	return db.Delete(mb.dbKey(key))
}

func (mb *modelBucket) Has(db stanza.ReadOnlyKVStore, key []byte) error {
	if key == nil {
		// nil key is a special case that would match the bucket prefix.
		return errors.Wrap(errors.ErrNotFound, "nil key")
	}
	ok, err := db.Has(mb.dbKey(key))
	if err != nil {
		return err
	}
	if !ok {
		return errors.ErrNotFound
	}
	return nil
}

// previous loads the currently stored state of the entity, nil if missing.
// It is needed to clean up secondary index entries on change.
func (mb *modelBucket) previous(db stanza.ReadOnlyKVStore, key []byte) (Model, error) {
	raw, err := db.Get(mb.dbKey(key))
	if err != nil {
		return nil, err
	}
	if raw == nil {
		return nil, nil
	}
	prev := reflect.New(mb.model).Interface().(Model)
	if err := prev.Unmarshal(raw); err != nil {
		return nil, errors.Wrapf(err, "cannot unmarshal %s", mb.model.Name())
	}
	return prev, nil
}

func (mb *modelBucket) index(name string) (*bucketIndex, error) {
	for i := range mb.indexes {
		if mb.indexes[i].name == name {
			return &mb.indexes[i], nil
		}
	}
	return nil, errors.Wrapf(errors.ErrDatabase, "no index with name %q", name)
}

func (mb *modelBucket) Register(name string, r stanza.QueryRouter) {
	if name == "" {
		name = mb.name
	}
	root := "/" + name
	r.Register(root, primaryQuery{mb})
	for i := range mb.indexes {
		r.Register(root+"/"+mb.indexes[i].name, indexQuery{mb, &mb.indexes[i]})
	}
}

// bucketIndex maintains a secondary index over the bucket entities. For a
// unique index a single reference is stored under the index value key. For
// a non unique index the primary key is appended to the index value, which
// requires fixed length index values to stay unambiguous.
type bucketIndex struct {
	name    string
	prefix  []byte
	unique  bool
	indexer Indexer
}

func (idx *bucketIndex) indexKey(value, pk []byte) []byte {
	out := make([]byte, 0, len(idx.prefix)+len(value)+len(pk))
	out = append(out, idx.prefix...)
	out = append(out, value...)
	if !idx.unique {
		out = append(out, pk...)
	}
	return out
}

func (idx *bucketIndex) update(db stanza.KVStore, pk []byte, prev, next Model) error {
	var prevVal, nextVal []byte
	var err error
	if prev != nil {
		if prevVal, err = idx.indexer(prev); err != nil {
			return err
		}
	}
	if next != nil {
		if nextVal, err = idx.indexer(next); err != nil {
			return err
		}
	}
	if bytes.Equal(prevVal, nextVal) {
		return nil
	}
	if prevVal != nil {
		if err := db.Delete(idx.indexKey(prevVal, pk)); err != nil {
			return err
		}
	}
	if nextVal == nil {
		return nil
	}
	key := idx.indexKey(nextVal, pk)
	if idx.unique {
		taken, err := db.Has(key)
		if err != nil {
			return err
		}
		if taken {
			return errors.Wrapf(errors.ErrDuplicate, "value %x already indexed", nextVal)
		}
	}
	return db.Set(key, pk)
}

// keys returns the primary keys of all entities indexed under given value.
func (idx *bucketIndex) keys(db stanza.ReadOnlyKVStore, value []byte) ([][]byte, error) {
	if idx.unique {
		ref, err := db.Get(idx.indexKey(value, nil))
		if err != nil {
			return nil, err
		}
		if ref == nil {
			return nil, nil
		}
		return [][]byte{ref}, nil
	}

	start := idx.indexKey(value, nil)
	it, err := db.Iterator(start, prefixEnd(start))
	if err != nil {
		return nil, err
	}
	defer it.Release()

	var refs [][]byte
	for {
		_, ref, err := it.Next()
		if err != nil {
			if errors.ErrIteratorDone.Is(err) {
				return refs, nil
			}
			return nil, err
		}
		refs = append(refs, ref)
	}
}

// primaryQuery exposes the bucket content through the query router. Queries
// are made using the plain primary key, the bucket prefix is added here.
type primaryQuery struct {
	mb *modelBucket
}

var _ stanza.QueryHandler = primaryQuery{}

func (q primaryQuery) Query(db stanza.ReadOnlyKVStore, mod string, data []byte) ([]stanza.Model, error) {
	dbKey := q.mb.dbKey(data)
	switch mod {
	case stanza.KeyQueryMod:
		value, err := db.Get(dbKey)
		if err != nil {
			return nil, err
		}
		if value == nil {
			return nil, nil
		}
		return []stanza.Model{{Key: dbKey, Value: value}}, nil
	case stanza.PrefixQueryMod:
		return queryPrefix(db, dbKey)
	default:
		return nil, errors.Wrapf(errors.ErrInput, "unknown query mod %q", mod)
	}
}

// indexQuery resolves entities through a secondary index. Data is the index
// value, returned models are the indexed entities.
type indexQuery struct {
	mb  *modelBucket
	idx *bucketIndex
}

var _ stanza.QueryHandler = indexQuery{}

func (q indexQuery) Query(db stanza.ReadOnlyKVStore, mod string, data []byte) ([]stanza.Model, error) {
	if mod != stanza.KeyQueryMod {
		return nil, errors.Wrapf(errors.ErrInput, "unknown query mod %q", mod)
	}
	refs, err := q.idx.keys(db, data)
	if err != nil {
		return nil, err
	}
	out := make([]stanza.Model, 0, len(refs))
	for _, ref := range refs {
		dbKey := q.mb.dbKey(ref)
		value, err := db.Get(dbKey)
		if err != nil {
			return nil, err
		}
		if value == nil {
			return nil, errors.Wrapf(errors.ErrState, "dangling index reference %x", ref)
		}
		out = append(out, stanza.Model{Key: dbKey, Value: value})
	}
	return out, nil
}

// queryPrefix collects all models stored under the given key prefix.
func queryPrefix(db stanza.ReadOnlyKVStore, prefix []byte) ([]stanza.Model, error) {
	it, err := db.Iterator(prefix, prefixEnd(prefix))
	if err != nil {
		return nil, err
	}
	defer it.Release()

	var out []stanza.Model
	for {
		key, value, err := it.Next()
		if err != nil {
			if errors.ErrIteratorDone.Is(err) {
				return out, nil
			}
			return nil, err
		}
		out = append(out, stanza.Model{Key: key, Value: value})
	}
}

// prefixEnd returns the first key that is lexicographically above all keys
// with the given prefix, nil for an unbounded range.
func prefixEnd(prefix []byte) []byte {
	end := append([]byte(nil), prefix...)
	for i := len(end) - 1; i >= 0; i-- {
		if end[i] < 0xff {
			end[i]++
			return end[:i+1]
		}
	}
	return nil
}
