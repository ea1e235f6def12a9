package iavl

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iov-one/stanza/errors"
	"github.com/iov-one/stanza/store"
)

func TestCommitStoreGetSetDelete(t *testing.T) {
	s := MockCommitStore()

	got, err := s.Get([]byte("missing"))
	require.NoError(t, err)
	assert.Nil(t, got)

	require.NoError(t, s.Set([]byte("k"), []byte("v")))

	got, err = s.Get([]byte("k"))
	require.NoError(t, err)
	assert.Equal(t, []byte("v"), got)

	has, err := s.Has([]byte("k"))
	require.NoError(t, err)
	assert.True(t, has)

	require.NoError(t, s.Delete([]byte("k")))
	has, err = s.Has([]byte("k"))
	require.NoError(t, err)
	assert.False(t, has)
}

func TestCommitAdvancesVersion(t *testing.T) {
	s := MockCommitStore()

	require.NoError(t, s.Set([]byte("a"), []byte("1")))
	first, err := s.Commit()
	require.NoError(t, err)
	assert.Equal(t, int64(1), first.Version)
	assert.NotEmpty(t, first.Hash)

	require.NoError(t, s.Set([]byte("b"), []byte("2")))
	second, err := s.Commit()
	require.NoError(t, err)
	assert.Equal(t, int64(2), second.Version)
	assert.NotEqual(t, first.Hash, second.Hash)

	latest, err := s.LatestVersion()
	require.NoError(t, err)
	assert.Equal(t, second, latest)
}

func TestCacheWrapIsolation(t *testing.T) {
	s := MockCommitStore()
	require.NoError(t, s.Set([]byte("k"), []byte("committed")))

	cache := s.CacheWrap()
	require.NoError(t, cache.Set([]byte("k"), []byte("pending")))
	require.NoError(t, cache.Set([]byte("extra"), []byte("data")))

	// Tree is untouched until the cache is written.
	got, err := s.Get([]byte("k"))
	require.NoError(t, err)
	assert.Equal(t, []byte("committed"), got)

	require.NoError(t, cache.Write())

	got, err = s.Get([]byte("k"))
	require.NoError(t, err)
	assert.Equal(t, []byte("pending"), got)
	got, err = s.Get([]byte("extra"))
	require.NoError(t, err)
	assert.Equal(t, []byte("data"), got)
}

func TestIterateRange(t *testing.T) {
	s := MockCommitStore()
	require.NoError(t, s.Set([]byte("a"), []byte("1")))
	require.NoError(t, s.Set([]byte("b"), []byte("2")))
	require.NoError(t, s.Set([]byte("c"), []byte("3")))

	it, err := s.Iterator([]byte("a"), []byte("c"))
	require.NoError(t, err)
	assert.Equal(t, []store.Model{
		{Key: []byte("a"), Value: []byte("1")},
		{Key: []byte("b"), Value: []byte("2")},
	}, drain(t, it))

	it, err = s.ReverseIterator([]byte("a"), []byte("c"))
	require.NoError(t, err)
	assert.Equal(t, []store.Model{
		{Key: []byte("b"), Value: []byte("2")},
		{Key: []byte("a"), Value: []byte("1")},
	}, drain(t, it))
}

func drain(t *testing.T, it store.Iterator) []store.Model {
	t.Helper()
	defer it.Release()

	var out []store.Model
	for {
		key, value, err := it.Next()
		if err != nil {
			require.True(t, errors.ErrIteratorDone.Is(err))
			return out
		}
		out = append(out, store.Model{Key: key, Value: value})
	}
}
