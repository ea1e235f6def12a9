package store

import (
	"github.com/iov-one/stanza"
)

// Reexport the store interfaces, so they are available in a self-contained
// package for all implementations.
type (
	ReadOnlyKVStore  = stanza.ReadOnlyKVStore
	SetDeleter       = stanza.SetDeleter
	KVStore          = stanza.KVStore
	Batch            = stanza.Batch
	Iterator         = stanza.Iterator
	CacheableKVStore = stanza.CacheableKVStore
	KVCacheWrap      = stanza.KVCacheWrap
	CommitKVStore    = stanza.CommitKVStore
	CommitID         = stanza.CommitID
	Model            = stanza.Model
)
