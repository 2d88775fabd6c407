/*
Package store provides key value stores and the savepoint (cache wrap)
implementation used to make every state transition all-or-nothing.
*/
package store

import "github.com/iov-one/quorum"

// Aliases of the store interfaces, so that implementations in this
// package read naturally.
type (
	ReadOnlyKVStore  = quorum.ReadOnlyKVStore
	SetDeleter       = quorum.SetDeleter
	KVStore          = quorum.KVStore
	Batch            = quorum.Batch
	Iterator         = quorum.Iterator
	CacheableKVStore = quorum.CacheableKVStore
	KVCacheWrap      = quorum.KVCacheWrap
	CommitKVStore    = quorum.CommitKVStore
	CommitID         = quorum.CommitID
)
