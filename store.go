package quorum

// ReadOnlyKVStore reads a sorted key value store.
type ReadOnlyKVStore interface {
	// Get returns nil when the key is not present.
	Get(key []byte) ([]byte, error)
	Has(key []byte) (bool, error)

	// Iterator returns keys of [start, end) in ascending order. A nil
	// bound is open. The range must not be written while it is
	// iterated.
	Iterator(start, end []byte) (Iterator, error)
	// ReverseIterator returns keys of [start, end) in descending order.
	ReverseIterator(start, end []byte) (Iterator, error)
}

// SetDeleter writes a store or a batch. Passed slices must not be
// modified afterwards.
type SetDeleter interface {
	Set(key, value []byte) error
	Delete(key []byte) error
}

// KVStore is the store handlers work with.
type KVStore interface {
	ReadOnlyKVStore
	SetDeleter
	NewBatch() Batch
}

// Batch collects writes that are applied together on Write.
type Batch interface {
	SetDeleter
	Write() error
}

// Iterator walks a range of a store:
//
//   it, err := db.Iterator(start, end)
//   if err != nil {
//     return err
//   }
//   defer it.Release()
//   for {
//     key, value, err := it.Next()
//     if errors.ErrIteratorDone.Is(err) {
//       break
//     }
//     if err != nil {
//       return err
//     }
//     ...
//   }
type Iterator interface {
	// Next returns ErrIteratorDone after the last pair.
	Next() (key, value []byte, err error)
	Release()
}

// CacheableKVStore can open savepoints. Changes made to a cache wrap are
// visible to its reads and reach the parent only on Write.
type CacheableKVStore interface {
	KVStore
	CacheWrap() KVCacheWrap
}

// KVCacheWrap is a savepoint. It is either written to its parent or
// discarded, and cannot be used afterwards. It can be wrapped again to
// nest savepoints.
type KVCacheWrap interface {
	CacheableKVStore
	Write() error
	Discard()
}

// CommitKVStore is the persistent root store. It is modified through a
// cache wrap and persists all written changes as a new version on Commit.
type CommitKVStore interface {
	// Get reads the last committed version.
	Get(key []byte) ([]byte, error)
	CacheWrap() KVCacheWrap
	Commit() (CommitID, error)
	// LoadLatestVersion loads the last complete version, even after a
	// crash during a commit.
	LoadLatestVersion() error
	LatestVersion() (CommitID, error)
}

// CommitID identifies a committed version by its number and merkle root.
type CommitID struct {
	Version int64
	Hash    []byte
}
