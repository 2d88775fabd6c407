package store

// RecordingStore wraps a store and records every change written to it,
// including changes written through its cache wraps. Use it to verify
// that an operation left the state untouched.
type RecordingStore struct {
	CacheableKVStore
	// changes maps key to the new value, nil for deletes
	changes map[string][]byte
}

var _ CacheableKVStore = (*RecordingStore)(nil)

// NewRecordingStore initializes a recording store wrapping given base store.
func NewRecordingStore(db CacheableKVStore) *RecordingStore {
	return &RecordingStore{
		CacheableKVStore: db,
		changes:          make(map[string][]byte),
	}
}

// KVPairs returns all recorded changes since creation or last Reset.
func (r *RecordingStore) KVPairs() map[string][]byte {
	return r.changes
}

// Reset forgets all recorded changes.
func (r *RecordingStore) Reset() {
	r.changes = make(map[string][]byte)
}

// Set records the changes while performing
func (r *RecordingStore) Set(key, value []byte) error {
	r.changes[string(key)] = value
	return r.CacheableKVStore.Set(key, value)
}

// Delete records the changes while performing
func (r *RecordingStore) Delete(key []byte) error {
	r.changes[string(key)] = nil
	return r.CacheableKVStore.Delete(key)
}

// NewBatch makes sure all writes go through the recorder.
func (r *RecordingStore) NewBatch() Batch {
	return NewNonAtomicBatch(r)
}

// CacheWrap layers a cache that writes back through the recorder.
func (r *RecordingStore) CacheWrap() KVCacheWrap {
	return NewBTreeCacheWrap(r, r.NewBatch(), nil)
}
