package app

import (
	"github.com/iov-one/quorum"
	"github.com/iov-one/quorum/errors"
)

// CommitStore wraps a persistent store with two cache layers. The deliver
// layer collects the changes of the current block and is flushed on
// Commit. The check layer is used to validate transactions against the
// last committed state and is dropped on Commit.
type CommitStore struct {
	committed quorum.CommitKVStore
	deliver   quorum.KVCacheWrap
	check     quorum.KVCacheWrap
}

// NewCommitStore loads the latest version of the store. It panics when the
// store cannot be loaded, as the application cannot start without it.
func NewCommitStore(store quorum.CommitKVStore) *CommitStore {
	if err := store.LoadLatestVersion(); err != nil {
		panic(err)
	}
	cs := &CommitStore{committed: store}
	cs.reset()
	return cs
}

func (cs *CommitStore) reset() {
	cs.deliver = cs.committed.CacheWrap()
	cs.check = cs.committed.CacheWrap()
}

// CommitInfo returns the version and hash of the last commit.
func (cs *CommitStore) CommitInfo() (quorum.CommitID, error) {
	return cs.committed.LatestVersion()
}

// Commit persists all delivered changes and starts new cache layers.
func (cs *CommitStore) Commit() (quorum.CommitID, error) {
	if err := cs.deliver.Write(); err != nil {
		return quorum.CommitID{}, errors.Wrap(err, "flush deliver cache")
	}
	cs.check.Discard()

	id, err := cs.committed.Commit()
	if err != nil {
		return id, err
	}
	cs.reset()
	return id, nil
}

func (cs *CommitStore) CheckStore() quorum.CacheableKVStore {
	return cs.check
}

func (cs *CommitStore) DeliverStore() quorum.CacheableKVStore {
	return cs.deliver
}

// Keys with the "_q:" prefix are reserved for the framework.
var chainIDKey = []byte("_q:chainID")

// mustLoadChainID returns an empty string before genesis.
func mustLoadChainID(db quorum.ReadOnlyKVStore) string {
	raw, err := db.Get(chainIDKey)
	if err != nil {
		panic(err)
	}
	return string(raw)
}

// saveChainID can be called only once per store.
func saveChainID(db quorum.KVStore, chainID string) error {
	if !quorum.IsValidChainID(chainID) {
		return errors.Wrapf(errors.ErrInput, "chain id %q", chainID)
	}
	switch exists, err := db.Has(chainIDKey); {
	case err != nil:
		return errors.Wrap(err, "read chain id")
	case exists:
		return errors.Wrap(errors.ErrState, "chain id is set at genesis and cannot change")
	}
	return errors.Wrap(db.Set(chainIDKey, []byte(chainID)), "save chain id")
}
