package app

import (
	"github.com/iov-one/quorum"
)

// ChainInitializers runs the initializers in order over the same genesis
// options. The first failure stops the chain, and as genesis is loaded
// within InitChain it aborts the node start.
func ChainInitializers(inits ...quorum.Initializer) quorum.Initializer {
	return initializers(inits)
}

type initializers []quorum.Initializer

func (list initializers) FromGenesis(opts quorum.Options, db quorum.KVStore) error {
	for _, ini := range list {
		if err := ini.FromGenesis(opts, db); err != nil {
			return err
		}
	}
	return nil
}
