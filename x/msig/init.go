package msig

import (
	"github.com/iov-one/quorum"
	"github.com/iov-one/quorum/errors"
	"github.com/iov-one/quorum/gconf"
)

// GenesisWallet is a wallet declared in the genesis file. Wallets are
// assigned consecutive ids starting with 1, in the declaration order.
type GenesisWallet struct {
	Owners   []quorum.Address `json:"owners"`
	Required uint32           `json:"required"`
}

// Initializer fulfils the Initializer interface to load data from the
// genesis file
type Initializer struct{}

var _ quorum.Initializer = Initializer{}

// FromGenesis stores the configuration and all declared wallets. It fails
// without configuration.
func (Initializer) FromGenesis(opts quorum.Options, db quorum.KVStore) error {
	if err := gconf.InitConfig(db, opts, packageName, &Configuration{}); err != nil {
		return errors.Wrap(err, "init config")
	}

	var state struct {
		Wallets []GenesisWallet `json:"wallets"`
	}
	if err := opts.ReadOptions(packageName, &state); err != nil {
		return err
	}
	bucket := NewWalletBucket()
	for i, gw := range state.Wallets {
		w := &Wallet{
			Metadata: &quorum.Metadata{Schema: 1},
			Owners:   gw.Owners,
			Required: gw.Required,
		}
		if _, err := bucket.Put(db, nil, w); err != nil {
			return errors.Wrapf(err, "wallet %d", i)
		}
	}
	return nil
}
