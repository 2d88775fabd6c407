package msig

import (
	"github.com/iov-one/quorum"
	"github.com/iov-one/quorum/errors"
)

// Read accessors of the wallet state. Confirmation related queries are
// always evaluated against the current owners.

// GetWallet returns the wallet with given id.
func GetWallet(db quorum.ReadOnlyKVStore, walletID []byte) (*Wallet, error) {
	var w Wallet
	if err := NewWalletBucket().One(db, walletID, &w); err != nil {
		return nil, err
	}
	return &w, nil
}

// GetTransaction returns a transaction of a wallet.
func GetTransaction(db quorum.ReadOnlyKVStore, walletID []byte, txID uint64) (*Transaction, error) {
	var t Transaction
	if err := NewTransactionBucket().One(db, transactionKey(walletID, txID), &t); err != nil {
		return nil, err
	}
	return &t, nil
}

// GetOwners returns the owners of a wallet in insertion order.
func GetOwners(db quorum.ReadOnlyKVStore, walletID []byte) ([]quorum.Address, error) {
	w, err := GetWallet(db, walletID)
	if err != nil {
		return nil, err
	}
	return w.GetOwners(), nil
}

// IsOwner returns true if given address is a current owner of a wallet.
func IsOwner(db quorum.ReadOnlyKVStore, walletID []byte, addr quorum.Address) (bool, error) {
	w, err := GetWallet(db, walletID)
	if err != nil {
		return false, err
	}
	return w.IsOwner(addr), nil
}

// Required returns the threshold of a wallet.
func Required(db quorum.ReadOnlyKVStore, walletID []byte) (uint32, error) {
	w, err := GetWallet(db, walletID)
	if err != nil {
		return 0, err
	}
	return w.Required, nil
}

// TransactionCount returns the number of transaction ids ever allocated by
// a wallet.
func TransactionCount(db quorum.ReadOnlyKVStore, walletID []byte) (uint64, error) {
	w, err := GetWallet(db, walletID)
	if err != nil {
		return 0, err
	}
	return w.TransactionCount, nil
}

// IsConfirmed returns true if the confirmations of current owners reach
// the threshold.
func IsConfirmed(db quorum.ReadOnlyKVStore, walletID []byte, txID uint64) (bool, error) {
	w, t, err := load(db, walletID, txID)
	if err != nil {
		return false, err
	}
	return isConfirmed(t.Confirmations, w.Owners, w.Required), nil
}

// GetConfirmationCount returns the number of confirmations made by current
// owners.
func GetConfirmationCount(db quorum.ReadOnlyKVStore, walletID []byte, txID uint64) (int, error) {
	w, t, err := load(db, walletID, txID)
	if err != nil {
		return 0, err
	}
	return liveConfirmations(t.Confirmations, w.Owners), nil
}

// GetConfirmations returns current owners that confirmed a transaction, in
// the owner order.
func GetConfirmations(db quorum.ReadOnlyKVStore, walletID []byte, txID uint64) ([]quorum.Address, error) {
	w, t, err := load(db, walletID, txID)
	if err != nil {
		return nil, err
	}
	var res []quorum.Address
	for _, o := range w.Owners {
		if t.HasConfirmed(o) {
			res = append(res, o.Clone())
		}
	}
	return res, nil
}

// GetTransactionCount returns the number of transactions of a wallet
// matching the filter.
func GetTransactionCount(db quorum.ReadOnlyKVStore, walletID []byte, pending, executed bool) (uint64, error) {
	ids, err := filterTransactions(db, walletID, pending, executed)
	if err != nil {
		return 0, err
	}
	return uint64(len(ids)), nil
}

// GetTransactionIDs returns ids of transactions matching the filter. The
// result is the [from, to) window of all matching ids in ascending order.
// The window is truncated to the number of matching ids.
func GetTransactionIDs(db quorum.ReadOnlyKVStore, walletID []byte, from, to uint64, pending, executed bool) ([]uint64, error) {
	if from > to {
		return nil, errors.Wrapf(errors.ErrInput, "invalid range [%d, %d)", from, to)
	}
	ids, err := filterTransactions(db, walletID, pending, executed)
	if err != nil {
		return nil, err
	}
	n := uint64(len(ids))
	if to > n {
		to = n
	}
	if from >= to {
		return nil, nil
	}
	return ids[from:to], nil
}

func filterTransactions(db quorum.ReadOnlyKVStore, walletID []byte, pending, executed bool) ([]uint64, error) {
	if err := validateWalletID(walletID); err != nil {
		return nil, err
	}
	it, err := NewTransactionBucket().PrefixScan(db, walletID, false)
	if err != nil {
		return nil, err
	}
	defer it.Release()

	var ids []uint64
	for {
		var t Transaction
		key, err := it.LoadNext(&t)
		if errors.ErrIteratorDone.Is(err) {
			return ids, nil
		}
		if err != nil {
			return nil, errors.Wrap(err, "load transaction")
		}
		if (pending && !t.Executed) || (executed && t.Executed) {
			id, err := transactionIDFromKey(key)
			if err != nil {
				return nil, err
			}
			ids = append(ids, id)
		}
	}
}

func load(db quorum.ReadOnlyKVStore, walletID []byte, txID uint64) (*Wallet, *Transaction, error) {
	w, err := GetWallet(db, walletID)
	if err != nil {
		return nil, nil, errors.Wrap(err, "wallet")
	}
	t, err := GetTransaction(db, walletID, txID)
	if err != nil {
		return nil, nil, errors.Wrapf(err, "transaction %d", txID)
	}
	return w, t, nil
}
