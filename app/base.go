package app

import (
	"sync"

	"github.com/iov-one/quorum"
	"github.com/iov-one/quorum/errors"
	abci "github.com/tendermint/tendermint/abci/types"
)

// BaseApp is a StoreApp that also processes transactions.
//
// Transactions are decoded with the decoder and passed to the handler,
// one at a time. Every transaction runs in a savepoint of the check or
// deliver store, so a failed transaction leaves no trace.
type BaseApp struct {
	*StoreApp
	decoder quorum.TxDecoder
	handler quorum.Handler

	// Serializes transactions and commits.
	mu *sync.Mutex
}

var _ abci.Application = BaseApp{}

func NewBaseApp(store *StoreApp, decoder quorum.TxDecoder, handler quorum.Handler) BaseApp {
	return BaseApp{
		StoreApp: store,
		decoder:  decoder,
		handler:  handler,
		mu:       new(sync.Mutex),
	}
}

func (b BaseApp) DeliverTx(raw []byte) abci.ResponseDeliverTx {
	b.mu.Lock()
	defer b.mu.Unlock()

	var res *quorum.DeliverResult
	err := b.process(raw, "deliver_tx", b.DeliverStore(), func(ctx quorum.Context, db quorum.KVStore, tx quorum.Tx) (err error) {
		res, err = b.handler.Deliver(ctx, db, tx)
		return err
	})
	return quorum.DeliverOrError(res, err, b.debug)
}

func (b BaseApp) CheckTx(raw []byte) abci.ResponseCheckTx {
	b.mu.Lock()
	defer b.mu.Unlock()

	var res *quorum.CheckResult
	err := b.process(raw, "check_tx", b.CheckStore(), func(ctx quorum.Context, db quorum.KVStore, tx quorum.Tx) (err error) {
		res, err = b.handler.Check(ctx, db, tx)
		return err
	})
	return quorum.CheckOrError(res, err, b.debug)
}

// process decodes the transaction and runs fn in a savepoint of db.
func (b BaseApp) process(
	raw []byte,
	call string,
	db quorum.CacheableKVStore,
	fn func(quorum.Context, quorum.KVStore, quorum.Tx) error,
) error {
	tx, err := b.decode(raw)
	if err != nil {
		return err
	}
	ctx := quorum.WithLogInfo(b.BlockContext(), "call", call, "path", quorum.GetPath(tx))
	return InSavepoint(db, func(db quorum.KVStore) error {
		return fn(ctx, db, tx)
	})
}

// Commit waits for the transaction in progress to finish.
func (b BaseApp) Commit() abci.ResponseCommit {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.StoreApp.Commit()
}

// decode treats a panic of the decoder as a malformed transaction.
func (b BaseApp) decode(raw []byte) (tx quorum.Tx, err error) {
	defer errors.Recover(&err)
	tx, err = b.decoder(raw)
	return tx, err
}
