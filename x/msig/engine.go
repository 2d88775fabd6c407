package msig

import (
	"encoding/binary"
	"strconv"

	"github.com/iov-one/quorum"
	"github.com/iov-one/quorum/app"
	"github.com/iov-one/quorum/coin"
	"github.com/iov-one/quorum/errors"
	"github.com/iov-one/quorum/orm"
	"github.com/iov-one/quorum/x/identity"
	"github.com/tendermint/tendermint/libs/common"
)

// PayloadDecoder parses the payload of a transaction into a message that
// can be dispatched.
type PayloadDecoder func(payload []byte) (quorum.Msg, error)

// CoinMover transfers value between accounts.
type CoinMover interface {
	MoveCoins(db quorum.KVStore, src, dest quorum.Address, amount coin.Coin) error
}

// Status is the result of an execution attempt.
type Status int

const (
	// StatusPending means the quorum is not reached and nothing was done.
	StatusPending Status = iota
	// StatusExecuted means the transaction was executed by this attempt.
	StatusExecuted
	// StatusFailed means the quorum is reached but the call failed. The
	// transaction is not executed.
	StatusFailed
	// StatusSkipped means the transaction was executed before.
	StatusSkipped
)

func (s Status) String() string {
	switch s {
	case StatusPending:
		return "pending"
	case StatusExecuted:
		return "executed"
	case StatusFailed:
		return "failed"
	case StatusSkipped:
		return "skipped"
	}
	return "unknown"
}

// ExecutionOutcome describes an execution attempt. A failed call is an
// outcome and not an error, so that it never aborts the confirmation that
// triggered it.
type ExecutionOutcome struct {
	Status        Status
	WalletID      []byte
	TransactionID uint64
	// Err is the reason of a failed execution.
	Err error
	// PayloadTags are the tags returned by the dispatched payload.
	PayloadTags []common.KVPair
}

// tags returns the signals of this outcome. Pending and skipped attempts
// emit nothing.
func (o ExecutionOutcome) tags() []common.KVPair {
	switch o.Status {
	case StatusExecuted:
		tags := []common.KVPair{
			tag("action", "execute"),
			tag("wallet", walletTag(o.WalletID)),
			tag("transaction", strconv.FormatUint(o.TransactionID, 10)),
		}
		return append(tags, o.PayloadTags...)
	case StatusFailed:
		return []common.KVPair{
			tag("action", "execution-failure"),
			tag("wallet", walletTag(o.WalletID)),
			tag("transaction", strconv.FormatUint(o.TransactionID, 10)),
			tag("error", o.Err.Error()),
		}
	}
	return nil
}

// Engine executes transactions that reached the quorum.
type Engine struct {
	wallets  orm.ModelBucket
	txs      orm.ModelBucket
	coins    CoinMover
	decode   PayloadDecoder
	dispatch app.Executor
}

// NewEngine returns an engine that moves the value with coins and
// dispatches payloads through given handler, usually the application
// router. Routes can be registered on the handler after this call.
func NewEngine(coins CoinMover, decode PayloadDecoder, h quorum.Handler) *Engine {
	return &Engine{
		wallets:  NewWalletBucket(),
		txs:      NewTransactionBucket(),
		coins:    coins,
		decode:   decode,
		dispatch: app.HandlerAsExecutor(h),
	}
}

// Execute executes the transaction if it is not executed yet and the
// confirmations of current owners reach the threshold.
//
// Execution is done in a savepoint. The transaction is marked as executed
// first, then the value is transferred and the payload is dispatched with
// the wallet as the caller. If any step fails, all changes are discarded
// and a failed outcome is returned. Returned error is reserved for state
// that cannot be read.
func (e *Engine) Execute(ctx quorum.Context, db quorum.KVStore, walletID []byte, txID uint64) (ExecutionOutcome, error) {
	out := ExecutionOutcome{WalletID: walletID, TransactionID: txID}

	var w Wallet
	if err := e.wallets.One(db, walletID, &w); err != nil {
		return out, errors.Wrap(err, "wallet")
	}
	key := transactionKey(walletID, txID)
	var tx Transaction
	if err := e.txs.One(db, key, &tx); err != nil {
		return out, errors.Wrap(err, "transaction")
	}
	if tx.Executed {
		out.Status = StatusSkipped
		return out, nil
	}
	if !isConfirmed(tx.Confirmations, w.Owners, w.Required) {
		out.Status = StatusPending
		return out, nil
	}
	if _, ok := db.(quorum.CacheableKVStore); !ok {
		return out, errors.Wrap(errors.ErrHuman, "execution requires a cacheable store")
	}

	conf, confErr := loadConf(db)
	walletAddr := WalletAddress(walletID)
	logger := quorum.GetLogger(ctx).With(
		"module", packageName,
		"wallet", conf.formatAddress(walletAddr),
		"transaction", txID,
	)

	err := app.InSavepoint(db, func(db quorum.KVStore) error {
		tx.Executed = true
		if _, err := e.txs.Put(db, key, &tx); err != nil {
			return errors.Wrap(err, "save transaction")
		}

		if !tx.Value.IsZero() {
			if confErr != nil {
				return confErr
			}
			amount := coin.Coin{Ticker: conf.NativeTicker, Amount: tx.Value}
			if err := e.coins.MoveCoins(db, walletAddr, tx.Destination, amount); err != nil {
				return errors.Wrap(err, "value transfer")
			}
		}

		if len(tx.Payload) == 0 {
			return nil
		}
		msg, err := e.decode(tx.Payload)
		if err != nil {
			return errors.Wrap(err, "decode payload")
		}
		callCtx := identity.WithCaller(ctx, walletAddr)
		if tx.Destination.Equals(walletAddr) {
			callCtx = withSelfCall(callCtx, walletID)
		} else {
			callCtx = withSelfCall(callCtx, nil)
		}
		res, err := e.call(callCtx, db, msg)
		if err != nil {
			return errors.Wrapf(err, "dispatch %s", msg.Path())
		}
		if res != nil {
			out.PayloadTags = res.Tags
		}
		return nil
	})
	if err != nil {
		out.Status = StatusFailed
		out.Err = err
		out.PayloadTags = nil
		executionsTotal.WithLabelValues("failed").Inc()
		logger.Info("transaction execution failed", "err", err)
		return out, nil
	}

	out.Status = StatusExecuted
	executionsTotal.WithLabelValues("executed").Inc()
	logger.Info("transaction executed", "value", tx.Value.String())
	return out, nil
}

// call dispatches msg and turns a panic of its handler into ErrPanic.
func (e *Engine) call(ctx quorum.Context, db quorum.KVStore, msg quorum.Msg) (res *quorum.DeliverResult, err error) {
	defer errors.Recover(&err)
	return e.dispatch(ctx, db, msg)
}

func tag(key, value string) common.KVPair {
	return common.KVPair{Key: []byte(key), Value: []byte(value)}
}

// walletTag presents a wallet id as a decimal number.
func walletTag(id []byte) string {
	if len(id) != 8 {
		return quorum.Address(id).String()
	}
	return strconv.FormatUint(binary.BigEndian.Uint64(id), 10)
}
