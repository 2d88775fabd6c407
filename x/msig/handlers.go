package msig

import (
	"strconv"

	"github.com/iov-one/quorum"
	"github.com/iov-one/quorum/errors"
	"github.com/iov-one/quorum/orm"
	"github.com/iov-one/quorum/x"
	"github.com/tendermint/tendermint/libs/common"
)

// RegisterRoutes will instantiate and register all handlers in this
// package. Administration handlers are registered as well, but they
// accept only messages dispatched by the engine.
func RegisterRoutes(r quorum.Registry, auth x.Authenticator, engine *Engine) {
	wallets := NewWalletBucket()
	txs := NewTransactionBucket()

	r.Handle(&CreateWalletMsg{}, CreateWalletHandler{wallets: wallets})
	r.Handle(&SubmitTransactionMsg{}, SubmitTransactionHandler{
		auth: auth, wallets: wallets, txs: txs, engine: engine,
	})
	r.Handle(&ConfirmTransactionMsg{}, ConfirmTransactionHandler{
		auth: auth, wallets: wallets, txs: txs, engine: engine,
	})
	r.Handle(&RevokeConfirmationMsg{}, RevokeConfirmationHandler{
		auth: auth, wallets: wallets, txs: txs,
	})

	admin := AdministrationHandler{wallets: wallets}
	r.Handle(&AddOwnerMsg{}, admin)
	r.Handle(&RemoveOwnerMsg{}, admin)
	r.Handle(&ReplaceOwnerMsg{}, admin)
	r.Handle(&ChangeRequirementMsg{}, admin)
}

// RegisterQuery registers wallets under "/wallets" and the ledger under
// "/msigtxs".
func RegisterQuery(qr quorum.QueryRouter) {
	NewWalletBucket().Register("wallets", qr)
	NewTransactionBucket().Register("msigtxs", qr)
}

// CreateWalletHandler creates a new wallet. Anyone can create a wallet.
type CreateWalletHandler struct {
	wallets orm.ModelBucket
}

var _ quorum.Handler = CreateWalletHandler{}

func (h CreateWalletHandler) Check(ctx quorum.Context, db quorum.KVStore, tx quorum.Tx) (*quorum.CheckResult, error) {
	var msg CreateWalletMsg
	if err := quorum.LoadMsg(tx, &msg); err != nil {
		return nil, errors.Wrap(err, "load msg")
	}
	return &quorum.CheckResult{}, nil
}

func (h CreateWalletHandler) Deliver(ctx quorum.Context, db quorum.KVStore, tx quorum.Tx) (*quorum.DeliverResult, error) {
	var msg CreateWalletMsg
	if err := quorum.LoadMsg(tx, &msg); err != nil {
		return nil, errors.Wrap(err, "load msg")
	}
	w := &Wallet{
		Metadata: &quorum.Metadata{Schema: 1},
		Owners:   msg.Owners,
		Required: msg.Required,
	}
	id, err := h.wallets.Put(db, nil, w)
	if err != nil {
		return nil, errors.Wrap(err, "cannot store wallet")
	}
	countSignal("wallet-created")
	return &quorum.DeliverResult{
		Data: id,
		Tags: []common.KVPair{
			tag("action", "wallet-created"),
			tag("wallet", walletTag(id)),
			tag("address", WalletAddress(id).String()),
			tag("required", strconv.FormatUint(uint64(w.Required), 10)),
		},
	}, nil
}

// SubmitTransactionHandler records a new transaction confirmed by the
// submitter and attempts to execute it.
type SubmitTransactionHandler struct {
	auth    x.Authenticator
	wallets orm.ModelBucket
	txs     orm.ModelBucket
	engine  *Engine
}

var _ quorum.Handler = SubmitTransactionHandler{}

func (h SubmitTransactionHandler) Check(ctx quorum.Context, db quorum.KVStore, tx quorum.Tx) (*quorum.CheckResult, error) {
	if _, _, _, err := h.validate(ctx, db, tx); err != nil {
		return nil, err
	}
	return &quorum.CheckResult{}, nil
}

func (h SubmitTransactionHandler) Deliver(ctx quorum.Context, db quorum.KVStore, tx quorum.Tx) (*quorum.DeliverResult, error) {
	msg, wallet, caller, err := h.validate(ctx, db, tx)
	if err != nil {
		return nil, err
	}

	txID, err := wallet.nextTransactionID()
	if err != nil {
		return nil, err
	}
	if _, err := h.wallets.Put(db, msg.WalletID, wallet); err != nil {
		return nil, errors.Wrap(err, "cannot store wallet")
	}
	t := &Transaction{
		Metadata:      &quorum.Metadata{Schema: 1},
		WalletID:      msg.WalletID,
		Destination:   msg.Destination,
		Value:         msg.Value,
		Payload:       msg.Payload,
		Confirmations: []quorum.Address{caller},
	}
	if _, err := h.txs.Put(db, transactionKey(msg.WalletID, txID), t); err != nil {
		return nil, errors.Wrap(err, "cannot store transaction")
	}

	outcome, err := h.engine.Execute(ctx, db, msg.WalletID, txID)
	if err != nil {
		return nil, errors.Wrap(err, "execute")
	}

	countSignal("submit")
	tags := []common.KVPair{
		tag("action", "submit"),
		tag("wallet", walletTag(msg.WalletID)),
		tag("transaction", strconv.FormatUint(txID, 10)),
		tag("owner", caller.String()),
		tag("destination", msg.Destination.String()),
		tag("value", msg.Value.String()),
	}
	return &quorum.DeliverResult{
		Data: orm.EncodeSequence(txID),
		Log:  outcome.Status.String(),
		Tags: append(tags, outcomeTags(outcome)...),
	}, nil
}

func (h SubmitTransactionHandler) validate(ctx quorum.Context, db quorum.KVStore, tx quorum.Tx) (*SubmitTransactionMsg, *Wallet, quorum.Address, error) {
	var msg SubmitTransactionMsg
	if err := quorum.LoadMsg(tx, &msg); err != nil {
		return nil, nil, nil, errors.Wrap(err, "load msg")
	}
	var w Wallet
	if err := h.wallets.One(db, msg.WalletID, &w); err != nil {
		return nil, nil, nil, errors.Wrap(err, "wallet")
	}
	caller, err := authenticatedOwner(ctx, h.auth, &w)
	if err != nil {
		return nil, nil, nil, err
	}
	return &msg, &w, caller, nil
}

// ConfirmTransactionHandler adds the confirmation of an owner and
// attempts to execute the transaction.
type ConfirmTransactionHandler struct {
	auth    x.Authenticator
	wallets orm.ModelBucket
	txs     orm.ModelBucket
	engine  *Engine
}

var _ quorum.Handler = ConfirmTransactionHandler{}

func (h ConfirmTransactionHandler) Check(ctx quorum.Context, db quorum.KVStore, tx quorum.Tx) (*quorum.CheckResult, error) {
	if _, _, _, err := h.validate(ctx, db, tx); err != nil {
		return nil, err
	}
	return &quorum.CheckResult{}, nil
}

func (h ConfirmTransactionHandler) Deliver(ctx quorum.Context, db quorum.KVStore, tx quorum.Tx) (*quorum.DeliverResult, error) {
	msg, t, caller, err := h.validate(ctx, db, tx)
	if err != nil {
		return nil, err
	}
	if _, err := h.txs.Put(db, transactionKey(msg.WalletID, msg.TransactionID), t); err != nil {
		return nil, errors.Wrap(err, "cannot store transaction")
	}

	outcome, err := h.engine.Execute(ctx, db, msg.WalletID, msg.TransactionID)
	if err != nil {
		return nil, errors.Wrap(err, "execute")
	}

	countSignal("confirm")
	tags := []common.KVPair{
		tag("action", "confirm"),
		tag("wallet", walletTag(msg.WalletID)),
		tag("transaction", strconv.FormatUint(msg.TransactionID, 10)),
		tag("owner", caller.String()),
	}
	return &quorum.DeliverResult{
		Log:  outcome.Status.String(),
		Tags: append(tags, outcomeTags(outcome)...),
	}, nil
}

// validate returns the transaction with the confirmation of the caller
// added.
func (h ConfirmTransactionHandler) validate(ctx quorum.Context, db quorum.KVStore, tx quorum.Tx) (*ConfirmTransactionMsg, *Transaction, quorum.Address, error) {
	var msg ConfirmTransactionMsg
	if err := quorum.LoadMsg(tx, &msg); err != nil {
		return nil, nil, nil, errors.Wrap(err, "load msg")
	}
	var w Wallet
	if err := h.wallets.One(db, msg.WalletID, &w); err != nil {
		return nil, nil, nil, errors.Wrap(err, "wallet")
	}
	caller, err := authenticatedOwner(ctx, h.auth, &w)
	if err != nil {
		return nil, nil, nil, err
	}
	var t Transaction
	if err := h.txs.One(db, transactionKey(msg.WalletID, msg.TransactionID), &t); err != nil {
		return nil, nil, nil, errors.Wrapf(err, "transaction %d", msg.TransactionID)
	}
	if err := t.confirm(caller); err != nil {
		return nil, nil, nil, err
	}
	return &msg, &t, caller, nil
}

// RevokeConfirmationHandler removes the confirmation of an owner. Revoking
// never executes a transaction.
type RevokeConfirmationHandler struct {
	auth    x.Authenticator
	wallets orm.ModelBucket
	txs     orm.ModelBucket
}

var _ quorum.Handler = RevokeConfirmationHandler{}

func (h RevokeConfirmationHandler) Check(ctx quorum.Context, db quorum.KVStore, tx quorum.Tx) (*quorum.CheckResult, error) {
	if _, _, _, err := h.validate(ctx, db, tx); err != nil {
		return nil, err
	}
	return &quorum.CheckResult{}, nil
}

func (h RevokeConfirmationHandler) Deliver(ctx quorum.Context, db quorum.KVStore, tx quorum.Tx) (*quorum.DeliverResult, error) {
	msg, t, caller, err := h.validate(ctx, db, tx)
	if err != nil {
		return nil, err
	}
	if _, err := h.txs.Put(db, transactionKey(msg.WalletID, msg.TransactionID), t); err != nil {
		return nil, errors.Wrap(err, "cannot store transaction")
	}
	countSignal("revoke")
	return &quorum.DeliverResult{
		Tags: []common.KVPair{
			tag("action", "revoke"),
			tag("wallet", walletTag(msg.WalletID)),
			tag("transaction", strconv.FormatUint(msg.TransactionID, 10)),
			tag("owner", caller.String()),
		},
	}, nil
}

func (h RevokeConfirmationHandler) validate(ctx quorum.Context, db quorum.KVStore, tx quorum.Tx) (*RevokeConfirmationMsg, *Transaction, quorum.Address, error) {
	var msg RevokeConfirmationMsg
	if err := quorum.LoadMsg(tx, &msg); err != nil {
		return nil, nil, nil, errors.Wrap(err, "load msg")
	}
	var w Wallet
	if err := h.wallets.One(db, msg.WalletID, &w); err != nil {
		return nil, nil, nil, errors.Wrap(err, "wallet")
	}
	caller, err := authenticatedOwner(ctx, h.auth, &w)
	if err != nil {
		return nil, nil, nil, err
	}
	var t Transaction
	if err := h.txs.One(db, transactionKey(msg.WalletID, msg.TransactionID), &t); err != nil {
		return nil, nil, nil, errors.Wrapf(err, "transaction %d", msg.TransactionID)
	}
	if err := t.revoke(caller); err != nil {
		return nil, nil, nil, err
	}
	return &msg, &t, caller, nil
}

// AdministrationHandler changes the owners and the threshold of a wallet.
// It accepts a message only when it is dispatched by the execution of a
// transaction that the same wallet addressed to itself.
type AdministrationHandler struct {
	wallets orm.ModelBucket
}

var _ quorum.Handler = AdministrationHandler{}

func (h AdministrationHandler) Check(ctx quorum.Context, db quorum.KVStore, tx quorum.Tx) (*quorum.CheckResult, error) {
	if _, _, _, err := h.apply(ctx, db, tx); err != nil {
		return nil, err
	}
	return &quorum.CheckResult{}, nil
}

func (h AdministrationHandler) Deliver(ctx quorum.Context, db quorum.KVStore, tx quorum.Tx) (*quorum.DeliverResult, error) {
	walletID, w, tags, err := h.apply(ctx, db, tx)
	if err != nil {
		return nil, err
	}
	if _, err := h.wallets.Put(db, walletID, w); err != nil {
		return nil, errors.Wrap(err, "cannot store wallet")
	}
	countSignal(string(tags[0].Value))
	return &quorum.DeliverResult{Tags: tags}, nil
}

// apply returns the wallet with the change of the message applied,
// together with the signals describing that change.
func (h AdministrationHandler) apply(ctx quorum.Context, db quorum.KVStore, tx quorum.Tx) ([]byte, *Wallet, []common.KVPair, error) {
	msg, err := tx.GetMsg()
	if err != nil {
		return nil, nil, nil, errors.Wrap(err, "cannot get transaction message")
	}
	var walletID []byte
	switch m := msg.(type) {
	case *AddOwnerMsg:
		walletID = m.WalletID
	case *RemoveOwnerMsg:
		walletID = m.WalletID
	case *ReplaceOwnerMsg:
		walletID = m.WalletID
	case *ChangeRequirementMsg:
		walletID = m.WalletID
	default:
		return nil, nil, nil, errors.Wrapf(errors.ErrType, "unexpected message %T", msg)
	}
	if !isSelfCall(ctx, walletID) {
		return nil, nil, nil, errors.Wrap(errors.ErrUnauthorized, "only the wallet can administer itself")
	}
	if err := msg.Validate(); err != nil {
		return nil, nil, nil, errors.Wrap(err, "invalid message")
	}

	var w Wallet
	if err := h.wallets.One(db, walletID, &w); err != nil {
		return nil, nil, nil, errors.Wrap(err, "wallet")
	}
	var (
		action string
		extra  []common.KVPair
	)
	switch m := msg.(type) {
	case *AddOwnerMsg:
		action, err = "owner-added", w.addOwner(m.Owner)
		extra = []common.KVPair{tag("owner", m.Owner.String())}
	case *RemoveOwnerMsg:
		action, err = "owner-removed", w.removeOwner(m.Owner)
		extra = []common.KVPair{tag("owner", m.Owner.String())}
	case *ReplaceOwnerMsg:
		action, err = "owner-replaced", w.replaceOwner(m.Owner, m.NewOwner)
		extra = []common.KVPair{tag("owner", m.Owner.String()), tag("new-owner", m.NewOwner.String())}
	case *ChangeRequirementMsg:
		action, err = "requirement-changed", w.changeRequirement(m.Required)
	}
	if err != nil {
		return nil, nil, nil, err
	}

	tags := []common.KVPair{tag("action", action), tag("wallet", walletTag(walletID))}
	tags = append(tags, extra...)
	// The threshold may change as a result of an owner removal.
	tags = append(tags, tag("required", strconv.FormatUint(uint64(w.Required), 10)))
	return walletID, &w, tags, nil
}

// authenticatedOwner returns the first authenticated address that is an
// owner of the wallet.
func authenticatedOwner(ctx quorum.Context, auth x.Authenticator, w *Wallet) (quorum.Address, error) {
	if a := x.AuthenticatedMember(ctx, auth, w.Owners); a != nil {
		return a, nil
	}
	return nil, errors.Wrap(errors.ErrUnauthorized, "caller is not an owner")
}

// outcomeTags returns the signals of an execution attempt and counts
// them.
func outcomeTags(o ExecutionOutcome) []common.KVPair {
	tags := o.tags()
	if len(tags) != 0 {
		countSignal(string(tags[0].Value))
	}
	return tags
}
