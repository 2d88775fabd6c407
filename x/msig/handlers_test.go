package msig

import (
	"context"
	"testing"

	"github.com/iov-one/quorum"
	"github.com/iov-one/quorum/app"
	"github.com/iov-one/quorum/coin"
	"github.com/iov-one/quorum/errors"
	"github.com/iov-one/quorum/gconf"
	"github.com/iov-one/quorum/orm"
	"github.com/iov-one/quorum/safemath"
	"github.com/iov-one/quorum/store"
	"github.com/iov-one/quorum/weavetest"
	"github.com/iov-one/quorum/x/cash"
	"github.com/iov-one/quorum/x/identity"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// testEnv is a minimal application: cash and msig handlers behind a router,
// with identity based authentication.
type testEnv struct {
	t        *testing.T
	db       quorum.CacheableKVStore
	router   *app.Router
	cash     cash.Controller
	payloads map[string]quorum.Msg
}

func newTestEnv(t *testing.T) *testEnv {
	env := &testEnv{
		t:        t,
		db:       store.MemStore(),
		router:   app.NewRouter(),
		cash:     cash.NewController(cash.NewBucket()),
		payloads: make(map[string]quorum.Msg),
	}
	conf := &Configuration{
		Metadata:      &quorum.Metadata{Schema: 1},
		NativeTicker:  "IOV",
		AddressPrefix: "iov",
	}
	require.NoError(t, gconf.Save(env.db, packageName, conf))

	auth := identity.Authenticate{}
	engine := NewEngine(env.cash, env.decode, env.router)
	RegisterRoutes(env.router, auth, engine)
	cash.RegisterRoutes(env.router, auth, env.cash)
	return env
}

// payload returns an opaque payload that decodes into given message.
func (env *testEnv) payload(msg quorum.Msg) []byte {
	raw, err := msg.Marshal()
	require.NoError(env.t, err)
	key := append([]byte(msg.Path()+":"), raw...)
	env.payloads[string(key)] = msg
	return key
}

func (env *testEnv) decode(raw []byte) (quorum.Msg, error) {
	msg, ok := env.payloads[string(raw)]
	if !ok {
		return nil, errors.Wrap(errors.ErrInput, "unknown payload")
	}
	return msg, nil
}

// deliver processes given message in a savepoint, as the application
// does, with given caller authenticated.
func (env *testEnv) deliver(caller quorum.Address, msg quorum.Msg) (*quorum.DeliverResult, error) {
	ctx := context.Background()
	if caller != nil {
		ctx = identity.WithCaller(ctx, caller)
	}
	var res *quorum.DeliverResult
	err := app.InSavepoint(env.db, func(db quorum.KVStore) (err error) {
		res, err = env.router.Deliver(ctx, db, &weavetest.Tx{Msg: msg})
		return err
	})
	return res, err
}

func (env *testEnv) check(caller quorum.Address, msg quorum.Msg) error {
	ctx := identity.WithCaller(context.Background(), caller)
	_, err := env.router.Check(ctx, env.db.CacheWrap(), &weavetest.Tx{Msg: msg})
	return err
}

func (env *testEnv) createWallet(owners []quorum.Address, required uint32) []byte {
	res, err := env.deliver(nil, &CreateWalletMsg{
		Metadata: &quorum.Metadata{Schema: 1},
		Owners:   owners,
		Required: required,
	})
	require.NoError(env.t, err)
	return res.Data
}

func (env *testEnv) fund(addr quorum.Address, amount uint64) {
	require.NoError(env.t, env.cash.IssueCoins(env.db, addr, coin.NewCoin(amount, "IOV")))
}

func (env *testEnv) balance(addr quorum.Address) uint64 {
	coins, err := env.cash.Balance(env.db, addr)
	require.NoError(env.t, err)
	n, err := coins.Get("IOV").Amount.Uint64()
	require.NoError(env.t, err)
	return n
}

func (env *testEnv) submit(caller quorum.Address, walletID []byte, dest quorum.Address, value uint64, payload []byte) (uint64, *quorum.DeliverResult) {
	res, err := env.deliver(caller, &SubmitTransactionMsg{
		Metadata:    &quorum.Metadata{Schema: 1},
		WalletID:    walletID,
		Destination: dest,
		Value:       safemath.NewUint(value),
		Payload:     payload,
	})
	require.NoError(env.t, err)
	id, err := orm.DecodeSequence(res.Data)
	require.NoError(env.t, err)
	return id, res
}

func (env *testEnv) confirm(caller quorum.Address, walletID []byte, txID uint64) (*quorum.DeliverResult, error) {
	return env.deliver(caller, &ConfirmTransactionMsg{
		Metadata:      &quorum.Metadata{Schema: 1},
		WalletID:      walletID,
		TransactionID: txID,
	})
}

func (env *testEnv) revoke(caller quorum.Address, walletID []byte, txID uint64) (*quorum.DeliverResult, error) {
	return env.deliver(caller, &RevokeConfirmationMsg{
		Metadata:      &quorum.Metadata{Schema: 1},
		WalletID:      walletID,
		TransactionID: txID,
	})
}

func (env *testEnv) transaction(walletID []byte, txID uint64) *Transaction {
	tx, err := GetTransaction(env.db, walletID, txID)
	require.NoError(env.t, err)
	return tx
}

func (env *testEnv) wallet(walletID []byte) *Wallet {
	w, err := GetWallet(env.db, walletID)
	require.NoError(env.t, err)
	return w
}

// actions returns values of all "action" tags in order.
func actions(res *quorum.DeliverResult) []string {
	var all []string
	for _, t := range res.Tags {
		if string(t.Key) == "action" {
			all = append(all, string(t.Value))
		}
	}
	return all
}

func tagValue(res *quorum.DeliverResult, key string) string {
	v, _ := res.Tag(key)
	return string(v)
}

func TestCreateWallet(t *testing.T) {
	env := newTestEnv(t)
	owners := randomOwners(t, 3)

	res, err := env.deliver(nil, &CreateWalletMsg{
		Metadata: &quorum.Metadata{Schema: 1},
		Owners:   owners,
		Required: 2,
	})
	require.NoError(t, err)
	assert.Equal(t, weavetest.SequenceID(1), res.Data)
	assert.Equal(t, []string{"wallet-created"}, actions(res))
	assert.Equal(t, WalletAddress(res.Data).String(), tagValue(res, "address"))

	w := env.wallet(res.Data)
	assert.Equal(t, owners, w.GetOwners())
	assert.Equal(t, uint32(2), w.Required)
	assert.Equal(t, uint64(0), w.TransactionCount)

	_, err = env.deliver(nil, &CreateWalletMsg{
		Metadata: &quorum.Metadata{Schema: 1},
		Owners:   owners,
		Required: 4,
	})
	assert.True(t, errors.ErrInput.Is(err))

	// A failed creation must not allocate an id.
	res, err = env.deliver(nil, &CreateWalletMsg{
		Metadata: &quorum.Metadata{Schema: 1},
		Owners:   owners[:1],
		Required: 1,
	})
	require.NoError(t, err)
	assert.Equal(t, weavetest.SequenceID(2), res.Data)
}

func TestSubmitAndConfirm(t *testing.T) {
	env := newTestEnv(t)
	owners := randomOwners(t, 3)
	walletID := env.createWallet(owners, 2)
	walletAddr := WalletAddress(walletID)
	receiver := weavetest.RandomAddr(t)
	env.fund(walletAddr, 1000)

	txID, res := env.submit(owners[0], walletID, receiver, 234, nil)
	assert.Equal(t, uint64(0), txID)
	assert.Equal(t, []string{"submit"}, actions(res))
	assert.Equal(t, "234", tagValue(res, "value"))
	assert.Equal(t, "pending", res.Log)

	ok, err := IsConfirmed(env.db, walletID, txID)
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Equal(t, uint64(0), env.balance(receiver))
	assert.Equal(t, uint64(1000), env.balance(walletAddr))

	res, err = env.confirm(owners[1], walletID, txID)
	require.NoError(t, err)
	assert.Equal(t, []string{"confirm", "execute"}, actions(res))
	assert.Equal(t, "executed", res.Log)

	ok, err = IsConfirmed(env.db, walletID, txID)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.True(t, env.transaction(walletID, txID).Executed)
	assert.Equal(t, uint64(234), env.balance(receiver))
	assert.Equal(t, uint64(766), env.balance(walletAddr))

	// Executed transaction is frozen.
	_, err = env.confirm(owners[2], walletID, txID)
	assert.True(t, errors.ErrState.Is(err))
	_, err = env.revoke(owners[1], walletID, txID)
	assert.True(t, errors.ErrState.Is(err))
	n, err := GetConfirmationCount(env.db, walletID, txID)
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	// Next id is allocated from the wallet counter.
	txID, _ = env.submit(owners[2], walletID, receiver, 1, nil)
	assert.Equal(t, uint64(1), txID)
	count, err := TransactionCount(env.db, walletID)
	require.NoError(t, err)
	assert.Equal(t, uint64(2), count)
}

func TestSingleOwnerExecutesOnSubmit(t *testing.T) {
	env := newTestEnv(t)
	owner := weavetest.RandomAddr(t)
	walletID := env.createWallet([]quorum.Address{owner}, 1)
	env.fund(WalletAddress(walletID), 10)
	receiver := weavetest.RandomAddr(t)

	txID, res := env.submit(owner, walletID, receiver, 10, nil)
	assert.Equal(t, []string{"submit", "execute"}, actions(res))
	assert.True(t, env.transaction(walletID, txID).Executed)
	assert.Equal(t, uint64(10), env.balance(receiver))
}

func TestInvalidCalls(t *testing.T) {
	env := newTestEnv(t)
	owners := randomOwners(t, 3)
	walletID := env.createWallet(owners, 2)
	stranger := weavetest.RandomAddr(t)
	txID, _ := env.submit(owners[0], walletID, weavetest.RandomAddr(t), 0, nil)

	cases := map[string]struct {
		caller  quorum.Address
		msg     quorum.Msg
		wantErr *errors.Error
	}{
		"submit by a non owner": {
			caller: stranger,
			msg: &SubmitTransactionMsg{
				Metadata:    &quorum.Metadata{Schema: 1},
				WalletID:    walletID,
				Destination: weavetest.RandomAddr(t),
			},
			wantErr: errors.ErrUnauthorized,
		},
		"submit to zero address": {
			caller: owners[0],
			msg: &SubmitTransactionMsg{
				Metadata:    &quorum.Metadata{Schema: 1},
				WalletID:    walletID,
				Destination: make(quorum.Address, quorum.AddressLength),
			},
			wantErr: errors.ErrMsg,
		},
		"submit to unknown wallet": {
			caller: owners[0],
			msg: &SubmitTransactionMsg{
				Metadata:    &quorum.Metadata{Schema: 1},
				WalletID:    weavetest.SequenceID(99),
				Destination: weavetest.RandomAddr(t),
			},
			wantErr: errors.ErrNotFound,
		},
		"double confirmation": {
			caller: owners[0],
			msg: &ConfirmTransactionMsg{
				Metadata:      &quorum.Metadata{Schema: 1},
				WalletID:      walletID,
				TransactionID: txID,
			},
			wantErr: errors.ErrDuplicate,
		},
		"confirmation by a non owner": {
			caller: stranger,
			msg: &ConfirmTransactionMsg{
				Metadata:      &quorum.Metadata{Schema: 1},
				WalletID:      walletID,
				TransactionID: txID,
			},
			wantErr: errors.ErrUnauthorized,
		},
		"confirmation of unknown transaction": {
			caller: owners[1],
			msg: &ConfirmTransactionMsg{
				Metadata:      &quorum.Metadata{Schema: 1},
				WalletID:      walletID,
				TransactionID: txID + 1,
			},
			wantErr: errors.ErrNotFound,
		},
		"revoke without confirmation": {
			caller: owners[1],
			msg: &RevokeConfirmationMsg{
				Metadata:      &quorum.Metadata{Schema: 1},
				WalletID:      walletID,
				TransactionID: txID,
			},
			wantErr: errors.ErrState,
		},
		"revoke by a non owner": {
			caller: stranger,
			msg: &RevokeConfirmationMsg{
				Metadata:      &quorum.Metadata{Schema: 1},
				WalletID:      walletID,
				TransactionID: txID,
			},
			wantErr: errors.ErrUnauthorized,
		},
	}

	for testName, tc := range cases {
		t.Run(testName, func(t *testing.T) {
			before := env.transaction(walletID, txID)

			err := env.check(tc.caller, tc.msg)
			assert.True(t, tc.wantErr.Is(err), "unexpected check error: %+v", err)
			_, err = env.deliver(tc.caller, tc.msg)
			assert.True(t, tc.wantErr.Is(err), "unexpected deliver error: %+v", err)

			assert.Equal(t, before, env.transaction(walletID, txID))
			count, err := TransactionCount(env.db, walletID)
			require.NoError(t, err)
			assert.Equal(t, uint64(1), count)
		})
	}
}

func TestRevokePreventsExecution(t *testing.T) {
	env := newTestEnv(t)
	owners := randomOwners(t, 3)
	walletID := env.createWallet(owners, 3)
	env.fund(WalletAddress(walletID), 100)
	receiver := weavetest.RandomAddr(t)

	txID, _ := env.submit(owners[0], walletID, receiver, 50, nil)
	_, err := env.confirm(owners[1], walletID, txID)
	require.NoError(t, err)

	res, err := env.revoke(owners[0], walletID, txID)
	require.NoError(t, err)
	assert.Equal(t, []string{"revoke"}, actions(res))
	n, err := GetConfirmationCount(env.db, walletID, txID)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	res, err = env.confirm(owners[2], walletID, txID)
	require.NoError(t, err)
	assert.Equal(t, []string{"confirm"}, actions(res))
	assert.False(t, env.transaction(walletID, txID).Executed)
	assert.Equal(t, uint64(0), env.balance(receiver))

	res, err = env.confirm(owners[0], walletID, txID)
	require.NoError(t, err)
	assert.Equal(t, []string{"confirm", "execute"}, actions(res))
	assert.Equal(t, uint64(50), env.balance(receiver))
}

func TestExecutionFailureIsNotAnError(t *testing.T) {
	env := newTestEnv(t)
	owners := randomOwners(t, 2)
	walletID := env.createWallet(owners, 2)
	walletAddr := WalletAddress(walletID)
	receiver := weavetest.RandomAddr(t)
	env.fund(walletAddr, 100)

	txID, _ := env.submit(owners[0], walletID, receiver, 150, nil)

	res, err := env.confirm(owners[1], walletID, txID)
	require.NoError(t, err, "failed execution must not fail the confirmation")
	assert.Equal(t, []string{"confirm", "execution-failure"}, actions(res))
	assert.Contains(t, tagValue(res, "error"), "insufficient amount")
	assert.Equal(t, "failed", res.Log)

	tx := env.transaction(walletID, txID)
	assert.False(t, tx.Executed)
	assert.Len(t, tx.Confirmations, 2, "confirmation must be recorded")
	assert.Equal(t, uint64(100), env.balance(walletAddr))
	assert.Equal(t, uint64(0), env.balance(receiver))

	// Once funded, the transaction is executed by a new confirmation
	// round.
	env.fund(walletAddr, 50)
	_, err = env.revoke(owners[1], walletID, txID)
	require.NoError(t, err)
	res, err = env.confirm(owners[1], walletID, txID)
	require.NoError(t, err)
	assert.Equal(t, []string{"confirm", "execute"}, actions(res))
	assert.True(t, env.transaction(walletID, txID).Executed)
	assert.Equal(t, uint64(150), env.balance(receiver))
	assert.Equal(t, uint64(0), env.balance(walletAddr))
}

func TestPayloadExecution(t *testing.T) {
	env := newTestEnv(t)
	owners := randomOwners(t, 2)
	walletID := env.createWallet(owners, 1)
	walletAddr := WalletAddress(walletID)
	receiver := weavetest.RandomAddr(t)
	require.NoError(t, env.cash.IssueCoins(env.db, walletAddr, coin.NewCoin(40, "TKN")))

	// Token transfer from the wallet account is authorized by the wallet
	// being the caller.
	send := env.payload(&cash.SendMsg{
		Metadata:    &quorum.Metadata{Schema: 1},
		Source:      walletAddr,
		Destination: receiver,
		Amount:      coin.NewCoinp(15, "TKN"),
	})
	txID, res := env.submit(owners[0], walletID, receiver, 0, send)
	assert.Equal(t, []string{"submit", "execute", "send"}, actions(res))
	assert.True(t, env.transaction(walletID, txID).Executed)
	got, err := env.cash.Balance(env.db, receiver)
	require.NoError(t, err)
	assert.True(t, got.Get("TKN").Equals(coin.NewCoin(15, "TKN")))

	// Payload cannot act on behalf of the owner who triggered the
	// execution.
	steal := env.payload(&cash.SendMsg{
		Metadata:    &quorum.Metadata{Schema: 1},
		Source:      owners[0],
		Destination: receiver,
		Amount:      coin.NewCoinp(1, "IOV"),
	})
	env.fund(owners[0], 1)
	txID, res = env.submit(owners[0], walletID, receiver, 0, steal)
	assert.Equal(t, []string{"submit", "execution-failure"}, actions(res))
	assert.Contains(t, tagValue(res, "error"), "unauthorized")
	assert.False(t, env.transaction(walletID, txID).Executed)
	assert.Equal(t, uint64(1), env.balance(owners[0]))

	// Undecodable payload fails the execution only.
	txID, res = env.submit(owners[0], walletID, receiver, 0, []byte("garbage"))
	assert.Equal(t, []string{"submit", "execution-failure"}, actions(res))
	assert.False(t, env.transaction(walletID, txID).Executed)
}

func TestFailedPayloadRevertsValueTransfer(t *testing.T) {
	env := newTestEnv(t)
	owner := weavetest.RandomAddr(t)
	walletID := env.createWallet([]quorum.Address{owner}, 1)
	walletAddr := WalletAddress(walletID)
	receiver := weavetest.RandomAddr(t)
	env.fund(walletAddr, 100)

	bad := env.payload(&cash.SendMsg{
		Metadata:    &quorum.Metadata{Schema: 1},
		Source:      walletAddr,
		Destination: receiver,
		Amount:      coin.NewCoinp(1, "ZZZ"),
	})
	txID, res := env.submit(owner, walletID, receiver, 60, bad)
	assert.Equal(t, []string{"submit", "execution-failure"}, actions(res))
	assert.False(t, env.transaction(walletID, txID).Executed)
	assert.Equal(t, uint64(100), env.balance(walletAddr))
	assert.Equal(t, uint64(0), env.balance(receiver))
}

func TestAdministrationRequiresSelfCall(t *testing.T) {
	env := newTestEnv(t)
	owners := randomOwners(t, 3)
	walletID := env.createWallet(owners, 2)
	walletAddr := WalletAddress(walletID)
	newOwner := weavetest.RandomAddr(t)

	msgs := map[string]quorum.Msg{
		"add owner": &AddOwnerMsg{
			Metadata: &quorum.Metadata{Schema: 1},
			WalletID: walletID,
			Owner:    newOwner,
		},
		"remove owner": &RemoveOwnerMsg{
			Metadata: &quorum.Metadata{Schema: 1},
			WalletID: walletID,
			Owner:    owners[0],
		},
		"replace owner": &ReplaceOwnerMsg{
			Metadata: &quorum.Metadata{Schema: 1},
			WalletID: walletID,
			Owner:    owners[0],
			NewOwner: newOwner,
		},
		"change requirement": &ChangeRequirementMsg{
			Metadata: &quorum.Metadata{Schema: 1},
			WalletID: walletID,
			Required: 1,
		},
	}

	// Neither an owner, a stranger nor the wallet address itself can
	// call administration directly.
	callers := map[string]quorum.Address{
		"owner":    owners[0],
		"stranger": weavetest.RandomAddr(t),
		"wallet":   walletAddr,
	}

	for msgName, msg := range msgs {
		for callerName, caller := range callers {
			t.Run(msgName+" by "+callerName, func(t *testing.T) {
				err := env.check(caller, msg)
				assert.True(t, errors.ErrUnauthorized.Is(err), "unexpected check error: %+v", err)
				_, err = env.deliver(caller, msg)
				assert.True(t, errors.ErrUnauthorized.Is(err), "unexpected deliver error: %+v", err)
			})
		}
	}

	w := env.wallet(walletID)
	assert.Equal(t, owners, w.Owners)
	assert.Equal(t, uint32(2), w.Required)
}

func TestSelfAdministration(t *testing.T) {
	env := newTestEnv(t)
	owners := randomOwners(t, 3)
	walletID := env.createWallet(owners, 2)
	walletAddr := WalletAddress(walletID)
	newOwner := weavetest.RandomAddr(t)

	// Owner removal with the threshold clamped.
	raw := env.payload(&ChangeRequirementMsg{
		Metadata: &quorum.Metadata{Schema: 1},
		WalletID: walletID,
		Required: 3,
	})
	txID, _ := env.submit(owners[0], walletID, walletAddr, 0, raw)
	res, err := env.confirm(owners[1], walletID, txID)
	require.NoError(t, err)
	assert.Equal(t, []string{"confirm", "execute", "requirement-changed"}, actions(res))
	assert.Equal(t, uint32(3), env.wallet(walletID).Required)

	raw = env.payload(&RemoveOwnerMsg{
		Metadata: &quorum.Metadata{Schema: 1},
		WalletID: walletID,
		Owner:    owners[2],
	})
	txID, _ = env.submit(owners[0], walletID, walletAddr, 0, raw)
	_, err = env.confirm(owners[1], walletID, txID)
	require.NoError(t, err)
	res, err = env.confirm(owners[2], walletID, txID)
	require.NoError(t, err)
	assert.Equal(t, []string{"confirm", "execute", "owner-removed"}, actions(res))
	assert.Equal(t, "2", tagValue(res, "required"))
	w := env.wallet(walletID)
	assert.Equal(t, owners[:2], w.Owners)
	assert.Equal(t, uint32(2), w.Required)

	// Removed owner cannot act anymore.
	_, err = env.deliver(owners[2], &SubmitTransactionMsg{
		Metadata:    &quorum.Metadata{Schema: 1},
		WalletID:    walletID,
		Destination: walletAddr,
	})
	assert.True(t, errors.ErrUnauthorized.Is(err))

	raw = env.payload(&ReplaceOwnerMsg{
		Metadata: &quorum.Metadata{Schema: 1},
		WalletID: walletID,
		Owner:    owners[1],
		NewOwner: newOwner,
	})
	txID, _ = env.submit(owners[0], walletID, walletAddr, 0, raw)
	res, err = env.confirm(owners[1], walletID, txID)
	require.NoError(t, err)
	assert.Equal(t, []string{"confirm", "execute", "owner-replaced"}, actions(res))
	assert.Equal(t, []quorum.Address{owners[0], newOwner}, env.wallet(walletID).Owners)

	raw = env.payload(&AddOwnerMsg{
		Metadata: &quorum.Metadata{Schema: 1},
		WalletID: walletID,
		Owner:    owners[2],
	})
	txID, _ = env.submit(owners[0], walletID, walletAddr, 0, raw)
	res, err = env.confirm(newOwner, walletID, txID)
	require.NoError(t, err)
	assert.Equal(t, []string{"confirm", "execute", "owner-added"}, actions(res))
	assert.Equal(t, []quorum.Address{owners[0], newOwner, owners[2]}, env.wallet(walletID).Owners)
}

func TestAdministrationOfAnotherWalletIsRejected(t *testing.T) {
	env := newTestEnv(t)
	owner := weavetest.RandomAddr(t)
	walletA := env.createWallet([]quorum.Address{owner}, 1)
	walletB := env.createWallet([]quorum.Address{owner, weavetest.RandomAddr(t)}, 2)

	// Wallet A addressing itself cannot administer wallet B.
	raw := env.payload(&ChangeRequirementMsg{
		Metadata: &quorum.Metadata{Schema: 1},
		WalletID: walletB,
		Required: 1,
	})
	txID, res := env.submit(owner, walletA, WalletAddress(walletA), 0, raw)
	assert.Equal(t, []string{"submit", "execution-failure"}, actions(res))
	assert.False(t, env.transaction(walletA, txID).Executed)
	assert.Equal(t, uint32(2), env.wallet(walletB).Required)

	// Payload addressed to another destination is not a self call.
	raw = env.payload(&ChangeRequirementMsg{
		Metadata: &quorum.Metadata{Schema: 1},
		WalletID: walletA,
		Required: 1,
	})
	_, res = env.submit(owner, walletA, weavetest.RandomAddr(t), 0, raw)
	assert.Equal(t, []string{"submit", "execution-failure"}, actions(res))
}

func TestInvalidRequirementChangeKeepsConfirmations(t *testing.T) {
	env := newTestEnv(t)
	owners := randomOwners(t, 4)
	walletID := env.createWallet(owners, 3)
	walletAddr := WalletAddress(walletID)

	raw := env.payload(&ChangeRequirementMsg{
		Metadata: &quorum.Metadata{Schema: 1},
		WalletID: walletID,
		Required: 5,
	})
	txID, _ := env.submit(owners[0], walletID, walletAddr, 0, raw)
	_, err := env.confirm(owners[1], walletID, txID)
	require.NoError(t, err)
	res, err := env.confirm(owners[2], walletID, txID)
	require.NoError(t, err)
	assert.Equal(t, []string{"confirm", "execution-failure"}, actions(res))

	tx := env.transaction(walletID, txID)
	assert.False(t, tx.Executed)
	assert.Len(t, tx.Confirmations, 3)
	assert.Equal(t, uint32(3), env.wallet(walletID).Required)
}

func TestReentrantExecutionFails(t *testing.T) {
	env := newTestEnv(t)
	owner := weavetest.RandomAddr(t)
	walletID := env.createWallet([]quorum.Address{owner}, 1)
	walletAddr := WalletAddress(walletID)

	// The wallet becomes its own owner so that it can confirm.
	raw := env.payload(&AddOwnerMsg{
		Metadata: &quorum.Metadata{Schema: 1},
		WalletID: walletID,
		Owner:    walletAddr,
	})
	env.submit(owner, walletID, walletAddr, 0, raw)
	require.True(t, env.wallet(walletID).IsOwner(walletAddr))

	// Transaction 1 confirms itself when executed. It is already marked
	// as executed at that point, so the payload fails.
	raw = env.payload(&ConfirmTransactionMsg{
		Metadata:      &quorum.Metadata{Schema: 1},
		WalletID:      walletID,
		TransactionID: 1,
	})
	txID, res := env.submit(owner, walletID, walletAddr, 0, raw)
	require.Equal(t, uint64(1), txID)
	assert.Equal(t, []string{"submit", "execution-failure"}, actions(res))
	tx := env.transaction(walletID, txID)
	assert.False(t, tx.Executed)
	assert.Len(t, tx.Confirmations, 1)
}

func TestConfirmationsOfRemovedOwners(t *testing.T) {
	env := newTestEnv(t)
	owners := randomOwners(t, 3)
	walletID := env.createWallet(owners, 2)
	walletAddr := WalletAddress(walletID)
	receiver := weavetest.RandomAddr(t)
	env.fund(walletAddr, 10)

	// Pending transfer confirmed by owner 2.
	transfer, _ := env.submit(owners[2], walletID, receiver, 10, nil)

	raw := env.payload(&RemoveOwnerMsg{
		Metadata: &quorum.Metadata{Schema: 1},
		WalletID: walletID,
		Owner:    owners[2],
	})
	removal, _ := env.submit(owners[0], walletID, walletAddr, 0, raw)
	_, err := env.confirm(owners[1], walletID, removal)
	require.NoError(t, err)

	n, err := GetConfirmationCount(env.db, walletID, transfer)
	require.NoError(t, err)
	assert.Equal(t, 0, n)
	confs, err := GetConfirmations(env.db, walletID, transfer)
	require.NoError(t, err)
	assert.Empty(t, confs)
	assert.Len(t, env.transaction(walletID, transfer).Confirmations, 1, "confirmation is kept")

	// A single live confirmation does not reach the threshold.
	res, err := env.confirm(owners[0], walletID, transfer)
	require.NoError(t, err)
	assert.Equal(t, []string{"confirm"}, actions(res))
	assert.Equal(t, uint64(0), env.balance(receiver))
}

type panickingHandler struct{}

func (panickingHandler) Check(quorum.Context, quorum.KVStore, quorum.Tx) (*quorum.CheckResult, error) {
	panic("broken handler")
}

func (panickingHandler) Deliver(quorum.Context, quorum.KVStore, quorum.Tx) (*quorum.DeliverResult, error) {
	panic("broken handler")
}

func TestPanickingPayloadIsAFailedExecution(t *testing.T) {
	env := newTestEnv(t)
	broken := &weavetest.Msg{RoutePath: "test/broken"}
	env.router.Handle(broken, panickingHandler{})

	owners := randomOwners(t, 2)
	walletID := env.createWallet(owners, 2)
	walletAddr := WalletAddress(walletID)
	receiver := weavetest.RandomAddr(t)
	env.fund(walletAddr, 100)

	txID, _ := env.submit(owners[0], walletID, receiver, 40, env.payload(broken))

	res, err := env.confirm(owners[1], walletID, txID)
	require.NoError(t, err, "panic of the payload handler must not fail the confirmation")
	assert.Equal(t, []string{"confirm", "execution-failure"}, actions(res))
	assert.Contains(t, tagValue(res, "error"), "broken handler")

	tx := env.transaction(walletID, txID)
	assert.False(t, tx.Executed)
	assert.Len(t, tx.Confirmations, 2)
	assert.Equal(t, uint64(100), env.balance(walletAddr), "value transfer must be discarded")
	assert.Equal(t, uint64(0), env.balance(receiver))
}
