package walletapp

import (
	"encoding/json"
	"testing"

	"github.com/iov-one/quorum"
	"github.com/iov-one/quorum/coin"
	"github.com/iov-one/quorum/errors"
	"github.com/iov-one/quorum/store/iavl"
	"github.com/iov-one/quorum/weavetest"
	"github.com/iov-one/quorum/x/cash"
	"github.com/iov-one/quorum/x/msig"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tendermint/tendermint/libs/log"
)

func TestTxCodec(t *testing.T) {
	caller := weavetest.RandomAddr(t)
	msg := &msig.ConfirmTransactionMsg{
		Metadata:      &quorum.Metadata{Schema: 1},
		WalletID:      weavetest.SequenceID(4),
		TransactionID: 12,
	}
	tx, err := NewTx(caller, msg)
	require.NoError(t, err)

	raw, err := tx.Marshal()
	require.NoError(t, err)
	decoded, err := TxDecoder(raw)
	require.NoError(t, err)

	assert.Equal(t, caller, decoded.(*Tx).GetCaller())
	got, err := decoded.GetMsg()
	require.NoError(t, err)
	assert.Equal(t, msg, got)
}

func TestTxMessages(t *testing.T) {
	cases := map[string]struct {
		tx      *Tx
		wantErr *errors.Error
	}{
		"single message": {
			tx: &Tx{Call: ExecuteCall{SendMsg: &cash.SendMsg{}}},
		},
		"no message": {
			tx:      &Tx{Caller: weavetest.RandomAddr(t)},
			wantErr: errors.ErrEmpty,
		},
		"two messages": {
			tx: &Tx{Call: ExecuteCall{
				SendMsg:         &cash.SendMsg{},
				CreateWalletMsg: &msig.CreateWalletMsg{},
			}},
			wantErr: errors.ErrInput,
		},
	}

	for testName, tc := range cases {
		t.Run(testName, func(t *testing.T) {
			_, err := tc.tx.GetMsg()
			if tc.wantErr == nil {
				assert.NoError(t, err)
				return
			}
			assert.True(t, tc.wantErr.Is(err), "unexpected error: %+v", err)
		})
	}
}

func TestPayload(t *testing.T) {
	msg := &cash.SendMsg{
		Metadata:    &quorum.Metadata{Schema: 1},
		Source:      weavetest.RandomAddr(t),
		Destination: weavetest.RandomAddr(t),
		Amount:      coin.NewCoinp(5, "IOV"),
		Memo:        "rent",
	}
	raw, err := EncodePayload(msg)
	require.NoError(t, err)
	got, err := DecodePayload(raw)
	require.NoError(t, err)
	assert.Equal(t, msg, got)

	// A transaction without the caller is a valid payload.
	tx, err := NewTx(nil, msg)
	require.NoError(t, err)
	txRaw, err := tx.Marshal()
	require.NoError(t, err)
	assert.Equal(t, raw, txRaw)

	_, err = EncodePayload(&weavetest.Msg{RoutePath: "test/msg"})
	assert.True(t, errors.ErrType.Is(err), "unexpected error: %+v", err)

	_, err = DecodePayload(nil)
	assert.True(t, errors.ErrEmpty.Is(err), "unexpected error: %+v", err)

	_, err = DecodePayload([]byte{0xff, 0xff})
	assert.True(t, errors.ErrInput.Is(err), "unexpected error: %+v", err)
}

func TestGenInitOptions(t *testing.T) {
	_, err := GenInitOptions([]string{"not a ticker"})
	assert.True(t, errors.ErrCurrency.Is(err), "unexpected error: %+v", err)

	addr := weavetest.RandomAddr(t)
	opts, err := GenInitOptions([]string{"ETH", addr.String()})
	require.NoError(t, err)

	var genesis map[string]json.RawMessage
	require.NoError(t, json.Unmarshal(opts, &genesis))

	base := NewApp(iavl.NewMemCommitStore(), log.NewNopLogger())
	runner := weavetest.NewRunner(t, base, "test-chain")
	runner.InitChain(genesis)

	models := runner.Query("/balances", addr)
	require.Len(t, models, 1)
	var set cash.Set
	require.NoError(t, set.Unmarshal(models[0].Value))
	assert.Equal(t, "123456789 ETH", set.Coins.Get("ETH").String())
}
