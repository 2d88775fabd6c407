package app

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/iov-one/quorum"
	"github.com/iov-one/quorum/codec"
	"github.com/iov-one/quorum/errors"
	"github.com/iov-one/quorum/store/iavl"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	abci "github.com/tendermint/tendermint/abci/types"
)

// setMsg stores a value under given key. Fail makes the handler return an
// error after the value was written.
type setMsg struct {
	Key   []byte
	Value []byte
	Fail  bool
}

var _ quorum.Msg = (*setMsg)(nil)

func (m *setMsg) Path() string { return "test/set" }

func (m *setMsg) Validate() error {
	if len(m.Key) == 0 {
		return errors.Wrap(errors.ErrEmpty, "key")
	}
	return nil
}

func (m *setMsg) Marshal() ([]byte, error) {
	var e codec.Encoder
	e.Bytes(1, m.Key)
	e.Bytes(2, m.Value)
	e.Bool(3, m.Fail)
	return e.Result()
}

func (m *setMsg) Unmarshal(raw []byte) error {
	*m = setMsg{}
	return codec.Decode(raw, func(f codec.Field) (err error) {
		switch f.Num() {
		case 1:
			m.Key, err = f.Bytes()
		case 2:
			m.Value, err = f.Bytes()
		case 3:
			m.Fail, err = f.Bool()
		}
		return err
	})
}

// setTx is a transaction with a single setMsg, serialized as the message.
type setTx struct {
	setMsg
}

func (tx *setTx) GetMsg() (quorum.Msg, error) { return &tx.setMsg, nil }

func decodeSetTx(raw []byte) (quorum.Tx, error) {
	var tx setTx
	if err := tx.Unmarshal(raw); err != nil {
		return nil, err
	}
	return &tx, nil
}

type setHandler struct{}

func (setHandler) Check(ctx quorum.Context, db quorum.KVStore, tx quorum.Tx) (*quorum.CheckResult, error) {
	var msg setMsg
	if err := quorum.LoadMsg(tx, &msg); err != nil {
		return nil, err
	}
	return &quorum.CheckResult{}, nil
}

func (setHandler) Deliver(ctx quorum.Context, db quorum.KVStore, tx quorum.Tx) (*quorum.DeliverResult, error) {
	var msg setMsg
	if err := quorum.LoadMsg(tx, &msg); err != nil {
		return nil, err
	}
	if err := db.Set(msg.Key, msg.Value); err != nil {
		return nil, err
	}
	if msg.Fail {
		return nil, errors.Wrap(errors.ErrState, "failure requested")
	}
	return &quorum.DeliverResult{Data: msg.Key, Log: "stored"}, nil
}

// genesisInit copies the "test" genesis map into the store.
type genesisInit struct{}

func (genesisInit) FromGenesis(opts quorum.Options, kv quorum.KVStore) error {
	var values map[string]string
	if err := opts.ReadOptions("test", &values); err != nil {
		return err
	}
	for k, v := range values {
		if err := kv.Set([]byte(k), []byte(v)); err != nil {
			return err
		}
	}
	return nil
}

// rawQuery returns the value stored under the exact key.
type rawQuery struct{}

func (rawQuery) Query(db quorum.ReadOnlyKVStore, mod string, data []byte) ([]quorum.Model, error) {
	v, err := db.Get(data)
	if err != nil || v == nil {
		return nil, err
	}
	return []quorum.Model{{Key: data, Value: v}}, nil
}

func newTestApp(t *testing.T) BaseApp {
	t.Helper()
	qr := quorum.NewQueryRouter()
	qr.Register("/raw", rawQuery{})
	router := NewRouter()
	router.Handle(&setMsg{}, setHandler{})

	sa := NewStoreApp("test", iavl.NewMemCommitStore(), qr, context.Background()).
		WithInit(ChainInitializers(genesisInit{})).
		WithDebug(true)
	return NewBaseApp(sa, decodeSetTx, router)
}

func encodeTx(t *testing.T, msg setMsg) []byte {
	t.Helper()
	raw, err := msg.Marshal()
	require.NoError(t, err)
	return raw
}

func queryValue(t *testing.T, app BaseApp, key string) []byte {
	t.Helper()
	res := app.Query(abci.RequestQuery{Path: "/raw", Data: []byte(key)})
	require.Equal(t, errors.SuccessABCICode, res.Code, res.Log)
	var set ResultSet
	require.NoError(t, set.Unmarshal(res.Value))
	if len(set.Results) == 0 {
		return nil
	}
	return set.Results[0]
}

func TestBaseAppLifecycle(t *testing.T) {
	app := newTestApp(t)

	genesis, err := json.Marshal(map[string]interface{}{
		"test": map[string]string{"genesis": "loaded"},
	})
	require.NoError(t, err)
	app.InitChain(abci.RequestInitChain{ChainId: "test-chain", AppStateBytes: genesis})
	assert.Equal(t, "test-chain", app.GetChainID())

	// Genesis cannot be loaded twice.
	assert.Panics(t, func() {
		app.InitChain(abci.RequestInitChain{ChainId: "test-chain", AppStateBytes: genesis})
	})

	first := app.Commit().Data
	assert.Equal(t, []byte("loaded"), queryValue(t, app, "genesis"))

	app.BeginBlock(abci.RequestBeginBlock{Header: abci.Header{Height: 2}})

	dres := app.DeliverTx(encodeTx(t, setMsg{Key: []byte("a"), Value: []byte("1")}))
	require.Equal(t, errors.SuccessABCICode, dres.Code, dres.Log)
	assert.Equal(t, []byte("a"), dres.Data)

	// A failing handler leaves no trace, even though it wrote first.
	dres = app.DeliverTx(encodeTx(t, setMsg{Key: []byte("b"), Value: []byte("2"), Fail: true}))
	assert.Equal(t, errors.ErrState.ABCICode(), dres.Code)

	// Invalid message is rejected by the handler.
	dres = app.DeliverTx(encodeTx(t, setMsg{Value: []byte("3")}))
	assert.Equal(t, errors.ErrEmpty.ABCICode(), dres.Code)

	cres := app.CheckTx(encodeTx(t, setMsg{Key: []byte("c")}))
	assert.Equal(t, errors.SuccessABCICode, cres.Code, cres.Log)

	// Nothing is visible for queries before commit.
	assert.Nil(t, queryValue(t, app, "a"))

	app.EndBlock(abci.RequestEndBlock{Height: 2})
	second := app.Commit().Data
	assert.NotEqual(t, first, second)

	assert.Equal(t, []byte("1"), queryValue(t, app, "a"))
	assert.Nil(t, queryValue(t, app, "b"))

	info := app.Info(abci.RequestInfo{})
	assert.Equal(t, int64(2), info.LastBlockHeight)
	assert.Equal(t, second, info.LastBlockAppHash)
}

func TestBaseAppMalformedTx(t *testing.T) {
	app := newTestApp(t)
	res := app.DeliverTx([]byte{0xff, 0xff, 0xff})
	assert.NotEqual(t, errors.SuccessABCICode, res.Code)
	cres := app.CheckTx([]byte{0xff, 0xff, 0xff})
	assert.NotEqual(t, errors.SuccessABCICode, cres.Code)
}

func TestQueryUnknownPath(t *testing.T) {
	app := newTestApp(t)
	res := app.Query(abci.RequestQuery{Path: "/nope"})
	assert.Equal(t, errors.ErrNotFound.ABCICode(), res.Code)
}

func TestChainInitializers(t *testing.T) {
	var calls []string
	mk := func(name string, err error) quorum.Initializer {
		return initFunc(func(quorum.Options, quorum.KVStore) error {
			calls = append(calls, name)
			return err
		})
	}

	init := ChainInitializers(mk("a", nil), mk("b", errors.ErrInput), mk("c", nil))
	err := init.FromGenesis(nil, nil)
	assert.True(t, errors.ErrInput.Is(err))
	assert.Equal(t, []string{"a", "b"}, calls)
}

type initFunc func(quorum.Options, quorum.KVStore) error

func (fn initFunc) FromGenesis(opts quorum.Options, kv quorum.KVStore) error {
	return fn(opts, kv)
}
