package weavetest

import (
	"bytes"
	"encoding/json"
	"time"

	"github.com/iov-one/quorum"
	"github.com/iov-one/quorum/codec"
	"github.com/iov-one/quorum/errors"
	abci "github.com/tendermint/tendermint/abci/types"
)

// Tester is implemented by both *testing.T and *testing.B. Use it instead of
// the pointer type to allow notation to accept both objects.
type Tester interface {
	Helper()
	Errorf(string, ...interface{})
	Fatalf(string, ...interface{})
	Logf(string, ...interface{})
}

// Runner provides a translation layer between an ABCI interface and an
// application. It takes care of serializing transactions and creating
// blocks.
type Runner struct {
	chainID string
	height  int64
	t       Tester
	app     abci.Application
}

// NewRunner creates a Runner instance that can be used to process deliver
// and check transaction requests.
func NewRunner(t Tester, app abci.Application, chainID string) *Runner {
	return &Runner{
		chainID: chainID,
		t:       t,
		app:     app,
	}
}

// InitChain serialize to JSON given genesis and loads it. Loading a genesis is
// causing a block creation.
func (r *Runner) InitChain(genesis interface{}) {
	r.t.Helper()

	raw, err := json.MarshalIndent(genesis, "", "  ")
	if err != nil {
		r.t.Fatalf("cannot JSON serialize genesis: %s", err)
	}

	changed := r.InBlock(func() {
		r.app.InitChain(abci.RequestInitChain{
			Time:          time.Now(),
			ChainId:       r.chainID,
			AppStateBytes: raw,
		})
	})
	if !changed {
		r.t.Fatalf("genesis did not change the state")
	}
}

// CheckTx translates given transaction into ABCI interface and executes.
func (r *Runner) CheckTx(tx quorum.Tx) error {
	raw, err := tx.Marshal()
	if err != nil {
		return errors.Wrap(err, "cannot marshal transaction")
	}
	if resp := r.app.CheckTx(raw); resp.Code != errors.SuccessABCICode {
		return errors.ABCIError(resp.Code, resp.Log)
	}
	return nil
}

// DeliverTx translates given transaction into ABCI interface and executes.
// Returned error carries the ABCI code of the failure.
func (r *Runner) DeliverTx(tx quorum.Tx) (*quorum.DeliverResult, error) {
	raw, err := tx.Marshal()
	if err != nil {
		return nil, errors.Wrap(err, "cannot marshal transaction")
	}
	return quorum.ParseDeliverOrError(r.app.DeliverTx(raw))
}

// InBlock begins a block and runs given function. All transactions executed
// within given function are part of newly created block. Upon success the
// block is finished and changes committed.
// InBlock returns true if the application state was modified.
func (r *Runner) InBlock(fn func()) bool {
	r.t.Helper()

	r.height++

	initialHash := r.app.Info(abci.RequestInfo{}).LastBlockAppHash

	r.app.BeginBlock(abci.RequestBeginBlock{
		Header: abci.Header{
			ChainID: r.chainID,
			Height:  r.height,
		},
	})

	fn()

	r.app.EndBlock(abci.RequestEndBlock{Height: r.height})

	// Commit data contains the new app hash. It differs from the initial
	// hash only if the state was modified.
	finalHash := r.app.Commit().Data
	return !bytes.Equal(initialHash, finalHash)
}

// Query returns all models found by the query handler registered under
// given path. Only committed state is visible.
func (r *Runner) Query(path string, data []byte) []quorum.Model {
	r.t.Helper()

	resp := r.app.Query(abci.RequestQuery{Path: path, Data: data})
	if resp.Code != errors.SuccessABCICode {
		r.t.Fatalf("query %q: %d: %s", path, resp.Code, resp.Log)
	}
	keys, err := resultSet(resp.Key)
	if err != nil {
		r.t.Fatalf("cannot decode keys: %s", err)
	}
	values, err := resultSet(resp.Value)
	if err != nil {
		r.t.Fatalf("cannot decode values: %s", err)
	}
	if len(keys) != len(values) {
		r.t.Fatalf("got %d keys and %d values", len(keys), len(values))
	}
	models := make([]quorum.Model, len(keys))
	for i := range keys {
		models[i] = quorum.Model{Key: keys[i], Value: values[i]}
	}
	return models
}

// resultSet decodes a serialized list of results, each stored as field 1.
func resultSet(raw []byte) ([][]byte, error) {
	var res [][]byte
	err := codec.Decode(raw, func(f codec.Field) error {
		if f.Num() != 1 {
			return nil
		}
		b, err := f.Bytes()
		res = append(res, b)
		return err
	})
	return res, err
}
