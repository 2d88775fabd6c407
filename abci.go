package quorum

import (
	"github.com/iov-one/quorum/errors"
	abci "github.com/tendermint/tendermint/abci/types"
	"github.com/tendermint/tendermint/libs/common"
)

// DeliverResult is the outcome of a successfully delivered transaction.
// Failures are always reported as errors.
type DeliverResult struct {
	// Data is the machine readable result, for example the id of a
	// created entity.
	Data []byte
	Log  string
	// Tags are the signals emitted while processing the transaction.
	// They are indexed by the node and form the audit trail of a wallet.
	Tags []common.KVPair
}

func (d DeliverResult) ToABCI() abci.ResponseDeliverTx {
	return abci.ResponseDeliverTx{Data: d.Data, Log: d.Log, Tags: d.Tags}
}

// Tag returns the value of the first tag with given key.
func (d DeliverResult) Tag(key string) ([]byte, bool) {
	for _, t := range d.Tags {
		if string(t.Key) == key {
			return t.Value, true
		}
	}
	return nil, false
}

// CheckResult is the outcome of a transaction that passed the check.
type CheckResult struct {
	Data []byte
	Log  string
}

func (c CheckResult) ToABCI() abci.ResponseCheckTx {
	return abci.ResponseCheckTx{Data: c.Data, Log: c.Log}
}

// DeliverOrError builds the deliver response from either the result or
// the error.
func DeliverOrError(result *DeliverResult, err error, debug bool) abci.ResponseDeliverTx {
	if err != nil {
		return DeliverTxError(err, debug)
	}
	return result.ToABCI()
}

// CheckOrError builds the check response from either the result or the
// error.
func CheckOrError(result *CheckResult, err error, debug bool) abci.ResponseCheckTx {
	if err != nil {
		return CheckTxError(err, debug)
	}
	return result.ToABCI()
}

// ParseDeliverOrError reverses DeliverOrError. A failed response is turned
// into an error that matches the registered error of its code.
func ParseDeliverOrError(res abci.ResponseDeliverTx) (*DeliverResult, error) {
	if res.Code != errors.SuccessABCICode {
		return nil, errors.ABCIError(res.Code, res.Log)
	}
	return &DeliverResult{Data: res.Data, Log: res.Log, Tags: res.Tags}, nil
}

func DeliverTxError(err error, debug bool) abci.ResponseDeliverTx {
	code, log := errorResponse("deliver", err, debug)
	return abci.ResponseDeliverTx{Code: code, Log: log}
}

func CheckTxError(err error, debug bool) abci.ResponseCheckTx {
	code, log := errorResponse("check", err, debug)
	return abci.ResponseCheckTx{Code: code, Log: log}
}

func errorResponse(phase string, err error, debug bool) (uint32, string) {
	code, log := errors.ABCIInfo(err, debug)
	if code == errors.SuccessABCICode {
		return code, log
	}
	return code, "cannot " + phase + " tx: " + log
}
