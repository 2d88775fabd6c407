package walletapp

import (
	"github.com/iov-one/quorum"
	"github.com/iov-one/quorum/codec"
	"github.com/iov-one/quorum/x/identity"
)

// make sure tx fulfills all interfaces
var _ quorum.Tx = (*Tx)(nil)
var _ identity.CallerTx = (*Tx)(nil)

// Tx declares its caller and carries a single message.
type Tx struct {
	Caller quorum.Address
	Call   ExecuteCall
}

// NewTx returns a transaction that delivers msg on behalf of caller.
func NewTx(caller quorum.Address, msg quorum.Msg) (*Tx, error) {
	call, err := NewExecuteCall(msg)
	if err != nil {
		return nil, err
	}
	return &Tx{Caller: caller, Call: *call}, nil
}

// TxDecoder creates a Tx and unmarshals bytes into it
func TxDecoder(bz []byte) (quorum.Tx, error) {
	tx := new(Tx)
	err := tx.Unmarshal(bz)
	if err != nil {
		return nil, err
	}
	return tx, nil
}

// GetMsg switches over all message fields
func (tx *Tx) GetMsg() (quorum.Msg, error) {
	return tx.Call.GetMsg()
}

func (tx *Tx) GetCaller() quorum.Address {
	return tx.Caller
}

func (tx *Tx) Marshal() ([]byte, error) {
	var e codec.Encoder
	e.Bytes(1, tx.Caller)
	tx.Call.encode(&e)
	return e.Result()
}

func (tx *Tx) Unmarshal(raw []byte) error {
	*tx = Tx{}
	return codec.Decode(raw, func(f codec.Field) (err error) {
		if f.Num() == 1 {
			tx.Caller, err = f.Bytes()
			return err
		}
		return tx.Call.decodeField(f)
	})
}
