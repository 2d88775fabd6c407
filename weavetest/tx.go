package weavetest

import (
	"github.com/iov-one/quorum"
	"github.com/iov-one/quorum/codec"
)

// Tx is a transaction carrying a single message on behalf of Caller. Err,
// if set, is returned by every method.
//
// Encoded transaction keeps only the path and the serialized form of the
// message, so it decodes into a Tx with a Msg.
type Tx struct {
	Msg    quorum.Msg
	Caller quorum.Address
	Err    error
}

var _ quorum.Tx = (*Tx)(nil)

func (tx *Tx) GetMsg() (quorum.Msg, error) {
	return tx.Msg, tx.Err
}

// GetCaller allows to use this transaction with the identity decorator.
func (tx *Tx) GetCaller() quorum.Address {
	return tx.Caller
}

func (tx *Tx) Marshal() ([]byte, error) {
	if tx.Err != nil {
		return nil, tx.Err
	}
	var e codec.Encoder
	e.Bytes(1, tx.Caller)
	if tx.Msg != nil {
		raw, err := tx.Msg.Marshal()
		if err != nil {
			return nil, err
		}
		e.String(2, tx.Msg.Path())
		e.Bytes(3, raw)
	}
	return e.Result()
}

func (tx *Tx) Unmarshal(raw []byte) error {
	if tx.Err != nil {
		return tx.Err
	}
	var msg Msg
	err := codec.Decode(raw, func(f codec.Field) (err error) {
		switch f.Num() {
		case 1:
			tx.Caller, err = f.Bytes()
		case 2:
			msg.RoutePath, err = f.String()
		case 3:
			msg.Serialized, err = f.Bytes()
		}
		return err
	})
	if err != nil {
		return err
	}
	tx.Msg = &msg
	return nil
}

// DecodeTx is a quorum.TxDecoder for Tx.
func DecodeTx(raw []byte) (quorum.Tx, error) {
	var tx Tx
	if err := tx.Unmarshal(raw); err != nil {
		return nil, err
	}
	return &tx, nil
}

// Msg is a message routed by RoutePath. Err, if set, is returned by every
// method call, including Validate.
type Msg struct {
	RoutePath  string
	Serialized []byte
	Err        error
}

var _ quorum.Msg = (*Msg)(nil)

func (m *Msg) Path() string {
	return m.RoutePath
}

func (m *Msg) Validate() error {
	return m.Err
}

func (m *Msg) Marshal() ([]byte, error) {
	return m.Serialized, m.Err
}

func (m *Msg) Unmarshal(raw []byte) error {
	m.Serialized = raw
	return m.Err
}
