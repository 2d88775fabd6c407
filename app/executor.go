package app

import (
	"github.com/iov-one/quorum"
)

// Executor processes a message that was already authorized by other means.
type Executor func(ctx quorum.Context, store quorum.KVStore, msg quorum.Msg) (*quorum.DeliverResult, error)

// HandlerAsExecutor wraps the msg in a fake Tx to satisfy the Handler interface
// Since a Router and Decorators also expose this interface, we can wrap any stack
// that does not care about the extra Tx info besides Msg.
func HandlerAsExecutor(h quorum.Handler) Executor {
	return func(ctx quorum.Context, store quorum.KVStore, msg quorum.Msg) (*quorum.DeliverResult, error) {
		tx := &fakeTx{msg: msg}
		return h.Deliver(ctx, store, tx)
	}
}

type fakeTx struct {
	msg quorum.Msg
}

var _ quorum.Tx = (*fakeTx)(nil)

func (tx fakeTx) GetMsg() (quorum.Msg, error) {
	return tx.msg, nil
}

func (tx fakeTx) Marshal() ([]byte, error) {
	return tx.msg.Marshal()
}

func (tx *fakeTx) Unmarshal(data []byte) error {
	return tx.msg.Unmarshal(data)
}
