package walletapp

import (
	"github.com/iov-one/quorum"
	"github.com/iov-one/quorum/codec"
	"github.com/iov-one/quorum/errors"
	"github.com/iov-one/quorum/x/cash"
	"github.com/iov-one/quorum/x/msig"
)

// ExecuteCall is the payload of a wallet transaction. Exactly one message
// field must be set.
type ExecuteCall struct {
	SendMsg               *cash.SendMsg
	CreateWalletMsg       *msig.CreateWalletMsg
	SubmitTransactionMsg  *msig.SubmitTransactionMsg
	ConfirmTransactionMsg *msig.ConfirmTransactionMsg
	RevokeConfirmationMsg *msig.RevokeConfirmationMsg
	AddOwnerMsg           *msig.AddOwnerMsg
	RemoveOwnerMsg        *msig.RemoveOwnerMsg
	ReplaceOwnerMsg       *msig.ReplaceOwnerMsg
	ChangeRequirementMsg  *msig.ChangeRequirementMsg
}

// NewExecuteCall wraps given message. It fails if the message cannot be
// dispatched by this application.
func NewExecuteCall(msg quorum.Msg) (*ExecuteCall, error) {
	var c ExecuteCall
	switch m := msg.(type) {
	case *cash.SendMsg:
		c.SendMsg = m
	case *msig.CreateWalletMsg:
		c.CreateWalletMsg = m
	case *msig.SubmitTransactionMsg:
		c.SubmitTransactionMsg = m
	case *msig.ConfirmTransactionMsg:
		c.ConfirmTransactionMsg = m
	case *msig.RevokeConfirmationMsg:
		c.RevokeConfirmationMsg = m
	case *msig.AddOwnerMsg:
		c.AddOwnerMsg = m
	case *msig.RemoveOwnerMsg:
		c.RemoveOwnerMsg = m
	case *msig.ReplaceOwnerMsg:
		c.ReplaceOwnerMsg = m
	case *msig.ChangeRequirementMsg:
		c.ChangeRequirementMsg = m
	default:
		return nil, errors.Wrapf(errors.ErrType, "unsupported message %T", msg)
	}
	return &c, nil
}

// GetMsg returns the only message that is set.
func (c *ExecuteCall) GetMsg() (quorum.Msg, error) {
	return quorum.ExtractMsgFromSum(c)
}

func (c *ExecuteCall) Marshal() ([]byte, error) {
	var e codec.Encoder
	c.encode(&e)
	return e.Result()
}

func (c *ExecuteCall) Unmarshal(raw []byte) error {
	*c = ExecuteCall{}
	return codec.Decode(raw, c.decodeField)
}

// encode writes all message fields. Field numbers are shared with Tx.
func (c *ExecuteCall) encode(e *codec.Encoder) {
	e.Message(10, c.SendMsg)
	e.Message(20, c.CreateWalletMsg)
	e.Message(21, c.SubmitTransactionMsg)
	e.Message(22, c.ConfirmTransactionMsg)
	e.Message(23, c.RevokeConfirmationMsg)
	e.Message(24, c.AddOwnerMsg)
	e.Message(25, c.RemoveOwnerMsg)
	e.Message(26, c.ReplaceOwnerMsg)
	e.Message(27, c.ChangeRequirementMsg)
}

func (c *ExecuteCall) decodeField(f codec.Field) error {
	switch f.Num() {
	case 10:
		c.SendMsg = &cash.SendMsg{}
		return f.Message(c.SendMsg)
	case 20:
		c.CreateWalletMsg = &msig.CreateWalletMsg{}
		return f.Message(c.CreateWalletMsg)
	case 21:
		c.SubmitTransactionMsg = &msig.SubmitTransactionMsg{}
		return f.Message(c.SubmitTransactionMsg)
	case 22:
		c.ConfirmTransactionMsg = &msig.ConfirmTransactionMsg{}
		return f.Message(c.ConfirmTransactionMsg)
	case 23:
		c.RevokeConfirmationMsg = &msig.RevokeConfirmationMsg{}
		return f.Message(c.RevokeConfirmationMsg)
	case 24:
		c.AddOwnerMsg = &msig.AddOwnerMsg{}
		return f.Message(c.AddOwnerMsg)
	case 25:
		c.RemoveOwnerMsg = &msig.RemoveOwnerMsg{}
		return f.Message(c.RemoveOwnerMsg)
	case 26:
		c.ReplaceOwnerMsg = &msig.ReplaceOwnerMsg{}
		return f.Message(c.ReplaceOwnerMsg)
	case 27:
		c.ChangeRequirementMsg = &msig.ChangeRequirementMsg{}
		return f.Message(c.ChangeRequirementMsg)
	}
	return nil
}

// EncodePayload returns the payload of a wallet transaction that
// dispatches given message.
func EncodePayload(msg quorum.Msg) ([]byte, error) {
	c, err := NewExecuteCall(msg)
	if err != nil {
		return nil, err
	}
	return c.Marshal()
}

// DecodePayload is the payload decoder of the wallet engine.
func DecodePayload(raw []byte) (quorum.Msg, error) {
	var c ExecuteCall
	if err := c.Unmarshal(raw); err != nil {
		return nil, errors.Wrap(err, "cannot decode call")
	}
	return c.GetMsg()
}
