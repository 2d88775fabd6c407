package cash

import (
	"github.com/iov-one/quorum"
	"github.com/iov-one/quorum/errors"
	"github.com/iov-one/quorum/x"
	"github.com/tendermint/tendermint/libs/common"
)

// RegisterRoutes registers the handler of SendMsg.
func RegisterRoutes(r quorum.Registry, auth x.Authenticator, control Controller) {
	r.Handle(&SendMsg{}, NewSendHandler(auth, control))
}

// RegisterQuery exposes the balances under "/balances".
func RegisterQuery(qr quorum.QueryRouter) {
	NewBucket().Register("balances", qr)
}

// SendHandler moves coins from an authenticated source. Wallets send coins
// this way when a confirmed transaction carries a SendMsg payload, as the
// wallet is then the caller.
type SendHandler struct {
	auth    x.Authenticator
	control Controller
}

var _ quorum.Handler = SendHandler{}

func NewSendHandler(auth x.Authenticator, control Controller) SendHandler {
	return SendHandler{auth: auth, control: control}
}

func (h SendHandler) Check(ctx quorum.Context, db quorum.KVStore, tx quorum.Tx) (*quorum.CheckResult, error) {
	if _, err := h.authorizedMsg(ctx, tx); err != nil {
		return nil, err
	}
	return &quorum.CheckResult{}, nil
}

func (h SendHandler) Deliver(ctx quorum.Context, db quorum.KVStore, tx quorum.Tx) (*quorum.DeliverResult, error) {
	msg, err := h.authorizedMsg(ctx, tx)
	if err != nil {
		return nil, err
	}
	if err := h.control.MoveCoins(db, msg.Source, msg.Destination, *msg.Amount); err != nil {
		return nil, err
	}
	tags := []common.KVPair{
		sendTag("action", "send"),
		sendTag("source", msg.Source.String()),
		sendTag("destination", msg.Destination.String()),
		sendTag("value", msg.Amount.String()),
	}
	return &quorum.DeliverResult{Tags: tags}, nil
}

// authorizedMsg returns the message when its source authorized the call.
func (h SendHandler) authorizedMsg(ctx quorum.Context, tx quorum.Tx) (*SendMsg, error) {
	var msg SendMsg
	if err := quorum.LoadMsg(tx, &msg); err != nil {
		return nil, errors.Wrap(err, "load msg")
	}
	if !h.auth.HasAddress(ctx, msg.Source) {
		return nil, errors.Wrapf(errors.ErrUnauthorized, "source %s", msg.Source)
	}
	return &msg, nil
}

func sendTag(key, value string) common.KVPair {
	return common.KVPair{Key: []byte(key), Value: []byte(value)}
}
