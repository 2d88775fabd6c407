package msig

import (
	"bytes"
	"context"

	"github.com/iov-one/quorum"
)

type contextKey int // local to the msig module

const (
	contextKeySelfCall contextKey = iota
)

// withSelfCall marks the context as the execution of a transaction that
// the wallet addressed to itself. Nil id clears the mark.
//
// This function is private, so that only the engine can grant access to
// the administration handlers.
func withSelfCall(ctx quorum.Context, walletID []byte) quorum.Context {
	return context.WithValue(ctx, contextKeySelfCall, walletID)
}

// isSelfCall returns true if the context is the execution of a transaction
// of given wallet addressed to that wallet.
func isSelfCall(ctx quorum.Context, walletID []byte) bool {
	id, _ := ctx.Value(contextKeySelfCall).([]byte)
	return len(id) != 0 && bytes.Equal(id, walletID)
}
