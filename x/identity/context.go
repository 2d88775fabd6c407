package identity

import (
	"context"

	"github.com/iov-one/quorum"
	"github.com/iov-one/quorum/x"
)

type contextKey int // local to the identity module

const (
	contextKeyCaller contextKey = iota
)

// WithCaller returns a context authenticating given address as the caller.
// Any previously authenticated caller is replaced.
//
// Besides the decorator, only code acting on behalf of an address that it
// controls (for example a wallet executing its own approved transaction)
// may call this function.
func WithCaller(ctx quorum.Context, caller quorum.Address) quorum.Context {
	return context.WithValue(ctx, contextKeyCaller, caller)
}

// GetCaller returns the authenticated caller, if any.
func GetCaller(ctx quorum.Context) (quorum.Address, bool) {
	val, ok := ctx.Value(contextKeyCaller).(quorum.Address)
	return val, ok && len(val) != 0
}

// Authenticate implements x.Authenticator using the caller stored in the
// context.
type Authenticate struct{}

var _ x.Authenticator = Authenticate{}

// GetAddresses returns the caller of the current context. May be empty.
func (Authenticate) GetAddresses(ctx quorum.Context) []quorum.Address {
	caller, ok := GetCaller(ctx)
	if !ok {
		return nil
	}
	return []quorum.Address{caller}
}

// HasAddress returns true if given address is the caller.
func (Authenticate) HasAddress(ctx quorum.Context, addr quorum.Address) bool {
	caller, ok := GetCaller(ctx)
	return ok && caller.Equals(addr)
}
