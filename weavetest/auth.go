package weavetest

import (
	"context"

	"github.com/iov-one/quorum"
)

// Auth authenticates a fixed list of addresses: Signers followed by
// Signer, when set.
type Auth struct {
	Signer  quorum.Address
	Signers []quorum.Address
}

func (a *Auth) GetAddresses(quorum.Context) []quorum.Address {
	all := append([]quorum.Address(nil), a.Signers...)
	if a.Signer != nil {
		all = append(all, a.Signer)
	}
	return all
}

func (a *Auth) HasAddress(ctx quorum.Context, addr quorum.Address) bool {
	return contains(a.GetAddresses(ctx), addr)
}

// CtxAuth authenticates the addresses stored in the context with
// SetAddresses. Instances with different keys do not see each other's
// addresses.
type CtxAuth struct {
	Key string
}

type ctxAuthKey string

func (a *CtxAuth) SetAddresses(ctx quorum.Context, addrs ...quorum.Address) quorum.Context {
	return context.WithValue(ctx, ctxAuthKey(a.Key), addrs)
}

func (a *CtxAuth) GetAddresses(ctx quorum.Context) []quorum.Address {
	addrs, _ := ctx.Value(ctxAuthKey(a.Key)).([]quorum.Address)
	return addrs
}

func (a *CtxAuth) HasAddress(ctx quorum.Context, addr quorum.Address) bool {
	return contains(a.GetAddresses(ctx), addr)
}

func contains(addrs []quorum.Address, a quorum.Address) bool {
	for _, x := range addrs {
		if x.Equals(a) {
			return true
		}
	}
	return false
}
