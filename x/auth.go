package x

import (
	"github.com/iov-one/quorum"
)

// Authenticator tells which addresses authorized the current call.
// Handlers receive it in their constructor so that the source of the
// identity can be replaced without changing the extension.
type Authenticator interface {
	// GetAddresses returns the authenticated addresses, most important
	// first.
	GetAddresses(quorum.Context) []quorum.Address
	HasAddress(quorum.Context, quorum.Address) bool
}

// ChainAuth returns an authenticator that accepts an address when any of
// the given ones does.
func ChainAuth(impls ...Authenticator) Authenticator {
	return multiAuth(impls)
}

type multiAuth []Authenticator

// GetAddresses returns the addresses of all authenticators in order,
// with duplicates removed.
func (m multiAuth) GetAddresses(ctx quorum.Context) []quorum.Address {
	var all []quorum.Address
	for _, impl := range m {
		for _, a := range impl.GetAddresses(ctx) {
			if indexOf(all, a) < 0 {
				all = append(all, a)
			}
		}
	}
	return all
}

func (m multiAuth) HasAddress(ctx quorum.Context, addr quorum.Address) bool {
	for _, impl := range m {
		if impl.HasAddress(ctx, addr) {
			return true
		}
	}
	return false
}

// MainSigner returns the most important authenticated address or nil.
func MainSigner(ctx quorum.Context, auth Authenticator) quorum.Address {
	if addrs := auth.GetAddresses(ctx); len(addrs) > 0 {
		return addrs[0]
	}
	return nil
}

// AuthenticatedMember returns the first authenticated address that is
// present in members, or nil.
func AuthenticatedMember(ctx quorum.Context, auth Authenticator, members []quorum.Address) quorum.Address {
	for _, a := range auth.GetAddresses(ctx) {
		if indexOf(members, a) >= 0 {
			return a
		}
	}
	return nil
}

func indexOf(addrs []quorum.Address, a quorum.Address) int {
	for i, x := range addrs {
		if x.Equals(a) {
			return i
		}
	}
	return -1
}
