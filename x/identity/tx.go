/*
Package identity authenticates the caller of a transaction.

A transaction declares its caller directly. The decorator validates the
declared address and makes it available to all handlers through the
Authenticate type. No signature is verified.
*/
package identity

import "github.com/iov-one/quorum"

// CallerTx is implemented by transactions that declare the address of their
// caller.
type CallerTx interface {
	quorum.Tx
	// GetCaller returns the address the transaction is executed on
	// behalf of.
	GetCaller() quorum.Address
}
