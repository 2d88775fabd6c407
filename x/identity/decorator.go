package identity

import (
	"github.com/iov-one/quorum"
	"github.com/iov-one/quorum/errors"
)

// Decorator validates the caller declared by the transaction and adds it to
// the context.
type Decorator struct {
	allowMissingCaller bool
}

var _ quorum.Decorator = Decorator{}

// NewDecorator returns a decorator that requires every CallerTx to declare
// a valid caller.
func NewDecorator() Decorator {
	return Decorator{}
}

// AllowMissingCaller allows us to pass along transactions with no caller.
func (d Decorator) AllowMissingCaller() Decorator {
	d.allowMissingCaller = true
	return d
}

// Check authenticates the caller before calling down the stack.
func (d Decorator) Check(ctx quorum.Context, store quorum.KVStore, tx quorum.Tx, next quorum.Checker) (*quorum.CheckResult, error) {
	ctx, err := d.withCaller(ctx, tx)
	if err != nil {
		return nil, err
	}
	return next.Check(ctx, store, tx)
}

// Deliver authenticates the caller before calling down the stack.
func (d Decorator) Deliver(ctx quorum.Context, store quorum.KVStore, tx quorum.Tx, next quorum.Deliverer) (*quorum.DeliverResult, error) {
	ctx, err := d.withCaller(ctx, tx)
	if err != nil {
		return nil, err
	}
	return next.Deliver(ctx, store, tx)
}

func (d Decorator) withCaller(ctx quorum.Context, tx quorum.Tx) (quorum.Context, error) {
	// Anything that was authenticated before does not apply to this
	// transaction.
	ctx = WithCaller(ctx, nil)

	callerTx, ok := tx.(CallerTx)
	if !ok {
		return ctx, nil
	}
	caller := callerTx.GetCaller()
	if len(caller) == 0 {
		if d.allowMissingCaller {
			return ctx, nil
		}
		return nil, errors.Wrap(errors.ErrUnauthorized, "missing caller")
	}
	if err := caller.Validate(); err != nil {
		return nil, errors.Wrap(err, "caller")
	}
	if caller.IsZero() {
		return nil, errors.Wrap(errors.ErrInput, "zero caller")
	}
	return WithCaller(ctx, caller), nil
}
