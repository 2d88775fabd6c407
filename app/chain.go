package app

import (
	"reflect"

	"github.com/iov-one/quorum"
)

// Decorators is an ordered list of decorators waiting for the handler
// that ends the chain. The first decorator is the outermost one.
//
//   app.ChainDecorators(
//     app.NewLogging(),
//     app.NewRecovery(),
//     identity.NewDecorator(),
//   ).WithHandler(router)
type Decorators struct {
	chain []quorum.Decorator
}

// ChainDecorators skips nil decorators so that an element can be turned
// off by configuration.
func ChainDecorators(chain ...quorum.Decorator) Decorators {
	return Decorators{}.Chain(chain...)
}

// Chain returns a new list with given decorators appended. The receiver
// is not modified, so one base list can be extended in several ways.
func (d Decorators) Chain(chain ...quorum.Decorator) Decorators {
	next := make([]quorum.Decorator, len(d.chain), len(d.chain)+len(chain))
	copy(next, d.chain)
	for _, dec := range chain {
		if !isNilDecorator(dec) {
			next = append(next, dec)
		}
	}
	return Decorators{chain: next}
}

func isNilDecorator(d quorum.Decorator) bool {
	if d == nil {
		return true
	}
	v := reflect.ValueOf(d)
	return v.Kind() == reflect.Ptr && v.IsNil()
}

// WithHandler closes the chain.
func (d Decorators) WithHandler(h quorum.Handler) quorum.Handler {
	for i := len(d.chain) - 1; i >= 0; i-- {
		h = decorated{dec: d.chain[i], next: h}
	}
	return h
}

// decorated is a handler that runs dec around next.
type decorated struct {
	dec  quorum.Decorator
	next quorum.Handler
}

var _ quorum.Handler = decorated{}

func (s decorated) Check(ctx quorum.Context, db quorum.KVStore, tx quorum.Tx) (*quorum.CheckResult, error) {
	return s.dec.Check(ctx, db, tx, s.next)
}

func (s decorated) Deliver(ctx quorum.Context, db quorum.KVStore, tx quorum.Tx) (*quorum.DeliverResult, error) {
	return s.dec.Deliver(ctx, db, tx, s.next)
}
