package quorum

import (
	"encoding/json"

	"github.com/iov-one/quorum/errors"
)

// Handler is a core engine that can process a few specific messages
// This could represent "coin transfer", or "confirm a transaction"
type Handler interface {
	Checker
	Deliverer
}

// Checker is a subset of Handler to verify the validity of a transaction.
// It is its own interface to allow better type controls in the next
// arguments in Decorator
type Checker interface {
	Check(ctx Context, store KVStore, tx Tx) (*CheckResult, error)
}

// Deliverer is a subset of Handler to execute a transaction.
// It is its own interface to allow better type controls in the next
// arguments in Decorator
type Deliverer interface {
	Deliver(ctx Context, store KVStore, tx Tx) (*DeliverResult, error)
}

// Decorator wraps a Handler to provide common functionality
// like authentication, or logging, to many Handlers
type Decorator interface {
	Check(ctx Context, store KVStore, tx Tx, next Checker) (*CheckResult, error)
	Deliver(ctx Context, store KVStore, tx Tx, next Deliverer) (*DeliverResult, error)
}

// Registry is an interface to register your handler,
// the setup side of a Router
type Registry interface {
	// Handle assigns given handler to handle processing of every message
	// of provided type.
	// Using a message instead of a string path helps to avoid typos.
	Handle(Msg, Handler)
}

// Options are the app options
// Each extension can look up it's key and parse the json as desired
type Options map[string]json.RawMessage

// ReadOptions reads the values stored under a given key,
// and parses the json into the given obj.
// Returns an error if it cannot parse.
// Noop and no error if key is missing
func (o Options) ReadOptions(key string, obj interface{}) error {
	msg := o[key]
	if len(msg) == 0 {
		return nil
	}
	if err := json.Unmarshal(msg, obj); err != nil {
		return errors.Wrapf(errors.ErrInput, "cannot parse %q options: %s", key, err)
	}
	return nil
}

// Stream expects an array of json elements and allows to process them sequentially
// this helps when one needs to parse a large json without having any memory leaks.
// Returns ErrEmpty on empty key and when there are no more elements.
// Returns ErrState on the consequent call once the end of the stream was reached.
func (o Options) Stream(key string) (func(obj interface{}) error, error) {
	var elems []json.RawMessage
	if err := o.ReadOptions(key, &elems); err != nil {
		return nil, err
	}
	if len(elems) == 0 {
		return nil, errors.Wrapf(errors.ErrEmpty, "no %q options", key)
	}

	var (
		i    int
		done bool
	)
	return func(obj interface{}) error {
		if done {
			return errors.Wrap(errors.ErrState, "stream closed")
		}
		if i == len(elems) {
			done = true
			return errors.ErrEmpty
		}
		raw := elems[i]
		i++
		if err := json.Unmarshal(raw, obj); err != nil {
			return errors.Wrapf(errors.ErrInput, "element %d: %s", i-1, err)
		}
		return nil
	}, nil
}

// Initializer implementations are used to initialize
// extensions from genesis file contents
type Initializer interface {
	FromGenesis(Options, KVStore) error
}
