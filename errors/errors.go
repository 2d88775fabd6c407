package errors

import (
	"fmt"
	"reflect"

	"github.com/pkg/errors"
)

// Root errors. Every error returned by the application should wrap one of
// them, so that the client receives a stable code.
var (
	ErrUnauthorized = Register(2, "unauthorized")
	ErrNotFound     = Register(3, "not found")
	// ErrMsg is returned when a message fails validation.
	ErrMsg = Register(4, "invalid message")
	// ErrModel is returned when an entity fails validation before save.
	ErrModel     = Register(5, "invalid model")
	ErrDuplicate = Register(6, "duplicate")
	// ErrHuman marks a code path that correct wiring never reaches.
	ErrHuman = Register(7, "coding error")
	ErrEmpty = Register(9, "value is empty")
	// ErrState is returned when an operation is not allowed in the
	// current state of an entity.
	ErrState    = Register(10, "invalid state")
	ErrType     = Register(11, "invalid type")
	ErrAmount   = Register(12, "invalid amount")
	ErrInput    = Register(13, "invalid input")
	ErrOverflow = Register(14, "an operation cannot be completed due to value overflow")
	// ErrUnderflow is returned when a result would go below the lowest
	// value of its type, for example a negative balance.
	ErrUnderflow          = Register(15, "an operation cannot be completed due to value underflow")
	ErrDivisionByZero     = Register(16, "division by zero")
	ErrCurrency           = Register(17, "currency")
	ErrInsufficientAmount = Register(18, "insufficient amount")
	ErrMetadata           = Register(19, "invalid metadata")
	ErrDatabase           = Register(20, "database")
	// ErrIteratorDone is not a failure, it ends every iteration.
	ErrIteratorDone = Register(22, "iterator done")

	// ErrPanic wraps a recovered panic. Its message is never sent to
	// clients outside of debug mode.
	ErrPanic = Register(111222, "panic")
)

// registry maps codes to root errors.
var registry = make(map[uint32]*Error)

// Register declares a new root error. It panics when the code is taken,
// so call it only from package level variable declarations.
func Register(code uint32, description string) *Error {
	if prev, ok := registry[code]; ok {
		panic(fmt.Sprintf("error code %d is already registered as %q", code, prev.desc))
	}
	e := &Error{code: code, desc: description}
	registry[code] = e
	return e
}

// ABCIError rebuilds an error from the code and log of a response, for use
// by clients. A registered code is mapped to its root error, so that
// ErrNotFound.Is works on the result.
func ABCIError(code uint32, log string) error {
	root, ok := registry[code]
	if !ok {
		root = &Error{code: code, desc: "unknown"}
	}
	return Wrap(root, log)
}

// Error is a root error. Its code is what clients see.
type Error struct {
	code uint32
	desc string
}

func (e Error) Error() string {
	return e.desc
}

func (e Error) ABCICode() uint32 {
	return e.code
}

// Is reports whether err is e or wraps it. For a group of errors it is
// enough that one member matches. A nil root matches only nil errors.
func (e *Error) Is(err error) bool {
	if e == nil {
		return isNilErr(err)
	}
	for ; err != nil; err = cause(err) {
		if err == e {
			return true
		}
		if group, ok := err.(unpacker); ok {
			for _, member := range group.Unpack() {
				if e.Is(member) {
					return true
				}
			}
		}
	}
	return false
}

// isNilErr catches nil pointers stored in the error interface.
func isNilErr(err error) bool {
	if err == nil {
		return true
	}
	v := reflect.ValueOf(err)
	return v.Kind() == reflect.Ptr && v.IsNil()
}

// Wrap adds a description to err. A nil err stays nil, so the result of a
// call can be wrapped without checking it first. The innermost wrap
// records the stack trace.
func Wrap(err error, description string) error {
	if err == nil {
		return nil
	}
	if stackTrace(err) == nil {
		err = errors.WithStack(err)
	}
	return &wrappedError{msg: description, parent: err}
}

func Wrapf(err error, format string, args ...interface{}) error {
	if err == nil {
		return nil
	}
	return Wrap(err, fmt.Sprintf(format, args...))
}

type wrappedError struct {
	msg    string
	parent error
}

func (e *wrappedError) Error() string {
	return e.msg + ": " + e.parent.Error()
}

func (e *wrappedError) Cause() error {
	return e.parent
}

// Format prints the stack trace of the parent with %+v.
func (e *wrappedError) Format(s fmt.State, verb rune) {
	if verb == 'v' && s.Flag('+') {
		fmt.Fprintf(s, "%s: %+v", e.msg, e.parent)
		return
	}
	fmt.Fprint(s, e.Error())
}

// Recover turns a panic into an ErrPanic assigned to err. It must be
// called with defer.
func Recover(err *error) {
	if r := recover(); r != nil {
		*err = Wrapf(ErrPanic, "%v", r)
	}
}

// causer is implemented by errors that wrap another error.
type causer interface {
	Cause() error
}

// cause returns the wrapped error or nil.
func cause(err error) error {
	if c, ok := err.(causer); ok {
		return c.Cause()
	}
	return nil
}

// stackTrace returns the first stack trace found in the chain of causes.
func stackTrace(err error) errors.StackTrace {
	type tracer interface {
		StackTrace() errors.StackTrace
	}
	for ; err != nil; err = cause(err) {
		if t, ok := err.(tracer); ok {
			return t.StackTrace()
		}
	}
	return nil
}
