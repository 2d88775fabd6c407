package errors

import (
	"errors"
	"fmt"
)

// SuccessABCICode is the code of a response without an error.
const SuccessABCICode uint32 = 0

// Errors that are not registered share one code. Their message may leak
// implementation details so it is hidden outside of debug mode.
const (
	internalABCICode uint32 = 1
	internalABCILog         = "internal error"
)

// ABCIInfo returns the code and log of the response for err.
//
// Registered errors keep their code and message. Any other error is
// reported with code 1 and a generic log, unless debug is set. In debug
// mode the log contains the full formatting of the error, including the
// stack trace when there is one. Panics are always hidden outside of debug
// mode.
func ABCIInfo(err error, debug bool) (uint32, string) {
	if isNilErr(err) {
		return SuccessABCICode, ""
	}
	if debug {
		return abciCode(err), fmt.Sprintf("%+v", err)
	}
	if ErrPanic.Is(err) {
		return ErrPanic.code, internalABCILog
	}
	code := abciCode(err)
	if code == internalABCICode {
		return code, internalABCILog
	}
	return code, err.Error()
}

type coder interface {
	ABCICode() uint32
}

// abciCode walks the chain of causes and returns the first code found.
func abciCode(err error) uint32 {
	for !isNilErr(err) {
		if c, ok := err.(coder); ok {
			return c.ABCICode()
		}
		c, ok := err.(causer)
		if !ok {
			return internalABCICode
		}
		err = c.Cause()
	}
	return SuccessABCICode
}

// Redact returns err unchanged in debug mode or when it has a registered
// code. Any other error, and any panic, is replaced with a generic one.
func Redact(err error, debug bool) error {
	switch {
	case debug:
		return err
	case ErrPanic.Is(err), abciCode(err) == internalABCICode:
		return errors.New(internalABCILog)
	default:
		return err
	}
}
