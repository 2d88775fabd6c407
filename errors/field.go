package errors

import (
	"fmt"
)

// Field returns an error instance that wraps the original error with
// additional information. It returns nil if the provided error is nil.
//
// Use it to attach the name of the invalid attribute to a validation
// error, so that a client can tell which input was rejected.
func Field(fieldName string, err error, description string, args ...interface{}) error {
	if err == nil {
		return nil
	}
	if len(args) > 0 {
		description = fmt.Sprintf(description, args...)
	}
	return &fieldError{
		Fieldname: fieldName,
		Err:       Wrap(err, description),
	}
}

type fieldError struct {
	Fieldname string
	Err       error
}

func (e *fieldError) Field() string {
	return e.Fieldname
}

func (e *fieldError) Cause() error {
	return e.Err
}

func (e *fieldError) Error() string {
	return fmt.Sprintf("field %q: %s", e.Fieldname, e.Err)
}

// FieldErrors returns all errors that are directly associated with given
// field name. Nested field names, separated by a dot, are not matched.
func FieldErrors(err error, fieldName string) []error {
	var res []error
	var walk func(error)
	walk = func(err error) {
		if err == nil {
			return
		}
		if u, ok := err.(unpacker); ok {
			for _, e := range u.Unpack() {
				walk(e)
			}
			return
		}
		if f, ok := err.(fielder); ok && f.Field() == fieldName {
			res = append(res, err)
			return
		}
		if c, ok := err.(causer); ok {
			walk(c.Cause())
		}
	}
	walk(err)
	return res
}

// AppendField is a shortcut for Append(err, Field(...)).
func AppendField(err error, fieldName string, fieldErr error) error {
	if fieldErr == nil {
		return err
	}
	return Append(err, Field(fieldName, fieldErr, "invalid"))
}

type fielder interface {
	Field() string
}
