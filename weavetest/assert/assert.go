/*
Package assert provides the few test helpers used by the framework packages.
Each helper stops the test on the first failure.
*/
package assert

import (
	"reflect"
)

// Tester is the part of testing.TB used by this package.
type Tester interface {
	Helper()
	Fatalf(string, ...interface{})
}

// Nil fails the test unless value is nil or a nil value of a nillable kind,
// such as a nil error pointer.
func Nil(t Tester, value interface{}) {
	t.Helper()
	if !isNil(value) {
		// %+v prints the stack trace of wrapped errors.
		t.Fatalf("want nil, got %+v", value)
	}
}

func isNil(value interface{}) bool {
	if value == nil {
		return true
	}
	v := reflect.ValueOf(value)
	switch v.Kind() {
	case reflect.Chan, reflect.Func, reflect.Interface, reflect.Map, reflect.Ptr, reflect.Slice:
		return v.IsNil()
	}
	return false
}

// Equal fails the test unless want and got are deeply equal.
func Equal(t Tester, want, got interface{}) {
	t.Helper()
	if !reflect.DeepEqual(want, got) {
		t.Fatalf("not equal\nwant %T %v\n got %T %v", want, want, got, got)
	}
}

// IsErr fails the test unless got matches want. Errors are matched with the
// Is method of want, so a wrapped error matches its root error. Nil want
// expects no error.
func IsErr(t Tester, want, got error) {
	t.Helper()
	if want == nil {
		if got != nil {
			t.Fatalf("want no error, got %+v", got)
		}
		return
	}
	is, ok := want.(interface{ Is(error) bool })
	if !ok || !is.Is(got) {
		t.Fatalf("want %q, got %+v", want, got)
	}
}
