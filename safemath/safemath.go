/*
Package safemath provides checked unsigned 256 bit arithmetic. Every
operation fails instead of wrapping around or saturating.
*/
package safemath

import (
	"encoding/json"
	"math/big"

	"github.com/holiman/uint256"
	"github.com/iov-one/quorum/errors"
)

// Uint is an unsigned 256 bit integer. Zero value is ready to use and
// represents 0.
type Uint struct {
	v uint256.Int
}

// NewUint returns a Uint representing given value.
func NewUint(n uint64) Uint {
	var u Uint
	u.v.SetUint64(n)
	return u
}

// ParseUint parses a base 10 representation of an unsigned integer.
func ParseUint(s string) (Uint, error) {
	var u Uint
	if s == "" {
		return u, errors.Wrap(errors.ErrInput, "empty number")
	}
	for _, c := range s {
		if c < '0' || c > '9' {
			return u, errors.Wrapf(errors.ErrInput, "%q is not a decimal number", s)
		}
	}
	// Only digits are left, so the only possible failure is the range.
	if err := u.v.SetFromDecimal(s); err != nil {
		return Uint{}, errors.Wrapf(errors.ErrOverflow, "%q", s)
	}
	return u, nil
}

// UintFromBytes decodes a big endian representation. Empty input is zero.
func UintFromBytes(b []byte) (Uint, error) {
	var u Uint
	if len(b) > 32 {
		return u, errors.Wrapf(errors.ErrOverflow, "%d bytes", len(b))
	}
	u.v.SetBytes(b)
	return u, nil
}

// MustParse is ParseUint that panics on failure. Use for constants and in
// tests only.
func MustParse(s string) Uint {
	u, err := ParseUint(s)
	if err != nil {
		panic(err)
	}
	return u
}

// Bytes returns the minimal big endian representation. Zero is an empty
// slice.
func (u Uint) Bytes() []byte {
	if u.v.IsZero() {
		return nil
	}
	return u.v.Bytes()
}

func (u Uint) String() string {
	return u.v.Dec()
}

// Big returns a copy as a math/big integer.
func (u Uint) Big() *big.Int {
	return u.v.ToBig()
}

// Uint64 returns the value if it fits into uint64.
func (u Uint) Uint64() (uint64, error) {
	if !u.v.IsUint64() {
		return 0, errors.Wrapf(errors.ErrOverflow, "%s does not fit uint64", u)
	}
	return u.v.Uint64(), nil
}

func (u Uint) IsZero() bool {
	return u.v.IsZero()
}

// Cmp returns -1, 0 or 1 if u is lesser, equal or greater than o.
func (u Uint) Cmp(o Uint) int {
	return u.v.Cmp(&o.v)
}

func (u Uint) Equals(o Uint) bool {
	return u.v.Eq(&o.v)
}

// Add returns a + b or fails with ErrOverflow.
func Add(a, b Uint) (Uint, error) {
	var r Uint
	if _, overflow := r.v.AddOverflow(&a.v, &b.v); overflow {
		return Uint{}, errors.Wrapf(errors.ErrOverflow, "%s + %s", a, b)
	}
	return r, nil
}

// Sub returns a - b or fails with ErrUnderflow.
func Sub(a, b Uint) (Uint, error) {
	var r Uint
	if _, underflow := r.v.SubOverflow(&a.v, &b.v); underflow {
		return Uint{}, errors.Wrapf(errors.ErrUnderflow, "%s - %s", a, b)
	}
	return r, nil
}

// Mul returns a * b or fails with ErrOverflow.
func Mul(a, b Uint) (Uint, error) {
	var r Uint
	if _, overflow := r.v.MulOverflow(&a.v, &b.v); overflow {
		return Uint{}, errors.Wrapf(errors.ErrOverflow, "%s * %s", a, b)
	}
	return r, nil
}

// Div returns a / b rounded down or fails with ErrDivisionByZero.
func Div(a, b Uint) (Uint, error) {
	if b.v.IsZero() {
		return Uint{}, errors.Wrapf(errors.ErrDivisionByZero, "%s / 0", a)
	}
	var r Uint
	r.v.Div(&a.v, &b.v)
	return r, nil
}

func Min(a, b Uint) Uint {
	if a.Cmp(b) <= 0 {
		return a
	}
	return b
}

func Max(a, b Uint) Uint {
	if a.Cmp(b) >= 0 {
		return a
	}
	return b
}

func Min64(a, b uint64) uint64 {
	if a <= b {
		return a
	}
	return b
}

func Max64(a, b uint64) uint64 {
	if a >= b {
		return a
	}
	return b
}

// Inc64 returns n + 1 or fails with ErrOverflow. Use it for counters.
func Inc64(n uint64) (uint64, error) {
	if n == 1<<64-1 {
		return 0, errors.Wrap(errors.ErrOverflow, "counter")
	}
	return n + 1, nil
}

// MarshalJSON encodes the value as a decimal string, so that values above
// 2^53 survive javascript clients.
func (u Uint) MarshalJSON() ([]byte, error) {
	return json.Marshal(u.String())
}

// UnmarshalJSON accepts a decimal string or a JSON number.
func (u *Uint) UnmarshalJSON(raw []byte) error {
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		var n json.Number
		if err := json.Unmarshal(raw, &n); err != nil {
			return errors.Wrap(errors.ErrInput, "number expected")
		}
		s = n.String()
	}
	v, err := ParseUint(s)
	if err != nil {
		return err
	}
	*u = v
	return nil
}
