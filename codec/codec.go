/*
Package codec implements the protobuf wire encoding used by all messages and
models. Every type keeps its schema in a codec.proto file next to the Go
declaration, and implements Marshal/Unmarshal with an Encoder and Decode.

Field values equal to their zero value are not written, as in proto3.
Unknown fields are skipped when decoding.
*/
package codec

import (
	"reflect"

	"github.com/iov-one/quorum/errors"
	"google.golang.org/protobuf/encoding/protowire"
)

// Marshaler is implemented by every message that can be nested.
type Marshaler interface {
	Marshal() ([]byte, error)
}

// Unmarshaler is implemented by every message that can be decoded from a
// nested field.
type Unmarshaler interface {
	Unmarshal([]byte) error
}

// Encoder accumulates encoded fields. Errors of nested messages are kept and
// returned by Result.
type Encoder struct {
	buf []byte
	err error
}

// Bytes encodes a length delimited field. Empty value is skipped.
func (e *Encoder) Bytes(num protowire.Number, v []byte) {
	if len(v) == 0 {
		return
	}
	e.buf = protowire.AppendTag(e.buf, num, protowire.BytesType)
	e.buf = protowire.AppendBytes(e.buf, v)
}

// RepeatedBytes encodes each element as a separate field. Unlike Bytes,
// empty elements are written so that the position is kept.
func (e *Encoder) RepeatedBytes(num protowire.Number, vs [][]byte) {
	for _, v := range vs {
		e.buf = protowire.AppendTag(e.buf, num, protowire.BytesType)
		e.buf = protowire.AppendBytes(e.buf, v)
	}
}

// String encodes a string field. Empty value is skipped.
func (e *Encoder) String(num protowire.Number, s string) {
	if s == "" {
		return
	}
	e.buf = protowire.AppendTag(e.buf, num, protowire.BytesType)
	e.buf = protowire.AppendString(e.buf, s)
}

// Uint64 encodes a varint field. Zero is skipped.
func (e *Encoder) Uint64(num protowire.Number, v uint64) {
	if v == 0 {
		return
	}
	e.buf = protowire.AppendTag(e.buf, num, protowire.VarintType)
	e.buf = protowire.AppendVarint(e.buf, v)
}

// Bool encodes a boolean field. False is skipped.
func (e *Encoder) Bool(num protowire.Number, v bool) {
	if !v {
		return
	}
	e.Uint64(num, protowire.EncodeBool(v))
}

// Message encodes a nested message. Nil value is skipped.
func (e *Encoder) Message(num protowire.Number, m Marshaler) {
	if e.err != nil || isNil(m) {
		return
	}
	raw, err := m.Marshal()
	if err != nil {
		e.err = errors.Wrapf(err, "field %d", num)
		return
	}
	e.buf = protowire.AppendTag(e.buf, num, protowire.BytesType)
	e.buf = protowire.AppendBytes(e.buf, raw)
}

// Result returns the encoded message or the first error encountered.
func (e *Encoder) Result() ([]byte, error) {
	if e.err != nil {
		return nil, e.err
	}
	return e.buf, nil
}

func isNil(m Marshaler) bool {
	if m == nil {
		return true
	}
	v := reflect.ValueOf(m)
	return v.Kind() == reflect.Ptr && v.IsNil()
}

// Field is a single decoded field value.
type Field struct {
	num    protowire.Number
	typ    protowire.Type
	varint uint64
	raw    []byte
}

// Decode iterates over all fields of an encoded message and calls fn for
// each of them. Decoding stops on the first error.
func Decode(raw []byte, fn func(f Field) error) error {
	for len(raw) > 0 {
		num, typ, n := protowire.ConsumeTag(raw)
		if n < 0 {
			return errors.Wrapf(errors.ErrInput, "malformed tag: %s", protowire.ParseError(n))
		}
		raw = raw[n:]

		f := Field{num: num, typ: typ}
		switch typ {
		case protowire.VarintType:
			v, n := protowire.ConsumeVarint(raw)
			if n < 0 {
				return errors.Wrapf(errors.ErrInput, "field %d: %s", num, protowire.ParseError(n))
			}
			f.varint = v
			raw = raw[n:]
		case protowire.BytesType:
			v, n := protowire.ConsumeBytes(raw)
			if n < 0 {
				return errors.Wrapf(errors.ErrInput, "field %d: %s", num, protowire.ParseError(n))
			}
			f.raw = v
			raw = raw[n:]
		default:
			// Not produced by this package, skip the value.
			n := protowire.ConsumeFieldValue(num, typ, raw)
			if n < 0 {
				return errors.Wrapf(errors.ErrInput, "field %d: %s", num, protowire.ParseError(n))
			}
			raw = raw[n:]
			continue
		}
		if err := fn(f); err != nil {
			return err
		}
	}
	return nil
}

// Num returns the field number.
func (f Field) Num() protowire.Number {
	return f.num
}

// Bytes returns a copy of a length delimited value.
func (f Field) Bytes() ([]byte, error) {
	if f.typ != protowire.BytesType {
		return nil, f.wrongType()
	}
	return append([]byte{}, f.raw...), nil
}

// String returns a string value.
func (f Field) String() (string, error) {
	if f.typ != protowire.BytesType {
		return "", f.wrongType()
	}
	return string(f.raw), nil
}

// Uint64 returns a varint value.
func (f Field) Uint64() (uint64, error) {
	if f.typ != protowire.VarintType {
		return 0, f.wrongType()
	}
	return f.varint, nil
}

// Uint32 returns a varint value that must fit in 32 bits.
func (f Field) Uint32() (uint32, error) {
	v, err := f.Uint64()
	if err != nil {
		return 0, err
	}
	if v > 1<<32-1 {
		return 0, errors.Wrapf(errors.ErrOverflow, "field %d", f.num)
	}
	return uint32(v), nil
}

// Bool returns a boolean value.
func (f Field) Bool() (bool, error) {
	v, err := f.Uint64()
	if err != nil {
		return false, err
	}
	return protowire.DecodeBool(v), nil
}

// Message decodes a nested message into dst.
func (f Field) Message(dst Unmarshaler) error {
	if f.typ != protowire.BytesType {
		return f.wrongType()
	}
	if err := dst.Unmarshal(f.raw); err != nil {
		return errors.Wrapf(err, "field %d", f.num)
	}
	return nil
}

func (f Field) wrongType() error {
	return errors.Wrapf(errors.ErrInput, "field %d: unexpected wire type %d", f.num, f.typ)
}
