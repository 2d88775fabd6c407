package codec

import (
	"testing"

	"github.com/iov-one/quorum/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/protobuf/encoding/protowire"
)

type sample struct {
	Name   string
	Count  uint64
	Flag   bool
	Blobs  [][]byte
	Nested *sample
}

func (s *sample) Marshal() ([]byte, error) {
	var e Encoder
	e.String(1, s.Name)
	e.Uint64(2, s.Count)
	e.Bool(3, s.Flag)
	e.RepeatedBytes(4, s.Blobs)
	e.Message(5, s.Nested)
	return e.Result()
}

func (s *sample) Unmarshal(raw []byte) error {
	*s = sample{}
	return Decode(raw, func(f Field) (err error) {
		switch f.Num() {
		case 1:
			s.Name, err = f.String()
		case 2:
			s.Count, err = f.Uint64()
		case 3:
			s.Flag, err = f.Bool()
		case 4:
			var b []byte
			b, err = f.Bytes()
			s.Blobs = append(s.Blobs, b)
		case 5:
			s.Nested = &sample{}
			err = f.Message(s.Nested)
		}
		return err
	})
}

type failing struct{}

func (failing) Marshal() ([]byte, error) {
	return nil, errors.Wrap(errors.ErrState, "cannot encode")
}

func TestRoundTrip(t *testing.T) {
	in := &sample{
		Name:   "wallet",
		Count:  1 << 40,
		Flag:   true,
		Blobs:  [][]byte{[]byte("a"), {}, []byte("c")},
		Nested: &sample{Name: "inner", Count: 3},
	}
	raw, err := in.Marshal()
	require.NoError(t, err)

	var out sample
	require.NoError(t, out.Unmarshal(raw))
	assert.Equal(t, in.Name, out.Name)
	assert.Equal(t, in.Count, out.Count)
	assert.True(t, out.Flag)
	assert.Equal(t, in.Blobs, out.Blobs)
	require.NotNil(t, out.Nested)
	assert.Equal(t, "inner", out.Nested.Name)
	assert.Equal(t, uint64(3), out.Nested.Count)
}

func TestZeroValuesAreSkipped(t *testing.T) {
	raw, err := (&sample{}).Marshal()
	require.NoError(t, err)
	assert.Empty(t, raw)
}

func TestNestedError(t *testing.T) {
	var e Encoder
	e.String(1, "before")
	e.Message(2, failing{})
	e.String(3, "after")
	_, err := e.Result()
	assert.True(t, errors.ErrState.Is(err))
}

func TestDecodeErrors(t *testing.T) {
	var truncated []byte
	truncated = protowire.AppendTag(truncated, 1, protowire.BytesType)
	truncated = protowire.AppendVarint(truncated, 10)
	truncated = append(truncated, 'x')

	var wrongType []byte
	wrongType = protowire.AppendTag(wrongType, 1, protowire.VarintType)
	wrongType = protowire.AppendVarint(wrongType, 7)

	var tooBig []byte
	tooBig = protowire.AppendTag(tooBig, 1, protowire.VarintType)
	tooBig = protowire.AppendVarint(tooBig, 1<<33)

	cases := map[string]struct {
		raw    []byte
		decode func(Field) error
	}{
		"truncated bytes": {
			raw:    truncated,
			decode: func(Field) error { return nil },
		},
		"wrong wire type": {
			raw: wrongType,
			decode: func(f Field) error {
				_, err := f.String()
				return err
			},
		},
		"uint32 overflow": {
			raw: tooBig,
			decode: func(f Field) error {
				_, err := f.Uint32()
				return err
			},
		},
	}

	for testName, tc := range cases {
		t.Run(testName, func(t *testing.T) {
			err := Decode(tc.raw, tc.decode)
			assert.True(t, errors.ErrInput.Is(err) || errors.ErrOverflow.Is(err), "unexpected error: %+v", err)
		})
	}
}

func TestUnknownFieldsAreSkipped(t *testing.T) {
	var raw []byte
	raw = protowire.AppendTag(raw, 9, protowire.Fixed32Type)
	raw = protowire.AppendFixed32(raw, 42)
	raw = protowire.AppendTag(raw, 1, protowire.BytesType)
	raw = protowire.AppendString(raw, "known")

	var s sample
	require.NoError(t, s.Unmarshal(raw))
	assert.Equal(t, "known", s.Name)
}
