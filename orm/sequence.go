package orm

import (
	"encoding/binary"

	"github.com/iov-one/quorum"
	"github.com/iov-one/quorum/errors"
	"github.com/iov-one/quorum/safemath"
)

// Sequence is a persistent counter stored under "_s.<bucket>:<name>". It
// starts at zero and the first value handed out is 1. Values are encoded
// big endian so that their byte order follows the numeric order, which
// makes them good keys.
type Sequence struct {
	key []byte
}

func NewSequence(bucket, name string) Sequence {
	return Sequence{key: []byte("_s." + bucket + ":" + name)}
}

// NextVal increments the counter and returns the new value encoded.
func (s *Sequence) NextVal(db quorum.KVStore) ([]byte, error) {
	n, err := s.NextInt(db)
	if err != nil {
		return nil, err
	}
	return EncodeSequence(n), nil
}

// NextInt increments the counter and returns the new value.
func (s *Sequence) NextInt(db quorum.KVStore) (uint64, error) {
	n, err := s.Latest(db)
	if err != nil {
		return 0, err
	}
	if n, err = safemath.Inc64(n); err != nil {
		return 0, errors.Wrap(err, "sequence")
	}
	if err := db.Set(s.key, EncodeSequence(n)); err != nil {
		return 0, errors.Wrap(err, "save sequence")
	}
	return n, nil
}

// Latest returns the last value handed out, without changing the counter.
func (s *Sequence) Latest(db quorum.ReadOnlyKVStore) (uint64, error) {
	raw, err := db.Get(s.key)
	if err != nil {
		return 0, errors.Wrap(err, "read sequence")
	}
	return DecodeSequence(raw)
}

// DecodeSequence returns zero for a nil value.
func DecodeSequence(raw []byte) (uint64, error) {
	switch len(raw) {
	case 0:
		if raw == nil {
			return 0, nil
		}
	case 8:
		return binary.BigEndian.Uint64(raw), nil
	}
	return 0, errors.Wrapf(errors.ErrInput, "sequence of %d bytes", len(raw))
}

func EncodeSequence(n uint64) []byte {
	raw := make([]byte, 8)
	binary.BigEndian.PutUint64(raw, n)
	return raw
}
