package quorum

import (
	"github.com/iov-one/quorum/codec"
	"github.com/iov-one/quorum/errors"
)

// Metadata is included in every message and model. It carries the schema
// version the entity was created with.
type Metadata struct {
	Schema uint32 `json:"schema"`
}

// Validate returns an error if the schema version is not set.
func (m *Metadata) Validate() error {
	if m == nil {
		return errors.Wrap(errors.ErrMetadata, "missing metadata")
	}
	if m.Schema < 1 {
		return errors.Wrap(errors.ErrMetadata, "schema version must be greater than zero")
	}
	return nil
}

// Copy returns a copy of this object. This method is helpful when
// implementing orm.Model interface to make a copy of the header.
func (m *Metadata) Copy() *Metadata {
	if m == nil {
		return nil
	}
	cpy := *m
	return &cpy
}

func (m *Metadata) Marshal() ([]byte, error) {
	var e codec.Encoder
	e.Uint64(1, uint64(m.Schema))
	return e.Result()
}

func (m *Metadata) Unmarshal(raw []byte) error {
	*m = Metadata{}
	return codec.Decode(raw, func(f codec.Field) (err error) {
		switch f.Num() {
		case 1:
			m.Schema, err = f.Uint32()
		}
		return err
	})
}
