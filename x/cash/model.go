package cash

import (
	"github.com/iov-one/quorum"
	"github.com/iov-one/quorum/codec"
	"github.com/iov-one/quorum/coin"
	"github.com/iov-one/quorum/errors"
	"github.com/iov-one/quorum/orm"
)

// BucketName is where we store the balances
const BucketName = "cash"

// Set is the balance of a single account.
type Set struct {
	Metadata *quorum.Metadata
	Coins    coin.Coins
}

var _ orm.Model = (*Set)(nil)

// Validate requires that all coins are in alphabetical order.
func (s *Set) Validate() error {
	if err := s.Metadata.Validate(); err != nil {
		return errors.Wrap(err, "metadata")
	}
	return s.Coins.Validate()
}

// Copy makes a new set with the same coins
func (s *Set) Copy() *Set {
	return &Set{
		Metadata: s.Metadata.Copy(),
		Coins:    s.Coins.Clone(),
	}
}

func (s *Set) Marshal() ([]byte, error) {
	var e codec.Encoder
	e.Message(1, s.Metadata)
	for _, c := range s.Coins {
		e.Message(2, c)
	}
	return e.Result()
}

func (s *Set) Unmarshal(raw []byte) error {
	*s = Set{}
	return codec.Decode(raw, func(f codec.Field) error {
		switch f.Num() {
		case 1:
			s.Metadata = &quorum.Metadata{}
			return f.Message(s.Metadata)
		case 2:
			var c coin.Coin
			if err := f.Message(&c); err != nil {
				return err
			}
			s.Coins = append(s.Coins, &c)
		}
		return nil
	})
}

// NewBucket returns a bucket storing a Set under an account address.
func NewBucket() orm.ModelBucket {
	return orm.NewModelBucket(BucketName, &Set{})
}
