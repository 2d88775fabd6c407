package cash

import (
	"github.com/iov-one/quorum"
	"github.com/iov-one/quorum/codec"
	"github.com/iov-one/quorum/coin"
	"github.com/iov-one/quorum/errors"
)

const maxMemoSize int = 128

// SendMsg moves Amount from Source to Destination. Source must be
// authenticated.
type SendMsg struct {
	Metadata    *quorum.Metadata
	Source      quorum.Address
	Destination quorum.Address
	Amount      *coin.Coin
	Memo        string
}

var _ quorum.Msg = (*SendMsg)(nil)

// Path returns the routing path for this message
func (SendMsg) Path() string {
	return "cash/send"
}

// Validate makes sure that this is sensible
func (m *SendMsg) Validate() error {
	var errs error
	errs = errors.AppendField(errs, "Metadata", m.Metadata.Validate())
	if coin.IsEmpty(m.Amount) || !m.Amount.IsPositive() {
		errs = errors.AppendField(errs, "Amount", errors.Wrap(errors.ErrAmount, "non-positive"))
	} else {
		errs = errors.AppendField(errs, "Amount", m.Amount.Validate())
	}
	errs = errors.AppendField(errs, "Source", m.Source.Validate())
	errs = errors.AppendField(errs, "Destination", m.Destination.Validate())
	if len(m.Memo) > maxMemoSize {
		errs = errors.AppendField(errs, "Memo", errors.Wrap(errors.ErrInput, "too long"))
	}
	return errs
}

func (m *SendMsg) Marshal() ([]byte, error) {
	var e codec.Encoder
	e.Message(1, m.Metadata)
	e.Bytes(2, m.Source)
	e.Bytes(3, m.Destination)
	e.Message(4, m.Amount)
	e.String(5, m.Memo)
	return e.Result()
}

func (m *SendMsg) Unmarshal(raw []byte) error {
	*m = SendMsg{}
	return codec.Decode(raw, func(f codec.Field) (err error) {
		switch f.Num() {
		case 1:
			m.Metadata = &quorum.Metadata{}
			err = f.Message(m.Metadata)
		case 2:
			m.Source, err = f.Bytes()
		case 3:
			m.Destination, err = f.Bytes()
		case 4:
			m.Amount = &coin.Coin{}
			err = f.Message(m.Amount)
		case 5:
			m.Memo, err = f.String()
		}
		return err
	})
}
