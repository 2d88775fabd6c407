package msig

import (
	"github.com/iov-one/quorum"
	"github.com/iov-one/quorum/codec"
	"github.com/iov-one/quorum/coin"
	"github.com/iov-one/quorum/errors"
	"github.com/iov-one/quorum/gconf"
)

const packageName = "msig"

// Configuration of the msig extension.
type Configuration struct {
	Metadata *quorum.Metadata `json:"metadata"`
	// NativeTicker is the currency of the value transferred by a
	// transaction.
	NativeTicker string `json:"native_ticker"`
	// AddressPrefix is the bech32 prefix used to present wallet addresses
	// in logs. Hex is used when empty.
	AddressPrefix string `json:"address_prefix"`
}

var _ gconf.Configuration = (*Configuration)(nil)

func (c *Configuration) Validate() error {
	var errs error
	errs = errors.AppendField(errs, "Metadata", c.Metadata.Validate())
	if !coin.IsCC(c.NativeTicker) {
		errs = errors.AppendField(errs, "NativeTicker", errors.Wrapf(errors.ErrCurrency, "invalid ticker %q", c.NativeTicker))
	}
	return errs
}

func (c *Configuration) Marshal() ([]byte, error) {
	var e codec.Encoder
	e.Message(1, c.Metadata)
	e.String(2, c.NativeTicker)
	e.String(3, c.AddressPrefix)
	return e.Result()
}

func (c *Configuration) Unmarshal(raw []byte) error {
	*c = Configuration{}
	return codec.Decode(raw, func(f codec.Field) (err error) {
		switch f.Num() {
		case 1:
			c.Metadata = &quorum.Metadata{}
			err = f.Message(c.Metadata)
		case 2:
			c.NativeTicker, err = f.String()
		case 3:
			c.AddressPrefix, err = f.String()
		}
		return err
	})
}

// loadConf returns the current configuration of this extension.
func loadConf(db gconf.ReadStore) (*Configuration, error) {
	var conf Configuration
	if err := gconf.Load(db, packageName, &conf); err != nil {
		return nil, errors.Wrap(err, "load configuration")
	}
	return &conf, nil
}

// formatAddress presents an address using the configured bech32 prefix.
func (c *Configuration) formatAddress(a quorum.Address) string {
	if c == nil || c.AddressPrefix == "" {
		return a.String()
	}
	s, err := a.Bech32(c.AddressPrefix)
	if err != nil {
		return a.String()
	}
	return s
}
