package cash

import (
	"github.com/iov-one/quorum"
	"github.com/iov-one/quorum/coin"
	"github.com/iov-one/quorum/errors"
	"github.com/iov-one/quorum/orm"
)

// Controller is the functionality needed by cash.Handler and other
// extensions that move value.
type Controller interface {
	// Balance returns all coins held by given account. An account that
	// was never credited holds nothing.
	Balance(db quorum.ReadOnlyKVStore, addr quorum.Address) (coin.Coins, error)
	// MoveCoins moves the given amount from src to dest. If src does not
	// have sufficient coins, it fails.
	MoveCoins(db quorum.KVStore, src, dest quorum.Address, amount coin.Coin) error
	// IssueCoins adds the given amount of coins to the destination
	// address. Fails if the result overflows.
	IssueCoins(db quorum.KVStore, dest quorum.Address, amount coin.Coin) error
}

// BaseController is a simple implementation of Controller.
type BaseController struct {
	bucket orm.ModelBucket
}

var _ Controller = BaseController{}

// NewController returns a controller operating on given bucket.
func NewController(bucket orm.ModelBucket) BaseController {
	return BaseController{bucket: bucket}
}

func (c BaseController) Balance(db quorum.ReadOnlyKVStore, addr quorum.Address) (coin.Coins, error) {
	set, err := c.load(db, addr)
	if err != nil {
		return nil, err
	}
	return set.Coins, nil
}

func (c BaseController) MoveCoins(db quorum.KVStore, src, dest quorum.Address, amount coin.Coin) error {
	if err := validateAmount(amount); err != nil {
		return err
	}

	sender, err := c.load(db, src)
	if err != nil {
		return errors.Wrap(err, "sender")
	}
	left, err := sender.Coins.Subtract(amount)
	if err != nil {
		return errors.Wrapf(err, "cannot take %s from %s", amount, src)
	}

	// Moving to self only requires the funds to be available.
	if src.Equals(dest) {
		return nil
	}

	recipient, err := c.load(db, dest)
	if err != nil {
		return errors.Wrap(err, "recipient")
	}
	gained, err := recipient.Coins.Add(amount)
	if err != nil {
		return errors.Wrapf(err, "cannot give %s to %s", amount, dest)
	}

	sender.Coins = left
	recipient.Coins = gained
	if _, err := c.bucket.Put(db, src, sender); err != nil {
		return errors.Wrap(err, "save sender")
	}
	if _, err := c.bucket.Put(db, dest, recipient); err != nil {
		return errors.Wrap(err, "save recipient")
	}
	return nil
}

func (c BaseController) IssueCoins(db quorum.KVStore, dest quorum.Address, amount coin.Coin) error {
	if err := validateAmount(amount); err != nil {
		return err
	}
	recipient, err := c.load(db, dest)
	if err != nil {
		return err
	}
	gained, err := recipient.Coins.Add(amount)
	if err != nil {
		return errors.Wrapf(err, "cannot issue %s to %s", amount, dest)
	}
	recipient.Coins = gained
	if _, err := c.bucket.Put(db, dest, recipient); err != nil {
		return errors.Wrap(err, "save recipient")
	}
	return nil
}

// load returns the balance of given account. A missing account is
// returned as an empty set.
func (c BaseController) load(db quorum.ReadOnlyKVStore, addr quorum.Address) (*Set, error) {
	if err := addr.Validate(); err != nil {
		return nil, errors.Wrap(err, "address")
	}
	var set Set
	switch err := c.bucket.One(db, addr, &set); {
	case err == nil:
		return &set, nil
	case errors.ErrNotFound.Is(err):
		return &Set{Metadata: &quorum.Metadata{Schema: 1}}, nil
	default:
		return nil, err
	}
}

func validateAmount(amount coin.Coin) error {
	if err := amount.Validate(); err != nil {
		return errors.Wrap(err, "amount")
	}
	if !amount.IsPositive() {
		return errors.Wrapf(errors.ErrAmount, "non-positive amount: %s", amount)
	}
	return nil
}
