package coin

import (
	"sort"

	"github.com/iov-one/quorum/errors"
)

// Coins is a balance made of many currencies. A valid set is sorted by
// ticker, has at most one coin per ticker and no zero coins. Operations
// never modify the receiver and always return a valid set.
type Coins []*Coin

// CombineCoins sums given coins into a valid set.
func CombineCoins(cs ...Coin) (Coins, error) {
	var set Coins
	for _, c := range cs {
		var err error
		if set, err = set.Add(c); err != nil {
			return nil, err
		}
	}
	return set, set.Validate()
}

// Clone returns a deep copy.
func (cs Coins) Clone() Coins {
	if cs == nil {
		return nil
	}
	cp := make(Coins, len(cs))
	for i, c := range cs {
		cp[i] = c.Clone()
	}
	return cp
}

// search returns the position of the ticker, or where it would be
// inserted, and whether it is present.
func (cs Coins) search(ticker string) (int, bool) {
	i := sort.Search(len(cs), func(i int) bool { return cs[i].ID() >= ticker })
	return i, i < len(cs) && cs[i].ID() == ticker
}

// Add returns the set with c added.
func (cs Coins) Add(c Coin) (Coins, error) {
	res := cs.Clone()
	if c.IsZero() {
		return res, nil
	}
	i, found := res.search(c.ID())
	if !found {
		added := c
		res = append(res[:i], append(Coins{&added}, res[i:]...)...)
		return res, nil
	}
	sum, err := res[i].Add(c)
	if err != nil {
		return nil, err
	}
	res[i] = &sum
	return res, nil
}

// Subtract returns the set with c removed. A currency that drops to zero
// leaves the set. ErrInsufficientAmount is returned when the set does not
// contain c.
func (cs Coins) Subtract(c Coin) (Coins, error) {
	res := cs.Clone()
	if c.IsZero() {
		return res, nil
	}
	i, found := res.search(c.ID())
	if !found || !res[i].IsGTE(c) {
		return nil, errors.Wrapf(errors.ErrInsufficientAmount, "need %s", c)
	}
	left, err := res[i].Subtract(c)
	if err != nil {
		return nil, err
	}
	if left.IsZero() {
		return append(res[:i], res[i+1:]...), nil
	}
	res[i] = &left
	return res, nil
}

// Combine returns the sum of both sets.
func (cs Coins) Combine(o Coins) (Coins, error) {
	res := cs.Clone()
	for _, c := range o {
		var err error
		if res, err = res.Add(*c); err != nil {
			return nil, err
		}
	}
	return res, nil
}

// Contains is true when Subtract(c) would succeed.
func (cs Coins) Contains(c Coin) bool {
	if c.IsZero() {
		return true
	}
	i, found := cs.search(c.ID())
	return found && cs[i].IsGTE(c)
}

// Get returns a zero coin of the ticker when nothing is held.
func (cs Coins) Get(ticker string) Coin {
	if i, found := cs.search(ticker); found {
		return *cs[i]
	}
	return Coin{Ticker: ticker}
}

func (cs Coins) IsEmpty() bool {
	return len(cs) == 0
}

func (cs Coins) Equals(o Coins) bool {
	if len(cs) != len(o) {
		return false
	}
	for i, c := range cs {
		if !c.Equals(*o[i]) {
			return false
		}
	}
	return true
}

// Validate reports every problem of the set at once.
func (cs Coins) Validate() error {
	var err error
	for i, c := range cs {
		if c == nil {
			err = errors.Append(err, errors.Wrapf(errors.ErrEmpty, "coin %d", i))
			continue
		}
		err = errors.Append(err, errors.Wrapf(c.Validate(), "coin %d", i))
		if c.IsZero() {
			err = errors.Append(err, errors.Wrapf(errors.ErrState, "coin %d is zero", i))
		}
		if i > 0 && cs[i-1] != nil && cs[i-1].Ticker >= c.Ticker {
			err = errors.Append(err, errors.Wrapf(errors.ErrState, "coin %d is not sorted", i))
		}
	}
	return err
}
