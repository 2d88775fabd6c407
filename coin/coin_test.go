package coin

import (
	"encoding/json"
	"testing"

	"github.com/iov-one/quorum/errors"
	"github.com/iov-one/quorum/safemath"
	"github.com/iov-one/quorum/weavetest/assert"
)

func TestCoinArithmetic(t *testing.T) {
	cases := map[string]struct {
		a, b    Coin
		sum     Coin
		sumErr  *errors.Error
		diff    Coin
		diffErr *errors.Error
	}{
		"same currency": {
			a:    NewCoin(300, "IOV"),
			b:    NewCoin(234, "IOV"),
			sum:  NewCoin(534, "IOV"),
			diff: NewCoin(66, "IOV"),
		},
		"different currency": {
			a:       NewCoin(300, "IOV"),
			b:       NewCoin(1, "ETH"),
			sumErr:  errors.ErrCurrency,
			diffErr: errors.ErrCurrency,
		},
		"zero without ticker is neutral": {
			a:    NewCoin(7, "IOV"),
			b:    Coin{},
			sum:  NewCoin(7, "IOV"),
			diff: NewCoin(7, "IOV"),
		},
		"subtract more than available": {
			a:       NewCoin(1, "IOV"),
			b:       NewCoin(2, "IOV"),
			sum:     NewCoin(3, "IOV"),
			diffErr: errors.ErrUnderflow,
		},
		"overflow": {
			a:      Coin{Ticker: "IOV", Amount: safemath.MustParse("115792089237316195423570985008687907853269984665640564039457584007913129639935")},
			b:      NewCoin(1, "IOV"),
			sumErr: errors.ErrOverflow,
			diff: Coin{Ticker: "IOV", Amount: safemath.MustParse("115792089237316195423570985008687907853269984665640564039457584007913129639934")},
		},
	}

	for testName, tc := range cases {
		t.Run(testName, func(t *testing.T) {
			sum, err := tc.a.Add(tc.b)
			assert.IsErr(t, tc.sumErr, err)
			if tc.sumErr == nil && !sum.Equals(tc.sum) {
				t.Fatalf("want %s, got %s", tc.sum, sum)
			}
			diff, err := tc.a.Subtract(tc.b)
			assert.IsErr(t, tc.diffErr, err)
			if tc.diffErr == nil && !diff.Equals(tc.diff) {
				t.Fatalf("want %s, got %s", tc.diff, diff)
			}
		})
	}
}

func TestCoinValidate(t *testing.T) {
	assert.Nil(t, NewCoin(1, "IOV").Validate())
	assert.IsErr(t, errors.ErrCurrency, NewCoin(1, "iov").Validate())
	assert.IsErr(t, errors.ErrCurrency, NewCoin(1, "").Validate())
}

func TestCoinSerialization(t *testing.T) {
	c := NewCoin(234, "ETH")
	raw, err := c.Marshal()
	assert.Nil(t, err)
	var got Coin
	assert.Nil(t, got.Unmarshal(raw))
	if !got.Equals(c) {
		t.Fatalf("want %s, got %s", c, got)
	}
}

func TestCoinJSON(t *testing.T) {
	cases := map[string]struct {
		json    string
		want    Coin
		wantErr *errors.Error
	}{
		"human format": {
			json: `"234 IOV"`,
			want: NewCoin(234, "IOV"),
		},
		"object": {
			json: `{"ticker": "ETH", "amount": "1000"}`,
			want: NewCoin(1000, "ETH"),
		},
		"fraction is not supported": {
			json:    `"1.5 IOV"`,
			wantErr: errors.ErrInput,
		},
		"missing ticker": {
			json:    `"15"`,
			wantErr: errors.ErrInput,
		},
	}

	for testName, tc := range cases {
		t.Run(testName, func(t *testing.T) {
			var c Coin
			err := json.Unmarshal([]byte(tc.json), &c)
			assert.IsErr(t, tc.wantErr, err)
			if tc.wantErr == nil && !c.Equals(tc.want) {
				t.Fatalf("want %s, got %s", tc.want, c)
			}
		})
	}

	raw, err := json.Marshal(NewCoin(5, "IOV"))
	assert.Nil(t, err)
	assert.Equal(t, `"5 IOV"`, string(raw))
}
