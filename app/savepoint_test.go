package app

import (
	"context"
	"testing"

	"github.com/iov-one/quorum"
	"github.com/iov-one/quorum/errors"
	"github.com/iov-one/quorum/store"
	"github.com/iov-one/quorum/weavetest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// writeHandler stores a key and then returns the configured error.
type writeHandler struct {
	key []byte
	err error
}

func (h writeHandler) Check(ctx quorum.Context, db quorum.KVStore, tx quorum.Tx) (*quorum.CheckResult, error) {
	if err := db.Set(h.key, []byte("check")); err != nil {
		return nil, err
	}
	return &quorum.CheckResult{}, h.err
}

func (h writeHandler) Deliver(ctx quorum.Context, db quorum.KVStore, tx quorum.Tx) (*quorum.DeliverResult, error) {
	if err := db.Set(h.key, []byte("deliver")); err != nil {
		return nil, err
	}
	return &quorum.DeliverResult{}, h.err
}

func TestSavepoint(t *testing.T) {
	cases := map[string]struct {
		savepoint Savepoint
		err       error
		check     bool
		wantValue []byte
	}{
		"deliver success is written": {
			savepoint: NewSavepoint().OnDeliver(),
			wantValue: []byte("deliver"),
		},
		"deliver failure is discarded": {
			savepoint: NewSavepoint().OnDeliver(),
			err:       errors.ErrState,
			wantValue: nil,
		},
		"deliver failure without savepoint is written": {
			savepoint: NewSavepoint().OnCheck(),
			err:       errors.ErrState,
			wantValue: []byte("deliver"),
		},
		"check failure is discarded": {
			savepoint: NewSavepoint().OnCheck(),
			err:       errors.ErrState,
			check:     true,
			wantValue: nil,
		},
		"check success is written": {
			savepoint: NewSavepoint().OnCheck().OnDeliver(),
			check:     true,
			wantValue: []byte("check"),
		},
	}

	for testName, tc := range cases {
		t.Run(testName, func(t *testing.T) {
			db := store.MemStore()
			key := []byte("key")
			h := writeHandler{key: key, err: tc.err}
			tx := &weavetest.Tx{Msg: &weavetest.Msg{RoutePath: "test"}}

			var err error
			if tc.check {
				_, err = tc.savepoint.Check(context.Background(), db, tx, h)
			} else {
				_, err = tc.savepoint.Deliver(context.Background(), db, tx, h)
			}
			if tc.err != nil {
				assert.True(t, errors.ErrState.Is(err))
			} else {
				require.NoError(t, err)
			}

			got, err := db.Get(key)
			require.NoError(t, err)
			assert.Equal(t, tc.wantValue, got)
		})
	}
}
