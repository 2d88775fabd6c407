package store

import (
	"bytes"
	"fmt"
	"testing"

	"github.com/iov-one/quorum/errors"
	"github.com/iov-one/quorum/weavetest/assert"
)

// TestSuite runs the same set of checks against any CacheableKVStore
// implementation. Package specific tests only provide the constructor.
type TestSuite struct {
	makeBase TestStoreConstructor
}

type TestStoreConstructor func() (base CacheableKVStore, cleanup func())

func NewTestSuite(constructor TestStoreConstructor) *TestSuite {
	return &TestSuite{
		makeBase: constructor,
	}
}

// GetSet ensures that writes are visible in the cache wrap they were made in
// and reach the parent only on Write.
func (s *TestSuite) GetSet(t *testing.T) {
	base, cleanup := s.makeBase()
	defer cleanup()

	k, v := []byte("wallet:1"), []byte("owners")
	s.AssertGetHas(t, base, k, nil, false)
	assert.Nil(t, base.Set(k, v))
	s.AssertGetHas(t, base, k, v, true)

	cache := base.CacheWrap()
	s.AssertGetHas(t, cache, k, v, true)

	k2, v2 := []byte("tx:1:0"), []byte("pending")
	assert.Nil(t, cache.Set(k2, v2))
	s.AssertGetHas(t, cache, k2, v2, true)
	s.AssertGetHas(t, base, k2, nil, false)

	assert.Nil(t, cache.Write())
	s.AssertGetHas(t, base, k, v, true)
	s.AssertGetHas(t, base, k2, v2, true)

	// Discarded changes never reach the parent.
	k3 := []byte("tx:1:1")
	discarded := base.CacheWrap()
	assert.Nil(t, discarded.Set(k3, []byte("lost")))
	assert.Nil(t, discarded.Delete(k))
	discarded.Discard()
	s.AssertGetHas(t, base, k3, nil, false)
	s.AssertGetHas(t, base, k, v, true)

	deleting := base.CacheWrap()
	assert.Nil(t, deleting.Delete(k))
	s.AssertGetHas(t, deleting, k, nil, false)
	s.AssertGetHas(t, base, k, v, true)
	assert.Nil(t, deleting.Write())
	s.AssertGetHas(t, base, k, nil, false)
}

// NestedSavepoints ensures a discarded inner cache wrap does not affect the
// outer one, and a written inner one is visible only through the outer one
// until that is written as well.
func (s *TestSuite) NestedSavepoints(t *testing.T) {
	base, cleanup := s.makeBase()
	defer cleanup()

	outer := base.CacheWrap()
	assert.Nil(t, outer.Set([]byte("a"), []byte("1")))

	failed := outer.CacheWrap()
	assert.Nil(t, failed.Set([]byte("a"), []byte("2")))
	assert.Nil(t, failed.Set([]byte("b"), []byte("2")))
	failed.Discard()
	s.AssertGetHas(t, outer, []byte("a"), []byte("1"), true)
	s.AssertGetHas(t, outer, []byte("b"), nil, false)

	succeeded := outer.CacheWrap()
	assert.Nil(t, succeeded.Set([]byte("c"), []byte("3")))
	assert.Nil(t, succeeded.Write())
	s.AssertGetHas(t, outer, []byte("c"), []byte("3"), true)
	s.AssertGetHas(t, base, []byte("c"), nil, false)

	assert.Nil(t, outer.Write())
	s.AssertGetHas(t, base, []byte("a"), []byte("1"), true)
	s.AssertGetHas(t, base, []byte("b"), nil, false)
	s.AssertGetHas(t, base, []byte("c"), []byte("3"), true)
}

// Iterators checks that cache wrap iterators merge the parent state with
// the cached overwrites and deletes, in both directions.
func (s *TestSuite) Iterators(t *testing.T) {
	key := func(i int) []byte { return []byte(fmt.Sprintf("key-%02d", i)) }
	val := func(i int, layer string) []byte { return []byte(fmt.Sprintf("%s-%02d", layer, i)) }

	cases := map[string]struct {
		parent  []Op
		child   []Op
		start   []byte
		end     []byte
		reverse bool
		want    []Model
	}{
		"child only": {
			child: []Op{SetOp(key(2), val(2, "c")), SetOp(key(1), val(1, "c"))},
			want:  []Model{Pair(key(1), val(1, "c")), Pair(key(2), val(2, "c"))},
		},
		"parent only": {
			parent: []Op{SetOp(key(1), val(1, "p")), SetOp(key(2), val(2, "p"))},
			want:   []Model{Pair(key(1), val(1, "p")), Pair(key(2), val(2, "p"))},
		},
		"child overwrites and deletes": {
			parent: []Op{SetOp(key(1), val(1, "p")), SetOp(key(2), val(2, "p")), SetOp(key(3), val(3, "p"))},
			child:  []Op{SetOp(key(2), val(2, "c")), DelOp(key(3)), SetOp(key(4), val(4, "c"))},
			want:   []Model{Pair(key(1), val(1, "p")), Pair(key(2), val(2, "c")), Pair(key(4), val(4, "c"))},
		},
		"reverse merge": {
			parent:  []Op{SetOp(key(1), val(1, "p")), SetOp(key(3), val(3, "p"))},
			child:   []Op{SetOp(key(2), val(2, "c")), DelOp(key(1))},
			reverse: true,
			want:    []Model{Pair(key(3), val(3, "p")), Pair(key(2), val(2, "c"))},
		},
		"bounded range": {
			parent: []Op{SetOp(key(1), val(1, "p")), SetOp(key(3), val(3, "p")), SetOp(key(5), val(5, "p"))},
			child:  []Op{SetOp(key(2), val(2, "c")), SetOp(key(4), val(4, "c"))},
			start:  key(2),
			end:    key(5),
			want:   []Model{Pair(key(2), val(2, "c")), Pair(key(3), val(3, "p")), Pair(key(4), val(4, "c"))},
		},
		"bounded reverse range": {
			parent:  []Op{SetOp(key(1), val(1, "p")), SetOp(key(3), val(3, "p")), SetOp(key(5), val(5, "p"))},
			child:   []Op{SetOp(key(2), val(2, "c")), SetOp(key(4), val(4, "c"))},
			start:   key(2),
			end:     key(5),
			reverse: true,
			want:    []Model{Pair(key(4), val(4, "c")), Pair(key(3), val(3, "p")), Pair(key(2), val(2, "c"))},
		},
		"everything deleted": {
			parent: []Op{SetOp(key(1), val(1, "p"))},
			child:  []Op{DelOp(key(1)), DelOp(key(2))},
			want:   nil,
		},
	}

	for testName, tc := range cases {
		t.Run(testName, func(t *testing.T) {
			base, cleanup := s.makeBase()
			defer cleanup()

			for _, op := range tc.parent {
				assert.Nil(t, op.Apply(base))
			}
			child := base.CacheWrap()
			for _, op := range tc.child {
				assert.Nil(t, op.Apply(child))
			}

			var iter Iterator
			var err error
			if tc.reverse {
				iter, err = child.ReverseIterator(tc.start, tc.end)
			} else {
				iter, err = child.Iterator(tc.start, tc.end)
			}
			assert.Nil(t, err)
			defer iter.Release()
			s.AssertIterator(t, iter, tc.want)
		})
	}
}

// AssertIterator consumes the iterator and compares all returned pairs.
func (s *TestSuite) AssertIterator(t testing.TB, iter Iterator, want []Model) {
	t.Helper()
	for i, m := range want {
		key, value, err := iter.Next()
		assert.Nil(t, err)
		if !bytes.Equal(m.Key, key) {
			t.Fatalf("want key %d to be %q, got %q", i, m.Key, key)
		}
		assert.Equal(t, m.Value, value)
	}
	if _, _, err := iter.Next(); !errors.ErrIteratorDone.Is(err) {
		t.Fatalf("want ErrIteratorDone, got %+v", err)
	}
}

func (s *TestSuite) AssertGetHas(t testing.TB, kv ReadOnlyKVStore, key, val []byte, has bool) {
	t.Helper()
	got, err := kv.Get(key)
	assert.Nil(t, err)
	assert.Equal(t, val, got)
	exists, err := kv.Has(key)
	assert.Nil(t, err)
	assert.Equal(t, has, exists)
}
