package store

import (
	"bytes"

	"github.com/google/btree"
	"github.com/iov-one/quorum/errors"
)

// ascendBtree returns a snapshot of all items in [start, end), ordered by
// key. Nil start or end means unbounded.
func ascendBtree(bt *btree.BTree, start, end []byte) []cacheEntry {
	var items []cacheEntry
	collect := func(item btree.Item) bool {
		items = append(items, item.(cacheEntry))
		return true
	}

	if start == nil && end == nil {
		bt.Ascend(collect)
	} else if start == nil { // end != nil
		bt.AscendLessThan(cacheEntry{key: end}, collect)
	} else if end == nil { // start != nil
		bt.AscendGreaterOrEqual(cacheEntry{key: start}, collect)
	} else { // both != nil
		bt.AscendRange(cacheEntry{key: start}, cacheEntry{key: end}, collect)
	}
	return items
}

// descendBtree returns the same range as ascendBtree in reverse order.
func descendBtree(bt *btree.BTree, start, end []byte) []cacheEntry {
	items := ascendBtree(bt, start, end)
	for i, j := 0, len(items)-1; i < j; i, j = i+1, j-1 {
		items[i], items[j] = items[j], items[i]
	}
	return items
}

// mergedIterator combines cached items with the parent iterator. Cached
// items shadow parent values with the same key, deleted items hide them.
type mergedIterator struct {
	items []cacheEntry
	idx   int

	parent Iterator
	// last value read from the parent that was not returned yet
	pkey, pval []byte
	pread      bool
	pdone      bool

	reverse bool
}

var _ Iterator = (*mergedIterator)(nil)

func newMergedIterator(items []cacheEntry, parent Iterator, reverse bool) *mergedIterator {
	return &mergedIterator{
		items:   items,
		parent:  parent,
		reverse: reverse,
	}
}

// Next returns the next key value pair in the order of iteration, or
// ErrIteratorDone.
func (m *mergedIterator) Next() (key, value []byte, err error) {
	for {
		if err := m.peekParent(); err != nil {
			return nil, nil, err
		}

		if m.idx >= len(m.items) {
			if !m.pread {
				return nil, nil, errors.ErrIteratorDone
			}
			m.pread = false
			return m.pkey, m.pval, nil
		}

		our := m.items[m.idx]
		if m.pread {
			cmp := bytes.Compare(our.key, m.pkey)
			if m.reverse {
				cmp = -cmp
			}
			if cmp > 0 {
				m.pread = false
				return m.pkey, m.pval, nil
			}
			if cmp == 0 {
				// Cached value overwrites the parent one.
				m.pread = false
			}
		}

		m.idx++
		if our.deleted {
			continue
		}
		return our.key, our.value, nil
	}
}

func (m *mergedIterator) peekParent() error {
	if m.pread || m.pdone {
		return nil
	}
	k, v, err := m.parent.Next()
	switch {
	case errors.ErrIteratorDone.Is(err):
		m.pdone = true
	case err != nil:
		return err
	default:
		m.pkey, m.pval, m.pread = k, v, true
	}
	return nil
}

// Release releases the parent iterator.
func (m *mergedIterator) Release() {
	m.parent.Release()
	m.items = nil
}
