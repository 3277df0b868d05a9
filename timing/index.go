package timing

import (
	"sort"

	"golang.org/x/exp/constraints"
	"golang.org/x/exp/maps"
	"golang.org/x/exp/slices"
)

// Index answers "most recent value at or before" over a sparse ascending map.
type Index[K constraints.Ordered, V any] struct {
	keys []K
	vals []V
}

func NewIndex[K constraints.Ordered, V any](m map[K]V) *Index[K, V] {
	keys := maps.Keys(m)
	slices.Sort(keys)
	vals := make([]V, len(keys))
	for i, k := range keys {
		vals[i] = m[k]
	}
	return &Index[K, V]{keys: keys, vals: vals}
}

func (ix *Index[K, V]) Len() int {
	return len(ix.keys)
}

func (ix *Index[K, V]) Keys() []K {
	return ix.keys
}

func (ix *Index[K, V]) First() (V, bool) {
	var zero V
	if len(ix.vals) == 0 {
		return zero, false
	}
	return ix.vals[0], true
}

func (ix *Index[K, V]) AtOrBefore(k K) (V, bool) {
	var zero V
	i := sort.Search(len(ix.keys), func(i int) bool { return ix.keys[i] > k })
	if i == 0 {
		return zero, false
	}
	return ix.vals[i-1], true
}

// Between returns the keys in (from, to).
func (ix *Index[K, V]) Between(from, to K) []K {
	lo := sort.Search(len(ix.keys), func(i int) bool { return ix.keys[i] > from })
	hi := sort.Search(len(ix.keys), func(i int) bool { return ix.keys[i] >= to })
	if lo >= hi {
		return nil
	}
	return ix.keys[lo:hi]
}

func (ix *Index[K, V]) Get(k K) (V, bool) {
	var zero V
	i := sort.Search(len(ix.keys), func(i int) bool { return ix.keys[i] >= k })
	if i < len(ix.keys) && ix.keys[i] == k {
		return ix.vals[i], true
	}
	return zero, false
}
