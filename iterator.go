package cset

import (
	"fmt"
	"iter"
)

// Iterator is a forward cursor over the slots of a Set. It rests on a used
// slot or on the sentinel slot that marks End().
//
// Iterators stay valid across insertions that do not grow the set. Rehash,
// Erase, Clear, Swap, Assign and Replace may move keys between slots; any
// iterator obtained before them is stale and panics with ErrStaleIterator
// when used (unless built with the cset_opt_nostalecheck tag).
//
// The zero Iterator is an end position that belongs to no set.
type Iterator[K comparable] struct {
	s   *Set[K]
	idx slotIndex
	gen uint64
}

func (s *Set[K]) iterAt(i slotIndex) Iterator[K] {
	return Iterator[K]{s: s, idx: i, gen: s.gen}
}

// iterFrom returns an iterator at the first used slot at or after i, or at
// the sentinel.
func (s *Set[K]) iterFrom(i slotIndex) Iterator[K] {
	slots := s.store.slots
	for slots[i].state == slotFree {
		i++
	}
	return s.iterAt(i)
}

// Begin returns an iterator at the first key in slot order, or End() if the
// set is empty.
func (s *Set[K]) Begin() Iterator[K] {
	s.lazyInit()
	return s.iterFrom(0)
}

// End returns the past-the-end iterator.
func (s *Set[K]) End() Iterator[K] {
	s.lazyInit()
	return s.iterAt(slotIndex(s.store.full))
}

func (it Iterator[K]) check() {
	if checkStale && it.s != nil && it.gen != it.s.gen {
		panic(fmt.Errorf("%w: generation %d, set is at %d", ErrStaleIterator, it.gen, it.s.gen))
	}
}

// Valid reports whether the iterator is still usable, i.e. the set has not
// moved its keys since the iterator was obtained.
func (it Iterator[K]) Valid() bool {
	return it.s != nil && it.gen == it.s.gen
}

// IsEnd reports whether the iterator is at the end position.
func (it Iterator[K]) IsEnd() bool {
	if it.s == nil {
		return true
	}
	it.check()
	return it.s.store.slots[it.idx].state == slotEnd
}

// Key returns the key at the iterator's position. It panics with
// ErrEndIterator at the end position.
func (it Iterator[K]) Key() K {
	if it.IsEnd() {
		panic(ErrEndIterator)
	}
	return it.s.store.slots[it.idx].key
}

// Next returns an iterator at the following key in slot order, or at the
// end position. Next on the end position returns it unchanged.
func (it Iterator[K]) Next() Iterator[K] {
	if it.IsEnd() {
		return it
	}
	return it.s.iterFrom(it.idx + 1)
}

// Equal reports whether both iterators belong to the same set and rest on
// the same slot.
func (it Iterator[K]) Equal(other Iterator[K]) bool {
	if it.s == nil || other.s == nil {
		return it.IsEnd() && other.IsEnd()
	}
	return it.s == other.s && it.idx == other.idx
}

// Range calls yield for each key in slot order until yield returns false.
//
// Notes:
//   - Inserting during Range is allowed; a key added behind the current
//     position may or may not be visited.
//   - Erasing during Range may move keys across the current position, so
//     some keys may be visited twice or not at all.
func (s *Set[K]) Range(yield func(key K) bool) {
	slots := s.store.slots
	for i := 0; i < s.store.full && i < len(slots); i++ {
		if e := &slots[i]; e.state == slotUsed {
			if !yield(e.key) {
				return
			}
		}
	}
}

// All returns an iterator over the keys for use with range-over-func.
func (s *Set[K]) All() iter.Seq[K] {
	return s.Range
}
