package cset

import (
	"testing"
)

func TestIterator_EmptySet(t *testing.T) {
	s := New[int]()
	if !s.Begin().Equal(s.End()) {
		t.Fatalf("begin of empty set is not end")
	}
	if !s.Begin().IsEnd() {
		t.Fatalf("begin of empty set is not at end")
	}
	var zero Iterator[int]
	if !zero.IsEnd() || !zero.Equal(s.End()) {
		t.Fatalf("zero iterator is not an end position")
	}
}

func TestIterator_VisitsEachKeyOnce(t *testing.T) {
	s := New[int]()
	for i := range 300 {
		s.Insert(i * 3)
	}
	seen := make(map[int]int)
	n := 0
	for it := s.Begin(); !it.Equal(s.End()); it = it.Next() {
		seen[it.Key()]++
		n++
	}
	if n != s.Len() {
		t.Fatalf("iterated %d keys, size %d", n, s.Len())
	}
	for k, c := range seen {
		if c != 1 {
			t.Fatalf("key %d visited %d times", k, c)
		}
	}

	var fromRange []int
	for k := range s.All() {
		fromRange = append(fromRange, k)
	}
	var fromIter []int
	for it := s.Begin(); !it.IsEnd(); it = it.Next() {
		fromIter = append(fromIter, it.Key())
	}
	if len(fromRange) != len(fromIter) {
		t.Fatalf("All yielded %d keys, iterator %d", len(fromRange), len(fromIter))
	}
	for i := range fromRange {
		if fromRange[i] != fromIter[i] {
			t.Fatalf("order differs at %d: %d vs %d", i, fromRange[i], fromIter[i])
		}
	}
}

func TestIterator_RangeStopsEarly(t *testing.T) {
	s := Of(1, 2, 3, 4, 5)
	n := 0
	s.Range(func(int) bool {
		n++
		return n < 2
	})
	if n != 2 {
		t.Fatalf("range visited %d keys after stop", n)
	}
}

func TestIterator_NextAtEnd(t *testing.T) {
	s := Of(1)
	end := s.End()
	if !end.Next().Equal(end) {
		t.Fatalf("next past end moved")
	}
	mustPanicWith(t, ErrEndIterator, func() { end.Key() })
}

func TestIterator_FindAndInsertPositions(t *testing.T) {
	s := NewWithHasher(collideHash)
	s.InsertAll(1, 2, 3)
	for _, k := range []int{1, 2, 3} {
		it := s.Find(k)
		if it.IsEnd() || it.Key() != k {
			t.Fatalf("find(%d) got wrong position", k)
		}
	}
	it, ok := s.Insert(4)
	if !ok || it.Key() != 4 {
		t.Fatalf("insert(4) returned wrong position")
	}
	if !s.Find(4).Equal(it) {
		t.Fatalf("find(4) differs from insert position")
	}
}

func TestIterator_StaleAfterMutation(t *testing.T) {
	if !checkStale {
		t.Skip("stale iterator detection disabled")
	}
	s := Of(1, 2, 3)

	it := s.Begin()
	s.Insert(4)
	if !it.Valid() {
		t.Fatalf("insert without growth invalidated iterator")
	}

	s.Erase(2)
	if it.Valid() {
		t.Fatalf("iterator still valid after erase")
	}
	mustPanicWith(t, ErrStaleIterator, func() { it.Key() })

	it = s.Begin()
	for i := range 100 {
		s.Insert(100 + i)
	}
	mustPanicWith(t, ErrStaleIterator, func() { it.Next() })

	it = s.Begin()
	s.Clear()
	mustPanicWith(t, ErrStaleIterator, func() { it.IsEnd() })

	other := Of(9)
	it = other.Begin()
	s.Swap(other)
	mustPanicWith(t, ErrStaleIterator, func() { it.Key() })
}
