package cset

import "fmt"

// Validate walks the whole store and checks its structural invariants:
//
//   - the last slot is the sentinel and no other slot is
//   - Len() equals the number of used slots and no key is stored twice
//   - every link points at a used slot and next/prev links mirror each other
//   - every chain starts at its head's home slot and ends without a cycle
//   - every key is found by a lookup from its home slot
//
// It returns the first violation as an error wrapping ErrCorruptChain, or
// nil. Validate is O(N) and meant for tests and diagnostics.
func (s *Set[K]) Validate() error {
	st := &s.store
	if st.slots == nil {
		if s.size != 0 {
			return fmt.Errorf("%w: %d keys without a store", ErrCorruptChain, s.size)
		}
		return nil
	}
	if st.primary <= 0 || st.full < st.primary || len(st.slots) != st.full+1 {
		return fmt.Errorf("%w: primary %d, full %d, %d slots",
			ErrCorruptChain, st.primary, st.full, len(st.slots))
	}
	if st.slots[st.full].state != slotEnd {
		return fmt.Errorf("%w: sentinel slot %d is %s", ErrCorruptChain, st.full, st.slots[st.full].state)
	}
	if st.cursor < 0 || st.cursor > st.full {
		return fmt.Errorf("%w: cursor %d outside [0, %d]", ErrCorruptChain, st.cursor, st.full)
	}

	used := 0
	seen := make(map[K]slotIndex, s.size)
	for i := range st.full {
		idx := slotIndex(i)
		e := &st.slots[i]
		switch e.state {
		case slotFree:
			if e.next != noSlot || e.prev != noSlot {
				return fmt.Errorf("%w: free slot %d carries links", ErrCorruptChain, i)
			}
			continue
		case slotUsed:
		default:
			return fmt.Errorf("%w: slot %d is %s", ErrCorruptChain, i, e.state)
		}
		used++
		if j, dup := seen[e.key]; dup {
			return fmt.Errorf("%w: key %v in slots %d and %d", ErrCorruptChain, e.key, j, i)
		}
		seen[e.key] = idx
		if embeddedHash && e.getHash() != s.hash(e.key) {
			return fmt.Errorf("%w: slot %d caches a stale hash for %v", ErrCorruptChain, i, e.key)
		}
		if err := st.checkLink(idx, e.next, true); err != nil {
			return err
		}
		if err := st.checkLink(idx, e.prev, false); err != nil {
			return err
		}
		if e.prev == noSlot && st.home(s.hash(e.key)) != idx {
			return fmt.Errorf("%w: chain head %d is not the home of %v", ErrCorruptChain, i, e.key)
		}
	}
	if used != s.size {
		return fmt.Errorf("%w: %d used slots, size %d", ErrCorruptChain, used, s.size)
	}

	// With mirrored links every slot has at most one predecessor, so a
	// cycle is exactly a set of used slots no head can reach.
	reached := 0
	for i := range st.full {
		e := &st.slots[i]
		if e.state != slotUsed || e.prev != noSlot {
			continue
		}
		for j := slotIndex(i); j != noSlot; j = st.slots[j].next {
			if reached++; reached > used {
				return corruptCycle(j)
			}
		}
	}
	if reached != used {
		return fmt.Errorf("%w: %d of %d used slots unreachable from a chain head",
			ErrCorruptChain, used-reached, used)
	}

	for k, i := range seen {
		if j, ok := st.find(k, s.hash(k)); !ok || j != i {
			return fmt.Errorf("%w: key %v in slot %d is not reachable from its home", ErrCorruptChain, k, i)
		}
	}
	return nil
}

// checkLink verifies that the next (or prev) link of slot i is absent or
// points at a used slot whose opposite link points back at i.
func (st *slotStore[K]) checkLink(i, link slotIndex, next bool) error {
	if link == noSlot {
		return nil
	}
	name := "prev"
	if next {
		name = "next"
	}
	if link < 0 || int(link) >= st.full {
		return fmt.Errorf("%w: slot %d has %s link %d outside the store", ErrCorruptChain, i, name, link)
	}
	if link == i {
		return fmt.Errorf("%w: slot %d links to itself", ErrCorruptChain, i)
	}
	o := &st.slots[link]
	if o.state != slotUsed {
		return fmt.Errorf("%w: slot %d has %s link to %s slot %d", ErrCorruptChain, i, name, o.state, link)
	}
	back := o.prev
	if !next {
		back = o.next
	}
	if back != i {
		return fmt.Errorf("%w: slot %d %s link to %d is not mirrored", ErrCorruptChain, i, name, link)
	}
	return nil
}
