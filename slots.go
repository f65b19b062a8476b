package cset

import (
	"fmt"
	"math"
)

// slotState is the tri-state status of a slot.
type slotState uint8

const (
	slotFree slotState = iota
	slotUsed
	slotEnd // sentinel, exactly one per store, always the last slot
)

func (st slotState) String() string {
	switch st {
	case slotFree:
		return "free"
	case slotUsed:
		return "used"
	case slotEnd:
		return "end"
	default:
		return fmt.Sprintf("slotState(%d)", uint8(st))
	}
}

// slotIndex is a position in the slot array. Chains link slots by index,
// never by pointer, so a store can be moved or swapped without fixing up
// its links.
type slotIndex int32

// noSlot marks an absent next/prev link.
const noSlot slotIndex = -1

// maxSlots bounds full+1 so every position fits in a slotIndex.
const maxSlots = math.MaxInt32

// slotStore owns the slot array of a set: primary slots [0, primary), the
// cellar [primary, full), and the sentinel at full.
type slotStore[K comparable] struct {
	slots   []slot[K]
	primary int
	full    int
	// cursor is the probe cursor for overflow placement. It counts down
	// from full and wraps modulo full.
	cursor int
}

func corruptCycle(i slotIndex) error {
	return fmt.Errorf("%w: cycle through slot %d", ErrCorruptChain, i)
}

func fullSize(primary int, cellarRatio float64) int {
	return primary + int(float64(primary)*cellarRatio)
}

func newSlotStore[K comparable](primary int, cellarRatio float64) slotStore[K] {
	if primary <= 0 || primary >= maxSlots {
		panic(fmt.Errorf("%w: %d primary slots", ErrTooLarge, primary))
	}
	full := fullSize(primary, cellarRatio)
	if full >= maxSlots {
		panic(fmt.Errorf("%w: %d slots", ErrTooLarge, full))
	}
	slots := make([]slot[K], full+1)
	for i := range slots {
		slots[i].next, slots[i].prev = noSlot, noSlot
	}
	slots[full].state = slotEnd
	return slotStore[K]{
		slots:   slots,
		primary: primary,
		full:    full,
		cursor:  full,
	}
}

// home maps a hash into the primary region. It never selects a cellar slot.
//
//go:nosplit
func (st *slotStore[K]) home(hash uintptr) slotIndex {
	return slotIndex(uint(hash) % uint(st.primary))
}

// probe draws the next overflow candidate: (--cursor) mod full.
func (st *slotStore[K]) probe() slotIndex {
	st.cursor--
	if st.cursor < 0 {
		st.cursor = st.full - 1
	}
	return slotIndex(st.cursor)
}

func (st *slotStore[K]) occupy(i slotIndex, key K, hash uintptr, prev slotIndex) {
	e := &st.slots[i]
	*e = slot[K]{key: key, next: noSlot, prev: prev, state: slotUsed}
	e.setHash(hash)
}

func (st *slotStore[K]) release(i slotIndex) {
	st.slots[i] = slot[K]{next: noSlot, prev: noSlot, state: slotFree}
}

// tail returns the last slot of the chain that passes through i.
func (st *slotStore[K]) tail(i slotIndex) slotIndex {
	for steps := 0; ; steps++ {
		next := st.slots[i].next
		if next == noSlot {
			return i
		}
		if steps > st.full {
			panic(corruptCycle(i))
		}
		i = next
	}
}

// insertNew places a key that is known to be absent. A free home slot
// becomes the head of a new chain; otherwise the key goes to the first free
// slot drawn from the probe cursor and is linked behind the chain's tail.
func (st *slotStore[K]) insertNew(key K, hash uintptr) slotIndex {
	idx := st.home(hash)
	if st.slots[idx].state == slotFree {
		st.occupy(idx, key, hash, noSlot)
		return idx
	}

	last := st.tail(idx)
	for range st.full {
		i := st.probe()
		if st.slots[i].state == slotFree {
			st.occupy(i, key, hash, last)
			st.slots[last].next = i
			return i
		}
	}
	panic(fmt.Errorf("%w: no free slot among %d", ErrCorruptChain, st.full))
}

// find walks the chain from the key's home slot.
func (st *slotStore[K]) find(key K, hash uintptr) (slotIndex, bool) {
	i := st.home(hash)
	if st.slots[i].state == slotFree {
		return noSlot, false
	}
	for steps := 0; ; steps++ {
		e := &st.slots[i]
		if e.state != slotUsed {
			panic(fmt.Errorf("%w: chain reached %s slot %d", ErrCorruptChain, e.state, i))
		}
		if (!embeddedHash || e.getHash() == hash) && e.key == key {
			return i, true
		}
		if e.next == noSlot {
			return noSlot, false
		}
		if steps > st.full {
			panic(corruptCycle(i))
		}
		i = e.next
	}
}
