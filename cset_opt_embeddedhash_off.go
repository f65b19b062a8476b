//go:build !cset_opt_embeddedhash

package cset

const embeddedHash = false

// slot is one fixed-layout cell of the store. key is only meaningful while
// state is slotUsed; release zeroes it.
type slot[K comparable] struct {
	key   K
	next  slotIndex
	prev  slotIndex
	state slotState
}

//go:nosplit
func (e *slot[K]) getHash() uintptr {
	return 0
}

//go:nosplit
func (e *slot[K]) setHash(h uintptr) {
}
