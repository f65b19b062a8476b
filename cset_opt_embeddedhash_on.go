//go:build cset_opt_embeddedhash

package cset

const embeddedHash = true

// slot is one fixed-layout cell of the store. key and hash are only
// meaningful while state is slotUsed; release zeroes them.
type slot[K comparable] struct {
	key   K
	hash  uintptr
	next  slotIndex
	prev  slotIndex
	state slotState
}

//go:nosplit
func (e *slot[K]) getHash() uintptr {
	return e.hash
}

//go:nosplit
func (e *slot[K]) setHash(h uintptr) {
	e.hash = h
}
