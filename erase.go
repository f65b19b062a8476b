package cset

// erase removes key and repairs the chain that followed it.
//
// The slot of the removed key is freed and its predecessor becomes a chain
// tail. Every node that was linked behind the removed key is then detached
// and re-settled in its original chain order:
//
//   - If the node's home slot is free, the key moves there and starts a new
//     chain; its old slot is freed.
//   - If the node sits in its own home slot, it stays as a chain head.
//   - Otherwise the node stays where it is and is appended to the tail of the
//     chain that starts at its home slot.
//
// A node that is still waiting to be re-settled can become the tail that an
// earlier node is appended to. If that node later moves home, whatever was
// appended behind it is detached and re-settled again, so no key is ever left
// behind a freed slot.
func (s *Set[K]) erase(key K) bool {
	if s.size == 0 {
		return false
	}
	st := &s.store
	pos, ok := st.find(key, s.hash(key))
	if !ok {
		return false
	}

	succ, pred := st.slots[pos].next, st.slots[pos].prev
	st.release(pos)
	s.size--
	if pred != noSlot {
		st.slots[pred].next = noSlot
	}
	s.resettle(succ)

	// The next overflow placement rescans from the top of the cellar.
	st.cursor = st.full
	s.gen++
	return true
}

// resettle re-places the detached chain starting at head.
func (s *Set[K]) resettle(head slotIndex) {
	if head == noSlot {
		return
	}
	st := &s.store
	pending := st.detach(head, s.pending[:0])
	for n := 0; n < len(pending); n++ {
		i := pending[n]
		e := &st.slots[i]
		hash := s.slotHash(e)
		h := st.home(hash)
		switch {
		case st.slots[h].state == slotFree:
			st.occupy(h, e.key, hash, noSlot)
			behind := e.next
			st.release(i)
			s.relocations++
			if behind != noSlot {
				pending = st.detach(behind, pending)
			}
		case h == i:
			// Already at home; detach left it as a chain head.
		default:
			t := st.tail(h)
			st.slots[t].next = i
			e.prev = t
			s.resplices++
		}
	}
	s.pending = pending[:0]
}

// detach unlinks the chain starting at head, appending each node to buf in
// chain order. Every detached node ends up with no next and no prev link.
func (st *slotStore[K]) detach(head slotIndex, buf []slotIndex) []slotIndex {
	steps := 0
	for i := head; i != noSlot; steps++ {
		if steps > st.full {
			panic(corruptCycle(i))
		}
		e := &st.slots[i]
		next := e.next
		e.next, e.prev = noSlot, noSlot
		buf = append(buf, i)
		i = next
	}
	return buf
}
