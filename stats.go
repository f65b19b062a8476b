package cset

import (
	"bufio"
	"fmt"
	"io"
	"strings"

	"github.com/sugawarayuuta/sonnet"
)

// Stats returns statistics for the Set. It walks every chain, so it is an
// O(N) operation meant for diagnostics.
func (s *Set[K]) Stats() SetStats {
	stats := SetStats{
		Size:          s.size,
		PrimarySlots:  s.store.primary,
		CellarSlots:   s.store.full - s.store.primary,
		MaxLoadFactor: s.maxLoadFactor,
		Cursor:        s.store.cursor,
		TotalGrowths:  s.totalGrowths,
		Relocations:   s.relocations,
		Resplices:     s.resplices,
	}
	if s.store.primary > 0 {
		stats.LoadFactor = float64(s.size) / float64(s.store.primary)
	}
	slots := s.store.slots
	for i := 0; i < s.store.full; i++ {
		e := &slots[i]
		if e.state != slotUsed {
			continue
		}
		if i < s.store.primary {
			stats.UsedPrimary++
		} else {
			stats.UsedCellar++
		}
		if e.prev != noSlot {
			continue
		}
		stats.Chains++
		n := 1
		for j := e.next; j != noSlot && n <= s.store.full; j = slots[j].next {
			n++
		}
		stats.LongestChain = max(stats.LongestChain, n)
	}
	return stats
}

// SetStats is Set statistics.
//
// Warning: set statistics are intended to be used for diagnostic purposes,
// not for production code. Fields may change between minor releases.
type SetStats struct {
	// Size is the number of keys in the set.
	Size int
	// PrimarySlots is the size of the hash-addressed region.
	PrimarySlots int
	// CellarSlots is the size of the overflow region.
	CellarSlots int
	// UsedPrimary is the number of occupied primary slots.
	UsedPrimary int
	// UsedCellar is the number of occupied cellar slots.
	UsedCellar int
	// Chains is the number of chain heads.
	Chains int
	// LongestChain is the length of the longest chain.
	LongestChain int
	// LoadFactor is Size/PrimarySlots.
	LoadFactor float64
	// MaxLoadFactor is the ceiling that triggers growth.
	MaxLoadFactor float64
	// Cursor is the position of the overflow probe cursor.
	Cursor int
	// TotalGrowths is the number of times the set grew.
	TotalGrowths uint32
	// Relocations is the number of keys moved back to their home slot
	// while repairing a chain after an erase.
	Relocations uint64
	// Resplices is the number of keys relinked to another chain while
	// repairing a chain after an erase.
	Resplices uint64
}

// ToString returns string representation of set stats.
func (s *SetStats) ToString() string {
	var sb strings.Builder
	sb.WriteString("SetStats{\n")
	sb.WriteString(fmt.Sprintf("Size:          %d\n", s.Size))
	sb.WriteString(fmt.Sprintf("PrimarySlots:  %d\n", s.PrimarySlots))
	sb.WriteString(fmt.Sprintf("CellarSlots:   %d\n", s.CellarSlots))
	sb.WriteString(fmt.Sprintf("UsedPrimary:   %d\n", s.UsedPrimary))
	sb.WriteString(fmt.Sprintf("UsedCellar:    %d\n", s.UsedCellar))
	sb.WriteString(fmt.Sprintf("Chains:        %d\n", s.Chains))
	sb.WriteString(fmt.Sprintf("LongestChain:  %d\n", s.LongestChain))
	sb.WriteString(fmt.Sprintf("LoadFactor:    %.4f\n", s.LoadFactor))
	sb.WriteString(fmt.Sprintf("MaxLoadFactor: %.4f\n", s.MaxLoadFactor))
	sb.WriteString(fmt.Sprintf("Cursor:        %d\n", s.Cursor))
	sb.WriteString(fmt.Sprintf("TotalGrowths:  %d\n", s.TotalGrowths))
	sb.WriteString(fmt.Sprintf("Relocations:   %d\n", s.Relocations))
	sb.WriteString(fmt.Sprintf("Resplices:     %d\n", s.Resplices))
	sb.WriteString("}\n")
	return sb.String()
}

// String implement the formatting output interface fmt.Stringer
func (s *Set[K]) String() string {
	const limit = 1024
	var sb strings.Builder
	sb.WriteString("Set[")
	n := 0
	for k := range s.All() {
		if n == limit {
			sb.WriteString(" ...")
			break
		}
		if n > 0 {
			sb.WriteByte(' ')
		}
		fmt.Fprint(&sb, k)
		n++
	}
	sb.WriteByte(']')
	return sb.String()
}

// Dump writes one line per slot, sentinel included, after a header with the
// set's sizes and probe cursor. Free slots print as "--free", the sentinel
// as "--END", and used slots as "key, next: n, prev: p" with "-" for a
// missing link.
func (s *Set[K]) Dump(w io.Writer) error {
	bw := bufio.NewWriter(w)
	fmt.Fprintf(bw, "size = %d primary = %d full = %d cursor = %d\n",
		s.size, s.store.primary, s.store.full, s.store.cursor)
	for i := range s.store.slots {
		e := &s.store.slots[i]
		fmt.Fprintf(bw, "%d: ", i)
		switch e.state {
		case slotFree:
			bw.WriteString("--free")
		case slotUsed:
			fmt.Fprintf(bw, "%v, next: %s, prev: %s", e.key, e.next, e.prev)
		case slotEnd:
			bw.WriteString("--END")
		default:
			bw.WriteString("--" + e.state.String())
		}
		bw.WriteByte('\n')
	}
	return bw.Flush()
}

func (i slotIndex) String() string {
	if i == noSlot {
		return "-"
	}
	return fmt.Sprint(int32(i))
}

var (
	jsonMarshal   func(v any) ([]byte, error)    = sonnet.Marshal
	jsonUnmarshal func(data []byte, v any) error = sonnet.Unmarshal
)

// SetDefaultJSONMarshal sets the default JSON serialization and
// deserialization functions. Passing nil restores the built-in codec.
func SetDefaultJSONMarshal(marshal func(v any) ([]byte, error), unmarshal func(data []byte, v any) error) {
	if marshal == nil {
		marshal = sonnet.Marshal
	}
	if unmarshal == nil {
		unmarshal = sonnet.Unmarshal
	}
	jsonMarshal, jsonUnmarshal = marshal, unmarshal
}

// MarshalJSON encodes the set as a JSON array of keys in slot order.
func (s *Set[K]) MarshalJSON() ([]byte, error) {
	return jsonMarshal(s.Keys())
}

// UnmarshalJSON decodes a JSON array of keys and inserts them into the set.
// Keys already present are kept.
func (s *Set[K]) UnmarshalJSON(data []byte) error {
	var keys []K
	if err := jsonUnmarshal(data, &keys); err != nil {
		return err
	}
	s.Reserve(s.size + len(keys))
	s.InsertAll(keys...)
	return nil
}
