package cset

import (
	"fmt"
	"iter"
	"math"
	"math/rand/v2"
	"unsafe"
)

const (
	// defaultMinCapacity is the smallest primary region a set is built with.
	defaultMinCapacity = 23
	// defaultMaxLoadFactor bounds Len()/primary. Growth happens before an
	// insertion would exceed it.
	defaultMaxLoadFactor = 0.7
	// defaultCellarRatio sizes the cellar as a fraction of the primary
	// region: full = primary + floor(primary*cellarRatio).
	defaultCellarRatio = 0.1628
)

// Set is a hash set that resolves collisions with coalesced hashing.
//
// All keys live in one contiguous slot array. The first part of the array,
// the primary region, is addressed by hash; the remainder, the cellar, is
// only reachable by following chain links. When a key's home slot is taken,
// the key is stored in a free slot drawn from a probe cursor that walks down
// from the top of the cellar, and linked to the end of the home slot's chain.
// Chains may merge ("coalesce") when an overflow key lands in another key's
// home slot.
//
// Key features:
//   - Zero value is ready to use
//   - Index-linked chains: the whole store can be swapped or rebuilt without
//     pointer fix-ups
//   - Deletion repairs the chain behind the removed key instead of leaving
//     tombstones, so lookups never pay for past deletes
//   - Growth is a single synchronous rehash into a larger store
//
// A Set is not safe for concurrent use. Rehash, Erase, Clear and Swap move
// keys between slots and invalidate outstanding iterators; using one
// afterwards panics with ErrStaleIterator.
type Set[K comparable] struct {
	//lint:ignore U1000 prevents false sharing
	pad [(CacheLineSize - unsafe.Sizeof(struct {
		slots         []byte
		primary       int
		full          int
		cursor        int
		size          int
		gen           uint64
		seed          uintptr
		keyHash       func()
		minCapacity   int
		maxLoadFactor float64
		cellarRatio   float64
		pending       []slotIndex
		totalGrowths  uint32
		relocations   uint64
		resplices     uint64
	}{})%CacheLineSize) % CacheLineSize]byte

	store         slotStore[K]
	size          int
	gen           uint64 // bumped whenever keys may have moved
	seed          uintptr
	keyHash       hashFunc[K]
	minCapacity   int     // WithMinCapacity
	maxLoadFactor float64 // WithMaxLoadFactor
	cellarRatio   float64 // WithCellarRatio
	pending       []slotIndex
	totalGrowths  uint32
	relocations   uint64
	resplices     uint64
}

// SetConfig defines configurable Set options.
type SetConfig struct {
	sizeHint      int
	minCapacity   int
	maxLoadFactor float64
	cellarRatio   float64
	cellarSet     bool
}

// WithPresize configures a new Set with capacity enough to hold sizeHint
// keys without growing. If sizeHint is zero or negative, the value is
// ignored.
func WithPresize(sizeHint int) func(*SetConfig) {
	return func(c *SetConfig) {
		c.sizeHint = sizeHint
	}
}

// WithMinCapacity sets the smallest primary region size. Clear shrinks the
// set back to it. Values below 1 are ignored.
func WithMinCapacity(slots int) func(*SetConfig) {
	return func(c *SetConfig) {
		c.minCapacity = slots
	}
}

// WithMaxLoadFactor sets the load ceiling Len()/primary that triggers
// growth. Values outside (0, 1] are ignored.
func WithMaxLoadFactor(f float64) func(*SetConfig) {
	return func(c *SetConfig) {
		c.maxLoadFactor = f
	}
}

// WithCellarRatio sets the cellar size as a fraction of the primary region.
// Values outside [0, 1] are ignored.
func WithCellarRatio(r float64) func(*SetConfig) {
	return func(c *SetConfig) {
		c.cellarRatio = r
		c.cellarSet = true
	}
}

// New creates a new Set. The zero Set is also ready to use with the
// default configuration.
func New[K comparable](options ...func(*SetConfig)) *Set[K] {
	return NewWithHasher[K](nil, options...)
}

// NewWithHasher creates a Set with a custom key hash function.
// A nil keyHash selects the built-in hasher. keyHash must return equal
// hashes for equal keys; seed is a per-set random value it may mix in.
func NewWithHasher[K comparable](
	keyHash func(key K, seed uintptr) uintptr,
	options ...func(*SetConfig),
) *Set[K] {
	s := &Set[K]{}
	s.Init(keyHash, options...)
	return s
}

// Of creates a Set holding keys. Duplicates are stored once.
func Of[K comparable](keys ...K) *Set[K] {
	s := New[K](WithPresize(len(keys)))
	s.InsertAll(keys...)
	return s
}

// Collect creates a Set from the keys yielded by seq.
func Collect[K comparable](seq iter.Seq[K], options ...func(*SetConfig)) *Set[K] {
	s := New[K](options...)
	s.InsertSeq(seq)
	return s
}

// Init initializes the Set with a custom hasher and options, dropping any
// keys it held.
//
// Notes:
//   - If this function is not called, the Set uses the default configuration.
func (s *Set[K]) Init(
	keyHash func(key K, seed uintptr) uintptr,
	options ...func(*SetConfig),
) {
	var cfg SetConfig
	for _, o := range options {
		o(&cfg)
	}

	s.minCapacity = defaultMinCapacity
	if cfg.minCapacity > 0 {
		s.minCapacity = cfg.minCapacity
	}
	s.maxLoadFactor = defaultMaxLoadFactor
	if cfg.maxLoadFactor > 0 && cfg.maxLoadFactor <= 1 {
		s.maxLoadFactor = cfg.maxLoadFactor
	}
	s.cellarRatio = defaultCellarRatio
	if cfg.cellarSet && cfg.cellarRatio >= 0 && cfg.cellarRatio <= 1 {
		s.cellarRatio = cfg.cellarRatio
	}

	s.seed = uintptr(rand.Uint64())
	if keyHash != nil {
		s.keyHash = keyHash
	} else {
		s.keyHash = defaultHasher[K]()
	}

	s.size = 0
	s.totalGrowths, s.relocations, s.resplices = 0, 0, 0
	s.store = slotStore[K]{}
	s.gen++
	s.rehash(s.primaryFor(max(cfg.sizeHint, 0)))
}

func (s *Set[K]) lazyInit() {
	if s.store.slots == nil {
		s.Init(nil)
	}
}

func (s *Set[K]) hash(key K) uintptr {
	return s.keyHash(key, s.seed)
}

// slotHash returns the hash of a used slot's key, reading the cached copy
// when slots embed it.
func (s *Set[K]) slotHash(e *slot[K]) uintptr {
	if embeddedHash {
		return e.getHash()
	}
	return s.hash(e.key)
}

// primaryFor returns the smallest primary size that holds n keys under the
// load ceiling.
func (s *Set[K]) primaryFor(n int) int {
	return int(math.Ceil(float64(n) / s.maxLoadFactor))
}

// overLoad reports whether n keys exceed the ceiling of a primary region.
func (s *Set[K]) overLoad(n, primary int) bool {
	return float64(n) > float64(primary)*s.maxLoadFactor
}

// growTarget returns the primary size needed for n keys, following
// p = p*2+1 from the current size, and whether growth is needed at all.
func (s *Set[K]) growTarget(n int) (int, bool) {
	p := s.store.primary
	if !s.overLoad(n, p) {
		return p, false
	}
	for s.overLoad(n, p) {
		if p > maxSlots/2 {
			panic(fmt.Errorf("%w: %d keys", ErrTooLarge, n))
		}
		p = p*2 + 1
	}
	return p, true
}

// reserve grows the set before n keys would exceed the load ceiling.
func (s *Set[K]) reserve(n int) {
	if p, ok := s.growTarget(n); ok {
		s.rehash(p)
		s.totalGrowths++
	}
}

// rehash rebuilds the set in a fresh store with at least n primary slots.
// Keys are re-inserted in the old store's physical order; the old store is
// dropped only after the new one is fully populated.
func (s *Set[K]) rehash(n int) {
	primary := max(s.minCapacity, n, s.primaryFor(s.size))
	old := s.store
	next := newSlotStore[K](primary, s.cellarRatio)
	for i := 0; i < old.full; i++ {
		if e := &old.slots[i]; e.state == slotUsed {
			next.insertNew(e.key, s.slotHash(e))
		}
	}
	s.store = next
	s.gen++
}

// Reserve grows the set so that it holds n keys without further growth.
func (s *Set[K]) Reserve(n int) {
	s.lazyInit()
	s.reserve(n)
}

// Len returns the number of keys in the set. This is an O(1) operation.
func (s *Set[K]) Len() int {
	return s.size
}

// IsZero reports whether the set is empty.
func (s *Set[K]) IsZero() bool {
	return s.size == 0
}

// Count returns 1 if key is in the set and 0 otherwise.
func (s *Set[K]) Count(key K) int {
	if s.Contains(key) {
		return 1
	}
	return 0
}

// Contains reports whether key is in the set.
func (s *Set[K]) Contains(key K) bool {
	if s.size == 0 {
		return false
	}
	_, ok := s.store.find(key, s.hash(key))
	return ok
}

// Find returns an iterator positioned at key, or End() if key is absent.
func (s *Set[K]) Find(key K) Iterator[K] {
	s.lazyInit()
	if i, ok := s.store.find(key, s.hash(key)); ok {
		return s.iterAt(i)
	}
	return s.End()
}

// Insert adds key to the set. It returns an iterator positioned at key and
// whether the key was added; if key was already present the set is left
// unchanged.
func (s *Set[K]) Insert(key K) (Iterator[K], bool) {
	s.lazyInit()
	h := s.hash(key)
	if i, ok := s.store.find(key, h); ok {
		return s.iterAt(i), false
	}
	s.reserve(s.size + 1)
	i := s.store.insertNew(key, h)
	s.size++
	return s.iterAt(i), true
}

// Add adds key to the set and reports whether it was absent.
func (s *Set[K]) Add(key K) bool {
	_, ok := s.Insert(key)
	return ok
}

// InsertAll inserts keys in order, skipping those already present, and
// returns the number of keys added.
func (s *Set[K]) InsertAll(keys ...K) int {
	added := 0
	for _, k := range keys {
		if _, ok := s.Insert(k); ok {
			added++
		}
	}
	return added
}

// InsertSeq inserts every key yielded by seq and returns the number of keys
// added.
func (s *Set[K]) InsertSeq(seq iter.Seq[K]) int {
	added := 0
	for k := range seq {
		if _, ok := s.Insert(k); ok {
			added++
		}
	}
	return added
}

// Erase removes key and returns the number of keys removed (0 or 1).
func (s *Set[K]) Erase(key K) int {
	if s.erase(key) {
		return 1
	}
	return 0
}

// Delete removes key and reports whether it was present.
func (s *Set[K]) Delete(key K) bool {
	return s.erase(key)
}

// Clear removes all keys and shrinks the set to its minimum capacity.
func (s *Set[K]) Clear() {
	s.lazyInit()
	s.size = 0
	s.store = newSlotStore[K](s.minCapacity, s.cellarRatio)
	s.gen++
}

// Swap exchanges the contents of s and other in O(1).
func (s *Set[K]) Swap(other *Set[K]) {
	if s == other {
		return
	}
	s.store, other.store = other.store, s.store
	s.size, other.size = other.size, s.size
	s.seed, other.seed = other.seed, s.seed
	s.keyHash, other.keyHash = other.keyHash, s.keyHash
	s.minCapacity, other.minCapacity = other.minCapacity, s.minCapacity
	s.maxLoadFactor, other.maxLoadFactor = other.maxLoadFactor, s.maxLoadFactor
	s.cellarRatio, other.cellarRatio = other.cellarRatio, s.cellarRatio
	s.totalGrowths, other.totalGrowths = other.totalGrowths, s.totalGrowths
	s.relocations, other.relocations = other.relocations, s.relocations
	s.resplices, other.resplices = other.resplices, s.resplices
	gen := max(s.gen, other.gen) + 1
	s.gen, other.gen = gen, gen
}

// Clone returns an independent copy of the set with the same configuration
// and hasher.
func (s *Set[K]) Clone() *Set[K] {
	s.lazyInit()
	c := s.emptyLike()
	if p, ok := c.growTarget(s.size); ok {
		c.store = newSlotStore[K](p, c.cellarRatio)
	}
	for i := 0; i < s.store.full; i++ {
		if e := &s.store.slots[i]; e.state == slotUsed {
			c.store.insertNew(e.key, s.slotHash(e))
		}
	}
	c.size = s.size
	return c
}

// emptyLike returns an empty set sharing s's configuration and hasher.
func (s *Set[K]) emptyLike() *Set[K] {
	c := &Set[K]{
		seed:          s.seed,
		keyHash:       s.keyHash,
		minCapacity:   s.minCapacity,
		maxLoadFactor: s.maxLoadFactor,
		cellarRatio:   s.cellarRatio,
	}
	c.store = newSlotStore[K](c.minCapacity, c.cellarRatio)
	return c
}

// Assign replaces the contents of s with a copy of other.
func (s *Set[K]) Assign(other *Set[K]) {
	if s == other {
		return
	}
	s.Swap(other.Clone())
}

// Replace replaces the contents of s with keys, keeping s's configuration.
func (s *Set[K]) Replace(keys ...K) {
	s.lazyInit()
	tmp := s.emptyLike()
	tmp.InsertAll(keys...)
	s.Swap(tmp)
}

// Equal reports whether s and other hold the same keys.
func (s *Set[K]) Equal(other *Set[K]) bool {
	if s.size != other.size {
		return false
	}
	for k := range other.All() {
		if !s.Contains(k) {
			return false
		}
	}
	return true
}

// Keys returns the keys in slot order.
func (s *Set[K]) Keys() []K {
	keys := make([]K, 0, s.size)
	for k := range s.All() {
		keys = append(keys, k)
	}
	return keys
}
