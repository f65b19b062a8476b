package cset

import (
	"hash/maphash"
	"math/bits"
	"unsafe"

	"github.com/cespare/xxhash/v2"
)

// hashFunc maps a key and the per-set seed to a hash value.
type hashFunc[K comparable] func(key K, seed uintptr) uintptr

// processSeed backs the maphash fallback. It is fixed for the life of the
// process so that every set hashes an arbitrary comparable key the same way.
var processSeed = maphash.MakeSeed()

// defaultHasher picks the hash function for K.
//
// Integer keys hash to their own value, so consecutive integers fill
// consecutive home slots. String keys use xxhash, which is stable across
// processes and keeps Dump output reproducible. Every other comparable type
// falls back to maphash.Comparable.
//
// The default hashers ignore the seed; it is only passed through to custom
// hashers installed with NewWithHasher.
func defaultHasher[K comparable]() hashFunc[K] {
	switch any(*new(K)).(type) {
	case uint, int, uintptr:
		return func(key K, _ uintptr) uintptr {
			return *(*uintptr)(unsafe.Pointer(&key))
		}

	case uint64, int64:
		if bits.UintSize == 32 {
			return func(key K, _ uintptr) uintptr {
				v := *(*uint64)(unsafe.Pointer(&key))
				return uintptr(v) ^ uintptr(v>>32)
			}
		}
		return func(key K, _ uintptr) uintptr {
			return uintptr(*(*uint64)(unsafe.Pointer(&key)))
		}

	case uint32, int32:
		return func(key K, _ uintptr) uintptr {
			return uintptr(*(*uint32)(unsafe.Pointer(&key)))
		}

	case uint16, int16:
		return func(key K, _ uintptr) uintptr {
			return uintptr(*(*uint16)(unsafe.Pointer(&key)))
		}

	case uint8, int8:
		return func(key K, _ uintptr) uintptr {
			return uintptr(*(*uint8)(unsafe.Pointer(&key)))
		}

	case string:
		return func(key K, _ uintptr) uintptr {
			return fold64(xxhash.Sum64String(*(*string)(unsafe.Pointer(&key))))
		}

	default:
		return func(key K, _ uintptr) uintptr {
			return fold64(maphash.Comparable(processSeed, key))
		}
	}
}

// fold64 narrows a 64-bit hash to uintptr without dropping the high bits
// on 32-bit platforms.
func fold64(h uint64) uintptr {
	if bits.UintSize == 32 {
		return uintptr(h) ^ uintptr(h>>32)
	}
	return uintptr(h)
}
