package cset

import "errors"

// Sentinel errors used by cset.
//
// Normal outcomes (a missing key, a duplicate insert) are reported through
// return values and never through these errors. The sentinels describe
// programming errors and internal faults; operations that hit one panic with
// an error wrapping it, so callers recovering from the panic can use
// [errors.Is]:
//
//	defer func() {
//	    if err, ok := recover().(error); ok && errors.Is(err, cset.ErrStaleIterator) {
//	        // ...
//	    }
//	}()
var (
	// ErrCorruptChain indicates a chain walk met a slot that is not in use,
	// a cycle, or a dangling link. The table is no longer trustworthy.
	ErrCorruptChain = errors.New("cset: corrupt chain")

	// ErrStaleIterator indicates an iterator was used after the set
	// relocated its keys (rehash, erase or clear).
	ErrStaleIterator = errors.New("cset: stale iterator")

	// ErrEndIterator indicates Key was called on the end position.
	ErrEndIterator = errors.New("cset: dereference of end iterator")

	// ErrTooLarge indicates the requested capacity cannot be indexed.
	ErrTooLarge = errors.New("cset: capacity too large")
)
