//go:build !cset_opt_nostalecheck

package cset

// checkStale makes iterators verify the set's generation on every use and
// panic with ErrStaleIterator after the set has moved its keys.
// Build with `-tags cset_opt_nostalecheck` to drop the check.
const checkStale = true
