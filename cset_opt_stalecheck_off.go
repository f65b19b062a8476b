//go:build cset_opt_nostalecheck

package cset

const checkStale = false
