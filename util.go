package bsoncodec

import (
	"strconv"

	"golang.org/x/exp/constraints"
)

func Ptr[T any](v T) *T { return &v } // Ptr is a helper to take the address of a literal, handy for Config.

// fits reports whether v is representable by T without truncation or sign change.
func fits[T constraints.Integer](v int64) bool {
	t := T(v)
	return int64(t) == v && (t < 0) == (v < 0)
}

// smallIndex holds array keys for the common short-list case.
var smallIndex = func() (r [256]string) {
	for i := range r {
		r[i] = strconv.Itoa(i)
	}
	return r
}()

// indexKey returns the decimal string key of array element i.
func indexKey(i int) string {
	if i < len(smallIndex) {
		return smallIndex[i]
	}
	return strconv.Itoa(i)
}
