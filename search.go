package star

import (
	"bytes"
	"sort"
	"strings"
)

// Search scans the entries in slot order and returns the index of the
// first whose logical name equals name. ok is false when nothing
// matches. Unfilled slots are skipped; no ordering of any kind is
// assumed.
func (a *Archive) Search(name string) (int, bool) {
	for i := range a.entries {
		e := &a.entries[i]
		if !e.filled() {
			continue
		}
		if e.PathLen()-1 != uint64(len(name)) {
			continue
		}
		if string(logicalName(*e)) == name {
			return i, true
		}
	}
	return 0, false
}

// ComparePaths orders two logical names first by length, then
// lexicographically for equal lengths. Among names sharing a common
// non-numeric prefix this sorts multi-digit numeric suffixes the way
// a directory listing reads ("file2" before "file10"). The comparison
// is on raw lengths and bytes, never on parsed numeric values, so
// different representations of the same number ("1" vs "01") do not
// order numerically.
//
// This is the ordering Sorted.Search requires, and the one a caller
// uses to normalize shell-expanded input lists before building an
// archive it intends to binary-search.
func ComparePaths(a, b string) int {
	if d := len(a) - len(b); d != 0 {
		return d
	}
	return strings.Compare(a, b)
}

// comparePathBytes is ComparePaths over raw stored-name bytes.
func comparePathBytes(a, b []byte) int {
	if d := len(a) - len(b); d != 0 {
		return d
	}
	return bytes.Compare(a, b)
}

// Sorted is a view of an archive whose entries the caller asserts are
// already ordered by ComparePaths on their logical names.
//
// Nothing in the package establishes or checks that ordering: AddFile
// installs entries wherever the caller says and Read preserves stream
// order. Taking a Sorted view of an unsorted archive makes Search
// unreliable — it may miss entries that are present. It never returns
// the index of a non-matching entry and never reads out of bounds.
// Entries are deliberately not sorted in place, since reordering
// would change the archive's observable layout when written.
type Sorted struct {
	a *Archive
}

// AssumeSorted asserts that the entries are ordered by ComparePaths
// and returns a view offering binary-search lookup. The assertion is
// the caller's alone; see Sorted.
func (a *Archive) AssumeSorted() Sorted {
	return Sorted{a: a}
}

// Search binary-searches for the entry whose logical name equals
// name. ok is false when nothing matches. The result is only
// meaningful when the archive satisfies the Sorted precondition.
func (s Sorted) Search(name string) (int, bool) {
	entries := s.a.entries
	key := []byte(name)

	i := sort.Search(len(entries), func(i int) bool {
		return comparePathBytes(logicalName(entries[i]), key) >= 0
	})
	if i < len(entries) && bytes.Equal(logicalName(entries[i]), key) {
		return i, true
	}
	return 0, false
}
