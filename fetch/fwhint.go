package fetch

import (
	"fmt"
	"slices"
	"sync/atomic"

	enc "github.com/named-data/ndnplay/std/encoding"
	"github.com/named-data/ndnplay/std/ndn"
)

// FwHintEntry maps a name prefix to a forwarding hint.
type FwHintEntry struct {
	Prefix enc.Name
	Hint   ndn.FwHint
}

// FwHintTable is a longest-prefix-match table of forwarding hints.
// Updates replace the whole table; readers see either the old or the new one.
type FwHintTable struct {
	entries atomic.Pointer[[]FwHintEntry]
}

func NewFwHintTable() *FwHintTable {
	t := &FwHintTable{}
	t.entries.Store(&[]FwHintEntry{})
	return t
}

// Update parses mapping (prefix URI -> comma separated delegations) and
// replaces the table. On error the table is left untouched.
func (t *FwHintTable) Update(mapping map[string]string) error {
	entries := make([]FwHintEntry, 0, len(mapping))
	seen := make(map[string]string, len(mapping))

	for prefixStr, hintStr := range mapping {
		prefix, err := enc.NameFromStr(prefixStr)
		if err != nil {
			return fmt.Errorf("%w: invalid prefix %q: %w", ErrConfig, prefixStr, err)
		}
		hint, err := ndn.FwHintFromStr(hintStr)
		if err != nil {
			return fmt.Errorf("%w: invalid forwarding hint %q for %s: %w", ErrConfig, hintStr, prefixStr, err)
		}

		key := prefix.String()
		if other, ok := seen[key]; ok {
			return fmt.Errorf("%w: duplicate prefix %s (%q and %q)", ErrConfig, key, other, prefixStr)
		}
		seen[key] = prefixStr

		entries = append(entries, FwHintEntry{Prefix: prefix, Hint: hint})
	}

	// longest prefix first, ties in canonical order
	slices.SortFunc(entries, func(a, b FwHintEntry) int {
		if len(a.Prefix) != len(b.Prefix) {
			return len(b.Prefix) - len(a.Prefix)
		}
		return a.Prefix.Compare(b.Prefix)
	})

	t.entries.Store(&entries)
	return nil
}

// Lookup returns the hint of the longest prefix of name.
func (t *FwHintTable) Lookup(name enc.Name) (ndn.FwHint, bool) {
	for _, entry := range *t.entries.Load() {
		if entry.Prefix.IsPrefix(name) {
			return entry.Hint, true
		}
	}
	return nil, false
}

// Entries returns the table in lookup order.
func (t *FwHintTable) Entries() []FwHintEntry {
	return *t.entries.Load()
}

func (t *FwHintTable) Len() int {
	return len(*t.entries.Load())
}
