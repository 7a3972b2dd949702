// Copyright 2024 pmatkit. All rights reserved.
// Use of this source code is governed by Apache v2 license
// license that can be found in the LICENSE file.

package pmat

import (
	"fmt"
	"sort"

	"github.com/pmatkit/pmat/log"
)

// BlessedKey identifies a blessed-type statistics bucket: the
// underlying SV type plus the class it was blessed into, so the
// reporter can render rows like "ARRAY(Foo::Bar)" rather than collapsing
// every blessed object under its class name alone.
type BlessedKey struct {
	Type SVType
	Name string
}

// Stats tallies object counts and byte sizes, split by plain type and by
// blessed class name.
type Stats struct {
	CountByType map[SVType]uint64
	SizeByType  map[SVType]uint64

	CountByBlessedType map[BlessedKey]uint64
	SizeByBlessedType  map[BlessedKey]uint64
}

func newStats() Stats {
	return Stats{
		CountByType:        make(map[SVType]uint64),
		SizeByType:         make(map[SVType]uint64),
		CountByBlessedType: make(map[BlessedKey]uint64),
		SizeByBlessedType:  make(map[BlessedKey]uint64),
	}
}

// ObjectTable interns every decoded SV by its original address, tracks
// per-type statistics, and defers blessed-class resolution for STASH
// objects that haven't been seen yet.
type ObjectTable struct {
	byAddr map[uint64]*SV
	stats  Stats

	// blessedPending maps a not-yet-interned STASH address to the
	// addresses of objects blessed into it, in arrival order.
	blessedPending map[uint64][]uint64

	warnings int
	log      *log.Helper
}

func newObjectTable(logger *log.Helper) *ObjectTable {
	return &ObjectTable{
		byAddr:         make(map[uint64]*SV),
		stats:          newStats(),
		blessedPending: make(map[uint64][]uint64),
		log:            logger,
	}
}

// Warnings returns the number of non-fatal conditions logged so far
// (duplicate addresses, dangling blessed references, fixup
// inconsistencies).
func (t *ObjectTable) Warnings() int { return t.warnings }

// Stats returns the current accumulated statistics.
func (t *ObjectTable) Stats() Stats { return t.stats }

// Contains reports whether address is currently interned.
func (t *ObjectTable) Contains(addr uint64) bool {
	_, ok := t.byAddr[addr]
	return ok
}

// Get looks up an interned object by address.
func (t *ObjectTable) Get(addr uint64) (*SV, error) {
	sv, ok := t.byAddr[addr]
	if !ok {
		return nil, fmt.Errorf("%w: %#x", ErrNotFound, addr)
	}
	return sv, nil
}

// Len returns the number of interned objects.
func (t *ObjectTable) Len() int { return len(t.byAddr) }

// Iter calls fn for every interned object. Iteration order is
// unspecified.
func (t *ObjectTable) Iter(fn func(*SV)) {
	for _, sv := range t.byAddr {
		fn(sv)
	}
}

// Add interns sv. sv.Type must not be SVEnd or SVUnknown. A duplicate
// address is logged and ignored rather than treated as fatal.
func (t *ObjectTable) Add(sv *SV) {
	if sv.Type == SVEnd || sv.Type == SVUnknown {
		panic(fmt.Sprintf("pmat: Add called with sentinel type %s", sv.Type))
	}
	if t.Contains(sv.Address) {
		t.warnings++
		if t.log != nil {
			t.log.Warnf("duplicate address %#x for %s, ignoring", sv.Address, sv.Type)
		}
		return
	}
	t.byAddr[sv.Address] = sv

	if sv.Blessed == 0 {
		t.stats.CountByType[sv.Type]++
		t.stats.SizeByType[sv.Type] += sv.Size
	} else {
		t.updateBlessed(sv)
	}

	if sv.Type == SVStash {
		t.resolvePending(sv.Address)
	}
}

// updateBlessed resolves sv's blessed stash name into the blessed-type
// stats if the stash is already interned, or defers it otherwise.
func (t *ObjectTable) updateBlessed(sv *SV) {
	stash, ok := t.byAddr[sv.Blessed]
	if !ok {
		t.blessedPending[sv.Blessed] = append(t.blessedPending[sv.Blessed], sv.Address)
		return
	}
	name := "?"
	if stash.Stash != nil {
		name = stash.Stash.Name
	}
	key := BlessedKey{Type: sv.Type, Name: name}
	t.stats.CountByBlessedType[key]++
	t.stats.SizeByBlessedType[key] += sv.Size
}

// resolvePending re-runs updateBlessed for every object that was blessed
// into the stash just interned at addr.
func (t *ObjectTable) resolvePending(addr uint64) {
	pending, ok := t.blessedPending[addr]
	if !ok {
		return
	}
	delete(t.blessedPending, addr)
	for _, pendingAddr := range pending {
		sv, ok := t.byAddr[pendingAddr]
		if !ok || sv.Blessed != addr {
			t.warnings++
			if t.log != nil {
				t.log.Warnf("dangling blessed reference for pending address %#x against stash %#x", pendingAddr, addr)
			}
			continue
		}
		t.updateBlessed(sv)
	}
}

// Replace swaps the interned object at old.Address for new, preserving
// the address key, and adjusts the counts/sizes so the stats reflect
// new's tag instead of old's: the plain-type buckets for an unblessed
// object, the blessed-type buckets for one whose stash is interned. It is
// used exclusively by Fixup, which keeps the blessed pointer unchanged.
func (t *ObjectTable) Replace(old, new *SV) {
	if old.Address != new.Address {
		panic("pmat: Replace address mismatch")
	}
	if old.Blessed == 0 {
		t.stats.CountByType[old.Type]--
		t.stats.SizeByType[old.Type] -= old.Size
	} else if stash, ok := t.byAddr[old.Blessed]; ok {
		name := "?"
		if stash.Stash != nil {
			name = stash.Stash.Name
		}
		oldKey := BlessedKey{Type: old.Type, Name: name}
		newKey := BlessedKey{Type: new.Type, Name: name}
		t.stats.CountByBlessedType[oldKey]--
		t.stats.SizeByBlessedType[oldKey] -= old.Size
		t.stats.CountByBlessedType[newKey]++
		t.stats.SizeByBlessedType[newKey] += new.Size
	}
	t.byAddr[new.Address] = new
	if new.Blessed == 0 {
		t.stats.CountByType[new.Type]++
		t.stats.SizeByType[new.Type] += new.Size
	}
}

// Finish asserts blessedPending is empty (logging and discarding any
// stragglers) and runs the fixup pass.
func (t *ObjectTable) Finish() {
	if len(t.blessedPending) > 0 {
		t.warnings += len(t.blessedPending)
		if t.log != nil {
			addrs := make([]uint64, 0, len(t.blessedPending))
			for a := range t.blessedPending {
				addrs = append(addrs, a)
			}
			sort.Slice(addrs, func(i, j int) bool { return addrs[i] < addrs[j] })
			for _, a := range addrs {
				t.log.Warnf("dangling blessed reference: stash %#x never interned, %d pending objects discarded", a, len(t.blessedPending[a]))
			}
		}
		t.blessedPending = make(map[uint64][]uint64)
	}
	t.runFixup()
}
