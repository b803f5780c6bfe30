// Copyright 2024 The Cockroach Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package localhash is an open-addressing hash table tuned for the small,
// constantly mutated lookup tables kept by a metadata lock context.
//
// # Layout
//
// A Table stores its elements directly in a slot array of length N where N is
// a power of 2. The table's capacity is kept as N-1 so that it can be used as
// a mask: hash&capacity is equivalent to hash%N. Collisions are resolved with
// linear probing: a probe for hash h visits h&capacity, (h+1)&capacity, and so
// on until it reaches either a matching element or an empty slot.
//
// # Policies
//
// The table does not know what it stores. A Policy supplies the hash key of
// an element, decides whether a slot is empty, clears slots, and compares an
// element against two key types: a lookup key used by Find and an erase key
// used by Erase. Elements are handles (pointers or small values); the table
// never owns the objects they refer to.
//
// # Deletion
//
// Lock tables are modified by every statement, so deletion must not leave
// tombstones that would later require compaction. Erase instead performs
// backward-shift deletion: after removing an element at slot i, the elements
// that follow it in the same cluster are examined in order and any element
// whose ideal slot is not within the circular interval (i, j] is moved back
// into the hole, which then advances to j. This maintains the invariant that
// every slot between an element's ideal slot and its actual slot is occupied,
// so a probe never stops short of its target.
//
// # Resizing
//
// The table grows to (capacity<<1)|1 before an insert would push the load
// factor above 1/2, and shrinks to capacity>>1 before an erase would drop it
// below 1/10. Both are full rehashes into a freshly allocated array which is
// populated before it replaces the old one.
//
// A Table is NOT goroutine-safe.
package localhash

import (
	"fmt"
	"math/bits"
	"strings"
)

const (
	debug = false

	// minPower2 is the smallest k for which 2^k-1 is a valid capacity.
	minPower2   = 2
	minCapacity = 1<<minPower2 - 1

	// The table grows when the load factor would exceed
	// maxLoadNum/maxLoadDen and shrinks when it would fall below
	// lowLoadNum/lowLoadDen.
	maxLoadNum, maxLoadDen = 1, 2
	lowLoadNum, lowLoadDen = 1, 10
)

// Hasher is implemented by keys passed to Insert, Find and Erase. Hash must
// be deterministic and stable for as long as an element hashed with it
// remains in a table.
type Hasher interface {
	Hash() uint64
}

// Policy describes how a Table stores elements of type E, looks them up by
// values of type F and erases them by values of type D.
type Policy[E comparable, F, D any] interface {
	// Key returns the key an element was inserted with. It is used to
	// recompute the ideal slot of an element during deletion and rehashing.
	Key(e E) Hasher
	// EraseKey returns the key whose hash locates the element matched by d.
	EraseKey(d D) Hasher
	// IsEmpty reports whether e is the empty value.
	IsEmpty(e E) bool
	// Match reports whether e is the element described by the lookup key f.
	Match(e E, f F) bool
	// MatchErase reports whether e is the element described by the erase
	// key d.
	MatchErase(e E, d D) bool
	// Clear resets e to the empty value.
	Clear(e *E)
}

// Table is an open-addressing hash table of elements of type E whose
// behavior is defined by the policy P. The zero value is not usable; use New.
type Table[E comparable, F, D any, P Policy[E, F, D]] struct {
	policy P
	// The allocator to use for the slots slice.
	allocator Allocator[E]
	// slots is capacity+1 in length.
	slots []E
	// The number of slots minus one (always 2^N-1). The capacity is used as a
	// mask to quickly compute i%N using a bitwise & operation.
	capacity uint64
	// The capacity the table starts with and never shrinks below.
	minCapacity uint64
	// The number of occupied slots.
	size int
}

// New constructs an empty table at the minimum capacity using the supplied
// policy.
func New[E comparable, F, D any, P Policy[E, F, D]](policy P, options ...option[E]) *Table[E, F, D, P] {
	c := makeConfig(options)
	t := &Table[E, F, D, P]{
		policy:      policy,
		allocator:   c.allocator,
		minCapacity: c.minCapacity,
	}
	t.slots = t.alloc(t.minCapacity)
	t.capacity = t.minCapacity
	t.checkInvariants()
	return t
}

// Close releases the slot array back to the configured allocator. It is
// unnecessary to close a table using the default allocator. It is invalid to
// use a Table after it has been closed, though Close itself is idempotent.
func (t *Table[E, F, D, P]) Close() {
	if t.slots != nil {
		t.allocator.Free(t.slots)
		t.slots = nil
	}
	t.capacity = 0
	t.size = 0
}

// Insert adds value to the table at the position derived from key. It
// returns false and leaves the table unchanged if value is already present in
// its probe sequence or if the policy considers value empty.
func (t *Table[E, F, D, P]) Insert(key Hasher, value E) bool {
	if t.policy.IsEmpty(value) {
		return false
	}
	h := key.Hash()
	if debug {
		fmt.Printf("insert(%v): hash=%016x capacity=%d\n", value, h, t.capacity)
	}

	for i := h & t.capacity; ; i = (i + 1) & t.capacity {
		e := t.slots[i]
		if t.policy.IsEmpty(e) {
			break
		}
		if e == value {
			if debug {
				fmt.Printf("insert(duplicate): index=%d\n", i)
			}
			return false
		}
	}

	// Grow before placing the element so that an empty slot is always
	// reachable from every probe start.
	if maxLoadDen*(t.size+1) > maxLoadNum*int(t.capacity+1) {
		t.resize((t.capacity << 1) | 1)
	}
	i := t.place(t.slots, t.capacity, h, value)
	t.size++
	if debug {
		fmt.Printf("insert(placed): index=%d size=%d\n", i, t.size)
	}
	t.checkInvariants()
	return true
}

// Find returns the element matching f in the probe sequence of key. It
// returns ok=false if there is no such element.
func (t *Table[E, F, D, P]) Find(key Hasher, f F) (e E, ok bool) {
	h := key.Hash()
	for i := h & t.capacity; ; i = (i + 1) & t.capacity {
		s := t.slots[i]
		if t.policy.IsEmpty(s) {
			if debug {
				fmt.Printf("find(not-found): hash=%016x index=%d\n", h, i)
			}
			return e, false
		}
		if t.policy.Match(s, f) {
			return s, true
		}
	}
}

// Erase removes the element matching d and reports whether one was removed.
// The table may shrink before the lookup even if nothing is removed.
func (t *Table[E, F, D, P]) Erase(d D) bool {
	if t.capacity > t.minCapacity && lowLoadDen*(t.size-1) < lowLoadNum*int(t.capacity+1) {
		t.resize(t.capacity >> 1)
	}

	mask := t.capacity
	h := t.policy.EraseKey(d).Hash()
	i := h & mask
	for ; ; i = (i + 1) & mask {
		e := t.slots[i]
		if t.policy.IsEmpty(e) {
			if debug {
				fmt.Printf("erase(not-found): hash=%016x index=%d\n", h, i)
			}
			t.checkInvariants()
			return false
		}
		if t.policy.MatchErase(e, d) {
			break
		}
	}
	if debug {
		fmt.Printf("erase: hash=%016x index=%d size=%d\n", h, i, t.size)
	}

	// Slot i is now a hole. Walk the rest of the cluster and pull back every
	// element that could not otherwise be reached across the hole.
	for j := (i + 1) & mask; !t.policy.IsEmpty(t.slots[j]); j = (j + 1) & mask {
		ideal := t.policy.Key(t.slots[j]).Hash() & mask
		if withinProbe(i, ideal, j, mask) {
			continue
		}
		if debug {
			fmt.Printf("erase(shift): %d -> %d ideal=%d\n", j, i, ideal)
		}
		t.slots[i] = t.slots[j]
		i = j
	}
	t.policy.Clear(&t.slots[i])
	t.size--
	t.checkInvariants()
	return true
}

// Clear removes all elements and resets the capacity to the minimum.
func (t *Table[E, F, D, P]) Clear() {
	if t.capacity == t.minCapacity {
		for i := range t.slots {
			t.policy.Clear(&t.slots[i])
		}
	} else {
		slots := t.alloc(t.minCapacity)
		t.allocator.Free(t.slots)
		t.slots = slots
		t.capacity = t.minCapacity
	}
	t.size = 0
	t.checkInvariants()
}

// Rehash rebuilds the table with the smallest capacity of the form 2^k-1 that
// is at least capacity, at least the minimum capacity, and large enough to
// hold the current elements without exceeding the maximum load factor.
func (t *Table[E, F, D, P]) Rehash(capacity int) {
	target := t.minCapacity
	if capacity > int(target) {
		// The smallest value of the form 2^k-1 that is >= capacity.
		target = (uint64(1) << bits.Len64(uint64(capacity))) - 1
	}
	for maxLoadDen*t.size > maxLoadNum*int(target+1) {
		target = target<<1 | 1
	}
	t.resize(target)
}

// All calls yield sequentially for each element present in the table, in no
// particular order. If yield returns false, iteration stops. The table can be
// mutated during iteration, though there is no guarantee that the mutations
// will be visible to the iteration.
func (t *Table[E, F, D, P]) All(yield func(e E) bool) {
	// Snapshot the slots so that iteration remains valid if the table is
	// resized during iteration.
	slots := t.slots
	for i := range slots {
		if e := slots[i]; !t.policy.IsEmpty(e) {
			if !yield(e) {
				return
			}
		}
	}
}

// Len returns the number of elements in the table.
func (t *Table[E, F, D, P]) Len() int {
	return t.size
}

// Capacity returns the table's capacity, which is one less than the length
// of the slot array.
func (t *Table[E, F, D, P]) Capacity() int {
	return int(t.capacity)
}

// alloc returns a slot array for the given capacity with every slot cleared
// by the policy.
func (t *Table[E, F, D, P]) alloc(capacity uint64) []E {
	slots := t.allocator.Alloc(int(capacity + 1))
	for i := range slots {
		t.policy.Clear(&slots[i])
	}
	return slots
}

// resize rehashes every element into a new slot array of the given capacity.
// The new array is fully populated before it replaces the old one, so a
// failed allocation leaves the table as it was.
func (t *Table[E, F, D, P]) resize(newCapacity uint64) {
	slots := t.alloc(newCapacity)
	for _, e := range t.slots {
		if t.policy.IsEmpty(e) {
			continue
		}
		t.place(slots, newCapacity, t.policy.Key(e).Hash(), e)
	}
	if debug {
		fmt.Printf("resize: capacity=%d->%d size=%d\n", t.capacity, newCapacity, t.size)
	}

	oldSlots := t.slots
	t.slots = slots
	t.capacity = newCapacity
	t.allocator.Free(oldSlots)
	t.checkInvariants()
}

// place stores e in the first empty slot of the probe sequence for h and
// returns its index. The caller guarantees that an empty slot exists.
func (t *Table[E, F, D, P]) place(slots []E, mask uint64, h uint64, e E) uint64 {
	i := h & mask
	for !t.policy.IsEmpty(slots[i]) {
		i = (i + 1) & mask
	}
	slots[i] = e
	return i
}

// withinProbe reports whether ideal lies in the circular interval (i, j] of a
// table with the given mask. An element at j whose ideal slot is in that
// interval stays reachable when slot i becomes empty.
func withinProbe(i, ideal, j, mask uint64) bool {
	d := (ideal - i) & mask
	return d != 0 && d <= (j-i)&mask
}

func (t *Table[E, F, D, P]) checkInvariants() {
	if invariants {
		if t.capacity < t.minCapacity || (t.capacity+1)&t.capacity != 0 {
			panic(fmt.Sprintf("invariant failed: capacity %d is not of the form 2^k-1 >= %d\n%s",
				t.capacity, t.minCapacity, t.debugString()))
		}
		if uint64(len(t.slots)) != t.capacity+1 {
			panic(fmt.Sprintf("invariant failed: %d slots for capacity %d\n%s",
				len(t.slots), t.capacity, t.debugString()))
		}

		// For every occupied slot, verify that no empty slot lies between its
		// ideal slot and its actual slot.
		var used int
		for j := uint64(0); j <= t.capacity; j++ {
			e := t.slots[j]
			if t.policy.IsEmpty(e) {
				continue
			}
			used++
			for i := t.policy.Key(e).Hash() & t.capacity; i != j; i = (i + 1) & t.capacity {
				if t.policy.IsEmpty(t.slots[i]) {
					panic(fmt.Sprintf("invariant failed: slot(%d): %v unreachable, empty slot %d\n%s",
						j, e, i, t.debugString()))
				}
			}
		}

		if used != t.size {
			panic(fmt.Sprintf("invariant failed: found %d used slots, but size is %d\n%s",
				used, t.size, t.debugString()))
		}
		if maxLoadDen*t.size > maxLoadNum*int(t.capacity+1) {
			panic(fmt.Sprintf("invariant failed: size %d exceeds maximum load of capacity %d\n%s",
				t.size, t.capacity, t.debugString()))
		}
	}
}

func (t *Table[E, F, D, P]) debugString() string {
	var buf strings.Builder
	fmt.Fprintf(&buf, "capacity=%d  size=%d\n", t.capacity, t.size)
	for i, e := range t.slots {
		if t.policy.IsEmpty(e) {
			fmt.Fprintf(&buf, "  %4d: empty\n", i)
			continue
		}
		h := t.policy.Key(e).Hash()
		fmt.Fprintf(&buf, "  %4d: %v [hash=%016x ideal=%d]\n", i, e, h, h&t.capacity)
	}
	return buf.String()
}
