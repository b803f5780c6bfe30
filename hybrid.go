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

package localhash

import "fmt"

// inlineCapacity is the number of elements a Hybrid holds before it switches
// to a Table.
const inlineCapacity = 2

type mode uint8

const (
	modeInline mode = iota
	modeHashed
)

func (m mode) String() string {
	switch m {
	case modeInline:
		return "inline"
	case modeHashed:
		return "hashed"
	default:
		return fmt.Sprintf("mode(%d)", m)
	}
}

// Hybrid stores its first few elements in a small inline array searched
// linearly and moves them into a Table once that array overflows. Most lock
// contexts only ever hold one or two locks, and those never pay for a slot
// array.
//
// The zero value is ready to use if the zero value of P is a usable policy.
// Like Table, a Hybrid is NOT goroutine-safe.
type Hybrid[E comparable, F, D any, P Policy[E, F, D]] struct {
	policy  P
	options []option[E]
	mode    mode
	// inline[:n] holds the elements in modeInline.
	inline [inlineCapacity]E
	n      int
	// table holds the elements in modeHashed.
	table *Table[E, F, D, P]
}

// NewHybrid constructs an empty Hybrid in inline mode. The options are used
// to construct the Table when the inline array overflows.
func NewHybrid[E comparable, F, D any, P Policy[E, F, D]](policy P, options ...option[E]) *Hybrid[E, F, D, P] {
	return &Hybrid[E, F, D, P]{policy: policy, options: options}
}

// Insert adds value with the given key. It returns false if value is already
// present or is empty according to the policy.
func (h *Hybrid[E, F, D, P]) Insert(key Hasher, value E) bool {
	if h.mode == modeHashed {
		return h.table.Insert(key, value)
	}
	if h.policy.IsEmpty(value) {
		return false
	}
	for i := 0; i < h.n; i++ {
		if h.inline[i] == value {
			return false
		}
	}
	if h.n < inlineCapacity {
		h.inline[h.n] = value
		h.n++
		return true
	}

	if debug {
		fmt.Printf("hybrid: %s -> %s\n", modeInline, modeHashed)
	}
	t := New[E, F, D](h.policy, h.options...)
	for i := 0; i < h.n; i++ {
		t.Insert(h.policy.Key(h.inline[i]), h.inline[i])
		h.policy.Clear(&h.inline[i])
	}
	h.n = 0
	h.table = t
	h.mode = modeHashed
	return t.Insert(key, value)
}

// Find returns the element matching f. In inline mode the key is not
// consulted.
func (h *Hybrid[E, F, D, P]) Find(key Hasher, f F) (e E, ok bool) {
	if h.mode == modeHashed {
		return h.table.Find(key, f)
	}
	for i := 0; i < h.n; i++ {
		if h.policy.Match(h.inline[i], f) {
			return h.inline[i], true
		}
	}
	return e, false
}

// Erase removes the element matching d and reports whether one was removed.
func (h *Hybrid[E, F, D, P]) Erase(d D) bool {
	if h.mode == modeHashed {
		return h.table.Erase(d)
	}
	for i := 0; i < h.n; i++ {
		if h.policy.MatchErase(h.inline[i], d) {
			h.n--
			h.inline[i] = h.inline[h.n]
			h.policy.Clear(&h.inline[h.n])
			return true
		}
	}
	return false
}

// Clear removes all elements and returns the Hybrid to inline mode.
func (h *Hybrid[E, F, D, P]) Clear() {
	if h.mode == modeHashed {
		h.table.Close()
		h.table = nil
		h.mode = modeInline
	}
	for i := 0; i < h.n; i++ {
		h.policy.Clear(&h.inline[i])
	}
	h.n = 0
}

// All calls yield for each element, in no particular order, until yield
// returns false.
func (h *Hybrid[E, F, D, P]) All(yield func(e E) bool) {
	if h.mode == modeHashed {
		h.table.All(yield)
		return
	}
	inline, n := h.inline, h.n
	for i := 0; i < n; i++ {
		if !yield(inline[i]) {
			return
		}
	}
}

// Len returns the number of elements.
func (h *Hybrid[E, F, D, P]) Len() int {
	if h.mode == modeHashed {
		return h.table.Len()
	}
	return h.n
}

// Hashed reports whether the elements have moved to a Table.
func (h *Hybrid[E, F, D, P]) Hashed() bool {
	return h.mode == modeHashed
}
