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

import (
	"testing"

	"github.com/stretchr/testify/require"
)

type testHybrid = Hybrid[*entry, int, *entry, entryPolicy]

func TestHybridZeroValue(t *testing.T) {
	var h testHybrid
	require.Equal(t, 0, h.Len())
	require.False(t, h.Hashed())

	e := &entry{key: 1, hash: 1}
	require.True(t, h.Insert(testKey(e.hash), e))
	v, ok := h.Find(testKey(e.hash), 1)
	require.True(t, ok)
	require.Same(t, e, v)
	require.True(t, h.Erase(e))
	require.Equal(t, 0, h.Len())
}

func TestHybridPromote(t *testing.T) {
	a := &countingAllocator[*entry]{}
	h := NewHybrid[*entry, int, *entry](entryPolicy{}, WithAllocator[*entry](a))

	entries := make([]*entry, 10)
	for i := range entries {
		entries[i] = &entry{key: i, hash: uint64(i), value: i}
	}

	for i, e := range entries[:inlineCapacity] {
		require.True(t, h.Insert(testKey(e.hash), e))
		require.False(t, h.Insert(testKey(e.hash), e))
		require.Equal(t, i+1, h.Len())
		require.False(t, h.Hashed())
	}
	require.Zero(t, a.alloc)

	require.True(t, h.Insert(testKey(entries[2].hash), entries[2]))
	require.True(t, h.Hashed())
	require.Equal(t, 3, h.Len())
	// The table starts at capacity 3 and grows to 7 for the third element.
	require.Equal(t, 2, a.alloc)
	require.Zero(t, h.n)
	require.Equal(t, [inlineCapacity]*entry{}, h.inline)

	for _, e := range entries[3:] {
		require.True(t, h.Insert(testKey(e.hash), e))
	}
	requireValid(t, h.table)

	var seen []*entry
	h.All(func(e *entry) bool {
		seen = append(seen, e)
		return true
	})
	require.ElementsMatch(t, entries, seen)

	for i, e := range entries {
		v, ok := h.Find(testKey(e.hash), i)
		require.True(t, ok)
		require.Same(t, e, v)
	}

	// Erasing down to a handful of elements keeps the table.
	for _, e := range entries[1:] {
		require.True(t, h.Erase(e))
	}
	require.True(t, h.Hashed())
	require.Equal(t, 1, h.Len())

	h.Clear()
	require.False(t, h.Hashed())
	require.Equal(t, 0, h.Len())
	require.Equal(t, a.alloc, a.free)
	_, ok := h.Find(testKey(0), 0)
	require.False(t, ok)
}

func TestHybridInline(t *testing.T) {
	var h testHybrid
	a := &entry{key: 1, hash: 1}
	b := &entry{key: 2, hash: 2}
	require.True(t, h.Insert(testKey(a.hash), a))
	require.True(t, h.Insert(testKey(b.hash), b))
	require.False(t, h.Insert(testKey(0), nil))

	// Erasing the first element moves the last one into its place.
	require.False(t, h.Erase(&entry{key: 1, hash: 1}))
	require.True(t, h.Erase(a))
	require.Equal(t, 1, h.Len())
	require.Same(t, b, h.inline[0])
	require.Nil(t, h.inline[1])

	_, ok := h.Find(testKey(a.hash), a.key)
	require.False(t, ok)
	v, ok := h.Find(testKey(b.hash), b.key)
	require.True(t, ok)
	require.Same(t, b, v)

	var n int
	h.All(func(e *entry) bool {
		n++
		return false
	})
	require.Equal(t, 1, n)

	h.Clear()
	require.Equal(t, 0, h.Len())
	require.Nil(t, h.inline[0])
}
