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

package tablecache

import (
	"fmt"
	"testing"

	"github.com/cespare/xxhash/v2"
	"github.com/stretchr/testify/require"
)

func TestKey(t *testing.T) {
	k := NewKey("test", "t1")
	require.Equal(t, "test", k.DB())
	require.Equal(t, "t1", k.Table())
	require.Equal(t, "test.t1", k.String())
	require.Equal(t, xxhash.Sum64String("test\x00t1\x00"), k.Hash())

	require.True(t, k.equal(NewKey("test", "t1")))
	require.False(t, k.equal(NewKey("test", "T1")))
	require.False(t, k.equal(NewKey("tes", "tt1")))
}

func TestTableRef(t *testing.T) {
	r := NewTableRef("test", "t1", "")
	require.Equal(t, "t1", r.Alias)
	require.Equal(t, "test.t1", r.String())

	r = NewTableRef("test", "t1", "a")
	require.Equal(t, "test.t1 AS a", r.String())
	require.Equal(t, NewKey("test", "t1"), r.Key())
}

func TestIndex(t *testing.T) {
	var x Index
	_, ok := x.Find("test", "t1")
	require.False(t, ok)
	require.False(t, x.Add(nil))
	require.False(t, x.Remove(nil))

	a := NewTableRef("test", "t1", "a")
	b := NewTableRef("test", "t1", "b")
	require.True(t, x.Add(a))
	require.False(t, x.Add(a))
	require.True(t, x.Add(b))
	require.Equal(t, 2, x.Len())

	r, ok := x.Find("test", "t1")
	require.True(t, ok)
	require.Contains(t, []*TableRef{a, b}, r)

	require.True(t, x.Remove(a))
	require.False(t, x.Remove(a))
	r, ok = x.Find("test", "t1")
	require.True(t, ok)
	require.Same(t, b, r)

	require.True(t, x.Remove(b))
	_, ok = x.Find("test", "t1")
	require.False(t, ok)
	require.Equal(t, 0, x.Len())
}

func TestIndexMany(t *testing.T) {
	var x Index
	const count = 100
	refs := make([]*TableRef, count)
	for i := range refs {
		refs[i] = NewTableRef(fmt.Sprintf("db%d", i%4), fmt.Sprintf("t%d", i), "")
		require.True(t, x.Add(refs[i]))
	}
	require.Equal(t, count, x.Len())

	for i, ref := range refs {
		r, ok := x.Find(fmt.Sprintf("db%d", i%4), fmt.Sprintf("t%d", i))
		require.True(t, ok)
		require.Same(t, ref, r)
	}
	_, ok := x.Find("db1", "t0")
	require.False(t, ok)

	seen := make(map[*TableRef]bool)
	x.All(func(ref *TableRef) bool {
		seen[ref] = true
		return true
	})
	require.Len(t, seen, count)

	for i := 0; i < count; i += 2 {
		require.True(t, x.Remove(refs[i]))
	}
	require.Equal(t, count/2, x.Len())
	for i, ref := range refs {
		r, ok := x.Find(ref.Key().DB(), ref.Key().Table())
		require.Equal(t, i%2 == 1, ok)
		if ok {
			require.Same(t, ref, r)
		}
	}

	x.Clear()
	require.Equal(t, 0, x.Len())
	require.True(t, x.Add(refs[0]))
	require.Equal(t, 1, x.Len())
}
