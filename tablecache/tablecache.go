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

// Package tablecache indexes the tables a statement has opened by database
// and table name.
package tablecache

import (
	"fmt"

	"github.com/cespare/xxhash/v2"
	"github.com/cockroachdb/localhash"
)

// Key identifies a table by database and table name.
type Key struct {
	db, table string
	hash      uint64
}

// NewKey returns the key for table in db. Names are compared exactly.
func NewKey(db, table string) Key {
	d := xxhash.New()
	_, _ = d.WriteString(db)
	_, _ = d.Write([]byte{0})
	_, _ = d.WriteString(table)
	_, _ = d.Write([]byte{0})
	return Key{db: db, table: table, hash: d.Sum64()}
}

// DB returns the database name.
func (k Key) DB() string { return k.db }

// Table returns the table name.
func (k Key) Table() string { return k.table }

// Hash returns the xxhash of the database and table names.
func (k Key) Hash() uint64 { return k.hash }

func (k Key) String() string {
	return fmt.Sprintf("%s.%s", k.db, k.table)
}

func (k Key) equal(o Key) bool {
	return k.hash == o.hash && k.db == o.db && k.table == o.table
}

// TableRef is a single reference to a table within a statement. The same
// table may be referenced several times under different aliases.
type TableRef struct {
	key   Key
	Alias string
}

// NewTableRef returns a reference to table in db. An empty alias defaults to
// the table name.
func NewTableRef(db, table, alias string) *TableRef {
	if alias == "" {
		alias = table
	}
	return &TableRef{key: NewKey(db, table), Alias: alias}
}

// Key returns the key of the referenced table.
func (r *TableRef) Key() Key { return r.key }

func (r *TableRef) String() string {
	if r.Alias == r.key.table {
		return r.key.String()
	}
	return fmt.Sprintf("%s AS %s", r.key, r.Alias)
}

type policy struct{}

func (policy) Key(e *TableRef) localhash.Hasher { return e.key }
func (policy) EraseKey(d *TableRef) localhash.Hasher { return d.key }
func (policy) IsEmpty(e *TableRef) bool { return e == nil }
func (policy) Match(e *TableRef, f Key) bool { return e.key.equal(f) }
func (policy) MatchErase(e, d *TableRef) bool { return e == d }
func (policy) Clear(e **TableRef) { *e = nil }

// Index holds the table references of a statement. The zero value is an empty
// index. An Index is not goroutine-safe.
type Index struct {
	refs localhash.Hybrid[*TableRef, Key, *TableRef, policy]
}

// Add inserts ref. It returns false if ref is nil or already present.
func (x *Index) Add(ref *TableRef) bool {
	if ref == nil {
		return false
	}
	return x.refs.Insert(ref.key, ref)
}

// Find returns a reference to table in db. When the table is referenced more
// than once, which reference is returned is unspecified.
func (x *Index) Find(db, table string) (*TableRef, bool) {
	k := NewKey(db, table)
	return x.refs.Find(k, k)
}

// Remove drops ref and reports whether it was present.
func (x *Index) Remove(ref *TableRef) bool {
	if ref == nil {
		return false
	}
	return x.refs.Erase(ref)
}

// Clear drops every reference.
func (x *Index) Clear() {
	x.refs.Clear()
}

// Len returns the number of references.
func (x *Index) Len() int {
	return x.refs.Len()
}

// All calls yield for each reference until yield returns false.
func (x *Index) All(yield func(ref *TableRef) bool) {
	x.refs.All(yield)
}
