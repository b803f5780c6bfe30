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

// Package mdl holds the metadata lock objects that a lock context indexes
// with localhash tables: lock keys, lock tickets and the per-connection
// Context that owns them.
package mdl

import (
	"bytes"
	"fmt"

	"github.com/cespare/xxhash/v2"
)

// Namespace is the kind of object a metadata lock protects.
type Namespace uint8

const (
	Backup Namespace = iota
	Schema
	Table
	Function
	Procedure
	PackageBody
	Trigger
	Event
	UserLock
	numNamespaces
)

var namespaceNames = [numNamespaces]string{
	Backup:      "BACKUP",
	Schema:      "SCHEMA",
	Table:       "TABLE",
	Function:    "FUNCTION",
	Procedure:   "PROCEDURE",
	PackageBody: "PACKAGE BODY",
	Trigger:     "TRIGGER",
	Event:       "EVENT",
	UserLock:    "USER LOCK",
}

func (ns Namespace) String() string {
	if ns < numNamespaces {
		return namespaceNames[ns]
	}
	return fmt.Sprintf("namespace(%d)", uint8(ns))
}

// Key identifies a lockable object by namespace, database and name. It is
// encoded once as
//
//	namespace byte | db | 0 | name | 0
//
// and the hash of that encoding is cached, so a Key is immutable after
// construction.
type Key struct {
	buf   []byte
	dbLen int
	hash  uint64
}

// NewKey returns the key for the object name in database db.
func NewKey(ns Namespace, db, name string) *Key {
	buf := make([]byte, 0, len(db)+len(name)+3)
	buf = append(buf, byte(ns))
	buf = append(buf, db...)
	buf = append(buf, 0)
	buf = append(buf, name...)
	buf = append(buf, 0)
	return &Key{
		buf:   buf,
		dbLen: len(db),
		hash:  xxhash.Sum64(buf),
	}
}

// Namespace returns the key's namespace.
func (k *Key) Namespace() Namespace {
	return Namespace(k.buf[0])
}

// DB returns the database name.
func (k *Key) DB() string {
	return string(k.buf[1 : 1+k.dbLen])
}

// Name returns the object name.
func (k *Key) Name() string {
	return string(k.buf[2+k.dbLen : len(k.buf)-1])
}

// Hash returns the hash of the key's encoding.
func (k *Key) Hash() uint64 {
	return k.hash
}

// Equal reports whether k and o identify the same object.
func (k *Key) Equal(o *Key) bool {
	if k == o {
		return true
	}
	if k == nil || o == nil {
		return false
	}
	return k.hash == o.hash && bytes.Equal(k.buf, o.buf)
}

func (k *Key) String() string {
	return fmt.Sprintf("%s %s.%s", k.Namespace(), k.DB(), k.Name())
}
