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

package mdl

import "github.com/cockroachdb/localhash"

// KeyDuration looks up the ticket held on a key for a duration.
type KeyDuration struct {
	Key      *Key
	Duration Duration
}

// KeyType looks up the ticket held on a key in a lock mode.
type KeyType struct {
	Key  *Key
	Type Type
}

// byDuration indexes tickets by key and duration. Elements are ticket
// pointers, nil being the empty slot.
type byDuration struct{}

func (byDuration) Key(e *Ticket) localhash.Hasher { return e.key }
func (byDuration) EraseKey(d *Ticket) localhash.Hasher { return d.key }
func (byDuration) IsEmpty(e *Ticket) bool { return e == nil }
func (byDuration) MatchErase(e, d *Ticket) bool { return e == d }
func (byDuration) Clear(e **Ticket) { *e = nil }

func (byDuration) Match(e *Ticket, f KeyDuration) bool {
	return e.duration == f.Duration && e.key.Equal(f.Key)
}

// typeEntry is stored by value in the type index. The key and type are
// copied out of the ticket so that lookups do not dereference it.
type typeEntry struct {
	key    *Key
	typ    Type
	ticket *Ticket
}

// byType indexes tickets by key and lock mode. An entry with a nil key is
// the empty slot.
type byType struct{}

func (byType) Key(e typeEntry) localhash.Hasher { return e.key }
func (byType) EraseKey(d *Ticket) localhash.Hasher { return d.key }
func (byType) IsEmpty(e typeEntry) bool { return e.key == nil }
func (byType) MatchErase(e typeEntry, d *Ticket) bool { return e.ticket == d }
func (byType) Clear(e *typeEntry) { *e = typeEntry{} }

func (byType) Match(e typeEntry, f KeyType) bool {
	return e.typ == f.Type && e.key.Equal(f.Key)
}

type (
	durationIndex = localhash.Hybrid[*Ticket, KeyDuration, *Ticket, byDuration]
	typeIndex     = localhash.Hybrid[typeEntry, KeyType, *Ticket, byType]
)
