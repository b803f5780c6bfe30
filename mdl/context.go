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

import "fmt"

// Context is the set of metadata locks held by a single connection. It holds
// at most one ticket per key and duration and indexes its tickets twice: by
// key and duration, used when granting and releasing, and by key and lock
// mode.
//
// The zero value is an empty context. A Context is NOT goroutine-safe; it is
// only ever used by the connection that owns it.
type Context struct {
	durations durationIndex
	types     typeIndex
	counts    [numDurations]int
}

// Acquire returns the ticket for key held with duration d, creating it if
// the context does not hold one. Lock types are declared in order of
// increasing strength; a held ticket of a weaker type is upgraded to typ.
// The second result is true if a new ticket was created.
func (c *Context) Acquire(key *Key, typ Type, d Duration) (*Ticket, bool) {
	if t, ok := c.durations.Find(key, KeyDuration{Key: key, Duration: d}); ok {
		if typ > t.typ {
			c.checkIndex(c.types.Erase(t), "erase", t)
			t.typ = typ
			c.checkIndex(c.types.Insert(key, typeEntry{key: key, typ: typ, ticket: t}), "insert", t)
		}
		return t, false
	}

	t := &Ticket{key: key, typ: typ, duration: d}
	c.durations.Insert(key, t)
	c.types.Insert(key, typeEntry{key: key, typ: typ, ticket: t})
	c.counts[d]++
	return t, true
}

// FindByDuration returns the ticket held on key for duration d.
func (c *Context) FindByDuration(key *Key, d Duration) (*Ticket, bool) {
	return c.durations.Find(key, KeyDuration{Key: key, Duration: d})
}

// FindByType returns a ticket held on key in mode typ, whatever its
// duration.
func (c *Context) FindByType(key *Key, typ Type) (*Ticket, bool) {
	e, ok := c.types.Find(key, KeyType{Key: key, Type: typ})
	return e.ticket, ok
}

// Release drops t from the context. It reports false if t is not held by
// the context. The ticket itself is left intact.
func (c *Context) Release(t *Ticket) bool {
	if !c.durations.Erase(t) {
		return false
	}
	c.types.Erase(t)
	c.counts[t.duration]--
	return true
}

// SetDuration moves t to duration d. It reports false if t is not held by
// the context or the context already holds a ticket on t's key for d.
func (c *Context) SetDuration(t *Ticket, d Duration) bool {
	if held, ok := c.durations.Find(t.key, KeyDuration{Key: t.key, Duration: d}); ok {
		return held == t
	}
	if t.duration == d {
		return false
	}
	if !c.durations.Erase(t) {
		return false
	}
	c.counts[t.duration]--
	t.duration = d
	c.durations.Insert(t.key, t)
	c.counts[d]++
	return true
}

// ReleaseAll releases every ticket held for duration d and returns the
// number released.
func (c *Context) ReleaseAll(d Duration) int {
	if c.counts[d] == 0 {
		return 0
	}
	var tickets []*Ticket
	c.durations.All(func(t *Ticket) bool {
		if t.duration == d {
			tickets = append(tickets, t)
		}
		return true
	})
	for _, t := range tickets {
		c.Release(t)
	}
	return len(tickets)
}

// Reset drops every ticket.
func (c *Context) Reset() {
	c.durations.Clear()
	c.types.Clear()
	c.counts = [numDurations]int{}
}

// Len returns the number of tickets held.
func (c *Context) Len() int {
	return c.durations.Len()
}

// Count returns the number of tickets held for duration d.
func (c *Context) Count(d Duration) int {
	return c.counts[d]
}

// checkIndex panics in invariants builds if an update of the type index for t
// did not take effect, which means the two indexes have diverged.
func (c *Context) checkIndex(ok bool, op string, t *Ticket) {
	if invariants && !ok {
		panic(fmt.Sprintf("invariant failed: type index %s of %s had no effect: %d by duration, %d by type",
			op, t, c.durations.Len(), c.types.Len()))
	}
}

// HasLocks reports whether the context holds any ticket.
func (c *Context) HasLocks() bool {
	return c.durations.Len() > 0
}
