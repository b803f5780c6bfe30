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

// Type is the mode in which a metadata lock is held.
type Type uint8

const (
	IntentionExclusive Type = iota
	Shared
	SharedHighPrio
	SharedRead
	SharedWrite
	SharedUpgradable
	SharedReadOnly
	SharedNoWrite
	SharedNoReadWrite
	Exclusive
	numTypes
)

var typeNames = [numTypes]string{
	IntentionExclusive: "MDL_INTENTION_EXCLUSIVE",
	Shared:             "MDL_SHARED",
	SharedHighPrio:     "MDL_SHARED_HIGH_PRIO",
	SharedRead:         "MDL_SHARED_READ",
	SharedWrite:        "MDL_SHARED_WRITE",
	SharedUpgradable:   "MDL_SHARED_UPGRADABLE",
	SharedReadOnly:     "MDL_SHARED_READ_ONLY",
	SharedNoWrite:      "MDL_SHARED_NO_WRITE",
	SharedNoReadWrite:  "MDL_SHARED_NO_READ_WRITE",
	Exclusive:          "MDL_EXCLUSIVE",
}

func (t Type) String() string {
	if t < numTypes {
		return typeNames[t]
	}
	return fmt.Sprintf("type(%d)", uint8(t))
}

// Duration is how long a lock is held before the context releases it.
type Duration uint8

const (
	// Statement locks are released at the end of the statement.
	Statement Duration = iota
	// Transaction locks are released at the end of the transaction.
	Transaction
	// Explicit locks are released by an explicit request.
	Explicit
	numDurations
)

func (d Duration) String() string {
	switch d {
	case Statement:
		return "MDL_STATEMENT"
	case Transaction:
		return "MDL_TRANSACTION"
	case Explicit:
		return "MDL_EXPLICIT"
	default:
		return fmt.Sprintf("duration(%d)", uint8(d))
	}
}

// Ticket records a granted lock: what it protects, in which mode and for how
// long. Tickets are owned by the Context that created them; the tables that
// index them only hold references.
type Ticket struct {
	key      *Key
	typ      Type
	duration Duration
}

// Key returns the key of the locked object.
func (t *Ticket) Key() *Key { return t.key }

// Type returns the lock mode.
func (t *Ticket) Type() Type { return t.typ }

// Duration returns the lock duration.
func (t *Ticket) Duration() Duration { return t.duration }

func (t *Ticket) String() string {
	return fmt.Sprintf("%s %s %s", t.key, t.typ, t.duration)
}
