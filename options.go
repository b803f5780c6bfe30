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

import "math/bits"

// config holds the settings applied by options when a Table is created.
type config[E any] struct {
	allocator   Allocator[E]
	minCapacity uint64
}

func makeConfig[E any](options []option[E]) config[E] {
	c := config[E]{
		allocator:   defaultAllocator[E]{},
		minCapacity: minCapacity,
	}
	for _, op := range options {
		op.apply(&c)
	}
	return c
}

// option provide an interface to do work on a Table while it is being
// created.
type option[E any] interface {
	apply(c *config[E])
}

// Allocator specifies an interface for allocating and releasing the slot
// arrays used by a Table. The default allocator utilizes Go's builtin make()
// and allows the GC to reclaim memory.
//
// Alloc is expected to panic if memory cannot be obtained. A Table never
// modifies its state before an allocation succeeds, so a recovered panic
// leaves the table intact.
//
// If the allocator is manually managing memory and requires that slots be
// freed then Table.Close must be called in order to ensure Free is called
// for the final slot array.
type Allocator[E any] interface {
	// Alloc should return a slice equivalent to make([]E, n).
	Alloc(n int) []E

	// Free can optionally release the memory associated with the supplied
	// slice that is guaranteed to have been allocated by Alloc. The table
	// only holds handles to elements, so Free must not release the objects
	// the elements refer to.
	Free(v []E)
}

type defaultAllocator[E any] struct{}

func (defaultAllocator[E]) Alloc(n int) []E {
	return make([]E, n)
}

func (defaultAllocator[E]) Free(v []E) {
}

type allocatorOption[E any] struct {
	allocator Allocator[E]
}

func (op allocatorOption[E]) apply(c *config[E]) {
	c.allocator = op.allocator
}

// WithAllocator is an option to specify the Allocator to use for a Table.
func WithAllocator[E any](allocator Allocator[E]) option[E] {
	return allocatorOption[E]{allocator}
}

type minCapacityOption[E any] struct {
	capacity int
}

func (op minCapacityOption[E]) apply(c *config[E]) {
	if op.capacity > minCapacity {
		// The smallest value of the form 2^k-1 that is >= capacity.
		c.minCapacity = (uint64(1) << bits.Len(uint(op.capacity))) - 1
	}
}

// WithMinCapacity is an option to specify the capacity a Table starts with.
// The table never shrinks below it and Clear returns to it. The capacity is
// rounded up to the next value of the form 2^k-1 and is never less than 3.
func WithMinCapacity[E any](capacity int) option[E] {
	return minCapacityOption[E]{capacity}
}
