// Copyright 2025 Mulga Defense Corporation (MDC). All rights reserved.
// Use of this source code is governed by an Apache 2.0 license
// that can be found in the LICENSE file.

// Package blink implements a family of bump (blink) allocators: linear
// arena allocators that service requests by advancing a cursor inside a
// pre-acquired memory chunk and release every outstanding allocation in
// bulk via Reset.
package blink

import "unsafe"

// Layout describes the size and alignment of a requested region. Align
// must be a power of two; Size may be zero.
type Layout struct {
	Size  int
	Align int
}

// valid reports whether l.Align is a positive power of two.
func (l Layout) valid() bool {
	return l.Align > 0 && l.Align&(l.Align-1) == 0
}

// Allocator is the contract LocalArena and LocalProxy implement; SyncArena
// provides only its Allocate method. It is the only surface external
// collaborators (container types, the process-wide default-allocator
// registration) are expected to consume.
type Allocator interface {
	// Allocate returns an address satisfying layout.Align with at least
	// layout.Size usable bytes, or an error if the request cannot be
	// serviced.
	Allocate(layout Layout) (unsafe.Pointer, error)

	// Deallocate is infallible and may be a no-op; it only reclaims space
	// when ptr sits at the tip of the current chunk.
	Deallocate(ptr unsafe.Pointer, layout Layout)

	// Grow returns an address with at least newLayout.Size bytes, the
	// first oldLayout.Size of which equal the bytes at ptr.
	Grow(ptr unsafe.Pointer, oldLayout, newLayout Layout) (unsafe.Pointer, error)

	// Shrink returns an address with at least newLayout.Size bytes,
	// preserving the first newLayout.Size bytes at ptr. It is infallible
	// whenever newLayout.Align <= oldLayout.Align.
	Shrink(ptr unsafe.Pointer, oldLayout, newLayout Layout) unsafe.Pointer
}
