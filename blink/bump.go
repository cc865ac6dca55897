// Copyright 2025 Mulga Defense Corporation (MDC). All rights reserved.
// Use of this source code is governed by an Apache 2.0 license
// that can be found in the LICENSE file.

package blink

import "unsafe"

// bumpAllocate tries to service (size, align) from c's tip. ok is false
// on exhaustion or on size-overflow after alignment, in which case the
// caller must rotate to a new chunk.
//
// Zero-size requests never touch the cursor: they return a non-null,
// suitably aligned sentinel derived from c's base, per the contract that
// a zero-length handle must still be distinguishable as valid.
func bumpAllocate(c *chunk, size, align int) (unsafe.Pointer, bool) {
	base := uintptr(c.base())
	if size == 0 {
		return unsafe.Pointer(alignUp(base, align)), true
	}

	aligned := alignUp(base+uintptr(c.cursor), align)
	if aligned < base+uintptr(c.cursor) {
		return nil, false // alignment overflowed uintptr
	}
	end := aligned + uintptr(size)
	if end < aligned {
		return nil, false // size overflowed uintptr
	}
	if end > base+uintptr(c.capacity()) {
		return nil, false
	}
	c.cursor = int(end - base)
	return unsafe.Pointer(aligned), true
}

// bumpShrink implements the shrink fast path: always succeeds at the same
// address, additionally rolling back the cursor when ptr is at the tip.
func bumpShrink(c *chunk, ptr unsafe.Pointer, oldSize int, newLayout Layout) unsafe.Pointer {
	if isAtTip(c, ptr, oldSize) {
		c.cursor = int(uintptr(ptr)-uintptr(c.base())) + newLayout.Size
	}
	return ptr
}

// bumpGrowInPlace implements the grow fast path: it succeeds only when
// ptr is at c's tip, satisfies newLayout.Align, and the grown region
// still fits within c's capacity.
func bumpGrowInPlace(c *chunk, ptr unsafe.Pointer, oldSize int, newLayout Layout) (unsafe.Pointer, bool) {
	if !isAtTip(c, ptr, oldSize) {
		return nil, false
	}
	if uintptr(ptr)%uintptr(newLayout.Align) != 0 {
		return nil, false
	}
	offset := uintptr(ptr) - uintptr(c.base())
	newEnd := offset + uintptr(newLayout.Size)
	if newEnd > uintptr(c.capacity()) {
		return nil, false
	}
	c.cursor = int(newEnd)
	return ptr, true
}
