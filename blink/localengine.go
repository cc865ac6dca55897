// Copyright 2025 Mulga Defense Corporation (MDC). All rights reserved.
// Use of this source code is governed by an Apache 2.0 license
// that can be found in the LICENSE file.

package blink

import "unsafe"

// localEngine is the single-owner bump allocator shared by LocalArena and
// LocalProxy: both are "a chunkList plus a delegate", differing only in
// what the delegate does when the list is exhausted (ask the host
// allocator, or lease a sub-chunk from a parent SyncArena).
type localEngine struct {
	list chunkList
}

func newLocalEngine(delegate Delegate, initialSize, maxSize int) localEngine {
	return localEngine{list: newChunkList(delegate, initialSize, maxSize)}
}

func (e *localEngine) allocate(layout Layout) (unsafe.Pointer, error) {
	if !layout.valid() {
		return nil, &AllocationError{Op: "allocate", Layout: layout, Err: ErrInvalidAlignment}
	}

	if layout.Size == 0 {
		if e.list.current == nil {
			// No chunk yet: fall back to the alignment-as-sentinel
			// address the contract allows for a zero-length handle.
			return unsafe.Pointer(uintptr(layout.Align)), nil
		}
		ptr, _ := bumpAllocate(e.list.current, 0, layout.Align)
		return ptr, nil
	}

	if e.list.current != nil {
		if ptr, ok := bumpAllocate(e.list.current, layout.Size, layout.Align); ok {
			return ptr, nil
		}
	}

	if err := e.list.acquireFor(layout.Size, layout.Align); err != nil {
		return nil, err
	}

	ptr, ok := bumpAllocate(e.list.current, layout.Size, layout.Align)
	if !ok {
		return nil, &AllocationError{Op: "allocate", Layout: layout, Err: ErrOutOfMemory}
	}
	return ptr, nil
}

func (e *localEngine) deallocate(ptr unsafe.Pointer, layout Layout) {
	c := e.list.current
	if c == nil || layout.Size == 0 {
		return
	}
	if isAtTip(c, ptr, layout.Size) {
		c.cursor = int(uintptr(ptr) - uintptr(c.base()))
	}
}

func (e *localEngine) grow(ptr unsafe.Pointer, oldLayout, newLayout Layout) (unsafe.Pointer, error) {
	oldChunk := e.list.current
	wasAtTip := oldChunk != nil && isAtTip(oldChunk, ptr, oldLayout.Size)

	if oldChunk != nil {
		if p, ok := bumpGrowInPlace(oldChunk, ptr, oldLayout.Size, newLayout); ok {
			return p, nil
		}
	}

	// The fast path declined (not at tip, incompatible alignment, or no
	// room left) even though ptr's space is free. Reclaim it before
	// asking for the fallback allocation, not after: e.allocate below may
	// bump oldChunk's own cursor past this freed space, and rolling the
	// cursor back afterward would forget that new allocation ever
	// happened, letting a later bump overwrite the bytes just copied.
	if wasAtTip {
		oldChunk.cursor = int(uintptr(ptr) - uintptr(oldChunk.base()))
	}

	newPtr, err := e.allocate(newLayout)
	if err != nil {
		return nil, err
	}
	if oldLayout.Size > 0 {
		copy(unsafe.Slice((*byte)(newPtr), newLayout.Size), unsafe.Slice((*byte)(ptr), oldLayout.Size))
	}
	return newPtr, nil
}

func (e *localEngine) shrink(ptr unsafe.Pointer, oldLayout, newLayout Layout) unsafe.Pointer {
	c := e.list.current
	if c == nil {
		return ptr
	}
	return bumpShrink(c, ptr, oldLayout.Size, newLayout)
}
