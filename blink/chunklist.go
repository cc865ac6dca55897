// Copyright 2025 Mulga Defense Corporation (MDC). All rights reserved.
// Use of this source code is governed by an Apache 2.0 license
// that can be found in the LICENSE file.

package blink

import "github.com/outpostlabs/blinkarena/internal/sizeconv"

const (
	// defaultInitialChunkSize is the bootstrap capacity for a fresh
	// arena's first chunk.
	defaultInitialChunkSize = 4 * 1024

	// defaultMaxChunkSize caps geometric growth, kept safely below any
	// realistic delegate per-request limit.
	defaultMaxChunkSize = 2 << 30 // 2 GiB

	// headerSlack pads a newly sized chunk so the triggering request
	// plus its alignment fits comfortably on the first try.
	headerSlack = 64
)

// chunkList is the singly linked stack of chunks backing a single-owner
// engine (LocalArena or LocalProxy): at most one chunk is current, reset
// keeps the largest survivor, and drop returns everything to the delegate.
type chunkList struct {
	current      *chunk
	delegate     Delegate
	initialSize  int
	maxSize      int
	lastCapacity int // capacity of the most recently acquired chunk
}

func newChunkList(delegate Delegate, initialSize, maxSize int) chunkList {
	return chunkList{delegate: delegate, initialSize: initialSize, maxSize: maxSize}
}

// acquireFor requests a new chunk sized by the geometric growth policy
// for a request of (size, align), pushes it as current, and links the
// previous current chunk (if any) via prev.
func (l *chunkList) acquireFor(size, align int) error {
	layout := Layout{Size: size, Align: align}
	if sizeconv.AddOverflowsInt(size, align) || sizeconv.AddOverflowsInt(size+align, headerSlack) {
		return &AllocationError{Op: "acquireFor", Layout: layout, Err: ErrSizeOverflow}
	}
	need := size + align + headerSlack

	capacity := l.initialSize
	if l.lastCapacity > 0 {
		capacity = sizeconv.DoubleCapped(l.lastCapacity, l.maxSize)
	}
	if capacity < need {
		capacity = need
	}
	if capacity > l.maxSize {
		capacity = l.maxSize
	}
	// The slack is padding only: a capped chunk is still usable as long as
	// the request itself fits once aligned.
	if capacity < size+align {
		return &AllocationError{Op: "acquireFor", Layout: layout, Err: ErrOutOfMemory}
	}

	buf, err := l.delegate.AcquireChunk(capacity)
	if err != nil {
		return &AllocationError{Op: "acquireFor", Layout: layout, Err: err}
	}

	l.current = newChunk(buf, l.current)
	l.lastCapacity = capacity
	return nil
}

// reset locates the largest chunk in the list (ties broken toward the
// chunk nearest the top), frees every other chunk to the delegate, and
// promotes the survivor to current with its cursor cleared.
func (l *chunkList) reset() {
	if l.current == nil {
		return
	}

	var keep *chunk
	maxCap := -1
	for c := l.current; c != nil; c = c.prev {
		if c.capacity() > maxCap {
			maxCap = c.capacity()
			keep = c
		}
	}

	for c := l.current; c != nil; {
		next := c.prev
		if c != keep {
			l.delegate.ReleaseChunk(c.buf)
		}
		c = next
	}

	keep.cursor = 0
	keep.prev = nil
	l.current = keep
	l.lastCapacity = keep.capacity()
}

// drop frees every chunk in the list, leaving it empty.
func (l *chunkList) drop() {
	for c := l.current; c != nil; {
		next := c.prev
		l.delegate.ReleaseChunk(c.buf)
		c = next
	}
	l.current = nil
	l.lastCapacity = 0
}

// numChunks, capacity and sizeInUse support LocalArena/LocalProxy metrics.
func (l *chunkList) numChunks() int {
	n := 0
	for c := l.current; c != nil; c = c.prev {
		n++
	}
	return n
}

func (l *chunkList) capacity() int {
	total := 0
	for c := l.current; c != nil; c = c.prev {
		total += c.capacity()
	}
	return total
}

func (l *chunkList) sizeInUse() int {
	total := 0
	for c := l.current; c != nil; c = c.prev {
		total += c.cursor
	}
	return total
}
