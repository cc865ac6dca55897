// Copyright 2025 Mulga Defense Corporation (MDC). All rights reserved.
// Use of this source code is governed by an Apache 2.0 license
// that can be found in the LICENSE file.

package blink

import (
	"sync"
	"sync/atomic"
	"unsafe"

	"github.com/outpostlabs/blinkarena/internal/sizeconv"
)

// syncChunk is a chunk whose cursor is advanced by compare-and-swap
// instead of plain addition, so many goroutines can race to extend it
// without a lock.
type syncChunk struct {
	buf    []byte
	cursor atomic.Uint64
	prev   *syncChunk
}

func (c *syncChunk) capacity() int { return len(c.buf) }

func (c *syncChunk) base() unsafe.Pointer {
	if len(c.buf) == 0 {
		return unsafe.Pointer(&c.buf)
	}
	return unsafe.Pointer(&c.buf[0])
}

// SyncArena is a shared bump allocator: many producers may allocate
// concurrently. The hot path is a compare-and-swap on the current
// chunk's cursor; rotating to a new chunk on exhaustion takes a mutex.
type SyncArena struct {
	rotateMu sync.Mutex

	current      atomic.Pointer[syncChunk]
	lastCapacity atomic.Int64
	generation   atomic.Uint64

	delegate    Delegate
	initialSize int
	maxSize     int
}

// NewSyncArena creates an empty SyncArena with the given configuration.
func NewSyncArena(cfg ArenaConfig) *SyncArena {
	cfg = cfg.normalize()
	return &SyncArena{
		delegate:    cfg.Delegate,
		initialSize: cfg.InitialChunkSize,
		maxSize:     cfg.MaxChunkSize,
	}
}

func (s *SyncArena) Allocate(layout Layout) (unsafe.Pointer, error) {
	if !layout.valid() {
		return nil, &AllocationError{Op: "allocate", Layout: layout, Err: ErrInvalidAlignment}
	}

	for {
		c := s.current.Load()
		if c == nil {
			if err := s.rotate(c, layout.Size, layout.Align); err != nil {
				return nil, err
			}
			continue
		}

		base := uintptr(c.base())
		if layout.Size == 0 {
			return unsafe.Pointer(alignUp(base, layout.Align)), nil
		}

		old := c.cursor.Load()
		aligned := alignUp(base+uintptr(old), layout.Align)
		end := aligned + uintptr(layout.Size)
		if end > base+uintptr(c.capacity()) {
			if err := s.rotate(c, layout.Size, layout.Align); err != nil {
				return nil, err
			}
			continue
		}

		newCursor := uint64(end - base)
		if c.cursor.CompareAndSwap(old, newCursor) {
			return unsafe.Pointer(aligned), nil
		}
		// Lost the race against another allocator; retry against the
		// (possibly still current) chunk.
	}
}

// rotate acquires a new chunk and publishes it as current, but only if
// observed is still the current chunk — the double-check under the
// rotation lock is essential, since another goroutine may have already
// rotated while this one was waiting on rotateMu.
func (s *SyncArena) rotate(observed *syncChunk, size, align int) error {
	s.rotateMu.Lock()
	defer s.rotateMu.Unlock()

	if s.current.Load() != observed {
		return nil
	}

	layout := Layout{Size: size, Align: align}
	if sizeconv.AddOverflowsInt(size, align) || sizeconv.AddOverflowsInt(size+align, headerSlack) {
		return &AllocationError{Op: "rotate", Layout: layout, Err: ErrSizeOverflow}
	}
	need := size + align + headerSlack

	capacity := s.initialSize
	if last := s.lastCapacity.Load(); last > 0 {
		capacity = sizeconv.DoubleCapped(sizeconv.SafeInt64ToInt(last), s.maxSize)
	}
	if capacity < need {
		capacity = need
	}
	if capacity > s.maxSize {
		capacity = s.maxSize
	}
	if capacity < need {
		return &AllocationError{Op: "rotate", Layout: layout, Err: ErrOutOfMemory}
	}

	buf, err := s.delegate.AcquireChunk(capacity)
	if err != nil {
		return &AllocationError{Op: "rotate", Layout: layout, Err: err}
	}

	next := &syncChunk{buf: buf, prev: observed}
	s.lastCapacity.Store(int64(capacity))
	s.current.Store(next)
	return nil
}

// lease reserves a contiguous, unaligned region of size bytes from the
// shared arena and hands it back as a byte slice — the mechanism a
// LocalProxy uses to pull a sub-chunk from its parent.
func (s *SyncArena) lease(size int) ([]byte, error) {
	ptr, err := s.Allocate(Layout{Size: size, Align: 1})
	if err != nil {
		return nil, err
	}
	return unsafe.Slice((*byte)(ptr), size), nil
}

// Reset requires exclusive access: no concurrent allocation may be in
// flight. It keeps the single largest chunk and clears its cursor.
func (s *SyncArena) Reset() {
	s.rotateMu.Lock()
	defer s.rotateMu.Unlock()

	cur := s.current.Load()
	if cur == nil {
		return
	}

	var keep *syncChunk
	maxCap := -1
	for c := cur; c != nil; c = c.prev {
		if c.capacity() > maxCap {
			maxCap = c.capacity()
			keep = c
		}
	}

	for c := cur; c != nil; {
		next := c.prev
		if c != keep {
			s.delegate.ReleaseChunk(c.buf)
		}
		c = next
	}

	keep.cursor.Store(0)
	keep.prev = nil
	s.current.Store(keep)
	s.lastCapacity.Store(int64(keep.capacity()))
	s.generation.Add(1)
}

// Drop returns every chunk to the delegate.
func (s *SyncArena) Drop() {
	s.rotateMu.Lock()
	defer s.rotateMu.Unlock()

	for c := s.current.Load(); c != nil; {
		next := c.prev
		s.delegate.ReleaseChunk(c.buf)
		c = next
	}
	s.current.Store(nil)
	s.lastCapacity.Store(0)
}

// LocalProxy creates a thread-bound view that leases sub-chunks from s.
func (s *SyncArena) LocalProxy() *LocalProxy {
	return &LocalProxy{
		parent: s,
		engine: newLocalEngine(leaseDelegate{s}, s.initialSize, s.maxSize),
	}
}

// NumChunks returns the number of chunks currently attached to the
// arena.
func (s *SyncArena) NumChunks() int {
	n := 0
	for c := s.current.Load(); c != nil; c = c.prev {
		n++
	}
	return n
}

// Capacity returns the total capacity, in bytes, of all chunks attached
// to the arena.
func (s *SyncArena) Capacity() int {
	total := 0
	for c := s.current.Load(); c != nil; c = c.prev {
		total += c.capacity()
	}
	return total
}
