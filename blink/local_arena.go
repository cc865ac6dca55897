// Copyright 2025 Mulga Defense Corporation (MDC). All rights reserved.
// Use of this source code is governed by an Apache 2.0 license
// that can be found in the LICENSE file.

package blink

import "unsafe"

// ArenaConfig configures a LocalArena or SyncArena. A zero-value
// ArenaConfig is valid: every field falls back to a documented default.
type ArenaConfig struct {
	// InitialChunkSize bootstraps the first chunk. Defaults to 4 KiB.
	InitialChunkSize int

	// MaxChunkSize caps geometric growth. Defaults to 2 GiB.
	MaxChunkSize int

	// Delegate is the lower-level allocator used to acquire and release
	// whole chunks. Defaults to the host heap.
	Delegate Delegate
}

func (c ArenaConfig) normalize() ArenaConfig {
	if c.InitialChunkSize <= 0 {
		c.InitialChunkSize = defaultInitialChunkSize
	}
	if c.MaxChunkSize <= 0 {
		c.MaxChunkSize = defaultMaxChunkSize
	}
	if c.Delegate == nil {
		c.Delegate = DefaultDelegate
	}
	return c
}

// LocalArena is a single-owner bump allocator: non-blocking, not
// synchronized, and not safe for concurrent use. It is created empty; the
// first allocation triggers chunk acquisition from its delegate.
//
// A LocalArena may be handed to another goroutine only while no handle it
// issued is still outstanding — the package does not enforce this at
// runtime for the raw Allocator surface (see DropArena for a checked
// typed API).
type LocalArena struct {
	engine     localEngine
	generation uint64
	closed     bool
}

// NewLocalArena creates an empty LocalArena with the given configuration.
func NewLocalArena(cfg ArenaConfig) *LocalArena {
	cfg = cfg.normalize()
	return &LocalArena{engine: newLocalEngine(cfg.Delegate, cfg.InitialChunkSize, cfg.MaxChunkSize)}
}

// NewDefaultLocalArena creates an empty LocalArena with default
// configuration (4 KiB bootstrap chunk, 2 GiB cap, host heap delegate).
func NewDefaultLocalArena() *LocalArena {
	return NewLocalArena(ArenaConfig{})
}

func (a *LocalArena) Allocate(layout Layout) (unsafe.Pointer, error) {
	if a.closed {
		return nil, ErrArenaClosed
	}
	return a.engine.allocate(layout)
}

func (a *LocalArena) Deallocate(ptr unsafe.Pointer, layout Layout) {
	if a.closed {
		return
	}
	a.engine.deallocate(ptr, layout)
}

func (a *LocalArena) Grow(ptr unsafe.Pointer, oldLayout, newLayout Layout) (unsafe.Pointer, error) {
	if a.closed {
		return nil, ErrArenaClosed
	}
	return a.engine.grow(ptr, oldLayout, newLayout)
}

func (a *LocalArena) Shrink(ptr unsafe.Pointer, oldLayout, newLayout Layout) unsafe.Pointer {
	if a.closed {
		return ptr
	}
	return a.engine.shrink(ptr, oldLayout, newLayout)
}

// Reset invalidates every handle issued since the last reset (or since
// creation) and retains the single largest chunk so the next phase skips
// warm-up. It requires that the caller hold the only reference to a —
// the package cannot verify this for the raw Allocator surface.
func (a *LocalArena) Reset() {
	a.engine.list.reset()
	a.generation++
}

// Generation returns the arena's current generation counter, bumped on
// every Reset. DropArena's typed handles stamp this value and refuse to
// dereference once it goes stale.
func (a *LocalArena) Generation() uint64 { return a.generation }

// Drop returns every chunk to the delegate and marks the arena unusable.
func (a *LocalArena) Drop() {
	a.engine.list.drop()
	a.closed = true
}

// NumChunks returns the number of chunks currently held by the arena.
func (a *LocalArena) NumChunks() int { return a.engine.list.numChunks() }

// Capacity returns the total capacity, in bytes, of all chunks held by
// the arena.
func (a *LocalArena) Capacity() int { return a.engine.list.capacity() }

// SizeInUse returns the total number of bytes allocated across all
// chunks, including internal fragmentation from alignment.
func (a *LocalArena) SizeInUse() int { return a.engine.list.sizeInUse() }
